package plex

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/gabriel-vasile/mimetype"
)

// ArtKind names an artwork slot on an item.
type ArtKind string

const (
	ArtPoster     ArtKind = "poster"
	ArtBackground ArtKind = "art"
	ArtLogo       ArtKind = "clearLogo"
)

// listPath is the collection endpoint for the kind, e.g. "posters".
func (k ArtKind) listPath() string {
	switch k {
	case ArtBackground:
		return "arts"
	case ArtLogo:
		return "clearLogos"
	default:
		return "posters"
	}
}

// LockField is the edit field that pins the kind against agent refreshes.
func (k ArtKind) LockField() string {
	switch k {
	case ArtBackground:
		return "art.locked"
	case ArtLogo:
		return "clearLogo.locked"
	default:
		return "thumb.locked"
	}
}

// Artwork lists the available images of a kind for an item.
func (c *Client) Artwork(ctx context.Context, ratingKey string, kind ArtKind) ([]Metadata, error) {
	mc, err := c.get(ctx, "/library/metadata/"+url.PathEscape(ratingKey)+"/"+kind.listPath(), nil)
	if err != nil {
		return nil, err
	}
	return mc.Metadata, nil
}

// UploadArtworkURL asks the server to fetch an image from imageURL.
func (c *Client) UploadArtworkURL(ctx context.Context, ratingKey string, kind ArtKind, imageURL string) error {
	q := url.Values{}
	q.Set("url", imageURL)
	return c.send(ctx, http.MethodPost, "/library/metadata/"+url.PathEscape(ratingKey)+"/"+kind.listPath(), q)
}

// UploadArtwork posts raw image bytes.
func (c *Client) UploadArtwork(ctx context.Context, ratingKey string, kind ArtKind, data []byte) error {
	mtype := mimetype.Detect(data)
	if !isImage(mtype) {
		return fmt.Errorf("plex: upload is %s, not an image", mtype.String())
	}

	path := "/library/metadata/" + url.PathEscape(ratingKey) + "/" + kind.listPath()
	req, err := c.newRequest(ctx, http.MethodPost, path, nil, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mtype.String())
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}

// SelectArtwork makes an already uploaded image the active one. key is the
// Key of an entry returned by Artwork.
func (c *Client) SelectArtwork(ctx context.Context, ratingKey string, kind ArtKind, key string) error {
	q := url.Values{}
	q.Set("url", key)
	return c.send(ctx, http.MethodPut, "/library/metadata/"+url.PathEscape(ratingKey)+"/"+string(kind), q)
}

// Image downloads an image path such as an item's Thumb and reports its
// MIME type and usual file extension.
func (c *Client) Image(ctx context.Context, path string) (data []byte, mime string, ext string, err error) {
	data, err = c.download(ctx, path, nil)
	if err != nil {
		return nil, "", "", err
	}
	mtype := mimetype.Detect(data)
	return data, mtype.String(), mtype.Extension(), nil
}

func isImage(m *mimetype.MIME) bool {
	for ; m != nil; m = m.Parent() {
		if m.Is("image/jpeg") || m.Is("image/png") || m.Is("image/webp") || m.Is("image/gif") || m.Is("image/bmp") {
			return true
		}
	}
	return false
}
