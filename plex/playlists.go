package plex

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// Playlists lists playlists, optionally filtered by playlistType (audio,
// video, photo) and section.
func (c *Client) Playlists(ctx context.Context, playlistType string, sectionID int) ([]Metadata, error) {
	q := url.Values{}
	if playlistType != "" {
		q.Set("playlistType", playlistType)
	}
	if sectionID > 0 {
		q.Set("sectionID", strconv.Itoa(sectionID))
	}
	mc, err := c.get(ctx, "/playlists", q)
	if err != nil {
		return nil, err
	}
	return mc.Metadata, nil
}

// Playlist fetches one playlist.
func (c *Client) Playlist(ctx context.Context, ratingKey string) (*Metadata, error) {
	mc, err := c.get(ctx, "/playlists/"+url.PathEscape(ratingKey), nil)
	if err != nil {
		return nil, err
	}
	if len(mc.Metadata) == 0 {
		return nil, fmt.Errorf("playlist %s: %w", ratingKey, ErrNotFound)
	}
	return &mc.Metadata[0], nil
}

// PlaylistItems lists the entries of a playlist. Each entry carries its
// PlaylistItemID, which is what removal needs.
func (c *Client) PlaylistItems(ctx context.Context, ratingKey string) ([]Metadata, error) {
	mc, err := c.get(ctx, "/playlists/"+url.PathEscape(ratingKey)+"/items", nil)
	if err != nil {
		return nil, err
	}
	return mc.Metadata, nil
}

// CreatePlaylist makes a regular playlist of the given items. playlistType is
// audio, video or photo.
func (c *Client) CreatePlaylist(ctx context.Context, title, playlistType string, ratingKeys []string) (*Metadata, error) {
	machineID, err := c.MachineIdentifier(ctx)
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("type", playlistType)
	q.Set("title", title)
	q.Set("smart", "0")
	q.Set("uri", ItemsURI(machineID, ratingKeys...))

	mc, err := c.call(ctx, http.MethodPost, "/playlists", q)
	if err != nil {
		return nil, err
	}
	if len(mc.Metadata) == 0 {
		return nil, fmt.Errorf("plex: playlist %q was not returned after create", title)
	}
	return &mc.Metadata[0], nil
}

// AddToPlaylist appends items.
func (c *Client) AddToPlaylist(ctx context.Context, playlistKey string, ratingKeys []string) error {
	machineID, err := c.MachineIdentifier(ctx)
	if err != nil {
		return err
	}
	q := url.Values{}
	q.Set("uri", ItemsURI(machineID, ratingKeys...))
	return c.send(ctx, http.MethodPut, "/playlists/"+url.PathEscape(playlistKey)+"/items", q)
}

// RemoveFromPlaylist drops one entry by its playlist item id.
func (c *Client) RemoveFromPlaylist(ctx context.Context, playlistKey string, playlistItemID int) error {
	return c.send(ctx, http.MethodDelete, "/playlists/"+url.PathEscape(playlistKey)+"/items/"+strconv.Itoa(playlistItemID), nil)
}

// EditPlaylist changes the title and/or summary. Empty values are left alone.
func (c *Client) EditPlaylist(ctx context.Context, playlistKey, title, summary string) error {
	q := url.Values{}
	if title != "" {
		q.Set("title", title)
	}
	if summary != "" {
		q.Set("summary", summary)
	}
	return c.send(ctx, http.MethodPut, "/playlists/"+url.PathEscape(playlistKey), q)
}

func (c *Client) DeletePlaylist(ctx context.Context, playlistKey string) error {
	return c.send(ctx, http.MethodDelete, "/playlists/"+url.PathEscape(playlistKey), nil)
}
