package plex

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync/atomic"
)

// commandID is sent with every player command; players use it to order
// requests from one controller.
var commandID atomic.Int64

// Timeline is one media-type timeline reported by a player.
type Timeline struct {
	Type              string `xml:"type,attr" json:"type"`
	State             string `xml:"state,attr" json:"state"`
	Time              int64  `xml:"time,attr" json:"time"`
	Duration          int64  `xml:"duration,attr" json:"duration"`
	Volume            int    `xml:"volume,attr" json:"volume"`
	Muted             Bool   `xml:"muted,attr" json:"muted"`
	RatingKey         string `xml:"ratingKey,attr" json:"ratingKey"`
	Key               string `xml:"key,attr" json:"key"`
	MachineIdentifier string `xml:"machineIdentifier,attr" json:"machineIdentifier"`
	Location          string `xml:"location,attr" json:"location"`
}

// Active reports whether the timeline has media loaded.
func (t Timeline) Active() bool {
	return t.State != "" && t.State != "stopped"
}

// PlayerCommand sends a companion command such as "/player/playback/pause"
// to the player with machineID, proxied through the server.
func (c *Client) PlayerCommand(ctx context.Context, machineID, path string, params url.Values) error {
	q := url.Values{}
	for k, vs := range params {
		q[k] = vs
	}
	q.Set("commandID", strconv.FormatInt(commandID.Add(1), 10))

	req, err := c.newRequest(ctx, http.MethodGet, path, q, nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-Plex-Target-Client-Identifier", machineID)
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}

// Timelines polls the player's current timelines without waiting.
func (c *Client) Timelines(ctx context.Context, machineID string) ([]Timeline, error) {
	q := url.Values{}
	q.Set("wait", "0")
	q.Set("commandID", strconv.FormatInt(commandID.Add(1), 10))

	header := http.Header{}
	header.Set("X-Plex-Target-Client-Identifier", machineID)

	var out struct {
		XMLName   xml.Name   `xml:"MediaContainer"`
		Timelines []Timeline `xml:"Timeline"`
	}
	if err := c.getXML(ctx, c.resolve("/player/timeline/poll", q).String(), header, &out); err != nil {
		return nil, err
	}
	return out.Timelines, nil
}

// ActiveTimeline returns the first timeline with media loaded, or nil when
// the player is idle.
func (c *Client) ActiveTimeline(ctx context.Context, machineID string) (*Timeline, error) {
	timelines, err := c.Timelines(ctx, machineID)
	if err != nil {
		return nil, err
	}
	for _, t := range timelines {
		if t.Active() {
			return &t, nil
		}
	}
	return nil, nil
}

// PlayQueueType maps an item type to the play queue type.
func PlayQueueType(itemType string) string {
	switch itemType {
	case "track", "album", "artist":
		return "audio"
	case "photo", "photoalbum":
		return "photo"
	default:
		return "video"
	}
}

// CreatePlayQueue queues item and returns the queue id.
func (c *Client) CreatePlayQueue(ctx context.Context, item Metadata) (int, error) {
	machineID, err := c.MachineIdentifier(ctx)
	if err != nil {
		return 0, err
	}
	q := url.Values{}
	q.Set("type", PlayQueueType(item.Type))
	q.Set("uri", ItemsURI(machineID, item.RatingKey))
	q.Set("shuffle", "0")
	q.Set("repeat", "0")
	q.Set("continuous", "0")
	q.Set("own", "1")

	mc, err := c.call(ctx, http.MethodPost, "/playQueues", q)
	if err != nil {
		return 0, err
	}
	if mc.PlayQueueID == 0 {
		return 0, fmt.Errorf("plex: play queue for %q was not created", item.Title)
	}
	return mc.PlayQueueID, nil
}

// PlayMedia starts item on the player at offset milliseconds.
func (c *Client) PlayMedia(ctx context.Context, playerID string, item Metadata, offset int64) error {
	serverID, err := c.MachineIdentifier(ctx)
	if err != nil {
		return err
	}
	queueID, err := c.CreatePlayQueue(ctx, item)
	if err != nil {
		return err
	}

	base := c.BaseURL()
	port := base.Port()
	if port == "" {
		port = "32400"
		if base.Scheme == "https" {
			port = "443"
		}
	}

	mediaType := "video"
	switch PlayQueueType(item.Type) {
	case "audio":
		mediaType = "music"
	case "photo":
		mediaType = "photo"
	}

	q := url.Values{}
	q.Set("key", "/library/metadata/"+item.RatingKey)
	q.Set("offset", strconv.FormatInt(offset, 10))
	q.Set("machineIdentifier", serverID)
	q.Set("address", base.Hostname())
	q.Set("port", port)
	q.Set("protocol", base.Scheme)
	q.Set("token", c.token)
	q.Set("type", mediaType)
	q.Set("containerKey", fmt.Sprintf("/playQueues/%d?window=100&own=1", queueID))
	return c.PlayerCommand(ctx, playerID, "/player/playback/playMedia", q)
}
