package plex

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Clients lists players the server can see.
func (c *Client) Clients(ctx context.Context) ([]Device, error) {
	mc, err := c.get(ctx, "/clients", nil)
	if err != nil {
		return nil, err
	}
	return mc.Server, nil
}

// Sessions lists what is playing right now.
func (c *Client) Sessions(ctx context.Context) ([]Metadata, error) {
	mc, err := c.get(ctx, "/status/sessions", nil)
	if err != nil {
		return nil, err
	}
	return mc.Metadata, nil
}

// HistoryFilter narrows a history query. Zero values are ignored.
type HistoryFilter struct {
	MetadataItemID string
	AccountID      int
	SectionID      int
	Limit          int
}

// History lists plays, newest first.
func (c *Client) History(ctx context.Context, f HistoryFilter) ([]Metadata, error) {
	q := url.Values{}
	q.Set("sort", "viewedAt:desc")
	if f.MetadataItemID != "" {
		q.Set("metadataItemID", f.MetadataItemID)
	}
	if f.AccountID > 0 {
		q.Set("accountID", strconv.Itoa(f.AccountID))
	}
	if f.SectionID > 0 {
		q.Set("librarySectionID", strconv.Itoa(f.SectionID))
	}
	if f.Limit > 0 {
		q.Set("X-Plex-Container-Start", "0")
		q.Set("X-Plex-Container-Size", strconv.Itoa(f.Limit))
	}
	mc, err := c.get(ctx, "/status/sessions/history/all", q)
	if err != nil {
		return nil, err
	}
	return mc.Metadata, nil
}

// Accounts lists the server-local accounts that history and statistics
// refer to by id.
func (c *Client) Accounts(ctx context.Context) ([]Account, error) {
	mc, err := c.get(ctx, "/accounts", nil)
	if err != nil {
		return nil, err
	}
	return mc.Account, nil
}

// Devices lists every device that has talked to the server.
func (c *Client) Devices(ctx context.Context) ([]StatDevice, error) {
	mc, err := c.get(ctx, "/devices", nil)
	if err != nil {
		return nil, err
	}
	return mc.Device, nil
}

// ButlerTasks lists scheduled maintenance tasks.
func (c *Client) ButlerTasks(ctx context.Context) ([]ButlerTask, error) {
	mc, err := c.get(ctx, "/butler", nil)
	if err != nil {
		return nil, err
	}
	if mc.ButlerTasks == nil {
		return nil, nil
	}
	return mc.ButlerTasks.ButlerTask, nil
}

// RunButlerTask starts a task by name. A non-2xx answer is returned as a
// *StatusError whose Body holds the server's HTML explanation.
func (c *Client) RunButlerTask(ctx context.Context, name string) error {
	return c.send(ctx, http.MethodPost, "/butler/"+url.PathEscape(name), nil)
}

// Statistics timespans.
const (
	TimespanHours   = 1
	TimespanDays    = 2
	TimespanWeeks   = 3
	TimespanMonths  = 4
	TimespanSeconds = 6
)

// BandwidthStats returns bandwidth samples plus the accounts and devices
// they reference. lan may be nil for both.
func (c *Client) BandwidthStats(ctx context.Context, timespan int, lan *bool) (*MediaContainer, error) {
	q := url.Values{}
	if timespan > 0 {
		q.Set("timespan", strconv.Itoa(timespan))
	}
	if lan != nil {
		q.Set("lan", boolParam(*lan))
	}
	return c.get(ctx, "/statistics/bandwidth", q)
}

// ResourceStats returns recent host and process utilisation samples.
func (c *Client) ResourceStats(ctx context.Context) ([]ResourceStat, error) {
	q := url.Values{}
	q.Set("timespan", strconv.Itoa(TimespanSeconds))
	mc, err := c.get(ctx, "/statistics/resources", q)
	if err != nil {
		return nil, err
	}
	return mc.StatisticsResources, nil
}

// MediaStats returns watch-time samples since the epoch second since, plus
// the accounts and devices they reference.
func (c *Client) MediaStats(ctx context.Context, timespan int, since int64) (*MediaContainer, error) {
	q := url.Values{}
	q.Set("timespan", strconv.Itoa(timespan))
	if since > 0 {
		q.Set("at>", strconv.FormatInt(since, 10))
	}
	return c.get(ctx, "/statistics/media", q)
}

// Log downloads the diagnostics archive and returns the first log file
// whose name contains filename, ignoring case.
func (c *Client) Log(ctx context.Context, filename string) (string, error) {
	data, err := c.download(ctx, "/diagnostics/logs", nil)
	if err != nil {
		return "", err
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("plex: reading log archive: %w", err)
	}

	var names []string
	for _, f := range zr.File {
		base := f.Name
		if i := strings.LastIndex(base, "/"); i >= 0 {
			base = base[i+1:]
		}
		names = append(names, base)
		if !strings.Contains(strings.ToLower(base), strings.ToLower(filename)) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("plex: opening %s: %w", filename, err)
		}
		defer rc.Close()
		body, err := io.ReadAll(rc)
		if err != nil {
			return "", fmt.Errorf("plex: reading %s: %w", filename, err)
		}
		return string(body), nil
	}
	return "", fmt.Errorf("log %q not in archive (have: %s): %w", filename, strings.Join(names, ", "), ErrNotFound)
}

// HTTPStatus returns the status code of a *StatusError, or 0.
func HTTPStatus(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}

func boolParam(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
