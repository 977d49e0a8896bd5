package plex

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Identity returns the server's root container.
func (c *Client) Identity(ctx context.Context) (*MediaContainer, error) {
	return c.get(ctx, "/", nil)
}

// MachineIdentifier returns the unique id of the server.
func (c *Client) MachineIdentifier(ctx context.Context) (string, error) {
	mc, err := c.Identity(ctx)
	if err != nil {
		return "", err
	}
	if mc.MachineIdentifier == "" {
		return "", fmt.Errorf("plex: server did not report a machine identifier")
	}
	return mc.MachineIdentifier, nil
}

// Sections lists the library sections.
func (c *Client) Sections(ctx context.Context) ([]Directory, error) {
	mc, err := c.get(ctx, "/library/sections", nil)
	if err != nil {
		return nil, err
	}
	return mc.Directory, nil
}

// SectionByTitle finds a section by title, ignoring case.
func (c *Client) SectionByTitle(ctx context.Context, title string) (Directory, []Directory, error) {
	sections, err := c.Sections(ctx)
	if err != nil {
		return Directory{}, nil, err
	}
	for _, s := range sections {
		if strings.EqualFold(s.Title, title) {
			return s, sections, nil
		}
	}
	return Directory{}, sections, fmt.Errorf("library %q: %w", title, ErrNotFound)
}

// SectionByID finds a section by key.
func (c *Client) SectionByID(ctx context.Context, id int) (Directory, error) {
	sections, err := c.Sections(ctx)
	if err != nil {
		return Directory{}, err
	}
	key := strconv.Itoa(id)
	for _, s := range sections {
		if s.Key == key {
			return s, nil
		}
	}
	return Directory{}, fmt.Errorf("library %d: %w", id, ErrNotFound)
}

// SectionItems lists a section's items. query may carry type, title,
// unwatched and other filters.
func (c *Client) SectionItems(ctx context.Context, sectionKey string, query url.Values) ([]Metadata, error) {
	mc, err := c.get(ctx, "/library/sections/"+url.PathEscape(sectionKey)+"/all", query)
	if err != nil {
		return nil, err
	}
	return mc.Metadata, nil
}

// SectionCount returns how many items of the given type the section holds
// without fetching them.
func (c *Client) SectionCount(ctx context.Context, sectionKey string, libtype int) (int, error) {
	q := url.Values{}
	if libtype > 0 {
		q.Set("type", strconv.Itoa(libtype))
	}
	q.Set("X-Plex-Container-Start", "0")
	q.Set("X-Plex-Container-Size", "0")
	mc, err := c.get(ctx, "/library/sections/"+url.PathEscape(sectionKey)+"/all", q)
	if err != nil {
		return 0, err
	}
	if mc.TotalSize > 0 {
		return mc.TotalSize, nil
	}
	return mc.Size, nil
}

// SectionSettings returns the advanced preferences of a section.
func (c *Client) SectionSettings(ctx context.Context, sectionKey string) ([]Setting, error) {
	mc, err := c.get(ctx, "/library/sections/"+url.PathEscape(sectionKey)+"/prefs", nil)
	if err != nil {
		return nil, err
	}
	return mc.Setting, nil
}

// RefreshSection starts a scan. force re-reads metadata for every item;
// path limits the scan to one folder.
func (c *Client) RefreshSection(ctx context.Context, sectionKey string, force bool, path string) error {
	q := url.Values{}
	if force {
		q.Set("force", "1")
	}
	if path != "" {
		q.Set("path", path)
	}
	return c.send(ctx, http.MethodGet, "/library/sections/"+url.PathEscape(sectionKey)+"/refresh", q)
}

// RefreshAll scans every section.
func (c *Client) RefreshAll(ctx context.Context) error {
	return c.send(ctx, http.MethodGet, "/library/sections/all/refresh", nil)
}

// RecentlyAdded lists recent items of one section, or of all sections when
// sectionKey is empty.
func (c *Client) RecentlyAdded(ctx context.Context, sectionKey string, count int) ([]Metadata, error) {
	path := "/library/recentlyAdded"
	if sectionKey != "" {
		path = "/library/sections/" + url.PathEscape(sectionKey) + "/recentlyAdded"
	}
	q := url.Values{}
	if count > 0 {
		q.Set("X-Plex-Container-Start", "0")
		q.Set("X-Plex-Container-Size", strconv.Itoa(count))
	}
	mc, err := c.get(ctx, path, q)
	if err != nil {
		return nil, err
	}
	items := mc.Metadata
	if count > 0 && len(items) > count {
		items = items[:count]
	}
	return items, nil
}

// Metadata fetches one item by rating key.
func (c *Client) Metadata(ctx context.Context, ratingKey string) (*Metadata, error) {
	mc, err := c.get(ctx, "/library/metadata/"+url.PathEscape(ratingKey), nil)
	if err != nil {
		return nil, err
	}
	if len(mc.Metadata) == 0 {
		return nil, fmt.Errorf("item %s: %w", ratingKey, ErrNotFound)
	}
	return &mc.Metadata[0], nil
}

// Children lists the direct children of an item: seasons of a show,
// episodes of a season, albums of an artist, tracks of an album.
func (c *Client) Children(ctx context.Context, ratingKey string) ([]Metadata, error) {
	mc, err := c.get(ctx, "/library/metadata/"+url.PathEscape(ratingKey)+"/children", nil)
	if err != nil {
		return nil, err
	}
	return mc.Metadata, nil
}

// AllLeaves lists every playable descendant of an item.
func (c *Client) AllLeaves(ctx context.Context, ratingKey string) ([]Metadata, error) {
	mc, err := c.get(ctx, "/library/metadata/"+url.PathEscape(ratingKey)+"/allLeaves", nil)
	if err != nil {
		return nil, err
	}
	return mc.Metadata, nil
}

// Search runs a hub search across all sections and flattens the hubs.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Metadata, error) {
	q := url.Values{}
	q.Set("query", query)
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	mc, err := c.get(ctx, "/hubs/search", q)
	if err != nil {
		return nil, err
	}
	var items []Metadata
	for _, hub := range mc.Hub {
		items = append(items, hub.Metadata...)
		items = append(items, hub.Directory...)
	}
	return items, nil
}

// LibrarySearch uses /library/search, which supports searchTypes such as
// "movies", "tv" and "music". itemType, when set, is sent as the type
// filter.
func (c *Client) LibrarySearch(ctx context.Context, query, searchTypes, itemType string, limit int) ([]Metadata, error) {
	q := url.Values{}
	q.Set("query", query)
	if limit <= 0 {
		limit = 100
	}
	q.Set("limit", strconv.Itoa(limit))
	if searchTypes != "" {
		q.Set("searchTypes", searchTypes)
	}
	if itemType != "" {
		q.Set("type", itemType)
	}
	q.Set("includeCollections", "1")
	q.Set("includeExternalMedia", "1")
	mc, err := c.get(ctx, "/library/search", q)
	if err != nil {
		return nil, err
	}
	items := make([]Metadata, 0, len(mc.SearchResult))
	for _, r := range mc.SearchResult {
		if r.Metadata != nil {
			items = append(items, *r.Metadata)
		}
	}
	return items, nil
}

// SearchSection searches one section by title and optional type.
func (c *Client) SearchSection(ctx context.Context, sectionKey, title string, libtype int) ([]Metadata, error) {
	q := url.Values{}
	q.Set("title", title)
	if libtype > 0 {
		q.Set("type", strconv.Itoa(libtype))
	}
	return c.SectionItems(ctx, sectionKey, q)
}

// OnDeck lists in-progress and next-up items for the token's user.
func (c *Client) OnDeck(ctx context.Context) ([]Metadata, error) {
	mc, err := c.get(ctx, "/library/onDeck", nil)
	if err != nil {
		return nil, err
	}
	return mc.Metadata, nil
}

// Edit applies field edits such as "title.value" and "label[0].tag.tag"
// to an item of the given type in a section.
func (c *Client) Edit(ctx context.Context, sectionID int, libtype int, ratingKey string, fields url.Values) error {
	q := url.Values{}
	q.Set("type", strconv.Itoa(libtype))
	q.Set("id", ratingKey)
	for k, vs := range fields {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	return c.send(ctx, http.MethodPut, "/library/sections/"+strconv.Itoa(sectionID)+"/all", q)
}

// Rate sets the user rating (0-10) of an item.
func (c *Client) Rate(ctx context.Context, ratingKey string, rating float64) error {
	q := url.Values{}
	q.Set("key", ratingKey)
	q.Set("identifier", "com.plexapp.plugins.library")
	q.Set("rating", strconv.FormatFloat(rating, 'f', -1, 64))
	return c.send(ctx, http.MethodPut, "/:/rate", q)
}

// Delete removes an item and its media files.
func (c *Client) Delete(ctx context.Context, ratingKey string) error {
	return c.send(ctx, http.MethodDelete, "/library/metadata/"+url.PathEscape(ratingKey), nil)
}

// SetPrefs changes advanced settings of an item, such as a collection's
// collectionMode.
func (c *Client) SetPrefs(ctx context.Context, ratingKey string, prefs map[string]string) error {
	q := url.Values{}
	for k, v := range prefs {
		q.Set(k, v)
	}
	return c.send(ctx, http.MethodPut, "/library/metadata/"+url.PathEscape(ratingKey)+"/prefs", q)
}

// ItemsURI builds the server:// URI that playlist, collection and play
// queue endpoints take to reference library items.
func ItemsURI(machineID string, ratingKeys ...string) string {
	return fmt.Sprintf("server://%s/com.plexapp.plugins.library/library/metadata/%s", machineID, strings.Join(ratingKeys, ","))
}
