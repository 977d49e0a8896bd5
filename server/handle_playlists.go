package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/hays/plex-mcp/models"
	"github.com/hays/plex-mcp/plex"
)

var playlistTypes = []string{"audio", "video", "photo"}

// playlistTarget names a playlist by id or title.
type playlistTarget struct {
	PlaylistTitle string `json:"playlist_title"`
	PlaylistID    Key    `json:"playlist_id"`
}

// findPlaylist resolves t. A nil *models.PlaylistMatchesResponse means one
// playlist was found.
func findPlaylist(ctx context.Context, c *plex.Client, t playlistTarget) (plex.Metadata, *models.PlaylistMatchesResponse, error) {
	if t.PlaylistID == "" && t.PlaylistTitle == "" {
		return plex.Metadata{}, nil, errors.New("either playlist_id or playlist_title must be provided")
	}

	if t.PlaylistID != "" {
		p, err := c.Playlist(ctx, t.PlaylistID.String())
		if err == nil {
			return *p, nil, nil
		}
		if !errors.Is(err, plex.ErrNotFound) {
			return plex.Metadata{}, nil, fmt.Errorf("error fetching playlist by ID: %w", err)
		}
		return plex.Metadata{}, nil, fmt.Errorf("playlist with ID '%s' not found", t.PlaylistID)
	}

	all, err := c.Playlists(ctx, "", 0)
	if err != nil {
		return plex.Metadata{}, nil, fmt.Errorf("error listing playlists: %w", err)
	}
	var matches []plex.Metadata
	for _, p := range all {
		if strings.EqualFold(p.Title, t.PlaylistTitle) {
			matches = append(matches, p)
		}
	}
	switch len(matches) {
	case 0:
		return plex.Metadata{}, nil, fmt.Errorf("no playlist found with title '%s'", t.PlaylistTitle)
	case 1:
		return matches[0], nil, nil
	}
	resp := &models.PlaylistMatchesResponse{
		Status:  models.StatusMultipleMatches,
		Message: fmt.Sprintf("Found %d playlists with title '%s'. Please specify the playlist ID.", len(matches), t.PlaylistTitle),
	}
	for _, p := range matches {
		resp.Matches = append(resp.Matches, models.PlaylistMatch{
			Title:     p.Title,
			ID:        p.ID(),
			Type:      p.PlaylistType,
			ItemCount: p.LeafCount,
		})
	}
	return plex.Metadata{}, resp, nil
}

// playlistTypeFor picks the playlist type that fits an item type.
func playlistTypeFor(itemType string) string {
	switch itemType {
	case "track", "album", "artist":
		return "audio"
	case "photo", "photoalbum":
		return "photo"
	default:
		return "video"
	}
}

// --- playlist_list ---

type playlistListArgs struct {
	LibraryName string `json:"library_name"`
	ContentType string `json:"content_type"`
}

func (s *Server) playlistList(ctx context.Context, c *plex.Client, in playlistListArgs) (any, error) {
	contentType := strings.ToLower(in.ContentType)
	if contentType != "" && !slices.Contains(playlistTypes, contentType) {
		return nil, fmt.Errorf("invalid content type. Valid types are: %s", strings.Join(playlistTypes, ", "))
	}

	sectionID := 0
	if in.LibraryName != "" {
		section, _, err := c.SectionByTitle(ctx, in.LibraryName)
		if errors.Is(err, plex.ErrNotFound) {
			return nil, fmt.Errorf("library '%s' not found", in.LibraryName)
		}
		if err != nil {
			return nil, err
		}
		sectionID = section.ID()
	}

	all, err := c.Playlists(ctx, contentType, sectionID)
	if err != nil {
		return nil, fmt.Errorf("error listing playlists: %w", err)
	}
	items := make([]models.PlaylistInfo, 0, len(all))
	for _, p := range all {
		items = append(items, models.PlaylistInfo{
			Title:     p.Title,
			Key:       p.Key,
			RatingKey: p.RatingKey,
			Type:      p.PlaylistType,
			Summary:   p.Summary,
			Duration:  p.Duration,
			ItemCount: p.LeafCount,
		})
	}
	msg := fmt.Sprintf("Found %d playlists", len(items))
	if len(items) == 0 {
		msg = "No playlists found"
	}
	return models.ListResponse{Status: models.StatusSuccess, Message: msg, Count: len(items), Items: items}, nil
}

// --- playlist_get_contents ---

func playlistEntry(m plex.Metadata) map[string]any {
	e := map[string]any{
		"title":     m.Title,
		"type":      m.Type,
		"ratingKey": m.RatingKey,
		"addedAt":   stamp(m.AddedAt, layoutDateTime),
		"duration":  m.Duration,
		"thumb":     m.Thumb,
	}
	switch m.Type {
	case "movie":
		e["year"] = m.Year
	case "episode":
		e["show"] = m.GrandparentTitle
		e["season"] = m.ParentTitle
		e["seasonNumber"] = m.ParentIndex
		e["episodeNumber"] = m.Index
	case "track":
		e["artist"] = m.GrandparentTitle
		e["album"] = m.ParentTitle
		e["albumArtist"] = m.OriginalTitle
	}
	return e
}

func (s *Server) playlistGetContents(ctx context.Context, c *plex.Client, in playlistTarget) (any, error) {
	p, multi, err := findPlaylist(ctx, c, in)
	if err != nil || multi != nil {
		return multi, err
	}

	resp := models.PlaylistContentsResponse{
		Status:   models.StatusSuccess,
		Title:    p.Title,
		ID:       p.ID(),
		Key:      p.Key,
		Type:     p.PlaylistType,
		Summary:  p.Summary,
		Duration: p.Duration,
		Items:    []map[string]any{},
	}

	items, err := c.PlaylistItems(ctx, p.RatingKey)
	// The server answers 500 for the items of an empty playlist.
	if plex.HTTPStatus(err) == 500 || (err == nil && len(items) == 0) {
		resp.Status = models.StatusInfo
		resp.Message = fmt.Sprintf("Playlist '%s' is empty", p.Title)
		return resp, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error getting playlist contents: %w", err)
	}
	for _, m := range items {
		resp.Items = append(resp.Items, playlistEntry(m))
	}
	resp.ItemCount = len(resp.Items)
	return resp, nil
}

// --- playlist_create ---

type playlistCreateArgs struct {
	PlaylistTitle string   `json:"playlist_title"`
	ItemTitles    []string `json:"item_titles"`
	LibraryName   string   `json:"library_name"`
	Summary       string   `json:"summary"`
}

func (s *Server) playlistCreate(ctx context.Context, c *plex.Client, in playlistCreateArgs) (any, error) {
	if len(in.ItemTitles) == 0 {
		return nil, errors.New("no items found for the playlist")
	}

	var section *plex.Directory
	if in.LibraryName != "" {
		sec, _, err := c.SectionByTitle(ctx, in.LibraryName)
		if errors.Is(err, plex.ErrNotFound) {
			return nil, fmt.Errorf("library '%s' not found", in.LibraryName)
		}
		if err != nil {
			return nil, err
		}
		section = &sec
	}

	var items []plex.Metadata
	for _, title := range in.ItemTitles {
		var (
			results []plex.Metadata
			err     error
		)
		if section != nil {
			results, err = c.SearchSection(ctx, section.Key, title, 0)
		} else {
			results, err = c.Search(ctx, title, 10)
		}
		if err != nil {
			return nil, fmt.Errorf("searching for '%s': %w", title, err)
		}
		idx := slices.IndexFunc(results, func(m plex.Metadata) bool { return m.RatingKey != "" })
		if idx < 0 {
			return nil, fmt.Errorf("item '%s' not found", title)
		}
		items = append(items, results[idx])
	}

	ratingKeys := make([]string, 0, len(items))
	for _, m := range items {
		ratingKeys = append(ratingKeys, m.RatingKey)
	}
	p, err := c.CreatePlaylist(ctx, in.PlaylistTitle, playlistTypeFor(items[0].Type), ratingKeys)
	if err != nil {
		return nil, fmt.Errorf("error creating playlist: %w", err)
	}
	if in.Summary != "" {
		if err := c.EditPlaylist(ctx, p.RatingKey, "", in.Summary); err != nil {
			return nil, fmt.Errorf("playlist created but setting the summary failed: %w", err)
		}
	}

	return models.OperationResponse{
		Status:  models.StatusSuccess,
		Message: fmt.Sprintf("Playlist '%s' created successfully", in.PlaylistTitle),
		Data: map[string]any{
			"title":      p.Title,
			"key":        p.Key,
			"ratingKey":  p.RatingKey,
			"item_count": len(items),
		},
	}, nil
}

// --- playlist_delete ---

func (s *Server) playlistDelete(ctx context.Context, c *plex.Client, in playlistTarget) (any, error) {
	p, multi, err := findPlaylist(ctx, c, in)
	if err != nil || multi != nil {
		return multi, err
	}
	if err := c.DeletePlaylist(ctx, p.RatingKey); err != nil {
		return nil, fmt.Errorf("error deleting playlist: %w", err)
	}
	return models.PlaylistDeleteResponse{Status: models.StatusSuccess, Deleted: true, Title: p.Title}, nil
}

// --- playlist_add_to ---

type playlistAddArgs struct {
	playlistTarget
	ItemTitles []string `json:"item_titles"`
	ItemIDs    []Key    `json:"item_ids"`
}

// searchNonPhoto looks for an exact title match in every section that is
// not a photo library. Near misses are returned when nothing matches.
func searchNonPhoto(ctx context.Context, c *plex.Client, sections []plex.Directory, title string) (*plex.Metadata, []models.PossibleMatch, error) {
	var possible []models.PossibleMatch
	for _, sec := range sections {
		if sec.Type == "photo" {
			continue
		}
		results, err := c.SearchSection(ctx, sec.Key, title, 0)
		if err != nil {
			return nil, nil, fmt.Errorf("searching %s for '%s': %w", sec.Title, title, err)
		}
		for i := range results {
			if strings.EqualFold(results[i].Title, title) {
				return &results[i], nil, nil
			}
		}
		for _, m := range results {
			possible = append(possible, models.PossibleMatch{Title: m.Title, ID: m.ID(), Type: m.Type, Year: m.Year})
		}
	}
	return nil, possible, nil
}

func (s *Server) playlistAddTo(ctx context.Context, c *plex.Client, in playlistAddArgs) (any, error) {
	if in.PlaylistID == "" && in.PlaylistTitle == "" {
		return nil, errors.New("either playlist_id or playlist_title must be provided")
	}
	if len(in.ItemTitles) == 0 && len(in.ItemIDs) == 0 {
		return nil, errors.New("either item_titles or item_ids must be provided")
	}
	p, multi, err := findPlaylist(ctx, c, in.playlistTarget)
	if err != nil || multi != nil {
		return multi, err
	}

	var (
		add      []plex.Metadata
		notFound []string
		possible []models.PossibleMatch
	)
	for _, id := range in.ItemIDs {
		m, err := c.Metadata(ctx, id.String())
		if err != nil {
			notFound = append(notFound, id.String())
			continue
		}
		add = append(add, *m)
	}
	if len(in.ItemTitles) > 0 {
		sections, err := c.Sections(ctx)
		if err != nil {
			return nil, fmt.Errorf("error listing libraries: %w", err)
		}
		for _, title := range in.ItemTitles {
			m, near, err := searchNonPhoto(ctx, c, sections, title)
			if err != nil {
				return nil, err
			}
			switch {
			case m != nil:
				add = append(add, *m)
			case len(near) > 0:
				for _, pm := range near {
					if !slices.Contains(possible, pm) {
						possible = append(possible, pm)
					}
				}
			default:
				notFound = append(notFound, title)
			}
		}
	}

	if len(add) == 0 {
		if len(possible) > 0 {
			return models.PlaylistAddResponse{
				Status:          models.StatusError,
				Message:         "No exact matches found. Use an id from possible_matches.",
				PossibleMatches: possible,
			}, nil
		}
		return nil, errors.New("no matching items found to add to the playlist")
	}

	ratingKeys := make([]string, 0, len(add))
	titles := make([]string, 0, len(add))
	for _, m := range add {
		ratingKeys = append(ratingKeys, m.RatingKey)
		titles = append(titles, m.Title)
	}
	if err := c.AddToPlaylist(ctx, p.RatingKey, ratingKeys); err != nil {
		return nil, fmt.Errorf("error adding to playlist: %w", err)
	}
	total := p.LeafCount + len(add)
	if after, err := c.PlaylistItems(ctx, p.RatingKey); err == nil {
		total = len(after)
	}

	return models.PlaylistAddResponse{
		Status:          models.StatusSuccess,
		Added:           true,
		Title:           p.Title,
		ItemsAdded:      titles,
		ItemsNotFound:   notFound,
		TotalItems:      total,
		PossibleMatches: possible,
	}, nil
}

// --- playlist_remove_from ---

type playlistRemoveArgs struct {
	playlistTarget
	ItemTitles []string `json:"item_titles"`
}

func (s *Server) playlistRemoveFrom(ctx context.Context, c *plex.Client, in playlistRemoveArgs) (any, error) {
	if in.PlaylistID == "" && in.PlaylistTitle == "" {
		return nil, errors.New("either playlist_id or playlist_title must be provided")
	}
	if len(in.ItemTitles) == 0 {
		return nil, errors.New("at least one item title must be provided to remove")
	}
	p, multi, err := findPlaylist(ctx, c, in.playlistTarget)
	if err != nil || multi != nil {
		return multi, err
	}

	current, err := c.PlaylistItems(ctx, p.RatingKey)
	if err != nil && plex.HTTPStatus(err) != 500 {
		return nil, fmt.Errorf("error reading playlist: %w", err)
	}

	var (
		remove   []plex.Metadata
		notFound []string
	)
	for _, title := range in.ItemTitles {
		idx := slices.IndexFunc(current, func(m plex.Metadata) bool { return strings.EqualFold(m.Title, title) })
		if idx < 0 {
			notFound = append(notFound, title)
			continue
		}
		remove = append(remove, current[idx])
	}

	if len(remove) == 0 {
		items := make([]map[string]any, 0, len(current))
		for _, m := range current {
			items = append(items, map[string]any{"title": m.Title, "type": m.Type, "id": m.ID()})
		}
		return models.PlaylistRemoveResponse{
			Status:         models.StatusError,
			Message:        "No matching items found in the playlist to remove",
			PlaylistTitle:  p.Title,
			PlaylistID:     p.ID(),
			CurrentItems:   items,
			ItemsNotFound:  notFound,
			RemainingItems: len(current),
		}, nil
	}

	removed := make([]string, 0, len(remove))
	for _, m := range remove {
		if err := c.RemoveFromPlaylist(ctx, p.RatingKey, m.PlaylistItemID); err != nil {
			return nil, fmt.Errorf("error removing '%s' from playlist: %w", m.Title, err)
		}
		removed = append(removed, m.Title)
	}
	return models.PlaylistRemoveResponse{
		Status:         models.StatusSuccess,
		Removed:        true,
		Title:          p.Title,
		ItemsRemoved:   removed,
		ItemsNotFound:  notFound,
		RemainingItems: len(current) - len(remove),
	}, nil
}

// --- playlist_edit ---

type playlistEditArgs struct {
	playlistTarget
	NewTitle   string  `json:"new_title"`
	NewSummary *string `json:"new_summary"`
}

func (s *Server) playlistEdit(ctx context.Context, c *plex.Client, in playlistEditArgs) (any, error) {
	p, multi, err := findPlaylist(ctx, c, in.playlistTarget)
	if err != nil || multi != nil {
		return multi, err
	}

	var (
		changes        []string
		title, summary string
	)
	if in.NewTitle != "" && in.NewTitle != p.Title {
		title = in.NewTitle
		changes = append(changes, fmt.Sprintf("title from '%s' to '%s'", p.Title, in.NewTitle))
	}
	if in.NewSummary != nil && *in.NewSummary != p.Summary {
		summary = *in.NewSummary
		changes = append(changes, "summary")
	}
	if len(changes) == 0 {
		return models.PlaylistEditResponse{
			Status:  models.StatusSuccess,
			Title:   p.Title,
			Message: "No changes made to the playlist",
		}, nil
	}
	if err := c.EditPlaylist(ctx, p.RatingKey, title, summary); err != nil {
		return nil, fmt.Errorf("error editing playlist: %w", err)
	}
	return models.PlaylistEditResponse{
		Status:  models.StatusSuccess,
		Updated: true,
		Title:   orDefault(title, p.Title),
		Changes: changes,
	}, nil
}

// --- playlist_upload_poster ---

type playlistPosterArgs struct {
	playlistTarget
	PosterURL      string `json:"poster_url"`
	PosterFilepath string `json:"poster_filepath"`
}

func (s *Server) playlistUploadPoster(ctx context.Context, c *plex.Client, in playlistPosterArgs) (any, error) {
	if in.PlaylistID == "" && in.PlaylistTitle == "" {
		return nil, errors.New("either playlist_id or playlist_title must be provided")
	}
	if in.PosterURL == "" && in.PosterFilepath == "" {
		return nil, errors.New("either poster_url or poster_filepath must be provided")
	}
	p, multi, err := findPlaylist(ctx, c, in.playlistTarget)
	if err != nil || multi != nil {
		return multi, err
	}

	if in.PosterURL != "" {
		if err := c.UploadArtworkURL(ctx, p.RatingKey, plex.ArtPoster, in.PosterURL); err != nil {
			return nil, fmt.Errorf("error uploading from URL: %w", err)
		}
		return models.PlaylistPosterResponse{Status: models.StatusSuccess, Updated: true, PosterSource: "url", Title: p.Title}, nil
	}

	data, err := os.ReadFile(in.PosterFilepath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("file not found: %s", in.PosterFilepath)
	}
	if err != nil {
		return nil, fmt.Errorf("error reading poster file: %w", err)
	}
	if err := c.UploadArtwork(ctx, p.RatingKey, plex.ArtPoster, data); err != nil {
		return nil, fmt.Errorf("error uploading from file: %w", err)
	}
	return models.PlaylistPosterResponse{Status: models.StatusSuccess, Updated: true, PosterSource: "file", Title: p.Title}, nil
}

// --- playlist_copy_to_user ---

type playlistCopyArgs struct {
	playlistTarget
	Username string `json:"username"`
}

func (s *Server) playlistCopyToUser(ctx context.Context, c *plex.Client, in playlistCopyArgs) (any, error) {
	if in.PlaylistID == "" && in.PlaylistTitle == "" {
		return nil, errors.New("either playlist_id or playlist_title must be provided")
	}
	if in.Username == "" {
		return nil, errors.New("username must be provided")
	}
	p, multi, err := findPlaylist(ctx, c, in.playlistTarget)
	if err != nil || multi != nil {
		return multi, err
	}

	items, err := c.PlaylistItems(ctx, p.RatingKey)
	if err != nil {
		return nil, fmt.Errorf("error reading playlist: %w", err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("playlist '%s' is empty", p.Title)
	}

	token, err := c.UserToken(ctx, in.Username)
	if errors.Is(err, plex.ErrNotFound) {
		return nil, fmt.Errorf("user '%s' not found", in.Username)
	}
	if err != nil {
		return nil, fmt.Errorf("error getting token for '%s': %w", in.Username, err)
	}

	ratingKeys := make([]string, 0, len(items))
	for _, m := range items {
		ratingKeys = append(ratingKeys, m.RatingKey)
	}
	copied, err := c.WithToken(token).CreatePlaylist(ctx, p.Title, orDefault(p.PlaylistType, playlistTypeFor(items[0].Type)), ratingKeys)
	if err != nil {
		return nil, fmt.Errorf("error copying playlist: %w", err)
	}
	return models.OperationResponse{
		Status:  models.StatusSuccess,
		Message: fmt.Sprintf("Playlist '%s' copied to user '%s'", p.Title, in.Username),
		Data:    map[string]any{"ratingKey": copied.RatingKey, "item_count": len(ratingKeys)},
	}, nil
}
