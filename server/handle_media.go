package server

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hays/plex-mcp/models"
	"github.com/hays/plex-mcp/plex"
)

// mediaTypes are the item types that media tools act on.
var mediaTypes = []string{"movie", "show", "episode", "season", "artist", "album", "track"}

// searchTypeOrder is the display order of media_search groups.
var searchTypeOrder = []string{"track", "album", "artist", "movie", "show", "season", "episode"}

// searchTypesFor maps a content type to the searchTypes parameter.
var searchTypesFor = map[string]string{
	"movie":   "movies",
	"show":    "tv",
	"episode": "tv",
	"track":   "music",
	"album":   "music",
	"artist":  "music",
}

func mediaMatch(m plex.Metadata) models.MediaMatch {
	mm := models.MediaMatch{
		Title:   orDefault(m.Title, "Unknown"),
		ID:      m.ID(),
		Type:    orDefault(m.Type, "unknown"),
		Year:    m.Year,
		Library: m.LibrarySectionTitle,
	}
	switch m.Type {
	case "episode":
		mm.Show, mm.Season, mm.Episode = m.GrandparentTitle, m.ParentIndex, m.Index
	case "season":
		mm.Show, mm.SeasonNumber = m.ParentTitle, m.Index
	case "album":
		mm.Artist = m.ParentTitle
	case "track":
		mm.Artist, mm.Album = m.GrandparentTitle, m.ParentTitle
	}
	return mm
}

func mediaMatches(title string, items []plex.Metadata) models.MediaMatchesResponse {
	resp := models.MediaMatchesResponse{
		Status:  models.StatusMultipleResults,
		Message: fmt.Sprintf("Found %d items matching '%s'. Use media_id to pick one.", len(items), title),
	}
	for _, m := range items {
		if m.RatingKey != "" {
			resp.Matches = append(resp.Matches, mediaMatch(m))
		}
	}
	return resp
}

// mediaTarget names an item by id, or by title within an optional library.
type mediaTarget struct {
	MediaTitle  string `json:"media_title"`
	MediaID     Key    `json:"media_id"`
	LibraryName string `json:"library_name"`
}

// searchMedia finds items by title, in one library when given.
func searchMedia(ctx context.Context, c *plex.Client, title, library string) ([]plex.Metadata, error) {
	if library == "" {
		results, err := c.Search(ctx, title, 0)
		if err != nil {
			return nil, fmt.Errorf("error searching: %w", err)
		}
		return results, nil
	}
	section, _, err := c.SectionByTitle(ctx, library)
	if errors.Is(err, plex.ErrNotFound) {
		return nil, fmt.Errorf("library '%s' not found", library)
	}
	if err != nil {
		return nil, err
	}
	results, err := c.SearchSection(ctx, section.Key, title, 0)
	if err != nil {
		return nil, fmt.Errorf("error searching library '%s': %w", library, err)
	}
	return results, nil
}

// findMedia resolves t to one item. When a title search returns several
// media items, they are returned instead and the item is nil.
func findMedia(ctx context.Context, c *plex.Client, t mediaTarget) (*plex.Metadata, []plex.Metadata, error) {
	if t.MediaID == "" && t.MediaTitle == "" {
		return nil, nil, errors.New("either media_id or media_title must be provided")
	}
	if t.MediaID != "" {
		m, err := c.Metadata(ctx, t.MediaID.String())
		if errors.Is(err, plex.ErrNotFound) {
			return nil, nil, fmt.Errorf("media with ID '%s' not found", t.MediaID)
		}
		if err != nil {
			return nil, nil, fmt.Errorf("error fetching media by ID: %w", err)
		}
		return m, nil, nil
	}

	results, err := searchMedia(ctx, c, t.MediaTitle, t.LibraryName)
	if err != nil {
		return nil, nil, err
	}
	results = slices.DeleteFunc(results, func(m plex.Metadata) bool {
		return !slices.Contains(mediaTypes, m.Type)
	})
	switch len(results) {
	case 0:
		return nil, nil, fmt.Errorf("no media found matching '%s'", t.MediaTitle)
	case 1:
		return &results[0], nil, nil
	}
	return nil, results, nil
}

// --- media_search ---

type mediaSearchArgs struct {
	Query       string `json:"query"`
	ContentType string `json:"content_type"`
}

func searchEntry(m plex.Metadata) map[string]any {
	e := map[string]any{
		"title":      orDefault(m.Title, "Unknown"),
		"type":       m.Type,
		"rating_key": m.RatingKey,
	}
	switch m.Type {
	case "movie":
		e["year"], e["rating"], e["summary"] = m.Year, m.Rating, m.Summary
	case "show":
		e["year"], e["summary"] = m.Year, m.Summary
	case "season":
		e["show_title"], e["season_number"] = orDefault(m.ParentTitle, "Unknown Show"), m.Index
	case "episode":
		e["show_title"] = orDefault(m.GrandparentTitle, "Unknown Show")
		e["season_number"], e["episode_number"] = m.ParentIndex, m.Index
	case "track":
		e["artist"] = orDefault(m.GrandparentTitle, "Unknown Artist")
		e["album"] = orDefault(m.ParentTitle, "Unknown Album")
		e["track_number"], e["duration"], e["library"] = m.Index, m.Duration, m.LibrarySectionTitle
		if m.Thumb != "" {
			e["thumb"] = m.Thumb
		}
	case "album":
		e["artist"] = orDefault(m.ParentTitle, "Unknown Artist")
		e["year"], e["library"] = m.ParentYear, m.LibrarySectionTitle
	case "artist":
		e["art"], e["thumb"], e["library"] = m.Art, m.Thumb, m.LibrarySectionTitle
	}
	if len(m.Media) > 0 {
		media := m.Media[0]
		switch m.Type {
		case "movie", "show", "episode":
			e["resolution"], e["container"], e["codec"] = media.VideoResolution, media.Container, media.VideoCodec
		case "track":
			e["audio_codec"], e["bitrate"], e["container"] = media.AudioCodec, media.Bitrate, media.Container
		}
	}
	return e
}

func (s *Server) mediaSearch(ctx context.Context, c *plex.Client, in mediaSearchArgs) (any, error) {
	var (
		searchTypes string
		exactType   string
	)
	switch {
	case in.ContentType == "":
	case strings.Contains(in.ContentType, ","):
		searchTypes = in.ContentType
	case searchTypesFor[in.ContentType] != "":
		searchTypes = searchTypesFor[in.ContentType]
		exactType = in.ContentType
	default:
		exactType = in.ContentType
	}

	results, err := c.LibrarySearch(ctx, in.Query, searchTypes, exactType, 100)
	if err != nil {
		return nil, fmt.Errorf("error searching: %w", err)
	}

	byType := map[string][]map[string]any{}
	total := 0
	for _, m := range results {
		if exactType != "" && m.Type != exactType {
			continue
		}
		t := orDefault(m.Type, "unknown")
		byType[t] = append(byType[t], searchEntry(m))
		total++
	}

	resp := models.MediaSearchResponse{
		Status:        models.StatusSuccess,
		Query:         in.Query,
		ContentType:   in.ContentType,
		TotalCount:    total,
		ResultsByType: byType,
		TypeOrder:     []string{},
	}
	if total == 0 {
		resp.Message = fmt.Sprintf("No results found for '%s'.", in.Query)
		return resp, nil
	}
	resp.Message = fmt.Sprintf("Found %d results for '%s'", total, in.Query)
	for _, t := range searchTypeOrder {
		if _, ok := byType[t]; ok {
			resp.TypeOrder = append(resp.TypeOrder, t)
		}
	}
	var rest []string
	for t := range byType {
		if !slices.Contains(searchTypeOrder, t) {
			rest = append(rest, t)
		}
	}
	slices.Sort(rest)
	resp.TypeOrder = append(resp.TypeOrder, rest...)
	return resp, nil
}

// --- media_get_details ---

// musicWords in a title make a search also look in music libraries.
var musicWords = []string{"song", "track", "album", "artist", "music"}

func durationOrNil(ms int64) any {
	if ms <= 0 {
		return nil
	}
	return clock(ms)
}

func (s *Server) mediaGetDetails(ctx context.Context, c *plex.Client, in mediaTarget) (any, error) {
	if in.MediaID == "" && in.MediaTitle == "" {
		return nil, errors.New("either media_id or media_title must be provided")
	}

	var item *plex.Metadata
	if in.MediaID != "" {
		m, err := c.Metadata(ctx, in.MediaID.String())
		if err != nil {
			return nil, fmt.Errorf("could not find media with ID %s: %w", in.MediaID, err)
		}
		item = m
	} else {
		results, err := searchMedia(ctx, c, in.MediaTitle, in.LibraryName)
		if err != nil {
			return nil, err
		}
		lower := strings.ToLower(in.MediaTitle)
		if in.LibraryName == "" && (len(results) == 0 || slices.ContainsFunc(musicWords, func(w string) bool { return strings.Contains(lower, w) })) {
			music, err := searchMusic(ctx, c, in.MediaTitle)
			if err != nil {
				return nil, err
			}
			results = append(results, music...)
		}
		results = slices.DeleteFunc(results, func(m plex.Metadata) bool { return m.RatingKey == "" })
		switch len(results) {
		case 0:
			return nil, fmt.Errorf("no media found matching '%s'", in.MediaTitle)
		case 1:
			item = &results[0]
		default:
			return mediaMatches(in.MediaTitle, results), nil
		}
		// Search results are abridged; fetch the full item for tags.
		if full, err := c.Metadata(ctx, item.RatingKey); err == nil {
			item = full
		}
	}

	details, err := mediaDetails(ctx, c, *item)
	if err != nil {
		return nil, fmt.Errorf("error getting media details: %w", err)
	}
	return models.InfoResponse{Status: models.StatusSuccess, Info: details}, nil
}

// searchMusic looks for tracks, albums and artists in every music library.
func searchMusic(ctx context.Context, c *plex.Client, title string) ([]plex.Metadata, error) {
	sections, err := c.Sections(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing libraries: %w", err)
	}
	var out []plex.Metadata
	for _, sec := range sections {
		if sec.Type != "artist" {
			continue
		}
		for _, t := range []int{plex.TypeTrack, plex.TypeAlbum, plex.TypeArtist} {
			items, err := c.SearchSection(ctx, sec.Key, title, t)
			if err != nil {
				return nil, fmt.Errorf("searching %s: %w", sec.Title, err)
			}
			out = append(out, items...)
		}
	}
	return out, nil
}

func userOrRating(m plex.Metadata) float64 {
	if m.UserRating > 0 {
		return m.UserRating
	}
	return m.Rating
}

func mediaDetails(ctx context.Context, c *plex.Client, m plex.Metadata) (map[string]any, error) {
	d := map[string]any{
		"title":          orDefault(m.Title, "Unknown"),
		"type":           orDefault(m.Type, "unknown"),
		"id":             m.ID(),
		"added_at":       stamp(m.AddedAt, layoutDateTime),
		"rating":         m.Rating,
		"content_rating": m.ContentRating,
		"duration":       durationOrNil(m.Duration),
		"studio":         m.Studio,
		"year":           m.Year,
	}

	switch m.Type {
	case "movie":
		d["summary"] = m.Summary
		d["rating"] = userOrRating(m)
	case "show":
		d["summary"] = m.Summary
		if m.UserRating > 0 {
			d["rating"] = m.UserRating
		}
		seasons, err := showSeasons(ctx, c, m.RatingKey)
		if err != nil {
			return nil, err
		}
		episodes := 0
		for _, s := range seasons {
			episodes += s["episodes_count"].(int)
		}
		d["seasons_count"] = len(seasons)
		d["episodes_count"] = episodes
		d["seasons"] = seasons
	case "episode":
		d["show_title"] = m.GrandparentTitle
		d["season_number"] = m.ParentIndex
		d["episode_number"] = m.Index
		d["summary"] = m.Summary
		d["rating"] = userOrRating(m)
		delete(d, "studio")
	case "artist":
		d["summary"] = m.Summary
		d["rating"] = userOrRating(m)
		for _, k := range []string{"content_rating", "duration", "studio", "year"} {
			delete(d, k)
		}
		albums, err := c.Children(ctx, m.RatingKey)
		if err != nil {
			return nil, err
		}
		tracks := 0
		list := make([]map[string]any, 0, len(albums))
		for _, a := range albums {
			tracks += a.LeafCount
			list = append(list, map[string]any{
				"title":        orDefault(a.Title, "Unknown"),
				"id":           a.ID(),
				"year":         a.Year,
				"tracks_count": a.LeafCount,
			})
		}
		d["albums_count"] = len(albums)
		d["tracks_count"] = tracks
		d["albums"] = list
	case "album":
		d["summary"] = m.Summary
		d["artist"] = orDefault(m.ParentTitle, "Unknown Artist")
		d["artist_id"] = m.ParentRatingKey
		d["rating"] = userOrRating(m)
		delete(d, "content_rating")
		tracks, err := c.Children(ctx, m.RatingKey)
		if err != nil {
			return nil, err
		}
		var total int64
		list := make([]map[string]any, 0, len(tracks))
		for _, t := range tracks {
			total += t.Duration
			list = append(list, map[string]any{
				"title":        orDefault(t.Title, "Unknown"),
				"id":           t.ID(),
				"track_number": t.Index,
				"duration":     durationOrNil(t.Duration),
			})
		}
		d["tracks_count"] = len(tracks)
		d["tracks"] = list
		if total > 0 {
			d["duration"] = clock(total)
		}
	case "track":
		d["artist"] = orDefault(m.GrandparentTitle, "Unknown Artist")
		d["artist_id"] = m.GrandparentRatingKey
		d["album"] = orDefault(m.ParentTitle, "Unknown Album")
		d["album_id"] = m.ParentRatingKey
		d["track_number"] = m.Index
		d["disc_number"] = m.ParentIndex
		d["rating"] = userOrRating(m)
		d["view_count"] = m.ViewCount
		d["skip_count"] = m.SkipCount
		for _, k := range []string{"studio", "content_rating", "summary"} {
			delete(d, k)
		}
		year := m.Year
		if year == 0 {
			year = m.ParentYear
		}
		if year == 0 && m.ParentRatingKey != "" {
			if album, err := c.Metadata(ctx, m.ParentRatingKey); err == nil {
				year = album.Year
			}
		}
		d["year"] = year
	}

	tags := []struct {
		key  string
		tags []plex.Tag
	}{
		{"genres", m.Genre},
		{"directors", m.Director},
		{"writers", m.Writer},
		{"actors", m.Role},
	}
	for _, t := range tags {
		if len(t.tags) > 0 {
			d[t.key] = plex.Tags(t.tags)
		}
	}
	return d, nil
}

// showSeasons lists the seasons of a show with their episodes, fetching
// the seasons concurrently.
func showSeasons(ctx context.Context, c *plex.Client, showKey string) ([]map[string]any, error) {
	seasons, err := c.Children(ctx, showKey)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]any, len(seasons))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fanOut)
	for i, season := range seasons {
		g.Go(func() error {
			entry := map[string]any{
				"title":          orDefault(season.Title, "Season "+strconv.Itoa(season.Index)),
				"id":             season.ID(),
				"season_number":  season.Index,
				"episodes_count": 0,
				"episodes":       []map[string]any{},
			}
			episodes, err := c.Children(gctx, season.RatingKey)
			if err != nil {
				entry["error"] = err.Error()
				out[i] = entry
				return nil
			}
			list := make([]map[string]any, 0, len(episodes))
			for _, ep := range episodes {
				list = append(list, map[string]any{
					"title":          orDefault(ep.Title, "Unknown"),
					"id":             ep.ID(),
					"episode_number": ep.Index,
					"duration":       durationOrNil(ep.Duration),
				})
			}
			entry["episodes_count"] = len(list)
			entry["episodes"] = list
			out[i] = entry
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// --- media_edit_metadata ---

type mediaEditArgs struct {
	MediaTitle     string   `json:"media_title"`
	LibraryName    string   `json:"library_name"`
	NewTitle       string   `json:"new_title"`
	NewSummary     string   `json:"new_summary"`
	NewRating      *float64 `json:"new_rating"`
	NewReleaseDate string   `json:"new_release_date"`
	NewGenre       string   `json:"new_genre"`
	RemoveGenre    string   `json:"remove_genre"`
	NewDirector    string   `json:"new_director"`
	NewStudio      string   `json:"new_studio"`
	NewTags        []string `json:"new_tags"`
}

func hasTagFold(tags []plex.Tag, name string) bool {
	return slices.ContainsFunc(tags, func(t plex.Tag) bool { return strings.EqualFold(t.Tag, name) })
}

func (s *Server) mediaEditMetadata(ctx context.Context, c *plex.Client, in mediaEditArgs) (any, error) {
	results, err := searchMedia(ctx, c, in.MediaTitle, in.LibraryName)
	if err != nil {
		return nil, err
	}
	switch len(results) {
	case 0:
		return fmt.Sprintf("No media found matching '%s'.", in.MediaTitle), nil
	case 1:
	default:
		return nil, fmt.Errorf("multiple items found with title '%s'. Please specify a library or use a more specific title", in.MediaTitle)
	}
	m := results[0]
	if full, err := c.Metadata(ctx, m.RatingKey); err == nil {
		m = *full
	}

	var changes []string
	fields := url.Values{}
	lock := func(field string) { fields.Set(field+".locked", "1") }

	if in.NewTitle != "" {
		fields.Set("title.value", in.NewTitle)
		lock("title")
		changes = append(changes, fmt.Sprintf("title changed to '%s'", in.NewTitle))
	}
	if in.NewSummary != "" {
		fields.Set("summary.value", in.NewSummary)
		lock("summary")
		changes = append(changes, "summary updated")
	}
	if in.NewStudio != "" {
		if m.Type == "episode" || m.Type == "track" || m.Type == "season" {
			return nil, errors.New("this media type doesn't support changing the studio")
		}
		fields.Set("studio.value", in.NewStudio)
		lock("studio")
		changes = append(changes, fmt.Sprintf("studio changed to '%s'", in.NewStudio))
	}
	if in.NewGenre != "" && !hasTagFold(m.Genre, in.NewGenre) {
		fields.Set("genre[0].tag.tag", in.NewGenre)
		lock("genre")
		changes = append(changes, fmt.Sprintf("added genre '%s'", in.NewGenre))
	}
	if in.RemoveGenre != "" {
		idx := slices.IndexFunc(m.Genre, func(t plex.Tag) bool { return strings.EqualFold(t.Tag, in.RemoveGenre) })
		if idx >= 0 {
			fields.Set("genre[].tag.tag-", m.Genre[idx].Tag)
			lock("genre")
			changes = append(changes, fmt.Sprintf("removed genre '%s'", in.RemoveGenre))
		}
	}
	if in.NewDirector != "" && (m.Type == "movie" || m.Type == "episode") && !hasTagFold(m.Director, in.NewDirector) {
		fields.Set("director[0].tag.tag", in.NewDirector)
		lock("director")
		changes = append(changes, fmt.Sprintf("added director '%s'", in.NewDirector))
	}
	if in.NewReleaseDate != "" {
		if _, err := time.Parse(layoutDate, in.NewReleaseDate); err != nil {
			return nil, fmt.Errorf("error updating release date: %q is not YYYY-MM-DD", in.NewReleaseDate)
		}
		fields.Set("originallyAvailableAt.value", in.NewReleaseDate)
		lock("originallyAvailableAt")
		changes = append(changes, fmt.Sprintf("updated release date to '%s'", in.NewReleaseDate))
	}
	n := 0
	for _, tag := range in.NewTags {
		if hasTagFold(m.Label, tag) {
			continue
		}
		fields.Set("label["+strconv.Itoa(n)+"].tag.tag", tag)
		n++
		changes = append(changes, fmt.Sprintf("added tag '%s'", tag))
	}
	if n > 0 {
		lock("label")
	}

	if len(fields) > 0 {
		if err := c.Edit(ctx, m.LibrarySectionID, plex.TypeNumber(m.Type), m.RatingKey, fields); err != nil {
			return nil, fmt.Errorf("error editing metadata: %w", err)
		}
	}
	if in.NewRating != nil {
		if *in.NewRating < 0 || *in.NewRating > 10 {
			return nil, errors.New("rating must be between 0 and 10")
		}
		if err := c.Rate(ctx, m.RatingKey, *in.NewRating); err != nil {
			return nil, fmt.Errorf("error setting rating: %w", err)
		}
		changes = append(changes, fmt.Sprintf("rating changed to %s", strconv.FormatFloat(*in.NewRating, 'f', -1, 64)))
	}

	if len(changes) == 0 {
		return fmt.Sprintf("No changes were made to '%s'.", m.Title), nil
	}
	return fmt.Sprintf("Successfully updated metadata for '%s'. Changes: %s.", m.Title, strings.Join(changes, ", ")), nil
}

// --- media_delete ---

type mediaDeleteArgs struct {
	mediaTarget
	MediaType string `json:"media_type"`
}

func (s *Server) mediaDelete(ctx context.Context, c *plex.Client, in mediaDeleteArgs) (any, error) {
	if in.MediaType != "" && !slices.Contains(mediaTypes, in.MediaType) {
		return nil, fmt.Errorf("invalid media type '%s'. Valid types: %s", in.MediaType, strings.Join(mediaTypes, ", "))
	}
	item, many, err := findMedia(ctx, c, in.mediaTarget)
	if err != nil {
		return nil, err
	}
	if in.MediaType != "" && many != nil {
		many = slices.DeleteFunc(many, func(m plex.Metadata) bool { return m.Type != in.MediaType })
		switch len(many) {
		case 0:
			return nil, fmt.Errorf("no %s found matching '%s'", in.MediaType, in.MediaTitle)
		case 1:
			item, many = &many[0], nil
		}
	}
	if many != nil {
		return mediaMatches(in.MediaTitle, many), nil
	}
	if in.MediaType != "" && item.Type != in.MediaType {
		return nil, fmt.Errorf("item '%s' is a %s, not a %s", item.Title, item.Type, in.MediaType)
	}

	files := []string{}
	for _, media := range item.Media {
		for _, p := range media.Part {
			if p.File != "" {
				files = append(files, p.File)
			}
		}
	}
	if err := c.Delete(ctx, item.RatingKey); err != nil {
		return nil, fmt.Errorf("error during deletion: %w", err)
	}
	return models.MediaDeleteResponse{
		Status:      models.StatusSuccess,
		Deleted:     true,
		Title:       item.Title,
		Type:        item.Type,
		FilesOnDisk: files,
	}, nil
}

// --- artwork ---

// artKinds maps art type names to slots.
var artKinds = map[string]plex.ArtKind{
	"poster":     plex.ArtPoster,
	"thumb":      plex.ArtPoster,
	"thumbnail":  plex.ArtPoster,
	"background": plex.ArtBackground,
	"art":        plex.ArtBackground,
	"logo":       plex.ArtLogo,
}

// artPath returns the image path of the slot currently in use, or "".
func artPath(m plex.Metadata, kind plex.ArtKind) string {
	switch kind {
	case plex.ArtBackground:
		return m.Art
	case plex.ArtLogo:
		return "/library/metadata/" + m.RatingKey + "/clearLogo"
	default:
		return m.Thumb
	}
}

type mediaArtworkArgs struct {
	mediaTarget
	ImageTypes   []string `json:"image_types"`
	OutputFormat string   `json:"output_format"`
	OutputDir    string   `json:"output_dir"`
}

func (a *mediaArtworkArgs) defaults() {
	a.ImageTypes = []string{"poster"}
	a.OutputFormat = "base64"
	a.OutputDir = "./"
}

func (s *Server) mediaGetArtwork(ctx context.Context, c *plex.Client, in mediaArtworkArgs) (any, error) {
	switch in.OutputFormat {
	case "base64", "url", "file_path":
	default:
		return nil, fmt.Errorf("invalid output format: %s", in.OutputFormat)
	}
	item, many, err := findMedia(ctx, c, in.mediaTarget)
	if err != nil {
		return nil, err
	}
	if many != nil {
		return mediaMatches(in.MediaTitle, many), nil
	}

	resp := models.ArtworkResponse{
		Status:     models.StatusSuccess,
		MediaTitle: item.Title,
		MediaID:    item.ID(),
		Images:     map[string]models.Artwork{},
	}
	for _, name := range in.ImageTypes {
		name = strings.ToLower(name)
		kind, ok := artKinds[name]
		if !ok {
			resp.Images[name] = models.Artwork{Error: "invalid image type: " + name}
			continue
		}
		path := artPath(*item, kind)
		if path == "" {
			resp.Images[name] = models.Artwork{Error: fmt.Sprintf("no %s artwork found for this media", name)}
			continue
		}
		versions := 0
		if options, err := c.Artwork(ctx, item.RatingKey, kind); err == nil {
			versions = len(options)
		}

		art := models.Artwork{Type: name, VersionsAvailable: versions}
		if in.OutputFormat == "url" {
			art.Filename = item.Title + "_" + name + ".jpg"
			art.URL = c.URL(path)
			resp.Images[name] = art
			continue
		}

		data, mime, ext, err := c.Image(ctx, path)
		if err != nil {
			resp.Images[name] = models.Artwork{Error: fmt.Sprintf("failed to download %s image: %v", name, err)}
			continue
		}
		art.MimeType = mime
		art.Filename = item.Title + "_" + name + orDefault(ext, ".jpg")

		if in.OutputFormat == "base64" {
			art.Base64 = base64.StdEncoding.EncodeToString(data)
			resp.Images[name] = art
			continue
		}
		file := filepath.Join(in.OutputDir, art.Filename)
		if err := os.WriteFile(file, data, 0o644); err != nil {
			resp.Images[name] = models.Artwork{Error: fmt.Sprintf("failed to save image file: %v", err)}
			continue
		}
		if abs, err := filepath.Abs(file); err == nil {
			file = abs
		}
		art.Path = file
		resp.Images[name] = art
	}
	return resp, nil
}

type mediaSetArtworkArgs struct {
	mediaTarget
	ArtType  string `json:"art_type"`
	Filepath string `json:"filepath"`
	URL      string `json:"url"`
	Lock     bool   `json:"lock"`
}

func (a *mediaSetArtworkArgs) defaults() { a.ArtType = "poster" }

func (s *Server) mediaSetArtwork(ctx context.Context, c *plex.Client, in mediaSetArtworkArgs) (any, error) {
	if in.Filepath == "" && in.URL == "" {
		return nil, errors.New("either filepath or url must be provided")
	}
	if in.Filepath != "" && in.URL != "" {
		return nil, errors.New("please provide either filepath OR url, not both")
	}
	artType := strings.ToLower(in.ArtType)
	kind, ok := artKinds[artType]
	if !ok || artType == "thumb" || artType == "thumbnail" {
		return nil, fmt.Errorf("invalid art type: %s. Supported types: poster, background, art, logo", in.ArtType)
	}

	item, many, err := findMedia(ctx, c, in.mediaTarget)
	if err != nil {
		return nil, err
	}
	if many != nil {
		return nil, fmt.Errorf("multiple items found with title '%s'. Please specify a library or use a more specific title", in.MediaTitle)
	}

	if in.Filepath != "" {
		data, err := os.ReadFile(in.Filepath)
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("artwork file not found: %s", in.Filepath)
		}
		if err != nil {
			return nil, fmt.Errorf("error reading artwork file: %w", err)
		}
		if err := c.UploadArtwork(ctx, item.RatingKey, kind, data); err != nil {
			return nil, fmt.Errorf("error setting %s artwork: %w", artType, err)
		}
	} else if err := c.UploadArtworkURL(ctx, item.RatingKey, kind, in.URL); err != nil {
		return nil, fmt.Errorf("error setting %s artwork: %w", artType, err)
	}

	if in.Lock {
		fields := url.Values{}
		fields.Set(kind.LockField(), "1")
		if err := c.Edit(ctx, item.LibrarySectionID, plex.TypeNumber(item.Type), item.RatingKey, fields); err != nil {
			return nil, fmt.Errorf("artwork set but locking failed: %w", err)
		}
		return fmt.Sprintf("Successfully set and locked %s artwork for '%s'.", artType, item.Title), nil
	}
	return fmt.Sprintf("Successfully set %s artwork for '%s'.", artType, item.Title), nil
}

type mediaListArtworkArgs struct {
	mediaTarget
	ArtType string `json:"art_type"`
}

func (a *mediaListArtworkArgs) defaults() { a.ArtType = "poster" }

func (s *Server) mediaListAvailableArtwork(ctx context.Context, c *plex.Client, in mediaListArtworkArgs) (any, error) {
	artType := strings.ToLower(in.ArtType)
	kind, ok := artKinds[artType]
	if !ok || artType == "thumb" || artType == "thumbnail" {
		return nil, fmt.Errorf("invalid art type: %s. Supported types: poster, background, art, logo", in.ArtType)
	}
	item, many, err := findMedia(ctx, c, in.mediaTarget)
	if err != nil {
		return nil, err
	}
	if many != nil {
		return mediaMatches(in.MediaTitle, many), nil
	}
	if !slices.Contains(mediaTypes, item.Type) {
		return nil, fmt.Errorf("the item with ID %s is not a media item that can have artwork", item.RatingKey)
	}

	options, err := c.Artwork(ctx, item.RatingKey, kind)
	if err != nil {
		return nil, fmt.Errorf("error retrieving %s artwork: %w", artType, err)
	}
	if len(options) == 0 {
		return nil, fmt.Errorf("no %s artwork found for media", artType)
	}
	resp := models.AvailableArtworkResponse{
		Status:     models.StatusSuccess,
		MediaTitle: item.Title,
		MediaID:    item.ID(),
		ArtType:    artType,
		Count:      len(options),
	}
	for i, o := range options {
		resp.Artwork = append(resp.Artwork, models.ArtworkOption{
			Index:     i + 1,
			Provider:  orDefault(o.Provider, "Unknown"),
			URL:       o.Key,
			Selected:  bool(o.Selected),
			RatingKey: o.RatingKey,
		})
	}
	return resp, nil
}
