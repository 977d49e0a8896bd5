package server

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/hays/plex-mcp/models"
	"github.com/hays/plex-mcp/plex"
)

// fanOut bounds concurrent per-item requests to one server.
const fanOut = 8

// librarySection finds a section by title. The error lists the available
// sections.
func librarySection(ctx context.Context, c *plex.Client, name string) (plex.Directory, error) {
	section, all, err := c.SectionByTitle(ctx, name)
	if err == nil {
		return section, nil
	}
	if !errors.Is(err, plex.ErrNotFound) || all == nil {
		return plex.Directory{}, err
	}
	titles := make([]string, 0, len(all))
	for _, s := range all {
		titles = append(titles, s.Title)
	}
	return plex.Directory{}, fmt.Errorf("library '%s' not found. Available libraries: %s", name, strings.Join(titles, ", "))
}

// --- library_list ---

func (s *Server) libraryList(ctx context.Context, c *plex.Client, _ noArgs) (any, error) {
	sections, err := c.Sections(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing libraries: %w", err)
	}
	if len(sections) == 0 {
		return models.LibraryListResponse{
			Status:    models.StatusSuccess,
			Message:   "No libraries found on your Plex server.",
			Libraries: map[string]models.LibraryInfo{},
		}, nil
	}

	sizes := make([]int, len(sections))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fanOut)
	for i, sec := range sections {
		g.Go(func() error {
			n, err := c.SectionCount(gctx, sec.Key, 0)
			if err != nil {
				return fmt.Errorf("counting %s: %w", sec.Title, err)
			}
			sizes[i] = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("error listing libraries: %w", err)
	}

	libs := make(map[string]models.LibraryInfo, len(sections))
	for i, sec := range sections {
		libs[sec.Title] = models.LibraryInfo{
			Type:      sec.Type,
			LibraryID: sec.Key,
			TotalSize: sizes[i],
			UUID:      sec.UUID,
			Locations: sec.Paths(),
			UpdatedAt: isoTime(sec.UpdatedAt),
		}
	}
	return models.LibraryListResponse{Status: models.StatusSuccess, Libraries: libs}, nil
}

// --- library_get_stats ---

type libraryNameArgs struct {
	LibraryName string `json:"library_name"`
}

func (s *Server) libraryGetStats(ctx context.Context, c *plex.Client, in libraryNameArgs) (any, error) {
	section, err := librarySection(ctx, c, in.LibraryName)
	if err != nil {
		return nil, err
	}

	var all, unwatched []plex.Metadata
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		all, err = c.SectionItems(gctx, section.Key, nil)
		return err
	})
	g.Go(func() (err error) {
		unwatched, err = c.SectionItems(gctx, section.Key, url.Values{"unwatched": {"1"}})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("error getting library stats: %w", err)
	}

	resp := models.LibraryStatsResponse{
		Status:     models.StatusSuccess,
		Name:       section.Title,
		Type:       section.Type,
		TotalItems: len(all),
	}

	switch section.Type {
	case "movie":
		resp.MovieStats = movieStats(all, len(unwatched))
	case "show":
		stats, err := showStats(ctx, c, section.Key, all, len(unwatched))
		if err != nil {
			return nil, fmt.Errorf("error getting library stats: %w", err)
		}
		resp.ShowStats = stats
	case "artist":
		stats, err := musicStats(ctx, c, section.Key, all)
		if err != nil {
			return nil, fmt.Errorf("error getting library stats: %w", err)
		}
		resp.MusicStats = stats
	}
	return resp, nil
}

func tally(counts map[string]int, tags []plex.Tag) {
	for _, t := range tags {
		counts[t.Tag]++
	}
}

func movieStats(all []plex.Metadata, unwatched int) *models.MovieStats {
	genres, directors, studios := map[string]int{}, map[string]int{}, map[string]int{}
	decades := map[int]int{}
	for _, m := range all {
		tally(genres, m.Genre)
		tally(directors, m.Director)
		if m.Studio != "" {
			studios[m.Studio]++
		}
		if m.Year > 0 {
			decades[m.Year/10*10]++
		}
	}
	stats := &models.MovieStats{
		Count:        len(all),
		Unwatched:    unwatched,
		TopGenres:    topN(genres, 5),
		TopDirectors: topN(directors, 5),
		TopStudios:   topN(studios, 5),
	}
	if len(decades) > 0 {
		stats.ByDecade = decades
	}
	return stats
}

func showStats(ctx context.Context, c *plex.Client, key string, all []plex.Metadata, unwatched int) (*models.ShowStats, error) {
	var seasons, episodes int
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		seasons, err = c.SectionCount(gctx, key, plex.TypeSeason)
		return err
	})
	g.Go(func() (err error) {
		episodes, err = c.SectionCount(gctx, key, plex.TypeEpisode)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	genres, studios := map[string]int{}, map[string]int{}
	decades := map[int]int{}
	for _, m := range all {
		tally(genres, m.Genre)
		if m.Studio != "" {
			studios[m.Studio]++
		}
		if m.Year > 0 {
			decades[m.Year/10*10]++
		}
	}
	stats := &models.ShowStats{
		Shows:          len(all),
		Seasons:        seasons,
		Episodes:       episodes,
		UnwatchedShows: unwatched,
		TopGenres:      topN(genres, 5),
		TopStudios:     topN(studios, 5),
	}
	if len(decades) > 0 {
		stats.ByDecade = decades
	}
	return stats, nil
}

// artistTracks fetches the tracks of every artist concurrently, in the
// order of artists.
func artistTracks(ctx context.Context, c *plex.Client, key string, artists []plex.Metadata) ([][]plex.Metadata, error) {
	tracks := make([][]plex.Metadata, len(artists))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fanOut)
	for i, a := range artists {
		if a.RatingKey == "" {
			continue
		}
		g.Go(func() error {
			q := url.Values{}
			q.Set("artist.id", a.RatingKey)
			q.Set("type", "10")
			items, err := c.SectionItems(gctx, key, q)
			if err != nil {
				return fmt.Errorf("tracks of %s: %w", a.Title, err)
			}
			tracks[i] = items
			return nil
		})
	}
	return tracks, g.Wait()
}

func musicStats(ctx context.Context, c *plex.Client, key string, artists []plex.Metadata) (*models.MusicStats, error) {
	tracks, err := artistTracks(ctx, c, key, artists)
	if err != nil {
		return nil, err
	}

	stats := &models.MusicStats{Count: len(artists)}
	genres, topArtists, topAlbums := map[string]int{}, map[string]int{}, map[string]int{}
	years, formats := map[int]int{}, map[string]int{}

	for i, artist := range artists {
		albums := map[string]bool{}
		plays := 0
		for _, t := range tracks[i] {
			plays += t.ViewCount
			if t.ParentTitle != "" {
				albums[t.ParentTitle] = true
				topAlbums[artist.Title+" - "+t.ParentTitle] += t.ViewCount
			}
			tally(genres, t.Genre)
			year := t.ParentYear
			if year == 0 {
				year = t.Year
			}
			if year > 0 {
				years[year]++
			}
			if len(t.Media) > 0 && t.Media[0].AudioCodec != "" {
				formats[t.Media[0].AudioCodec]++
			}
		}
		if len(tracks[i]) > 0 {
			topArtists[artist.Title] = plays
		}
		stats.TotalTracks += len(tracks[i])
		stats.TotalAlbums += len(albums)
		stats.TotalPlays += plays
	}

	stats.TopGenres = topN(genres, 10)
	stats.TopArtists = topN(topArtists, 10)
	stats.TopAlbums = topN(topAlbums, 10)
	if len(years) > 0 {
		stats.ByYear = years
	}
	if len(formats) > 0 {
		stats.AudioFormats = formats
	}
	return stats, nil
}

// --- library_refresh ---

type libraryRefreshArgs struct {
	LibraryName string `json:"library_name"`
}

func (s *Server) libraryRefresh(ctx context.Context, c *plex.Client, in libraryRefreshArgs) (any, error) {
	if in.LibraryName == "" {
		if err := c.RefreshAll(ctx); err != nil {
			return nil, fmt.Errorf("error refreshing library: %w", err)
		}
		return models.OperationResponse{
			Status:  models.StatusSuccess,
			Message: "Refreshing all libraries. This may take some time.",
		}, nil
	}

	section, err := librarySection(ctx, c, in.LibraryName)
	if err != nil {
		return nil, err
	}
	if err := c.RefreshSection(ctx, section.Key, true, ""); err != nil {
		return nil, fmt.Errorf("error refreshing library: %w", err)
	}
	return models.OperationResponse{
		Status:  models.StatusSuccess,
		Message: fmt.Sprintf("Refreshing library '%s'. This may take some time.", section.Title),
	}, nil
}

// --- library_scan ---

type libraryScanArgs struct {
	LibraryName string `json:"library_name"`
	Path        string `json:"path"`
}

func (s *Server) libraryScan(ctx context.Context, c *plex.Client, in libraryScanArgs) (any, error) {
	section, err := librarySection(ctx, c, in.LibraryName)
	if err != nil {
		return nil, err
	}

	if err := c.RefreshSection(ctx, section.Key, false, in.Path); err != nil {
		if in.Path != "" && errors.Is(err, plex.ErrNotFound) {
			return nil, fmt.Errorf("path '%s' not found in library '%s'", in.Path, section.Title)
		}
		return nil, fmt.Errorf("error scanning library: %w", err)
	}

	msg := fmt.Sprintf("Scanning library '%s'. This may take some time.", section.Title)
	if in.Path != "" {
		msg = fmt.Sprintf("Scanning path '%s' in library '%s'. This may take some time.", in.Path, section.Title)
	}
	return models.OperationResponse{Status: models.StatusSuccess, Message: msg}, nil
}

// --- library_get_details ---

func (s *Server) libraryGetDetails(ctx context.Context, c *plex.Client, in libraryNameArgs) (any, error) {
	section, err := librarySection(ctx, c, in.LibraryName)
	if err != nil {
		return nil, err
	}

	var (
		total    int
		settings []plex.Setting
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		total, err = c.SectionCount(gctx, section.Key, 0)
		return err
	})
	g.Go(func() (err error) {
		settings, err = c.SectionSettings(gctx, section.Key)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("error getting library details: %w", err)
	}

	resp := models.LibraryDetailsResponse{
		Status:     models.StatusSuccess,
		Name:       section.Title,
		Type:       section.Type,
		UUID:       section.UUID,
		TotalItems: total,
		Locations:  section.Paths(),
		Agent:      section.Agent,
		Scanner:    section.Scanner,
		Language:   section.Language,
	}
	if len(settings) > 0 {
		resp.Settings = make(map[string]any, len(settings))
		for _, st := range settings {
			if st.ID != "" && st.Value != nil {
				resp.Settings[st.ID] = st.Value
			}
		}
	}
	return resp, nil
}

// --- library_get_recently_added ---

type libraryRecentArgs struct {
	Count       int    `json:"count"`
	LibraryName string `json:"library_name"`
}

func (a *libraryRecentArgs) defaults() { a.Count = 50 }

func recentEntry(m plex.Metadata) map[string]any {
	added := stamp(m.AddedAt, layoutDateTime)
	switch m.Type {
	case "movie", "show":
		year := ""
		if m.Year > 0 {
			year = fmt.Sprint(m.Year)
		}
		return map[string]any{"title": m.Title, "year": year, "addedAt": added}
	case "season":
		return map[string]any{"showTitle": orDefault(m.ParentTitle, "Unknown Show"), "seasonNumber": m.Index, "addedAt": added}
	case "episode":
		return map[string]any{
			"showTitle":     orDefault(m.GrandparentTitle, "Unknown Show"),
			"seasonNumber":  m.ParentIndex,
			"episodeNumber": m.Index,
			"title":         m.Title,
			"addedAt":       added,
		}
	case "album":
		return map[string]any{"artist": orDefault(m.ParentTitle, "Unknown Artist"), "title": m.Title, "addedAt": added}
	case "track":
		return map[string]any{
			"artist":  orDefault(m.GrandparentTitle, "Unknown Artist"),
			"album":   orDefault(m.ParentTitle, "Unknown Album"),
			"title":   m.Title,
			"addedAt": added,
		}
	default:
		return map[string]any{"title": orDefault(m.Title, "Unknown"), "addedAt": added}
	}
}

func (s *Server) libraryGetRecentlyAdded(ctx context.Context, c *plex.Client, in libraryRecentArgs) (any, error) {
	if in.Count <= 0 {
		in.Count = 50
	}

	label := "All Libraries"
	key := ""
	if in.LibraryName != "" {
		section, err := librarySection(ctx, c, in.LibraryName)
		if err != nil {
			return nil, err
		}
		key = section.Key
		label = in.LibraryName
	}

	recent, err := c.RecentlyAdded(ctx, key, in.Count)
	if err != nil {
		return nil, fmt.Errorf("error getting recently added items: %w", err)
	}
	slices.SortStableFunc(recent, func(a, b plex.Metadata) int {
		return cmp.Compare(b.AddedAt, a.AddedAt)
	})
	if len(recent) > in.Count {
		recent = recent[:in.Count]
	}

	byType := map[string][]map[string]any{}
	for _, m := range recent {
		t := orDefault(m.Type, "unknown")
		byType[t] = append(byType[t], recentEntry(m))
	}
	return models.LibraryRecentlyAddedResponse{
		Status:         models.StatusSuccess,
		Count:          len(recent),
		RequestedCount: in.Count,
		Library:        label,
		Items:          byType,
	}, nil
}

// --- library_get_contents ---

func (s *Server) libraryGetContents(ctx context.Context, c *plex.Client, in libraryNameArgs) (any, error) {
	section, err := librarySection(ctx, c, in.LibraryName)
	if err != nil {
		return nil, err
	}
	all, err := c.SectionItems(ctx, section.Key, nil)
	if err != nil {
		return nil, fmt.Errorf("error getting library contents: %w", err)
	}

	var items []map[string]any
	switch section.Type {
	case "movie":
		items = movieContents(all)
	case "show":
		items, err = showContents(ctx, c, all)
	case "artist":
		items, err = artistContents(ctx, c, section.Key, all)
	default:
		for _, m := range all {
			items = append(items, map[string]any{"title": m.Title})
		}
	}
	if err != nil {
		return nil, fmt.Errorf("error getting library contents: %w", err)
	}
	if items == nil {
		items = []map[string]any{}
	}

	return models.LibraryContentsResponse{
		Status:     models.StatusSuccess,
		Name:       section.Title,
		Type:       section.Type,
		TotalItems: len(all),
		Items:      items,
	}, nil
}

func yearOrUnknown(y int) any {
	if y > 0 {
		return y
	}
	return "Unknown"
}

func movieContents(all []plex.Metadata) []map[string]any {
	items := make([]map[string]any, 0, len(all))
	for _, m := range all {
		secs := m.Duration / 1000
		mediaInfo := map[string]any{}
		if len(m.Media) > 0 && m.Media[0].VideoResolution != "" && m.Media[0].VideoCodec != "" {
			mediaInfo["resolution"] = m.Media[0].VideoResolution
			mediaInfo["codec"] = m.Media[0].VideoCodec
		}
		items = append(items, map[string]any{
			"title":     m.Title,
			"year":      yearOrUnknown(m.Year),
			"duration":  map[string]int64{"hours": secs / 3600, "minutes": secs % 3600 / 60},
			"mediaInfo": mediaInfo,
			"watched":   m.ViewCount > 0,
		})
	}
	return items
}

// showContents reads every show's metadata concurrently for its season and
// episode counts, which the section listing does not always carry.
func showContents(ctx context.Context, c *plex.Client, shows []plex.Metadata) ([]map[string]any, error) {
	items := make([]map[string]any, len(shows))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fanOut)
	for i, show := range shows {
		g.Go(func() error {
			full, err := c.Metadata(gctx, show.RatingKey)
			if err != nil {
				return fmt.Errorf("show %s: %w", show.Title, err)
			}
			items[i] = map[string]any{
				"title":        show.Title,
				"year":         yearOrUnknown(show.Year),
				"seasonCount":  full.ChildCount,
				"episodeCount": full.LeafCount,
				"watched":      full.LeafCount > 0 && full.ViewedLeafCount == full.LeafCount,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return items, nil
}

func artistContents(ctx context.Context, c *plex.Client, key string, artists []plex.Metadata) ([]map[string]any, error) {
	tracks, err := artistTracks(ctx, c, key, artists)
	if err != nil {
		return nil, err
	}

	type artistInfo struct {
		albums               map[string]bool
		tracks, views, skips int
	}
	var order []string
	infos := map[string]*artistInfo{}
	for i, a := range artists {
		if a.RatingKey == "" {
			continue
		}
		info, ok := infos[a.Title]
		if !ok {
			info = &artistInfo{albums: map[string]bool{}}
			infos[a.Title] = info
			order = append(order, a.Title)
		}
		views, skips := 0, 0
		for _, t := range tracks[i] {
			info.tracks++
			if t.ParentTitle != "" {
				info.albums[t.ParentTitle] = true
			}
			views += t.ViewCount
			skips += t.SkipCount
		}
		info.views, info.skips = a.ViewCount, a.SkipCount
		if views > 0 {
			info.views = views
		}
		if skips > 0 {
			info.skips = skips
		}
	}

	items := make([]map[string]any, 0, len(order))
	for _, name := range order {
		info := infos[name]
		items = append(items, map[string]any{
			"title":      name,
			"albumCount": len(info.albums),
			"trackCount": info.tracks,
			"viewCount":  info.views,
			"skipCount":  info.skips,
		})
	}
	return items, nil
}
