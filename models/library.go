package models

// LibraryInfo is one entry of library_list.
type LibraryInfo struct {
	Type      string   `json:"type"`
	LibraryID string   `json:"libraryId"`
	TotalSize int      `json:"totalSize"`
	UUID      string   `json:"uuid"`
	Locations []string `json:"locations"`
	UpdatedAt string   `json:"updatedAt"`
}

type LibraryListResponse struct {
	Status    string                 `json:"status"`
	Message   string                 `json:"message,omitempty"`
	Libraries map[string]LibraryInfo `json:"libraries"`
}

// Counted is a name with an occurrence or play count, ordered by count.
type Counted struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type MovieStats struct {
	Count        int         `json:"count"`
	Unwatched    int         `json:"unwatched"`
	TopGenres    []Counted   `json:"topGenres,omitempty"`
	TopDirectors []Counted   `json:"topDirectors,omitempty"`
	TopStudios   []Counted   `json:"topStudios,omitempty"`
	ByDecade     map[int]int `json:"byDecade,omitempty"`
}

type ShowStats struct {
	Shows          int         `json:"shows"`
	Seasons        int         `json:"seasons"`
	Episodes       int         `json:"episodes"`
	UnwatchedShows int         `json:"unwatchedShows"`
	TopGenres      []Counted   `json:"topGenres,omitempty"`
	TopStudios     []Counted   `json:"topStudios,omitempty"`
	ByDecade       map[int]int `json:"byDecade,omitempty"`
}

type MusicStats struct {
	Count        int            `json:"count"`
	TotalTracks  int            `json:"totalTracks"`
	TotalAlbums  int            `json:"totalAlbums"`
	TotalPlays   int            `json:"totalPlays"`
	TopGenres    []Counted      `json:"topGenres,omitempty"`
	TopArtists   []Counted      `json:"topArtists,omitempty"`
	TopAlbums    []Counted      `json:"topAlbums,omitempty"`
	ByYear       map[int]int    `json:"byYear,omitempty"`
	AudioFormats map[string]int `json:"audioFormats,omitempty"`
}

type LibraryStatsResponse struct {
	Status     string      `json:"status"`
	Name       string      `json:"name"`
	Type       string      `json:"type"`
	TotalItems int         `json:"totalItems"`
	MovieStats *MovieStats `json:"movieStats,omitempty"`
	ShowStats  *ShowStats  `json:"showStats,omitempty"`
	MusicStats *MusicStats `json:"musicStats,omitempty"`
}

type LibraryDetailsResponse struct {
	Status     string         `json:"status"`
	Name       string         `json:"name"`
	Type       string         `json:"type"`
	UUID       string         `json:"uuid"`
	TotalItems int            `json:"totalItems"`
	Locations  []string       `json:"locations"`
	Agent      string         `json:"agent"`
	Scanner    string         `json:"scanner"`
	Language   string         `json:"language"`
	Settings   map[string]any `json:"settings,omitempty"`
}

type LibraryRecentlyAddedResponse struct {
	Status         string                      `json:"status"`
	Count          int                         `json:"count"`
	RequestedCount int                         `json:"requestedCount"`
	Library        string                      `json:"library"`
	Items          map[string][]map[string]any `json:"items"`
}

type LibraryContentsResponse struct {
	Status     string           `json:"status"`
	Name       string           `json:"name"`
	Type       string           `json:"type"`
	TotalItems int              `json:"totalItems"`
	Items      []map[string]any `json:"items"`
}
