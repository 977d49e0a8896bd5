package models

// PlaylistInfo is one entry of playlist_list.
type PlaylistInfo struct {
	Title     string `json:"title"`
	Key       string `json:"key"`
	RatingKey string `json:"ratingKey"`
	Type      string `json:"type"`
	Summary   string `json:"summary"`
	Duration  int64  `json:"duration"`
	ItemCount int    `json:"item_count"`
}

// PlaylistMatch is one of several playlists sharing a title.
type PlaylistMatch struct {
	Title     string `json:"title"`
	ID        int    `json:"id"`
	Type      string `json:"type"`
	ItemCount int    `json:"item_count"`
}

// PlaylistMatchesResponse asks the caller to pick a playlist by id.
type PlaylistMatchesResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Matches []PlaylistMatch `json:"matches"`
}

type PlaylistContentsResponse struct {
	Status    string           `json:"status"`
	Message   string           `json:"message,omitempty"`
	Title     string           `json:"title"`
	ID        int              `json:"id"`
	Key       string           `json:"key"`
	Type      string           `json:"type"`
	Summary   string           `json:"summary"`
	Duration  int64            `json:"duration"`
	ItemCount int              `json:"itemCount"`
	Items     []map[string]any `json:"items"`
}

type PlaylistAddResponse struct {
	Status          string          `json:"status"`
	Message         string          `json:"message,omitempty"`
	Added           bool            `json:"added"`
	Title           string          `json:"title,omitempty"`
	ItemsAdded      []string        `json:"items_added,omitempty"`
	ItemsNotFound   []string        `json:"items_not_found,omitempty"`
	TotalItems      int             `json:"total_items,omitempty"`
	PossibleMatches []PossibleMatch `json:"possible_matches,omitempty"`
}

type PlaylistRemoveResponse struct {
	Status         string           `json:"status"`
	Message        string           `json:"message,omitempty"`
	Removed        bool             `json:"removed"`
	Title          string           `json:"title,omitempty"`
	ItemsRemoved   []string         `json:"items_removed,omitempty"`
	ItemsNotFound  []string         `json:"items_not_found,omitempty"`
	RemainingItems int              `json:"remaining_items"`
	PlaylistTitle  string           `json:"playlist_title,omitempty"`
	PlaylistID     int              `json:"playlist_id,omitempty"`
	CurrentItems   []map[string]any `json:"current_items,omitempty"`
}

type PlaylistEditResponse struct {
	Status  string   `json:"status"`
	Message string   `json:"message,omitempty"`
	Updated bool     `json:"updated"`
	Title   string   `json:"title"`
	Changes []string `json:"changes,omitempty"`
}

type PlaylistDeleteResponse struct {
	Status  string `json:"status"`
	Deleted bool   `json:"deleted"`
	Title   string `json:"title"`
}

type PlaylistPosterResponse struct {
	Status       string `json:"status"`
	Updated      bool   `json:"updated"`
	PosterSource string `json:"poster_source"`
	Title        string `json:"title"`
}
