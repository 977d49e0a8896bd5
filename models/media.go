package models

// MediaSearchResponse groups search hits by item type.
type MediaSearchResponse struct {
	Status        string                      `json:"status"`
	Message       string                      `json:"message"`
	Query         string                      `json:"query"`
	ContentType   string                      `json:"content_type,omitempty"`
	TotalCount    int                         `json:"total_count"`
	ResultsByType map[string][]map[string]any `json:"results_by_type"`
	// TypeOrder lists the keys of ResultsByType in display order.
	TypeOrder []string `json:"type_order"`
}

// MediaMatch is one candidate when a title matches several items.
type MediaMatch struct {
	Title        string `json:"title"`
	ID           int    `json:"id"`
	Type         string `json:"type"`
	Year         int    `json:"year,omitempty"`
	Library      string `json:"library,omitempty"`
	Show         string `json:"show,omitempty"`
	Season       int    `json:"season,omitempty"`
	Episode      int    `json:"episode,omitempty"`
	SeasonNumber int    `json:"season_number,omitempty"`
	Artist       string `json:"artist,omitempty"`
	Album        string `json:"album,omitempty"`
}

// MediaMatchesResponse asks the caller to pick an item by id.
type MediaMatchesResponse struct {
	Status  string       `json:"status"`
	Message string       `json:"message"`
	Matches []MediaMatch `json:"matches"`
}

type MediaDeleteResponse struct {
	Status      string   `json:"status"`
	Deleted     bool     `json:"deleted"`
	Title       string   `json:"title"`
	Type        string   `json:"type"`
	FilesOnDisk []string `json:"files_on_disk"`
}

// Artwork is one requested image in media_get_artwork. Exactly one of
// URL, Path and Base64 is set unless Error is.
type Artwork struct {
	Filename          string `json:"filename,omitempty"`
	Type              string `json:"type,omitempty"`
	MimeType          string `json:"mime_type,omitempty"`
	URL               string `json:"url,omitempty"`
	Path              string `json:"path,omitempty"`
	Base64            string `json:"base64,omitempty"`
	VersionsAvailable int    `json:"versions_available"`
	Error             string `json:"error,omitempty"`
}

type ArtworkResponse struct {
	Status     string             `json:"status"`
	MediaTitle string             `json:"media_title"`
	MediaID    int                `json:"media_id"`
	Images     map[string]Artwork `json:"images"`
}

// ArtworkOption is one selectable image of an item.
type ArtworkOption struct {
	Index     int    `json:"index"`
	Provider  string `json:"provider"`
	URL       string `json:"url"`
	Selected  bool   `json:"selected"`
	RatingKey string `json:"rating_key,omitempty"`
}

type AvailableArtworkResponse struct {
	Status     string          `json:"status"`
	MediaTitle string          `json:"media_title"`
	MediaID    int             `json:"media_id"`
	ArtType    string          `json:"art_type"`
	Count      int             `json:"count"`
	Artwork    []ArtworkOption `json:"artwork"`
}
