package models

type SessionPlayer struct {
	IP       string `json:"ip,omitempty"`
	Platform string `json:"platform,omitempty"`
	Product  string `json:"product,omitempty"`
	Device   string `json:"device,omitempty"`
	Version  string `json:"version,omitempty"`
}

type SessionProgress struct {
	Percent          float64 `json:"percent"`
	MinutesRemaining int     `json:"minutes_remaining"`
}

type SessionMedia struct {
	Bitrate    string `json:"bitrate,omitempty"`
	Resolution string `json:"resolution,omitempty"`
}

type SessionTranscode struct {
	Active     bool   `json:"active"`
	Mode       string `json:"mode,omitempty"`
	Video      string `json:"video,omitempty"`
	Audio      string `json:"audio,omitempty"`
	Resolution string `json:"resolution,omitempty"`
}

// SessionInfo describes one active playback.
type SessionInfo struct {
	SessionID          int              `json:"session_id"`
	State              string           `json:"state"`
	PlayerName         string           `json:"player_name"`
	User               string           `json:"user"`
	ContentType        string           `json:"content_type"`
	ContentDescription string           `json:"content_description"`
	Year               int              `json:"year,omitempty"`
	Player             SessionPlayer    `json:"player"`
	Progress           *SessionProgress `json:"progress,omitempty"`
	MediaInfo          *SessionMedia    `json:"media_info,omitempty"`
	Transcoding        SessionTranscode `json:"transcoding"`
}

type SessionsActiveResponse struct {
	Status           string        `json:"status"`
	Message          string        `json:"message"`
	SessionsCount    int           `json:"sessions_count"`
	TranscodeCount   int           `json:"transcode_count"`
	DirectPlayCount  int           `json:"direct_play_count"`
	TotalBitrateKbps int           `json:"total_bitrate_kbps"`
	Sessions         []SessionInfo `json:"sessions"`
}

type HistoryEntry struct {
	User     string `json:"user"`
	ViewedAt string `json:"viewed_at"`
	Device   string `json:"device"`
}

// HistoryMatch is one candidate when a title names several items.
type HistoryMatch struct {
	MediaID        string `json:"media_id"`
	Type           string `json:"type"`
	Title          string `json:"title"`
	Year           int    `json:"year,omitempty"`
	ShowTitle      string `json:"show_title,omitempty"`
	Season         string `json:"season,omitempty"`
	SeasonNumber   int    `json:"season_number,omitempty"`
	EpisodeNumber  int    `json:"episode_number,omitempty"`
	FormattedTitle string `json:"formatted_title"`
}

type HistoryMedia struct {
	MediaID        string `json:"media_id"`
	Key            string `json:"key"`
	Type           string `json:"type"`
	Title          string `json:"title,omitempty"`
	Year           int    `json:"year,omitempty"`
	ShowTitle      string `json:"show_title,omitempty"`
	SeasonTitle    string `json:"season_title,omitempty"`
	EpisodeTitle   string `json:"episode_title,omitempty"`
	FormattedTitle string `json:"formatted_title"`
}

type MediaPlaybackHistoryResponse struct {
	Status    string         `json:"status"`
	Message   string         `json:"message,omitempty"`
	Media     *HistoryMedia  `json:"media,omitempty"`
	PlayCount int            `json:"play_count"`
	History   []HistoryEntry `json:"history,omitempty"`
	Matches   []HistoryMatch `json:"matches,omitempty"`
}
