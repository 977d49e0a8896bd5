package models

type UserSummary struct {
	Role     string `json:"role"`
	ID       int    `json:"id,omitempty"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Title    string `json:"title"`
	Home     bool   `json:"home"`
}

type UserSearchResponse struct {
	Status     string        `json:"status"`
	Message    string        `json:"message,omitempty"`
	SearchTerm string        `json:"search_term,omitempty"`
	Count      int           `json:"count"`
	Owner      *UserSummary  `json:"owner,omitempty"`
	Users      []UserSummary `json:"users"`
}

type Subscription struct {
	Active   bool     `json:"active"`
	Features []string `json:"features,omitempty"`
}

type ServerAccess struct {
	Name         string `json:"name"`
	AllLibraries bool   `json:"all_libraries"`
	LibraryCount int    `json:"library_count"`
	MachineID    string `json:"machine_identifier"`
}

type UserInfoResponse struct {
	Status       string         `json:"status"`
	Role         string         `json:"role"`
	ID           int            `json:"id,omitempty"`
	Username     string         `json:"username"`
	Email        string         `json:"email,omitempty"`
	Title        string         `json:"title"`
	UUID         string         `json:"uuid,omitempty"`
	AuthToken    string         `json:"auth_token,omitempty"`
	Subscription *Subscription  `json:"subscription,omitempty"`
	JoinedAt     string         `json:"joined_at,omitempty"`
	Home         bool           `json:"home"`
	Restricted   bool           `json:"restricted"`
	ServerAccess []ServerAccess `json:"server_access,omitempty"`
}

type OnDeckItem struct {
	Type        string  `json:"type"`
	Title       string  `json:"title"`
	Show        string  `json:"show,omitempty"`
	Season      string  `json:"season,omitempty"`
	Year        int     `json:"year,omitempty"`
	Progress    float64 `json:"progress"`
	CurrentTime string  `json:"current_time"`
	TotalTime   string  `json:"total_time"`
}

type OnDeckResponse struct {
	Status   string       `json:"status"`
	Message  string       `json:"message,omitempty"`
	Username string       `json:"username"`
	Count    int          `json:"count"`
	Items    []OnDeckItem `json:"items"`
}

type WatchHistoryItem struct {
	Type          string `json:"type"`
	Title         string `json:"title"`
	RatingKey     string `json:"rating_key"`
	Show          string `json:"show,omitempty"`
	Season        string `json:"season,omitempty"`
	SeasonNumber  int    `json:"season_number,omitempty"`
	EpisodeNumber int    `json:"episode_number,omitempty"`
	Year          int    `json:"year,omitempty"`
	ViewedAt      string `json:"viewed_at,omitempty"`
}

type WatchHistoryResponse struct {
	Status         string             `json:"status"`
	Message        string             `json:"message,omitempty"`
	Username       string             `json:"username"`
	Count          int                `json:"count"`
	RequestedLimit int                `json:"requested_limit"`
	ContentType    string             `json:"content_type,omitempty"`
	Items          []WatchHistoryItem `json:"items"`
}

// WatchTime is an accumulated duration in seconds and a play count.
type WatchTime struct {
	Duration          int64  `json:"duration"`
	Count             int    `json:"count"`
	FormattedDuration string `json:"formatted_duration"`
	Platform          string `json:"platform,omitempty"`
}

type UserStatistics struct {
	User              string               `json:"user"`
	TotalDuration     int64                `json:"total_duration"`
	TotalPlays        int                  `json:"total_plays"`
	FormattedDuration string               `json:"formatted_duration"`
	MediaTypes        map[string]WatchTime `json:"media_types"`
	Devices           map[string]WatchTime `json:"devices"`
}

type UserStatisticsResponse struct {
	Status           string           `json:"status"`
	TimePeriod       string           `json:"time_period"`
	UserFilter       string           `json:"user_filter,omitempty"`
	TotalUsers       int              `json:"total_users"`
	StatsGeneratedAt string           `json:"stats_generated_at"`
	Users            []UserStatistics `json:"users"`
}
