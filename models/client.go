package models

// ClientInfo describes a player known to the server.
type ClientInfo struct {
	Name                 string   `json:"name"`
	Device               string   `json:"device"`
	Model                string   `json:"model"`
	Product              string   `json:"product"`
	Version              string   `json:"version"`
	Platform             string   `json:"platform"`
	State                string   `json:"state"`
	MachineIdentifier    string   `json:"machineIdentifier"`
	Address              string   `json:"address"`
	ProtocolCapabilities []string `json:"protocolCapabilities"`
}

// ClientListResponse holds ClientInfo records, or names only.
type ClientListResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Count   int    `json:"count"`
	Clients any    `json:"clients"`
}

type ClientDetailsResponse struct {
	Status string         `json:"status"`
	Client map[string]any `json:"client"`
}

type ClientTimelineResponse struct {
	Status     string         `json:"status"`
	Message    string         `json:"message,omitempty"`
	ClientName string         `json:"client_name,omitempty"`
	Source     string         `json:"source,omitempty"`
	Timeline   map[string]any `json:"timeline,omitempty"`
}

// ActiveClientMedia is what an active client is playing.
type ActiveClientMedia struct {
	Title         string `json:"title"`
	Type          string `json:"type"`
	Show          string `json:"show,omitempty"`
	Season        string `json:"season,omitempty"`
	SeasonEpisode string `json:"seasonEpisode,omitempty"`
	Year          string `json:"year,omitempty"`
}

type ActiveClientInfo struct {
	Name        string            `json:"name"`
	Device      string            `json:"device"`
	Product     string            `json:"product"`
	Platform    string            `json:"platform"`
	State       string            `json:"state"`
	User        string            `json:"user"`
	Media       ActiveClientMedia `json:"media"`
	Progress    *float64          `json:"progress,omitempty"`
	Transcoding bool              `json:"transcoding"`
}

type ActiveClientsResponse struct {
	Status        string             `json:"status"`
	Message       string             `json:"message"`
	Count         int                `json:"count"`
	ActiveClients []ActiveClientInfo `json:"active_clients"`
}

// PlaybackResponse covers playback start, control, navigation and stream
// changes. Only the fields relevant to the action are set.
type PlaybackResponse struct {
	Status           string            `json:"status"`
	Message          string            `json:"message,omitempty"`
	Client           string            `json:"client,omitempty"`
	Action           string            `json:"action,omitempty"`
	Parameter        *int              `json:"parameter,omitempty"`
	Timeline         map[string]any    `json:"timeline,omitempty"`
	Media            map[string]any    `json:"media,omitempty"`
	Offset           *int              `json:"offset,omitempty"`
	Count            int               `json:"count,omitempty"`
	Results          []map[string]any  `json:"results,omitempty"`
	AvailableClients []map[string]any  `json:"available_clients,omitempty"`
	Changes          map[string]string `json:"changes,omitempty"`
}
