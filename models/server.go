package models

// DataResponse wraps the payload of the server status tools.
type DataResponse struct {
	Status string `json:"status"`
	Data   any    `json:"data"`
}

type ServerInfo struct {
	Version                       string   `json:"version"`
	Platform                      string   `json:"platform"`
	PlatformVersion               string   `json:"platform_version"`
	UpdatedAt                     string   `json:"updated_at,omitempty"`
	ServerName                    string   `json:"server_name"`
	MachineIdentifier             string   `json:"machine_identifier"`
	MyPlexUsername                string   `json:"my_plex_username"`
	MyPlexMappingState            string   `json:"my_plex_mapping_state,omitempty"`
	Certificate                   bool     `json:"certificate"`
	Sync                          bool     `json:"sync"`
	TranscoderActiveVideoSessions int      `json:"transcoder_active_video_sessions"`
	TranscoderAudio               bool     `json:"transcoder_audio"`
	TranscoderVideoBitrates       []string `json:"transcoder_video_bitrates"`
	TranscoderVideoQualities      []string `json:"transcoder_video_qualities"`
	TranscoderVideoResolutions    []string `json:"transcoder_video_resolutions"`
	StreamingBrainVersion         int      `json:"streaming_brain_version"`
	OwnerFeatures                 []string `json:"owner_features"`
}

type BandwidthEntry struct {
	Account          string `json:"account,omitempty"`
	DeviceID         int    `json:"device_id"`
	DeviceName       string `json:"device_name,omitempty"`
	Platform         string `json:"platform,omitempty"`
	ClientIdentifier string `json:"client_identifier,omitempty"`
	At               string `json:"at"`
	Bytes            int64  `json:"bytes"`
	IsLocal          bool   `json:"is_local"`
	TimespanSeconds  int    `json:"timespan_seconds"`
}

type ResourceSample struct {
	Timestamp                string  `json:"timestamp"`
	HostCPUUtilization       float64 `json:"host_cpu_utilization"`
	HostMemoryUtilization    float64 `json:"host_memory_utilization"`
	ProcessCPUUtilization    float64 `json:"process_cpu_utilization"`
	ProcessMemoryUtilization float64 `json:"process_memory_utilization"`
	Timespan                 int     `json:"timespan"`
}

type ButlerTask struct {
	Name               string `json:"name"`
	Title              string `json:"title"`
	Description        string `json:"description"`
	Interval           int    `json:"interval"`
	Enabled            bool   `json:"enabled"`
	ScheduleRandomized bool   `json:"scheduleRandomized"`
}

// Alert is one server notification received while listening.
type Alert struct {
	Type        string         `json:"type"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Text        string         `json:"text"`
	ReceivedAt  string         `json:"received_at"`
	RawData     map[string]any `json:"raw_data,omitempty"`
}
