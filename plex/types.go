package plex

import (
	"bytes"
	"strconv"
	"strings"
	"time"
)

// Plex metadata type numbers used by filters and edits.
const (
	TypeMovie      = 1
	TypeShow       = 2
	TypeSeason     = 3
	TypeEpisode    = 4
	TypeArtist     = 8
	TypeAlbum      = 9
	TypeTrack      = 10
	TypePhoto      = 13
	TypeCollection = 18
)

var typeNumbers = map[string]int{
	"movie":      TypeMovie,
	"show":       TypeShow,
	"season":     TypeSeason,
	"episode":    TypeEpisode,
	"artist":     TypeArtist,
	"album":      TypeAlbum,
	"track":      TypeTrack,
	"photo":      TypePhoto,
	"collection": TypeCollection,
}

// TypeNumber maps a metadata type name such as "movie" to its number. It
// returns 0 for unknown names.
func TypeNumber(name string) int {
	return typeNumbers[name]
}

// Bool decodes Plex's mix of true/false, 1/0 and "1"/"0".
type Bool bool

func (b *Bool) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(data)), `"`)
	switch s {
	case "1", "true", "True":
		*b = true
	default:
		*b = false
	}
	return nil
}

func (b *Bool) UnmarshalText(text []byte) error {
	return b.UnmarshalJSON(text)
}

// MediaContainer is the root of every Plex server response. Only the fields
// used by this package are declared; each endpoint fills a subset.
type MediaContainer struct {
	Size       int    `json:"size"`
	TotalSize  int    `json:"totalSize"`
	Title1     string `json:"title1"`
	Identifier string `json:"identifier"`

	// GET /
	FriendlyName                  string `json:"friendlyName"`
	MachineIdentifier             string `json:"machineIdentifier"`
	Version                       string `json:"version"`
	Platform                      string `json:"platform"`
	PlatformVersion               string `json:"platformVersion"`
	MyPlex                        Bool   `json:"myPlex"`
	MyPlexUsername                string `json:"myPlexUsername"`
	MyPlexMappingState            string `json:"myPlexMappingState"`
	MyPlexSubscription            Bool   `json:"myPlexSubscription"`
	TranscoderActiveVideoSessions int    `json:"transcoderActiveVideoSessions"`
	TranscoderAudio               Bool   `json:"transcoderAudio"`
	TranscoderVideo               Bool   `json:"transcoderVideo"`
	TranscoderVideoBitrates       string `json:"transcoderVideoBitrates"`
	TranscoderVideoQualities      string `json:"transcoderVideoQualities"`
	TranscoderVideoResolutions    string `json:"transcoderVideoResolutions"`
	StreamingBrainVersion         int    `json:"streamingBrainVersion"`
	Certificate                   Bool   `json:"certificate"`
	Sync                          Bool   `json:"sync"`
	MultiUser                     Bool   `json:"multiuser"`
	AllowSharing                  Bool   `json:"allowSharing"`
	AllowCameraUpload             Bool   `json:"allowCameraUpload"`
	OwnerFeatures                 string `json:"ownerFeatures"`
	UpdatedAt                     int64  `json:"updatedAt"`

	// POST /playQueues
	PlayQueueID int `json:"playQueueID"`

	Metadata            []Metadata      `json:"Metadata"`
	Directory           []Directory     `json:"Directory"`
	Server              []Device        `json:"Server"`
	Hub                 []Hub           `json:"Hub"`
	SearchResult        []SearchResult  `json:"SearchResult"`
	Setting             []Setting       `json:"Setting"`
	Account             []Account       `json:"Account"`
	Device              []StatDevice    `json:"Device"`
	ButlerTasks         *ButlerTasks    `json:"ButlerTasks"`
	StatisticsBandwidth []BandwidthStat `json:"StatisticsBandwidth"`
	StatisticsResources []ResourceStat  `json:"StatisticsResources"`
	StatisticsMedia     []MediaStat     `json:"StatisticsMedia"`
}

// Metadata is any library item: movie, show, season, episode, artist, album,
// track, photo, collection or playlist. Sessions and history entries are
// also Metadata with extra fields set.
type Metadata struct {
	RatingKey             string  `json:"ratingKey"`
	Key                   string  `json:"key"`
	GUID                  string  `json:"guid"`
	Type                  string  `json:"type"`
	Subtype               string  `json:"subtype"`
	Title                 string  `json:"title"`
	TitleSort             string  `json:"titleSort"`
	OriginalTitle         string  `json:"originalTitle"`
	Summary               string  `json:"summary"`
	Tagline               string  `json:"tagline"`
	Studio                string  `json:"studio"`
	ContentRating         string  `json:"contentRating"`
	Year                  int     `json:"year"`
	Index                 int     `json:"index"`
	ParentIndex           int     `json:"parentIndex"`
	ParentTitle           string  `json:"parentTitle"`
	ParentRatingKey       string  `json:"parentRatingKey"`
	ParentYear            int     `json:"parentYear"`
	GrandparentTitle      string  `json:"grandparentTitle"`
	GrandparentRatingKey  string  `json:"grandparentRatingKey"`
	Duration              int64   `json:"duration"`
	ViewOffset            int64   `json:"viewOffset"`
	ViewCount             int     `json:"viewCount"`
	SkipCount             int     `json:"skipCount"`
	LastViewedAt          int64   `json:"lastViewedAt"`
	AddedAt               int64   `json:"addedAt"`
	UpdatedAt             int64   `json:"updatedAt"`
	OriginallyAvailableAt string  `json:"originallyAvailableAt"`
	Rating                float64 `json:"rating"`
	AudienceRating        float64 `json:"audienceRating"`
	UserRating            float64 `json:"userRating"`
	LeafCount             int     `json:"leafCount"`
	ViewedLeafCount       int     `json:"viewedLeafCount"`
	ChildCount            int     `json:"childCount"`
	Thumb                 string  `json:"thumb"`
	Art                   string  `json:"art"`
	LibrarySectionID      int     `json:"librarySectionID"`
	LibrarySectionTitle   string  `json:"librarySectionTitle"`
	LibrarySectionKey     string  `json:"librarySectionKey"`

	// collections and playlists
	Smart        Bool   `json:"smart"`
	PlaylistType string `json:"playlistType"`
	Composite    string `json:"composite"`

	// playlist and collection items
	PlaylistItemID int `json:"playlistItemID"`

	// artwork options
	Selected Bool   `json:"selected"`
	Provider string `json:"provider"`

	// history
	HistoryKey string `json:"historyKey"`
	ViewedAt   int64  `json:"viewedAt"`
	AccountID  int    `json:"accountID"`
	DeviceID   int    `json:"deviceID"`

	// sessions
	SessionKey       string            `json:"sessionKey"`
	User             *SessionUser      `json:"User"`
	Player           *Player           `json:"Player"`
	Session          *Session          `json:"Session"`
	TranscodeSession *TranscodeSession `json:"TranscodeSession"`

	Media      []Media `json:"Media"`
	Genre      []Tag   `json:"Genre"`
	Director   []Tag   `json:"Director"`
	Writer     []Tag   `json:"Writer"`
	Role       []Tag   `json:"Role"`
	Label      []Tag   `json:"Label"`
	Collection []Tag   `json:"Collection"`
	Country    []Tag   `json:"Country"`
}

// Tag is a genre, director, writer, actor, label and so on.
type Tag struct {
	ID   int    `json:"id"`
	Tag  string `json:"tag"`
	Role string `json:"role"`
}

// Tags returns the tag names of ts.
func Tags(ts []Tag) []string {
	out := make([]string, 0, len(ts))
	for _, t := range ts {
		out = append(out, t.Tag)
	}
	return out
}

type Media struct {
	ID              int     `json:"id"`
	Duration        int64   `json:"duration"`
	Bitrate         int     `json:"bitrate"`
	Width           int     `json:"width"`
	Height          int     `json:"height"`
	AspectRatio     float64 `json:"aspectRatio"`
	AudioChannels   int     `json:"audioChannels"`
	AudioCodec      string  `json:"audioCodec"`
	VideoCodec      string  `json:"videoCodec"`
	VideoResolution string  `json:"videoResolution"`
	VideoFrameRate  string  `json:"videoFrameRate"`
	Container       string  `json:"container"`
	Part            []Part  `json:"Part"`
}

type Part struct {
	ID        int      `json:"id"`
	Key       string   `json:"key"`
	File      string   `json:"file"`
	Size      int64    `json:"size"`
	Duration  int64    `json:"duration"`
	Container string   `json:"container"`
	Decision  string   `json:"decision"`
	Stream    []Stream `json:"Stream"`
}

type Stream struct {
	ID           int    `json:"id"`
	StreamType   int    `json:"streamType"`
	Codec        string `json:"codec"`
	DisplayTitle string `json:"displayTitle"`
	Language     string `json:"language"`
	Selected     Bool   `json:"selected"`
}

// Directory is a library section.
type Directory struct {
	Key        string     `json:"key"`
	Type       string     `json:"type"`
	Title      string     `json:"title"`
	Agent      string     `json:"agent"`
	Scanner    string     `json:"scanner"`
	Language   string     `json:"language"`
	UUID       string     `json:"uuid"`
	UpdatedAt  int64      `json:"updatedAt"`
	ScannedAt  int64      `json:"scannedAt"`
	Refreshing Bool       `json:"refreshing"`
	Location   []Location `json:"Location"`
}

type Location struct {
	ID   int    `json:"id"`
	Path string `json:"path"`
}

// Paths returns the location paths of d.
func (d Directory) Paths() []string {
	out := make([]string, 0, len(d.Location))
	for _, l := range d.Location {
		out = append(out, l.Path)
	}
	return out
}

// ID returns the numeric section key, or 0.
func (d Directory) ID() int {
	n, _ := strconv.Atoi(d.Key)
	return n
}

// Device is a player known to the server through GDM or the companion
// protocol, as listed by /clients.
type Device struct {
	Name                 string `json:"name"`
	Host                 string `json:"host"`
	Address              string `json:"address"`
	Port                 int    `json:"port"`
	MachineIdentifier    string `json:"machineIdentifier"`
	Version              string `json:"version"`
	Protocol             string `json:"protocol"`
	Product              string `json:"product"`
	DeviceClass          string `json:"deviceClass"`
	ProtocolVersion      string `json:"protocolVersion"`
	ProtocolCapabilities string `json:"protocolCapabilities"`
}

// Player is the client half of an active session.
type Player struct {
	Address           string `json:"address"`
	Device            string `json:"device"`
	MachineIdentifier string `json:"machineIdentifier"`
	Model             string `json:"model"`
	Platform          string `json:"platform"`
	PlatformVersion   string `json:"platformVersion"`
	Product           string `json:"product"`
	Profile           string `json:"profile"`
	State             string `json:"state"`
	Title             string `json:"title"`
	Vendor            string `json:"vendor"`
	Version           string `json:"version"`
	Local             Bool   `json:"local"`
	Relayed           Bool   `json:"relayed"`
	Secure            Bool   `json:"secure"`
	UserID            int    `json:"userID"`
}

type SessionUser struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Thumb string `json:"thumb"`
}

type Session struct {
	ID        string `json:"id"`
	Bandwidth int    `json:"bandwidth"`
	Location  string `json:"location"`
}

type TranscodeSession struct {
	Key                  string  `json:"key"`
	Throttled            Bool    `json:"throttled"`
	Complete             Bool    `json:"complete"`
	Progress             float64 `json:"progress"`
	Speed                float64 `json:"speed"`
	Duration             int64   `json:"duration"`
	VideoDecision        string  `json:"videoDecision"`
	AudioDecision        string  `json:"audioDecision"`
	SubtitleDecision     string  `json:"subtitleDecision"`
	Protocol             string  `json:"protocol"`
	Container            string  `json:"container"`
	VideoCodec           string  `json:"videoCodec"`
	AudioCodec           string  `json:"audioCodec"`
	AudioChannels        int     `json:"audioChannels"`
	SourceVideoCodec     string  `json:"sourceVideoCodec"`
	SourceAudioCodec     string  `json:"sourceAudioCodec"`
	Width                int     `json:"width"`
	Height               int     `json:"height"`
	TranscodeHwRequested Bool    `json:"transcodeHwRequested"`
}

type Hub struct {
	Type          string     `json:"type"`
	HubIdentifier string     `json:"hubIdentifier"`
	Title         string     `json:"title"`
	Size          int        `json:"size"`
	Metadata      []Metadata `json:"Metadata"`
	Directory     []Metadata `json:"Directory"`
}

type SearchResult struct {
	Score    float64   `json:"score"`
	Metadata *Metadata `json:"Metadata"`
}

// Setting is one library or server preference.
type Setting struct {
	ID         string `json:"id"`
	Label      string `json:"label"`
	Summary    string `json:"summary"`
	Type       string `json:"type"`
	Default    any    `json:"default"`
	Value      any    `json:"value"`
	Hidden     Bool   `json:"hidden"`
	Advanced   Bool   `json:"advanced"`
	Group      string `json:"group"`
	EnumValues string `json:"enumValues"`
}

// Account is a server-local account as listed by /accounts and the
// statistics endpoints.
type Account struct {
	ID   int    `json:"id"`
	Key  string `json:"key"`
	Name string `json:"name"`
}

// StatDevice is a device entry from /devices and the statistics endpoints.
type StatDevice struct {
	ID               int    `json:"id"`
	Name             string `json:"name"`
	Platform         string `json:"platform"`
	ClientIdentifier string `json:"clientIdentifier"`
	CreatedAt        int64  `json:"createdAt"`
}

type ButlerTasks struct {
	ButlerTask []ButlerTask `json:"ButlerTask"`
}

type ButlerTask struct {
	Name               string `json:"name"`
	Title              string `json:"title"`
	Description        string `json:"description"`
	Interval           int    `json:"interval"`
	Enabled            Bool   `json:"enabled"`
	ScheduleRandomized Bool   `json:"scheduleRandomized"`
}

type BandwidthStat struct {
	AccountID int   `json:"accountID"`
	DeviceID  int   `json:"deviceID"`
	Timespan  int   `json:"timespan"`
	At        int64 `json:"at"`
	Lan       Bool  `json:"lan"`
	Bytes     int64 `json:"bytes"`
}

type ResourceStat struct {
	Timespan                 int     `json:"timespan"`
	At                       int64   `json:"at"`
	HostCPUUtilization       float64 `json:"hostCpuUtilization"`
	ProcessCPUUtilization    float64 `json:"processCpuUtilization"`
	HostMemoryUtilization    float64 `json:"hostMemoryUtilization"`
	ProcessMemoryUtilization float64 `json:"processMemoryUtilization"`
}

type MediaStat struct {
	AccountID    int   `json:"accountID"`
	DeviceID     int   `json:"deviceID"`
	Timespan     int   `json:"timespan"`
	At           int64 `json:"at"`
	MetadataType int   `json:"metadataType"`
	Count        int   `json:"count"`
	Duration     int64 `json:"duration"`
}

// Capabilities splits a comma-separated protocolCapabilities value.
func Capabilities(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Time converts a Plex epoch-seconds value. Zero stays the zero Time.
func Time(epoch int64) time.Time {
	if epoch == 0 {
		return time.Time{}
	}
	return time.Unix(epoch, 0)
}

// ID returns the numeric rating key of m, or 0.
func (m Metadata) ID() int {
	n, _ := strconv.Atoi(m.RatingKey)
	return n
}
