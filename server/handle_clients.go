package server

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/hays/plex-mcp/models"
	"github.com/hays/plex-mcp/plex"
)

// player is a client device, found either in /clients or as the player of
// an active session.
type player struct {
	Name              string
	Device            string
	DeviceClass       string
	Model             string
	Product           string
	Version           string
	Platform          string
	PlatformVersion   string
	State             string
	MachineIdentifier string
	Address           string
	Protocol          string
	ProtocolVersion   string
	Vendor            string
	Capabilities      []string
	Local             bool

	fromSession bool
}

func playerFromDevice(d plex.Device) player {
	addr := ""
	if d.Address != "" {
		addr = d.Address
		if d.Port > 0 {
			addr = "http://" + d.Address + ":" + strconv.Itoa(d.Port)
		}
	}
	return player{
		Name:              d.Name,
		Device:            orDefault(d.DeviceClass, "Unknown"),
		DeviceClass:       orDefault(d.DeviceClass, "Unknown"),
		Model:             "Unknown",
		Product:           orDefault(d.Product, "Unknown"),
		Version:           orDefault(d.Version, "Unknown"),
		Platform:          "Unknown",
		PlatformVersion:   "Unknown",
		State:             "Unknown",
		MachineIdentifier: d.MachineIdentifier,
		Address:           orDefault(addr, "Unknown"),
		Protocol:          orDefault(d.Protocol, "plex"),
		ProtocolVersion:   orDefault(d.ProtocolVersion, "Unknown"),
		Vendor:            "Unknown",
		Capabilities:      plex.Capabilities(d.ProtocolCapabilities),
	}
}

func playerFromSession(p plex.Player) player {
	return player{
		Name:              p.Title,
		Device:            orDefault(p.Device, "Unknown"),
		DeviceClass:       "Unknown",
		Model:             orDefault(p.Model, "Unknown"),
		Product:           orDefault(p.Product, "Unknown"),
		Version:           orDefault(p.Version, "Unknown"),
		Platform:          orDefault(p.Platform, "Unknown"),
		PlatformVersion:   orDefault(p.PlatformVersion, "Unknown"),
		State:             orDefault(p.State, "Unknown"),
		MachineIdentifier: p.MachineIdentifier,
		Address:           orDefault(p.Address, "Unknown"),
		Protocol:          "plex",
		ProtocolVersion:   "Unknown",
		Vendor:            orDefault(p.Vendor, "Unknown"),
		Capabilities:      []string{},
		Local:             bool(p.Local),
		fromSession:       true,
	}
}

func (p player) can(capability string) bool {
	return slices.Contains(p.Capabilities, capability)
}

func (p player) info() models.ClientInfo {
	return models.ClientInfo{
		Name:                 p.Name,
		Device:               p.Device,
		Model:                p.Model,
		Product:              p.Product,
		Version:              p.Version,
		Platform:             p.Platform,
		State:                p.State,
		MachineIdentifier:    p.MachineIdentifier,
		Address:              p.Address,
		ProtocolCapabilities: p.Capabilities,
	}
}

// players lists /clients followed by session players not already listed.
func players(ctx context.Context, c *plex.Client) (clients []player, sessionPlayers []player, sessions []plex.Metadata, err error) {
	devices, err := c.Clients(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	sessions, err = c.Sessions(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	for _, d := range devices {
		clients = append(clients, playerFromDevice(d))
	}
	for _, s := range sessions {
		if s.Player != nil {
			sessionPlayers = append(sessionPlayers, playerFromSession(*s.Player))
		}
	}
	return clients, sessionPlayers, sessions, nil
}

// matchPlayer finds name by exact title, then by case-insensitive substring.
func matchPlayer(candidates []player, name string) (player, bool) {
	for _, p := range candidates {
		if p.Name == name {
			return p, true
		}
	}
	for _, p := range candidates {
		if containsFold(p.Name, name) {
			return p, true
		}
	}
	return player{}, false
}

// findPlayer looks name up among /clients and, when withSessions is set,
// among the players of active sessions.
func findPlayer(ctx context.Context, c *plex.Client, name string, withSessions bool) (player, []plex.Metadata, error) {
	clients, sessionPlayers, sessions, err := players(ctx, c)
	if err != nil {
		return player{}, nil, err
	}
	if p, ok := matchPlayer(clients, name); ok {
		return p, sessions, nil
	}
	if withSessions {
		if p, ok := matchPlayer(sessionPlayers, name); ok {
			return p, sessions, nil
		}
	}
	return player{}, sessions, fmt.Errorf("no client found matching '%s'", name)
}

// sessionFor returns the active session played on machineID.
func sessionFor(sessions []plex.Metadata, machineID string) *plex.Metadata {
	for i, s := range sessions {
		if s.Player != nil && machineID != "" && s.Player.MachineIdentifier == machineID {
			return &sessions[i]
		}
	}
	return nil
}

// --- client_list ---

type clientListArgs struct {
	IncludeDetails bool `json:"include_details"`
}

func (a *clientListArgs) defaults() { a.IncludeDetails = true }

func (s *Server) clientList(ctx context.Context, c *plex.Client, in clientListArgs) (any, error) {
	clients, sessionPlayers, _, err := players(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("error listing clients: %w", err)
	}

	seen := map[string]bool{}
	var all []player
	for _, p := range append(clients, sessionPlayers...) {
		if p.MachineIdentifier != "" && seen[p.MachineIdentifier] {
			continue
		}
		seen[p.MachineIdentifier] = true
		all = append(all, p)
	}

	if len(all) == 0 {
		return models.ClientListResponse{
			Status:  models.StatusSuccess,
			Message: "No clients currently connected to your Plex server.",
			Count:   0,
			Clients: []models.ClientInfo{},
		}, nil
	}

	var list any
	if in.IncludeDetails {
		infos := make([]models.ClientInfo, 0, len(all))
		for _, p := range all {
			infos = append(infos, p.info())
		}
		list = infos
	} else {
		names := make([]string, 0, len(all))
		for _, p := range all {
			names = append(names, p.Name)
		}
		list = names
	}

	return models.ClientListResponse{
		Status:  models.StatusSuccess,
		Message: fmt.Sprintf("Found %d connected clients", len(all)),
		Count:   len(all),
		Clients: list,
	}, nil
}

// --- client_get_details ---

type clientNameArgs struct {
	ClientName string `json:"client_name"`
}

func (s *Server) clientGetDetails(ctx context.Context, c *plex.Client, in clientNameArgs) (any, error) {
	p, _, err := findPlayer(ctx, c, in.ClientName, true)
	if err != nil {
		return nil, err
	}
	return models.ClientDetailsResponse{
		Status: models.StatusSuccess,
		Client: map[string]any{
			"name":                 p.Name,
			"device":               p.Device,
			"deviceClass":          p.DeviceClass,
			"model":                p.Model,
			"product":              p.Product,
			"version":              p.Version,
			"platform":             p.Platform,
			"platformVersion":      p.PlatformVersion,
			"state":                p.State,
			"machineIdentifier":    p.MachineIdentifier,
			"protocolCapabilities": p.Capabilities,
			"address":              p.Address,
			"local":                p.Local,
			"protocol":             p.Protocol,
			"protocolVersion":      p.ProtocolVersion,
			"vendor":               p.Vendor,
		},
	}, nil
}

// --- client_get_timelines ---

func sessionTimeline(s *plex.Metadata) map[string]any {
	state := "Unknown"
	if s.Player != nil {
		state = orDefault(s.Player.State, state)
	}
	return map[string]any{
		"state":    state,
		"time":     s.ViewOffset,
		"duration": s.Duration,
		"progress": percent(s.ViewOffset, s.Duration, 2),
		"title":    orDefault(s.Title, "Unknown"),
		"type":     orDefault(s.Type, "Unknown"),
	}
}

func (s *Server) clientGetTimelines(ctx context.Context, c *plex.Client, in clientNameArgs) (any, error) {
	p, sessions, err := findPlayer(ctx, c, in.ClientName, true)
	if err != nil {
		return nil, err
	}

	tl, pollErr := c.ActiveTimeline(ctx, p.MachineIdentifier)
	if pollErr == nil && tl != nil {
		data := map[string]any{
			"type":      tl.Type,
			"state":     tl.State,
			"time":      tl.Time,
			"duration":  tl.Duration,
			"progress":  percent(tl.Time, tl.Duration, 2),
			"key":       tl.Key,
			"ratingKey": tl.RatingKey,
			"volume":    tl.Volume,
			"muted":     bool(tl.Muted),
		}
		if tl.RatingKey != "" {
			if item, err := c.Metadata(ctx, tl.RatingKey); err == nil {
				data["title"] = item.Title
			}
		}
		return models.ClientTimelineResponse{
			Status:     models.StatusSuccess,
			ClientName: p.Name,
			Source:     "timeline",
			Timeline:   data,
		}, nil
	}

	if sess := sessionFor(sessions, p.MachineIdentifier); sess != nil {
		return models.ClientTimelineResponse{
			Status:     models.StatusSuccess,
			ClientName: p.Name,
			Source:     "session",
			Timeline:   sessionTimeline(sess),
		}, nil
	}

	if pollErr != nil {
		s.logger.Debug("Timeline poll failed", "client", p.Name, "error", pollErr)
		return models.ClientTimelineResponse{
			Status:     models.StatusWarning,
			Message:    fmt.Sprintf("Unable to get timeline information for client '%s'. The client may not be responding to timeline requests.", p.Name),
			ClientName: p.Name,
		}, nil
	}

	return models.ClientTimelineResponse{
		Status:     models.StatusInfo,
		Message:    fmt.Sprintf("Client '%s' is not currently playing any media.", p.Name),
		ClientName: p.Name,
	}, nil
}

// --- client_get_active ---

type noArgs struct{}

func (s *Server) clientGetActive(ctx context.Context, c *plex.Client, _ noArgs) (any, error) {
	sessions, err := c.Sessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting active clients: %w", err)
	}

	active := []models.ActiveClientInfo{}
	for _, sess := range sessions {
		if sess.Player == nil {
			continue
		}
		media := models.ActiveClientMedia{
			Title: orDefault(sess.Title, "Unknown"),
			Type:  orDefault(sess.Type, "Unknown"),
		}
		switch sess.Type {
		case "episode":
			media.Show = orDefault(sess.GrandparentTitle, "Unknown Show")
			media.Season = orDefault(sess.ParentTitle, "Unknown Season")
			media.SeasonEpisode = fmt.Sprintf("S%dE%d", sess.ParentIndex, sess.Index)
		case "movie":
			media.Year = "Unknown"
			if sess.Year > 0 {
				media.Year = strconv.Itoa(sess.Year)
			}
		}

		var progress *float64
		if sess.Duration > 0 {
			v := percent(sess.ViewOffset, sess.Duration, 1)
			progress = &v
		}

		user := "Unknown User"
		if sess.User != nil && sess.User.Title != "" {
			user = sess.User.Title
		}

		pl := playerFromSession(*sess.Player)
		active = append(active, models.ActiveClientInfo{
			Name:        pl.Name,
			Device:      pl.Device,
			Product:     pl.Product,
			Platform:    pl.Platform,
			State:       pl.State,
			User:        user,
			Media:       media,
			Progress:    progress,
			Transcoding: sess.TranscodeSession != nil,
		})
	}

	if len(active) == 0 {
		return models.ActiveClientsResponse{
			Status:        models.StatusSuccess,
			Message:       "No active clients currently playing media.",
			ActiveClients: active,
		}, nil
	}
	return models.ActiveClientsResponse{
		Status:        models.StatusSuccess,
		Message:       fmt.Sprintf("Found %d active clients", len(active)),
		Count:         len(active),
		ActiveClients: active,
	}, nil
}

// --- client_start_playback ---

type clientStartPlaybackArgs struct {
	MediaTitle        string `json:"media_title"`
	ClientName        string `json:"client_name"`
	Offset            int    `json:"offset"`
	LibraryName       string `json:"library_name"`
	UseExternalPlayer bool   `json:"use_external_player"`
}

func (s *Server) clientStartPlayback(ctx context.Context, c *plex.Client, in clientStartPlaybackArgs) (any, error) {
	var results []plex.Metadata
	if in.LibraryName != "" {
		section, _, err := c.SectionByTitle(ctx, in.LibraryName)
		if err != nil {
			return nil, fmt.Errorf("library '%s' not found", in.LibraryName)
		}
		results, err = c.SearchSection(ctx, section.Key, in.MediaTitle, 0)
		if err != nil {
			return nil, fmt.Errorf("error setting up playback: %w", err)
		}
	} else {
		var err error
		results, err = c.Search(ctx, in.MediaTitle, 0)
		if err != nil {
			return nil, fmt.Errorf("error setting up playback: %w", err)
		}
	}

	if len(results) == 0 {
		return nil, fmt.Errorf("no media found matching '%s'", in.MediaTitle)
	}
	if len(results) > 1 {
		list := make([]map[string]any, 0, 10)
		for i, m := range results {
			if i == 10 {
				break
			}
			entry := map[string]any{"index": i + 1, "title": m.Title, "type": m.Type}
			if m.Year > 0 {
				entry["year"] = m.Year
			}
			if m.Type == "episode" {
				entry["show"] = m.GrandparentTitle
				entry["season"] = m.ParentIndex
				entry["episode"] = m.Index
			}
			list = append(list, entry)
		}
		return models.PlaybackResponse{
			Status:  models.StatusMultipleResults,
			Message: fmt.Sprintf("Multiple items found matching '%s'. Please specify a library or use a more specific title.", in.MediaTitle),
			Count:   len(results),
			Results: list,
		}, nil
	}
	media := results[0]

	if in.ClientName == "" {
		devices, err := c.Clients(ctx)
		if err != nil {
			return nil, fmt.Errorf("error setting up playback: %w", err)
		}
		if len(devices) == 0 {
			return nil, errors.New("no clients are currently connected to your Plex server")
		}
		list := make([]map[string]any, 0, len(devices))
		for i, d := range devices {
			p := playerFromDevice(d)
			list = append(list, map[string]any{"index": i + 1, "name": p.Name, "device": p.Device})
		}
		return models.PlaybackResponse{
			Status:           models.StatusClientSelection,
			Message:          "Please specify a client to play on using the client_name parameter",
			AvailableClients: list,
		}, nil
	}

	p, _, err := findPlayer(ctx, c, in.ClientName, false)
	if err != nil {
		return nil, err
	}
	if in.UseExternalPlayer && !p.can("player") {
		return nil, fmt.Errorf("client '%s' does not support external player", p.Name)
	}

	title := displayTitle(media)
	if err := c.PlayMedia(ctx, p.MachineIdentifier, media, int64(in.Offset)); err != nil {
		return nil, fmt.Errorf("error starting playback: %w", err)
	}

	offset := in.Offset
	return models.PlaybackResponse{
		Status:  models.StatusSuccess,
		Message: fmt.Sprintf("Started playback of '%s' on %s", title, p.Name),
		Media: map[string]any{
			"title":           media.Title,
			"type":            media.Type,
			"formatted_title": title,
			"rating_key":      media.RatingKey,
		},
		Client: p.Name,
		Offset: &offset,
	}, nil
}

// --- client_control_playback ---

var (
	playbackActions = []string{
		"play", "pause", "stop", "skipNext", "skipPrevious", "stepForward", "stepBack",
		"seekTo", "seekForward", "seekBack", "mute", "unmute", "setVolume",
	}
	playbackMediaTypes = []string{"video", "music", "photo"}
	navigationActions  = []string{"moveUp", "moveDown", "moveLeft", "moveRight", "select", "back", "home", "contextMenu"}
)

const defaultSeekSeconds = 30

type clientControlPlaybackArgs struct {
	ClientName string `json:"client_name"`
	Action     string `json:"action"`
	Parameter  *int   `json:"parameter"`
	MediaType  string `json:"media_type"`
}

func (a *clientControlPlaybackArgs) defaults() { a.MediaType = "video" }

// playbackCommand maps an action to its companion path and parameters.
// current is the timeline time in ms, used by relative seeks.
func playbackCommand(action string, parameter *int, current int64) (string, url.Values) {
	q := url.Values{}
	seconds := defaultSeekSeconds
	if parameter != nil {
		seconds = *parameter
	}
	switch action {
	case "seekTo":
		q.Set("offset", strconv.Itoa(*parameter))
		return "/player/playback/seekTo", q
	case "seekForward":
		q.Set("offset", strconv.FormatInt(current+int64(seconds)*1000, 10))
		return "/player/playback/seekTo", q
	case "seekBack":
		q.Set("offset", strconv.FormatInt(max(0, current-int64(seconds)*1000), 10))
		return "/player/playback/seekTo", q
	case "mute":
		q.Set("mute", "1")
		return "/player/playback/setParameters", q
	case "unmute":
		q.Set("mute", "0")
		return "/player/playback/setParameters", q
	case "setVolume":
		q.Set("volume", strconv.Itoa(*parameter))
		return "/player/playback/setParameters", q
	default:
		return "/player/playback/" + action, q
	}
}

func (s *Server) clientControlPlayback(ctx context.Context, c *plex.Client, in clientControlPlaybackArgs) (any, error) {
	if !slices.Contains(playbackActions, in.Action) {
		return nil, fmt.Errorf("invalid action '%s'. Valid actions are: %s", in.Action, strings.Join(playbackActions, ", "))
	}
	if (in.Action == "seekTo" || in.Action == "setVolume") && in.Parameter == nil {
		return nil, fmt.Errorf("action '%s' requires a parameter value", in.Action)
	}
	if in.Action == "setVolume" && (*in.Parameter < 0 || *in.Parameter > 100) {
		return nil, errors.New("volume must be between 0 and 100")
	}
	if !slices.Contains(playbackMediaTypes, in.MediaType) {
		return nil, fmt.Errorf("invalid media type '%s'. Valid types are: %s", in.MediaType, strings.Join(playbackMediaTypes, ", "))
	}

	p, _, err := findPlayer(ctx, c, in.ClientName, false)
	if err != nil {
		return nil, err
	}
	if !p.can("playback") {
		return nil, fmt.Errorf("client '%s' does not support playback control", p.Name)
	}

	var current int64
	if in.Action == "seekForward" || in.Action == "seekBack" {
		tl, err := c.ActiveTimeline(ctx, p.MachineIdentifier)
		if err != nil {
			return nil, fmt.Errorf("error controlling playback: %w", err)
		}
		if tl == nil {
			return nil, fmt.Errorf("client '%s' is not currently playing any media", p.Name)
		}
		current = tl.Time
	}

	path, q := playbackCommand(in.Action, in.Parameter, current)
	q.Set("type", in.MediaType)
	if err := c.PlayerCommand(ctx, p.MachineIdentifier, path, q); err != nil {
		return nil, fmt.Errorf("error controlling playback: %w", err)
	}

	if err := s.wait(ctx, 500*time.Millisecond); err != nil {
		return nil, err
	}

	resp := models.PlaybackResponse{
		Status:    models.StatusSuccess,
		Message:   fmt.Sprintf("Successfully performed action '%s' on client '%s'", in.Action, p.Name),
		Action:    in.Action,
		Client:    p.Name,
		Parameter: in.Parameter,
	}
	if tl, err := c.ActiveTimeline(ctx, p.MachineIdentifier); err == nil && tl != nil {
		resp.Timeline = map[string]any{
			"state":    tl.State,
			"time":     tl.Time,
			"duration": tl.Duration,
			"volume":   tl.Volume,
			"muted":    bool(tl.Muted),
		}
	}
	return resp, nil
}

// --- client_navigate ---

type clientNavigateArgs struct {
	ClientName string `json:"client_name"`
	Action     string `json:"action"`
}

func (s *Server) clientNavigate(ctx context.Context, c *plex.Client, in clientNavigateArgs) (any, error) {
	if !slices.Contains(navigationActions, in.Action) {
		return nil, fmt.Errorf("invalid navigation action '%s'. Valid actions are: %s", in.Action, strings.Join(navigationActions, ", "))
	}

	p, _, err := findPlayer(ctx, c, in.ClientName, false)
	if err != nil {
		return nil, err
	}
	if !p.can("navigation") {
		return nil, fmt.Errorf("client '%s' does not support navigation control", p.Name)
	}

	if err := c.PlayerCommand(ctx, p.MachineIdentifier, "/player/navigation/"+in.Action, nil); err != nil {
		return nil, fmt.Errorf("error navigating client: %w", err)
	}
	return models.PlaybackResponse{
		Status:  models.StatusSuccess,
		Message: fmt.Sprintf("Successfully performed navigation action '%s' on client '%s'", in.Action, p.Name),
		Action:  in.Action,
		Client:  p.Name,
	}, nil
}

// --- client_set_streams ---

type clientSetStreamsArgs struct {
	ClientName       string  `json:"client_name"`
	AudioStreamID    *string `json:"audio_stream_id"`
	SubtitleStreamID *string `json:"subtitle_stream_id"`
	VideoStreamID    *string `json:"video_stream_id"`
}

func (s *Server) clientSetStreams(ctx context.Context, c *plex.Client, in clientSetStreamsArgs) (any, error) {
	if in.AudioStreamID == nil && in.SubtitleStreamID == nil && in.VideoStreamID == nil {
		return nil, errors.New("at least one stream ID (audio, subtitle, or video) must be provided")
	}

	p, sessions, err := findPlayer(ctx, c, in.ClientName, false)
	if err != nil {
		return nil, err
	}

	tl, err := c.ActiveTimeline(ctx, p.MachineIdentifier)
	if err != nil && sessionFor(sessions, p.MachineIdentifier) == nil {
		return nil, fmt.Errorf("unable to get playback status for client '%s'", p.Name)
	}
	if (tl == nil || tl.State != "playing") && sessionFor(sessions, p.MachineIdentifier) == nil {
		return nil, fmt.Errorf("client '%s' is not currently playing any media", p.Name)
	}

	q := url.Values{}
	changes := map[string]string{}
	var described []string
	if in.AudioStreamID != nil {
		q.Set("audioStreamID", *in.AudioStreamID)
		changes["audio_stream"] = *in.AudioStreamID
		described = append(described, "audio to "+*in.AudioStreamID)
	}
	if in.SubtitleStreamID != nil {
		q.Set("subtitleStreamID", *in.SubtitleStreamID)
		changes["subtitle_stream"] = *in.SubtitleStreamID
		described = append(described, "subtitle to "+*in.SubtitleStreamID)
	}
	if in.VideoStreamID != nil {
		q.Set("videoStreamID", *in.VideoStreamID)
		changes["video_stream"] = *in.VideoStreamID
		described = append(described, "video to "+*in.VideoStreamID)
	}
	q.Set("type", "video")

	if err := c.PlayerCommand(ctx, p.MachineIdentifier, "/player/playback/setStreams", q); err != nil {
		return nil, fmt.Errorf("error setting streams: %w", err)
	}
	return models.PlaybackResponse{
		Status:  models.StatusSuccess,
		Message: fmt.Sprintf("Successfully set streams for '%s': %s", p.Name, strings.Join(described, ", ")),
		Client:  p.Name,
		Changes: changes,
	}, nil
}
