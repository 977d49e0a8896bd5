package server

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/hays/plex-mcp/models"
	"github.com/hays/plex-mcp/plex"
)

func sessionInfo(i int, m plex.Metadata) (models.SessionInfo, int) {
	info := models.SessionInfo{
		SessionID:   i,
		State:       "unknown",
		PlayerName:  "Unknown Player",
		User:        "Unknown User",
		ContentType: orDefault(m.Type, "unknown"),
	}
	if m.User != nil && m.User.Title != "" {
		info.User = m.User.Title
	}

	title := orDefault(m.Title, "Unknown")
	switch m.Type {
	case "episode":
		info.ContentDescription = fmt.Sprintf("%s - S%dE%d - %s (TV Episode)",
			orDefault(m.GrandparentTitle, "Unknown Show"), m.ParentIndex, m.Index, title)
	case "movie":
		info.Year = m.Year
		info.ContentDescription = fmt.Sprintf("%s (%d) (Movie)", title, m.Year)
	default:
		info.ContentDescription = fmt.Sprintf("%s (%s)", title, info.ContentType)
	}

	if p := m.Player; p != nil {
		info.State = orDefault(p.State, "unknown")
		info.PlayerName = orDefault(p.Title, "Unknown Player")
		info.Player = models.SessionPlayer{
			IP:       p.Address,
			Platform: p.Platform,
			Product:  p.Product,
			Device:   p.Device,
			Version:  p.Version,
		}
	}

	if m.Duration > 0 {
		remaining := (m.Duration - m.ViewOffset) / 60000
		info.Progress = &models.SessionProgress{
			Percent:          percent(m.ViewOffset, m.Duration, 1),
			MinutesRemaining: int(max(remaining, 0)),
		}
	}

	bitrate := 0
	if len(m.Media) > 0 {
		media := m.Media[0]
		mi := models.SessionMedia{Resolution: media.VideoResolution}
		if media.Bitrate > 0 {
			mi.Bitrate = strconv.Itoa(media.Bitrate) + " kbps"
			bitrate = media.Bitrate
		}
		if mi != (models.SessionMedia{}) {
			info.MediaInfo = &mi
		}
	}

	t := m.TranscodeSession
	if t == nil {
		info.Transcoding = models.SessionTranscode{Active: false, Mode: "Direct Play/Stream"}
		return info, bitrate
	}
	info.Transcoding = models.SessionTranscode{Active: true}
	if t.VideoCodec != "" {
		info.Transcoding.Video = orDefault(t.SourceVideoCodec, "?") + " → " + t.VideoCodec
	}
	if t.AudioCodec != "" {
		info.Transcoding.Audio = orDefault(t.SourceAudioCodec, "?") + " → " + t.AudioCodec
	}
	if t.Width > 0 && t.Height > 0 {
		source := "?"
		if len(m.Media) > 0 {
			source = orDefault(m.Media[0].VideoResolution, "?")
		}
		info.Transcoding.Resolution = fmt.Sprintf("%s → %dx%d", source, t.Width, t.Height)
	}
	return info, bitrate
}

func (s *Server) sessionsGetActive(ctx context.Context, c *plex.Client, _ noArgs) (any, error) {
	sessions, err := c.Sessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting active sessions: %w", err)
	}
	resp := models.SessionsActiveResponse{
		Status:        models.StatusSuccess,
		SessionsCount: len(sessions),
		Sessions:      []models.SessionInfo{},
	}
	if len(sessions) == 0 {
		resp.Message = "No active sessions found."
		return resp, nil
	}
	resp.Message = fmt.Sprintf("Found %d active sessions", len(sessions))
	for i, m := range sessions {
		info, bitrate := sessionInfo(i+1, m)
		if info.Transcoding.Active {
			resp.TranscodeCount++
		} else {
			resp.DirectPlayCount++
		}
		resp.TotalBitrateKbps += bitrate
		resp.Sessions = append(resp.Sessions, info)
	}
	return resp, nil
}

type playbackHistoryArgs struct {
	MediaTitle  string `json:"media_title"`
	LibraryName string `json:"library_name"`
	MediaID     Key    `json:"media_id"`
}

func historyMatch(m plex.Metadata) models.HistoryMatch {
	hm := models.HistoryMatch{
		MediaID:        m.RatingKey,
		Type:           orDefault(m.Type, "unknown"),
		Title:          m.Title,
		FormattedTitle: m.Title,
	}
	switch m.Type {
	case "episode":
		hm.ShowTitle = orDefault(m.GrandparentTitle, "Unknown Show")
		hm.Season = orDefault(m.ParentTitle, "Unknown Season")
		hm.SeasonNumber, hm.EpisodeNumber = m.ParentIndex, m.Index
		hm.FormattedTitle = fmt.Sprintf("%s - S%dE%d - %s", hm.ShowTitle, m.ParentIndex, m.Index, m.Title)
	case "movie":
		hm.Year = m.Year
		hm.FormattedTitle = displayTitle(m)
	}
	return hm
}

func historyMedia(m plex.Metadata) models.HistoryMedia {
	hm := models.HistoryMedia{
		MediaID: m.RatingKey,
		Key:     m.Key,
		Type:    orDefault(m.Type, "unknown"),
	}
	if m.Type == "episode" {
		hm.ShowTitle = orDefault(m.GrandparentTitle, "Unknown Show")
		hm.SeasonTitle = orDefault(m.ParentTitle, "Unknown Season")
		hm.EpisodeTitle = orDefault(m.Title, "Unknown Episode")
		hm.FormattedTitle = hm.ShowTitle + " - " + hm.SeasonTitle + " - " + hm.EpisodeTitle
		return hm
	}
	hm.Title = orDefault(m.Title, "Unknown")
	hm.Year = m.Year
	hm.FormattedTitle = hm.Title
	if m.Year > 0 {
		hm.FormattedTitle = fmt.Sprintf("%s (%d)", hm.Title, m.Year)
	}
	return hm
}

func (s *Server) sessionsGetMediaPlaybackHistory(ctx context.Context, c *plex.Client, in playbackHistoryArgs) (any, error) {
	if in.MediaTitle == "" && in.MediaID == "" {
		return nil, errors.New("either media_title or media_id must be provided")
	}

	var media plex.Metadata
	if in.MediaID != "" {
		m, err := c.Metadata(ctx, in.MediaID.String())
		if err != nil {
			return nil, fmt.Errorf("media with ID '%s' not found: %w", in.MediaID, err)
		}
		media = *m
	} else {
		results, err := searchMedia(ctx, c, in.MediaTitle, in.LibraryName)
		if err != nil {
			return nil, err
		}
		if len(results) == 0 {
			return nil, fmt.Errorf("no media found matching '%s'", in.MediaTitle)
		}
		if len(results) > 1 {
			resp := models.MediaPlaybackHistoryResponse{
				Status:  models.StatusMultipleMatches,
				Message: fmt.Sprintf("Multiple items found with title '%s'. Please specify a library, use a more specific title, or use one of the media_id values below.", in.MediaTitle),
			}
			for _, m := range results {
				resp.Matches = append(resp.Matches, historyMatch(m))
			}
			return resp, nil
		}
		media = results[0]
	}

	info := historyMedia(media)
	history, err := c.History(ctx, plex.HistoryFilter{MetadataItemID: media.RatingKey})
	if err != nil {
		return nil, fmt.Errorf("error getting media playback history: %w", err)
	}
	resp := models.MediaPlaybackHistoryResponse{
		Status:    models.StatusSuccess,
		Media:     &info,
		PlayCount: len(history),
		History:   []models.HistoryEntry{},
	}
	if len(history) == 0 {
		resp.Message = fmt.Sprintf("No playback history found for '%s'.", info.FormattedTitle)
		return resp, nil
	}

	// Names are best effort; ids stand in when the lookups fail.
	accounts := map[int]string{}
	if list, err := c.Accounts(ctx); err == nil {
		for _, a := range list {
			accounts[a.ID] = a.Name
		}
	}
	devices := map[int]string{}
	if list, err := c.Devices(ctx); err == nil {
		for _, d := range list {
			devices[d.ID] = d.Name
		}
	}

	for _, h := range history {
		entry := models.HistoryEntry{
			User:     "Unknown User",
			ViewedAt: orDefault(stamp(h.ViewedAt, layoutMinute), "Unknown time"),
			Device:   "Unknown Device",
		}
		if h.AccountID != 0 {
			entry.User = orDefault(accounts[h.AccountID], fmt.Sprintf("User ID: %d", h.AccountID))
		}
		if h.DeviceID != 0 {
			entry.Device = orDefault(devices[h.DeviceID], fmt.Sprintf("Device ID: %d", h.DeviceID))
		}
		resp.History = append(resp.History, entry)
	}
	return resp, nil
}
