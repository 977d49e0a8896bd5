package server

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/hays/plex-mcp/models"
	"github.com/hays/plex-mcp/plex"
)

// logFiles maps log types to the file names inside the diagnostics archive.
var logFiles = map[string]string{
	"server":     "Plex Media Server.log",
	"scanner":    "Plex Media Scanner.log",
	"transcoder": "Plex Transcoder Statistics.log",
	"updater":    "Plex Update Service.log",
}

type serverLogsArgs struct {
	NumLines int    `json:"num_lines"`
	LogType  string `json:"log_type"`
}

func (a *serverLogsArgs) defaults() {
	a.NumLines = 100
	a.LogType = "server"
}

func (s *Server) serverGetPlexLogs(ctx context.Context, c *plex.Client, in serverLogsArgs) (any, error) {
	name, ok := logFiles[strings.ToLower(in.LogType)]
	if !ok {
		name = in.LogType
	}
	body, err := c.Log(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("error getting Plex logs: %w", err)
	}
	lines := strings.Split(strings.TrimRight(strings.ReplaceAll(body, "\r\n", "\n"), "\n"), "\n")
	if in.NumLines > 0 && len(lines) > in.NumLines {
		lines = lines[len(lines)-in.NumLines:]
	}
	return fmt.Sprintf("Last %d lines of %s:\n\n%s", len(lines), name, strings.Join(lines, "\n")), nil
}

func (s *Server) serverGetInfo(ctx context.Context, c *plex.Client, _ noArgs) (any, error) {
	id, err := c.Identity(ctx)
	if err != nil {
		return nil, err
	}
	return models.DataResponse{Status: models.StatusSuccess, Data: models.ServerInfo{
		Version:                       id.Version,
		Platform:                      id.Platform,
		PlatformVersion:               id.PlatformVersion,
		UpdatedAt:                     stamp(id.UpdatedAt, layoutDateTime),
		ServerName:                    id.FriendlyName,
		MachineIdentifier:             id.MachineIdentifier,
		MyPlexUsername:                id.MyPlexUsername,
		MyPlexMappingState:            id.MyPlexMappingState,
		Certificate:                   bool(id.Certificate),
		Sync:                          bool(id.Sync),
		TranscoderActiveVideoSessions: id.TranscoderActiveVideoSessions,
		TranscoderAudio:               bool(id.TranscoderAudio),
		TranscoderVideoBitrates:       plex.Capabilities(id.TranscoderVideoBitrates),
		TranscoderVideoQualities:      plex.Capabilities(id.TranscoderVideoQualities),
		TranscoderVideoResolutions:    plex.Capabilities(id.TranscoderVideoResolutions),
		StreamingBrainVersion:         id.StreamingBrainVersion,
		OwnerFeatures:                 plex.Capabilities(id.OwnerFeatures),
	}}, nil
}

var timespans = map[string]int{
	"seconds": plex.TimespanSeconds,
	"hours":   plex.TimespanHours,
	"days":    plex.TimespanDays,
	"weeks":   plex.TimespanWeeks,
	"months":  plex.TimespanMonths,
}

type serverBandwidthArgs struct {
	Timespan string `json:"timespan"`
	Lan      string `json:"lan"`
}

func (s *Server) serverGetBandwidth(ctx context.Context, c *plex.Client, in serverBandwidthArgs) (any, error) {
	// Unknown values leave the filter off.
	timespan := timespans[strings.ToLower(in.Timespan)]
	var lan *bool
	switch strings.ToLower(in.Lan) {
	case "true":
		v := true
		lan = &v
	case "false":
		v := false
		lan = &v
	}

	mc, err := c.BandwidthStats(ctx, timespan, lan)
	if err != nil {
		return nil, err
	}
	accounts := map[int]string{}
	for _, a := range mc.Account {
		accounts[a.ID] = a.Name
	}
	devices := map[int]plex.StatDevice{}
	for _, d := range mc.Device {
		devices[d.ID] = d
	}

	entries := make([]models.BandwidthEntry, 0, len(mc.StatisticsBandwidth))
	for _, b := range mc.StatisticsBandwidth {
		d := devices[b.DeviceID]
		entries = append(entries, models.BandwidthEntry{
			Account:          accounts[b.AccountID],
			DeviceID:         b.DeviceID,
			DeviceName:       d.Name,
			Platform:         d.Platform,
			ClientIdentifier: d.ClientIdentifier,
			At:               stamp(b.At, layoutDateTime),
			Bytes:            b.Bytes,
			IsLocal:          bool(b.Lan),
			TimespanSeconds:  b.Timespan,
		})
	}
	return models.DataResponse{Status: models.StatusSuccess, Data: entries}, nil
}

func (s *Server) serverGetCurrentResources(ctx context.Context, c *plex.Client, _ noArgs) (any, error) {
	stats, err := c.ResourceStats(ctx)
	if err != nil {
		return nil, err
	}
	samples := make([]models.ResourceSample, 0, len(stats))
	for _, r := range stats {
		samples = append(samples, models.ResourceSample{
			Timestamp:                stamp(r.At, layoutDateTime),
			HostCPUUtilization:       r.HostCPUUtilization,
			HostMemoryUtilization:    r.HostMemoryUtilization,
			ProcessCPUUtilization:    r.ProcessCPUUtilization,
			ProcessMemoryUtilization: r.ProcessMemoryUtilization,
			Timespan:                 r.Timespan,
		})
	}
	return models.DataResponse{Status: models.StatusSuccess, Data: samples}, nil
}

func (s *Server) serverGetButlerTasks(ctx context.Context, c *plex.Client, _ noArgs) (any, error) {
	tasks, err := c.ButlerTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch butler tasks: %w", err)
	}
	out := make([]models.ButlerTask, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, models.ButlerTask{
			Name:               t.Name,
			Title:              t.Title,
			Description:        t.Description,
			Interval:           t.Interval,
			Enabled:            bool(t.Enabled),
			ScheduleRandomized: bool(t.ScheduleRandomized),
		})
	}
	return models.DataResponse{Status: models.StatusSuccess, Data: out}, nil
}

type serverAlertsArgs struct {
	Timeout int `json:"timeout"`
}

func (a *serverAlertsArgs) defaults() { a.Timeout = 15 }

// alertRecord summarises a notification. The title names the notification
// kinds it carries.
func alertRecord(a plex.Alert, at time.Time) models.Alert {
	kinds := make([]string, 0, len(a.Data))
	for k := range a.Data {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)

	entries := 0
	for _, v := range a.Data {
		if list, ok := v.([]any); ok {
			entries += len(list)
		}
	}
	rec := models.Alert{
		Type:        orDefault(a.Type, "Unknown"),
		Title:       orDefault(strings.Join(kinds, ", "), "Unknown"),
		Description: fmt.Sprintf("%d event(s)", entries),
		ReceivedAt:  at.Format(layoutDateTime),
		RawData:     a.Data,
	}
	rec.Text = fmt.Sprintf("ALERT: %s - %s - %s", rec.Type, rec.Title, rec.Description)
	return rec
}

func (s *Server) serverGetAlerts(ctx context.Context, c *plex.Client, in serverAlertsArgs) (any, error) {
	if in.Timeout <= 0 {
		return nil, errors.New("timeout must be a positive number of seconds")
	}
	listenCtx, cancel := context.WithTimeout(ctx, time.Duration(in.Timeout)*time.Second)
	defer cancel()

	var (
		mu     sync.Mutex
		alerts = []models.Alert{}
	)
	s.logger.Debug("Listening for alerts", "timeout", in.Timeout)
	err := c.Listen(listenCtx, func(a plex.Alert) {
		mu.Lock()
		defer mu.Unlock()
		alerts = append(alerts, alertRecord(a, s.now()))
	})
	if err != nil {
		return nil, err
	}
	mu.Lock()
	defer mu.Unlock()
	s.logger.Debug("Alert listener stopped", "received", len(alerts))
	return models.DataResponse{Status: models.StatusSuccess, Data: alerts}, nil
}

var (
	htmlTitle = regexp.MustCompile(`(?s)<title>(.*?)</title>`)
	htmlH1    = regexp.MustCompile(`(?s)<h1>(.*?)</h1>`)
)

type serverButlerRunArgs struct {
	TaskName string `json:"task_name"`
}

func (s *Server) serverRunButlerTask(ctx context.Context, c *plex.Client, in serverButlerRunArgs) (any, error) {
	err := c.RunButlerTask(ctx, in.TaskName)
	if err == nil {
		return models.OperationResponse{
			Status:  models.StatusSuccess,
			Message: fmt.Sprintf("Butler task '%s' started successfully", in.TaskName),
		}, nil
	}

	var se *plex.StatusError
	if !errors.As(err, &se) {
		return nil, err
	}
	msg := fmt.Sprintf("failed to run butler task. Status code: %d", se.Code)
	if m := htmlTitle.FindStringSubmatch(se.Body); m != nil && m[1] != "" {
		msg = "failed to run butler task: " + strings.TrimSpace(m[1])
	}
	if m := htmlH1.FindStringSubmatch(se.Body); m != nil && m[1] != "" {
		msg = "failed to run butler task: " + strings.TrimSpace(m[1])
	}
	return nil, errors.New(msg)
}
