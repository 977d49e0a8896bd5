package server

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/hays/plex-mcp/models"
	"github.com/hays/plex-mcp/plex"
)

const (
	roleOwner  = "Owner"
	roleShared = "Shared User"
)

func isOwner(me *plex.MyAccount, name string) bool {
	return strings.EqualFold(me.Username, name) || strings.EqualFold(me.Title, name) || strings.EqualFold(me.Email, name)
}

// owner fetches the plex.tv account behind the server token.
func owner(ctx context.Context, c *plex.Client) (*plex.MyAccount, error) {
	me, err := c.Account().MyAccount(ctx)
	if err != nil {
		return nil, fmt.Errorf("error reading Plex account: %w", err)
	}
	return me, nil
}

// sharedUser finds a friend or home user of the owner.
func sharedUser(ctx context.Context, c *plex.Client, name string) (plex.User, error) {
	users, err := c.Account().Users(ctx)
	if err != nil {
		return plex.User{}, fmt.Errorf("error listing users: %w", err)
	}
	u, ok := plex.FindUser(users, name)
	if !ok {
		return plex.User{}, fmt.Errorf("user '%s' not found", name)
	}
	return u, nil
}

// defaultUser is the configured Plex username, or the owner.
func (s *Server) defaultUser(ctx context.Context, c *plex.Client, name string) (string, error) {
	if name != "" {
		return name, nil
	}
	if s.cfg.Plex.Username != "" {
		return s.cfg.Plex.Username, nil
	}
	me, err := owner(ctx, c)
	if err != nil {
		return "", err
	}
	return me.Username, nil
}

type userSearchArgs struct {
	SearchTerm string `json:"search_term"`
}

func (s *Server) userSearchUsers(ctx context.Context, c *plex.Client, in userSearchArgs) (any, error) {
	me, err := owner(ctx, c)
	if err != nil {
		return nil, err
	}
	users, err := c.Account().Users(ctx)
	if err != nil {
		return nil, fmt.Errorf("error searching users: %w", err)
	}

	all := []models.UserSummary{{
		Role:     roleOwner,
		ID:       me.ID,
		Username: me.Username,
		Email:    me.Email,
		Title:    orDefault(me.Title, me.Username),
		Home:     me.Home,
	}}
	for _, u := range users {
		if strings.EqualFold(u.Username, me.Username) && u.Username != "" {
			continue
		}
		all = append(all, models.UserSummary{
			Role:     roleShared,
			ID:       u.ID,
			Username: u.Username,
			Email:    u.Email,
			Title:    orDefault(u.Title, u.Username),
			Home:     bool(u.Home),
		})
	}

	resp := models.UserSearchResponse{Status: models.StatusSuccess, SearchTerm: in.SearchTerm}
	if in.SearchTerm == "" {
		resp.Owner = &all[0]
		resp.Users = all[1:]
		resp.Count = len(all)
		if len(resp.Users) == 0 {
			resp.Message = "No shared users found. Only your account has access to this Plex server."
		}
		return resp, nil
	}

	resp.Users = []models.UserSummary{}
	for _, u := range all {
		if containsFold(u.Username, in.SearchTerm) || containsFold(u.Email, in.SearchTerm) || containsFold(u.Title, in.SearchTerm) {
			resp.Users = append(resp.Users, u)
		}
	}
	resp.Count = len(resp.Users)
	if resp.Count == 0 {
		resp.Message = fmt.Sprintf("No users found matching '%s'.", in.SearchTerm)
	}
	return resp, nil
}

// truncateToken shows only the ends of a token.
func truncateToken(t string) string {
	if len(t) <= 10 {
		return "(hidden)"
	}
	return t[:5] + "..." + t[len(t)-5:] + " (truncated for security)"
}

type usernameArgs struct {
	Username string `json:"username"`
}

func (s *Server) userGetInfo(ctx context.Context, c *plex.Client, in usernameArgs) (any, error) {
	name, err := s.defaultUser(ctx, c, in.Username)
	if err != nil {
		return nil, err
	}
	me, err := owner(ctx, c)
	if err != nil {
		return nil, err
	}
	if isOwner(me, name) {
		resp := models.UserInfoResponse{
			Status:       models.StatusSuccess,
			Role:         roleOwner,
			ID:           me.ID,
			Username:     me.Username,
			Email:        me.Email,
			Title:        me.Title,
			UUID:         me.UUID,
			AuthToken:    truncateToken(orDefault(me.AuthToken, c.Token())),
			Subscription: &models.Subscription{Active: me.Subscription.Active},
			JoinedAt:     stamp(me.JoinedAt, layoutDateTime),
			Home:         me.Home,
		}
		if me.Subscription.Active {
			resp.Subscription.Features = me.Subscription.Features
		}
		return resp, nil
	}

	u, err := sharedUser(ctx, c, name)
	if err != nil {
		return nil, fmt.Errorf("user '%s' not found among shared users", name)
	}
	resp := models.UserInfoResponse{
		Status:     models.StatusSuccess,
		Role:       roleShared,
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		Title:      orDefault(u.Title, u.Username),
		Home:       bool(u.Home),
		Restricted: bool(u.Restricted),
	}
	machineID, err := c.MachineIdentifier(ctx)
	if err != nil {
		return nil, err
	}
	for _, srv := range u.Servers {
		if srv.MachineIdentifier != machineID {
			continue
		}
		resp.ServerAccess = append(resp.ServerAccess, models.ServerAccess{
			Name:         srv.Name,
			AllLibraries: bool(srv.AllLibraries),
			LibraryCount: srv.NumLibraries,
			MachineID:    srv.MachineIdentifier,
		})
	}
	return resp, nil
}

// clientFor returns a client acting as the named user: c itself for the
// owner, or a copy carrying the user's shared-server token.
func clientFor(ctx context.Context, c *plex.Client, me *plex.MyAccount, name string) (*plex.Client, error) {
	if isOwner(me, name) {
		return c, nil
	}
	token, err := c.UserToken(ctx, name)
	if errors.Is(err, plex.ErrNotFound) {
		return nil, fmt.Errorf("user '%s' not found", name)
	}
	if err != nil {
		return nil, fmt.Errorf("error accessing user '%s': %w", name, err)
	}
	return c.WithToken(token), nil
}

func (s *Server) userGetOnDeck(ctx context.Context, c *plex.Client, in usernameArgs) (any, error) {
	name, err := s.defaultUser(ctx, c, in.Username)
	if err != nil {
		return nil, err
	}
	me, err := owner(ctx, c)
	if err != nil {
		return nil, err
	}
	uc, err := clientFor(ctx, c, me, name)
	if err != nil {
		return nil, err
	}
	items, err := uc.OnDeck(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting on-deck items: %w", err)
	}

	resp := models.OnDeckResponse{
		Status:   models.StatusSuccess,
		Username: name,
		Count:    len(items),
		Items:    []models.OnDeckItem{},
	}
	if len(items) == 0 {
		resp.Message = fmt.Sprintf("No on-deck items found for user '%s'.", name)
		return resp, nil
	}
	for _, m := range items {
		item := models.OnDeckItem{
			Type:        orDefault(m.Type, "unknown"),
			Title:       orDefault(m.Title, "Unknown Title"),
			Progress:    percent(m.ViewOffset, m.Duration, 1),
			CurrentTime: minSec(m.ViewOffset),
			TotalTime:   minSec(m.Duration),
		}
		if m.Type == "episode" {
			item.Show = orDefault(m.GrandparentTitle, "Unknown Show")
			item.Season = orDefault(m.ParentTitle, "Unknown Season")
		} else {
			item.Year = m.Year
		}
		resp.Items = append(resp.Items, item)
	}
	return resp, nil
}

type watchHistoryArgs struct {
	Username    string `json:"username"`
	Limit       int    `json:"limit"`
	ContentType string `json:"content_type"`
}

func (a *watchHistoryArgs) defaults() { a.Limit = 10 }

// historyAttempts bounds how often the search window doubles.
const historyAttempts = 4

func (s *Server) userGetWatchHistory(ctx context.Context, c *plex.Client, in watchHistoryArgs) (any, error) {
	if in.Limit <= 0 {
		return nil, errors.New("limit must be positive")
	}
	name, err := s.defaultUser(ctx, c, in.Username)
	if err != nil {
		return nil, err
	}
	me, err := owner(ctx, c)
	if err != nil {
		return nil, err
	}
	filter := plex.HistoryFilter{}
	if !isOwner(me, name) {
		u, err := sharedUser(ctx, c, name)
		if err != nil {
			return nil, err
		}
		filter.AccountID = u.ID
	}

	seen := map[string]bool{}
	var found []plex.Metadata
	window := in.Limit * 2
	for attempt := 0; attempt < historyAttempts && len(found) < in.Limit; attempt++ {
		filter.Limit = window
		items, err := c.History(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("error getting watch history: %w", err)
		}
		for _, m := range items {
			if m.RatingKey != "" {
				if seen[m.RatingKey] {
					continue
				}
				seen[m.RatingKey] = true
			}
			if in.ContentType != "" && !strings.EqualFold(m.Type, in.ContentType) {
				continue
			}
			found = append(found, m)
			if len(found) >= in.Limit {
				break
			}
		}
		if len(items) < window {
			break
		}
		window *= 2
	}

	resp := models.WatchHistoryResponse{
		Status:         models.StatusSuccess,
		Username:       name,
		Count:          len(found),
		RequestedLimit: in.Limit,
		ContentType:    in.ContentType,
		Items:          []models.WatchHistoryItem{},
	}
	if len(found) == 0 {
		resp.Message = fmt.Sprintf("No watch history found for user '%s'", name)
		if in.ContentType != "" {
			resp.Message += fmt.Sprintf(" with content type '%s'", in.ContentType)
		}
		return resp, nil
	}
	for _, m := range found {
		item := models.WatchHistoryItem{
			Type:      orDefault(m.Type, "unknown"),
			Title:     orDefault(m.Title, "Unknown Title"),
			RatingKey: m.RatingKey,
			ViewedAt:  stamp(m.ViewedAt, layoutMinute),
		}
		if m.Type == "episode" {
			item.Show = orDefault(m.GrandparentTitle, "Unknown Show")
			item.Season = orDefault(m.ParentTitle, "Unknown Season")
			item.SeasonNumber, item.EpisodeNumber = m.ParentIndex, m.Index
		} else {
			item.Year = m.Year
		}
		resp.Items = append(resp.Items, item)
	}
	return resp, nil
}

// statPeriod is the statistics granularity and look-back of a time period.
type statPeriod struct {
	timespan int
	since    time.Duration
}

var statPeriods = map[string]statPeriod{
	"last_24_hours": {plex.TimespanHours, 24 * time.Hour},
	"last_7_days":   {plex.TimespanDays, 7 * 24 * time.Hour},
	"last_30_days":  {plex.TimespanDays, 30 * 24 * time.Hour},
	"last_90_days":  {plex.TimespanWeeks, 90 * 24 * time.Hour},
	"last_year":     {plex.TimespanMonths, 365 * 24 * time.Hour},
	"all_time":      {plex.TimespanMonths, 0},
}

var statPeriodOrder = []string{"last_24_hours", "last_7_days", "last_30_days", "last_90_days", "last_year", "all_time"}

// statMediaTypes names the metadataType values of /statistics/media.
var statMediaTypes = map[int]string{
	plex.TypeMovie:   "movie",
	plex.TypeEpisode: "episode",
	plex.TypeTrack:   "track",
	100:              "photo",
}

type userStatisticsArgs struct {
	TimePeriod string `json:"time_period"`
	Username   string `json:"username"`
}

func (a *userStatisticsArgs) defaults() { a.TimePeriod = "last_24_hours" }

// statAccountID finds the statistics account of name, matching account
// names first and then the plex.tv user list.
func statAccountID(ctx context.Context, c *plex.Client, accounts []plex.Account, name string) (int, error) {
	for _, a := range accounts {
		if strings.EqualFold(a.Name, name) {
			return a.ID, nil
		}
	}
	u, err := sharedUser(ctx, c, name)
	if err == nil {
		for _, a := range accounts {
			if a.ID == u.ID || strings.EqualFold(a.Name, u.Username) || strings.EqualFold(a.Name, u.Title) {
				return a.ID, nil
			}
		}
	}
	return 0, fmt.Errorf("user '%s' not found in the statistics data", name)
}

func addWatch(m map[string]models.WatchTime, key string, duration int64, count int) {
	w := m[key]
	w.Duration += duration
	w.Count += count
	m[key] = w
}

func (s *Server) userGetStatistics(ctx context.Context, c *plex.Client, in userStatisticsArgs) (any, error) {
	period, ok := statPeriods[in.TimePeriod]
	if !ok {
		return nil, fmt.Errorf("invalid time period. Choose from: %s", strings.Join(statPeriodOrder, ", "))
	}
	now := s.now()
	var since int64
	if period.since > 0 {
		since = now.Add(-period.since).Unix()
	}
	mc, err := c.MediaStats(ctx, period.timespan, since)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch statistics: %w", err)
	}

	accounts := map[int]string{}
	for _, a := range mc.Account {
		accounts[a.ID] = a.Name
	}
	devices := map[int]plex.StatDevice{}
	for _, d := range mc.Device {
		devices[d.ID] = d
	}

	target := -1
	if in.Username != "" {
		if target, err = statAccountID(ctx, c, mc.Account, in.Username); err != nil {
			return nil, err
		}
	}

	byUser := map[int]*models.UserStatistics{}
	for _, st := range mc.StatisticsMedia {
		if target >= 0 && st.AccountID != target {
			continue
		}
		us, ok := byUser[st.AccountID]
		if !ok {
			us = &models.UserStatistics{
				User:       orDefault(accounts[st.AccountID], fmt.Sprintf("Unknown User %d", st.AccountID)),
				MediaTypes: map[string]models.WatchTime{},
				Devices:    map[string]models.WatchTime{},
			}
			byUser[st.AccountID] = us
		}
		us.TotalDuration += st.Duration
		us.TotalPlays += st.Count

		mediaType, ok := statMediaTypes[st.MetadataType]
		if !ok {
			mediaType = fmt.Sprintf("unknown-%d", st.MetadataType)
		}
		addWatch(us.MediaTypes, mediaType, st.Duration, st.Count)

		d, ok := devices[st.DeviceID]
		if !ok {
			d = plex.StatDevice{Name: fmt.Sprintf("Unknown Device %d", st.DeviceID), Platform: "unknown"}
		}
		addWatch(us.Devices, d.Name, st.Duration, st.Count)
		w := us.Devices[d.Name]
		w.Platform = d.Platform
		us.Devices[d.Name] = w
	}

	users := make([]models.UserStatistics, 0, len(byUser))
	for _, us := range byUser {
		us.FormattedDuration = hms(us.TotalDuration)
		for k, w := range us.MediaTypes {
			w.FormattedDuration = hms(w.Duration)
			us.MediaTypes[k] = w
		}
		for k, w := range us.Devices {
			w.FormattedDuration = hms(w.Duration)
			us.Devices[k] = w
		}
		users = append(users, *us)
	}
	slices.SortFunc(users, func(a, b models.UserStatistics) int {
		return cmp.Or(cmp.Compare(b.TotalDuration, a.TotalDuration), cmp.Compare(a.User, b.User))
	})

	return models.UserStatisticsResponse{
		Status:           models.StatusSuccess,
		TimePeriod:       in.TimePeriod,
		UserFilter:       in.Username,
		TotalUsers:       len(users),
		StatsGeneratedAt: now.Format(layoutDateTime),
		Users:            users,
	}, nil
}
