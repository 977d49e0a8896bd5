package server

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hays/plex-mcp/config"
	"github.com/hays/plex-mcp/plex"
)

// accountServer with the plex.tv side answering /api/v2/user as alice.
func accountServer(t *testing.T, plexURL string) *Server {
	t.Helper()
	account := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/user" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"id": 1, "username": "alice", "title": "Alice"})
	}))
	t.Cleanup(account.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	conn := plex.NewConnector(plex.ConnectorConfig{
		URL:        plexURL,
		Token:      "tok",
		AccountURL: account.URL,
		Logger:     logger,
		Retry:      plex.RetryConfig{MaxAttempts: 1, Delay: time.Millisecond},
	})
	s, err := NewServer(config.Default(), logger, WithConnector(conn), WithVersion("test"))
	require.NoError(t, err)
	return s
}

// historyPlex serves history pages built by page and records each
// requested page size.
func historyPlex(t *testing.T, page func(size int) []any) (*httptest.Server, func() []int) {
	t.Helper()
	var (
		mu    sync.Mutex
		sizes []int
	)
	srv := fakePlex(t, map[string]http.HandlerFunc{
		"/status/sessions/history/all": func(w http.ResponseWriter, r *http.Request) {
			size, _ := strconv.Atoi(r.URL.Query().Get("X-Plex-Container-Size"))
			mu.Lock()
			sizes = append(sizes, size)
			mu.Unlock()
			container(w, map[string]any{"Metadata": page(size)})
		},
	})
	return srv, func() []int {
		mu.Lock()
		defer mu.Unlock()
		return append([]int(nil), sizes...)
	}
}

func TestUserGetWatchHistory_DoublesWindowUpToFourAttempts(t *testing.T) {
	srv, sizes := historyPlex(t, func(size int) []any {
		items := make([]any, size)
		for i := range items {
			items[i] = map[string]any{"ratingKey": strconv.Itoa(i + 1), "type": "episode", "title": fmt.Sprintf("Ep %d", i+1)}
		}
		return items
	})

	out, res := call(t, accountServer(t, srv.URL), "user_get_watch_history", map[string]any{
		"limit": 3, "content_type": "movie",
	})
	require.False(t, res.IsError, out["message"])
	assert.Equal(t, []int{6, 12, 24, 48}, sizes())
	assert.EqualValues(t, 0, out["count"])
	assert.Equal(t, "No watch history found for user 'alice' with content type 'movie'", out["message"])
}

func TestUserGetWatchHistory_StopsWhenLimitReached(t *testing.T) {
	srv, sizes := historyPlex(t, func(size int) []any {
		items := make([]any, size)
		for i := range items {
			kind := "episode"
			if i == 5 || i == 7 {
				kind = "movie"
			}
			items[i] = map[string]any{"ratingKey": strconv.Itoa(i + 1), "type": kind, "title": fmt.Sprintf("Item %d", i+1), "viewedAt": 1700000000}
		}
		return items
	})

	out, res := call(t, accountServer(t, srv.URL), "user_get_watch_history", map[string]any{
		"limit": 2, "content_type": "movie",
	})
	require.False(t, res.IsError, out["message"])
	assert.Equal(t, []int{4, 8}, sizes())
	assert.EqualValues(t, 2, out["count"])
	assert.EqualValues(t, 2, out["requested_limit"])

	items := out["items"].([]any)
	assert.Equal(t, "Item 6", items[0].(map[string]any)["title"])
	assert.Equal(t, "Item 8", items[1].(map[string]any)["title"])
}

func TestUserGetWatchHistory_ShortPageEndsSearch(t *testing.T) {
	srv, sizes := historyPlex(t, func(int) []any {
		return []any{
			map[string]any{"ratingKey": "1", "type": "movie", "title": "Alien", "year": 1979},
			map[string]any{"ratingKey": "1", "type": "movie", "title": "Alien", "year": 1979},
		}
	})

	out, res := call(t, accountServer(t, srv.URL), "user_get_watch_history", nil)
	require.False(t, res.IsError, out["message"])
	assert.Equal(t, []int{20}, sizes())
	assert.EqualValues(t, 1, out["count"])
	assert.Equal(t, "alice", out["username"])
}

func TestUserGetStatistics_SortedByTotalDuration(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	since := make(chan string, 1)
	srv := fakePlex(t, map[string]http.HandlerFunc{
		"/statistics/media": func(w http.ResponseWriter, r *http.Request) {
			since <- r.URL.Query().Get("at>")
			container(w, map[string]any{
				"Account": []any{
					map[string]any{"id": 1, "name": "alice"},
					map[string]any{"id": 2, "name": "bob"},
				},
				"Device": []any{
					map[string]any{"id": 5, "name": "TV", "platform": "webos"},
				},
				"StatisticsMedia": []any{
					map[string]any{"accountID": 1, "deviceID": 5, "metadataType": plex.TypeMovie, "count": 1, "duration": 100},
					map[string]any{"accountID": 1, "deviceID": 5, "metadataType": plex.TypeEpisode, "count": 2, "duration": 50},
					map[string]any{"accountID": 2, "deviceID": 9, "metadataType": plex.TypeTrack, "count": 10, "duration": 4000},
					map[string]any{"accountID": 3, "deviceID": 5, "metadataType": plex.TypeMovie, "count": 1, "duration": 200},
				},
			})
		},
	})
	s := testServer(t, srv.URL)
	s.now = func() time.Time { return now }

	out, res := call(t, s, "user_get_statistics", nil)
	require.False(t, res.IsError, out["message"])
	assert.Equal(t, strconv.FormatInt(now.Add(-24*time.Hour).Unix(), 10), <-since)
	assert.Equal(t, "last_24_hours", out["time_period"])
	assert.EqualValues(t, 3, out["total_users"])

	users := out["users"].([]any)
	var names []string
	for _, u := range users {
		names = append(names, u.(map[string]any)["user"].(string))
	}
	assert.Equal(t, []string{"bob", "Unknown User 3", "alice"}, names)

	bob := users[0].(map[string]any)
	assert.Equal(t, "1h 6m 40s", bob["formatted_duration"])
	device := bob["devices"].(map[string]any)["Unknown Device 9"].(map[string]any)
	assert.Equal(t, "unknown", device["platform"])

	alice := users[2].(map[string]any)
	assert.EqualValues(t, 150, alice["total_duration"])
	assert.EqualValues(t, 3, alice["total_plays"])
	media := alice["media_types"].(map[string]any)
	assert.EqualValues(t, 100, media["movie"].(map[string]any)["duration"])
	assert.EqualValues(t, 2, media["episode"].(map[string]any)["count"])
}

func TestUserGetStatistics_InvalidPeriod(t *testing.T) {
	srv := fakePlex(t, nil)
	out, res := call(t, testServer(t, srv.URL), "user_get_statistics", map[string]any{"time_period": "last_week"})
	assert.True(t, res.IsError)
	assert.Contains(t, out["message"], "invalid")
}
