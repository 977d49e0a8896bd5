package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hays/plex-mcp/config"
	"github.com/hays/plex-mcp/plex"
)

// fakePlex serves the root identity plus whatever routes a test adds.
func fakePlex(t *testing.T, routes map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/{$}", func(w http.ResponseWriter, r *http.Request) {
		container(w, map[string]any{"machineIdentifier": "server-1", "friendlyName": "Home"})
	})
	for pattern, h := range routes {
		mux.HandleFunc(pattern, h)
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func container(w http.ResponseWriter, mc map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"MediaContainer": mc})
}

func respond(mc map[string]any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) { container(w, mc) }
}

func testServer(t *testing.T, plexURL string, tags ...string) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.Tools.Tags = tags
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	conn := plex.NewConnector(plex.ConnectorConfig{
		URL:    plexURL,
		Token:  "tok",
		Logger: logger,
		Retry:  plex.RetryConfig{MaxAttempts: 1, Delay: time.Millisecond},
	})
	s, err := NewServer(cfg, logger, WithConnector(conn), WithVersion("test"))
	require.NoError(t, err)
	return s
}

func call(t *testing.T, s *Server, name string, args any) (map[string]any, *mcp.CallToolResult) {
	t.Helper()
	res, err := s.Registry().Call(context.Background(), name, args)
	require.NoError(t, err)
	require.NotEmpty(t, res.Content)

	text := res.Content[0].(*mcp.TextContent).Text
	var out map[string]any
	if json.Valid([]byte(text)) {
		require.NoError(t, json.Unmarshal([]byte(text), &out))
	}
	return out, res
}

func TestNewServer_RegistersCatalogue(t *testing.T) {
	s := testServer(t, "http://plex.invalid:32400")
	assert.Equal(t, len(s.catalogue()), s.Registry().Len())

	for _, tool := range s.Registry().List() {
		assert.NotEmpty(t, tool.Def.Description, tool.Def.Name)
		assert.Equal(t, "object", tool.Def.InputSchema.(*jsonschema.Schema).Type, tool.Def.Name)
	}
}

func TestNewServer_FiltersByTag(t *testing.T) {
	s := testServer(t, "http://plex.invalid:32400", "read")

	for _, tool := range s.Registry().List() {
		assert.Equal(t, TagRead, tool.Tag, tool.Def.Name)
	}
	_, err := s.Registry().Get("media_delete")
	assert.Error(t, err)
	_, err = s.Registry().Get("library_list")
	assert.NoError(t, err)
}

func TestClientList(t *testing.T) {
	srv := fakePlex(t, map[string]http.HandlerFunc{
		"/clients": respond(map[string]any{"Server": []any{
			map[string]any{"name": "Living Room TV", "machineIdentifier": "tv-1", "product": "Plex for LG", "protocolCapabilities": "playback,navigation"},
			map[string]any{"name": "Phone", "machineIdentifier": "phone-1"},
		}}),
		"/status/sessions": respond(map[string]any{"size": 0}),
	})
	s := testServer(t, srv.URL)

	out, res := call(t, s, "client_list", nil)
	assert.False(t, res.IsError)
	assert.Equal(t, "success", out["status"])
	assert.EqualValues(t, 2, out["count"])

	clients := out["clients"].([]any)
	first := clients[0].(map[string]any)
	assert.Equal(t, "Living Room TV", first["name"])
	assert.Equal(t, []any{"playback", "navigation"}, first["protocolCapabilities"])

	out, _ = call(t, s, "client_list", map[string]any{"include_details": false})
	assert.Equal(t, []any{"Living Room TV", "Phone"}, out["clients"])
}

func TestClientList_NoClients(t *testing.T) {
	srv := fakePlex(t, map[string]http.HandlerFunc{
		"/clients":         respond(map[string]any{"size": 0}),
		"/status/sessions": respond(map[string]any{"size": 0}),
	})
	out, res := call(t, testServer(t, srv.URL), "client_list", nil)
	assert.False(t, res.IsError)
	assert.EqualValues(t, 0, out["count"])
	assert.Equal(t, "No clients currently connected to your Plex server.", out["message"])
}

func TestClientList_PlexFailure(t *testing.T) {
	srv := fakePlex(t, map[string]http.HandlerFunc{
		"/clients": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		},
	})
	out, res := call(t, testServer(t, srv.URL), "client_list", nil)
	assert.True(t, res.IsError)
	assert.Equal(t, "error", out["status"])
	assert.Contains(t, out["message"], "error listing clients")
}

func TestToolCall_InvalidArguments(t *testing.T) {
	s := testServer(t, "http://plex.invalid:32400")
	out, res := call(t, s, "client_list", map[string]any{"include_details": "yes"})
	assert.True(t, res.IsError)
	assert.Contains(t, out["message"], "invalid arguments")
}

func TestToolCall_ConnectionFailure(t *testing.T) {
	s := testServer(t, "http://127.0.0.1:1")
	out, res := call(t, s, "library_list", nil)
	assert.True(t, res.IsError)
	assert.Contains(t, out["message"], "failed to connect to Plex after 1 attempts")
}

func TestLibraryList(t *testing.T) {
	srv := fakePlex(t, map[string]http.HandlerFunc{
		"/library/sections": respond(map[string]any{"Directory": []any{
			map[string]any{"key": "1", "type": "movie", "title": "Movies", "uuid": "u-1", "Location": []any{map[string]any{"id": 1, "path": "/data/movies"}}},
			map[string]any{"key": "2", "type": "show", "title": "TV Shows", "uuid": "u-2"},
		}}),
		"/library/sections/1/all": respond(map[string]any{"size": 0, "totalSize": 120}),
		"/library/sections/2/all": respond(map[string]any{"size": 0, "totalSize": 30}),
	})
	out, res := call(t, testServer(t, srv.URL), "library_list", nil)
	require.False(t, res.IsError)

	libs := out["libraries"].(map[string]any)
	require.Len(t, libs, 2)
	movies := libs["Movies"].(map[string]any)
	assert.EqualValues(t, 120, movies["totalSize"])
	assert.Equal(t, "1", movies["libraryId"])
	assert.Equal(t, []any{"/data/movies"}, movies["locations"])
	assert.EqualValues(t, 30, libs["TV Shows"].(map[string]any)["totalSize"])
}

func TestPlaylistGetContents_MultipleMatches(t *testing.T) {
	srv := fakePlex(t, map[string]http.HandlerFunc{
		"/playlists": respond(map[string]any{"Metadata": []any{
			map[string]any{"ratingKey": "10", "title": "Mix", "playlistType": "audio", "leafCount": 3},
			map[string]any{"ratingKey": "11", "title": "mix", "playlistType": "video", "leafCount": 1},
			map[string]any{"ratingKey": "12", "title": "Other", "playlistType": "audio"},
		}}),
	})
	out, res := call(t, testServer(t, srv.URL), "playlist_get_contents", map[string]any{"playlist_title": "Mix"})
	assert.False(t, res.IsError)
	assert.Equal(t, "multiple_matches", out["status"])
	assert.Len(t, out["matches"], 2)
}

func TestPlaylistGetContents_Empty(t *testing.T) {
	srv := fakePlex(t, map[string]http.HandlerFunc{
		"/playlists/10": respond(map[string]any{"Metadata": []any{
			map[string]any{"ratingKey": "10", "title": "Mix", "playlistType": "audio"},
		}}),
		"/playlists/10/items": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "empty", http.StatusInternalServerError)
		},
	})
	out, res := call(t, testServer(t, srv.URL), "playlist_get_contents", map[string]any{"playlist_id": 10})
	assert.False(t, res.IsError)
	assert.Equal(t, "info", out["status"])
	assert.Equal(t, "Playlist 'Mix' is empty", out["message"])
}

func TestPlaylistGetContents_NeedsTarget(t *testing.T) {
	srv := fakePlex(t, nil)
	out, res := call(t, testServer(t, srv.URL), "playlist_get_contents", nil)
	assert.True(t, res.IsError)
	assert.Equal(t, "either playlist_id or playlist_title must be provided", out["message"])
}

func TestLibraryGetStats_RankedTopLists(t *testing.T) {
	tag := func(names ...string) []any {
		out := make([]any, len(names))
		for i, n := range names {
			out[i] = map[string]any{"tag": n}
		}
		return out
	}
	srv := fakePlex(t, map[string]http.HandlerFunc{
		"/library/sections": movieSections,
		"/library/sections/1/all": func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("unwatched") == "1" {
				container(w, map[string]any{"totalSize": 50, "Metadata": []any{
					map[string]any{"ratingKey": "2", "type": "movie", "title": "Aliens"},
				}})
				return
			}
			container(w, map[string]any{"totalSize": 50, "Metadata": []any{
				map[string]any{"ratingKey": "1", "type": "movie", "title": "Alien", "year": 1979, "studio": "Fox",
					"Genre": tag("Horror", "Sci-Fi"), "Director": tag("Ridley Scott")},
				map[string]any{"ratingKey": "2", "type": "movie", "title": "Aliens", "year": 1986, "studio": "Fox",
					"Genre": tag("Action", "Sci-Fi"), "Director": tag("James Cameron")},
				map[string]any{"ratingKey": "3", "type": "movie", "title": "Arrival", "year": 2016, "studio": "Paramount",
					"Genre": tag("Sci-Fi", "Drama")},
			}})
		},
	})

	out, res := call(t, testServer(t, srv.URL), "library_get_stats", map[string]any{"library_name": "movies"})
	require.False(t, res.IsError, out["message"])
	assert.EqualValues(t, 3, out["totalItems"])

	stats := out["movieStats"].(map[string]any)
	assert.EqualValues(t, 1, stats["unwatched"])
	assert.Equal(t, []any{
		map[string]any{"name": "Sci-Fi", "count": float64(3)},
		map[string]any{"name": "Action", "count": float64(1)},
		map[string]any{"name": "Drama", "count": float64(1)},
		map[string]any{"name": "Horror", "count": float64(1)},
	}, stats["topGenres"])
	assert.Equal(t, []any{
		map[string]any{"name": "Fox", "count": float64(2)},
		map[string]any{"name": "Paramount", "count": float64(1)},
	}, stats["topStudios"])
	assert.Equal(t, map[string]any{"1970": float64(1), "1980": float64(1), "2010": float64(1)}, stats["byDecade"])
}
