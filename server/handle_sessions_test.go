package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionsGetActive_TranscodeTotals(t *testing.T) {
	srv := fakePlex(t, map[string]http.HandlerFunc{
		"/status/sessions": respond(map[string]any{"Metadata": []any{
			map[string]any{
				"type": "movie", "title": "Alien", "year": 1979, "duration": 6000000, "viewOffset": 3000000,
				"User":   map[string]any{"title": "alice"},
				"Player": map[string]any{"title": "Living Room TV", "state": "playing", "address": "10.0.0.5"},
				"Media":  []any{map[string]any{"bitrate": 8000, "videoResolution": "1080"}},
				"TranscodeSession": map[string]any{
					"videoCodec": "h264", "sourceVideoCodec": "hevc", "width": 1280, "height": 720,
				},
			},
			map[string]any{
				"type": "episode", "title": "Pilot", "grandparentTitle": "Space", "parentIndex": 1, "index": 1,
				"Player": map[string]any{"title": "Phone", "state": "paused"},
				"Media":  []any{map[string]any{"bitrate": 2000}},
			},
			map[string]any{
				"type": "track", "title": "Song",
				"Media": []any{map[string]any{"bitrate": 320}},
			},
		}}),
	})

	out, res := call(t, testServer(t, srv.URL), "sessions_get_active", nil)
	require.False(t, res.IsError, out["message"])
	assert.Equal(t, "Found 3 active sessions", out["message"])
	assert.EqualValues(t, 3, out["sessions_count"])
	assert.EqualValues(t, 1, out["transcode_count"])
	assert.EqualValues(t, 2, out["direct_play_count"])
	assert.EqualValues(t, 10320, out["total_bitrate_kbps"])

	sessions := out["sessions"].([]any)
	movie := sessions[0].(map[string]any)
	assert.EqualValues(t, 1, movie["session_id"])
	assert.Equal(t, "alice", movie["user"])
	assert.Equal(t, "Alien (1979) (Movie)", movie["content_description"])
	assert.Equal(t, map[string]any{
		"active":     true,
		"video":      "hevc → h264",
		"resolution": "1080 → 1280x720",
	}, movie["transcoding"])
	assert.EqualValues(t, 50, movie["progress"].(map[string]any)["percent"])

	episode := sessions[1].(map[string]any)
	assert.Equal(t, "Space - S1E1 - Pilot (TV Episode)", episode["content_description"])
	assert.Equal(t, map[string]any{"active": false, "mode": "Direct Play/Stream"}, episode["transcoding"])

	track := sessions[2].(map[string]any)
	assert.Equal(t, "Unknown Player", track["player_name"])
	assert.Equal(t, "unknown", track["state"])
}

func TestSessionsGetActive_None(t *testing.T) {
	srv := fakePlex(t, map[string]http.HandlerFunc{
		"/status/sessions": respond(map[string]any{"size": 0}),
	})
	out, res := call(t, testServer(t, srv.URL), "sessions_get_active", nil)
	require.False(t, res.IsError)
	assert.Equal(t, "No active sessions found.", out["message"])
	assert.EqualValues(t, 0, out["sessions_count"])
	assert.EqualValues(t, 0, out["transcode_count"])
}
