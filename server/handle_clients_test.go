package server

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// playerPlex fakes a server with one client named "Living Room TV" and
// records every player command it receives.
type playerPlex struct {
	mu       sync.Mutex
	commands []*url.URL
}

func (p *playerPlex) record(r *http.Request) {
	p.mu.Lock()
	p.commands = append(p.commands, r.URL)
	p.mu.Unlock()
}

func (p *playerPlex) sent() []*url.URL {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*url.URL(nil), p.commands...)
}

func newPlayerPlex(t *testing.T, capabilities string, timelineMS int) (*playerPlex, *Server) {
	t.Helper()
	p := &playerPlex{}
	srv := fakePlex(t, map[string]http.HandlerFunc{
		"/clients": respond(map[string]any{"Server": []any{
			map[string]any{"name": "Living Room TV", "machineIdentifier": "tv-1", "protocolCapabilities": capabilities},
		}}),
		"/status/sessions": respond(map[string]any{"size": 0}),
		"/player/timeline/poll": func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/xml")
			_, _ = w.Write([]byte(`<MediaContainer>` +
				`<Timeline type="music" state="stopped"/>` +
				`<Timeline type="video" state="playing" time="` + strconv.Itoa(timelineMS) + `" duration="600000" volume="40" muted="0"/>` +
				`</MediaContainer>`))
		},
		"/player/playback/": func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "tv-1", r.Header.Get("X-Plex-Target-Client-Identifier"))
			p.record(r)
		},
	})
	s := testServer(t, srv.URL)
	s.wait = func(context.Context, time.Duration) error { return nil }
	return p, s
}

func TestClientControlPlayback_ActionEnumMatchesValidation(t *testing.T) {
	s := testServer(t, "http://plex.invalid:32400")
	tool, err := s.Registry().Get("client_control_playback")
	require.NoError(t, err)

	schema := tool.Def.InputSchema.(*jsonschema.Schema)
	var actions []string
	for _, v := range schema.Properties["action"].Enum {
		actions = append(actions, v.(string))
	}
	assert.Equal(t, playbackActions, actions)

	var mediaTypes []string
	for _, v := range schema.Properties["media_type"].Enum {
		mediaTypes = append(mediaTypes, v.(string))
	}
	assert.Equal(t, playbackMediaTypes, mediaTypes)
}

func TestClientControlPlayback_VolumeOutOfRange(t *testing.T) {
	p, s := newPlayerPlex(t, "playback", 0)

	for _, v := range []int{-1, 101} {
		out, res := call(t, s, "client_control_playback", map[string]any{
			"client_name": "Living Room TV", "action": "setVolume", "parameter": v,
		})
		assert.True(t, res.IsError)
		assert.Equal(t, "volume must be between 0 and 100", out["message"])
	}
	assert.Empty(t, p.sent())
}

func TestClientControlPlayback_SeekToNeedsParameter(t *testing.T) {
	p, s := newPlayerPlex(t, "playback", 0)

	out, res := call(t, s, "client_control_playback", map[string]any{
		"client_name": "Living Room TV", "action": "seekTo",
	})
	assert.True(t, res.IsError)
	assert.Equal(t, "action 'seekTo' requires a parameter value", out["message"])
	assert.Empty(t, p.sent())
}

func TestClientControlPlayback_SeekBackClampsAtZero(t *testing.T) {
	p, s := newPlayerPlex(t, "playback", 10000)

	out, res := call(t, s, "client_control_playback", map[string]any{
		"client_name": "Living Room TV", "action": "seekBack",
	})
	require.False(t, res.IsError, out["message"])
	assert.Equal(t, "success", out["status"])

	sent := p.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "/player/playback/seekTo", sent[0].Path)
	assert.Equal(t, "0", sent[0].Query().Get("offset"))
	assert.Equal(t, "video", sent[0].Query().Get("type"))

	timeline := out["timeline"].(map[string]any)
	assert.Equal(t, "playing", timeline["state"])
}

func TestClientControlPlayback_SeekForwardAddsDefault(t *testing.T) {
	p, s := newPlayerPlex(t, "playback", 10000)

	_, res := call(t, s, "client_control_playback", map[string]any{
		"client_name": "Living Room TV", "action": "seekForward",
	})
	require.False(t, res.IsError)

	sent := p.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "40000", sent[0].Query().Get("offset"))
}

func TestClientControlPlayback_SetVolume(t *testing.T) {
	p, s := newPlayerPlex(t, "timeline,playback", 0)

	out, res := call(t, s, "client_control_playback", map[string]any{
		"client_name": "living room", "action": "setVolume", "parameter": 75,
	})
	require.False(t, res.IsError, out["message"])
	assert.EqualValues(t, 75, out["parameter"])
	assert.Equal(t, "Living Room TV", out["client"])

	sent := p.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "/player/playback/setParameters", sent[0].Path)
	assert.Equal(t, "75", sent[0].Query().Get("volume"))
}

func TestClientControlPlayback_RequiresPlaybackCapability(t *testing.T) {
	p, s := newPlayerPlex(t, "navigation,timeline", 0)

	out, res := call(t, s, "client_control_playback", map[string]any{
		"client_name": "Living Room TV", "action": "pause",
	})
	assert.True(t, res.IsError)
	assert.Equal(t, "client 'Living Room TV' does not support playback control", out["message"])
	assert.Empty(t, p.sent())
}

func TestClientControlPlayback_InvalidActionRejectedBySchema(t *testing.T) {
	p, s := newPlayerPlex(t, "playback", 0)

	out, res := call(t, s, "client_control_playback", map[string]any{
		"client_name": "Living Room TV", "action": "rewind",
	})
	assert.True(t, res.IsError)
	assert.Contains(t, out["message"], "invalid arguments")
	assert.Empty(t, p.sent())
}
