package plex

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL, "secret-token", WithClientIdentifier("test-client"))
	require.NoError(t, err)
	return c
}

func writeContainer(w http.ResponseWriter, mc map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"MediaContainer": mc})
}

func TestNewClient_InvalidURL(t *testing.T) {
	_, err := NewClient("", "tok")
	assert.Error(t, err)

	_, err = NewClient("plex.local", "tok")
	assert.Error(t, err)
}

func TestClient_SendsPlexHeaders(t *testing.T) {
	var got http.Header
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		writeContainer(w, map[string]any{"Directory": []any{}})
	}))

	_, err := c.Sections(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "secret-token", got.Get("X-Plex-Token"))
	assert.Equal(t, "application/json", got.Get("Accept"))
	assert.Equal(t, "test-client", got.Get("X-Plex-Client-Identifier"))
	assert.Equal(t, Product, got.Get("X-Plex-Product"))
}

func TestClient_StatusError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))

	_, err := c.Metadata(context.Background(), "42")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(err))

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "/library/metadata/42", se.Path)
	assert.Contains(t, se.Body, "nope")
}

func TestClient_SectionByTitle(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeContainer(w, map[string]any{"Directory": []map[string]any{
			{"key": "1", "title": "Movies", "type": "movie", "Location": []map[string]any{{"id": 1, "path": "/data/movies"}}},
			{"key": "2", "title": "TV Shows", "type": "show"},
		}})
	}))

	sec, all, err := c.SectionByTitle(context.Background(), "movies")
	require.NoError(t, err)
	assert.Equal(t, "1", sec.Key)
	assert.Equal(t, []string{"/data/movies"}, sec.Paths())
	assert.Len(t, all, 2)

	_, all, err = c.SectionByTitle(context.Background(), "Music")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Len(t, all, 2)
}

func TestClient_URLCarriesToken(t *testing.T) {
	c, err := NewClient("http://plex.local:32400", "tok123")
	require.NoError(t, err)

	u := c.URL("/library/metadata/1/thumb/99")
	assert.Equal(t, "http://plex.local:32400/library/metadata/1/thumb/99?X-Plex-Token=tok123", u)
	assert.Equal(t, "url=http://plex.local:32400/x?X-Plex-Token=[REDACTED]", c.RedactToken("url="+c.URL("/x")))
}

func TestBool_Unmarshal(t *testing.T) {
	var v struct {
		A Bool `json:"a"`
		B Bool `json:"b"`
		C Bool `json:"c"`
		D Bool `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": true, "b": "1", "c": 0, "d": "0"}`), &v))
	assert.True(t, bool(v.A))
	assert.True(t, bool(v.B))
	assert.False(t, bool(v.C))
	assert.False(t, bool(v.D))
}

func TestCapabilities(t *testing.T) {
	assert.Equal(t, []string{"timeline", "playback", "navigation"}, Capabilities("timeline,playback, navigation"))
	assert.Empty(t, Capabilities(""))
}

func TestClient_Timelines(t *testing.T) {
	var target string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/player/timeline/poll", r.URL.Path)
		assert.Equal(t, "0", r.URL.Query().Get("wait"))
		target = r.Header.Get("X-Plex-Target-Client-Identifier")
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(`<MediaContainer commandID="3">
  <Timeline type="music" state="stopped"/>
  <Timeline type="video" state="playing" time="60000" duration="120000" volume="80" muted="0" ratingKey="10"/>
</MediaContainer>`))
	}))

	tl, err := c.ActiveTimeline(context.Background(), "player-1")
	require.NoError(t, err)
	require.NotNil(t, tl)
	assert.Equal(t, "player-1", target)
	assert.Equal(t, "video", tl.Type)
	assert.Equal(t, int64(60000), tl.Time)
	assert.Equal(t, 80, tl.Volume)
	assert.False(t, bool(tl.Muted))
}

func TestClient_PlayerCommand(t *testing.T) {
	var seen []string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.URL.Path+"|"+r.URL.Query().Get("type")+"|"+r.Header.Get("X-Plex-Target-Client-Identifier"))
		assert.NotEmpty(t, r.URL.Query().Get("commandID"))
		w.WriteHeader(http.StatusOK)
	}))

	err := c.PlayerCommand(context.Background(), "abc", "/player/playback/pause", map[string][]string{"type": {"video"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"/player/playback/pause|video|abc"}, seen)
}

func TestClient_Log(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create("Logs/Plex Media Server.log")
	require.NoError(t, err)
	_, _ = f.Write([]byte("line1\nline2\n"))
	require.NoError(t, zw.Close())

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/diagnostics/logs", r.URL.Path)
		_, _ = w.Write(buf.Bytes())
	}))

	body, err := c.Log(context.Background(), "Plex Media Server.log")
	require.NoError(t, err)
	assert.Equal(t, "line1\nline2\n", body)

	_, err = c.Log(context.Background(), "Plex Media Scanner.log")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDecodeAlert(t *testing.T) {
	a, err := decodeAlert([]byte(`{"NotificationContainer": {"type": "playing", "size": 1, "PlaySessionStateNotification": [{"state": "paused"}]}}`))
	require.NoError(t, err)
	assert.Equal(t, "playing", a.Type)
	assert.Equal(t, 1, a.Size)
	assert.Contains(t, a.Data, "PlaySessionStateNotification")

	_, err = decodeAlert([]byte(`{"other": 1}`))
	assert.Error(t, err)
}

func TestItemsURI(t *testing.T) {
	assert.Equal(t, "server://abc/com.plexapp.plugins.library/library/metadata/1,2", ItemsURI("abc", "1", "2"))
}
