package server

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sseTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	s := testServer(t, "http://plex.invalid:32400")
	h := newSSEHandler(s.MCP(), slog.New(slog.NewTextHandler(io.Discard, nil)), time.Minute)
	srv := httptest.NewServer(h)
	t.Cleanup(func() {
		h.closeAll()
		srv.Close()
	})
	return srv
}

func post(t *testing.T, url, body string) (int, string) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, strings.TrimSpace(string(data))
}

// nextEvent reads one SSE event, skipping keepalive comments.
func nextEvent(t *testing.T, r *bufio.Reader) (event, data string) {
	t.Helper()
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		case line == "" && event != "":
			return event, data
		}
	}
}

func TestSSE_UnknownPath(t *testing.T) {
	srv := sseTestServer(t)

	resp, err := http.Get(srv.URL + "/nope")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Not Found", string(body))
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestSSE_WrongMethod(t *testing.T) {
	srv := sseTestServer(t)

	code, _ := post(t, srv.URL+"/sse", "{}")
	assert.Equal(t, http.StatusMethodNotAllowed, code)

	resp, err := http.Get(srv.URL + "/messages/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestSSE_MessageSessionErrors(t *testing.T) {
	srv := sseTestServer(t)

	tests := []struct {
		name  string
		query string
		code  int
		body  string
	}{
		{"missing", "", http.StatusBadRequest, "session_id is required"},
		{"malformed", "?session_id=not-a-uuid", http.StatusBadRequest, "Invalid session ID"},
		{"unknown", "?session_id=" + strings.ReplaceAll(uuid.NewString(), "-", ""), http.StatusNotFound, "Could not find session"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := post(t, srv.URL+"/messages/"+tt.query, `{"jsonrpc":"2.0","method":"ping","id":1}`)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.body, body)
		})
	}
}

func TestSSE_SessionRoundTrip(t *testing.T) {
	srv := sseTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/sse", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	stream := bufio.NewReader(resp.Body)
	event, endpoint := nextEvent(t, stream)
	require.Equal(t, "endpoint", event)
	require.True(t, strings.HasPrefix(endpoint, "/messages/?session_id="), endpoint)

	id := strings.TrimPrefix(endpoint, "/messages/?session_id=")
	assert.Len(t, id, 32)

	code, _ := post(t, srv.URL+endpoint, "not json")
	assert.Equal(t, http.StatusBadRequest, code)

	code, body := post(t, srv.URL+endpoint, `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","capabilities":{},"clientInfo":{"name":"test","version":"1"}}}`)
	require.Equal(t, http.StatusAccepted, code)
	assert.Equal(t, "Accepted", body)

	event, data := nextEvent(t, stream)
	assert.Equal(t, "message", event)
	assert.Contains(t, data, `"id":1`)
	assert.Contains(t, data, Name)
}
