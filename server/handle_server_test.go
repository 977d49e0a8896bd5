package server

import (
	"archive/zip"
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// logArchive builds a diagnostics zip holding files.
func logArchive(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		f, err := zw.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func serverLog(lines int) string {
	var b strings.Builder
	for i := 1; i <= lines; i++ {
		fmt.Fprintf(&b, "line %d\r\n", i)
	}
	return b.String()
}

func TestServerGetPlexLogs_TailsLines(t *testing.T) {
	archive := logArchive(t, map[string]string{
		"Logs/Plex Media Server.log":  serverLog(250),
		"Logs/Plex Media Scanner.log": "scan 1\nscan 2\n",
	})
	srv := fakePlex(t, map[string]http.HandlerFunc{
		"/diagnostics/logs": func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/zip")
			_, _ = w.Write(archive)
		},
	})
	s := testServer(t, srv.URL)

	_, res := call(t, s, "server_get_plex_logs", map[string]any{"num_lines": 3})
	require.False(t, res.IsError)
	text := res.Content[0].(*mcp.TextContent).Text
	assert.Equal(t, "Last 3 lines of Plex Media Server.log:\n\nline 248\nline 249\nline 250", text)

	_, res = call(t, s, "server_get_plex_logs", nil)
	require.False(t, res.IsError)
	text = res.Content[0].(*mcp.TextContent).Text
	assert.True(t, strings.HasPrefix(text, "Last 100 lines of Plex Media Server.log:\n\nline 151\n"), text)

	_, res = call(t, s, "server_get_plex_logs", map[string]any{"log_type": "scanner", "num_lines": 10})
	require.False(t, res.IsError)
	assert.Equal(t, "Last 2 lines of Plex Media Scanner.log:\n\nscan 1\nscan 2", res.Content[0].(*mcp.TextContent).Text)
}

func TestServerGetPlexLogs_MissingLog(t *testing.T) {
	archive := logArchive(t, map[string]string{"Logs/Plex Media Server.log": "x\n"})
	srv := fakePlex(t, map[string]http.HandlerFunc{
		"/diagnostics/logs": func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write(archive) },
	})

	out, res := call(t, testServer(t, srv.URL), "server_get_plex_logs", map[string]any{"log_type": "updater"})
	assert.True(t, res.IsError)
	assert.Contains(t, out["message"], "Plex Update Service.log")
}

func TestServerRunButlerTask(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		isError bool
		message string
	}{
		{
			name:    "started",
			status:  http.StatusOK,
			message: "Butler task 'BackupDatabase' started successfully",
		},
		{
			name:    "title",
			status:  http.StatusNotFound,
			body:    "<html><head><title> Not Found </title></head><body></body></html>",
			isError: true,
			message: "failed to run butler task: Not Found",
		},
		{
			name:    "h1 wins over title",
			status:  http.StatusInternalServerError,
			body:    "<html><head><title>Error</title></head><body><h1>Task is already running</h1></body></html>",
			isError: true,
			message: "failed to run butler task: Task is already running",
		},
		{
			name:    "no markup",
			status:  http.StatusBadRequest,
			body:    "nope",
			isError: true,
			message: "failed to run butler task. Status code: 400",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := fakePlex(t, map[string]http.HandlerFunc{
				"POST /butler/BackupDatabase": func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(tt.status)
					_, _ = w.Write([]byte(tt.body))
				},
			})
			out, res := call(t, testServer(t, srv.URL), "server_run_butler_task", map[string]any{"task_name": "BackupDatabase"})
			assert.Equal(t, tt.isError, res.IsError)
			assert.Equal(t, tt.message, out["message"])
		})
	}
}
