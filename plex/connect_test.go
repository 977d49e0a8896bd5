package plex

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeServer counts identity and health-check requests.
type fakeServer struct {
	identity atomic.Int32
	sections atomic.Int32
	fail     atomic.Bool
}

func (f *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if f.fail.Load() {
		http.Error(w, "down", http.StatusServiceUnavailable)
		return
	}
	switch r.URL.Path {
	case "/":
		f.identity.Add(1)
		writeContainer(w, map[string]any{"machineIdentifier": "mid-1", "friendlyName": "Home"})
	case "/library/sections":
		f.sections.Add(1)
		writeContainer(w, map[string]any{"Directory": []any{}})
	default:
		http.NotFound(w, r)
	}
}

func fastRetry() RetryConfig {
	return RetryConfig{MaxAttempts: 3, Delay: time.Millisecond}
}

func TestConnector_ReusesFreshClient(t *testing.T) {
	fake := &fakeServer{}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	conn := NewConnector(ConnectorConfig{URL: srv.URL, Token: "tok", Retry: fastRetry()})

	c1, err := conn.Client(context.Background())
	require.NoError(t, err)
	c2, err := conn.Client(context.Background())
	require.NoError(t, err)

	assert.Same(t, c1, c2)
	assert.Equal(t, int32(1), fake.identity.Load())
	assert.Equal(t, int32(1), fake.sections.Load(), "second call should only check health")
}

func TestConnector_ReconnectsAfterSessionTimeout(t *testing.T) {
	fake := &fakeServer{}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	now := time.Now()
	conn := NewConnector(ConnectorConfig{URL: srv.URL, Token: "tok", SessionTimeout: time.Minute, Retry: fastRetry()})
	conn.now = func() time.Time { return now }

	c1, err := conn.Client(context.Background())
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	c2, err := conn.Client(context.Background())
	require.NoError(t, err)

	assert.NotSame(t, c1, c2)
	assert.Equal(t, int32(2), fake.identity.Load())
	assert.Equal(t, int32(0), fake.sections.Load())
}

func TestConnector_RetriesThenFails(t *testing.T) {
	fake := &fakeServer{}
	fake.fail.Store(true)
	srv := httptest.NewServer(fake)
	defer srv.Close()

	conn := NewConnector(ConnectorConfig{URL: srv.URL, Token: "tok", Retry: fastRetry()})

	_, err := conn.Client(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to Plex after 3 attempts")
}

func TestConnector_HealthCheckFailureReconnects(t *testing.T) {
	fake := &fakeServer{}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	conn := NewConnector(ConnectorConfig{URL: srv.URL, Token: "tok", Retry: fastRetry()})
	_, err := conn.Client(context.Background())
	require.NoError(t, err)

	fake.fail.Store(true)
	_, err = conn.Client(context.Background())
	assert.Error(t, err)

	fake.fail.Store(false)
	_, err = conn.Client(context.Background())
	assert.NoError(t, err)
}

func TestConnector_NoCredentials(t *testing.T) {
	conn := NewConnector(ConnectorConfig{URL: "http://plex.local:32400", Retry: fastRetry()})
	_, err := conn.Client(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insufficient Plex credentials")
}

func TestConnector_SignsInThroughAccount(t *testing.T) {
	fake := &fakeServer{}
	server := httptest.NewServer(fake)
	defer server.Close()

	account := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/v2/users/signin":
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "alice", r.PostForm.Get("login"))
			_ = json.NewEncoder(w).Encode(map[string]any{"authToken": "user-token"})
		case "/api/v2/resources":
			assert.Equal(t, "user-token", r.Header.Get("X-Plex-Token"))
			_ = json.NewEncoder(w).Encode([]map[string]any{
				{"name": "Other", "provides": "server", "connections": []map[string]any{{"uri": "http://127.0.0.1:1"}}},
				{"name": "Living Room", "provides": "client,player"},
				{"name": "home server", "provides": "server", "accessToken": "server-token", "connections": []map[string]any{
					{"uri": "http://127.0.0.1:1"},
					{"uri": server.URL},
				}},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer account.Close()

	conn := NewConnector(ConnectorConfig{
		Username:   "alice",
		Password:   "pw",
		ServerName: "Home Server",
		AccountURL: account.URL,
		Timeout:    time.Second,
		Retry:      fastRetry(),
	})

	c, err := conn.Client(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "server-token", c.Token())
	assert.Equal(t, server.URL, c.BaseURL().String())
}

func TestConnector_ConcurrentCallersShareOneConnect(t *testing.T) {
	var identity atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			identity.Add(1)
			time.Sleep(50 * time.Millisecond)
			writeContainer(w, map[string]any{"machineIdentifier": "mid-1"})
		case "/library/sections":
			writeContainer(w, map[string]any{"Directory": []any{}})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	conn := NewConnector(ConnectorConfig{URL: srv.URL, Token: "tok", Retry: fastRetry()})

	const callers = 8
	clients := make(chan *Client, callers)
	errs := make(chan error, callers)
	var wg sync.WaitGroup
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, err := conn.Client(context.Background())
			errs <- err
			clients <- c
		}()
	}
	wg.Wait()
	close(errs)
	close(clients)

	for err := range errs {
		require.NoError(t, err)
	}
	var first *Client
	for c := range clients {
		if first == nil {
			first = c
		}
		assert.Same(t, first, c)
	}
	assert.Equal(t, int32(1), identity.Load())
}

func TestConnector_SlowHealthCheckDoesNotHoldLock(t *testing.T) {
	release := make(chan struct{})
	var holding atomic.Bool
	entered := make(chan struct{}, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			writeContainer(w, map[string]any{"machineIdentifier": "mid-1"})
		case "/library/sections":
			if holding.Load() {
				entered <- struct{}{}
				<-release
			}
			writeContainer(w, map[string]any{"Directory": []any{}})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	defer close(release)

	conn := NewConnector(ConnectorConfig{URL: srv.URL, Token: "tok", Retry: fastRetry()})
	_, err := conn.Client(context.Background())
	require.NoError(t, err)

	holding.Store(true)
	go func() { _, _ = conn.Client(context.Background()) }()
	<-entered

	done := make(chan struct{})
	go func() {
		conn.Reset()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Reset blocked behind an in-flight health check")
	}
}
