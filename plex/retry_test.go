package plex

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetry_LogsAttemptsOnGivenLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	calls := 0
	err := retry(context.Background(), RetryConfig{MaxAttempts: 3, Delay: time.Millisecond}, logger, func() error {
		calls++
		if calls < 3 {
			return errors.New("refused")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	out := buf.String()
	assert.Equal(t, 2, bytes.Count(buf.Bytes(), []byte("connection attempt failed")))
	assert.Contains(t, out, "attempt=1")
	assert.Contains(t, out, "attempt=2")
	assert.Contains(t, out, "err=refused")
}

func TestRetry_ReturnsLastError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	calls := 0
	err := retry(context.Background(), RetryConfig{MaxAttempts: 2, Delay: time.Millisecond}, logger, func() error {
		calls++
		return errors.New("refused")
	})
	require.EqualError(t, err, "refused")
	assert.Equal(t, 2, calls)
}

func TestRetry_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	calls := 0
	err := retry(ctx, RetryConfig{MaxAttempts: 5, Delay: time.Hour}, logger, func() error {
		calls++
		cancel()
		return errors.New("refused")
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestConnector_RetryLogsOnConfiguredLogger(t *testing.T) {
	fake := &fakeServer{}
	fake.fail.Store(true)
	srv := httptest.NewServer(fake)
	defer srv.Close()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	conn := NewConnector(ConnectorConfig{URL: srv.URL, Token: "tok", Logger: logger, Retry: fastRetry()})

	_, err := conn.Client(context.Background())
	require.Error(t, err)
	assert.Equal(t, 2, bytes.Count(buf.Bytes(), []byte("connection attempt failed")))
}
