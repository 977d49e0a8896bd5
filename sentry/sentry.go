package sentry

import (
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	gosentry "github.com/getsentry/sentry-go"
)

// enabled tracks whether sentry was successfully initialized.
var enabled atomic.Bool

// Init initializes the Sentry SDK. When dsn is empty it no-ops, and every
// other function in this package becomes a safe no-op.
func Init(dsn, environment, version string) error {
	if dsn == "" {
		enabled.Store(false)
		return nil
	}

	err := gosentry.Init(gosentry.ClientOptions{
		Dsn:              dsn,
		Environment:      environment,
		Release:          "plex-mcp@" + version,
		AttachStacktrace: true,
		SampleRate:       1.0,
	})
	if err != nil {
		return fmt.Errorf("initializing sentry: %w", err)
	}

	gosentry.ConfigureScope(func(scope *gosentry.Scope) {
		scope.SetTag("os", runtime.GOOS)
		scope.SetTag("arch", runtime.GOARCH)
		scope.SetTag("go_version", runtime.Version())
		scope.SetTag("version", version)
	})

	enabled.Store(true)
	return nil
}

// IsEnabled returns whether sentry is active.
func IsEnabled() bool {
	return enabled.Load()
}

// Flush waits up to 2 seconds for buffered events to be sent.
func Flush() {
	if !enabled.Load() {
		return
	}
	gosentry.Flush(2 * time.Second)
}

// CapturePanic reports a recovered panic from the named tool. Unlike a
// process-level handler it does not re-panic; the caller turns the panic
// into an error record.
func CapturePanic(tool string, v any) {
	if !enabled.Load() {
		return
	}
	hub := gosentry.CurrentHub().Clone()
	hub.ConfigureScope(func(scope *gosentry.Scope) {
		scope.SetTag("tool", tool)
	})
	hub.Recover(v)
}

// CaptureError reports a tool failure that is worth a look, such as a
// timeout.
func CaptureError(tool string, err error) {
	if !enabled.Load() || err == nil {
		return
	}
	hub := gosentry.CurrentHub().Clone()
	hub.ConfigureScope(func(scope *gosentry.Scope) {
		scope.SetTag("tool", tool)
	})
	hub.CaptureException(err)
}

// RecoverPanic captures a process-level panic, flushes, then re-panics.
// Usage: defer sentry.RecoverPanic()
func RecoverPanic() {
	if !enabled.Load() {
		return
	}
	if err := recover(); err != nil {
		gosentry.CurrentHub().Recover(err)
		gosentry.Flush(2 * time.Second)
		panic(err)
	}
}
