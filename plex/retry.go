package plex

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// RetryConfig controls connection retries.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts including the first.
	MaxAttempts int
	// Delay is the wait between attempts. It does not grow.
	Delay time.Duration
}

var DefaultRetry = RetryConfig{
	MaxAttempts: 3,
	Delay:       2 * time.Second,
}

// retry calls fn until it succeeds, ctx is cancelled or the attempts run
// out. The last error is returned. Failed attempts are logged at debug level
// on logger.
func retry(ctx context.Context, cfg RetryConfig, logger *slog.Logger, fn func() error) error {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return errors.Join(lastErr, err)
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if attempt < cfg.MaxAttempts {
			logger.Debug("plex: connection attempt failed, retrying",
				"attempt", attempt, "max", cfg.MaxAttempts,
				"err", lastErr, "delay", cfg.Delay)

			select {
			case <-ctx.Done():
				return errors.Join(lastErr, ctx.Err())
			case <-time.After(cfg.Delay):
			}
		}
	}
	return lastErr
}
