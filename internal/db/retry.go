package db

import (
	"context"
	"strings"
	"time"

	"github.com/classquest/classquest-backend/internal/pkg/logger"
)

const (
	retryMaxAttempts = 5
	retryBaseDelay   = 100 * time.Millisecond
)

// WithRetry re-runs fn on transient "database is locked" errors with
// exponential backoff. Any other error, including application validation
// errors, returns immediately.
func WithRetry(ctx context.Context, log *logger.Logger, fn func() error) error {
	delay := retryBaseDelay
	var err error
	for attempt := 1; attempt <= retryMaxAttempts; attempt++ {
		err = fn()
		if err == nil || !isLockedErr(err) {
			return err
		}
		if attempt == retryMaxAttempts {
			break
		}
		if log != nil {
			log.Warn("Database locked, retrying", "attempt", attempt, "delay", delay.String())
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return err
}

func isLockedErr(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked")
}
