package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const (
	maxAttempts    = 3
	initialBackoff = 500 * time.Millisecond
)

// callWithRetry runs fn up to maxAttempts times with exponential backoff
// starting at initialBackoff and doubling each retry. Each attempt gets its
// own deadline of timeout; an attempt that outlives the deadline is
// abandoned and counts as a failure. Cancellation of the parent context
// stops the retry loop.
func callWithRetry(ctx context.Context, logger *slog.Logger, label string, timeout time.Duration, fn func(ctx context.Context) error) error {
	delay := initialBackoff
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		err := fn(attemptCtx)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err
		logger.Warn("call failed",
			slog.String("label", label),
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()))
		if attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return fmt.Errorf("%s failed after %d attempts: %w", label, maxAttempts, lastErr)
}
