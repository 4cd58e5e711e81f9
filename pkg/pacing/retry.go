// Package pacing provides the request pacing used against the data
// source: a bounded retry wrapper and an advisory delay controller.
package pacing

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrSourceUnavailable marks a source call that failed after exhausting
// all retry attempts. The unit of work it belongs to must be treated as
// not done.
var ErrSourceUnavailable = errors.New("source unavailable")

// Retry invokes fn up to attempts times, sleeping delay between failed
// attempts and doubling it each time. The sleep honors ctx cancellation.
// On exhaustion the returned error wraps both ErrSourceUnavailable and
// the last error from fn.
func Retry[T any](ctx context.Context, attempts int, delay time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt == attempts {
			break
		}
		if err := sleep(ctx, delay); err != nil {
			return zero, err
		}
		delay *= 2
	}

	return zero, fmt.Errorf("%w after %d attempts: %w", ErrSourceUnavailable, attempts, lastErr)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
