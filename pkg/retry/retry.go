// Package retry provides a small predicate-driven retry helper with
// exponential backoff and jitter, used around per-event dispatch in the
// ingestion coordinator and around worker job handlers.
package retry

import (
	"context"
	"math/rand/v2"
	"time"
)

// Config bounds a retry loop's attempts and backoff shape.
type Config struct {
	// MaxAttempts is the total number of calls allowed, including the first.
	MaxAttempts int
	// BaseDelay is the delay before the second attempt; each subsequent
	// attempt doubles it, capped at MaxDelay.
	BaseDelay time.Duration
	// MaxDelay caps the computed backoff delay.
	MaxDelay time.Duration
	// Retryable decides whether err should trigger another attempt. A nil
	// Retryable retries every non-nil error.
	Retryable func(err error) bool
}

// DefaultConfig matches the ingestion coordinator's per-event policy
// (§4.4 step 8): up to 3 attempts, exponential backoff from 100ms.
func DefaultConfig(retryable func(error) bool) Config {
	return Config{
		MaxAttempts: 3,
		BaseDelay:   100 * time.Millisecond,
		MaxDelay:    2 * time.Second,
		Retryable:   retryable,
	}
}

// Do invokes fn until it succeeds, its error is non-retryable, or
// MaxAttempts is exhausted. It returns the last error on exhaustion.
// attempts reports how many times fn was actually called.
func Do(ctx context.Context, cfg Config, fn func(ctx context.Context) error) (attempts int, err error) {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		attempts = attempt
		err = fn(ctx)
		if err == nil {
			return attempts, nil
		}

		if cfg.Retryable != nil && !cfg.Retryable(err) {
			return attempts, err
		}

		if attempt == cfg.MaxAttempts {
			return attempts, err
		}

		delay := backoff(cfg.BaseDelay, cfg.MaxDelay, attempt)
		select {
		case <-ctx.Done():
			return attempts, ctx.Err()
		case <-time.After(delay):
		}
	}

	return attempts, err
}

// backoff computes an exponential delay with equal jitter (half fixed,
// half random) for the given (1-indexed) attempt number.
func backoff(base, max time.Duration, attempt int) time.Duration {
	if base <= 0 {
		return 0
	}

	d := base << uint(attempt-1)
	if d <= 0 || d > max {
		d = max
	}

	half := d / 2
	return half + time.Duration(rand.Int64N(int64(half)+1))
}
