package ai

import (
	"context"
	"time"
)

// Backoff describes an exponential backoff policy: the delay starts at
// Base, doubles per attempt, and never exceeds Max.
type Backoff struct {
	Base time.Duration
	Max  time.Duration
}

// DefaultBackoff is the policy both remote clients use.
var DefaultBackoff = Backoff{Base: time.Second, Max: 8 * time.Second}

// Delay returns the backoff delay for the given zero-based attempt.
func (b Backoff) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	base := b.Base
	if base <= 0 {
		base = time.Second
	}
	d := base << attempt
	if b.Max > 0 && d > b.Max {
		d = b.Max
	}
	return d
}

// Retry runs op up to maxAttempts times, sleeping with exponential backoff
// between attempts. Only errors reported retryable by IsRetryable are
// retried; any other error, and the final retryable error once attempts
// are exhausted, propagate to the caller.
func Retry(ctx context.Context, maxAttempts int, backoff Backoff, op func() error) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err = op(); err == nil {
			return nil
		}
		if !IsRetryable(err) || attempt == maxAttempts-1 {
			return err
		}

		select {
		case <-time.After(backoff.Delay(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}
