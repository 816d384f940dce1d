// Package retry provides a small bounded-retry policy for exchange calls.
package retry

import (
	"context"
	"time"
)

// Policy bounds a retried operation. Call sites keep their own policy instead
// of scattering magic attempt counts through the code.
type Policy struct {
	MaxAttempts int           // total attempts, including the first
	Delay       time.Duration // pause between attempts
	Backoff     bool          // double the pause after each failed attempt
}

// Do calls fn up to p.MaxAttempts times. It returns nil on the first
// successful call, or the last error if all attempts fail. Context
// cancellation is respected between attempts; in-flight calls are not
// interrupted.
func Do(ctx context.Context, p Policy, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	delay := p.Delay

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}

		// Don't sleep after the last failed attempt.
		if attempt < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			if p.Backoff {
				delay *= 2
			}
		}
	}
	return err
}
