// Package retry provides the single retry/backoff policy shared by every
// collaborator call that may fail transiently.
package retry

import (
	"context"
	"fmt"
	"log"
	"time"
)

// Policy describes a bounded retry loop with a fixed delay between attempts.
type Policy struct {
	Attempts int
	Delay    time.Duration
}

// Do runs fn up to p.Attempts times. A nil error stops immediately; an error
// the retryable predicate rejects is returned as-is without further attempts.
// The context aborts the backoff sleep between attempts.
func (p Policy) Do(ctx context.Context, op string, retryable func(error) bool, fn func() error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if retryable != nil && !retryable(err) {
			return err
		}
		if attempt == attempts {
			break
		}
		log.Printf("[Retry] %s failed (attempt %d/%d): %v", op, attempt, attempts, err)
		select {
		case <-time.After(p.Delay):
		case <-ctx.Done():
			return fmt.Errorf("%s: %w", op, ctx.Err())
		}
	}
	return fmt.Errorf("%s: retries exhausted: %w", op, err)
}
