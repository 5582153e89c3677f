package services

import (
	"context"
	"time"
)

type RetryStrategy interface {
	// NextBackoff returns the wait before the attempt after the given one
	// (0-based), or a negative duration when no attempts remain.
	NextBackoff(attempt int) time.Duration
}

// SimpleRetryStrategy provides basic exponential backoff.
type SimpleRetryStrategy struct {
	MaxAttempts int // total attempts, including the first
	BaseDelay   time.Duration
	MaxDelay    time.Duration // zero means uncapped
}

// NextBackoff calculates BaseDelay * 2^attempt, capped at MaxDelay.
func (s SimpleRetryStrategy) NextBackoff(attempt int) time.Duration {
	if s.MaxAttempts <= 0 || attempt+1 >= s.MaxAttempts {
		return -1
	}
	backoff := s.BaseDelay << attempt
	if s.MaxDelay > 0 && (backoff > s.MaxDelay || backoff < 0) {
		backoff = s.MaxDelay
	}
	return backoff
}

// Retry calls fn until it succeeds, returns an error retryable rejects, or
// the strategy gives up. The last error is returned. A nil retryable retries
// every error.
func Retry(ctx context.Context, strategy RetryStrategy, retryable func(error) bool, fn func(ctx context.Context) error) error {
	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if retryable != nil && !retryable(err) {
			return err
		}
		wait := strategy.NextBackoff(attempt)
		if wait < 0 {
			return err
		}

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}
