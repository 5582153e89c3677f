package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"aicruit/internal/services"

	"github.com/stretchr/testify/assert"
)

func TestSimpleRetryStrategy_NextBackoff(t *testing.T) {
	s := services.SimpleRetryStrategy{MaxAttempts: 4, BaseDelay: 100 * time.Millisecond, MaxDelay: 300 * time.Millisecond}
	assert.Equal(t, 100*time.Millisecond, s.NextBackoff(0))
	assert.Equal(t, 200*time.Millisecond, s.NextBackoff(1))
	assert.Equal(t, 300*time.Millisecond, s.NextBackoff(2))
	assert.Negative(t, s.NextBackoff(3))

	assert.Negative(t, services.SimpleRetryStrategy{}.NextBackoff(0))
}

func TestRetry(t *testing.T) {
	errTransient := errors.New("transient")
	errPermanent := errors.New("permanent")
	strategy := services.SimpleRetryStrategy{MaxAttempts: 3, BaseDelay: time.Millisecond}
	onlyTransient := func(err error) bool { return errors.Is(err, errTransient) }

	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		err := services.Retry(context.Background(), strategy, onlyTransient, func(ctx context.Context) error {
			calls++
			if calls < 3 {
				return errTransient
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up with the last error", func(t *testing.T) {
		calls := 0
		err := services.Retry(context.Background(), strategy, nil, func(ctx context.Context) error {
			calls++
			return errTransient
		})
		assert.ErrorIs(t, err, errTransient)
		assert.Equal(t, 3, calls)
	})

	t.Run("stops on non-retryable error", func(t *testing.T) {
		calls := 0
		err := services.Retry(context.Background(), strategy, onlyTransient, func(ctx context.Context) error {
			calls++
			return errPermanent
		})
		assert.ErrorIs(t, err, errPermanent)
		assert.Equal(t, 1, calls)
	})

	t.Run("honors cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		slow := services.SimpleRetryStrategy{MaxAttempts: 5, BaseDelay: time.Hour}
		calls := 0
		err := services.Retry(ctx, slow, nil, func(ctx context.Context) error {
			calls++
			cancel()
			return errTransient
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})
}
