package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetryPolicyDelay(t *testing.T) {
	t.Run("fixed", func(t *testing.T) {
		p := &RetryPolicy{MaxRetries: 3, BackoffStrategy: FixedBackoff, BaseDelay: 10 * time.Millisecond}
		assert.Equal(t, 10*time.Millisecond, p.Delay(0))
		assert.Equal(t, 10*time.Millisecond, p.Delay(3))
	})

	t.Run("linear", func(t *testing.T) {
		p := &RetryPolicy{BackoffStrategy: LinearBackoff, BaseDelay: 10 * time.Millisecond}
		assert.Equal(t, 10*time.Millisecond, p.Delay(0))
		assert.Equal(t, 30*time.Millisecond, p.Delay(2))
	})

	t.Run("exponential", func(t *testing.T) {
		p := &RetryPolicy{BackoffStrategy: ExponentialBackoff, BaseDelay: 10 * time.Millisecond}
		assert.Equal(t, 10*time.Millisecond, p.Delay(0))
		assert.Equal(t, 20*time.Millisecond, p.Delay(1))
		assert.Equal(t, 80*time.Millisecond, p.Delay(3))
	})

	t.Run("default base delay", func(t *testing.T) {
		p := &RetryPolicy{}
		assert.Equal(t, time.Second, p.Delay(0))
	})
}

func TestRetry(t *testing.T) {
	ctx := context.Background()

	t.Run("succeeds after transient failures", func(t *testing.T) {
		policy := &RetryPolicy{MaxRetries: 3, BaseDelay: time.Millisecond}

		attempts := 0
		err := Retry(ctx, policy, func(ctx context.Context) error {
			attempts++
			if attempts < 3 {
				return errors.New("transient")
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 3, attempts)
	})

	t.Run("exhausts retries", func(t *testing.T) {
		policy := &RetryPolicy{MaxRetries: 2, BaseDelay: time.Millisecond}
		boom := errors.New("boom")

		attempts := 0
		err := Retry(ctx, policy, func(ctx context.Context) error {
			attempts++
			return boom
		})
		assert.Error(t, err)
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 3, attempts)
	})

	t.Run("non-retryable error stops immediately", func(t *testing.T) {
		retryable := errors.New("retryable")
		fatal := errors.New("fatal")
		policy := &RetryPolicy{
			MaxRetries:      5,
			BaseDelay:       time.Millisecond,
			RetryableErrors: []error{retryable},
		}

		attempts := 0
		err := Retry(ctx, policy, func(ctx context.Context) error {
			attempts++
			return fatal
		})
		assert.ErrorIs(t, err, fatal)
		assert.Equal(t, 1, attempts)
	})

	t.Run("context cancellation stops retries", func(t *testing.T) {
		cancelCtx, cancel := context.WithCancel(ctx)
		policy := &RetryPolicy{MaxRetries: 10, BaseDelay: 50 * time.Millisecond}

		attempts := 0
		err := Retry(cancelCtx, policy, func(ctx context.Context) error {
			attempts++
			cancel()
			return errors.New("transient")
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, attempts)
	})

	t.Run("nil policy runs once", func(t *testing.T) {
		attempts := 0
		err := Retry(ctx, nil, func(ctx context.Context) error {
			attempts++
			return errors.New("boom")
		})
		assert.Error(t, err)
		assert.Equal(t, 1, attempts)
	})
}
