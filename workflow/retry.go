package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// BackoffStrategy defines different backoff strategies
type BackoffStrategy int

const (
	// FixedBackoff waits BaseDelay between attempts
	FixedBackoff BackoffStrategy = iota
	// LinearBackoff waits BaseDelay * attempt
	LinearBackoff
	// ExponentialBackoff doubles the delay each attempt
	ExponentialBackoff
)

// RetryPolicy defines how step failures are retried
type RetryPolicy struct {
	// MaxRetries is the number of retries after the first attempt
	MaxRetries int
	// BackoffStrategy selects how the delay grows (default fixed)
	BackoffStrategy BackoffStrategy
	// BaseDelay is the first retry delay (default 1s)
	BaseDelay time.Duration
	// RetryableErrors restricts retries to matching errors; empty
	// means every error is retryable
	RetryableErrors []error
}

// Delay returns the wait before the given retry attempt (0-based)
func (p *RetryPolicy) Delay(attempt int) time.Duration {
	baseDelay := p.BaseDelay
	if baseDelay <= 0 {
		baseDelay = time.Second
	}

	switch p.BackoffStrategy {
	case ExponentialBackoff:
		return baseDelay * time.Duration(1<<attempt)
	case LinearBackoff:
		return baseDelay * time.Duration(attempt+1)
	default:
		return baseDelay
	}
}

// Retryable reports whether the policy retries the given error
func (p *RetryPolicy) Retryable(err error) bool {
	if len(p.RetryableErrors) == 0 {
		return true
	}
	for _, retryable := range p.RetryableErrors {
		if errors.Is(err, retryable) {
			return true
		}
	}
	return false
}

// Retry runs fn, retrying per the policy with backoff. It returns the
// last error when retries are exhausted, and stops early when the
// context is canceled or the error is not retryable. A nil policy runs
// fn once.
func Retry(ctx context.Context, policy *RetryPolicy, fn func(ctx context.Context) error) error {
	if policy == nil {
		return fn(ctx)
	}

	var lastErr error
	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(policy.Delay(attempt - 1)):
			case <-ctx.Done():
				return fmt.Errorf("retry canceled: %w", ctx.Err())
			}
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if !policy.Retryable(lastErr) {
			return lastErr
		}
	}
	return fmt.Errorf("retries exhausted after %d attempts: %w", policy.MaxRetries+1, lastErr)
}
