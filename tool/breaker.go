package tool

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned when the breaker rejects a call
var ErrCircuitOpen = errors.New("circuit breaker is open")

// BreakerState is the current mode of a circuit breaker
type BreakerState int

const (
	// StateClosed passes requests through normally
	StateClosed BreakerState = iota
	// StateOpen rejects requests immediately
	StateOpen
	// StateHalfOpen lets a limited number of test requests through
	StateHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

// BreakerOptions configures a CircuitBreaker
type BreakerOptions struct {
	// FailureThreshold is the consecutive failures before opening
	// (default 5)
	FailureThreshold int
	// RecoveryTimeout is how long the breaker stays open before
	// probing again (default 30s)
	RecoveryTimeout time.Duration
	// HalfOpenMaxCalls is the successful probes needed to close
	// again (default 3)
	HalfOpenMaxCalls int
}

// CircuitBreaker stops hammering a failing backend: after too many
// failures it rejects calls outright, then probes cautiously once the
// recovery timeout passes. It is safe for concurrent use.
type CircuitBreaker struct {
	mu               sync.Mutex
	failureThreshold int
	recoveryTimeout  time.Duration
	halfOpenMaxCalls int

	state         BreakerState
	failures      int
	lastFailure   time.Time
	halfOpenCalls int

	now func() time.Time
}

// NewCircuitBreaker creates a closed breaker with the given options
func NewCircuitBreaker(opts BreakerOptions) *CircuitBreaker {
	if opts.FailureThreshold <= 0 {
		opts.FailureThreshold = 5
	}
	if opts.RecoveryTimeout <= 0 {
		opts.RecoveryTimeout = 30 * time.Second
	}
	if opts.HalfOpenMaxCalls <= 0 {
		opts.HalfOpenMaxCalls = 3
	}
	return &CircuitBreaker{
		failureThreshold: opts.FailureThreshold,
		recoveryTimeout:  opts.RecoveryTimeout,
		halfOpenMaxCalls: opts.HalfOpenMaxCalls,
		state:            StateClosed,
		now:              time.Now,
	}
}

// State returns the breaker's current state, applying the open to
// half-open transition when the recovery timeout has passed
func (cb *CircuitBreaker) State() BreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.refresh()
	return cb.state
}

// Allow reports whether a call may proceed right now
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.allow()
}

func (cb *CircuitBreaker) refresh() {
	if cb.state == StateOpen && cb.now().Sub(cb.lastFailure) > cb.recoveryTimeout {
		cb.state = StateHalfOpen
		cb.halfOpenCalls = 0
	}
}

func (cb *CircuitBreaker) allow() bool {
	cb.refresh()
	switch cb.state {
	case StateClosed:
		return true
	case StateHalfOpen:
		return cb.halfOpenCalls < cb.halfOpenMaxCalls
	default:
		return false
	}
}

// RecordSuccess notes a successful call. Enough successes in
// half-open close the circuit.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.state == StateHalfOpen {
		cb.halfOpenCalls++
		if cb.halfOpenCalls >= cb.halfOpenMaxCalls {
			cb.state = StateClosed
			cb.failures = 0
		}
	}
}

// RecordFailure notes a failed call. A failure during half-open
// reopens immediately; in closed state the circuit opens once the
// threshold is reached.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failures++
	cb.lastFailure = cb.now()

	if cb.state == StateHalfOpen {
		cb.state = StateOpen
	} else if cb.failures >= cb.failureThreshold {
		cb.state = StateOpen
	}
}

// Execute runs fn behind the breaker, recording the outcome. When the
// breaker is open it returns ErrCircuitOpen without calling fn.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if !cb.Allow() {
		return ErrCircuitOpen
	}
	if err := fn(ctx); err != nil {
		cb.RecordFailure()
		return err
	}
	cb.RecordSuccess()
	return nil
}
