// Package adapter bridges agents and external systems. It provides
// the adapter pattern for wrapping legacy backends with agent-friendly
// interfaces, agent cards for capability discovery, and the task
// lifecycle used for agent-to-agent work handoff.
//
// The backend thinks it is talking to a normal client. The agent
// thinks it is talking to a modern JSON API.
package adapter

import (
	"context"
	"errors"
	"fmt"

	"github.com/smallnest/agentcore/log"
	"github.com/smallnest/agentcore/tool"
	"github.com/smallnest/agentcore/workflow"
)

// ErrUnavailable is returned when the adapter's circuit breaker is
// rejecting calls
var ErrUnavailable = errors.New("adapter temporarily unavailable")

// Adapter translates between agent requests and a backend protocol.
// Implementations isolate protocol-specific code from business logic.
type Adapter interface {
	// Name identifies the adapter in logs and errors
	Name() string
	// TranslateRequest converts an agent request to the backend's
	// wire format
	TranslateRequest(request map[string]any) (any, error)
	// Call makes the actual backend call
	Call(ctx context.Context, backendRequest any) (any, error)
	// TranslateResponse converts the backend response back to an
	// agent-friendly map
	TranslateResponse(backendResponse any) (map[string]any, error)
}

// ExecutorOptions configures an Executor
type ExecutorOptions struct {
	// Breaker guards the backend (default 5 failures, 30s recovery)
	Breaker *tool.CircuitBreaker
	// Retry applies to backend calls (default 2 retries,
	// exponential backoff)
	Retry *workflow.RetryPolicy
	// Logger for call outcomes (default package logger)
	Logger log.Logger
}

// Executor drives an Adapter with resiliency: every call goes through
// a circuit breaker, and backend calls are retried with backoff.
type Executor struct {
	adapter Adapter
	breaker *tool.CircuitBreaker
	retry   *workflow.RetryPolicy
	logger  log.Logger
}

// NewExecutor wraps an adapter with a circuit breaker and retry
func NewExecutor(a Adapter, opts ExecutorOptions) *Executor {
	breaker := opts.Breaker
	if breaker == nil {
		breaker = tool.NewCircuitBreaker(tool.BreakerOptions{})
	}
	retry := opts.Retry
	if retry == nil {
		retry = &workflow.RetryPolicy{
			MaxRetries:      2,
			BackoffStrategy: workflow.ExponentialBackoff,
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.GetDefaultLogger()
	}
	return &Executor{
		adapter: a,
		breaker: breaker,
		retry:   retry,
		logger:  logger,
	}
}

// Execute runs one request through the adapter. When the breaker is
// open it returns ErrUnavailable without touching the backend.
// Translation failures do not count against the breaker, only backend
// call failures do.
func (e *Executor) Execute(ctx context.Context, request map[string]any) (map[string]any, error) {
	if !e.breaker.Allow() {
		e.logger.Warn("adapter %s rejecting call, circuit open", e.adapter.Name())
		return nil, fmt.Errorf("%w: %s circuit breaker is open", ErrUnavailable, e.adapter.Name())
	}

	backendRequest, err := e.adapter.TranslateRequest(request)
	if err != nil {
		return nil, fmt.Errorf("adapter %s failed to translate request: %w", e.adapter.Name(), err)
	}

	var backendResponse any
	err = workflow.Retry(ctx, e.retry, func(ctx context.Context) error {
		var callErr error
		backendResponse, callErr = e.adapter.Call(ctx, backendRequest)
		return callErr
	})
	if err != nil {
		e.breaker.RecordFailure()
		e.logger.Warn("adapter %s backend call failed: %v", e.adapter.Name(), err)
		return nil, fmt.Errorf("adapter %s call failed: %w", e.adapter.Name(), err)
	}
	e.breaker.RecordSuccess()

	response, err := e.adapter.TranslateResponse(backendResponse)
	if err != nil {
		return nil, fmt.Errorf("adapter %s failed to translate response: %w", e.adapter.Name(), err)
	}
	return response, nil
}

// Breaker exposes the executor's circuit breaker for inspection
func (e *Executor) Breaker() *tool.CircuitBreaker {
	return e.breaker
}
