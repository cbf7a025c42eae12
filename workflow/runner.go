package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/smallnest/agentcore/checkpoint"
	memorystore "github.com/smallnest/agentcore/checkpoint/memory"
	"github.com/smallnest/agentcore/log"
)

// Step is one named unit of work in a runner. Run receives the
// accumulated workflow state and returns the keys to merge into it.
type Step struct {
	Name string
	Run  func(ctx context.Context, state map[string]any) (map[string]any, error)
}

// RunnerOptions configures a Runner
type RunnerOptions struct {
	// Store persists checkpoints (default in-memory)
	Store checkpoint.Store
	// Retry applies to every step (default no retries)
	Retry *RetryPolicy
	// Logger for progress messages (default package logger)
	Logger log.Logger
}

// Runner executes an ordered list of steps for one workflow,
// checkpointing after every step so an interrupted run resumes from
// the step it stopped at instead of the beginning.
type Runner struct {
	workflowID string
	steps      []Step
	store      checkpoint.Store
	retry      *RetryPolicy
	logger     log.Logger
}

// NewRunner creates a runner for the given workflow and steps
func NewRunner(workflowID string, steps []Step, opts RunnerOptions) (*Runner, error) {
	if workflowID == "" {
		return nil, errors.New("workflow ID is required")
	}
	if len(steps) == 0 {
		return nil, errors.New("at least one step is required")
	}
	seen := make(map[string]bool, len(steps))
	for _, step := range steps {
		if step.Name == "" || step.Run == nil {
			return nil, errors.New("every step needs a name and a run function")
		}
		if seen[step.Name] {
			return nil, fmt.Errorf("duplicate step name: %s", step.Name)
		}
		seen[step.Name] = true
	}

	store := opts.Store
	if store == nil {
		store = memorystore.NewMemoryStore()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.GetDefaultLogger()
	}

	return &Runner{
		workflowID: workflowID,
		steps:      steps,
		store:      store,
		retry:      opts.Retry,
		logger:     logger,
	}, nil
}

// StartOrResume loads the latest checkpoint for the workflow and
// resumes from it when one exists and is not completed. Otherwise it
// creates a fresh checkpoint at the first step seeded with initial and
// saves it.
func (r *Runner) StartOrResume(ctx context.Context, initial map[string]any) (*checkpoint.Checkpoint, error) {
	latest, err := r.store.Latest(ctx, r.workflowID)
	if err == nil && !latest.Completed {
		if latest.State == nil {
			latest.State = make(map[string]any)
		}
		r.logger.Info("workflow %s resuming at step %s", r.workflowID, latest.Step)
		return latest, nil
	}
	if err != nil && !errors.Is(err, checkpoint.ErrNotFound) {
		return nil, fmt.Errorf("failed to load latest checkpoint: %w", err)
	}

	state := make(map[string]any, len(initial))
	for k, v := range initial {
		state[k] = v
	}
	cp := checkpoint.New(r.workflowID, r.steps[0].Name, state)
	if err := r.store.Save(ctx, cp); err != nil {
		return nil, fmt.Errorf("failed to save initial checkpoint: %w", err)
	}
	r.logger.Info("workflow %s starting at step %s", r.workflowID, cp.Step)
	return cp, nil
}

// Run drives the workflow to completion. It starts or resumes from
// the checkpoint store, executes the remaining steps in order, merges
// each step's result into the state, and checkpoints after every step.
// On completion the workflow's checkpoints are cleared and the final
// state is returned. On failure the last checkpoint still points at
// the failed step, so the next Run retries from there.
func (r *Runner) Run(ctx context.Context, initial map[string]any) (map[string]any, error) {
	cp, err := r.StartOrResume(ctx, initial)
	if err != nil {
		return nil, err
	}

	start := r.stepIndex(cp.Step)
	if start < 0 {
		return nil, fmt.Errorf("checkpoint references unknown step: %s", cp.Step)
	}

	for i := start; i < len(r.steps); i++ {
		step := r.steps[i]

		var result map[string]any
		err := Retry(ctx, r.retry, func(ctx context.Context) error {
			var runErr error
			result, runErr = step.Run(ctx, cp.State)
			return runErr
		})
		if err != nil {
			return nil, fmt.Errorf("step %s failed: %w", step.Name, err)
		}

		for k, v := range result {
			cp.State[k] = v
		}
		if i+1 < len(r.steps) {
			cp.Step = r.steps[i+1].Name
		} else {
			cp.Completed = true
		}
		cp.Version++
		cp.Timestamp = time.Now()
		if err := r.store.Save(ctx, cp); err != nil {
			return nil, fmt.Errorf("failed to checkpoint after step %s: %w", step.Name, err)
		}
		r.logger.Debug("workflow %s completed step %s", r.workflowID, step.Name)
	}

	if err := r.store.Clear(ctx, r.workflowID); err != nil {
		r.logger.Warn("workflow %s completed but clearing checkpoints failed: %v", r.workflowID, err)
	}
	r.logger.Info("workflow %s completed", r.workflowID)
	return cp.State, nil
}

func (r *Runner) stepIndex(name string) int {
	for i, step := range r.steps {
		if step.Name == name {
			return i
		}
	}
	return -1
}
