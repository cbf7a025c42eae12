// Package checkpoint defines workflow checkpoint persistence.
//
// A Checkpoint captures the state of a workflow after a step, so an
// interrupted run can resume where it left off. Store implementations
// live in the subpackages memory, file, redis and postgres.
package checkpoint

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested checkpoint does not exist
var ErrNotFound = errors.New("checkpoint not found")

// Checkpoint is a snapshot of workflow state after completing a step
type Checkpoint struct {
	ID         string         `json:"id"`
	WorkflowID string         `json:"workflow_id"`
	Step       string         `json:"step"`
	State      map[string]any `json:"state"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
	Version    int            `json:"version"`
	Completed  bool           `json:"completed"`
}

// New creates a checkpoint for a workflow step with a generated ID
func New(workflowID, step string, state map[string]any) *Checkpoint {
	return &Checkpoint{
		ID:         uuid.NewString(),
		WorkflowID: workflowID,
		Step:       step,
		State:      state,
		Timestamp:  time.Now(),
		Version:    1,
	}
}

// Store persists checkpoints
type Store interface {
	// Save stores a checkpoint
	Save(ctx context.Context, cp *Checkpoint) error
	// Load retrieves a checkpoint by ID
	Load(ctx context.Context, id string) (*Checkpoint, error)
	// Latest returns the most recent checkpoint for a workflow, or
	// ErrNotFound when the workflow has none
	Latest(ctx context.Context, workflowID string) (*Checkpoint, error)
	// List returns all checkpoints for a workflow, oldest first
	List(ctx context.Context, workflowID string) ([]*Checkpoint, error)
	// Delete removes a checkpoint by ID
	Delete(ctx context.Context, id string) error
	// Clear removes all checkpoints for a workflow
	Clear(ctx context.Context, workflowID string) error
}
