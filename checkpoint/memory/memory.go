// Package memory provides a process-local checkpoint store, mainly for
// tests and single-process workflows.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/smallnest/agentcore/checkpoint"
)

// MemoryStore is an in-memory checkpoint store. It is safe for
// concurrent use.
type MemoryStore struct {
	mu          sync.RWMutex
	checkpoints map[string]*checkpoint.Checkpoint
	byWorkflow  map[string][]string
}

var _ checkpoint.Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory checkpoint store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		checkpoints: make(map[string]*checkpoint.Checkpoint),
		byWorkflow:  make(map[string][]string),
	}
}

// Save stores a copy of the checkpoint
func (s *MemoryStore) Save(ctx context.Context, cp *checkpoint.Checkpoint) error {
	if cp.ID == "" {
		return fmt.Errorf("checkpoint ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.checkpoints[cp.ID]; !exists {
		s.byWorkflow[cp.WorkflowID] = append(s.byWorkflow[cp.WorkflowID], cp.ID)
	}
	s.checkpoints[cp.ID] = copyCheckpoint(cp)
	return nil
}

// Load retrieves a checkpoint by ID
func (s *MemoryStore) Load(ctx context.Context, id string) (*checkpoint.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cp, exists := s.checkpoints[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", checkpoint.ErrNotFound, id)
	}
	return copyCheckpoint(cp), nil
}

// Latest returns the most recent checkpoint for a workflow
func (s *MemoryStore) Latest(ctx context.Context, workflowID string) (*checkpoint.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *checkpoint.Checkpoint
	for _, id := range s.byWorkflow[workflowID] {
		cp := s.checkpoints[id]
		if latest == nil || cp.Timestamp.After(latest.Timestamp) {
			latest = cp
		}
	}
	if latest == nil {
		return nil, fmt.Errorf("%w: workflow %s", checkpoint.ErrNotFound, workflowID)
	}
	return copyCheckpoint(latest), nil
}

// List returns all checkpoints for a workflow, oldest first
func (s *MemoryStore) List(ctx context.Context, workflowID string) ([]*checkpoint.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	checkpoints := make([]*checkpoint.Checkpoint, 0, len(s.byWorkflow[workflowID]))
	for _, id := range s.byWorkflow[workflowID] {
		checkpoints = append(checkpoints, copyCheckpoint(s.checkpoints[id]))
	}

	sort.SliceStable(checkpoints, func(i, j int) bool {
		return checkpoints[i].Timestamp.Before(checkpoints[j].Timestamp)
	})
	return checkpoints, nil
}

// Delete removes a checkpoint by ID
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp, exists := s.checkpoints[id]
	if !exists {
		return fmt.Errorf("%w: %s", checkpoint.ErrNotFound, id)
	}

	delete(s.checkpoints, id)
	ids := s.byWorkflow[cp.WorkflowID]
	for i, existing := range ids {
		if existing == id {
			s.byWorkflow[cp.WorkflowID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	return nil
}

// Clear removes all checkpoints for a workflow
func (s *MemoryStore) Clear(ctx context.Context, workflowID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.byWorkflow[workflowID] {
		delete(s.checkpoints, id)
	}
	delete(s.byWorkflow, workflowID)
	return nil
}

// copyCheckpoint deep-copies a checkpoint so callers cannot mutate
// stored state
func copyCheckpoint(cp *checkpoint.Checkpoint) *checkpoint.Checkpoint {
	copied := *cp
	copied.State = copyMap(cp.State)
	copied.Metadata = copyMap(cp.Metadata)
	return &copied
}

func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	copied := make(map[string]any, len(m))
	for k, v := range m {
		copied[k] = v
	}
	return copied
}
