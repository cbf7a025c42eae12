// Package file provides a checkpoint store backed by JSON files in a
// directory, one file per checkpoint.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/smallnest/agentcore/checkpoint"
)

// FileStore persists checkpoints as JSON files under a directory.
// Files are named <workflow-id>__<checkpoint-id>.json.
type FileStore struct {
	mu  sync.Mutex
	dir string
}

var _ checkpoint.Store = (*FileStore)(nil)

// NewFileStore creates a file checkpoint store, creating the directory
// if needed
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoint directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(workflowID, id string) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s__%s.json", sanitize(workflowID), sanitize(id)))
}

// Save writes the checkpoint to its file
func (s *FileStore) Save(ctx context.Context, cp *checkpoint.Checkpoint) error {
	if cp.ID == "" {
		return fmt.Errorf("checkpoint ID is required")
	}

	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.WriteFile(s.path(cp.WorkflowID, cp.ID), data, 0o644); err != nil {
		return fmt.Errorf("failed to write checkpoint file: %w", err)
	}
	return nil
}

// Load retrieves a checkpoint by ID, scanning the directory for a
// matching file
func (s *FileStore) Load(ctx context.Context, id string) (*checkpoint.Checkpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matches, err := filepath.Glob(filepath.Join(s.dir, "*__"+sanitize(id)+".json"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan checkpoint directory: %w", err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: %s", checkpoint.ErrNotFound, id)
	}
	return s.read(matches[0])
}

// Latest returns the most recent checkpoint for a workflow
func (s *FileStore) Latest(ctx context.Context, workflowID string) (*checkpoint.Checkpoint, error) {
	checkpoints, err := s.List(ctx, workflowID)
	if err != nil {
		return nil, err
	}
	if len(checkpoints) == 0 {
		return nil, fmt.Errorf("%w: workflow %s", checkpoint.ErrNotFound, workflowID)
	}
	return checkpoints[len(checkpoints)-1], nil
}

// List returns all checkpoints for a workflow, oldest first
func (s *FileStore) List(ctx context.Context, workflowID string) ([]*checkpoint.Checkpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matches, err := filepath.Glob(filepath.Join(s.dir, sanitize(workflowID)+"__*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan checkpoint directory: %w", err)
	}

	checkpoints := make([]*checkpoint.Checkpoint, 0, len(matches))
	for _, match := range matches {
		cp, err := s.read(match)
		if err != nil {
			return nil, err
		}
		checkpoints = append(checkpoints, cp)
	}

	sort.SliceStable(checkpoints, func(i, j int) bool {
		return checkpoints[i].Timestamp.Before(checkpoints[j].Timestamp)
	})
	return checkpoints, nil
}

// Delete removes a checkpoint by ID
func (s *FileStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	matches, err := filepath.Glob(filepath.Join(s.dir, "*__"+sanitize(id)+".json"))
	if err != nil {
		return fmt.Errorf("failed to scan checkpoint directory: %w", err)
	}
	if len(matches) == 0 {
		return fmt.Errorf("%w: %s", checkpoint.ErrNotFound, id)
	}

	for _, match := range matches {
		if err := os.Remove(match); err != nil {
			return fmt.Errorf("failed to delete checkpoint file: %w", err)
		}
	}
	return nil
}

// Clear removes all checkpoints for a workflow
func (s *FileStore) Clear(ctx context.Context, workflowID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	matches, err := filepath.Glob(filepath.Join(s.dir, sanitize(workflowID)+"__*.json"))
	if err != nil {
		return fmt.Errorf("failed to scan checkpoint directory: %w", err)
	}
	for _, match := range matches {
		if err := os.Remove(match); err != nil {
			return fmt.Errorf("failed to delete checkpoint file: %w", err)
		}
	}
	return nil
}

func (s *FileStore) read(path string) (*checkpoint.Checkpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint file: %w", err)
	}
	var cp checkpoint.Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checkpoint: %w", err)
	}
	return &cp, nil
}

// sanitize keeps IDs filesystem-safe
func sanitize(s string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", "..", "_", ":", "_")
	return replacer.Replace(s)
}
