package adapter

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// TaskStatus is a state in the agent-to-agent task lifecycle
type TaskStatus string

const (
	// TaskSubmitted means the task is received and awaiting work
	TaskSubmitted TaskStatus = "submitted"
	// TaskWorking means the agent is actively processing
	TaskWorking TaskStatus = "working"
	// TaskInputRequired means the agent is waiting on the caller for
	// more input
	TaskInputRequired TaskStatus = "input_required"
	// TaskCompleted means the task finished successfully
	TaskCompleted TaskStatus = "completed"
	// TaskFailed means the task hit an error
	TaskFailed TaskStatus = "failed"
	// TaskCancelled means the task was stopped before completion
	TaskCancelled TaskStatus = "cancelled"
)

// taskTransitions declares the legal lifecycle moves. Terminal states
// have no entries.
var taskTransitions = map[TaskStatus][]TaskStatus{
	TaskSubmitted:     {TaskWorking, TaskCancelled},
	TaskWorking:       {TaskInputRequired, TaskCompleted, TaskFailed, TaskCancelled},
	TaskInputRequired: {TaskWorking, TaskCancelled},
}

// StatusChange records one lifecycle move for the audit trail
type StatusChange struct {
	Status TaskStatus `json:"status"`
	Time   time.Time  `json:"time"`
}

// Task tracks one unit of delegated work through its lifecycle.
// Explicit states enable progress monitoring and audit trails. It is
// safe for concurrent use.
type Task struct {
	mu        sync.Mutex
	ID        string         `json:"task_id"`
	SkillName string         `json:"skill_name"`
	Input     map[string]any `json:"input_data"`
	Status    TaskStatus     `json:"status"`
	Result    map[string]any `json:"result,omitempty"`
	Error     string         `json:"error,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	History   []StatusChange `json:"history"`
}

// NewTask creates a submitted task for the given skill
func NewTask(skillName string, input map[string]any) *Task {
	now := time.Now()
	return &Task{
		ID:        uuid.NewString(),
		SkillName: skillName,
		Input:     input,
		Status:    TaskSubmitted,
		CreatedAt: now,
		UpdatedAt: now,
		History:   []StatusChange{{Status: TaskSubmitted, Time: now}},
	}
}

// Start marks the task as being worked on
func (t *Task) Start() error {
	return t.transition(TaskWorking, nil, "")
}

// Complete marks the task finished with its result
func (t *Task) Complete(result map[string]any) error {
	return t.transition(TaskCompleted, result, "")
}

// Fail marks the task failed with an error message
func (t *Task) Fail(errMsg string) error {
	return t.transition(TaskFailed, nil, errMsg)
}

// Cancel stops the task before completion
func (t *Task) Cancel() error {
	return t.transition(TaskCancelled, nil, "")
}

// RequireInput pauses the task until the caller supplies more input
func (t *Task) RequireInput() error {
	return t.transition(TaskInputRequired, nil, "")
}

// Resume returns a paused task to working
func (t *Task) Resume() error {
	return t.transition(TaskWorking, nil, "")
}

// CurrentStatus returns the task's status
func (t *Task) CurrentStatus() TaskStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.Status
}

// StatusHistory returns a copy of the lifecycle audit trail
func (t *Task) StatusHistory() []StatusChange {
	t.mu.Lock()
	defer t.mu.Unlock()
	history := make([]StatusChange, len(t.History))
	copy(history, t.History)
	return history
}

func (t *Task) transition(to TaskStatus, result map[string]any, errMsg string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	allowed := false
	for _, next := range taskTransitions[t.Status] {
		if next == to {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("invalid task transition: %s -> %s", t.Status, to)
	}

	t.Status = to
	t.UpdatedAt = time.Now()
	t.History = append(t.History, StatusChange{Status: to, Time: t.UpdatedAt})
	if result != nil {
		t.Result = result
	}
	if errMsg != "" {
		t.Error = errMsg
	}
	return nil
}
