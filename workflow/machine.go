// Package workflow provides explicit-state machines and checkpointed
// step runners for predictable, resumable agent workflows.
//
// The core principles: states are explicit, transitions are declared
// up front, every transition is recorded, and long workflows can
// resume from their last checkpoint instead of restarting.
package workflow

import (
	"fmt"
	"sync"
	"time"
)

// Transitions declares the allowed moves of a state machine: each key
// maps a state to the states it may transition to. A state with no
// entry (or an empty list) is terminal.
type Transitions map[string][]string

// TransitionError reports an attempted transition the machine does not
// allow
type TransitionError struct {
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid transition: %s -> %s", e.From, e.To)
}

// TransitionRecord is one entry in a machine's audit trail
type TransitionRecord struct {
	Time time.Time
	From string
	To   string
}

// Machine is a finite state machine with a declared transition table.
// It is safe for concurrent use.
type Machine struct {
	mu          sync.RWMutex
	state       string
	transitions Transitions
	history     []TransitionRecord
}

// NewMachine creates a state machine in the initial state
func NewMachine(initial string, transitions Transitions) *Machine {
	return &Machine{
		state:       initial,
		transitions: transitions,
	}
}

// State returns the current state
func (m *Machine) State() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// CanTransition reports whether moving to the given state is allowed
// from the current state
func (m *Machine) CanTransition(to string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.canTransition(to)
}

func (m *Machine) canTransition(to string) bool {
	for _, allowed := range m.transitions[m.state] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Transition moves the machine to the given state, recording the move
// in the history. An undeclared move returns a *TransitionError and
// leaves the state unchanged.
func (m *Machine) Transition(to string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.canTransition(to) {
		return &TransitionError{From: m.state, To: to}
	}

	m.history = append(m.history, TransitionRecord{
		Time: time.Now(),
		From: m.state,
		To:   to,
	})
	m.state = to
	return nil
}

// Terminal reports whether the current state has no outgoing
// transitions
func (m *Machine) Terminal() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.transitions[m.state]) == 0
}

// History returns a copy of the transition audit trail
func (m *Machine) History() []TransitionRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	history := make([]TransitionRecord, len(m.history))
	copy(history, m.history)
	return history
}
