package tool

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/smallnest/agentcore/log"
)

// RiskGate decides whether an invocation of a tool may proceed, given
// its definition and validated input. Returning an error aborts the
// call before the handler runs.
type RiskGate func(def *Definition, input map[string]any) error

// Registry holds tool definitions and executes invocations after
// validating them. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	tools    map[string]*Definition
	riskGate RiskGate
	logger   log.Logger
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		tools:  make(map[string]*Definition),
		logger: log.GetDefaultLogger(),
	}
}

// Register adds a tool definition. Definitions need a name, a
// description, and a handler; duplicate names are rejected.
func (r *Registry) Register(def *Definition) error {
	if def == nil || def.Name == "" {
		return errors.New("tool definition needs a name")
	}
	if def.Description == "" {
		return fmt.Errorf("tool %s needs a description", def.Name)
	}
	if def.Handler == nil {
		return fmt.Errorf("tool %s needs a handler", def.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[def.Name]; exists {
		return fmt.Errorf("tool already registered: %s", def.Name)
	}
	r.tools[def.Name] = def
	return nil
}

// SetRiskGate installs a gate consulted before every execution,
// typically to hold high-risk tools for approval
func (r *Registry) SetRiskGate(gate RiskGate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.riskGate = gate
}

// Get returns the definition for a tool name
func (r *Registry) Get(name string) (*Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.tools[name]
	return def, ok
}

// Names returns the registered tool names in sorted order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ByCategory returns the names of tools in a category, sorted
func (r *Registry) ByCategory(category string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var names []string
	for name, def := range r.tools {
		if def.Category == category {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// FunctionSchemas returns the function calling schemas for every
// registered tool, sorted by name
func (r *Registry) FunctionSchemas() []map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)

	schemas := make([]map[string]any, 0, len(names))
	for _, name := range names {
		schemas = append(schemas, r.tools[name].ToFunctionSchema())
	}
	return schemas
}

// Execute validates the input against the tool's schema and runs its
// handler. Unknown tools and validation failures come back as
// *StructuredError so the caller can self-correct.
func (r *Registry) Execute(ctx context.Context, name string, input map[string]any) (map[string]any, error) {
	def, ok := r.Get(name)
	if !ok {
		return nil, NewNotFound("tool", name)
	}
	if err := def.Validate(input); err != nil {
		r.logger.Debug("tool %s rejected input: %v", name, err)
		return nil, err
	}

	r.mu.RLock()
	gate := r.riskGate
	r.mu.RUnlock()
	if gate != nil {
		if err := gate(def, input); err != nil {
			return nil, err
		}
	}

	result, err := def.Handler(ctx, input)
	if err != nil {
		var structured *StructuredError
		if errors.As(err, &structured) {
			return nil, err
		}
		return nil, fmt.Errorf("tool %s failed: %w", name, err)
	}
	return result, nil
}
