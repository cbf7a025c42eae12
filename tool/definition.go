// Package tool provides agent tool definitions, a registry that
// validates invocations against their schemas, structured errors that
// let an agent self-correct, and a circuit breaker for flaky backends.
//
// A good tool description answers four questions: what the tool does,
// when to use it, what the inputs are, and what it returns.
package tool

import (
	"context"
	"fmt"
)

// RiskLevel classifies a tool by the blast radius of its side effects
type RiskLevel string

const (
	RiskReadOnly RiskLevel = "read_only"
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
)

// Example is one invocation with its expected output, used for
// few-shot learning
type Example struct {
	Description string         `json:"description"`
	Input       map[string]any `json:"input"`
	Output      map[string]any `json:"output"`
}

// Handler executes a tool invocation with validated input
type Handler func(ctx context.Context, input map[string]any) (map[string]any, error)

// Definition describes one tool: its schema, metadata, and handler.
// Parameters and Returns are JSON Schema fragments.
type Definition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Category    string         `json:"category,omitempty"`
	Parameters  map[string]any `json:"parameters"`
	Returns     map[string]any `json:"returns,omitempty"`

	RiskLevel        RiskLevel `json:"risk_level,omitempty"`
	RequiresApproval bool      `json:"requires_approval,omitempty"`
	Examples         []Example `json:"examples,omitempty"`
	Limitations      []string  `json:"limitations,omitempty"`
	Tags             []string  `json:"tags,omitempty"`

	Handler Handler `json:"-"`
}

// ToFunctionSchema converts the definition to the function calling
// format used by chat completion APIs
func (d *Definition) ToFunctionSchema() map[string]any {
	return map[string]any{
		"type": "function",
		"function": map[string]any{
			"name":        d.Name,
			"description": d.Description,
			"parameters":  d.Parameters,
		},
	}
}

// Validate checks input against the definition's parameter schema:
// required parameters must be present, values must match their
// declared type, and enum values must be one of the allowed options.
// Violations are returned as a *StructuredError.
func (d *Definition) Validate(input map[string]any) error {
	properties, _ := d.Parameters["properties"].(map[string]any)

	if required, ok := d.Parameters["required"].([]any); ok {
		for _, name := range required {
			paramName, _ := name.(string)
			if _, present := input[paramName]; !present {
				return NewMissingParameter(paramName, propertyType(properties, paramName))
			}
		}
	}
	if required, ok := d.Parameters["required"].([]string); ok {
		for _, paramName := range required {
			if _, present := input[paramName]; !present {
				return NewMissingParameter(paramName, propertyType(properties, paramName))
			}
		}
	}

	for paramName, value := range input {
		schema, ok := properties[paramName].(map[string]any)
		if !ok {
			continue
		}
		if err := validateValue(paramName, value, schema); err != nil {
			return err
		}
	}
	return nil
}

func propertyType(properties map[string]any, name string) string {
	schema, ok := properties[name].(map[string]any)
	if !ok {
		return ""
	}
	t, _ := schema["type"].(string)
	return t
}

func validateValue(name string, value any, schema map[string]any) error {
	declared, _ := schema["type"].(string)
	if declared != "" && !matchesType(value, declared) {
		return NewInvalidFormat(name, value, declared)
	}

	if options, ok := schema["enum"].([]any); ok {
		for _, option := range options {
			if value == option {
				return nil
			}
		}
		return NewInvalidFormat(name, value, fmt.Sprintf("one of %v", options))
	}
	if options, ok := schema["enum"].([]string); ok {
		for _, option := range options {
			if value == option {
				return nil
			}
		}
		return NewInvalidFormat(name, value, fmt.Sprintf("one of %v", options))
	}
	return nil
}

func matchesType(value any, declared string) bool {
	switch declared {
	case "string":
		_, ok := value.(string)
		return ok
	case "number":
		switch value.(type) {
		case float64, float32, int, int32, int64:
			return true
		}
		return false
	case "integer":
		switch v := value.(type) {
		case int, int32, int64:
			return true
		case float64:
			return v == float64(int64(v))
		}
		return false
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "array":
		switch value.(type) {
		case []any, []string:
			return true
		}
		return false
	case "object":
		_, ok := value.(map[string]any)
		return ok
	}
	return true
}
