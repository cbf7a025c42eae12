package tool

import (
	"fmt"
	"time"
)

// Category classifies a tool error so agents can branch on it
type Category string

const (
	CategoryValidation Category = "validation"
	CategoryNotFound   Category = "not_found"
	CategoryPermission Category = "permission"
	CategoryRateLimit  Category = "rate_limit"
	CategoryTimeout    Category = "timeout"
	CategoryDependency Category = "dependency"
	CategoryInternal   Category = "internal"
)

// RecoveryAction tells the agent what to do next
type RecoveryAction string

const (
	RecoveryRetry       RecoveryAction = "retry"
	RecoveryModifyInput RecoveryAction = "modify_input"
	RecoveryUseFallback RecoveryAction = "use_fallback"
	RecoveryEscalate    RecoveryAction = "escalate"
	RecoveryWait        RecoveryAction = "wait"
	RecoveryAbort       RecoveryAction = "abort"
)

// StructuredError carries not just what went wrong but how the caller
// can fix it. It marshals to the wire format tools return to agents.
type StructuredError struct {
	Code       string         `json:"error_code"`
	Message    string         `json:"message"`
	Category   Category       `json:"category"`
	Suggestion string         `json:"suggestion,omitempty"`
	Recovery   RecoveryAction `json:"recovery_action"`
	RetryAfter time.Duration  `json:"retry_after,omitempty"`
	Parameter  string         `json:"parameter_name,omitempty"`
	Expected   string         `json:"expected_format,omitempty"`
}

func (e *StructuredError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewMissingParameter reports a required parameter that was not
// provided
func NewMissingParameter(name, expectedType string) *StructuredError {
	suggestion := fmt.Sprintf("provide the %q parameter", name)
	if expectedType != "" {
		suggestion += " as a " + expectedType
	}
	return &StructuredError{
		Code:       "MISSING_PARAMETER",
		Message:    fmt.Sprintf("required parameter %q is missing", name),
		Category:   CategoryValidation,
		Suggestion: suggestion,
		Recovery:   RecoveryModifyInput,
		Parameter:  name,
		Expected:   expectedType,
	}
}

// NewInvalidFormat reports a parameter whose value does not match the
// schema. The value is truncated to keep error payloads small.
func NewInvalidFormat(name string, value any, expected string) *StructuredError {
	rendered := fmt.Sprintf("%v", value)
	if len(rendered) > 100 {
		rendered = rendered[:100]
	}
	return &StructuredError{
		Code:       "INVALID_FORMAT",
		Message:    fmt.Sprintf("parameter %q has invalid value %q", name, rendered),
		Category:   CategoryValidation,
		Suggestion: fmt.Sprintf("expected format: %s, reformat and try again", expected),
		Recovery:   RecoveryModifyInput,
		Parameter:  name,
		Expected:   expected,
	}
}

// NewNotFound reports a resource that does not exist
func NewNotFound(resourceType, identifier string) *StructuredError {
	return &StructuredError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s %q not found", resourceType, identifier),
		Category:   CategoryNotFound,
		Suggestion: fmt.Sprintf("verify the %s identifier is correct, you may need to search for available options first", resourceType),
		Recovery:   RecoveryModifyInput,
	}
}

// NewRateLimited reports that the caller should back off
func NewRateLimited(retryAfter time.Duration) *StructuredError {
	return &StructuredError{
		Code:       "RATE_LIMITED",
		Message:    "too many requests, rate limit exceeded",
		Category:   CategoryRateLimit,
		Suggestion: fmt.Sprintf("wait %s before retrying", retryAfter),
		Recovery:   RecoveryWait,
		RetryAfter: retryAfter,
	}
}

// NewPermissionDenied reports an unauthorized action
func NewPermissionDenied(action string) *StructuredError {
	return &StructuredError{
		Code:       "PERMISSION_DENIED",
		Message:    fmt.Sprintf("not authorized to %s", action),
		Category:   CategoryPermission,
		Suggestion: "this action requires different permissions, escalate to a human",
		Recovery:   RecoveryEscalate,
	}
}

// NewTimeout reports an operation that took too long
func NewTimeout(operation string, after time.Duration) *StructuredError {
	return &StructuredError{
		Code:       "TIMEOUT",
		Message:    fmt.Sprintf("operation %q timed out after %s", operation, after),
		Category:   CategoryTimeout,
		Suggestion: "retry with a simpler request or try again later",
		Recovery:   RecoveryRetry,
	}
}

// NewDependencyFailure reports an upstream service failure
func NewDependencyFailure(service string, cause error) *StructuredError {
	return &StructuredError{
		Code:       "DEPENDENCY_FAILED",
		Message:    fmt.Sprintf("dependency %q failed: %v", service, cause),
		Category:   CategoryDependency,
		Suggestion: "the failure is upstream, use a fallback tool or retry later",
		Recovery:   RecoveryUseFallback,
	}
}
