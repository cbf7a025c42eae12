// Package trace records the journey of a request through an agent
// system as a tree of spans: LLM calls, tool invocations, retrievals,
// and guardrail checks each get their own timed, attributed span.
// Finished traces can be exported to any OpenTelemetry backend.
//
// Spans enable latency breakdown, error localization, and cost
// attribution per operation.
package trace

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind classifies what a span measures
type Kind string

const (
	KindAgent         Kind = "agent"
	KindLLM           Kind = "llm"
	KindTool          Kind = "tool"
	KindRetrieval     Kind = "retrieval"
	KindGuardrail     Kind = "guardrail"
	KindOrchestration Kind = "orchestration"
)

// Status is the outcome of a span
type Status string

const (
	StatusOK      Status = "ok"
	StatusError   Status = "error"
	StatusTimeout Status = "timeout"
)

// Span is one unit of work in a trace. Every significant operation
// gets its own span.
type Span struct {
	TraceID      string `json:"trace_id"`
	SpanID       string `json:"span_id"`
	ParentSpanID string `json:"parent_span_id,omitempty"`

	Name string `json:"name"`
	Kind Kind   `json:"kind"`

	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time,omitempty"`
	Duration  time.Duration `json:"duration"`

	Status       Status `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`

	Attributes map[string]any `json:"attributes,omitempty"`
}

// SetAttribute attaches a key value pair to the span
func (s *Span) SetAttribute(key string, value any) {
	if s.Attributes == nil {
		s.Attributes = make(map[string]any)
	}
	s.Attributes[key] = value
}

// End marks the span complete with StatusOK
func (s *Span) End() {
	s.end(StatusOK, "")
}

// EndWithError marks the span failed and records the error
func (s *Span) EndWithError(err error) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	s.end(StatusError, msg)
}

func (s *Span) end(status Status, errMsg string) {
	if !s.EndTime.IsZero() {
		return
	}
	s.EndTime = time.Now()
	s.Duration = s.EndTime.Sub(s.StartTime)
	s.Status = status
	s.ErrorMessage = errMsg
}

// LLMAttributes builds span attributes for an LLM call following the
// OpenTelemetry semantic conventions for generative AI
func LLMAttributes(model, provider string, inputTokens, outputTokens, cachedTokens int) map[string]any {
	return map[string]any{
		"llm.model":         model,
		"llm.provider":      provider,
		"llm.input_tokens":  inputTokens,
		"llm.output_tokens": outputTokens,
		"llm.cached_tokens": cachedTokens,
		"llm.total_tokens":  inputTokens + outputTokens + cachedTokens,
	}
}

// ToolAttributes builds span attributes for a tool invocation
func ToolAttributes(name string, risk string, success bool) map[string]any {
	return map[string]any{
		"tool.name":    name,
		"tool.risk":    risk,
		"tool.success": success,
	}
}

// RetrievalAttributes builds span attributes for a retrieval call
func RetrievalAttributes(source string, resultCount int, topScore float64) map[string]any {
	return map[string]any{
		"retrieval.source":    source,
		"retrieval.results":   resultCount,
		"retrieval.top_score": topScore,
	}
}

func newID(length int) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	if len(id) > length {
		id = id[:length]
	}
	return id
}
