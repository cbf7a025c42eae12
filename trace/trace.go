package trace

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Trace is the complete span tree for one request
type Trace struct {
	mu        sync.Mutex
	TraceID   string    `json:"trace_id"`
	Spans     []*Span   `json:"spans"`
	StartTime time.Time `json:"start_time"`
}

// AddSpan appends a span to the trace
func (t *Trace) AddSpan(span *Span) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Spans = append(t.Spans, span)
}

// RootSpan returns the span without a parent, or nil
func (t *Trace) RootSpan() *Span {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, span := range t.Spans {
		if span.ParentSpanID == "" {
			return span
		}
	}
	return nil
}

// Children returns the direct children of a span in insertion order
func (t *Trace) Children(parentSpanID string) []*Span {
	t.mu.Lock()
	defer t.mu.Unlock()
	var children []*Span
	for _, span := range t.Spans {
		if span.ParentSpanID == parentSpanID {
			children = append(children, span)
		}
	}
	return children
}

// TotalDuration is the root span's duration
func (t *Trace) TotalDuration() time.Duration {
	root := t.RootSpan()
	if root == nil {
		return 0
	}
	return root.Duration
}

// Render formats the trace as an indented tree for logs
func (t *Trace) Render() string {
	root := t.RootSpan()
	if root == nil {
		return "(empty trace)"
	}
	var sb strings.Builder
	t.renderSpan(&sb, root, 0)
	return sb.String()
}

func (t *Trace) renderSpan(sb *strings.Builder, span *Span, depth int) {
	indent := strings.Repeat("  ", depth)
	marker := "ok"
	if span.Status != StatusOK {
		marker = string(span.Status)
	}
	fmt.Fprintf(sb, "%s%s [%s] %.1fms (%s)\n",
		indent, span.Name, span.Kind, float64(span.Duration.Microseconds())/1000, marker)
	for _, child := range t.Children(span.SpanID) {
		t.renderSpan(sb, child, depth+1)
	}
}
