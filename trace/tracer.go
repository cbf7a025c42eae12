package trace

import (
	"sync"
	"time"
)

// Tracer creates traces and keeps parent-child relationships via a
// span stack. One tracer serves one request at a time; create a
// tracer per request or per goroutine.
type Tracer struct {
	mu          sync.Mutex
	serviceName string
	current     *Trace
	stack       []*Span
}

// NewTracer creates a tracer for the named service
func NewTracer(serviceName string) *Tracer {
	if serviceName == "" {
		serviceName = "agent-service"
	}
	return &Tracer{serviceName: serviceName}
}

// ServiceName returns the name the tracer reports under
func (t *Tracer) ServiceName() string {
	return t.serviceName
}

// StartTrace begins a new trace with a root agent span
func (t *Tracer) StartTrace(name string) *Trace {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.current = &Trace{
		TraceID:   newID(16),
		StartTime: time.Now(),
	}
	root := t.newSpan(name, KindAgent)
	t.current.AddSpan(root)
	t.stack = append(t.stack, root)
	return t.current
}

// StartSpan opens a child span under the innermost open span. Close
// it with span.End or span.EndWithError, then pop it with EndSpan.
func (t *Tracer) StartSpan(name string, kind Kind) *Span {
	t.mu.Lock()
	defer t.mu.Unlock()

	span := t.newSpan(name, kind)
	if t.current != nil {
		t.current.AddSpan(span)
	}
	t.stack = append(t.stack, span)
	return span
}

// EndSpan closes the innermost open span and pops it from the stack.
// A nil err ends the span OK.
func (t *Tracer) EndSpan(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.stack) == 0 {
		return
	}
	span := t.stack[len(t.stack)-1]
	t.stack = t.stack[:len(t.stack)-1]

	if err != nil {
		span.EndWithError(err)
	} else {
		span.End()
	}
}

// WithSpan runs fn inside a span, ending it with fn's error
func (t *Tracer) WithSpan(name string, kind Kind, fn func(span *Span) error) error {
	span := t.StartSpan(name, kind)
	err := fn(span)
	t.mu.Lock()
	if len(t.stack) > 0 && t.stack[len(t.stack)-1] == span {
		t.stack = t.stack[:len(t.stack)-1]
	}
	t.mu.Unlock()

	if err != nil {
		span.EndWithError(err)
		return err
	}
	span.End()
	return nil
}

// EndTrace closes any still-open spans and returns the finished
// trace. The tracer is ready for a new StartTrace afterwards.
func (t *Tracer) EndTrace() *Trace {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := len(t.stack) - 1; i >= 0; i-- {
		t.stack[i].End()
	}
	t.stack = nil

	finished := t.current
	t.current = nil
	return finished
}

func (t *Tracer) newSpan(name string, kind Kind) *Span {
	parentID := ""
	if len(t.stack) > 0 {
		parentID = t.stack[len(t.stack)-1].SpanID
	}
	traceID := ""
	if t.current != nil {
		traceID = t.current.TraceID
	}
	return &Span{
		TraceID:      traceID,
		SpanID:       newID(8),
		ParentSpanID: parentID,
		Name:         name,
		Kind:         kind,
		StartTime:    time.Now(),
		Status:       StatusOK,
	}
}
