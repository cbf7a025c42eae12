package trace

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// OTelExporter replays finished traces onto an OpenTelemetry tracer,
// so spans reach whatever backend the process's tracer provider is
// wired to (OTLP collector, Jaeger, stdout).
type OTelExporter struct {
	tracer oteltrace.Tracer
}

// NewOTelExporter creates an exporter using the global tracer
// provider under the given instrumentation name
func NewOTelExporter(name string) *OTelExporter {
	if name == "" {
		name = "agentcore"
	}
	return &OTelExporter{tracer: otel.Tracer(name)}
}

// NewOTelExporterWithTracer creates an exporter with an explicit
// tracer, useful in tests
func NewOTelExporterWithTracer(tracer oteltrace.Tracer) *OTelExporter {
	return &OTelExporter{tracer: tracer}
}

// Export replays the trace's span tree depth first, preserving
// parent-child relationships and original timestamps
func (e *OTelExporter) Export(ctx context.Context, t *Trace) error {
	root := t.RootSpan()
	if root == nil {
		return fmt.Errorf("trace %s has no root span", t.TraceID)
	}
	e.exportSpan(ctx, t, root)
	return nil
}

func (e *OTelExporter) exportSpan(ctx context.Context, t *Trace, span *Span) {
	ctx, otelSpan := e.tracer.Start(ctx, span.Name,
		oteltrace.WithTimestamp(span.StartTime),
		oteltrace.WithSpanKind(oteltrace.SpanKindInternal),
	)

	attrs := []attribute.KeyValue{
		attribute.String("agent.span_kind", string(span.Kind)),
		attribute.String("agent.trace_id", span.TraceID),
	}
	for key, value := range span.Attributes {
		attrs = append(attrs, toAttribute(key, value))
	}
	otelSpan.SetAttributes(attrs...)

	if span.Status == StatusOK {
		otelSpan.SetStatus(codes.Ok, "")
	} else {
		otelSpan.SetStatus(codes.Error, span.ErrorMessage)
	}

	for _, child := range t.Children(span.SpanID) {
		e.exportSpan(ctx, t, child)
	}

	endTime := span.EndTime
	if endTime.IsZero() {
		endTime = span.StartTime
	}
	otelSpan.End(oteltrace.WithTimestamp(endTime))
}

func toAttribute(key string, value any) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case bool:
		return attribute.Bool(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case float64:
		return attribute.Float64(key, v)
	default:
		return attribute.String(key, fmt.Sprintf("%v", v))
	}
}
