package observe

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// scopeName identifies cutmark as the instrumentation scope for every tracer
// and meter this package hands out.
const scopeName = "github.com/MrWong99/cutmark"

// Tracer resolves the cutmark tracer from the global provider. Resolution
// happens per call so tests can swap the provider.
func Tracer() trace.Tracer {
	return otel.Tracer(scopeName)
}

// StartSpan opens a span named name under the cutmark tracer. End the
// returned span.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name, opts...)
}

// CorrelationID reports the hex trace ID of the span recording in ctx, or ""
// outside any span. Clients see this value in the X-Correlation-ID header, so
// a log line and a response can be matched by eye.
func CorrelationID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}

// Logger decorates the default slog logger with the trace_id and span_id of
// the span in ctx. Outside a span it is just [slog.Default].
func Logger(ctx context.Context) *slog.Logger {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return slog.Default()
	}
	return slog.Default().With(
		slog.String("trace_id", sc.TraceID().String()),
		slog.String("span_id", sc.SpanID().String()),
	)
}
