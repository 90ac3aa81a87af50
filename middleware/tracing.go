package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/trigger/job"
)

// tracerName is the instrumentation scope name for trigger tracing.
const tracerName = "github.com/xraph/trigger"

// Tracing returns middleware that wraps a run in an OpenTelemetry span.
// If no TracerProvider is configured globally, the default noop tracer is used
// and this middleware becomes a pass-through.
//
// Span attributes: trigger.job.id, trigger.job.version, trigger.run.id and,
// once the run ends, trigger.run.status. A suspended run is not an error.
func Tracing() Middleware {
	return TracingWithTracer(otel.Tracer(tracerName))
}

// TracingWithTracer returns tracing middleware using the provided tracer.
func TracingWithTracer(tracer trace.Tracer) Middleware {
	return func(ctx context.Context, j *job.Job, next Handler) error {
		ctx, span := tracer.Start(ctx, "trigger.job.execute",
			trace.WithAttributes(
				attribute.String("trigger.job.id", j.ID),
				attribute.String("trigger.job.version", j.Version),
				attribute.String("trigger.run.id", runID(ctx)),
			),
			trace.WithSpanKind(trace.SpanKindInternal),
		)
		defer span.End()

		err := next(ctx)
		status := StatusOf(err)
		span.SetAttributes(attribute.String("trigger.run.status", string(status)))
		if status == StatusError {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}

		return err
	}
}
