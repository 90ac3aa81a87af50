package middleware

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xraph/trigger/job"
)

// meterName is the instrumentation scope name for trigger metrics.
const meterName = "github.com/xraph/trigger"

// Metrics returns middleware that records per-run metrics using the global
// OTel MeterProvider.
//
// Instruments:
//   - trigger.job.duration (Float64Histogram): run time in seconds
//   - trigger.job.executions (Int64Counter): total runs
//
// Both carry job_id and status ("completed", "suspended" or "error").
func Metrics() Middleware {
	return MetricsWithMeter(otel.Meter(meterName))
}

// MetricsWithMeter returns metrics middleware using the provided meter.
func MetricsWithMeter(meter metric.Meter) Middleware {
	// On error the API returns noop instruments.
	duration, _ := meter.Float64Histogram(
		"trigger.job.duration",
		metric.WithDescription("Duration of job runs in seconds"),
		metric.WithUnit("s"),
	)
	executions, _ := meter.Int64Counter(
		"trigger.job.executions",
		metric.WithDescription("Total number of job runs"),
		metric.WithUnit("{execution}"),
	)

	return func(ctx context.Context, j *job.Job, next Handler) error {
		start := time.Now()
		err := next(ctx)
		elapsed := time.Since(start).Seconds()

		attrs := metric.WithAttributes(
			attribute.String("job_id", j.ID),
			attribute.String("status", string(StatusOf(err))),
		)
		duration.Record(ctx, elapsed, attrs)
		executions.Add(ctx, 1, attrs)

		return err
	}
}
