package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xraph/trigger/ext"
	"github.com/xraph/trigger/job"
	"github.com/xraph/trigger/runio"
	"github.com/xraph/trigger/source"
	"github.com/xraph/trigger/task"
)

// Compile-time interface checks.
var (
	_ ext.Extension       = (*MetricsExtension)(nil)
	_ ext.JobAttached     = (*MetricsExtension)(nil)
	_ ext.RunStarted      = (*MetricsExtension)(nil)
	_ ext.RunCompleted    = (*MetricsExtension)(nil)
	_ ext.RunSuspended    = (*MetricsExtension)(nil)
	_ ext.RunFailed       = (*MetricsExtension)(nil)
	_ ext.SourceDelivered = (*MetricsExtension)(nil)
)

const meterName = "github.com/xraph/trigger/observability"

// MetricsExtension records endpoint-wide lifecycle metrics. Register it as
// an extension to track attached jobs, run outcomes and webhook traffic.
type MetricsExtension struct {
	JobAttached     metric.Int64Counter
	RunStarted      metric.Int64Counter
	RunCompleted    metric.Int64Counter
	RunSuspended    metric.Int64Counter
	RunFailed       metric.Int64Counter
	SourceDelivered metric.Int64Counter
	SourceEvents    metric.Int64Counter
}

// NewMetricsExtension creates a MetricsExtension using the global
// MeterProvider.
func NewMetricsExtension() *MetricsExtension {
	return NewMetricsExtensionWithMeter(otel.Meter(meterName))
}

// NewMetricsExtensionWithMeter creates a MetricsExtension with the provided meter.
func NewMetricsExtensionWithMeter(meter metric.Meter) *MetricsExtension {
	return &MetricsExtension{
		JobAttached:     counter(meter, "trigger.job.attached", "Jobs registered with the endpoint"),
		RunStarted:      counter(meter, "trigger.run.started", "Run invocations started"),
		RunCompleted:    counter(meter, "trigger.run.completed", "Runs that returned normally"),
		RunSuspended:    counter(meter, "trigger.run.suspended", "Run invocations suspended on a task"),
		RunFailed:       counter(meter, "trigger.run.failed", "Runs that ended with an error"),
		SourceDelivered: counter(meter, "trigger.source.delivered", "Webhook deliveries handled"),
		SourceEvents:    counter(meter, "trigger.source.events", "Events produced from webhook deliveries"),
	}
}

func counter(meter metric.Meter, name, desc string) metric.Int64Counter {
	// On error the API returns a noop instrument.
	c, _ := meter.Int64Counter(name, metric.WithDescription(desc))
	return c
}

// Name implements ext.Extension.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnJobAttached implements ext.JobAttached.
func (m *MetricsExtension) OnJobAttached(j *job.Job) error {
	m.JobAttached.Add(context.Background(), 1,
		metric.WithAttributes(attribute.Bool("internal", j.Internal)))
	return nil
}

// ── Run lifecycle hooks ─────────────────────────────

// OnRunStarted implements ext.RunStarted.
func (m *MetricsExtension) OnRunStarted(ctx context.Context, j *job.Job, _ *runio.Context) error {
	m.RunStarted.Add(ctx, 1, jobAttrs(j))
	return nil
}

// OnRunCompleted implements ext.RunCompleted.
func (m *MetricsExtension) OnRunCompleted(ctx context.Context, j *job.Job, _ *runio.Context, _ time.Duration) error {
	m.RunCompleted.Add(ctx, 1, jobAttrs(j))
	return nil
}

// OnRunSuspended implements ext.RunSuspended.
func (m *MetricsExtension) OnRunSuspended(ctx context.Context, j *job.Job, _ *runio.Context, _ task.Task) error {
	m.RunSuspended.Add(ctx, 1, jobAttrs(j))
	return nil
}

// OnRunFailed implements ext.RunFailed.
func (m *MetricsExtension) OnRunFailed(ctx context.Context, j *job.Job, _ *runio.Context, _ error) error {
	m.RunFailed.Add(ctx, 1, jobAttrs(j))
	return nil
}

// ── Source hooks ────────────────────────────────────

// OnSourceDelivered implements ext.SourceDelivered.
func (m *MetricsExtension) OnSourceDelivered(ctx context.Context, d source.Descriptor, events int) error {
	attrs := metric.WithAttributes(
		attribute.String("source_key", d.Key),
		attribute.Bool("dynamic", d.DynamicID != ""),
	)
	m.SourceDelivered.Add(ctx, 1, attrs)
	m.SourceEvents.Add(ctx, int64(events), attrs)
	return nil
}

func jobAttrs(j *job.Job) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("job_id", j.ID))
}
