package audithook

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/trigger/ext"
	"github.com/xraph/trigger/job"
	"github.com/xraph/trigger/runio"
	"github.com/xraph/trigger/source"
	"github.com/xraph/trigger/task"
)

// Compile-time interface checks.
var (
	_ ext.Extension          = (*Extension)(nil)
	_ ext.JobAttached        = (*Extension)(nil)
	_ ext.EndpointRegistered = (*Extension)(nil)
	_ ext.RunStarted         = (*Extension)(nil)
	_ ext.RunCompleted       = (*Extension)(nil)
	_ ext.RunSuspended       = (*Extension)(nil)
	_ ext.RunFailed          = (*Extension)(nil)
	_ ext.SourceDelivered    = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	// Record persists a fully-formed audit event.
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is one entry of the audit trail.
type AuditEvent struct {
	// What happened
	Action   string `json:"action"`
	Resource string `json:"resource"`
	Category string `json:"category"`

	// Details
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Severity constants.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Outcome constants.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePending = "pending"
)

// Extension bridges trigger lifecycle events to an audit trail backend.
// Each lifecycle hook emits a structured audit event through the [Recorder].
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements ext.Extension.
func (e *Extension) Name() string { return "audit-hook" }

// ── Registration hooks ──────────────────────────────

// OnJobAttached implements ext.JobAttached.
func (e *Extension) OnJobAttached(j *job.Job) error {
	return e.record(context.Background(), ActionJobAttached, SeverityInfo, OutcomeSuccess,
		ResourceJob, j.ID, CategoryJob, nil,
		"version", j.Version,
		"internal", j.Internal,
	)
}

// OnEndpointRegistered implements ext.EndpointRegistered.
func (e *Extension) OnEndpointRegistered(ctx context.Context, url string) error {
	return e.record(ctx, ActionEndpointRegistered, SeverityInfo, OutcomeSuccess,
		ResourceEndpoint, url, CategoryEndpoint, nil,
	)
}

// ── Run lifecycle hooks ─────────────────────────────

// OnRunStarted implements ext.RunStarted.
func (e *Extension) OnRunStarted(ctx context.Context, j *job.Job, rc *runio.Context) error {
	return e.record(ctx, ActionRunStarted, SeverityInfo, OutcomeSuccess,
		ResourceRun, rc.Run.ID, CategoryRun, nil,
		"job_id", j.ID,
		"version", j.Version,
		"event", rc.Event.Name,
	)
}

// OnRunCompleted implements ext.RunCompleted.
func (e *Extension) OnRunCompleted(ctx context.Context, j *job.Job, rc *runio.Context, elapsed time.Duration) error {
	return e.record(ctx, ActionRunCompleted, SeverityInfo, OutcomeSuccess,
		ResourceRun, rc.Run.ID, CategoryRun, nil,
		"job_id", j.ID,
		"version", j.Version,
		"elapsed_ms", elapsed.Milliseconds(),
	)
}

// OnRunSuspended implements ext.RunSuspended.
func (e *Extension) OnRunSuspended(ctx context.Context, j *job.Job, rc *runio.Context, t task.Task) error {
	return e.record(ctx, ActionRunSuspended, SeverityWarning, OutcomePending,
		ResourceRun, rc.Run.ID, CategoryRun, nil,
		"job_id", j.ID,
		"version", j.Version,
		"task_id", t.ID,
		"task_status", string(t.Status),
	)
}

// OnRunFailed implements ext.RunFailed.
func (e *Extension) OnRunFailed(ctx context.Context, j *job.Job, rc *runio.Context, runErr error) error {
	return e.record(ctx, ActionRunFailed, SeverityCritical, OutcomeFailure,
		ResourceRun, rc.Run.ID, CategoryRun, runErr,
		"job_id", j.ID,
		"version", j.Version,
	)
}

// ── Source hooks ────────────────────────────────────

// OnSourceDelivered implements ext.SourceDelivered.
func (e *Extension) OnSourceDelivered(ctx context.Context, d source.Descriptor, events int) error {
	return e.record(ctx, ActionSourceDelivered, SeverityInfo, OutcomeSuccess,
		ResourceSource, d.Key, CategorySource, nil,
		"dynamic_id", d.DynamicID,
		"events", events,
	)
}

// ── Internal helpers ────────────────────────────────

// record builds and sends an audit event if the action is enabled.
// The kvPairs argument is a list of key-value pairs added to Metadata.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
