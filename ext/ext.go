// Package ext defines the extension system for trigger endpoints.
// Extensions are notified of lifecycle events (job attached, run completed,
// suspended or failed, webhook delivered, etc.) and can react to them.
//
// Each lifecycle hook is a separate interface so extensions opt in only
// to the events they care about.
package ext

import (
	"context"
	"time"

	"github.com/xraph/trigger/job"
	"github.com/xraph/trigger/runio"
	"github.com/xraph/trigger/source"
	"github.com/xraph/trigger/task"
)

// Extension is the base interface all extensions must implement.
type Extension interface {
	// Name returns a unique human-readable name for the extension.
	Name() string
}

// ──────────────────────────────────────────────────
// Registration hooks
// ──────────────────────────────────────────────────

// JobAttached is called after a job is stored in the job registry,
// including hidden jobs synthesized for sources and dynamic triggers.
type JobAttached interface {
	OnJobAttached(j *job.Job) error
}

// EndpointRegistered is called after the endpoint registered itself with
// the backend.
type EndpointRegistered interface {
	OnEndpointRegistered(ctx context.Context, url string) error
}

// ──────────────────────────────────────────────────
// Run lifecycle hooks
// ──────────────────────────────────────────────────

// RunStarted is called before a job's run function is invoked.
type RunStarted interface {
	OnRunStarted(ctx context.Context, j *job.Job, rc *runio.Context) error
}

// RunCompleted is called after a run returned normally.
type RunCompleted interface {
	OnRunCompleted(ctx context.Context, j *job.Job, rc *runio.Context, elapsed time.Duration) error
}

// RunSuspended is called when a run stopped at a task not yet in the cache.
type RunSuspended interface {
	OnRunSuspended(ctx context.Context, j *job.Job, rc *runio.Context, t task.Task) error
}

// RunFailed is called when a run's job logic returned an error.
type RunFailed interface {
	OnRunFailed(ctx context.Context, j *job.Job, rc *runio.Context, err error) error
}

// ──────────────────────────────────────────────────
// Other lifecycle hooks
// ──────────────────────────────────────────────────

// SourceDelivered is called after a webhook delivery was handled.
type SourceDelivered interface {
	OnSourceDelivered(ctx context.Context, d source.Descriptor, events int) error
}

// Shutdown is called during graceful shutdown.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
