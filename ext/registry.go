package ext

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/trigger/job"
	"github.com/xraph/trigger/runio"
	"github.com/xraph/trigger/source"
	"github.com/xraph/trigger/task"
)

// Named entry types pair a hook implementation with the extension name
// captured at registration time.
type entry[H any] struct {
	name string
	hook H
}

// Registry holds registered extensions and dispatches lifecycle events
// to them. It type-caches extensions at registration time so emit calls
// iterate only over extensions that implement the relevant hook.
type Registry struct {
	extensions []Extension
	logger     *slog.Logger

	jobAttached        []entry[JobAttached]
	endpointRegistered []entry[EndpointRegistered]
	runStarted         []entry[RunStarted]
	runCompleted       []entry[RunCompleted]
	runSuspended       []entry[RunSuspended]
	runFailed          []entry[RunFailed]
	sourceDelivered    []entry[SourceDelivered]
	shutdown           []entry[Shutdown]
}

// NewRegistry creates an extension registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{logger: logger}
}

// Register adds an extension and type-asserts it into all applicable
// hook caches. Extensions are notified in registration order.
func (r *Registry) Register(e Extension) {
	r.extensions = append(r.extensions, e)
	name := e.Name()

	if h, ok := e.(JobAttached); ok {
		r.jobAttached = append(r.jobAttached, entry[JobAttached]{name, h})
	}
	if h, ok := e.(EndpointRegistered); ok {
		r.endpointRegistered = append(r.endpointRegistered, entry[EndpointRegistered]{name, h})
	}
	if h, ok := e.(RunStarted); ok {
		r.runStarted = append(r.runStarted, entry[RunStarted]{name, h})
	}
	if h, ok := e.(RunCompleted); ok {
		r.runCompleted = append(r.runCompleted, entry[RunCompleted]{name, h})
	}
	if h, ok := e.(RunSuspended); ok {
		r.runSuspended = append(r.runSuspended, entry[RunSuspended]{name, h})
	}
	if h, ok := e.(RunFailed); ok {
		r.runFailed = append(r.runFailed, entry[RunFailed]{name, h})
	}
	if h, ok := e.(SourceDelivered); ok {
		r.sourceDelivered = append(r.sourceDelivered, entry[SourceDelivered]{name, h})
	}
	if h, ok := e.(Shutdown); ok {
		r.shutdown = append(r.shutdown, entry[Shutdown]{name, h})
	}
}

// Extensions returns all registered extensions.
func (r *Registry) Extensions() []Extension { return r.extensions }

// EmitJobAttached notifies all extensions that implement JobAttached.
func (r *Registry) EmitJobAttached(j *job.Job) {
	for _, e := range r.jobAttached {
		if err := e.hook.OnJobAttached(j); err != nil {
			r.logHookError("OnJobAttached", e.name, err)
		}
	}
}

// EmitEndpointRegistered notifies all extensions that implement EndpointRegistered.
func (r *Registry) EmitEndpointRegistered(ctx context.Context, url string) {
	for _, e := range r.endpointRegistered {
		if err := e.hook.OnEndpointRegistered(ctx, url); err != nil {
			r.logHookError("OnEndpointRegistered", e.name, err)
		}
	}
}

// EmitRunStarted notifies all extensions that implement RunStarted.
func (r *Registry) EmitRunStarted(ctx context.Context, j *job.Job, rc *runio.Context) {
	for _, e := range r.runStarted {
		if err := e.hook.OnRunStarted(ctx, j, rc); err != nil {
			r.logHookError("OnRunStarted", e.name, err)
		}
	}
}

// EmitRunCompleted notifies all extensions that implement RunCompleted.
func (r *Registry) EmitRunCompleted(ctx context.Context, j *job.Job, rc *runio.Context, elapsed time.Duration) {
	for _, e := range r.runCompleted {
		if err := e.hook.OnRunCompleted(ctx, j, rc, elapsed); err != nil {
			r.logHookError("OnRunCompleted", e.name, err)
		}
	}
}

// EmitRunSuspended notifies all extensions that implement RunSuspended.
func (r *Registry) EmitRunSuspended(ctx context.Context, j *job.Job, rc *runio.Context, t task.Task) {
	for _, e := range r.runSuspended {
		if err := e.hook.OnRunSuspended(ctx, j, rc, t); err != nil {
			r.logHookError("OnRunSuspended", e.name, err)
		}
	}
}

// EmitRunFailed notifies all extensions that implement RunFailed.
func (r *Registry) EmitRunFailed(ctx context.Context, j *job.Job, rc *runio.Context, runErr error) {
	for _, e := range r.runFailed {
		if err := e.hook.OnRunFailed(ctx, j, rc, runErr); err != nil {
			r.logHookError("OnRunFailed", e.name, err)
		}
	}
}

// EmitSourceDelivered notifies all extensions that implement SourceDelivered.
func (r *Registry) EmitSourceDelivered(ctx context.Context, d source.Descriptor, events int) {
	for _, e := range r.sourceDelivered {
		if err := e.hook.OnSourceDelivered(ctx, d, events); err != nil {
			r.logHookError("OnSourceDelivered", e.name, err)
		}
	}
}

// EmitShutdown notifies all extensions that implement Shutdown.
func (r *Registry) EmitShutdown(ctx context.Context) {
	for _, e := range r.shutdown {
		if err := e.hook.OnShutdown(ctx); err != nil {
			r.logHookError("OnShutdown", e.name, err)
		}
	}
}

// logHookError logs a warning when a lifecycle hook returns an error.
// Hook errors are never propagated.
func (r *Registry) logHookError(hook, extName string, err error) {
	r.logger.Warn("extension hook error",
		slog.String("hook", hook),
		slog.String("extension", extName),
		slog.String("error", err.Error()),
	)
}
