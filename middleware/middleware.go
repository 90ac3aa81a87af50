// Package middleware provides composable middleware for job runs.
// Middleware wraps the run function synchronously and can observe or
// modify execution (recover from panics, log, add tracing, etc.).
package middleware

import (
	"context"

	"github.com/xraph/trigger/job"
	"github.com/xraph/trigger/runio"
)

// Handler is the terminal function that executes job logic.
type Handler func(ctx context.Context) error

// Middleware wraps a Handler with cross-cutting logic.
// It receives the current context, the job being run, and the next
// handler to call. Middleware MUST call next to continue the chain
// (unless short-circuiting on error).
type Middleware func(ctx context.Context, j *job.Job, next Handler) error

// Chain composes multiple middleware into a single Middleware.
// Middleware are applied right-to-left: the first middleware in the
// list is the outermost wrapper.
//
// Example: Chain(logging, recover) executes as:
//
//	logging → recover → handler
func Chain(mws ...Middleware) Middleware {
	return func(ctx context.Context, j *job.Job, next Handler) error {
		h := next
		for i := len(mws) - 1; i >= 0; i-- {
			mw := mws[i]
			prev := h
			h = func(ctx context.Context) error {
				return mw(ctx, j, prev)
			}
		}
		return h(ctx)
	}
}

// Status labels the result of a run for logs and metrics.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusSuspended Status = "suspended"
	StatusError     Status = "error"
)

// StatusOf classifies the error returned by a run.
func StatusOf(err error) Status {
	if err == nil {
		return StatusCompleted
	}
	if _, ok := runio.AsSuspend(err); ok {
		return StatusSuspended
	}
	return StatusError
}

func runID(ctx context.Context) string {
	if rc, ok := runio.RunFromContext(ctx); ok {
		return rc.Run.ID
	}
	return ""
}
