package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/trigger/event"
	"github.com/xraph/trigger/ext"
	"github.com/xraph/trigger/job"
	"github.com/xraph/trigger/middleware"
	"github.com/xraph/trigger/runio"
	"github.com/xraph/trigger/task"
)

// errNoRunFunc is reported when a job reaches execution without a body.
var errNoRunFunc = errors.New("job has no run function")

// Executor runs a single job invocation through middleware and the job's
// run function, then classifies the result and emits lifecycle events.
type Executor struct {
	api        runio.API
	extensions *ext.Registry
	mw         middleware.Middleware
	logger     *slog.Logger
}

// NewExecutor creates an Executor with the given dependencies.
func NewExecutor(
	api runio.API,
	extensions *ext.Registry,
	logger *slog.Logger,
	mws ...middleware.Middleware,
) *Executor {
	if extensions == nil {
		extensions = ext.NewRegistry(logger)
	}
	return &Executor{
		api:        api,
		extensions: extensions,
		mw:         middleware.Chain(mws...),
		logger:     logger,
	}
}

// Execute runs j for req.
//
// Job errors, suspensions and panics caught by middleware are reported
// through the returned Outcome. A non-nil error means the invocation could
// not be set up at all.
func (e *Executor) Execute(ctx context.Context, req runio.RunRequest, j *job.Job) (Outcome, error) {
	rc := runio.BuildContext(req)
	rio := runio.New(runio.Options{
		RunID:   req.Run.ID,
		Cache:   task.NewCache(req.Tasks),
		API:     e.api,
		Context: rc,
		Logger:  e.logger,
	})

	if err := rio.Decorate(j.Integrations, req.Connections); err != nil {
		return nil, fmt.Errorf("execute job %q: %w", j.ID, err)
	}

	ctx = runio.WithRun(ctx, rc)
	e.extensions.EmitRunStarted(ctx, j, rc)

	start := time.Now()

	var output any
	terminal := func(ctx context.Context) error {
		if j.Run == nil {
			return errNoRunFunc
		}
		payload, err := ParsePayload(j, req.Event.Payload)
		if err != nil {
			return err
		}
		out, err := j.Run(ctx, payload, rio, rc)
		if err != nil {
			return err
		}
		output = out
		return nil
	}

	err := e.mw(ctx, j, terminal)
	outcome := Classify(output, err)

	switch o := outcome.(type) {
	case Completed:
		e.extensions.EmitRunCompleted(ctx, j, rc, time.Since(start))
	case Suspended:
		e.logger.Debug("job run suspended",
			slog.String("job_id", j.ID),
			slog.String("run_id", rc.Run.ID),
			slog.String("task_id", o.Task.ID),
			slog.Int("cached_tasks", len(req.Tasks)),
		)
		e.extensions.EmitRunSuspended(ctx, j, rc, o.Task)
	case CompletedWithError:
		e.extensions.EmitRunFailed(ctx, j, rc, err)
	}

	return outcome, nil
}

// ParsePayload decodes raw through the event specification of j's trigger.
// A job without a specification receives the payload as a generic JSON value.
func ParsePayload(j *job.Job, raw json.RawMessage) (any, error) {
	spec := &event.Specification{}
	if j.Trigger != nil {
		if s := j.Trigger.EventSpecification(); s != nil {
			spec = s
		}
	}
	return spec.ParsePayload(raw)
}
