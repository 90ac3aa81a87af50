// Package runio provides what job code receives on every run: the IO
// handle for side effects and the execution Context.
//
// Side effects go through IO.RunTask (or one of the helpers built on it).
// Each task is identified by an idempotency key derived from the run id,
// the parent task and a caller-chosen key. When the run request's task
// cache already holds a completed task with that key, its output is
// returned and the side effect is skipped. When the backend reports the
// task as waiting, the run stops with a *SuspendError and is invoked again
// later with a larger cache.
package runio

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/xraph/trigger/client"
	"github.com/xraph/trigger/event"
	"github.com/xraph/trigger/integration"
	"github.com/xraph/trigger/task"
)

// API is the backend surface used by IO. *client.Client satisfies it.
type API interface {
	RunTask(ctx context.Context, runID string, req client.RunTaskRequest) (task.Task, error)
	CompleteTask(ctx context.Context, runID, taskID string, output any) (task.Task, error)
	FailTask(ctx context.Context, runID, taskID string, taskErr client.TaskError) (task.Task, error)
	SendEvent(ctx context.Context, ev event.Send, opts *event.SendOptions) (*event.Record, error)
	UpdateSource(ctx context.Context, key string, instructions any) (json.RawMessage, error)
	RegisterTrigger(ctx context.Context, id, key string, body any) (json.RawMessage, error)
	RegisterSchedule(ctx context.Context, id, key string, metadata any) (json.RawMessage, error)
	UnregisterSchedule(ctx context.Context, id, key string) error
}

var _ API = (*client.Client)(nil)

// Options configures a new IO.
type Options struct {
	RunID   string
	Cache   *task.Cache
	API     API
	Context *Context
	Logger  *slog.Logger
}

// IO is the side-effect handle of one run.
type IO struct {
	runID    string
	parentID string
	cache    *task.Cache
	api      API
	rc       *Context
	logger   *slog.Logger
	clients  *clientSet
}

type clientSet struct {
	mu sync.RWMutex
	m  map[string]any
}

// New creates the IO for a run. A nil cache starts empty.
func New(opts Options) *IO {
	cache := opts.Cache
	if cache == nil {
		cache = task.NewCache(nil)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &IO{
		runID:   opts.RunID,
		cache:   cache,
		api:     opts.API,
		rc:      opts.Context,
		logger:  logger.With(slog.String("run_id", opts.RunID)),
		clients: &clientSet{m: make(map[string]any)},
	}
}

// RunID returns the id of the run.
func (rio *IO) RunID() string { return rio.runID }

// Context returns the execution context of the run.
func (rio *IO) Context() *Context { return rio.rc }

// Logger returns a logger annotated with the run id.
func (rio *IO) Logger() *slog.Logger { return rio.logger }

// Tasks returns the task cache in its current state.
func (rio *IO) Tasks() []task.Task { return rio.cache.Tasks() }

// child returns an IO whose tasks are nested under parentID.
func (rio *IO) child(parentID string) *IO {
	c := *rio
	c.parentID = parentID
	return &c
}

// Decorate binds an API client for each integration the job declares.
// Hosted integrations receive the connection sent with the run request.
func (rio *IO) Decorate(integrations map[string]integration.Integration, conns map[string]integration.Connection) error {
	rio.clients.mu.Lock()
	defer rio.clients.mu.Unlock()
	for key, in := range integrations {
		var conn *integration.Connection
		if !in.UsesLocalAuth() {
			if c, ok := conns[key]; ok {
				conn = &c
			}
		}
		cl, err := in.Client(conn)
		if err != nil {
			return fmt.Errorf("decorate integration %q: %w", key, err)
		}
		rio.clients.m[key] = cl
	}
	return nil
}

// Integration returns the client bound for key by Decorate.
func (rio *IO) Integration(key string) (any, bool) {
	rio.clients.mu.RLock()
	defer rio.clients.mu.RUnlock()
	c, ok := rio.clients.m[key]
	return c, ok
}

// IntegrationClient returns the client bound for key as a T.
func IntegrationClient[T any](rio *IO, key string) (T, error) {
	var zero T
	c, ok := rio.Integration(key)
	if !ok {
		return zero, fmt.Errorf("integration %q not bound", key)
	}
	t, ok := c.(T)
	if !ok {
		return zero, fmt.Errorf("integration %q: client is %T", key, c)
	}
	return t, nil
}

// TaskOptions describes a task to the backend.
type TaskOptions struct {
	Name       string
	Icon       string
	Params     any
	Noop       bool
	DelayUntil *time.Time
}

// TaskFunc performs the side effect of a task. The IO it receives nests
// further tasks under t.
type TaskFunc[T any] func(ctx context.Context, t task.Task, rio *IO) (T, error)

// RunTask runs fn as the task identified by key, or replays it from the
// cache. It returns a *SuspendError when the backend reports the task as
// waiting, and a *TaskFailedError when the task already failed.
//
// This is a package-level generic function because Go does not allow
// generic methods.
func RunTask[T any](ctx context.Context, rio *IO, key string, opts TaskOptions, fn TaskFunc[T]) (T, error) {
	var zero T
	idem := task.IdempotencyKey(rio.parentID, rio.runID, key)

	if cached, ok := rio.cache.Get(idem); ok && cached.Completed() {
		rio.logger.Debug("replaying cached task",
			slog.String("task_id", cached.ID),
			slog.String("key", key),
		)
		return decodeOutput[T](cached)
	}

	name := opts.Name
	if name == "" {
		name = key
	}
	t, err := rio.api.RunTask(ctx, rio.runID, client.RunTaskRequest{
		IdempotencyKey: idem,
		DisplayKey:     key,
		Name:           name,
		Icon:           opts.Icon,
		Noop:           opts.Noop,
		DelayUntil:     opts.DelayUntil,
		Params:         opts.Params,
		ParentID:       rio.parentID,
	})
	if err != nil {
		return zero, fmt.Errorf("run task %q: %w", key, err)
	}
	if t.IdempotencyKey == "" {
		t.IdempotencyKey = idem
	}
	rio.cache.Put(t)

	switch {
	case t.Status == task.StatusCompleted:
		return decodeOutput[T](t)
	case t.Status == task.StatusErrored || t.Status == task.StatusCanceled:
		return zero, &TaskFailedError{Task: t}
	case t.Status == task.StatusWaiting || opts.Noop:
		rio.logger.Debug("suspending on task",
			slog.String("task_id", t.ID),
			slog.String("key", key),
			slog.String("status", string(t.Status)),
		)
		return zero, &SuspendError{Task: t}
	}

	var out T
	if fn != nil {
		out, err = fn(ctx, t, rio.child(t.ID))
	}
	if err != nil {
		if _, ok := AsSuspend(err); ok {
			return zero, err
		}
		if _, failErr := rio.api.FailTask(ctx, rio.runID, t.ID, DescribeError(err)); failErr != nil {
			rio.logger.Warn("failed to record task failure",
				slog.String("task_id", t.ID),
				slog.String("error", failErr.Error()),
			)
		}
		return zero, err
	}

	done, err := rio.api.CompleteTask(ctx, rio.runID, t.ID, out)
	if err != nil {
		return zero, fmt.Errorf("complete task %q: %w", key, err)
	}
	if done.IdempotencyKey == "" {
		done = t
		done.Status = task.StatusCompleted
		if raw, mErr := json.Marshal(out); mErr == nil {
			done.Output = raw
		}
	}
	rio.cache.Put(done)
	return out, nil
}

func decodeOutput[T any](t task.Task) (T, error) {
	var v T
	if len(t.Output) == 0 || string(t.Output) == "null" {
		return v, nil
	}
	if err := json.Unmarshal(t.Output, &v); err != nil {
		return v, fmt.Errorf("decode output of task %q: %w", t.ID, err)
	}
	return v, nil
}

// DescribeError renders err for the backend. The stack is included when
// any error in the chain carries one.
func DescribeError(err error) client.TaskError {
	if err == nil {
		return client.TaskError{}
	}
	te := client.TaskError{Message: err.Error()}
	for e := err; e != nil; e = errors.UnwrapOnce(e) {
		if errors.GetReportableStackTrace(e) != nil {
			te.Stack = fmt.Sprintf("%+v", err)
			break
		}
	}
	return te
}
