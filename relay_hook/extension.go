package relayhook

import (
	"context"
	"time"

	"github.com/xraph/trigger/event"
	"github.com/xraph/trigger/ext"
	"github.com/xraph/trigger/job"
	"github.com/xraph/trigger/runio"
	"github.com/xraph/trigger/source"
	"github.com/xraph/trigger/task"
)

// Compile-time interface checks.
var (
	_ ext.Extension          = (*Extension)(nil)
	_ ext.EndpointRegistered = (*Extension)(nil)
	_ ext.RunCompleted       = (*Extension)(nil)
	_ ext.RunSuspended       = (*Extension)(nil)
	_ ext.RunFailed          = (*Extension)(nil)
	_ ext.SourceDelivered    = (*Extension)(nil)
)

// Sender publishes events to the backend. *client.Client satisfies it.
type Sender interface {
	SendEvent(ctx context.Context, ev event.Send, opts *event.SendOptions) (*event.Record, error)
}

// Extension relays endpoint lifecycle events to the backend. Each
// lifecycle hook sends a typed event via [Sender.SendEvent].
type Extension struct {
	sender   Sender
	enabled  map[string]bool        // nil = all enabled
	payloads map[string]PayloadFunc // custom payload builders
}

// New creates an Extension that sends lifecycle events through s.
func New(s Sender, opts ...Option) *Extension {
	h := &Extension{sender: s}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Name implements ext.Extension.
func (h *Extension) Name() string { return "relay-hook" }

// OnEndpointRegistered implements ext.EndpointRegistered.
func (h *Extension) OnEndpointRegistered(ctx context.Context, url string) error {
	return h.send(ctx, EventEndpointRegistered, nil, &EndpointPayload{URL: url})
}

// ── Run lifecycle hooks ─────────────────────────────

// OnRunCompleted implements ext.RunCompleted.
func (h *Extension) OnRunCompleted(ctx context.Context, j *job.Job, rc *runio.Context, elapsed time.Duration) error {
	if j.Internal {
		return nil
	}
	return h.send(ctx, EventRunCompleted, rc, &RunCompletedPayload{
		RunPayload: newRunPayload(j, rc),
		ElapsedMs:  elapsed.Milliseconds(),
	})
}

// OnRunSuspended implements ext.RunSuspended.
func (h *Extension) OnRunSuspended(ctx context.Context, j *job.Job, rc *runio.Context, t task.Task) error {
	if j.Internal {
		return nil
	}
	return h.send(ctx, EventRunSuspended, rc, &RunSuspendedPayload{
		RunPayload: newRunPayload(j, rc),
		TaskID:     t.ID,
		TaskStatus: string(t.Status),
	})
}

// OnRunFailed implements ext.RunFailed.
func (h *Extension) OnRunFailed(ctx context.Context, j *job.Job, rc *runio.Context, runErr error) error {
	if j.Internal {
		return nil
	}
	return h.send(ctx, EventRunFailed, rc, &RunFailedPayload{
		RunPayload: newRunPayload(j, rc),
		Error:      runErr.Error(),
	})
}

// OnSourceDelivered implements ext.SourceDelivered.
func (h *Extension) OnSourceDelivered(ctx context.Context, d source.Descriptor, events int) error {
	return h.send(ctx, EventSourceDelivered, nil, &SourcePayload{
		Key:       d.Key,
		DynamicID: d.DynamicID,
		Events:    events,
	})
}

// send builds and sends an event if the name is enabled. The account of
// the run, if any, is forwarded with the event.
func (h *Extension) send(ctx context.Context, name string, rc *runio.Context, defaultData any) error {
	if h.enabled != nil && !h.enabled[name] {
		return nil
	}

	data := defaultData
	if fn, ok := h.payloads[name]; ok {
		custom, err := fn(defaultData)
		if err != nil {
			return err
		}
		data = custom
	}

	var opts *event.SendOptions
	if rc != nil && rc.Account != nil {
		opts = &event.SendOptions{AccountID: rc.Account.ID}
	}

	_, err := h.sender.SendEvent(ctx, event.Send{
		Name:    name,
		Source:  Source,
		Payload: data,
	}, opts)
	return err
}

// ── Default payload types ───────────────────────────

// EndpointPayload is the payload of EventEndpointRegistered.
type EndpointPayload struct {
	URL string `json:"url"`
}

// RunPayload identifies the run an event is about.
type RunPayload struct {
	RunID      string `json:"run_id"`
	JobID      string `json:"job_id"`
	JobVersion string `json:"job_version"`
	Event      string `json:"event"`
	IsTest     bool   `json:"is_test,omitempty"`
}

func newRunPayload(j *job.Job, rc *runio.Context) RunPayload {
	return RunPayload{
		RunID:      rc.Run.ID,
		JobID:      j.ID,
		JobVersion: j.Version,
		Event:      rc.Event.Name,
		IsTest:     rc.Run.IsTest,
	}
}

// RunCompletedPayload is the payload of EventRunCompleted.
type RunCompletedPayload struct {
	RunPayload
	ElapsedMs int64 `json:"elapsed_ms"`
}

// RunSuspendedPayload is the payload of EventRunSuspended.
type RunSuspendedPayload struct {
	RunPayload
	TaskID     string `json:"task_id"`
	TaskStatus string `json:"task_status"`
}

// RunFailedPayload is the payload of EventRunFailed.
type RunFailedPayload struct {
	RunPayload
	Error string `json:"error"`
}

// SourcePayload is the payload of EventSourceDelivered.
type SourcePayload struct {
	Key       string `json:"key"`
	DynamicID string `json:"dynamic_id,omitempty"`
	Events    int    `json:"events"`
}
