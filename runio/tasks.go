package runio

import (
	"context"
	"encoding/json"
	"time"

	"github.com/xraph/trigger/event"
	"github.com/xraph/trigger/task"
)

// Wait suspends the run for d. The first call creates a noop task with a
// delay; the backend resumes the run once the delay has elapsed.
func (rio *IO) Wait(ctx context.Context, key string, d time.Duration) error {
	until := time.Now().Add(d).UTC()
	_, err := RunTask[struct{}](ctx, rio, key, TaskOptions{
		Name:       "wait",
		Icon:       "clock",
		Noop:       true,
		DelayUntil: &until,
		Params:     map[string]any{"seconds": d.Seconds()},
	}, nil)
	return err
}

// SendEvent publishes an event once per run for key.
func (rio *IO) SendEvent(ctx context.Context, key string, ev event.Send, opts *event.SendOptions) (*event.Record, error) {
	rec, err := RunTask(ctx, rio, key, TaskOptions{Name: "sendEvent", Icon: "send", Params: ev},
		func(ctx context.Context, _ task.Task, _ *IO) (event.Record, error) {
			r, err := rio.api.SendEvent(ctx, ev, opts)
			if err != nil {
				return event.Record{}, err
			}
			return *r, nil
		})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// UpdateSource applies update instructions for the source registered
// under sourceKey.
func (rio *IO) UpdateSource(ctx context.Context, key, sourceKey string, instructions any) (json.RawMessage, error) {
	return RunTask(ctx, rio, key, TaskOptions{Name: "updateSource", Icon: "refresh", Params: instructions},
		func(ctx context.Context, _ task.Task, _ *IO) (json.RawMessage, error) {
			return rio.api.UpdateSource(ctx, sourceKey, instructions)
		})
}

// RegisterTrigger registers a dynamic trigger for one parameter set.
func (rio *IO) RegisterTrigger(ctx context.Context, key, triggerID, registrationKey string, body any) (json.RawMessage, error) {
	return RunTask(ctx, rio, key, TaskOptions{Name: "registerTrigger", Icon: "register-source", Params: body},
		func(ctx context.Context, _ task.Task, _ *IO) (json.RawMessage, error) {
			return rio.api.RegisterTrigger(ctx, triggerID, registrationKey, body)
		})
}

// RegisterSchedule attaches schedule metadata to a dynamic schedule.
func (rio *IO) RegisterSchedule(ctx context.Context, key, scheduleID, registrationKey string, metadata any) (json.RawMessage, error) {
	return RunTask(ctx, rio, key, TaskOptions{Name: "registerSchedule", Icon: "schedule", Params: metadata},
		func(ctx context.Context, _ task.Task, _ *IO) (json.RawMessage, error) {
			return rio.api.RegisterSchedule(ctx, scheduleID, registrationKey, metadata)
		})
}

// UnregisterSchedule removes a registration from a dynamic schedule.
func (rio *IO) UnregisterSchedule(ctx context.Context, key, scheduleID, registrationKey string) error {
	_, err := RunTask(ctx, rio, key, TaskOptions{Name: "unregisterSchedule", Icon: "schedule"},
		func(ctx context.Context, _ task.Task, _ *IO) (struct{}, error) {
			return struct{}{}, rio.api.UnregisterSchedule(ctx, scheduleID, registrationKey)
		})
	return err
}
