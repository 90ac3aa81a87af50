// Package backendtest provides an in-memory backend for tests. It answers
// every call the endpoint makes to the backend and records them.
package backendtest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/xraph/trigger/client"
	"github.com/xraph/trigger/event"
	"github.com/xraph/trigger/task"
)

// SourceUpdate is one recorded UpdateSource call.
type SourceUpdate struct {
	Key          string
	Instructions any
}

// Registration is one recorded trigger or schedule registration.
type Registration struct {
	ID   string
	Key  string
	Body any
}

// Backend is a recording fake of the backend API.
type Backend struct {
	mu sync.Mutex

	// TaskStatus is the status RunTask reports for new tasks. Empty means
	// RUNNING, so the task body executes.
	TaskStatus task.Status

	// RegisterErr, when set, is returned by RegisterEndpoint.
	RegisterErr error

	endpoints     []client.EndpointRegistration
	runTasks      []client.RunTaskRequest
	completed     []string
	failed        []client.TaskError
	events        []event.Send
	sourceUpdates []SourceUpdate
	triggers      []Registration
	schedules     []Registration
	unregistered  []Registration
}

// New returns an empty backend.
func New() *Backend { return &Backend{} }

func (b *Backend) RegisterEndpoint(_ context.Context, reg client.EndpointRegistration) (json.RawMessage, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.RegisterErr != nil {
		return nil, b.RegisterErr
	}
	b.endpoints = append(b.endpoints, reg)
	return json.RawMessage(fmt.Sprintf(`{"ok":true,"url":%q}`, reg.URL)), nil
}

func (b *Backend) RunTask(_ context.Context, _ string, req client.RunTaskRequest) (task.Task, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.runTasks = append(b.runTasks, req)
	status := b.TaskStatus
	if status == "" {
		status = task.StatusRunning
	}
	return task.Task{
		ID:             "task_" + req.DisplayKey,
		Name:           req.Name,
		IdempotencyKey: req.IdempotencyKey,
		Status:         status,
		Noop:           req.Noop,
		DelayUntil:     req.DelayUntil,
		ParentID:       req.ParentID,
	}, nil
}

func (b *Backend) CompleteTask(_ context.Context, _, taskID string, output any) (task.Task, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.completed = append(b.completed, taskID)
	raw, err := json.Marshal(output)
	if err != nil {
		return task.Task{}, err
	}
	return task.Task{ID: taskID, Status: task.StatusCompleted, Output: raw}, nil
}

func (b *Backend) FailTask(_ context.Context, _, taskID string, taskErr client.TaskError) (task.Task, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failed = append(b.failed, taskErr)
	return task.Task{ID: taskID, Status: task.StatusErrored, Error: taskErr.Message}, nil
}

func (b *Backend) SendEvent(_ context.Context, ev event.Send, _ *event.SendOptions) (*event.Record, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, ev)
	return &event.Record{ID: fmt.Sprintf("evt_%d", len(b.events)), Name: ev.Name, Source: ev.Source}, nil
}

func (b *Backend) UpdateSource(_ context.Context, key string, instructions any) (json.RawMessage, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sourceUpdates = append(b.sourceUpdates, SourceUpdate{Key: key, Instructions: instructions})
	return json.RawMessage(`{"ok":true}`), nil
}

func (b *Backend) RegisterTrigger(_ context.Context, id, key string, body any) (json.RawMessage, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.triggers = append(b.triggers, Registration{ID: id, Key: key, Body: body})
	return json.RawMessage(`{"ok":true}`), nil
}

func (b *Backend) RegisterSchedule(_ context.Context, id, key string, metadata any) (json.RawMessage, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.schedules = append(b.schedules, Registration{ID: id, Key: key, Body: metadata})
	return json.RawMessage(`{"ok":true}`), nil
}

func (b *Backend) UnregisterSchedule(_ context.Context, id, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.unregistered = append(b.unregistered, Registration{ID: id, Key: key})
	return nil
}

// Endpoints returns the recorded endpoint registrations.
func (b *Backend) Endpoints() []client.EndpointRegistration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]client.EndpointRegistration(nil), b.endpoints...)
}

// RunTasks returns the recorded task requests.
func (b *Backend) RunTasks() []client.RunTaskRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]client.RunTaskRequest(nil), b.runTasks...)
}

// Completed returns the ids of completed tasks.
func (b *Backend) Completed() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.completed...)
}

// Failed returns the recorded task failures.
func (b *Backend) Failed() []client.TaskError {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]client.TaskError(nil), b.failed...)
}

// Events returns the events sent.
func (b *Backend) Events() []event.Send {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]event.Send(nil), b.events...)
}

// SourceUpdates returns the recorded source updates.
func (b *Backend) SourceUpdates() []SourceUpdate {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]SourceUpdate(nil), b.sourceUpdates...)
}

// Triggers returns the recorded trigger registrations.
func (b *Backend) Triggers() []Registration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Registration(nil), b.triggers...)
}

// Schedules returns the recorded schedule registrations.
func (b *Backend) Schedules() []Registration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Registration(nil), b.schedules...)
}

// Calls returns the total number of recorded calls.
func (b *Backend) Calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.endpoints) + len(b.runTasks) + len(b.completed) + len(b.failed) +
		len(b.events) + len(b.sourceUpdates) + len(b.triggers) + len(b.schedules) + len(b.unregistered)
}
