package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/xraph/trigger/event"
	"github.com/xraph/trigger/task"
)

// EndpointRegistration announces this endpoint to the backend.
type EndpointRegistration struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// RunTaskRequest asks the backend to start, or look up, a task.
type RunTaskRequest struct {
	IdempotencyKey string     `json:"idempotencyKey"`
	DisplayKey     string     `json:"displayKey,omitempty"`
	Name           string     `json:"name"`
	Icon           string     `json:"icon,omitempty"`
	Noop           bool       `json:"noop"`
	DelayUntil     *time.Time `json:"delayUntil,omitempty"`
	Params         any        `json:"params,omitempty"`
	ParentID       string     `json:"parentId,omitempty"`
}

// TaskError is the failure recorded against a task.
type TaskError struct {
	Message string `json:"message"`
	Name    string `json:"name,omitempty"`
	Stack   string `json:"stack,omitempty"`
}

type sendEventBody struct {
	Event   event.Send         `json:"event"`
	Options *event.SendOptions `json:"options,omitempty"`
}

// RegisterEndpoint registers the endpoint URL and returns the backend's
// response verbatim.
func (c *Client) RegisterEndpoint(ctx context.Context, reg EndpointRegistration) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/api/v1/endpoints", reg, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RegisterTrigger registers a dynamic trigger under key.
func (c *Client) RegisterTrigger(ctx context.Context, id, key string, body any) (json.RawMessage, error) {
	var out json.RawMessage
	path := "/api/v1/triggers/" + url.PathEscape(id) + "/registrations/" + url.PathEscape(key)
	if err := c.do(ctx, http.MethodPut, path, body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RegisterSchedule attaches schedule metadata to the dynamic schedule id
// under key.
func (c *Client) RegisterSchedule(ctx context.Context, id, key string, metadata any) (json.RawMessage, error) {
	in := map[string]any{"id": key, "metadata": metadata}
	var out json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/api/v1/schedules/"+url.PathEscape(id)+"/registrations", in, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UnregisterSchedule removes the registration key from dynamic schedule id.
func (c *Client) UnregisterSchedule(ctx context.Context, id, key string) error {
	path := "/api/v1/schedules/" + url.PathEscape(id) + "/registrations/" + url.PathEscape(key)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// SendEvent publishes an event and returns the stored record.
func (c *Client) SendEvent(ctx context.Context, ev event.Send, opts *event.SendOptions) (*event.Record, error) {
	var rec event.Record
	if err := c.do(ctx, http.MethodPost, "/api/v1/events", sendEventBody{Event: ev, Options: opts}, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// UpdateSource applies source update instructions returned by a source's
// register operation.
func (c *Client) UpdateSource(ctx context.Context, key string, instructions any) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.do(ctx, http.MethodPut, "/api/v1/sources/"+url.PathEscape(key), instructions, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RunTask starts a task for runID, or returns the existing one with the
// same idempotency key.
func (c *Client) RunTask(ctx context.Context, runID string, req RunTaskRequest) (task.Task, error) {
	var t task.Task
	err := c.do(ctx, http.MethodPost, "/api/v1/runs/"+url.PathEscape(runID)+"/tasks", req, &t)
	return t, err
}

// CompleteTask records the output of a task.
func (c *Client) CompleteTask(ctx context.Context, runID, taskID string, output any) (task.Task, error) {
	var t task.Task
	path := "/api/v1/runs/" + url.PathEscape(runID) + "/tasks/" + url.PathEscape(taskID) + "/complete"
	err := c.do(ctx, http.MethodPost, path, map[string]any{"output": output}, &t)
	return t, err
}

// FailTask records a task failure.
func (c *Client) FailTask(ctx context.Context, runID, taskID string, taskErr TaskError) (task.Task, error) {
	var t task.Task
	path := "/api/v1/runs/" + url.PathEscape(runID) + "/tasks/" + url.PathEscape(taskID) + "/fail"
	err := c.do(ctx, http.MethodPost, path, map[string]any{"error": taskErr}, &t)
	return t, err
}
