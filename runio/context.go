package runio

import (
	"context"
	"encoding/json"
	"time"

	"github.com/xraph/trigger/event"
	"github.com/xraph/trigger/integration"
	"github.com/xraph/trigger/task"
)

// JobRef identifies the job version a run belongs to.
type JobRef struct {
	ID      string `json:"id"`
	Version string `json:"version"`
}

// Run identifies one run of a job.
type Run struct {
	ID        string     `json:"id"`
	IsTest    bool       `json:"isTest"`
	StartedAt *time.Time `json:"startedAt,omitempty"`
}

// Environment is the backend environment the run executes in.
type Environment struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
	Type string `json:"type"`
}

// Organization owns the environment.
type Organization struct {
	ID    string `json:"id"`
	Slug  string `json:"slug"`
	Title string `json:"title"`
}

// Account is the end-user account a run was triggered for, if any.
type Account struct {
	ID       string          `json:"id"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
}

// RunRequest is the body of an execute request.
type RunRequest struct {
	Event        event.Record                      `json:"event"`
	Job          JobRef                            `json:"job"`
	Run          Run                               `json:"run"`
	Environment  Environment                       `json:"environment"`
	Organization Organization                      `json:"organization"`
	Account      *Account                          `json:"account,omitempty"`
	Connections  map[string]integration.Connection `json:"connections,omitempty"`
	Tasks        []task.Task                       `json:"tasks,omitempty"`
}

// PreprocessRequest is the body of a preprocess request. It carries no
// tasks or connections.
type PreprocessRequest struct {
	Event        event.Record `json:"event"`
	Job          JobRef       `json:"job"`
	Run          Run          `json:"run"`
	Environment  Environment  `json:"environment"`
	Organization Organization `json:"organization"`
	Account      *Account     `json:"account,omitempty"`
}

// EventContext is the event as job code sees it. The payload is handed to
// the run function separately, already parsed.
type EventContext struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Context   json.RawMessage `json:"context,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Context is the execution context passed to job code.
type Context struct {
	Event        EventContext `json:"event"`
	Job          JobRef       `json:"job"`
	Run          Run          `json:"run"`
	Environment  Environment  `json:"environment"`
	Organization Organization `json:"organization"`
	Account      *Account     `json:"account,omitempty"`
}

// BuildContext projects a run request onto the context visible to job code.
func BuildContext(req RunRequest) *Context {
	return &Context{
		Event:        eventContext(req.Event),
		Job:          req.Job,
		Run:          req.Run,
		Environment:  req.Environment,
		Organization: req.Organization,
		Account:      req.Account,
	}
}

// BuildPreprocessContext projects a preprocess request the same way.
func BuildPreprocessContext(req PreprocessRequest) *Context {
	return &Context{
		Event:        eventContext(req.Event),
		Job:          req.Job,
		Run:          req.Run,
		Environment:  req.Environment,
		Organization: req.Organization,
		Account:      req.Account,
	}
}

func eventContext(r event.Record) EventContext {
	return EventContext{
		ID:        r.ID,
		Name:      r.Name,
		Context:   r.Context,
		Timestamp: r.Timestamp,
	}
}

type ctxKey struct{}

// WithRun returns a copy of ctx carrying rc.
func WithRun(ctx context.Context, rc *Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, rc)
}

// RunFromContext returns the execution context stored by WithRun.
func RunFromContext(ctx context.Context) (*Context, bool) {
	rc, ok := ctx.Value(ctxKey{}).(*Context)
	return rc, ok && rc != nil
}
