package job

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/xraph/trigger/event"
	"github.com/xraph/trigger/integration"
	"github.com/xraph/trigger/runio"
	"github.com/xraph/trigger/source"
)

// Attacher receives trigger-specific attachments. The engine implements it.
type Attacher interface {
	AttachJobToDynamicTrigger(j *Job, t *DynamicTrigger)
}

// Trigger starts a job. The set of triggers is closed: *EventTrigger and
// *DynamicTrigger.
type Trigger interface {
	// EventSpecification describes the payload the job receives.
	EventSpecification() *event.Specification
	// Descriptor is the serialized form used in the job index.
	Descriptor() TriggerDescriptor
	// AttachToJob performs trigger-specific attachment of j.
	AttachToJob(a Attacher, j *Job)

	sealed()
}

// TriggerDescriptor is the serialized form of a trigger.
type TriggerDescriptor struct {
	Type  string      `json:"type"`
	Title string      `json:"title,omitempty"`
	Rule  *event.Rule `json:"rule,omitempty"`
	ID    string      `json:"id,omitempty"`
}

// Trigger types reported in descriptors.
const (
	TriggerStatic  = "static"
	TriggerDynamic = "dynamic"
)

// ──────────────────────────────────────────────────
// EventTrigger
// ──────────────────────────────────────────────────

// EventTrigger starts a job when an event matching Event and Filter is
// delivered.
type EventTrigger struct {
	Event  *event.Specification
	Filter event.Filter
}

// NewEventTrigger creates an event trigger.
func NewEventTrigger(spec *event.Specification, filter event.Filter) *EventTrigger {
	return &EventTrigger{Event: spec, Filter: filter}
}

func (t *EventTrigger) EventSpecification() *event.Specification { return t.Event }

// Descriptor omits the title and rule when t has no specification.
func (t *EventTrigger) Descriptor() TriggerDescriptor {
	d := TriggerDescriptor{Type: TriggerStatic}
	if t.Event == nil {
		return d
	}
	d.Title = t.Event.Title
	d.Rule = &event.Rule{
		Event:   t.Event.Name,
		Source:  t.Event.Source,
		Payload: t.Filter,
	}
	return d
}

// AttachToJob is a no-op: the backend matches event triggers on its own.
func (t *EventTrigger) AttachToJob(Attacher, *Job) {}

func (*EventTrigger) sealed() {}

// ──────────────────────────────────────────────────
// DynamicTrigger
// ──────────────────────────────────────────────────

// DynamicTrigger starts jobs from an external source whose parameters are
// supplied at runtime through Register.
type DynamicTrigger struct {
	ID     string
	Source source.ExternalSource
	Event  *event.Specification
	Filter event.Filter
}

// NewDynamicTrigger creates a dynamic trigger.
func NewDynamicTrigger(id string, src source.ExternalSource, spec *event.Specification, filter event.Filter) *DynamicTrigger {
	return &DynamicTrigger{ID: id, Source: src, Event: spec, Filter: filter}
}

func (t *DynamicTrigger) EventSpecification() *event.Specification { return t.Event }

func (t *DynamicTrigger) Descriptor() TriggerDescriptor {
	return TriggerDescriptor{Type: TriggerDynamic, ID: t.ID}
}

// AttachToJob records j against t.
func (t *DynamicTrigger) AttachToJob(a Attacher, j *Job) {
	a.AttachJobToDynamicTrigger(j, t)
}

func (*DynamicTrigger) sealed() {}

// RegisterSourceBody describes the source of a trigger registration.
type RegisterSourceBody struct {
	Key         string                  `json:"key"`
	Channel     string                  `json:"channel"`
	Params      json.RawMessage         `json:"params,omitempty"`
	Events      []string                `json:"events"`
	ClientID    string                  `json:"clientId,omitempty"`
	Integration *integration.Descriptor `json:"integration,omitempty"`
}

// RegisterTriggerBody is a concrete registration of a dynamic trigger.
type RegisterTriggerBody struct {
	Rule   event.Rule         `json:"rule"`
	Source RegisterSourceBody `json:"source"`
}

// RegisteredTriggerForParams materializes the registration of t for one
// parameter set. Without a specification the rule names no event.
func (t *DynamicTrigger) RegisteredTriggerForParams(params json.RawMessage) RegisterTriggerBody {
	body := RegisterTriggerBody{
		Rule: event.Rule{Payload: t.Filter},
		Source: RegisterSourceBody{
			Key:     Slug(t.Source.Key(params)),
			Channel: t.Source.Channel(),
			Params:  params,
			Events:  []string{},
		},
	}
	if t.Event != nil {
		body.Rule.Event = t.Event.Name
		body.Rule.Source = t.Event.Source
		body.Source.Events = []string{t.Event.Name}
	}
	if in := t.Source.Integration(); in != nil {
		d := integration.Describe(in)
		body.Source.Integration = &d
		if !in.UsesLocalAuth() {
			body.Source.ClientID = in.ID()
		}
	}
	return body
}

// Register registers t for params under key. It runs as a task of the
// calling job, so it happens once per key and run.
func (t *DynamicTrigger) Register(ctx context.Context, rio *runio.IO, key string, params json.RawMessage) (json.RawMessage, error) {
	body := t.RegisteredTriggerForParams(params)
	return rio.RegisterTrigger(ctx, "register-trigger-"+key, t.ID, key, body)
}

// Slug lower-cases s and replaces characters outside [a-z0-9._-] with '-'.
func Slug(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return b.String()
}
