// Package source describes external event feeds, typically webhooks: how a
// source registers itself with its origin and how an inbound delivery is
// turned into events.
package source

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/xraph/trigger/event"
	"github.com/xraph/trigger/integration"
	"github.com/xraph/trigger/runio"
)

// ChannelHTTP is the delivery channel of webhook sources.
const ChannelHTTP = "HTTP"

// Request is an inbound webhook delivery as forwarded by the backend.
type Request struct {
	URL     string
	Method  string
	Headers map[string]string
	RawBody []byte
}

// Descriptor identifies the registered source a delivery belongs to.
type Descriptor struct {
	Key       string          `json:"key"`
	Secret    string          `json:"secret,omitempty"`
	DynamicID string          `json:"dynamicId,omitempty"`
	Params    json.RawMessage `json:"params,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// Response is sent back to the webhook origin.
type Response struct {
	Status  int               `json:"status"`
	Body    any               `json:"body,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
}

// HandleResult is what a source produces from one delivery. A nil
// Response means the default acknowledgement.
type HandleResult struct {
	Events   []event.Send
	Response *Response
}

// DeliveryResult is the response body of a delivery request.
type DeliveryResult struct {
	Events   []event.Send `json:"events"`
	Response Response     `json:"response"`
}

// DefaultResponse is the acknowledgement sent when a source has nothing
// to say to the origin.
func DefaultResponse() Response {
	return Response{Status: http.StatusOK, Body: map[string]any{"ok": true}}
}

// Acknowledge returns a delivery result with no events and the default
// response.
func Acknowledge() DeliveryResult {
	return DeliveryResult{Events: []event.Send{}, Response: DefaultResponse()}
}

// Delivery normalizes r into a delivery result.
func (r *HandleResult) Delivery() DeliveryResult {
	if r == nil {
		return Acknowledge()
	}
	out := DeliveryResult{Events: r.Events, Response: DefaultResponse()}
	if out.Events == nil {
		out.Events = []event.Send{}
	}
	if r.Response != nil {
		out.Response = *r.Response
	}
	return out
}

// UpdateInstructions are returned by Register when the backend must
// change what it stored about a source.
type UpdateInstructions struct {
	Events  []string        `json:"events"`
	Secret  string          `json:"secret,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Options json.RawMessage `json:"options,omitempty"`
}

// ExternalSource is implemented by webhook sources.
//
// Register is run as a job whenever the backend asks the source to
// (re)register with its origin. Handle turns one delivery into events.
type ExternalSource interface {
	Key(params json.RawMessage) string
	Channel() string
	Version() string
	Integration() integration.Integration
	Register(ctx context.Context, params json.RawMessage, ev *event.RegisterSourcePayload, rio *runio.IO, rc *runio.Context) (*UpdateInstructions, error)
	Handle(ctx context.Context, d Descriptor, req Request, logger *slog.Logger) (*HandleResult, error)
}

// Handler is the delivery entry point stored in the registry.
type Handler func(ctx context.Context, d Descriptor, req Request, logger *slog.Logger) (*HandleResult, error)

// RegisterFunc implements ExternalSource.Register for HTTPSource.
type RegisterFunc func(ctx context.Context, params json.RawMessage, ev *event.RegisterSourcePayload, rio *runio.IO, rc *runio.Context) (*UpdateInstructions, error)

// HTTPSource is an ExternalSource built from functions.
type HTTPSource struct {
	ID         string
	Ver        string
	Integ      integration.Integration
	KeyFunc    func(params json.RawMessage) string
	OnRegister RegisterFunc
	OnHandle   Handler
}

var _ ExternalSource = (*HTTPSource)(nil)

// Key returns the source key for params: ID, or ID.suffix when KeyFunc
// is set.
func (s *HTTPSource) Key(params json.RawMessage) string {
	if s.KeyFunc == nil {
		return s.ID
	}
	if suffix := s.KeyFunc(params); suffix != "" {
		return s.ID + "." + suffix
	}
	return s.ID
}

func (s *HTTPSource) Channel() string                      { return ChannelHTTP }
func (s *HTTPSource) Version() string                      { return s.Ver }
func (s *HTTPSource) Integration() integration.Integration { return s.Integ }

// Register calls OnRegister. Without one there is nothing to update.
func (s *HTTPSource) Register(ctx context.Context, params json.RawMessage, ev *event.RegisterSourcePayload, rio *runio.IO, rc *runio.Context) (*UpdateInstructions, error) {
	if s.OnRegister == nil {
		return nil, nil
	}
	return s.OnRegister(ctx, params, ev, rio, rc)
}

// Handle calls OnHandle. Without one every delivery is acknowledged.
func (s *HTTPSource) Handle(ctx context.Context, d Descriptor, req Request, logger *slog.Logger) (*HandleResult, error) {
	if s.OnHandle == nil {
		return nil, nil
	}
	return s.OnHandle(ctx, d, req, logger)
}

// Metadata is the registry entry of a source as reported in the index.
type Metadata struct {
	Channel     string                  `json:"channel"`
	Key         string                  `json:"key"`
	Params      json.RawMessage         `json:"params,omitempty"`
	Events      []string                `json:"events"`
	ClientID    string                  `json:"clientId,omitempty"`
	Integration *integration.Descriptor `json:"integration,omitempty"`
}

// AttachOptions describe a static source attachment.
type AttachOptions struct {
	Key    string
	Source ExternalSource
	Event  *event.Specification
	Params json.RawMessage
}

// MetadataFor builds the metadata of a source attached with opts. The
// client id is only set for integrations the backend authenticates.
func MetadataFor(opts AttachOptions) Metadata {
	m := Metadata{
		Channel: opts.Source.Channel(),
		Key:     opts.Key,
		Params:  opts.Params,
	}
	if in := opts.Source.Integration(); in != nil {
		d := integration.Describe(in)
		m.Integration = &d
		if !in.UsesLocalAuth() {
			m.ClientID = in.ID()
		}
	}
	if opts.Event != nil {
		m.Events = []string{opts.Event.Name}
	}
	return m
}
