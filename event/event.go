// Package event describes what starts a job: event specifications with
// payload parsing, filters, event records sent to and received from the
// backend, and the internal event used to register webhook sources.
package event

import (
	"encoding/json"
	"time"
)

// Record is an event as the backend delivers it inside a run request, or
// as a source handler produces it from a webhook delivery.
type Record struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Context   json.RawMessage `json:"context,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Source    string          `json:"source,omitempty"`
}

// Send is an event emitted by application code or a source handler.
// Zero ID and Timestamp are filled in by the backend.
type Send struct {
	ID        string     `json:"id,omitempty"`
	Name      string     `json:"name"`
	Payload   any        `json:"payload,omitempty"`
	Context   any        `json:"context,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
	Source    string     `json:"source,omitempty"`
}

// SendOptions adjusts delivery of a sent event.
type SendOptions struct {
	DeliverAt    *time.Time `json:"deliverAt,omitempty"`
	DeliverAfter int        `json:"deliverAfter,omitempty"`
	AccountID    string     `json:"accountId,omitempty"`
}

// Filter is a nested event filter: leaves list the accepted values.
//
//	event.Filter{"source": event.Filter{"key": []any{"github.push"}}}
type Filter map[string]any

// Rule is the matching rule the backend evaluates for a trigger.
type Rule struct {
	Event   string `json:"event"`
	Source  string `json:"source"`
	Payload Filter `json:"payload,omitempty"`
	Context Filter `json:"context,omitempty"`
}
