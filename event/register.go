package event

import "encoding/json"

// RegisterSourceName is the internal event the backend sends when a webhook
// source needs to be (re)registered with its origin.
const RegisterSourceName = "trigger.internal.registerSource"

// RegisterSourcePayload is the payload of the internal register-source event.
type RegisterSourcePayload struct {
	ID               string             `json:"id"`
	Source           SourceRegistration `json:"source"`
	Events           []string           `json:"events"`
	MissingEvents    []string           `json:"missingEvents"`
	OrphanedEvents   []string           `json:"orphanedEvents"`
	DynamicTriggerID string             `json:"dynamicTriggerId,omitempty"`
}

// SourceRegistration is the backend's current view of a registered source.
type SourceRegistration struct {
	Key     string          `json:"key"`
	Secret  string          `json:"secret"`
	Data    json.RawMessage `json:"data,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Channel SourceChannel   `json:"channel"`
}

// SourceChannel is where the origin should deliver webhooks.
type SourceChannel struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// RegisterSource returns the specification of the internal register-source
// event. Each call returns a fresh value.
func RegisterSource() *Specification {
	s := NewSpecification[RegisterSourcePayload](RegisterSourceName, "trigger.dev", nil)
	s.Title = "Register Source"
	s.Icon = "register-source"
	return s
}

// SourceKeyFilter filters register-source events down to one source key.
func SourceKeyFilter(key string) Filter {
	return Filter{"source": Filter{"key": []any{key}}}
}

// DynamicTriggerFilter filters register-source events down to one dynamic
// trigger.
func DynamicTriggerFilter(id string) Filter {
	return Filter{"dynamicTriggerId": []any{id}}
}
