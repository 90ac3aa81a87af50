package relayhook

import "github.com/xraph/trigger/event"

// Source is the event source of every relayed event.
const Source = "trigger.endpoint"

// Lifecycle event names. Each constant maps to one ext lifecycle hook and
// is used as the event name when sending.
const (
	EventEndpointRegistered = "trigger.endpoint.registered"
	EventRunCompleted       = "trigger.run.completed"
	EventRunSuspended       = "trigger.run.suspended"
	EventRunFailed          = "trigger.run.failed"
	EventSourceDelivered    = "trigger.source.delivered"
)

// AllEvents returns every event name this extension can send.
func AllEvents() []string {
	return []string{
		EventEndpointRegistered,
		EventRunCompleted,
		EventRunSuspended,
		EventRunFailed,
		EventSourceDelivered,
	}
}

// Specifications returns event specifications for the relayed events, so
// jobs can be attached to them with typed payloads.
func Specifications() []*event.Specification {
	return []*event.Specification{
		titled(event.NewSpecification[EndpointPayload](EventEndpointRegistered, Source, nil), "Endpoint registered"),
		titled(event.NewSpecification[RunCompletedPayload](EventRunCompleted, Source, nil), "Run completed"),
		titled(event.NewSpecification[RunSuspendedPayload](EventRunSuspended, Source, nil), "Run suspended"),
		titled(event.NewSpecification[RunFailedPayload](EventRunFailed, Source, nil), "Run failed"),
		titled(event.NewSpecification[SourcePayload](EventSourceDelivered, Source, nil), "Webhook delivered"),
	}
}

func titled(s *event.Specification, title string) *event.Specification {
	s.Title = title
	return s
}
