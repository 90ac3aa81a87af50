package audithook

// Audit event actions. Each constant corresponds to one ext lifecycle hook
// and becomes the Action field of the audit event.
const (
	ActionJobAttached        = "job.attached"
	ActionEndpointRegistered = "endpoint.registered"
	ActionRunStarted         = "run.started"
	ActionRunCompleted       = "run.completed"
	ActionRunSuspended       = "run.suspended"
	ActionRunFailed          = "run.failed"
	ActionSourceDelivered    = "source.delivered"
)

// Audit event categories group related actions.
const (
	CategoryJob      = "trigger.job"
	CategoryRun      = "trigger.run"
	CategorySource   = "trigger.source"
	CategoryEndpoint = "trigger.endpoint"
)

// Resource types used as the Resource field in audit events.
const (
	ResourceJob      = "job"
	ResourceRun      = "run"
	ResourceSource   = "source"
	ResourceEndpoint = "endpoint"
)

// AllActions returns every action this extension can emit.
func AllActions() []string {
	return []string{
		ActionJobAttached,
		ActionEndpointRegistered,
		ActionRunStarted,
		ActionRunCompleted,
		ActionRunSuspended,
		ActionRunFailed,
		ActionSourceDelivered,
	}
}
