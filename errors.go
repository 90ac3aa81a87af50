package trigger

import "errors"

var (
	// Configuration errors.
	ErrEndpointUnresolved = errors.New("trigger: endpoint url could not be determined")
	ErrNoAPIKey           = errors.New("trigger: no api key configured")

	// Authorization errors.
	ErrUnauthorized = errors.New("trigger: unauthorized")

	// Validation errors.
	ErrInvalidBody   = errors.New("trigger: invalid request body")
	ErrInvalidHeader = errors.New("trigger: invalid request headers")

	// Not found errors.
	ErrJobNotFound            = errors.New("trigger: job not found")
	ErrDynamicTriggerNotFound = errors.New("trigger: dynamic trigger not found")

	// Schedule errors.
	ErrInvalidSchedule = errors.New("trigger: invalid schedule")

	// Backend errors.
	ErrBackendUnavailable = errors.New("trigger: backend unavailable")
)
