// Package api exposes an engine over the single HTTP entry point the
// backend calls.
//
// Every request is authorized with the x-trigger-api-key header before
// anything else. GET requests answer PING, describe one job (with
// x-trigger-job-id) or list everything the endpoint offers. POST requests
// dispatch on the x-trigger-action header:
//
//   - INITIALIZE registers the endpoint with the backend
//   - INITIALIZE_TRIGGER materializes a dynamic trigger for its params
//   - EXECUTE_JOB runs one invocation of a job
//   - PREPROCESS_RUN computes the display elements of a run
//   - DELIVER_HTTP_SOURCE_REQUEST hands a webhook delivery to its source
//
// Action bodies are validated against JSON schemas embedded in the binary
// before the engine is consulted; an invalid body is answered with 400.
//
//	h := api.New(eng)
//	http.Handle("/api/trigger", h)
package api
