// Package worker executes job invocations.
//
// An [Executor] builds the execution context and IO for a run request,
// decorates the IO with the job's integrations, parses the event payload
// and calls the run function through the configured middleware. The result
// is classified as an [Outcome]:
//
//   - [Completed]: the run function returned normally
//   - [Suspended]: the run reached a task that is not in the cache yet
//   - [CompletedWithError]: the run function failed or panicked
//
// Suspension is not a failure. The backend calls the endpoint again with
// the suspended task appended to the task cache, and the run replays every
// cached task without repeating its side effect.
package worker
