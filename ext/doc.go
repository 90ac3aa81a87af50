// Package ext defines the extension system for trigger endpoints.
//
// Extensions are notified of lifecycle events and can react to them,
// for example by recording metrics or writing audit logs. Each lifecycle
// hook is a separate interface so extensions opt in only to the events
// they care about.
//
// # Implementing an Extension
//
//	type MyExtension struct{}
//
//	func (e *MyExtension) Name() string { return "my-extension" }
//
//	func (e *MyExtension) OnRunCompleted(ctx context.Context, j *job.Job, rc *runio.Context, elapsed time.Duration) error {
//	    log.Printf("run %s of %s completed in %s", rc.Run.ID, j.ID, elapsed)
//	    return nil
//	}
//
// # Hooks
//
//   - [JobAttached]: a job (possibly hidden) was registered
//   - [EndpointRegistered]: the endpoint registered itself with the backend
//   - [RunStarted], [RunCompleted], [RunSuspended], [RunFailed]: run lifecycle
//   - [SourceDelivered]: a webhook delivery was handled
//   - [Shutdown]: the engine is shutting down
//
// The [Registry] fans out each event to all registered extensions that
// implement the corresponding hook interface.
package ext
