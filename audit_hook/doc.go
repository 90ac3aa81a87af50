// Package audithook is a trigger extension that bridges lifecycle events
// to an immutable audit trail backend.
//
// Every job, run, source and endpoint lifecycle hook emits a structured
// audit event through the [Recorder] interface. The extension assigns
// severity levels (info for normal operations, warning for suspensions,
// critical for failed runs) and metadata (job id, version, run id,
// elapsed time, errors).
//
// # Usage
//
//	audithook.New(audithook.RecorderFunc(func(ctx context.Context, evt *audithook.AuditEvent) error {
//	    logger.InfoContext(ctx, "audit", "action", evt.Action, "resource_id", evt.ResourceID)
//	    return nil
//	}))
//
// # Selective filtering
//
//	audithook.New(recorder,
//	    audithook.WithActions(
//	        audithook.ActionRunFailed,
//	        audithook.ActionSourceDelivered,
//	    ),
//	)
package audithook
