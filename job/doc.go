// Package job defines jobs, their triggers, and the registries that hold
// them.
//
// # Job
//
// A [Job] is a named, versioned unit of work started by a [Trigger]. It is
// built by application code, attached once to an engine, and never mutated
// afterwards. Jobs with Enabled false are ignored on attach.
//
//	welcome := &job.Job{
//	    ID:      "send-welcome",
//	    Name:    "Send welcome email",
//	    Version: "1.0.0",
//	    Enabled: true,
//	    Trigger: job.NewEventTrigger(UserCreated, nil),
//	    Run: func(ctx context.Context, payload any, rio *runio.IO, rc *runio.Context) (any, error) {
//	        u := payload.(User)
//	        return rio.SendEvent(ctx, "welcome", event.Send{Name: "email.sent", Payload: u}, nil)
//	    },
//	}
//
// # Triggers
//
// [Trigger] is a closed set: [EventTrigger] starts a job when a matching
// event is delivered, and [DynamicTrigger] starts it from an external
// source whose parameters are supplied at runtime. When a job is attached
// its trigger performs any trigger-specific attachment through an
// [Attacher].
//
// # Registries
//
// [Registry] maps job ids to jobs. [DynamicRegistry] maps dynamic trigger
// ids to the trigger and the ordered list of jobs attached to it.
package job
