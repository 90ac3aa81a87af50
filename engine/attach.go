package engine

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/xraph/trigger/event"
	"github.com/xraph/trigger/integration"
	"github.com/xraph/trigger/job"
	"github.com/xraph/trigger/runio"
	"github.com/xraph/trigger/source"
)

// dynamicRegistrationPrefix prefixes the id of the hidden job that
// registers a dynamic trigger's source.
const dynamicRegistrationPrefix = "register-dynamic-trigger-"

// Attach registers j. A disabled job is ignored. The job's trigger may
// register further entries, such as the job's place in a dynamic trigger.
func (eng *Engine) Attach(j *job.Job) {
	if !j.Enabled {
		eng.logger.Debug("skipping disabled job", slog.String("job_id", j.ID))
		return
	}

	eng.registries.Jobs.Register(j)
	if j.Trigger != nil {
		j.Trigger.AttachToJob(eng, j)
	}

	eng.logger.Debug("job attached",
		slog.String("job_id", j.ID),
		slog.String("version", j.Version),
		slog.Bool("internal", j.Internal),
	)
	eng.extensions.EmitJobAttached(j)
}

// AttachJobToDynamicTrigger implements job.Attacher. Every call appends
// one reference, so attaching the same job twice lists it twice.
func (eng *Engine) AttachJobToDynamicTrigger(j *job.Job, t *job.DynamicTrigger) {
	eng.registries.Dynamic.AddJob(t.ID, j.Ref())
}

// AttachDynamicTrigger registers t and the hidden job that registers its
// source whenever the backend asks for it.
func (eng *Engine) AttachDynamicTrigger(t *job.DynamicTrigger) {
	eng.registries.Dynamic.Register(t)

	eng.Attach(&job.Job{
		ID:           dynamicRegistrationPrefix + t.ID,
		Name:         "Register dynamic trigger " + t.ID,
		Version:      t.Source.Version(),
		Enabled:      true,
		Internal:     true,
		Trigger:      job.NewEventTrigger(event.RegisterSource(), event.DynamicTriggerFilter(t.ID)),
		Integrations: sourceIntegrations(t.Source),
		Run: func(ctx context.Context, payload any, rio *runio.IO, rc *runio.Context) (any, error) {
			p := payload.(event.RegisterSourcePayload)
			return registerSource(ctx, t.Source, p.Source.Params, &p, rio, rc)
		},
	})
}

// AttachSource registers a static webhook source under opts.Key. The
// delivery handler is replaced on every call; the event names of all calls
// are merged.
func (eng *Engine) AttachSource(opts source.AttachOptions) {
	eng.registries.Sources.Register(source.MetadataFor(opts), opts.Source.Handle)

	src := opts.Source
	params := opts.Params
	eng.Attach(&job.Job{
		ID:           opts.Key,
		Name:         "Register source " + opts.Key,
		Version:      src.Version(),
		Enabled:      true,
		Internal:     true,
		Trigger:      job.NewEventTrigger(event.RegisterSource(), event.SourceKeyFilter(opts.Key)),
		Integrations: sourceIntegrations(src),
		Queue:        &job.Queue{Name: opts.Key, MaxConcurrent: 1},
		Run: func(ctx context.Context, payload any, rio *runio.IO, rc *runio.Context) (any, error) {
			p := payload.(event.RegisterSourcePayload)
			return registerSource(ctx, src, params, &p, rio, rc)
		},
	})
}

// AttachDynamicSchedule records j as run by the dynamic schedule key.
func (eng *Engine) AttachDynamicSchedule(key string, j *job.Job) {
	eng.registries.Schedules.AddJob(key, j.Ref())
}

// registerSource runs the source's registration and forwards any update
// instructions to the backend.
func registerSource(ctx context.Context, src source.ExternalSource, params json.RawMessage, p *event.RegisterSourcePayload, rio *runio.IO, rc *runio.Context) (any, error) {
	updates, err := src.Register(ctx, params, p, rio, rc)
	if err != nil {
		return nil, err
	}
	if updates == nil {
		return nil, nil
	}
	if _, err := rio.UpdateSource(ctx, "update-source", p.Source.Key, updates); err != nil {
		return nil, err
	}
	return updates, nil
}

func sourceIntegrations(src source.ExternalSource) map[string]integration.Integration {
	in := src.Integration()
	if in == nil {
		return nil
	}
	return map[string]integration.Integration{"integration": in}
}
