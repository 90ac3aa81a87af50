package job

import (
	"context"

	"github.com/xraph/trigger/event"
	"github.com/xraph/trigger/integration"
	"github.com/xraph/trigger/runio"
)

// RunFunc is the body of a job. payload is the event payload parsed by the
// trigger's event specification.
type RunFunc func(ctx context.Context, payload any, rio *runio.IO, rc *runio.Context) (any, error)

// Queue asks the backend to serialize runs. MaxConcurrent is forwarded in
// the job index and is not enforced locally.
type Queue struct {
	Name          string `json:"name"`
	MaxConcurrent int    `json:"maxConcurrent,omitempty"`
}

// Job is a unit of work started by a trigger.
type Job struct {
	ID             string
	Name           string
	Version        string
	Enabled        bool
	Trigger        Trigger
	Integrations   map[string]integration.Integration
	Queue          *Queue
	PreprocessRuns bool
	Internal       bool
	Run            RunFunc
}

// Ref is a versioned reference to a job.
type Ref struct {
	ID      string `json:"id"`
	Version string `json:"version"`
}

// Ref returns the reference to j.
func (j *Job) Ref() Ref { return Ref{ID: j.ID, Version: j.Version} }

// Descriptor is the serialized form of a job in the job index.
type Descriptor struct {
	ID             string                            `json:"id"`
	Name           string                            `json:"name"`
	Version        string                            `json:"version"`
	Event          event.Descriptor                  `json:"event"`
	Trigger        TriggerDescriptor                 `json:"trigger"`
	Integrations   map[string]integration.Descriptor `json:"integrations"`
	Queue          *Queue                            `json:"queue,omitempty"`
	StartPosition  string                            `json:"startPosition"`
	Enabled        bool                              `json:"enabled"`
	PreprocessRuns bool                              `json:"preprocessRuns"`
	Internal       bool                              `json:"internal"`
}

// Descriptor returns the job-index form of j.
func (j *Job) Descriptor() Descriptor {
	d := Descriptor{
		ID:             j.ID,
		Name:           j.Name,
		Version:        j.Version,
		Integrations:   make(map[string]integration.Descriptor, len(j.Integrations)),
		Queue:          j.Queue,
		StartPosition:  "latest",
		Enabled:        j.Enabled,
		PreprocessRuns: j.PreprocessRuns,
		Internal:       j.Internal,
	}
	if d.Name == "" {
		d.Name = j.ID
	}
	if j.Trigger != nil {
		d.Trigger = j.Trigger.Descriptor()
		if spec := j.Trigger.EventSpecification(); spec != nil {
			d.Event = spec.Descriptor()
		}
	}
	for key, in := range j.Integrations {
		d.Integrations[key] = integration.Describe(in)
	}
	return d
}
