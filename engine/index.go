package engine

import (
	"github.com/xraph/trigger/job"
	"github.com/xraph/trigger/source"
)

// Index is the listing the backend reads to discover what this endpoint
// offers.
type Index struct {
	Jobs             []job.Descriptor   `json:"jobs"`
	Sources          []source.Metadata  `json:"sources"`
	DynamicTriggers  []job.DynamicEntry `json:"dynamicTriggers"`
	DynamicSchedules []job.DynamicEntry `json:"dynamicSchedules"`
}

// Snapshot returns the current index, each list ordered by id.
func (eng *Engine) Snapshot() Index {
	jobs := eng.registries.Jobs.All()
	idx := Index{
		Jobs:             make([]job.Descriptor, 0, len(jobs)),
		Sources:          eng.registries.Sources.All(),
		DynamicTriggers:  eng.registries.Dynamic.All(),
		DynamicSchedules: eng.registries.Schedules.All(),
	}
	for _, j := range jobs {
		idx.Jobs = append(idx.Jobs, j.Descriptor())
	}
	return idx
}
