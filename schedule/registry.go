package schedule

import (
	"sort"
	"sync"

	"github.com/xraph/trigger/job"
)

// Registry maps dynamic schedule ids to the jobs attached to them.
// It is safe for concurrent use.
type Registry struct {
	mu   sync.RWMutex
	refs map[string][]job.Ref
}

// NewRegistry creates an empty schedule registry.
func NewRegistry() *Registry {
	return &Registry{refs: make(map[string][]job.Ref)}
}

// AddJob appends ref under key. Repeated calls append repeated entries.
func (r *Registry) AddJob(key string, ref job.Ref) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refs[key] = append(r.refs[key], ref)
}

// Jobs returns a copy of the jobs attached under key.
func (r *Registry) Jobs(key string) []job.Ref {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]job.Ref(nil), r.refs[key]...)
}

// All returns every schedule with its jobs, ordered by id.
func (r *Registry) All() []job.DynamicEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]job.DynamicEntry, 0, len(r.refs))
	for key, refs := range r.refs {
		out = append(out, job.DynamicEntry{ID: key, Jobs: append([]job.Ref{}, refs...)})
	}
	sort.Slice(out, func(i, k int) bool { return out[i].ID < out[k].ID })
	return out
}
