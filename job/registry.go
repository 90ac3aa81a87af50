package job

import (
	"sort"
	"sync"
)

// Registry maps job ids to jobs. It is safe for concurrent use.
type Registry struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewRegistry creates an empty job registry.
func NewRegistry() *Registry {
	return &Registry{jobs: make(map[string]*Job)}
}

// Register stores j under its id, replacing any previous job.
func (r *Registry) Register(j *Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[j.ID] = j
}

// Get returns the job registered under id.
func (r *Registry) Get(id string) (*Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	j, ok := r.jobs[id]
	return j, ok
}

// All returns every registered job ordered by id.
func (r *Registry) All() []*Job {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Job, 0, len(r.jobs))
	for _, j := range r.jobs {
		out = append(out, j)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].ID < out[k].ID })
	return out
}

// Len returns the number of registered jobs.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.jobs)
}

// DynamicEntry is the index form of a dynamic trigger or schedule: its id
// and the jobs attached to it.
type DynamicEntry struct {
	ID   string `json:"id"`
	Jobs []Ref  `json:"jobs"`
}

type dynamicEntry struct {
	trigger *DynamicTrigger
	refs    []Ref
}

// DynamicRegistry maps dynamic trigger ids to the trigger and the jobs
// attached to it. It is safe for concurrent use.
type DynamicRegistry struct {
	mu      sync.RWMutex
	entries map[string]*dynamicEntry
}

// NewDynamicRegistry creates an empty dynamic trigger registry.
func NewDynamicRegistry() *DynamicRegistry {
	return &DynamicRegistry{entries: make(map[string]*dynamicEntry)}
}

func (r *DynamicRegistry) entry(id string) *dynamicEntry {
	e, ok := r.entries[id]
	if !ok {
		e = &dynamicEntry{}
		r.entries[id] = e
	}
	return e
}

// Register stores t under its id. Jobs already attached are kept.
func (r *DynamicRegistry) Register(t *DynamicTrigger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entry(t.ID).trigger = t
}

// AddJob appends ref to the jobs of trigger id. Repeated calls append
// repeated entries.
func (r *DynamicRegistry) AddJob(id string, ref Ref) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.entry(id)
	e.refs = append(e.refs, ref)
}

// Get returns the dynamic trigger registered under id.
func (r *DynamicRegistry) Get(id string) (*DynamicTrigger, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	if !ok || e.trigger == nil {
		return nil, false
	}
	return e.trigger, true
}

// Jobs returns a copy of the jobs attached to trigger id.
func (r *DynamicRegistry) Jobs(id string) []Ref {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	if !ok {
		return nil
	}
	return append([]Ref(nil), e.refs...)
}

// All returns every dynamic trigger with its jobs, ordered by id.
func (r *DynamicRegistry) All() []DynamicEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]DynamicEntry, 0, len(r.entries))
	for id, e := range r.entries {
		refs := make([]Ref, len(e.refs))
		copy(refs, e.refs)
		out = append(out, DynamicEntry{ID: id, Jobs: refs})
	}
	sort.Slice(out, func(i, k int) bool { return out[i].ID < out[k].ID })
	return out
}
