package source

import (
	"sort"
	"sync"
)

type entry struct {
	handler Handler
	meta    Metadata
	events  map[string]struct{}
}

// Registry maps source keys to their delivery handler and metadata.
// It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// NewRegistry creates an empty source registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// Register stores h for meta.Key. The handler and metadata are replaced by
// the latest call while the event names of all calls are merged.
func (r *Registry) Register(meta Metadata, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[meta.Key]
	if !ok {
		e = &entry{events: make(map[string]struct{})}
		r.entries[meta.Key] = e
	}
	for _, name := range meta.Events {
		e.events[name] = struct{}{}
	}
	e.handler = h
	e.meta = meta
}

// Handler returns the delivery handler for key.
func (r *Registry) Handler(key string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[key]
	if !ok {
		return nil, false
	}
	return e.handler, true
}

// Metadata returns the metadata for key with its merged event set.
func (r *Registry) Metadata(key string) (Metadata, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[key]
	if !ok {
		return Metadata{}, false
	}
	return e.snapshot(), true
}

// All returns the metadata of every source, ordered by key.
func (r *Registry) All() []Metadata {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Metadata, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.snapshot())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func (e *entry) snapshot() Metadata {
	m := e.meta
	m.Events = make([]string, 0, len(e.events))
	for name := range e.events {
		m.Events = append(m.Events, name)
	}
	sort.Strings(m.Events)
	return m
}
