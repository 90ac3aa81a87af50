// Package task defines task records and the ordered task cache that makes
// runs resumable.
//
// Every side-effecting operation a job performs through its IO is a task
// identified by an idempotency key. The backend sends back every task it
// has seen for a run; a completed task found in the cache is replayed from
// its stored output and its side effect is not performed again.
package task

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"sync"
	"time"
)

// Status is the lifecycle state of a task as reported by the backend.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusWaiting   Status = "WAITING"
	StatusRunning   Status = "RUNNING"
	StatusCompleted Status = "COMPLETED"
	StatusErrored   Status = "ERRORED"
	StatusCanceled  Status = "CANCELED"
)

// Task is one side-effecting operation of a run.
type Task struct {
	ID             string          `json:"id"`
	Name           string          `json:"name,omitempty"`
	IdempotencyKey string          `json:"idempotencyKey"`
	Status         Status          `json:"status"`
	Noop           bool            `json:"noop"`
	Output         json.RawMessage `json:"output,omitempty"`
	Error          string          `json:"error,omitempty"`
	ParentID       string          `json:"parentId,omitempty"`
	DelayUntil     *time.Time      `json:"delayUntil,omitempty"`
}

// Completed reports whether the task finished successfully.
func (t Task) Completed() bool { return t.Status == StatusCompleted }

// IdempotencyKey derives a stable task identity from its parts, normally
// the parent task id, the run id and the user-supplied key.
func IdempotencyKey(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(sum[:])
}

// Cache is the ordered task record of a run keyed by idempotency key.
// It is safe for concurrent use.
type Cache struct {
	mu    sync.RWMutex
	order []Task
	index map[string]int
}

// NewCache seeds a cache with the tasks sent by the backend. A later entry
// with the same idempotency key replaces an earlier one in place.
func NewCache(tasks []Task) *Cache {
	c := &Cache{
		order: make([]Task, 0, len(tasks)),
		index: make(map[string]int, len(tasks)),
	}
	for _, t := range tasks {
		c.Put(t)
	}
	return c
}

// Get returns the cached task for key.
func (c *Cache) Get(key string) (Task, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.index[key]
	if !ok {
		return Task{}, false
	}
	return c.order[i], true
}

// Put records t, replacing any entry with the same idempotency key.
func (c *Cache) Put(t Task) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i, ok := c.index[t.IdempotencyKey]; ok {
		c.order[i] = t
		return
	}
	c.index[t.IdempotencyKey] = len(c.order)
	c.order = append(c.order, t)
}

// Tasks returns a copy of the cached tasks in insertion order.
func (c *Cache) Tasks() []Task {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Task, len(c.order))
	copy(out, c.order)
	return out
}

// Len returns the number of cached tasks.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}
