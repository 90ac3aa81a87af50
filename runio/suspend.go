package runio

import (
	"errors"
	"fmt"

	"github.com/xraph/trigger/task"
)

// SuspendError stops a run at a task whose result is not available yet.
// The backend re-invokes the run once the task is in the cache.
type SuspendError struct {
	Task task.Task
}

func (e *SuspendError) Error() string {
	return fmt.Sprintf("run suspended on task %q (%s)", e.Task.ID, e.Task.Status)
}

// AsSuspend returns the SuspendError in err's chain, if any.
func AsSuspend(err error) (*SuspendError, bool) {
	var s *SuspendError
	if errors.As(err, &s) {
		return s, true
	}
	return nil, false
}

// TaskFailedError reports a task the backend already marked as errored.
type TaskFailedError struct {
	Task task.Task
}

func (e *TaskFailedError) Error() string {
	msg := e.Task.Error
	if msg == "" {
		msg = "task errored"
	}
	return fmt.Sprintf("task %q failed: %s", e.Task.Name, msg)
}
