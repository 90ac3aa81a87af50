package worker

import (
	"errors"

	"github.com/xraph/trigger/middleware"
	"github.com/xraph/trigger/runio"
	"github.com/xraph/trigger/task"
)

// UnknownErrorMessage is reported for failures that carry no usable message.
const UnknownErrorMessage = "Unknown error"

// Outcome is how one invocation of a job ended. It is one of Completed,
// CompletedWithError or Suspended.
type Outcome interface {
	outcome()
}

// Completed means the run function returned normally.
type Completed struct {
	Output any
}

// CompletedWithError means the run function failed. The run is finished;
// the backend does not re-invoke it.
type CompletedWithError struct {
	Error ErrorRecord
}

// Suspended means the run reached a task whose result is not in the cache
// yet. The backend re-invokes the run once Task has been added to it.
type Suspended struct {
	Task task.Task
}

func (Completed) outcome()          {}
func (CompletedWithError) outcome() {}
func (Suspended) outcome()          {}

// ErrorRecord is the serialized form of a failure.
type ErrorRecord struct {
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
	Name    string `json:"name,omitempty"`
}

// Classify maps the result of a run onto an Outcome. The checks are made
// in order: normal return, suspension, error carrying a stack trace, error
// carrying a message, anything else.
func Classify(output any, err error) Outcome {
	if err == nil {
		return Completed{Output: output}
	}
	if s, ok := runio.AsSuspend(err); ok {
		return Suspended{Task: s.Task}
	}
	return CompletedWithError{Error: DescribeError(err)}
}

// DescribeError builds the ErrorRecord for a failed run.
func DescribeError(err error) ErrorRecord {
	var p *middleware.PanicError
	if errors.As(err, &p) {
		cause, ok := p.Value.(error)
		if !ok || cause.Error() == "" {
			return ErrorRecord{Message: UnknownErrorMessage}
		}
		return ErrorRecord{Message: cause.Error(), Stack: string(p.Stack), Name: "panic"}
	}

	te := runio.DescribeError(err)
	if te.Message == "" {
		return ErrorRecord{Message: UnknownErrorMessage}
	}
	return ErrorRecord{Message: te.Message, Stack: te.Stack, Name: te.Name}
}
