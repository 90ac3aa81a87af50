package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/xraph/trigger"
	"github.com/xraph/trigger/id"
	"github.com/xraph/trigger/runio"
	"github.com/xraph/trigger/task"
	"github.com/xraph/trigger/worker"
)

// ExecuteResponse is the body of a successful EXECUTE_JOB call. A
// suspended run has Completed false and carries the task it waits on.
// Output is always present, null when the job returned nothing.
// ExecutionID is derived from the run ID, so every delivery of one run
// reports the same value.
type ExecuteResponse struct {
	Completed   bool                `json:"completed"`
	Output      any                 `json:"output"`
	ExecutionID string              `json:"executionId"`
	Task        *task.Task          `json:"task,omitempty"`
	Error       *worker.ErrorRecord `json:"error,omitempty"`
}

func (h *Handler) getJob(jobID string) Response {
	j, found := h.eng.Job(jobID)
	if !found {
		return message(http.StatusNotFound, msgJobNotFound)
	}
	return ok(j.Descriptor())
}

func (h *Handler) executeJob(ctx context.Context, req Request, logger *slog.Logger) Response {
	body := decode[runio.RunRequest](schemas.executeJob, req.Body)
	if !body.OK() {
		logger.Debug("invalid request body", slog.String("error", body.Invalid.Error()))
		return message(http.StatusBadRequest, msgInvalidBody)
	}

	run := body.Value
	outcome, err := h.eng.Execute(ctx, run)
	if errors.Is(err, trigger.ErrJobNotFound) {
		return message(http.StatusNotFound, msgJobNotFound)
	}
	if err != nil {
		logger.Error("job execution failed",
			slog.String("job_id", run.Job.ID),
			slog.String("run_id", run.Run.ID),
			slog.String("error", err.Error()),
		)
		return message(http.StatusInternalServerError, err.Error())
	}

	return ok(executeResponse(run.Run.ID, outcome))
}

func executeResponse(runID string, outcome worker.Outcome) ExecuteResponse {
	resp := ExecuteResponse{ExecutionID: id.ExecutionIDFor(runID).String()}
	switch o := outcome.(type) {
	case worker.Completed:
		resp.Completed = true
		resp.Output = o.Output
	case worker.CompletedWithError:
		resp.Completed = true
		rec := o.Error
		resp.Error = &rec
	case worker.Suspended:
		t := o.Task
		resp.Task = &t
	}
	return resp
}

func (h *Handler) preprocessRun(ctx context.Context, req Request, logger *slog.Logger) Response {
	body := decode[runio.PreprocessRequest](schemas.preprocessRun, req.Body)
	if !body.OK() {
		logger.Debug("invalid request body", slog.String("error", body.Invalid.Error()))
		return message(http.StatusBadRequest, msgInvalidBody)
	}

	res, err := h.eng.Preprocess(ctx, body.Value)
	if errors.Is(err, trigger.ErrJobNotFound) {
		return message(http.StatusNotFound, msgJobNotFound)
	}
	if err != nil {
		logger.Warn("preprocess failed",
			slog.String("job_id", body.Value.Job.ID),
			slog.String("error", err.Error()),
		)
		return message(http.StatusInternalServerError, err.Error())
	}
	return ok(res)
}
