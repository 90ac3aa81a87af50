package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/trigger/job"
)

// Logging returns middleware that logs run start and outcome.
func Logging(logger *slog.Logger) Middleware {
	return func(ctx context.Context, j *job.Job, next Handler) error {
		attrs := []any{
			slog.String("job_id", j.ID),
			slog.String("job_version", j.Version),
			slog.String("run_id", runID(ctx)),
		}
		logger.Info("job run started", attrs...)

		start := time.Now()
		err := next(ctx)
		attrs = append(attrs, slog.Duration("elapsed", time.Since(start)))

		switch StatusOf(err) {
		case StatusCompleted:
			logger.Info("job run completed", attrs...)
		case StatusSuspended:
			logger.Info("job run suspended", attrs...)
		default:
			logger.Error("job run failed", append(attrs, slog.String("error", err.Error()))...)
		}

		return err
	}
}
