// Package middleware provides composable middleware for job runs.
//
// A [Middleware] wraps the run function of a job. Middleware are composed
// with [Chain] and applied by the executor around every run. The first
// middleware in the list is the outermost wrapper.
//
//	// logging → recover → run
//	chain := middleware.Chain(middleware.Logging(logger), middleware.Recover(logger))
//
// # Built-in Middleware
//
//   - [Logging] logs job id, run id, duration and outcome
//   - [Recover] converts panics into a *[PanicError]
//   - [Tracing] wraps the run in an OpenTelemetry span
//   - [Metrics] records run duration and outcome counters
//
// A suspended run (one that stopped at a task not yet in the cache) is
// reported with status "suspended" and is never treated as an error.
package middleware
