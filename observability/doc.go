// Package observability provides an OpenTelemetry metrics extension for
// trigger endpoints. The MetricsExtension implements lifecycle hooks to
// record endpoint-wide counters for attached jobs, run outcomes and
// webhook deliveries.
//
// For per-run tracing and metrics, see the middleware package:
// middleware.Tracing() and middleware.Metrics().
package observability
