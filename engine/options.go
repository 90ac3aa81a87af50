package engine

import (
	"log/slog"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/trigger"
	"github.com/xraph/trigger/ext"
	mw "github.com/xraph/trigger/middleware"
)

// Option configures an Engine.
type Option func(*Engine)

// WithConfig sets the engine configuration. Without it, New loads the
// configuration from the TRIGGER_* environment.
func WithConfig(cfg trigger.Config) Option {
	return func(eng *Engine) {
		eng.cfg = cfg
		eng.cfgSet = true
	}
}

// WithLogger sets the logger used by the engine and its subsystems.
func WithLogger(l *slog.Logger) Option {
	return func(eng *Engine) { eng.logger = l }
}

// WithAPIKey sets the API key, overriding Config.APIKey.
func WithAPIKey(key string) Option {
	return func(eng *Engine) { eng.apiKey = key }
}

// WithAPI sets the backend client. When not set, a *client.Client is
// created from the configuration.
func WithAPI(api API) Option {
	return func(eng *Engine) { eng.api = api }
}

// WithExtension registers an extension with the engine.
func WithExtension(e ext.Extension) Option {
	return func(eng *Engine) {
		eng.pendingExts = append(eng.pendingExts, e)
	}
}

// WithMiddleware adds middleware to the engine's chain. It runs inside the
// default recover, tracing, metrics and logging middleware.
func WithMiddleware(m mw.Middleware) Option {
	return func(eng *Engine) {
		eng.mws = append(eng.mws, m)
	}
}

// WithTracerProvider sets a custom OTel TracerProvider for the engine.
// If not set, the global otel.GetTracerProvider() is used.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(eng *Engine) { eng.tracerProvider = tp }
}

// WithMeterProvider sets a custom OTel MeterProvider for the engine.
// Both the metrics middleware and the observability extension use it.
// If not set, the global otel.GetMeterProvider() is used.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(eng *Engine) { eng.meterProvider = mp }
}
