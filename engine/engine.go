package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/trigger"
	"github.com/xraph/trigger/client"
	"github.com/xraph/trigger/event"
	"github.com/xraph/trigger/ext"
	"github.com/xraph/trigger/job"
	mw "github.com/xraph/trigger/middleware"
	"github.com/xraph/trigger/observability"
	"github.com/xraph/trigger/runio"
	"github.com/xraph/trigger/schedule"
	"github.com/xraph/trigger/source"
	"github.com/xraph/trigger/worker"
)

// API is the backend surface used by the engine. *client.Client satisfies it.
type API interface {
	runio.API
	RegisterEndpoint(ctx context.Context, reg client.EndpointRegistration) (json.RawMessage, error)
}

var _ API = (*client.Client)(nil)

// Registries bundles the four registries of one engine.
type Registries struct {
	Jobs      *job.Registry
	Dynamic   *job.DynamicRegistry
	Sources   *source.Registry
	Schedules *schedule.Registry
}

// NewRegistries creates empty registries.
func NewRegistries() Registries {
	return Registries{
		Jobs:      job.NewRegistry(),
		Dynamic:   job.NewDynamicRegistry(),
		Sources:   source.NewRegistry(),
		Schedules: schedule.NewRegistry(),
	}
}

// Engine is the long-lived endpoint client. Build one with New, attach
// jobs and sources during setup, then serve it with api.New.
type Engine struct {
	cfg        trigger.Config
	cfgSet     bool
	apiKey     string
	api        API
	registries Registries
	extensions *ext.Registry
	executor   *worker.Executor
	router     *HTTPSourceRouter
	logger     *slog.Logger

	pendingExts []ext.Extension
	mws         []mw.Middleware

	// OpenTelemetry providers (optional; nil means use global).
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
}

var _ job.Attacher = (*Engine)(nil)

// New creates an Engine. Without WithConfig, the configuration is loaded
// from the environment. Without WithAPI, a backend client is built from
// the configuration.
func New(opts ...Option) (*Engine, error) {
	eng := &Engine{logger: slog.Default()}
	for _, opt := range opts {
		opt(eng)
	}

	if !eng.cfgSet {
		cfg, err := trigger.LoadWithViper(trigger.NewViper())
		if err != nil {
			return nil, fmt.Errorf("trigger: load config: %w", err)
		}
		eng.cfg = cfg
	}

	if eng.apiKey == "" {
		eng.apiKey = eng.cfg.APIKey
	}

	if eng.api == nil {
		if eng.cfg.APIURL == "" {
			return nil, errors.New("trigger: api url is required when no api client is supplied")
		}
		eng.api = client.New(eng.cfg.APIURL, eng.apiKey,
			client.WithHTTPClient(&http.Client{Timeout: eng.cfg.RequestTimeout}),
			client.WithRateLimit(eng.cfg.RateLimit, int(eng.cfg.RateLimit)),
			client.WithLogger(eng.logger),
		)
	}

	eng.registries = NewRegistries()
	eng.extensions = ext.NewRegistry(eng.logger)

	// Register the observability metrics extension.
	if eng.meterProvider != nil {
		meter := eng.meterProvider.Meter("github.com/xraph/trigger/observability")
		eng.extensions.Register(observability.NewMetricsExtensionWithMeter(meter))
	} else {
		eng.extensions.Register(observability.NewMetricsExtension())
	}
	for _, e := range eng.pendingExts {
		eng.extensions.Register(e)
	}
	eng.pendingExts = nil

	// Build tracing middleware (custom provider or global).
	var tracingMw mw.Middleware
	if eng.tracerProvider != nil {
		tracingMw = mw.TracingWithTracer(eng.tracerProvider.Tracer("github.com/xraph/trigger"))
	} else {
		tracingMw = mw.Tracing()
	}

	// Build metrics middleware (custom provider or global).
	var metricsMw mw.Middleware
	if eng.meterProvider != nil {
		metricsMw = mw.MetricsWithMeter(eng.meterProvider.Meter("github.com/xraph/trigger"))
	} else {
		metricsMw = mw.Metrics()
	}

	// Default middleware stack: recover → tracing → metrics → logging.
	defaultMws := []mw.Middleware{
		mw.Recover(eng.logger),
		tracingMw,
		metricsMw,
		mw.Logging(eng.logger),
	}
	allMws := make([]mw.Middleware, 0, len(defaultMws)+len(eng.mws))
	allMws = append(allMws, defaultMws...)
	allMws = append(allMws, eng.mws...)

	eng.executor = worker.NewExecutor(eng.api, eng.extensions, eng.logger, allMws...)
	eng.router = NewHTTPSourceRouter(eng.registries, eng.extensions, eng.logger)

	return eng, nil
}

// Config returns the engine configuration.
func (eng *Engine) Config() trigger.Config { return eng.cfg }

// APIKey returns the key inbound requests must present. It is empty when
// none is configured.
func (eng *Engine) APIKey() string { return eng.apiKey }

// Logger returns the engine logger.
func (eng *Engine) Logger() *slog.Logger { return eng.logger }

// Extensions returns the extension registry.
func (eng *Engine) Extensions() *ext.Registry { return eng.extensions }

// Registries returns the engine's registries.
func (eng *Engine) Registries() Registries { return eng.registries }

// Router returns the webhook delivery router.
func (eng *Engine) Router() *HTTPSourceRouter { return eng.router }

// Listen registers this endpoint with the backend. The endpoint URL is
// resolved here rather than at construction time; an unresolvable URL is
// returned as trigger.ErrEndpointUnresolved.
func (eng *Engine) Listen(ctx context.Context) (json.RawMessage, error) {
	url, err := eng.cfg.ResolveEndpoint()
	if err != nil {
		return nil, err
	}

	resp, err := eng.api.RegisterEndpoint(ctx, client.EndpointRegistration{ID: eng.cfg.ID, URL: url})
	if err != nil {
		return nil, fmt.Errorf("register endpoint %s: %w", url, err)
	}

	eng.logger.Info("endpoint registered",
		slog.String("endpoint_id", eng.cfg.ID),
		slog.String("url", url),
	)
	eng.extensions.EmitEndpointRegistered(ctx, url)
	return resp, nil
}

// Job returns the attached job with id.
func (eng *Engine) Job(id string) (*job.Job, bool) {
	return eng.registries.Jobs.Get(id)
}

// Execute runs one invocation of the job named in req.
func (eng *Engine) Execute(ctx context.Context, req runio.RunRequest) (worker.Outcome, error) {
	j, ok := eng.registries.Jobs.Get(req.Job.ID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", trigger.ErrJobNotFound, req.Job.ID)
	}
	return eng.executor.Execute(ctx, req, j)
}

// PreprocessResult is the answer to a preprocess request.
type PreprocessResult struct {
	Abort    bool               `json:"abort"`
	Elements []event.RunElement `json:"elements"`
}

// Preprocess parses the payload of a run about to start and computes its
// display elements.
func (eng *Engine) Preprocess(ctx context.Context, req runio.PreprocessRequest) (PreprocessResult, error) {
	j, ok := eng.registries.Jobs.Get(req.Job.ID)
	if !ok {
		return PreprocessResult{}, fmt.Errorf("%w: %s", trigger.ErrJobNotFound, req.Job.ID)
	}

	rc := runio.BuildPreprocessContext(req)
	payload, err := worker.ParsePayload(j, req.Event.Payload)
	if err != nil {
		return PreprocessResult{}, fmt.Errorf("preprocess run %s: %w", rc.Run.ID, err)
	}

	elements := []event.RunElement{}
	if j.Trigger != nil {
		if spec := j.Trigger.EventSpecification(); spec != nil {
			if elements, err = spec.Elements(payload); err != nil {
				return PreprocessResult{}, fmt.Errorf("preprocess run %s: %w", rc.Run.ID, err)
			}
		}
	}

	eng.logger.DebugContext(ctx, "run preprocessed",
		slog.String("job_id", j.ID),
		slog.String("run_id", rc.Run.ID),
		slog.Int("elements", len(elements)),
	)
	return PreprocessResult{Abort: false, Elements: elements}, nil
}

// InitializeTrigger returns the registration of dynamic trigger id for
// params.
func (eng *Engine) InitializeTrigger(id string, params json.RawMessage) (job.RegisterTriggerBody, error) {
	t, ok := eng.registries.Dynamic.Get(id)
	if !ok {
		return job.RegisterTriggerBody{}, fmt.Errorf("%w: %s", trigger.ErrDynamicTriggerNotFound, id)
	}
	return t.RegisteredTriggerForParams(params), nil
}

// Deliver routes a webhook delivery to its source.
func (eng *Engine) Deliver(ctx context.Context, d source.Descriptor, req source.Request) (source.DeliveryResult, error) {
	return eng.router.Route(ctx, d, req)
}

// SendEvent publishes an event to the backend outside of any run.
func (eng *Engine) SendEvent(ctx context.Context, ev event.Send, opts *event.SendOptions) (*event.Record, error) {
	return eng.api.SendEvent(ctx, ev, opts)
}

// Stop notifies extensions that the engine is shutting down.
func (eng *Engine) Stop(ctx context.Context) error {
	eng.extensions.EmitShutdown(ctx)
	return nil
}
