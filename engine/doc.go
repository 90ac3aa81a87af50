// Package engine wires the trigger subsystems together. It owns the
// registries, the extension registry, the middleware chain and the job
// executor, and provides the attach operations application code uses
// during setup.
//
// The engine package exists to break an import cycle: job, source and
// schedule only know about each other through small interfaces such as
// [job.Attacher]. Engine sits above all of them and below the api layer.
//
// # Building an Engine
//
//	cfg, err := trigger.LoadConfig("trigger.yaml")
//	if err != nil {
//	    return err
//	}
//
//	eng, err := engine.New(
//	    engine.WithConfig(cfg),
//	    engine.WithLogger(logger),
//	    engine.WithExtension(audithook.New(recorder)),
//	    engine.WithMiddleware(myMiddleware),
//	)
//
// # Attaching Work
//
//	eng.Attach(welcomeJob)
//	eng.AttachSource(source.AttachOptions{Key: "github.acme", Source: github, Event: Push})
//	eng.AttachDynamicTrigger(repoPush)
//	eng.AttachDynamicSchedule(nightly.ID, reportJob)
//
// Attach operations are meant for setup. They are safe to call
// concurrently but an attachment made after requests are being served is
// only visible to later requests.
//
// # Serving
//
// The engine itself speaks no HTTP; wrap it with api.New. [Engine.Listen]
// registers the endpoint with the backend, [Engine.Execute] runs one job
// invocation, [Engine.Preprocess] computes run elements and
// [Engine.Deliver] routes a webhook delivery to its source.
//
// # Options
//
//   - [WithConfig]: endpoint configuration
//   - [WithAPIKey]: override the configured API key
//   - [WithAPI]: supply the backend client, mostly for tests
//   - [WithExtension]: register a lifecycle extension
//   - [WithMiddleware]: add a middleware to the execution chain
//   - [WithTracerProvider], [WithMeterProvider]: OpenTelemetry providers
package engine
