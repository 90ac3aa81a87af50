// Package trigger is the in-process endpoint of a job client. Application
// code declares jobs (units of work started by events, dynamic triggers or
// webhook sources) and mounts a single HTTP handler that an orchestration
// backend calls to discover jobs, initialize registration, execute runs,
// preprocess runs, and deliver webhook events.
//
// Trigger is designed as a library. Build an engine, attach jobs, mount
// the api handler:
//
//	eng, err := engine.New(
//	    engine.WithConfig(cfg),
//	    engine.WithLogger(logger),
//	)
//
//	eng.Attach(&job.Job{
//	    ID:      "send-welcome",
//	    Version: "1.0.0",
//	    Enabled: true,
//	    Trigger: job.NewEventTrigger(UserCreated, nil),
//	    Run:     sendWelcome,
//	})
//
//	http.Handle("/api/trigger", api.New(eng))
//
// # Resumable execution
//
// A run may stop mid-way when it reaches a task whose result is not yet in
// the task cache supplied by the backend. The run then reports a suspended
// outcome carrying that task, and the backend calls again later with an
// enlarged cache. Completed tasks are replayed from the cache and never
// re-executed. The executor keeps no state between calls.
//
// # Configuration
//
// [Config] is loaded with viper from TRIGGER_* environment variables. The
// endpoint host falls back through TRIGGER_ENDPOINT_HOST, VERCEL_URL,
// RENDER_EXTERNAL_URL, RAILWAY_STATIC_URL and FLY_APP_HOSTNAME. A missing
// host is only reported when the endpoint registers itself.
package trigger
