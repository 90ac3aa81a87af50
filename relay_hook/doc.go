// Package relayhook relays endpoint lifecycle events back to the backend
// as ordinary events, so other jobs can be triggered by them. When
// registered as an extension it sends typed events (trigger.run.completed,
// trigger.run.failed, etc.) at every lifecycle point.
//
// Usage:
//
//	c := client.New(cfg.APIURL, cfg.APIKey)
//	hook := relayhook.New(c)
//	engine.WithExtension(hook)
//
// To restrict which events are sent:
//
//	hook := relayhook.New(c,
//	    relayhook.WithEvents(
//	        relayhook.EventRunFailed,
//	    ),
//	)
//
// Runs of jobs marked Internal are never relayed.
package relayhook
