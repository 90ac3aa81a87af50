package relayhook

// Option configures an Extension.
type Option func(*Extension)

// PayloadFunc builds a custom event payload for a specific event name.
// The args parameter is the default payload and the returned value
// replaces it.
type PayloadFunc func(args any) (any, error)

// WithEvents restricts the extension to send only the listed events.
// By default every event is enabled. Unknown names are silently ignored.
func WithEvents(events ...string) Option {
	return func(h *Extension) {
		h.enabled = make(map[string]bool, len(events))
		for _, e := range events {
			h.enabled[e] = true
		}
	}
}

// WithPayloadFunc registers a custom payload builder for the given event
// name. The function replaces the default JSON payload for that event.
func WithPayloadFunc(name string, fn PayloadFunc) Option {
	return func(h *Extension) {
		if h.payloads == nil {
			h.payloads = make(map[string]PayloadFunc)
		}
		h.payloads[name] = fn
	}
}
