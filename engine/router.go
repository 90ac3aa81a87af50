package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/trigger/ext"
	"github.com/xraph/trigger/source"
)

// HTTPSourceRouter hands webhook deliveries to the source they belong to.
type HTTPSourceRouter struct {
	registries Registries
	extensions *ext.Registry
	logger     *slog.Logger
}

// NewHTTPSourceRouter creates a router over the given registries.
func NewHTTPSourceRouter(r Registries, extensions *ext.Registry, logger *slog.Logger) *HTTPSourceRouter {
	return &HTTPSourceRouter{registries: r, extensions: extensions, logger: logger}
}

// Route delivers req to the dynamic trigger named by d.DynamicID or, when
// unset, to the static source registered under d.Key.
//
// Deliveries for unknown sources are acknowledged with no events so the
// origin does not retry them. Handler errors are returned.
func (r *HTTPSourceRouter) Route(ctx context.Context, d source.Descriptor, req source.Request) (source.DeliveryResult, error) {
	logger := r.logger.With(
		slog.String("source_key", d.Key),
		slog.String("dynamic_id", d.DynamicID),
	)

	handler, ok := r.handler(d)
	if !ok {
		logger.Debug("delivery for unknown source acknowledged")
		return source.Acknowledge(), nil
	}

	res, err := handler(ctx, d, req, logger)
	if err != nil {
		return source.DeliveryResult{}, fmt.Errorf("handle delivery for source %q: %w", d.Key, err)
	}

	out := res.Delivery()
	logger.Debug("delivery handled", slog.Int("events", len(out.Events)))
	r.extensions.EmitSourceDelivered(ctx, d, len(out.Events))
	return out, nil
}

func (r *HTTPSourceRouter) handler(d source.Descriptor) (source.Handler, bool) {
	if d.DynamicID != "" {
		t, ok := r.registries.Dynamic.Get(d.DynamicID)
		if !ok {
			return nil, false
		}
		return t.Source.Handle, true
	}
	return r.registries.Sources.Handler(d.Key)
}
