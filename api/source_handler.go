package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/xraph/trigger"
	"github.com/xraph/trigger/source"
)

// Webhook delivery headers set by the backend when it forwards a request
// received for a source.
const (
	HeaderSourceURL       = "x-ts-http-url"
	HeaderSourceMethod    = "x-ts-http-method"
	HeaderSourceHeaders   = "x-ts-http-headers"
	HeaderSourceKey       = "x-ts-key"
	HeaderSourceDynamicID = "x-ts-dynamic-id"
	HeaderSourceSecret    = "x-ts-secret"
	HeaderSourceParams    = "x-ts-params"
	HeaderSourceData      = "x-ts-data"
)

type delivery struct {
	source  source.Descriptor
	request source.Request
}

// decodeDelivery reads the delivery headers of req. The request body is
// passed through verbatim.
func decodeDelivery(req Request) decoded[delivery] {
	for _, name := range []string{HeaderSourceURL, HeaderSourceMethod, HeaderSourceHeaders, HeaderSourceKey} {
		if req.Header(name) == "" {
			return decoded[delivery]{Invalid: fmt.Errorf("%w: missing %s", trigger.ErrInvalidHeader, name)}
		}
	}

	var headers map[string]string
	if err := json.Unmarshal([]byte(req.Header(HeaderSourceHeaders)), &headers); err != nil {
		return decoded[delivery]{Invalid: fmt.Errorf("%w: %s: %w", trigger.ErrInvalidHeader, HeaderSourceHeaders, err)}
	}

	params, err := rawJSONHeader(req, HeaderSourceParams)
	if err != nil {
		return decoded[delivery]{Invalid: err}
	}
	data, err := rawJSONHeader(req, HeaderSourceData)
	if err != nil {
		return decoded[delivery]{Invalid: err}
	}

	return decoded[delivery]{Value: delivery{
		source: source.Descriptor{
			Key:       req.Header(HeaderSourceKey),
			Secret:    req.Header(HeaderSourceSecret),
			DynamicID: req.Header(HeaderSourceDynamicID),
			Params:    params,
			Data:      data,
		},
		request: source.Request{
			URL:     req.Header(HeaderSourceURL),
			Method:  req.Header(HeaderSourceMethod),
			Headers: headers,
			RawBody: req.Body,
		},
	}}
}

var errNotJSON = errors.New("not valid JSON")

// rawJSONHeader returns an optional JSON-valued header. Absent yields nil.
func rawJSONHeader(req Request, name string) (json.RawMessage, error) {
	v := req.Header(name)
	if v == "" {
		return nil, nil
	}
	if !json.Valid([]byte(v)) {
		return nil, fmt.Errorf("%w: %s: %w", trigger.ErrInvalidHeader, name, errNotJSON)
	}
	return json.RawMessage(v), nil
}

func (h *Handler) deliver(ctx context.Context, req Request, logger *slog.Logger) Response {
	d := decodeDelivery(req)
	if !d.OK() {
		logger.Debug("invalid delivery headers", slog.String("error", d.Invalid.Error()))
		return message(http.StatusBadRequest, msgInvalidBody)
	}

	res, err := h.eng.Deliver(ctx, d.Value.source, d.Value.request)
	if err != nil {
		logger.Error("source delivery failed",
			slog.String("source_key", d.Value.source.Key),
			slog.String("error", err.Error()),
		)
		return message(http.StatusInternalServerError, err.Error())
	}
	return ok(res)
}
