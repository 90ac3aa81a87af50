package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/xraph/trigger"
	"github.com/xraph/trigger/engine"
)

// Header names used by the endpoint protocol. Lookups are case-sensitive
// on lower-case names.
const (
	HeaderAPIKey = "x-trigger-api-key"
	HeaderAction = "x-trigger-action"
	HeaderJobID  = "x-trigger-job-id"
)

// Action is the value of the action header.
type Action string

const (
	ActionPing                     Action = "PING"
	ActionInitialize               Action = "INITIALIZE"
	ActionInitializeTrigger        Action = "INITIALIZE_TRIGGER"
	ActionExecuteJob               Action = "EXECUTE_JOB"
	ActionPreprocessRun            Action = "PREPROCESS_RUN"
	ActionDeliverHTTPSourceRequest Action = "DELIVER_HTTP_SOURCE_REQUEST"
)

// Constant response messages.
const (
	msgMissingAPIKey    = "Unauthorized: client missing apiKey"
	msgAPIKeyMismatch   = "Forbidden: client apiKey mismatch"
	msgInvalidBody      = "Invalid request body"
	msgJobNotFound      = "Job not found"
	msgTriggerNotFound  = "Dynamic trigger not found"
	msgMethodNotAllowed = "Method not allowed"
)

// Request is one inbound call. Header names must be lower-case. Body is
// the raw request body.
type Request struct {
	Method  string
	Headers map[string]string
	Body    []byte
}

// Header returns the value of the lower-case header name.
func (r Request) Header(name string) string { return r.Headers[name] }

// Response is the normalized reply: a status and a JSON-serializable body.
type Response struct {
	Status int
	Body   any
}

// MessageBody is the body of every constant-message response.
type MessageBody struct {
	Message string `json:"message"`
}

func message(status int, msg string) Response {
	return Response{Status: status, Body: MessageBody{Message: msg}}
}

func ok(body any) Response { return Response{Status: http.StatusOK, Body: body} }

// Handler is the single entry point the backend calls. It authorizes the
// request, dispatches on method and action, and delegates to the engine.
type Handler struct {
	eng    *engine.Engine
	logger *slog.Logger
}

// New creates a Handler serving eng.
func New(eng *engine.Engine) *Handler {
	return &Handler{eng: eng, logger: eng.Logger()}
}

// Handle processes one request.
//
// Every protocol outcome, including authorization and validation failures,
// is reported through the Response. A non-nil error is returned only for
// failures the protocol has no status for, such as an endpoint URL that
// cannot be resolved during INITIALIZE.
func (h *Handler) Handle(ctx context.Context, req Request) (Response, error) {
	if resp, authorized := h.authorize(req); !authorized {
		return resp, nil
	}

	action := Action(req.Header(HeaderAction))
	switch strings.ToUpper(req.Method) {
	case http.MethodGet:
		return h.handleGet(req, action), nil
	case http.MethodPost:
		return h.handlePost(ctx, req, action)
	default:
		return message(http.StatusMethodNotAllowed, msgMethodNotAllowed), nil
	}
}

func (h *Handler) authorize(req Request) (Response, bool) {
	expected := h.eng.APIKey()
	if expected == "" {
		h.logger.Warn("rejecting request", slog.String("error", trigger.ErrNoAPIKey.Error()))
		return message(http.StatusUnauthorized, msgMissingAPIKey), false
	}
	if subtle.ConstantTimeCompare([]byte(req.Header(HeaderAPIKey)), []byte(expected)) != 1 {
		h.logger.Debug("rejecting request", slog.String("error", trigger.ErrUnauthorized.Error()))
		return message(http.StatusUnauthorized, msgAPIKeyMismatch), false
	}
	return Response{}, true
}

func (h *Handler) handleGet(req Request, action Action) Response {
	if action == ActionPing {
		return ok(MessageBody{Message: "PONG"})
	}
	if jobID := req.Header(HeaderJobID); jobID != "" {
		return h.getJob(jobID)
	}
	return ok(h.eng.Snapshot())
}

func (h *Handler) handlePost(ctx context.Context, req Request, action Action) (Response, error) {
	logger := h.logger.With(slog.String("action", string(action)))

	switch action {
	case ActionInitialize:
		return h.initialize(ctx, logger)
	case ActionInitializeTrigger:
		return h.initializeTrigger(req, logger), nil
	case ActionExecuteJob:
		return h.executeJob(ctx, req, logger), nil
	case ActionPreprocessRun:
		return h.preprocessRun(ctx, req, logger), nil
	case ActionDeliverHTTPSourceRequest:
		return h.deliver(ctx, req, logger), nil
	default:
		return message(http.StatusMethodNotAllowed, msgMethodNotAllowed), nil
	}
}

func (h *Handler) initialize(ctx context.Context, logger *slog.Logger) (Response, error) {
	resp, err := h.eng.Listen(ctx)
	if errors.Is(err, trigger.ErrEndpointUnresolved) {
		return Response{}, err
	}
	if err != nil {
		logger.Error("endpoint registration failed", slog.String("error", err.Error()))
		return message(http.StatusInternalServerError, err.Error()), nil
	}
	if len(resp) == 0 {
		return ok(map[string]any{"ok": true}), nil
	}
	return ok(json.RawMessage(resp)), nil
}

func (h *Handler) initializeTrigger(req Request, logger *slog.Logger) Response {
	body := decode[initializeTriggerBody](schemas.initializeTrigger, req.Body)
	if !body.OK() {
		logger.Debug("invalid request body", slog.String("error", body.Invalid.Error()))
		return message(http.StatusBadRequest, msgInvalidBody)
	}

	reg, err := h.eng.InitializeTrigger(body.Value.ID, body.Value.Params)
	if errors.Is(err, trigger.ErrDynamicTriggerNotFound) {
		return message(http.StatusNotFound, msgTriggerNotFound)
	}
	if err != nil {
		return message(http.StatusInternalServerError, err.Error())
	}
	return ok(reg)
}

type initializeTriggerBody struct {
	ID     string          `json:"id"`
	Params json.RawMessage `json:"params,omitempty"`
}
