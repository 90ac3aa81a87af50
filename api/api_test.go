package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/xraph/trigger"
	"github.com/xraph/trigger/api"
	"github.com/xraph/trigger/engine"
	"github.com/xraph/trigger/event"
	"github.com/xraph/trigger/internal/backendtest"
	"github.com/xraph/trigger/job"
	"github.com/xraph/trigger/runio"
	"github.com/xraph/trigger/source"
	"github.com/xraph/trigger/task"
	"github.com/xraph/trigger/worker"
)

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

const testAPIKey = "tr_dev_secret"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type signup struct {
	Email string `json:"email"`
}

var signupSpec = event.NewSpecification[signup]("user.signup", "app", nil)

type fixture struct {
	handler *api.Handler
	eng     *engine.Engine
	backend *backendtest.Backend
	runs    int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := trigger.DefaultConfig()
	cfg.APIKey = testAPIKey
	cfg.Endpoint.Host = "app.example.com"
	return newFixtureWithConfig(t, cfg)
}

func newFixtureWithConfig(t *testing.T, cfg trigger.Config) *fixture {
	t.Helper()
	f := &fixture{backend: backendtest.New()}

	eng, err := engine.New(
		engine.WithConfig(cfg),
		engine.WithAPI(f.backend),
		engine.WithLogger(testLogger()),
	)
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	f.eng = eng
	f.handler = api.New(eng)

	eng.Attach(&job.Job{
		ID:      "welcome",
		Version: "1.0.0",
		Enabled: true,
		Trigger: job.NewEventTrigger(signupSpec, nil),
		Run: func(_ context.Context, payload any, _ *runio.IO, _ *runio.Context) (any, error) {
			f.runs++
			return map[string]string{"sent": payload.(signup).Email}, nil
		},
	})
	return f
}

func (f *fixture) do(t *testing.T, method string, headers map[string]string, body string) api.Response {
	t.Helper()
	h := map[string]string{api.HeaderAPIKey: testAPIKey}
	for k, v := range headers {
		h[k] = v
	}
	resp, err := f.handler.Handle(context.Background(), api.Request{Method: method, Headers: h, Body: []byte(body)})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	return resp
}

func (f *fixture) post(t *testing.T, action api.Action, body string) api.Response {
	t.Helper()
	return f.do(t, http.MethodPost, map[string]string{api.HeaderAction: string(action)}, body)
}

// bodyJSON round-trips a response body through JSON so tests can inspect
// it the way the backend sees it.
func bodyJSON(t *testing.T, resp api.Response) map[string]any {
	t.Helper()
	data, err := json.Marshal(resp.Body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal body %s: %v", data, err)
	}
	return out
}

func assertMessage(t *testing.T, resp api.Response, status int, msg string) {
	t.Helper()
	if resp.Status != status {
		t.Errorf("status = %d, want %d", resp.Status, status)
	}
	if got := bodyJSON(t, resp)["message"]; got != msg {
		t.Errorf("message = %v, want %q", got, msg)
	}
}

func executeBody(jobID, runID, payload string, tasks []task.Task) string {
	body := map[string]any{
		"event": map[string]any{
			"id":        "evt_1",
			"name":      "user.signup",
			"payload":   json.RawMessage(payload),
			"timestamp": "2026-10-01T12:00:00Z",
		},
		"job":          map[string]any{"id": jobID, "version": "1.0.0"},
		"run":          map[string]any{"id": runID, "isTest": false},
		"environment":  map[string]any{"id": "env_1", "slug": "dev", "type": "DEVELOPMENT"},
		"organization": map[string]any{"id": "org_1", "slug": "acme", "title": "Acme"},
	}
	if tasks != nil {
		body["tasks"] = tasks
	}
	data, _ := json.Marshal(body)
	return string(data)
}

// ──────────────────────────────────────────────────
// Authorization
// ──────────────────────────────────────────────────

func TestHandle_RejectsBadAPIKey(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		method string
		action string
		body   string
	}{
		{http.MethodGet, "PING", ""},
		{http.MethodGet, "", ""},
		{http.MethodPost, "EXECUTE_JOB", executeBody("welcome", "run_1", `{"email":"a@b.c"}`, nil)},
		{http.MethodPost, "INITIALIZE", ""},
		{http.MethodPost, "PREPROCESS_RUN", "{broken"},
		{http.MethodPut, "", ""},
	}
	for _, key := range []string{"", "wrong"} {
		for _, c := range cases {
			headers := map[string]string{api.HeaderAction: c.action}
			if key != "" {
				headers[api.HeaderAPIKey] = key
			}
			resp, err := f.handler.Handle(context.Background(), api.Request{Method: c.method, Headers: headers, Body: []byte(c.body)})
			if err != nil {
				t.Fatalf("Handle: %v", err)
			}
			if resp.Status != http.StatusUnauthorized {
				t.Errorf("%s %s key=%q: status = %d, want 401", c.method, c.action, key, resp.Status)
			}
		}
	}

	if f.runs != 0 || f.backend.Calls() != 0 {
		t.Errorf("unauthorized requests reached the engine: runs=%d calls=%d", f.runs, f.backend.Calls())
	}
}

func TestHandle_NoConfiguredKey(t *testing.T) {
	f := newFixtureWithConfig(t, trigger.DefaultConfig())

	resp := f.do(t, http.MethodGet, map[string]string{api.HeaderAction: "PING"}, "")
	assertMessage(t, resp, http.StatusUnauthorized, "Unauthorized: client missing apiKey")
}

func TestHandle_MismatchMessageHidesKey(t *testing.T) {
	f := newFixture(t)

	resp, _ := f.handler.Handle(context.Background(), api.Request{
		Method:  http.MethodGet,
		Headers: map[string]string{api.HeaderAPIKey: "leaked-key"},
	})
	assertMessage(t, resp, http.StatusUnauthorized, "Forbidden: client apiKey mismatch")
}

// ──────────────────────────────────────────────────
// GET
// ──────────────────────────────────────────────────

func TestHandle_Ping(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodGet, map[string]string{api.HeaderAction: "PING"}, "")
	if resp.Status != http.StatusOK {
		t.Fatalf("status = %d", resp.Status)
	}
	data, _ := json.Marshal(resp.Body)
	if string(data) != `{"message":"PONG"}` {
		t.Errorf("body = %s", data)
	}
}

func TestHandle_PingWithEnvironmentConfig(t *testing.T) {
	for _, k := range []string{"TRIGGER_ENDPOINT_URL", "TRIGGER_ENDPOINT_HOST", "TRIGGER_ENDPOINT_PATH"} {
		t.Setenv(k, "")
	}
	t.Setenv("TRIGGER_API_KEY", "env-key")
	t.Setenv("VERCEL_URL", "app.example.com")

	backend := backendtest.New()
	eng, err := engine.New(engine.WithAPI(backend), engine.WithLogger(testLogger()))
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	h := api.New(eng)

	resp, err := h.Handle(context.Background(), api.Request{
		Method:  http.MethodGet,
		Headers: map[string]string{api.HeaderAPIKey: "env-key", api.HeaderAction: "PING"},
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if resp.Status != http.StatusOK {
		t.Fatalf("status = %d (%v)", resp.Status, resp.Body)
	}

	resp, err = h.Handle(context.Background(), api.Request{
		Method:  http.MethodPost,
		Headers: map[string]string{api.HeaderAPIKey: "env-key", api.HeaderAction: string(api.ActionInitialize)},
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if resp.Status != http.StatusOK {
		t.Fatalf("initialize status = %d (%v)", resp.Status, resp.Body)
	}
	if regs := backend.Endpoints(); len(regs) != 1 || regs[0].URL != "https://app.example.com/api/trigger" {
		t.Errorf("registrations = %+v", regs)
	}
}

func TestHandle_GetJob(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodGet, map[string]string{api.HeaderJobID: "welcome"}, "")
	if resp.Status != http.StatusOK {
		t.Fatalf("status = %d", resp.Status)
	}
	body := bodyJSON(t, resp)
	if body["id"] != "welcome" || body["version"] != "1.0.0" {
		t.Errorf("body = %v", body)
	}

	resp = f.do(t, http.MethodGet, map[string]string{api.HeaderJobID: "missing"}, "")
	assertMessage(t, resp, http.StatusNotFound, "Job not found")
}

func TestHandle_Listing(t *testing.T) {
	f := newFixture(t)
	f.eng.AttachSource(source.AttachOptions{
		Key:    "github.acme",
		Source: &source.HTTPSource{ID: "github", Ver: "0.1.0"},
		Event:  signupSpec,
	})

	resp := f.do(t, http.MethodGet, nil, "")
	if resp.Status != http.StatusOK {
		t.Fatalf("status = %d", resp.Status)
	}
	body := bodyJSON(t, resp)

	jobs, _ := body["jobs"].([]any)
	if len(jobs) != 2 {
		t.Errorf("jobs = %v, want welcome and the source registration job", jobs)
	}
	sources, _ := body["sources"].([]any)
	if len(sources) != 1 {
		t.Errorf("sources = %v", sources)
	}
	for _, key := range []string{"dynamicTriggers", "dynamicSchedules"} {
		if _, ok := body[key].([]any); !ok {
			t.Errorf("%s = %#v, want array", key, body[key])
		}
	}
}

func TestHandle_ListingJobWithoutSpecification(t *testing.T) {
	f := newFixture(t)
	f.eng.Attach(&job.Job{
		ID:      "bare",
		Version: "1.0.0",
		Enabled: true,
		Trigger: job.NewEventTrigger(nil, nil),
		Run: func(context.Context, any, *runio.IO, *runio.Context) (any, error) {
			return nil, nil
		},
	})

	resp := f.do(t, http.MethodGet, nil, "")
	if resp.Status != http.StatusOK {
		t.Fatalf("status = %d", resp.Status)
	}
	if jobs, _ := bodyJSON(t, resp)["jobs"].([]any); len(jobs) != 2 {
		t.Errorf("jobs = %v", jobs)
	}

	resp = f.do(t, http.MethodGet, map[string]string{api.HeaderJobID: "bare"}, "")
	if resp.Status != http.StatusOK {
		t.Fatalf("status = %d", resp.Status)
	}
	trig, _ := bodyJSON(t, resp)["trigger"].(map[string]any)
	if trig["type"] != job.TriggerStatic {
		t.Errorf("trigger = %v", trig)
	}
	if _, ok := trig["rule"]; ok {
		t.Errorf("trigger without specification has rule %v", trig["rule"])
	}
}

// ──────────────────────────────────────────────────
// POST validation
// ──────────────────────────────────────────────────

func TestHandle_InvalidBodies(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		action api.Action
		body   string
	}{
		{api.ActionInitializeTrigger, ""},
		{api.ActionInitializeTrigger, `{"params":{}}`},
		{api.ActionExecuteJob, "{broken"},
		{api.ActionExecuteJob, `{"job":{"id":"welcome","version":"1.0.0"}}`},
		{api.ActionExecuteJob, `{"event":{"id":"e","name":"user.signup"},"job":{"id":"welcome","version":"1.0.0"},"run":{"id":"r"},"tasks":[{"id":"t"}]}`},
		{api.ActionPreprocessRun, `[]`},
		{api.ActionPreprocessRun, `{"event":{"id":"e"},"job":{"id":"welcome","version":"1.0.0"},"run":{"id":"r"}}`},
		{api.ActionDeliverHTTPSourceRequest, `{}`},
	}
	for _, c := range cases {
		resp := f.post(t, c.action, c.body)
		if resp.Status != http.StatusBadRequest {
			t.Errorf("%s %s: status = %d, want 400", c.action, c.body, resp.Status)
			continue
		}
		assertMessage(t, resp, http.StatusBadRequest, "Invalid request body")
	}

	if f.runs != 0 || f.backend.Calls() != 0 {
		t.Errorf("invalid requests reached the engine: runs=%d calls=%d", f.runs, f.backend.Calls())
	}
}

func TestHandle_UnknownActionAndMethod(t *testing.T) {
	f := newFixture(t)

	assertMessage(t, f.post(t, "BOGUS", "{}"), http.StatusMethodNotAllowed, "Method not allowed")
	assertMessage(t, f.do(t, http.MethodDelete, nil, ""), http.StatusMethodNotAllowed, "Method not allowed")
}

// ──────────────────────────────────────────────────
// INITIALIZE / INITIALIZE_TRIGGER
// ──────────────────────────────────────────────────

func TestHandle_Initialize(t *testing.T) {
	f := newFixture(t)

	resp := f.post(t, api.ActionInitialize, "")
	if resp.Status != http.StatusOK {
		t.Fatalf("status = %d", resp.Status)
	}
	if regs := f.backend.Endpoints(); len(regs) != 1 || regs[0].URL != "https://app.example.com/api/trigger" {
		t.Errorf("registrations = %+v", regs)
	}
}

func TestHandle_InitializeUnresolvedEndpoint(t *testing.T) {
	cfg := trigger.DefaultConfig()
	cfg.APIKey = testAPIKey
	f := newFixtureWithConfig(t, cfg)

	_, err := f.handler.Handle(context.Background(), api.Request{
		Method:  http.MethodPost,
		Headers: map[string]string{api.HeaderAPIKey: testAPIKey, api.HeaderAction: "INITIALIZE"},
	})
	if !errors.Is(err, trigger.ErrEndpointUnresolved) {
		t.Fatalf("expected ErrEndpointUnresolved, got %v", err)
	}
	if f.backend.Calls() != 0 {
		t.Errorf("backend called %d times", f.backend.Calls())
	}
}

func TestHandle_InitializeTrigger(t *testing.T) {
	f := newFixture(t)
	f.eng.AttachDynamicTrigger(job.NewDynamicTrigger("repo-push", &source.HTTPSource{ID: "github", Ver: "0.1.0"}, signupSpec, nil))

	resp := f.post(t, api.ActionInitializeTrigger, `{"id":"repo-push","params":{"repo":"acme/api"}}`)
	if resp.Status != http.StatusOK {
		t.Fatalf("status = %d (%v)", resp.Status, resp.Body)
	}
	body := bodyJSON(t, resp)
	rule, _ := body["rule"].(map[string]any)
	if rule["event"] != "user.signup" {
		t.Errorf("rule = %v", rule)
	}

	assertMessage(t, f.post(t, api.ActionInitializeTrigger, `{"id":"missing"}`), http.StatusNotFound, "Dynamic trigger not found")
}

// ──────────────────────────────────────────────────
// EXECUTE_JOB
// ──────────────────────────────────────────────────

func TestHandle_ExecuteCompleted(t *testing.T) {
	f := newFixture(t)

	resp := f.post(t, api.ActionExecuteJob, executeBody("welcome", "run_1", `{"email":"a@b.c"}`, nil))
	if resp.Status != http.StatusOK {
		t.Fatalf("status = %d (%v)", resp.Status, resp.Body)
	}
	body := bodyJSON(t, resp)
	if body["completed"] != true {
		t.Errorf("completed = %v", body["completed"])
	}
	out, _ := body["output"].(map[string]any)
	if out["sent"] != "a@b.c" {
		t.Errorf("output = %v", body["output"])
	}
	if eid, _ := body["executionId"].(string); eid == "" {
		t.Error("missing executionId")
	}
	if _, ok := body["task"]; ok {
		t.Error("completed run should not carry a task")
	}
}

func TestHandle_ExecuteNilOutput(t *testing.T) {
	f := newFixture(t)
	f.eng.Attach(&job.Job{
		ID:      "noop",
		Version: "1.0.0",
		Enabled: true,
		Trigger: job.NewEventTrigger(signupSpec, nil),
		Run: func(context.Context, any, *runio.IO, *runio.Context) (any, error) {
			return nil, nil
		},
	})

	resp := f.post(t, api.ActionExecuteJob, executeBody("noop", "run_1", `{"email":"a@b.c"}`, nil))
	if resp.Status != http.StatusOK {
		t.Fatalf("status = %d (%v)", resp.Status, resp.Body)
	}
	body := bodyJSON(t, resp)
	out, present := body["output"]
	if !present || out != nil {
		t.Errorf("output = %v (present %v), want null", out, present)
	}
}

func TestHandle_ExecutionIDStablePerRun(t *testing.T) {
	f := newFixture(t)

	first := bodyJSON(t, f.post(t, api.ActionExecuteJob, executeBody("welcome", "run_7", `{"email":"a@b.c"}`, nil)))
	second := bodyJSON(t, f.post(t, api.ActionExecuteJob, executeBody("welcome", "run_7", `{"email":"a@b.c"}`, nil)))
	other := bodyJSON(t, f.post(t, api.ActionExecuteJob, executeBody("welcome", "run_8", `{"email":"a@b.c"}`, nil)))

	if first["executionId"] != second["executionId"] {
		t.Errorf("executionId changed between deliveries: %v vs %v", first["executionId"], second["executionId"])
	}
	if first["executionId"] == other["executionId"] {
		t.Errorf("distinct runs share executionId %v", first["executionId"])
	}
}

func TestHandle_ExecuteUnknownJob(t *testing.T) {
	f := newFixture(t)

	resp := f.post(t, api.ActionExecuteJob, executeBody("missing", "run_1", `{}`, nil))
	assertMessage(t, resp, http.StatusNotFound, "Job not found")
	if f.backend.Calls() != 0 {
		t.Errorf("backend called %d times", f.backend.Calls())
	}
}

func TestHandle_ExecuteSuspendsAndResumes(t *testing.T) {
	f := newFixture(t)

	var sent int
	f.eng.Attach(&job.Job{
		ID:      "drip",
		Version: "1.0.0",
		Enabled: true,
		Trigger: job.NewEventTrigger(signupSpec, nil),
		Run: func(ctx context.Context, _ any, rio *runio.IO, _ *runio.Context) (any, error) {
			if err := rio.Wait(ctx, "cool-down", time.Hour); err != nil {
				return nil, err
			}
			sent++
			return "done", nil
		},
	})

	resp := f.post(t, api.ActionExecuteJob, executeBody("drip", "run_7", `{"email":"a@b.c"}`, nil))
	if resp.Status != http.StatusOK {
		t.Fatalf("suspended run status = %d, want 200", resp.Status)
	}
	body := bodyJSON(t, resp)
	if body["completed"] != false {
		t.Errorf("completed = %v, want false", body["completed"])
	}
	tk, _ := body["task"].(map[string]any)
	if tk["id"] != "task_cool-down" || tk["noop"] != true {
		t.Errorf("task = %v", body["task"])
	}
	if sent != 0 {
		t.Fatal("run continued past the suspension point")
	}

	resumed := []task.Task{{
		ID:             "task_cool-down",
		IdempotencyKey: task.IdempotencyKey("", "run_7", "cool-down"),
		Status:         task.StatusCompleted,
		Noop:           true,
	}}
	resp = f.post(t, api.ActionExecuteJob, executeBody("drip", "run_7", `{"email":"a@b.c"}`, resumed))
	body = bodyJSON(t, resp)
	if body["completed"] != true || body["output"] != "done" {
		t.Errorf("resumed body = %v", body)
	}
	if sent != 1 {
		t.Errorf("sent = %d, want 1", sent)
	}
	if got := len(f.backend.RunTasks()); got != 1 {
		t.Errorf("backend saw %d task runs, want 1", got)
	}
}

func TestHandle_ExecuteJobError(t *testing.T) {
	f := newFixture(t)
	f.eng.Attach(&job.Job{
		ID:      "broken",
		Version: "1.0.0",
		Enabled: true,
		Trigger: job.NewEventTrigger(signupSpec, nil),
		Run: func(context.Context, any, *runio.IO, *runio.Context) (any, error) {
			return nil, errors.New("smtp unavailable")
		},
	})

	resp := f.post(t, api.ActionExecuteJob, executeBody("broken", "run_1", `{}`, nil))
	if resp.Status != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.Status)
	}
	body := bodyJSON(t, resp)
	if body["completed"] != true {
		t.Errorf("completed = %v", body["completed"])
	}
	rec, _ := body["error"].(map[string]any)
	if rec["message"] != "smtp unavailable" {
		t.Errorf("error = %v", body["error"])
	}
}

func TestHandle_ExecutePanicIsUnknownError(t *testing.T) {
	f := newFixture(t)
	f.eng.Attach(&job.Job{
		ID:      "panics",
		Version: "1.0.0",
		Enabled: true,
		Trigger: job.NewEventTrigger(signupSpec, nil),
		Run: func(context.Context, any, *runio.IO, *runio.Context) (any, error) {
			panic(42)
		},
	})

	resp := f.post(t, api.ActionExecuteJob, executeBody("panics", "run_1", `{}`, nil))
	body := bodyJSON(t, resp)
	rec, _ := body["error"].(map[string]any)
	if rec["message"] != worker.UnknownErrorMessage {
		t.Errorf("error = %v", body["error"])
	}
}

// ──────────────────────────────────────────────────
// PREPROCESS_RUN
// ──────────────────────────────────────────────────

func TestHandle_Preprocess(t *testing.T) {
	f := newFixture(t)

	body := `{"event":{"id":"e","name":"user.signup","payload":{"email":"a@b.c"}},"job":{"id":"welcome","version":"1.0.0"},"run":{"id":"r"}}`
	resp := f.post(t, api.ActionPreprocessRun, body)
	if resp.Status != http.StatusOK {
		t.Fatalf("status = %d (%v)", resp.Status, resp.Body)
	}
	data, _ := json.Marshal(resp.Body)
	if string(data) != `{"abort":false,"elements":[]}` {
		t.Errorf("body = %s", data)
	}

	missing := `{"event":{"id":"e","name":"user.signup"},"job":{"id":"missing","version":"1"},"run":{"id":"r"}}`
	assertMessage(t, f.post(t, api.ActionPreprocessRun, missing), http.StatusNotFound, "Job not found")
}

// ──────────────────────────────────────────────────
// DELIVER_HTTP_SOURCE_REQUEST
// ──────────────────────────────────────────────────

func deliveryHeaders(extra map[string]string) map[string]string {
	h := map[string]string{
		api.HeaderAction:        string(api.ActionDeliverHTTPSourceRequest),
		api.HeaderSourceURL:     "https://app.example.com/webhooks/github",
		api.HeaderSourceMethod:  http.MethodPost,
		api.HeaderSourceHeaders: `{"x-github-event":"push"}`,
		api.HeaderSourceKey:     "github.acme",
	}
	for k, v := range extra {
		h[k] = v
	}
	return h
}

func TestHandle_DeliverUnknownDynamicTrigger(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPost, deliveryHeaders(map[string]string{api.HeaderSourceDynamicID: "missing"}), `{"ref":"main"}`)
	if resp.Status != http.StatusOK {
		t.Fatalf("status = %d", resp.Status)
	}
	data, _ := json.Marshal(resp.Body)
	if string(data) != `{"events":[],"response":{"status":200,"body":{"ok":true}}}` {
		t.Errorf("body = %s", data)
	}
}

func TestHandle_DeliverToSource(t *testing.T) {
	f := newFixture(t)

	var got source.Request
	var gotDesc source.Descriptor
	f.eng.AttachSource(source.AttachOptions{
		Key: "github.acme",
		Source: &source.HTTPSource{
			ID:  "github",
			Ver: "0.1.0",
			OnHandle: func(_ context.Context, d source.Descriptor, req source.Request, _ *slog.Logger) (*source.HandleResult, error) {
				got, gotDesc = req, d
				return &source.HandleResult{Events: []event.Send{{Name: "push", Payload: map[string]any{"ref": "main"}}}}, nil
			},
		},
		Event: signupSpec,
	})

	resp := f.do(t, http.MethodPost, deliveryHeaders(map[string]string{
		api.HeaderSourceSecret: "s3cr3t",
		api.HeaderSourceParams: `{"repo":"acme/api"}`,
	}), `{"ref":"main"}`)
	if resp.Status != http.StatusOK {
		t.Fatalf("status = %d (%v)", resp.Status, resp.Body)
	}
	if string(got.RawBody) != `{"ref":"main"}` {
		t.Errorf("raw body = %q", got.RawBody)
	}
	if got.Headers["x-github-event"] != "push" || got.Method != http.MethodPost {
		t.Errorf("request = %+v", got)
	}
	if gotDesc.Secret != "s3cr3t" || string(gotDesc.Params) != `{"repo":"acme/api"}` {
		t.Errorf("descriptor = %+v", gotDesc)
	}

	body := bodyJSON(t, resp)
	events, _ := body["events"].([]any)
	if len(events) != 1 {
		t.Errorf("events = %v", body["events"])
	}
}

func TestHandle_DeliverInvalidHeaders(t *testing.T) {
	f := newFixture(t)

	for _, extra := range []map[string]string{
		{api.HeaderSourceHeaders: "not-json"},
		{api.HeaderSourceKey: ""},
		{api.HeaderSourceParams: "{oops"},
	} {
		resp := f.do(t, http.MethodPost, deliveryHeaders(extra), "")
		assertMessage(t, resp, http.StatusBadRequest, "Invalid request body")
	}
}
