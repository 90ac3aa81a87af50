package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/xraph/trigger"
	"github.com/xraph/trigger/backoff"
	"github.com/xraph/trigger/client"
	"github.com/xraph/trigger/event"
	"github.com/xraph/trigger/task"
)

// ── Test Helpers ──────────────────────────────────────

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, h http.HandlerFunc) *client.Client {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return client.New(ts.URL, "tr_dev_123",
		client.WithLogger(testLogger()),
		client.WithBackoff(backoff.NewConstant(time.Millisecond)),
		client.WithMaxRetries(2),
	)
}

// ── Tests ─────────────────────────────────────────────

func TestRegisterEndpoint(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/endpoints" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tr_dev_123" {
			t.Errorf("Authorization = %q", got)
		}
		var reg client.EndpointRegistration
		if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if reg.URL != "https://app.example.com/api/trigger" || reg.ID != "my-app" {
			t.Errorf("registration = %+v", reg)
		}
		_, _ = w.Write([]byte(`{"id":"ep_1","url":"https://app.example.com/api/trigger"}`))
	})

	out, err := c.RegisterEndpoint(context.Background(), client.EndpointRegistration{
		ID:  "my-app",
		URL: "https://app.example.com/api/trigger",
	})
	if err != nil {
		t.Fatalf("RegisterEndpoint: %v", err)
	}
	var resp map[string]string
	if err := json.Unmarshal(out, &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp["id"] != "ep_1" {
		t.Errorf("response = %v", resp)
	}
}

func TestSendEvent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Event event.Send `json:"event"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body.Event.Name != "user.created" {
			t.Errorf("event name = %q", body.Event.Name)
		}
		_, _ = w.Write([]byte(`{"id":"evt_1","name":"user.created","timestamp":"2026-01-02T03:04:05Z"}`))
	})

	rec, err := c.SendEvent(context.Background(), event.Send{Name: "user.created", Payload: map[string]string{"id": "u1"}}, nil)
	if err != nil {
		t.Fatalf("SendEvent: %v", err)
	}
	if rec.ID != "evt_1" {
		t.Errorf("record = %+v", rec)
	}
}

func TestRunTask_DecodesTask(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/runs/run_1/tasks" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var req client.RunTaskRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		_ = json.NewEncoder(w).Encode(task.Task{
			ID:             "task_1",
			IdempotencyKey: req.IdempotencyKey,
			Status:         task.StatusRunning,
		})
	})

	got, err := c.RunTask(context.Background(), "run_1", client.RunTaskRequest{IdempotencyKey: "k1", Name: "send"})
	if err != nil {
		t.Fatalf("RunTask: %v", err)
	}
	if got.ID != "task_1" || got.IdempotencyKey != "k1" || got.Status != task.StatusRunning {
		t.Errorf("task = %+v", got)
	}
}

func TestRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	})

	if err := c.UnregisterSchedule(context.Background(), "sched", "k"); err != nil {
		t.Fatalf("UnregisterSchedule: %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
}

func TestGivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"message":"down"}`))
	})

	_, err := c.UpdateSource(context.Background(), "github.repo", map[string]any{"events": []string{"push"}})
	if !errors.Is(err, trigger.ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusServiceUnavailable || apiErr.Message != "down" {
		t.Errorf("APIError = %+v", apiErr)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("calls = %d, want 3 (1 + 2 retries)", got)
	}
}

func TestClientErrorsAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"no such trigger"}`))
	})

	_, err := c.RegisterTrigger(context.Background(), "gh", "repo-1", map[string]any{})
	if !client.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
}

func TestContextCancelStopsRetries(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	c := client.New(ts.URL, "k",
		client.WithLogger(testLogger()),
		client.WithBackoff(backoff.NewConstant(time.Hour)),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.CompleteTask(ctx, "run_1", "task_1", "done")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}
