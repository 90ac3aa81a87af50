package middleware_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/xraph/trigger/job"
	"github.com/xraph/trigger/middleware"
	"github.com/xraph/trigger/runio"
	"github.com/xraph/trigger/task"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestJob() *job.Job {
	return &job.Job{ID: "send-email", Version: "1.2.0", Enabled: true}
}

func runContext() context.Context {
	return runio.WithRun(context.Background(), &runio.Context{Run: runio.Run{ID: "run_42"}})
}

func TestChain_ExecutionOrder(t *testing.T) {
	var order []string

	mw1 := func(ctx context.Context, _ *job.Job, next middleware.Handler) error {
		order = append(order, "mw1-before")
		err := next(ctx)
		order = append(order, "mw1-after")
		return err
	}

	mw2 := func(ctx context.Context, _ *job.Job, next middleware.Handler) error {
		order = append(order, "mw2-before")
		err := next(ctx)
		order = append(order, "mw2-after")
		return err
	}

	chain := middleware.Chain(mw1, mw2)
	handler := func(_ context.Context) error {
		order = append(order, "handler")
		return nil
	}

	if err := chain(context.Background(), newTestJob(), handler); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []string{"mw1-before", "mw2-before", "handler", "mw2-after", "mw1-after"}
	if len(order) != len(expected) {
		t.Fatalf("expected %d calls, got %d: %v", len(expected), len(order), order)
	}
	for i, want := range expected {
		if order[i] != want {
			t.Errorf("order[%d] = %q, want %q", i, order[i], want)
		}
	}
}

func TestChain_Empty(t *testing.T) {
	chain := middleware.Chain()
	called := false
	err := chain(context.Background(), newTestJob(), func(_ context.Context) error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Fatal("handler not called with empty chain")
	}
}

func TestChain_PropagatesError(t *testing.T) {
	mw := func(ctx context.Context, _ *job.Job, next middleware.Handler) error {
		return next(ctx)
	}
	want := errors.New("handler error")

	err := middleware.Chain(mw)(context.Background(), newTestJob(), func(_ context.Context) error {
		return want
	})
	if !errors.Is(err, want) {
		t.Fatalf("expected %v, got %v", want, err)
	}
}

func TestRecover_CatchesPanic(t *testing.T) {
	mw := middleware.Recover(testLogger())

	err := mw(runContext(), newTestJob(), func(_ context.Context) error {
		panic("test panic")
	})

	var pe *middleware.PanicError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PanicError, got %v", err)
	}
	if pe.Value != "test panic" {
		t.Errorf("Value = %v", pe.Value)
	}
	if len(pe.Stack) == 0 {
		t.Error("expected stack to be captured")
	}
	if errors.Unwrap(err) != nil {
		t.Error("non-error panic should not unwrap")
	}
}

func TestRecover_UnwrapsErrorPanic(t *testing.T) {
	mw := middleware.Recover(testLogger())
	boom := errors.New("boom")

	err := mw(context.Background(), newTestJob(), func(_ context.Context) error {
		panic(boom)
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected panic value in chain, got %v", err)
	}
}

func TestRecover_PassesThrough(t *testing.T) {
	mw := middleware.Recover(testLogger())

	called := false
	err := mw(context.Background(), newTestJob(), func(_ context.Context) error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Fatal("handler not called")
	}
}

func TestLogging_PassesResultThrough(t *testing.T) {
	mw := middleware.Logging(testLogger())
	suspend := &runio.SuspendError{Task: task.Task{ID: "t1"}}

	if err := mw(runContext(), newTestJob(), func(context.Context) error { return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mw(runContext(), newTestJob(), func(context.Context) error { return suspend }); !errors.Is(err, suspend) {
		t.Fatalf("expected suspension to pass through, got %v", err)
	}
}

func TestStatusOf(t *testing.T) {
	if got := middleware.StatusOf(nil); got != middleware.StatusCompleted {
		t.Errorf("StatusOf(nil) = %q", got)
	}
	if got := middleware.StatusOf(&runio.SuspendError{}); got != middleware.StatusSuspended {
		t.Errorf("StatusOf(suspend) = %q", got)
	}
	if got := middleware.StatusOf(errors.New("x")); got != middleware.StatusError {
		t.Errorf("StatusOf(err) = %q", got)
	}
}
