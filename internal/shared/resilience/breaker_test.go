package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestExecuteDoesNotRetry(t *testing.T) {
	exec := NewExecutor(Config{Enabled: true})
	attempts := 0
	errBoom := errors.New("boom")

	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		attempts++
		return errBoom
	}, nil)
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected exactly one attempt, got %d", attempts)
	}
}

func TestExecuteOpensBreakerAfterFailures(t *testing.T) {
	exec := NewExecutor(Config{
		Enabled:          true,
		MinRequests:      2,
		FailureRatio:     0.5,
		OpenTimeout:      time.Minute,
		HalfOpenMaxCalls: 1,
	})
	fail := func(context.Context) error { return errors.New("down") }

	for i := 0; i < 2; i++ {
		_ = exec.Execute(context.Background(), "backend", fail, nil)
	}

	called := false
	err := exec.Execute(context.Background(), "backend", func(context.Context) error {
		called = true
		return nil
	}, nil)
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if called {
		t.Fatalf("expected open breaker to skip the call")
	}
	if exec.State("backend") != "open" {
		t.Fatalf("expected open state, got %s", exec.State("backend"))
	}
}

func TestExecuteIgnoresUnrecordedErrors(t *testing.T) {
	exec := NewExecutor(Config{Enabled: true, MinRequests: 1, FailureRatio: 0.1})
	errClient := errors.New("client error")
	classifier := func(err error) bool { return !errors.Is(err, errClient) }

	for i := 0; i < 3; i++ {
		_ = exec.Execute(context.Background(), "op", func(context.Context) error { return errClient }, classifier)
	}
	if exec.State("op") != "closed" {
		t.Fatalf("expected closed breaker, got %s", exec.State("op"))
	}
}

func TestDisabledExecutorPassesThrough(t *testing.T) {
	exec := NewExecutor(Config{Enabled: false})
	calls := 0
	for i := 0; i < 10; i++ {
		_ = exec.Execute(context.Background(), "op", func(context.Context) error {
			calls++
			return errors.New("x")
		}, nil)
	}
	if calls != 10 {
		t.Fatalf("expected every call to run, got %d", calls)
	}
}
