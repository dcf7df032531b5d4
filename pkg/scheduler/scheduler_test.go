package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestScheduler_Add(t *testing.T) {
	tests := []struct {
		name      string
		spec      string
		wantError bool
		wantEntry bool
	}{
		{name: "every descriptor", spec: "@every 1m", wantEntry: true},
		{name: "daily schedule", spec: "0 3 * * *", wantEntry: true},
		{name: "empty schedule skips job", spec: ""},
		{name: "invalid schedule", spec: "not a schedule", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(nil)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			err := s.Add(ctx, "job", tt.spec, func(context.Context) error { return nil })
			if (err != nil) != tt.wantError {
				t.Fatalf("Add() error = %v, wantError %v", err, tt.wantError)
			}

			s.Start(ctx)
			defer s.Stop()

			next, ok := s.NextRun("job")
			if ok != tt.wantEntry {
				t.Fatalf("NextRun() ok = %v, want %v", ok, tt.wantEntry)
			}
			if ok && !next.After(time.Now().Add(-time.Second)) {
				t.Errorf("NextRun() = %v, want a future time", next)
			}
		})
	}
}

func TestScheduler_DuplicateJob(t *testing.T) {
	s := New(nil)
	ctx := context.Background()
	noop := func(context.Context) error { return nil }

	if err := s.Add(ctx, "sweep", "@every 1m", noop); err != nil {
		t.Fatalf("first Add() error = %v", err)
	}
	if err := s.Add(ctx, "sweep", "@every 1m", noop); err == nil {
		t.Error("second Add() with same name should fail")
	}
}

func TestScheduler_RunsJobs(t *testing.T) {
	s := New(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var runs atomic.Int32
	err := s.Add(ctx, "tick", "@every 1s", func(context.Context) error {
		runs.Add(1)
		return errors.New("failures are logged, not fatal")
	})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	s.Start(ctx)
	if !s.IsRunning() {
		t.Fatal("scheduler should be running after Start")
	}

	deadline := time.Now().Add(3 * time.Second)
	for runs.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	if runs.Load() == 0 {
		t.Fatal("job never ran")
	}

	s.Stop()
	if s.IsRunning() {
		t.Error("scheduler should not be running after Stop")
	}
}

func TestScheduler_StopsOnContextCancel(t *testing.T) {
	s := New(nil)
	ctx, cancel := context.WithCancel(context.Background())

	s.Start(ctx)
	cancel()

	deadline := time.Now().Add(2 * time.Second)
	for s.IsRunning() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if s.IsRunning() {
		t.Error("scheduler still running after context cancellation")
	}
}
