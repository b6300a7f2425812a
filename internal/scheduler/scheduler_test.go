package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNewRejectsBadSchedule(t *testing.T) {
	job := func(ctx context.Context) error { return nil }
	if _, err := New("sync", "every ten minutes", time.Second, job, nil); err == nil {
		t.Error("New() should reject an invalid cron expression")
	}
}

func TestRunAppliesTimeout(t *testing.T) {
	var deadline time.Time
	var ok bool
	job := func(ctx context.Context) error {
		deadline, ok = ctx.Deadline()
		return nil
	}

	s, err := New("sync", "*/10 * * * *", time.Minute, job, nil)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	s.run()

	if !ok {
		t.Fatal("job context has no deadline")
	}
	if until := time.Until(deadline); until <= 0 || until > time.Minute {
		t.Errorf("deadline in %v, want within a minute", until)
	}
}

func TestRunSurvivesJobError(t *testing.T) {
	calls := 0
	job := func(ctx context.Context) error {
		calls++
		return errors.New("erp unavailable")
	}

	s, err := New("sync", "@every 1h", 0, job, nil)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	s.run()
	s.run()
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestStartStop(t *testing.T) {
	s, err := New("sync", "0 3 * * *", time.Second, func(ctx context.Context) error { return nil }, nil)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if n := len(s.cron.Entries()); n != 1 {
		t.Errorf("len(Entries()) = %d, want 1", n)
	}
	s.Stop()
}
