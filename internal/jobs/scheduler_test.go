package jobs

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRunTaskPassesDeadline(t *testing.T) {
	var hadDeadline bool
	runTask(Task{
		Name:    "probe",
		Timeout: time.Second,
		Run: func(ctx context.Context) error {
			_, hadDeadline = ctx.Deadline()
			return nil
		},
	})
	if !hadDeadline {
		t.Fatalf("task context has no deadline")
	}
}

func TestRunTaskSwallowsErrors(t *testing.T) {
	runTask(Task{Name: "failing", Run: func(context.Context) error { return errors.New("boom") }})
}

func TestNewSkipsIncompleteTasks(t *testing.T) {
	s, err := New(Task{Name: "no-interval", Run: func(context.Context) error { return nil }})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	s.Start()
	if err := s.Stop(); err != nil {
		t.Fatalf("Stop error: %v", err)
	}
}
