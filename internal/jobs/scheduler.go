package jobs

import (
	"context"
	"fmt"
	"time"

	"charter/internal/observability"
	"charter/internal/utils"

	"github.com/go-co-op/gocron/v2"
)

// Task is a periodic background job.
type Task struct {
	Name     string
	Interval time.Duration
	Timeout  time.Duration
	Run      func(ctx context.Context) error
}

type Scheduler struct {
	s gocron.Scheduler
}

// New registers every task; nothing runs until Start.
func New(tasks ...Task) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	for _, t := range tasks {
		if t.Interval <= 0 || t.Run == nil {
			continue
		}
		task := t
		_, err := s.NewJob(
			gocron.DurationJob(task.Interval),
			gocron.NewTask(func() { runTask(task) }),
			gocron.WithName(task.Name),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			_ = s.Shutdown()
			return nil, fmt.Errorf("register job %s: %w", task.Name, err)
		}
	}
	return &Scheduler{s: s}, nil
}

func (s *Scheduler) Start() { s.s.Start() }

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() error { return s.s.Shutdown() }

func runTask(t Task) {
	timeout := t.Timeout
	if timeout <= 0 {
		timeout = time.Minute
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := t.Run(ctx); err != nil {
		observability.JobRuns.WithLabelValues(t.Name, "error").Inc()
		utils.LogError("", "jobs", t.Name, err)
		return
	}
	observability.JobRuns.WithLabelValues(t.Name, "ok").Inc()
}
