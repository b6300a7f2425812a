package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job is a unit of scheduled work
type Job func(ctx context.Context) error

// Scheduler runs a job on a cron schedule.
type Scheduler struct {
	cron    *cron.Cron
	spec    string
	name    string
	job     Job
	timeout time.Duration
	logger  *zap.Logger
}

// New creates a scheduler for a standard 5-field cron expression.
func New(name, spec string, timeout time.Duration, job Job, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", spec, err)
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	return &Scheduler{
		cron:    cron.New(),
		spec:    spec,
		name:    name,
		job:     job,
		timeout: timeout,
		logger:  logger,
	}, nil
}

// Start registers the job and starts the cron loop.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler", zap.String("job", s.name), zap.String("schedule", s.spec))

	if _, err := s.cron.AddFunc(s.spec, s.run); err != nil {
		return fmt.Errorf("failed to schedule %s: %w", s.name, err)
	}

	s.cron.Start()
	return nil
}

// Stop stops the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler", zap.String("job", s.name))
	<-s.cron.Stop().Done()
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	if err := s.job(ctx); err != nil {
		s.logger.Error("scheduled job failed", zap.String("job", s.name), zap.Error(err))
		return
	}
	s.logger.Info("scheduled job finished", zap.String("job", s.name), zap.Duration("duration", time.Since(start)))
}
