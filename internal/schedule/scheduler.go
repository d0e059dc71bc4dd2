// Package schedule runs assignctl operations periodically for watch mode.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/assignctl/internal/logfields"
)

// Task is one periodic unit of work.
type Task func(ctx context.Context) error

// Scheduler wraps gocron scheduler for managing periodic tasks. Jobs run in
// singleton mode: a tick that arrives while the previous run is still going
// is rescheduled, so runs never overlap.
type Scheduler struct {
	scheduler gocron.Scheduler
	logger    *slog.Logger

	mu  sync.RWMutex
	ctx context.Context
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(logger *slog.Logger) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{scheduler: s, logger: logger, ctx: context.Background()}, nil
}

// Every registers task to run every interval, starting immediately once the
// scheduler is started. It returns the job ID.
func (s *Scheduler) Every(interval time.Duration, name string, task Task) (string, error) {
	if interval <= 0 {
		return "", fmt.Errorf("interval must be positive, got %s", interval)
	}
	job, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(s.execute, name, task),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create periodic job %s: %w", name, err)
	}
	return job.ID().String(), nil
}

// Start begins the scheduler. Tasks receive ctx; cancel it and call Stop to end.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()
	s.logger.Info("Starting scheduler")
	s.scheduler.Start()
}

// Stop gracefully shuts down the scheduler, waiting for a running task.
func (s *Scheduler) Stop() error {
	s.logger.Info("Stopping scheduler")
	return s.scheduler.Shutdown()
}

// execute is called by gocron for every tick.
func (s *Scheduler) execute(name string, task Task) {
	s.mu.RLock()
	ctx := s.ctx
	s.mu.RUnlock()
	if ctx.Err() != nil {
		return
	}

	start := time.Now()
	log := s.logger.With(slog.String("job", name))
	log.Debug("Executing scheduled run")
	if err := task(ctx); err != nil {
		log.Error("Scheduled run failed", logfields.Error(err), logfields.DurationMS(float64(time.Since(start).Milliseconds())))
		return
	}
	log.Info("Scheduled run complete", logfields.DurationMS(float64(time.Since(start).Milliseconds())))
}
