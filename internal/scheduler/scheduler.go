package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/date-planner/pkg/logger"
)

// Sweeper removes sessions idle for longer than the given duration.
type Sweeper interface {
	SweepIdle(ctx context.Context, idle time.Duration) (int, error)
}

// Scheduler periodically drops idle conversation sessions.
type Scheduler struct {
	scheduler *gocron.Scheduler
	sweeper   Sweeper
	interval  time.Duration
	idleTTL   time.Duration
}

// New creates a new Scheduler.
func New(sweeper Sweeper, interval, idleTTL time.Duration) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		sweeper:   sweeper,
		interval:  interval,
		idleTTL:   idleTTL,
	}
}

// Start schedules the sweep job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if s.idleTTL <= 0 {
		logger.Info("scheduler: session idle ttl disabled; nothing to schedule")
		return nil
	}

	interval := s.interval
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	_, err := s.scheduler.Every(interval).WaitForSchedule().Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		s.RunOnce(ctx)
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// RunOnce performs a single sweep.
func (s *Scheduler) RunOnce(ctx context.Context) int {
	n, err := s.sweeper.SweepIdle(ctx, s.idleTTL)
	if err != nil {
		logger.Errorf("scheduler: session sweep failed: %v", err)
		return 0
	}
	if n > 0 {
		logger.Infof("scheduler: removed %d idle sessions", n)
	}
	return n
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
