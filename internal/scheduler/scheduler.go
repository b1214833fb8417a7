package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// RunFunc executes one collection run to completion.
type RunFunc func(ctx context.Context)

// Scheduler triggers pipeline runs on a fixed cadence. Runs execute inline in
// the scheduler goroutine, so they can never overlap: a tick that arrives
// while a run is still executing is simply delivered after it finishes.
type Scheduler struct {
	logger   *zap.Logger
	runner   RunFunc
	interval time.Duration
	stopCh   chan struct{}
}

// New constructs a Scheduler.
func New(logger *zap.Logger, runner RunFunc, interval time.Duration) *Scheduler {
	return &Scheduler{
		logger:   logger,
		runner:   runner,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start runs one collection immediately, then on every tick until the context
// is canceled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("scheduler.started", zap.Duration("interval", s.interval))

	s.runner(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runner(ctx)
		case <-s.stopCh:
			s.logger.Info("scheduler.stopped (manual stop)")
			return
		case <-ctx.Done():
			s.logger.Info("scheduler.stopped (context canceled)")
			return
		}
	}
}

// Stop gracefully halts the scheduler.
func (s *Scheduler) Stop() {
	close(s.stopCh)
}
