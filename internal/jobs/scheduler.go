// Package jobs runs periodic maintenance for the catalog API.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var scheduleParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// CategoryWarmer rebuilds the cached category forest.
type CategoryWarmer interface {
	WarmCategories(ctx context.Context) error
}

// Scheduler wraps a cron runner. Overlapping runs of the same job are skipped.
type Scheduler struct {
	cron   *cron.Cron
	logger *zap.Logger
}

// NewScheduler creates a stopped scheduler.
func NewScheduler(logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	cl := cronLogger{logger.Sugar()}
	return &Scheduler{
		cron: cron.New(
			cron.WithParser(scheduleParser),
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger: logger,
	}
}

// AddCategoryWarmer runs w on schedule, a cron expression or descriptor.
// Each run gets its own timeout and is cancelled when ctx is.
func (s *Scheduler) AddCategoryWarmer(ctx context.Context, schedule string, timeout time.Duration, w CategoryWarmer) error {
	if _, err := s.cron.AddFunc(schedule, warmJob(ctx, timeout, w, s.logger)); err != nil {
		return fmt.Errorf("invalid cache warm schedule %q: %w", schedule, err)
	}
	s.logger.Info("category cache warmer scheduled", zap.String("schedule", schedule))
	return nil
}

// Start runs the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.logger.Warn("scheduler stop timed out with jobs still running")
	}
}

func warmJob(ctx context.Context, timeout time.Duration, w CategoryWarmer, logger *zap.Logger) func() {
	return func() {
		if ctx.Err() != nil {
			return
		}
		runCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		start := time.Now()
		if err := w.WarmCategories(runCtx); err != nil {
			logger.Error("category cache warm failed", zap.Error(err))
			return
		}
		logger.Debug("category cache warmed", zap.Duration("duration", time.Since(start)))
	}
}

// cronLogger adapts zap to cron's logger.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
