package usecase

import (
	"context"
	"log/slog"
	"time"

	"WikiCardPoster/internal/ports"
)

// Runner is the unit of work the scheduler repeats.
type Runner interface {
	Run(ctx context.Context, now time.Time, force bool) (Outcome, error)
}

// Scheduler binds the recurring driver to the pipeline.
type Scheduler struct {
	driver ports.Scheduler
	runner Runner
	logger *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring runs.
func NewScheduler(driver ports.Scheduler, runner Runner, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{driver: driver, runner: runner, logger: logger.With("component", "scheduler")}
}

// Start registers the pipeline with the driver. Run errors are logged and never stop the loop.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.runner == nil {
		return nil
	}

	job := func(trigger time.Time) {
		out, err := s.runner.Run(ctx, trigger, false)
		if err != nil {
			s.logger.Error("run failed", "run_id", out.RunID, "error", err)
			return
		}
		if out.Status == OutcomePublished {
			s.logger.Info("run published", "run_id", out.RunID, "title", out.Post.Article.Title)
		}
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying driver.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
