package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"feed_ingestor/internal/domain"
)

// Runner defines the interface for ingestion runs.
type Runner interface {
	RunOnce(ctx context.Context) (*domain.RunSummary, error)
}

type Config struct {
	Interval   time.Duration
	RunTimeout time.Duration
	RunOnStart bool
}

type Scheduler struct {
	runner Runner
	cfg    Config
	logger *slog.Logger
}

func NewScheduler(runner Runner, cfg Config, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		runner: runner,
		cfg:    cfg,
		logger: logger.With("component", "scheduler"),
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler started", "interval", s.cfg.Interval, "run_timeout", s.cfg.RunTimeout)

	if s.cfg.RunOnStart {
		s.tick(ctx)
	}

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	runCtx := ctx
	if s.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.cfg.RunTimeout)
		defer cancel()
	}

	_, err := s.runner.RunOnce(runCtx)
	switch {
	case errors.Is(err, domain.ErrRunInProgress):
		s.logger.Warn("skipping tick, previous run still in progress")
	case err != nil:
		s.logger.Error("run failed", "error", err)
	}
}
