package runlock

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"feed_ingestor/internal/domain"
)

// Runner executes one ingestion run.
type Runner interface {
	RunOnce(ctx context.Context) (*domain.RunSummary, error)
}

// LastRun describes the most recent completed run.
type LastRun struct {
	Summary    *domain.RunSummary `json:"summary,omitempty"`
	Error      string             `json:"error,omitempty"`
	FinishedAt time.Time          `json:"finished_at"`
}

// Guard serializes runs behind every configured locker and remembers the last result.
type Guard struct {
	runner     Runner
	runTimeout time.Duration
	lockers    []Locker
	logger     *slog.Logger

	running atomic.Bool
	mu      sync.RWMutex
	last    *LastRun
}

// NewGuard creates a guard. Lockers are acquired in order and released in reverse.
// A positive runTimeout bounds every run regardless of how it was triggered, so a
// lock TTL longer than runTimeout outlives the run holding it.
func NewGuard(runner Runner, runTimeout time.Duration, logger *slog.Logger, lockers ...Locker) *Guard {
	return &Guard{
		runner:     runner,
		runTimeout: runTimeout,
		lockers:    lockers,
		logger:     logger.With("component", "run_guard"),
	}
}

// RunOnce returns domain.ErrRunInProgress when another run holds a lock.
func (g *Guard) RunOnce(ctx context.Context) (*domain.RunSummary, error) {
	release, err := g.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release(ctx)

	return g.run(ctx)
}

// Start acquires the locks synchronously and runs in the background.
// done, when non-nil, is called after the run finishes.
func (g *Guard) Start(ctx context.Context, done func(*domain.RunSummary, error)) error {
	release, err := g.acquire(ctx)
	if err != nil {
		return err
	}

	go func() {
		defer release(ctx)
		summary, err := g.run(ctx)
		if done != nil {
			done(summary, err)
		}
	}()
	return nil
}

func (g *Guard) acquire(ctx context.Context) (func(context.Context), error) {
	releases := make([]func(context.Context) error, 0, len(g.lockers))
	releaseAll := func(ctx context.Context) {
		for i := len(releases) - 1; i >= 0; i-- {
			// the run context may already be done
			if err := releases[i](context.WithoutCancel(ctx)); err != nil {
				g.logger.Error("release lock failed", "error", err)
			}
		}
	}

	for _, l := range g.lockers {
		release, ok, err := l.TryLock(ctx)
		if err != nil {
			releaseAll(ctx)
			return nil, fmt.Errorf("acquire run lock: %w", err)
		}
		if !ok {
			releaseAll(ctx)
			return nil, domain.ErrRunInProgress
		}
		releases = append(releases, release)
	}
	return releaseAll, nil
}

func (g *Guard) run(ctx context.Context) (*domain.RunSummary, error) {
	g.running.Store(true)
	defer g.running.Store(false)

	if g.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.runTimeout)
		defer cancel()
	}

	summary, err := g.runner.RunOnce(ctx)

	last := &LastRun{Summary: summary, FinishedAt: time.Now().UTC()}
	if err != nil {
		last.Error = err.Error()
	}
	g.mu.Lock()
	g.last = last
	g.mu.Unlock()

	return summary, err
}

func (g *Guard) Running() bool {
	return g.running.Load()
}

// Last returns the most recent run, or nil before the first one finishes.
func (g *Guard) Last() *LastRun {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.last
}
