package runlock

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feed_ingestor/internal/domain"
)

type blockingRunner struct {
	started chan struct{}
	finish  chan struct{}
	summary *domain.RunSummary
	err     error
}

func (r *blockingRunner) RunOnce(context.Context) (*domain.RunSummary, error) {
	if r.started != nil {
		close(r.started)
	}
	if r.finish != nil {
		<-r.finish
	}
	return r.summary, r.err
}

type deadlineRunner struct {
	deadline chan time.Time
}

func (r *deadlineRunner) RunOnce(ctx context.Context) (*domain.RunSummary, error) {
	d, ok := ctx.Deadline()
	if !ok {
		d = time.Time{}
	}
	r.deadline <- d
	return &domain.RunSummary{}, nil
}

type failingLocker struct{}

func (failingLocker) TryLock(context.Context) (func(context.Context) error, bool, error) {
	return nil, false, errors.New("redis unavailable")
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestGuard_RejectsOverlappingRun(t *testing.T) {
	runner := &blockingRunner{
		started: make(chan struct{}),
		finish:  make(chan struct{}),
		summary: &domain.RunSummary{Considered: 1},
	}
	guard := NewGuard(runner, 0, testLogger(), NewLocalLocker())

	done := make(chan error, 1)
	go func() {
		_, err := guard.RunOnce(context.Background())
		done <- err
	}()
	<-runner.started
	assert.True(t, guard.Running())

	_, err := guard.RunOnce(context.Background())
	assert.ErrorIs(t, err, domain.ErrRunInProgress)

	close(runner.finish)
	require.NoError(t, <-done)
	assert.False(t, guard.Running())

	last := guard.Last()
	require.NotNil(t, last)
	assert.Equal(t, 1, last.Summary.Considered)
	assert.Empty(t, last.Error)
}

func TestGuard_RecordsFailure(t *testing.T) {
	guard := NewGuard(&blockingRunner{err: errors.New("db gone")}, 0, testLogger(), NewLocalLocker())

	assert.Nil(t, guard.Last())

	_, err := guard.RunOnce(context.Background())

	require.Error(t, err)
	assert.Equal(t, "db gone", guard.Last().Error)
}

func TestGuard_LockerErrorReleasesEarlierLocks(t *testing.T) {
	local := NewLocalLocker()
	guard := NewGuard(&blockingRunner{}, 0, testLogger(), local, failingLocker{})

	_, err := guard.RunOnce(context.Background())
	require.ErrorContains(t, err, "redis unavailable")

	release, ok, err := local.TryLock(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, release(context.Background()))
}

func TestGuard_StartRunsInBackground(t *testing.T) {
	runner := &blockingRunner{
		started: make(chan struct{}),
		finish:  make(chan struct{}),
		summary: &domain.RunSummary{Succeeded: 2},
	}
	guard := NewGuard(runner, 0, testLogger(), NewLocalLocker())

	finished := make(chan *domain.RunSummary, 1)
	err := guard.Start(context.Background(), func(s *domain.RunSummary, _ error) { finished <- s })
	require.NoError(t, err)
	<-runner.started

	err = guard.Start(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrRunInProgress)

	close(runner.finish)
	assert.Equal(t, 2, (<-finished).Succeeded)
}

func TestGuard_StartAppliesRunTimeout(t *testing.T) {
	runner := &deadlineRunner{deadline: make(chan time.Time, 1)}
	guard := NewGuard(runner, time.Minute, testLogger(), NewLocalLocker())

	before := time.Now()
	require.NoError(t, guard.Start(context.Background(), nil))

	deadline := <-runner.deadline
	require.False(t, deadline.IsZero(), "background run has no deadline")
	assert.WithinDuration(t, before.Add(time.Minute), deadline, 5*time.Second)
}

func TestGuard_RunOnceAppliesRunTimeout(t *testing.T) {
	runner := &deadlineRunner{deadline: make(chan time.Time, 1)}
	guard := NewGuard(runner, time.Minute, testLogger())

	_, err := guard.RunOnce(context.Background())

	require.NoError(t, err)
	assert.False(t, (<-runner.deadline).IsZero())
}

func TestGuard_NoTimeoutWhenUnset(t *testing.T) {
	runner := &deadlineRunner{deadline: make(chan time.Time, 1)}
	guard := NewGuard(runner, 0, testLogger())

	_, err := guard.RunOnce(context.Background())

	require.NoError(t, err)
	assert.True(t, (<-runner.deadline).IsZero())
}
