package service

import (
	"context"
	"fmt"
	"log/slog"

	"feed_ingestor/internal/domain"
)

// DeactivationThreshold is the consecutive failure count at which a source is deactivated.
const DeactivationThreshold = 3

// HealthReport lists the sources touched by ApplyPendingUpdates.
type HealthReport struct {
	Updated     []int64
	Deactivated []int64
}

// HealthTracker accumulates per-source outcomes for one run.
// It is not safe for concurrent use.
type HealthTracker struct {
	sources   SourceStore
	txManager TransactionManager
	logger    *slog.Logger
	pending   []int64
	queued    map[int64]struct{}
}

func NewHealthTracker(sources SourceStore, txManager TransactionManager, logger *slog.Logger) *HealthTracker {
	return &HealthTracker{
		sources:   sources,
		txManager: txManager,
		logger:    logger.With("component", "health_tracker"),
		queued:    make(map[int64]struct{}),
	}
}

// RecordOutcome resets the failure count on success and queues an increment otherwise.
func (h *HealthTracker) RecordOutcome(ctx context.Context, sourceID int64, outcome domain.Outcome) error {
	if outcome.Kind == domain.OutcomeSuccess {
		if err := h.sources.ResetFailureCount(ctx, sourceID); err != nil {
			return &domain.PersistError{Op: "reset failure count", Err: err}
		}
		return nil
	}

	if _, ok := h.queued[sourceID]; ok {
		return nil
	}
	h.queued[sourceID] = struct{}{}
	h.pending = append(h.pending, sourceID)
	return nil
}

// Pending returns the number of queued increments.
func (h *HealthTracker) Pending() int {
	return len(h.pending)
}

// ApplyPendingUpdates increments the failure count of every queued source and
// deactivates those reaching DeactivationThreshold. The read and the write for
// one source share a transaction; the audit entry for the source is written later
// and is not covered by it.
func (h *HealthTracker) ApplyPendingUpdates(ctx context.Context) (HealthReport, error) {
	var report HealthReport

	for _, id := range h.pending {
		var deactivated bool
		err := h.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
			current, err := h.sources.GetFailureCount(txCtx, id)
			if err != nil {
				return fmt.Errorf("get failure count: %w", err)
			}

			next := current + 1
			deactivated = next >= DeactivationThreshold
			if err := h.sources.UpdateHealth(txCtx, id, next, !deactivated); err != nil {
				return fmt.Errorf("update health: %w", err)
			}
			return nil
		})
		if err != nil {
			return report, &domain.PersistError{Op: fmt.Sprintf("apply health update for source %d", id), Err: err}
		}

		report.Updated = append(report.Updated, id)
		if deactivated {
			report.Deactivated = append(report.Deactivated, id)
			h.logger.Warn("source deactivated", "source_id", id)
		}
	}

	h.pending = nil
	h.queued = make(map[int64]struct{})
	return report, nil
}
