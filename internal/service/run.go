package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"feed_ingestor/internal/domain"
)

// Coordinator executes one ingestion pass over every active source.
type Coordinator struct {
	sources   SourceStore
	runLogs   RunLogStore
	fetcher   Fetcher
	txManager TransactionManager
	writer    *DedupWriter
	logger    *slog.Logger
	now       func() time.Time
}

func NewCoordinator(
	sources SourceStore,
	articles ArticleStore,
	runLogs RunLogStore,
	fetcher Fetcher,
	txManager TransactionManager,
	publisher Publisher,
	logger *slog.Logger,
) *Coordinator {
	return &Coordinator{
		sources:   sources,
		runLogs:   runLogs,
		fetcher:   fetcher,
		txManager: txManager,
		writer:    NewDedupWriter(articles, txManager, publisher, logger),
		logger:    logger.With("component", "coordinator"),
		now:       time.Now,
	}
}

// RunOnce fetches every active source, stores new articles, updates source
// health and writes one audit entry per source. A non-nil summary is returned
// alongside an error when the source loop completed but a final write failed.
func (c *Coordinator) RunOnce(ctx context.Context) (*domain.RunSummary, error) {
	started := c.now()

	sources, err := c.sources.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active sources: %w", err)
	}

	c.logger.Info("starting run", "sources", len(sources))

	health := NewHealthTracker(c.sources, c.txManager, c.logger)
	summary := &domain.RunSummary{StartedAt: started}
	entries := make([]domain.RunLogEntry, 0, len(sources))

	for _, src := range sources {
		if src.FeedURL == "" {
			continue
		}
		summary.Considered++

		outcome, inserted, httpStatus := c.processSource(ctx, src, health)
		summary.Inserted += inserted

		switch outcome.Kind {
		case domain.OutcomeSuccess:
			summary.Succeeded++
		case domain.OutcomeZeroArticles:
			summary.ZeroArticles++
			summary.ZeroArticleSources = append(summary.ZeroArticleSources, domain.SourceRef{ID: src.ID, FeedURL: src.FeedURL})
		case domain.OutcomeFailure:
			summary.Failed++
		}

		entries = append(entries, domain.RunLogEntry{
			SourceID:   src.ID,
			FeedURL:    src.FeedURL,
			Status:     outcome.Status(),
			HTTPStatus: httpStatus,
			Message:    logMessage(outcome, inserted),
			FetchedAt:  c.now(),
		})
	}

	report, err := health.ApplyPendingUpdates(ctx)
	summary.FailureUpdates = len(report.Updated)
	summary.Deactivations = len(report.Deactivated)
	summary.DeactivatedSources = report.Deactivated
	if err != nil {
		err = fmt.Errorf("apply health updates: %w", err)
		summary.Duration = c.now().Sub(started)
		c.logSummary(summary, err)
		return summary, err
	}

	if len(entries) > 0 {
		if err := c.runLogs.InsertBatch(ctx, entries); err != nil {
			perr := &domain.PersistError{Op: "flush run log", Err: err}
			summary.Duration = c.now().Sub(started)
			c.logSummary(summary, perr)
			return summary, perr
		}
	}

	summary.Duration = c.now().Sub(started)
	c.logSummary(summary, nil)

	return summary, nil
}

// processSource never returns an error: every failure becomes a Failure outcome.
func (c *Coordinator) processSource(ctx context.Context, src domain.Source, health *HealthTracker) (domain.Outcome, int, *int) {
	logger := c.logger.With("source_id", src.ID, "feed_url", src.FeedURL)

	var (
		outcome    domain.Outcome
		inserted   int
		httpStatus *int
	)

	articles, err := c.fetcher.Fetch(ctx, src.FeedURL)
	switch {
	case err != nil:
		var fetchErr *domain.FetchError
		if errors.As(err, &fetchErr) && fetchErr.HTTPStatus != 0 {
			status := fetchErr.HTTPStatus
			httpStatus = &status
		}
		outcome = domain.FailureOutcome(err.Error())
	case len(articles) == 0:
		outcome = domain.ZeroArticlesOutcome()
	default:
		outcome = domain.SuccessOutcome(len(articles))
	}

	if outcome.Kind == domain.OutcomeSuccess {
		n, err := c.writer.PersistNew(ctx, src.ID, articles)
		inserted = n
		if err == nil {
			err = health.RecordOutcome(ctx, src.ID, outcome)
		}
		if err != nil {
			outcome = domain.FailureOutcome(err.Error())
		}
	}

	if outcome.Kind != domain.OutcomeSuccess {
		// queueing never fails
		_ = health.RecordOutcome(ctx, src.ID, outcome)
	}

	switch outcome.Kind {
	case domain.OutcomeSuccess:
		logger.Info("source fetched", "articles", outcome.Count, "inserted", inserted)
	case domain.OutcomeZeroArticles:
		logger.Warn("source returned no articles")
	default:
		logger.Error("source failed", "error", outcome.Message)
	}

	return outcome, inserted, httpStatus
}

func logMessage(o domain.Outcome, inserted int) string {
	switch o.Kind {
	case domain.OutcomeSuccess:
		return fmt.Sprintf("fetched %d articles, inserted %d", o.Count, inserted)
	case domain.OutcomeZeroArticles:
		return "feed returned no articles"
	default:
		return o.Message
	}
}

// logSummary reports the counters of a run. Fetch work that finished before a late
// failure is still reported, at error level.
func (c *Coordinator) logSummary(s *domain.RunSummary, runErr error) {
	attrs := []any{
		"considered", s.Considered,
		"succeeded", s.Succeeded,
		"failed", s.Failed,
		"zero_articles", s.ZeroArticles,
		"failure_updates", s.FailureUpdates,
		"deactivations", s.Deactivations,
		"inserted", s.Inserted,
		"duration", s.Duration,
	}
	if runErr != nil {
		c.logger.Error("run finished with error", append(attrs, "error", runErr)...)
	} else {
		c.logger.Info("run completed", attrs...)
	}
	if len(s.ZeroArticleSources) > 0 {
		c.logger.Warn("sources with zero articles", "sources", s.ZeroArticleSources)
	}
	if len(s.DeactivatedSources) > 0 {
		c.logger.Warn("sources deactivated", "source_ids", s.DeactivatedSources)
	}
}
