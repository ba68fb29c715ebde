package service

import (
	"context"
	"fmt"
	"log/slog"

	"feed_ingestor/internal/domain"
)

// BatchSize is the number of staged articles written per transaction.
const BatchSize = 100

// DedupWriter stores articles whose link is not yet known for their source.
type DedupWriter struct {
	articles  ArticleStore
	txManager TransactionManager
	publisher Publisher
	logger    *slog.Logger
	batchSize int
}

// NewDedupWriter creates a writer. publisher may be nil.
func NewDedupWriter(articles ArticleStore, txManager TransactionManager, publisher Publisher, logger *slog.Logger) *DedupWriter {
	return &DedupWriter{
		articles:  articles,
		txManager: txManager,
		publisher: publisher,
		logger:    logger.With("component", "dedup_writer"),
		batchSize: BatchSize,
	}
}

// PersistNew inserts the articles that are not stored yet and returns the
// number of rows written. Batches committed before a failing flush stay committed.
func (w *DedupWriter) PersistNew(ctx context.Context, sourceID int64, articles []domain.Article) (int, error) {
	logger := w.logger.With("source_id", sourceID)

	var (
		inserted int
		batch    = make([]domain.Article, 0, w.batchSize)
		staged   = make(map[string]struct{}, len(articles))
	)

	for _, a := range articles {
		if !a.Valid() {
			continue
		}
		if _, dup := staged[a.Link]; dup {
			continue
		}

		exists, err := w.articles.Exists(ctx, sourceID, a.Link)
		if err != nil {
			return inserted, &domain.PersistError{Op: "lookup article", Err: err}
		}
		if exists {
			continue
		}

		a.SourceID = sourceID
		staged[a.Link] = struct{}{}
		batch = append(batch, a)

		if len(batch) >= w.batchSize {
			n, err := w.flush(ctx, batch)
			if err != nil {
				return inserted, err
			}
			inserted += n
			batch = batch[:0]
		}
	}

	if len(batch) > 0 {
		n, err := w.flush(ctx, batch)
		if err != nil {
			return inserted, err
		}
		inserted += n
	}

	logger.Debug("articles persisted", "candidates", len(articles), "inserted", inserted)
	return inserted, nil
}

func (w *DedupWriter) flush(ctx context.Context, batch []domain.Article) (int, error) {
	var created []domain.Article
	err := w.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		created, err = w.articles.InsertBatch(txCtx, batch)
		if err != nil {
			return fmt.Errorf("insert %d articles: %w", len(batch), err)
		}
		return nil
	})
	if err != nil {
		return 0, &domain.PersistError{Op: "flush batch", Err: err}
	}

	// rows skipped by a concurrent writer are not ours to announce
	w.publish(ctx, created)
	return len(created), nil
}

func (w *DedupWriter) publish(ctx context.Context, batch []domain.Article) {
	if w.publisher == nil {
		return
	}
	for i := range batch {
		if err := w.publisher.Publish(ctx, &batch[i]); err != nil {
			w.logger.Warn("publish article failed",
				"source_id", batch[i].SourceID,
				"link", batch[i].Link,
				"error", err,
			)
		}
	}
}
