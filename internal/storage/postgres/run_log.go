package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"feed_ingestor/internal/domain"
)

const (
	runLogColumns = 6
	// runLogChunkSize keeps one statement far below the 65535 bind parameter limit.
	runLogChunkSize = 100
)

type RunLogStore struct {
	db *sqlx.DB
}

func NewRunLogStore(db *sqlx.DB) *RunLogStore {
	return &RunLogStore{db: db}
}

// InsertBatch writes entries in chunks inside one transaction.
func (s *RunLogStore) InsertBatch(ctx context.Context, entries []domain.RunLogEntry) error {
	if len(entries) == 0 {
		return nil
	}

	return NewTransactionManager(s.db).WithTransaction(ctx, func(txCtx context.Context) error {
		for start := 0; start < len(entries); start += runLogChunkSize {
			end := min(start+runLogChunkSize, len(entries))
			if err := s.insertChunk(txCtx, entries[start:end]); err != nil {
				return fmt.Errorf("insert run log rows %d-%d: %w", start, end-1, err)
			}
		}
		return nil
	})
}

func (s *RunLogStore) insertChunk(ctx context.Context, entries []domain.RunLogEntry) error {
	var sb strings.Builder
	sb.WriteString("INSERT INTO fetch_logs (source_id, feed_url, status, http_status, message, fetched_at) VALUES ")
	valueArgs := make([]interface{}, 0, len(entries)*runLogColumns)

	for i, e := range entries {
		if i > 0 {
			sb.WriteString(", ")
		}
		writePlaceholders(&sb, i*runLogColumns, runLogColumns)
		valueArgs = append(valueArgs, e.SourceID, e.FeedURL, string(e.Status), e.HTTPStatus, e.Message, e.FetchedAt)
	}

	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, sb.String(), valueArgs...)
	return err
}

// ListBySource returns audit rows for sourceID, newest first.
func (s *RunLogStore) ListBySource(ctx context.Context, sourceID int64, limit int) ([]domain.RunLogEntry, error) {
	query := `
		SELECT source_id, feed_url, status, http_status, message, fetched_at
		FROM fetch_logs
		WHERE source_id = $1
		ORDER BY id DESC
		LIMIT $2`

	var entries []domain.RunLogEntry
	err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &entries, query, sourceID, limit)
	return entries, err
}
