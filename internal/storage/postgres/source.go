package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"feed_ingestor/internal/domain"
)

type SourceStore struct {
	db *sqlx.DB
}

func NewSourceStore(db *sqlx.DB) *SourceStore {
	return &SourceStore{db: db}
}

// ListActive returns active sources that have a feed URL, ordered by id.
func (s *SourceStore) ListActive(ctx context.Context) ([]domain.Source, error) {
	query := `
		SELECT id, name, feed_url, is_active, fetch_failed_count, created_at, updated_at
		FROM sources
		WHERE is_active = TRUE AND feed_url IS NOT NULL AND feed_url <> ''
		ORDER BY id`

	var sources []domain.Source
	if err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &sources, query); err != nil {
		return nil, err
	}
	return sources, nil
}

func (s *SourceStore) ResetFailureCount(ctx context.Context, sourceID int64) error {
	query := `
		UPDATE sources
		SET fetch_failed_count = 0, updated_at = NOW()
		WHERE id = $1 AND fetch_failed_count <> 0`

	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, query, sourceID)
	return err
}

// GetFailureCount locks the source row when called inside a transaction.
func (s *SourceStore) GetFailureCount(ctx context.Context, sourceID int64) (int, error) {
	query := `SELECT fetch_failed_count FROM sources WHERE id = $1`
	if GetTxFromContext(ctx) != nil {
		query += ` FOR UPDATE`
	}

	var count int
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &count, query, sourceID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("source %d not found", sourceID)
	}
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (s *SourceStore) UpdateHealth(ctx context.Context, sourceID int64, failureCount int, active bool) error {
	query := `
		UPDATE sources
		SET fetch_failed_count = $2, is_active = $3, updated_at = NOW()
		WHERE id = $1`

	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, query, sourceID, failureCount, active)
	return err
}

// Create registers a new active source and returns its id.
func (s *SourceStore) Create(ctx context.Context, name, feedURL string) (int64, error) {
	query := `
		INSERT INTO sources (name, feed_url)
		VALUES ($1, $2)
		ON CONFLICT (feed_url) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`

	var id int64
	if err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &id, query, name, feedURL); err != nil {
		return 0, err
	}
	return id, nil
}
