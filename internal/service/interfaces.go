package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"feed_ingestor/internal/domain"
)

type SourceStore interface {
	ListActive(ctx context.Context) ([]domain.Source, error)
	ResetFailureCount(ctx context.Context, sourceID int64) error
	GetFailureCount(ctx context.Context, sourceID int64) (int, error)
	UpdateHealth(ctx context.Context, sourceID int64, failureCount int, active bool) error
}

type ArticleStore interface {
	Exists(ctx context.Context, sourceID int64, link string) (bool, error)
	InsertBatch(ctx context.Context, articles []domain.Article) ([]domain.Article, error)
}

type RunLogStore interface {
	InsertBatch(ctx context.Context, entries []domain.RunLogEntry) error
}

type Fetcher interface {
	Fetch(ctx context.Context, feedURL string) ([]domain.Article, error)
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Publisher interface {
	Publish(ctx context.Context, article *domain.Article) error
	Close() error
}
