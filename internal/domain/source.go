package domain

import "time"

// Source is one syndicated feed endpoint tracked by the ingestor.
type Source struct {
	ID           int64     `db:"id"`
	Name         string    `db:"name"`
	FeedURL      string    `db:"feed_url"`
	Active       bool      `db:"is_active"`
	FailureCount int       `db:"fetch_failed_count"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// SourceRef identifies a source in run summaries.
type SourceRef struct {
	ID      int64  `json:"id"`
	FeedURL string `json:"feed_url"`
}
