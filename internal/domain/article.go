package domain

import "time"

type Article struct {
	ID          int64      `db:"id" json:"id,omitempty"`
	SourceID    int64      `db:"source_id" json:"source_id"`
	Title       string     `db:"title" json:"title"`
	Link        string     `db:"link" json:"link"`
	PublishedAt *time.Time `db:"published_at" json:"published_at,omitempty"` // nil when the feed gave no usable time
	CreatedAt   time.Time  `db:"created_at" json:"created_at,omitempty"`
}

// Valid reports whether the article carries the fields required for persistence.
func (a Article) Valid() bool {
	return a.Title != "" && a.Link != ""
}
