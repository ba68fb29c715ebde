package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"feed_ingestor/internal/domain"
)

const EventArticleCreated = "article.created"

// Sink is a single notification destination.
type Sink interface {
	Name() string
	Publish(ctx context.Context, article *domain.Article) error
	Close() error
}

type ArticleMessage struct {
	Event     string         `json:"event"`
	Article   domain.Article `json:"article"`
	Timestamp time.Time      `json:"timestamp"`
}

func encodeArticle(article *domain.Article, now time.Time) ([]byte, error) {
	body, err := json.Marshal(ArticleMessage{
		Event:     EventArticleCreated,
		Article:   *article,
		Timestamp: now.UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal message: %w", err)
	}
	return body, nil
}
