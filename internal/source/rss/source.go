package rss

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"feed_ingestor/internal/domain"
)

// Parser retrieves and parses one feed endpoint.
type Parser interface {
	Parse(ctx context.Context, feedURL string) (*ParsedFeed, error)
}

// Source turns a feed endpoint into article records.
type Source struct {
	parser Parser
	logger *slog.Logger
}

// New creates a feed source backed by parser.
func New(parser Parser, logger *slog.Logger) *Source {
	return &Source{
		parser: parser,
		logger: logger.With("component", "rss_source"),
	}
}

// Fetch parses feedURL once and returns one article per entry.
// Entries with an empty title or link are kept; filtering happens on persist.
func (s *Source) Fetch(ctx context.Context, feedURL string) ([]domain.Article, error) {
	feed, err := s.parser.Parse(ctx, feedURL)
	if err != nil {
		var fetchErr *domain.FetchError
		if errors.As(err, &fetchErr) {
			return nil, err
		}
		return nil, &domain.FetchError{URL: feedURL, Err: err}
	}

	hint := ClassifyFormat(feed.Version)
	s.logger.Info("detected feed type",
		"feed_url", feedURL,
		"feed_type", hint.String(),
		"version", feed.Version,
		"entries", len(feed.Entries),
	)

	return s.transform(feed.Entries, hint), nil
}

// ClassifyFormat maps a declared feed version string to a format hint.
func ClassifyFormat(version string) FormatHint {
	v := strings.ToLower(version)
	switch {
	case strings.Contains(v, "rss"):
		return FormatRSS
	case strings.Contains(v, "atom"):
		return FormatAtom
	default:
		return FormatUnknown
	}
}

func (s *Source) transform(entries []Entry, hint FormatHint) []domain.Article {
	articles := make([]domain.Article, 0, len(entries))
	for _, e := range entries {
		articles = append(articles, domain.Article{
			Title:       e.Title,
			Link:        e.Link,
			PublishedAt: ResolveTime(e, hint),
		})
	}
	return articles
}
