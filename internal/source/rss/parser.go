package rss

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/mmcdole/gofeed"

	"feed_ingestor/internal/domain"
)

const (
	defaultUserAgent    = "FeedIngestor/1.0"
	defaultMaxBodyBytes = 10 << 20
)

// ParserConfig holds HTTP settings for feed retrieval.
// MaxBodyBytes caps how much of a response is read; zero means 10 MiB.
type ParserConfig struct {
	Timeout      time.Duration
	UserAgent    string
	MaxBodyBytes int
}

// HTTPParser downloads feeds with resty and parses them with gofeed.
type HTTPParser struct {
	client    *resty.Client
	userAgent string
}

// NewHTTPParser creates a parser; the timeout bounds each fetch.
func NewHTTPParser(cfg ParserConfig) *HTTPParser {
	c := resty.New()
	if cfg.Timeout > 0 {
		c.SetTimeout(cfg.Timeout)
	}
	limit := cfg.MaxBodyBytes
	if limit <= 0 {
		limit = defaultMaxBodyBytes
	}
	// resty stops reading once the limit is crossed and fails the request
	c.SetResponseBodyLimit(limit)
	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	return &HTTPParser{client: c, userAgent: ua}
}

// Parse fetches feedURL and maps the document into a ParsedFeed.
func (p *HTTPParser) Parse(ctx context.Context, feedURL string) (*ParsedFeed, error) {
	resp, err := p.client.R().
		SetContext(ctx).
		SetHeader("User-Agent", p.userAgent).
		SetHeader("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml, application/json;q=0.9, */*;q=0.8").
		Get(feedURL)
	if err != nil {
		return nil, &domain.FetchError{URL: feedURL, Err: fmt.Errorf("execute request: %w", err)}
	}

	if resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
		return nil, &domain.FetchError{
			URL:        feedURL,
			HTTPStatus: resp.StatusCode(),
			Err:        fmt.Errorf("unexpected status: %s", resp.Status()),
		}
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(resp.Body()))
	if err != nil {
		return nil, &domain.FetchError{URL: feedURL, Err: fmt.Errorf("parse feed: %w", err)}
	}

	return convertFeed(feed), nil
}

func convertFeed(feed *gofeed.Feed) *ParsedFeed {
	out := &ParsedFeed{
		Version: feed.FeedType + strings.ReplaceAll(feed.FeedVersion, ".", ""),
		Title:   cleanText(feed.Title),
		Entries: make([]Entry, 0, len(feed.Items)),
	}

	isRSS := feed.FeedType == "rss"
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		e := Entry{
			Title: cleanText(item.Title),
			Link:  strings.TrimSpace(item.Link),
			Times: make(map[TimeField]TimeTuple),
			Raw:   make(map[TimeField]string),
		}
		setTime(&e, FieldPublished, item.Published, item.PublishedParsed)
		setTime(&e, FieldUpdated, item.Updated, item.UpdatedParsed)
		if isRSS {
			// the RSS translator fills Published from <pubDate>
			setTime(&e, FieldPubDate, item.Published, item.PublishedParsed)
		}
		out.Entries = append(out.Entries, e)
	}
	return out
}

func setTime(e *Entry, field TimeField, raw string, parsed *time.Time) {
	if raw != "" {
		e.Raw[field] = raw
	}
	if parsed != nil && !parsed.IsZero() {
		e.Times[field] = TupleFromTime(*parsed)
	}
}

// cleanText strips markup that some publishers leave in titles.
func cleanText(s string) string {
	s = strings.TrimSpace(s)
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
