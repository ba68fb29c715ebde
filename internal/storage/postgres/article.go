package postgres

import (
	"context"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"

	"feed_ingestor/internal/domain"
)

const articleColumns = 4

type ArticleStore struct {
	db *sqlx.DB
}

func NewArticleStore(db *sqlx.DB) *ArticleStore {
	return &ArticleStore{db: db}
}

func (s *ArticleStore) Exists(ctx context.Context, sourceID int64, link string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM articles WHERE source_id = $1 AND link = $2)`

	var exists bool
	if err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &exists, query, sourceID, link); err != nil {
		return false, err
	}
	return exists, nil
}

// InsertBatch writes articles in one statement and returns the rows it created,
// with id and created_at set. Rows whose (source_id, link) already exists are skipped.
func (s *ArticleStore) InsertBatch(ctx context.Context, articles []domain.Article) ([]domain.Article, error) {
	if len(articles) == 0 {
		return nil, nil
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO articles (source_id, title, link, published_at) VALUES ")
	valueArgs := make([]interface{}, 0, len(articles)*articleColumns)

	for i, a := range articles {
		if i > 0 {
			sb.WriteString(", ")
		}
		writePlaceholders(&sb, i*articleColumns, articleColumns)
		valueArgs = append(valueArgs, a.SourceID, a.Title, a.Link, a.PublishedAt)
	}
	sb.WriteString(" ON CONFLICT (source_id, link) DO NOTHING")
	sb.WriteString(" RETURNING id, source_id, title, link, published_at, created_at")

	var inserted []domain.Article
	if err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &inserted, sb.String(), valueArgs...); err != nil {
		return nil, err
	}
	return inserted, nil
}

func (s *ArticleStore) ListBySource(ctx context.Context, sourceID int64) ([]domain.Article, error) {
	query := `
		SELECT id, source_id, title, link, published_at, created_at
		FROM articles
		WHERE source_id = $1
		ORDER BY id`

	var articles []domain.Article
	err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &articles, query, sourceID)
	return articles, err
}

// writePlaceholders appends "($n, $n+1, ...)" starting after offset.
func writePlaceholders(sb *strings.Builder, offset, n int) {
	sb.WriteString("(")
	for j := 1; j <= n; j++ {
		if j > 1 {
			sb.WriteString(", ")
		}
		sb.WriteString("$")
		sb.WriteString(strconv.Itoa(offset + j))
	}
	sb.WriteString(")")
}
