package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/north-cloud/aggregator/internal/domain"
)

const articleSelectColumns = `id, source_id, user_id, page_type, title, author, original_url,
	content_text, content_hash, published_at, crawled_at, status, is_favorite`

// ArticleRepository handles database operations for articles.
type ArticleRepository struct {
	db *sqlx.DB
}

// NewArticleRepository creates a new article repository.
func NewArticleRepository(db *sqlx.DB) *ArticleRepository {
	return &ArticleRepository{db: db}
}

// FindByContentHash returns the article with the given fingerprint, or nil when none exists.
func (r *ArticleRepository) FindByContentHash(ctx context.Context, hash string) (*domain.Article, error) {
	query := `SELECT ` + articleSelectColumns + ` FROM articles WHERE content_hash = $1 LIMIT 1`

	var article domain.Article
	if err := r.db.GetContext(ctx, &article, query, hash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find article by hash: %w", err)
	}

	return &article, nil
}

// Create inserts an article and returns its generated id.
func (r *ArticleRepository) Create(ctx context.Context, a *domain.Article) (int64, error) {
	query := `
		INSERT INTO articles (
			source_id, user_id, page_type, title, author, original_url,
			content_text, content_hash, published_at, crawled_at, status, is_favorite
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowxContext(ctx, query,
		a.SourceID, a.UserID, a.PageType, a.Title, a.Author, a.OriginalURL,
		a.ContentText, a.ContentHash, a.PublishedAt, a.CrawledAt, a.Status, a.IsFavorite,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert article: %w", err)
	}

	a.ID = id
	return id, nil
}
