package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/north-cloud/aggregator/internal/domain"
)

const (
	crawlLogSelectColumns = `id, source_id, status, articles_found, articles_added,
	error_message, started_at, completed_at, created_at`
	defaultCrawlLogLimit = 20
	maxCrawlLogLimit     = 100
)

// CrawlLogRepository handles database operations for crawl logs.
type CrawlLogRepository struct {
	db *sqlx.DB
}

// NewCrawlLogRepository creates a new crawl log repository.
func NewCrawlLogRepository(db *sqlx.DB) *CrawlLogRepository {
	return &CrawlLogRepository{db: db}
}

// Create appends a crawl log row and sets its id.
func (r *CrawlLogRepository) Create(ctx context.Context, entry *domain.CrawlLog) error {
	query := `
		INSERT INTO crawl_logs (
			source_id, status, articles_found, articles_added, error_message, started_at, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		entry.SourceID, entry.Status, entry.ArticlesFound, entry.ArticlesAdded,
		entry.ErrorMessage, entry.StartedAt, entry.CompletedAt,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert crawl log: %w", err)
	}
	return nil
}

// ListBySource returns the most recent crawl logs of one source.
func (r *CrawlLogRepository) ListBySource(ctx context.Context, sourceID int64, limit int) ([]*domain.CrawlLog, error) {
	query := `SELECT ` + crawlLogSelectColumns + `
		FROM crawl_logs WHERE source_id = $1
		ORDER BY started_at DESC, id DESC LIMIT $2`

	logs := []*domain.CrawlLog{}
	if err := r.db.SelectContext(ctx, &logs, query, sourceID,
		clampLimit(limit, defaultCrawlLogLimit, maxCrawlLogLimit)); err != nil {
		return nil, fmt.Errorf("failed to list crawl logs for source %d: %w", sourceID, err)
	}
	return logs, nil
}

// ListRecent returns the most recent crawl logs across all sources.
func (r *CrawlLogRepository) ListRecent(ctx context.Context, limit int) ([]*domain.CrawlLog, error) {
	query := `SELECT ` + crawlLogSelectColumns + `
		FROM crawl_logs ORDER BY started_at DESC, id DESC LIMIT $1`

	logs := []*domain.CrawlLog{}
	if err := r.db.SelectContext(ctx, &logs, query,
		clampLimit(limit, defaultCrawlLogLimit, maxCrawlLogLimit)); err != nil {
		return nil, fmt.Errorf("failed to list recent crawl logs: %w", err)
	}
	return logs, nil
}
