package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/north-cloud/aggregator/internal/domain"
)

const sourceSelectColumns = `id, user_id, name, type, url, description, is_active,
	last_crawled_at, crawl_interval, created_at, updated_at`

// SourceRepository handles database operations for sources.
type SourceRepository struct {
	db *sqlx.DB
}

// NewSourceRepository creates a new source repository.
func NewSourceRepository(db *sqlx.DB) *SourceRepository {
	return &SourceRepository{db: db}
}

// GetByID returns the source with id, or ErrSourceNotFound.
func (r *SourceRepository) GetByID(ctx context.Context, id int64) (*domain.Source, error) {
	query := `SELECT ` + sourceSelectColumns + ` FROM sources WHERE id = $1`

	var source domain.Source
	if err := r.db.GetContext(ctx, &source, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSourceNotFound
		}
		return nil, fmt.Errorf("failed to get source %d: %w", id, err)
	}

	return &source, nil
}

// UpdateLastCrawled records when the source was last crawled.
func (r *SourceRepository) UpdateLastCrawled(ctx context.Context, id int64, at time.Time) error {
	query := `UPDATE sources SET last_crawled_at = $2, updated_at = NOW() WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("failed to update source %d: %w", id, err)
	}
	return execRequireRows(result, nil, ErrSourceNotFound)
}

// ListDue returns active sources never crawled or whose crawl interval has elapsed at now.
// Never-crawled sources come first, then the longest waiting.
func (r *SourceRepository) ListDue(ctx context.Context, now time.Time) ([]*domain.Source, error) {
	query := `
		SELECT ` + sourceSelectColumns + `
		FROM sources
		WHERE is_active = TRUE
		  AND (last_crawled_at IS NULL
		       OR last_crawled_at + (crawl_interval * INTERVAL '1 second') <= $1)
		ORDER BY last_crawled_at ASC NULLS FIRST, id ASC
	`

	var sources []*domain.Source
	if err := r.db.SelectContext(ctx, &sources, query, now); err != nil {
		return nil, fmt.Errorf("failed to list due sources: %w", err)
	}

	return sources, nil
}
