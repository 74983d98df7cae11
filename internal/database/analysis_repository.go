package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/north-cloud/aggregator/internal/domain"
)

// AnalysisRepository handles database operations for ai_analysis.
type AnalysisRepository struct {
	db *sqlx.DB
}

// NewAnalysisRepository creates a new analysis repository.
func NewAnalysisRepository(db *sqlx.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

// Create stores the enrichment for an article. Key points and tags are stored as JSON arrays.
func (r *AnalysisRepository) Create(ctx context.Context, e *domain.Enrichment) error {
	keyPoints, err := marshalList(e.KeyPoints)
	if err != nil {
		return fmt.Errorf("failed to encode key points: %w", err)
	}
	tags, err := marshalList(e.Tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}

	query := `
		INSERT INTO ai_analysis (article_id, summary, key_points, tags, topic)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (article_id) DO UPDATE
		SET summary = EXCLUDED.summary, key_points = EXCLUDED.key_points,
			tags = EXCLUDED.tags, topic = EXCLUDED.topic
	`

	if _, execErr := r.db.ExecContext(ctx, query, e.ArticleID, e.Summary, keyPoints, tags, e.Topic); execErr != nil {
		return fmt.Errorf("failed to insert analysis for article %d: %w", e.ArticleID, execErr)
	}
	return nil
}

func marshalList(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
