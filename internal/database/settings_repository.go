package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/north-cloud/aggregator/internal/domain"
)

// SettingsRepository reads per-account settings.
type SettingsRepository struct {
	db *sqlx.DB
}

// NewSettingsRepository creates a new settings repository.
func NewSettingsRepository(db *sqlx.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// GetByUserID returns the settings row for userID, or nil when the account has none.
func (r *SettingsRepository) GetByUserID(ctx context.Context, userID int64) (*domain.AccountSettings, error) {
	query := `SELECT user_id, ai_enabled, notification_enabled, default_crawl_interval
		FROM settings WHERE user_id = $1`

	var s domain.AccountSettings
	if err := r.db.GetContext(ctx, &s, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get settings for user %d: %w", userID, err)
	}
	return &s, nil
}
