package database

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/north-cloud/aggregator/internal/domain"
)

// Store groups the repositories behind the persistence operations the crawler needs.
type Store struct {
	Sources   *SourceRepository
	Articles  *ArticleRepository
	Analyses  *AnalysisRepository
	CrawlLogs *CrawlLogRepository
	Settings  *SettingsRepository
}

// NewStore creates a Store over db.
func NewStore(db *sqlx.DB) *Store {
	return &Store{
		Sources:   NewSourceRepository(db),
		Articles:  NewArticleRepository(db),
		Analyses:  NewAnalysisRepository(db),
		CrawlLogs: NewCrawlLogRepository(db),
		Settings:  NewSettingsRepository(db),
	}
}

func (s *Store) GetSource(ctx context.Context, id int64) (*domain.Source, error) {
	return s.Sources.GetByID(ctx, id)
}

func (s *Store) UpdateSourceLastCrawled(ctx context.Context, id int64, at time.Time) error {
	return s.Sources.UpdateLastCrawled(ctx, id, at)
}

func (s *Store) ListDueSources(ctx context.Context, now time.Time) ([]*domain.Source, error) {
	return s.Sources.ListDue(ctx, now)
}

func (s *Store) FindArticleByFingerprint(ctx context.Context, fingerprint string) (*domain.Article, error) {
	return s.Articles.FindByContentHash(ctx, fingerprint)
}

func (s *Store) CreateArticle(ctx context.Context, a *domain.Article) (int64, error) {
	return s.Articles.Create(ctx, a)
}

func (s *Store) CreateEnrichment(ctx context.Context, e *domain.Enrichment) error {
	return s.Analyses.Create(ctx, e)
}

func (s *Store) AppendCrawlLog(ctx context.Context, entry *domain.CrawlLog) error {
	return s.CrawlLogs.Create(ctx, entry)
}

func (s *Store) ListCrawlLogs(ctx context.Context, sourceID int64, limit int) ([]*domain.CrawlLog, error) {
	return s.CrawlLogs.ListBySource(ctx, sourceID, limit)
}

func (s *Store) ListRecentCrawlLogs(ctx context.Context, limit int) ([]*domain.CrawlLog, error) {
	return s.CrawlLogs.ListRecent(ctx, limit)
}

// GetAccountSettings returns the account settings, falling back to column defaults.
func (s *Store) GetAccountSettings(ctx context.Context, userID int64) (*domain.AccountSettings, error) {
	settings, err := s.Settings.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		return domain.DefaultAccountSettings(userID), nil
	}
	return settings, nil
}
