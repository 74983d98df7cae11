// Package crawler runs the smart crawling pipeline and the per-source crawl orchestration.
package crawler

import (
	"context"
	"time"

	"github.com/jonesrussell/north-cloud/aggregator/internal/domain"
)

// PageFetcher retrieves raw page markup.
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

// PageClassifier decides what kind of page a fetched document is.
type PageClassifier interface {
	Classify(pageURL, html string) domain.PageAnalysis
}

// ArticleExtractor extracts one article from a URL or from markup already in hand.
type ArticleExtractor interface {
	Extract(ctx context.Context, pageURL string) (*domain.ArticleContent, error)
	ExtractHTML(pageURL string, body []byte) (*domain.ArticleContent, error)
}

// Store is the persistence the orchestrator writes through.
type Store interface {
	GetSource(ctx context.Context, id int64) (*domain.Source, error)
	UpdateSourceLastCrawled(ctx context.Context, id int64, at time.Time) error
	CreateArticle(ctx context.Context, a *domain.Article) (int64, error)
	CreateEnrichment(ctx context.Context, e *domain.Enrichment) error
	AppendCrawlLog(ctx context.Context, entry *domain.CrawlLog) error
	GetAccountSettings(ctx context.Context, userID int64) (*domain.AccountSettings, error)
}

// ArticleIndexer mirrors persisted articles into a search index.
type ArticleIndexer interface {
	IndexArticle(ctx context.Context, a *domain.Article) error
}
