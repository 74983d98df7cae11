package domain

import "time"

// CrawlStatus is the final status of one crawl invocation.
type CrawlStatus string

const (
	CrawlStatusSuccess CrawlStatus = "success"
	CrawlStatusPartial CrawlStatus = "partial"
	CrawlStatusFailed  CrawlStatus = "failed"
)

// CrawlLog is the audit row appended once per crawl invocation.
type CrawlLog struct {
	ID            int64       `db:"id"             json:"id"`
	SourceID      int64       `db:"source_id"      json:"source_id"`
	Status        CrawlStatus `db:"status"         json:"status"`
	ArticlesFound int         `db:"articles_found" json:"articles_found"`
	ArticlesAdded int         `db:"articles_added" json:"articles_added"`
	ErrorMessage  *string     `db:"error_message"  json:"error_message,omitempty"`
	StartedAt     time.Time   `db:"started_at"     json:"started_at"`
	CompletedAt   time.Time   `db:"completed_at"   json:"completed_at"`
	CreatedAt     time.Time   `db:"created_at"     json:"created_at"`
}

// CrawlOutcome is returned to callers of a source crawl.
type CrawlOutcome struct {
	Log    CrawlLog            `json:"log"`
	Result *MultiArticleResult `json:"result,omitempty"`
}
