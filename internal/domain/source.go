package domain

import "time"

// SourceType identifies how a source is crawled.
type SourceType string

const (
	SourceTypeWebsite SourceType = "website"
	SourceTypeWechat  SourceType = "wechat"
	SourceTypeZhihu   SourceType = "zhihu"
	SourceTypeRSS     SourceType = "rss"
)

// Source is a configured origin URL crawled periodically.
type Source struct {
	ID            int64      `db:"id"              json:"id"`
	UserID        int64      `db:"user_id"         json:"user_id"`
	Name          string     `db:"name"            json:"name"`
	Type          SourceType `db:"type"            json:"type"`
	URL           string     `db:"url"             json:"url"`
	Description   *string    `db:"description"     json:"description,omitempty"`
	IsActive      bool       `db:"is_active"       json:"is_active"`
	LastCrawledAt *time.Time `db:"last_crawled_at" json:"last_crawled_at,omitempty"`
	CrawlInterval int        `db:"crawl_interval"  json:"crawl_interval"`
	CreatedAt     time.Time  `db:"created_at"      json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"      json:"updated_at"`
}

// Due reports whether the source should be crawled at now.
func (s *Source) Due(now time.Time) bool {
	if !s.IsActive {
		return false
	}
	if s.LastCrawledAt == nil {
		return true
	}
	return !now.Before(s.LastCrawledAt.Add(time.Duration(s.CrawlInterval) * time.Second))
}

// AccountSettings are the per-account switches the crawler honours.
type AccountSettings struct {
	UserID               int64 `db:"user_id"                json:"user_id"`
	AIEnabled            bool  `db:"ai_enabled"             json:"ai_enabled"`
	NotificationEnabled  bool  `db:"notification_enabled"   json:"notification_enabled"`
	DefaultCrawlInterval int   `db:"default_crawl_interval" json:"default_crawl_interval"`
}

// DefaultAccountSettings mirrors the column defaults for accounts with no settings row.
func DefaultAccountSettings(userID int64) *AccountSettings {
	return &AccountSettings{
		UserID:               userID,
		AIEnabled:            true,
		NotificationEnabled:  true,
		DefaultCrawlInterval: 3600,
	}
}
