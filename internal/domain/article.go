package domain

import "time"

// ArticleStatus is the reading state of a stored article.
type ArticleStatus string

const (
	ArticleStatusUnread   ArticleStatus = "unread"
	ArticleStatusRead     ArticleStatus = "read"
	ArticleStatusArchived ArticleStatus = "archived"
)

// MaxAuthorLength is the widest author value the articles table stores, in runes.
const MaxAuthorLength = 255

// Article is a persisted article row.
type Article struct {
	ID          int64         `db:"id"           json:"id"`
	SourceID    int64         `db:"source_id"    json:"source_id"`
	UserID      int64         `db:"user_id"      json:"user_id"`
	PageType    PageType      `db:"page_type"    json:"page_type"`
	Title       string        `db:"title"        json:"title"`
	Author      *string       `db:"author"       json:"author,omitempty"`
	OriginalURL string        `db:"original_url" json:"original_url"`
	ContentText string        `db:"content_text" json:"content_text"`
	ContentHash string        `db:"content_hash" json:"content_hash"`
	PublishedAt *time.Time    `db:"published_at" json:"published_at,omitempty"`
	CrawledAt   time.Time     `db:"crawled_at"   json:"crawled_at"`
	Status      ArticleStatus `db:"status"       json:"status"`
	IsFavorite  bool          `db:"is_favorite"  json:"is_favorite"`
}

// Enrichment is the LLM analysis attached to a persisted article.
type Enrichment struct {
	ArticleID int64    `json:"article_id"`
	Summary   string   `json:"summary"`
	KeyPoints []string `json:"key_points"`
	Tags      []string `json:"tags"`
	Topic     string   `json:"topic"`
}
