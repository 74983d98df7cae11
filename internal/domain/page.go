// Package domain holds the types shared by the crawling pipeline and its collaborators.
package domain

import "time"

// PageType is the classifier verdict for a fetched page.
type PageType string

const (
	PageTypeArticle PageType = "article"
	PageTypeList    PageType = "list"
	PageTypeUnknown PageType = "unknown"
)

// PageAnalysis is the classifier output for one fetched page.
type PageAnalysis struct {
	Type       PageType `json:"type"`
	Confidence float64  `json:"confidence"`
	Reason     string   `json:"reason"`
	ChildLinks []string `json:"child_links,omitempty"`
}

// ArticleContent is a cleaned article extracted from a page or feed item.
type ArticleContent struct {
	Title       string     `json:"title"`
	Author      string     `json:"author,omitempty"`
	Content     string     `json:"content"`
	URL         string     `json:"url"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

// MultiArticleResult is what one smart crawl of a URL produced.
type MultiArticleResult struct {
	SourceURL  string           `json:"source_url"`
	PageType   PageType         `json:"page_type"`
	Analysis   PageAnalysis     `json:"analysis"`
	Articles   []ArticleContent `json:"articles"`
	TotalFound int              `json:"total_found"`
	Processed  int              `json:"processed"`
}
