package crawl_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jonesrussell/north-cloud/aggregator/cmd/crawl"
	"github.com/jonesrussell/north-cloud/aggregator/internal/domain"
)

func TestRenderResult(t *testing.T) {
	t.Parallel()

	published := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	crawl.RenderResult(&buf, &domain.MultiArticleResult{
		SourceURL:  "https://example.com/news",
		PageType:   domain.PageTypeList,
		Analysis:   domain.PageAnalysis{Type: domain.PageTypeList, Confidence: 0.8, Reason: "card layout"},
		TotalFound: 5,
		Processed:  1,
		Articles: []domain.ArticleContent{{
			Title:       "Harbor festival",
			Author:      "Ada Writer",
			Content:     "Body text",
			URL:         "https://example.com/news/1",
			PublishedAt: &published,
		}},
	})

	out := buf.String()
	assert.Contains(t, out, "list (confidence 0.80)")
	assert.Contains(t, out, "found 5, extracted 1")
	assert.Contains(t, out, "Harbor festival")
	assert.Contains(t, out, "2024-03-01")
}

func TestRenderOutcome(t *testing.T) {
	t.Parallel()

	msg := "All articles already exist"
	start := time.Now()
	var buf bytes.Buffer
	crawl.RenderOutcome(&buf, &domain.CrawlOutcome{Log: domain.CrawlLog{
		SourceID:      4,
		Status:        domain.CrawlStatusPartial,
		ArticlesFound: 3,
		ErrorMessage:  &msg,
		StartedAt:     start,
		CompletedAt:   start.Add(2 * time.Second),
	}})

	out := buf.String()
	assert.Contains(t, out, "partial")
	assert.Contains(t, out, msg)
	assert.Contains(t, out, "2s")
}
