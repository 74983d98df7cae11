// Package extractor turns a fetched article page into clean ArticleContent.
package extractor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/north-cloud/aggregator/internal/domain"
	"github.com/jonesrussell/north-cloud/aggregator/internal/page"
)

// ErrLowQuality is returned for pages without a title or with too little content.
var ErrLowQuality = errors.New("extracted content below quality threshold")

const (
	// MinContentLength is the quality gate for persisted content.
	MinContentLength = 100
	// minContainerLength is what a content container must exceed to be preferred over body text.
	minContainerLength = 200
)

const (
	authorSelector   = `[class*="author"], [class*="byline"], [rel="author"]`
	dateSelector     = `time, [class*="date"], [class*="published"]`
	noiseSelector    = "script, style, nav, header, footer, aside, .sidebar, .comment, .ad, .advertisement"
	fallbackSelector = "body"
)

// contentSelectors are tried in priority order.
var contentSelectors = []string{
	"article",
	".post-content",
	".entry-content",
	".content",
	"main",
	"#content",
	".article-body",
}

// PageFetcher retrieves raw page markup.
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

// Config holds extractor options.
type Config struct {
	// ReadabilityFallback runs a readability pass before falling back to raw body text.
	ReadabilityFallback bool
}

// Extractor fetches and extracts single articles.
type Extractor struct {
	fetcher     PageFetcher
	readability bool
}

// New creates an Extractor.
func New(fetcher PageFetcher, cfg Config) *Extractor {
	return &Extractor{
		fetcher:     fetcher,
		readability: cfg.ReadabilityFallback,
	}
}

// Extract fetches pageURL and extracts its article. Transport failures and
// ErrLowQuality are returned to the caller, which treats both as "no article".
func (e *Extractor) Extract(ctx context.Context, pageURL string) (*domain.ArticleContent, error) {
	body, err := e.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	return e.ExtractHTML(pageURL, body)
}

// extractAuthor returns the first byline text. Longer text is an author bio, not a name.
func extractAuthor(doc *goquery.Document) string {
	author := page.NormalizeText(doc.Find(authorSelector).First().Text())
	if utf8.RuneCountInString(author) > domain.MaxAuthorLength {
		return ""
	}
	return author
}

// ExtractHTML extracts an article from already fetched markup.
func (e *Extractor) ExtractHTML(pageURL string, body []byte) (*domain.ArticleContent, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	article := &domain.ArticleContent{
		URL:         pageURL,
		Title:       extractTitle(doc),
		Author:      extractAuthor(doc),
		PublishedAt: extractPublishedAt(doc),
	}

	doc.Find(noiseSelector).Remove()
	article.Content = e.extractContent(doc, pageURL, body)

	if article.Title == "" || utf8.RuneCountInString(article.Content) < MinContentLength {
		return nil, ErrLowQuality
	}

	return article, nil
}

func extractTitle(doc *goquery.Document) string {
	if title := page.NormalizeText(doc.Find("h1").First().Text()); title != "" {
		return title
	}
	return page.NormalizeText(doc.Find("title").First().Text())
}

func (e *Extractor) extractContent(doc *goquery.Document, pageURL string, raw []byte) string {
	for _, selector := range contentSelectors {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		if text := page.NormalizeText(sel.Text()); utf8.RuneCountInString(text) > minContainerLength {
			return text
		}
	}

	if e.readability {
		if text := readabilityText(raw, pageURL); utf8.RuneCountInString(text) > minContainerLength {
			return text
		}
	}

	return page.NormalizeText(doc.Find(fallbackSelector).Text())
}
