// Package feed parses RSS and Atom sources into candidate articles.
package feed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/jonesrussell/north-cloud/aggregator/internal/page"
)

const httpPrefix = "http"

// Item is one feed entry with its markup reduced to plain text.
type Item struct {
	URL         string
	Title       string
	Author      string
	Text        string
	PublishedAt *time.Time
}

// ParseFeed parses an RSS or Atom body and returns at most maxItems entries that have
// a usable link, in feed order. maxItems <= 0 means no limit.
func ParseFeed(ctx context.Context, body string, maxItems int) ([]Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	parsed, err := gofeed.NewParser().ParseString(body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	items := make([]Item, 0, len(parsed.Items))
	for _, entry := range parsed.Items {
		if maxItems > 0 && len(items) >= maxItems {
			break
		}

		link := extractLink(entry)
		if link == "" {
			continue
		}

		items = append(items, Item{
			URL:         link,
			Title:       page.NormalizeText(entry.Title),
			Author:      extractAuthor(entry),
			Text:        extractText(entry),
			PublishedAt: extractPublished(entry),
		})
	}

	return items, nil
}

func extractLink(entry *gofeed.Item) string {
	if entry.Link != "" {
		return entry.Link
	}
	if strings.HasPrefix(entry.GUID, httpPrefix) {
		return entry.GUID
	}
	return ""
}

func extractAuthor(entry *gofeed.Item) string {
	if entry.Author != nil && entry.Author.Name != "" {
		return entry.Author.Name
	}
	for _, a := range entry.Authors {
		if a != nil && a.Name != "" {
			return a.Name
		}
	}
	return ""
}

// extractText prefers full content over the summary.
func extractText(entry *gofeed.Item) string {
	markup := entry.Content
	if strings.TrimSpace(markup) == "" {
		markup = entry.Description
	}
	return StripHTML(markup)
}

func extractPublished(entry *gofeed.Item) *time.Time {
	if entry.PublishedParsed != nil {
		return entry.PublishedParsed
	}
	return entry.UpdatedParsed
}

// StripHTML reduces an HTML fragment to whitespace-normalized text.
func StripHTML(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return page.NormalizeText(fragment)
	}
	doc.Find("script, style").Remove()
	return page.NormalizeText(doc.Text())
}
