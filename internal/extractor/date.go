package extractor

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
)

// extractPublishedAt reads the first date-like element. Values that do not parse are dropped.
func extractPublishedAt(doc *goquery.Document) *time.Time {
	sel := doc.Find(dateSelector).First()
	if sel.Length() == 0 {
		return nil
	}

	raw, ok := sel.Attr("datetime")
	if !ok || strings.TrimSpace(raw) == "" {
		raw = sel.Text()
	}
	return ParseDate(raw)
}

// ParseDate parses free-form date text. It returns nil when the text is not a date.
func ParseDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	t, err := dateparse.ParseAny(raw)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}
