package extractor

import (
	"bytes"
	"net/url"

	readability "github.com/go-shiori/go-readability"

	"github.com/jonesrussell/north-cloud/aggregator/internal/page"
)

// readabilityText returns the readability-extracted text of raw, or "" on any failure.
func readabilityText(raw []byte, pageURL string) string {
	if len(bytes.TrimSpace(raw)) == 0 {
		return ""
	}

	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}

	article, err := readability.FromReader(bytes.NewReader(raw), parsedURL)
	if err != nil {
		return ""
	}

	return page.NormalizeText(article.TextContent)
}
