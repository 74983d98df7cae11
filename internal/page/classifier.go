// Package page decides whether a fetched page is an article or a listing and harvests
// candidate article links from listings.
package page

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/north-cloud/aggregator/internal/domain"
	"github.com/jonesrussell/north-cloud/aggregator/internal/logger"
)

// Rule thresholds.
const (
	linkDenseMinLinks       = 20
	linkDenseMaxTextPerLink = 50
	listMinItems            = 10
	listMaxParagraphs       = 5
	mainContentMinParas     = 5
	proseMinTextLength      = 1000
	proseMinParagraphs      = 5
	bylineMinParagraphs     = 3
)

// rule is one row of the classification table.
type rule struct {
	name       string
	verdict    domain.PageType
	confidence float64
	reason     string
	match      func(f Features) bool
}

// rules are evaluated top to bottom and the first match wins. Listing signals come
// before prose density so that result pages with long boilerplate stay listings.
var rules = []rule{
	{
		name:       "listing-vocabulary",
		verdict:    domain.PageTypeList,
		confidence: 0.8,
		reason:     "search results, pagination or card layout detected",
		match: func(f Features) bool {
			return f.HasSearchResults || f.HasPagination || f.HasCardLayout
		},
	},
	{
		name:       "link-dense",
		verdict:    domain.PageTypeList,
		confidence: 0.7,
		reason:     "many links with little text per link",
		match: func(f Features) bool {
			return f.LinkCount > linkDenseMinLinks &&
				float64(f.TextLength)/float64(f.LinkCount) < linkDenseMaxTextPerLink
		},
	},
	{
		name:       "list-items",
		verdict:    domain.PageTypeList,
		confidence: 0.75,
		reason:     "many list items and few paragraphs",
		match: func(f Features) bool {
			return f.ListItemCount > listMinItems && f.ParagraphCount < listMaxParagraphs
		},
	},
	{
		name:       "article-structure",
		verdict:    domain.PageTypeArticle,
		confidence: 0.85,
		reason:     "article element or main content container with paragraphs",
		match: func(f Features) bool {
			return f.ArticleCount > 0 || (f.HasMainContent && f.ParagraphCount > mainContentMinParas)
		},
	},
	{
		name:       "prose-density",
		verdict:    domain.PageTypeArticle,
		confidence: 0.8,
		reason:     "long body text across several paragraphs",
		match: func(f Features) bool {
			return f.TextLength > proseMinTextLength && f.ParagraphCount > proseMinParagraphs
		},
	},
	{
		name:       "byline",
		verdict:    domain.PageTypeArticle,
		confidence: 0.9,
		reason:     "author and publish date present with paragraphs",
		match: func(f Features) bool {
			return f.HasAuthor && f.HasPublishDate && f.ParagraphCount > bylineMinParagraphs
		},
	},
}

// Classifier applies the rule table to fetched pages.
type Classifier struct {
	log logger.Logger
}

// NewClassifier creates a Classifier.
func NewClassifier(log logger.Logger) *Classifier {
	if log == nil {
		log = logger.NewNop()
	}
	return &Classifier{log: log}
}

// Classify returns the verdict for html fetched from pageURL. It never fails: markup
// that cannot be parsed yields an unknown verdict with zero confidence.
func (c *Classifier) Classify(pageURL, html string) domain.PageAnalysis {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		c.log.Warn("Failed to parse page", logger.String("url", pageURL), logger.Error(err))
		return domain.PageAnalysis{Type: domain.PageTypeUnknown, Reason: "failed to parse page"}
	}

	doc.Find(chromeSelector).Remove()
	features := measure(doc, html)

	analysis, matched := evaluate(features)
	if analysis.Type == domain.PageTypeList {
		analysis.ChildLinks = ExtractChildLinks(pageURL, doc)
	}

	c.log.Debug("Classified page",
		logger.String("url", pageURL),
		logger.String("type", string(analysis.Type)),
		logger.String("rule", matched),
		logger.Float64("confidence", analysis.Confidence),
		logger.Int("child_links", len(analysis.ChildLinks)),
	)

	return analysis
}

func evaluate(f Features) (domain.PageAnalysis, string) {
	for _, r := range rules {
		if r.match(f) {
			return domain.PageAnalysis{
				Type:       r.verdict,
				Confidence: clamp(r.confidence),
				Reason:     r.reason,
			}, r.name
		}
	}
	return domain.PageAnalysis{
		Type:   domain.PageTypeUnknown,
		Reason: "no classification rule matched",
	}, "none"
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
