package page

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// chromeSelector is removed before any measurement.
const chromeSelector = "script, style, nav, header, footer"

const (
	cardSelector        = ".card, .item, .entry, .post, .article-item"
	mainContentSelector = "main, article, .content, .post-content, #content"
	authorSelector      = `[class*="author"], [class*="byline"]`
	dateSelector        = `[class*="date"], [class*="time"], time`
	minCardContainers   = 3
)

// Vocabulary checks run over the raw markup, not the cleaned DOM.
var (
	searchVocabulary     = regexp.MustCompile(`(?i)search|results?|query`)
	paginationVocabulary = regexp.MustCompile(`(?i)page|next|prev|previous|\d+\s*of\s*\d+`)
)

// Features are the structural measurements the rule table reads.
type Features struct {
	LinkCount      int
	UniqueLinks    int
	ParagraphCount int
	HeadingCount   int
	ListItemCount  int
	ArticleCount   int
	TextLength     int

	HasSearchResults bool
	HasPagination    bool
	HasCardLayout    bool
	HasMainContent   bool
	HasAuthor        bool
	HasPublishDate   bool
}

// measure computes features from doc. doc must already have chrome removed.
func measure(doc *goquery.Document, rawHTML string) Features {
	links := doc.Find("a[href]")
	unique := make(map[string]struct{}, links.Length())
	links.Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok {
			unique[href] = struct{}{}
		}
	})

	return Features{
		LinkCount:        links.Length(),
		UniqueLinks:      len(unique),
		ParagraphCount:   doc.Find("p").Length(),
		HeadingCount:     doc.Find("h1, h2, h3").Length(),
		ListItemCount:    doc.Find("li").Length(),
		ArticleCount:     doc.Find("article").Length(),
		TextLength:       utf8.RuneCountInString(NormalizeText(doc.Find("body").Text())),
		HasSearchResults: searchVocabulary.MatchString(rawHTML),
		HasPagination:    paginationVocabulary.MatchString(rawHTML),
		HasCardLayout:    doc.Find(cardSelector).Length() > minCardContainers,
		HasMainContent:   doc.Find(mainContentSelector).Length() > 0,
		HasAuthor:        doc.Find(authorSelector).Length() > 0,
		HasPublishDate:   doc.Find(dateSelector).Length() > 0,
	}
}

// NormalizeText collapses whitespace runs to single spaces and trims the result.
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
