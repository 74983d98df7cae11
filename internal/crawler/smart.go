package crawler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonesrussell/north-cloud/aggregator/internal/domain"
	"github.com/jonesrussell/north-cloud/aggregator/internal/extractor"
	"github.com/jonesrussell/north-cloud/aggregator/internal/logger"
)

// DefaultPolitenessDelay is the pause between consecutive article fetches.
const DefaultPolitenessDelay = time.Second

// FetchError reports that the entry URL itself could not be fetched.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("source unreachable: %v", e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// SmartCrawlerParams holds the SmartCrawler dependencies.
type SmartCrawlerParams struct {
	Fetcher    PageFetcher
	Classifier PageClassifier
	Extractor  ArticleExtractor
	// Delay between article fetches. Negative disables the pause.
	Delay  time.Duration
	Logger logger.Logger
}

// SmartCrawler turns one entry URL into a MultiArticleResult. It persists nothing.
type SmartCrawler struct {
	fetcher    PageFetcher
	classifier PageClassifier
	extractor  ArticleExtractor
	delay      time.Duration
	log        logger.Logger
}

// NewSmartCrawler creates a SmartCrawler.
func NewSmartCrawler(p SmartCrawlerParams) *SmartCrawler {
	delay := p.Delay
	if delay == 0 {
		delay = DefaultPolitenessDelay
	}
	if delay < 0 {
		delay = 0
	}
	log := p.Logger
	if log == nil {
		log = logger.NewNop()
	}
	return &SmartCrawler{
		fetcher:    p.Fetcher,
		classifier: p.Classifier,
		extractor:  p.Extractor,
		delay:      delay,
		log:        log,
	}
}

// Crawl fetches and classifies sourceURL, then extracts either the page itself or its
// child links. Only a failure to fetch sourceURL (a *FetchError) or cancellation is
// returned as an error; on cancellation the articles gathered so far are returned too.
func (c *SmartCrawler) Crawl(ctx context.Context, sourceURL string) (*domain.MultiArticleResult, error) {
	body, err := c.fetcher.Fetch(ctx, sourceURL)
	if err != nil {
		return nil, &FetchError{URL: sourceURL, Err: err}
	}

	analysis := c.classifier.Classify(sourceURL, string(body))
	c.log.Info("Page classified",
		logger.String("url", sourceURL),
		logger.String("page_type", string(analysis.Type)),
		logger.Float64("confidence", analysis.Confidence),
		logger.String("reason", analysis.Reason),
	)

	result := &domain.MultiArticleResult{
		SourceURL: sourceURL,
		PageType:  analysis.Type,
		Analysis:  analysis,
		Articles:  []domain.ArticleContent{},
	}

	if analysis.Type == domain.PageTypeList && len(analysis.ChildLinks) > 0 {
		result.TotalFound = len(analysis.ChildLinks)
		articles, extractErr := c.extractLinks(ctx, analysis.ChildLinks)
		result.Articles = articles
		result.Processed = len(articles)
		return result, extractErr
	}

	// Article and unknown verdicts, and lists without usable links, are extracted in place.
	result.TotalFound = 1
	if article, ok := c.fromMarkup(sourceURL, body); ok {
		result.Articles = append(result.Articles, *article)
	}
	result.Processed = len(result.Articles)
	return result, nil
}

// extractLinks extracts links sequentially with the politeness delay between fetches.
func (c *SmartCrawler) extractLinks(ctx context.Context, links []string) ([]domain.ArticleContent, error) {
	articles := make([]domain.ArticleContent, 0, len(links))
	for i, link := range links {
		if i > 0 {
			if err := sleepOrCancel(ctx, c.delay); err != nil {
				return articles, err
			}
		}
		if article, ok := c.fromURL(ctx, link); ok {
			articles = append(articles, *article)
		}
		if err := ctx.Err(); err != nil {
			return articles, err
		}
	}
	return articles, nil
}

// fromURL fetches and extracts one article. Any failure contributes nothing.
func (c *SmartCrawler) fromURL(ctx context.Context, pageURL string) (*domain.ArticleContent, bool) {
	article, err := c.extractor.Extract(ctx, pageURL)
	return c.accept(pageURL, article, err)
}

func (c *SmartCrawler) fromMarkup(pageURL string, body []byte) (*domain.ArticleContent, bool) {
	article, err := c.extractor.ExtractHTML(pageURL, body)
	return c.accept(pageURL, article, err)
}

func (c *SmartCrawler) accept(pageURL string, article *domain.ArticleContent, err error) (*domain.ArticleContent, bool) {
	switch {
	case errors.Is(err, extractor.ErrLowQuality):
		c.log.Debug("Article below quality gate", logger.String("url", pageURL))
		return nil, false
	case err != nil:
		c.log.Warn("Article extraction failed", logger.String("url", pageURL), logger.Error(err))
		return nil, false
	case article == nil:
		return nil, false
	}
	c.log.Debug("Article extracted", logger.String("url", pageURL), logger.String("title", article.Title))
	return article, true
}

// sleepOrCancel waits for d or until ctx is done.
func sleepOrCancel(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
