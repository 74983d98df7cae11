package crawler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jonesrussell/north-cloud/aggregator/internal/dedup"
	"github.com/jonesrussell/north-cloud/aggregator/internal/domain"
	"github.com/jonesrussell/north-cloud/aggregator/internal/enrichment"
	"github.com/jonesrussell/north-cloud/aggregator/internal/logger"
	"github.com/jonesrussell/north-cloud/aggregator/internal/metrics"
	"github.com/jonesrussell/north-cloud/aggregator/internal/notify"
)

const (
	// DefaultMaxFeedItems caps how many feed entries one crawl considers.
	DefaultMaxFeedItems = 20

	// AllDuplicatesMessage is recorded on partial crawls.
	AllDuplicatesMessage = "All articles already exist"

	finalizeTimeout = 10 * time.Second
	notifyTimeout   = 5 * time.Second
)

// ServiceParams holds the Service dependencies. Analyzer, Indexer, Notifier and Metrics are optional.
type ServiceParams struct {
	Store   Store
	Crawler *SmartCrawler
	// Index defaults to a store-backed index when Store can look up fingerprints.
	Index        dedup.Index
	Analyzer     enrichment.Analyzer
	Indexer      ArticleIndexer
	Notifier     notify.Notifier
	Metrics      *metrics.Metrics
	Logger       logger.Logger
	MaxFeedItems int
}

// Service orchestrates source crawls: crawl, deduplicate, persist, enrich, record.
type Service struct {
	store        Store
	crawler      *SmartCrawler
	index        dedup.Index
	analyzer     enrichment.Analyzer
	indexer      ArticleIndexer
	notifier     notify.Notifier
	metrics      *metrics.Metrics
	log          logger.Logger
	maxFeedItems int
	now          func() time.Time
	inflight     singleflight.Group
}

// NewService creates a Service.
func NewService(p ServiceParams) (*Service, error) {
	if p.Store == nil {
		return nil, errors.New("crawler service requires a store")
	}
	if p.Crawler == nil {
		return nil, errors.New("crawler service requires a smart crawler")
	}

	index := p.Index
	if index == nil {
		lookup, ok := p.Store.(dedup.ArticleLookup)
		if !ok {
			return nil, errors.New("crawler service requires a fingerprint index")
		}
		index = dedup.NewStoreIndex(lookup)
	}

	log := p.Logger
	if log == nil {
		log = logger.NewNop()
	}
	notifier := p.Notifier
	if notifier == nil {
		notifier = notify.Nop{}
	}
	maxFeedItems := p.MaxFeedItems
	if maxFeedItems <= 0 {
		maxFeedItems = DefaultMaxFeedItems
	}

	return &Service{
		store:        p.Store,
		crawler:      p.Crawler,
		index:        index,
		analyzer:     p.Analyzer,
		indexer:      p.Indexer,
		notifier:     notifier,
		metrics:      p.Metrics,
		log:          log,
		maxFeedItems: maxFeedItems,
		now:          time.Now,
	}, nil
}

// crawlRun accumulates the state of one invocation until finalize.
type crawlRun struct {
	sourceID  int64
	startedAt time.Time
	source    *domain.Source
	settings  *domain.AccountSettings
	result    *domain.MultiArticleResult
	added     int
	skipped   int
	// touched is set once the source URL was fetched; only then is last_crawled_at advanced.
	touched  bool
	err      error
	storeErr error
}

func (r *crawlRun) found() int {
	if r.result == nil {
		return 0
	}
	return len(r.result.Articles)
}

func (r *crawlRun) status() (domain.CrawlStatus, string) {
	failure := r.err
	if failure == nil {
		failure = r.storeErr
	}

	switch {
	case failure != nil && r.added == 0:
		return domain.CrawlStatusFailed, failure.Error()
	case failure != nil:
		return domain.CrawlStatusSuccess, failure.Error()
	case r.found() > 0 && r.added == 0:
		return domain.CrawlStatusPartial, AllDuplicatesMessage
	default:
		return domain.CrawlStatusSuccess, ""
	}
}

// CrawlSource crawls one source end to end and always returns an outcome whose log row
// has been appended. Concurrent calls for the same source share a single run.
func (s *Service) CrawlSource(ctx context.Context, sourceID int64) *domain.CrawlOutcome {
	v, _, _ := s.inflight.Do(strconv.FormatInt(sourceID, 10), func() (any, error) {
		return s.crawlSource(ctx, sourceID), nil
	})
	outcome, _ := v.(*domain.CrawlOutcome)
	return outcome
}

func (s *Service) crawlSource(ctx context.Context, sourceID int64) (outcome *domain.CrawlOutcome) {
	run := &crawlRun{sourceID: sourceID, startedAt: s.now()}
	s.metrics.CrawlStarted()

	defer func() {
		if r := recover(); r != nil {
			s.log.Error("Crawl panicked", logger.Int64("source_id", sourceID), logger.Any("panic", r))
			run.err = fmt.Errorf("crawl panicked: %v", r)
		}
		outcome = s.finalize(ctx, run)
	}()

	s.execute(ctx, run)
	return nil
}

func (s *Service) execute(ctx context.Context, run *crawlRun) {
	source, err := s.store.GetSource(ctx, run.sourceID)
	if err != nil {
		run.err = fmt.Errorf("load source %d: %w", run.sourceID, err)
		return
	}
	run.source = source
	run.settings = s.loadSettings(ctx, source.UserID)

	log := s.log.With(logger.Int64("source_id", source.ID), logger.String("url", source.URL))
	log.Info("Starting crawl", logger.String("type", string(source.Type)))

	var result *domain.MultiArticleResult
	if source.Type == domain.SourceTypeRSS {
		result, err = s.crawler.CrawlFeed(ctx, source.URL, s.maxFeedItems)
	} else {
		result, err = s.crawler.Crawl(ctx, source.URL)
	}

	var fetchErr *FetchError
	run.touched = !errors.As(err, &fetchErr)
	run.result = result

	if result != nil {
		s.metrics.ObservePage(string(result.PageType))
	}
	if err != nil {
		run.err = err
		return
	}

	for i := range result.Articles {
		if ctxErr := ctx.Err(); ctxErr != nil {
			run.err = ctxErr
			return
		}
		s.persist(ctx, run, &result.Articles[i], log)
	}
}

// loadSettings never fails: a lookup error disables the optional features.
func (s *Service) loadSettings(ctx context.Context, userID int64) *domain.AccountSettings {
	settings, err := s.store.GetAccountSettings(ctx, userID)
	if err != nil {
		s.log.Warn("Failed to load account settings",
			logger.Int64("user_id", userID),
			logger.Error(err),
		)
		return &domain.AccountSettings{UserID: userID}
	}
	return settings
}

func (s *Service) persist(ctx context.Context, run *crawlRun, content *domain.ArticleContent, log logger.Logger) {
	fingerprint := dedup.Fingerprint(content.Content)

	seen, err := s.index.Seen(ctx, fingerprint)
	if err != nil {
		log.Warn("Fingerprint lookup failed", logger.String("article_url", content.URL), logger.Error(err))
		run.storeErr = fmt.Errorf("check fingerprint: %w", err)
		return
	}
	if seen {
		run.skipped++
		log.Debug("Article already exists", logger.String("article_url", content.URL))
		return
	}

	article := &domain.Article{
		SourceID:    run.source.ID,
		UserID:      run.source.UserID,
		PageType:    run.result.PageType,
		Title:       content.Title,
		OriginalURL: content.URL,
		ContentText: content.Content,
		ContentHash: fingerprint,
		PublishedAt: content.PublishedAt,
		CrawledAt:   s.now(),
		Status:      domain.ArticleStatusUnread,
	}
	if content.Author != "" {
		author := enrichment.Truncate(content.Author, domain.MaxAuthorLength)
		article.Author = &author
	}

	id, err := s.store.CreateArticle(ctx, article)
	if err != nil {
		log.Warn("Failed to save article", logger.String("article_url", content.URL), logger.Error(err))
		run.storeErr = fmt.Errorf("create article: %w", err)
		return
	}
	article.ID = id
	run.added++

	if err = s.index.Remember(ctx, fingerprint); err != nil {
		log.Warn("Failed to remember fingerprint", logger.Error(err))
	}

	if s.indexer != nil {
		if err = s.indexer.IndexArticle(ctx, article); err != nil {
			log.Warn("Failed to index article", logger.Int64("article_id", id), logger.Error(err))
		}
	}

	s.enrich(ctx, run, article, log)
}

func (s *Service) enrich(ctx context.Context, run *crawlRun, article *domain.Article, log logger.Logger) {
	if s.analyzer == nil || run.settings == nil || !run.settings.AIEnabled {
		return
	}

	analysis, err := s.analyzer.Analyze(ctx, article.Title, article.ContentText)
	if err != nil {
		log.Warn("Enrichment failed, using default analysis",
			logger.Int64("article_id", article.ID),
			logger.Error(err),
		)
		s.metrics.EnrichmentFellBack()
		analysis = enrichment.DefaultAnalysis(article.ContentText)
	}

	err = s.store.CreateEnrichment(ctx, &domain.Enrichment{
		ArticleID: article.ID,
		Summary:   analysis.Summary,
		KeyPoints: analysis.KeyPoints,
		Tags:      analysis.Tags,
		Topic:     analysis.Topic,
	})
	if err != nil {
		log.Warn("Failed to save enrichment", logger.Int64("article_id", article.ID), logger.Error(err))
	}
}

// finalize runs on every path, detached from ctx cancellation so the audit row is written.
func (s *Service) finalize(ctx context.Context, run *crawlRun) *domain.CrawlOutcome {
	fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalizeTimeout)
	defer cancel()

	completedAt := s.now()
	log := s.log.With(logger.Int64("source_id", run.sourceID))

	if run.source != nil && run.touched {
		if err := s.store.UpdateSourceLastCrawled(fctx, run.sourceID, completedAt); err != nil {
			log.Error("Failed to update last crawled time", logger.Error(err))
		}
	}

	status, message := run.status()
	entry := domain.CrawlLog{
		SourceID:      run.sourceID,
		Status:        status,
		ArticlesFound: run.found(),
		ArticlesAdded: run.added,
		StartedAt:     run.startedAt,
		CompletedAt:   completedAt,
	}
	if message != "" {
		entry.ErrorMessage = &message
	}

	if err := s.store.AppendCrawlLog(fctx, &entry); err != nil {
		log.Error("Failed to append crawl log", logger.Error(err))
	}

	elapsed := completedAt.Sub(run.startedAt)
	s.metrics.ObserveCrawl(string(status), entry.ArticlesFound, run.added, run.skipped, elapsed)
	s.notifyOutcome(fctx, run, &entry)

	log.Info("Crawl finished",
		logger.String("status", string(status)),
		logger.Int("articles_found", entry.ArticlesFound),
		logger.Int("articles_added", entry.ArticlesAdded),
		logger.Int("duplicates", run.skipped),
		logger.Duration("duration", elapsed),
		logger.String("error_message", message),
	)

	return &domain.CrawlOutcome{Log: entry, Result: run.result}
}

// notifyOutcome is fire-and-forget: failures are logged and swallowed.
func (s *Service) notifyOutcome(ctx context.Context, run *crawlRun, entry *domain.CrawlLog) {
	if run.source == nil || run.settings == nil || !run.settings.NotificationEnabled {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()

	if err := s.notifier.Notify(ctx, outcomeMessage(run.source, entry)); err != nil {
		s.log.Warn("Failed to send crawl notification",
			logger.Int64("source_id", run.sourceID),
			logger.Error(err),
		)
	}
}

func outcomeMessage(source *domain.Source, entry *domain.CrawlLog) notify.Message {
	msg := notify.Message{UserID: source.UserID, SourceID: source.ID}
	switch entry.Status {
	case domain.CrawlStatusFailed:
		msg.Title = "Crawl failed: " + source.Name
		if entry.ErrorMessage != nil {
			msg.Body = *entry.ErrorMessage
		}
	case domain.CrawlStatusPartial:
		msg.Title = "Crawl finished: " + source.Name
		msg.Body = "No new articles"
	default:
		msg.Title = "Crawl finished: " + source.Name
		msg.Body = fmt.Sprintf("%d new articles", entry.ArticlesAdded)
	}
	return msg
}
