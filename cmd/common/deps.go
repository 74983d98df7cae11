// Package common builds the dependencies shared by the aggregator commands.
package common

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/aggregator/internal/config"
	"github.com/jonesrussell/north-cloud/aggregator/internal/coordination"
	"github.com/jonesrussell/north-cloud/aggregator/internal/crawler"
	"github.com/jonesrussell/north-cloud/aggregator/internal/database"
	"github.com/jonesrussell/north-cloud/aggregator/internal/dedup"
	"github.com/jonesrussell/north-cloud/aggregator/internal/enrichment"
	"github.com/jonesrussell/north-cloud/aggregator/internal/extractor"
	"github.com/jonesrussell/north-cloud/aggregator/internal/fetcher"
	"github.com/jonesrussell/north-cloud/aggregator/internal/logger"
	"github.com/jonesrussell/north-cloud/aggregator/internal/metrics"
	"github.com/jonesrussell/north-cloud/aggregator/internal/notify"
	"github.com/jonesrussell/north-cloud/aggregator/internal/page"
	"github.com/jonesrussell/north-cloud/aggregator/internal/search"
)

// Persistent flag names registered on the root command.
const (
	FlagConfig = "config"
	FlagDebug  = "debug"
)

// CommandDeps holds configuration and logging for one command invocation.
type CommandDeps struct {
	Config *config.Config
	Logger logger.Logger
}

// NewCommandDeps loads configuration and builds the logger.
func NewCommandDeps(cmd *cobra.Command) (*CommandDeps, error) {
	cfgFile, _ := cmd.Flags().GetString(FlagConfig)
	debug, _ := cmd.Flags().GetBool(FlagDebug)

	v, err := config.New(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize configuration: %w", err)
	}
	if debug {
		v.Set("app.debug", true)
	}

	cfg, err := config.Load(v)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return &CommandDeps{Config: cfg, Logger: log}, nil
}

// NewSmartCrawler builds the fetch, classify and extract pipeline. It needs no storage.
func NewSmartCrawler(cfg config.CrawlerConfig, log logger.Logger) *crawler.SmartCrawler {
	f := fetcher.New(fetcher.Config{
		UserAgent:      cfg.UserAgent,
		RequestTimeout: cfg.RequestTimeout,
		MaxBodyBytes:   cfg.MaxBodyBytes,
	}, nil)

	delay := cfg.PolitenessDelay
	if delay == 0 {
		delay = -1
	}

	return crawler.NewSmartCrawler(crawler.SmartCrawlerParams{
		Fetcher:    f,
		Classifier: page.NewClassifier(log),
		Extractor:  extractor.New(f, extractor.Config{ReadabilityFallback: cfg.ReadabilityFallback}),
		Delay:      delay,
		Logger:     log,
	})
}

// Runtime is the fully wired crawl stack backed by Postgres and the optional integrations.
type Runtime struct {
	*CommandDeps

	DB       *sqlx.DB
	Store    *database.Store
	Redis    *redis.Client
	Locker   coordination.Locker
	Crawler  *crawler.SmartCrawler
	Service  *crawler.Service
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics

	closers []func() error
}

// NewRuntime connects to the configured backends and wires the crawl service.
func NewRuntime(ctx context.Context, deps *CommandDeps) (*Runtime, error) {
	rt := &Runtime{CommandDeps: deps}
	cfg := deps.Config

	db, err := database.NewPostgresConnection(ctx, cfg.Database.DSN())
	if err != nil {
		return nil, err
	}
	rt.DB = db
	rt.closers = append(rt.closers, db.Close)
	rt.Store = database.NewStore(db)

	rt.Registry = prometheus.NewRegistry()
	rt.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rt.Metrics = metrics.New(rt.Registry)

	var index dedup.Index = dedup.NewStoreIndex(rt.Store)
	var notifier notify.Notifier = notify.Nop{}
	rt.Locker = coordination.NewLocalLocker()

	if cfg.Redis.Enabled {
		rt.Redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		rt.closers = append(rt.closers, rt.Redis.Close)
		if pingErr := rt.Redis.Ping(ctx).Err(); pingErr != nil {
			_ = rt.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", pingErr)
		}

		index = dedup.NewRedisIndex(rt.Redis, index, cfg.Redis.KeyPrefix, cfg.Redis.FingerprintTTL, deps.Logger)
		notifier = notify.NewRedisStreamNotifier(rt.Redis, cfg.Redis.NotifyStream)
		rt.Locker = coordination.NewRedisLocker(rt.Redis, cfg.Redis.KeyPrefix, cfg.Scheduler.LockTTL)
	}

	var indexer crawler.ArticleIndexer
	if cfg.Elasticsearch.Enabled {
		esClient, esErr := search.NewClient(cfg.Elasticsearch)
		if esErr != nil {
			_ = rt.Close()
			return nil, esErr
		}
		articleIndexer := search.NewIndexer(esClient, cfg.Elasticsearch.Index, deps.Logger)
		if ensureErr := articleIndexer.EnsureIndex(ctx); ensureErr != nil {
			deps.Logger.Warn("Search index unavailable, continuing without it", logger.Error(ensureErr))
		} else {
			indexer = articleIndexer
		}
	}

	var analyzer enrichment.Analyzer
	if cfg.Enrichment.Enabled {
		client := enrichment.NewAnthropicClient(cfg.Enrichment.APIKey, cfg.Enrichment.Model, cfg.Enrichment.MaxTokens)
		analyzer = enrichment.NewClaudeAnalyzer(client, cfg.Enrichment.Timeout)
	}

	rt.Crawler = NewSmartCrawler(cfg.Crawler, deps.Logger)
	rt.Service, err = crawler.NewService(crawler.ServiceParams{
		Store:        rt.Store,
		Crawler:      rt.Crawler,
		Index:        index,
		Analyzer:     analyzer,
		Indexer:      indexer,
		Notifier:     notifier,
		Metrics:      rt.Metrics,
		Logger:       deps.Logger,
		MaxFeedItems: cfg.Crawler.MaxFeedItems,
	})
	if err != nil {
		_ = rt.Close()
		return nil, err
	}

	return rt, nil
}

// Close releases backend connections in reverse order of creation.
func (r *Runtime) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	_ = r.Logger.Sync()
	return errors.Join(errs...)
}
