// Package metrics defines the Prometheus metrics exported by the aggregator.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Namespace is the namespace for all aggregator metrics.
	Namespace = "aggregator"

	crawlSubsystem     = "crawl"
	schedulerSubsystem = "scheduler"
)

// Dispatch outcomes recorded by the scheduler.
const (
	DispatchStarted = "started"
	DispatchLocked  = "locked"
	DispatchError   = "error"
)

// Metrics holds the crawl pipeline metrics. A nil *Metrics records nothing.
type Metrics struct {
	CrawlsTotal          *prometheus.CounterVec
	CrawlDurationSeconds prometheus.Histogram
	CrawlsRunning        prometheus.Gauge
	ArticlesFoundTotal   prometheus.Counter
	ArticlesAddedTotal   prometheus.Counter
	DuplicatesTotal      prometheus.Counter
	PagesClassifiedTotal *prometheus.CounterVec
	EnrichmentFallbacks  prometheus.Counter

	DispatchesTotal *prometheus.CounterVec
}

// New creates and registers the metrics on reg, or on the default registerer when reg is nil.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)
	m := &Metrics{}
	m.initCrawlMetrics(factory)
	m.initSchedulerMetrics(factory)
	return m
}

func (m *Metrics) initCrawlMetrics(factory promauto.Factory) {
	m.CrawlsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: crawlSubsystem,
			Name:      "runs_total",
			Help:      "Total number of source crawls by final status",
		},
		[]string{"status"},
	)

	m.CrawlDurationSeconds = factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: crawlSubsystem,
			Name:      "duration_seconds",
			Help:      "Duration of source crawls in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 12), // 0.25s to ~8.5min
		},
	)

	m.CrawlsRunning = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: crawlSubsystem,
			Name:      "running",
			Help:      "Number of source crawls in progress",
		},
	)

	m.ArticlesFoundTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: crawlSubsystem,
			Name:      "articles_found_total",
			Help:      "Articles extracted across all crawls",
		},
	)

	m.ArticlesAddedTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: crawlSubsystem,
			Name:      "articles_added_total",
			Help:      "New articles persisted across all crawls",
		},
	)

	m.DuplicatesTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: crawlSubsystem,
			Name:      "duplicates_total",
			Help:      "Extracted articles skipped because their fingerprint was already known",
		},
	)

	m.PagesClassifiedTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: crawlSubsystem,
			Name:      "pages_classified_total",
			Help:      "Entry pages classified by page type",
		},
		[]string{"page_type"},
	)

	m.EnrichmentFallbacks = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: crawlSubsystem,
			Name:      "enrichment_fallbacks_total",
			Help:      "Articles that received the default analysis after an enrichment failure",
		},
	)
}

func (m *Metrics) initSchedulerMetrics(factory promauto.Factory) {
	m.DispatchesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: schedulerSubsystem,
			Name:      "dispatches_total",
			Help:      "Scheduled crawl dispatches by outcome",
		},
		[]string{"outcome"},
	)
}

// CrawlStarted marks a crawl as running.
func (m *Metrics) CrawlStarted() {
	if m == nil {
		return
	}
	m.CrawlsRunning.Inc()
}

// ObserveCrawl records a finished crawl.
func (m *Metrics) ObserveCrawl(status string, found, added, duplicates int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.CrawlsRunning.Dec()
	m.CrawlsTotal.WithLabelValues(status).Inc()
	m.CrawlDurationSeconds.Observe(elapsed.Seconds())
	m.ArticlesFoundTotal.Add(float64(found))
	m.ArticlesAddedTotal.Add(float64(added))
	m.DuplicatesTotal.Add(float64(duplicates))
}

// ObservePage records an entry page classification.
func (m *Metrics) ObservePage(pageType string) {
	if m == nil {
		return
	}
	m.PagesClassifiedTotal.WithLabelValues(pageType).Inc()
}

// EnrichmentFellBack records a default analysis.
func (m *Metrics) EnrichmentFellBack() {
	if m == nil {
		return
	}
	m.EnrichmentFallbacks.Inc()
}

// ObserveDispatch records a scheduler dispatch outcome.
func (m *Metrics) ObserveDispatch(outcome string) {
	if m == nil {
		return
	}
	m.DispatchesTotal.WithLabelValues(outcome).Inc()
}
