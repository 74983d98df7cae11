// Package scheduler periodically crawls sources that are due.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/time/rate"

	"github.com/jonesrussell/north-cloud/aggregator/internal/coordination"
	"github.com/jonesrussell/north-cloud/aggregator/internal/domain"
	"github.com/jonesrussell/north-cloud/aggregator/internal/logger"
	"github.com/jonesrussell/north-cloud/aggregator/internal/metrics"
)

const (
	// DefaultSpec checks for due sources every minute.
	DefaultSpec = "@every 1m"

	releaseTimeout = 5 * time.Second
)

// SourceLister lists sources whose crawl interval has elapsed.
type SourceLister interface {
	ListDueSources(ctx context.Context, now time.Time) ([]*domain.Source, error)
}

// SourceCrawler crawls one source.
type SourceCrawler interface {
	CrawlSource(ctx context.Context, sourceID int64) *domain.CrawlOutcome
}

// Params holds the Scheduler dependencies.
type Params struct {
	Lister  SourceLister
	Crawler SourceCrawler
	Locker  coordination.Locker
	Metrics *metrics.Metrics
	Logger  logger.Logger
	// Spec is a cron expression or descriptor such as "@every 5m".
	Spec string
	// DispatchInterval is the minimum gap between two crawl starts. Zero disables pacing.
	DispatchInterval time.Duration
}

// Scheduler runs due-source sweeps on a cron schedule, one source at a time.
type Scheduler struct {
	lister  SourceLister
	crawler SourceCrawler
	locker  coordination.Locker
	metrics *metrics.Metrics
	log     logger.Logger
	limiter *rate.Limiter
	spec    string
	cron    *cron.Cron

	sweeping atomic.Bool
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// New creates a Scheduler.
func New(p Params) (*Scheduler, error) {
	if p.Lister == nil || p.Crawler == nil {
		return nil, errors.New("scheduler requires a source lister and a crawler")
	}

	spec := p.Spec
	if spec == "" {
		spec = DefaultSpec
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(spec); err != nil {
		return nil, fmt.Errorf("failed to parse schedule %q: %w", spec, err)
	}

	locker := p.Locker
	if locker == nil {
		locker = coordination.NewLocalLocker()
	}
	log := p.Logger
	if log == nil {
		log = logger.NewNop()
	}

	limit := rate.Inf
	if p.DispatchInterval > 0 {
		limit = rate.Every(p.DispatchInterval)
	}

	return &Scheduler{
		lister:  p.Lister,
		crawler: p.Crawler,
		locker:  locker,
		metrics: p.Metrics,
		log:     log,
		limiter: rate.NewLimiter(limit, 1),
		spec:    spec,
		cron:    cron.New(cron.WithParser(parser), cron.WithChain(cron.Recover(cron.DefaultLogger))),
	}, nil
}

// Start registers the sweep and starts the cron runner. Sweeps stop when ctx is done or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)

	if _, err := s.cron.AddFunc(s.spec, s.tick); err != nil {
		s.cancel()
		return fmt.Errorf("failed to schedule sweep: %w", err)
	}
	s.cron.Start()
	s.log.Info("Scheduler started", logger.String("spec", s.spec))
	return nil
}

// Stop cancels any running sweep and waits for it to finish.
func (s *Scheduler) Stop() {
	s.log.Info("Stopping scheduler")
	if s.cancel != nil {
		s.cancel()
	}
	<-s.cron.Stop().Done()
	s.wg.Wait()
	s.log.Info("Scheduler stopped")
}

// tick skips when the previous sweep is still running.
func (s *Scheduler) tick() {
	if !s.sweeping.CompareAndSwap(false, true) {
		s.log.Debug("Previous sweep still running, skipping tick")
		return
	}
	s.wg.Add(1)
	defer func() {
		s.sweeping.Store(false)
		s.wg.Done()
	}()

	if _, err := s.RunOnce(s.ctx); err != nil && !errors.Is(err, context.Canceled) {
		s.log.Error("Sweep failed", logger.Error(err))
	}
}

// RunOnce crawls every due source sequentially and returns how many crawls ran.
// Sources locked by another crawl are skipped.
func (s *Scheduler) RunOnce(ctx context.Context) (int, error) {
	sources, err := s.lister.ListDueSources(ctx, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to list due sources: %w", err)
	}
	if len(sources) == 0 {
		return 0, nil
	}

	s.log.Info("Dispatching due sources", logger.Int("count", len(sources)))

	crawled := 0
	for _, source := range sources {
		if waitErr := s.limiter.Wait(ctx); waitErr != nil {
			return crawled, waitErr
		}
		if s.dispatch(ctx, source) {
			crawled++
		}
	}
	return crawled, nil
}

func (s *Scheduler) dispatch(ctx context.Context, source *domain.Source) bool {
	release, err := s.locker.Acquire(ctx, source.ID)
	if errors.Is(err, coordination.ErrLockNotAcquired) {
		s.metrics.ObserveDispatch(metrics.DispatchLocked)
		s.log.Info("Source already being crawled, skipping", logger.Int64("source_id", source.ID))
		return false
	}
	if err != nil {
		s.metrics.ObserveDispatch(metrics.DispatchError)
		s.log.Error("Failed to lock source", logger.Int64("source_id", source.ID), logger.Error(err))
		return false
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
		defer cancel()
		if releaseErr := release(releaseCtx); releaseErr != nil {
			s.log.Warn("Failed to release source lock", logger.Int64("source_id", source.ID), logger.Error(releaseErr))
		}
	}()

	s.metrics.ObserveDispatch(metrics.DispatchStarted)
	outcome := s.crawler.CrawlSource(ctx, source.ID)
	if outcome != nil {
		s.log.Info("Scheduled crawl finished",
			logger.Int64("source_id", source.ID),
			logger.String("status", string(outcome.Log.Status)),
			logger.Int("articles_added", outcome.Log.ArticlesAdded),
		)
	}
	return true
}
