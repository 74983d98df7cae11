package crawler_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonesrussell/north-cloud/aggregator/internal/crawler"
	"github.com/jonesrussell/north-cloud/aggregator/internal/domain"
	"github.com/jonesrussell/north-cloud/aggregator/internal/enrichment"
	"github.com/jonesrussell/north-cloud/aggregator/internal/extractor"
	"github.com/jonesrussell/north-cloud/aggregator/internal/fetcher"
	"github.com/jonesrussell/north-cloud/aggregator/internal/logger"
	"github.com/jonesrussell/north-cloud/aggregator/internal/notify"
	"github.com/jonesrussell/north-cloud/aggregator/internal/page"
)

// storyText keeps clear of the listing vocabulary the classifier looks for.
func storyText(n int) string {
	return strings.Repeat(fmt.Sprintf("Story %d covers the harbor festival in detail. ", n), 6)
}

func articleHTML(n int) string {
	return fmt.Sprintf(`<html><head><title>Harbor festival %[1]d</title></head><body>
<h1>Harbor festival %[1]d</h1>
<span class="byline">Ada Writer</span>
<time datetime="2024-03-01T10:00:00Z">March 1, 2024</time>
<article>
<p>%[2]s</p>
<p>%[2]s</p>
</article>
</body></html>`, n, storyText(n))
}

// listHTML renders a listing with one link per path plus an empty card so the layout
// always reads as a listing.
func listHTML(paths ...string) string {
	var b strings.Builder
	b.WriteString(`<html><head><title>Harbor news</title></head><body>`)
	for _, p := range paths {
		fmt.Fprintf(&b, `<div class="item"><h3><a href="%s">Headline</a></h3></div>`, p)
	}
	b.WriteString(`<div class="item">Sponsored</div><div class="item">Sponsored</div>`)
	b.WriteString(`<div class="item">Sponsored</div><div class="item">Sponsored</div>`)
	b.WriteString(`</body></html>`)
	return b.String()
}

func storyPaths(n int) []string {
	paths := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		paths = append(paths, fmt.Sprintf("/stories/%d", i))
	}
	return paths
}

// site serves articles at /stories/{n} plus the given static pages and routes.
type site struct {
	*httptest.Server

	mu      sync.Mutex
	hits    map[string]int
	onStory func(r *http.Request)
}

type route struct {
	pattern string
	handler http.HandlerFunc
}

func newSite(t *testing.T, pages map[string]string, routes ...route) *site {
	t.Helper()
	s := &site{hits: map[string]int{}}
	mux := http.NewServeMux()
	mux.HandleFunc("/stories/{n}", func(w http.ResponseWriter, r *http.Request) {
		s.record(r.URL.Path)
		s.mu.Lock()
		hook := s.onStory
		s.mu.Unlock()
		if hook != nil {
			hook(r)
		}
		var n int
		if _, err := fmt.Sscanf(r.PathValue("n"), "%d", &n); err != nil {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(articleHTML(n)))
	})
	for _, r := range routes {
		mux.HandleFunc(r.pattern, r.handler)
	}
	for path, body := range pages {
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			s.record(r.URL.Path)
			_, _ = w.Write([]byte(body))
		})
	}
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

func (s *site) record(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hits[path]++
}

func (s *site) storyHits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for path, n := range s.hits {
		if strings.HasPrefix(path, "/stories/") {
			total += n
		}
	}
	return total
}

func newSmartCrawler(timeout, delay time.Duration) *crawler.SmartCrawler {
	f := fetcher.New(fetcher.Config{RequestTimeout: timeout}, nil)
	return crawler.NewSmartCrawler(crawler.SmartCrawlerParams{
		Fetcher:    f,
		Classifier: page.NewClassifier(logger.NewNop()),
		Extractor:  extractor.New(f, extractor.Config{}),
		Delay:      delay,
		Logger:     logger.NewNop(),
	})
}

type fakeStore struct {
	mu          sync.Mutex
	sources     map[int64]*domain.Source
	settings    *domain.AccountSettings
	settingsErr error
	createErr   error
	panicOnGet  bool

	articles    []*domain.Article
	enrichments []*domain.Enrichment
	logs        []domain.CrawlLog
	lastCrawled map[int64]time.Time
	nextID      int64
}

func newFakeStore(sources ...*domain.Source) *fakeStore {
	s := &fakeStore{sources: map[int64]*domain.Source{}, lastCrawled: map[int64]time.Time{}}
	for _, src := range sources {
		s.sources[src.ID] = src
	}
	return s
}

var errNotFound = errors.New("source not found")

func (s *fakeStore) GetSource(_ context.Context, id int64) (*domain.Source, error) {
	if s.panicOnGet {
		panic("boom")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	src, ok := s.sources[id]
	if !ok {
		return nil, errNotFound
	}
	return src, nil
}

func (s *fakeStore) UpdateSourceLastCrawled(_ context.Context, id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastCrawled[id] = at
	return nil
}

func (s *fakeStore) FindArticleByFingerprint(_ context.Context, fingerprint string) (*domain.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.articles {
		if a.ContentHash == fingerprint {
			return a, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) CreateArticle(_ context.Context, a *domain.Article) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return 0, s.createErr
	}
	s.nextID++
	stored := *a
	stored.ID = s.nextID
	s.articles = append(s.articles, &stored)
	return s.nextID, nil
}

func (s *fakeStore) CreateEnrichment(_ context.Context, e *domain.Enrichment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enrichments = append(s.enrichments, e)
	return nil
}

func (s *fakeStore) AppendCrawlLog(_ context.Context, entry *domain.CrawlLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.ID = int64(len(s.logs) + 1)
	s.logs = append(s.logs, *entry)
	return nil
}

func (s *fakeStore) GetAccountSettings(_ context.Context, userID int64) (*domain.AccountSettings, error) {
	if s.settingsErr != nil {
		return nil, s.settingsErr
	}
	if s.settings != nil {
		return s.settings, nil
	}
	return domain.DefaultAccountSettings(userID), nil
}

func (s *fakeStore) crawlLogs() []domain.CrawlLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.CrawlLog(nil), s.logs...)
}

func (s *fakeStore) touched(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.lastCrawled[id]
	return ok
}

type fakeAnalyzer struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (a *fakeAnalyzer) Analyze(_ context.Context, title, _ string) (*enrichment.Analysis, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	if a.err != nil {
		return nil, a.err
	}
	return &enrichment.Analysis{
		Summary:   "Summary of " + title,
		KeyPoints: []string{"point"},
		Tags:      []string{"harbor"},
		Topic:     enrichment.TopicCulture,
	}, nil
}

type fakeNotifier struct {
	mu       sync.Mutex
	messages []notify.Message
	err      error
}

func (n *fakeNotifier) Notify(_ context.Context, msg notify.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, msg)
	return n.err
}

func (n *fakeNotifier) sent() []notify.Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notify.Message(nil), n.messages...)
}

type fakeIndexer struct {
	mu  sync.Mutex
	ids []int64
	err error
}

func (i *fakeIndexer) IndexArticle(_ context.Context, a *domain.Article) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.ids = append(i.ids, a.ID)
	return i.err
}
