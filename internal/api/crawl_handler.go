package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/north-cloud/aggregator/internal/coordination"
	"github.com/jonesrussell/north-cloud/aggregator/internal/crawler"
	"github.com/jonesrussell/north-cloud/aggregator/internal/domain"
	"github.com/jonesrussell/north-cloud/aggregator/internal/logger"
)

const releaseTimeout = 5 * time.Second

// SourceCrawler runs a full crawl of one source.
type SourceCrawler interface {
	CrawlSource(ctx context.Context, sourceID int64) *domain.CrawlOutcome
}

// Previewer runs the smart pipeline on a URL without persisting anything.
type Previewer interface {
	Crawl(ctx context.Context, sourceURL string) (*domain.MultiArticleResult, error)
}

// CrawlLogReader reads crawl history.
type CrawlLogReader interface {
	ListCrawlLogs(ctx context.Context, sourceID int64, limit int) ([]*domain.CrawlLog, error)
	ListRecentCrawlLogs(ctx context.Context, limit int) ([]*domain.CrawlLog, error)
}

// CrawlHandler handles crawl-related HTTP requests.
type CrawlHandler struct {
	crawler   SourceCrawler
	previewer Previewer
	logs      CrawlLogReader
	locker    coordination.Locker
	log       logger.Logger
}

// NewCrawlHandler creates a new crawl handler.
func NewCrawlHandler(
	sourceCrawler SourceCrawler,
	previewer Previewer,
	logs CrawlLogReader,
	locker coordination.Locker,
	log logger.Logger,
) *CrawlHandler {
	if locker == nil {
		locker = coordination.NewLocalLocker()
	}
	return &CrawlHandler{
		crawler:   sourceCrawler,
		previewer: previewer,
		logs:      logs,
		locker:    locker,
		log:       log,
	}
}

// CrawlSource handles POST /api/v1/sources/:id/crawl
func (h *CrawlHandler) CrawlSource(c *gin.Context) {
	sourceID, ok := parseID(c, "id")
	if !ok {
		respondBadRequest(c, "invalid source id")
		return
	}

	ctx := c.Request.Context()
	release, err := h.locker.Acquire(ctx, sourceID)
	if errors.Is(err, coordination.ErrLockNotAcquired) {
		respondError(c, http.StatusConflict, "source is already being crawled")
		return
	}
	if err != nil {
		h.log.Error("Failed to lock source", logger.Int64("source_id", sourceID), logger.Error(err))
		respondInternalError(c, "failed to lock source")
		return
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
		defer cancel()
		if releaseErr := release(releaseCtx); releaseErr != nil {
			h.log.Warn("Failed to release source lock", logger.Int64("source_id", sourceID), logger.Error(releaseErr))
		}
	}()

	outcome := h.crawler.CrawlSource(ctx, sourceID)
	c.JSON(http.StatusOK, outcome)
}

// ListSourceCrawlLogs handles GET /api/v1/sources/:id/crawl-logs
func (h *CrawlHandler) ListSourceCrawlLogs(c *gin.Context) {
	sourceID, ok := parseID(c, "id")
	if !ok {
		respondBadRequest(c, "invalid source id")
		return
	}

	logs, err := h.logs.ListCrawlLogs(c.Request.Context(), sourceID, parseLimit(c, defaultLogLimit))
	if err != nil {
		h.log.Error("Failed to list crawl logs", logger.Int64("source_id", sourceID), logger.Error(err))
		respondInternalError(c, "failed to retrieve crawl logs")
		return
	}

	c.JSON(http.StatusOK, gin.H{"logs": logs, "total": len(logs)})
}

// ListRecentCrawlLogs handles GET /api/v1/crawl-logs
func (h *CrawlHandler) ListRecentCrawlLogs(c *gin.Context) {
	logs, err := h.logs.ListRecentCrawlLogs(c.Request.Context(), parseLimit(c, defaultLogLimit))
	if err != nil {
		h.log.Error("Failed to list recent crawl logs", logger.Error(err))
		respondInternalError(c, "failed to retrieve crawl logs")
		return
	}

	c.JSON(http.StatusOK, gin.H{"logs": logs, "total": len(logs)})
}

type previewRequest struct {
	URL string `binding:"required,url" json:"url"`
}

// Preview handles POST /api/v1/preview
func (h *CrawlHandler) Preview(c *gin.Context) {
	var req previewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "a valid url is required")
		return
	}

	result, err := h.previewer.Crawl(c.Request.Context(), req.URL)
	var fetchErr *crawler.FetchError
	switch {
	case errors.As(err, &fetchErr):
		respondError(c, http.StatusBadGateway, fetchErr.Error())
		return
	case err != nil:
		h.log.Warn("Preview failed", logger.String("url", req.URL), logger.Error(err))
		respondInternalError(c, "preview failed")
		return
	}

	c.JSON(http.StatusOK, result)
}
