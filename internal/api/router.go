package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jonesrussell/north-cloud/aggregator/internal/logger"
)

// RouterParams holds the router dependencies. A nil Gatherer disables /metrics.
type RouterParams struct {
	Handler  *CrawlHandler
	Gatherer prometheus.Gatherer
	Logger   logger.Logger
	Debug    bool
}

// SetupRouter creates and configures the Gin router with all routes.
func SetupRouter(p RouterParams) *gin.Engine {
	if p.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(p.Logger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if p.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(p.Gatherer, promhttp.HandlerOpts{})))
	}

	v1 := router.Group("/api/v1")
	v1.POST("/sources/:id/crawl", p.Handler.CrawlSource)
	v1.GET("/sources/:id/crawl-logs", p.Handler.ListSourceCrawlLogs)
	v1.GET("/crawl-logs", p.Handler.ListRecentCrawlLogs)
	v1.POST("/preview", p.Handler.Preview)

	return router
}

func loggingMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		log.Info("HTTP Request",
			logger.String("method", c.Request.Method),
			logger.String("path", path),
			logger.String("query", query),
			logger.Int("status", c.Writer.Status()),
			logger.Duration("latency", time.Since(start)),
		)
	}
}
