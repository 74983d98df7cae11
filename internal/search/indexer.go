package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	es "github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/jonesrussell/north-cloud/aggregator/internal/domain"
	"github.com/jonesrussell/north-cloud/aggregator/internal/logger"
)

// DefaultIndexTimeout bounds a single index request.
const DefaultIndexTimeout = 10 * time.Second

var errClientNotInitialized = errors.New("elasticsearch client is not initialized")

const articleMapping = `{
  "mappings": {
    "properties": {
      "source_id":    {"type": "long"},
      "user_id":      {"type": "long"},
      "page_type":    {"type": "keyword"},
      "title":        {"type": "text"},
      "author":       {"type": "keyword"},
      "url":          {"type": "keyword"},
      "content":      {"type": "text"},
      "content_hash": {"type": "keyword"},
      "published_at": {"type": "date"},
      "crawled_at":   {"type": "date"}
    }
  }
}`

// Document is the indexed form of an article.
type Document struct {
	SourceID    int64      `json:"source_id"`
	UserID      int64      `json:"user_id"`
	PageType    string     `json:"page_type"`
	Title       string     `json:"title"`
	Author      string     `json:"author,omitempty"`
	URL         string     `json:"url"`
	Content     string     `json:"content"`
	ContentHash string     `json:"content_hash"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	CrawledAt   time.Time  `json:"crawled_at"`
}

// NewDocument builds the indexed form of a stored article.
func NewDocument(a *domain.Article) Document {
	doc := Document{
		SourceID:    a.SourceID,
		UserID:      a.UserID,
		PageType:    string(a.PageType),
		Title:       a.Title,
		URL:         a.OriginalURL,
		Content:     a.ContentText,
		ContentHash: a.ContentHash,
		PublishedAt: a.PublishedAt,
		CrawledAt:   a.CrawledAt,
	}
	if a.Author != nil {
		doc.Author = *a.Author
	}
	return doc
}

// Indexer writes articles to one Elasticsearch index.
type Indexer struct {
	client *es.Client
	index  string
	log    logger.Logger
}

// NewIndexer creates an Indexer.
func NewIndexer(client *es.Client, index string, log logger.Logger) *Indexer {
	return &Indexer{client: client, index: index, log: log}
}

// EnsureIndex creates the article index with its mapping when missing.
func (i *Indexer) EnsureIndex(ctx context.Context) error {
	if i.client == nil {
		return errClientNotInitialized
	}

	res, err := i.client.Indices.Exists([]string{i.index}, i.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to check index existence: %w", err)
	}
	i.closeResponse(res)

	if res.StatusCode == http.StatusOK {
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("unexpected status checking index %s: %d", i.index, res.StatusCode)
	}

	res, err = i.client.Indices.Create(
		i.index,
		i.client.Indices.Create.WithContext(ctx),
		i.client.Indices.Create.WithBody(strings.NewReader(articleMapping)),
	)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	defer i.closeResponse(res)

	if res.IsError() {
		return fmt.Errorf("error creating index %s: %s", i.index, res.String())
	}

	i.log.Info("Created search index", logger.String("index", i.index))
	return nil
}

// IndexArticle indexes a stored article under its database ID.
func (i *Indexer) IndexArticle(ctx context.Context, a *domain.Article) error {
	if i.client == nil {
		return errClientNotInitialized
	}

	ctx, cancel := context.WithTimeout(ctx, DefaultIndexTimeout)
	defer cancel()

	body, err := json.Marshal(NewDocument(a))
	if err != nil {
		return fmt.Errorf("failed to marshal article for indexing: %w", err)
	}

	docID := strconv.FormatInt(a.ID, 10)
	res, err := i.client.Index(
		i.index,
		bytes.NewReader(body),
		i.client.Index.WithContext(ctx),
		i.client.Index.WithDocumentID(docID),
	)
	if err != nil {
		return fmt.Errorf("failed to index article: %w", err)
	}
	defer i.closeResponse(res)

	if res.IsError() {
		return fmt.Errorf("elasticsearch error: %s", res.String())
	}

	i.log.Debug("Article indexed",
		logger.String("index", i.index),
		logger.String("doc_id", docID),
		logger.String("url", a.OriginalURL),
	)
	return nil
}

func (i *Indexer) closeResponse(res *esapi.Response) {
	if closeErr := res.Body.Close(); closeErr != nil {
		i.log.Error("Failed to close response body",
			logger.Error(closeErr),
			logger.String("index", i.index),
		)
	}
}
