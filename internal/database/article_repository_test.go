package database_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/jonesrussell/north-cloud/aggregator/internal/database"
	"github.com/jonesrussell/north-cloud/aggregator/internal/domain"
)

var articleColumns = []string{
	"id", "source_id", "user_id", "page_type", "title", "author", "original_url",
	"content_text", "content_hash", "published_at", "crawled_at", "status", "is_favorite",
}

func TestArticleRepository_FindByContentHash(t *testing.T) {
	db, mock := newMockDB(t)
	repo := database.NewArticleRepository(db)
	now := time.Now()

	mock.ExpectQuery("SELECT .+ FROM articles WHERE content_hash").
		WithArgs("abc").
		WillReturnRows(sqlmock.NewRows(articleColumns).AddRow(
			11, 7, 3, "article", "Title", "Jane", "https://example.com/a",
			"body", "abc", nil, now, "unread", false,
		))

	article, err := repo.FindByContentHash(context.Background(), "abc")
	if err != nil {
		t.Fatalf("FindByContentHash() error = %v", err)
	}
	if article == nil || article.ID != 11 {
		t.Fatalf("expected article 11, got %+v", article)
	}
	if article.Author == nil || *article.Author != "Jane" {
		t.Errorf("unexpected author %v", article.Author)
	}

	expectationsMet(t, mock)
}

func TestArticleRepository_FindByContentHash_Absent(t *testing.T) {
	db, mock := newMockDB(t)
	repo := database.NewArticleRepository(db)

	mock.ExpectQuery("SELECT .+ FROM articles WHERE content_hash").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	article, err := repo.FindByContentHash(context.Background(), "missing")
	if err != nil {
		t.Fatalf("FindByContentHash() error = %v", err)
	}
	if article != nil {
		t.Errorf("expected nil article, got %+v", article)
	}

	expectationsMet(t, mock)
}

func TestArticleRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := database.NewArticleRepository(db)
	crawledAt := time.Now()

	a := &domain.Article{
		SourceID:    7,
		UserID:      3,
		PageType:    domain.PageTypeArticle,
		Title:       "Title",
		OriginalURL: "https://example.com/a",
		ContentText: "body",
		ContentHash: "abc",
		CrawledAt:   crawledAt,
		Status:      domain.ArticleStatusUnread,
	}

	mock.ExpectQuery("INSERT INTO articles").
		WithArgs(int64(7), int64(3), domain.PageTypeArticle, "Title", nil, "https://example.com/a",
			"body", "abc", nil, crawledAt, domain.ArticleStatusUnread, false).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))

	id, err := repo.Create(context.Background(), a)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if id != 42 || a.ID != 42 {
		t.Errorf("expected id 42, got %d / %d", id, a.ID)
	}

	expectationsMet(t, mock)
}
