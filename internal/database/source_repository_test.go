package database_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/jonesrussell/north-cloud/aggregator/internal/database"
	"github.com/jonesrussell/north-cloud/aggregator/internal/domain"
)

var sourceColumns = []string{
	"id", "user_id", "name", "type", "url", "description", "is_active",
	"last_crawled_at", "crawl_interval", "created_at", "updated_at",
}

func TestSourceRepository_GetByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := database.NewSourceRepository(db)
	now := time.Now()

	mock.ExpectQuery("SELECT .+ FROM sources WHERE id").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(sourceColumns).AddRow(
			7, 3, "Example", "website", "https://example.com", nil, true, nil, 3600, now, now,
		))

	source, err := repo.GetByID(context.Background(), 7)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if source.ID != 7 || source.UserID != 3 {
		t.Errorf("unexpected ids: %+v", source)
	}
	if source.Type != domain.SourceTypeWebsite {
		t.Errorf("expected type website, got %s", source.Type)
	}
	if source.LastCrawledAt != nil {
		t.Errorf("expected nil LastCrawledAt, got %v", source.LastCrawledAt)
	}

	expectationsMet(t, mock)
}

func TestSourceRepository_GetByID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := database.NewSourceRepository(db)

	mock.ExpectQuery("SELECT .+ FROM sources WHERE id").
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 99)
	if !errors.Is(err, database.ErrSourceNotFound) {
		t.Fatalf("expected ErrSourceNotFound, got %v", err)
	}

	expectationsMet(t, mock)
}

func TestSourceRepository_UpdateLastCrawled(t *testing.T) {
	db, mock := newMockDB(t)
	repo := database.NewSourceRepository(db)
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectExec("UPDATE sources SET last_crawled_at").
		WithArgs(int64(7), at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpdateLastCrawled(context.Background(), 7, at); err != nil {
		t.Fatalf("UpdateLastCrawled() error = %v", err)
	}

	expectationsMet(t, mock)
}

func TestSourceRepository_UpdateLastCrawled_Missing(t *testing.T) {
	db, mock := newMockDB(t)
	repo := database.NewSourceRepository(db)

	mock.ExpectExec("UPDATE sources SET last_crawled_at").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateLastCrawled(context.Background(), 8, time.Now())
	if !errors.Is(err, database.ErrSourceNotFound) {
		t.Fatalf("expected ErrSourceNotFound, got %v", err)
	}

	expectationsMet(t, mock)
}

func TestSourceRepository_ListDue(t *testing.T) {
	db, mock := newMockDB(t)
	repo := database.NewSourceRepository(db)
	now := time.Now()
	earlier := now.Add(-2 * time.Hour)

	mock.ExpectQuery("SELECT .+ FROM sources\\s+WHERE is_active = TRUE").
		WithArgs(now).
		WillReturnRows(sqlmock.NewRows(sourceColumns).
			AddRow(1, 3, "New", "rss", "https://example.com/feed", nil, true, nil, 3600, now, now).
			AddRow(2, 3, "Old", "website", "https://example.com", nil, true, earlier, 3600, now, now))

	sources, err := repo.ListDue(context.Background(), now)
	if err != nil {
		t.Fatalf("ListDue() error = %v", err)
	}
	if len(sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(sources))
	}
	if sources[0].Type != domain.SourceTypeRSS {
		t.Errorf("expected rss first, got %s", sources[0].Type)
	}
	if sources[1].LastCrawledAt == nil || !sources[1].LastCrawledAt.Equal(earlier) {
		t.Errorf("unexpected LastCrawledAt %v", sources[1].LastCrawledAt)
	}

	expectationsMet(t, mock)
}
