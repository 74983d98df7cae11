package dedup_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/aggregator/internal/dedup"
	"github.com/jonesrussell/north-cloud/aggregator/internal/domain"
)

func TestFingerprint_TrimmedContentOnly(t *testing.T) {
	t.Parallel()

	a := domain.ArticleContent{Title: "A", URL: "https://a.example/1", Content: "Same body text"}
	b := domain.ArticleContent{Title: "B", URL: "https://b.example/2", Content: "  Same body text\n"}

	assert.Equal(t, dedup.Fingerprint(a.Content), dedup.Fingerprint(b.Content))
	assert.NotEqual(t, dedup.Fingerprint("Same body text"), dedup.Fingerprint("Same  body text"))
	assert.Len(t, dedup.Fingerprint("x"), 64)
}

func TestFingerprint_Deterministic(t *testing.T) {
	t.Parallel()

	// sha256("hello")
	assert.Equal(t,
		"2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824",
		dedup.Fingerprint(" hello "),
	)
}

type fakeLookup struct {
	articles map[string]*domain.Article
	err      error
}

func (f *fakeLookup) FindArticleByFingerprint(_ context.Context, fp string) (*domain.Article, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.articles[fp], nil
}

func TestStoreIndex(t *testing.T) {
	t.Parallel()

	lookup := &fakeLookup{articles: map[string]*domain.Article{"known": {ID: 1}}}
	idx := dedup.NewStoreIndex(lookup)

	seen, err := idx.Seen(context.Background(), "known")
	require.NoError(t, err)
	assert.True(t, seen)

	seen, err = idx.Seen(context.Background(), "unknown")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, idx.Remember(context.Background(), "unknown"))
}

func TestStoreIndex_LookupError(t *testing.T) {
	t.Parallel()

	idx := dedup.NewStoreIndex(&fakeLookup{err: errors.New("db down")})
	_, err := idx.Seen(context.Background(), "x")
	assert.ErrorContains(t, err, "db down")
}

func TestMemoryIndex(t *testing.T) {
	t.Parallel()

	idx := dedup.NewMemoryIndex("a")
	ctx := context.Background()

	seen, _ := idx.Seen(ctx, "a")
	assert.True(t, seen)
	seen, _ = idx.Seen(ctx, "b")
	assert.False(t, seen)

	require.NoError(t, idx.Remember(ctx, "b"))
	seen, _ = idx.Seen(ctx, "b")
	assert.True(t, seen)
	assert.Equal(t, 2, idx.Len())
}
