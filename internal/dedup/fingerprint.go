// Package dedup fingerprints article content and answers whether a fingerprint was
// seen before. Deduplication is global across sources and accounts.
package dedup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"

	"github.com/jonesrussell/north-cloud/aggregator/internal/domain"
)

// Fingerprint returns the hex SHA-256 of content with surrounding whitespace trimmed.
func Fingerprint(content string) string {
	h := sha256.Sum256([]byte(strings.TrimSpace(content)))
	return hex.EncodeToString(h[:])
}

// Index answers "has this fingerprint been persisted?".
type Index interface {
	Seen(ctx context.Context, fingerprint string) (bool, error)
	Remember(ctx context.Context, fingerprint string) error
}

// ArticleLookup finds a persisted article by fingerprint. A nil article means absent.
type ArticleLookup interface {
	FindArticleByFingerprint(ctx context.Context, fingerprint string) (*domain.Article, error)
}

// StoreIndex answers from the article store. The store is the source of truth, so
// Remember is a no-op.
type StoreIndex struct {
	lookup ArticleLookup
}

// NewStoreIndex creates a StoreIndex.
func NewStoreIndex(lookup ArticleLookup) *StoreIndex {
	return &StoreIndex{lookup: lookup}
}

// Seen reports whether an article with the fingerprint exists.
func (s *StoreIndex) Seen(ctx context.Context, fingerprint string) (bool, error) {
	article, err := s.lookup.FindArticleByFingerprint(ctx, fingerprint)
	if err != nil {
		return false, fmt.Errorf("lookup fingerprint: %w", err)
	}
	return article != nil, nil
}

// Remember is a no-op.
func (s *StoreIndex) Remember(context.Context, string) error {
	return nil
}

// MemoryIndex is an in-process index.
type MemoryIndex struct {
	mu   sync.RWMutex
	seen map[string]struct{}
}

// NewMemoryIndex creates an index pre-seeded with fingerprints.
func NewMemoryIndex(fingerprints ...string) *MemoryIndex {
	m := &MemoryIndex{seen: make(map[string]struct{}, len(fingerprints))}
	for _, fp := range fingerprints {
		m.seen[fp] = struct{}{}
	}
	return m
}

// Seen reports whether fingerprint was remembered.
func (m *MemoryIndex) Seen(_ context.Context, fingerprint string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.seen[fingerprint]
	return ok, nil
}

// Remember records fingerprint.
func (m *MemoryIndex) Remember(_ context.Context, fingerprint string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seen[fingerprint] = struct{}{}
	return nil
}

// Len returns the number of remembered fingerprints.
func (m *MemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.seen)
}
