package memory

import (
	"context"
	"sync"

	"github.com/paperstack-labs/paperstack-cli/internal/core/domain"
	"github.com/paperstack-labs/paperstack-cli/internal/core/ports/driven"
)

// Ensure the stores implement their interfaces.
var (
	_ driven.SummaryStore    = (*SummaryStore)(nil)
	_ driven.QueryCacheStore = (*QueryCacheStore)(nil)
)

// SummaryStore is an in-memory implementation of driven.SummaryStore.
type SummaryStore struct {
	mu        sync.RWMutex
	summaries map[string]domain.Summary
}

// NewSummaryStore creates a new in-memory summary store.
func NewSummaryStore() *SummaryStore {
	return &SummaryStore{summaries: make(map[string]domain.Summary)}
}

func summaryKey(documentID string, kind domain.SummaryKind) string {
	return documentID + "/" + string(kind)
}

// InsertSummary stores a new summary, failing on (document, kind) conflict.
func (s *SummaryStore) InsertSummary(_ context.Context, summary *domain.Summary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := summaryKey(summary.DocumentID, summary.Kind)
	if _, ok := s.summaries[key]; ok {
		return domain.ErrAlreadyExists
	}
	s.summaries[key] = *summary
	return nil
}

// GetSummary retrieves the summary for (document, kind).
func (s *SummaryStore) GetSummary(_ context.Context, documentID string, kind domain.SummaryKind) (*domain.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	summary, ok := s.summaries[summaryKey(documentID, kind)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &summary, nil
}

// QueryCacheStore is an in-memory implementation of driven.QueryCacheStore.
type QueryCacheStore struct {
	mu      sync.RWMutex
	entries map[string]domain.QueryCacheEntry
}

// NewQueryCacheStore creates a new in-memory query cache store.
func NewQueryCacheStore() *QueryCacheStore {
	return &QueryCacheStore{entries: make(map[string]domain.QueryCacheEntry)}
}

// InsertEntry stores a new cache entry, failing on key conflict.
func (s *QueryCacheStore) InsertEntry(_ context.Context, entry *domain.QueryCacheEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[entry.Key]; ok {
		return domain.ErrAlreadyExists
	}
	s.entries[entry.Key] = *entry
	return nil
}

// GetEntry retrieves the entry for a normalized key.
func (s *QueryCacheStore) GetEntry(_ context.Context, key string) (*domain.QueryCacheEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &entry, nil
}
