package services

import (
	"context"
	"fmt"

	"github.com/paperstack-labs/paperstack-cli/internal/core/domain"
	"github.com/paperstack-labs/paperstack-cli/internal/core/ports/driven"
	"github.com/paperstack-labs/paperstack-cli/internal/core/ports/driving"
	"github.com/paperstack-labs/paperstack-cli/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

// RetrievalService ranks stored segments against a query vector.
// Ranking itself happens in the store (the vector side of the
// persistence layer); this service validates input and keeps the
// contract of exactly min(topK, candidates) ordered results.
type RetrievalService struct {
	store driven.DocumentStore
}

// NewRetrievalService creates a retrieval service.
func NewRetrievalService(store driven.DocumentStore) *RetrievalService {
	return &RetrievalService{store: store}
}

// Retrieve returns the topK segments most similar to vector by cosine
// similarity, ordered by descending score with (document ID, ordinal)
// tie-breaks. Pure read; no side effects.
func (s *RetrievalService) Retrieve(ctx context.Context, vector []float32, topK int, documentID string) ([]domain.Match, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("%w: top-k must be positive, got %d", domain.ErrInvalidInput, topK)
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: empty query vector", domain.ErrInvalidInput)
	}

	matches, err := s.store.SearchSimilar(ctx, vector, topK, documentID)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}

	logger.Debug("Retrieved %d segments (top-k %d, filter %q)", len(matches), topK, documentID)
	return matches, nil
}
