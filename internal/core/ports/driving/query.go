package driving

import (
	"context"

	"github.com/paperstack-labs/paperstack-cli/internal/core/domain"
)

// QueryService answers natural-language questions from indexed
// documents.
type QueryService interface {
	// Ask runs the query pipeline: cache lookup, query embedding,
	// retrieval, context compression, generation, cache write.
	Ask(ctx context.Context, question string, opts AskOptions) (*domain.QueryResult, error)
}

// AskOptions configures one query.
type AskOptions struct {
	// TopK overrides the configured number of segments to retrieve
	// when positive.
	TopK int

	// DocumentID restricts retrieval to one document when non-empty.
	DocumentID string

	// SkipCompression bypasses the compression provider.
	SkipCompression bool
}

// RetrievalService ranks stored segments against a query vector.
// Read-only; no side effects.
type RetrievalService interface {
	// Retrieve returns the topK most similar segments to the vector,
	// optionally restricted to one document.
	Retrieve(ctx context.Context, vector []float32, topK int, documentID string) ([]domain.Match, error)
}
