package driving

import (
	"context"

	"github.com/paperstack-labs/paperstack-cli/internal/core/domain"
)

// SummaryService generates and memoizes document summaries.
type SummaryService interface {
	// Summarize returns the summary for (documentID, kind), generating
	// it on first request. Concurrent requests for the same key
	// resolve to a single generation.
	Summarize(ctx context.Context, documentID string, kind domain.SummaryKind) (*domain.Summary, error)
}

// DocumentService exposes document management to external actors.
type DocumentService interface {
	// List returns all ingested documents, newest first.
	List(ctx context.Context) ([]domain.Document, error)

	// Get retrieves one document.
	Get(ctx context.Context, id string) (*domain.Document, error)

	// Delete removes a document, its segments, and its summaries.
	Delete(ctx context.Context, id string) error
}
