package driven

import (
	"context"

	"github.com/paperstack-labs/paperstack-cli/internal/core/domain"
)

// DocumentStore persists documents and their segments and answers
// similarity queries over segment embeddings.
//
// Insert operations are conditional: a unique-key conflict returns
// domain.ErrAlreadyExists and the caller re-reads the winning row.
// That, not an in-process lock, is how concurrent duplicates are
// collapsed; the store may be shared across process instances.
type DocumentStore interface {
	// InsertDocument stores a new document. Returns
	// domain.ErrAlreadyExists if a document with the same fingerprint
	// exists.
	InsertDocument(ctx context.Context, doc *domain.Document) error

	// GetDocument retrieves a document by ID.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// GetDocumentByFingerprint retrieves a document by content
	// fingerprint.
	GetDocumentByFingerprint(ctx context.Context, fingerprint string) (*domain.Document, error)

	// ListDocuments returns all documents, newest first.
	ListDocuments(ctx context.Context) ([]domain.Document, error)

	// DeleteDocument removes a document. Its segments and summaries
	// go with it.
	DeleteDocument(ctx context.Context, id string) error

	// InsertSegments bulk-inserts the segments of one document
	// atomically.
	InsertSegments(ctx context.Context, segments []domain.Segment) error

	// GetSegments returns a document's segments in ordinal order.
	GetSegments(ctx context.Context, documentID string) ([]domain.Segment, error)

	// SearchSimilar ranks stored segments against the query vector by
	// cosine similarity and returns the top k. Candidates are
	// restricted to documentID when non-empty, and to segments whose
	// embedding length matches the query vector. Ordering is
	// descending similarity, ties broken by (document ID, ordinal)
	// ascending.
	SearchSimilar(ctx context.Context, vector []float32, topK int, documentID string) ([]domain.Match, error)
}

// SummaryStore memoizes generated summaries per (document, kind).
type SummaryStore interface {
	// InsertSummary stores a new summary. Returns
	// domain.ErrAlreadyExists if one exists for the same
	// (document, kind).
	InsertSummary(ctx context.Context, summary *domain.Summary) error

	// GetSummary retrieves the summary for (document, kind).
	GetSummary(ctx context.Context, documentID string, kind domain.SummaryKind) (*domain.Summary, error)
}

// QueryCacheStore memoizes full query pipeline results keyed by
// normalized question text. Entries are write-once.
type QueryCacheStore interface {
	// InsertEntry stores a new cache entry. Returns
	// domain.ErrAlreadyExists if the key is taken.
	InsertEntry(ctx context.Context, entry *domain.QueryCacheEntry) error

	// GetEntry retrieves the entry for a normalized key.
	GetEntry(ctx context.Context, key string) (*domain.QueryCacheEntry, error)
}
