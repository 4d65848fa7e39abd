package domain

import "time"

// Document represents one ingested source document.
// Identity for deduplication purposes is the content fingerprint,
// not the ID: ingesting the same bytes twice must resolve to the
// same Document row.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Fingerprint is the hex-encoded SHA-256 of the raw input bytes.
	// It is unique across all documents.
	Fingerprint string

	// Title is the human-readable title shown in citations.
	Title string

	// Filename is the original file name at ingestion time.
	Filename string

	// CreatedAt is when the document was first ingested.
	CreatedAt time.Time
}

// Segment is one contiguous, token-bounded slice of a document's text.
// Segments overlap their neighbours and are immutable after ingestion.
type Segment struct {
	// ID is the unique identifier for the segment.
	ID string

	// DocumentID links to the owning Document.
	DocumentID string

	// Ordinal is the 0-based position within the document, assigned
	// densely at chunking. Stored ordinals are strictly increasing but
	// may have gaps: segments whose embedding failed are excluded from
	// storage, and their ordinals are reported to the ingestion caller.
	Ordinal int

	// Content is the decoded text of the segment.
	Content string

	// TokenCount is the number of tokens in Content.
	TokenCount int

	// Embedding is the vector representation. A segment whose embedding
	// length does not match the query dimensionality is excluded
	// from retrieval.
	Embedding []float32
}

// Match is a retrieval hit: a segment together with the metadata
// needed to cite it without a second lookup.
type Match struct {
	Segment Segment

	// DocumentTitle is the owning document's display title.
	DocumentTitle string

	// Score is the cosine similarity to the query vector.
	Score float64
}
