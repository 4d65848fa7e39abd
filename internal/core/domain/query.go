package domain

import (
	"strings"
	"time"
)

// Confidence is a coarse, advisory quality signal attached to a
// generated answer. It is a heuristic, not a probability.
type Confidence string

// Confidence levels.
const (
	ConfidenceHigh     Confidence = "high"
	ConfidenceMedium   Confidence = "medium"
	ConfidenceNotFound Confidence = "not_found"
)

// Answer is the output of the generation provider for a question.
type Answer struct {
	// Text is the generated answer.
	Text string

	// Confidence is derived from the answer content (presence of
	// "not found" or hedging phrases).
	Confidence Confidence
}

// Citation points at one segment that grounded an answer.
type Citation struct {
	// DocumentID is the cited document.
	DocumentID string

	// DocumentTitle is the document's display title.
	DocumentTitle string

	// Ordinal is the cited segment's position within the document.
	Ordinal int

	// Score is the retrieval similarity of the cited segment.
	Score float64
}

// QueryResult is the outcome of a full query pipeline run.
type QueryResult struct {
	// Question is the original question text.
	Question string

	// Answer is the generated answer text.
	Answer string

	// Confidence is the advisory confidence level.
	Confidence Confidence

	// Citations lists the segments the answer was grounded on,
	// in retrieval order.
	Citations []Citation

	// Cached reports whether the result was served from the query cache.
	Cached bool

	// CreatedAt is when the answer was first generated.
	CreatedAt time.Time
}

// QueryCacheEntry is one memoized query pipeline result.
// Entries are append-only: a key is written once and never mutated.
type QueryCacheEntry struct {
	// ID is the unique identifier for the entry.
	ID string

	// Key is the normalized question text the entry is stored under.
	Key string

	// Question is the original, unnormalized question.
	Question string

	// Embedding is the query vector used for retrieval.
	Embedding []float32

	// Answer is the generated answer text.
	Answer string

	// Confidence is the advisory confidence level.
	Confidence Confidence

	// Citations lists the grounding segments in retrieval order.
	Citations []Citation

	// CreatedAt is when the entry was written.
	CreatedAt time.Time
}

// NormalizeQuery derives the deterministic cache key for a question:
// lower-cased with all whitespace runs collapsed to single spaces.
// Exact-text matching is deliberate; fuzzy (embedding-similarity) reuse
// risks returning a stale answer for a materially different question.
func NormalizeQuery(question string) string {
	return strings.ToLower(strings.Join(strings.Fields(question), " "))
}
