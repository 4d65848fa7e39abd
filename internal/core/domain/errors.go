package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	// Stores return it on unique-constraint conflicts (document
	// fingerprint, summary key, query cache key); callers resolve it
	// by re-reading the winning row, never by surfacing the error.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	// Validation failures are never retried.
	ErrInvalidInput = errors.New("invalid input")

	// ErrRateLimited indicates a provider reported a rate-limit
	// condition. The embedding orchestrator reacts by lengthening its
	// inter-batch delay.
	ErrRateLimited = errors.New("rate limited")

	// ErrTransient marks a provider failure worth retrying
	// (timeout, connection error, 5xx). Adapters wrap the underlying
	// cause with %w so callers can test with errors.Is.
	ErrTransient = errors.New("transient provider failure")

	// ErrRejectedIngestion indicates the input could not be turned
	// into text (corrupt, encrypted, or empty after extraction).
	ErrRejectedIngestion = errors.New("ingestion rejected")

	// ErrEmbeddingFailed indicates a text still had no vector after
	// batch fallback and per-item retries.
	ErrEmbeddingFailed = errors.New("embedding failed")
)

// IsRetryable reports whether an error is worth another attempt.
// Rate-limit signals are retryable but are classified separately so
// callers can also adjust pacing.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransient) || errors.Is(err, ErrRateLimited)
}
