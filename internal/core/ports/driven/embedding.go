package driven

import "context"

// EmbeddingRole selects provider-side optimization for a request.
// It does not change local batching or retry behaviour.
type EmbeddingRole string

// Embedding roles.
const (
	// RoleDocument marks texts being indexed.
	RoleDocument EmbeddingRole = "document"

	// RoleQuery marks a search query.
	RoleQuery EmbeddingRole = "query"
)

// EmbeddingProvider converts texts to fixed-dimension vectors via an
// external API. It is a raw capability: one request per call, no
// batching policy, no retries. The embedding orchestrator in
// core/services owns pacing, retry, and batch-to-single fallback.
//
// Error contract: rate-limit responses unwrap to domain.ErrRateLimited,
// timeouts and 5xx to domain.ErrTransient; anything else is permanent.
type EmbeddingProvider interface {
	// EmbedBatch embeds texts in one request and returns vectors in
	// input order.
	EmbedBatch(ctx context.Context, texts []string, role EmbeddingRole) ([][]float32, error)

	// Dimensions returns the vector size produced by the model
	// (e.g. 768, 3072). Stored segments whose embedding length differs
	// are excluded from retrieval.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string
}
