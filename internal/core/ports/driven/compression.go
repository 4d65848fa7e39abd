package driven

import "context"

// CompressionProvider reduces retrieved context to roughly
// targetRate of its original size while preserving the information
// needed to answer the query.
//
// Compression is strictly best-effort: implementations return the
// input unchanged on any provider failure (network, non-success
// status, malformed response, timeout) and only return an error when
// the context is cancelled. The query pipeline must never fail or
// block because of compression.
type CompressionProvider interface {
	// Compress returns a condensed version of contextText relevant to
	// queryText, or contextText unchanged if the provider fails.
	Compress(ctx context.Context, contextText, queryText string, targetRate float64) (string, error)
}
