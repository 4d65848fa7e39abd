package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/paperstack-labs/paperstack-cli/internal/core/domain"
	"github.com/paperstack-labs/paperstack-cli/internal/core/ports/driven"
	"github.com/paperstack-labs/paperstack-cli/internal/core/ports/driving"
	"github.com/paperstack-labs/paperstack-cli/internal/logger"
)

// DefaultTopK is the default number of segments retrieved per query.
const DefaultTopK = 5

// DefaultCompressionRate is the default target compression
// (0.5 = roughly half the original size).
const DefaultCompressionRate = 0.5

// segmentSeparator joins retrieved segments into one context block.
const segmentSeparator = "\n\n---\n\n"

// Ensure QueryService implements the interface.
var _ driving.QueryService = (*QueryService)(nil)

// QueryService runs the query pipeline: cache lookup, query embedding,
// retrieval, best-effort context compression, grounded generation, and
// a write-once cache insert. A cache entry is persisted only after the
// whole pipeline has succeeded, so an aborted query never leaves a
// partial entry behind.
type QueryService struct {
	cache       driven.QueryCacheStore
	embedder    *Embedder
	retrieval   driving.RetrievalService
	compressor  driven.CompressionProvider
	generator   *Generator
	topK        int
	compression float64
}

// QueryOption configures a QueryService.
type QueryOption func(*QueryService)

// WithTopK sets the default retrieval depth.
func WithTopK(k int) QueryOption {
	return func(s *QueryService) {
		if k > 0 {
			s.topK = k
		}
	}
}

// WithCompressionRate sets the target compression rate.
func WithCompressionRate(rate float64) QueryOption {
	return func(s *QueryService) {
		if rate > 0 && rate < 1 {
			s.compression = rate
		}
	}
}

// NewQueryService creates a query service. compressor may be nil to
// disable compression entirely.
func NewQueryService(
	cache driven.QueryCacheStore,
	embedder *Embedder,
	retrieval driving.RetrievalService,
	compressor driven.CompressionProvider,
	generator *Generator,
	opts ...QueryOption,
) *QueryService {
	s := &QueryService{
		cache:       cache,
		embedder:    embedder,
		retrieval:   retrieval,
		compressor:  compressor,
		generator:   generator,
		topK:        DefaultTopK,
		compression: DefaultCompressionRate,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ask answers a question from the indexed documents.
func (s *QueryService) Ask(ctx context.Context, question string, opts driving.AskOptions) (*domain.QueryResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question must not be empty", domain.ErrInvalidInput)
	}

	key := domain.NormalizeQuery(question)

	logger.Section("Query")
	logger.Debug("Question: %q (key %q)", question, key)

	// Cache lookup is a pure function of the normalized key.
	if entry, err := s.cache.GetEntry(ctx, key); err == nil {
		logger.Info("Query cache hit")
		return resultFromEntry(entry, question, true), nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("query cache lookup: %w", err)
	}

	vector, err := s.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	topK := s.topK
	if opts.TopK > 0 {
		topK = opts.TopK
	}

	matches, err := s.retrieval.Retrieve(ctx, vector, topK, opts.DocumentID)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: no indexed segments to answer from", domain.ErrNotFound)
	}

	contextText := joinSegments(matches)

	if s.compressor != nil && !opts.SkipCompression {
		compressed, err := s.compressor.Compress(ctx, contextText, question, s.compression)
		if err != nil {
			// Only context cancellation reaches here; provider
			// failures already degraded to pass-through inside the
			// adapter.
			return nil, fmt.Errorf("compress context: %w", err)
		}
		if len(compressed) > 0 && len(compressed) < len(contextText) {
			logger.Info("Context compressed %d -> %d chars (%.0f%%)",
				len(contextText), len(compressed),
				float64(len(compressed))/float64(len(contextText))*100)
		}
		if compressed != "" {
			contextText = compressed
		}
	}

	answer, err := s.generator.Answer(ctx, contextText, question)
	if err != nil {
		return nil, err
	}

	citations := make([]domain.Citation, len(matches))
	for i, m := range matches {
		citations[i] = domain.Citation{
			DocumentID:    m.Segment.DocumentID,
			DocumentTitle: m.DocumentTitle,
			Ordinal:       m.Segment.Ordinal,
			Score:         m.Score,
		}
	}

	entry := &domain.QueryCacheEntry{
		ID:         uuid.New().String(),
		Key:        key,
		Question:   question,
		Embedding:  vector,
		Answer:     answer.Text,
		Confidence: answer.Confidence,
		Citations:  citations,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.cache.InsertEntry(ctx, entry); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			// A concurrent query for the same key finished first.
			// Its entry is the canonical answer.
			winner, readErr := s.cache.GetEntry(ctx, key)
			if readErr != nil {
				return nil, fmt.Errorf("re-read after cache conflict: %w", readErr)
			}
			logger.Info("Lost query cache race, returning winner")
			return resultFromEntry(winner, question, true), nil
		}
		return nil, fmt.Errorf("write query cache: %w", err)
	}

	return resultFromEntry(entry, question, false), nil
}

// joinSegments concatenates retrieved segment texts in rank order.
func joinSegments(matches []domain.Match) string {
	parts := make([]string, len(matches))
	for i, m := range matches {
		parts[i] = m.Segment.Content
	}
	return strings.Join(parts, segmentSeparator)
}

// resultFromEntry converts a cache entry to a caller-facing result.
func resultFromEntry(entry *domain.QueryCacheEntry, question string, cached bool) *domain.QueryResult {
	return &domain.QueryResult{
		Question:   question,
		Answer:     entry.Answer,
		Confidence: entry.Confidence,
		Citations:  entry.Citations,
		Cached:     cached,
		CreatedAt:  entry.CreatedAt,
	}
}
