package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/time/rate"

	"github.com/paperstack-labs/paperstack-cli/internal/core/domain"
	"github.com/paperstack-labs/paperstack-cli/internal/core/ports/driven"
	"github.com/paperstack-labs/paperstack-cli/internal/logger"
)

// Default pacing for the embedding orchestrator.
const (
	// DefaultBatchSize is the maximum texts per provider request.
	DefaultBatchSize = 10

	// DefaultBatchDelay is the base inter-batch pause.
	DefaultBatchDelay = 2 * time.Second

	// minBatchDelay is the floor the pause can shrink to after a calm
	// stretch without rate-limit signals.
	minBatchDelay = 500 * time.Millisecond

	// maxBatchDelay caps exponential lengthening under sustained
	// rate limiting.
	maxBatchDelay = 60 * time.Second

	// calmThreshold is the number of consecutive signal-free batches
	// before the pause is shortened.
	calmThreshold = 3

	// maxTextChars truncates overlong inputs before embedding;
	// providers reject oversized payloads.
	maxTextChars = 25000
)

// EmbedResult is the per-text outcome of a batch embedding run.
// A text that failed after all retries carries Err and a nil Vector;
// callers can distinguish "no vector" from a zero vector.
type EmbedResult struct {
	Vector []float32
	Err    error
}

// Embedder orchestrates batched embedding calls against a provider:
// it groups texts, paces requests between batches, lengthens the pause
// under rate limiting, and degrades failed batches to per-item calls
// so a single bad text cannot sink the whole batch.
//
// The inter-batch pause is local to one Embedder call chain; it holds
// no shared lock and does not slow unrelated pipelines.
type Embedder struct {
	provider  driven.EmbeddingProvider
	batchSize int
	baseDelay time.Duration
	backoff   domain.Backoff

	limiter *rate.Limiter

	mu    sync.Mutex
	delay time.Duration // current inter-batch pause
	calm  int           // consecutive batches without a rate-limit signal
}

// EmbedderOption configures an Embedder.
type EmbedderOption func(*Embedder)

// WithBatchSize sets the maximum texts per provider request.
func WithBatchSize(n int) EmbedderOption {
	return func(e *Embedder) {
		if n > 0 {
			e.batchSize = n
		}
	}
}

// WithBatchDelay sets the base inter-batch pause.
func WithBatchDelay(d time.Duration) EmbedderOption {
	return func(e *Embedder) {
		if d > 0 {
			e.baseDelay = d
		}
	}
}

// WithBackoff sets the retry policy for transient provider failures.
func WithBackoff(b domain.Backoff) EmbedderOption {
	return func(e *Embedder) {
		e.backoff = b
	}
}

// NewEmbedder creates an embedding orchestrator around a provider.
func NewEmbedder(provider driven.EmbeddingProvider, opts ...EmbedderOption) *Embedder {
	e := &Embedder{
		provider:  provider,
		batchSize: DefaultBatchSize,
		baseDelay: DefaultBatchDelay,
		backoff:   domain.DefaultBackoff,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.delay = e.baseDelay
	// Burst 1: the first batch goes immediately, every later batch
	// waits out the current pause.
	e.limiter = rate.NewLimiter(rate.Every(e.delay), 1)
	return e
}

// EmbedBatch embeds texts and returns one result per input, in input
// order. Batch-level failures that are not rate-limit signals degrade
// to per-item calls; only texts that still fail after retries carry an
// error. The returned error is reserved for context cancellation.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string, role driven.EmbeddingRole) ([]EmbedResult, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	cleaned := make([]string, len(texts))
	for i, t := range texts {
		cleaned[i] = cleanText(t)
	}

	results := make([]EmbedResult, 0, len(texts))

	for start := 0; start < len(cleaned); start += e.batchSize {
		end := start + e.batchSize
		if end > len(cleaned) {
			end = len(cleaned)
		}
		batch := cleaned[start:end]

		if err := e.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		vectors, err := e.tryBatch(ctx, batch, role)
		if err == nil {
			for _, v := range vectors {
				results = append(results, EmbedResult{Vector: v})
			}
			continue
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if errors.Is(err, domain.ErrRateLimited) {
			// The provider is throttling; fanning out into per-item
			// calls would multiply traffic against it. Mark the whole
			// batch failed instead.
			logger.Warn("Batch embedding rate limited after retries, marking %d texts failed", len(batch))
			for range batch {
				results = append(results, EmbedResult{
					Err: fmt.Errorf("%w: %v", domain.ErrEmbeddingFailed, err),
				})
			}
			continue
		}

		logger.Warn("Batch embedding failed, degrading to per-item calls: %v", err)
		for _, text := range batch {
			vec, itemErr := e.trySingle(ctx, text, role)
			if itemErr != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				results = append(results, EmbedResult{
					Err: fmt.Errorf("%w: %v", domain.ErrEmbeddingFailed, itemErr),
				})
				continue
			}
			results = append(results, EmbedResult{Vector: vec})
		}
	}

	return results, nil
}

// EmbedQuery embeds a single query text. Unlike document embedding
// there is no partial-result mode: the query either gets a vector or
// the error surfaces.
func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	cleaned := cleanText(text)
	if cleaned == "" {
		return nil, fmt.Errorf("%w: query must not be empty", domain.ErrInvalidInput)
	}
	return e.trySingle(ctx, cleaned, driven.RoleQuery)
}

// Dimensions returns the provider's vector size.
func (e *Embedder) Dimensions() int {
	return e.provider.Dimensions()
}

// tryBatch issues one batch request, retrying transient and rate-limit
// failures within the backoff budget. Rate-limit signals additionally
// lengthen the inter-batch pause.
func (e *Embedder) tryBatch(ctx context.Context, batch []string, role driven.EmbeddingRole) ([][]float32, error) {
	var lastErr error

	for attempt := 0; attempt < e.backoff.MaxAttempts; attempt++ {
		if err := e.sleep(ctx, e.backoff.Delay(attempt)); err != nil {
			return nil, err
		}

		vectors, err := e.provider.EmbedBatch(ctx, batch, role)
		if err == nil {
			if len(vectors) != len(batch) {
				return nil, fmt.Errorf("provider returned %d vectors for %d texts", len(vectors), len(batch))
			}
			e.recordCalm()
			return vectors, nil
		}

		lastErr = err
		if errors.Is(err, domain.ErrRateLimited) {
			e.recordRateLimit()
			continue
		}
		if !domain.IsRetryable(err) {
			return nil, err
		}
	}

	return nil, lastErr
}

// trySingle embeds one text with retries. Used for queries and for the
// per-item fallback after a batch failure.
func (e *Embedder) trySingle(ctx context.Context, text string, role driven.EmbeddingRole) ([]float32, error) {
	if text == "" {
		// Keep alignment for blank inputs without calling the provider.
		text = " "
	}

	var lastErr error

	for attempt := 0; attempt < e.backoff.MaxAttempts; attempt++ {
		if err := e.sleep(ctx, e.backoff.Delay(attempt)); err != nil {
			return nil, err
		}

		vectors, err := e.provider.EmbedBatch(ctx, []string{text}, role)
		if err == nil {
			if len(vectors) != 1 {
				return nil, fmt.Errorf("provider returned %d vectors for 1 text", len(vectors))
			}
			return vectors[0], nil
		}

		lastErr = err
		if errors.Is(err, domain.ErrRateLimited) {
			e.recordRateLimit()
			continue
		}
		if !domain.IsRetryable(err) {
			return nil, err
		}
	}

	return nil, lastErr
}

// recordRateLimit doubles the inter-batch pause, capped at
// maxBatchDelay.
func (e *Embedder) recordRateLimit() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.calm = 0
	e.delay *= 2
	if e.delay > maxBatchDelay {
		e.delay = maxBatchDelay
	}
	e.limiter.SetLimit(rate.Every(e.delay))
	logger.Warn("Rate limit signal: inter-batch delay now %s", e.delay)
}

// recordCalm counts signal-free batches and shortens the pause once a
// calm stretch is observed, down to minBatchDelay.
func (e *Embedder) recordCalm() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.calm++
	if e.calm < calmThreshold || e.delay <= minBatchDelay {
		return
	}
	e.calm = 0
	e.delay /= 2
	if e.delay < minBatchDelay {
		e.delay = minBatchDelay
	}
	e.limiter.SetLimit(rate.Every(e.delay))
	logger.Debug("Calm stretch: inter-batch delay now %s", e.delay)
}

// sleep waits for d or until the context is cancelled.
func (e *Embedder) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// cleanText collapses whitespace and truncates overlong input. The
// cut backs up to a rune boundary so the provider never sees a split
// UTF-8 sequence.
func cleanText(text string) string {
	cleaned := strings.Join(strings.Fields(text), " ")
	if len(cleaned) > maxTextChars {
		cut := maxTextChars
		for cut > 0 && !utf8.RuneStart(cleaned[cut]) {
			cut--
		}
		cleaned = cleaned[:cut]
	}
	return cleaned
}
