package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paperstack-labs/paperstack-cli/internal/adapters/driven/storage/memory"
	"github.com/paperstack-labs/paperstack-cli/internal/core/domain"
	"github.com/paperstack-labs/paperstack-cli/internal/core/ports/driven"
	"github.com/paperstack-labs/paperstack-cli/internal/core/ports/driving"
)

// fakeGeneration returns a fixed completion and records prompts.
type fakeGeneration struct {
	mu      sync.Mutex
	prompts []string
	text    string
	err     error
}

func (f *fakeGeneration) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

func (f *fakeGeneration) ModelName() string { return "fake-llm" }

func (f *fakeGeneration) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func (f *fakeGeneration) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}

// fakeCompressor returns a fixed output and records calls.
type fakeCompressor struct {
	out   string
	calls int
}

func (f *fakeCompressor) Compress(_ context.Context, _, _ string, _ float64) (string, error) {
	f.calls++
	return f.out, nil
}

type queryFixture struct {
	svc       *QueryService
	docs      *memory.DocumentStore
	cache     *memory.QueryCacheStore
	provider  *fakeEmbedding
	generator *fakeGeneration
}

func newQueryFixture(t *testing.T, compressor driven.CompressionProvider, opts ...QueryOption) *queryFixture {
	t.Helper()

	docs := memory.NewDocumentStore()
	cache := memory.NewQueryCacheStore()
	provider := &fakeEmbedding{}
	generator := &fakeGeneration{text: "The answer is stated in the text."}

	embedder := NewEmbedder(provider, fastOpts()...)
	svc := NewQueryService(
		cache,
		embedder,
		NewRetrievalService(docs),
		compressor,
		NewGenerator(generator, nil),
		opts...,
	)
	return &queryFixture{svc: svc, docs: docs, cache: cache, provider: provider, generator: generator}
}

// seedSegments stores a document with the given segment contents, all
// embedded as the unit x vector so any query matches.
func (f *queryFixture) seedSegments(t *testing.T, title string, contents ...string) string {
	t.Helper()

	doc := &domain.Document{
		ID:          uuid.New().String(),
		Fingerprint: uuid.New().String(),
		Title:       title,
		Filename:    title,
		CreatedAt:   time.Now().UTC(),
	}
	require.NoError(t, f.docs.InsertDocument(context.Background(), doc))

	segments := make([]domain.Segment, len(contents))
	for i, content := range contents {
		segments[i] = domain.Segment{
			ID:         uuid.New().String(),
			DocumentID: doc.ID,
			Ordinal:    i,
			Content:    content,
			TokenCount: len(strings.Fields(content)),
			Embedding:  []float32{1, 0, 0},
		}
	}
	require.NoError(t, f.docs.InsertSegments(context.Background(), segments))
	return doc.ID
}

func TestAsk_EmptyQuestion(t *testing.T) {
	f := newQueryFixture(t, nil)

	_, err := f.svc.Ask(context.Background(), "   ", driving.AskOptions{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAsk_NoIndexedSegments(t *testing.T) {
	f := newQueryFixture(t, nil)

	_, err := f.svc.Ask(context.Background(), "what is attention?", driving.AskOptions{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAsk_AnswersWithCitations(t *testing.T) {
	f := newQueryFixture(t, nil)
	docID := f.seedSegments(t, "attention.txt", "attention weighs tokens")

	result, err := f.svc.Ask(context.Background(), "what is attention?", driving.AskOptions{})

	require.NoError(t, err)
	assert.Equal(t, "what is attention?", result.Question)
	assert.Equal(t, "The answer is stated in the text.", result.Answer)
	assert.Equal(t, domain.ConfidenceHigh, result.Confidence)
	assert.False(t, result.Cached)
	require.Len(t, result.Citations, 1)
	assert.Equal(t, docID, result.Citations[0].DocumentID)
	assert.Equal(t, "attention.txt", result.Citations[0].DocumentTitle)
	assert.Equal(t, 0, result.Citations[0].Ordinal)
	assert.InDelta(t, 1.0, result.Citations[0].Score, 1e-6)

	// The prompt carries the retrieved segment and the question.
	prompt := f.generator.lastPrompt()
	assert.Contains(t, prompt, "attention weighs tokens")
	assert.Contains(t, prompt, "what is attention?")
}

func TestAsk_SecondAskServedFromCache(t *testing.T) {
	f := newQueryFixture(t, nil)
	f.seedSegments(t, "doc.txt", "segment body")

	first, err := f.svc.Ask(context.Background(), "What is  Attention?", driving.AskOptions{})
	require.NoError(t, err)
	generations := f.generator.callCount()

	// Same question modulo case and spacing hits the same cache key.
	second, err := f.svc.Ask(context.Background(), "what is attention?", driving.AskOptions{})
	require.NoError(t, err)

	assert.True(t, second.Cached)
	assert.Equal(t, first.Answer, second.Answer)
	assert.Equal(t, first.Citations, second.Citations)
	assert.Equal(t, generations, f.generator.callCount(), "cache hit must not generate")
}

func TestAsk_TopKLimitsCitations(t *testing.T) {
	f := newQueryFixture(t, nil)
	f.seedSegments(t, "doc.txt", "first", "second", "third")

	result, err := f.svc.Ask(context.Background(), "anything?", driving.AskOptions{TopK: 2})

	require.NoError(t, err)
	assert.Len(t, result.Citations, 2)
}

func TestAsk_DocumentFilter(t *testing.T) {
	f := newQueryFixture(t, nil)
	f.seedSegments(t, "a.txt", "from a")
	wantID := f.seedSegments(t, "b.txt", "from b")

	result, err := f.svc.Ask(context.Background(), "filtered?", driving.AskOptions{DocumentID: wantID})

	require.NoError(t, err)
	require.Len(t, result.Citations, 1)
	assert.Equal(t, wantID, result.Citations[0].DocumentID)
}

func TestAsk_NotFoundAnswerConfidence(t *testing.T) {
	f := newQueryFixture(t, nil)
	f.generator.text = "This information is not present in the provided documents."
	f.seedSegments(t, "doc.txt", "unrelated body")

	result, err := f.svc.Ask(context.Background(), "who wrote it?", driving.AskOptions{})

	require.NoError(t, err)
	assert.Equal(t, domain.ConfidenceNotFound, result.Confidence)
}

func TestAsk_CompressedContextReachesGenerator(t *testing.T) {
	compressor := &fakeCompressor{out: "condensed context"}
	f := newQueryFixture(t, compressor)
	f.seedSegments(t, "doc.txt", "a very long original segment body")

	_, err := f.svc.Ask(context.Background(), "q?", driving.AskOptions{})

	require.NoError(t, err)
	assert.Equal(t, 1, compressor.calls)
	prompt := f.generator.lastPrompt()
	assert.Contains(t, prompt, "condensed context")
	assert.NotContains(t, prompt, "a very long original segment body")
}

func TestAsk_EmptyCompressionKeepsOriginal(t *testing.T) {
	compressor := &fakeCompressor{out: ""}
	f := newQueryFixture(t, compressor)
	f.seedSegments(t, "doc.txt", "the original body")

	_, err := f.svc.Ask(context.Background(), "q?", driving.AskOptions{})

	require.NoError(t, err)
	assert.Contains(t, f.generator.lastPrompt(), "the original body")
}

func TestAsk_SkipCompression(t *testing.T) {
	compressor := &fakeCompressor{out: "condensed"}
	f := newQueryFixture(t, compressor)
	f.seedSegments(t, "doc.txt", "body")

	_, err := f.svc.Ask(context.Background(), "q?", driving.AskOptions{SkipCompression: true})

	require.NoError(t, err)
	assert.Equal(t, 0, compressor.calls)
}

func TestAsk_GenerationFailureSurfaces(t *testing.T) {
	f := newQueryFixture(t, nil)
	f.generator.err = domain.ErrTransient
	f.seedSegments(t, "doc.txt", "body")

	_, err := f.svc.Ask(context.Background(), "q?", driving.AskOptions{})

	assert.ErrorIs(t, err, domain.ErrTransient)

	// A failed pipeline must not leave a cache entry behind.
	_, cacheErr := f.cache.GetEntry(context.Background(), domain.NormalizeQuery("q?"))
	assert.ErrorIs(t, cacheErr, domain.ErrNotFound)
}

func TestAsk_LostCacheRaceAdoptsWinner(t *testing.T) {
	f := newQueryFixture(t, nil)
	f.seedSegments(t, "doc.txt", "body")

	key := domain.NormalizeQuery("contended question?")
	winner := &domain.QueryCacheEntry{
		ID:         uuid.New().String(),
		Key:        key,
		Question:   "contended question?",
		Embedding:  []float32{1, 0, 0},
		Answer:     "the winner's answer",
		Confidence: domain.ConfidenceHigh,
		CreatedAt:  time.Now().UTC(),
	}
	require.NoError(t, f.cache.InsertEntry(context.Background(), winner))

	// Hide the winner from the initial lookup so the pipeline runs and
	// collides on insert.
	f.svc.cache = &racingCache{QueryCacheStore: f.cache}

	result, err := f.svc.Ask(context.Background(), "contended question?", driving.AskOptions{})

	require.NoError(t, err)
	assert.True(t, result.Cached)
	assert.Equal(t, "the winner's answer", result.Answer)
}

// racingCache hides existing entries from the first lookup so the
// subsequent insert collides.
type racingCache struct {
	driven.QueryCacheStore
	lookups int
}

func (r *racingCache) GetEntry(ctx context.Context, key string) (*domain.QueryCacheEntry, error) {
	r.lookups++
	if r.lookups == 1 {
		return nil, domain.ErrNotFound
	}
	return r.QueryCacheStore.GetEntry(ctx, key)
}

func TestJoinSegments(t *testing.T) {
	matches := []domain.Match{
		{Segment: domain.Segment{Content: "first"}},
		{Segment: domain.Segment{Content: "second"}},
	}
	assert.Equal(t, "first\n\n---\n\nsecond", joinSegments(matches))
}
