package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paperstack-labs/paperstack-cli/internal/adapters/driven/storage/memory"
	"github.com/paperstack-labs/paperstack-cli/internal/chunker"
	"github.com/paperstack-labs/paperstack-cli/internal/core/domain"
	"github.com/paperstack-labs/paperstack-cli/internal/core/ports/driven"
)

// passthroughExtractor treats raw bytes as plain text.
type passthroughExtractor struct{}

func (passthroughExtractor) Extract(_ string, raw []byte) (string, error) {
	return string(raw), nil
}

func newTestIngestService(provider driven.EmbeddingProvider) (*IngestService, *memory.DocumentStore) {
	store := memory.NewDocumentStore()
	embedder := NewEmbedder(provider, fastOpts()...)
	svc := NewIngestService(store, passthroughExtractor{}, chunker.New(), embedder)
	return svc, store
}

func TestIngest_StoresDocumentAndSegments(t *testing.T) {
	provider := &fakeEmbedding{}
	svc, store := newTestIngestService(provider)

	raw := []byte("Attention mechanisms weigh each token against every other token.")
	report, err := svc.Ingest(context.Background(), "attention.txt", raw)

	require.NoError(t, err)
	assert.False(t, report.Deduplicated)
	assert.Equal(t, 1, report.SegmentCount)
	assert.Empty(t, report.FailedSegments)
	assert.Equal(t, "attention.txt", report.Document.Filename)
	assert.Equal(t, "attention.txt", report.Document.Title)
	assert.NotEmpty(t, report.Document.ID)

	sum := sha256.Sum256(raw)
	assert.Equal(t, hex.EncodeToString(sum[:]), report.Document.Fingerprint)

	segments, err := store.GetSegments(context.Background(), report.Document.ID)
	require.NoError(t, err)
	require.Len(t, segments, 1)
	assert.Equal(t, 0, segments[0].Ordinal)
	assert.Equal(t, []float32{1, 0, 0}, segments[0].Embedding)
	assert.NotEmpty(t, segments[0].Content)
}

func TestIngest_EmptyInput(t *testing.T) {
	svc, _ := newTestIngestService(&fakeEmbedding{})

	_, err := svc.Ingest(context.Background(), "empty.txt", nil)
	assert.ErrorIs(t, err, domain.ErrRejectedIngestion)
}

func TestIngest_WhitespaceOnlyInput(t *testing.T) {
	svc, _ := newTestIngestService(&fakeEmbedding{})

	_, err := svc.Ingest(context.Background(), "blank.txt", []byte("  \n\t \n "))
	assert.ErrorIs(t, err, domain.ErrRejectedIngestion)
}

func TestIngest_DuplicateBytesSkipEmbedding(t *testing.T) {
	provider := &fakeEmbedding{}
	svc, _ := newTestIngestService(provider)

	raw := []byte("the same bytes twice")
	first, err := svc.Ingest(context.Background(), "a.txt", raw)
	require.NoError(t, err)

	callsAfterFirst := len(provider.callSizes())

	second, err := svc.Ingest(context.Background(), "b.txt", raw)
	require.NoError(t, err)

	assert.True(t, second.Deduplicated)
	assert.Equal(t, first.Document.ID, second.Document.ID)
	// Filename of the original upload is kept.
	assert.Equal(t, "a.txt", second.Document.Filename)
	assert.Equal(t, callsAfterFirst, len(provider.callSizes()), "dedup must not embed again")
}

func TestIngest_DifferentBytesAreSeparateDocuments(t *testing.T) {
	svc, store := newTestIngestService(&fakeEmbedding{})

	first, err := svc.Ingest(context.Background(), "a.txt", []byte("first body"))
	require.NoError(t, err)
	second, err := svc.Ingest(context.Background(), "a.txt", []byte("second body"))
	require.NoError(t, err)

	assert.NotEqual(t, first.Document.ID, second.Document.ID)

	docs, err := store.ListDocuments(context.Background())
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestIngest_LongTextProducesManySegments(t *testing.T) {
	provider := &fakeEmbedding{}
	svc, store := newTestIngestService(provider)

	var sb strings.Builder
	for i := 0; i < 3000; i++ {
		fmt.Fprintf(&sb, "w%d ", i)
	}
	report, err := svc.Ingest(context.Background(), "long.txt", []byte(sb.String()))

	require.NoError(t, err)
	assert.Greater(t, report.SegmentCount, 1)

	segments, err := store.GetSegments(context.Background(), report.Document.ID)
	require.NoError(t, err)
	require.Len(t, segments, report.SegmentCount)
	for i, seg := range segments {
		assert.Equal(t, i, seg.Ordinal)
	}
}

func TestIngest_FailedSegmentsAreDroppedNotFatal(t *testing.T) {
	// The batch fails permanently, then the item containing the poison
	// marker fails its per-item calls too.
	provider := &fakeEmbedding{
		fn: func(_ int, batch []string) ([][]float32, error) {
			if len(batch) > 1 {
				return nil, domain.ErrInvalidInput
			}
			if strings.Contains(batch[0], "POISON") {
				return nil, domain.ErrInvalidInput
			}
			return unitVectors(1), nil
		},
	}
	store := memory.NewDocumentStore()
	embedder := NewEmbedder(provider, fastOpts()...)
	svc := NewIngestService(store, passthroughExtractor{},
		chunker.New(chunker.WithChunkSize(20), chunker.WithOverlap(5)), embedder)

	var sb strings.Builder
	for i := 0; i < 20; i++ {
		fmt.Fprintf(&sb, "w%d ", i)
	}
	sb.WriteString("POISON ")
	for i := 20; i < 40; i++ {
		fmt.Fprintf(&sb, "w%d ", i)
	}

	report, err := svc.Ingest(context.Background(), "partial.txt", []byte(sb.String()))

	require.NoError(t, err)
	assert.Equal(t, []int{1}, report.FailedSegments)
	assert.Equal(t, 2, report.SegmentCount)

	// The failed ordinal is excluded; stored ordinals keep their
	// chunking positions, leaving a gap where the failure was.
	segments, getErr := store.GetSegments(context.Background(), report.Document.ID)
	require.NoError(t, getErr)
	require.Len(t, segments, 2)
	assert.Equal(t, 0, segments[0].Ordinal)
	assert.Equal(t, 2, segments[1].Ordinal)
	for _, seg := range segments {
		assert.NotContains(t, seg.Content, "POISON")
	}
}

func TestIngest_AllSegmentsFailed(t *testing.T) {
	provider := &fakeEmbedding{
		fn: func(_ int, _ []string) ([][]float32, error) {
			return nil, domain.ErrInvalidInput
		},
	}
	svc, store := newTestIngestService(provider)

	_, err := svc.Ingest(context.Background(), "doomed.txt", []byte("some content"))

	assert.ErrorIs(t, err, domain.ErrEmbeddingFailed)

	docs, listErr := store.ListDocuments(context.Background())
	require.NoError(t, listErr)
	assert.Empty(t, docs, "no document row without at least one embedded segment")
}

func TestIngest_ExtractorRejectionSurfaces(t *testing.T) {
	store := memory.NewDocumentStore()
	embedder := NewEmbedder(&fakeEmbedding{}, fastOpts()...)
	svc := NewIngestService(store, rejectingExtractor{}, chunker.New(), embedder)

	_, err := svc.Ingest(context.Background(), "bad.bin", []byte{0x00, 0x01})
	assert.ErrorIs(t, err, domain.ErrRejectedIngestion)
}

type rejectingExtractor struct{}

func (rejectingExtractor) Extract(filename string, _ []byte) (string, error) {
	return "", fmt.Errorf("%w: %s is not readable text", domain.ErrRejectedIngestion, filename)
}

func TestIngest_LostInsertRaceAdoptsWinner(t *testing.T) {
	raw := []byte("contended bytes")
	sum := sha256.Sum256(raw)
	fingerprint := hex.EncodeToString(sum[:])

	inner := memory.NewDocumentStore()
	winner := &domain.Document{
		ID:          "winner-id",
		Fingerprint: fingerprint,
		Title:       "winner.txt",
		Filename:    "winner.txt",
		CreatedAt:   time.Now().UTC(),
	}
	require.NoError(t, inner.InsertDocument(context.Background(), winner))

	// The first fingerprint lookup misses, as if the winner landed
	// between our dedup check and our insert.
	store := &racingStore{DocumentStore: inner}
	embedder := NewEmbedder(&fakeEmbedding{}, fastOpts()...)
	svc := NewIngestService(store, passthroughExtractor{}, chunker.New(), embedder)

	report, err := svc.Ingest(context.Background(), "loser.txt", raw)

	require.NoError(t, err)
	assert.True(t, report.Deduplicated)
	assert.Equal(t, "winner-id", report.Document.ID)
}

// racingStore hides an existing fingerprint from the first lookup so
// the subsequent insert collides.
type racingStore struct {
	driven.DocumentStore
	lookups int
}

func (r *racingStore) GetDocumentByFingerprint(ctx context.Context, fingerprint string) (*domain.Document, error) {
	r.lookups++
	if r.lookups == 1 {
		return nil, domain.ErrNotFound
	}
	return r.DocumentStore.GetDocumentByFingerprint(ctx, fingerprint)
}
