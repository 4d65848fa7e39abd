package cli

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/paperstack-labs/paperstack-cli/internal/adapters/driven/storage/memory"
	"github.com/paperstack-labs/paperstack-cli/internal/chunker"
	"github.com/paperstack-labs/paperstack-cli/internal/core/domain"
	"github.com/paperstack-labs/paperstack-cli/internal/core/ports/driven"
	"github.com/paperstack-labs/paperstack-cli/internal/core/services"
)

// stubEmbedding is a deterministic in-process embedding provider.
type stubEmbedding struct{}

func (stubEmbedding) EmbedBatch(_ context.Context, texts []string, _ driven.EmbeddingRole) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

func (stubEmbedding) Dimensions() int   { return 3 }
func (stubEmbedding) ModelName() string { return "stub-embedding" }

// stubGeneration echoes a canned answer.
type stubGeneration struct{}

func (stubGeneration) Generate(_ context.Context, _ string, _ driven.GenerateOptions) (string, error) {
	return "A stub answer.", nil
}

func (stubGeneration) ModelName() string { return "stub-llm" }

// stubExtractor passes bytes through as text.
type stubExtractor struct{}

func (stubExtractor) Extract(_ string, raw []byte) (string, error) {
	return string(raw), nil
}

// testDocStore is the memory store behind the test services, exposed
// so tests can seed documents directly.
var testDocStore *memory.DocumentStore

// setupTestServices wires the commands to in-memory stores and stub
// providers. Returns a cleanup that restores the previous wiring.
func setupTestServices() func() {
	oldIngest := ingestService
	oldQuery := queryService
	oldSummary := summaryService
	oldDocument := documentService
	oldWired := wired
	oldDocStoreVar := testDocStore

	testDocStore = memory.NewDocumentStore()
	embedder := services.NewEmbedder(stubEmbedding{}, services.WithBatchDelay(time.Millisecond))
	generator := services.NewGenerator(stubGeneration{}, nil)

	ingestService = services.NewIngestService(testDocStore, stubExtractor{}, chunker.New(), embedder)
	queryService = services.NewQueryService(
		memory.NewQueryCacheStore(),
		embedder,
		services.NewRetrievalService(testDocStore),
		nil,
		generator,
	)
	summaryService = services.NewSummaryService(testDocStore, memory.NewSummaryStore(), generator)
	documentService = services.NewDocumentService(testDocStore)
	wired = true

	return func() {
		ingestService = oldIngest
		queryService = oldQuery
		summaryService = oldSummary
		documentService = oldDocument
		wired = oldWired
		testDocStore = oldDocStoreVar
	}
}

// seedTestDocument inserts a document with one embedded segment and
// returns its ID.
func seedTestDocument(title string) string {
	ctx := context.Background()
	doc := &domain.Document{
		ID:          uuid.NewString(),
		Fingerprint: uuid.NewString(),
		Title:       title,
		Filename:    title + ".txt",
		CreatedAt:   time.Now().UTC(),
	}
	if err := testDocStore.InsertDocument(ctx, doc); err != nil {
		panic(err)
	}
	segment := domain.Segment{
		ID:         uuid.NewString(),
		DocumentID: doc.ID,
		Ordinal:    0,
		Content:    "Seeded segment content.",
		TokenCount: 3,
		Embedding:  []float32{1, 0, 0},
	}
	if err := testDocStore.InsertSegments(ctx, []domain.Segment{segment}); err != nil {
		panic(err)
	}
	return doc.ID
}
