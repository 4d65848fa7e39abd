package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/paperstack-labs/paperstack-cli/internal/chunker"
	"github.com/paperstack-labs/paperstack-cli/internal/core/domain"
	"github.com/paperstack-labs/paperstack-cli/internal/core/ports/driven"
	"github.com/paperstack-labs/paperstack-cli/internal/core/ports/driving"
	"github.com/paperstack-labs/paperstack-cli/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// IngestService runs the ingestion pipeline:
// fingerprint -> dedup -> extract -> chunk -> embed -> store.
type IngestService struct {
	store     driven.DocumentStore
	extractor driven.TextExtractor
	chunker   *chunker.Chunker
	embedder  *Embedder
}

// NewIngestService creates an ingestion service.
func NewIngestService(
	store driven.DocumentStore,
	extractor driven.TextExtractor,
	ch *chunker.Chunker,
	embedder *Embedder,
) *IngestService {
	return &IngestService{
		store:     store,
		extractor: extractor,
		chunker:   ch,
		embedder:  embedder,
	}
}

// Ingest stores raw bytes as an embedded document. Re-ingesting
// identical bytes is a no-op that returns the existing document: the
// fingerprint is checked before any chunking or embedding work.
func (s *IngestService) Ingest(ctx context.Context, filename string, raw []byte) (*driving.IngestReport, error) {
	started := time.Now()

	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty input", domain.ErrRejectedIngestion)
	}

	sum := sha256.Sum256(raw)
	fingerprint := hex.EncodeToString(sum[:])

	logger.Section("Ingestion")
	logger.Debug("File: %s (%d bytes, fingerprint %s)", filename, len(raw), fingerprint[:12])

	// Dedup before doing any expensive work.
	if existing, err := s.store.GetDocumentByFingerprint(ctx, fingerprint); err == nil {
		logger.Info("Duplicate content, returning existing document %s", existing.ID)
		return &driving.IngestReport{
			Document:     *existing,
			Deduplicated: true,
			Elapsed:      time.Since(started),
		}, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("fingerprint lookup: %w", err)
	}

	text, err := s.extractor.Extract(filename, raw)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", filename, err)
	}

	drafts, err := s.chunker.Chunk(text)
	if err != nil {
		return nil, fmt.Errorf("chunk %s: %w", filename, err)
	}
	if len(drafts) == 0 {
		return nil, fmt.Errorf("%w: no text content in %s", domain.ErrRejectedIngestion, filename)
	}
	logger.Debug("Chunked into %d segments", len(drafts))

	texts := make([]string, len(drafts))
	for i, d := range drafts {
		texts[i] = d.Content
	}

	embedded, err := s.embedder.EmbedBatch(ctx, texts, driven.RoleDocument)
	if err != nil {
		return nil, fmt.Errorf("embed %s: %w", filename, err)
	}

	doc := &domain.Document{
		ID:          uuid.New().String(),
		Fingerprint: fingerprint,
		Title:       filename,
		Filename:    filename,
		CreatedAt:   time.Now().UTC(),
	}

	segments := make([]domain.Segment, 0, len(drafts))
	var failed []int
	for i, d := range drafts {
		if embedded[i].Err != nil {
			logger.Warn("Segment %d has no embedding: %v", d.Ordinal, embedded[i].Err)
			failed = append(failed, d.Ordinal)
			continue
		}
		segments = append(segments, domain.Segment{
			ID:         uuid.New().String(),
			DocumentID: doc.ID,
			Ordinal:    d.Ordinal,
			Content:    d.Content,
			TokenCount: d.TokenCount,
			Embedding:  embedded[i].Vector,
		})
	}
	if len(segments) == 0 {
		return nil, fmt.Errorf("embed %s: %w: no segment received a vector", filename, domain.ErrEmbeddingFailed)
	}

	if err := s.store.InsertDocument(ctx, doc); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			// A concurrent ingestion of the same bytes won the race;
			// adopt its row and drop ours.
			winner, readErr := s.store.GetDocumentByFingerprint(ctx, fingerprint)
			if readErr != nil {
				return nil, fmt.Errorf("re-read after fingerprint conflict: %w", readErr)
			}
			logger.Info("Lost ingestion race, returning winner %s", winner.ID)
			return &driving.IngestReport{
				Document:     *winner,
				Deduplicated: true,
				Elapsed:      time.Since(started),
			}, nil
		}
		return nil, fmt.Errorf("store document: %w", err)
	}

	if err := s.store.InsertSegments(ctx, segments); err != nil {
		return nil, fmt.Errorf("store segments: %w", err)
	}

	logger.Info("Ingested %s: %d segments stored, %d failed", filename, len(segments), len(failed))

	return &driving.IngestReport{
		Document:       *doc,
		SegmentCount:   len(segments),
		FailedSegments: failed,
		Elapsed:        time.Since(started),
	}, nil
}
