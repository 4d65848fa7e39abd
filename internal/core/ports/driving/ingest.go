package driving

import (
	"context"
	"time"

	"github.com/paperstack-labs/paperstack-cli/internal/core/domain"
)

// IngestService turns raw uploads into stored, embedded documents.
type IngestService interface {
	// Ingest fingerprints raw, deduplicates against existing
	// documents, and on a miss runs extract -> chunk -> embed -> store.
	// Identical bytes ingested twice return the existing document with
	// Deduplicated set.
	Ingest(ctx context.Context, filename string, raw []byte) (*IngestReport, error)
}

// IngestReport describes the outcome of one ingestion.
type IngestReport struct {
	// Document is the stored (new or pre-existing) document.
	Document domain.Document

	// Deduplicated reports that the fingerprint already existed and
	// no new work was done.
	Deduplicated bool

	// SegmentCount is the number of segments stored with a valid
	// embedding.
	SegmentCount int

	// FailedSegments lists the ordinals of segments whose embedding
	// failed after all retries; they are excluded from storage.
	FailedSegments []int

	// Elapsed is the wall time the pipeline took.
	Elapsed time.Duration
}
