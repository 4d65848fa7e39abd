package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/paperstack-labs/paperstack-cli/internal/core/domain"
	"github.com/paperstack-labs/paperstack-cli/internal/core/ports/driven"
	"github.com/paperstack-labs/paperstack-cli/internal/core/ports/driving"
	"github.com/paperstack-labs/paperstack-cli/internal/logger"
)

// Ensure SummaryService implements the interface.
var _ driving.SummaryService = (*SummaryService)(nil)

// SummaryService generates document summaries lazily and memoizes them
// per (document, kind).
//
// Duplicate suppression is layered: singleflight collapses concurrent
// requests within this process so only one generation call runs per
// key, and the store's unique constraint settles races across
// processes. A loser of the store race re-reads and returns the
// winner's row.
type SummaryService struct {
	store     driven.DocumentStore
	summaries driven.SummaryStore
	generator *Generator

	group singleflight.Group
}

// NewSummaryService creates a summary service.
func NewSummaryService(
	store driven.DocumentStore,
	summaries driven.SummaryStore,
	generator *Generator,
) *SummaryService {
	return &SummaryService{
		store:     store,
		summaries: summaries,
		generator: generator,
	}
}

// Summarize returns the summary for (documentID, kind), generating it
// on first request. Repeated calls return byte-identical text.
func (s *SummaryService) Summarize(ctx context.Context, documentID string, kind domain.SummaryKind) (*domain.Summary, error) {
	if _, err := domain.ParseSummaryKind(string(kind)); err != nil {
		return nil, err
	}

	logger.Section("Summary")
	logger.Debug("Document %s, kind %s", documentID, kind)

	if cached, err := s.summaries.GetSummary(ctx, documentID, kind); err == nil {
		logger.Info("Summary cache hit")
		return cached, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("summary lookup: %w", err)
	}

	key := documentID + "/" + string(kind)
	v, err, _ := s.group.Do(key, func() (any, error) {
		return s.generate(ctx, documentID, kind)
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Summary), nil
}

// generate runs one summary generation and persists the result.
// Exactly one goroutine per key enters here at a time.
func (s *SummaryService) generate(ctx context.Context, documentID string, kind domain.SummaryKind) (*domain.Summary, error) {
	// A concurrent caller may have finished while we waited on the
	// flight group.
	if cached, err := s.summaries.GetSummary(ctx, documentID, kind); err == nil {
		return cached, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("summary lookup: %w", err)
	}

	doc, err := s.store.GetDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}

	segments, err := s.store.GetSegments(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("get segments: %w", err)
	}
	if len(segments) == 0 {
		return nil, fmt.Errorf("%w: document %s has no segments", domain.ErrNotFound, documentID)
	}

	var b strings.Builder
	for i, seg := range segments {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(seg.Content)
	}

	content, err := s.generator.Summarize(ctx, b.String(), kind)
	if err != nil {
		return nil, err
	}

	summary := &domain.Summary{
		ID:         uuid.New().String(),
		DocumentID: doc.ID,
		Kind:       kind,
		Content:    content,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.summaries.InsertSummary(ctx, summary); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			// Another process won; its text is canonical.
			winner, readErr := s.summaries.GetSummary(ctx, documentID, kind)
			if readErr != nil {
				return nil, fmt.Errorf("re-read after summary conflict: %w", readErr)
			}
			logger.Info("Lost summary race, returning winner")
			return winner, nil
		}
		return nil, fmt.Errorf("store summary: %w", err)
	}

	logger.Info("Generated %s summary for %s (%d chars)", kind, documentID, len(content))
	return summary, nil
}
