package domain

import (
	"fmt"
	"time"
)

// SummaryKind identifies the style of a generated document summary.
type SummaryKind string

// Supported summary kinds.
const (
	// SummaryAbstract is a short 2-3 sentence overview.
	SummaryAbstract SummaryKind = "abstract"

	// SummaryStructured is a sectioned summary (background, method,
	// results, significance).
	SummaryStructured SummaryKind = "structured"

	// SummaryKeyPoints is a bulleted list of the main findings.
	SummaryKeyPoints SummaryKind = "key_points"
)

// ParseSummaryKind validates and converts a string to a SummaryKind.
func ParseSummaryKind(s string) (SummaryKind, error) {
	switch SummaryKind(s) {
	case SummaryAbstract, SummaryStructured, SummaryKeyPoints:
		return SummaryKind(s), nil
	default:
		return "", fmt.Errorf("%w: unknown summary kind %q", ErrInvalidInput, s)
	}
}

// Summary is a generated summary of one document.
// At most one Summary exists per (DocumentID, Kind); generation is
// idempotent and a second request returns the stored row.
type Summary struct {
	// ID is the unique identifier for the summary.
	ID string

	// DocumentID links to the summarised Document.
	DocumentID string

	// Kind is the summary style.
	Kind SummaryKind

	// Content is the generated summary text.
	Content string

	// CreatedAt is when the summary was generated.
	CreatedAt time.Time
}
