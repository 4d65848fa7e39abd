// Package plaintext provides a text extractor for plain UTF-8 inputs.
// Binary formats need their own extractor; this one rejects them
// instead of silently producing garbage.
package plaintext

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/paperstack-labs/paperstack-cli/internal/core/domain"
	"github.com/paperstack-labs/paperstack-cli/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

// Extractor extracts text from plain-text files.
type Extractor struct{}

// New creates a plain-text extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extract validates that raw is readable UTF-8 text and returns it.
// Corrupt, binary, or effectively empty input is rejected rather than
// passed on as empty text.
func (e *Extractor) Extract(filename string, raw []byte) (string, error) {
	if len(raw) == 0 {
		return "", fmt.Errorf("%w: %s is empty", domain.ErrRejectedIngestion, filename)
	}
	if bytes.HasPrefix(raw, []byte("%PDF-")) {
		return "", fmt.Errorf("%w: %s is a PDF; convert it to text before ingestion", domain.ErrRejectedIngestion, filename)
	}
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("%w: %s is not valid UTF-8 text", domain.ErrRejectedIngestion, filename)
	}
	if bytes.IndexByte(raw, 0) >= 0 {
		return "", fmt.Errorf("%w: %s looks like binary data", domain.ErrRejectedIngestion, filename)
	}

	text := string(raw)
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: %s contains no text", domain.ErrRejectedIngestion, filename)
	}

	return text, nil
}
