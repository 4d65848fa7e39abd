// Package markdown provides a text extractor for Markdown files. It
// strips formatting so embeddings see prose, not syntax, while keeping
// paragraph boundaries for the chunker.
package markdown

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/paperstack-labs/paperstack-cli/internal/core/domain"
	"github.com/paperstack-labs/paperstack-cli/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

// Extractor extracts plain text from Markdown files.
type Extractor struct{}

// New creates a Markdown extractor.
func New() *Extractor {
	return &Extractor{}
}

// Pre-compiled regular expressions for Markdown stripping.
var (
	codeBlock    = regexp.MustCompile("(?s)```[^`]*```")
	inlineCode   = regexp.MustCompile("`[^`]+`")
	images       = regexp.MustCompile(`!\[[^\]]*\]\([^)]+\)`)
	links        = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	headings     = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	blockquote   = regexp.MustCompile(`(?m)^>\s*`)
	hrule        = regexp.MustCompile(`(?m)^[-*_]{3,}\s*$`)
	listMarkers  = regexp.MustCompile(`(?m)^\s*[-*+]\s+`)
	numberedList = regexp.MustCompile(`(?m)^\s*\d+\.\s+`)
	manyNewlines = regexp.MustCompile(`\n{3,}`)
)

// Extract strips Markdown formatting and returns the remaining prose.
func (e *Extractor) Extract(filename string, raw []byte) (string, error) {
	if len(raw) == 0 {
		return "", fmt.Errorf("%w: %s is empty", domain.ErrRejectedIngestion, filename)
	}
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("%w: %s is not valid UTF-8 text", domain.ErrRejectedIngestion, filename)
	}

	text := stripMarkdown(string(raw))
	if text == "" {
		return "", fmt.Errorf("%w: %s contains no text after stripping markup", domain.ErrRejectedIngestion, filename)
	}

	return text, nil
}

// stripMarkdown removes common markdown formatting. This is a
// simplified implementation that handles common cases.
func stripMarkdown(content string) string {
	content = codeBlock.ReplaceAllString(content, "")
	content = inlineCode.ReplaceAllString(content, "")
	content = images.ReplaceAllString(content, "")

	// Convert links [text](url) to just text
	content = links.ReplaceAllString(content, "$1")

	content = headings.ReplaceAllString(content, "")

	// Remove bold/italic markers
	content = strings.ReplaceAll(content, "**", "")
	content = strings.ReplaceAll(content, "__", "")
	content = strings.ReplaceAll(content, "*", "")
	content = strings.ReplaceAll(content, "_", " ")

	content = blockquote.ReplaceAllString(content, "")
	content = hrule.ReplaceAllString(content, "")
	content = listMarkers.ReplaceAllString(content, "")
	content = numberedList.ReplaceAllString(content, "")

	// Collapse runs of blank lines but keep paragraph breaks
	content = manyNewlines.ReplaceAllString(content, "\n\n")

	return strings.TrimSpace(content)
}
