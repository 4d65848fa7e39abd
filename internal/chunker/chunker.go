// Package chunker splits document text into overlapping, token-bounded
// segments for embedding.
package chunker

import (
	"fmt"

	"github.com/paperstack-labs/paperstack-cli/internal/core/domain"
)

// DefaultChunkSize is the default number of tokens per segment.
const DefaultChunkSize = 512

// DefaultOverlap is the default number of tokens shared between
// consecutive segments.
const DefaultOverlap = 50

// Draft is a segment in the making: content plus ordering metadata,
// before an embedding is attached.
type Draft struct {
	// Content is the decoded segment text.
	Content string

	// TokenCount is the number of tokens in the window.
	TokenCount int

	// Ordinal is the 0-based position assigned in traversal order.
	Ordinal int
}

// Chunker produces overlapping token windows over text.
// Identical input and parameters always produce identical drafts;
// fingerprint-based deduplication depends on that.
type Chunker struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the window size in tokens.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		c.chunkSize = size
	}
}

// WithOverlap sets the overlap between consecutive windows in tokens.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		c.overlap = overlap
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultOverlap,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Chunk splits text into overlapping drafts. The window advances by
// chunkSize-overlap tokens per step; the final window may be shorter.
// When a paragraph break falls within the tolerance zone before a cut,
// the cut moves back to the break so sentences are not severed.
// Empty or whitespace-only text yields zero drafts and no error.
func (c *Chunker) Chunk(text string) ([]Draft, error) {
	if c.chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrInvalidInput, c.chunkSize)
	}
	if c.overlap <= 0 || c.overlap >= c.chunkSize {
		return nil, fmt.Errorf("%w: overlap must be in (0, chunk size), got %d", domain.ErrInvalidInput, c.overlap)
	}

	tokens := tokenize(text)
	if len(tokens) == 0 {
		return nil, nil
	}

	// A boundary adjustment must never move the cut to or before the
	// start of the next window's overlap, or the walk would stall.
	tolerance := c.chunkSize / 10
	if maxTol := c.chunkSize - c.overlap - 1; tolerance > maxTol {
		tolerance = maxTol
	}

	n := len(tokens)
	drafts := make([]Draft, 0, n/(c.chunkSize-c.overlap)+1)

	start := 0
	for ordinal := 0; ; ordinal++ {
		end := start + c.chunkSize
		if end >= n {
			end = n
		} else if i := paragraphCut(tokens, end, tolerance); i > 0 {
			end = i
		}

		window := tokens[start:end]
		drafts = append(drafts, Draft{
			Content:    decode(window),
			TokenCount: len(window),
			Ordinal:    ordinal,
		})

		if end == n {
			break
		}
		start = end - c.overlap
	}

	return drafts, nil
}

// paragraphCut looks backwards from the hard cut for a token that
// closes a paragraph within tolerance tokens. It returns the index
// just past that token, or 0 if no clean boundary exists.
func paragraphCut(tokens []token, cut, tolerance int) int {
	for i := cut - 1; i >= cut-tolerance && i >= 0; i-- {
		if tokens[i].paragraphEnd {
			return i + 1
		}
	}
	return 0
}

// CountTokens returns the number of tokens in text.
func CountTokens(text string) int {
	return len(tokenize(text))
}
