// Package extract selects a text extractor per file. Markdown and
// HTML get format-aware stripping; everything else goes through the
// plain-text extractor, which rejects binary input.
package extract

import (
	"path/filepath"
	"strings"

	"github.com/paperstack-labs/paperstack-cli/internal/adapters/driven/extract/html"
	"github.com/paperstack-labs/paperstack-cli/internal/adapters/driven/extract/markdown"
	"github.com/paperstack-labs/paperstack-cli/internal/adapters/driven/extract/plaintext"
	"github.com/paperstack-labs/paperstack-cli/internal/core/ports/driven"
)

// Ensure Dispatcher implements the interface.
var _ driven.TextExtractor = (*Dispatcher)(nil)

// Dispatcher routes extraction to a format extractor by file extension.
type Dispatcher struct {
	markdown  driven.TextExtractor
	html      driven.TextExtractor
	plaintext driven.TextExtractor
}

// NewDispatcher creates a dispatcher over the built-in extractors.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		markdown:  markdown.New(),
		html:      html.New(),
		plaintext: plaintext.New(),
	}
}

// Extract picks an extractor by extension and delegates to it.
func (d *Dispatcher) Extract(filename string, raw []byte) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".md", ".markdown":
		return d.markdown.Extract(filename, raw)
	case ".html", ".htm", ".xhtml":
		return d.html.Extract(filename, raw)
	default:
		return d.plaintext.Extract(filename, raw)
	}
}
