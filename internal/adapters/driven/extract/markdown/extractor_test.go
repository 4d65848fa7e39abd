package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paperstack-labs/paperstack-cli/internal/core/domain"
)

func TestExtract_StripsFormatting(t *testing.T) {
	e := New()

	raw := []byte(`# Title

Some **bold** and _italic_ text with [a link](https://example.com).

- first item
- second item

` + "```go\nfunc main() {}\n```" + `

> a quote
`)

	text, err := e.Extract("doc.md", raw)

	require.NoError(t, err)
	assert.NotContains(t, text, "#")
	assert.NotContains(t, text, "**")
	assert.NotContains(t, text, "```")
	assert.NotContains(t, text, "https://example.com")
	assert.Contains(t, text, "bold")
	assert.Contains(t, text, "a link")
	assert.Contains(t, text, "first item")
	assert.Contains(t, text, "a quote")
}

func TestExtract_KeepsParagraphBreaks(t *testing.T) {
	e := New()

	text, err := e.Extract("doc.md", []byte("First paragraph.\n\n\n\nSecond paragraph."))

	require.NoError(t, err)
	assert.Equal(t, "First paragraph.\n\nSecond paragraph.", text)
}

func TestExtract_RejectsEmptyAfterStripping(t *testing.T) {
	e := New()

	_, err := e.Extract("doc.md", []byte("```\nonly code\n```"))

	assert.ErrorIs(t, err, domain.ErrRejectedIngestion)
}

func TestExtract_RejectsInvalidUTF8(t *testing.T) {
	e := New()

	_, err := e.Extract("doc.md", []byte{0xff, 0xfe})

	assert.ErrorIs(t, err, domain.ErrRejectedIngestion)
}
