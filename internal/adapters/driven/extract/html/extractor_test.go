package html

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paperstack-labs/paperstack-cli/internal/core/domain"
)

func TestExtract_StripsMarkup(t *testing.T) {
	e := New()

	raw := []byte(`<!DOCTYPE html>
<html>
<head><title>Ignored</title><style>body { color: red; }</style></head>
<body>
<script>alert("nope");</script>
<h1>Heading</h1>
<p>First paragraph with &amp; entity.</p>
<p>Second paragraph.</p>
<!-- a comment -->
</body>
</html>`)

	text, err := e.Extract("page.html", raw)

	require.NoError(t, err)
	assert.NotContains(t, text, "<")
	assert.NotContains(t, text, "alert")
	assert.NotContains(t, text, "color: red")
	assert.NotContains(t, text, "a comment")
	assert.NotContains(t, text, "Ignored")
	assert.Contains(t, text, "Heading")
	assert.Contains(t, text, "First paragraph with & entity.")
	assert.Contains(t, text, "Second paragraph.")
}

func TestExtract_BlockElementsBecomeLineBreaks(t *testing.T) {
	e := New()

	text, err := e.Extract("page.html", []byte("<p>one</p><p>two</p>"))

	require.NoError(t, err)
	assert.Equal(t, "one\ntwo", text)
}

func TestExtract_RejectsEmptyAfterStripping(t *testing.T) {
	e := New()

	_, err := e.Extract("page.html", []byte("<script>only()</script>"))

	assert.ErrorIs(t, err, domain.ErrRejectedIngestion)
}
