package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcher_RoutesByExtension(t *testing.T) {
	d := NewDispatcher()

	tests := []struct {
		name     string
		filename string
		raw      string
		want     string
	}{
		{"markdown", "doc.md", "# Title\n\nBody text.", "Title\n\nBody text."},
		{"markdown alt ext", "doc.markdown", "**bold**", "bold"},
		{"html", "page.html", "<p>hello</p>", "hello"},
		{"htm", "page.htm", "<p>hello</p>", "hello"},
		{"plain text", "notes.txt", "# not a heading", "# not a heading"},
		{"unknown ext", "data.log", "raw line", "raw line"},
		{"case insensitive", "DOC.MD", "# Title\n\nBody.", "Title\n\nBody."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := d.Extract(tt.filename, []byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDispatcher_PropagatesRejection(t *testing.T) {
	d := NewDispatcher()

	_, err := d.Extract("empty.txt", nil)
	assert.Error(t, err)
}
