package driven

// TextExtractor turns raw uploaded bytes into plain text.
//
// Extraction failures (corrupt, encrypted, binary input) surface as
// errors wrapping domain.ErrRejectedIngestion; an extractor never
// silently produces empty text for unreadable input.
type TextExtractor interface {
	// Extract returns the plain text content of the raw bytes.
	// filename is advisory (format detection by extension).
	Extract(filename string, raw []byte) (string, error)
}
