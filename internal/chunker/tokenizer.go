package chunker

import "strings"

// token is one tokenizer unit: a run of non-whitespace bytes together
// with the whitespace that follows it. Concatenating token texts in
// order reproduces the input exactly, which is what makes window
// decoding lossless.
type token struct {
	// text is the raw slice of the input covered by this token,
	// including leading whitespace (first token only) and trailing
	// whitespace.
	text string

	// paragraphEnd reports whether the trailing whitespace contains a
	// blank line, i.e. the token closes a paragraph.
	paragraphEnd bool
}

// tokenize splits text into tokens. The split is byte-positional and
// has no locale or model dependence, so identical input always yields
// identical tokens. Whitespace-only input yields no tokens.
func tokenize(text string) []token {
	var tokens []token

	i := 0
	n := len(text)

	// Leading whitespace attaches to the first token.
	start := 0
	for i < n && isSpace(text[i]) {
		i++
	}
	if i == n {
		return nil
	}

	for i < n {
		// Consume the word.
		for i < n && !isSpace(text[i]) {
			i++
		}
		// Consume the whitespace run after it.
		wsStart := i
		for i < n && isSpace(text[i]) {
			i++
		}
		tokens = append(tokens, token{
			text:         text[start:i],
			paragraphEnd: strings.Count(text[wsStart:i], "\n") >= 2,
		})
		start = i
	}

	return tokens
}

// isSpace matches the ASCII whitespace handled by the tokenizer.
func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f' || b == '\v'
}

// decode reassembles a window of tokens into text. Interior
// whitespace is preserved; the window's outer edges are trimmed so
// stored segments do not begin or end mid-whitespace.
func decode(tokens []token) string {
	var b strings.Builder
	for _, t := range tokens {
		b.WriteString(t.text)
	}
	return strings.TrimSpace(b.String())
}
