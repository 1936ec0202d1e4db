package ingest

import (
	"strings"
	"unicode"
)

// Normalize removes carriage returns and surrounding whitespace.
func Normalize(text string) string {
	return strings.TrimSpace(strings.ReplaceAll(text, "\r", ""))
}

// Paragraphs splits text on blank lines and drops empty paragraphs.
func Paragraphs(text string) []string {
	var out []string
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Sentences splits text after sentence terminators (. ! ?) that are
// followed by whitespace.
func Sentences(text string) []string {
	var (
		out   []string
		start int
		prev  rune
	)
	flush := func(end int) {
		if s := strings.TrimSpace(text[start:end]); s != "" {
			out = append(out, s)
		}
	}
	for i, r := range text {
		if unicode.IsSpace(r) && isTerminator(prev) {
			flush(i)
			start = i
		}
		prev = r
	}
	flush(len(text))
	return out
}

// CountTerminators counts sentence terminators in text.
func CountTerminators(text string) int {
	return strings.Count(text, ".") + strings.Count(text, "!") + strings.Count(text, "?")
}

func isTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
