// Package ingest loads manuscripts from text input and files.
//
// Supported files are plain text (.txt, .md), Word documents (.docx) and
// PDF (.pdf). Every loader caps its result at MaxChars characters.
package ingest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// MaxChars is the maximum manuscript length in characters.
const MaxChars = 30000

// ErrUnsupportedFormat is returned for file extensions ingest cannot read.
var ErrUnsupportedFormat = errors.New("ingest: unsupported file format")

// FromText trims s and caps it at MaxChars.
func FromText(s string) string {
	return Truncate(strings.TrimSpace(s), MaxChars)
}

// FromFile reads the manuscript at path, choosing a reader by extension.
func FromFile(path string) (string, error) {
	var (
		text string
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".txt", ".md":
		text, err = readPlain(path)
	case ".docx":
		text, err = readDocx(path)
	case ".pdf":
		text, err = readPDF(path)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return "", fmt.Errorf("ingest %s: %w", filepath.Base(path), err)
	}
	return Truncate(text, MaxChars), nil
}

func readPlain(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.ToValidUTF8(string(data), ""), nil
}

// Truncate returns the first n characters of s.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
