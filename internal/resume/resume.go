// Package resume turns an uploaded CV into plain text the interview stages
// can use as background.
package resume

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// MaxChars bounds the text kept from a résumé.
const MaxChars = 8000

var (
	// ErrUnsupported is returned for files that are neither PDF nor text.
	ErrUnsupported = errors.New("unsupported resume format")
	// ErrEmpty is returned when no text could be extracted.
	ErrEmpty = errors.New("resume contains no text")
)

var pdfMagic = []byte("%PDF-")

// ReadFile extracts the text of the résumé at path.
func ReadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading resume: %w", err)
	}
	return Extract(filepath.Base(path), data)
}

// Extract returns the cleaned text of a PDF or plain-text résumé. name is
// only used to pick the format when the content is ambiguous.
func Extract(name string, data []byte) (string, error) {
	var text string
	switch {
	case bytes.HasPrefix(data, pdfMagic) || strings.EqualFold(filepath.Ext(name), ".pdf"):
		t, err := pdfText(data)
		if err != nil {
			return "", err
		}
		text = t
	case utf8.Valid(data) && !bytes.ContainsRune(data, 0):
		text = string(data)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupported, name)
	}

	text = Clean(text)
	if text == "" {
		return "", ErrEmpty
	}
	return text, nil
}

// pdfText extracts plain text from a PDF. The parser panics on some
// malformed files, so panics are turned into errors.
func pdfText(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parsing pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("parsing pdf: %w", err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extracting pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("reading pdf text: %w", err)
	}
	return buf.String(), nil
}

// Clean collapses runs of spaces, drops blank lines and truncates the text to
// MaxChars on a word boundary.
func Clean(s string) string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	kept := lines[:0]
	for _, l := range lines {
		if l = strings.Join(strings.Fields(l), " "); l != "" {
			kept = append(kept, l)
		}
	}
	out := strings.Join(kept, "\n")
	if len(out) <= MaxChars {
		return out
	}

	cut := out[:MaxChars]
	for !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}
	if i := strings.LastIndexAny(cut, " \n"); i > MaxChars/2 {
		cut = cut[:i]
	}
	return cut
}
