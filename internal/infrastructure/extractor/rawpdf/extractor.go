// Package rawpdf is the best-effort PDF text path: it scans the raw file
// bytes and keeps printable runes, without rasterizing pages or running OCR.
// Binary-encoded PDF content comes out mostly as noise; the point is only to
// give the classifier something to match when a PDF happens to carry plain
// text. Real PDF OCR is a future extension, not a silent upgrade here.
package rawpdf

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/kunalbhatia/docsort/internal/core/domain"
)

type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract keeps printable ASCII (0x20-0x7E) and U+00A0..U+FFFF; every other
// rune and every invalid byte becomes a space. The result is lowercased.
func (e *Extractor) Extract(_ context.Context, _ *domain.Document, data []byte) (string, error) {
	var b strings.Builder
	b.Grow(len(data))

	for i := 0; i < len(data); {
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size == 1 {
			b.WriteByte(' ')
			i++
			continue
		}
		if printable(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
		i += size
	}

	return strings.ToLower(b.String()), nil
}

func printable(r rune) bool {
	if r >= 0x20 && r <= 0x7E {
		return true
	}
	return r >= 0xA0 && r <= 0xFFFF
}
