package rawpdf

import (
	"context"
	"strings"
	"testing"
)

func TestExtractKeepsPrintableTextLowercased(t *testing.T) {
	e := NewExtractor()

	got, err := e.Extract(context.Background(), nil, []byte("Aadhar Card UIDAI"))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if got != "aadhar card uidai" {
		t.Fatalf("Extract() = %q", got)
	}
}

func TestExtractReplacesControlAndBinaryBytes(t *testing.T) {
	e := NewExtractor()

	input := []byte("%PDF-1.4\x00\x01\x02stream\x1fAadhar\x7f")
	got, err := e.Extract(context.Background(), nil, input)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if strings.ContainsAny(got, "\x00\x01\x02\x1f\x7f") {
		t.Fatalf("control bytes survived: %q", got)
	}
	if !strings.Contains(got, "%pdf-1.4") || !strings.Contains(got, "aadhar") {
		t.Fatalf("printable content lost: %q", got)
	}
}

func TestExtractKeepsDevanagari(t *testing.T) {
	e := NewExtractor()

	got, err := e.Extract(context.Background(), nil, []byte("आधार card"))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if !strings.Contains(got, "आधार") {
		t.Fatalf("Devanagari text should survive the raw scan: %q", got)
	}
}

func TestExtractReplacesInvalidUTF8BytesWithSpaces(t *testing.T) {
	e := NewExtractor()

	got, err := e.Extract(context.Background(), nil, []byte{'a', 0xff, 0xfe, 'b'})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if got != "a  b" {
		t.Fatalf("Extract() = %q, want %q", got, "a  b")
	}
}

func TestExtractEmptyInput(t *testing.T) {
	e := NewExtractor()

	got, err := e.Extract(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if got != "" {
		t.Fatalf("Extract() = %q, want empty", got)
	}
}
