// Package ocrimage runs Tesseract over scanned images via gosseract. A fresh
// client is created per invocation: Tesseract handles are not safe to share
// across calls, and the pipeline is strictly sequential anyway.
package ocrimage

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/kunalbhatia/docsort/internal/core/domain"
	"github.com/kunalbhatia/docsort/internal/infrastructure/resilience"
)

// DefaultLanguages covers Latin-script English plus Devanagari-script Hindi,
// matching the stock taxonomy's phrase lists.
var DefaultLanguages = []string{"eng", "hin"}

type ocrClient interface {
	SetImageFromBytes(data []byte) error
	SetLanguage(langs ...string) error
	Text() (string, error)
	Close() error
}

type Extractor struct {
	languages     []string
	clientFactory func() ocrClient
	executor      *resilience.Executor
}

type Option func(*Extractor)

// WithLanguages overrides the trained-data set handed to Tesseract.
func WithLanguages(langs []string) Option {
	return func(e *Extractor) {
		if len(langs) > 0 {
			e.languages = langs
		}
	}
}

// WithExecutor retries transient engine failures through the shared
// resilience executor.
func WithExecutor(executor *resilience.Executor) Option {
	return func(e *Extractor) { e.executor = executor }
}

func withClientFactory(factory func() ocrClient) Option {
	return func(e *Extractor) { e.clientFactory = factory }
}

func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{
		languages: DefaultLanguages,
		clientFactory: func() ocrClient {
			return gosseract.NewClient()
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract recognizes text from the image bytes and lowercases it. Engine
// failures (malformed image, unsupported format, missing trained data) come
// back as typed extraction errors, never as partial text.
func (e *Extractor) Extract(ctx context.Context, doc *domain.Document, data []byte) (string, error) {
	var text string
	recognize := func(ctx context.Context) error {
		var err error
		text, err = e.recognize(ctx, data)
		return err
	}

	var err error
	if e.executor != nil {
		err = e.executor.Execute(ctx, "ocr_recognize", recognize, resilience.OCRErrorClassifier)
	} else {
		err = recognize(ctx)
	}
	if err != nil {
		name := ""
		if doc != nil {
			name = doc.OriginalName
		}
		return "", domain.WrapError(domain.ErrExtraction, "ocr image",
			fmt.Errorf("recognize %q: %w", name, err))
	}
	return strings.ToLower(text), nil
}

// recognize drives one client for one image. The engine call is blocking
// cgo; it runs in its own goroutine so a canceled or expired context returns
// immediately even though the engine finishes in the background.
func (e *Extractor) recognize(ctx context.Context, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty image payload")
	}

	type outcome struct {
		text string
		err  error
	}
	done := make(chan outcome, 1)

	go func() {
		client := e.clientFactory()
		defer client.Close()

		if err := client.SetLanguage(e.languages...); err != nil {
			done <- outcome{err: fmt.Errorf("set languages %v: %w", e.languages, err)}
			return
		}
		if err := client.SetImageFromBytes(data); err != nil {
			done <- outcome{err: fmt.Errorf("set image: %w", err)}
			return
		}
		text, err := client.Text()
		if err != nil {
			done <- outcome{err: fmt.Errorf("recognize text: %w", err)}
			return
		}
		done <- outcome{text: strings.TrimSpace(text)}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-done:
		return res.text, res.err
	}
}
