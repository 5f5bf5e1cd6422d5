// Package extractor routes a document to the extractor for its file kind.
// Kind is decided at upload time; anything else never reaches a batch.
package extractor

import (
	"context"
	"fmt"

	"github.com/kunalbhatia/docsort/internal/core/domain"
	"github.com/kunalbhatia/docsort/internal/core/ports"
)

type Dispatcher struct {
	image ports.TextExtractor
	pdf   ports.TextExtractor
}

func NewDispatcher(image, pdf ports.TextExtractor) *Dispatcher {
	return &Dispatcher{image: image, pdf: pdf}
}

func (d *Dispatcher) Extract(ctx context.Context, doc *domain.Document, data []byte) (string, error) {
	switch doc.Kind {
	case domain.KindImage:
		return d.image.Extract(ctx, doc, data)
	case domain.KindPDF:
		return d.pdf.Extract(ctx, doc, data)
	default:
		return "", domain.WrapError(domain.ErrExtraction, "dispatch extractor",
			fmt.Errorf("document %s has unknown kind %q", doc.ID, doc.Kind))
	}
}
