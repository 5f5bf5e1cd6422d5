package ports

import (
	"context"
	"io"

	"github.com/kunalbhatia/docsort/internal/core/domain"
)

// FileUpload is one incoming file in upload order.
type FileUpload struct {
	Filename string
	MimeType string
	Body     io.Reader
}

// BatchIngestor creates a batch from an ordered upload set.
type BatchIngestor interface {
	CreateBatch(ctx context.Context, uploads []FileUpload) (*domain.Batch, error)
}

// BatchProcessor runs the sequential extract+classify pipeline for a batch.
type BatchProcessor interface {
	ProcessByID(ctx context.Context, batchID string) error
}

// BatchReader serves batch snapshots to the API.
type BatchReader interface {
	GetBatch(ctx context.Context, id string) (*domain.Batch, error)
}

// ArchiveExporter produces the category-organized archive for a batch.
type ArchiveExporter interface {
	ExportBatch(ctx context.Context, batchID string) ([]byte, error)
}
