package ports

import (
	"context"
	"io"

	"github.com/kunalbhatia/docsort/internal/core/domain"
)

// BatchRepository persists batch and document state.
type BatchRepository interface {
	CreateBatch(ctx context.Context, batch *domain.Batch) error
	GetBatch(ctx context.Context, id string) (*domain.Batch, error)
	UpdateDocumentStatus(ctx context.Context, batchID, docID string, status domain.DocumentStatus, errMessage string) error
	SaveDocumentResult(ctx context.Context, batchID, docID string, cls domain.Classification, extractedText string) error
}

// ObjectStorage stores the original uploaded bytes. Delete exists for
// compensating cleanup when a batch fails to materialize.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// MessageQueue carries batch lifecycle events between api and worker.
// Progress publication is fire-and-forget: a lost snapshot is superseded by
// the next one.
type MessageQueue interface {
	PublishBatchCreated(ctx context.Context, batchID string) error
	SubscribeBatchCreated(ctx context.Context, handler func(context.Context, string) error) error
	PublishBatchProgress(ctx context.Context, snapshot domain.BatchSnapshot) error
	SubscribeBatchProgress(ctx context.Context, batchID string, handler func(domain.BatchSnapshot)) (func(), error)
}

// TextExtractor extracts lowercase text from a stored document's bytes.
type TextExtractor interface {
	Extract(ctx context.Context, doc *domain.Document, data []byte) (string, error)
}

// DocumentClassifier scores extracted text against the taxonomy.
type DocumentClassifier interface {
	Classify(ctx context.Context, text string) (domain.Classification, error)
}

// ArchiveWriter builds the downloadable archive from a category grouping and
// each document's original bytes.
type ArchiveWriter interface {
	Write(ctx context.Context, groups []domain.CategoryGroup, contents map[string][]byte) ([]byte, error)
}
