package usecase

import (
	"context"
	"fmt"
	"io"

	"github.com/kunalbhatia/docsort/internal/core/domain"
	"github.com/kunalbhatia/docsort/internal/core/ports"
)

type ExportBatchUseCase struct {
	repo    ports.BatchRepository
	storage ports.ObjectStorage
	writer  ports.ArchiveWriter
}

func NewExportBatchUseCase(
	repo ports.BatchRepository,
	storage ports.ObjectStorage,
	writer ports.ArchiveWriter,
) *ExportBatchUseCase {
	return &ExportBatchUseCase{
		repo:    repo,
		storage: storage,
		writer:  writer,
	}
}

// ExportBatch builds the category-organized archive for a batch's completed
// documents. The operation is atomic: any read or write failure fails the
// whole export and no partial archive leaves this method.
func (uc *ExportBatchUseCase) ExportBatch(ctx context.Context, batchID string) ([]byte, error) {
	batch, err := uc.repo.GetBatch(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("fetch batch by id: %w", err)
	}

	snapshot := batch.Snapshot()
	groups := domain.GroupByCategory(snapshot.Documents)
	if len(groups) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "export batch",
			fmt.Errorf("batch %s has no completed documents", batchID))
	}

	contents := make(map[string][]byte)
	for _, group := range groups {
		for _, doc := range group.Documents {
			data, err := uc.readOriginal(ctx, doc)
			if err != nil {
				return nil, domain.WrapError(domain.ErrExport, "read original bytes",
					fmt.Errorf("document %s (%s): %w", doc.ID, doc.OriginalName, err))
			}
			contents[doc.ID] = data
		}
	}

	archive, err := uc.writer.Write(ctx, groups, contents)
	if err != nil {
		return nil, domain.WrapError(domain.ErrExport, "build archive", err)
	}
	return archive, nil
}

func (uc *ExportBatchUseCase) readOriginal(ctx context.Context, doc domain.Document) ([]byte, error) {
	reader, err := uc.storage.Open(ctx, doc.StorageKey)
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return io.ReadAll(reader)
}
