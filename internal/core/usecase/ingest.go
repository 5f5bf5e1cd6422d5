package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kunalbhatia/docsort/internal/core/domain"
	"github.com/kunalbhatia/docsort/internal/core/ports"
)

type IngestBatchUseCase struct {
	repo    ports.BatchRepository
	storage ports.ObjectStorage
	queue   ports.MessageQueue
}

func NewIngestBatchUseCase(
	repo ports.BatchRepository,
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
) *IngestBatchUseCase {
	return &IngestBatchUseCase{
		repo:    repo,
		storage: storage,
		queue:   queue,
	}
}

// CreateBatch validates and stores every upload, creates the full batch with
// all records pending, persists it, and announces it to the worker. The batch
// exists in its entirety before any processing starts.
func (uc *IngestBatchUseCase) CreateBatch(ctx context.Context, uploads []ports.FileUpload) (*domain.Batch, error) {
	if len(uploads) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "create batch", fmt.Errorf("no files in upload"))
	}

	kinds := make([]domain.FileKind, len(uploads))
	for i, up := range uploads {
		kind, err := kindFromMime(up.MimeType)
		if err != nil {
			return nil, domain.WrapError(domain.ErrInvalidInput, "create batch",
				fmt.Errorf("file %q: %w", up.Filename, err))
		}
		kinds[i] = kind
	}

	batchID := uuid.NewString()
	now := time.Now().UTC()
	batch := &domain.Batch{ID: batchID, CreatedAt: now}

	// Objects saved before a later failure must not linger: until the batch
	// record exists nothing references them.
	var savedKeys []string
	cleanup := func() {
		cleanupCtx := context.WithoutCancel(ctx)
		for _, key := range savedKeys {
			if err := uc.storage.Delete(cleanupCtx, key); err != nil {
				slog.Warn("cleanup_saved_object_failed", "batch_id", batchID, "key", key, "error", err)
			}
		}
	}

	for i, up := range uploads {
		docID := fmt.Sprintf("doc_%d", i)
		storageKey := fmt.Sprintf("%s/%s_%s", batchID, docID, sanitizeFilename(up.Filename))

		counter := &countingReader{r: up.Body}
		if err := uc.storage.Save(ctx, storageKey, counter); err != nil {
			cleanup()
			return nil, fmt.Errorf("save %q to object storage: %w", up.Filename, err)
		}
		savedKeys = append(savedKeys, storageKey)

		batch.Documents = append(batch.Documents, &domain.Document{
			ID:           docID,
			BatchID:      batchID,
			Position:     i,
			OriginalName: up.Filename,
			StorageKey:   storageKey,
			Kind:         kinds[i],
			ByteSize:     counter.n,
			Category:     domain.CategoryUnclassified,
			Status:       domain.StatusPending,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}

	if err := uc.repo.CreateBatch(ctx, batch); err != nil {
		cleanup()
		return nil, fmt.Errorf("create batch records: %w", err)
	}

	if err := uc.queue.PublishBatchCreated(ctx, batch.ID); err != nil {
		return nil, fmt.Errorf("publish batch created event: %w", err)
	}

	return batch, nil
}

func kindFromMime(mimeType string) (domain.FileKind, error) {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	switch {
	case mt == "application/pdf":
		return domain.KindPDF, nil
	case strings.HasPrefix(mt, "image/"):
		return domain.KindImage, nil
	default:
		return "", fmt.Errorf("unsupported file type %q", mimeType)
	}
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." {
		return "document.bin"
	}
	return base
}
