package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/kunalbhatia/docsort/internal/core/domain"
	"github.com/kunalbhatia/docsort/internal/core/ports"
)

// UpdateFunc receives the full batch snapshot after every status transition.
// Implementations must not block for long; the pipeline worker calls it
// inline between files.
type UpdateFunc func(domain.BatchSnapshot)

// PipelineMetrics receives pipeline progress for instrumentation. All
// methods are called from the single processing goroutine.
type PipelineMetrics interface {
	StartDocument()
	FinishDocument(service, status, kind string, extractDuration time.Duration)
	FinishBatch(service string, duration time.Duration, err error)
	ObserveQueueLag(service string, lag time.Duration)
}

type ProcessBatchUseCase struct {
	repo        ports.BatchRepository
	storage     ports.ObjectStorage
	extractor   ports.TextExtractor
	classifier  ports.DocumentClassifier
	queue       ports.MessageQueue
	fileTimeout time.Duration
	metrics     PipelineMetrics
}

func NewProcessBatchUseCase(
	repo ports.BatchRepository,
	storage ports.ObjectStorage,
	extractor ports.TextExtractor,
	classifier ports.DocumentClassifier,
	queue ports.MessageQueue,
	fileTimeout time.Duration,
) *ProcessBatchUseCase {
	return &ProcessBatchUseCase{
		repo:        repo,
		storage:     storage,
		extractor:   extractor,
		classifier:  classifier,
		queue:       queue,
		fileTimeout: fileTimeout,
	}
}

// SetMetrics attaches an optional metrics sink. Must be called before the
// first Process call.
func (uc *ProcessBatchUseCase) SetMetrics(m PipelineMetrics) {
	uc.metrics = m
}

// ProcessByID loads a batch and runs the pipeline, mirroring every snapshot
// to the progress subject so the API can stream it.
func (uc *ProcessBatchUseCase) ProcessByID(ctx context.Context, batchID string) error {
	batch, err := uc.repo.GetBatch(ctx, batchID)
	if err != nil {
		return fmt.Errorf("fetch batch by id: %w", err)
	}

	return uc.Process(ctx, batch, func(snapshot domain.BatchSnapshot) {
		if pubErr := uc.queue.PublishBatchProgress(ctx, snapshot); pubErr != nil {
			slog.Warn("publish_batch_progress_failed", "batch_id", batchID, "error", pubErr)
		}
	})
}

// Process runs extraction and classification strictly sequentially in batch
// order. A single worker owns every record; observers only ever see copies.
// Per-file failures mark that document errored and the batch carries on.
// Cancellation takes effect at file boundaries only: files not yet started
// are marked skipped, finished ones keep their results.
func (uc *ProcessBatchUseCase) Process(ctx context.Context, batch *domain.Batch, onUpdate UpdateFunc) error {
	if onUpdate == nil {
		onUpdate = func(domain.BatchSnapshot) {}
	}

	batchStart := time.Now()
	if uc.metrics != nil && !batch.CreatedAt.IsZero() {
		uc.metrics.ObserveQueueLag("worker", batchStart.Sub(batch.CreatedAt))
	}

	// Initial snapshot with the whole batch pending.
	onUpdate(batch.Snapshot())

	for i, doc := range batch.Documents {
		if doc.Status != domain.StatusPending {
			continue
		}

		if ctx.Err() != nil {
			uc.skipRemaining(batch, i, onUpdate)
			break
		}

		uc.setStatus(ctx, batch, doc, domain.StatusProcessing, "")
		onUpdate(batch.Snapshot())

		if uc.metrics != nil {
			uc.metrics.StartDocument()
		}
		result, err := uc.processDocument(ctx, doc)
		if uc.metrics != nil {
			status := domain.StatusCompleted
			if err != nil {
				status = domain.StatusError
			}
			uc.metrics.FinishDocument("worker", string(status), string(doc.Kind), result.extractDuration)
		}
		// Mirror terminal states on a detached context so a cancellation
		// arriving mid-file does not lose the result of the file that was
		// allowed to finish.
		persistCtx := context.WithoutCancel(ctx)
		if err != nil {
			slog.Warn("document_process_failed",
				"batch_id", batch.ID,
				"doc_id", doc.ID,
				"file", doc.OriginalName,
				"error", err,
			)
			uc.setStatus(persistCtx, batch, doc, domain.StatusError, err.Error())
			onUpdate(batch.Snapshot())
			continue
		}

		doc.ExtractedText = result.text
		doc.Category = result.cls.Category
		doc.Confidence = result.cls.Confidence
		uc.persistResult(persistCtx, batch, doc, result)
		uc.setStatus(persistCtx, batch, doc, domain.StatusCompleted, "")
		onUpdate(batch.Snapshot())
	}

	final := batch.Snapshot()
	final.Done = true
	onUpdate(final)
	if uc.metrics != nil {
		uc.metrics.FinishBatch("worker", time.Since(batchStart), ctx.Err())
	}
	return nil
}

type documentResult struct {
	text            string
	cls             domain.Classification
	extractDuration time.Duration
}

func (uc *ProcessBatchUseCase) processDocument(ctx context.Context, doc *domain.Document) (documentResult, error) {
	// Cancellation is observed at file boundaries only, so the file runs on
	// a detached context. The per-file timeout is the one thing allowed to
	// interrupt it.
	fileCtx := context.WithoutCancel(ctx)

	data, err := uc.readSource(fileCtx, doc)
	if err != nil {
		return documentResult{}, domain.WrapError(domain.ErrExtraction, "read source", err)
	}

	extractCtx := fileCtx
	if uc.fileTimeout > 0 {
		var cancel context.CancelFunc
		extractCtx, cancel = context.WithTimeout(fileCtx, uc.fileTimeout)
		defer cancel()
	}

	extractStart := time.Now()
	text, err := uc.extractor.Extract(extractCtx, doc, data)
	extractDuration := time.Since(extractStart)
	if err != nil {
		return documentResult{extractDuration: extractDuration}, fmt.Errorf("extract text: %w", err)
	}

	cls, err := uc.classifier.Classify(fileCtx, text)
	if err != nil {
		// Classifier failures mean the extractor produced something outside
		// its domain; report them as extraction failures.
		return documentResult{extractDuration: extractDuration}, domain.WrapError(domain.ErrExtraction, "classify document", err)
	}

	return documentResult{text: text, cls: cls, extractDuration: extractDuration}, nil
}

func (uc *ProcessBatchUseCase) readSource(ctx context.Context, doc *domain.Document) ([]byte, error) {
	reader, err := uc.storage.Open(ctx, doc.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("open source document: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read source document: %w", err)
	}
	return data, nil
}

func (uc *ProcessBatchUseCase) skipRemaining(batch *domain.Batch, from int, onUpdate UpdateFunc) {
	// Persist skips with a background context; the batch context is already
	// canceled at this point.
	bg := context.Background()
	for _, doc := range batch.Documents[from:] {
		if doc.Status != domain.StatusPending {
			continue
		}
		uc.setStatus(bg, batch, doc, domain.StatusSkipped, "batch canceled before processing")
	}
	onUpdate(batch.Snapshot())
}

func (uc *ProcessBatchUseCase) persistResult(ctx context.Context, batch *domain.Batch, doc *domain.Document, result documentResult) {
	if err := uc.repo.SaveDocumentResult(ctx, batch.ID, doc.ID, result.cls, result.text); err != nil {
		slog.Warn("save_document_result_failed", "batch_id", batch.ID, "doc_id", doc.ID, "error", err)
	}
}

// setStatus mutates the in-memory record (the processing source of truth) and
// best-effort mirrors the transition to the repository. A failed mirror write
// never stops the batch.
func (uc *ProcessBatchUseCase) setStatus(ctx context.Context, batch *domain.Batch, doc *domain.Document, status domain.DocumentStatus, errMessage string) {
	doc.Status = status
	doc.Error = errMessage
	doc.UpdatedAt = time.Now().UTC()
	if err := uc.repo.UpdateDocumentStatus(ctx, batch.ID, doc.ID, status, errMessage); err != nil {
		slog.Warn("update_document_status_failed",
			"batch_id", batch.ID,
			"doc_id", doc.ID,
			"status", string(status),
			"error", err,
		)
	}
}
