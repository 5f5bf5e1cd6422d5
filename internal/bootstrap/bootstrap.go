package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/kunalbhatia/docsort/internal/config"
	"github.com/kunalbhatia/docsort/internal/core/ports"
	"github.com/kunalbhatia/docsort/internal/core/usecase"
	"github.com/kunalbhatia/docsort/internal/infrastructure/archive/ziparchive"
	"github.com/kunalbhatia/docsort/internal/infrastructure/classifier/keyword"
	"github.com/kunalbhatia/docsort/internal/infrastructure/extractor"
	"github.com/kunalbhatia/docsort/internal/infrastructure/extractor/ocrimage"
	"github.com/kunalbhatia/docsort/internal/infrastructure/extractor/pdftext"
	"github.com/kunalbhatia/docsort/internal/infrastructure/extractor/rawpdf"
	"github.com/kunalbhatia/docsort/internal/infrastructure/queue/nats"
	"github.com/kunalbhatia/docsort/internal/infrastructure/repository/postgres"
	"github.com/kunalbhatia/docsort/internal/infrastructure/resilience"
	"github.com/kunalbhatia/docsort/internal/infrastructure/storage/localfs"
)

type App struct {
	Config config.Config

	Queue     ports.MessageQueue
	Repo      ports.BatchRepository
	IngestUC  *usecase.IngestBatchUseCase
	ProcessUC *usecase.ProcessBatchUseCase
	ExportUC  *usecase.ExportBatchUseCase

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewBatchRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	queueExecutor := resilience.NewExecutor(resilience.QueuePublishConfig())
	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSCreatedSubject, cfg.NATSProgressSubject, nats.Options{
		ResilienceExecutor: queueExecutor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	taxonomy, err := config.LoadTaxonomy(cfg.TaxonomyPath)
	if err != nil {
		return nil, fmt.Errorf("load taxonomy: %w", err)
	}
	classifier := keyword.NewClassifier(taxonomy, cfg.MinConfidence)

	imageExtractor := ocrimage.NewExtractor(
		ocrimage.WithLanguages(cfg.OCRLanguages),
		ocrimage.WithExecutor(resilience.NewExecutor(resilience.OCRConfig())),
	)
	var pdfExtractor ports.TextExtractor = rawpdf.NewExtractor()
	if cfg.PDFExtractMode == config.PDFModeTextLayer {
		pdfExtractor = pdftext.NewExtractor()
	}
	dispatcher := extractor.NewDispatcher(imageExtractor, pdfExtractor)

	archiveWriter := ziparchive.NewWriter(cfg.ArchiveIncludeReport)

	fileTimeout := time.Duration(cfg.OCRTimeoutSeconds) * time.Second

	ingestUC := usecase.NewIngestBatchUseCase(repo, storage, queue)
	processUC := usecase.NewProcessBatchUseCase(repo, storage, dispatcher, classifier, queue, fileTimeout)
	exportUC := usecase.NewExportBatchUseCase(repo, storage, archiveWriter)

	return &App{
		Config: cfg,
		Queue:  queue,
		Repo:   repo,

		IngestUC:  ingestUC,
		ProcessUC: processUC,
		ExportUC:  exportUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
