package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kunalbhatia/docsort/internal/bootstrap"
	"github.com/kunalbhatia/docsort/internal/config"
	"github.com/kunalbhatia/docsort/internal/observability/logging"
	"github.com/kunalbhatia/docsort/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	logging.Setup("worker", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics("worker")
	app.ProcessUC.SetMetrics(workerMetrics)

	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: workerMetrics.Handler(),
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics server error: %v", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	// A batch gets one hour end to end; per-file OCR has its own timeout
	// inside the pipeline.
	log.Printf("worker subscribed to %s", cfg.NATSCreatedSubject)
	err = app.Queue.SubscribeBatchCreated(ctx, func(handlerCtx context.Context, batchID string) error {
		processCtx, cancel := context.WithTimeout(handlerCtx, time.Hour)
		defer cancel()
		return app.ProcessUC.ProcessByID(processCtx, batchID)
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
}
