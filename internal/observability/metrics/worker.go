package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	batchTotal       *prometheus.CounterVec
	batchDuration    *prometheus.HistogramVec
	documentTotal    *prometheus.CounterVec
	extractDuration  *prometheus.HistogramVec
	documentInFlight prometheus.Gauge
	queueLag         *prometheus.HistogramVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	batchTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docsort",
			Subsystem: "worker",
			Name:      "batch_process_total",
			Help:      "Total processed batches by outcome.",
		},
		[]string{"service", "status"},
	)
	batchDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docsort",
			Subsystem: "worker",
			Name:      "batch_process_duration_seconds",
			Help:      "Whole-batch processing duration in seconds.",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800},
		},
		[]string{"service", "status"},
	)
	documentTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docsort",
			Subsystem: "worker",
			Name:      "document_process_total",
			Help:      "Total processed documents by terminal status.",
		},
		[]string{"service", "status", "kind"},
	)
	extractDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docsort",
			Subsystem: "worker",
			Name:      "extract_duration_seconds",
			Help:      "Per-document text extraction duration in seconds. OCR dominates.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"service", "kind"},
	)
	documentInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "docsort",
			Subsystem: "worker",
			Name:      "document_process_in_flight",
			Help:      "Always 0 or 1: the pipeline is strictly sequential.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	queueLag := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docsort",
			Subsystem: "worker",
			Name:      "queue_lag_seconds",
			Help:      "Delay between batch creation and processing start.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"service"},
	)

	registry.MustRegister(batchTotal, batchDuration, documentTotal, extractDuration, documentInFlight, queueLag)

	return &WorkerMetrics{
		registry:         registry,
		batchTotal:       batchTotal,
		batchDuration:    batchDuration,
		documentTotal:    documentTotal,
		extractDuration:  extractDuration,
		documentInFlight: documentInFlight,
		queueLag:         queueLag,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartDocument() {
	m.documentInFlight.Inc()
}

func (m *WorkerMetrics) FinishDocument(service, status, kind string, extractDuration time.Duration) {
	m.documentInFlight.Dec()
	m.documentTotal.WithLabelValues(service, status, kind).Inc()
	if extractDuration > 0 {
		m.extractDuration.WithLabelValues(service, kind).Observe(extractDuration.Seconds())
	}
}

func (m *WorkerMetrics) FinishBatch(service string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.batchTotal.WithLabelValues(service, status).Inc()
	m.batchDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) ObserveQueueLag(service string, lag time.Duration) {
	if lag < 0 {
		return
	}
	m.queueLag.WithLabelValues(service).Observe(lag.Seconds())
}
