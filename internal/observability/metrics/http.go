package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	batchesCreatedTotal *prometheus.CounterVec
	batchSizeDocs       *prometheus.HistogramVec
	exportsTotal        *prometheus.CounterVec
	exportBytes         *prometheus.HistogramVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docsort",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docsort",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "docsort",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	batchesCreatedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docsort",
			Subsystem: "ingest",
			Name:      "batches_created_total",
			Help:      "Total created batches.",
		},
		[]string{"service"},
	)
	batchSizeDocs := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docsort",
			Subsystem: "ingest",
			Name:      "batch_size_documents",
			Help:      "Distribution of documents per created batch.",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 21, 34, 55},
		},
		[]string{"service"},
	)
	exportsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docsort",
			Subsystem: "export",
			Name:      "archives_total",
			Help:      "Total archive exports by outcome.",
		},
		[]string{"service", "status"},
	)
	exportBytes := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docsort",
			Subsystem: "export",
			Name:      "archive_bytes",
			Help:      "Exported archive size in bytes.",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 10),
		},
		[]string{"service"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		batchesCreatedTotal,
		batchSizeDocs,
		exportsTotal,
		exportBytes,
	)

	return &HTTPServerMetrics{
		registry:            registry,
		requestTotal:        requestTotal,
		requestDuration:     requestDuration,
		requestInFlight:     requestInFlight,
		batchesCreatedTotal: batchesCreatedTotal,
		batchSizeDocs:       batchSizeDocs,
		exportsTotal:        exportsTotal,
		exportBytes:         exportBytes,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &metricsStatusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// normalizePath collapses batch ids so label cardinality stays bounded.
func normalizePath(path string) string {
	if !strings.HasPrefix(path, "/v1/batches/") {
		return path
	}
	rest := strings.TrimPrefix(path, "/v1/batches/")
	switch {
	case strings.HasSuffix(rest, "/events"):
		return "/v1/batches/{batch_id}/events"
	case strings.HasSuffix(rest, "/archive"):
		return "/v1/batches/{batch_id}/archive"
	default:
		return "/v1/batches/{batch_id}"
	}
}

func (m *HTTPServerMetrics) RecordBatchCreated(service string, documents int) {
	m.batchesCreatedTotal.WithLabelValues(service).Inc()
	m.batchSizeDocs.WithLabelValues(service).Observe(float64(documents))
}

func (m *HTTPServerMetrics) RecordExport(service string, size int, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.exportsTotal.WithLabelValues(service, status).Inc()
	if err == nil && size > 0 {
		m.exportBytes.WithLabelValues(service).Observe(float64(size))
	}
}

type metricsStatusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *metricsStatusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *metricsStatusRecorder) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
