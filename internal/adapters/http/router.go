package httpadapter

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kunalbhatia/docsort/internal/config"
	"github.com/kunalbhatia/docsort/internal/core/ports"
	"github.com/kunalbhatia/docsort/internal/observability/metrics"
)

const maxUploadMemory = 64 << 20

type Router struct {
	cfg      config.Config
	ingestor ports.BatchIngestor
	reader   ports.BatchReader
	exporter ports.ArchiveExporter
	queue    ports.MessageQueue
	metrics  *metrics.HTTPServerMetrics
}

func NewRouter(
	cfg config.Config,
	ingestor ports.BatchIngestor,
	reader ports.BatchReader,
	exporter ports.ArchiveExporter,
	queue ports.MessageQueue,
	httpMetrics *metrics.HTTPServerMetrics,
) *Router {
	return &Router{
		cfg:      cfg,
		ingestor: ingestor,
		reader:   reader,
		exporter: exporter,
		queue:    queue,
		metrics:  httpMetrics,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/batches", rt.createBatch)
	mux.HandleFunc("/v1/batches/", rt.batchSubroutes)

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware("api", handler)
	}
	if rt.cfg.APIMaxConcurrent > 0 {
		waitTimeout := time.Duration(rt.cfg.APIBackpressureTimeout) * time.Millisecond
		handler = backpressureMiddleware(handler, rt.cfg.APIMaxConcurrent, waitTimeout)
	}
	if rt.cfg.APIRateLimitRPS > 0 {
		handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	}
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) createBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid multipart request"})
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'files' is required"})
		return
	}

	uploads := make([]ports.FileUpload, 0, len(headers))
	for _, header := range headers {
		file, err := header.Open()
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("open upload %q: %v", header.Filename, err)})
			return
		}
		defer file.Close()

		uploads = append(uploads, ports.FileUpload{
			Filename: header.Filename,
			MimeType: header.Header.Get("Content-Type"),
			Body:     file,
		})
	}

	batch, err := rt.ingestor.CreateBatch(r.Context(), uploads)
	if err != nil {
		writeError(w, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordBatchCreated("api", len(batch.Documents))
	}

	writeJSON(w, http.StatusAccepted, batch.Snapshot())
}

// batchSubroutes dispatches /v1/batches/{id}, /v1/batches/{id}/events and
// /v1/batches/{id}/archive.
func (rt *Router) batchSubroutes(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/batches/")
	batchID, action, _ := strings.Cut(rest, "/")
	if batchID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "batch id is required"})
		return
	}

	switch action {
	case "":
		rt.getBatch(w, r, batchID)
	case "events":
		rt.streamBatchEvents(w, r, batchID)
	case "archive":
		rt.downloadArchive(w, r, batchID)
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	}
}

func (rt *Router) getBatch(w http.ResponseWriter, r *http.Request, batchID string) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	batch, err := rt.reader.GetBatch(r.Context(), batchID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, batch.Snapshot())
}

func (rt *Router) downloadArchive(w http.ResponseWriter, r *http.Request, batchID string) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	archive, err := rt.exporter.ExportBatch(r.Context(), batchID)
	if err != nil {
		if rt.metrics != nil {
			rt.metrics.RecordExport("api", 0, err)
		}
		writeError(w, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordExport("api", len(archive), nil)
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "sorted_documents_"+batchID+".zip"))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(archive)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}
