package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/kunalbhatia/docsort/internal/core/domain"
)

// streamBatchEvents serves the per-batch progress stream as server-sent
// events. Every event carries a full batch snapshot; the stream closes after
// the terminal snapshot or when the client disconnects.
func (rt *Router) streamBatchEvents(w http.ResponseWriter, r *http.Request, batchID string) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "streaming is not supported"})
		return
	}

	// Subscribe before reading the stored state so transitions published in
	// between are not lost. The channel is buffered generously because the
	// worker publishes fire-and-forget.
	snapshots := make(chan domain.BatchSnapshot, 64)
	unsubscribe, err := rt.queue.SubscribeBatchProgress(r.Context(), batchID, func(snapshot domain.BatchSnapshot) {
		select {
		case snapshots <- snapshot:
		default:
			slog.Warn("progress event dropped, slow consumer", "batch_id", batchID)
		}
	})
	if err != nil {
		writeError(w, err)
		return
	}
	defer unsubscribe()

	batch, err := rt.reader.GetBatch(r.Context(), batchID)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	initial := batch.Snapshot()
	initial.Done = batch.Terminal()
	if !writeSSEEvent(w, flusher, initial) || initial.Done {
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case snapshot := <-snapshots:
			if !writeSSEEvent(w, flusher, snapshot) || snapshot.Done {
				return
			}
		}
	}
}

func writeSSEEvent(w http.ResponseWriter, flusher http.Flusher, snapshot domain.BatchSnapshot) bool {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		slog.Error("marshal progress event", "batch_id", snapshot.BatchID, "error", err)
		return false
	}
	if _, err := w.Write([]byte("event: progress\ndata: ")); err != nil {
		return false
	}
	if _, err := w.Write(payload); err != nil {
		return false
	}
	if _, err := w.Write([]byte("\n\n")); err != nil {
		return false
	}
	flusher.Flush()
	return true
}
