package httpadapter

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kunalbhatia/docsort/internal/config"
	"github.com/kunalbhatia/docsort/internal/core/domain"
)

func decodeSSESnapshots(t *testing.T, body *bytes.Buffer) []domain.BatchSnapshot {
	t.Helper()

	var snapshots []domain.BatchSnapshot
	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var snapshot domain.BatchSnapshot
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &snapshot); err != nil {
			t.Fatalf("decode event payload: %v", err)
		}
		snapshots = append(snapshots, snapshot)
	}
	return snapshots
}

func TestStreamBatchEventsClosesOnTerminalBatch(t *testing.T) {
	batch := pendingBatch("batch-1", "scan.pdf")
	batch.Documents[0].Status = domain.StatusCompleted
	batch.Documents[0].Category = "Aadhar"
	batch.Documents[0].Confidence = 0.6
	handler := newTestHandler(config.Config{}, routerFakes{reader: &readerFake{batch: batch}})

	req := httptest.NewRequest(http.MethodGet, "/v1/batches/batch-1/events", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if ct := res.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type %q", ct)
	}

	snapshots := decodeSSESnapshots(t, res.Body)
	if len(snapshots) != 1 {
		t.Fatalf("expected one terminal event, got %d", len(snapshots))
	}
	if !snapshots[0].Done {
		t.Fatalf("terminal batch snapshot should be done")
	}
	if snapshots[0].Documents[0].Category != "Aadhar" {
		t.Fatalf("unexpected category %q", snapshots[0].Documents[0].Category)
	}
}

func TestStreamBatchEventsForwardsProgress(t *testing.T) {
	batch := pendingBatch("batch-2", "scan.pdf")
	progress := make(chan domain.BatchSnapshot, 4)
	handler := newTestHandler(config.Config{}, routerFakes{
		reader: &readerFake{batch: batch},
		queue:  &queueFake{progress: progress},
	})

	snapshot := batch.Snapshot()
	snapshot.Documents[0].Status = domain.StatusCompleted
	snapshot.Documents[0].Category = domain.CategoryUnclassified
	snapshot.Done = true
	go func() {
		time.Sleep(20 * time.Millisecond)
		progress <- snapshot
	}()

	req := httptest.NewRequest(http.MethodGet, "/v1/batches/batch-2/events", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	snapshots := decodeSSESnapshots(t, res.Body)
	if len(snapshots) != 2 {
		t.Fatalf("expected initial plus terminal event, got %d", len(snapshots))
	}
	if snapshots[0].Done {
		t.Fatalf("initial snapshot should not be done")
	}
	if snapshots[0].Documents[0].Status != domain.StatusPending {
		t.Fatalf("initial document should be pending, got %s", snapshots[0].Documents[0].Status)
	}
	if !snapshots[1].Done || snapshots[1].Documents[0].Status != domain.StatusCompleted {
		t.Fatalf("unexpected terminal snapshot: %+v", snapshots[1])
	}
}

func TestStreamBatchEventsUnknownBatch(t *testing.T) {
	handler := newTestHandler(config.Config{}, routerFakes{})

	req := httptest.NewRequest(http.MethodGet, "/v1/batches/missing/events", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
}
