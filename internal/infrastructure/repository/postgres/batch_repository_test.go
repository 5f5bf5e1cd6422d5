package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kunalbhatia/docsort/internal/core/domain"
)

func newRepoWithMock(t *testing.T) (*BatchRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &BatchRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestGetBatchReturnsDomainNotFound(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id, created_at FROM batches").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetBatch(context.Background(), "missing")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrBatchNotFound) {
		t.Fatalf("expected ErrBatchNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetBatchOrdersDocumentsByPosition(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT id, created_at FROM batches").
		WithArgs("b1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("b1", now))

	docRows := sqlmock.NewRows([]string{
		"batch_id", "id", "position", "original_name", "storage_key", "kind", "byte_size",
		"category", "confidence", "extracted_text", "status", "error_message", "created_at", "updated_at",
	}).
		AddRow("b1", "doc_0", 0, "a.png", "b1/doc_0_a.png", "image", int64(10),
			"Aadhar", 0.6, "aadhar uidai", "completed", "", now, now).
		AddRow("b1", "doc_1", 1, "b.pdf", "b1/doc_1_b.pdf", "pdf", int64(20),
			"Unclassified", 0.0, "", "error", "extract text: boom", now, now)
	mock.ExpectQuery("SELECT batch_id, id, position").
		WithArgs("b1").
		WillReturnRows(docRows)

	batch, err := repo.GetBatch(context.Background(), "b1")
	if err != nil {
		t.Fatalf("GetBatch() error = %v", err)
	}
	if len(batch.Documents) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(batch.Documents))
	}
	if batch.Documents[0].ID != "doc_0" || batch.Documents[1].ID != "doc_1" {
		t.Fatalf("documents out of order: %s, %s", batch.Documents[0].ID, batch.Documents[1].ID)
	}
	if batch.Documents[0].Kind != domain.KindImage || batch.Documents[1].Status != domain.StatusError {
		t.Fatalf("scanned enums wrong: %+v", batch.Documents)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCreateBatchWritesBatchAndDocumentsInOneTx(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	now := time.Now().UTC()
	batch := &domain.Batch{
		ID:        "b1",
		CreatedAt: now,
		Documents: []*domain.Document{
			{
				ID: "doc_0", BatchID: "b1", Position: 0, OriginalName: "a.png",
				StorageKey: "b1/doc_0_a.png", Kind: domain.KindImage, ByteSize: 5,
				Category: domain.CategoryUnclassified, Status: domain.StatusPending,
				CreatedAt: now, UpdatedAt: now,
			},
		},
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO batches").
		WithArgs("b1", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO batch_documents").
		WithArgs("b1", "doc_0", 0, "a.png", "b1/doc_0_a.png", "image", int64(5),
			domain.CategoryUnclassified, 0.0, "", "pending", "", now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.CreateBatch(context.Background(), batch); err != nil {
		t.Fatalf("CreateBatch() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdateDocumentStatusReturnsNotFoundWhenNoRowsAffected(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE batch_documents").
		WithArgs("b1", "missing", string(domain.StatusProcessing), "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateDocumentStatus(context.Background(), "b1", "missing", domain.StatusProcessing, "")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveDocumentResult(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE batch_documents").
		WithArgs("b1", "doc_0", "Aadhar", 0.6, "aadhar uidai government of india", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SaveDocumentResult(context.Background(), "b1", "doc_0",
		domain.Classification{Category: "Aadhar", Confidence: 0.6},
		"aadhar uidai government of india")
	if err != nil {
		t.Fatalf("SaveDocumentResult() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
