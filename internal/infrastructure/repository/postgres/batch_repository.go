package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kunalbhatia/docsort/internal/core/domain"
)

type BatchRepository struct {
	db *sql.DB
}

func NewBatchRepository(db *sql.DB) *BatchRepository {
	return &BatchRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *BatchRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026052601)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS batches (
	id TEXT PRIMARY KEY,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS batch_documents (
	batch_id TEXT NOT NULL REFERENCES batches(id) ON DELETE CASCADE,
	id TEXT NOT NULL,
	position INT NOT NULL,
	original_name TEXT NOT NULL,
	storage_key TEXT NOT NULL,
	kind TEXT NOT NULL,
	byte_size BIGINT NOT NULL DEFAULT 0,
	category TEXT NOT NULL,
	confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
	extracted_text TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	error_message TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (batch_id, id)
);

CREATE INDEX IF NOT EXISTS idx_batch_documents_order ON batch_documents(batch_id, position);
CREATE INDEX IF NOT EXISTS idx_batch_documents_status ON batch_documents(status);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

// CreateBatch writes the batch and all of its documents in one transaction
// so a batch is never visible half-created.
func (r *BatchRepository) CreateBatch(ctx context.Context, batch *domain.Batch) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `
INSERT INTO batches (id, created_at) VALUES ($1, $2)
`, batch.ID, batch.CreatedAt); err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}

	for _, doc := range batch.Documents {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO batch_documents (
	batch_id, id, position, original_name, storage_key, kind, byte_size,
	category, confidence, extracted_text, status, error_message, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
`,
			doc.BatchID, doc.ID, doc.Position, doc.OriginalName, doc.StorageKey, string(doc.Kind), doc.ByteSize,
			doc.Category, doc.Confidence, doc.ExtractedText, string(doc.Status), doc.Error, doc.CreatedAt, doc.UpdatedAt,
		); err != nil {
			return fmt.Errorf("insert document %s: %w", doc.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch tx: %w", err)
	}
	return nil
}

func (r *BatchRepository) GetBatch(ctx context.Context, id string) (*domain.Batch, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, created_at FROM batches WHERE id = $1
`, id)

	var batch domain.Batch
	if err := row.Scan(&batch.ID, &batch.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrBatchNotFound, "get batch", fmt.Errorf("id %s", id))
		}
		return nil, fmt.Errorf("scan batch: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT batch_id, id, position, original_name, storage_key, kind, byte_size,
	category, confidence, extracted_text, status, error_message, created_at, updated_at
FROM batch_documents
WHERE batch_id = $1
ORDER BY position ASC
`, id)
	if err != nil {
		return nil, fmt.Errorf("query batch documents: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var doc domain.Document
		var kind, status string
		if err := rows.Scan(
			&doc.BatchID, &doc.ID, &doc.Position, &doc.OriginalName, &doc.StorageKey, &kind, &doc.ByteSize,
			&doc.Category, &doc.Confidence, &doc.ExtractedText, &status, &doc.Error, &doc.CreatedAt, &doc.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan batch document: %w", err)
		}
		doc.Kind = domain.FileKind(kind)
		doc.Status = domain.DocumentStatus(status)
		batch.Documents = append(batch.Documents, &doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate batch documents: %w", err)
	}

	return &batch, nil
}

func (r *BatchRepository) UpdateDocumentStatus(ctx context.Context, batchID, docID string, status domain.DocumentStatus, errMessage string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE batch_documents
SET status = $3, error_message = $4, updated_at = $5
WHERE batch_id = $1 AND id = $2
`, batchID, docID, string(status), errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	return r.requireRow(res, batchID, docID)
}

func (r *BatchRepository) SaveDocumentResult(ctx context.Context, batchID, docID string, cls domain.Classification, extractedText string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE batch_documents
SET category = $3, confidence = $4, extracted_text = $5, updated_at = $6
WHERE batch_id = $1 AND id = $2
`, batchID, docID, cls.Category, cls.Confidence, extractedText, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save document result: %w", err)
	}
	return r.requireRow(res, batchID, docID)
}

func (r *BatchRepository) requireRow(res sql.Result, batchID, docID string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrDocumentNotFound, "update document",
			fmt.Errorf("batch %s doc %s", batchID, docID))
	}
	return nil
}
