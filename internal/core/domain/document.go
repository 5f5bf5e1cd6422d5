package domain

import "time"

type DocumentStatus string

const (
	StatusPending    DocumentStatus = "pending"
	StatusProcessing DocumentStatus = "processing"
	StatusCompleted  DocumentStatus = "completed"
	StatusError      DocumentStatus = "error"
	StatusSkipped    DocumentStatus = "skipped"
)

// FileKind is the only dispatch key for text extraction. The upload layer
// rejects anything else before a batch is created.
type FileKind string

const (
	KindPDF   FileKind = "pdf"
	KindImage FileKind = "image"
)

// CategoryUnclassified is the sentinel category for documents no taxonomy
// entry matched with sufficient confidence.
const CategoryUnclassified = "Unclassified"

// Document is one file's record inside a batch. IDs are positional
// ("doc_0", "doc_1", ...) and stable for the life of the batch.
type Document struct {
	ID            string         `json:"id"`
	BatchID       string         `json:"batch_id"`
	Position      int            `json:"position"`
	OriginalName  string         `json:"original_name"`
	StorageKey    string         `json:"storage_key"`
	Kind          FileKind       `json:"kind"`
	ByteSize      int64          `json:"byte_size"`
	Category      string         `json:"category"`
	Confidence    float64        `json:"confidence"`
	ExtractedText string         `json:"extracted_text,omitempty"`
	Status        DocumentStatus `json:"status"`
	Error         string         `json:"error,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// Classification is the classifier's verdict for one document's text.
type Classification struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

// Batch is one run's ordered document collection. Document order equals
// upload order and never changes.
type Batch struct {
	ID        string      `json:"id"`
	Documents []*Document `json:"documents"`
	CreatedAt time.Time   `json:"created_at"`
}

// Snapshot returns a deep copy safe to hand to observers while the pipeline
// keeps mutating the live records.
func (b *Batch) Snapshot() BatchSnapshot {
	docs := make([]Document, len(b.Documents))
	for i, d := range b.Documents {
		docs[i] = *d
	}
	return BatchSnapshot{
		BatchID:   b.ID,
		Documents: docs,
		CreatedAt: b.CreatedAt,
	}
}

// Terminal reports whether every document reached a final status.
func (b *Batch) Terminal() bool {
	for _, d := range b.Documents {
		switch d.Status {
		case StatusCompleted, StatusError, StatusSkipped:
		default:
			return false
		}
	}
	return true
}

// BatchSnapshot is the full-batch state pushed to observers on every status
// transition. Always the whole batch, never a diff.
type BatchSnapshot struct {
	BatchID   string     `json:"batch_id"`
	Documents []Document `json:"documents"`
	Done      bool       `json:"done"`
	CreatedAt time.Time  `json:"created_at"`
}

// CategoryGroup pairs a category with its documents in insertion order.
// Groupings are ordered slices rather than maps so archive layout stays
// deterministic.
type CategoryGroup struct {
	Category  string
	Documents []Document
}

// GroupByCategory buckets completed documents by category, preserving batch
// order both across groups (first-seen category order) and within a group.
// Errored and skipped documents are left out of the grouping; they remain in
// the batch collection itself.
func GroupByCategory(docs []Document) []CategoryGroup {
	index := make(map[string]int)
	var groups []CategoryGroup
	for _, d := range docs {
		if d.Status != StatusCompleted {
			continue
		}
		i, ok := index[d.Category]
		if !ok {
			i = len(groups)
			index[d.Category] = i
			groups = append(groups, CategoryGroup{Category: d.Category})
		}
		groups[i].Documents = append(groups[i].Documents, d)
	}
	return groups
}
