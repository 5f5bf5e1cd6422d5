package usecase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/kunalbhatia/docsort/internal/core/domain"
)

type repoFake struct {
	mu            sync.Mutex
	batches       map[string]*domain.Batch
	createErr     error
	statusUpdates []string
	savedResults  []string
}

func newRepoFake() *repoFake {
	return &repoFake{batches: make(map[string]*domain.Batch)}
}

func (f *repoFake) CreateBatch(_ context.Context, batch *domain.Batch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.batches[batch.ID] = batch
	return nil
}

func (f *repoFake) GetBatch(_ context.Context, id string) (*domain.Batch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	batch, ok := f.batches[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrBatchNotFound, "get batch", fmt.Errorf("id %q", id))
	}
	return batch, nil
}

func (f *repoFake) UpdateDocumentStatus(_ context.Context, batchID, docID string, status domain.DocumentStatus, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusUpdates = append(f.statusUpdates, fmt.Sprintf("%s/%s=%s", batchID, docID, status))
	return nil
}

func (f *repoFake) SaveDocumentResult(_ context.Context, batchID, docID string, cls domain.Classification, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.savedResults = append(f.savedResults, fmt.Sprintf("%s/%s=%s", batchID, docID, cls.Category))
	return nil
}

type storageFake struct {
	mu        sync.Mutex
	objects   map[string][]byte
	saveErr   error
	failOnKey string
	deleted   []string
}

func newStorageFake() *storageFake {
	return &storageFake{objects: make(map[string][]byte)}
}

func (f *storageFake) Save(_ context.Context, key string, data io.Reader) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	if f.failOnKey != "" && strings.Contains(key, f.failOnKey) {
		return fmt.Errorf("disk full writing %q", key)
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = raw
	return nil
}

func (f *storageFake) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *storageFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, ok := f.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %q not found", key)
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

type queueSpy struct {
	mu         sync.Mutex
	created    []string
	progress   []domain.BatchSnapshot
	publishErr error
}

func (f *queueSpy) PublishBatchCreated(_ context.Context, batchID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return f.publishErr
	}
	f.created = append(f.created, batchID)
	return nil
}

func (f *queueSpy) SubscribeBatchCreated(context.Context, func(context.Context, string) error) error {
	return nil
}

func (f *queueSpy) PublishBatchProgress(_ context.Context, snapshot domain.BatchSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.progress = append(f.progress, snapshot)
	return nil
}

func (f *queueSpy) SubscribeBatchProgress(context.Context, string, func(domain.BatchSnapshot)) (func(), error) {
	return func() {}, nil
}

// extractorFake returns canned text per original filename and can run a hook
// before extracting, which cancellation tests use.
type extractorFake struct {
	texts      map[string]string
	errs       map[string]error
	beforeEach func(doc *domain.Document)
}

func (f *extractorFake) Extract(_ context.Context, doc *domain.Document, _ []byte) (string, error) {
	if f.beforeEach != nil {
		f.beforeEach(doc)
	}
	if err, ok := f.errs[doc.OriginalName]; ok {
		return "", err
	}
	return f.texts[doc.OriginalName], nil
}

type classifierFake struct {
	results map[string]domain.Classification
	err     error
}

func (f *classifierFake) Classify(_ context.Context, text string) (domain.Classification, error) {
	if f.err != nil {
		return domain.Classification{}, f.err
	}
	if cls, ok := f.results[text]; ok {
		return cls, nil
	}
	return domain.Classification{Category: domain.CategoryUnclassified}, nil
}

type archiveWriterFake struct {
	groups   []domain.CategoryGroup
	contents map[string][]byte
	out      []byte
	err      error
}

func (f *archiveWriterFake) Write(_ context.Context, groups []domain.CategoryGroup, contents map[string][]byte) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.groups = groups
	f.contents = contents
	if f.out == nil {
		f.out = []byte("archive")
	}
	return f.out, nil
}
