package mocks

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/abah/PERMASALAHAN-TANAH/internal/core/domain"
	"github.com/abah/PERMASALAHAN-TANAH/internal/core/errors"
	"github.com/abah/PERMASALAHAN-TANAH/internal/records"
)

type docEntry struct {
	id  string
	doc domain.Document
}

// RecordRepository is a thread-safe in-memory implementation of ports.RecordRepository.
// Documents are returned in insertion order.
type RecordRepository struct {
	mu      sync.RWMutex
	name    string
	entries []docEntry
	nextID  int

	// DocumentsFn allows overriding Documents behavior.
	DocumentsFn func(ctx context.Context) ([]domain.Document, error)

	// CreateRecordFn allows overriding CreateRecord behavior.
	CreateRecordFn func(ctx context.Context, rec domain.Record) (string, error)

	// UpdateRecordFn allows overriding UpdateRecord behavior.
	UpdateRecordFn func(ctx context.Context, rec domain.Record) error

	// DeleteRecordFn allows overriding DeleteRecord behavior.
	DeleteRecordFn func(ctx context.Context, id string) error
}

// NewRecordRepository creates a new mock repository reporting the given source name.
func NewRecordRepository(name string) *RecordRepository {
	return &RecordRepository{name: name}
}

// Name returns the source name.
func (r *RecordRepository) Name() string {
	return r.name
}

// Documents returns copies of every stored document.
func (r *RecordRepository) Documents(ctx context.Context) ([]domain.Document, error) {
	if r.DocumentsFn != nil {
		return r.DocumentsFn(ctx)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Document, 0, len(r.entries))

	for _, e := range r.entries {
		doc := maps.Clone(e.doc)
		if e.id != "" {
			doc[records.ColumnID] = e.id
		}

		out = append(out, doc)
	}

	return out, nil
}

// CreateRecord stores rec, keeping its id when set and unused.
func (r *RecordRepository) CreateRecord(ctx context.Context, rec domain.Record) (string, error) {
	if r.CreateRecordFn != nil {
		return r.CreateRecordFn(ctx, rec)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := rec.ID
	if id == "" || r.indexLocked(id) >= 0 {
		r.nextID++
		id = fmt.Sprintf("mock-%d", r.nextID)
	}

	r.entries = append(r.entries, docEntry{id: id, doc: records.ToDocument(rec)})

	return id, nil
}

// UpdateRecord replaces the stored document for rec.ID.
func (r *RecordRepository) UpdateRecord(ctx context.Context, rec domain.Record) error {
	if r.UpdateRecordFn != nil {
		return r.UpdateRecordFn(ctx, rec)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexLocked(rec.ID)
	if i < 0 {
		return fmt.Errorf("record %s: %w", rec.ID, errors.ErrNotFound)
	}

	r.entries[i].doc = records.ToDocument(rec)

	return nil
}

// DeleteRecord removes the document with the given id.
func (r *RecordRepository) DeleteRecord(ctx context.Context, id string) error {
	if r.DeleteRecordFn != nil {
		return r.DeleteRecordFn(ctx, id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexLocked(id)
	if i < 0 {
		return fmt.Errorf("record %s: %w", id, errors.ErrNotFound)
	}

	r.entries = append(r.entries[:i], r.entries[i+1:]...)

	return nil
}

// AddDocument stores a raw document as is, including documents without an id.
func (r *RecordRepository) AddDocument(doc domain.Document) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = append(r.entries, docEntry{doc: maps.Clone(doc)})
}

// AddRecords stores records through the same path as CreateRecord.
func (r *RecordRepository) AddRecords(recs ...domain.Record) {
	for _, rec := range recs {
		_, _ = r.CreateRecord(context.Background(), rec)
	}
}

// Len returns the number of stored documents.
func (r *RecordRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.entries)
}

// Reset removes all documents.
func (r *RecordRepository) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = nil
	r.nextID = 0
}

func (r *RecordRepository) indexLocked(id string) int {
	for i, e := range r.entries {
		if e.id == id {
			return i
		}

		if e.id == "" {
			if raw, ok := e.doc[records.ColumnID].(string); ok && raw == id {
				return i
			}
		}
	}

	return -1
}
