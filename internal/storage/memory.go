package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"invoicedash/internal/core"
)

// MemoryStore is the in-memory Store implementation used as the
// default backend and in tests. Safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]core.InvoiceRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]core.InvoiceRecord)}
}

// NewMemoryStoreFromFile seeds the store from a JSON file holding an
// array of invoice records. A missing file is not an error; it just
// yields an empty store.
func NewMemoryStoreFromFile(path string) (*MemoryStore, error) {
	s := NewMemoryStore()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seed file %s: %w", path, err)
	}

	var records []core.InvoiceRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	for _, rec := range records {
		s.records[rec.ID] = rec
	}

	slog.Info("Seeded memory store", "path", path, "records", len(records))
	return s, nil
}

// Create implements Store.
func (s *MemoryStore) Create(_ context.Context, rec core.InvoiceRecord) (core.InvoiceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	s.records[rec.ID] = rec
	return rec, nil
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, id string) (core.InvoiceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return core.InvoiceRecord{}, core.ErrNotFound
	}
	return rec, nil
}

// List implements Store. Records come back in processing order.
func (s *MemoryStore) List(_ context.Context) ([]core.InvoiceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.InvoiceRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OrderIndex != out[j].OrderIndex {
			return out[i].OrderIndex < out[j].OrderIndex
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return core.ErrNotFound
	}
	delete(s.records, id)
	return nil
}

// MarkProcessing implements Store.
func (s *MemoryStore) MarkProcessing(ctx context.Context, id string) error {
	return s.setStatus(id, core.StatusProcessing)
}

// MarkError implements Store.
func (s *MemoryStore) MarkError(ctx context.Context, id string) error {
	return s.setStatus(id, core.StatusError)
}

func (s *MemoryStore) setStatus(id string, status core.ExtractionStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return core.ErrNotFound
	}
	rec.Status = status
	rec.UpdatedAt = time.Now().UTC()
	s.records[id] = rec
	return nil
}

// SaveExtraction implements Store.
func (s *MemoryStore) SaveExtraction(_ context.Context, id string, d core.ExtractedData) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return core.ErrNotFound
	}
	data := d
	rec.Extracted = &data
	rec.Status = core.StatusCompleted
	rec.UpdatedAt = time.Now().UTC()
	s.records[id] = rec
	return nil
}

// ListPending implements Store.
func (s *MemoryStore) ListPending(_ context.Context, limit int) ([]core.InvoiceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var pending []core.InvoiceRecord
	for _, rec := range s.records {
		if rec.Status == core.StatusUploaded {
			pending = append(pending, rec)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		if !pending[i].CreatedAt.Equal(pending[j].CreatedAt) {
			return pending[i].CreatedAt.Before(pending[j].CreatedAt)
		}
		return pending[i].ID < pending[j].ID
	})
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

// ListStaleProcessing implements Store.
func (s *MemoryStore) ListStaleProcessing(_ context.Context, cutoff time.Time, limit int) ([]core.InvoiceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stale []core.InvoiceRecord
	for _, rec := range s.records {
		if rec.Status == core.StatusProcessing && rec.UpdatedAt.Before(cutoff) {
			stale = append(stale, rec)
		}
	}
	sort.Slice(stale, func(i, j int) bool {
		if !stale[i].UpdatedAt.Equal(stale[j].UpdatedAt) {
			return stale[i].UpdatedAt.Before(stale[j].UpdatedAt)
		}
		return stale[i].ID < stale[j].ID
	})
	if limit > 0 && len(stale) > limit {
		stale = stale[:limit]
	}
	return stale, nil
}
