package storage

import (
	"context"
	"time"

	"invoicedash/internal/core"
)

// Store is the persistence surface the HTTP layer and the extraction
// worker depend on. Both SQLiteRepository and MemoryStore implement it.
type Store interface {
	// Create persists a new record and returns it with timestamps set.
	Create(ctx context.Context, rec core.InvoiceRecord) (core.InvoiceRecord, error)
	// Get returns the record with the given id, or core.ErrNotFound.
	Get(ctx context.Context, id string) (core.InvoiceRecord, error)
	// List returns all records in processing order.
	List(ctx context.Context) ([]core.InvoiceRecord, error)
	// Delete removes the record with the given id, or core.ErrNotFound.
	Delete(ctx context.Context, id string) error

	// MarkProcessing flips an uploaded record to processing.
	MarkProcessing(ctx context.Context, id string) error
	// SaveExtraction stores extracted fields and marks the record completed.
	SaveExtraction(ctx context.Context, id string, d core.ExtractedData) error
	// MarkError marks a record as failed extraction.
	MarkError(ctx context.Context, id string) error
	// ListPending returns up to limit records still waiting for
	// extraction, oldest first.
	ListPending(ctx context.Context, limit int) ([]core.InvoiceRecord, error)
	// ListStaleProcessing returns up to limit records that entered the
	// processing state before cutoff and never reached an outcome,
	// oldest first.
	ListStaleProcessing(ctx context.Context, cutoff time.Time, limit int) ([]core.InvoiceRecord, error)
}
