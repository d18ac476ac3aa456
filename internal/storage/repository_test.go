package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"invoicedash/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteRepository_CreateGet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, core.InvoiceRecord{
		ID:       "inv-1",
		FileName: "invoice.pdf",
		FileSize: 2048,
		FileType: "application/pdf",
		Status:   core.StatusUploaded,
		RawText:  "Total: 100",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.CreatedAt.IsZero() {
		t.Error("Create() did not set CreatedAt")
	}

	got, err := repo.Get(ctx, "inv-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.FileName != "invoice.pdf" || got.FileSize != 2048 {
		t.Errorf("Get() = %+v", got)
	}
	if got.Extracted != nil {
		t.Error("Extracted is non-nil before extraction ran")
	}

	if _, err := repo.Get(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}
}

func TestSQLiteRepository_ExtractionLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.Create(ctx, core.InvoiceRecord{ID: "x", FileName: "x.pdf", Status: core.StatusUploaded}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	pending, err := repo.ListPending(ctx, 10)
	if err != nil {
		t.Fatalf("ListPending() error = %v", err)
	}
	if len(pending) != 1 || pending[0].ID != "x" {
		t.Fatalf("ListPending() = %+v", pending)
	}

	if err := repo.MarkProcessing(ctx, "x"); err != nil {
		t.Fatalf("MarkProcessing() error = %v", err)
	}

	data := core.ExtractedData{
		InvoiceDate: "2025-03-01",
		VendorName:  "Alpha Supplies",
		VATAmount:   "50.00",
		TotalAmount: "1,050.00",
	}
	if err := repo.SaveExtraction(ctx, "x", data); err != nil {
		t.Fatalf("SaveExtraction() error = %v", err)
	}

	got, err := repo.Get(ctx, "x")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !got.Eligible() {
		t.Errorf("record not eligible after extraction: status=%s extracted=%v", got.Status, got.Extracted)
	}
	if got.Extracted.VendorName != "Alpha Supplies" || got.Extracted.TotalAmount != "1,050.00" {
		t.Errorf("Extracted = %+v", got.Extracted)
	}

	pending, err = repo.ListPending(ctx, 10)
	if err != nil {
		t.Fatalf("ListPending() error = %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("ListPending() after completion = %+v", pending)
	}
}

func TestSQLiteRepository_ListOrder(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, rec := range []core.InvoiceRecord{
		{ID: "c", FileName: "c.pdf", Status: core.StatusUploaded, OrderIndex: 3},
		{ID: "a", FileName: "a.pdf", Status: core.StatusUploaded, OrderIndex: 1},
		{ID: "b", FileName: "b.pdf", Status: core.StatusUploaded, OrderIndex: 2},
	} {
		if _, err := repo.Create(ctx, rec); err != nil {
			t.Fatalf("Create(%s) error = %v", rec.ID, err)
		}
	}

	got, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 3 || got[0].ID != "a" || got[1].ID != "b" || got[2].ID != "c" {
		ids := make([]string, len(got))
		for i, r := range got {
			ids[i] = r.ID
		}
		t.Errorf("List() order = %v", ids)
	}
}

func TestSQLiteRepository_Delete(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.Create(ctx, core.InvoiceRecord{ID: "d", FileName: "d.pdf", Status: core.StatusUploaded}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := repo.Delete(ctx, "d"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := repo.Delete(ctx, "d"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Delete() twice error = %v, want ErrNotFound", err)
	}
}

func TestSQLiteRepository_ListStaleProcessing(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.Create(ctx, core.InvoiceRecord{ID: "stuck", FileName: "stuck.pdf", Status: core.StatusUploaded}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := repo.MarkProcessing(ctx, "stuck"); err != nil {
		t.Fatalf("MarkProcessing() error = %v", err)
	}

	stale, err := repo.ListStaleProcessing(ctx, time.Now().UTC().Add(time.Minute), 10)
	if err != nil {
		t.Fatalf("ListStaleProcessing() error = %v", err)
	}
	if len(stale) != 1 || stale[0].ID != "stuck" {
		t.Errorf("ListStaleProcessing() = %+v, want [stuck]", stale)
	}

	stale, err = repo.ListStaleProcessing(ctx, time.Now().UTC().Add(-time.Hour), 10)
	if err != nil {
		t.Fatalf("ListStaleProcessing() error = %v", err)
	}
	if len(stale) != 0 {
		t.Errorf("ListStaleProcessing() with past cutoff = %+v, want empty", stale)
	}
}

func TestSQLiteRepository_StatusOnMissingRecord(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.MarkProcessing(ctx, "nope"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("MarkProcessing(missing) error = %v, want ErrNotFound", err)
	}
	if err := repo.SaveExtraction(ctx, "nope", core.ExtractedData{}); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("SaveExtraction(missing) error = %v, want ErrNotFound", err)
	}
}
