package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"invoicedash/internal/core"
)

func TestMemoryStore_CreateGetDelete(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	rec, err := s.Create(ctx, core.InvoiceRecord{ID: "a", FileName: "a.pdf", Status: core.StatusUploaded})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if rec.CreatedAt.IsZero() || rec.UpdatedAt.IsZero() {
		t.Error("Create() did not set timestamps")
	}

	got, err := s.Get(ctx, "a")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.FileName != "a.pdf" {
		t.Errorf("Get().FileName = %q", got.FileName)
	}

	if err := s.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Get(ctx, "a"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}
	if err := s.Delete(ctx, "a"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Delete() twice error = %v, want ErrNotFound", err)
	}
}

func TestMemoryStore_ListOrder(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	for _, rec := range []core.InvoiceRecord{
		{ID: "c", FileName: "c.pdf", Status: core.StatusUploaded, OrderIndex: 3},
		{ID: "a", FileName: "a.pdf", Status: core.StatusUploaded, OrderIndex: 1},
		{ID: "b", FileName: "b.pdf", Status: core.StatusUploaded, OrderIndex: 2},
	} {
		if _, err := s.Create(ctx, rec); err != nil {
			t.Fatalf("Create(%s) error = %v", rec.ID, err)
		}
	}

	got, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 3 || got[0].ID != "a" || got[1].ID != "b" || got[2].ID != "c" {
		t.Errorf("List() order = %v", got)
	}
}

func TestMemoryStore_ExtractionLifecycle(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if _, err := s.Create(ctx, core.InvoiceRecord{ID: "x", FileName: "x.pdf", Status: core.StatusUploaded}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	pending, err := s.ListPending(ctx, 10)
	if err != nil {
		t.Fatalf("ListPending() error = %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("ListPending() returned %d records, want 1", len(pending))
	}

	if err := s.MarkProcessing(ctx, "x"); err != nil {
		t.Fatalf("MarkProcessing() error = %v", err)
	}
	if err := s.SaveExtraction(ctx, "x", core.ExtractedData{VendorName: "Alpha", TotalAmount: "100"}); err != nil {
		t.Fatalf("SaveExtraction() error = %v", err)
	}

	got, err := s.Get(ctx, "x")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !got.Eligible() {
		t.Errorf("record after SaveExtraction not eligible: status=%s extracted=%v", got.Status, got.Extracted)
	}
	if got.Extracted.VendorName != "Alpha" {
		t.Errorf("VendorName = %q", got.Extracted.VendorName)
	}

	pending, err = s.ListPending(ctx, 10)
	if err != nil {
		t.Fatalf("ListPending() error = %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("ListPending() after completion returned %d records, want 0", len(pending))
	}
}

func TestMemoryStore_ListStaleProcessing(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if _, err := s.Create(ctx, core.InvoiceRecord{ID: "stuck", FileName: "stuck.pdf", Status: core.StatusUploaded}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := s.Create(ctx, core.InvoiceRecord{ID: "waiting", FileName: "waiting.pdf", Status: core.StatusUploaded}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := s.MarkProcessing(ctx, "stuck"); err != nil {
		t.Fatalf("MarkProcessing() error = %v", err)
	}

	// Cutoff in the future: the processing record qualifies, the
	// uploaded one never does.
	stale, err := s.ListStaleProcessing(ctx, time.Now().UTC().Add(time.Minute), 10)
	if err != nil {
		t.Fatalf("ListStaleProcessing() error = %v", err)
	}
	if len(stale) != 1 || stale[0].ID != "stuck" {
		t.Errorf("ListStaleProcessing() = %+v, want [stuck]", stale)
	}

	// Cutoff in the past: nothing is stale yet.
	stale, err = s.ListStaleProcessing(ctx, time.Now().UTC().Add(-time.Hour), 10)
	if err != nil {
		t.Fatalf("ListStaleProcessing() error = %v", err)
	}
	if len(stale) != 0 {
		t.Errorf("ListStaleProcessing() with past cutoff = %+v, want empty", stale)
	}
}

func TestMemoryStore_SeedFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seed.json")
	seed := `[{"id":"s1","fileName":"s1.pdf","status":"completed","extractedData":{"vendor_name":"Alpha","total_amount":"100"}}]`
	if err := os.WriteFile(path, []byte(seed), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := NewMemoryStoreFromFile(path)
	if err != nil {
		t.Fatalf("NewMemoryStoreFromFile() error = %v", err)
	}
	got, err := s.Get(context.Background(), "s1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !got.Eligible() {
		t.Error("seeded record not eligible")
	}
}

func TestMemoryStore_SeedMissingFile(t *testing.T) {
	s, err := NewMemoryStoreFromFile(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("NewMemoryStoreFromFile() on missing file error = %v", err)
	}
	records, err := s.List(context.Background())
	if err != nil || len(records) != 0 {
		t.Errorf("List() = %v, %v; want empty, nil", records, err)
	}
}
