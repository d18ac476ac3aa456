package analytics

import (
	"bytes"
	"testing"
	"time"
)

func TestWriteReportPDF(t *testing.T) {
	s := Aggregate(FilterWindow(Normalize(DemoRecords()), 12))

	var buf bytes.Buffer
	if err := WriteReportPDF(&buf, s, time.Date(2025, 8, 30, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("WriteReportPDF() error = %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Error("output does not start with a PDF header")
	}
}

func TestWriteReportPDF_EmptySummary(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteReportPDF(&buf, Aggregate(nil), time.Now()); err != nil {
		t.Fatalf("WriteReportPDF() on empty summary error = %v", err)
	}
	if buf.Len() == 0 {
		t.Error("empty summary produced no PDF bytes")
	}
}

func TestDemoRecords_AllEligible(t *testing.T) {
	records := DemoRecords()
	if len(records) != 14 {
		t.Fatalf("DemoRecords() returned %d records, want 14", len(records))
	}
	rows := Normalize(records)
	if len(rows) != 14 {
		t.Fatalf("Normalize(demo) kept %d rows, want 14", len(rows))
	}
	for _, r := range rows {
		if !r.HasDate {
			t.Errorf("demo row %q has no parsed date", r.Number)
		}
		if r.Vendor == UnknownKey {
			t.Errorf("demo row %q has unknown vendor", r.Number)
		}
	}
	if !HasEligible(records) {
		t.Error("HasEligible(demo) = false")
	}
}
