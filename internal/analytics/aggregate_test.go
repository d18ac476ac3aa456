package analytics

import (
	"math"
	"reflect"
	"testing"

	"invoicedash/internal/core"
)

func TestAggregate_KPIs(t *testing.T) {
	records := []core.InvoiceRecord{
		completedRecord(core.ExtractedData{TotalAmount: "1,800.00"}),
		completedRecord(core.ExtractedData{TotalAmount: "2,400"}),
		completedRecord(core.ExtractedData{TotalAmount: "bad-data"}),
	}

	s := Aggregate(Normalize(records))
	if s.KPIs.InvoiceCount != 3 {
		t.Errorf("InvoiceCount = %d, want 3", s.KPIs.InvoiceCount)
	}
	if s.KPIs.TotalAmount != 4200 {
		t.Errorf("TotalAmount = %v, want 4200", s.KPIs.TotalAmount)
	}
	if s.KPIs.AvgInvoice != 1400 {
		t.Errorf("AvgInvoice = %v, want 1400", s.KPIs.AvgInvoice)
	}
}

func TestAggregate_EmptyInput(t *testing.T) {
	s := Aggregate(nil)
	if s.KPIs.InvoiceCount != 0 || s.KPIs.TotalAmount != 0 || s.KPIs.AvgInvoice != 0 {
		t.Errorf("empty KPIs = %+v, want all zero", s.KPIs)
	}
	if len(s.ByMonth) != 0 || len(s.ByVendor) != 0 || len(s.Flows) != 0 || len(s.Cumulative) != 0 {
		t.Errorf("empty aggregates not empty: %+v", s)
	}
}

func TestAggregate_MonthlyAndCumulative(t *testing.T) {
	rows := []Row{
		datedRow("2025-01-12", 100),
		datedRow("2025-02-08", 200),
	}

	s := Aggregate(rows)

	wantMonthly := []MonthlyTotal{
		{Month: "2025-01", Total: 100},
		{Month: "2025-02", Total: 200},
	}
	if !reflect.DeepEqual(s.ByMonth, wantMonthly) {
		t.Errorf("ByMonth = %+v, want %+v", s.ByMonth, wantMonthly)
	}

	wantCumulative := []CumulativePoint{
		{Month: "2025-01", Cumulative: 100},
		{Month: "2025-02", Cumulative: 300},
	}
	if !reflect.DeepEqual(s.Cumulative, wantCumulative) {
		t.Errorf("Cumulative = %+v, want %+v", s.Cumulative, wantCumulative)
	}
}

func TestAggregate_UnknownMonthSortsLast(t *testing.T) {
	rows := []Row{
		undatedRow(5),
		datedRow("2025-12-01", 1),
		datedRow("2025-01-01", 2),
	}

	s := Aggregate(rows)
	if len(s.ByMonth) != 3 {
		t.Fatalf("ByMonth has %d entries, want 3", len(s.ByMonth))
	}
	if s.ByMonth[0].Month != "2025-01" || s.ByMonth[1].Month != "2025-12" || s.ByMonth[2].Month != UnknownKey {
		t.Errorf("ByMonth order = %v %v %v, want 2025-01, 2025-12, Unknown",
			s.ByMonth[0].Month, s.ByMonth[1].Month, s.ByMonth[2].Month)
	}
}

func TestAggregate_VendorTopEightPlusOthers(t *testing.T) {
	totals := map[string]float64{
		"A": 500, "B": 400, "C": 300, "D": 200, "E": 150,
		"F": 100, "G": 90, "H": 80, "I": 70, "J": 60,
	}
	var rows []Row
	for name, total := range totals {
		rows = append(rows, Row{Vendor: name, MonthKey: UnknownKey, Total: total})
	}

	s := Aggregate(rows)
	if len(s.ByVendor) != 9 {
		t.Fatalf("ByVendor has %d entries, want 9 (top 8 + Others)", len(s.ByVendor))
	}
	last := s.ByVendor[8]
	if last.Name != OthersKey || last.Total != 130 {
		t.Errorf("last entry = %+v, want {Others 130}", last)
	}
	if s.ByVendor[0].Name != "A" || s.ByVendor[0].Total != 500 {
		t.Errorf("top entry = %+v, want {A 500}", s.ByVendor[0])
	}
	for _, v := range s.ByVendor[:8] {
		if v.Name == "I" || v.Name == "J" {
			t.Errorf("vendor %s should have been collapsed into Others", v.Name)
		}
	}
}

func TestAggregate_NoOthersWhenEightOrFewer(t *testing.T) {
	var rows []Row
	for _, name := range []string{"A", "B", "C", "D", "E", "F", "G", "H"} {
		rows = append(rows, Row{Vendor: name, MonthKey: UnknownKey, Total: 10})
	}

	s := Aggregate(rows)
	if len(s.ByVendor) != 8 {
		t.Fatalf("ByVendor has %d entries, want 8", len(s.ByVendor))
	}
	for _, v := range s.ByVendor {
		if v.Name == OthersKey {
			t.Error("Others entry present with only 8 vendors")
		}
	}
}

func TestAggregate_SumConservation(t *testing.T) {
	rows := FilterWindow(Normalize(DemoRecords()), 12)
	s := Aggregate(rows)

	var monthlySum float64
	for _, m := range s.ByMonth {
		monthlySum += m.Total
	}
	var vendorSum float64
	for _, v := range s.ByVendor {
		vendorSum += v.Total
	}

	const eps = 1e-9
	if math.Abs(s.KPIs.TotalAmount-monthlySum) > eps {
		t.Errorf("monthly sum %v != KPI total %v", monthlySum, s.KPIs.TotalAmount)
	}
	if math.Abs(s.KPIs.TotalAmount-vendorSum) > eps {
		t.Errorf("vendor sum %v != KPI total %v", vendorSum, s.KPIs.TotalAmount)
	}
	if n := len(s.Cumulative); n > 0 {
		if math.Abs(s.Cumulative[n-1].Cumulative-s.KPIs.TotalAmount) > eps {
			t.Errorf("final cumulative %v != KPI total %v", s.Cumulative[n-1].Cumulative, s.KPIs.TotalAmount)
		}
	}
}

func TestAggregate_FlowsMatchMonthly(t *testing.T) {
	rows := []Row{
		{MonthKey: "2025-01", Vendor: "A", Subtotal: 100, VAT: 5, Total: 105},
		{MonthKey: "2025-01", Vendor: "B", Subtotal: 50, VAT: 2.5, Total: 52.5},
		{MonthKey: "2025-02", Vendor: "A", Subtotal: 200, VAT: 10, Total: 210},
	}

	s := Aggregate(rows)
	want := []MonthlyFlow{
		{Month: "2025-01", Subtotal: 150, VAT: 7.5},
		{Month: "2025-02", Subtotal: 200, VAT: 10},
	}
	if !reflect.DeepEqual(s.Flows, want) {
		t.Errorf("Flows = %+v, want %+v", s.Flows, want)
	}
}

func TestAggregate_Idempotent(t *testing.T) {
	records := DemoRecords()
	first := Aggregate(FilterWindow(Normalize(records), 6))
	second := Aggregate(FilterWindow(Normalize(records), 6))
	if !reflect.DeepEqual(first, second) {
		t.Error("two runs over the same snapshot produced different output")
	}
}
