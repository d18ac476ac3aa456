package analytics

import (
	"fmt"
	"math"
	"strings"

	"invoicedash/internal/core"
)

// demoSeed mirrors the seeded sample set shown before any real invoice
// has been processed: fourteen invoices spread over eight months and
// six vendors, with a flat 5% VAT.
var demoSeed = []struct {
	date     string
	vendor   string
	subtotal float64
}{
	{"2025-01-12", "Alpha Supplies", 1800},
	{"2025-01-25", "Gamma Office", 2400},
	{"2025-02-08", "Beta Traders", 1200},
	{"2025-02-22", "Delta Telecom", 3100},
	{"2025-03-05", "Alpha Supplies", 2200},
	{"2025-03-19", "Orion Foods", 1600},
	{"2025-04-11", "Gamma Office", 2800},
	{"2025-05-03", "Beta Traders", 1950},
	{"2025-05-28", "Delta Telecom", 3300},
	{"2025-06-10", "Alpha Supplies", 2550},
	{"2025-06-21", "Orion Foods", 1400},
	{"2025-07-07", "Gamma Office", 2900},
	{"2025-07-26", "Beta Traders", 2100},
	{"2025-08-09", "Delta Telecom", 3700},
}

// DemoRecords builds the demo snapshot. Whether to use it instead of
// real data is the caller's decision; the analytics pipeline itself
// never falls back on its own.
func DemoRecords() []core.InvoiceRecord {
	records := make([]core.InvoiceRecord, 0, len(demoSeed))
	for i, d := range demoSeed {
		n := i + 1
		vat := math.Round(d.subtotal*0.05*100) / 100
		total := math.Round((d.subtotal+vat)*100) / 100
		records = append(records, core.InvoiceRecord{
			ID:         fmt.Sprintf("demo_%d", n),
			FileName:   fmt.Sprintf("Demo Invoice %d", n),
			FileType:   "application/json",
			Status:     core.StatusCompleted,
			OrderIndex: n,
			Extracted: &core.ExtractedData{
				InvoiceDate:    d.date,
				InvoiceNumber:  fmt.Sprintf("INV-%s-%d", strings.ReplaceAll(d.date, "-", ""), n),
				TRNNumber:      fmt.Sprintf("TRN%d", 1000+n),
				VendorName:     d.vendor,
				TotalBeforeTax: formatAmount(d.subtotal),
				VATAmount:      formatAmount(vat),
				TotalAmount:    formatAmount(total),
			},
		})
	}
	return records
}

// HasEligible reports whether any record would survive normalization.
// Handlers use this to decide between real data and the demo snapshot.
func HasEligible(records []core.InvoiceRecord) bool {
	for _, r := range records {
		if r.Eligible() {
			return true
		}
	}
	return false
}
