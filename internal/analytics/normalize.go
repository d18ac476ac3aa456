// Package analytics derives chart-ready views from extracted invoice
// records: normalized rows, a trailing time window, monthly and vendor
// aggregates, and CSV/PDF exports.
//
// Everything in this package is a pure function of its input. Malformed
// data never produces an error: bad dates bucket under "Unknown", bad
// amounts coerce to zero, blank vendors default to "Unknown".
package analytics

import (
	"strconv"
	"strings"
	"time"

	"invoicedash/internal/core"
)

// UnknownKey is the month bucket and vendor default for rows where the
// corresponding field could not be parsed.
const UnknownKey = "Unknown"

// Row is the flat, immutable representation of one eligible invoice
// record. HasDate distinguishes a real date from the zero value.
type Row struct {
	Date     time.Time
	HasDate  bool
	MonthKey string
	Vendor   string
	Number   string
	Subtotal float64
	VAT      float64
	Total    float64
}

// generalDateLayouts are tried first, before the day-first fallbacks.
// They cover ISO dates and the formats extraction tends to emit.
var generalDateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006/01/02",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
}

// Normalize converts records into rows, preserving input order. Records
// that are not eligible (status not "completed", or no extracted data)
// produce nothing.
func Normalize(records []core.InvoiceRecord) []Row {
	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		if !rec.Eligible() {
			continue
		}
		d := rec.Extracted
		row := Row{
			Vendor:   normalizeVendor(d.VendorName),
			Number:   d.InvoiceNumber,
			Subtotal: parseMoney(d.TotalBeforeTax),
			VAT:      parseMoney(d.VATAmount),
			Total:    parseMoney(d.TotalAmount),
			MonthKey: UnknownKey,
		}
		if dt, ok := parseDate(d.InvoiceDate); ok {
			row.Date = dt
			row.HasDate = true
			row.MonthKey = monthKey(dt)
		}
		rows = append(rows, row)
	}
	return rows
}

// parseDate tries general calendar layouts first, then DD-MM-YYYY, then
// DD/MM/YYYY. The first layout that matches wins. All dates are UTC.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range generalDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	if t, err := time.Parse("02-01-2006", s); err == nil {
		return t.UTC(), true
	}
	if t, err := time.Parse("02/01/2006", s); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}

// parseMoney strips everything that is not a digit, dot or minus sign
// and parses the rest as a decimal number. Anything unparsable, and any
// non-finite result, coerces to 0.
func parseMoney(s string) float64 {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	n, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0
	}
	return n
}

func normalizeVendor(s string) string {
	v := strings.TrimSpace(s)
	if v == "" {
		return UnknownKey
	}
	return v
}

func monthKey(t time.Time) string {
	return t.Format("2006-01")
}
