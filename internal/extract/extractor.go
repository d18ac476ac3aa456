// Package extract pulls invoice fields out of raw document text using
// labeled-line heuristics. It is intentionally forgiving: fields that
// cannot be found are left empty and the caller decides what a usable
// extraction looks like.
package extract

import (
	"regexp"
	"strings"

	"invoicedash/internal/core"
)

// Money lines require an explicit separator and at least one digit so
// that headings like "TAX INVOICE" never match.
var (
	dateRe    = regexp.MustCompile(`(?im)^\s*(?:invoice\s+)?date\s*[:\-]\s*(.+?)\s*$`)
	numberRe  = regexp.MustCompile(`(?im)^\s*invoice\s*(?:no\.?|number|#)\s*[:\-]?\s*(\S+)\s*$`)
	trnRe     = regexp.MustCompile(`(?im)^\s*trn\s*(?:no\.?|number)?\s*[:\-]?\s*(\S+)\s*$`)
	vendorRe  = regexp.MustCompile(`(?im)^\s*(?:vendor|supplier|billed\s+by|from)\s*[:\-]\s*(.+?)\s*$`)
	subRe     = regexp.MustCompile(`(?im)^\s*(?:sub\s*total|total\s+before\s+tax|net\s+amount)\s*[:\-]\s*([^\r\n]*\d[^\r\n]*?)\s*$`)
	vatRe     = regexp.MustCompile(`(?im)^\s*(?:vat|tax)(?:\s+amount)?(?:\s*\([^)]*\))?\s*[:\-]\s*([^\r\n]*\d[^\r\n]*?)\s*$`)
	totalRe   = regexp.MustCompile(`(?im)^\s*(?:grand\s+)?total(?:\s+amount)?(?:\s+due)?\s*[:\-]\s*([^\r\n]*\d[^\r\n]*?)\s*$`)
	bareDates = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2}|\d{2}[-/]\d{2}[-/]\d{4})\b`)
)

// FromText extracts invoice fields from raw document text. Missing
// fields stay empty; the function never fails on malformed input.
func FromText(text string) core.ExtractedData {
	d := core.ExtractedData{
		InvoiceDate:    firstMatch(dateRe, text),
		InvoiceNumber:  firstMatch(numberRe, text),
		TRNNumber:      firstMatch(trnRe, text),
		VendorName:     firstMatch(vendorRe, text),
		TotalBeforeTax: firstMatch(subRe, text),
		VATAmount:      firstMatch(vatRe, text),
		TotalAmount:    firstMatch(totalRe, text),
	}
	if d.InvoiceDate == "" {
		d.InvoiceDate = firstMatch(bareDates, text)
	}
	return d
}

// Usable reports whether the extraction produced enough signal to mark
// a record completed: at least one monetary field or a date.
func Usable(d core.ExtractedData) bool {
	return d.TotalAmount != "" || d.TotalBeforeTax != "" || d.VATAmount != "" || d.InvoiceDate != ""
}

func firstMatch(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}
