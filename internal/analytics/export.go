package analytics

import (
	"strconv"
	"strings"
	"time"
)

// csvHeader is fixed; consumers key on these column names.
const csvHeader = "Date,Vendor,Invoice No,Subtotal,VAT,Total"

// ExportCSV serializes the filtered rows to CSV text, one line per row
// in row order. Dates render as ISO YYYY-MM-DD, or empty when absent.
// Commas inside vendor and invoice number are replaced with spaces;
// there is no further quoting. Amounts render as plain decimal numbers.
func ExportCSV(rows []Row) string {
	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, csvHeader)
	for _, r := range rows {
		date := ""
		if r.HasDate {
			date = r.Date.Format("2006-01-02")
		}
		fields := []string{
			date,
			csvSafe(r.Vendor),
			csvSafe(r.Number),
			formatAmount(r.Subtotal),
			formatAmount(r.VAT),
			formatAmount(r.Total),
		}
		lines = append(lines, strings.Join(fields, ","))
	}
	return strings.Join(lines, "\n")
}

// ExportFileName returns the conventional download name for a CSV
// export performed at time now.
func ExportFileName(now time.Time) string {
	return "invoice_analytics_" + now.UTC().Format("2006-01-02") + ".csv"
}

func csvSafe(s string) string {
	return strings.ReplaceAll(s, ",", " ")
}

// formatAmount renders the shortest decimal representation: 1800 stays
// "1800", 100.5 stays "100.5", no currency formatting.
func formatAmount(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
