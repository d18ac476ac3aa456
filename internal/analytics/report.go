package analytics

import (
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// WriteReportPDF renders the summary as a one-page PDF report: the KPI
// block followed by the monthly and vendor tables. generatedAt appears
// in the header.
func WriteReportPDF(w io.Writer, s Summary, generatedAt time.Time) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFillColor(40, 40, 40)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 12, "  Invoice Analytics", "", 1, "L", true, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.SetFillColor(240, 240, 240)
	pdf.SetTextColor(50, 50, 50)
	pdf.CellFormat(0, 8, fmt.Sprintf("  Generated %s", generatedAt.UTC().Format("2006-01-02")), "", 1, "L", true, 0, "")
	pdf.Ln(8)

	section := func(title string) {
		pdf.SetFont("Arial", "B", 12)
		pdf.SetTextColor(0, 0, 0)
		pdf.Cell(0, 8, title)
		pdf.Ln(7)
		pdf.SetDrawColor(200, 200, 200)
		pdf.Line(pdf.GetX(), pdf.GetY(), pdf.GetX()+190, pdf.GetY())
		pdf.Ln(4)
		pdf.SetFont("Arial", "", 10)
		pdf.SetTextColor(50, 50, 50)
	}

	section("Summary")
	pdf.MultiCell(190, 5, tr(fmt.Sprintf(
		"Invoices: %d\nTotal Amount: %s\nTotal VAT: %s\nAverage Invoice: %s",
		s.KPIs.InvoiceCount,
		formatAmount(s.KPIs.TotalAmount),
		formatAmount(s.KPIs.TotalVAT),
		formatAmount(s.KPIs.AvgInvoice),
	)), "", "L", false)
	pdf.Ln(6)

	section("Monthly Totals")
	for _, m := range s.ByMonth {
		pdf.MultiCell(190, 5, tr(fmt.Sprintf("%s  total %s  vat %s  subtotal %s",
			m.Month, formatAmount(m.Total), formatAmount(m.VAT), formatAmount(m.Subtotal))), "", "L", false)
	}
	if len(s.ByMonth) == 0 {
		pdf.MultiCell(190, 5, "no data", "", "L", false)
	}
	pdf.Ln(6)

	section("Vendor Share")
	for _, v := range s.ByVendor {
		pdf.MultiCell(190, 5, tr(fmt.Sprintf("%s  %s", v.Name, formatAmount(v.Total))), "", "L", false)
	}
	if len(s.ByVendor) == 0 {
		pdf.MultiCell(190, 5, "no data", "", "L", false)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf report: %w", err)
	}
	return nil
}

// ReportFileName returns the conventional download name for a PDF
// report generated at time now.
func ReportFileName(now time.Time) string {
	return "invoice_analytics_" + now.UTC().Format("2006-01-02") + ".pdf"
}
