// Package cli implements the offline analysis command. It reads a JSON
// snapshot of invoice records (the same shape the API serves), runs the
// aggregation pipeline and writes the results to the terminal or to
// CSV/PDF files.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"invoicedash/internal/analytics"
	"invoicedash/internal/core"
)

// App wires the cobra command tree.
type App struct {
	rootCmd *cobra.Command
	out     io.Writer
}

func NewApp(version string) *App {
	app := &App{out: os.Stdout}

	rootCmd := &cobra.Command{
		Use:           "invoicedash-cli",
		Short:         "Invoice analytics from the command line",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze",
		Short: "Aggregate a JSON snapshot of invoice records",
		RunE:  app.runAnalyze,
	}
	analyzeCmd.Flags().StringP("input", "i", "", "Path to a JSON array of invoice records (default: built-in demo data)")
	analyzeCmd.Flags().IntP("months", "m", analytics.DefaultWindow, "Trailing window in months (3, 6, 12 or 24)")
	analyzeCmd.Flags().String("csv", "", "Write the filtered rows as CSV to this file")
	analyzeCmd.Flags().String("pdf", "", "Write a summary report as PDF to this file")

	rootCmd.AddCommand(analyzeCmd)
	app.rootCmd = rootCmd
	return app
}

// Execute runs the CLI application.
func (app *App) Execute() error {
	return app.rootCmd.Execute()
}

// SetOutput redirects command output, used by tests.
func (app *App) SetOutput(w io.Writer) {
	app.out = w
}

func (app *App) runAnalyze(cmd *cobra.Command, _ []string) error {
	input, _ := cmd.Flags().GetString("input")
	months, _ := cmd.Flags().GetInt("months")
	csvPath, _ := cmd.Flags().GetString("csv")
	pdfPath, _ := cmd.Flags().GetString("pdf")

	if !analytics.ValidWindow(months) {
		return fmt.Errorf("invalid window %d: must be one of %v", months, analytics.WindowOptions)
	}

	records, err := loadRecords(input)
	if err != nil {
		return err
	}

	rows := analytics.FilterWindow(analytics.Normalize(records), months)
	summary := analytics.Aggregate(rows)

	app.printSummary(summary, months, len(records))

	if csvPath != "" {
		if err := os.WriteFile(csvPath, []byte(analytics.ExportCSV(rows)), 0644); err != nil {
			return fmt.Errorf("write CSV: %w", err)
		}
		fmt.Fprintf(app.out, "\nCSV written to %s\n", csvPath)
	}

	if pdfPath != "" {
		f, err := os.Create(pdfPath)
		if err != nil {
			return fmt.Errorf("create PDF file: %w", err)
		}
		defer f.Close()
		if err := analytics.WriteReportPDF(f, summary, time.Now()); err != nil {
			return fmt.Errorf("write PDF: %w", err)
		}
		fmt.Fprintf(app.out, "PDF report written to %s\n", pdfPath)
	}

	return nil
}

func loadRecords(path string) ([]core.InvoiceRecord, error) {
	if path == "" {
		return analytics.DemoRecords(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var records []core.InvoiceRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse snapshot %s: %w", path, err)
	}
	return records, nil
}

func (app *App) printSummary(s analytics.Summary, months, total int) {
	fmt.Fprintf(app.out, "Window: last %d months (%d of %d records eligible)\n\n", months, s.KPIs.InvoiceCount, total)

	fmt.Fprintf(app.out, "Invoices:      %d\n", s.KPIs.InvoiceCount)
	fmt.Fprintf(app.out, "Total amount:  %s\n", formatAmount(s.KPIs.TotalAmount))
	fmt.Fprintf(app.out, "Total VAT:     %s\n", formatAmount(s.KPIs.TotalVAT))
	fmt.Fprintf(app.out, "Avg invoice:   %s\n", formatAmount(s.KPIs.AvgInvoice))

	if len(s.ByMonth) > 0 {
		fmt.Fprintf(app.out, "\nMonthly totals:\n")
		for _, m := range s.ByMonth {
			fmt.Fprintf(app.out, "  %-8s %12s\n", m.Month, formatAmount(m.Total))
		}
	}

	if len(s.ByVendor) > 0 {
		fmt.Fprintf(app.out, "\nTop vendors:\n")
		for _, v := range s.ByVendor {
			fmt.Fprintf(app.out, "  %-24s %12s\n", v.Name, formatAmount(v.Total))
		}
	}
}

func formatAmount(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}
