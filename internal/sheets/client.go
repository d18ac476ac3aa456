// Package sheets appends completed invoice rows to a Google
// spreadsheet so analytics can be eyeballed outside the application.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"invoicedash/internal/analytics"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// RowAppender is what the worker depends on; *Client implements it.
type RowAppender interface {
	AppendRow(ctx context.Context, row analytics.Row) error
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var _ RowAppender = (*Client)(nil)

// NewFromEnv creates a Sheets client from environment variables.
// Required: SHEETS_SPREADSHEET_ID, plus service account credentials in
// SHEETS_SERVICE_ACCOUNT_JSON, SHEETS_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS. Optional: SHEETS_SHEET_NAME
// (default "Invoices").
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("SHEETS_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing SHEETS_SPREADSHEET_ID")
	}

	sheetName := strings.TrimSpace(os.Getenv("SHEETS_SHEET_NAME"))
	if sheetName == "" {
		sheetName = "Invoices"
	}

	credentialsJSON, err := credentialsFromEnv()
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

func credentialsFromEnv() ([]byte, error) {
	if inline := strings.TrimSpace(os.Getenv("SHEETS_SERVICE_ACCOUNT_JSON")); inline != "" {
		return []byte(inline), nil
	}
	path := strings.TrimSpace(os.Getenv("SHEETS_SERVICE_ACCOUNT_FILE"))
	if path == "" {
		path = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if path == "" {
		return nil, errors.New("missing service account credentials (set SHEETS_SERVICE_ACCOUNT_JSON, SHEETS_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	return data, nil
}

// AppendRow appends one normalized row under the CSV column layout:
// Date, Vendor, Invoice No, Subtotal, VAT, Total.
func (c *Client) AppendRow(ctx context.Context, row analytics.Row) error {
	date := ""
	if row.HasDate {
		date = row.Date.Format("2006-01-02")
	}
	values := &gsheet.ValueRange{
		Values: [][]interface{}{{
			date, row.Vendor, row.Number, row.Subtotal, row.VAT, row.Total,
		}},
	}

	_, err := c.svc.Spreadsheets.Values.
		Append(c.spreadsheetID, c.sheetName+"!A:F", values).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append row to sheet %s: %w", c.sheetName, err)
	}
	return nil
}
