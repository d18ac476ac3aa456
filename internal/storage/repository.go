package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"invoicedash/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository persists invoice records in a local SQLite database.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const recordColumns = `id, file_name, file_size, file_type, status, raw_text, order_index,
	invoice_date, invoice_number, trn_number, vendor_name,
	total_before_tax, vat_amount, total_amount, extracted_at, created_at, updated_at`

// Create implements Store.
func (r *SQLiteRepository) Create(ctx context.Context, rec core.InvoiceRecord) (core.InvoiceRecord, error) {
	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	var extractedAt sql.NullTime
	if rec.Extracted != nil {
		extractedAt = sql.NullTime{Time: now, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO invoices (id, file_name, file_size, file_type, status, raw_text, order_index,
			invoice_date, invoice_number, trn_number, vendor_name,
			total_before_tax, vat_amount, total_amount, extracted_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.FileName, rec.FileSize, rec.FileType, string(rec.Status), rec.RawText, rec.OrderIndex,
		nullField(rec.Extracted, func(d *core.ExtractedData) string { return d.InvoiceDate }),
		nullField(rec.Extracted, func(d *core.ExtractedData) string { return d.InvoiceNumber }),
		nullField(rec.Extracted, func(d *core.ExtractedData) string { return d.TRNNumber }),
		nullField(rec.Extracted, func(d *core.ExtractedData) string { return d.VendorName }),
		nullField(rec.Extracted, func(d *core.ExtractedData) string { return d.TotalBeforeTax }),
		nullField(rec.Extracted, func(d *core.ExtractedData) string { return d.VATAmount }),
		nullField(rec.Extracted, func(d *core.ExtractedData) string { return d.TotalAmount }),
		extractedAt, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return core.InvoiceRecord{}, fmt.Errorf("insert invoice: %w", err)
	}

	slog.InfoContext(ctx, "Invoice record saved",
		"id", rec.ID,
		"file_name", rec.FileName,
		"status", rec.Status)

	return rec, nil
}

// Get implements Store.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (core.InvoiceRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM invoices WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.InvoiceRecord{}, core.ErrNotFound
	}
	if err != nil {
		return core.InvoiceRecord{}, fmt.Errorf("get invoice %s: %w", id, err)
	}
	return rec, nil
}

// List implements Store. Records come back in processing order.
func (r *SQLiteRepository) List(ctx context.Context) ([]core.InvoiceRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM invoices ORDER BY order_index, created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	var records []core.InvoiceRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate invoices: %w", err)
	}
	return records, nil
}

// Delete implements Store.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM invoices WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete invoice %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// MarkProcessing implements Store.
func (r *SQLiteRepository) MarkProcessing(ctx context.Context, id string) error {
	return r.setStatus(ctx, id, core.StatusProcessing)
}

// MarkError implements Store.
func (r *SQLiteRepository) MarkError(ctx context.Context, id string) error {
	return r.setStatus(ctx, id, core.StatusError)
}

func (r *SQLiteRepository) setStatus(ctx context.Context, id string, status core.ExtractionStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE invoices SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("set invoice %s status %s: %w", id, status, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// SaveExtraction implements Store: stores the extracted fields and
// flips the record to completed in one statement.
func (r *SQLiteRepository) SaveExtraction(ctx context.Context, id string, d core.ExtractedData) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		UPDATE invoices SET
			status = ?, invoice_date = ?, invoice_number = ?, trn_number = ?,
			vendor_name = ?, total_before_tax = ?, vat_amount = ?, total_amount = ?,
			extracted_at = ?, updated_at = ?
		WHERE id = ?`,
		string(core.StatusCompleted),
		d.InvoiceDate, d.InvoiceNumber, d.TRNNumber, d.VendorName,
		d.TotalBeforeTax, d.VATAmount, d.TotalAmount,
		now, now, id)
	if err != nil {
		return fmt.Errorf("save extraction for invoice %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.ErrNotFound
	}

	slog.InfoContext(ctx, "Extraction saved",
		"id", id,
		"vendor", d.VendorName,
		"total", d.TotalAmount)

	return nil
}

// ListPending implements Store: records still waiting for extraction,
// oldest first. Used by the worker's recovery sweep.
func (r *SQLiteRepository) ListPending(ctx context.Context, limit int) ([]core.InvoiceRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM invoices WHERE status = ? ORDER BY created_at, id LIMIT ?`,
		string(core.StatusUploaded), limit)
	if err != nil {
		return nil, fmt.Errorf("list pending invoices: %w", err)
	}
	defer rows.Close()

	var records []core.InvoiceRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pending invoice: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending invoices: %w", err)
	}
	return records, nil
}

// ListStaleProcessing implements Store: records claimed before cutoff
// whose worker never stored an outcome. The sweep reclaims them.
func (r *SQLiteRepository) ListStaleProcessing(ctx context.Context, cutoff time.Time, limit int) ([]core.InvoiceRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM invoices WHERE status = ? AND updated_at < ? ORDER BY updated_at, id LIMIT ?`,
		string(core.StatusProcessing), cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("list stale processing invoices: %w", err)
	}
	defer rows.Close()

	var records []core.InvoiceRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stale invoice: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stale invoices: %w", err)
	}
	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(s rowScanner) (core.InvoiceRecord, error) {
	var (
		rec         core.InvoiceRecord
		status      string
		date        sql.NullString
		number      sql.NullString
		trn         sql.NullString
		vendor      sql.NullString
		subtotal    sql.NullString
		vat         sql.NullString
		total       sql.NullString
		extractedAt sql.NullTime
	)
	err := s.Scan(&rec.ID, &rec.FileName, &rec.FileSize, &rec.FileType, &status, &rec.RawText, &rec.OrderIndex,
		&date, &number, &trn, &vendor, &subtotal, &vat, &total, &extractedAt,
		&rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return core.InvoiceRecord{}, err
	}
	rec.Status = core.ExtractionStatus(status)
	if extractedAt.Valid {
		rec.Extracted = &core.ExtractedData{
			InvoiceDate:    date.String,
			InvoiceNumber:  number.String,
			TRNNumber:      trn.String,
			VendorName:     vendor.String,
			TotalBeforeTax: subtotal.String,
			VATAmount:      vat.String,
			TotalAmount:    total.String,
		}
	}
	return rec, nil
}

func nullField(d *core.ExtractedData, get func(*core.ExtractedData) string) any {
	if d == nil {
		return nil
	}
	return get(d)
}
