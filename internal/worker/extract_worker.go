package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"invoicedash/internal/amqp"
	"invoicedash/internal/analytics"
	"invoicedash/internal/core"
	"invoicedash/internal/extract"
	"invoicedash/internal/sheets"
	"invoicedash/internal/storage"
)

const maxConcurrentExtractions = 4

// staleProcessingAge is how long a record may sit in the processing
// state before the sweep reclaims it. Covers workers that crashed
// between claiming a record and storing an outcome.
const staleProcessingAge = 10 * time.Minute

// ExtractWorker pulls uploaded invoices out of storage, runs field
// extraction on their raw text and records the result. When a sheets
// appender is configured, completed rows are mirrored to the
// spreadsheet as well.
type ExtractWorker struct {
	storage    storage.Store
	sheets     sheets.RowAppender
	batchSize  int
	staleAfter time.Duration
}

func NewExtractWorker(storage storage.Store, sheets sheets.RowAppender, batchSize int) *ExtractWorker {
	if batchSize < 1 {
		batchSize = 1
	}
	return &ExtractWorker{
		storage:    storage,
		sheets:     sheets,
		batchSize:  batchSize,
		staleAfter: staleProcessingAge,
	}
}

// HandleExtractionMessage processes a single extraction job from AMQP.
func (w *ExtractWorker) HandleExtractionMessage(ctx context.Context, msg *amqp.ExtractionMessage) error {
	slog.InfoContext(ctx, "Processing extraction message", "id", msg.ID)

	record, err := w.storage.Get(ctx, msg.ID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			// The record was deleted after the job was queued; drop it.
			slog.WarnContext(ctx, "Record no longer exists, skipping", "id", msg.ID)
			return nil
		}
		return fmt.Errorf("get record from storage: %w", err)
	}

	// Both terminal states end the job: a redelivered message for a
	// record that already failed must ack, not requeue forever.
	if record.Status == core.StatusCompleted || record.Status == core.StatusError {
		slog.InfoContext(ctx, "Record already in terminal state, skipping",
			"id", msg.ID, "status", record.Status)
		return nil
	}

	return w.extractRecord(ctx, record)
}

// sweepBatch collects records the sweep should pick up: uploads still
// waiting for extraction, plus processing records old enough that their
// worker must have died mid-flight.
func (w *ExtractWorker) sweepBatch(ctx context.Context, limit int) ([]core.InvoiceRecord, error) {
	pending, err := w.storage.ListPending(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending records: %w", err)
	}

	stale, err := w.storage.ListStaleProcessing(ctx, time.Now().UTC().Add(-w.staleAfter), limit)
	if err != nil {
		return nil, fmt.Errorf("list stale processing records: %w", err)
	}
	if len(stale) > 0 {
		slog.InfoContext(ctx, "Reclaiming stale processing records", "count", len(stale))
	}

	return append(pending, stale...), nil
}

// ProcessPending extracts any records still waiting for extraction.
// This is a backup mechanism in case AMQP messages are lost.
func (w *ExtractWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.sweepBatch(ctx, w.batchSize)
	if err != nil {
		return err
	}

	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending records", "count", len(pending))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentExtractions)

	for _, record := range pending {
		record := record
		g.Go(func() error {
			if err := w.extractRecord(gctx, record); err != nil {
				slog.ErrorContext(gctx, "Failed to extract record",
					"id", record.ID, "error", err)
			}
			// Per-record failures are logged, not fatal for the batch.
			return nil
		})
	}

	return g.Wait()
}

// StartupCheck sweeps a larger pending batch at worker startup to
// recover from missed AMQP messages or worker downtime.
func (w *ExtractWorker) StartupCheck(ctx context.Context) error {
	pending, err := w.sweepBatch(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("startup check: %w", err)
	}

	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending records found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending records on startup, processing...",
		"count", len(pending))

	successCount := 0
	errorCount := 0

	for _, record := range pending {
		if err := w.extractRecord(ctx, record); err != nil {
			slog.ErrorContext(ctx, "Failed to extract record during startup",
				"id", record.ID, "error", err)
			errorCount++
			continue
		}
		successCount++
	}

	slog.InfoContext(ctx, "Startup check completed",
		"total", len(pending),
		"extracted", successCount,
		"errors", errorCount)

	return nil
}

// Run sweeps pending records on the given interval until ctx is done.
func (w *ExtractWorker) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.ProcessPending(ctx); err != nil {
				slog.ErrorContext(ctx, "Pending sweep failed", "error", err)
			}
		}
	}
}

func (w *ExtractWorker) extractRecord(ctx context.Context, record core.InvoiceRecord) error {
	if err := w.storage.MarkProcessing(ctx, record.ID); err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}

	data := extract.FromText(record.RawText)
	if !extract.Usable(data) {
		// The failure is durably recorded, so the job is done; returning
		// an error here would requeue a message that can never succeed.
		if err := w.storage.MarkError(ctx, record.ID); err != nil {
			return fmt.Errorf("mark extraction error: %w", err)
		}
		slog.WarnContext(ctx, "No extractable fields, record marked as error",
			"id", record.ID, "file_name", record.FileName)
		return nil
	}

	if err := w.storage.SaveExtraction(ctx, record.ID, data); err != nil {
		return fmt.Errorf("save extraction: %w", err)
	}

	slog.InfoContext(ctx, "Extracted invoice fields",
		"id", record.ID,
		"file_name", record.FileName,
		"vendor", data.VendorName,
		"total", data.TotalAmount)

	if w.sheets != nil {
		if err := w.appendToSheets(ctx, record.ID); err != nil {
			// The extraction itself succeeded; spreadsheet mirroring
			// is best effort.
			slog.ErrorContext(ctx, "Failed to mirror record to spreadsheet",
				"id", record.ID, "error", err)
		}
	}

	return nil
}

func (w *ExtractWorker) appendToSheets(ctx context.Context, id string) error {
	record, err := w.storage.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("reload record: %w", err)
	}

	rows := analytics.Normalize([]core.InvoiceRecord{record})
	if len(rows) == 0 {
		return fmt.Errorf("record %s is not eligible for analytics", id)
	}

	if err := w.sheets.AppendRow(ctx, rows[0]); err != nil {
		return fmt.Errorf("append row: %w", err)
	}

	slog.InfoContext(ctx, "Mirrored record to spreadsheet", "id", id)
	return nil
}
