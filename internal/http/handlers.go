package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"invoicedash/internal/analytics"
	"invoicedash/internal/core"
)

type analyticsResponse struct {
	Months int  `json:"months"`
	Demo   bool `json:"demo"`
	analytics.Summary
}

// loadRows normalizes the stored records into analytics rows. When the
// store holds nothing eligible and the demo fallback is enabled, the
// seeded demo dataset is served instead so the dashboard never renders
// empty on a fresh install.
func (s *Server) loadRows(r *http.Request) ([]analytics.Row, bool, error) {
	records, err := s.store.List(r.Context())
	if err != nil {
		return nil, false, err
	}

	if !analytics.HasEligible(records) && s.demoFallback {
		return analytics.Normalize(analytics.DemoRecords()), true, nil
	}
	return analytics.Normalize(records), false, nil
}

func (s *Server) summarize(r *http.Request, months int) (analytics.Summary, bool, error) {
	cacheKey := strconv.Itoa(months)
	if summary, found := s.summaryCache.Get(cacheKey); found {
		slog.DebugContext(r.Context(), "Summary cache hit", "months", months)
		return summary, false, nil
	}

	rows, demo, err := s.loadRows(r)
	if err != nil {
		return analytics.Summary{}, false, err
	}

	summary := analytics.Aggregate(analytics.FilterWindow(rows, months))
	if !demo {
		// Demo output is never cached so real uploads show up immediately.
		s.summaryCache.Set(cacheKey, summary)
	}
	return summary, demo, nil
}

func monthsParam(r *http.Request) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get("months"))
	if v == "" {
		return analytics.DefaultWindow, nil
	}
	months, err := strconv.Atoi(v)
	if err != nil || !analytics.ValidWindow(months) {
		return 0, errors.New("months must be one of 3, 6, 12, 24")
	}
	return months, nil
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	months, err := monthsParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, demo, err := s.summarize(r, months)
	if err != nil {
		slog.ErrorContext(r.Context(), "Analytics aggregation failed", "error", err, "months", months)
		writeError(w, http.StatusInternalServerError, "failed to build analytics")
		return
	}

	writeJSON(w, http.StatusOK, analyticsResponse{
		Months:  months,
		Demo:    demo,
		Summary: summary,
	})
}

func (s *Server) handleAnalyticsExport(w http.ResponseWriter, r *http.Request) {
	months, err := monthsParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rows, _, err := s.loadRows(r)
	if err != nil {
		slog.ErrorContext(r.Context(), "Analytics export failed", "error", err, "months", months)
		writeError(w, http.StatusInternalServerError, "failed to export analytics")
		return
	}
	rows = analytics.FilterWindow(rows, months)

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+analytics.ExportFileName(time.Now())+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(analytics.ExportCSV(rows)))
}

func (s *Server) handleAnalyticsReport(w http.ResponseWriter, r *http.Request) {
	months, err := monthsParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, _, err := s.summarize(r, months)
	if err != nil {
		slog.ErrorContext(r.Context(), "Analytics report failed", "error", err, "months", months)
		writeError(w, http.StatusInternalServerError, "failed to build report")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+analytics.ReportFileName(time.Now())+`"`)
	w.WriteHeader(http.StatusOK)
	if err := analytics.WriteReportPDF(w, summary, time.Now()); err != nil {
		slog.ErrorContext(r.Context(), "Report rendering failed", "error", err, "months", months)
	}
}

type createInvoiceRequest struct {
	FileName string `json:"fileName"`
	FileSize int64  `json:"fileSize"`
	FileType string `json:"fileType"`
	RawText  string `json:"rawText"`
}

func (s *Server) handleCreateInvoice(w http.ResponseWriter, r *http.Request) {
	var req createInvoiceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	existing, err := s.store.List(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List records failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to store invoice")
		return
	}

	// Indexes derive from the current maximum, not the count, so they
	// stay unique after deletions.
	maxIndex := 0
	for _, rec := range existing {
		if rec.OrderIndex > maxIndex {
			maxIndex = rec.OrderIndex
		}
	}

	record := core.InvoiceRecord{
		ID:         uuid.NewString(),
		FileName:   strings.TrimSpace(req.FileName),
		FileSize:   req.FileSize,
		FileType:   req.FileType,
		Status:     core.StatusUploaded,
		RawText:    req.RawText,
		OrderIndex: maxIndex + 1,
	}
	if err := record.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	created, err := s.store.Create(r.Context(), record)
	if err != nil {
		slog.ErrorContext(r.Context(), "Create record failed", "error", err, "file_name", record.FileName)
		writeError(w, http.StatusInternalServerError, "failed to store invoice")
		return
	}

	if s.publisher != nil {
		if err := s.publisher.PublishExtraction(r.Context(), created.ID); err != nil {
			// The periodic pending sweep will pick the record up.
			slog.ErrorContext(r.Context(), "Failed to queue extraction job",
				"error", err, "id", created.ID)
		}
	}

	s.summaryCache.Clear()
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListInvoices(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.List(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List records failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list invoices")
		return
	}
	if records == nil {
		records = []core.InvoiceRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleGetInvoice(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	record, err := s.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			writeError(w, http.StatusNotFound, "invoice not found")
			return
		}
		slog.ErrorContext(r.Context(), "Get record failed", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, "failed to load invoice")
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleDeleteInvoice(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := s.store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			writeError(w, http.StatusNotFound, "invoice not found")
			return
		}
		slog.ErrorContext(r.Context(), "Delete record failed", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, "failed to delete invoice")
		return
	}

	s.summaryCache.Clear()
	w.WriteHeader(http.StatusNoContent)
}
