package core

import (
	"errors"
	"strings"
	"time"
)

const (
	StatusUploaded   ExtractionStatus = "uploaded"
	StatusProcessing ExtractionStatus = "processing"
	StatusCompleted  ExtractionStatus = "completed"
	StatusError      ExtractionStatus = "error"
)

type (
	// ExtractionStatus is an open string set; records coming from outside
	// may carry values we do not know about. Only StatusCompleted makes a
	// record eligible for analytics.
	ExtractionStatus string

	// ExtractedData holds the fields pulled out of an invoice document.
	// Everything is a free-form string exactly as extracted; parsing and
	// defaulting happen downstream in the analytics package.
	ExtractedData struct {
		InvoiceDate    string `json:"invoice_date"`
		InvoiceNumber  string `json:"invoice_number"`
		TRNNumber      string `json:"trn_number"`
		VendorName     string `json:"vendor_name"`
		TotalBeforeTax string `json:"total_before_tax"`
		VATAmount      string `json:"vat_amount"`
		TotalAmount    string `json:"total_amount"`
	}

	// InvoiceRecord is one uploaded invoice document and, once extraction
	// has run, its extracted fields.
	InvoiceRecord struct {
		ID         string           `json:"id"`
		FileName   string           `json:"fileName"`
		FileSize   int64            `json:"fileSize"`
		FileType   string           `json:"fileType"`
		Status     ExtractionStatus `json:"status"`
		RawText    string           `json:"rawText,omitempty"`
		OrderIndex int              `json:"processingOrderIndex"`
		Extracted  *ExtractedData   `json:"extractedData,omitempty"`
		CreatedAt  time.Time        `json:"createdAt"`
		UpdatedAt  time.Time        `json:"updatedAt"`
	}
)

var (
	ErrEmptyFileName = errors.New("empty file name")
	ErrInvalidStatus = errors.New("invalid status")
	ErrNotFound      = errors.New("invoice record not found")
)

// KnownStatus reports whether s is one of the statuses this application
// writes itself. Records read back from storage may carry other values
// and are tolerated everywhere except on write.
func KnownStatus(s ExtractionStatus) bool {
	switch s {
	case StatusUploaded, StatusProcessing, StatusCompleted, StatusError:
		return true
	}
	return false
}

// Eligible reports whether the record may enter the analytics pipeline:
// extraction finished and produced data. Ineligible records are dropped
// before normalization, never represented as partial rows.
func (r InvoiceRecord) Eligible() bool {
	return r.Status == StatusCompleted && r.Extracted != nil
}

func (r InvoiceRecord) Validate() error {
	if strings.TrimSpace(r.FileName) == "" {
		return ErrEmptyFileName
	}
	if len(r.FileName) > 255 {
		return errors.New("file name too long (max 255 characters)")
	}
	if !KnownStatus(r.Status) {
		return ErrInvalidStatus
	}
	return nil
}
