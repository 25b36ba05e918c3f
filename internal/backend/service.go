package backend

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zombor/invoice-extractor/internal/document"
	"github.com/zombor/invoice-extractor/internal/ledger"
	"github.com/zombor/invoice-extractor/internal/scanning"
)

// IDGenerator generates unique IDs for ledger entries
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return uuid.NewString()
}

type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service extracts documents and records submitted invoices
type Service struct {
	scanner     scanning.Scanner
	db          ledger.DB
	workbook    ledger.Workbook
	idGenerator IDGenerator
	timeSource  TimeSource

	// mu keeps workbook rows and ledger entries in the same order
	mu sync.Mutex
}

// NewService creates a new Service with default ID generator and time source
func NewService(scanner scanning.Scanner, db ledger.DB, workbook ledger.Workbook) *Service {
	return NewServiceWithDeps(scanner, db, workbook, &defaultIDGenerator{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(scanner scanning.Scanner, db ledger.DB, workbook ledger.Workbook, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		scanner:     scanner,
		db:          db,
		workbook:    workbook,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// Extract reads the fields of an uploaded invoice or check
func (s *Service) Extract(ctx context.Context, filename string, data []byte, contentType string) (document.Document, error) {
	start := s.timeSource.Now()
	doc, err := s.scanner.Scan(ctx, data, contentType)
	if err != nil {
		slog.Error("Failed to scan document",
			"filename", filename,
			"content_type", contentType,
			"file_size", len(data),
			"error", err,
		)
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	slog.Info("Document scanned",
		"filename", filename,
		"document_type", doc.Type(),
		"duration", s.timeSource.Now().Sub(start),
	)
	return doc, nil
}

// AddInvoice appends the invoice to the workbook and records it in the ledger
func (s *Service) AddInvoice(invoice *document.Invoice) (*ledger.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// a repeated invoice number is logged and still appended
	if invoice.InvoiceID != nil {
		previous, err := s.db.FindByInvoiceID(*invoice.InvoiceID)
		if err != nil {
			return nil, fmt.Errorf("checking ledger: %w", err)
		}
		if len(previous) > 0 {
			slog.Warn("Invoice already recorded", "invoice_id", *invoice.InvoiceID, "previous_rows", len(previous))
		}
	}

	row, err := s.workbook.Append(invoice)
	if err != nil {
		return nil, fmt.Errorf("appending to workbook: %w", err)
	}

	entry := &ledger.Entry{
		ID:        s.idGenerator.Generate(),
		Invoice:   invoice,
		Row:       row,
		CreatedAt: s.timeSource.Now(),
	}
	if err := s.db.SaveEntry(entry); err != nil {
		// the workbook row stays; the spreadsheet is the record the user sees
		return nil, fmt.Errorf("saving entry to ledger: %w", err)
	}

	slog.Info("Invoice added", "id", entry.ID, "row", row)
	return entry, nil
}

// GetEntry returns one recorded invoice
func (s *Service) GetEntry(id string) (*ledger.Entry, error) {
	entry, err := s.db.GetEntry(id)
	if err != nil {
		return nil, fmt.Errorf("getting entry: %w", err)
	}
	return entry, nil
}

// ListEntries returns all recorded invoices
func (s *Service) ListEntries() ([]*ledger.Entry, error) {
	entries, err := s.db.ListEntries()
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}
	return entries, nil
}
