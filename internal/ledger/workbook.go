package ledger

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/xuri/excelize/v2"

	"github.com/zombor/invoice-extractor/internal/document"
)

const (
	InvoicesSheet  = "Invoices"
	LineItemsSheet = "Line Items"
)

var (
	invoiceHeaders = []any{
		"Invoice ID", "Invoice Date", "Due Date", "Vendor Name",
		"Customer Name", "Customer Address", "Invoice Total", "Item Count",
	}
	lineItemHeaders = []any{
		"Invoice Row", "Invoice ID", "Item", "Description", "Quantity", "Unit Price", "Amount",
	}
)

// Workbook appends invoices to a spreadsheet
type Workbook interface {
	// Append writes the invoice and its line items and returns its row on the Invoices sheet
	Append(invoice *document.Invoice) (int, error)
}

// ExcelWorkbook keeps invoices in an .xlsx file on disk.
// The file is reopened on every append so edits made in Excel are kept.
type ExcelWorkbook struct {
	path string
	mu   sync.Mutex
}

// NewExcelWorkbook creates the workbook file if it does not exist
func NewExcelWorkbook(path string) (*ExcelWorkbook, error) {
	w := &ExcelWorkbook{path: path}
	f, created, err := w.open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if created {
		if err := w.save(f); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// Path returns the workbook location
func (w *ExcelWorkbook) Path() string {
	return w.path
}

// open loads the workbook or builds a new one with both sheets and their headers.
// The boolean reports whether the workbook was created.
func (w *ExcelWorkbook) open() (*excelize.File, bool, error) {
	f, err := excelize.OpenFile(w.path)
	if err == nil {
		return f, false, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, false, fmt.Errorf("opening workbook: %w", err)
	}
	f, err = newWorkbook()
	if err != nil {
		return nil, false, err
	}
	return f, true, nil
}

func newWorkbook() (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", InvoicesSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("naming sheet: %w", err)
	}
	if _, err := f.NewSheet(LineItemsSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("creating sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("creating header style: %w", err)
	}
	for sheet, headers := range map[string][]any{InvoicesSheet: invoiceHeaders, LineItemsSheet: lineItemHeaders} {
		if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
			f.Close()
			return nil, fmt.Errorf("writing %s headers: %w", sheet, err)
		}
		if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
			f.Close()
			return nil, fmt.Errorf("styling %s headers: %w", sheet, err)
		}
	}
	return f, nil
}

// nextRow returns the first empty row of a sheet
func nextRow(f *excelize.File, sheet string) (int, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", sheet, err)
	}
	return len(rows) + 1, nil
}

func cell(v *string) any {
	if v == nil {
		return ""
	}
	return *v
}

// Append writes the invoice to the Invoices sheet and its items to the Line Items sheet
func (w *ExcelWorkbook) Append(invoice *document.Invoice) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, _, err := w.open()
	if err != nil {
		return 0, err
	}
	defer f.Close()

	row, err := nextRow(f, InvoicesSheet)
	if err != nil {
		return 0, err
	}
	values := []any{
		cell(invoice.InvoiceID), cell(invoice.InvoiceDate), cell(invoice.DueDate), cell(invoice.VendorName),
		cell(invoice.CustomerName), cell(invoice.CustomerAddress), cell(invoice.InvoiceTotal), len(invoice.Items),
	}
	if err := f.SetSheetRow(InvoicesSheet, fmt.Sprintf("A%d", row), &values); err != nil {
		return 0, fmt.Errorf("writing invoice row: %w", err)
	}

	itemRow, err := nextRow(f, LineItemsSheet)
	if err != nil {
		return 0, err
	}
	for i, item := range invoice.Items {
		values := []any{
			row, cell(invoice.InvoiceID), i + 1, cell(item.Description),
			cell(item.Quantity), cell(item.UnitPrice), cell(item.Amount),
		}
		if err := f.SetSheetRow(LineItemsSheet, fmt.Sprintf("A%d", itemRow+i), &values); err != nil {
			return 0, fmt.Errorf("writing line item row: %w", err)
		}
	}

	if err := w.save(f); err != nil {
		return 0, err
	}
	return row, nil
}

// save writes through a temp file in the same directory so a crash never
// leaves a truncated workbook
func (w *ExcelWorkbook) save(f *excelize.File) error {
	tmp := filepath.Join(filepath.Dir(w.path), ".tmp-"+filepath.Base(w.path))
	if err := f.SaveAs(tmp); err != nil {
		return fmt.Errorf("saving workbook: %w", err)
	}
	if err := os.Rename(tmp, w.path); err != nil {
		return fmt.Errorf("replacing workbook: %w", err)
	}
	return nil
}
