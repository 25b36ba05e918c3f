package ledger

import (
	"time"

	"github.com/zombor/invoice-extractor/internal/document"
)

// Entry is an invoice accepted by the spreadsheet store
type Entry struct {
	ID        string            `json:"id"`
	Invoice   *document.Invoice `json:"invoice"`
	Row       int               `json:"row"` // row on the Invoices sheet
	CreatedAt time.Time         `json:"created_at"`
}
