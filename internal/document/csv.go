package document

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// csvWriter builds the export by hand: free-text columns are always quoted and
// every other column is written verbatim, which encoding/csv cannot express.
type csvWriter struct {
	b strings.Builder
}

func (w *csvWriter) row(cols ...string) {
	w.b.WriteString(strings.Join(cols, ","))
	w.b.WriteString("\n")
}

func (w *csvWriter) blank() {
	w.b.WriteString("\n")
}

// quoted wraps a free-text value in double quotes, doubling inner quotes
func quoted(v *string) string {
	return `"` + strings.ReplaceAll(orEmpty(v), `"`, `""`) + `"`
}

// ToCSV projects a document into the CSV export
func ToCSV(doc Document) string {
	var w csvWriter
	switch d := doc.(type) {
	case *Invoice:
		invoiceCSV(&w, d)
	case *Check:
		checkCSV(&w, d)
	}
	return w.b.String()
}

func invoiceCSV(w *csvWriter, inv *Invoice) {
	w.row("Field", "Value")
	w.row(labelInvoiceID, orEmpty(inv.InvoiceID))
	w.row(labelInvoiceDate, orEmpty(inv.InvoiceDate))
	w.row(labelDueDate, orEmpty(inv.DueDate))
	w.row(labelVendorName, orEmpty(inv.VendorName))
	w.row(labelCustomerName, orEmpty(inv.CustomerName))
	w.row(labelCustomerAddress, quoted(inv.CustomerAddress))
	w.row(labelInvoiceTotal, orEmpty(inv.InvoiceTotal))
	w.blank()

	if len(inv.Items) == 0 {
		return
	}
	w.row("Item", labelDescription, labelQuantity, labelUnitPrice, labelAmount)
	for i, item := range inv.Items {
		w.row(
			strconv.Itoa(i+1),
			quoted(item.Description),
			orEmpty(item.Quantity),
			orEmpty(item.UnitPrice),
			orEmpty(item.Amount),
		)
	}
}

func checkCSV(w *csvWriter, c *Check) {
	w.row("Field", "Value")
	w.row(labelCheckNumber, orEmpty(c.CheckNumber))
	w.row(labelDate, orEmpty(c.Date))
	w.row(labelPayeeName, orEmpty(c.PayeeName))
	w.row(labelAmount, orEmpty(c.Amount))
	w.row(labelAmountInWords, quoted(c.AmountInWords))
	w.row(labelMemo, orEmpty(c.Memo))
	w.row(labelPayerName, orEmpty(c.PayerName))
	w.row(labelPayerAddress, quoted(c.PayerAddress))
	w.row(labelBankName, orEmpty(c.BankName))
	w.row(labelRoutingNumber, orEmpty(c.RoutingNumber))
	w.row(labelAccountNumber, orEmpty(c.AccountNumber))
}

// CSVFilename returns the download name for a document exported at t
func CSVFilename(doc Document, t time.Time) string {
	return fmt.Sprintf("%s_%d.csv", doc.Type(), t.UnixMilli())
}
