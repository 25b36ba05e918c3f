package document

import (
	"fmt"
	"strings"
)

const (
	bannerRune   = '═'
	notAvailable = "N/A"
	noItems      = "No items found"
	itemPrefix   = "Item "

	titleInvoice = "INVOICE INFORMATION"
	titleItems   = "LINE ITEMS"
	titleCheck   = "CHECK INFORMATION"
	titlePayer   = "PAYER INFORMATION"
	titleBanking = "BANKING INFORMATION"

	labelInvoiceID       = "Invoice ID"
	labelInvoiceDate     = "Invoice Date"
	labelDueDate         = "Due Date"
	labelVendorName      = "Vendor Name"
	labelCustomerName    = "Customer Name"
	labelCustomerAddress = "Customer Address"
	labelInvoiceTotal    = "Invoice Total"

	labelDescription = "Description"
	labelQuantity    = "Quantity"
	labelUnitPrice   = "Unit Price"
	labelAmount      = "Amount"

	labelCheckNumber   = "Check Number"
	labelDate          = "Date"
	labelPayeeName     = "Payee Name"
	labelAmountInWords = "Amount in Words"
	labelMemo          = "Memo"
	labelPayerName     = "Payer Name"
	labelPayerAddress  = "Payer Address"
	labelBankName      = "Bank Name"
	labelRoutingNumber = "Routing Number"
	labelAccountNumber = "Account Number"
)

var banner = strings.Repeat(string(bannerRune), 43)

// section titles are centered by hand to match the banner width
var sectionHeadings = map[string]string{
	titleInvoice: "           " + titleInvoice,
	titleItems:   "              " + titleItems,
	titleCheck:   "            " + titleCheck,
	titlePayer:   "          " + titlePayer,
	titleBanking: "          " + titleBanking,
}

// Format renders a document as the editable human-readable block.
// Absent fields render as N/A. A nil document renders as an empty invoice.
func Format(doc Document) string {
	var b strings.Builder
	switch d := doc.(type) {
	case *Check:
		formatCheck(&b, d)
	case *Invoice:
		formatInvoice(&b, d)
	default:
		formatInvoice(&b, NewInvoice())
	}
	return b.String()
}

func writeSection(b *strings.Builder, title string) {
	b.WriteString(banner + "\n")
	b.WriteString(sectionHeadings[title] + "\n")
	b.WriteString(banner + "\n\n")
}

// writeField writes "Label : value" with the label padded to 16 columns
func writeField(b *strings.Builder, label string, v *string) {
	fmt.Fprintf(b, "%-16s: %s\n", label, orNA(v))
}

// writeItemField writes an indented item line with the label padded to 12 columns
func writeItemField(b *strings.Builder, label string, v *string) {
	fmt.Fprintf(b, "  %-12s: %s\n", label, orNA(v))
}

func formatInvoice(b *strings.Builder, inv *Invoice) {
	writeSection(b, titleInvoice)
	writeField(b, labelInvoiceID, inv.InvoiceID)
	writeField(b, labelInvoiceDate, inv.InvoiceDate)
	writeField(b, labelDueDate, inv.DueDate)
	writeField(b, labelVendorName, inv.VendorName)
	writeField(b, labelCustomerName, inv.CustomerName)
	writeField(b, labelCustomerAddress, inv.CustomerAddress)
	writeField(b, labelInvoiceTotal, inv.InvoiceTotal)
	b.WriteString("\n")

	writeSection(b, titleItems)
	if len(inv.Items) == 0 {
		b.WriteString(noItems + "\n")
		return
	}
	for i, item := range inv.Items {
		fmt.Fprintf(b, "%s%d:\n", itemPrefix, i+1)
		writeItemField(b, labelDescription, item.Description)
		writeItemField(b, labelQuantity, item.Quantity)
		writeItemField(b, labelUnitPrice, item.UnitPrice)
		writeItemField(b, labelAmount, item.Amount)
		b.WriteString("\n")
	}
}

func formatCheck(b *strings.Builder, c *Check) {
	writeSection(b, titleCheck)
	writeField(b, labelCheckNumber, c.CheckNumber)
	writeField(b, labelDate, c.Date)
	writeField(b, labelPayeeName, c.PayeeName)
	writeField(b, labelAmount, c.Amount)
	writeField(b, labelAmountInWords, c.AmountInWords)
	writeField(b, labelMemo, c.Memo)
	b.WriteString("\n")

	writeSection(b, titlePayer)
	writeField(b, labelPayerName, c.PayerName)
	writeField(b, labelPayerAddress, c.PayerAddress)
	b.WriteString("\n")

	writeSection(b, titleBanking)
	writeField(b, labelBankName, c.BankName)
	writeField(b, labelRoutingNumber, c.RoutingNumber)
	writeField(b, labelAccountNumber, c.AccountNumber)
}

// FormatJSON decodes a raw backend response and formats it
func FormatJSON(data []byte) (string, error) {
	doc, err := Decode(data)
	if err != nil {
		return "", &FormatError{Err: err}
	}
	return Format(doc), nil
}
