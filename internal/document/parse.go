package document

import (
	"strings"
	"unicode/utf8"
)

// field binds a label to the slot its value is stored in.
// Tables of fields are matched in order by substring containment, so a label
// that contains another label must come before it.
type field struct {
	label string
	slot  func(v *string)
}

// section titles skipped by each grammar
var (
	invoiceTitles = []string{titleInvoice}
	checkTitles   = []string{titleCheck, titlePayer, titleBanking}
)

// Parse reconstructs a document from the human-readable block.
// Lines that match no label are ignored. Text containing the check section title
// is parsed as a check, anything else as an invoice.
func Parse(text string) (Document, error) {
	if !utf8.ValidString(text) {
		return nil, &ParseError{Reason: "text is not valid UTF-8"}
	}

	if strings.Contains(text, titleCheck) {
		return parseCheck(contentLines(text, checkTitles)), nil
	}
	return parseInvoice(contentLines(text, invoiceTitles)), nil
}

// contentLines splits text into trimmed, non-blank lines without banners or section titles
func contentLines(text string, titles []string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || isBanner(line) || isSectionTitle(line, titles) {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

func isBanner(line string) bool {
	return strings.Trim(line, string(bannerRune)) == ""
}

func isSectionTitle(line string, titles []string) bool {
	for _, title := range titles {
		if strings.Contains(line, title) {
			return true
		}
	}
	return false
}

// match stores the line's value in the first field whose label the line contains
func match(fields []field, line string) bool {
	for _, f := range fields {
		if strings.Contains(line, f.label) {
			f.slot(extractValue(line))
			return true
		}
	}
	return false
}

// extractValue returns everything after the first colon, trimmed.
// N/A, an empty value, or a missing colon yield nil.
func extractValue(line string) *string {
	_, value, ok := strings.Cut(line, ":")
	if !ok {
		return nil
	}
	value = strings.TrimSpace(value)
	if value == notAvailable {
		return nil
	}
	return Value(value)
}

func parseInvoice(lines []string) *Invoice {
	inv := NewInvoice()
	header := []field{
		{labelInvoiceID, func(v *string) { inv.InvoiceID = v }},
		{labelInvoiceDate, func(v *string) { inv.InvoiceDate = v }},
		{labelDueDate, func(v *string) { inv.DueDate = v }},
		{labelVendorName, func(v *string) { inv.VendorName = v }},
		{labelCustomerName, func(v *string) { inv.CustomerName = v }},
		{labelCustomerAddress, func(v *string) { inv.CustomerAddress = v }},
		{labelInvoiceTotal, func(v *string) { inv.InvoiceTotal = v }},
	}

	var current *LineItem
	itemFields := []field{
		{labelDescription, func(v *string) { current.Description = v }},
		{labelQuantity, func(v *string) { current.Quantity = v }},
		{labelUnitPrice, func(v *string) { current.UnitPrice = v }},
		{labelAmount, func(v *string) { current.Amount = v }},
	}

	inItems := false
	for _, line := range lines {
		if line == titleItems {
			inItems = true
			continue
		}
		if !inItems {
			match(header, line)
			continue
		}
		if strings.HasPrefix(line, itemPrefix) {
			if current != nil {
				inv.Items = append(inv.Items, *current)
			}
			current = &LineItem{}
			continue
		}
		if current != nil {
			match(itemFields, line)
		}
	}
	if current != nil {
		inv.Items = append(inv.Items, *current)
	}
	return inv
}

func parseCheck(lines []string) *Check {
	c := NewCheck()
	fields := []field{
		{labelCheckNumber, func(v *string) { c.CheckNumber = v }},
		{labelDate, func(v *string) { c.Date = v }},
		{labelPayeeName, func(v *string) { c.PayeeName = v }},
		{labelAmountInWords, func(v *string) { c.AmountInWords = v }},
		{labelAmount, func(v *string) { c.Amount = v }},
		{labelMemo, func(v *string) { c.Memo = v }},
		{labelPayerName, func(v *string) { c.PayerName = v }},
		{labelPayerAddress, func(v *string) { c.PayerAddress = v }},
		{labelBankName, func(v *string) { c.BankName = v }},
		{labelRoutingNumber, func(v *string) { c.RoutingNumber = v }},
		{labelAccountNumber, func(v *string) { c.AccountNumber = v }},
	}
	for _, line := range lines {
		match(fields, line)
	}
	return c
}
