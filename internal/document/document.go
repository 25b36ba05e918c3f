package document

import (
	"encoding/json"
	"strings"
)

// Type is the discriminant selecting the invoice or check field set
type Type string

const (
	TypeInvoice Type = "invoice"
	TypeCheck   Type = "check"
)

// Label returns the display name used in the UI ("Invoice", "Check", or "Document")
func (t Type) Label() string {
	switch t {
	case TypeInvoice:
		return "Invoice"
	case TypeCheck:
		return "Check"
	default:
		return "Document"
	}
}

// Document is a structured record returned by the extraction backend.
// It is implemented only by *Invoice and *Check.
type Document interface {
	Type() Type
	document()
}

// LineItem is one row of an invoice's itemized charges
type LineItem struct {
	Description *string `json:"Description"`
	Quantity    *string `json:"Quantity"`
	UnitPrice   *string `json:"UnitPrice"`
	Amount      *string `json:"Amount"`
}

// Invoice represents an extracted invoice
type Invoice struct {
	InvoiceID       *string    `json:"InvoiceId"`
	InvoiceDate     *string    `json:"InvoiceDate"`
	DueDate         *string    `json:"DueDate"`
	VendorName      *string    `json:"VendorName"`
	CustomerName    *string    `json:"CustomerName"`
	CustomerAddress *string    `json:"CustomerAddress"`
	InvoiceTotal    *string    `json:"InvoiceTotal"`
	Items           []LineItem `json:"Items"`
}

// Check represents an extracted check
type Check struct {
	CheckNumber   *string `json:"CheckNumber"`
	Date          *string `json:"Date"`
	PayeeName     *string `json:"PayeeName"`
	Amount        *string `json:"Amount"`
	AmountInWords *string `json:"AmountInWords"`
	Memo          *string `json:"Memo"`
	PayerName     *string `json:"PayerName"`
	PayerAddress  *string `json:"PayerAddress"`
	BankName      *string `json:"BankName"`
	RoutingNumber *string `json:"RoutingNumber"`
	AccountNumber *string `json:"AccountNumber"`
}

// NewInvoice returns an invoice with every field absent and no items
func NewInvoice() *Invoice {
	return &Invoice{Items: []LineItem{}}
}

// NewCheck returns a check with every field absent
func NewCheck() *Check {
	return &Check{}
}

func (*Invoice) Type() Type { return TypeInvoice }
func (*Check) Type() Type   { return TypeCheck }

func (*Invoice) document() {}
func (*Check) document()   {}

// MarshalJSON emits the record with its DocumentType discriminant
func (i *Invoice) MarshalJSON() ([]byte, error) {
	type alias Invoice
	items := i.Items
	if items == nil {
		items = []LineItem{}
	}
	return json.Marshal(struct {
		DocumentType Type `json:"DocumentType"`
		*alias
		Items []LineItem `json:"Items"`
	}{TypeInvoice, (*alias)(i), items})
}

// MarshalJSON emits the record with its DocumentType discriminant
func (c *Check) MarshalJSON() ([]byte, error) {
	type alias Check
	return json.Marshal(struct {
		DocumentType Type `json:"DocumentType"`
		*alias
	}{TypeCheck, (*alias)(c)})
}

// Value returns a pointer to s, or nil when s is empty.
// Every optional field goes through here so an empty string is never stored.
func Value(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// orNA renders an optional value for the human-readable block
func orNA(v *string) string {
	if v == nil || *v == "" {
		return notAvailable
	}
	return *v
}

// orEmpty renders an optional value for CSV output
func orEmpty(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

// normalize trims values, coalesces empty strings to nil and nil item slices to empty ones
func normalize(doc Document) {
	switch d := doc.(type) {
	case *Invoice:
		for _, f := range []**string{&d.InvoiceID, &d.InvoiceDate, &d.DueDate, &d.VendorName, &d.CustomerName, &d.CustomerAddress, &d.InvoiceTotal} {
			coalesce(f)
		}
		if d.Items == nil {
			d.Items = []LineItem{}
		}
		for i := range d.Items {
			item := &d.Items[i]
			for _, f := range []**string{&item.Description, &item.Quantity, &item.UnitPrice, &item.Amount} {
				coalesce(f)
			}
		}
	case *Check:
		for _, f := range []**string{&d.CheckNumber, &d.Date, &d.PayeeName, &d.Amount, &d.AmountInWords, &d.Memo, &d.PayerName, &d.PayerAddress, &d.BankName, &d.RoutingNumber, &d.AccountNumber} {
			coalesce(f)
		}
	}
}

func coalesce(f **string) {
	if *f != nil {
		*f = Value(strings.TrimSpace(**f))
	}
}
