package scanning

import (
	"fmt"

	"github.com/zombor/invoice-extractor/internal/convert"
)

// scanPrompt is the shared prompt used by all LLM providers
const scanPrompt = `You are analyzing a scanned financial document. It is either an INVOICE or a CHECK. Carefully read all text in the image and decide which it is.

For an invoice, return:
{
  "DocumentType": "invoice",
  "InvoiceId": "invoice number",
  "InvoiceDate": "date as printed",
  "DueDate": "due date as printed",
  "VendorName": "seller or vendor",
  "CustomerName": "bill-to name",
  "CustomerAddress": "bill-to address on one line",
  "InvoiceTotal": "total amount due",
  "Items": [
    {"Description": "item description", "Quantity": "quantity", "UnitPrice": "unit price", "Amount": "line total"}
  ]
}

For a check, return:
{
  "DocumentType": "check",
  "CheckNumber": "check number",
  "Date": "date as printed",
  "PayeeName": "pay to the order of",
  "Amount": "numeric amount",
  "AmountInWords": "amount written in words",
  "Memo": "memo line",
  "PayerName": "account holder",
  "PayerAddress": "account holder address on one line",
  "BankName": "bank name",
  "RoutingNumber": "routing number",
  "AccountNumber": "account number"
}

Important:
- Return ONLY valid JSON with exactly the keys shown for the document type
- Every value must be a string, or null when the field is not on the document
- Copy values as printed; do not compute or reformat them
- Do not include any text before or after the JSON
- Do not use markdown code blocks`

// systemPrompt frames the model for providers that take a system message
const systemPrompt = "You are an expert at reading invoices and bank checks. You must carefully read all text in images and extract accurate information."

// prepareImage converts the upload to PNG, the one format every provider accepts
func prepareImage(data []byte, contentType string) ([]byte, error) {
	png, _, err := convert.ToPNG(data, contentType)
	if err != nil {
		return nil, fmt.Errorf("preparing image: %w", err)
	}
	return png, nil
}
