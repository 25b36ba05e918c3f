package document

import (
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ToCSV", func() {
	var (
		doc Document
		csv string
	)

	JustBeforeEach(func() {
		csv = ToCSV(doc)
	})

	When("exporting an invoice with items", func() {
		BeforeEach(func() {
			doc = &Invoice{
				InvoiceID:       Value("INV-1"),
				CustomerAddress: Value(`1 "Big" Rd, Town`),
				InvoiceTotal:    Value("100.00"),
				Items: []LineItem{
					{Description: Value(`Widget, "Pro"`), Quantity: Value("2"), UnitPrice: Value("5"), Amount: Value("10")},
					{Description: Value("Bolt"), Quantity: Value("1")},
				},
			}
		})

		It("writes the header table, a blank line and the item table", func() {
			Expect(csv).To(Equal(strings.Join([]string{
				"Field,Value",
				"Invoice ID,INV-1",
				"Invoice Date,",
				"Due Date,",
				"Vendor Name,",
				"Customer Name,",
				`Customer Address,"1 ""Big"" Rd, Town"`,
				"Invoice Total,100.00",
				"",
				"Item,Description,Quantity,Unit Price,Amount",
				`1,"Widget, ""Pro""",2,5,10`,
				`2,"Bolt",1,,`,
				"",
			}, "\n")))
		})

		It("quotes only the description in an item row", func() {
			lines := strings.Split(csv, "\n")
			Expect(lines[10]).To(Equal(`1,"Widget, ""Pro""",2,5,10`))
			Expect(strings.Count(lines[10], `"`) - strings.Count(`Widget, ""Pro""`, `"`)).To(Equal(2))
		})

		It("uses bare line feeds", func() {
			Expect(csv).NotTo(ContainSubstring("\r"))
		})
	})

	When("exporting an invoice without items", func() {
		BeforeEach(func() {
			doc = NewInvoice()
		})

		It("omits the item table", func() {
			Expect(csv).NotTo(ContainSubstring("Item,Description"))
			Expect(csv).To(HaveSuffix("Invoice Total,\n\n"))
		})

		It("quotes an absent customer address as an empty string", func() {
			Expect(csv).To(ContainSubstring("Customer Address,\"\"\n"))
		})
	})

	When("exporting a check", func() {
		BeforeEach(func() {
			doc = fullCheck()
		})

		It("writes a single field table", func() {
			Expect(csv).To(Equal(strings.Join([]string{
				"Field,Value",
				"Check Number,1042",
				"Date,2024-05-17",
				"Payee Name,Jane Doe",
				"Amount,150.00",
				`Amount in Words,"One hundred fifty and 00/100"`,
				"Memo,Rent: May",
				"Payer Name,John Smith",
				`Payer Address,"9 Elm Rd, Shelbyville"`,
				"Bank Name,First Bank",
				"Routing Number,021000021",
				"Account Number,123456789",
				"",
			}, "\n")))
		})
	})
})

var _ = Describe("CSVFilename", func() {
	It("joins the type and the millisecond timestamp", func() {
		t := time.UnixMilli(1718000000123)
		Expect(CSVFilename(NewInvoice(), t)).To(Equal("invoice_1718000000123.csv"))
		Expect(CSVFilename(NewCheck(), t)).To(Equal("check_1718000000123.csv"))
	})
})
