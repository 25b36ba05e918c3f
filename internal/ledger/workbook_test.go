package ledger_test

import (
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/xuri/excelize/v2"

	"github.com/zombor/invoice-extractor/internal/document"
	"github.com/zombor/invoice-extractor/internal/ledger"
)

var _ = Describe("ExcelWorkbook", func() {
	var (
		path     string
		workbook *ledger.ExcelWorkbook
	)

	readRows := func(sheet string) [][]string {
		f, err := excelize.OpenFile(path)
		Expect(err).NotTo(HaveOccurred())
		defer f.Close()
		rows, err := f.GetRows(sheet)
		Expect(err).NotTo(HaveOccurred())
		return rows
	}

	BeforeEach(func() {
		path = filepath.Join(GinkgoT().TempDir(), "invoices.xlsx")
		var err error
		workbook, err = ledger.NewExcelWorkbook(path)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("NewExcelWorkbook", func() {
		It("creates both sheets with headers", func() {
			Expect(path).To(BeAnExistingFile())
			Expect(readRows(ledger.InvoicesSheet)).To(Equal([][]string{
				{"Invoice ID", "Invoice Date", "Due Date", "Vendor Name", "Customer Name", "Customer Address", "Invoice Total", "Item Count"},
			}))
			Expect(readRows(ledger.LineItemsSheet)[0]).To(ContainElement("Description"))
		})

		It("keeps an existing workbook", func() {
			_, err := workbook.Append(sampleInvoice("INV-1"))
			Expect(err).NotTo(HaveOccurred())

			_, err = ledger.NewExcelWorkbook(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(readRows(ledger.InvoicesSheet)).To(HaveLen(2))
		})
	})

	Describe("Append", func() {
		It("returns the invoice row", func() {
			row, err := workbook.Append(sampleInvoice("INV-1"))
			Expect(err).NotTo(HaveOccurred())
			Expect(row).To(Equal(2))
		})

		It("writes the invoice fields", func() {
			_, err := workbook.Append(sampleInvoice("INV-1"))
			Expect(err).NotTo(HaveOccurred())
			Expect(readRows(ledger.InvoicesSheet)[1]).To(Equal([]string{
				"INV-1", "2024-03-01", "", "Acme", "", "1 Main St, Springfield", "30.00", "2",
			}))
		})

		It("writes one line item row per item", func() {
			_, err := workbook.Append(sampleInvoice("INV-1"))
			Expect(err).NotTo(HaveOccurred())
			rows := readRows(ledger.LineItemsSheet)
			Expect(rows).To(HaveLen(3))
			Expect(rows[1]).To(Equal([]string{"2", "INV-1", "1", "Bolts", "10", "1.00", "10.00"}))
			Expect(rows[2]).To(Equal([]string{"2", "INV-1", "2", "Nuts", "20", "1.00", "20.00"}))
		})

		It("appends a row for every call, even for the same invoice", func() {
			first, err := workbook.Append(sampleInvoice("INV-1"))
			Expect(err).NotTo(HaveOccurred())
			second, err := workbook.Append(sampleInvoice("INV-1"))
			Expect(err).NotTo(HaveOccurred())
			Expect(second).To(Equal(first + 1))
			Expect(readRows(ledger.InvoicesSheet)).To(HaveLen(3))
			Expect(readRows(ledger.LineItemsSheet)).To(HaveLen(5))
		})

		It("accepts an invoice without items", func() {
			row, err := workbook.Append(&document.Invoice{InvoiceID: document.Value("EMPTY"), Items: []document.LineItem{}})
			Expect(err).NotTo(HaveOccurred())
			Expect(row).To(Equal(2))
			Expect(readRows(ledger.LineItemsSheet)).To(HaveLen(1))
		})
	})
})
