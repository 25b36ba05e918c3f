package document

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Parse", func() {
	var (
		text string
		doc  Document
		err  error
	)

	JustBeforeEach(func() {
		doc, err = Parse(text)
	})

	Describe("round trip", func() {
		DescribeTable("invoices survive format then parse",
			func(inv *Invoice) {
				parsed, err := Parse(Format(inv))
				Expect(err).NotTo(HaveOccurred())
				Expect(parsed).To(Equal(inv))
			},
			Entry("with no items", &Invoice{InvoiceID: Value("INV-9"), Items: []LineItem{}}),
			Entry("with one item", &Invoice{
				InvoiceID:    Value("INV-1"),
				InvoiceTotal: Value("100.00"),
				Items:        []LineItem{{Description: Value("A"), Quantity: Value("2"), UnitPrice: Value("5"), Amount: Value("10")}},
			}),
			Entry("with several items", fullInvoice()),
			Entry("with every field absent", NewInvoice()),
			Entry("with partially absent items", &Invoice{
				VendorName: Value("Acme"),
				Items: []LineItem{
					{Description: Value("First")},
					{Amount: Value("3.00")},
					{},
				},
			}),
			Entry("with values containing colons", &Invoice{
				InvoiceDate: Value("2024-03-01 10:30:00"),
				Items:       []LineItem{{Description: Value("Ref: PO-7:B")}},
			}),
			Entry("with a description mentioning Amount", &Invoice{
				Items: []LineItem{{Description: Value("Amount adjustment"), Amount: Value("-5.00")}},
			}),
		)

		DescribeTable("checks survive format then parse",
			func(c *Check) {
				parsed, err := Parse(Format(c))
				Expect(err).NotTo(HaveOccurred())
				Expect(parsed).To(Equal(c))
			},
			Entry("with every field set", fullCheck()),
			Entry("with every field absent", NewCheck()),
			Entry("with only the two amounts", &Check{Amount: Value("20.00"), AmountInWords: Value("Twenty and 00/100")}),
		)
	})

	When("parsing a formatted check with both amounts", func() {
		BeforeEach(func() {
			text = Format(&Check{Amount: Value("150.00"), AmountInWords: Value("One hundred fifty")})
		})

		It("recovers each amount into its own field", func() {
			c, ok := doc.(*Check)
			Expect(ok).To(BeTrue())
			Expect(*c.Amount).To(Equal("150.00"))
			Expect(*c.AmountInWords).To(Equal("One hundred fifty"))
		})
	})

	When("the amount in words appears after the amount", func() {
		BeforeEach(func() {
			text = "CHECK INFORMATION\nAmount in Words : Ten\nAmount : 10.00\n"
		})

		It("still assigns both fields", func() {
			c := doc.(*Check)
			Expect(*c.AmountInWords).To(Equal("Ten"))
			Expect(*c.Amount).To(Equal("10.00"))
		})
	})

	When("parsing a block with zero items", func() {
		BeforeEach(func() {
			text = Format(&Invoice{InvoiceID: Value("INV-3")})
		})

		It("yields an empty, non-nil item slice", func() {
			inv := doc.(*Invoice)
			Expect(inv.Items).NotTo(BeNil())
			Expect(inv.Items).To(BeEmpty())
		})
	})

	When("fields are N/A", func() {
		BeforeEach(func() {
			text = Format(NewCheck())
		})

		It("returns nil rather than the N/A token", func() {
			c := doc.(*Check)
			Expect(c.CheckNumber).To(BeNil())
			Expect(c.Memo).To(BeNil())
		})
	})

	When("a value is left blank by the user", func() {
		BeforeEach(func() {
			text = "Invoice ID      :   \nVendor Name     : Acme\n"
		})

		It("stores nil instead of an empty string", func() {
			inv := doc.(*Invoice)
			Expect(inv.InvoiceID).To(BeNil())
			Expect(*inv.VendorName).To(Equal("Acme"))
		})
	})

	When("a labelled line has no colon", func() {
		BeforeEach(func() {
			text = "Vendor Name Acme\n"
		})

		It("stores nil", func() {
			Expect(doc.(*Invoice).VendorName).To(BeNil())
		})
	})

	When("the text has no recognizable lines", func() {
		BeforeEach(func() {
			text = "hello\nworld\n"
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("infers an all-null invoice", func() {
			Expect(doc).To(Equal(NewInvoice()))
		})
	})

	When("the text is empty", func() {
		BeforeEach(func() {
			text = ""
		})

		It("infers an all-null invoice", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(doc).To(Equal(NewInvoice()))
		})
	})

	When("the check title is present without any fields", func() {
		BeforeEach(func() {
			text = "CHECK INFORMATION\n"
		})

		It("infers an all-null check", func() {
			Expect(doc).To(Equal(NewCheck()))
		})
	})

	When("the user adds unexpected lines", func() {
		BeforeEach(func() {
			text = Format(fullInvoice()) + "\nNotes: call before delivery\nrandom trailing text\n"
		})

		It("ignores them", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(doc).To(Equal(fullInvoice()))
		})
	})

	When("item lines appear before any Item marker", func() {
		BeforeEach(func() {
			text = "LINE ITEMS\nDescription : orphan\nItem 1:\nDescription : kept\n"
		})

		It("drops the orphan lines", func() {
			inv := doc.(*Invoice)
			Expect(inv.Items).To(HaveLen(1))
			Expect(*inv.Items[0].Description).To(Equal("kept"))
		})
	})

	When("header labels appear after the line items marker", func() {
		BeforeEach(func() {
			text = "LINE ITEMS\nInvoice ID : late\n"
		})

		It("does not treat them as header fields", func() {
			Expect(doc.(*Invoice).InvoiceID).To(BeNil())
		})
	})

	When("items are added by hand with extra indentation", func() {
		BeforeEach(func() {
			text = Format(NewInvoice()) + "Item 1:\n      Description :   Bolts  \n\tQuantity: 4\n"
		})

		It("trims the lines and values", func() {
			inv := doc.(*Invoice)
			Expect(inv.Items).To(HaveLen(1))
			Expect(*inv.Items[0].Description).To(Equal("Bolts"))
			Expect(*inv.Items[0].Quantity).To(Equal("4"))
		})
	})

	When("a check value mentions the invoice section title", func() {
		BeforeEach(func() {
			text = Format(&Check{Memo: Value("re INVOICE INFORMATION request")})
		})

		It("keeps the line", func() {
			Expect(*doc.(*Check).Memo).To(Equal("re INVOICE INFORMATION request"))
		})
	})

	When("an invoice value mentions a check section title", func() {
		BeforeEach(func() {
			text = Format(&Invoice{VendorName: Value("PAYER INFORMATION Services"), Items: []LineItem{}})
		})

		It("keeps the line", func() {
			Expect(*doc.(*Invoice).VendorName).To(Equal("PAYER INFORMATION Services"))
		})
	})

	When("the text is not valid UTF-8", func() {
		BeforeEach(func() {
			text = "Invoice ID : \xff\xfe"
		})

		It("returns a ParseError", func() {
			var parseErr *ParseError
			Expect(err).To(BeAssignableToTypeOf(parseErr))
			Expect(doc).To(BeNil())
		})
	})
})
