package document

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Decode", func() {
	var (
		input string
		doc   Document
		err   error
	)

	JustBeforeEach(func() {
		doc, err = Decode([]byte(input))
	})

	When("decoding an invoice", func() {
		BeforeEach(func() {
			input = `{"DocumentType":"invoice","InvoiceId":"INV-1","InvoiceTotal":"100.00","Items":[{"Description":"A","Quantity":"2","UnitPrice":"5","Amount":"10"}]}`
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("returns the invoice with absent fields as nil", func() {
			Expect(doc).To(Equal(&Invoice{
				InvoiceID:    Value("INV-1"),
				InvoiceTotal: Value("100.00"),
				Items:        []LineItem{{Description: Value("A"), Quantity: Value("2"), UnitPrice: Value("5"), Amount: Value("10")}},
			}))
		})
	})

	When("decoding a check", func() {
		BeforeEach(func() {
			input = `{"DocumentType":"check","CheckNumber":"77","Amount":"5.00","AmountInWords":"Five","Memo":null}`
		})

		It("returns a check", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(doc).To(Equal(&Check{CheckNumber: Value("77"), Amount: Value("5.00"), AmountInWords: Value("Five")}))
		})
	})

	When("the backend sends empty strings", func() {
		BeforeEach(func() {
			input = `{"DocumentType":"invoice","VendorName":"","Items":[{"Description":"  "}]}`
		})

		It("coalesces them to nil", func() {
			inv := doc.(*Invoice)
			Expect(inv.VendorName).To(BeNil())
			Expect(inv.Items[0].Description).To(BeNil())
		})
	})

	When("the backend pads values with whitespace", func() {
		BeforeEach(func() {
			input = `{"DocumentType":"invoice","InvoiceId":" INV-1 ","Items":[{"Description":"\tBolts "}]}`
		})

		It("trims them", func() {
			inv := doc.(*Invoice)
			Expect(*inv.InvoiceID).To(Equal("INV-1"))
			Expect(*inv.Items[0].Description).To(Equal("Bolts"))
		})

		It("survives format then parse unchanged", func() {
			parsed, parseErr := Parse(Format(doc))
			Expect(parseErr).NotTo(HaveOccurred())
			Expect(parsed).To(Equal(doc))
		})
	})

	When("the backend sends numbers", func() {
		BeforeEach(func() {
			input = `{"DocumentType":"invoice","InvoiceTotal":1250.50,"Items":[{"Quantity":3}]}`
		})

		It("keeps their literal text", func() {
			Expect(err).NotTo(HaveOccurred())
			inv := doc.(*Invoice)
			Expect(*inv.InvoiceTotal).To(Equal("1250.50"))
			Expect(*inv.Items[0].Quantity).To(Equal("3"))
		})
	})

	When("items are null", func() {
		BeforeEach(func() {
			input = `{"DocumentType":"invoice","Items":null}`
		})

		It("returns an empty item slice", func() {
			Expect(doc.(*Invoice).Items).To(Equal([]LineItem{}))
		})
	})

	When("the discriminant is missing", func() {
		BeforeEach(func() {
			input = `{"InvoiceId":"INV-1"}`
		})

		It("returns an error", func() {
			Expect(err).To(HaveOccurred())
		})
	})

	When("the discriminant is unknown", func() {
		BeforeEach(func() {
			input = `{"DocumentType":"receipt"}`
		})

		It("returns an error", func() {
			Expect(err).To(HaveOccurred())
		})
	})

	When("a field has the wrong shape", func() {
		BeforeEach(func() {
			input = `{"DocumentType":"invoice","VendorName":{"name":"Acme"}}`
		})

		It("returns an error", func() {
			Expect(err).To(HaveOccurred())
		})
	})

	When("the body is not JSON", func() {
		BeforeEach(func() {
			input = `Internal Server Error`
		})

		It("returns an error", func() {
			Expect(err).To(HaveOccurred())
			Expect(doc).To(BeNil())
		})
	})
})
