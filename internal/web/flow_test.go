package web

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"

	"github.com/zombor/invoice-extractor/internal/preview"
	"github.com/zombor/invoice-extractor/internal/remote"
	"github.com/zombor/invoice-extractor/internal/workspace"
)

var _ = Describe("Extraction flow", func() {
	var (
		backend    *ghttp.Server
		previewDir string
		previews   *preview.Store
		manager    *workspace.Manager
		frontEnd   *ghttp.Server
		client     *http.Client
		scan       []byte
	)

	BeforeEach(func() {
		backend = ghttp.NewServer()

		previewDir = GinkgoT().TempDir()
		storage, err := preview.NewLocalStorage(previewDir)
		Expect(err).NotTo(HaveOccurred())
		previews = preview.NewStore(storage, 64)

		api := remote.NewClient(backend.URL(), 5*time.Second)
		manager = workspace.NewManager(api, api, previews, time.Hour)
		frontEnd = ghttp.NewServer()
		serve(frontEnd, NewServer(manager, previews).ServeHTTP)
		client = newClient()

		img := image.NewRGBA(image.Rect(0, 0, 200, 100))
		img.Set(10, 10, color.Black)
		var buf bytes.Buffer
		Expect(png.Encode(&buf, img)).To(Succeed())
		scan = buf.Bytes()
	})

	AfterEach(func() {
		frontEnd.Close()
		backend.Close()
		manager.CloseAll()
	})

	uploadScan := func() workspace.View {
		body, contentType := uploadBody("scan.png", scan)
		resp, err := client.Post(frontEnd.URL()+"/api/session/file", contentType, body)
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		return decodeView(resp)
	}

	extract := func() *http.Response {
		resp, err := client.Post(frontEnd.URL()+"/api/session/extract", "application/json", nil)
		Expect(err).NotTo(HaveOccurred())
		return resp
	}

	It("extracts, edits, exports and submits an invoice", func() {
		var submitted []byte
		backend.AppendHandlers(
			ghttp.CombineHandlers(
				ghttp.VerifyRequest("POST", "/upload-invoice/"),
				ghttp.RespondWith(http.StatusOK, `{
					"DocumentType": "invoice",
					"InvoiceId": "INV-100",
					"VendorName": "Acme Supply",
					"CustomerAddress": "1 Main St, Springfield",
					"InvoiceTotal": 150.5,
					"Items": [{"Description": "Paper, A4", "Quantity": 3, "UnitPrice": "50.17", "Amount": "150.50"}]
				}`),
			),
			ghttp.CombineHandlers(
				ghttp.VerifyRequest("POST", "/add-invoice/"),
				ghttp.VerifyContentType("application/json"),
				func(w http.ResponseWriter, r *http.Request) {
					var err error
					submitted, err = io.ReadAll(r.Body)
					Expect(err).NotTo(HaveOccurred())
				},
				ghttp.RespondWith(http.StatusOK, `{"status":"success"}`),
			),
		)

		view := uploadScan()
		Expect(view.State).To(Equal(workspace.StatePreviewing))
		matches, err := filepath.Glob(filepath.Join(previewDir, "*.preview"))
		Expect(err).NotTo(HaveOccurred())
		Expect(matches).To(HaveLen(1))

		By("extracting the fields")
		resp := extract()
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		view = decodeView(resp)
		Expect(view.State).To(Equal(workspace.StateReady))
		Expect(view.Label).To(Equal("Invoice"))
		Expect(view.Text).To(ContainSubstring("Invoice ID      : INV-100"))
		Expect(view.Text).To(ContainSubstring("Invoice Total   : 150.5"))
		Expect(view.Text).To(ContainSubstring("  Quantity    : 3"))

		By("editing the text")
		edited := strings.Replace(view.Text, "Vendor Name     : Acme Supply", "Vendor Name     : Acme Corp", 1)
		payload, err := json.Marshal(map[string]string{"text": edited})
		Expect(err).NotTo(HaveOccurred())
		req, err := http.NewRequest("PUT", frontEnd.URL()+"/api/session/text", bytes.NewReader(payload))
		Expect(err).NotTo(HaveOccurred())
		resp, err = client.Do(req)
		Expect(err).NotTo(HaveOccurred())
		resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		By("exporting CSV")
		resp, err = client.Get(frontEnd.URL() + "/api/session/csv")
		Expect(err).NotTo(HaveOccurred())
		csv, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		Expect(err).NotTo(HaveOccurred())
		Expect(string(csv)).To(ContainSubstring("Vendor Name,Acme Corp\n"))
		Expect(string(csv)).To(ContainSubstring("Customer Address,\"1 Main St, Springfield\"\n"))
		Expect(string(csv)).To(ContainSubstring("1,\"Paper, A4\",3,50.17,150.50\n"))

		By("submitting the edited invoice")
		resp, err = client.Post(frontEnd.URL()+"/api/session/submit", "application/json", nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		view = decodeView(resp)
		Expect(view.Notice.Message).To(Equal(workspace.MsgSubmitted))

		Expect(backend.ReceivedRequests()).To(HaveLen(2))
		var sent map[string]any
		Expect(json.Unmarshal(submitted, &sent)).To(Succeed())
		Expect(sent).To(HaveKeyWithValue("VendorName", "Acme Corp"))
		Expect(sent).To(HaveKeyWithValue("InvoiceTotal", "150.5"))
		Expect(sent).To(HaveKeyWithValue("DueDate", BeNil()))
	})

	It("keeps checks away from the spreadsheet", func() {
		backend.AppendHandlers(
			ghttp.RespondWith(http.StatusOK, `{"DocumentType":"check","CheckNumber":"1001","Amount":"25.00"}`),
		)

		uploadScan()
		view := decodeView(extract())
		Expect(view.Label).To(Equal("Check"))
		Expect(view.CanSubmit).To(BeFalse())

		resp, err := client.Post(frontEnd.URL()+"/api/session/submit", "application/json", nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusUnprocessableEntity))
		resp.Body.Close()
		Expect(backend.ReceivedRequests()).To(HaveLen(1))
	})

	It("recovers from a failed extraction", func() {
		backend.AppendHandlers(
			ghttp.RespondWith(http.StatusInternalServerError, "model unavailable"),
			ghttp.RespondWith(http.StatusOK, `{"DocumentType":"invoice","InvoiceId":"INV-2"}`),
		)

		uploadScan()
		resp := extract()
		Expect(resp.StatusCode).To(Equal(http.StatusBadGateway))
		Expect(decodeError(resp).View.Error).To(Equal("Failed to process document"))

		view := decodeView(extract())
		Expect(view.State).To(Equal(workspace.StateReady))
		Expect(view.Text).To(ContainSubstring("No items found"))
	})

	It("deletes the preview file when the session closes", func() {
		uploadScan()

		req, err := http.NewRequest("DELETE", frontEnd.URL()+"/api/session", nil)
		Expect(err).NotTo(HaveOccurred())
		resp, err := client.Do(req)
		Expect(err).NotTo(HaveOccurred())
		resp.Body.Close()

		matches, err := filepath.Glob(filepath.Join(previewDir, "*.preview"))
		Expect(err).NotTo(HaveOccurred())
		Expect(matches).To(BeEmpty())
	})
})
