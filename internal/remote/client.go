package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/zombor/invoice-extractor/internal/document"
)

const (
	uploadPath = "/upload-invoice/"
	addPath    = "/add-invoice/"

	// maxErrorBody bounds how much of a failed response is kept for logging
	maxErrorBody = 4 << 10
)

// File is an uploaded invoice or check image/PDF
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Ack is the backend's acknowledgement of a submitted invoice. Its content is opaque.
type Ack = json.RawMessage

// Extractor sends a file to the extraction backend
type Extractor interface {
	Extract(ctx context.Context, file File) (document.Document, error)
}

// Submitter sends an invoice to the spreadsheet-backed store
type Submitter interface {
	Submit(ctx context.Context, invoice *document.Invoice) (Ack, error)
}

// Client talks to the extraction backend over HTTP
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a Client for the backend at baseURL.
// A zero timeout leaves requests bounded only by their context.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// Extract uploads the file as multipart form data and decodes the extracted record.
// There is a single attempt per call.
func (c *Client) Extract(ctx context.Context, file File) (document.Document, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(file.Name)))
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, &ExtractionError{Err: fmt.Errorf("creating form part: %w", err)}
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, &ExtractionError{Err: fmt.Errorf("writing form part: %w", err)}
	}
	if err := writer.Close(); err != nil {
		return nil, &ExtractionError{Err: fmt.Errorf("closing form: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+uploadPath, &body)
	if err != nil {
		return nil, &ExtractionError{Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &ExtractionError{Err: fmt.Errorf("calling extraction endpoint: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ExtractionError{StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected status: %s", readSnippet(resp.Body))}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ExtractionError{StatusCode: resp.StatusCode, Err: fmt.Errorf("reading response: %w", err)}
	}
	doc, err := document.Decode(data)
	if err != nil {
		return nil, &ExtractionError{StatusCode: resp.StatusCode, Err: err}
	}

	slog.Info("Document extracted", "filename", file.Name, "document_type", doc.Type())
	return doc, nil
}

// Submit posts the invoice as JSON. Repeated calls create repeated remote records.
func (c *Client) Submit(ctx context.Context, invoice *document.Invoice) (Ack, error) {
	payload, err := json.Marshal(invoice)
	if err != nil {
		return nil, &SubmissionError{Err: fmt.Errorf("marshaling invoice: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+addPath, bytes.NewReader(payload))
	if err != nil {
		return nil, &SubmissionError{Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &SubmissionError{Err: fmt.Errorf("calling submission endpoint: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &SubmissionError{StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected status: %s", readSnippet(resp.Body))}
	}

	var ack json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		return nil, &SubmissionError{StatusCode: resp.StatusCode, Err: fmt.Errorf("decoding acknowledgement: %w", err)}
	}

	slog.Info("Invoice submitted", "ack", string(ack))
	return ack, nil
}

func readSnippet(r io.Reader) string {
	body, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	return strings.TrimSpace(string(body))
}
