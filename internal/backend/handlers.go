package backend

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/zombor/invoice-extractor/internal/convert"
	"github.com/zombor/invoice-extractor/internal/document"
	"github.com/zombor/invoice-extractor/internal/ledger"
)

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]string{"error": message})
}

// addResponse acknowledges a recorded invoice
type addResponse struct {
	Status string `json:"status"`
	ID     string `json:"id"`
	Row    int    `json:"row"`
}

// handleUploadInvoice extracts the fields of an uploaded invoice or check
func (s *Server) handleUploadInvoice(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "File is too large. Maximum size is 50MB.")
			return
		}
		writeError(w, http.StatusBadRequest, "Error parsing form")
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		slog.Error("Error getting file from form", "error", err)
		writeError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		writeError(w, http.StatusInternalServerError, "Error reading file")
		return
	}

	contentType := convert.DetectMIME(header.Filename, header.Header.Get("Content-Type"))
	doc, err := s.service.Extract(r.Context(), header.Filename, data, contentType)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Failed to process document")
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

// handleAddInvoice records an edited invoice in the workbook and the ledger
func (s *Server) handleAddInvoice(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	doc, err := document.Decode(body)
	if err != nil {
		slog.Error("Error decoding invoice", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	invoice, ok := doc.(*document.Invoice)
	if !ok {
		writeError(w, http.StatusBadRequest, "Only invoices can be added to Excel sheet")
		return
	}

	entry, err := s.service.AddInvoice(invoice)
	if err != nil {
		slog.Error("Error adding invoice", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to add invoice to Excel data")
		return
	}

	writeJSON(w, http.StatusOK, addResponse{Status: "success", ID: entry.ID, Row: entry.Row})
}

// handleListInvoices returns every recorded invoice
func (s *Server) handleListInvoices(w http.ResponseWriter, r *http.Request) {
	entries, err := s.service.ListEntries()
	if err != nil {
		slog.Error("Error listing invoices", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	// Ensure we always return an array, not nil
	if entries == nil {
		entries = []*ledger.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleGetInvoice returns a single recorded invoice
func (s *Server) handleGetInvoice(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	entry, err := s.service.GetEntry(id)
	if errors.Is(err, ledger.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Invoice not found")
		return
	}
	if err != nil {
		slog.Error("Error getting invoice", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
