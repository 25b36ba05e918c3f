package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/zombor/invoice-extractor/internal/convert"
	"github.com/zombor/invoice-extractor/internal/preview"
	"github.com/zombor/invoice-extractor/internal/remote"
	"github.com/zombor/invoice-extractor/internal/workspace"
)

const (
	msgTooLarge   = "File is too large. Maximum size is 50MB. Please compress or resize your image."
	msgNoFile     = "No file was selected. Please choose a file to upload."
	msgBadRequest = "Invalid request body"
	msgReadFailed = "Error reading file. Please try again."
)

// errorResponse carries the user-visible message and the session view after a failed action
type errorResponse struct {
	Error string          `json:"error"`
	View  *workspace.View `json:"view,omitempty"`
}

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
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
	writeJSON(w, code, errorResponse{Error: message})
}

// writeActionError maps a session action error to a status code and answers
// with the message the session is showing
func writeActionError(w http.ResponseWriter, sess *workspace.Session, err error) {
	view := sess.View()
	code := http.StatusInternalServerError
	message := "Internal server error"

	var (
		rejected      *workspace.RejectedError
		extractionErr *remote.ExtractionError
		submissionErr *remote.SubmissionError
	)
	switch {
	case errors.As(err, &rejected):
		code, message = http.StatusUnprocessableEntity, rejected.Message
	case errors.Is(err, workspace.ErrBusy):
		code, message = http.StatusConflict, err.Error()
	case errors.Is(err, workspace.ErrClosed):
		code, message = http.StatusGone, err.Error()
	case errors.As(err, &extractionErr):
		code, message = http.StatusBadGateway, remote.ExtractionFailedMessage
	case errors.As(err, &submissionErr):
		code, message = http.StatusBadGateway, remote.SubmissionFailedMessage
	case view.Notice != nil && view.Notice.Kind == workspace.NoticeError:
		code, message = http.StatusUnprocessableEntity, view.Notice.Message
	}
	writeJSON(w, code, errorResponse{Error: message, View: &view})
}

// handleIndex serves the HTML interface
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}

// handleStaticCSS serves the CSS file
func (s *Server) handleStaticCSS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/css")
	w.Write(appCSS)
}

// handleStaticJS serves the JavaScript file
func (s *Server) handleStaticJS(w http.ResponseWriter, r *http.Request) {
	// Use module MIME type for ES6 modules
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Write(appJS)
}

// handleGetSession returns the current view
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	writeJSON(w, http.StatusOK, sess.View())
}

// handleSelectFile accepts an upload and shows its preview. Extraction is
// requested separately so the preview appears while the backend works.
func (s *Server) handleSelectFile(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		slog.Error("Error parsing multipart form", "session", sess.ID(), "error", err)
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, msgTooLarge)
			return
		}
		writeError(w, http.StatusBadRequest, "Error parsing form")
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		slog.Error("Error getting file from form", "session", sess.ID(), "error", err)
		writeError(w, http.StatusBadRequest, msgNoFile)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "session", sess.ID(), "filename", header.Filename, "error", err)
		writeError(w, http.StatusInternalServerError, msgReadFailed)
		return
	}

	file := remote.File{
		Name:        header.Filename,
		ContentType: convert.DetectMIME(header.Filename, header.Header.Get("Content-Type")),
		Data:        data,
	}
	if err := sess.Select(file); err != nil {
		writeActionError(w, sess, err)
		return
	}

	// extract=true runs the extraction in the same request
	if r.URL.Query().Get("extract") == "true" {
		if err := sess.Extract(r.Context()); err != nil {
			writeActionError(w, sess, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, sess.View())
}

// handleExtract sends the selected file to the extraction backend
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if err := sess.Extract(r.Context()); err != nil {
		writeActionError(w, sess, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.View())
}

// handleEditText replaces the text buffer
func (s *Server) handleEditText(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)

	var req struct {
		Text *string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == nil {
		writeError(w, http.StatusBadRequest, msgBadRequest)
		return
	}

	if err := sess.EditText(*req.Text); err != nil {
		writeActionError(w, sess, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.View())
}

// handleExportCSV returns the text buffer as a CSV download
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)

	filename, content, err := sess.ExportCSV()
	if err != nil {
		writeActionError(w, sess, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	io.WriteString(w, content)
}

// handleSubmit sends the edited invoice to the spreadsheet store
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)

	if _, err := sess.Submit(r.Context()); err != nil {
		writeActionError(w, sess, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.View())
}

// handlePreview returns the preview of the selected file
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.existingSession(r)
	if !ok {
		writeError(w, http.StatusNotFound, workspace.MsgPreviewMissing)
		return
	}
	handle := sess.Preview()
	if handle == nil {
		writeError(w, http.StatusNotFound, workspace.MsgPreviewMissing)
		return
	}

	data, contentType, err := s.previews.Open(handle.ID)
	if err != nil {
		if !errors.Is(err, preview.ErrNotFound) {
			slog.Error("Error reading preview", "session", sess.ID(), "error", err)
		}
		writeError(w, http.StatusNotFound, workspace.MsgPreviewMissing)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-store")
	w.Write(data)
}

// handleCloseSession tears down the caller's session and clears the cookie
func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookie); err == nil {
		s.manager.Close(c.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}
