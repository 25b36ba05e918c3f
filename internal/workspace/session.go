package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/zombor/invoice-extractor/internal/document"
	"github.com/zombor/invoice-extractor/internal/preview"
	"github.com/zombor/invoice-extractor/internal/remote"
)

// State is the phase a session is in
type State string

const (
	StateIdle       State = "idle"
	StatePreviewing State = "previewing"
	StateLoading    State = "loading"
	StateReady      State = "ready"
	StateError      State = "error"
)

// NoticeDuration is how long a notice stays visible
const NoticeDuration = 5 * time.Second

// User-visible messages
const (
	MsgNoDownload     = "No data to download"
	MsgNoUpload       = "No data to upload"
	MsgNoFile         = "No file selected"
	MsgInvoiceOnly    = "Only invoices can be added to Excel sheet"
	MsgCSVFailed      = "Failed to generate CSV file"
	MsgParseFailed    = "Failed to parse document data"
	MsgSubmitted      = "Successfully added to Excel data! Open/Refresh your Excel file to see the update."
	MsgPreviewMissing = "Preview unavailable"
)

var (
	// ErrBusy is returned when the same kind of request is already in flight
	ErrBusy = errors.New("another request is already in progress")

	// ErrClosed is returned for actions on a session that has been torn down
	ErrClosed = errors.New("session closed")
)

// RejectedError is an action refused locally, before any network call
type RejectedError struct {
	Message string
}

func (e *RejectedError) Error() string {
	return e.Message
}

// NoticeKind distinguishes success and error notices
type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// Notice is a transient message that disappears after NoticeDuration
type Notice struct {
	Kind      NoticeKind `json:"kind"`
	Message   string     `json:"message"`
	ExpiresAt time.Time  `json:"expires_at"`
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type defaultTimeSource struct{}

func (defaultTimeSource) Now() time.Time {
	return time.Now()
}

// PreviewStore hands out scoped preview handles
type PreviewStore interface {
	Acquire(name, contentType string, data []byte) (*preview.Handle, error)
}

// View is the snapshot of a session rendered by the UI
type View struct {
	ID           string        `json:"id"`
	State        State         `json:"state"`
	FileName     string        `json:"file_name,omitempty"`
	ContentType  string        `json:"content_type,omitempty"`
	PreviewID    string        `json:"preview_id,omitempty"`
	DocumentType document.Type `json:"document_type,omitempty"`
	Label        string        `json:"label"`
	Text         string        `json:"text"`
	Error        string        `json:"error,omitempty"`
	Notice       *Notice       `json:"notice,omitempty"`
	Submitting   bool          `json:"submitting"`
	CanExport    bool          `json:"can_export"`
	CanSubmit    bool          `json:"can_submit"`
}

// Session holds the state of one user's editing workspace.
// Network calls run outside the lock; the loading state and the submitting flag
// keep at most one extraction and one submission in flight.
type Session struct {
	id        string
	extractor remote.Extractor
	submitter remote.Submitter
	previews  PreviewStore
	clock     TimeSource

	mu         sync.Mutex
	state      State
	file       *remote.File
	preview    *preview.Handle
	docType    document.Type
	text       string
	errMsg     string
	notice     *Notice
	submitting bool
	closed     bool
	lastActive time.Time
}

func newSession(id string, extractor remote.Extractor, submitter remote.Submitter, previews PreviewStore, clock TimeSource) *Session {
	return &Session{
		id:         id,
		extractor:  extractor,
		submitter:  submitter,
		previews:   previews,
		clock:      clock,
		state:      StateIdle,
		lastActive: clock.Now(),
	}
}

// ID returns the session identifier
func (s *Session) ID() string {
	return s.id
}

// Preview returns the current preview handle, or nil
func (s *Session) Preview() *preview.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.preview
}

// LastActive returns when the session last handled an action
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// raise sets a notice that expires after NoticeDuration; callers hold s.mu
func (s *Session) raise(kind NoticeKind, message string) {
	s.notice = &Notice{
		Kind:      kind,
		Message:   message,
		ExpiresAt: s.clock.Now().Add(NoticeDuration),
	}
}

// begin marks activity and rejects actions on a closed session; callers hold s.mu
func (s *Session) begin() error {
	if s.closed {
		return ErrClosed
	}
	s.lastActive = s.clock.Now()
	return nil
}

// Select replaces the current file and its preview and clears the previous
// extraction. The session moves to previewing.
func (s *Session) Select(file remote.File) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.begin(); err != nil {
		return err
	}
	if s.state == StateLoading {
		return ErrBusy
	}

	s.preview.Release()
	s.preview = nil

	handle, err := s.previews.Acquire(file.Name, file.ContentType, file.Data)
	if err != nil {
		slog.Error("Failed to create preview", "session", s.id, "filename", file.Name, "error", err)
	}

	s.file = &file
	s.preview = handle
	s.docType = ""
	s.text = ""
	s.errMsg = ""
	s.notice = nil
	s.state = StatePreviewing
	return nil
}

// Extract sends the selected file to the extraction backend and replaces the
// text buffer with the formatted result. It may be retried after a failure.
func (s *Session) Extract(ctx context.Context) error {
	s.mu.Lock()
	if err := s.begin(); err != nil {
		s.mu.Unlock()
		return err
	}
	if s.state == StateLoading {
		s.mu.Unlock()
		return ErrBusy
	}
	if s.file == nil {
		s.mu.Unlock()
		return &RejectedError{Message: MsgNoFile}
	}
	file := *s.file
	s.state = StateLoading
	s.errMsg = ""
	s.mu.Unlock()

	doc, err := s.extractor.Extract(ctx, file)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if err != nil {
		slog.Error("Error uploading document", "session", s.id, "filename", file.Name, "error", err)
		s.state = StateError
		s.errMsg = remote.ExtractionFailedMessage
		return err
	}

	s.docType = doc.Type()
	s.text = document.Format(doc)
	s.state = StateReady
	return nil
}

// SelectFile selects a file and extracts it
func (s *Session) SelectFile(ctx context.Context, file remote.File) error {
	if err := s.Select(file); err != nil {
		return err
	}
	return s.Extract(ctx)
}

// EditText replaces the text buffer
func (s *Session) EditText(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.begin(); err != nil {
		return err
	}
	if s.state == StateLoading {
		return ErrBusy
	}
	s.text = text
	return nil
}

// ExportCSV parses the text buffer and returns the CSV download
func (s *Session) ExportCSV() (filename string, content string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.begin(); err != nil {
		return "", "", err
	}
	if s.text == "" {
		s.raise(NoticeError, MsgNoDownload)
		return "", "", &RejectedError{Message: MsgNoDownload}
	}

	doc, err := document.Parse(s.text)
	if err != nil {
		slog.Error("Error generating CSV", "session", s.id, "error", err)
		s.raise(NoticeError, MsgCSVFailed)
		return "", "", fmt.Errorf("generating CSV: %w", err)
	}
	return document.CSVFilename(doc, s.clock.Now()), document.ToCSV(doc), nil
}

// Submit parses the text buffer and sends the invoice to the spreadsheet store.
// Checks are rejected locally and never reach the network.
func (s *Session) Submit(ctx context.Context) (remote.Ack, error) {
	s.mu.Lock()
	if err := s.begin(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if s.text == "" {
		s.raise(NoticeError, MsgNoUpload)
		s.mu.Unlock()
		return nil, &RejectedError{Message: MsgNoUpload}
	}
	if s.docType != document.TypeInvoice {
		s.raise(NoticeError, MsgInvoiceOnly)
		s.mu.Unlock()
		return nil, &RejectedError{Message: MsgInvoiceOnly}
	}
	if s.submitting {
		s.mu.Unlock()
		return nil, ErrBusy
	}

	doc, err := document.Parse(s.text)
	if err != nil {
		slog.Error("Error converting to JSON", "session", s.id, "error", err)
		s.raise(NoticeError, MsgParseFailed)
		s.mu.Unlock()
		return nil, err
	}
	invoice, ok := doc.(*document.Invoice)
	if !ok {
		s.raise(NoticeError, MsgInvoiceOnly)
		s.mu.Unlock()
		return nil, &RejectedError{Message: MsgInvoiceOnly}
	}
	s.submitting = true
	s.notice = nil
	s.mu.Unlock()

	ack, err := s.submitter.Submit(ctx, invoice)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitting = false
	if err != nil {
		slog.Error("Error uploading to Excel", "session", s.id, "error", err)
		s.raise(NoticeError, remote.SubmissionFailedMessage)
		return nil, err
	}
	s.raise(NoticeSuccess, MsgSubmitted)
	return ack, nil
}

// View returns a snapshot of the session. Expired notices are dismissed.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.notice != nil && !s.clock.Now().Before(s.notice.ExpiresAt) {
		s.notice = nil
	}

	v := View{
		ID:           s.id,
		State:        s.state,
		DocumentType: s.docType,
		Label:        s.docType.Label(),
		Text:         s.text,
		Error:        s.errMsg,
		Submitting:   s.submitting,
		CanExport:    s.text != "" && s.state != StateLoading,
		CanSubmit:    s.text != "" && s.docType == document.TypeInvoice && !s.submitting && s.state != StateLoading,
	}
	if s.file != nil {
		v.FileName = s.file.Name
		v.ContentType = s.file.ContentType
	}
	if s.preview != nil {
		v.PreviewID = s.preview.ID
	}
	if s.notice != nil {
		n := *s.notice
		v.Notice = &n
	}
	return v
}

// Close releases the preview and ends the session
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.preview.Release()
	s.preview = nil
	s.file = nil
	s.state = StateIdle
}
