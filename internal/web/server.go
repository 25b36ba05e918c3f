package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/zombor/invoice-extractor/internal/workspace"
)

const (
	sessionCookie = "invoice_session"

	// maxUploadSize allows high-resolution phone photos
	maxUploadSize = int64(50 << 20)
)

// PreviewSource serves stored preview bytes by ID
type PreviewSource interface {
	Open(id string) ([]byte, string, error)
}

// Server serves the extractor page and its session API
type Server struct {
	manager  *workspace.Manager
	previews PreviewSource
	mux      *http.ServeMux
}

// NewServer creates a new Server with default mux
func NewServer(manager *workspace.Manager, previews PreviewSource) *Server {
	return NewServerWithMux(manager, previews, http.NewServeMux())
}

// NewServerWithMux creates a new Server with a custom mux for testing
func NewServerWithMux(manager *workspace.Manager, previews PreviewSource, mux *http.ServeMux) *Server {
	s := &Server{
		manager:  manager,
		previews: previews,
		mux:      mux,
	}
	s.registerRoutes()
	return s
}

// corsMiddleware adds CORS headers to responses
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w)

		// Handle preflight OPTIONS requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// handleControllers serves controller JavaScript files with correct MIME type
func (s *Server) handleControllers(w http.ResponseWriter, r *http.Request) {
	fileServer := http.FileServer(http.FS(getControllersFS()))

	if strings.HasSuffix(r.URL.Path, ".js") {
		w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	}
	// Strip the /static/controllers/ prefix to get just the filename
	r.URL.Path = strings.TrimPrefix(r.URL.Path, "/static/controllers/")
	if r.URL.Path == "" {
		r.URL.Path = "/"
	}
	fileServer.ServeHTTP(w, r)
}

// registerRoutes registers all routes on the server's mux
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /static/controllers/", s.handleControllers)
	s.mux.HandleFunc("GET /static/app.css", s.handleStaticCSS)
	s.mux.HandleFunc("GET /static/app.js", s.handleStaticJS)

	s.mux.HandleFunc("GET /api/session/preview", s.handlePreview)
	s.mux.HandleFunc("GET /api/session/csv", s.handleExportCSV)
	s.mux.HandleFunc("POST /api/session/file", s.handleSelectFile)
	s.mux.HandleFunc("POST /api/session/extract", s.handleExtract)
	s.mux.HandleFunc("PUT /api/session/text", s.handleEditText)
	s.mux.HandleFunc("POST /api/session/submit", s.handleSubmit)
	s.mux.HandleFunc("GET /api/session", s.handleGetSession)
	s.mux.HandleFunc("DELETE /api/session", s.handleCloseSession)

	// Static HTML interface (register last as it's the catch-all)
	s.mux.HandleFunc("GET /index.html", s.handleIndex)
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
}

// Handler returns the mux wrapped with CORS handling
func (s *Server) Handler() http.Handler {
	return s.corsMiddleware(s.mux)
}

// Start serves HTTP on addr until ctx is done
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting server", "address", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// ServeHTTP implements http.Handler for testing
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Handler().ServeHTTP(w, r)
}

// session returns the caller's session, creating one and setting the cookie
// when the request carries no known session ID
func (s *Server) session(w http.ResponseWriter, r *http.Request) *workspace.Session {
	var id string
	if c, err := r.Cookie(sessionCookie); err == nil {
		id = c.Value
	}

	sess, created := s.manager.GetOrCreate(id)
	if created {
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookie,
			Value:    sess.ID(),
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return sess
}

// existingSession looks up the caller's session without creating one
func (s *Server) existingSession(r *http.Request) (*workspace.Session, bool) {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return nil, false
	}
	return s.manager.Get(c.Value)
}
