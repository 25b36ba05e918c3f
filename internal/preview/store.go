package preview

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/zombor/invoice-extractor/internal/convert"
)

const (
	previewSuffix = ".preview"

	// DefaultMaxDimension bounds the width and height of rendered previews
	DefaultMaxDimension = 1600
)

// ErrNotFound is returned for previews that were never acquired or already released
var ErrNotFound = errors.New("preview not found")

// Renderer turns an upload into something a browser can display inline
type Renderer func(data []byte, contentType string) ([]byte, string, error)

// ThumbnailRenderer renders PDFs, HEIC and oversized images as bounded JPEGs
func ThumbnailRenderer(maxDim int) Renderer {
	return func(data []byte, contentType string) ([]byte, string, error) {
		out, err := convert.Thumbnail(data, contentType, maxDim)
		if err != nil {
			return nil, "", err
		}
		return out, convert.MIMEJPEG, nil
	}
}

// Handle is a scoped reference to a stored preview. Release it when the preview
// is replaced or its owner goes away.
type Handle struct {
	ID          string
	Name        string
	ContentType string

	key   string
	store *Store
	once  sync.Once
}

// Release deletes the preview. Calling it more than once is a no-op.
func (h *Handle) Release() {
	if h == nil {
		return
	}
	h.once.Do(func() {
		h.store.release(h)
	})
}

// Store hands out preview handles backed by Storage
type Store struct {
	storage Storage
	render  Renderer

	mu      sync.Mutex
	handles map[string]*Handle
}

// NewStore creates a Store that renders thumbnails bounded by maxDim
func NewStore(storage Storage, maxDim int) *Store {
	if maxDim <= 0 {
		maxDim = DefaultMaxDimension
	}
	return NewStoreWithRenderer(storage, ThumbnailRenderer(maxDim))
}

// NewStoreWithRenderer creates a Store with a custom renderer for testing
func NewStoreWithRenderer(storage Storage, render Renderer) *Store {
	return &Store{
		storage: storage,
		render:  render,
		handles: make(map[string]*Handle),
	}
}

// Acquire renders and stores a preview for an uploaded file.
// When rendering fails the original bytes are kept so the browser can try them.
func (s *Store) Acquire(name, contentType string, data []byte) (*Handle, error) {
	rendered, renderedType, err := s.render(data, contentType)
	if err != nil {
		slog.Warn("Failed to render preview, keeping original", "filename", name, "content_type", contentType, "error", err)
		rendered, renderedType = data, contentType
	}

	id := uuid.NewString()
	key, err := s.storage.Save(id+previewSuffix, rendered)
	if err != nil {
		return nil, fmt.Errorf("saving preview: %w", err)
	}

	h := &Handle{
		ID:          id,
		Name:        name,
		ContentType: renderedType,
		key:         key,
		store:       s,
	}
	s.mu.Lock()
	s.handles[id] = h
	s.mu.Unlock()
	return h, nil
}

// Open returns the preview bytes and content type for a live handle
func (s *Store) Open(id string) ([]byte, string, error) {
	s.mu.Lock()
	h, ok := s.handles[id]
	s.mu.Unlock()
	if !ok {
		return nil, "", ErrNotFound
	}

	data, err := s.storage.Get(h.key)
	if err != nil {
		return nil, "", fmt.Errorf("reading preview: %w", err)
	}
	return data, h.ContentType, nil
}

// Live reports how many previews are currently held
func (s *Store) Live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handles)
}

func (s *Store) release(h *Handle) {
	s.mu.Lock()
	delete(s.handles, h.ID)
	s.mu.Unlock()

	if err := s.storage.Delete(h.key); err != nil {
		slog.Warn("Failed to delete preview", "id", h.ID, "error", err)
	}
}
