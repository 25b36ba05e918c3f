package workspace

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zombor/invoice-extractor/internal/remote"
)

// IDGenerator generates session IDs
type IDGenerator interface {
	Generate() string
}

type uuidGenerator struct{}

func (uuidGenerator) Generate() string {
	return uuid.NewString()
}

// Manager owns the sessions of the front end
type Manager struct {
	extractor   remote.Extractor
	submitter   remote.Submitter
	previews    PreviewStore
	idleTimeout time.Duration
	clock       TimeSource
	ids         IDGenerator

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a Manager. Sessions idle for longer than idleTimeout are
// closed by Reap; zero disables reaping.
func NewManager(extractor remote.Extractor, submitter remote.Submitter, previews PreviewStore, idleTimeout time.Duration) *Manager {
	return NewManagerWithDeps(extractor, submitter, previews, idleTimeout, defaultTimeSource{}, uuidGenerator{})
}

// NewManagerWithDeps creates a Manager with custom dependencies for testing
func NewManagerWithDeps(extractor remote.Extractor, submitter remote.Submitter, previews PreviewStore, idleTimeout time.Duration, clock TimeSource, ids IDGenerator) *Manager {
	return &Manager{
		extractor:   extractor,
		submitter:   submitter,
		previews:    previews,
		idleTimeout: idleTimeout,
		clock:       clock,
		ids:         ids,
		sessions:    make(map[string]*Session),
	}
}

// Create starts a new session
func (m *Manager) Create() *Session {
	s := newSession(m.ids.Generate(), m.extractor, m.submitter, m.previews, m.clock)
	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()
	slog.Debug("Session created", "session", s.id)
	return s
}

// Get looks up a session by ID
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// GetOrCreate returns the session for id, creating a new one when id is unknown.
// The boolean reports whether a session was created.
func (m *Manager) GetOrCreate(id string) (*Session, bool) {
	if s, ok := m.Get(id); ok {
		return s, false
	}
	return m.Create(), true
}

// Close tears down a session and releases its preview
func (m *Manager) Close(id string) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		s.Close()
	}
	return ok
}

// Len reports the number of open sessions
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Reap closes sessions idle for longer than the idle timeout and returns how many it closed
func (m *Manager) Reap() int {
	if m.idleTimeout <= 0 {
		return 0
	}
	cutoff := m.clock.Now().Add(-m.idleTimeout)

	var stale []*Session
	m.mu.Lock()
	for id, s := range m.sessions {
		if s.LastActive().Before(cutoff) {
			stale = append(stale, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range stale {
		s.Close()
	}
	if len(stale) > 0 {
		slog.Info("Reaped idle sessions", "count", len(stale))
	}
	return len(stale)
}

// Run reaps idle sessions every interval until ctx is done, then closes the rest.
// A non-positive interval disables reaping.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		<-ctx.Done()
		m.CloseAll()
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			m.CloseAll()
			return
		case <-ticker.C:
			m.Reap()
		}
	}
}

// CloseAll tears down every session
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
