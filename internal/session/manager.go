package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/inamate/pagemark/internal/asset"
	"github.com/inamate/pagemark/internal/engine"
	"github.com/inamate/pagemark/internal/pdf"
	"github.com/inamate/pagemark/internal/render"
	"github.com/inamate/pagemark/internal/typeid"
)

var ErrNotFound = errors.New("session not found")

// Manager is the registry of open sessions.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	opts     engine.Options
	ttl      time.Duration
	now      func() time.Time
}

// NewManager creates a registry whose sessions use opts and expire after
// ttl without use. A zero ttl keeps sessions until deleted.
func NewManager(opts engine.Options, ttl time.Duration) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		opts:     opts,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Open inspects a PDF and starts a session editing it.
func (m *Manager) Open(name string, data []byte) (*Session, error) {
	sizes, err := pdf.Inspect(data)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", name, err)
	}

	pages := make([]engine.PageSize, len(sizes))
	for i, sz := range sizes {
		pages[i] = engine.PageSize{Width: sz.Width, Height: sz.Height}
	}

	e := engine.NewEngine(m.opts)
	e.LoadDocument(pages)

	now := m.now()
	s := &Session{
		ID:       typeid.NewSessionID(),
		Created:  now,
		name:     name,
		source:   data,
		pages:    render.BlankRenderer{Sizes: pages},
		assets:   asset.NewLibrary(),
		engine:   e,
		lastUsed: now,
		now:      m.now,
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	slog.Info("session opened", "session", s.ID, "name", name, "pages", len(pages))
	return s, nil
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s, nil
}

func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return false
	}
	delete(m.sessions, id)
	slog.Info("session closed", "session", id)
	return true
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep drops sessions idle for longer than the ttl and reports how many
// went.
func (m *Manager) Sweep() int {
	if m.ttl <= 0 {
		return 0
	}
	cutoff := m.now().Add(-m.ttl)

	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, s := range m.sessions {
		if s.idleSince(cutoff) {
			delete(m.sessions, id)
			slog.Info("session expired", "session", id)
			n++
		}
	}
	return n
}

// Run sweeps every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.Sweep()
		case <-ctx.Done():
			return
		}
	}
}
