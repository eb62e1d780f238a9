package server

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/reflow-dev/reflow/pkg/component"
)

// Manager owns the live sessions of a Server: creation, lookup, the idle
// sweep, and shutdown.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	peak     int

	config  *Config
	logger  *slog.Logger
	metrics *Metrics

	totalCreated atomic.Uint64
	totalClosed  atomic.Uint64

	done     chan struct{}
	stopOnce sync.Once
}

// Stats is a point-in-time snapshot of session counts.
type Stats struct {
	Active       int
	Peak         int
	TotalCreated uint64
	TotalClosed  uint64
}

// NewManager creates a session manager and starts its idle sweep.
func NewManager(config *Config, logger *slog.Logger, metrics *Metrics) *Manager {
	m := &Manager{
		sessions: make(map[string]*Session),
		config:   config,
		logger:   logger,
		metrics:  metrics,
		done:     make(chan struct{}),
	}
	go m.cleanupLoop()
	return m
}

// Create builds a session for conn, mounts app's root component, and
// registers it. Returns ErrMaxSessionsReached when the limit is hit.
func (m *Manager) Create(conn *websocket.Conn, app component.Options) (*Session, error) {
	if m.config.MaxSessions > 0 && m.Count() >= m.config.MaxSessions {
		return nil, ErrMaxSessionsReached
	}

	s := newSession(conn, m.config, m.logger, m.metrics)
	s.onClose = m.remove
	s.mountRoot(app)

	m.mu.Lock()
	// Re-check under the lock; a concurrent create may have taken the
	// last slot while the root was mounting.
	if m.config.MaxSessions > 0 && len(m.sessions) >= m.config.MaxSessions {
		m.mu.Unlock()
		s.onClose = nil
		s.Close()
		return nil, ErrMaxSessionsReached
	}
	m.sessions[s.ID] = s
	if len(m.sessions) > m.peak {
		m.peak = len(m.sessions)
	}
	m.mu.Unlock()

	m.totalCreated.Add(1)
	m.metrics.sessionCreated()
	m.logger.Info("session created", "session_id", s.ID, "active", m.Count())
	return s, nil
}

// Get returns the session with the given ID, or nil.
func (m *Manager) Get(id string) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[id]
}

// Count returns the number of registered sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Stats returns a snapshot of session counts.
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	active := len(m.sessions)
	peak := m.peak
	m.mu.RUnlock()

	return Stats{
		Active:       active,
		Peak:         peak,
		TotalCreated: m.totalCreated.Load(),
		TotalClosed:  m.totalClosed.Load(),
	}
}

// remove unregisters a closed session. Installed as each session's onClose.
func (m *Manager) remove(s *Session) {
	m.mu.Lock()
	_, found := m.sessions[s.ID]
	delete(m.sessions, s.ID)
	m.mu.Unlock()

	if found {
		m.totalClosed.Add(1)
		m.metrics.sessionClosed()
	}
}

// cleanupLoop closes sessions whose clients have gone quiet for longer
// than IdleTimeout. Detached sessions stay resumable until then.
func (m *Manager) cleanupLoop() {
	ticker := time.NewTicker(m.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.sweep()
		case <-m.done:
			return
		}
	}
}

func (m *Manager) sweep() {
	m.mu.RLock()
	var idle []*Session
	for _, s := range m.sessions {
		if s.Idle() > m.config.IdleTimeout {
			idle = append(idle, s)
		}
	}
	m.mu.RUnlock()

	for _, s := range idle {
		m.logger.Info("closing idle session", "session_id", s.ID, "idle", s.Idle())
		s.Close()
	}
}

// Shutdown stops the sweep and closes every session.
func (m *Manager) Shutdown() {
	m.stopOnce.Do(func() {
		close(m.done)
	})

	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	for _, s := range sessions {
		s.Close()
	}
}
