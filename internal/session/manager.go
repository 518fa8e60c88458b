package session

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"datalens/domain/core"
	"datalens/internal"
	"datalens/internal/errors"
	"datalens/ports"
)

// Manager keeps sessions by ID in memory
type Manager struct {
	mu       sync.RWMutex
	sessions map[core.SessionID]*Session
	detector ports.RelationshipDetector
	logger   *internal.Logger
}

// NewManager creates a manager whose sessions share detector
func NewManager(detector ports.RelationshipDetector, logger *internal.Logger) *Manager {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Manager{
		sessions: make(map[core.SessionID]*Session),
		detector: detector,
		logger:   logger,
	}
}

// Create starts a session with a fresh ID
func (m *Manager) Create() *Session {
	return m.GetOrCreate(core.NewSessionID())
}

// GetOrCreate returns the session for id, creating it on first use
func (m *Manager) GetOrCreate(id core.SessionID) *Session {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		return s
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		return s
	}
	s = New(id, m.detector)
	m.sessions[id] = s
	m.logger.Debug("[SessionManager] created session %s", id)
	return s
}

// Get returns an existing session
func (m *Manager) Get(id core.SessionID) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, sessionNotFound(id)
	}
	return s, nil
}

// Delete drops a session with its datasets
func (m *Manager) Delete(id core.SessionID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return sessionNotFound(id)
	}
	delete(m.sessions, id)
	m.logger.Debug("[SessionManager] deleted session %s", id)
	return nil
}

func sessionNotFound(id core.SessionID) error {
	return errors.NotFound("session", fmt.Errorf("%w with id %s", core.ErrSessionNotFound, id))
}

// List returns the IDs of every live session, sorted
func (m *Manager) List() []core.SessionID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]core.SessionID, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// CleanupExpired drops sessions untouched for longer than ttl and returns
// how many were removed
func (m *Manager) CleanupExpired(ttl time.Duration) int {
	cutoff := time.Now().UTC().Add(-ttl)
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, s := range m.sessions {
		if s.UpdatedAt().Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		m.logger.Info("[SessionManager] expired %d idle sessions", removed)
	}
	return removed
}

// RunJanitor calls CleanupExpired every interval until ctx is done
func (m *Manager) RunJanitor(ctx context.Context, ttl, interval time.Duration) {
	if ttl <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.CleanupExpired(ttl)
		}
	}
}
