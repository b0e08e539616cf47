package session

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/casequest/coach-engine/internal/gateway"
	"github.com/casequest/coach-engine/internal/models"
)

// Manager registers one Orchestrator per client token. Sessions live
// in memory only; an idle session past the TTL is removed by the
// cleanup worker.
type Manager struct {
	gw  gateway.CoachGateway
	ttl time.Duration

	mu       sync.RWMutex
	sessions map[string]*Orchestrator
}

// NewManager creates a session manager
func NewManager(gw gateway.CoachGateway, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &Manager{
		gw:       gw,
		ttl:      ttl,
		sessions: make(map[string]*Orchestrator),
	}
}

// Create registers a new session in the landing phase
func (m *Manager) Create() (*Orchestrator, error) {
	token, err := models.GenerateSessionToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	o := NewOrchestrator(token, m.gw)

	m.mu.Lock()
	m.sessions[token] = o
	m.mu.Unlock()

	slog.Info("session registered", "token", token)
	return o, nil
}

// Get returns the session for a token
func (m *Manager) Get(token string) (*Orchestrator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	o, ok := m.sessions[token]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return o, nil
}

// Delete removes a session and releases its resources
func (m *Manager) Delete(token string) error {
	m.mu.Lock()
	o, ok := m.sessions[token]
	if ok {
		delete(m.sessions, token)
	}
	m.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}

	o.shutdown()
	slog.Info("session removed", "token", token)
	return nil
}

// Len returns the number of live sessions
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CleanupExpired removes sessions idle past the TTL and returns how
// many were removed.
func (m *Manager) CleanupExpired() int {
	cutoff := time.Now().Add(-m.ttl)

	m.mu.RLock()
	var expired []string
	for token, o := range m.sessions {
		if o.LastActive().Before(cutoff) {
			expired = append(expired, token)
		}
	}
	m.mu.RUnlock()

	for _, token := range expired {
		if err := m.Delete(token); err != nil {
			slog.Error("failed to remove expired session", "token", token, "error", err)
		}
	}

	return len(expired)
}
