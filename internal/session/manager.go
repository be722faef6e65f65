package session

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Manager holds the sessions of every configured device.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager returns an empty manager.
func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*Session)}
}

// Add registers s. Sessions must be added before Run.
func (m *Manager) Add(s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[s.ID()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateSession, s.ID())
	}
	m.sessions[s.ID()] = s
	return nil
}

// Get returns the session for deviceID.
func (m *Manager) Get(deviceID string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[deviceID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDevice, deviceID)
	}
	return s, nil
}

// List returns every session ordered by device id.
func (m *Manager) List() []*Session {
	m.mu.RLock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// Len returns the number of sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// InFlight returns the outstanding exchanges across all sessions.
func (m *Manager) InFlight() int {
	total := 0
	for _, s := range m.List() {
		total += s.InFlight()
	}
	return total
}

// Connected returns how many devices are online.
func (m *Manager) Connected() int {
	n := 0
	for _, s := range m.List() {
		if s.Connected() {
			n++
		}
	}
	return n
}

// DisconnectAll tears down every session with reason.
func (m *Manager) DisconnectAll(reason error) {
	for _, s := range m.List() {
		s.Disconnect(reason)
	}
}

// Run drives every session's expiry loop until ctx ends or one fails.
func (m *Manager) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, s := range m.List() {
		s := s
		g.Go(func() error {
			return s.Run(gctx)
		})
	}
	return g.Wait()
}
