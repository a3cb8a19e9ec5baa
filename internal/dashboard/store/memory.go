// Package store holds the session backends for the dashboard.
package store

import (
	"context"
	"sync"
	"time"

	apperrors "cohost-dashboard/internal/common/errors"
	"cohost-dashboard/internal/common/metrics"
	"cohost-dashboard/internal/dashboard"
)

type memoryEntry struct {
	state     dashboard.State
	expiresAt time.Time
}

// Memory keeps sessions in process. A ttl of zero disables expiry.
type Memory struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (m *Memory) Get(_ context.Context, sessionID string) (dashboard.State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[sessionID]
	if !ok || m.expired(e) {
		return dashboard.State{}, apperrors.NewSessionNotFoundError(sessionID, dashboard.ErrSessionNotFound)
	}
	return e.state, nil
}

// Put stores state and restarts the session's ttl.
func (m *Memory) Put(_ context.Context, sessionID string, state dashboard.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := memoryEntry{state: state}
	if m.ttl > 0 {
		e.expiresAt = m.now().Add(m.ttl)
	}
	m.entries[sessionID] = e
	metrics.SessionsActive.Set(float64(len(m.entries)))
	return nil
}

func (m *Memory) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, sessionID)
	metrics.SessionsActive.Set(float64(len(m.entries)))
	return nil
}

// Sweep drops expired sessions and returns how many were removed.
func (m *Memory) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, e := range m.entries {
		if m.expired(e) {
			delete(m.entries, id)
			removed++
		}
	}
	metrics.SessionsActive.Set(float64(len(m.entries)))
	return removed
}

// RunSweeper calls Sweep every interval until ctx is done.
func (m *Memory) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *Memory) Ping(context.Context) error {
	return nil
}

func (m *Memory) Close() error {
	return nil
}

func (m *Memory) expired(e memoryEntry) bool {
	return !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt)
}
