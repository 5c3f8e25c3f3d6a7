package state

import (
	"sync"
	"time"
)

// Manager manages run state with thread-safe access.
type Manager struct {
	mu sync.RWMutex

	runID    string
	phase    Phase
	openedAt *time.Time
	restored bool
}

// New creates a new state manager in PhaseWaiting.
func New(runID string) *Manager {
	return &Manager{
		runID: runID,
		phase: PhaseWaiting,
	}
}

// GetPhase returns the current phase.
func (m *Manager) GetPhase() Phase {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.phase
}

// Open moves a waiting manager to PhaseOpen. It reports false when the
// manager was not waiting.
func (m *Manager) Open(at time.Time, restored bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase != PhaseWaiting {
		return false
	}
	m.phase = PhaseOpen
	m.openedAt = &at
	m.restored = restored
	return true
}

// Close moves the manager to PhaseClosed. It reports false when it was
// already closed.
func (m *Manager) Close() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase == PhaseClosed {
		return false
	}
	m.phase = PhaseClosed
	return true
}

// IsOpen returns true if the manager accepts operations.
func (m *Manager) IsOpen() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.phase == PhaseOpen
}

// GetRunID returns the run ID.
func (m *Manager) GetRunID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.runID
}

// Info returns a copy of the run state.
func (m *Manager) Info() Info {
	m.mu.RLock()
	defer m.mu.RUnlock()

	info := Info{
		RunID:    m.runID,
		Phase:    m.phase,
		Restored: m.restored,
	}
	if m.openedAt != nil {
		s := m.openedAt.Format(time.RFC3339)
		info.OpenedAt = &s
	}
	return info
}
