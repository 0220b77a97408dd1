package session

import "sync"

// Manager tracks live edit sessions. The dashboard opens one modal at a time,
// so each owner holds at most one session: opening a new one discards the
// previous session if it is idle and is rejected if it is busy.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*EditSession
	byOwner  map[string]string
}

// NewManager creates an empty session registry.
func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*EditSession),
		byOwner:  make(map[string]string),
	}
}

// Open creates a session for the given owner seeded from the appointment.
func (m *Manager) Open(owner string, s *EditSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if prevID, ok := m.byOwner[owner]; ok {
		prev := m.sessions[prevID]
		if err := prev.Close(); err != nil {
			return err
		}
		delete(m.sessions, prevID)
		delete(m.byOwner, owner)
	}

	s.owner = owner
	m.sessions[s.id] = s
	m.byOwner[owner] = s.id
	return nil
}

// Get returns the session with the given id, if it is still registered.
func (m *Manager) Get(id string) (*EditSession, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Release removes a completed or discarded session from the registry.
func (m *Manager) Release(s *EditSession) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if current, ok := m.byOwner[s.owner]; ok && current == s.id {
		delete(m.byOwner, s.owner)
	}
	delete(m.sessions, s.id)
}
