package session

import (
	"github.com/rs/zerolog/log"
)

// HistoryDeleter is the slice of the message history surface the manager
// needs so that deleting a session cascades to its transcript in the same
// logical operation.
type HistoryDeleter interface {
	DeleteSession(sessionID string)
}

// Manager layers the current-selection rules on top of the Store: which
// session is active, what happens when an agent is picked, and where
// selection falls after a delete.
type Manager struct {
	store     *Store
	histories HistoryDeleter
	currentID string
}

func NewManager(store *Store, histories HistoryDeleter) *Manager {
	return &Manager{store: store, histories: histories}
}

func (m *Manager) Store() *Store {
	if m == nil {
		return nil
	}
	return m.store
}

// CurrentID returns the selected session id, empty when nothing is selected.
func (m *Manager) CurrentID() string {
	if m == nil {
		return ""
	}
	return m.currentID
}

// Current returns the selected session.
func (m *Manager) Current() (Session, bool) {
	if m == nil || m.currentID == "" {
		return Session{}, false
	}
	return m.store.Get(m.currentID)
}

// Select makes an existing session current. Unknown ids are ignored so a
// stale id can never become the selection.
func (m *Manager) Select(id string) bool {
	if m == nil {
		return false
	}
	if _, ok := m.store.Get(id); !ok {
		return false
	}
	m.currentID = id
	return true
}

// SelectAgent applies the agent-select rule: with existing sessions the most
// recently active one is selected, otherwise a fresh session is created and
// selected. Returns the selected session, or false for unknown agents.
func (m *Manager) SelectAgent(agentID string) (Session, bool) {
	if m == nil {
		return Session{}, false
	}
	if recent, ok := m.store.MostRecent(agentID); ok {
		m.currentID = recent.ID
		return recent, true
	}
	return m.NewSession(agentID)
}

// NewSession creates and selects a session for the agent.
func (m *Manager) NewSession(agentID string) (Session, bool) {
	if m == nil {
		return Session{}, false
	}
	created := m.store.Create(agentID, "")
	if created == nil {
		return Session{}, false
	}
	m.currentID = created.ID
	return *created, true
}

// Delete removes a session together with its message history. Deleting the
// current session moves the selection to the most recently active sibling of
// the same agent, or to a brand-new session when none remain.
func (m *Manager) Delete(id string) {
	if m == nil {
		return
	}
	victim, ok := m.store.Get(id)
	if !ok {
		return
	}
	m.store.Delete(id)
	if m.histories != nil {
		m.histories.DeleteSession(id)
	}
	if id != m.currentID {
		return
	}
	if sibling, ok := m.store.MostRecent(victim.AgentID); ok {
		m.currentID = sibling.ID
		return
	}
	if created, ok := m.NewSession(victim.AgentID); ok {
		log.Debug().Str("component", "session").Str("session_id", created.ID).Msg("created replacement session after delete")
		return
	}
	// Agent vanished from the roster between create and delete; nothing to
	// select anymore.
	m.currentID = ""
}
