package session

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/parley/pkg/agents"
)

// Store is the in-memory authoritative set of sessions across agents.
// Referential integrity against the agent roster is deliberately loose:
// sessions whose agent disappeared stay in the store and simply become
// unreachable through agent-based navigation.
type Store struct {
	mu       sync.Mutex
	sessions []Session
	agents   map[string]agents.Agent
}

func NewStore() *Store {
	return &Store{agents: map[string]agents.Agent{}}
}

// SetAgents replaces the known agent roster used for name defaults and
// create-time checks.
func (s *Store) SetAgents(list []agents.Agent) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.agents = make(map[string]agents.Agent, len(list))
	for _, agent := range list {
		s.agents[agent.ID] = agent
	}
}

// Create adds a fresh session for an agent. With an empty name the session
// is named "Conversation with <agent> <timestamp>". Unknown agents make this
// a silent no-op returning nil, matching the UI contract that only listed
// agents are selectable.
func (s *Store) Create(agentID, name string) *Session {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	agent, ok := s.agents[agentID]
	if !ok {
		log.Warn().Str("component", "session").Str("agent_id", agentID).Msg("create session for unknown agent, ignoring")
		return nil
	}
	now := time.Now()
	if name == "" {
		name = "Conversation with " + agent.Name + " " + now.Format("Jan 2 15:04")
	}
	created := Session{
		ID:        uuid.NewString(),
		Name:      name,
		AgentID:   agentID,
		CreatedAt: now,
	}
	s.sessions = append(s.sessions, created)
	return &created
}

// Get returns a copy of the session with the given id.
func (s *Store) Get(id string) (Session, bool) {
	if s == nil {
		return Session{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.sessions {
		if sess.ID == id {
			return sess, true
		}
	}
	return Session{}, false
}

// Rename sets a session's name in place. Unknown ids are ignored. Callers
// are expected to reject empty or whitespace-only names before calling; the
// store does not validate.
func (s *Store) Rename(id, newName string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.sessions {
		if s.sessions[i].ID == id {
			s.sessions[i].Name = newName
			return
		}
	}
}

// Delete removes a session and reports whether it existed. History cascade
// and selection fallback live in the Manager.
func (s *Store) Delete(id string) bool {
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.sessions {
		if s.sessions[i].ID == id {
			s.sessions = append(s.sessions[:i], s.sessions[i+1:]...)
			return true
		}
	}
	return false
}

// Touch records message activity on a session.
func (s *Store) Touch(id string, ts time.Time) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.sessions {
		if s.sessions[i].ID == id {
			t := ts
			s.sessions[i].LastMessageAt = &t
			return
		}
	}
}

// ListByAgent returns the agent's sessions sorted by most recent activity
// first. The same ordering drives both display and most-recent auto-select.
func (s *Store) ListByAgent(agentID string) []Session {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Session
	for _, sess := range s.sessions {
		if sess.AgentID == agentID {
			out = append(out, sess)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ActivityTime().After(out[j].ActivityTime())
	})
	return out
}

// MostRecent returns the agent's most recently active session.
func (s *Store) MostRecent(agentID string) (Session, bool) {
	list := s.ListByAgent(agentID)
	if len(list) == 0 {
		return Session{}, false
	}
	return list[0], true
}

// HasSessions reports whether any session exists for the agent.
func (s *Store) HasSessions(agentID string) bool {
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.sessions {
		if sess.AgentID == agentID {
			return true
		}
	}
	return false
}

// All returns a copy of every session, for persistence.
func (s *Store) All() []Session {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Session, len(s.sessions))
	copy(out, s.sessions)
	return out
}

// SetAll replaces the session set, typically from a persisted snapshot.
func (s *Store) SetAll(sessions []Session) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = make([]Session, len(sessions))
	copy(s.sessions, sessions)
}
