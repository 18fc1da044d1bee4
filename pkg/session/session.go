package session

import "time"

// Session is a named, timestamped conversation thread bound to one agent.
// Timestamps serialize as RFC 3339 strings through the default time.Time
// JSON encoding; LastMessageAt is absent until the first activity.
type Session struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	AgentID       string     `json:"agentId"`
	CreatedAt     time.Time  `json:"createdAt"`
	LastMessageAt *time.Time `json:"lastMessageAt,omitempty"`
}

// ActivityTime is the ordering key for session lists: last message time when
// present, creation time otherwise.
func (s Session) ActivityTime() time.Time {
	if s.LastMessageAt != nil {
		return *s.LastMessageAt
	}
	return s.CreatedAt
}
