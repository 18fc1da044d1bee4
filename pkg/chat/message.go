package chat

import (
	"encoding/json"
	"time"
)

// Well-known senders. Anything else is an agent id.
const (
	SenderUser   = "user"
	SenderSystem = "system"
)

// Message is a single transcript entry. Messages have no identity beyond
// their position in a session's history; ordering is strictly append-order.
type Message struct {
	Content   string    `json:"content"`
	From      string    `json:"from"`
	Timestamp time.Time `json:"timestamp"`
	IsFinal   bool      `json:"isFinal"`
}

// messageJSON mirrors Message but keeps IsFinal optional so that histories
// written by older clients (which omitted the flag on final messages) load
// as final rather than as dangling streams.
type messageJSON struct {
	Content   string    `json:"content"`
	From      string    `json:"from"`
	Timestamp time.Time `json:"timestamp"`
	IsFinal   *bool     `json:"isFinal,omitempty"`
}

func (m *Message) UnmarshalJSON(data []byte) error {
	var raw messageJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m.Content = raw.Content
	m.From = raw.From
	m.Timestamp = raw.Timestamp
	if raw.IsFinal == nil {
		m.IsFinal = true
	} else {
		m.IsFinal = *raw.IsFinal
	}
	return nil
}
