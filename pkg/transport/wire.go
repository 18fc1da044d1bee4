package transport

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// EventKind discriminates the inbound event types the assembler consumes.
type EventKind int

const (
	// EventChunk is a partial increment of a streamed message.
	EventChunk EventKind = iota
	// EventComplete carries the full final content of a streamed message.
	EventComplete
	// EventError is a server-reported failure for the active exchange.
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventChunk:
		return "chunk"
	case EventComplete:
		return "complete"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is a parsed inbound frame.
type Event struct {
	Kind    EventKind
	From    string
	Content string
}

// inboundFrame is the raw JSON shape coming off the socket.
type inboundFrame struct {
	Type    string `json:"type"`
	From    string `json:"from"`
	Content string `json:"content"`
}

// outboundFrame is the single outbound message shape. Every frame carries
// the session id so one long-lived connection can serve all sessions.
type outboundFrame struct {
	Type      string `json:"type"`
	To        string `json:"to"`
	Content   string `json:"content"`
	Stream    bool   `json:"stream"`
	SessionID string `json:"session_id"`
}

// ParseEvent decodes an inbound frame. Unknown types and frames missing the
// sender are rejected; callers drop them with a diagnostic rather than crash.
func ParseEvent(data []byte) (Event, error) {
	var frame inboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return Event{}, errors.Wrap(err, "decode inbound frame")
	}
	if frame.From == "" {
		return Event{}, errors.New("inbound frame has no sender")
	}
	switch frame.Type {
	case "message_chunk":
		return Event{Kind: EventChunk, From: frame.From, Content: frame.Content}, nil
	case "message":
		return Event{Kind: EventComplete, From: frame.From, Content: frame.Content}, nil
	case "error":
		return Event{Kind: EventError, From: frame.From, Content: frame.Content}, nil
	default:
		return Event{}, errors.Errorf("unknown inbound frame type %q", frame.Type)
	}
}

// EncodeSend builds the outbound wire bytes for a user message to an agent
// within a session. Streaming replies are always requested.
func EncodeSend(agentID, content, sessionID string) ([]byte, error) {
	data, err := json.Marshal(outboundFrame{
		Type:      "message",
		To:        agentID,
		Content:   content,
		Stream:    true,
		SessionID: sessionID,
	})
	if err != nil {
		return nil, errors.Wrap(err, "encode outbound frame")
	}
	return data, nil
}
