package chat

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// streamKey identifies the single in-flight stream slot for a sender within
// a session. The wire protocol carries no stream id, so the backend contract
// is one in-flight message per sender per session at a time.
type streamKey struct {
	sessionID string
	from      string
}

// openStream points at the in-progress message for a slot. Presence in the
// Assembler's stream map means "in progress"; absence means the slot is
// closed and the next chunk starts a fresh message.
type openStream struct {
	index int
}

// Assembler folds inbound transport events into per-session ordered message
// histories. Chunks from a sender accumulate into one growing message until
// a complete event finalizes it; a later chunk from the same sender then
// starts a new message.
type Assembler struct {
	mu        sync.Mutex
	histories map[string][]Message
	streams   map[streamKey]openStream
}

func NewAssembler() *Assembler {
	return &Assembler{
		histories: map[string][]Message{},
		streams:   map[streamKey]openStream{},
	}
}

// ApplyChunk accumulates a partial message increment. If the sender's stream
// slot is open and still at the tail of the history, the chunk is appended to
// that message's content; otherwise a new non-final message is started.
func (a *Assembler) ApplyChunk(sessionID, from, content string, now time.Time) {
	if a == nil || sessionID == "" {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	history := a.histories[sessionID]
	key := streamKey{sessionID: sessionID, from: from}
	if stream, ok := a.streams[key]; ok && a.streamIsTailLocked(history, stream, from) {
		msg := history[stream.index]
		msg.Content += content
		msg.Timestamp = now
		history[stream.index] = msg
		a.histories[sessionID] = history
		return
	}

	a.histories[sessionID] = append(history, Message{
		Content:   content,
		From:      from,
		Timestamp: now,
		IsFinal:   false,
	})
	a.streams[key] = openStream{index: len(a.histories[sessionID]) - 1}
}

// ApplyComplete finalizes the sender's in-flight message, replacing its
// content with the event content verbatim. Without an open stream it appends
// a single already-final message.
func (a *Assembler) ApplyComplete(sessionID, from, content string, now time.Time) {
	if a == nil || sessionID == "" {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	history := a.histories[sessionID]
	key := streamKey{sessionID: sessionID, from: from}
	if stream, ok := a.streams[key]; ok && a.streamIsTailLocked(history, stream, from) {
		history[stream.index] = Message{
			Content:   content,
			From:      from,
			Timestamp: now,
			IsFinal:   true,
		}
		a.histories[sessionID] = history
		delete(a.streams, key)
		return
	}

	delete(a.streams, key)
	a.histories[sessionID] = append(history, Message{
		Content:   content,
		From:      from,
		Timestamp: now,
		IsFinal:   true,
	})
}

// streamIsTailLocked reports whether an open stream still points at the last
// message of the history. A user or system message appended mid-stream
// orphans the slot, matching the append-order rule: accumulation only ever
// rewrites the tail.
func (a *Assembler) streamIsTailLocked(history []Message, stream openStream, from string) bool {
	if stream.index != len(history)-1 || stream.index < 0 {
		return false
	}
	last := history[stream.index]
	return last.From == from && !last.IsFinal
}

// ApplyError appends a system-authored error entry. Transport diagnostics do
// not count as conversation activity, so callers should not touch the
// session's last-activity time for these.
func (a *Assembler) ApplyError(sessionID, content string, now time.Time) {
	if a == nil || sessionID == "" {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.histories[sessionID] = append(a.histories[sessionID], Message{
		Content:   "Error: " + content,
		From:      SenderSystem,
		Timestamp: now,
		IsFinal:   true,
	})
}

// AppendUser records a locally sent user message, optimistically and final.
func (a *Assembler) AppendUser(sessionID, content string, now time.Time) {
	a.appendFinal(sessionID, SenderUser, content, now)
}

// AppendSystem records a client-side notice (send failures and the like).
func (a *Assembler) AppendSystem(sessionID, content string, now time.Time) {
	a.appendFinal(sessionID, SenderSystem, content, now)
}

func (a *Assembler) appendFinal(sessionID, from, content string, now time.Time) {
	if a == nil || sessionID == "" {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.histories[sessionID] = append(a.histories[sessionID], Message{
		Content:   content,
		From:      from,
		Timestamp: now,
		IsFinal:   true,
	})
}

// History returns a copy of the session's ordered messages.
func (a *Assembler) History(sessionID string) []Message {
	if a == nil {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	history := a.histories[sessionID]
	if history == nil {
		return nil
	}
	out := make([]Message, len(history))
	copy(out, history)
	return out
}

// Histories returns a deep copy of all session histories, for persistence.
func (a *Assembler) Histories() map[string][]Message {
	if a == nil {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[string][]Message, len(a.histories))
	for id, history := range a.histories {
		msgs := make([]Message, len(history))
		copy(msgs, history)
		out[id] = msgs
	}
	return out
}

// SetHistories replaces all histories, typically from a persisted snapshot.
// Any stream that was in flight when the snapshot was written died with its
// connection, so all slots reset to closed.
func (a *Assembler) SetHistories(histories map[string][]Message) {
	if a == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.histories = map[string][]Message{}
	for id, history := range histories {
		msgs := make([]Message, len(history))
		copy(msgs, history)
		a.histories[id] = msgs
	}
	a.streams = map[streamKey]openStream{}
}

// ClearSession empties a session's transcript but keeps the session itself.
func (a *Assembler) ClearSession(sessionID string) {
	if a == nil || sessionID == "" {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.histories[sessionID] = []Message{}
	a.dropStreamsLocked(sessionID)
}

// ClearAll drops every transcript.
func (a *Assembler) ClearAll() {
	if a == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.histories = map[string][]Message{}
	a.streams = map[streamKey]openStream{}
}

// DeleteSession removes a session's history entry entirely. Session deletion
// must cascade here in the same logical operation so no orphaned histories
// survive.
func (a *Assembler) DeleteSession(sessionID string) {
	if a == nil || sessionID == "" {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.histories[sessionID]; !ok {
		log.Debug().Str("component", "assembler").Str("session_id", sessionID).Msg("delete for session without history")
	}
	delete(a.histories, sessionID)
	a.dropStreamsLocked(sessionID)
}

func (a *Assembler) dropStreamsLocked(sessionID string) {
	for key := range a.streams {
		if key.sessionID == sessionID {
			delete(a.streams, key)
		}
	}
}
