package transport

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseEventChunk(t *testing.T) {
	event, err := ParseEvent([]byte(`{"type":"message_chunk","from":"poet","content":"Hel"}`))
	require.NoError(t, err)
	require.Equal(t, EventChunk, event.Kind)
	require.Equal(t, "poet", event.From)
	require.Equal(t, "Hel", event.Content)
}

func TestParseEventComplete(t *testing.T) {
	event, err := ParseEvent([]byte(`{"type":"message","from":"poet","content":"Hello!"}`))
	require.NoError(t, err)
	require.Equal(t, EventComplete, event.Kind)
	require.Equal(t, "Hello!", event.Content)
}

func TestParseEventError(t *testing.T) {
	event, err := ParseEvent([]byte(`{"type":"error","from":"poet","content":"rate limited"}`))
	require.NoError(t, err)
	require.Equal(t, EventError, event.Kind)
	require.Equal(t, "rate limited", event.Content)
}

func TestParseEventRejectsMissingSender(t *testing.T) {
	_, err := ParseEvent([]byte(`{"type":"message","content":"orphan"}`))
	require.Error(t, err)
}

func TestParseEventRejectsUnknownType(t *testing.T) {
	_, err := ParseEvent([]byte(`{"type":"presence","from":"poet"}`))
	require.Error(t, err)
}

func TestParseEventRejectsMalformedJSON(t *testing.T) {
	_, err := ParseEvent([]byte(`{nope`))
	require.Error(t, err)
}

func TestEncodeSend(t *testing.T) {
	data, err := EncodeSend("poet", "write me a haiku", "s1")
	require.NoError(t, err)

	var frame map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &frame))
	require.Equal(t, "message", frame["type"])
	require.Equal(t, "poet", frame["to"])
	require.Equal(t, "write me a haiku", frame["content"])
	require.Equal(t, true, frame["stream"])
	require.Equal(t, "s1", frame["session_id"])
}

func TestEventKindString(t *testing.T) {
	require.Equal(t, "chunk", EventChunk.String())
	require.Equal(t, "complete", EventComplete.String())
	require.Equal(t, "error", EventError.String())
}
