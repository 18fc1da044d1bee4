package chat

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMessageUnmarshalDefaultsFinal(t *testing.T) {
	var m Message
	err := json.Unmarshal([]byte(`{"content":"hi","from":"user","timestamp":"2025-03-01T12:00:00Z"}`), &m)
	require.NoError(t, err)
	require.True(t, m.IsFinal)

	err = json.Unmarshal([]byte(`{"content":"hi","from":"bot","timestamp":"2025-03-01T12:00:00Z","isFinal":false}`), &m)
	require.NoError(t, err)
	require.False(t, m.IsFinal)
}

func TestMessageRoundTrip(t *testing.T) {
	in := Message{
		Content:   "**hello**",
		From:      "bot",
		Timestamp: time.Date(2025, 3, 1, 12, 30, 45, 123456789, time.UTC),
		IsFinal:   true,
	}
	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out Message
	require.NoError(t, json.Unmarshal(data, &out))
	require.Equal(t, in.Content, out.Content)
	require.Equal(t, in.From, out.From)
	require.True(t, in.Timestamp.Equal(out.Timestamp))
	require.Equal(t, in.IsFinal, out.IsFinal)
}
