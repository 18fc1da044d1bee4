package statestore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/go-go-golems/parley/pkg/chat"
	"github.com/go-go-golems/parley/pkg/session"
)

func TestSnapshotSessionsRoundTrip(t *testing.T) {
	s := NewSnapshotStore(NewInMemoryKV())

	last := time.Date(2025, 4, 2, 8, 30, 0, 500000000, time.UTC)
	in := []session.Session{
		{
			ID:        "s1",
			Name:      "Conversation with Poet",
			AgentID:   "poet",
			CreatedAt: time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC),
		},
		{
			ID:            "s2",
			Name:          "renamed",
			AgentID:       "coder",
			CreatedAt:     time.Date(2025, 4, 2, 8, 0, 0, 0, time.UTC),
			LastMessageAt: &last,
		},
	}
	require.NoError(t, s.SaveSessions(in))

	out, err := s.LoadSessions()
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Equal(t, "s1", out[0].ID)
	require.True(t, out[0].CreatedAt.Equal(in[0].CreatedAt))
	require.Nil(t, out[0].LastMessageAt)
	require.NotNil(t, out[1].LastMessageAt)
	require.True(t, out[1].LastMessageAt.Equal(last))
}

func TestSnapshotMessagesRoundTrip(t *testing.T) {
	s := NewSnapshotStore(NewInMemoryKV())

	ts := time.Date(2025, 4, 1, 12, 0, 0, 123000000, time.UTC)
	in := map[string][]chat.Message{
		"s1": {
			{Content: "hi", From: chat.SenderUser, Timestamp: ts, IsFinal: true},
			{Content: "streaming", From: "poet", Timestamp: ts.Add(time.Second), IsFinal: false},
		},
	}
	require.NoError(t, s.SaveMessages(in))

	out, err := s.LoadMessages()
	require.NoError(t, err)
	require.Len(t, out["s1"], 2)
	require.Equal(t, "hi", out["s1"][0].Content)
	require.True(t, out["s1"][0].Timestamp.Equal(ts))
	require.False(t, out["s1"][1].IsFinal)
}

func TestSnapshotMissingEntries(t *testing.T) {
	s := NewSnapshotStore(NewInMemoryKV())

	sessions, err := s.LoadSessions()
	require.NoError(t, err)
	require.Nil(t, sessions)

	histories, err := s.LoadMessages()
	require.NoError(t, err)
	require.Empty(t, histories)

	_, found, err := s.LoadDarkMode()
	require.NoError(t, err)
	require.False(t, found)

	key, err := s.LoadAPIKey()
	require.NoError(t, err)
	require.Empty(t, key)
}

func TestSnapshotDarkModeAndAPIKey(t *testing.T) {
	s := NewSnapshotStore(NewInMemoryKV())

	require.NoError(t, s.SaveDarkMode(true))
	enabled, found, err := s.LoadDarkMode()
	require.NoError(t, err)
	require.True(t, found)
	require.True(t, enabled)

	require.NoError(t, s.SaveAPIKey("sk-test"))
	key, err := s.LoadAPIKey()
	require.NoError(t, err)
	require.Equal(t, "sk-test", key)

	require.NoError(t, s.ClearAPIKey())
	key, err = s.LoadAPIKey()
	require.NoError(t, err)
	require.Empty(t, key)
}
