package ui

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/go-go-golems/parley/pkg/agents"
	"github.com/go-go-golems/parley/pkg/chat"
	"github.com/go-go-golems/parley/pkg/persistence/statestore"
	"github.com/go-go-golems/parley/pkg/session"
	"github.com/go-go-golems/parley/pkg/transport"
)

func testModel(t *testing.T) (*Model, *chat.Assembler, *session.Manager) {
	t.Helper()
	store := session.NewStore()
	store.SetAgents([]agents.Agent{{ID: "poet", Name: "Poet"}})
	assembler := chat.NewAssembler()
	manager := session.NewManager(store, assembler)

	conn, err := transport.NewManager(transport.Config{
		URL:     "ws://localhost:8000/ws/client1",
		OnEvent: func(transport.Event) {},
	})
	require.NoError(t, err)

	m := New(Options{
		Snapshot:  statestore.NewSnapshotStore(statestore.NewInMemoryKV()),
		Sessions:  manager,
		Assembler: assembler,
		Conn:      conn,
		DarkMode:  true,
	})
	return m, assembler, manager
}

func TestSendWhileDisconnectedLeavesUserAndNotice(t *testing.T) {
	m, assembler, manager := testModel(t)
	current, ok := manager.SelectAgent("poet")
	require.True(t, ok)

	m.input.SetValue("hello there")
	m.sendCurrentInput()

	history := assembler.History(current.ID)
	require.Len(t, history, 2)
	require.Equal(t, chat.SenderUser, history[0].From)
	require.Equal(t, "hello there", history[0].Content)
	require.Equal(t, chat.SenderSystem, history[1].From)
	require.Contains(t, history[1].Content, "not delivered")
	require.Empty(t, m.input.Value())

	// the optimistic user message still counts as activity
	got, found := manager.Current()
	require.True(t, found)
	require.NotNil(t, got.LastMessageAt)
}

func TestTransportEventsFoldIntoCurrentSession(t *testing.T) {
	m, assembler, manager := testModel(t)
	current, ok := manager.SelectAgent("poet")
	require.True(t, ok)

	m.applyTransportEvent(transport.Event{Kind: transport.EventChunk, From: "poet", Content: "Hel"})
	m.applyTransportEvent(transport.Event{Kind: transport.EventChunk, From: "poet", Content: "lo"})
	m.applyTransportEvent(transport.Event{Kind: transport.EventComplete, From: "poet", Content: "Hello!"})

	history := assembler.History(current.ID)
	require.Len(t, history, 1)
	require.Equal(t, "Hello!", history[0].Content)
	require.True(t, history[0].IsFinal)

	got, found := manager.Current()
	require.True(t, found)
	require.NotNil(t, got.LastMessageAt)
}

func TestErrorEventDoesNotBumpActivity(t *testing.T) {
	m, assembler, manager := testModel(t)
	current, ok := manager.SelectAgent("poet")
	require.True(t, ok)

	m.applyTransportEvent(transport.Event{Kind: transport.EventError, From: "poet", Content: "model overloaded"})

	history := assembler.History(current.ID)
	require.Len(t, history, 1)
	require.Equal(t, chat.SenderSystem, history[0].From)
	require.Equal(t, "Error: model overloaded", history[0].Content)

	got, found := manager.Current()
	require.True(t, found)
	require.Nil(t, got.LastMessageAt)
}

func TestChunksDeferSnapshotWritesUntilFinal(t *testing.T) {
	m, _, manager := testModel(t)
	current, ok := manager.SelectAgent("poet")
	require.True(t, ok)

	m.applyTransportEvent(transport.Event{Kind: transport.EventChunk, From: "poet", Content: "Hel"})
	m.applyTransportEvent(transport.Event{Kind: transport.EventChunk, From: "poet", Content: "lo"})

	saved, err := m.snapshot.LoadMessages()
	require.NoError(t, err)
	require.Empty(t, saved)

	m.applyTransportEvent(transport.Event{Kind: transport.EventComplete, From: "poet", Content: "Hello!"})

	saved, err = m.snapshot.LoadMessages()
	require.NoError(t, err)
	require.Len(t, saved[current.ID], 1)
	require.Equal(t, "Hello!", saved[current.ID][0].Content)
	require.True(t, saved[current.ID][0].IsFinal)
}

func TestErrorEventPersistsTranscript(t *testing.T) {
	m, _, manager := testModel(t)
	current, ok := manager.SelectAgent("poet")
	require.True(t, ok)

	m.applyTransportEvent(transport.Event{Kind: transport.EventError, From: "poet", Content: "backend down"})

	saved, err := m.snapshot.LoadMessages()
	require.NoError(t, err)
	require.Len(t, saved[current.ID], 1)
	require.Equal(t, "Error: backend down", saved[current.ID][0].Content)
}

func TestEventWithoutSelectionIsDropped(t *testing.T) {
	m, assembler, _ := testModel(t)

	m.applyTransportEvent(transport.Event{Kind: transport.EventChunk, From: "poet", Content: "orphan"})

	require.Empty(t, assembler.Histories())
}
