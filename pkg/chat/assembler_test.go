package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAssemblerAccumulatesChunks(t *testing.T) {
	a := NewAssembler()
	now := time.Now()

	a.ApplyChunk("s1", "bot", "Hel", now)
	a.ApplyChunk("s1", "bot", "lo ", now.Add(time.Millisecond))
	a.ApplyChunk("s1", "bot", "world", now.Add(2*time.Millisecond))

	history := a.History("s1")
	require.Len(t, history, 1)
	require.Equal(t, "Hello world", history[0].Content)
	require.Equal(t, "bot", history[0].From)
	require.False(t, history[0].IsFinal)
}

func TestAssemblerCompleteReplacesVerbatim(t *testing.T) {
	a := NewAssembler()
	now := time.Now()

	a.ApplyChunk("s1", "bot", "Hel", now)
	a.ApplyChunk("s1", "bot", "lo", now)
	a.ApplyComplete("s1", "bot", "Hello!", now)

	history := a.History("s1")
	require.Len(t, history, 1)
	require.Equal(t, "Hello!", history[0].Content)
	require.True(t, history[0].IsFinal)
}

func TestAssemblerChunkAfterCompleteStartsNewMessage(t *testing.T) {
	a := NewAssembler()
	now := time.Now()

	a.ApplyChunk("s1", "bot", "first", now)
	a.ApplyComplete("s1", "bot", "first", now)
	a.ApplyChunk("s1", "bot", "second", now)

	history := a.History("s1")
	require.Len(t, history, 2)
	require.True(t, history[0].IsFinal)
	require.Equal(t, "second", history[1].Content)
	require.False(t, history[1].IsFinal)
}

func TestAssemblerCompleteWithoutChunksAppendsFinal(t *testing.T) {
	a := NewAssembler()

	a.ApplyComplete("s1", "bot", "short answer", time.Now())

	history := a.History("s1")
	require.Len(t, history, 1)
	require.Equal(t, "short answer", history[0].Content)
	require.True(t, history[0].IsFinal)
}

func TestAssemblerUserMessageInterruptsStream(t *testing.T) {
	a := NewAssembler()
	now := time.Now()

	a.ApplyChunk("s1", "bot", "thinking", now)
	a.AppendUser("s1", "never mind", now)
	a.ApplyChunk("s1", "bot", " aloud", now)

	history := a.History("s1")
	require.Len(t, history, 3)
	require.Equal(t, "thinking", history[0].Content)
	require.Equal(t, "never mind", history[1].Content)
	require.Equal(t, " aloud", history[2].Content)
}

func TestAssemblerSendersAccumulateIndependentlyPerSession(t *testing.T) {
	a := NewAssembler()
	now := time.Now()

	a.ApplyChunk("s1", "bot", "one", now)
	a.ApplyChunk("s2", "bot", "two", now)

	require.Len(t, a.History("s1"), 1)
	require.Len(t, a.History("s2"), 1)
	require.Equal(t, "one", a.History("s1")[0].Content)
	require.Equal(t, "two", a.History("s2")[0].Content)
}

func TestAssemblerErrorAppendsSystemMessage(t *testing.T) {
	a := NewAssembler()

	a.ApplyError("s1", "agent not found", time.Now())

	history := a.History("s1")
	require.Len(t, history, 1)
	require.Equal(t, SenderSystem, history[0].From)
	require.Equal(t, "Error: agent not found", history[0].Content)
	require.True(t, history[0].IsFinal)
}

func TestAssemblerClearAndDelete(t *testing.T) {
	a := NewAssembler()
	now := time.Now()
	a.AppendUser("s1", "hi", now)
	a.AppendUser("s2", "ho", now)

	a.ClearSession("s1")
	require.Empty(t, a.History("s1"))
	require.Contains(t, a.Histories(), "s1")

	a.DeleteSession("s2")
	require.NotContains(t, a.Histories(), "s2")

	a.ClearAll()
	require.Empty(t, a.Histories())
}

func TestAssemblerStreamingScenario(t *testing.T) {
	a := NewAssembler()
	now := time.Now()

	a.ApplyChunk("s1", "bot", "Hel", now)
	a.ApplyChunk("s1", "bot", "lo", now)
	a.ApplyComplete("s1", "bot", "Hello!", now)

	history := a.History("s1")
	require.Len(t, history, 1)
	require.Equal(t, Message{Content: "Hello!", From: "bot", Timestamp: history[0].Timestamp, IsFinal: true}, history[0])
}

func TestSetHistoriesClosesOpenStreams(t *testing.T) {
	a := NewAssembler()
	now := time.Now()

	a.SetHistories(map[string][]Message{
		"s1": {{Content: "dangling", From: "bot", Timestamp: now, IsFinal: false}},
	})
	a.ApplyChunk("s1", "bot", "fresh", now)

	// The restored non-final tail is not resumed; a new message starts.
	history := a.History("s1")
	require.Len(t, history, 2)
	require.Equal(t, "fresh", history[1].Content)
}
