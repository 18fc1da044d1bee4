package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/go-go-golems/parley/pkg/agents"
	"github.com/go-go-golems/parley/pkg/transport"
)

type agentsLoadedMsg struct {
	agents []agents.Agent
}

type agentsFailedMsg struct {
	err error
}

type transportEventMsg struct {
	event transport.Event
}

type connStateMsg struct {
	state transport.State
}

type keyValidatedMsg struct {
	result agents.ValidationResult
	err    error
}

func fetchAgentsCmd(client *agents.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		list, err := client.List(ctx)
		if err != nil {
			return agentsFailedMsg{err: err}
		}
		return agentsLoadedMsg{agents: list}
	}
}

func validateKeyCmd(client *agents.Client, apiKey string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		result, err := client.ValidateKey(ctx, apiKey)
		return keyValidatedMsg{result: result, err: err}
	}
}

// waitEventCmd pulls the next inbound transport event into the update loop.
// It re-arms itself from Update after every delivery, keeping all state
// mutation on the single bubbletea goroutine.
func waitEventCmd(events <-chan transport.Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-events
		if !ok {
			return nil
		}
		return transportEventMsg{event: event}
	}
}

func waitStateCmd(states <-chan transport.State) tea.Cmd {
	return func() tea.Msg {
		state, ok := <-states
		if !ok {
			return nil
		}
		return connStateMsg{state: state}
	}
}
