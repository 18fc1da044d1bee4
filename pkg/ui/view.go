package ui

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/go-go-golems/parley/pkg/chat"
	"github.com/go-go-golems/parley/pkg/transport"
)

func (m *Model) View() string {
	if !m.ready {
		return "starting…"
	}

	switch m.overlay {
	case overlayClear:
		return m.renderClearOverlay()
	case overlayAPIKey:
		return m.renderAPIKeyOverlay()
	}

	chatPane := m.renderChatPane()
	if !m.sidebarOpen {
		return lipgloss.JoinVertical(lipgloss.Left, chatPane, m.renderStatusBar())
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(), chatPane)
	return lipgloss.JoinVertical(lipgloss.Left, body, m.renderStatusBar())
}

func (m *Model) renderSidebar() string {
	var b strings.Builder
	if m.view == viewAgents {
		b.WriteString(m.styles.sidebarTitle.Render("Agents"))
		b.WriteString("\n\n")
		if m.agentErr != "" {
			b.WriteString(m.styles.statusError.Render(truncate(m.agentErr, sidebarWidth-2)))
			b.WriteString("\n")
		}
		if len(m.groups) == 0 && m.agentErr == "" {
			b.WriteString(m.styles.itemMeta.Render(m.spinner.View() + " loading agents…"))
			b.WriteString("\n")
		}
		cursor := 0
		for _, group := range m.groups {
			b.WriteString(m.styles.categoryTitle.Render(strings.ToUpper(group.Category)))
			b.WriteString("\n")
			for _, agent := range group.Agents {
				line := truncate(agent.Name, sidebarWidth-6)
				if m.sessions.Store().HasSessions(agent.ID) {
					line += " " + m.styles.sessionDot.Render("●")
				}
				style := m.styles.item
				prefix := "  "
				if cursor == m.agentCursor {
					style = m.styles.itemCursor
					prefix = "> "
				}
				if m.haveAgent && agent.ID == m.selectedAgent.ID {
					style = m.styles.itemSelected
				}
				b.WriteString(style.Render(prefix + line))
				b.WriteString("\n")
				b.WriteString(m.styles.itemMeta.Render("    " + truncate(agent.Description, sidebarWidth-6)))
				b.WriteString("\n")
				cursor++
			}
			b.WriteString("\n")
		}
	} else {
		title := "Sessions"
		if m.haveAgent {
			title = truncate(m.selectedAgent.Name, sidebarWidth-4)
		}
		b.WriteString(m.styles.sidebarTitle.Render(title))
		b.WriteString("\n\n")
		now := time.Now()
		for i, s := range m.currentSessions() {
			style := m.styles.item
			prefix := "  "
			if i == m.sessionCursor {
				style = m.styles.itemCursor
				prefix = "> "
			}
			if s.ID == m.sessions.CurrentID() {
				style = m.styles.itemSelected
			}
			if m.editingID == s.ID {
				b.WriteString(prefix + m.renameInput.View())
			} else {
				b.WriteString(style.Render(prefix + truncate(s.Name, sidebarWidth-4)))
			}
			b.WriteString("\n")
			b.WriteString(m.styles.itemMeta.Render("    " + sessionMeta(now, s)))
			b.WriteString("\n")
			if m.deletingID == s.ID {
				b.WriteString(m.styles.statusError.Render("    delete this session? y/n"))
				b.WriteString("\n")
			}
		}
		b.WriteString("\n")
		b.WriteString(m.styles.help.Render("enter select · n new · r rename · d delete · esc back"))
		b.WriteString("\n")
	}

	return lipgloss.NewStyle().
		Width(sidebarWidth).
		Height(m.height - 2).
		MaxHeight(m.height - 2).
		Render(b.String())
}

func (m *Model) renderChatPane() string {
	if !m.haveAgent || m.sessions.CurrentID() == "" {
		return m.renderWelcome()
	}
	composer := m.styles.inputPrompt.Render(m.input.View())
	return lipgloss.JoinVertical(lipgloss.Left, m.viewport.View(), "", composer)
}

func (m *Model) renderWelcome() string {
	msg := "Welcome to parley.\n\nPick an agent from the sidebar to start a conversation.\nEach agent has its own specialty; sessions and history are kept locally."
	return lipgloss.NewStyle().
		Width(m.chatWidth()).
		Height(m.transcriptHeight()+2).
		Align(lipgloss.Center, lipgloss.Center).
		Render(msg)
}

func (m *Model) renderStatusBar() string {
	state := m.connState.String()
	if m.connState != transport.StateOpen {
		state = m.spinner.View() + " " + state
	}
	parts := []string{state}
	if m.haveAgent {
		parts = append(parts, m.selectedAgent.Name)
	}
	if current, ok := m.sessions.Current(); ok {
		parts = append(parts, truncate(current.Name, 40))
	}
	left := m.styles.statusBar.Render(strings.Join(parts, " · "))
	help := m.styles.help.Render("tab focus · ^n new · ^x clear · ^k api key · ^d theme · ^b sidebar · ^c quit")
	return left + "  " + help
}

func (m *Model) renderClearOverlay() string {
	var current string
	if s, ok := m.sessions.Current(); ok {
		current = s.Name
	}
	text := "Clear history\n\n" +
		"c  clear current session (" + truncate(current, 30) + ")\n" +
		"a  clear all sessions\n" +
		"esc  cancel\n\nThis cannot be undone."
	return m.centerOverlay(m.styles.overlayBox.Render(text))
}

func (m *Model) renderAPIKeyOverlay() string {
	status := m.apiKeyStatus
	if status == "" {
		status = "enter validates and saves · ctrl+r clears · esc closes"
	}
	style := m.styles.help
	if m.apiKeyStatus != "" {
		if m.apiKeyValid {
			style = m.styles.itemSelected
		} else {
			style = m.styles.statusError
		}
	}
	text := "API key\n\n" + m.apiKeyInput.View() + "\n\n" + style.Render(status)
	return m.centerOverlay(m.styles.overlayBox.Render(text))
}

func (m *Model) centerOverlay(box string) string {
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

// refreshTranscript rebuilds the viewport content from the active session's
// history. Final agent messages render as markdown; in-progress streams stay
// raw (with a spinner) until finalization to keep chunk updates cheap.
func (m *Model) refreshTranscript() {
	if !m.ready {
		return
	}
	sessionID := m.sessions.CurrentID()
	if sessionID == "" {
		m.viewport.SetContent("")
		return
	}
	var b strings.Builder
	for _, msg := range m.asm.History(sessionID) {
		b.WriteString(m.renderMessage(msg))
		b.WriteString("\n")
	}
	m.viewport.SetContent(b.String())
	m.viewport.GotoBottom()
}

func (m *Model) renderMessage(msg chat.Message) string {
	ts := m.styles.itemMeta.Render(msg.Timestamp.Format("15:04"))
	switch msg.From {
	case chat.SenderUser:
		return m.styles.userLabel.Render("You ") + ts + "\n" + msg.Content + "\n"
	case chat.SenderSystem:
		return m.styles.systemLabel.Render("system ") + ts + "\n" + m.styles.systemText.Render(msg.Content) + "\n"
	}

	label := m.styles.agentLabel.Render(m.agentDisplayName(msg.From) + " ")
	if !msg.IsFinal {
		return label + ts + " " + m.spinner.View() + "\n" + m.styles.streamText.Render(msg.Content) + "\n"
	}
	if m.renderer != nil {
		if rendered, err := m.renderer.Render(msg.Content); err == nil {
			return label + ts + "\n" + strings.TrimRight(rendered, "\n") + "\n"
		}
	}
	return label + ts + "\n" + msg.Content + "\n"
}

func (m *Model) agentDisplayName(agentID string) string {
	for _, agent := range m.agentList {
		if agent.ID == agentID {
			return agent.Name
		}
	}
	return agentID
}
