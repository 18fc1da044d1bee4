package ui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/parley/pkg/agents"
	"github.com/go-go-golems/parley/pkg/chat"
	"github.com/go-go-golems/parley/pkg/config"
	"github.com/go-go-golems/parley/pkg/persistence/statestore"
	"github.com/go-go-golems/parley/pkg/session"
	"github.com/go-go-golems/parley/pkg/transport"
)

type sidebarView int

const (
	viewAgents sidebarView = iota
	viewSessions
)

type focusArea int

const (
	focusSidebar focusArea = iota
	focusComposer
)

type overlayKind int

const (
	overlayNone overlayKind = iota
	overlayClear
	overlayAPIKey
)

const sidebarWidth = 34

// Options carries the wired dependencies into the model. The caller owns
// the transport manager lifecycle; the model only reads from the channels.
type Options struct {
	Config    config.Config
	Client    *agents.Client
	Snapshot  *statestore.SnapshotStore
	Sessions  *session.Manager
	Assembler *chat.Assembler
	Conn      *transport.Manager
	Events    <-chan transport.Event
	States    <-chan transport.State
	DarkMode  bool
	APIKey    string
}

// Model is the bubbletea presentation layer: agent picker, session list and
// streaming transcript over the core packages. All mutation of sessions and
// histories happens inside Update, on the single program goroutine.
type Model struct {
	cfg      config.Config
	client   *agents.Client
	snapshot *statestore.SnapshotStore
	sessions *session.Manager
	asm      *chat.Assembler
	conn     *transport.Manager
	events   <-chan transport.Event
	states   <-chan transport.State

	agentList []agents.Agent
	groups    []agents.Group
	agentErr  string

	view    sidebarView
	focus   focusArea
	overlay overlayKind

	selectedAgent agents.Agent
	haveAgent     bool
	agentCursor   int
	sessionCursor int

	editingID   string
	renameInput textinput.Model
	deletingID  string

	apiKey       string
	apiKeyInput  textinput.Model
	apiKeyStatus string
	apiKeyValid  bool

	darkMode    bool
	sidebarOpen bool
	connState   transport.State

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer
	styles   theme

	width  int
	height int
	ready  bool
}

func New(opts Options) *Model {
	input := textinput.New()
	input.Placeholder = "Send a message…"
	input.CharLimit = 0
	input.Prompt = "> "

	renameInput := textinput.New()
	renameInput.CharLimit = 120
	renameInput.Prompt = ""

	apiKeyInput := textinput.New()
	apiKeyInput.Placeholder = "sk-…"
	apiKeyInput.EchoMode = textinput.EchoPassword
	apiKeyInput.Prompt = "key: "
	apiKeyInput.SetValue(opts.APIKey)

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot

	m := &Model{
		cfg:         opts.Config,
		client:      opts.Client,
		snapshot:    opts.Snapshot,
		sessions:    opts.Sessions,
		asm:         opts.Assembler,
		conn:        opts.Conn,
		events:      opts.Events,
		states:      opts.States,
		darkMode:    opts.DarkMode,
		sidebarOpen: true,
		apiKey:      opts.APIKey,
		input:       input,
		renameInput: renameInput,
		apiKeyInput: apiKeyInput,
		spinner:     sp,
		connState:   transport.StateDisconnected,
	}
	m.applyTheme()
	return m
}

func (m *Model) applyTheme() {
	if m.darkMode {
		m.styles = darkTheme()
	} else {
		m.styles = lightTheme()
	}
	renderer, err := newMarkdownRenderer(m.darkMode, m.chatWidth())
	if err != nil {
		log.Warn().Err(err).Str("component", "ui").Msg("markdown renderer unavailable, falling back to raw text")
		renderer = nil
	}
	m.renderer = renderer
}

func (m *Model) chatWidth() int {
	w := m.width
	if m.sidebarOpen {
		w -= sidebarWidth
	}
	if w < 20 {
		w = 80
	}
	return w - 4
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		fetchAgentsCmd(m.client),
		waitEventCmd(m.events),
		waitStateCmd(m.states),
		m.spinner.Tick,
		textinput.Blink,
	)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport = viewport.New(m.chatWidth(), m.transcriptHeight())
		m.ready = true
		m.applyTheme()
		m.refreshTranscript()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case agentsLoadedMsg:
		m.agentList = msg.agents
		m.groups = agents.GroupByCategory(msg.agents)
		m.agentErr = ""
		m.sessions.Store().SetAgents(msg.agents)
		if m.agentCursor >= len(m.agentList) {
			m.agentCursor = 0
		}
		return m, nil

	case agentsFailedMsg:
		log.Warn().Err(msg.err).Str("component", "ui").Msg("agent list fetch failed")
		m.agentErr = "could not load agents: " + msg.err.Error()
		return m, nil

	case transportEventMsg:
		m.applyTransportEvent(msg.event)
		return m, waitEventCmd(m.events)

	case connStateMsg:
		m.connState = msg.state
		return m, waitStateCmd(m.states)

	case keyValidatedMsg:
		if msg.err != nil {
			m.apiKeyStatus = "validation failed: " + msg.err.Error()
			m.apiKeyValid = false
			return m, nil
		}
		m.apiKeyValid = msg.result.Valid
		if msg.result.Valid {
			m.apiKey = strings.TrimSpace(m.apiKeyInput.Value())
			m.persistAPIKey()
			m.apiKeyStatus = "key is valid and saved"
		} else if msg.result.Message != "" {
			m.apiKeyStatus = msg.result.Message
		} else {
			m.apiKeyStatus = "key rejected"
		}
		return m, nil
	}

	return m, nil
}

// applyTransportEvent folds one inbound event into the active session.
// Events with no selected session are dropped with a diagnostic; chunk and
// complete touch the session's activity time, error deliberately does not.
// Snapshot writes happen on finalization and error only, so a stream of
// chunks costs one serialization instead of one per token.
func (m *Model) applyTransportEvent(event transport.Event) {
	sessionID := m.sessions.CurrentID()
	if sessionID == "" {
		log.Warn().Str("component", "ui").Str("kind", event.Kind.String()).Msg("dropping inbound event: no session selected")
		return
	}
	now := time.Now()
	switch event.Kind {
	case transport.EventChunk:
		m.asm.ApplyChunk(sessionID, event.From, event.Content, now)
		m.sessions.Store().Touch(sessionID, now)
	case transport.EventComplete:
		m.asm.ApplyComplete(sessionID, event.From, event.Content, now)
		m.sessions.Store().Touch(sessionID, now)
		m.persistSessions()
		m.persistMessages()
	case transport.EventError:
		m.asm.ApplyError(sessionID, event.Content, now)
		m.persistMessages()
	}
	m.refreshTranscript()
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.overlay {
	case overlayClear:
		return m.handleClearOverlayKey(msg)
	case overlayAPIKey:
		return m.handleAPIKeyOverlayKey(msg)
	}

	if m.editingID != "" {
		return m.handleRenameKey(msg)
	}

	switch msg.String() {
	case "ctrl+b":
		m.sidebarOpen = !m.sidebarOpen
		m.resizeChat()
		return m, nil
	case "ctrl+d":
		m.darkMode = !m.darkMode
		m.applyTheme()
		m.persistDarkMode()
		m.refreshTranscript()
		return m, nil
	case "ctrl+n":
		m.newSession()
		return m, nil
	case "ctrl+x":
		if m.sessions.CurrentID() != "" {
			m.overlay = overlayClear
		}
		return m, nil
	case "ctrl+k":
		m.overlay = overlayAPIKey
		m.apiKeyStatus = ""
		m.apiKeyInput.SetValue(m.apiKey)
		m.apiKeyInput.Focus()
		return m, nil
	case "tab":
		if m.focus == focusSidebar {
			m.focus = focusComposer
			m.input.Focus()
		} else {
			m.focus = focusSidebar
			m.input.Blur()
		}
		return m, nil
	case "pgup":
		m.viewport.HalfViewUp()
		return m, nil
	case "pgdown":
		m.viewport.HalfViewDown()
		return m, nil
	}

	if m.focus == focusSidebar {
		return m.handleSidebarKey(msg)
	}
	return m.handleComposerKey(msg)
}

func (m *Model) handleSidebarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.deletingID != "" {
		switch msg.String() {
		case "y", "enter":
			m.deleteSession(m.deletingID)
			m.deletingID = ""
		case "n", "esc":
			m.deletingID = ""
		}
		return m, nil
	}

	switch msg.String() {
	case "up", "k":
		m.moveCursor(-1)
	case "down", "j":
		m.moveCursor(1)
	case "enter":
		if m.view == viewAgents {
			m.selectAgentUnderCursor()
		} else {
			m.selectSessionUnderCursor()
		}
	case "esc":
		if m.view == viewSessions {
			m.view = viewAgents
		}
	case "n":
		if m.view == viewSessions {
			m.newSession()
		}
	case "r":
		if m.view == viewSessions {
			m.beginRename()
		}
	case "d":
		if m.view == viewSessions {
			if s, ok := m.sessionUnderCursor(); ok {
				m.deletingID = s.ID
			}
		}
	case "q":
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) handleComposerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.sendCurrentInput()
		return m, nil
	case "esc":
		m.focus = focusSidebar
		m.input.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleRenameKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		name := strings.TrimSpace(m.renameInput.Value())
		if name != "" {
			m.sessions.Store().Rename(m.editingID, name)
			m.persistSessions()
		}
		m.editingID = ""
		return m, nil
	case "esc":
		m.editingID = ""
		return m, nil
	}
	var cmd tea.Cmd
	m.renameInput, cmd = m.renameInput.Update(msg)
	return m, cmd
}

func (m *Model) handleClearOverlayKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "c":
		if id := m.sessions.CurrentID(); id != "" {
			m.asm.ClearSession(id)
			m.persistMessages()
			m.refreshTranscript()
		}
		m.overlay = overlayNone
	case "a":
		m.asm.ClearAll()
		m.persistMessages()
		m.refreshTranscript()
		m.overlay = overlayNone
	case "esc":
		m.overlay = overlayNone
	}
	return m, nil
}

func (m *Model) handleAPIKeyOverlayKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		key := strings.TrimSpace(m.apiKeyInput.Value())
		if key == "" {
			m.apiKeyStatus = "enter a key first"
			return m, nil
		}
		m.apiKeyStatus = "validating…"
		return m, validateKeyCmd(m.client, key)
	case "ctrl+r":
		m.apiKey = ""
		m.apiKeyInput.SetValue("")
		m.apiKeyValid = false
		m.apiKeyStatus = "key cleared"
		if err := m.snapshot.ClearAPIKey(); err != nil {
			log.Warn().Err(err).Str("component", "ui").Msg("clearing api key failed")
		}
		return m, nil
	case "esc":
		m.overlay = overlayNone
		m.apiKeyInput.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.apiKeyInput, cmd = m.apiKeyInput.Update(msg)
	return m, cmd
}

func (m *Model) moveCursor(delta int) {
	if m.view == viewAgents {
		ordered := m.orderedAgents()
		if len(ordered) == 0 {
			return
		}
		m.agentCursor = clamp(m.agentCursor+delta, 0, len(ordered)-1)
		return
	}
	count := len(m.currentSessions())
	if count == 0 {
		return
	}
	m.sessionCursor = clamp(m.sessionCursor+delta, 0, count-1)
}

// orderedAgents flattens the category groups in display order so the cursor
// walks the sidebar exactly as rendered.
func (m *Model) orderedAgents() []agents.Agent {
	var out []agents.Agent
	for _, group := range m.groups {
		out = append(out, group.Agents...)
	}
	return out
}

func (m *Model) selectAgentUnderCursor() {
	ordered := m.orderedAgents()
	if m.agentCursor < 0 || m.agentCursor >= len(ordered) {
		return
	}
	agent := ordered[m.agentCursor]
	if _, ok := m.sessions.SelectAgent(agent.ID); !ok {
		return
	}
	m.selectedAgent = agent
	m.haveAgent = true
	m.view = viewSessions
	m.sessionCursor = 0
	m.persistSessions()
	m.refreshTranscript()
}

func (m *Model) currentSessions() []session.Session {
	if !m.haveAgent {
		return nil
	}
	return m.sessions.Store().ListByAgent(m.selectedAgent.ID)
}

func (m *Model) sessionUnderCursor() (session.Session, bool) {
	list := m.currentSessions()
	if m.sessionCursor < 0 || m.sessionCursor >= len(list) {
		return session.Session{}, false
	}
	return list[m.sessionCursor], true
}

func (m *Model) selectSessionUnderCursor() {
	if s, ok := m.sessionUnderCursor(); ok {
		m.sessions.Select(s.ID)
		m.refreshTranscript()
		m.focus = focusComposer
		m.input.Focus()
	}
}

func (m *Model) newSession() {
	if !m.haveAgent {
		return
	}
	if _, ok := m.sessions.NewSession(m.selectedAgent.ID); !ok {
		return
	}
	m.view = viewSessions
	m.sessionCursor = 0
	m.persistSessions()
	m.refreshTranscript()
}

func (m *Model) beginRename() {
	s, ok := m.sessionUnderCursor()
	if !ok {
		return
	}
	m.editingID = s.ID
	m.renameInput.SetValue(s.Name)
	m.renameInput.CursorEnd()
	m.renameInput.Focus()
}

func (m *Model) deleteSession(id string) {
	m.sessions.Delete(id)
	m.persistSessions()
	m.persistMessages()
	if m.sessionCursor > 0 {
		m.sessionCursor--
	}
	m.refreshTranscript()
}

// sendCurrentInput implements the optimistic send path: the user message is
// appended before the transport attempt, and a failed send leaves exactly
// one system-authored notice in the transcript with no automatic retry.
func (m *Model) sendCurrentInput() {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return
	}
	current, ok := m.sessions.Current()
	if !ok {
		return
	}
	now := time.Now()
	m.asm.AppendUser(current.ID, text, now)
	m.sessions.Store().Touch(current.ID, now)
	if err := m.conn.Send(current.AgentID, text, current.ID); err != nil {
		log.Warn().Err(err).Str("component", "ui").Str("session_id", current.ID).Msg("send failed")
		m.asm.AppendSystem(current.ID, "The server connection is down. Your message was not delivered.", time.Now())
	}
	m.input.Reset()
	m.persistSessions()
	m.persistMessages()
	m.refreshTranscript()
}

func (m *Model) resizeChat() {
	if !m.ready {
		return
	}
	m.viewport.Width = m.chatWidth()
	m.viewport.Height = m.transcriptHeight()
	m.applyTheme()
	m.refreshTranscript()
}

func (m *Model) transcriptHeight() int {
	h := m.height - 6
	if h < 5 {
		h = 5
	}
	return h
}

// Persistence is fire and forget: failures are logged and the client keeps
// running on in-memory state.

func (m *Model) persistSessions() {
	if err := m.snapshot.SaveSessions(m.sessions.Store().All()); err != nil {
		log.Warn().Err(err).Str("component", "ui").Msg("saving sessions failed")
	}
}

func (m *Model) persistMessages() {
	if err := m.snapshot.SaveMessages(m.asm.Histories()); err != nil {
		log.Warn().Err(err).Str("component", "ui").Msg("saving message histories failed")
	}
}

func (m *Model) persistDarkMode() {
	if err := m.snapshot.SaveDarkMode(m.darkMode); err != nil {
		log.Warn().Err(err).Str("component", "ui").Msg("saving dark-mode flag failed")
	}
}

func (m *Model) persistAPIKey() {
	if err := m.snapshot.SaveAPIKey(m.apiKey); err != nil {
		log.Warn().Err(err).Str("component", "ui").Msg("saving api key failed")
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
