package transport

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// State is the connection lifecycle state.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateOpen
	StateReconnecting
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}

// ErrNotConnected is returned by Send while the socket is not open. Callers
// surface it as a transcript-visible system message; there is no queueing or
// automatic resend.
var ErrNotConnected = errors.New("websocket is not connected")

const (
	initialReconnectDelay = 3 * time.Second
	maxReconnectDelay     = 30 * time.Second
	writeTimeout          = 10 * time.Second
)

// Config wires a Manager to its owner. OnEvent runs on the read goroutine;
// the UI is expected to funnel events into its own loop. OnState is called
// synchronously in transition order and must not block.
type Config struct {
	URL     string
	OnEvent func(Event)
	OnState func(State)
	Dialer  *websocket.Dialer
}

// Manager owns one long-lived websocket connection for the whole client
// lifetime, routing every outbound message by its session id. Abnormal
// closes reconnect forever with capped exponential backoff while the manager
// is active; Close tears down with a normal close code and suppresses the
// reconnect path. A generation counter makes sure a superseded connection's
// late events are dropped instead of misapplied.
type Manager struct {
	cfg    Config
	dialer *websocket.Dialer

	retryInitial time.Duration
	retryMax     time.Duration

	mu     sync.Mutex
	conn   *websocket.Conn
	state  State
	gen    uint64
	active bool
	cancel context.CancelFunc
}

func NewManager(cfg Config) (*Manager, error) {
	if cfg.URL == "" {
		return nil, errors.New("transport manager needs a websocket URL")
	}
	if cfg.OnEvent == nil {
		return nil, errors.New("transport manager needs an event handler")
	}
	dialer := cfg.Dialer
	if dialer == nil {
		dialer = &websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	}
	return &Manager{
		cfg:          cfg,
		dialer:       dialer,
		retryInitial: initialReconnectDelay,
		retryMax:     maxReconnectDelay,
		state:        StateDisconnected,
	}, nil
}

// Start launches the connect/read/reconnect loop. It returns immediately.
func (m *Manager) Start(ctx context.Context) {
	if m == nil {
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.mu.Lock()
	m.active = true
	m.cancel = cancel
	m.mu.Unlock()
	go m.run(runCtx)
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	if m == nil {
		return StateDisconnected
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Send transmits one user message frame. It fails with ErrNotConnected
// unless the connection is open.
func (m *Manager) Send(agentID, content, sessionID string) error {
	if m == nil {
		return ErrNotConnected
	}
	data, err := EncodeSend(agentID, content, sessionID)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateOpen || m.conn == nil {
		return ErrNotConnected
	}
	_ = m.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := m.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return errors.Wrap(err, "write outbound frame")
	}
	return nil
}

// Close tears the connection down intentionally: normal close code, no
// reconnect afterwards.
func (m *Manager) Close() {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.active = false
	conn := m.conn
	m.conn = nil
	cancel := m.cancel
	m.cancel = nil
	changed := m.setStateLocked(StateDisconnected)
	m.mu.Unlock()
	if changed {
		m.notifyState(StateDisconnected)
	}

	if conn != nil {
		deadline := time.Now().Add(time.Second)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "client shutting down"), deadline)
		_ = conn.Close()
	}
	if cancel != nil {
		cancel()
	}
}

func (m *Manager) run(ctx context.Context) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = m.retryInitial
	bo.MaxInterval = m.retryMax
	bo.MaxElapsedTime = 0

	for {
		if !m.transition(StateConnecting) {
			return
		}
		conn, resp, err := m.dialer.DialContext(ctx, m.cfg.URL, nil)
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
		if err != nil {
			log.Warn().Err(err).Str("component", "transport").Str("url", m.cfg.URL).Msg("websocket dial failed")
			if !m.waitForRetry(ctx, bo) {
				return
			}
			continue
		}

		gen := m.attach(conn)
		bo.Reset()
		log.Info().Str("component", "transport").Str("url", m.cfg.URL).Msg("websocket connected")
		m.readPump(conn, gen)

		m.detach(conn, gen)
		if !m.waitForRetry(ctx, bo) {
			return
		}
	}
}

// readPump processes inbound frames strictly in arrival order until the
// connection dies. Malformed payloads are dropped with a diagnostic.
func (m *Manager) readPump(conn *websocket.Conn, gen uint64) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				log.Debug().Str("component", "transport").Msg("websocket closed cleanly")
			} else {
				log.Warn().Err(err).Str("component", "transport").Msg("websocket read failed")
			}
			return
		}
		if !m.isCurrent(gen) {
			log.Debug().Str("component", "transport").Uint64("gen", gen).Msg("dropping event from superseded connection")
			return
		}
		event, err := ParseEvent(data)
		if err != nil {
			log.Warn().Err(err).Str("component", "transport").Str("payload", string(data)).Msg("dropping malformed inbound frame")
			continue
		}
		m.cfg.OnEvent(event)
	}
}

// transition moves to the given state if the manager is still active.
func (m *Manager) transition(state State) bool {
	m.mu.Lock()
	if !m.active {
		m.mu.Unlock()
		return false
	}
	changed := m.setStateLocked(state)
	m.mu.Unlock()
	if changed {
		m.notifyState(state)
	}
	return true
}

func (m *Manager) attach(conn *websocket.Conn) uint64 {
	m.mu.Lock()
	m.gen++
	gen := m.gen
	m.conn = conn
	changed := m.setStateLocked(StateOpen)
	m.mu.Unlock()
	if changed {
		m.notifyState(StateOpen)
	}
	return gen
}

func (m *Manager) detach(conn *websocket.Conn, gen uint64) {
	m.mu.Lock()
	if m.gen == gen && m.conn == conn {
		m.conn = nil
	}
	m.mu.Unlock()
	_ = conn.Close()
}

func (m *Manager) isCurrent(gen uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active && m.gen == gen
}

func (m *Manager) waitForRetry(ctx context.Context, bo backoff.BackOff) bool {
	if !m.transition(StateReconnecting) {
		return false
	}
	wait := bo.NextBackOff()
	if wait == backoff.Stop {
		wait = m.retryMax
	}
	log.Info().Str("component", "transport").Dur("delay", wait).Msg("scheduling websocket reconnect")
	select {
	case <-ctx.Done():
		return false
	case <-time.After(wait):
		return true
	}
}

func (m *Manager) setStateLocked(state State) bool {
	if m.state == state {
		return false
	}
	m.state = state
	return true
}

// notifyState delivers one transition to the owner. Delivery is synchronous
// and outside the mutex, so observers see transitions in order.
func (m *Manager) notifyState(state State) {
	if m.cfg.OnState != nil {
		m.cfg.OnState(state)
	}
}
