package transport

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// State is the connection lifecycle of a Session.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	case StateErrored:
		return "ERRORED"
	default:
		return "UNKNOWN"
	}
}

// Handler receives the raw payload of every event published on one topic.
type Handler func(topic string, payload []byte)

// StateListener is notified on every state transition. err is non-nil
// only for StateErrored and carries the human-readable cause.
type StateListener func(state State, err error)

// SessionConfig carries the dial parameters. Reconnection uses a flat
// interval, not exponential backoff: the feed endpoint is a single
// well-known host and the client should come back quickly after a blip.
type SessionConfig struct {
	URL               string
	ReconnectDelay    time.Duration
	HeartbeatInterval time.Duration
	HandshakeTimeout  time.Duration
}

// Session maintains one websocket connection to the feed endpoint and
// reconnects forever until Disconnect is called. The remote end keeps no
// subscription memory across connections, so on every connection loss the
// topic handlers are dropped and listeners are told to resubscribe.
type Session struct {
	cfg    SessionConfig
	logger *slog.Logger

	mu        sync.RWMutex
	conn      *websocket.Conn
	state     State
	lastErr   error
	handlers  map[string]Handler
	listeners []StateListener

	writeMu sync.Mutex

	cancel  context.CancelFunc
	done    chan struct{}
	started bool
}

// NewSession builds a Session; it does not dial until Connect.
func NewSession(cfg SessionConfig, logger *slog.Logger) *Session {
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = 5 * time.Second
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = 10 * time.Second
	}
	return &Session{
		cfg:      cfg,
		logger:   logger.With("component", "transport"),
		state:    StateDisconnected,
		handlers: make(map[string]Handler),
	}
}

// State returns the current connection state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// LastError returns the most recent connection error, or nil.
func (s *Session) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// OnStateChange registers a listener for state transitions. Listeners are
// invoked synchronously from the session's run goroutine and must not
// block; post to a channel for heavy work.
func (s *Session) OnStateChange(fn StateListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Connect starts the session's run loop. Calling Connect on a session that
// is already running is a no-op.
func (s *Session) Connect(ctx context.Context) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.mu.Unlock()

	go s.run(runCtx)
}

// Disconnect stops reconnecting, closes the connection and waits for the
// run loop to exit. The session ends in StateDisconnected.
func (s *Session) Disconnect() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	cancel := s.cancel
	done := s.done
	conn := s.conn
	s.mu.Unlock()

	cancel()
	if conn != nil {
		_ = conn.Close()
	}
	<-done
	s.setState(StateDisconnected, nil)
}

func (s *Session) run(ctx context.Context) {
	defer close(s.done)

	for {
		if ctx.Err() != nil {
			return
		}
		s.setState(StateConnecting, nil)

		conn, err := s.dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.setState(StateErrored, err)
			s.logger.Error("dial failed, retrying",
				"url", s.cfg.URL,
				"retry_in", s.cfg.ReconnectDelay,
				"error", err)
			if !sleepCtx(ctx, s.cfg.ReconnectDelay) {
				return
			}
			continue
		}

		s.mu.Lock()
		s.conn = conn
		s.mu.Unlock()
		s.setState(StateConnected, nil)
		s.logger.Info("connected", "url", s.cfg.URL)

		pingStop := make(chan struct{})
		if s.cfg.HeartbeatInterval > 0 {
			go s.pingLoop(conn, pingStop)
		}

		readErr := s.readLoop(ctx, conn)
		close(pingStop)
		_ = conn.Close()

		// The endpoint forgets all subscriptions with the socket.
		s.mu.Lock()
		s.conn = nil
		s.handlers = make(map[string]Handler)
		s.mu.Unlock()

		if ctx.Err() != nil {
			return
		}
		s.setState(StateErrored, readErr)
		s.logger.Warn("connection lost, retrying",
			"retry_in", s.cfg.ReconnectDelay,
			"error", readErr)
		if !sleepCtx(ctx, s.cfg.ReconnectDelay) {
			return
		}
	}
}

func (s *Session) dial(ctx context.Context) (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: s.cfg.HandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, s.cfg.URL, nil)
	return conn, err
}

func (s *Session) readLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			s.logger.Warn("dropping malformed frame", "error", err)
			continue
		}
		if frame.Type != frameEvent {
			continue
		}

		s.mu.RLock()
		handler := s.handlers[frame.Topic]
		s.mu.RUnlock()
		if handler == nil {
			// Late message for a topic we already unsubscribed from.
			continue
		}
		handler(frame.Topic, frame.Payload)
	}
}

func (s *Session) pingLoop(conn *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(s.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.writeMu.Lock()
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
			s.writeMu.Unlock()
			if err != nil {
				s.logger.Warn("heartbeat write failed", "error", err)
				return
			}
		}
	}
}

// Subscribe registers handler for topic and asks the endpoint to start
// publishing it. When not connected the call is dropped with a log line;
// the caller is expected to resubscribe after the next CONNECTED
// transition.
func (s *Session) Subscribe(topic string, handler Handler) {
	s.mu.Lock()
	if s.state != StateConnected || s.conn == nil {
		s.mu.Unlock()
		s.logger.Warn("subscribe dropped, not connected", "topic", topic)
		return
	}
	s.handlers[topic] = handler
	conn := s.conn
	s.mu.Unlock()

	if err := s.writeFrame(conn, Frame{Type: frameSubscribe, Topic: topic}); err != nil {
		s.logger.Warn("subscribe write failed", "topic", topic, "error", err)
	}
}

// Unsubscribe removes the topic handler and asks the endpoint to stop
// publishing. Unsubscribing a topic that was never subscribed is a no-op.
func (s *Session) Unsubscribe(topic string) {
	s.mu.Lock()
	delete(s.handlers, topic)
	conn := s.conn
	connected := s.state == StateConnected
	s.mu.Unlock()

	if !connected || conn == nil {
		return
	}
	if err := s.writeFrame(conn, Frame{Type: frameUnsubscribe, Topic: topic}); err != nil {
		s.logger.Warn("unsubscribe write failed", "topic", topic, "error", err)
	}
}

// Publish sends payload to a destination topic. When not connected the
// message is dropped silently apart from a log line.
func (s *Session) Publish(topic string, payload any) {
	s.mu.RLock()
	conn := s.conn
	connected := s.state == StateConnected
	s.mu.RUnlock()

	if !connected || conn == nil {
		s.logger.Warn("publish dropped, not connected", "topic", topic)
		return
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("publish marshal failed", "topic", topic, "error", err)
		return
	}
	if err := s.writeFrame(conn, Frame{Type: framePublish, Topic: topic, Payload: raw}); err != nil {
		s.logger.Warn("publish write failed", "topic", topic, "error", err)
	}
}

func (s *Session) writeFrame(conn *websocket.Conn, frame Frame) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return conn.WriteJSON(frame)
}

func (s *Session) setState(next State, err error) {
	s.mu.Lock()
	if s.state == next && err == nil {
		s.mu.Unlock()
		return
	}
	s.state = next
	if next == StateErrored {
		s.lastErr = err
	} else if next == StateConnected {
		s.lastErr = nil
	}
	listeners := make([]StateListener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(next, err)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
