package market

import (
	"log/slog"
	"sync"

	"github.com/kopoVIBE/Stoc.kr-sub000/internal/transport"
)

// Conn is the slice of the transport session the manager needs. Tests
// substitute a recorder.
type Conn interface {
	State() transport.State
	Subscribe(topic string, handler transport.Handler)
	Unsubscribe(topic string)
}

// Manager reconciles a desired set of tickers against the set actually
// subscribed on the feed. The endpoint forgets everything on a
// reconnect, so the actual set is discarded whenever the connection goes
// down and the whole desired set is replayed on the next CONNECTED.
type Manager struct {
	conn   Conn
	logger *slog.Logger

	// onPrice and onBook receive the raw payload for every inbound feed
	// event on a subscribed topic.
	onPrice transport.Handler
	onBook  transport.Handler

	mu      sync.Mutex
	desired map[string]struct{}
	actual  map[string]struct{}
	evict   func(ticker string)
}

// NewManager wires a manager to a connection. evict is called for each
// ticker removed from the actual set, before the new subscriptions are
// issued.
func NewManager(conn Conn, onPrice, onBook transport.Handler, evict func(string), logger *slog.Logger) *Manager {
	return &Manager{
		conn:    conn,
		logger:  logger.With("component", "submgr"),
		onPrice: onPrice,
		onBook:  onBook,
		desired: make(map[string]struct{}),
		actual:  make(map[string]struct{}),
		evict:   evict,
	}
}

// BindHandlers sets the feed handlers after construction, for wiring
// orders where the dispatcher is built from this manager.
func (m *Manager) BindHandlers(onPrice, onBook transport.Handler) {
	m.mu.Lock()
	m.onPrice = onPrice
	m.onBook = onBook
	m.mu.Unlock()
}

// Watch adds ticker to the desired set and reconciles. Adding a ticker
// that is already desired is a no-op.
func (m *Manager) Watch(ticker string) {
	m.mu.Lock()
	m.desired[ticker] = struct{}{}
	m.reconcileLocked()
	m.mu.Unlock()
}

// Unwatch removes ticker from the desired set and reconciles.
func (m *Manager) Unwatch(ticker string) {
	m.mu.Lock()
	delete(m.desired, ticker)
	m.reconcileLocked()
	m.mu.Unlock()
}

// SetDesired replaces the desired set wholesale, e.g. when the visible
// watchlist page changes, and reconciles.
func (m *Manager) SetDesired(tickers []string) {
	m.mu.Lock()
	m.desired = make(map[string]struct{}, len(tickers))
	for _, t := range tickers {
		m.desired[t] = struct{}{}
	}
	m.reconcileLocked()
	m.mu.Unlock()
}

// Contains reports whether ticker is currently desired. The dispatcher
// checks this before applying a feed event, so messages racing an
// unsubscribe never land in the cache.
func (m *Manager) Contains(ticker string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.desired[ticker]
	return ok
}

// Desired returns a copy of the desired set.
func (m *Manager) Desired() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.desired))
	for t := range m.desired {
		out = append(out, t)
	}
	return out
}

// OnConnected must be called after every CONNECTED transition. The feed
// has no memory of the previous connection, so the actual set starts
// empty and the full desired set is subscribed again.
func (m *Manager) OnConnected() {
	m.mu.Lock()
	m.actual = make(map[string]struct{})
	m.reconcileLocked()
	m.mu.Unlock()
}

// OnDisconnected clears the actual set without touching desired.
func (m *Manager) OnDisconnected() {
	m.mu.Lock()
	m.actual = make(map[string]struct{})
	m.mu.Unlock()
}

// Reconcile brings the actual set in line with the desired set. Safe to
// call at any time; when the connection is down it does nothing and the
// next OnConnected replays everything.
func (m *Manager) Reconcile() {
	m.mu.Lock()
	m.reconcileLocked()
	m.mu.Unlock()
}

func (m *Manager) reconcileLocked() {
	if m.conn.State() != transport.StateConnected {
		return
	}

	// Removals first: stop the flow before evicting the cache so a
	// frame in flight cannot repopulate it unguarded.
	for ticker := range m.actual {
		if _, want := m.desired[ticker]; want {
			continue
		}
		m.conn.Unsubscribe(transport.PriceTopic(ticker))
		m.conn.Unsubscribe(transport.OrderBookTopic(ticker))
		delete(m.actual, ticker)
		if m.evict != nil {
			m.evict(ticker)
		}
		m.logger.Info("unsubscribed", "ticker", ticker)
	}

	for ticker := range m.desired {
		if _, have := m.actual[ticker]; have {
			continue
		}
		m.conn.Subscribe(transport.PriceTopic(ticker), m.onPrice)
		m.conn.Subscribe(transport.OrderBookTopic(ticker), m.onBook)
		m.actual[ticker] = struct{}{}
		m.logger.Info("subscribed", "ticker", ticker)
	}
}

// Close unsubscribes everything and clears both sets.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for ticker := range m.actual {
		m.conn.Unsubscribe(transport.PriceTopic(ticker))
		m.conn.Unsubscribe(transport.OrderBookTopic(ticker))
	}
	m.actual = make(map[string]struct{})
	m.desired = make(map[string]struct{})
}
