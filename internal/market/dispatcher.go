package market

import (
	"context"
	"log/slog"

	"github.com/kopoVIBE/Stoc.kr-sub000/internal/domain"
	"github.com/kopoVIBE/Stoc.kr-sub000/internal/event"
	"github.com/kopoVIBE/Stoc.kr-sub000/internal/transport"
	"github.com/kopoVIBE/Stoc.kr-sub000/pkg/quant"
)

// AlertFunc is invoked when a held ticker moves by at least the alert
// threshold relative to the price recorded at the last holdings refresh.
type AlertFunc func(ticker string, baseline, cur quant.PriceMicros)

// Dispatcher is the single goroutine that applies feed events. Transport
// handlers decode payloads and post to the inbox; the dispatcher guards
// membership, updates the cache and fires move alerts. Running all
// mutations on one goroutine keeps the cache's accept-or-drop decisions
// strictly ordered per ticker.
type Dispatcher struct {
	inbox  chan event.Event
	cache  *Cache
	mgr    *Manager
	logger *slog.Logger

	// holdings is consulted for move alerts; nil disables alerting.
	holdings func() domain.Holdings
	onAlert  AlertFunc
	// threshold is the relative move in micros per 1.0 of price, e.g.
	// 10_000 micros = 1%.
	threshold int64
}

type DispatcherConfig struct {
	InboxSize      int
	AlertThreshold int64
	Holdings       func() domain.Holdings
	OnAlert        AlertFunc
}

func NewDispatcher(cache *Cache, mgr *Manager, cfg DispatcherConfig, logger *slog.Logger) *Dispatcher {
	size := cfg.InboxSize
	if size <= 0 {
		size = 1024
	}
	return &Dispatcher{
		inbox:     make(chan event.Event, size),
		cache:     cache,
		mgr:       mgr,
		logger:    logger.With("component", "dispatcher"),
		holdings:  cfg.Holdings,
		onAlert:   cfg.OnAlert,
		threshold: cfg.AlertThreshold,
	}
}

// Post queues ev for the dispatcher. When the inbox is full the event is
// dropped; a latest-value cache tolerates gaps and the next frame
// supersedes the lost one.
func (d *Dispatcher) Post(ev event.Event) {
	select {
	case d.inbox <- ev:
	default:
		if tick, ok := ev.(*event.PriceTickEvent); ok {
			event.ReleasePriceTickEvent(tick)
		}
		d.logger.Warn("inbox full, event dropped")
	}
}

// PriceHandler returns the transport handler for price topics.
func (d *Dispatcher) PriceHandler() transport.Handler {
	return func(topic string, payload []byte) {
		tick, err := transport.DecodePriceTick(topic, payload)
		if err != nil {
			d.logger.Warn("dropping tick", "error", err)
			return
		}
		ev := event.AcquirePriceTickEvent()
		ev.Tick = tick
		d.Post(ev)
	}
}

// BookHandler returns the transport handler for order book topics.
func (d *Dispatcher) BookHandler() transport.Handler {
	return func(topic string, payload []byte) {
		snap, err := transport.DecodeOrderBook(topic, payload)
		if err != nil {
			d.logger.Warn("dropping snapshot", "error", err)
			return
		}
		d.Post(&event.OrderBookEvent{Book: snap})
	}
}

// StateListener returns the transport state listener that funnels
// CONNECTED transitions through the inbox, so resubscription happens on
// the dispatcher goroutine in order with the feed events.
func (d *Dispatcher) StateListener() transport.StateListener {
	return func(state transport.State, err error) {
		switch state {
		case transport.StateConnected:
			// Feed frames tolerate drops; the connected signal does not,
			// since a lost one leaves the desired set unsubscribed until
			// the next reconnect. Block until the inbox has room.
			d.inbox <- &event.ConnectedEvent{}
		case transport.StateErrored, transport.StateDisconnected:
			d.mgr.OnDisconnected()
		}
	}
}

// Run consumes the inbox until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-d.inbox:
			d.apply(ev)
		}
	}
}

func (d *Dispatcher) apply(ev event.Event) {
	switch e := ev.(type) {
	case *event.PriceTickEvent:
		d.applyTick(e.Tick)
		event.ReleasePriceTickEvent(e)
	case *event.OrderBookEvent:
		if d.mgr.Contains(e.Book.Ticker) {
			d.cache.ApplySnapshot(e.Book)
		}
	case *event.ConnectedEvent:
		d.mgr.OnConnected()
	default:
		d.logger.Warn("unknown event", "type", ev.GetType())
	}
}

func (d *Dispatcher) applyTick(tick domain.PriceTick) {
	// A frame can race an unsubscribe; never let it repopulate the cache.
	if !d.mgr.Contains(tick.Ticker) {
		return
	}
	if !d.cache.ApplyTick(tick) {
		return
	}
	d.checkAlert(tick.Ticker, tick.PriceMicros)
}

// checkAlert measures the move against the price carried on the holding
// from the last account refresh. Consecutive ticks are too close together
// for a tick-over-tick comparison to ever reach a percentage threshold.
func (d *Dispatcher) checkAlert(ticker string, cur quant.PriceMicros) {
	if d.onAlert == nil || d.holdings == nil || d.threshold <= 0 {
		return
	}
	h, ok := d.holdings().Get(ticker)
	if !ok || h.Qty <= 0 || h.LastPriceMicros <= 0 {
		return
	}
	baseline := int64(h.LastPriceMicros)
	delta := int64(cur) - baseline
	if delta < 0 {
		delta = -delta
	}
	if delta == 0 {
		return
	}
	// baseline*threshold/1e6 in two terms, so the product stays within
	// int64 even for the highest-priced tickers.
	minMove := (baseline/quant.PriceScale)*d.threshold +
		((baseline%quant.PriceScale)*d.threshold)/quant.PriceScale
	if delta >= minMove {
		d.onAlert(ticker, h.LastPriceMicros, cur)
	}
}
