// Package market keeps the client's live view of the exchange: a
// latest-value cache of prices and order books, the subscription manager
// that reconciles what we want against what the feed is sending, and the
// dispatcher goroutine that applies feed events in order.
package market

import (
	"sync"

	"github.com/kopoVIBE/Stoc.kr-sub000/internal/domain"
)

// Cache is the latest-value store. Readers see the most recent accepted
// tick and snapshot per ticker; stale deliveries are rejected by
// timestamp so out-of-order frames can never roll a price back.
type Cache struct {
	mu    sync.RWMutex
	ticks map[string]domain.PriceTick
	books map[string]domain.OrderBookSnapshot
}

func NewCache() *Cache {
	return &Cache{
		ticks: make(map[string]domain.PriceTick),
		books: make(map[string]domain.OrderBookSnapshot),
	}
}

// ApplyTick stores tick if it is at least as new as the stored one.
// Equal timestamps overwrite (last writer wins). Returns true when the
// cache changed.
func (c *Cache) ApplyTick(tick domain.PriceTick) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev, ok := c.ticks[tick.Ticker]
	if ok && !tick.Newer(prev) {
		return false
	}
	if ok && tick == prev {
		return false
	}
	c.ticks[tick.Ticker] = tick
	return true
}

// ApplySnapshot replaces the stored order book for the snapshot's ticker.
// Snapshots are whole states, never deltas.
func (c *Cache) ApplySnapshot(snap domain.OrderBookSnapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.books[snap.Ticker] = snap
}

// Tick returns the latest accepted tick for ticker.
func (c *Cache) Tick(ticker string) (domain.PriceTick, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	tick, ok := c.ticks[ticker]
	return tick, ok
}

// OrderBook returns the latest order book snapshot for ticker.
func (c *Cache) OrderBook(ticker string) (domain.OrderBookSnapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	snap, ok := c.books[ticker]
	return snap, ok
}

// Evict drops all cached data for ticker. Called when the ticker leaves
// the watched set so stale quotes cannot serve a later order.
func (c *Cache) Evict(ticker string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.ticks, ticker)
	delete(c.books, ticker)
}

// Len reports how many tickers currently have a cached tick.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.ticks)
}
