// Package event defines the messages that flow through the feed
// dispatcher's inbox. Every mutation of shared market state is carried by
// one of these events and applied on a single goroutine.
package event

import (
	"github.com/kopoVIBE/Stoc.kr-sub000/internal/domain"
)

// Type identifies the kind of a dispatcher event.
type Type uint16

const (
	EvPriceTick Type = iota + 1
	EvOrderBook
	EvConnected
)

// Event is the interface for all dispatcher events.
type Event interface {
	GetType() Type
}

// PriceTickEvent carries one decoded price tick. High-rate, so instances
// are pooled; consumers must Release after applying.
type PriceTickEvent struct {
	Tick domain.PriceTick
}

func (e *PriceTickEvent) GetType() Type { return EvPriceTick }

// OrderBookEvent carries one whole-replace order book snapshot.
type OrderBookEvent struct {
	Book domain.OrderBookSnapshot
}

func (e *OrderBookEvent) GetType() Type { return EvOrderBook }

// ConnectedEvent signals that the transport session has (re)entered the
// Connected state. The subscription manager reacts by re-running
// reconciliation with its last desired set.
type ConnectedEvent struct{}

func (e *ConnectedEvent) GetType() Type { return EvConnected }
