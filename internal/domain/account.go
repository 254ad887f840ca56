package domain

import (
	"github.com/kopoVIBE/Stoc.kr-sub000/pkg/quant"
)

// AccountSnapshot is the server-confirmed cash balance. The client never
// mutates it optimistically; it is refreshed from the account service
// after every accepted order.
type AccountSnapshot struct {
	BalanceMicros quant.PriceMicros
}

// Holding is one position in the user's portfolio. LastPriceMicros is
// the market price the holdings service reported at the last refresh; it
// is the baseline for move alerts.
type Holding struct {
	Ticker          string
	Qty             quant.QtyShares
	AvgPriceMicros  quant.PriceMicros
	LastPriceMicros quant.PriceMicros
}

// Holdings is the full portfolio as returned by the holdings service.
type Holdings []Holding

// Get returns the position for a ticker.
func (h Holdings) Get(ticker string) (Holding, bool) {
	for _, pos := range h {
		if pos.Ticker == ticker {
			return pos, true
		}
	}
	return Holding{}, false
}

// QtyOf returns the held quantity for a ticker, zero if not held.
func (h Holdings) QtyOf(ticker string) quant.QtyShares {
	for _, pos := range h {
		if pos.Ticker == ticker {
			return pos.Qty
		}
	}
	return 0
}

// Tickers returns the set of held tickers, preserving order.
func (h Holdings) Tickers() []string {
	out := make([]string, 0, len(h))
	for _, pos := range h {
		out = append(out, pos.Ticker)
	}
	return out
}
