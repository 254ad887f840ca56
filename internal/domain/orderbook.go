package domain

import (
	"errors"

	"github.com/kopoVIBE/Stoc.kr-sub000/pkg/quant"
	"github.com/kopoVIBE/Stoc.kr-sub000/pkg/safe"
)

// BookLevel is one price level of the order book with its aggregated
// volume.
type BookLevel struct {
	PriceMicros quant.PriceMicros `json:"price"`
	Volume      quant.QtyShares   `json:"volume"`
}

// OrderBookSnapshot is a whole-replace view of the outstanding ask and
// bid levels for one ticker. Snapshots are never merged incrementally;
// the last one received wins.
type OrderBookSnapshot struct {
	Ticker         string          `json:"ticker"`
	Asks           []BookLevel     `json:"askLevels"` // ascending by price
	Bids           []BookLevel     `json:"bidLevels"` // descending by price
	TotalAskVolume quant.QtyShares `json:"totalAskVolume"`
	TotalBidVolume quant.QtyShares `json:"totalBidVolume"`
}

var (
	ErrBookNoTicker  = errors.New("orderbook: missing ticker")
	ErrBookUnordered = errors.New("orderbook: levels out of order")
	ErrBookBadVolume = errors.New("orderbook: negative volume")
	ErrBookBadTotals = errors.New("orderbook: totals do not match levels")
)

// Validate checks the structural invariants of a snapshot: asks ascend,
// bids descend, volumes are non-negative and the totals agree with the
// level sums. Malformed snapshots are rejected at the transport boundary
// and never reach the cache.
func (s OrderBookSnapshot) Validate() error {
	if s.Ticker == "" {
		return ErrBookNoTicker
	}

	var askSum, bidSum int64
	for i, lvl := range s.Asks {
		if lvl.Volume < 0 {
			return ErrBookBadVolume
		}
		if i > 0 && lvl.PriceMicros < s.Asks[i-1].PriceMicros {
			return ErrBookUnordered
		}
		askSum = safe.SafeAdd(askSum, int64(lvl.Volume))
	}
	for i, lvl := range s.Bids {
		if lvl.Volume < 0 {
			return ErrBookBadVolume
		}
		if i > 0 && lvl.PriceMicros > s.Bids[i-1].PriceMicros {
			return ErrBookUnordered
		}
		bidSum = safe.SafeAdd(bidSum, int64(lvl.Volume))
	}

	if askSum != int64(s.TotalAskVolume) || bidSum != int64(s.TotalBidVolume) {
		return ErrBookBadTotals
	}
	return nil
}

// BestAsk returns the lowest ask level, if any.
func (s OrderBookSnapshot) BestAsk() (BookLevel, bool) {
	if len(s.Asks) == 0 {
		return BookLevel{}, false
	}
	return s.Asks[0], true
}

// BestBid returns the highest bid level, if any.
func (s OrderBookSnapshot) BestBid() (BookLevel, bool) {
	if len(s.Bids) == 0 {
		return BookLevel{}, false
	}
	return s.Bids[0], true
}
