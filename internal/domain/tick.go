package domain

import (
	"github.com/kopoVIBE/Stoc.kr-sub000/pkg/quant"
)

// PriceTick is the latest traded price for a single ticker as delivered
// on the realtime feed. Ticks carry the exchange timestamp, and only the
// tick with the highest timestamp is ever retained.
type PriceTick struct {
	Ticker      string            `json:"ticker"`
	PriceMicros quant.PriceMicros `json:"price"`
	Volume      quant.QtyShares   `json:"volume"`
	Ts          quant.TimeStamp   `json:"timestamp"`
}

// Newer reports whether the tick should replace prev under the
// last-writer-wins-by-timestamp rule.
func (t PriceTick) Newer(prev PriceTick) bool {
	return t.Ts >= prev.Ts
}
