package domain

import (
	"errors"
	"testing"
)

func validBook() OrderBookSnapshot {
	return OrderBookSnapshot{
		Ticker: "005930",
		Asks: []BookLevel{
			{PriceMicros: 71_600_000_000, Volume: 120},
			{PriceMicros: 71_700_000_000, Volume: 80},
		},
		Bids: []BookLevel{
			{PriceMicros: 71_500_000_000, Volume: 300},
			{PriceMicros: 71_400_000_000, Volume: 150},
		},
		TotalAskVolume: 200,
		TotalBidVolume: 450,
	}
}

func TestOrderBookValidate(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		if err := validBook().Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("Missing Ticker", func(t *testing.T) {
		b := validBook()
		b.Ticker = ""
		if !errors.Is(b.Validate(), ErrBookNoTicker) {
			t.Error("expected ErrBookNoTicker")
		}
	})

	t.Run("Asks Out Of Order", func(t *testing.T) {
		b := validBook()
		b.Asks[0], b.Asks[1] = b.Asks[1], b.Asks[0]
		if !errors.Is(b.Validate(), ErrBookUnordered) {
			t.Error("expected ErrBookUnordered")
		}
	})

	t.Run("Bids Out Of Order", func(t *testing.T) {
		b := validBook()
		b.Bids[0], b.Bids[1] = b.Bids[1], b.Bids[0]
		if !errors.Is(b.Validate(), ErrBookUnordered) {
			t.Error("expected ErrBookUnordered")
		}
	})

	t.Run("Totals Mismatch", func(t *testing.T) {
		b := validBook()
		b.TotalAskVolume = 999
		if !errors.Is(b.Validate(), ErrBookBadTotals) {
			t.Error("expected ErrBookBadTotals")
		}
	})

	t.Run("Negative Volume", func(t *testing.T) {
		b := validBook()
		b.Bids[1].Volume = -1
		if !errors.Is(b.Validate(), ErrBookBadVolume) {
			t.Error("expected ErrBookBadVolume")
		}
	})
}

func TestOrderBookBestLevels(t *testing.T) {
	b := validBook()

	ask, ok := b.BestAsk()
	if !ok || ask.PriceMicros != 71_600_000_000 {
		t.Errorf("best ask: got %v ok=%v", ask, ok)
	}

	bid, ok := b.BestBid()
	if !ok || bid.PriceMicros != 71_500_000_000 {
		t.Errorf("best bid: got %v ok=%v", bid, ok)
	}

	empty := OrderBookSnapshot{Ticker: "000660"}
	if _, ok := empty.BestAsk(); ok {
		t.Error("empty book should have no best ask")
	}
}

func TestHoldingsQtyOf(t *testing.T) {
	h := Holdings{
		{Ticker: "005930", Qty: 10},
		{Ticker: "000660", Qty: 3},
	}

	if got := h.QtyOf("000660"); got != 3 {
		t.Errorf("expected 3, got %d", got)
	}
	if got := h.QtyOf("035720"); got != 0 {
		t.Errorf("expected 0 for unheld ticker, got %d", got)
	}
}

func TestPriceTickNewer(t *testing.T) {
	older := PriceTick{Ticker: "005930", Ts: 1000}
	newer := PriceTick{Ticker: "005930", Ts: 2000}

	if !newer.Newer(older) {
		t.Error("t2 should replace t1")
	}
	if older.Newer(newer) {
		t.Error("stale tick must not replace a newer one")
	}
	// Equal timestamps: last writer wins.
	if !older.Newer(older) {
		t.Error("equal timestamp should be accepted")
	}
}
