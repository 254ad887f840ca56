package transport

import (
	"errors"
	"testing"

	"github.com/kopoVIBE/Stoc.kr-sub000/internal/domain"
)

func TestTopicHelpers(t *testing.T) {
	if got := PriceTopic("005930"); got != "price:005930" {
		t.Errorf("PriceTopic = %q", got)
	}
	if got := OrderBookTopic("005930"); got != "orderbook:005930" {
		t.Errorf("OrderBookTopic = %q", got)
	}

	kind, ticker, ok := SplitTopic("price:005930")
	if !ok || kind != TopicKindPrice || ticker != "005930" {
		t.Errorf("SplitTopic = %q %q %v", kind, ticker, ok)
	}
	if _, _, ok := SplitTopic("price"); ok {
		t.Error("SplitTopic accepted topic without separator")
	}
	if _, _, ok := SplitTopic(":005930"); ok {
		t.Error("SplitTopic accepted empty kind")
	}
}

func TestDecodePriceTick(t *testing.T) {
	payload := []byte(`{"ticker":"005930","price":"71200.5","volume":120,"timestamp":1717000000123}`)
	tick, err := DecodePriceTick("price:005930", payload)
	if err != nil {
		t.Fatalf("DecodePriceTick: %v", err)
	}
	if tick.Ticker != "005930" {
		t.Errorf("ticker = %q", tick.Ticker)
	}
	if tick.PriceMicros != 71_200_500_000 {
		t.Errorf("price = %d", tick.PriceMicros)
	}
	if tick.Volume != 120 {
		t.Errorf("volume = %d", tick.Volume)
	}
	if tick.Ts != 1717000000123 {
		t.Errorf("ts = %d", tick.Ts)
	}
}

func TestDecodePriceTickRejects(t *testing.T) {
	cases := []struct {
		name    string
		payload string
	}{
		{"malformed json", `{"ticker":`},
		{"missing ticker", `{"price":"100","volume":1,"timestamp":1}`},
		{"missing timestamp", `{"ticker":"005930","price":"100","volume":1}`},
		{"negative volume", `{"ticker":"005930","price":"100","volume":-1,"timestamp":1}`},
		{"zero price", `{"ticker":"005930","price":"0","volume":1,"timestamp":1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodePriceTick("price:005930", []byte(tc.payload))
			var de *DecodeError
			if !errors.As(err, &de) {
				t.Fatalf("want DecodeError, got %v", err)
			}
			if de.Topic != "price:005930" {
				t.Errorf("topic = %q", de.Topic)
			}
		})
	}
}

func TestDecodeOrderBook(t *testing.T) {
	payload := []byte(`{
		"ticker": "005930",
		"askLevels": [{"price":"71300","volume":10},{"price":"71400","volume":20}],
		"bidLevels": [{"price":"71200","volume":15},{"price":"71100","volume":5}],
		"totalAskVolume": 30,
		"totalBidVolume": 20
	}`)
	snap, err := DecodeOrderBook("orderbook:005930", payload)
	if err != nil {
		t.Fatalf("DecodeOrderBook: %v", err)
	}
	ask, ok := snap.BestAsk()
	if !ok || ask.PriceMicros != 71_300_000_000 {
		t.Errorf("best ask = %+v %v", ask, ok)
	}
	bid, ok := snap.BestBid()
	if !ok || bid.PriceMicros != 71_200_000_000 {
		t.Errorf("best bid = %+v %v", bid, ok)
	}
}

func TestDecodeOrderBookRejectsUnordered(t *testing.T) {
	payload := []byte(`{
		"ticker": "005930",
		"askLevels": [{"price":"71400","volume":10},{"price":"71300","volume":20}],
		"bidLevels": [],
		"totalAskVolume": 30,
		"totalBidVolume": 0
	}`)
	_, err := DecodeOrderBook("orderbook:005930", payload)
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("want DecodeError, got %v", err)
	}
	if !errors.Is(err, domain.ErrBookUnordered) {
		t.Errorf("want ErrBookUnordered inside, got %v", err)
	}
}
