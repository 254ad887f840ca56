// Package transport owns the persistent websocket session to the
// market-data/order endpoint: one duplex connection, topic-keyed
// publish/subscribe, and a connection state machine with automatic
// flat-interval reconnect.
package transport

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kopoVIBE/Stoc.kr-sub000/internal/domain"
	"github.com/kopoVIBE/Stoc.kr-sub000/pkg/quant"
)

// Frame is the wire envelope. Outbound frames carry subscribe /
// unsubscribe / publish requests; inbound frames carry feed events.
type Frame struct {
	Type    string          `json:"type"`
	Topic   string          `json:"topic"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

const (
	frameSubscribe   = "subscribe"
	frameUnsubscribe = "unsubscribe"
	framePublish     = "publish"
	frameEvent       = "event"
)

// Topic kinds. Each ticker has two logical topics on the feed.
const (
	TopicKindPrice     = "price"
	TopicKindOrderBook = "orderbook"
)

// PriceTopic returns the price topic for a ticker.
func PriceTopic(ticker string) string { return TopicKindPrice + ":" + ticker }

// OrderBookTopic returns the order book topic for a ticker.
func OrderBookTopic(ticker string) string { return TopicKindOrderBook + ":" + ticker }

// SplitTopic splits "price:005930" into kind and ticker.
func SplitTopic(topic string) (kind, ticker string, ok bool) {
	kind, ticker, ok = strings.Cut(topic, ":")
	if !ok || kind == "" || ticker == "" {
		return "", "", false
	}
	return kind, ticker, true
}

// DecodeError is returned when a feed payload fails schema validation.
// Malformed messages fail fast here instead of leaking unchecked values
// into the cache.
type DecodeError struct {
	Topic  string
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transport: decode %s: %s: %v", e.Topic, e.Reason, e.Err)
	}
	return fmt.Sprintf("transport: decode %s: %s", e.Topic, e.Reason)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// tickPayload mirrors the feed's price message. json.Number keeps long
// decimal prices exact until the fixed-point conversion.
type tickPayload struct {
	Ticker    string      `json:"ticker"`
	Price     json.Number `json:"price"`
	Volume    int64       `json:"volume"`
	Timestamp int64       `json:"timestamp"`
}

// DecodePriceTick validates and converts a price payload.
func DecodePriceTick(topic string, payload []byte) (domain.PriceTick, error) {
	var raw tickPayload
	if err := json.Unmarshal(payload, &raw); err != nil {
		return domain.PriceTick{}, &DecodeError{Topic: topic, Reason: "malformed json", Err: err}
	}
	if raw.Ticker == "" {
		return domain.PriceTick{}, &DecodeError{Topic: topic, Reason: "missing ticker"}
	}
	if raw.Timestamp <= 0 {
		return domain.PriceTick{}, &DecodeError{Topic: topic, Reason: "missing timestamp"}
	}
	if raw.Volume < 0 {
		return domain.PriceTick{}, &DecodeError{Topic: topic, Reason: "negative volume"}
	}

	price := quant.ToPriceMicrosStr(raw.Price.String())
	if price <= 0 {
		return domain.PriceTick{}, &DecodeError{Topic: topic, Reason: "non-positive price"}
	}

	return domain.PriceTick{
		Ticker:      raw.Ticker,
		PriceMicros: price,
		Volume:      quant.QtyShares(raw.Volume),
		Ts:          quant.TimeStamp(raw.Timestamp),
	}, nil
}

type bookLevelPayload struct {
	Price  json.Number `json:"price"`
	Volume int64       `json:"volume"`
}

type bookPayload struct {
	Ticker         string             `json:"ticker"`
	AskLevels      []bookLevelPayload `json:"askLevels"`
	BidLevels      []bookLevelPayload `json:"bidLevels"`
	TotalAskVolume int64              `json:"totalAskVolume"`
	TotalBidVolume int64              `json:"totalBidVolume"`
}

// DecodeOrderBook validates and converts an order book payload, including
// the level-ordering invariants checked by domain.OrderBookSnapshot.
func DecodeOrderBook(topic string, payload []byte) (domain.OrderBookSnapshot, error) {
	var raw bookPayload
	if err := json.Unmarshal(payload, &raw); err != nil {
		return domain.OrderBookSnapshot{}, &DecodeError{Topic: topic, Reason: "malformed json", Err: err}
	}

	snap := domain.OrderBookSnapshot{
		Ticker:         raw.Ticker,
		Asks:           convertLevels(raw.AskLevels),
		Bids:           convertLevels(raw.BidLevels),
		TotalAskVolume: quant.QtyShares(raw.TotalAskVolume),
		TotalBidVolume: quant.QtyShares(raw.TotalBidVolume),
	}

	if err := snap.Validate(); err != nil {
		return domain.OrderBookSnapshot{}, &DecodeError{Topic: topic, Reason: "invalid snapshot", Err: err}
	}
	return snap, nil
}

func convertLevels(raw []bookLevelPayload) []domain.BookLevel {
	out := make([]domain.BookLevel, 0, len(raw))
	for _, lvl := range raw {
		out = append(out, domain.BookLevel{
			PriceMicros: quant.ToPriceMicrosStr(lvl.Price.String()),
			Volume:      quant.QtyShares(lvl.Volume),
		})
	}
	return out
}
