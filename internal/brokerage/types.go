package brokerage

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/kopoVIBE/Stoc.kr-sub000/pkg/quant"
)

// envelope is the account/order service's uniform response wrapper.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Monetary amounts arrive as decimal strings. They are converted to
// fixed-point micros at this boundary and never travel as float64.

type accountPayload struct {
	Balance string `json:"balance"`
}

type holdingPayload struct {
	Ticker       string `json:"ticker"`
	Quantity     int64  `json:"quantity"`
	AvgPrice     string `json:"avgPrice"`
	CurrentPrice string `json:"currentPrice"`
}

type orderRequest struct {
	ClientOrderID string `json:"clientOrderId"`
	AccountID     string `json:"accountId"`
	Ticker        string `json:"ticker"`
	Side          string `json:"side"`
	OrderType     string `json:"orderType"`
	Price         string `json:"price,omitempty"`
	Quantity      int64  `json:"quantity"`
}

type orderPayload struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
}

// PendingOrder is an order accepted by the service but not yet filled.
type PendingOrder struct {
	OrderID string
	Ticker  string
	Side    string
	Price   quant.PriceMicros
	Qty     quant.QtyShares
}

type pendingOrderPayload struct {
	OrderID  string `json:"orderId"`
	Ticker   string `json:"ticker"`
	Side     string `json:"side"`
	Price    string `json:"price"`
	Quantity int64  `json:"quantity"`
}

type favoritePayload struct {
	Ticker string `json:"ticker"`
}

// parseMoney converts a decimal string from the wire into micros.
func parseMoney(s string) (quant.PriceMicros, error) {
	if s == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("brokerage: bad money value %q: %w", s, err)
	}
	return quant.PriceMicros(d.Shift(6).IntPart()), nil
}

// formatMoney renders micros as the decimal string the service expects.
func formatMoney(p quant.PriceMicros) string {
	return decimal.New(int64(p), -6).String()
}
