package domain

import (
	"github.com/kopoVIBE/Stoc.kr-sub000/pkg/quant"
)

// Side is the direction of an order.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Kind distinguishes limit orders from market orders.
type Kind string

const (
	KindLimit  Kind = "LIMIT"
	KindMarket Kind = "MARKET"
)

// Order is an immutable order created at submission time. LimitPrice is
// meaningful only when Kind is KindLimit.
type Order struct {
	ID               string
	Ticker           string
	Side             Side
	Kind             Kind
	LimitPriceMicros quant.PriceMicros
	Qty              quant.QtyShares
	CreatedAt        quant.TimeStamp
}

// OrderOutcome is the advisory immediate-vs-resting classification made
// against the latest cached price. It exists only for the duration of one
// submission; the authoritative fill decision belongs to the order
// service.
type OrderOutcome struct {
	WillExecuteImmediately bool
	ResolvedPriceMicros    quant.PriceMicros
}

// OrderStatus tracks the client-side lifecycle of one submission.
type OrderStatus string

const (
	StatusSubmitted  OrderStatus = "SUBMITTED"
	StatusAccepted   OrderStatus = "ACCEPTED"
	StatusReconciled OrderStatus = "RECONCILED"
	StatusRejected   OrderStatus = "REJECTED"
)
