// Package trade validates, classifies and submits orders. Every order is
// checked against the latest cached quote and the server-confirmed
// account state before it is allowed to reach the order service.
package trade

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kopoVIBE/Stoc.kr-sub000/internal/brokerage"
	"github.com/kopoVIBE/Stoc.kr-sub000/internal/domain"
	"github.com/kopoVIBE/Stoc.kr-sub000/internal/infra"
	"github.com/kopoVIBE/Stoc.kr-sub000/pkg/quant"
	"github.com/kopoVIBE/Stoc.kr-sub000/pkg/safe"
)

// Quotes is the read side of the market cache.
type Quotes interface {
	Tick(ticker string) (domain.PriceTick, bool)
}

// Broker is the slice of the brokerage client the decider needs.
type Broker interface {
	PlaceOrder(ctx context.Context, order domain.Order) (string, error)
	GetAccount(ctx context.Context) (domain.AccountSnapshot, error)
	GetHoldings(ctx context.Context) (domain.Holdings, error)
}

// Ledger is the journal interface; see storage.Journal.
type Ledger interface {
	RecordSubmitted(ctx context.Context, order domain.Order, outcome domain.OrderOutcome) error
	RecordAccepted(ctx context.Context, clientOrderID, serverOrderID string, ts int64) error
	RecordReconciled(ctx context.Context, clientOrderID string, ts int64) error
	RecordRejected(ctx context.Context, clientOrderID, reason string, ts int64) error
}

// OrderRequest is what the UI hands over when the user presses the
// order button.
type OrderRequest struct {
	Ticker           string
	Side             domain.Side
	Kind             domain.Kind
	LimitPriceMicros quant.PriceMicros
	Qty              quant.QtyShares
}

// Decider owns the confirmed account state and runs the order pipeline:
// validate against quote and balance, classify immediate versus resting,
// journal, submit, then refresh the account from the server. The cached
// balance and holdings only ever change from server responses; fills are
// never guessed locally.
type Decider struct {
	quotes  Quotes
	broker  Broker
	journal Ledger
	logger  *slog.Logger

	mu       sync.RWMutex
	account  domain.AccountSnapshot
	holdings domain.Holdings

	// refreshAttempts bounds the post-order reconciliation retries.
	refreshAttempts int
	sleep           func(time.Duration)
}

func NewDecider(quotes Quotes, broker Broker, journal Ledger, logger *slog.Logger) *Decider {
	return &Decider{
		quotes:          quotes,
		broker:          broker,
		journal:         journal,
		logger:          logger.With("component", "decider"),
		refreshAttempts: 3,
		sleep:           time.Sleep,
	}
}

// Account returns the last server-confirmed balance.
func (d *Decider) Account() domain.AccountSnapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.account
}

// Holdings returns the last server-confirmed portfolio.
func (d *Decider) Holdings() domain.Holdings {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.holdings
}

// Refresh pulls the confirmed balance and portfolio from the server.
func (d *Decider) Refresh(ctx context.Context) error {
	account, err := d.broker.GetAccount(ctx)
	if err != nil {
		return err
	}
	holdings, err := d.broker.GetHoldings(ctx)
	if err != nil {
		return err
	}
	d.mu.Lock()
	d.account = account
	d.holdings = holdings
	d.mu.Unlock()
	return nil
}

// Submit runs the full pipeline for one order request. A validation
// failure returns one of the sentinel errors without touching the order
// service; a service failure returns a SubmissionError.
func (d *Decider) Submit(ctx context.Context, req OrderRequest) (domain.Order, domain.OrderOutcome, error) {
	outcome, err := d.evaluate(req)
	if err != nil {
		return domain.Order{}, domain.OrderOutcome{}, err
	}

	order := domain.Order{
		ID:               uuid.NewString(),
		Ticker:           req.Ticker,
		Side:             req.Side,
		Kind:             req.Kind,
		LimitPriceMicros: req.LimitPriceMicros,
		Qty:              req.Qty,
		CreatedAt:        quant.Now(),
	}

	if err := d.journal.RecordSubmitted(ctx, order, outcome); err != nil {
		d.logger.Error("journal write failed", "order_id", order.ID, "error", err)
	}

	serverID, err := d.broker.PlaceOrder(ctx, order)
	if err != nil {
		subErr := &SubmissionError{Err: err}
		var apiErr *brokerage.APIError
		if errors.As(err, &apiErr) {
			subErr.ServerMessage = apiErr.Message
		}
		if jErr := d.journal.RecordRejected(ctx, order.ID, subErr.Error(), int64(quant.Now())); jErr != nil {
			d.logger.Error("journal write failed", "order_id", order.ID, "error", jErr)
		}
		return domain.Order{}, domain.OrderOutcome{}, subErr
	}

	if err := d.journal.RecordAccepted(ctx, order.ID, serverID, int64(quant.Now())); err != nil {
		d.logger.Error("journal write failed", "order_id", order.ID, "error", err)
	}
	d.logger.Info("order submitted",
		"order_id", order.ID,
		"server_order_id", serverID,
		"ticker", order.Ticker,
		"side", order.Side,
		"immediate", outcome.WillExecuteImmediately)

	d.reconcile(ctx, order.ID)
	return order, outcome, nil
}

// evaluate runs the validation chain in its fixed order: quote first,
// then quantity, then the side-specific funds check, and finally the
// immediate-versus-resting classification.
func (d *Decider) evaluate(req OrderRequest) (domain.OrderOutcome, error) {
	tick, ok := d.quotes.Tick(req.Ticker)
	if !ok {
		return domain.OrderOutcome{}, ErrQuoteUnavailable
	}

	if req.Qty <= 0 {
		return domain.OrderOutcome{}, ErrInvalidQuantity
	}

	resolved := req.LimitPriceMicros
	if req.Kind == domain.KindMarket {
		resolved = tick.PriceMicros
	}

	d.mu.RLock()
	balance := d.account.BalanceMicros
	held := d.holdings.QtyOf(req.Ticker)
	d.mu.RUnlock()

	switch req.Side {
	case domain.SideSell:
		if req.Qty > held {
			return domain.OrderOutcome{}, ErrInsufficientHoldings
		}
	case domain.SideBuy:
		// Price and quantity are user input; a cost too large for int64
		// can never be covered by any balance.
		cost, ok := safe.MulOK(int64(resolved), int64(req.Qty))
		if !ok || cost > int64(balance) {
			return domain.OrderOutcome{}, ErrInsufficientBalance
		}
	}

	// A buy at or above the market crosses the spread; a sell at or
	// below does. Advisory only: the order service decides the fill.
	immediate := false
	if req.Side == domain.SideBuy {
		immediate = resolved >= tick.PriceMicros
	} else {
		immediate = resolved <= tick.PriceMicros
	}

	return domain.OrderOutcome{
		WillExecuteImmediately: immediate,
		ResolvedPriceMicros:    resolved,
	}, nil
}

// reconcile refreshes the confirmed account state after an accepted
// order. Failures here never fail the order; the journal keeps the
// ACCEPTED status and the next successful refresh catches up.
func (d *Decider) reconcile(ctx context.Context, orderID string) {
	for attempt := 0; attempt < d.refreshAttempts; attempt++ {
		if attempt > 0 {
			d.sleep(infra.CalculateBackoff(attempt - 1))
		}
		if err := d.Refresh(ctx); err != nil {
			d.logger.Warn("post-order refresh failed",
				"order_id", orderID,
				"attempt", attempt+1,
				"error", err)
			continue
		}
		if err := d.journal.RecordReconciled(ctx, orderID, int64(quant.Now())); err != nil {
			d.logger.Error("journal write failed", "order_id", orderID, "error", err)
		}
		return
	}
}
