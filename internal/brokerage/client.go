// Package brokerage is the REST client for the account, order and
// favorites services. All calls are rate limited and guarded by a
// circuit breaker; monetary values cross the boundary as decimal strings
// and are converted to fixed-point micros immediately.
package brokerage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/kopoVIBE/Stoc.kr-sub000/internal/domain"
	"github.com/kopoVIBE/Stoc.kr-sub000/internal/infra"
	"github.com/kopoVIBE/Stoc.kr-sub000/pkg/quant"
)

type Client struct {
	baseURL   string
	token     string
	accountID string
	http      *http.Client
	limiter   *infra.RateLimiter
	breaker   *infra.CircuitBreaker
	logger    *slog.Logger
}

// NewClient builds a client from the services section of the config.
func NewClient(cfg *infra.Config, logger *slog.Logger) *Client {
	return &Client{
		baseURL:   cfg.Services.BaseURL,
		token:     cfg.Services.Token,
		accountID: cfg.Trading.AccountID,
		http:      &http.Client{Timeout: cfg.RequestTimeout()},
		limiter:   infra.NewRateLimiter(cfg.Services.RateBurst, float64(cfg.Services.RateLimitPerSec)),
		breaker:   infra.NewCircuitBreaker(infra.DefaultCircuitBreakerConfig("brokerage")),
		logger:    logger.With("component", "brokerage"),
	}
}

// do performs one authenticated request and decodes the enveloped body
// into out (when out is non-nil).
func (c *Client) do(ctx context.Context, method, path string, reqBody, out any) error {
	if !c.breaker.Allow() {
		return ErrServiceUnavailable
	}
	c.limiter.Wait()

	var body io.Reader
	if reqBody != nil {
		raw, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("brokerage: encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("brokerage: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.breaker.RecordFailure()
		return fmt.Errorf("brokerage: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.breaker.RecordFailure()
		return fmt.Errorf("brokerage: read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.breaker.RecordSuccess() // the service is up, the token is not
		return ErrUnauthenticated
	}
	if resp.StatusCode >= 500 {
		c.breaker.RecordFailure()
		return &APIError{Status: resp.StatusCode, Message: serverMessage(raw)}
	}
	c.breaker.RecordSuccess()
	if resp.StatusCode >= 400 {
		return &APIError{Status: resp.StatusCode, Message: serverMessage(raw)}
	}

	if out != nil {
		var wrapped struct {
			envelope
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(raw, &wrapped); err != nil {
			return fmt.Errorf("brokerage: decode response: %w", err)
		}
		if !wrapped.Success {
			return &APIError{Status: resp.StatusCode, Message: wrapped.Message}
		}
		if err := json.Unmarshal(wrapped.Data, out); err != nil {
			return fmt.Errorf("brokerage: decode payload: %w", err)
		}
	}
	return nil
}

func serverMessage(raw []byte) string {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return ""
	}
	return env.Message
}

// GetAccount fetches the confirmed cash balance.
func (c *Client) GetAccount(ctx context.Context) (domain.AccountSnapshot, error) {
	var payload accountPayload
	if err := c.do(ctx, http.MethodGet, "/api/accounts/"+c.accountID, nil, &payload); err != nil {
		return domain.AccountSnapshot{}, err
	}
	balance, err := parseMoney(payload.Balance)
	if err != nil {
		return domain.AccountSnapshot{}, err
	}
	return domain.AccountSnapshot{BalanceMicros: balance}, nil
}

// GetHoldings fetches the confirmed portfolio.
func (c *Client) GetHoldings(ctx context.Context) (domain.Holdings, error) {
	var payload []holdingPayload
	if err := c.do(ctx, http.MethodGet, "/api/accounts/"+c.accountID+"/holdings", nil, &payload); err != nil {
		return nil, err
	}
	holdings := make(domain.Holdings, 0, len(payload))
	for _, h := range payload {
		avg, err := parseMoney(h.AvgPrice)
		if err != nil {
			return nil, err
		}
		var last quant.PriceMicros
		if h.CurrentPrice != "" {
			if last, err = parseMoney(h.CurrentPrice); err != nil {
				return nil, err
			}
		}
		holdings = append(holdings, domain.Holding{
			Ticker:          h.Ticker,
			Qty:             quant.QtyShares(h.Quantity),
			AvgPriceMicros:  avg,
			LastPriceMicros: last,
		})
	}
	return holdings, nil
}

// PlaceOrder submits order and returns the service-assigned order ID.
func (c *Client) PlaceOrder(ctx context.Context, order domain.Order) (string, error) {
	req := orderRequest{
		ClientOrderID: order.ID,
		AccountID:     c.accountID,
		Ticker:        order.Ticker,
		Side:          string(order.Side),
		OrderType:     string(order.Kind),
		Quantity:      int64(order.Qty),
	}
	if order.Kind == domain.KindLimit {
		req.Price = formatMoney(order.LimitPriceMicros)
	}

	var payload orderPayload
	if err := c.do(ctx, http.MethodPost, "/api/orders", req, &payload); err != nil {
		return "", err
	}
	c.logger.Info("order accepted",
		"order_id", payload.OrderID,
		"ticker", order.Ticker,
		"side", order.Side,
		"qty", order.Qty)
	return payload.OrderID, nil
}

// CancelOrder cancels a pending order by its service-assigned ID.
func (c *Client) CancelOrder(ctx context.Context, orderID string) error {
	return c.do(ctx, http.MethodDelete, "/api/orders/"+orderID, nil, nil)
}

// GetPendingOrders lists accepted-but-unfilled orders for the account.
func (c *Client) GetPendingOrders(ctx context.Context) ([]PendingOrder, error) {
	var payload []pendingOrderPayload
	if err := c.do(ctx, http.MethodGet, "/api/accounts/"+c.accountID+"/orders/pending", nil, &payload); err != nil {
		return nil, err
	}
	orders := make([]PendingOrder, 0, len(payload))
	for _, p := range payload {
		price, err := parseMoney(p.Price)
		if err != nil {
			return nil, err
		}
		orders = append(orders, PendingOrder{
			OrderID: p.OrderID,
			Ticker:  p.Ticker,
			Side:    p.Side,
			Price:   price,
			Qty:     quant.QtyShares(p.Quantity),
		})
	}
	return orders, nil
}

// GetFavorites fetches the user's favorite tickers.
func (c *Client) GetFavorites(ctx context.Context) ([]string, error) {
	var payload []favoritePayload
	if err := c.do(ctx, http.MethodGet, "/api/favorites", nil, &payload); err != nil {
		return nil, err
	}
	tickers := make([]string, 0, len(payload))
	for _, f := range payload {
		tickers = append(tickers, f.Ticker)
	}
	return tickers, nil
}

// AddFavorite marks a ticker as favorite on the server.
func (c *Client) AddFavorite(ctx context.Context, ticker string) error {
	return c.do(ctx, http.MethodPost, "/api/favorites", favoritePayload{Ticker: ticker}, nil)
}

// RemoveFavorite unmarks a ticker on the server.
func (c *Client) RemoveFavorite(ctx context.Context, ticker string) error {
	return c.do(ctx, http.MethodDelete, "/api/favorites/"+ticker, nil, nil)
}
