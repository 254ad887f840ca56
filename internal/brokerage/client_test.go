package brokerage

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kopoVIBE/Stoc.kr-sub000/internal/domain"
	"github.com/kopoVIBE/Stoc.kr-sub000/internal/infra"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &infra.Config{}
	cfg.Services.BaseURL = server.URL
	cfg.Services.Token = "test-token"
	cfg.Services.RequestTimeoutMS = 2000
	cfg.Services.RateLimitPerSec = 1000
	cfg.Services.RateBurst = 1000
	cfg.Trading.AccountID = "acct-1"

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewClient(cfg, logger)
}

func respond(w http.ResponseWriter, data any) {
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"data":    data,
	})
}

func TestGetAccountParsesDecimalBalance(t *testing.T) {
	var gotAuth string
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Path != "/api/accounts/acct-1" {
			t.Errorf("path = %s", r.URL.Path)
		}
		respond(w, map[string]string{"balance": "1234567.89"})
	}))

	snap, err := client.GetAccount(context.Background())
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if gotAuth != "Bearer test-token" {
		t.Errorf("auth header = %q", gotAuth)
	}
	if snap.BalanceMicros != 1_234_567_890_000 {
		t.Errorf("balance = %d", snap.BalanceMicros)
	}
}

func TestGetHoldings(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respond(w, []map[string]any{
			{"ticker": "005930", "quantity": 10, "avgPrice": "70000", "currentPrice": "71200"},
			{"ticker": "000660", "quantity": 3, "avgPrice": "150000.5"},
		})
	}))

	holdings, err := client.GetHoldings(context.Background())
	if err != nil {
		t.Fatalf("GetHoldings: %v", err)
	}
	if len(holdings) != 2 {
		t.Fatalf("len = %d", len(holdings))
	}
	if holdings.QtyOf("005930") != 10 {
		t.Errorf("qty = %d", holdings.QtyOf("005930"))
	}
	if holdings[1].AvgPriceMicros != 150_000_500_000 {
		t.Errorf("avg = %d", holdings[1].AvgPriceMicros)
	}
	if holdings[0].LastPriceMicros != 71_200_000_000 {
		t.Errorf("last = %d", holdings[0].LastPriceMicros)
	}
	if holdings[1].LastPriceMicros != 0 {
		t.Errorf("last without currentPrice = %d", holdings[1].LastPriceMicros)
	}
}

func TestPlaceOrderSendsLimitPrice(t *testing.T) {
	var got orderRequest
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/orders" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		respond(w, map[string]string{"orderId": "srv-42", "status": "ACCEPTED"})
	}))

	order := domain.Order{
		ID:               "cli-1",
		Ticker:           "005930",
		Side:             domain.SideBuy,
		Kind:             domain.KindLimit,
		LimitPriceMicros: 71_000_000_000,
		Qty:              3,
	}
	id, err := client.PlaceOrder(context.Background(), order)
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if id != "srv-42" {
		t.Errorf("order id = %q", id)
	}
	if got.Price != "71000" {
		t.Errorf("price = %q", got.Price)
	}
	if got.Side != "BUY" || got.OrderType != "LIMIT" || got.Quantity != 3 {
		t.Errorf("request = %+v", got)
	}
	if got.ClientOrderID != "cli-1" || got.AccountID != "acct-1" {
		t.Errorf("ids = %+v", got)
	}
}

func TestPlaceOrderMarketOmitsPrice(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var raw map[string]any
		_ = json.NewDecoder(r.Body).Decode(&raw)
		if _, present := raw["price"]; present {
			t.Error("market order carried a price field")
		}
		respond(w, map[string]string{"orderId": "srv-43"})
	}))

	_, err := client.PlaceOrder(context.Background(), domain.Order{
		ID: "cli-2", Ticker: "005930", Side: domain.SideSell, Kind: domain.KindMarket, Qty: 1,
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
}

func TestUnauthorizedMapsToErrUnauthenticated(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := client.GetAccount(context.Background())
	if !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("err = %v", err)
	}
}

func TestServerMessageSurfacesInAPIError(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"message": "market closed",
		})
	}))

	_, err := client.PlaceOrder(context.Background(), domain.Order{
		ID: "cli-3", Ticker: "005930", Side: domain.SideBuy, Kind: domain.KindMarket, Qty: 1,
	})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v", err)
	}
	if apiErr.Status != http.StatusBadRequest || apiErr.Message != "market closed" {
		t.Errorf("apiErr = %+v", apiErr)
	}
}

func TestBreakerOpensAfterRepeated5xx(t *testing.T) {
	var calls int
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if _, err := client.GetAccount(ctx); err == nil {
			t.Fatal("expected failure")
		}
	}

	before := calls
	_, err := client.GetAccount(ctx)
	if !errors.Is(err, ErrServiceUnavailable) {
		t.Fatalf("err = %v", err)
	}
	if calls != before {
		t.Error("request sent while breaker open")
	}
}
