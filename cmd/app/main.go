package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/kopoVIBE/Stoc.kr-sub000/internal/app"
	"github.com/kopoVIBE/Stoc.kr-sub000/internal/market"
	"github.com/kopoVIBE/Stoc.kr-sub000/internal/trade"
	"github.com/kopoVIBE/Stoc.kr-sub000/internal/transport"
	"github.com/kopoVIBE/Stoc.kr-sub000/pkg/quant"
)

func main() {
	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(); err != nil {
		slog.Error("bootstrap failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer bootstrap.Close()

	cfg := bootstrap.Config
	logger := bootstrap.Logger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Confirmed account state, order pipeline.
	cache := market.NewCache()
	decider := trade.NewDecider(cache, bootstrap.Broker, bootstrap.Journal, logger)
	if err := decider.Refresh(ctx); err != nil {
		logger.Warn("initial account refresh failed", "error", err)
	}

	// Feed session and subscription reconciliation.
	session := transport.NewSession(transport.SessionConfig{
		URL:               cfg.Stream.URL,
		ReconnectDelay:    cfg.ReconnectDelay(),
		HeartbeatInterval: cfg.HeartbeatInterval(),
		HandshakeTimeout:  cfg.HandshakeTimeout(),
	}, logger)

	manager := market.NewManager(session, nil, nil, cache.Evict, logger)
	dispatcher := market.NewDispatcher(cache, manager, market.DispatcherConfig{
		InboxSize:      cfg.Stream.InboxSize,
		AlertThreshold: cfg.Alerts.MoveThresholdMicros,
		Holdings:       decider.Holdings,
		OnAlert: func(ticker string, prev, cur quant.PriceMicros) {
			logger.Info("holding moved",
				"ticker", ticker,
				"prev", prev.Won(),
				"cur", cur.Won())
		},
	}, logger)
	manager.BindHandlers(dispatcher.PriceHandler(), dispatcher.BookHandler())
	session.OnStateChange(dispatcher.StateListener())

	go dispatcher.Run(ctx)
	session.Connect(ctx)
	defer session.Disconnect()
	defer manager.Close()

	// Held and favorite tickers stay subscribed; the visible page comes
	// and goes as the user navigates.
	watchlist := market.NewWatchlist(manager.SetDesired)
	if favorites, err := bootstrap.Broker.GetFavorites(ctx); err != nil {
		logger.Warn("favorites load failed", "error", err)
	} else {
		watchlist.SetFavorites(favorites)
	}
	watchlist.SetPage(decider.Holdings().Tickers())

	logger.Info("client running",
		"mode", cfg.Trading.Mode,
		"stream", cfg.Stream.URL,
		"watching", len(manager.Desired()))

	<-ctx.Done()
	logger.Info("shutting down")
}
