package app

import (
	"context"
	"log/slog"
	"sync"

	"github.com/kopoVIBE/Stoc.kr-sub000/internal/market"
	"github.com/kopoVIBE/Stoc.kr-sub000/internal/optimistic"
)

// FavoritesBroker is the server side of the favorites feature.
type FavoritesBroker interface {
	AddFavorite(ctx context.Context, ticker string) error
	RemoveFavorite(ctx context.Context, ticker string) error
}

// Favorites coordinates the favorite star on a ticker: the local flag
// flips immediately (and the subscription set follows), the server call
// runs after, and a failure puts everything back. A second toggle on the
// same ticker while one is outstanding is rejected.
type Favorites struct {
	watchlist *market.Watchlist
	broker    FavoritesBroker
	logger    *slog.Logger

	mu      sync.Mutex
	toggles map[string]*optimistic.Toggle
}

func NewFavorites(watchlist *market.Watchlist, broker FavoritesBroker, logger *slog.Logger) *Favorites {
	return &Favorites{
		watchlist: watchlist,
		broker:    broker,
		logger:    logger.With("component", "favorites"),
		toggles:   make(map[string]*optimistic.Toggle),
	}
}

// Toggle flips the favorite state of ticker. The returned error is nil on
// success, optimistic.ErrInFlight when a previous toggle is still
// pending, or the server error after the local state has been reverted.
func (f *Favorites) Toggle(ctx context.Context, ticker string) error {
	f.mu.Lock()
	toggle, ok := f.toggles[ticker]
	if !ok {
		toggle = &optimistic.Toggle{}
		f.toggles[ticker] = toggle
	}
	f.mu.Unlock()

	err := toggle.Run(ctx,
		func() func() {
			if f.watchlist.IsFavorite(ticker) {
				f.watchlist.RemoveFavorite(ticker)
				return func() { f.watchlist.AddFavorite(ticker) }
			}
			f.watchlist.AddFavorite(ticker)
			return func() { f.watchlist.RemoveFavorite(ticker) }
		},
		func(ctx context.Context) error {
			if f.watchlist.IsFavorite(ticker) {
				return f.broker.AddFavorite(ctx, ticker)
			}
			return f.broker.RemoveFavorite(ctx, ticker)
		},
	)
	if err != nil {
		f.logger.Warn("favorite toggle failed", "ticker", ticker, "error", err)
	}
	return err
}
