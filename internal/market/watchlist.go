package market

import "sync"

// Watchlist derives the desired subscription set from what the user is
// looking at: the currently visible page of tickers plus their favorite
// tickers, which stay live regardless of the page. Every change pushes
// the union to the subscription manager.
type Watchlist struct {
	mu        sync.Mutex
	page      []string
	favorites map[string]struct{}
	apply     func(desired []string)
}

// NewWatchlist builds a watchlist that forwards its union to apply,
// typically Manager.SetDesired.
func NewWatchlist(apply func(desired []string)) *Watchlist {
	return &Watchlist{
		favorites: make(map[string]struct{}),
		apply:     apply,
	}
}

// SetPage replaces the visible page of tickers.
func (w *Watchlist) SetPage(tickers []string) {
	w.mu.Lock()
	w.page = append([]string(nil), tickers...)
	desired := w.unionLocked()
	w.mu.Unlock()
	w.apply(desired)
}

// SetFavorites replaces the favorite set, e.g. after loading it from the
// favorites service.
func (w *Watchlist) SetFavorites(tickers []string) {
	w.mu.Lock()
	w.favorites = make(map[string]struct{}, len(tickers))
	for _, t := range tickers {
		w.favorites[t] = struct{}{}
	}
	desired := w.unionLocked()
	w.mu.Unlock()
	w.apply(desired)
}

// AddFavorite marks one ticker as favorite.
func (w *Watchlist) AddFavorite(ticker string) {
	w.mu.Lock()
	w.favorites[ticker] = struct{}{}
	desired := w.unionLocked()
	w.mu.Unlock()
	w.apply(desired)
}

// RemoveFavorite unmarks one ticker. If it is still on the visible page
// it stays subscribed.
func (w *Watchlist) RemoveFavorite(ticker string) {
	w.mu.Lock()
	delete(w.favorites, ticker)
	desired := w.unionLocked()
	w.mu.Unlock()
	w.apply(desired)
}

// IsFavorite reports whether ticker is currently a favorite.
func (w *Watchlist) IsFavorite(ticker string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.favorites[ticker]
	return ok
}

func (w *Watchlist) unionLocked() []string {
	seen := make(map[string]struct{}, len(w.page)+len(w.favorites))
	out := make([]string, 0, len(w.page)+len(w.favorites))
	for _, t := range w.page {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	for t := range w.favorites {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
