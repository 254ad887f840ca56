// feedtap is a console inspector for the realtime feed: it subscribes to
// the tickers given on the command line and prints every accepted tick
// and best bid/ask. Useful for checking an endpoint before pointing the
// client at it.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kopoVIBE/Stoc.kr-sub000/internal/domain"
	"github.com/kopoVIBE/Stoc.kr-sub000/internal/transport"
)

func main() {
	url := flag.String("url", "ws://localhost:8080/ws", "feed endpoint")
	flag.Parse()

	tickers := flag.Args()
	if len(tickers) == 0 {
		fmt.Fprintln(os.Stderr, "usage: feedtap [-url ws://...] TICKER [TICKER...]")
		os.Exit(2)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	session := transport.NewSession(transport.SessionConfig{
		URL:               *url,
		ReconnectDelay:    5 * time.Second,
		HeartbeatInterval: 4 * time.Second,
		HandshakeTimeout:  10 * time.Second,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session.OnStateChange(func(state transport.State, err error) {
		if state != transport.StateConnected {
			return
		}
		for _, ticker := range tickers {
			session.Subscribe(transport.PriceTopic(ticker), printTick)
			session.Subscribe(transport.OrderBookTopic(ticker), printBook)
		}
	})

	session.Connect(ctx)
	defer session.Disconnect()

	fmt.Printf("tapping %s for %v (ctrl-c to stop)\n", *url, tickers)
	<-ctx.Done()
}

func printTick(topic string, payload []byte) {
	tick, err := transport.DecodePriceTick(topic, payload)
	if err != nil {
		fmt.Printf("!! %v\n", err)
		return
	}
	fmt.Printf("%s  %-8s  ₩%-12d vol %-8d %s\n",
		tick.Ts.Time().Format("15:04:05.000"),
		tick.Ticker,
		tick.PriceMicros.Won(),
		tick.Volume,
		topic)
}

func printBook(topic string, payload []byte) {
	snap, err := transport.DecodeOrderBook(topic, payload)
	if err != nil {
		fmt.Printf("!! %v\n", err)
		return
	}
	fmt.Printf("          %-8s  %s | %s\n", snap.Ticker, level(snap.BestAsk()), level(snap.BestBid()))
}

func level(lvl domain.BookLevel, ok bool) string {
	if !ok {
		return "-"
	}
	return fmt.Sprintf("₩%d x%d", lvl.PriceMicros.Won(), lvl.Volume)
}
