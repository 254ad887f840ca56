package event

import (
	"testing"

	"github.com/kopoVIBE/Stoc.kr-sub000/internal/domain"
)

func TestTickEventPool(t *testing.T) {
	ev := AcquirePriceTickEvent()
	ev.Tick = domain.PriceTick{Ticker: "005930", PriceMicros: 71_500_000_000}

	if ev.Tick.Ticker != "005930" {
		t.Error("tick not set")
	}

	ReleasePriceTickEvent(ev)

	ev2 := AcquirePriceTickEvent()
	if ev2.Tick.Ticker != "" {
		t.Error("event should be reset after release")
	}
	ReleasePriceTickEvent(ev2)
}

func BenchmarkTickEventWithoutPool(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		ev := &PriceTickEvent{Tick: domain.PriceTick{Ticker: "005930"}}
		_ = ev
	}
}

func BenchmarkTickEventWithPool(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		ev := AcquirePriceTickEvent()
		ev.Tick.Ticker = "005930"
		ReleasePriceTickEvent(ev)
	}
}
