package event

import (
	"sync"

	"github.com/kopoVIBE/Stoc.kr-sub000/internal/domain"
)

// tickPool recycles PriceTickEvent allocations. The price topic is by far
// the hottest path; the book and connected events are rare enough to
// allocate normally.
var tickPool = sync.Pool{
	New: func() any { return &PriceTickEvent{} },
}

// AcquirePriceTickEvent returns a cleared event from the pool.
func AcquirePriceTickEvent() *PriceTickEvent {
	return tickPool.Get().(*PriceTickEvent)
}

// ReleasePriceTickEvent resets the event and returns it to the pool.
func ReleasePriceTickEvent(e *PriceTickEvent) {
	e.Tick = domain.PriceTick{}
	tickPool.Put(e)
}

// Warmup pre-populates the pool so the first burst of ticks after connect
// does not allocate.
func Warmup() {
	events := make([]*PriceTickEvent, 0, 64)
	for i := 0; i < 64; i++ {
		events = append(events, AcquirePriceTickEvent())
	}
	for _, e := range events {
		ReleasePriceTickEvent(e)
	}
}
