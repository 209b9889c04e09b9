package timeutil

import "time"

var _ Ticker = (*fakeTicker)(nil)

type fakeTicker struct {
	ch chan time.Time
}

func (t *fakeTicker) Chan() <-chan time.Time {
	return t.ch
}

func (t *fakeTicker) Stop() {}

// Tick emits one tick. Blocks until the consumer receives it.
func (t *fakeTicker) Tick() {
	t.ch <- time.Now()
}

func NewFakeTicker() *fakeTicker {
	return &fakeTicker{make(chan time.Time)}
}

// WrapFakeTicker returns a factory that ignores the requested interval and
// hands out the given fake.
func WrapFakeTicker(ticker *fakeTicker) NewTickerFunc {
	return func(d time.Duration) Ticker {
		return ticker
	}
}
