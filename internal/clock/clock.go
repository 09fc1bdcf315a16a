// Package clock abstracts time so progress throttling and fallback tickers can be tested.
package clock

import (
	"sync"
	"time"
)

// MockTicker is a mock implementation of Ticker for testing.
type MockTicker struct {
	TickChan chan time.Time
	once     sync.Once
}

// NewMockTicker returns a MockTicker with an unbuffered tick channel.
func NewMockTicker() *MockTicker {
	return &MockTicker{TickChan: make(chan time.Time)}
}

// C returns the ticker's channel.
func (m *MockTicker) C() <-chan time.Time {
	return m.TickChan
}

// Stop stops the ticker. Safe to call more than once.
func (m *MockTicker) Stop() {
	m.once.Do(func() {
		if m.TickChan != nil {
			close(m.TickChan)
		}
	})
}

// RealTicker wraps time.Ticker to implement the Ticker interface.
type RealTicker struct {
	ticker *time.Ticker
}

// C returns the ticker's channel.
func (r *RealTicker) C() <-chan time.Time {
	return r.ticker.C
}

// Stop stops the ticker.
func (r *RealTicker) Stop() {
	r.ticker.Stop()
}

// Real implements TimeProvider using real time functions.
type Real struct{}

// NewTicker creates a new ticker.
func (Real) NewTicker(d time.Duration) Ticker {
	return &RealTicker{ticker: time.NewTicker(d)}
}

// Now returns the current time.
func (Real) Now() time.Time {
	return time.Now()
}

// Ticker is an interface for time.Ticker to allow mocking.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TimeProvider provides time-related functionality for dependency injection.
type TimeProvider interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

// Fake is a manually advanced TimeProvider. Tickers it hands out are MockTickers that the
// test drives through Tick.
type Fake struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*MockTicker
}

// NewFake returns a Fake clock starting at start.
func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

// Advance moves the fake clock forward.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.now = f.now.Add(d)
}

// NewTicker returns a MockTicker registered with the fake clock.
func (f *Fake) NewTicker(time.Duration) Ticker {
	t := &MockTicker{TickChan: make(chan time.Time, 1)}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.tickers = append(f.tickers, t)

	return t
}

// Now returns the fake current time.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.now
}

// Tickers returns every ticker created so far.
func (f *Fake) Tickers() []*MockTicker {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]*MockTicker(nil), f.tickers...)
}
