package testutils

import (
	"sync"
	"time"

	"github.com/akriti-kesarwani/crypto-price--tracker/cmd/tracker/internal/driver"
)

// MockClock only moves when Advance is called.
type MockClock struct {
	Mu          sync.Mutex
	CurrentTime time.Time
	tickers     []*MockTicker
}

func (m *MockClock) Now() time.Time {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	return m.CurrentTime
}

func (m *MockClock) NewTicker(d time.Duration) driver.Ticker {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	t := &MockTicker{
		period: d,
		next:   m.CurrentTime.Add(d),
		ch:     make(chan time.Time),
		stop:   make(chan struct{}),
	}
	m.tickers = append(m.tickers, t)
	return t
}

// Advance moves time forward by d and fires every tick that falls due.
// Each fire blocks until the ticker's reader receives it or the ticker is stopped.
func (m *MockClock) Advance(d time.Duration) {
	m.Mu.Lock()
	target := m.CurrentTime.Add(d)
	type fire struct {
		t  *MockTicker
		at time.Time
	}
	var fires []fire
	for _, t := range m.tickers {
		for !t.next.After(target) {
			fires = append(fires, fire{t, t.next})
			t.next = t.next.Add(t.period)
		}
	}
	m.CurrentTime = target
	m.Mu.Unlock()

	for _, f := range fires {
		select {
		case f.t.ch <- f.at:
		case <-f.t.stop:
		}
	}
}

type MockTicker struct {
	period time.Duration
	next   time.Time
	ch     chan time.Time
	stop   chan struct{}
	once   sync.Once
}

func (t *MockTicker) C() <-chan time.Time { return t.ch }
func (t *MockTicker) Stop()               { t.once.Do(func() { close(t.stop) }) }

// Stopped reports whether Stop was called.
func (t *MockTicker) Stopped() bool {
	select {
	case <-t.stop:
		return true
	default:
		return false
	}
}

// Tickers returns every ticker created so far.
func (m *MockClock) Tickers() []*MockTicker {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	return append([]*MockTicker(nil), m.tickers...)
}

// MockRand replays Values in a loop, or returns ValFloat when Values is empty.
type MockRand struct {
	ValFloat float64
	Values   []float64
	idx      int
	Calls    int
}

func (m *MockRand) Float64() float64 {
	m.Calls++
	if len(m.Values) == 0 {
		return m.ValFloat
	}
	v := m.Values[m.idx%len(m.Values)]
	m.idx++
	return v
}
