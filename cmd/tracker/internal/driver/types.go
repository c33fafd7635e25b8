package driver

import (
	"math/rand"
	"time"

	"github.com/akriti-kesarwani/crypto-price--tracker/pkg/models"
)

// for deterministic testing
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// for deterministic values
type Rand interface {
	Float64() float64
}

// AssetStore is the part of the store the driver reads and writes.
type AssetStore interface {
	Assets() []models.Asset
	ApplyUpdate(id int, price float64, changes models.Changes)
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }
func (RealClock) NewTicker(d time.Duration) Ticker {
	return realTicker{t: time.NewTicker(d)}
}

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

// RealRand wraps a *rand.Rand. It is not safe for concurrent use.
type RealRand struct{ *rand.Rand }

func NewRealRand() RealRand {
	return RealRand{rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (r RealRand) Float64() float64 { return r.Rand.Float64() }

// SharedRand draws from the package-level source and may be used from any goroutine.
type SharedRand struct{}

func (SharedRand) Float64() float64 { return rand.Float64() }
