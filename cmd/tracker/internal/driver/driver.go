package driver

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/akriti-kesarwani/crypto-price--tracker/pkg/models"
)

// Period between two ticks. Not configurable.
const Period = 2000 * time.Millisecond

// priceJitter scales a unit draw into at most ±1% of the price.
const priceJitter = 0.01

var ErrAlreadyStarted = errors.New("driver already started")

type Driver struct {
	logger *zap.Logger
	store  AssetStore
	rand   Rand
	clock  Clock

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}

	ticks atomic.Int64
}

func NewDriver(logger *zap.Logger, store AssetStore, rnd Rand, clock Clock) *Driver {
	return &Driver{
		logger: logger,
		store:  store,
		rand:   rnd,
		clock:  clock,
	}
}

// Start acquires the ticker and runs the update loop in the background until
// Stop is called or ctx is done.
func (d *Driver) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.started {
		return ErrAlreadyStarted
	}
	d.started = true

	ctx, d.cancel = context.WithCancel(ctx)
	d.done = make(chan struct{})

	// Created here, not in the goroutine, so time advanced right after Start is never missed.
	ticker := d.clock.NewTicker(Period)

	go func() {
		defer close(d.done)
		d.loop(ctx, ticker)
	}()

	d.logger.Info("Driver Started", zap.Duration("period", Period))
	return nil
}

// Stop cancels the loop and waits for the tick in flight, if any.
func (d *Driver) Stop() {
	d.mu.Lock()
	cancel, done := d.cancel, d.done
	d.cancel = nil
	d.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	d.logger.Info("Driver Stopped", zap.Int64("ticks", d.ticks.Load()))
}

// Run is Start followed by Stop once ctx is done. It shares Start's guard, so a
// driver that is already running is never given a second ticker.
func (d *Driver) Run(ctx context.Context) error {
	if err := d.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	d.Stop()
	return nil
}

func (d *Driver) loop(ctx context.Context, ticker Ticker) {
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			d.Tick()
		}
	}
}

// Tick applies one round of jitter to every asset, in display order.
func (d *Driver) Tick() {
	assets := d.store.Assets()
	for _, a := range assets {
		price := a.Price * (1 + d.jitter()*priceJitter)
		changes := models.Changes{
			H1:  a.Change1h + d.jitter(),
			H24: a.Change24h + d.jitter(),
			D7:  a.Change7d + d.jitter(),
		}
		d.store.ApplyUpdate(a.ID, price, changes)
	}

	n := d.ticks.Add(1)
	d.logger.Debug("Tick applied", zap.Int64("tick", n), zap.Int("assets", len(assets)))
}

// Ticks reports how many ticks have completed.
func (d *Driver) Ticks() int64 { return d.ticks.Load() }

// jitter maps U in [0, 1) onto [-1, 1).
func (d *Driver) jitter() float64 {
	return (d.rand.Float64() - 0.5) * 2
}
