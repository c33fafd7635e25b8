package repository

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/akriti-kesarwani/crypto-price--tracker/cmd/tracker/internal/store"
	"github.com/akriti-kesarwani/crypto-price--tracker/pkg/models"
)

var _ PriceFeed = (*MemoryFeed)(nil)

// AssetSource is the slice of the asset store a MemoryFeed needs.
type AssetSource interface {
	Latest(symbol string) (models.PriceUpdate, bool)
	Subscribe(fn store.Observer) (cancel func())
}

// MemoryFeed serves the hub straight from the in-process asset store.
type MemoryFeed struct {
	source AssetSource
	logger *zap.Logger

	mu         sync.RWMutex
	subscribed map[string]bool
}

func NewMemoryFeed(source AssetSource, logger *zap.Logger) *MemoryFeed {
	return &MemoryFeed{
		source:     source,
		logger:     logger,
		subscribed: make(map[string]bool),
	}
}

func (m *MemoryFeed) GetSnapshots(_ context.Context, symbols []string) ([]string, error) {
	var snapshots []string
	for _, sym := range symbols {
		ev, ok := m.source.Latest(sym)
		if !ok {
			continue
		}
		b, err := json.Marshal(ev)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, string(b))
	}
	return snapshots, nil
}

func (m *MemoryFeed) SubscribeToFeed(_ context.Context, symbol string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribed[symbol] = true
	return nil
}

func (m *MemoryFeed) UnsubscribeFromFeed(_ context.Context, symbol string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subscribed, symbol)
	return nil
}

// RunPubSub forwards store updates for subscribed symbols until ctx is done.
func (m *MemoryFeed) RunPubSub(ctx context.Context, onMessage func(symbol string, payload string)) {
	cancel := m.source.Subscribe(func(ev models.PriceUpdate) {
		m.mu.RLock()
		wanted := m.subscribed[ev.Symbol]
		m.mu.RUnlock()
		if !wanted {
			return
		}

		b, err := json.Marshal(ev)
		if err != nil {
			m.logger.Error("JSON Marshal Error", zap.Error(err), zap.String("symbol", ev.Symbol))
			return
		}
		onMessage(ev.Symbol, string(b))
	})
	defer cancel()

	<-ctx.Done()
}

func (m *MemoryFeed) Close() error { return nil }
