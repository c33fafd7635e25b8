package repository

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/akriti-kesarwani/crypto-price--tracker/pkg/models"
)

// Compile-time check to ensure RedisFeed implements PriceFeed
var _ PriceFeed = (*RedisFeed)(nil)

// RedisFeed reads what cmd/processor writes: snapshot keys and per-symbol channels.
type RedisFeed struct {
	client *redis.Client
	pubsub *redis.PubSub
	mu     sync.Mutex
}

func NewRedisFeed(client *redis.Client) *RedisFeed {
	ps := client.Subscribe(context.Background())
	return &RedisFeed{
		client: client,
		pubsub: ps,
	}
}

// GetSnapshots fetches the latest payload for a list of symbols (MGET).
// Symbols without a snapshot are skipped.
func (r *RedisFeed) GetSnapshots(ctx context.Context, symbols []string) ([]string, error) {
	if len(symbols) == 0 {
		return nil, nil
	}

	keys := make([]string, len(symbols))
	for i, sym := range symbols {
		keys[i] = models.SnapshotKey(sym)
	}

	results, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	var snapshots []string
	for _, val := range results {
		if payload, ok := val.(string); ok && payload != "" {
			snapshots = append(snapshots, payload)
		}
	}
	return snapshots, nil
}

func (r *RedisFeed) SubscribeToFeed(ctx context.Context, symbol string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pubsub.Subscribe(ctx, models.ChannelName(symbol))
}

func (r *RedisFeed) UnsubscribeFromFeed(ctx context.Context, symbol string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pubsub.Unsubscribe(ctx, models.ChannelName(symbol))
}

// RunPubSub blocks until ctx is done or the pubsub is closed.
func (r *RedisFeed) RunPubSub(ctx context.Context, onMessage func(symbol string, payload string)) {
	ch := r.pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			symbol, ok := models.SymbolFromChannel(msg.Channel)
			if !ok {
				continue
			}
			onMessage(symbol, msg.Payload)
		}
	}
}

func (r *RedisFeed) Close() error {
	if err := r.pubsub.Close(); err != nil {
		return err
	}
	return r.client.Close()
}
