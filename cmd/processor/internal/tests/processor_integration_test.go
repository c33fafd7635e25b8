package tests

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/akriti-kesarwani/crypto-price--tracker/cmd/processor/internal/processor"
	"github.com/akriti-kesarwani/crypto-price--tracker/cmd/processor/internal/testutils"
	"github.com/akriti-kesarwani/crypto-price--tracker/pkg/config"
	"github.com/akriti-kesarwani/crypto-price--tracker/pkg/models"
)

// startProcessor runs a single-worker processor over msgs against rdb. The
// returned func cancels it and waits for the workers to drain.
func startProcessor(t *testing.T, rdb *redis.Client, msgs []kafka.Message) (stop func()) {
	t.Helper()
	// Use Mock Reader because spinning up real Kafka is heavy/complex for unit tests
	mockReader := &testutils.MockKafkaReader{Messages: msgs}

	cfg := &config.Config{}
	cfg.Processor.NumWorkers = 1

	proc := processor.NewProcessor(cfg, zap.NewNop(), rdb, mockReader)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	done := make(chan error, 1)
	go func() { done <- proc.Run(ctx) }()

	return func() {
		cancel()
		require.NoError(t, <-done)
	}
}

func subscribe(t *testing.T, rdb *redis.Client, symbol string) *redis.PubSub {
	t.Helper()
	// subscribe before anything is published; miniredis drops messages without subscribers
	sub := rdb.Subscribe(context.Background(), models.ChannelName(symbol))
	_, err := sub.Receive(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { sub.Close() })
	return sub
}

func TestProcessor_EndToEnd_Flow(t *testing.T) {
	mr := miniredis.RunT(t)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	sub := subscribe(t, rdb, "ETH")

	update := models.PriceUpdate{
		ID:        2,
		Symbol:    "ETH",
		Price:     1999.99,
		Changes:   models.Changes{H1: 1.1, H24: -2.2, D7: 0.5},
		Timestamp: time.Now().UnixMicro(),
		SeqID:     1,
		Epoch:     "3f1c",
	}
	val, err := json.Marshal(update)
	require.NoError(t, err)

	stop := startProcessor(t, rdb, []kafka.Message{{Key: []byte("ETH"), Value: val}})
	defer stop()

	select {
	case msg := <-sub.Channel():
		assert.Equal(t, string(val), msg.Payload)
	case <-time.After(time.Second):
		t.Fatal("Processor did not publish to prices.ETH")
	}

	// Poll until the key appears (since processor is async)
	require.Eventually(t, func() bool { return mr.Exists("asset:ETH") }, time.Second, 50*time.Millisecond,
		"Processor did not write asset:ETH to Redis")

	savedVal, err := mr.Get("asset:ETH")
	require.NoError(t, err)
	assert.Equal(t, string(val), savedVal)
	assert.Equal(t, time.Hour, mr.TTL("asset:ETH"))
}

func TestProcessor_TrackerRestartIsNotDeduplicated(t *testing.T) {
	mr := miniredis.RunT(t)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	sub := subscribe(t, rdb, "BTC")

	var msgs []kafka.Message
	add := func(epoch string, seq int64, price float64) {
		val, err := json.Marshal(models.PriceUpdate{ID: 1, Symbol: "BTC", Price: price, SeqID: seq, Epoch: epoch})
		require.NoError(t, err)
		msgs = append(msgs, kafka.Message{Key: []byte("BTC"), Value: val})
	}
	add("first", 1, 100)
	add("first", 2, 101)
	add("first", 3, 102)
	// the tracker restarts and counts from 1 again
	add("second", 1, 200)
	add("second", 2, 201)

	stop := startProcessor(t, rdb, msgs)

	var prices []float64
	for len(prices) < 5 {
		select {
		case msg := <-sub.Channel():
			var u models.PriceUpdate
			require.NoError(t, json.Unmarshal([]byte(msg.Payload), &u))
			prices = append(prices, u.Price)
		case <-time.After(time.Second):
			require.FailNowf(t, "updates after the restart were dropped", "published %v", prices)
		}
	}
	stop()

	assert.Equal(t, []float64{100, 101, 102, 200, 201}, prices)

	saved, err := mr.Get("asset:BTC")
	require.NoError(t, err)
	var snap models.PriceUpdate
	require.NoError(t, json.Unmarshal([]byte(saved), &snap))
	assert.Equal(t, 201.0, snap.Price)
	assert.Equal(t, "second", snap.Epoch)
	assert.Equal(t, int64(2), snap.SeqID)
}
