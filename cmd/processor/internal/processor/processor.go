package processor

import (
	"context"
	"encoding/json"
	"errors"
	"hash/fnv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/akriti-kesarwani/crypto-price--tracker/pkg/config"
	"github.com/akriti-kesarwani/crypto-price--tracker/pkg/models"
)

const (
	snapshotTTL  = time.Hour // prevents unbounded memory growth
	workerBuffer = 100
)

type Processor struct {
	logger     Logger
	rdb        RedisClient
	reader     KafkaReader
	numWorkers int
}

func NewProcessor(cfg *config.Config, logger Logger, rdb RedisClient, reader KafkaReader) *Processor {
	return &Processor{
		logger:     logger,
		rdb:        rdb,
		reader:     reader,
		numWorkers: cfg.Processor.NumWorkers,
	}
}

// Run consumes until ctx is done, then drains the workers before returning.
func (p *Processor) Run(ctx context.Context) error {
	if p.numWorkers <= 0 {
		return config.ErrNoWorkers
	}

	workerChans := make([]chan []byte, p.numWorkers)
	var wg sync.WaitGroup

	for i := 0; i < p.numWorkers; i++ {
		workerChans[i] = make(chan []byte, workerBuffer)
		wg.Add(1)
		go p.worker(i, workerChans[i], &wg)
	}

	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		p.logger.Info("Processor Started", zap.Int("workers", p.numWorkers))
		p.consume(ctx, workerChans)
	}()

	<-ctx.Done()
	p.logger.Info("Shutdown signal received, stopping processor...")

	// no sends may race with the close below
	<-readerDone
	for _, ch := range workerChans {
		close(ch)
	}
	p.logger.Info("Waiting for workers to drain...")
	wg.Wait()

	return nil
}

func (p *Processor) consume(ctx context.Context, workerChans []chan []byte) {
	for {
		m, err := p.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			p.logger.Error("Kafka Read Error", zap.Error(err))
			continue
		}

		// Deterministic Sharding: Same symbol always goes to same worker
		workerID := getWorkerID(m.Key, len(workerChans))

		select {
		case workerChans[workerID] <- m.Value:
		case <-ctx.Done():
			return
		default:
			// a newer tick for the symbol is always coming
			p.logger.Warn("Dropping slow packet", zap.String("key", string(m.Key)), zap.Int("worker_id", workerID))
		}
	}
}

// cursor is the last update a worker wrote for one symbol.
type cursor struct {
	epoch string
	seq   int64
}

// stale reports whether u is a replay of something already written. A new
// epoch means the tracker restarted and its sequence began again at 1.
func (c cursor) stale(u models.PriceUpdate) bool {
	return u.Epoch == c.epoch && u.SeqID <= c.seq
}

func (p *Processor) worker(id int, msgs <-chan []byte, wg *sync.WaitGroup) {
	defer wg.Done()
	ctx := context.Background() // never cancel mid-write

	// Local state for deduplication (only works because of deterministic sharding)
	last := make(map[string]cursor)

	for payload := range msgs {
		var update models.PriceUpdate
		if err := json.Unmarshal(payload, &update); err != nil {
			p.logger.Error("JSON Unmarshal Error", zap.Error(err))
			continue
		}
		if update.Symbol == "" {
			p.logger.Warn("Update without symbol", zap.Int("id", update.ID))
			continue
		}

		prev, seen := last[update.Symbol]
		if prev.stale(update) {
			p.logger.Debug("Skipping duplicate update",
				zap.String("symbol", update.Symbol),
				zap.Int64("seq_id", update.SeqID),
				zap.Int64("last_seq", prev.seq),
			)
			continue
		}
		if seen && prev.epoch != update.Epoch {
			p.logger.Info("Tracker epoch changed, resetting sequence",
				zap.String("symbol", update.Symbol),
				zap.String("epoch", update.Epoch),
				zap.Int64("last_seq", prev.seq),
			)
		}

		// SET + PUBLISH in one round trip
		pipe := p.rdb.Pipeline()
		pipe.Set(ctx, models.SnapshotKey(update.Symbol), payload, snapshotTTL)
		pipe.Publish(ctx, models.ChannelName(update.Symbol), payload)

		if _, err := pipe.Exec(ctx); err != nil {
			p.logger.Error("Redis Pipeline Error", zap.Error(err), zap.String("symbol", update.Symbol))
			continue
		}
		p.logger.Debug("Processed", zap.String("symbol", update.Symbol), zap.Int("worker_id", id), zap.Int64("seq_id", update.SeqID))
		last[update.Symbol] = cursor{epoch: update.Epoch, seq: update.SeqID}
	}
}

func getWorkerID(key []byte, numWorkers int) int {
	h := fnv.New32a()
	h.Write(key)
	return int(h.Sum32() % uint32(numWorkers))
}
