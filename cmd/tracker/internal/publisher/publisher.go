package publisher

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/akriti-kesarwani/crypto-price--tracker/pkg/models"
)

// Publisher forwards applied price updates to Kafka, keyed by symbol.
type Publisher struct {
	logger *zap.Logger
	writer KafkaWriter
	ctx    context.Context
}

func NewPublisher(ctx context.Context, logger *zap.Logger, writer KafkaWriter) *Publisher {
	return &Publisher{
		logger: logger,
		writer: writer,
		ctx:    ctx,
	}
}

// Publish has the store.Observer signature. Errors never reach the caller.
func (p *Publisher) Publish(update models.PriceUpdate) {
	payload, err := json.Marshal(update)
	if err != nil {
		p.logger.Error("JSON Marshal Error", zap.Error(err), zap.String("symbol", update.Symbol))
		return
	}

	err = p.writer.WriteMessages(p.ctx, kafka.Message{
		Key:   []byte(update.Symbol), // Key ensures partition ordering
		Value: payload,
	})
	if err != nil {
		p.logger.Error("Kafka Write Error", zap.Error(err), zap.String("symbol", update.Symbol))
		return
	}
	p.logger.Debug("Sent update", zap.String("symbol", update.Symbol), zap.Int64("seq_id", update.SeqID))
}

// Close flushes the writer buffer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
