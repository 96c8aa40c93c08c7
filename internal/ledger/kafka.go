package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaWorker drains the publisher outbox into a Kafka topic so downstream
// notarization consumers see the same events the local ledger stores.
// Delivery is at-most-once by design; the ledger store stays the local source
// of truth.
type KafkaWorker struct {
	client *kgo.Client
	topic  string
	inbox  <-chan Event
	logger *slog.Logger
}

// NewKafkaWorker connects a producer to the given brokers.
func NewKafkaWorker(brokers []string, topic string, inbox <-chan Event, logger *slog.Logger) (*KafkaWorker, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchMaxBytes(1<<20),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}
	return &KafkaWorker{client: client, topic: topic, inbox: inbox, logger: logger}, nil
}

// Run consumes the inbox until the context is cancelled.
func (w *KafkaWorker) Run(ctx context.Context) error {
	defer w.client.Close()
	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = w.client.Flush(flushCtx)
			return ctx.Err()
		case event := <-w.inbox:
			w.produce(ctx, event)
		}
	}
}

func (w *KafkaWorker) produce(ctx context.Context, event Event) {
	payload, err := json.Marshal(map[string]any{
		"id":           event.ID,
		"tx_hash":      event.TxHash,
		"type":         string(event.Type),
		"match_id":     event.MatchID,
		"donor_id":     event.DonorID,
		"recipient_id": event.RecipientID,
		"organ":        event.Organ,
		"score":        event.Score,
		"status":       event.Status,
		"created_at":   event.CreatedAt.Format(time.RFC3339Nano),
	})
	if err != nil {
		w.logger.WarnContext(ctx, "marshal ledger event", "error", err.Error())
		return
	}

	record := &kgo.Record{
		Topic: w.topic,
		Key:   []byte(event.MatchID),
		Value: payload,
	}
	w.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			w.logger.Warn("ledger kafka produce failed",
				"event_type", string(event.Type),
				"match_id", event.MatchID,
				"error", err.Error(),
			)
		}
	})
}
