package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaSink mirrors the audit trail onto a Kafka topic for downstream
// consumers (compliance archival, analytics). The database trail remains the
// source of truth; the sink publishes asynchronously and never blocks or
// fails a business operation.
type KafkaSink struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// NewKafkaSink connects a producer to the given brokers.
func NewKafkaSink(brokers []string, topic string, logger *slog.Logger) (*KafkaSink, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return &KafkaSink{client: client, topic: topic, logger: logger}, nil
}

// Publish sends the event keyed by application ID so per-application ordering
// survives partitioning. Delivery failures are logged, not returned.
func (s *KafkaSink) Publish(ctx context.Context, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.ErrorContext(ctx, "marshal audit event for kafka",
			"event_id", event.EventID,
			"error", err,
		)
		return
	}

	record := &kgo.Record{
		Key:   []byte(event.ApplicationID.String()),
		Value: payload,
	}
	s.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			s.logger.Error("audit event kafka delivery failed",
				"event_id", event.EventID.String(),
				"action", string(event.Action),
				"error", err,
			)
		}
	})
}

// Close flushes buffered records and releases the producer.
func (s *KafkaSink) Close(ctx context.Context) error {
	if err := s.client.Flush(ctx); err != nil {
		return fmt.Errorf("flush kafka producer: %w", err)
	}
	s.client.Close()
	return nil
}
