// Package messaging publishes appended snapshots to Kafka so downstream
// consumers (presentation, alerting) can follow the aggregated stream without
// polling the store.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/lineview/odds-aggregator/internal/models"
)

// KafkaPublisher writes one message per snapshot.
type KafkaPublisher struct {
	writer *kafka.Writer
	logger zerolog.Logger
}

// KafkaPublisherConfig holds Kafka publisher configuration.
type KafkaPublisherConfig struct {
	Brokers []string // e.g., ["localhost:9092"]
	Topic   string   // e.g., "odds_snapshots"
}

// NewKafkaPublisher creates a new Kafka snapshot publisher.
func NewKafkaPublisher(config KafkaPublisherConfig, logger zerolog.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(config.Brokers...),
		Topic:        config.Topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
	}

	return &KafkaPublisher{
		writer: writer,
		logger: logger.With().Str("component", "kafka_publisher").Logger(),
	}
}

// Publish emits one snapshot. Keyed by snapshot id so replays stay ordered
// per partition.
func (p *KafkaPublisher) Publish(ctx context.Context, snap models.Snapshot) error {
	msg := models.SnapshotMessage{
		SnapshotID: snap.ID.String(),
		TakenAt:    snap.TakenAt,
		RowCount:   len(snap.Rows),
		Rows:       snap.Rows,
	}

	value, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot message: %w", err)
	}

	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.SnapshotID),
		Value: value,
	}); err != nil {
		return fmt.Errorf("failed to write snapshot message: %w", err)
	}

	p.logger.Debug().
		Str("snapshot_id", msg.SnapshotID).
		Int("row_count", msg.RowCount).
		Msg("published snapshot")

	return nil
}

// Close closes the Kafka writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
