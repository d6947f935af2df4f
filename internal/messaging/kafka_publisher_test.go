package messaging

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lineview/odds-aggregator/internal/models"
)

// TestNewKafkaPublisher tests publisher creation
func TestNewKafkaPublisher(t *testing.T) {
	config := KafkaPublisherConfig{
		Brokers: []string{"localhost:9092"},
		Topic:   "odds_snapshots",
	}

	publisher := NewKafkaPublisher(config, zerolog.Nop())

	assert.NotNil(t, publisher)
	assert.NotNil(t, publisher.writer)
	assert.Equal(t, config.Topic, publisher.writer.Topic)
	assert.Equal(t, kafka.RequireOne, publisher.writer.RequiredAcks)

	publisher.Close()
}

// TestSnapshotMessage_Format tests that snapshot messages round-trip as JSON
func TestSnapshotMessage_Format(t *testing.T) {
	sel := models.Selection{
		EventID:    "LAL@BOS:20260115",
		MarketKind: models.MarketMoneyline,
		Subject:    "BOS",
		Side:       models.SideHome,
	}
	row := models.AggregatedRow{
		SelectionID: sel.ID(),
		Selection:   sel,
		Quotes: map[string]models.Quote{
			"draftkings": {
				SourceID:           "draftkings",
				SelectionID:        sel.ID(),
				Price:              -150,
				ImpliedProbability: 0.6,
				ObservedAt:         time.Date(2026, 1, 15, 18, 0, 0, 0, time.UTC),
			},
		},
		BestSourceID: "draftkings",
	}

	msg := models.SnapshotMessage{
		SnapshotID: uuid.New().String(),
		TakenAt:    time.Date(2026, 1, 15, 18, 0, 5, 0, time.UTC),
		RowCount:   1,
		Rows:       []models.AggregatedRow{row},
	}

	msgBytes, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.NotEmpty(t, msgBytes)

	var parsed models.SnapshotMessage
	err = json.Unmarshal(msgBytes, &parsed)
	require.NoError(t, err)
	assert.Equal(t, msg.SnapshotID, parsed.SnapshotID)
	require.Len(t, parsed.Rows, 1)
	assert.Equal(t, row.SelectionID, parsed.Rows[0].SelectionID)
	assert.Equal(t, -150, parsed.Rows[0].Quotes["draftkings"].Price)
}
