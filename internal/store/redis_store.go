// Package store persists the aggregated odds state in Redis: an append-only
// snapshot log indexed by capture time, plus the current aggregated row set.
// Snapshots are write-once; append is the only mutation.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/lineview/odds-aggregator/internal/models"
)

const (
	snapshotIndexKey = "snapshots:index"     // ZSET: snapshot id scored by taken_at (unix ms)
	snapshotKeyFmt   = "snapshot:%s"         // JSON snapshot body
	currentRowsKey   = "aggregated:current"  // JSON of the latest AggregatedRow set
)

// RedisStore is the Redis-backed snapshot store.
type RedisStore struct {
	client    *redis.Client
	retention time.Duration
	logger    zerolog.Logger
}

// RedisStoreConfig holds Redis store configuration.
type RedisStoreConfig struct {
	Addr     string // e.g., "localhost:6379"
	Password string
	DB       int
	// Retention expires snapshot bodies after this duration; zero keeps them
	// forever. Compaction of the index is a deployment concern.
	Retention time.Duration
}

// NewRedisStore creates a new Redis snapshot store.
func NewRedisStore(config RedisStoreConfig, logger zerolog.Logger) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	return &RedisStore{
		client:    client,
		retention: config.Retention,
		logger:    logger.With().Str("component", "snapshot_store").Logger(),
	}
}

// Append writes a snapshot and publishes it into the time index. The body is
// written before the index entry, so readers never observe a snapshot that is
// not fully stored. Failures return a StoreWriteError and leave prior history
// untouched.
func (s *RedisStore) Append(ctx context.Context, snap models.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return &models.StoreWriteError{Err: fmt.Errorf("marshal snapshot: %w", err)}
	}

	key := fmt.Sprintf(snapshotKeyFmt, snap.ID)
	if err := s.client.Set(ctx, key, data, s.retention).Err(); err != nil {
		return &models.StoreWriteError{Err: fmt.Errorf("write snapshot body: %w", err)}
	}

	member := redis.Z{Score: float64(snap.TakenAt.UnixMilli()), Member: snap.ID.String()}
	if err := s.client.ZAdd(ctx, snapshotIndexKey, member).Err(); err != nil {
		return &models.StoreWriteError{Err: fmt.Errorf("index snapshot: %w", err)}
	}

	s.logger.Debug().
		Str("snapshot_id", snap.ID.String()).
		Time("taken_at", snap.TakenAt).
		Int("row_count", len(snap.Rows)).
		Msg("appended snapshot")

	return nil
}

// SetCurrent replaces the current aggregated row set.
func (s *RedisStore) SetCurrent(ctx context.Context, rows []models.AggregatedRow) error {
	data, err := json.Marshal(rows)
	if err != nil {
		return &models.StoreWriteError{Err: fmt.Errorf("marshal rows: %w", err)}
	}
	if err := s.client.Set(ctx, currentRowsKey, data, 0).Err(); err != nil {
		return &models.StoreWriteError{Err: fmt.Errorf("write current rows: %w", err)}
	}
	return nil
}

// Current returns the latest aggregated row set. A missing key yields an
// empty slice: the service simply has not completed a cycle yet.
func (s *RedisStore) Current(ctx context.Context) ([]models.AggregatedRow, error) {
	data, err := s.client.Get(ctx, currentRowsKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("read current rows: %w", err)
	}

	var rows []models.AggregatedRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("unmarshal current rows: %w", err)
	}
	return rows, nil
}

// Movement returns the per-source price series for one selection across all
// snapshots taken within [from, to], ordered by taken_at ascending. Snapshots
// that do not contain the selection contribute no point.
func (s *RedisStore) Movement(ctx context.Context, selectionID string, from, to time.Time) ([]models.MovementPoint, error) {
	ids, err := s.client.ZRangeByScore(ctx, snapshotIndexKey, &redis.ZRangeBy{
		Min: fmt.Sprintf("%d", from.UnixMilli()),
		Max: fmt.Sprintf("%d", to.UnixMilli()),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("scan snapshot index: %w", err)
	}

	points := make([]models.MovementPoint, 0, len(ids))
	for _, id := range ids {
		snap, err := s.getSnapshot(ctx, id)
		if err != nil {
			// An expired body with a surviving index entry is expected under
			// retention; skip it.
			s.logger.Debug().Err(err).Str("snapshot_id", id).Msg("skipping unreadable snapshot")
			continue
		}

		for _, row := range snap.Rows {
			if row.SelectionID != selectionID {
				continue
			}
			point := models.MovementPoint{
				TakenAt: snap.TakenAt,
				Prices:  make(map[string]int, len(row.Quotes)),
			}
			for sourceID, q := range row.Quotes {
				point.Prices[sourceID] = q.Price
			}
			points = append(points, point)
			break
		}
	}

	return points, nil
}

// LastSnapshotAt returns the capture time of the most recent snapshot, or the
// zero time when no snapshot exists yet.
func (s *RedisStore) LastSnapshotAt(ctx context.Context) (time.Time, error) {
	entries, err := s.client.ZRevRangeWithScores(ctx, snapshotIndexKey, 0, 0).Result()
	if err != nil {
		return time.Time{}, fmt.Errorf("read snapshot index: %w", err)
	}
	if len(entries) == 0 {
		return time.Time{}, nil
	}
	return time.UnixMilli(int64(entries[0].Score)).UTC(), nil
}

// getSnapshot loads one snapshot body.
func (s *RedisStore) getSnapshot(ctx context.Context, id string) (models.Snapshot, error) {
	data, err := s.client.Get(ctx, fmt.Sprintf(snapshotKeyFmt, id)).Bytes()
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("read snapshot %s: %w", id, err)
	}

	var snap models.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return models.Snapshot{}, fmt.Errorf("unmarshal snapshot %s: %w", id, err)
	}
	return snap, nil
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
