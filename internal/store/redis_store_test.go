package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lineview/odds-aggregator/internal/models"
)

// setupTestStore creates a store backed by an in-process Redis
func setupTestStore(t *testing.T) *RedisStore {
	mr := miniredis.RunT(t)

	s := NewRedisStore(RedisStoreConfig{Addr: mr.Addr()}, zerolog.Nop())
	t.Cleanup(func() { s.Close() })
	return s
}

func testSnapshot(takenAt time.Time, rows []models.AggregatedRow) models.Snapshot {
	return models.Snapshot{
		ID:      uuid.New(),
		TakenAt: takenAt,
		Rows:    rows,
	}
}

func testRow(selectionID string, prices map[string]int, observed time.Time) models.AggregatedRow {
	quotes := make(map[string]models.Quote, len(prices))
	best := ""
	for source, price := range prices {
		quotes[source] = models.Quote{
			SourceID:    source,
			SelectionID: selectionID,
			Price:       price,
			ObservedAt:  observed,
		}
		if best == "" || price > prices[best] {
			best = source
		}
	}
	return models.AggregatedRow{
		SelectionID:  selectionID,
		Quotes:       quotes,
		BestSourceID: best,
	}
}

// TestRedisStore_CurrentRoundtrip tests writing and reading the current row set
func TestRedisStore_CurrentRoundtrip(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	observed := time.Date(2026, 1, 15, 18, 0, 0, 0, time.UTC)

	rows := []models.AggregatedRow{
		testRow("LAL@BOS:20260115|moneyline|BOS|home|-", map[string]int{"draftkings": -150, "fanduel": -145}, observed),
	}

	require.NoError(t, s.SetCurrent(ctx, rows))

	got, err := s.Current(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, rows[0].SelectionID, got[0].SelectionID)
	assert.Equal(t, "fanduel", got[0].BestSourceID)
	assert.Equal(t, -150, got[0].Quotes["draftkings"].Price)
}

// TestRedisStore_CurrentEmpty tests the pre-first-cycle read
func TestRedisStore_CurrentEmpty(t *testing.T) {
	s := setupTestStore(t)

	rows, err := s.Current(context.Background())

	require.NoError(t, err)
	assert.Empty(t, rows)
}

// TestRedisStore_MovementAscending tests that the movement series covers every
// appended snapshot in capture-time order
func TestRedisStore_MovementAscending(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	selID := "LAL@BOS:20260115|moneyline|BOS|home|-"
	base := time.Date(2026, 1, 15, 18, 0, 0, 0, time.UTC)

	prices := []int{-150, -140, -155}
	for i, p := range prices {
		snap := testSnapshot(base.Add(time.Duration(i)*time.Minute), []models.AggregatedRow{
			testRow(selID, map[string]int{"draftkings": p}, base),
		})
		require.NoError(t, s.Append(ctx, snap))
	}

	points, err := s.Movement(ctx, selID, base, base.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, points, 3)

	for i, p := range points {
		assert.Equal(t, base.Add(time.Duration(i)*time.Minute), p.TakenAt)
		assert.Equal(t, prices[i], p.Prices["draftkings"])
	}
}

// TestRedisStore_MovementWindowBounds tests that snapshots outside [from, to]
// are excluded
func TestRedisStore_MovementWindowBounds(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	selID := "LAL@BOS:20260115|moneyline|BOS|home|-"
	base := time.Date(2026, 1, 15, 18, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		snap := testSnapshot(base.Add(time.Duration(i)*time.Hour), []models.AggregatedRow{
			testRow(selID, map[string]int{"draftkings": -150}, base),
		})
		require.NoError(t, s.Append(ctx, snap))
	}

	points, err := s.Movement(ctx, selID, base.Add(30*time.Minute), base.Add(90*time.Minute))
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, base.Add(time.Hour), points[0].TakenAt)
}

// TestRedisStore_MovementSkipsSnapshotsWithoutSelection tests that a snapshot
// missing the selection contributes no point
func TestRedisStore_MovementSkipsSnapshotsWithoutSelection(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 15, 18, 0, 0, 0, time.UTC)

	withSel := testSnapshot(base, []models.AggregatedRow{
		testRow("sel-a", map[string]int{"draftkings": -150}, base),
	})
	withoutSel := testSnapshot(base.Add(time.Minute), []models.AggregatedRow{
		testRow("sel-b", map[string]int{"draftkings": 120}, base),
	})
	require.NoError(t, s.Append(ctx, withSel))
	require.NoError(t, s.Append(ctx, withoutSel))

	points, err := s.Movement(ctx, "sel-a", base, base.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, base, points[0].TakenAt)
}

// TestRedisStore_MovementUnknownSelection tests the empty-series case
func TestRedisStore_MovementUnknownSelection(t *testing.T) {
	s := setupTestStore(t)
	base := time.Date(2026, 1, 15, 18, 0, 0, 0, time.UTC)

	points, err := s.Movement(context.Background(), "no-such-selection", base, base.Add(time.Hour))

	require.NoError(t, err)
	assert.Empty(t, points)
}

// TestRedisStore_LastSnapshotAt tests the staleness probe
func TestRedisStore_LastSnapshotAt(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	last, err := s.LastSnapshotAt(ctx)
	require.NoError(t, err)
	assert.True(t, last.IsZero())

	first := time.Date(2026, 1, 15, 18, 0, 0, 0, time.UTC)
	second := first.Add(5 * time.Minute)
	require.NoError(t, s.Append(ctx, testSnapshot(first, nil)))
	require.NoError(t, s.Append(ctx, testSnapshot(second, nil)))

	last, err = s.LastSnapshotAt(ctx)
	require.NoError(t, err)
	assert.Equal(t, second, last)
}

// TestRedisStore_AppendPreservesHistory tests that appends never rewrite
// earlier snapshots
func TestRedisStore_AppendPreservesHistory(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	selID := "sel-a"
	base := time.Date(2026, 1, 15, 18, 0, 0, 0, time.UTC)

	require.NoError(t, s.Append(ctx, testSnapshot(base, []models.AggregatedRow{
		testRow(selID, map[string]int{"draftkings": -150}, base),
	})))
	require.NoError(t, s.Append(ctx, testSnapshot(base.Add(time.Minute), []models.AggregatedRow{
		testRow(selID, map[string]int{"draftkings": -140}, base),
	})))

	points, err := s.Movement(ctx, selID, base, base.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, -150, points[0].Prices["draftkings"])
	assert.Equal(t, -140, points[1].Prices["draftkings"])
}
