package service

import (
	"context"
	"time"

	"github.com/lineview/odds-aggregator/internal/models"
)

// Store is the read surface of the snapshot store the query facade depends
// on. Satisfied by store.RedisStore; abstracted for testing and mocking.
type Store interface {
	Current(ctx context.Context) ([]models.AggregatedRow, error)
	Movement(ctx context.Context, selectionID string, from, to time.Time) ([]models.MovementPoint, error)
	LastSnapshotAt(ctx context.Context) (time.Time, error)
}
