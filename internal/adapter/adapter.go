// Package adapter defines the single capability every odds source
// implements. API-backed and scraping-backed sources are interchangeable
// behind Fetch.
package adapter

import (
	"context"

	"github.com/lineview/odds-aggregator/internal/models"
)

// Adapter fetches the current raw quotes from one odds source.
type Adapter interface {
	// SourceID identifies the source in quotes, metrics, and logs.
	SourceID() string

	// Category determines which polling interval drives this source.
	Category() models.SourceCategory

	// Fetch returns the source's current raw quotes. The context carries the
	// per-adapter timeout; exceeding it is an adapter error like any other.
	Fetch(ctx context.Context) ([]models.RawQuote, error)
}

// CycleScoped is implemented by adapters that hold per-cycle resources, such
// as a scraping session. The scheduler calls BeginCycle before Fetch and
// guarantees EndCycle on every exit path, so resource growth is bounded by
// one cycle.
type CycleScoped interface {
	BeginCycle(ctx context.Context) error
	EndCycle()
}
