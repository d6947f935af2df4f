// Package scheduler drives the aggregation cycles. Each source category (api,
// scrape) polls on its own interval; within a cycle every adapter is fetched
// concurrently under its own timeout, so one slow or broken source never
// blocks the rest. A source that fails a cycle keeps its last good quotes in
// the aggregated view instead of vanishing.
package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/lineview/odds-aggregator/internal/adapter"
	"github.com/lineview/odds-aggregator/internal/aggregator"
	"github.com/lineview/odds-aggregator/internal/metrics"
	"github.com/lineview/odds-aggregator/internal/models"
	"github.com/lineview/odds-aggregator/internal/normalizer"
)

// SnapshotSink is the write surface of the snapshot store.
type SnapshotSink interface {
	Append(ctx context.Context, snap models.Snapshot) error
	SetCurrent(ctx context.Context, rows []models.AggregatedRow) error
}

// Publisher emits appended snapshots downstream. Optional.
type Publisher interface {
	Publish(ctx context.Context, snap models.Snapshot) error
}

// Config holds scheduler timing.
type Config struct {
	Intervals      map[models.SourceCategory]time.Duration
	AdapterTimeout time.Duration
}

// Scheduler owns the periodic aggregation cycles.
type Scheduler struct {
	config     Config
	adapters   map[models.SourceCategory][]adapter.Adapter
	normalizer *normalizer.Normalizer
	engine     *aggregator.Engine
	sink       SnapshotSink
	publisher  Publisher
	logger     zerolog.Logger

	// lastGood holds each source's most recent successfully normalized
	// quotes. Failed sources keep their previous entry, so their prices
	// persist unchanged until the source recovers.
	mu       sync.Mutex
	lastGood map[string][]models.Quote

	// writeMu serializes aggregate-and-persist across categories: exactly
	// one cycle owns the store at a time.
	writeMu sync.Mutex

	// running guards against overlapping cycles within a category. A tick
	// that arrives while the previous cycle is still going is skipped.
	running map[models.SourceCategory]*atomic.Bool
}

// New creates a scheduler. publisher may be nil.
func New(
	config Config,
	adapters []adapter.Adapter,
	norm *normalizer.Normalizer,
	engine *aggregator.Engine,
	sink SnapshotSink,
	publisher Publisher,
	logger zerolog.Logger,
) *Scheduler {
	byCategory := make(map[models.SourceCategory][]adapter.Adapter)
	running := make(map[models.SourceCategory]*atomic.Bool)
	for _, ad := range adapters {
		cat := ad.Category()
		byCategory[cat] = append(byCategory[cat], ad)
		if _, ok := running[cat]; !ok {
			running[cat] = &atomic.Bool{}
		}
	}

	return &Scheduler{
		config:     config,
		adapters:   byCategory,
		normalizer: norm,
		engine:     engine,
		sink:       sink,
		publisher:  publisher,
		logger:     logger.With().Str("component", "scheduler").Logger(),
		lastGood:   make(map[string][]models.Quote),
		running:    running,
	}
}

// Run starts one polling loop per source category and blocks until ctx is
// canceled. Cycle errors are logged and retried on the next tick, never
// returned.
func (s *Scheduler) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	for cat := range s.adapters {
		interval, ok := s.config.Intervals[cat]
		if !ok {
			s.logger.Warn().Str("category", string(cat)).Msg("no interval configured, category disabled")
			continue
		}

		cat := cat
		g.Go(func() error {
			s.logger.Info().
				Str("category", string(cat)).
				Dur("interval", interval).
				Msg("starting polling loop")

			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			s.cycle(ctx, cat, interval)

			for {
				select {
				case <-ctx.Done():
					s.logger.Info().Str("category", string(cat)).Msg("stopping polling loop")
					return nil
				case <-ticker.C:
					s.cycle(ctx, cat, interval)
				}
			}
		})
	}

	return g.Wait()
}

// cycle runs one full aggregation pass for a category: fetch, normalize,
// aggregate, snapshot, publish.
func (s *Scheduler) cycle(ctx context.Context, cat models.SourceCategory, interval time.Duration) {
	if !s.running[cat].CompareAndSwap(false, true) {
		metrics.CyclesTotal.WithLabelValues(string(cat), "skipped").Inc()
		s.logger.Warn().Str("category", string(cat)).Msg("previous cycle still running, skipping")
		return
	}
	defer s.running[cat].Store(false)

	start := time.Now().UTC()
	fetched := s.fetchAll(ctx, s.adapters[cat])
	windowEnd := time.Now().UTC()
	windowStart := start.Add(-interval)

	for sourceID, raws := range fetched {
		quotes, stats := s.normalizer.NormalizeBatch(raws, windowStart, windowEnd)
		s.setLastGood(sourceID, quotes)
		if stats.Total() > 0 {
			s.logger.Info().
				Str("source_id", sourceID).
				Int("dropped_unresolved", stats.Unresolved).
				Int("dropped_ambiguous", stats.Ambiguous).
				Int("dropped_invalid_price", stats.InvalidPrice).
				Int("dropped_stale", stats.Stale).
				Msg("records dropped during normalization")
		}
	}

	snap, err := s.persist(ctx, windowEnd)
	if err != nil {
		metrics.SnapshotAppendFailures.Inc()
		metrics.CyclesTotal.WithLabelValues(string(cat), "store_error").Inc()
		s.logger.Error().Err(err).Str("category", string(cat)).Msg("cycle failed at snapshot write, will retry next tick")
		return
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, snap); err != nil {
			s.logger.Warn().Err(err).Str("snapshot_id", snap.ID.String()).Msg("snapshot publish failed")
		}
	}

	metrics.CyclesTotal.WithLabelValues(string(cat), "ok").Inc()
	metrics.CycleDuration.WithLabelValues(string(cat)).Observe(time.Since(start).Seconds())
	s.logger.Info().
		Str("category", string(cat)).
		Int("source_count", len(s.adapters[cat])).
		Int("row_count", len(snap.Rows)).
		Dur("elapsed", time.Since(start)).
		Msg("cycle complete")
}

// fetchResult carries one adapter's outcome across the fan-out.
type fetchResult struct {
	sourceID string
	raws     []models.RawQuote
	err      error
}

// fetchAll fetches every adapter concurrently, each under its own timeout.
// Failures are isolated: the returned map contains only successful sources.
func (s *Scheduler) fetchAll(ctx context.Context, adapters []adapter.Adapter) map[string][]models.RawQuote {
	results := make([]fetchResult, len(adapters))

	g, gctx := errgroup.WithContext(ctx)
	for i, ad := range adapters {
		i, ad := i, ad
		g.Go(func() error {
			results[i] = s.fetchOne(gctx, ad)
			return nil
		})
	}
	// Goroutines never return errors; failures stay per-source in results.
	_ = g.Wait()

	fetched := make(map[string][]models.RawQuote, len(adapters))
	for _, res := range results {
		if res.err != nil {
			metrics.AdapterErrors.WithLabelValues(res.sourceID).Inc()
			s.logger.Warn().Err(res.err).Str("source_id", res.sourceID).Msg("adapter fetch failed, keeping last good quotes")
			continue
		}
		fetched[res.sourceID] = res.raws
	}
	return fetched
}

// fetchOne runs a single adapter fetch with cycle-scoped resources and a
// per-adapter timeout.
func (s *Scheduler) fetchOne(ctx context.Context, ad adapter.Adapter) fetchResult {
	res := fetchResult{sourceID: ad.SourceID()}

	fctx, cancel := context.WithTimeout(ctx, s.config.AdapterTimeout)
	defer cancel()

	if scoped, ok := ad.(adapter.CycleScoped); ok {
		if err := scoped.BeginCycle(fctx); err != nil {
			res.err = err
			return res
		}
		defer scoped.EndCycle()
	}

	res.raws, res.err = ad.Fetch(fctx)
	return res
}

// persist aggregates the union of every source's last good quotes, appends a
// snapshot, and replaces the current row set. Exactly one cycle may persist
// at a time.
func (s *Scheduler) persist(ctx context.Context, takenAt time.Time) (models.Snapshot, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	rows := s.engine.Aggregate(s.allQuotes())
	snap := models.Snapshot{
		ID:      uuid.New(),
		TakenAt: takenAt,
		Rows:    rows,
	}

	if err := s.sink.Append(ctx, snap); err != nil {
		return models.Snapshot{}, err
	}
	if err := s.sink.SetCurrent(ctx, rows); err != nil {
		return models.Snapshot{}, err
	}
	return snap, nil
}

func (s *Scheduler) setLastGood(sourceID string, quotes []models.Quote) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastGood[sourceID] = quotes
}

// allQuotes returns the union of every source's last good quotes, across all
// categories.
func (s *Scheduler) allQuotes() []models.Quote {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Quote
	for _, quotes := range s.lastGood {
		out = append(out, quotes...)
	}
	return out
}
