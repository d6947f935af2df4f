// Package service exposes the read-only query facade the presentation layer
// calls. All operations are pure reads over state produced by the aggregation
// cycle; nothing here triggers ingestion.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lineview/odds-aggregator/internal/identity"
	"github.com/lineview/odds-aggregator/internal/models"
)

// OddsFilter narrows a CurrentOdds query. Zero values mean no restriction.
type OddsFilter struct {
	EventID    string
	MarketKind models.MarketKind
}

// QueryService is the single entry point for reading aggregated odds.
type QueryService struct {
	store    Store
	resolver *identity.Resolver
	logger   zerolog.Logger
}

// NewQueryService creates the query facade.
func NewQueryService(store Store, resolver *identity.Resolver, logger zerolog.Logger) *QueryService {
	return &QueryService{
		store:    store,
		resolver: resolver,
		logger:   logger.With().Str("component", "query_service").Logger(),
	}
}

// CurrentOdds returns the latest aggregated rows, optionally filtered by
// event and market kind.
func (s *QueryService) CurrentOdds(ctx context.Context, filter OddsFilter) ([]models.AggregatedRow, error) {
	rows, err := s.store.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("load current odds: %w", err)
	}

	out := rows[:0:0]
	for _, row := range rows {
		if filter.EventID != "" && row.Selection.EventID != filter.EventID {
			continue
		}
		if filter.MarketKind != "" && row.Selection.MarketKind != filter.MarketKind {
			continue
		}
		out = append(out, row)
	}

	s.logger.Debug().
		Str("event_id", filter.EventID).
		Int("row_count", len(out)).
		Msg("current odds query")

	return out, nil
}

// Props returns current player-prop rows. A team filter keeps props attached
// to that team's events; a player filter keeps a single player's props. Both
// filters accept any alias the resolver knows.
func (s *QueryService) Props(ctx context.Context, team, player string) ([]models.AggregatedRow, error) {
	rows, err := s.CurrentOdds(ctx, OddsFilter{MarketKind: models.MarketPlayerProp})
	if err != nil {
		return nil, err
	}

	teamID, playerID := "", ""
	if team != "" {
		if teamID, err = s.resolver.Resolve(team, ""); err != nil {
			return nil, fmt.Errorf("team filter: %w", err)
		}
	}
	if player != "" {
		if playerID, err = s.resolver.Resolve(player, ""); err != nil {
			return nil, fmt.Errorf("player filter: %w", err)
		}
	}

	out := rows[:0:0]
	for _, row := range rows {
		if playerID != "" && row.Selection.Subject != playerID {
			continue
		}
		if teamID != "" && !eventInvolves(row.Selection.EventID, teamID) {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

// Movement returns the line-movement series for one selection over the
// trailing window, ordered by snapshot time ascending.
func (s *QueryService) Movement(ctx context.Context, selectionID string, window time.Duration) ([]models.MovementPoint, error) {
	if selectionID == "" {
		return nil, fmt.Errorf("selection id is required")
	}
	if window <= 0 {
		return nil, fmt.Errorf("window must be positive")
	}

	to := time.Now().UTC()
	from := to.Add(-window)

	points, err := s.store.Movement(ctx, selectionID, from, to)
	if err != nil {
		return nil, fmt.Errorf("load movement: %w", err)
	}
	return points, nil
}

// StalenessAge returns the age of the last successful snapshot. ok is false
// when no snapshot has ever been taken.
func (s *QueryService) StalenessAge(ctx context.Context) (time.Duration, bool, error) {
	last, err := s.store.LastSnapshotAt(ctx)
	if err != nil {
		return 0, false, fmt.Errorf("load last snapshot time: %w", err)
	}
	if last.IsZero() {
		return 0, false, nil
	}
	return time.Since(last), true, nil
}

// eventInvolves reports whether the canonical event id references the team.
// Event ids have the shape "AWAY@HOME:date".
func eventInvolves(eventID, teamID string) bool {
	matchup, _, ok := strings.Cut(eventID, ":")
	if !ok {
		return false
	}
	away, home, ok := strings.Cut(matchup, "@")
	if !ok {
		return false
	}
	return away == teamID || home == teamID
}
