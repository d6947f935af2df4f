// Package normalizer converts source-specific raw records into canonical
// quotes. Records that cannot be resolved, carry malformed prices, or fall
// outside the cycle window are dropped and counted, never propagated.
package normalizer

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/lineview/odds-aggregator/internal/identity"
	"github.com/lineview/odds-aggregator/internal/metrics"
	"github.com/lineview/odds-aggregator/internal/models"
	"github.com/lineview/odds-aggregator/pkg/oddsmath"
)

// DropStats counts records dropped during one normalization batch.
type DropStats struct {
	Unresolved   int
	Ambiguous    int
	InvalidPrice int
	Stale        int
}

// Total returns the overall number of dropped records.
func (d DropStats) Total() int {
	return d.Unresolved + d.Ambiguous + d.InvalidPrice + d.Stale
}

// Normalizer resolves identities and computes derived quote fields.
type Normalizer struct {
	resolver   *identity.Resolver
	events     *EventRegistry
	selections *SelectionCatalog
	logger     zerolog.Logger
}

// New creates a normalizer backed by the given resolver, event registry, and
// selection catalog.
func New(resolver *identity.Resolver, events *EventRegistry, selections *SelectionCatalog, logger zerolog.Logger) *Normalizer {
	return &Normalizer{
		resolver:   resolver,
		events:     events,
		selections: selections,
		logger:     logger.With().Str("component", "normalizer").Logger(),
	}
}

// NormalizeBatch converts raw records into canonical quotes. Observations
// outside (windowStart, windowEnd] are dropped as stale so one cycle never
// aggregates another cycle's data.
func (n *Normalizer) NormalizeBatch(raws []models.RawQuote, windowStart, windowEnd time.Time) ([]models.Quote, DropStats) {
	quotes := make([]models.Quote, 0, len(raws))
	var stats DropStats

	for _, raw := range raws {
		observed := raw.ObservedAt
		if observed.IsZero() {
			observed = windowEnd
		}
		if observed.After(windowEnd) || !observed.After(windowStart) {
			stats.Stale++
			metrics.RecordsDropped.WithLabelValues("stale").Inc()
			continue
		}

		quote, err := n.normalize(raw, observed, windowEnd)
		if err != nil {
			n.countDrop(err, &stats)
			n.logger.Warn().
				Err(err).
				Str("source_id", raw.SourceID).
				Str("event_label", raw.RawEventLabel).
				Str("selection_label", raw.RawSelectionLabel).
				Msg("dropped raw quote")
			continue
		}
		quotes = append(quotes, quote)
	}

	n.logger.Debug().
		Int("input_count", len(raws)).
		Int("output_count", len(quotes)).
		Int("dropped", stats.Total()).
		Msg("normalized batch")

	return quotes, stats
}

// normalize converts one raw record. Identity lookups are the only impure
// part; everything else is derivation.
func (n *Normalizer) normalize(raw models.RawQuote, observed, windowEnd time.Time) (models.Quote, error) {
	event, err := n.resolveEvent(raw, windowEnd)
	if err != nil {
		return models.Quote{}, err
	}

	sel, err := n.resolveSelection(raw, event)
	if err != nil {
		return models.Quote{}, err
	}

	prob, err := oddsmath.ImpliedProbability(raw.Price)
	if err != nil {
		return models.Quote{}, err
	}

	return models.Quote{
		SourceID:           raw.SourceID,
		SelectionID:        n.selections.Upsert(sel),
		Price:              raw.Price,
		ImpliedProbability: prob,
		ObservedAt:         observed,
	}, nil
}

// resolveEvent maps the raw event label to a canonical event, registering it
// on first sighting. When the source reports no start time the event date
// comes from fallbackDay, one shared reference per batch, so quotes observed
// on either side of a midnight UTC boundary still land on the same event.
func (n *Normalizer) resolveEvent(raw models.RawQuote, fallbackDay time.Time) (models.Event, error) {
	parsed, err := splitEventLabel(raw.RawEventLabel)
	if err != nil {
		return models.Event{}, err
	}

	homeID, err := n.resolver.Resolve(parsed.home, raw.SourceID)
	if err != nil {
		return models.Event{}, err
	}
	awayID, err := n.resolver.Resolve(parsed.away, raw.SourceID)
	if err != nil {
		return models.Event{}, err
	}

	day := raw.StartTime
	if day.IsZero() {
		day = fallbackDay
	}

	ev := models.Event{
		EventID:   fmt.Sprintf("%s@%s:%s", awayID, homeID, day.UTC().Format("20060102")),
		HomeTeam:  n.resolver.DisplayName(homeID),
		AwayTeam:  n.resolver.DisplayName(awayID),
		StartTime: raw.StartTime,
	}
	return n.events.Upsert(ev), nil
}

// resolveSelection builds the canonical selection for a raw record.
func (n *Normalizer) resolveSelection(raw models.RawQuote, event models.Event) (models.Selection, error) {
	sel := models.Selection{
		EventID:    event.EventID,
		MarketKind: raw.MarketKind,
		Line:       raw.Line,
	}

	switch raw.MarketKind {
	case models.MarketMoneyline, models.MarketSpread:
		label := raw.RawSelectionLabel
		if raw.MarketKind == models.MarketSpread {
			stripped, line := trailingNumber(label)
			label = stripped
			if sel.Line == nil {
				sel.Line = line
			}
		}
		teamID, err := n.resolver.Resolve(label, raw.SourceID)
		if err != nil {
			return models.Selection{}, err
		}
		sel.Subject = teamID
		sel.Side, err = n.teamSide(teamID, event, raw.SourceID)
		if err != nil {
			return models.Selection{}, err
		}

	case models.MarketTotal:
		_, side, rest, ok := splitSideLabel(raw.RawSelectionLabel)
		if !ok {
			return models.Selection{}, fmt.Errorf("%w: total label %q has no over/under", models.ErrUnresolved, raw.RawSelectionLabel)
		}
		sel.Subject = subjectGameTotal
		sel.Side = side
		if sel.Line == nil {
			sel.Line = leadingNumber(rest)
		}

	case models.MarketPlayerProp:
		player, side, rest, ok := splitSideLabel(raw.RawSelectionLabel)
		if !ok || player == "" {
			return models.Selection{}, fmt.Errorf("%w: prop label %q has no player and over/under", models.ErrUnresolved, raw.RawSelectionLabel)
		}
		playerID, err := n.resolver.Resolve(player, raw.SourceID)
		if err != nil {
			return models.Selection{}, err
		}
		sel.Subject = playerID
		sel.Side = side
		if sel.Line == nil {
			sel.Line = leadingNumber(rest)
		}

	default:
		return models.Selection{}, fmt.Errorf("%w: unknown market kind %q", models.ErrUnresolved, raw.MarketKind)
	}

	return sel, nil
}

// teamSide places a resolved team on its side of the event.
func (n *Normalizer) teamSide(teamID string, event models.Event, sourceID string) (models.Side, error) {
	homeID, err := n.resolver.Resolve(event.HomeTeam, sourceID)
	if err != nil {
		return models.SideNone, err
	}
	awayID, err := n.resolver.Resolve(event.AwayTeam, sourceID)
	if err != nil {
		return models.SideNone, err
	}

	switch teamID {
	case homeID:
		return models.SideHome, nil
	case awayID:
		return models.SideAway, nil
	}
	return models.SideNone, fmt.Errorf("%w: team %s is not part of event %s", models.ErrUnresolved, teamID, event.EventID)
}

// countDrop classifies a normalization error into drop statistics.
func (n *Normalizer) countDrop(err error, stats *DropStats) {
	switch {
	case errors.Is(err, models.ErrAmbiguous):
		stats.Ambiguous++
		metrics.RecordsDropped.WithLabelValues("ambiguous").Inc()
	case errors.Is(err, models.ErrInvalidPrice):
		stats.InvalidPrice++
		metrics.RecordsDropped.WithLabelValues("invalid_price").Inc()
	default:
		stats.Unresolved++
		metrics.RecordsDropped.WithLabelValues("unresolved").Inc()
	}
}
