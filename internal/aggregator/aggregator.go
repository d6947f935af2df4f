// Package aggregator builds the wide per-source view: one row per distinct
// selection, one column per source, plus the best-price pointer. Aggregation
// is a pure grouping pass with no state carried between calls, so the output
// is identical for any permutation of the input.
package aggregator

import (
	"sort"

	"github.com/rs/zerolog"

	"github.com/lineview/odds-aggregator/internal/metrics"
	"github.com/lineview/odds-aggregator/internal/models"
)

// SelectionLookup resolves a selection id to the full entity. Satisfied by
// normalizer.SelectionCatalog.
type SelectionLookup interface {
	Get(id string) (models.Selection, bool)
}

// Engine groups quotes by selection and selects the best price per row.
type Engine struct {
	selections SelectionLookup
	logger     zerolog.Logger
}

// New creates an aggregation engine.
func New(selections SelectionLookup, logger zerolog.Logger) *Engine {
	return &Engine{
		selections: selections,
		logger:     logger.With().Str("component", "aggregator").Logger(),
	}
}

// Aggregate builds one AggregatedRow per distinct selection in the input.
// Within a row, at most one quote per source is retained: a later observation
// for the same (source, selection) replaces an earlier one. Rows are returned
// sorted by selection id.
func (e *Engine) Aggregate(quotes []models.Quote) []models.AggregatedRow {
	byselection := make(map[string]*models.AggregatedRow)

	for _, q := range quotes {
		row, ok := byselection[q.SelectionID]
		if !ok {
			sel, found := e.selections.Get(q.SelectionID)
			if !found {
				e.logger.Warn().
					Str("selection_id", q.SelectionID).
					Msg("quote references unknown selection, skipping")
				continue
			}
			row = &models.AggregatedRow{
				SelectionID: q.SelectionID,
				Selection:   sel,
				Quotes:      make(map[string]models.Quote),
			}
			byselection[q.SelectionID] = row
		}

		prev, exists := row.Quotes[q.SourceID]
		if exists && !replaces(q, prev) {
			continue
		}
		row.Quotes[q.SourceID] = q
	}

	rows := make([]models.AggregatedRow, 0, len(byselection))
	for _, row := range byselection {
		row.BestSourceID = bestSource(row.Quotes)
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].SelectionID < rows[j].SelectionID })

	metrics.QuotesAggregated.Add(float64(len(quotes)))
	e.logger.Debug().
		Int("quote_count", len(quotes)).
		Int("row_count", len(rows)).
		Msg("aggregation pass complete")

	return rows
}

// replaces reports whether candidate supersedes existing for the same
// (source, selection). Later observations win; on an exact timestamp tie the
// higher price wins so input order cannot influence the result.
func replaces(candidate, existing models.Quote) bool {
	if candidate.ObservedAt.After(existing.ObservedAt) {
		return true
	}
	return candidate.ObservedAt.Equal(existing.ObservedAt) && candidate.Price > existing.Price
}

// bestSource picks the source offering the numerically highest American price
// for this selection. Ties break to the earliest observation, then to the
// lexicographically smallest source id. Sources with no quote simply do not
// compete.
func bestSource(quotes map[string]models.Quote) string {
	best := ""
	for sourceID, q := range quotes {
		if best == "" {
			best = sourceID
			continue
		}
		cur := quotes[best]
		switch {
		case q.Price > cur.Price:
			best = sourceID
		case q.Price == cur.Price && q.ObservedAt.Before(cur.ObservedAt):
			best = sourceID
		case q.Price == cur.Price && q.ObservedAt.Equal(cur.ObservedAt) && sourceID < best:
			best = sourceID
		}
	}
	return best
}
