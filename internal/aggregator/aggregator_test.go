package aggregator

import (
	"math/rand"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lineview/odds-aggregator/internal/models"
	"github.com/lineview/odds-aggregator/internal/normalizer"
)

// testEngineSetup is a helper struct to hold test dependencies
type testEngineSetup struct {
	engine     *Engine
	selections *normalizer.SelectionCatalog
}

// setupTestEngine creates an engine over a fresh selection catalog
func setupTestEngine() *testEngineSetup {
	selections := normalizer.NewSelectionCatalog()
	return &testEngineSetup{
		engine:     New(selections, zerolog.Nop()),
		selections: selections,
	}
}

// quote registers the selection and builds a quote for it
func (s *testEngineSetup) quote(sel models.Selection, source string, price int, observed time.Time) models.Quote {
	return models.Quote{
		SourceID:    source,
		SelectionID: s.selections.Upsert(sel),
		Price:       price,
		ObservedAt:  observed,
	}
}

func mlSelection(eventID, team string, side models.Side) models.Selection {
	return models.Selection{
		EventID:    eventID,
		MarketKind: models.MarketMoneyline,
		Subject:    team,
		Side:       side,
	}
}

// TestAggregate_RowPerDistinctSelection tests that the row count equals the
// number of distinct grouping keys
func TestAggregate_RowPerDistinctSelection(t *testing.T) {
	setup := setupTestEngine()
	now := time.Now().UTC()

	home := mlSelection("LAL@BOS:20260115", "BOS", models.SideHome)
	away := mlSelection("LAL@BOS:20260115", "LAL", models.SideAway)

	rows := setup.engine.Aggregate([]models.Quote{
		setup.quote(home, "draftkings", -150, now),
		setup.quote(home, "fanduel", -145, now),
		setup.quote(away, "draftkings", 130, now),
	})

	require.Len(t, rows, 2)
	assert.Len(t, rows[0].Quotes, 2)
	assert.Len(t, rows[1].Quotes, 1)
}

// TestAggregate_PermutationInvariance tests that input order does not change
// the output
func TestAggregate_PermutationInvariance(t *testing.T) {
	setup := setupTestEngine()
	now := time.Now().UTC()

	home := mlSelection("LAL@BOS:20260115", "BOS", models.SideHome)
	away := mlSelection("LAL@BOS:20260115", "LAL", models.SideAway)

	quotes := []models.Quote{
		setup.quote(home, "draftkings", -150, now),
		setup.quote(home, "fanduel", -145, now.Add(time.Second)),
		setup.quote(home, "betmgm", -155, now.Add(2*time.Second)),
		setup.quote(away, "draftkings", 130, now),
		setup.quote(away, "fanduel", 135, now.Add(time.Second)),
	}

	baseline := setup.engine.Aggregate(quotes)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := make([]models.Quote, len(quotes))
		copy(shuffled, quotes)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		assert.Equal(t, baseline, setup.engine.Aggregate(shuffled))
	}
}

// TestAggregate_BestPrice tests that the numerically highest price wins
func TestAggregate_BestPrice(t *testing.T) {
	setup := setupTestEngine()
	now := time.Now().UTC()

	sel := mlSelection("LAL@BOS:20260115", "BOS", models.SideHome)

	rows := setup.engine.Aggregate([]models.Quote{
		setup.quote(sel, "sourceA", -110, now),
		setup.quote(sel, "sourceB", 105, now),
		setup.quote(sel, "sourceC", -120, now),
	})

	require.Len(t, rows, 1)
	assert.Equal(t, "sourceB", rows[0].BestSourceID)

	best, ok := rows[0].BestQuote()
	require.True(t, ok)
	assert.Equal(t, 105, best.Price)
}

// TestAggregate_MissingSourceExcluded tests that a source with no quote is
// absent from the comparison rather than treated as worst
func TestAggregate_MissingSourceExcluded(t *testing.T) {
	setup := setupTestEngine()
	now := time.Now().UTC()

	sel := mlSelection("LAL@BOS:20260115", "BOS", models.SideHome)

	rows := setup.engine.Aggregate([]models.Quote{
		setup.quote(sel, "sourceA", -110, now),
		setup.quote(sel, "sourceB", 105, now),
	})

	require.Len(t, rows, 1)
	assert.NotContains(t, rows[0].Quotes, "sourceD")
	assert.Len(t, rows[0].Quotes, 2)
}

// TestAggregate_BestPriceTieBreaksToEarliest tests the first-seen tie break
func TestAggregate_BestPriceTieBreaksToEarliest(t *testing.T) {
	setup := setupTestEngine()
	now := time.Now().UTC()

	sel := mlSelection("LAL@BOS:20260115", "BOS", models.SideHome)

	rows := setup.engine.Aggregate([]models.Quote{
		setup.quote(sel, "late", -110, now.Add(time.Second)),
		setup.quote(sel, "early", -110, now),
	})

	require.Len(t, rows, 1)
	assert.Equal(t, "early", rows[0].BestSourceID)
}

// TestAggregate_LaterObservationReplacesEarlier tests same-source supersession
// within one pass
func TestAggregate_LaterObservationReplacesEarlier(t *testing.T) {
	setup := setupTestEngine()
	now := time.Now().UTC()

	sel := mlSelection("LAL@BOS:20260115", "BOS", models.SideHome)

	rows := setup.engine.Aggregate([]models.Quote{
		setup.quote(sel, "draftkings", -150, now),
		setup.quote(sel, "draftkings", -140, now.Add(time.Second)),
	})

	require.Len(t, rows, 1)
	require.Contains(t, rows[0].Quotes, "draftkings")
	assert.Equal(t, -140, rows[0].Quotes["draftkings"].Price)
}

// TestAggregate_EmptyInput tests the zero-quote pass
func TestAggregate_EmptyInput(t *testing.T) {
	setup := setupTestEngine()

	rows := setup.engine.Aggregate(nil)

	assert.Empty(t, rows)
}

// TestAggregate_RowsSortedBySelectionID tests deterministic output ordering
func TestAggregate_RowsSortedBySelectionID(t *testing.T) {
	setup := setupTestEngine()
	now := time.Now().UTC()

	a := mlSelection("LAL@BOS:20260115", "BOS", models.SideHome)
	b := mlSelection("LAL@BOS:20260115", "LAL", models.SideAway)
	c := mlSelection("GSW@PHX:20260115", "PHX", models.SideHome)

	rows := setup.engine.Aggregate([]models.Quote{
		setup.quote(a, "draftkings", -150, now),
		setup.quote(b, "draftkings", 130, now),
		setup.quote(c, "draftkings", -105, now),
	})

	require.Len(t, rows, 3)
	assert.Less(t, rows[0].SelectionID, rows[1].SelectionID)
	assert.Less(t, rows[1].SelectionID, rows[2].SelectionID)
}
