package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

// TestMarketKind_Validate tests acceptance of the four known kinds and
// rejection of everything else
func TestMarketKind_Validate(t *testing.T) {
	for _, kind := range []MarketKind{MarketMoneyline, MarketSpread, MarketTotal, MarketPlayerProp} {
		assert.NoError(t, kind.Validate())
	}

	assert.Error(t, MarketKind("futures").Validate())
	assert.Error(t, MarketKind("").Validate())
}

// TestSourceCategory_Validate tests the category whitelist
func TestSourceCategory_Validate(t *testing.T) {
	assert.NoError(t, CategoryAPI.Validate())
	assert.NoError(t, CategoryScrape.Validate())
	assert.Error(t, SourceCategory("websocket").Validate())
}

// TestSelection_ID tests the grouping key shape, including the nil-line marker
func TestSelection_ID(t *testing.T) {
	sel := Selection{
		EventID:    "LAL@BOS:20260115",
		MarketKind: MarketMoneyline,
		Subject:    "BOS",
		Side:       SideHome,
	}
	assert.Equal(t, "LAL@BOS:20260115|moneyline|BOS|home|-", sel.ID())

	line := decimal.NewFromFloat(220.5)
	total := Selection{
		EventID:    "LAL@BOS:20260115",
		MarketKind: MarketTotal,
		Subject:    "game_total",
		Side:       SideOver,
		Line:       &line,
	}
	assert.Equal(t, "LAL@BOS:20260115|total|game_total|over|220.5", total.ID())
}
