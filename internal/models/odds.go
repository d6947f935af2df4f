package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MarketKind identifies the betting market a selection belongs to.
type MarketKind string

const (
	MarketMoneyline  MarketKind = "moneyline"
	MarketSpread     MarketKind = "spread"
	MarketTotal      MarketKind = "total"
	MarketPlayerProp MarketKind = "player_prop"
)

func (k MarketKind) Validate() error {
	switch k {
	case MarketMoneyline, MarketSpread, MarketTotal, MarketPlayerProp:
		return nil
	}
	return fmt.Errorf("unknown market kind %q", string(k))
}

// Side distinguishes opposing outcomes that share the same grouping key
// (Over vs Under on a total, home vs away on a spread).
type Side string

const (
	SideHome  Side = "home"
	SideAway  Side = "away"
	SideOver  Side = "over"
	SideUnder Side = "under"
	SideNone  Side = ""
)

// RawQuote is the shape every source adapter produces, before identity
// resolution. Labels are source-specific free text.
type RawQuote struct {
	SourceID          string           `json:"source_id"`
	RawEventLabel     string           `json:"raw_event_label"`
	RawSelectionLabel string           `json:"raw_selection_label"`
	MarketKind        MarketKind       `json:"market_kind"`
	Line              *decimal.Decimal `json:"line,omitempty"`
	Price             int              `json:"price"` // American odds
	StartTime         time.Time        `json:"start_time,omitzero"`
	ObservedAt        time.Time        `json:"observed_at"`
}

// Event is a canonical game instance, created on first sighting from any
// source and never deleted. StartTime is immutable once set.
type Event struct {
	EventID   string    `json:"event_id"`
	HomeTeam  string    `json:"home_team"`
	AwayTeam  string    `json:"away_team"`
	StartTime time.Time `json:"start_time"`
}

// Selection is one bettable outcome within a market of an event.
// Side is part of the identity: without it Over and Under on the same
// total would collapse into one selection.
type Selection struct {
	EventID    string           `json:"event_id"`
	MarketKind MarketKind       `json:"market_kind"`
	Subject    string           `json:"subject"`
	Side       Side             `json:"side,omitempty"`
	Line       *decimal.Decimal `json:"line,omitempty"`
}

// ID returns the stable selection identifier used as grouping and store key.
func (s Selection) ID() string {
	line := "-"
	if s.Line != nil {
		line = s.Line.String()
	}
	return strings.Join([]string{s.EventID, string(s.MarketKind), s.Subject, string(s.Side), line}, "|")
}

// Quote is one source's current price for one selection.
type Quote struct {
	SourceID           string    `json:"source_id"`
	SelectionID        string    `json:"selection_id"`
	Price              int       `json:"price"` // American odds
	ImpliedProbability float64   `json:"implied_probability"`
	ObservedAt         time.Time `json:"observed_at"`
}

// AggregatedRow is the wide view for one selection across all sources.
// Rebuilt on every aggregation pass, never persisted on its own.
type AggregatedRow struct {
	SelectionID  string           `json:"selection_id"`
	Selection    Selection        `json:"selection"`
	Quotes       map[string]Quote `json:"quotes"` // keyed by source_id
	BestSourceID string           `json:"best_source_id,omitempty"`
}

// BestQuote returns the quote pointed at by BestSourceID, if any.
func (r AggregatedRow) BestQuote() (Quote, bool) {
	q, ok := r.Quotes[r.BestSourceID]
	return q, ok
}

// Snapshot is an immutable, timestamped copy of the full aggregated state
// at one polling cycle.
type Snapshot struct {
	ID      uuid.UUID       `json:"id"`
	TakenAt time.Time       `json:"taken_at"`
	Rows    []AggregatedRow `json:"rows"`
}

// MovementPoint is one step of a selection's line-movement series: the
// per-source prices observed in a single snapshot.
type MovementPoint struct {
	TakenAt time.Time      `json:"taken_at"`
	Prices  map[string]int `json:"prices"` // keyed by source_id
}

// SnapshotMessage is the Kafka payload published for each appended snapshot.
type SnapshotMessage struct {
	SnapshotID string          `json:"snapshot_id"`
	TakenAt    time.Time       `json:"taken_at"`
	RowCount   int             `json:"row_count"`
	Rows       []AggregatedRow `json:"rows"`
}

// SourceCategory splits sources by polling cost: API sources poll on a short
// interval, scraped sources on a longer one.
type SourceCategory string

const (
	CategoryAPI    SourceCategory = "api"
	CategoryScrape SourceCategory = "scrape"
)

func (c SourceCategory) Validate() error {
	switch c {
	case CategoryAPI, CategoryScrape:
		return nil
	}
	return fmt.Errorf("unknown source category %q", string(c))
}
