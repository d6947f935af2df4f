// Package oddsapi polls a REST odds feed (The Odds API v4 shape) and maps
// one configured bookmaker's prices into raw quotes.
package oddsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/lineview/odds-aggregator/internal/models"
)

// Config holds one API source's settings. Each enabled bookmaker gets its
// own adapter instance so sources stay independent.
type Config struct {
	SourceID  string   // e.g., "draftkings"
	BaseURL   string   // e.g., "https://api.the-odds-api.com"
	APIKey    string
	SportKey  string   // e.g., "basketball_nba"
	Bookmaker string   // bookmaker key to extract, e.g., "draftkings"
	Markets   []string // e.g., ["h2h", "spreads", "totals"]
}

// Adapter is a polled REST source.
type Adapter struct {
	config     Config
	httpClient *http.Client
	logger     zerolog.Logger
}

// New creates a REST odds adapter. The HTTP client carries no timeout of its
// own; the scheduler's per-fetch context bounds every call.
func New(config Config, logger zerolog.Logger) *Adapter {
	return &Adapter{
		config:     config,
		httpClient: &http.Client{},
		logger:     logger.With().Str("component", "oddsapi_adapter").Str("source_id", config.SourceID).Logger(),
	}
}

// SourceID implements adapter.Adapter.
func (a *Adapter) SourceID() string { return a.config.SourceID }

// Category implements adapter.Adapter.
func (a *Adapter) Category() models.SourceCategory { return models.CategoryAPI }

// Fetch pulls the feed and converts the configured bookmaker's outcomes into
// raw quotes.
func (a *Adapter) Fetch(ctx context.Context) ([]models.RawQuote, error) {
	events, err := a.fetchEvents(ctx)
	if err != nil {
		return nil, &models.AdapterError{SourceID: a.config.SourceID, Err: err}
	}

	observed := time.Now().UTC()
	var quotes []models.RawQuote
	for _, ev := range events {
		label := fmt.Sprintf("%s @ %s", ev.AwayTeam, ev.HomeTeam)
		for _, book := range ev.Bookmakers {
			if book.Key != a.config.Bookmaker {
				continue
			}
			for _, market := range book.Markets {
				kind, ok := marketKind(market.Key)
				if !ok {
					continue
				}
				for _, outcome := range market.Outcomes {
					quotes = append(quotes, models.RawQuote{
						SourceID:          a.config.SourceID,
						RawEventLabel:     label,
						RawSelectionLabel: selectionLabel(kind, outcome),
						MarketKind:        kind,
						Line:              pointToLine(outcome.Point),
						Price:             int(math.Round(outcome.Price)),
						StartTime:         ev.CommenceTime,
						ObservedAt:        observed,
					})
				}
			}
		}
	}

	a.logger.Debug().
		Int("event_count", len(events)).
		Int("quote_count", len(quotes)).
		Msg("fetched odds feed")

	return quotes, nil
}

// feedEvent mirrors the feed's event payload, narrowed to the fields we use.
type feedEvent struct {
	ID           string         `json:"id"`
	HomeTeam     string         `json:"home_team"`
	AwayTeam     string         `json:"away_team"`
	CommenceTime time.Time      `json:"commence_time"`
	Bookmakers   []feedBookmaker `json:"bookmakers"`
}

type feedBookmaker struct {
	Key     string       `json:"key"`
	Markets []feedMarket `json:"markets"`
}

type feedMarket struct {
	Key      string        `json:"key"`
	Outcomes []feedOutcome `json:"outcomes"`
}

type feedOutcome struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"` // player name on prop markets
	Price       float64  `json:"price"`
	Point       *float64 `json:"point,omitempty"`
}

func (a *Adapter) fetchEvents(ctx context.Context) ([]feedEvent, error) {
	q := url.Values{}
	q.Set("apiKey", a.config.APIKey)
	q.Set("regions", "us")
	q.Set("oddsFormat", "american")
	q.Set("markets", strings.Join(a.config.Markets, ","))
	endpoint := fmt.Sprintf("%s/v4/sports/%s/odds?%s", a.config.BaseURL, a.config.SportKey, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("odds feed error: status=%d, body=%s", resp.StatusCode, string(body))
	}

	var events []feedEvent
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return events, nil
}

// marketKind maps feed market keys to canonical market kinds. Player prop
// markets all arrive with a "player_" prefix.
func marketKind(key string) (models.MarketKind, bool) {
	switch {
	case key == "h2h":
		return models.MarketMoneyline, true
	case key == "spreads":
		return models.MarketSpread, true
	case key == "totals":
		return models.MarketTotal, true
	case strings.HasPrefix(key, "player_"):
		return models.MarketPlayerProp, true
	}
	return "", false
}

// selectionLabel builds the free-text label the normalizer expects. Prop
// outcomes carry the player in Description and the side in Name.
func selectionLabel(kind models.MarketKind, outcome feedOutcome) string {
	if kind == models.MarketPlayerProp && outcome.Description != "" {
		return fmt.Sprintf("%s %s", outcome.Description, outcome.Name)
	}
	return outcome.Name
}

func pointToLine(point *float64) *decimal.Decimal {
	if point == nil {
		return nil
	}
	d := decimal.NewFromFloat(*point)
	return &d
}
