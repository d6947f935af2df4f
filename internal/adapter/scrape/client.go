// Package scrape pulls quotes from bookmaker pages that expose no API. The
// page's embedded state blob (the JSON a browser app boots from) is extracted
// and decoded; DOM traversal is avoided entirely. Each cycle runs against a
// fresh session so cookies and connections never outlive one pass.
package scrape

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/lineview/odds-aggregator/internal/models"
)

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// Config holds one scraped source's settings.
type Config struct {
	SourceID string // e.g., "fanduel"
	URL      string // league page to scrape
	// StateMarker precedes the embedded JSON blob, e.g.
	// `window.__INITIAL_STATE__ = `. The blob runs to the end of its
	// <script> element.
	StateMarker string
}

// Adapter is a scraping source. It implements adapter.CycleScoped: the
// scheduler opens a session at cycle start and always closes it at cycle end.
type Adapter struct {
	config  Config
	session *session
	logger  zerolog.Logger
}

// New creates a scraping adapter.
func New(config Config, logger zerolog.Logger) *Adapter {
	return &Adapter{
		config: config,
		logger: logger.With().Str("component", "scrape_adapter").Str("source_id", config.SourceID).Logger(),
	}
}

// SourceID implements adapter.Adapter.
func (a *Adapter) SourceID() string { return a.config.SourceID }

// Category implements adapter.Adapter.
func (a *Adapter) Category() models.SourceCategory { return models.CategoryScrape }

// BeginCycle opens a fresh session for this cycle.
func (a *Adapter) BeginCycle(ctx context.Context) error {
	s, err := newSession()
	if err != nil {
		return &models.AdapterError{SourceID: a.config.SourceID, Err: err}
	}
	a.session = s
	return nil
}

// EndCycle tears the session down. Safe to call after a failed BeginCycle.
func (a *Adapter) EndCycle() {
	if a.session != nil {
		a.session.close()
		a.session = nil
	}
}

// Fetch loads the page, extracts the embedded state blob, and converts it to
// raw quotes. Individual malformed entries are skipped; only a failure to
// reach or parse the page at all fails the fetch.
func (a *Adapter) Fetch(ctx context.Context) ([]models.RawQuote, error) {
	if a.session == nil {
		return nil, &models.AdapterError{SourceID: a.config.SourceID, Err: fmt.Errorf("no active session")}
	}

	body, err := a.session.get(ctx, a.config.URL)
	if err != nil {
		return nil, &models.AdapterError{SourceID: a.config.SourceID, Err: err}
	}

	blob, err := extractStateBlob(body, a.config.StateMarker)
	if err != nil {
		return nil, &models.AdapterError{SourceID: a.config.SourceID, Err: err}
	}

	var state pageState
	if err := json.Unmarshal(blob, &state); err != nil {
		return nil, &models.AdapterError{SourceID: a.config.SourceID, Err: fmt.Errorf("decoding state blob: %w", err)}
	}

	observed := time.Now().UTC()
	var quotes []models.RawQuote
	skipped := 0
	for _, ev := range state.Events {
		for _, market := range ev.Markets {
			kind := models.MarketKind(market.Kind)
			if kind.Validate() != nil {
				skipped++
				continue
			}
			for _, sel := range market.Selections {
				if sel.Label == "" || sel.Odds == 0 {
					skipped++
					continue
				}
				quotes = append(quotes, models.RawQuote{
					SourceID:          a.config.SourceID,
					RawEventLabel:     ev.Name,
					RawSelectionLabel: sel.Label,
					MarketKind:        kind,
					Line:              market.line(),
					Price:             sel.Odds,
					StartTime:         ev.StartTime,
					ObservedAt:        observed,
				})
			}
		}
	}

	a.logger.Debug().
		Int("event_count", len(state.Events)).
		Int("quote_count", len(quotes)).
		Int("skipped", skipped).
		Msg("scraped page state")

	return quotes, nil
}

// pageState is the minimal slice of a bookmaker page's boot JSON we read.
type pageState struct {
	Events []struct {
		Name      string    `json:"name"`
		StartTime time.Time `json:"startTime"`
		Markets   []pageMarket `json:"markets"`
	} `json:"events"`
}

type pageMarket struct {
	Kind       string   `json:"kind"`
	Line       *float64 `json:"line,omitempty"`
	Selections []struct {
		Label string `json:"label"`
		Odds  int    `json:"odds"`
	} `json:"selections"`
}

func (m pageMarket) line() *decimal.Decimal {
	if m.Line == nil {
		return nil
	}
	d := decimal.NewFromFloat(*m.Line)
	return &d
}

// extractStateBlob finds the JSON object following marker. The blob ends at
// the closing </script> of its element, or at end of page.
func extractStateBlob(page []byte, marker string) ([]byte, error) {
	idx := strings.Index(string(page), marker)
	if idx < 0 {
		return nil, fmt.Errorf("state marker %q not found in page", marker)
	}
	rest := string(page)[idx+len(marker):]
	if end := strings.Index(rest, "</script>"); end >= 0 {
		rest = rest[:end]
	}
	rest = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(rest), ";"))
	if rest == "" {
		return nil, fmt.Errorf("empty state blob after marker %q", marker)
	}
	return []byte(rest), nil
}

// session is the per-cycle HTTP state: cookie jar plus connection pool.
type session struct {
	client *http.Client
}

func newSession() (*session, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}
	return &session{client: &http.Client{Jar: jar}}, nil
}

func (s *session) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", defaultUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("page fetch error: status=%d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (s *session) close() {
	s.client.CloseIdleConnections()
}
