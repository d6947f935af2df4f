package http

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lineview/odds-aggregator/internal/models"
	"github.com/lineview/odds-aggregator/internal/service"
)

// OddsHandler handles HTTP requests for aggregated odds.
type OddsHandler struct {
	service *service.QueryService
	logger  zerolog.Logger
}

// NewOddsHandler creates a new odds HTTP handler.
func NewOddsHandler(service *service.QueryService, logger zerolog.Logger) *OddsHandler {
	return &OddsHandler{
		service: service,
		logger:  logger.With().Str("component", "odds_handler").Logger(),
	}
}

// RegisterRoutes registers HTTP routes with the provided mux.
func (h *OddsHandler) RegisterRoutes(mux *http.ServeMux) {
	// GET /api/v1/odds?event_id=&market= - current aggregated odds
	mux.HandleFunc("/api/v1/odds", h.handleCurrentOdds)

	// GET /api/v1/props?team=&player= - current player props
	mux.HandleFunc("/api/v1/props", h.handleProps)

	// GET /api/v1/movement/:selection_id?window=24h - line movement series
	mux.HandleFunc("/api/v1/movement/", h.handleMovement)
}

// handleCurrentOdds handles GET /api/v1/odds
func (h *OddsHandler) handleCurrentOdds(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.errorResponse(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	filter := service.OddsFilter{
		EventID:    r.URL.Query().Get("event_id"),
		MarketKind: models.MarketKind(r.URL.Query().Get("market")),
	}

	rows, err := h.service.CurrentOdds(r.Context(), filter)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to retrieve current odds")
		h.errorResponse(w, http.StatusInternalServerError, "failed to retrieve odds")
		return
	}

	h.rowsResponse(w, r, rows)
}

// handleProps handles GET /api/v1/props
func (h *OddsHandler) handleProps(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.errorResponse(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	team := r.URL.Query().Get("team")
	player := r.URL.Query().Get("player")

	rows, err := h.service.Props(r.Context(), team, player)
	if err != nil {
		h.logger.Debug().Err(err).Str("team", team).Str("player", player).Msg("props query failed")
		h.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	h.rowsResponse(w, r, rows)
}

// handleMovement handles GET /api/v1/movement/:selection_id
func (h *OddsHandler) handleMovement(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.errorResponse(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	raw := strings.TrimPrefix(r.URL.Path, "/api/v1/movement/")
	selectionID, err := url.PathUnescape(raw)
	if err != nil || selectionID == "" {
		h.errorResponse(w, http.StatusBadRequest, "selection_id is required")
		return
	}

	window := 24 * time.Hour
	if s := r.URL.Query().Get("window"); s != "" {
		window, err = time.ParseDuration(s)
		if err != nil || window <= 0 {
			h.errorResponse(w, http.StatusBadRequest, "invalid window: expected a positive duration like 6h")
			return
		}
	}

	points, err := h.service.Movement(r.Context(), selectionID, window)
	if err != nil {
		h.logger.Error().Err(err).Str("selection_id", selectionID).Msg("failed to retrieve movement")
		h.errorResponse(w, http.StatusInternalServerError, "failed to retrieve movement")
		return
	}

	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"selection_id": selectionID,
		"window":       window.String(),
		"count":        len(points),
		"points":       points,
		"age_seconds":  h.stalenessAge(r),
	})
}

// rowsResponse writes an aggregated-row payload with the staleness indicator.
func (h *OddsHandler) rowsResponse(w http.ResponseWriter, r *http.Request, rows []models.AggregatedRow) {
	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"count":       len(rows),
		"rows":        rows,
		"age_seconds": h.stalenessAge(r),
	})
}

// stalenessAge returns the age of the last snapshot in seconds, or nil when
// no cycle has completed yet.
func (h *OddsHandler) stalenessAge(r *http.Request) interface{} {
	age, ok, err := h.service.StalenessAge(r.Context())
	if err != nil {
		h.logger.Warn().Err(err).Msg("failed to compute staleness")
		return nil
	}
	if !ok {
		return nil
	}
	return age.Seconds()
}

// jsonResponse writes a JSON response.
func (h *OddsHandler) jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error().Err(err).Msg("failed to encode JSON response")
	}
}

// errorResponse writes a JSON error response.
func (h *OddsHandler) errorResponse(w http.ResponseWriter, status int, message string) {
	h.jsonResponse(w, status, map[string]string{
		"error": message,
	})
}
