package handlers

import (
	"net/http"
	"strconv"

	"scamguard-lab/internal/domain/models"
	"scamguard-lab/pkg/logger"
)

const (
	defaultRiskLocationLimit = 50
	maxRiskLocationLimit     = 500
	defaultScanLimit         = 20
	maxScanLimit             = 200
)

// InsightsHandler serves statistics derived from history and traffic
type InsightsHandler struct {
	analyzer Analyzer
	kb       KnowledgeBase
	scans    ScanHistory
	logger   *logger.Logger
}

// NewInsightsHandler creates a new InsightsHandler
func NewInsightsHandler(a Analyzer, kb KnowledgeBase, scans ScanHistory, log *logger.Logger) *InsightsHandler {
	return &InsightsHandler{
		analyzer: a,
		kb:       kb,
		scans:    scans,
		logger:   log.WithComponent("insights-handler"),
	}
}

// ScamStatsResponse is the body of GET /api/v1/stats/scams
type ScamStatsResponse struct {
	ByType       map[string]models.ScamTypeStats `json:"by_type"`
	TotalRecords int                             `json:"total_records"`
	Degraded     bool                            `json:"degraded"`
}

// ScamStats handles GET /api/v1/stats/scams
func (h *InsightsHandler) ScamStats(w http.ResponseWriter, r *http.Request) {
	byType := h.kb.ScamStatistics()

	total := 0
	for _, s := range byType {
		total += s.Count
	}

	respondJSON(w, http.StatusOK, ScamStatsResponse{
		ByType:       byType,
		TotalRecords: total,
		Degraded:     h.kb.Summary().Degraded,
	})
}

// AnalyzerStats handles GET /api/v1/stats/analyzer
func (h *InsightsHandler) AnalyzerStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.analyzer.Stats())
}

// RiskLocations handles GET /api/v1/risk-locations?limit=N
func (h *InsightsHandler) RiskLocations(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r, defaultRiskLocationLimit, maxRiskLocationLimit)
	if !ok {
		return
	}

	locations, err := h.kb.RiskLocations(r.Context(), limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list risk locations")
		respondError(w, http.StatusServiceUnavailable, "risk locations unavailable")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"data":  locations,
		"total": len(locations),
	})
}

// RecentScans handles GET /api/v1/scans?limit=N
func (h *InsightsHandler) RecentScans(w http.ResponseWriter, r *http.Request) {
	if h.scans == nil {
		respondError(w, http.StatusNotImplemented, "scan history is not stored")
		return
	}

	limit, ok := parseLimit(w, r, defaultScanLimit, maxScanLimit)
	if !ok {
		return
	}

	scans, err := h.scans.ListRecent(r.Context(), limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list scans")
		respondError(w, http.StatusServiceUnavailable, "scan history unavailable")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"data":  scans,
		"total": len(scans),
	})
}

// parseLimit reads ?limit=, capping it at limit
func parseLimit(w http.ResponseWriter, r *http.Request, fallback, limit int) (int, bool) {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return fallback, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		respondError(w, http.StatusBadRequest, "limit must be a positive integer")
		return 0, false
	}
	return min(n, limit), true
}
