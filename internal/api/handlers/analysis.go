package handlers

import (
	"errors"
	"net/http"
	"strings"

	"scamguard-lab/internal/domain/models"
	"scamguard-lab/internal/domain/services"
	"scamguard-lab/pkg/logger"
)

// AnalysisHandler handles text analysis endpoints
type AnalysisHandler struct {
	analyzer Analyzer
	logger   *logger.Logger
}

// NewAnalysisHandler creates a new AnalysisHandler
func NewAnalysisHandler(a Analyzer, log *logger.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		analyzer: a,
		logger:   log.WithComponent("analysis-handler"),
	}
}

// Analyze handles POST /api/v1/analyze - remote model with heuristic fallback
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req models.AnalyzeRequest
	if !decodeJSON(w, r, maxBodyBytes, &req) {
		return
	}

	respondJSON(w, http.StatusOK, h.analyzer.Analyze(r.Context(), req.Text))
}

// AnalyzeLocal handles POST /api/v1/analyze/local - knowledge base heuristic only
func (h *AnalysisHandler) AnalyzeLocal(w http.ResponseWriter, r *http.Request) {
	var req models.AnalyzeRequest
	if !decodeJSON(w, r, maxBodyBytes, &req) {
		return
	}

	respondJSON(w, http.StatusOK, h.analyzer.AnalyzeWithKnowledgeBase(r.Context(), req.Text))
}

// Scan handles POST /api/v1/scan
func (h *AnalysisHandler) Scan(w http.ResponseWriter, r *http.Request) {
	var req models.ScanRequest
	if !decodeJSON(w, r, maxBodyBytes, &req) {
		return
	}

	report, err := h.analyzer.Scan(r.Context(), &req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidScanType) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error().Err(err).Msg("scan failed")
		respondError(w, http.StatusInternalServerError, "scan failed")
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// Chat handles POST /api/v1/chat
func (h *AnalysisHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if !decodeJSON(w, r, maxBodyBytes, &req) {
		return
	}

	if strings.TrimSpace(req.Message) == "" {
		respondError(w, http.StatusBadRequest, "message is required")
		return
	}

	respondJSON(w, http.StatusOK, h.analyzer.Chat(r.Context(), req.Message))
}
