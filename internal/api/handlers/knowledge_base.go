package handlers

import (
	"errors"
	"net/http"

	"scamguard-lab/internal/domain/models"
	"scamguard-lab/internal/domain/services"
	"scamguard-lab/pkg/logger"
)

// KnowledgeBaseHandler handles knowledge base endpoints
type KnowledgeBaseHandler struct {
	kb     KnowledgeBase
	logger *logger.Logger
}

// NewKnowledgeBaseHandler creates a new KnowledgeBaseHandler
func NewKnowledgeBaseHandler(kb KnowledgeBase, log *logger.Logger) *KnowledgeBaseHandler {
	return &KnowledgeBaseHandler{
		kb:     kb,
		logger: log.WithComponent("knowledge-base-handler"),
	}
}

// Get handles GET /api/v1/knowledge-base
func (h *KnowledgeBaseHandler) Get(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.kb.Summary())
}

// Refresh handles POST /api/v1/knowledge-base/refresh
func (h *KnowledgeBaseHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.kb.Refresh(r.Context()); err != nil {
		h.logger.Warn().Err(err).Msg("manual refresh failed")
		respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	h.logger.Info().Msg("knowledge base refreshed on request")
	respondJSON(w, http.StatusOK, h.kb.Summary())
}

// ImportResponse is the body of a successful import
type ImportResponse struct {
	Imported     *models.ImportStats         `json:"imported"`
	Summary      models.KnowledgeBaseSummary `json:"summary"`
	RefreshError string                      `json:"refresh_error,omitempty"`
}

// Import handles POST /api/v1/knowledge-base/import
func (h *KnowledgeBaseHandler) Import(w http.ResponseWriter, r *http.Request) {
	var seed models.KnowledgeSeed
	if !decodeJSON(w, r, maxSeedBytes, &seed) {
		return
	}

	if err := seed.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	stats, err := h.kb.Import(r.Context(), &seed)
	if stats == nil {
		switch {
		case errors.Is(err, services.ErrImportUnsupported):
			respondError(w, http.StatusNotImplemented, err.Error())
		default:
			h.logger.Error().Err(err).Msg("import failed")
			respondError(w, http.StatusInternalServerError, "import failed")
		}
		return
	}

	// rows were written even if the reload afterwards failed
	resp := ImportResponse{Imported: stats, Summary: h.kb.Summary()}
	if err != nil {
		resp.RefreshError = err.Error()
	}
	respondJSON(w, http.StatusOK, resp)
}
