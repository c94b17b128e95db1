package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"scamguard-lab/internal/domain/models"
	"scamguard-lab/internal/domain/services"
	"scamguard-lab/pkg/logger"
)

const (
	maxBodyBytes = 1 << 20
	maxSeedBytes = 32 << 20
)

// Analyzer runs the analysis operations exposed over HTTP
type Analyzer interface {
	Analyze(ctx context.Context, text string) *models.AnalysisResult
	AnalyzeWithKnowledgeBase(ctx context.Context, text string) *models.AnalysisResult
	Scan(ctx context.Context, req *models.ScanRequest) (*models.ScanReport, error)
	Chat(ctx context.Context, message string) *models.ChatReply
	Stats() services.AnalyzerStats
}

// KnowledgeBase exposes the knowledge base provider
type KnowledgeBase interface {
	Summary() models.KnowledgeBaseSummary
	Refresh(ctx context.Context) error
	Import(ctx context.Context, seed *models.KnowledgeSeed) (*models.ImportStats, error)
	RiskLocations(ctx context.Context, limit int) ([]models.RiskLocation, error)
	ScamStatistics() map[string]models.ScamTypeStats
}

// ScanHistory lists persisted scan logs
type ScanHistory interface {
	ListRecent(ctx context.Context, limit int) ([]models.ScanLog, error)
}

// Handlers holds all API handlers
type Handlers struct {
	Health        *HealthHandler
	Analysis      *AnalysisHandler
	Insights      *InsightsHandler
	KnowledgeBase *KnowledgeBaseHandler
}

// Dependencies holds dependencies for handlers
type Dependencies struct {
	Analyzer      Analyzer
	KnowledgeBase KnowledgeBase
	// ScanHistory may be nil when scan logs are not persisted
	ScanHistory ScanHistory
	Checks      []DependencyCheck
	Version     string
	Logger      *logger.Logger
}

// NewHandlers creates all handlers
func NewHandlers(deps Dependencies) *Handlers {
	return &Handlers{
		Health:        NewHealthHandler(deps.Version, deps.KnowledgeBase, deps.Checks, deps.Logger),
		Analysis:      NewAnalysisHandler(deps.Analyzer, deps.Logger),
		Insights:      NewInsightsHandler(deps.Analyzer, deps.KnowledgeBase, deps.ScanHistory, deps.Logger),
		KnowledgeBase: NewKnowledgeBaseHandler(deps.KnowledgeBase, deps.Logger),
	}
}

// ErrorResponse is the body of every non-2xx answer
type ErrorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, ErrorResponse{Error: msg})
}

// decodeJSON reads a single JSON document of at most limit bytes into dst
// and answers the client itself when the body is unusable
func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit))
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			respondError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
		case errors.Is(err, io.EOF):
			respondError(w, http.StatusBadRequest, "request body is required")
		default:
			respondError(w, http.StatusBadRequest, "invalid request body")
		}
		return false
	}
	return true
}
