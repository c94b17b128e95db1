package handlers

import (
	"context"
	"net/http"
	"time"

	"scamguard-lab/internal/domain/models"
	"scamguard-lab/pkg/logger"
)

// Pinger is a dependency that can report its reachability
type Pinger interface {
	Ping(ctx context.Context) error
}

// DependencyCheck names a dependency probed by /ready
type DependencyCheck struct {
	Name   string
	Pinger Pinger
}

// HealthHandler handles health check endpoints
type HealthHandler struct {
	version   string
	kb        KnowledgeBase
	checks    []DependencyCheck
	logger    *logger.Logger
	startTime time.Time
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(version string, kb KnowledgeBase, checks []DependencyCheck, log *logger.Logger) *HealthHandler {
	return &HealthHandler{
		version:   version,
		kb:        kb,
		checks:    checks,
		logger:    log.WithComponent("health"),
		startTime: time.Now(),
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status        string                       `json:"status"`
	Version       string                       `json:"version"`
	Uptime        string                       `json:"uptime"`
	Timestamp     string                       `json:"timestamp"`
	Checks        map[string]string            `json:"checks,omitempty"`
	KnowledgeBase *models.KnowledgeBaseSummary `json:"knowledge_base,omitempty"`
}

// Check handles GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Version:   h.version,
		Uptime:    time.Since(h.startTime).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready handles GET /ready - checks all dependencies. A degraded knowledge
// base is reported but does not fail readiness since analysis still works.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string, len(h.checks)+1)
	status := http.StatusOK
	overallStatus := "ready"

	for _, c := range h.checks {
		if c.Pinger == nil {
			checks[c.Name] = "not configured"
			continue
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		err := c.Pinger.Ping(ctx)
		cancel()

		if err != nil {
			h.logger.Warn().Err(err).Str("check", c.Name).Msg("dependency unhealthy")
			checks[c.Name] = "unhealthy: " + err.Error()
			status = http.StatusServiceUnavailable
			overallStatus = "not ready"
		} else {
			checks[c.Name] = "healthy"
		}
	}

	response := HealthResponse{
		Status:    overallStatus,
		Version:   h.version,
		Uptime:    time.Since(h.startTime).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	}

	if h.kb != nil {
		summary := h.kb.Summary()
		response.KnowledgeBase = &summary
		if summary.Degraded {
			checks["knowledge_base"] = "degraded: " + summary.Source
		} else {
			checks["knowledge_base"] = "healthy"
		}
	}

	respondJSON(w, status, response)
}
