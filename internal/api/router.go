package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"scamguard-lab/internal/api/handlers"
	apimiddleware "scamguard-lab/internal/api/middleware"
	"scamguard-lab/internal/config"
	"scamguard-lab/pkg/logger"
)

// Router holds dependencies for the API router
type Router struct {
	config   config.Config
	handlers *handlers.Handlers
	limiter  apimiddleware.Limiter
	metrics  http.Handler
	logger   *logger.Logger
}

// NewRouter creates a new Router instance. limiter may be nil, which
// disables rate limiting regardless of configuration.
func NewRouter(cfg config.Config, h *handlers.Handlers, limiter apimiddleware.Limiter, log *logger.Logger) *Router {
	return &Router{
		config:   cfg,
		handlers: h,
		limiter:  limiter,
		metrics:  promhttp.Handler(),
		logger:   log.WithComponent("router"),
	}
}

// Setup sets up the Chi router with all routes and middleware
func (r *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Core middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(apimiddleware.Logger(r.logger))
	router.Use(middleware.Recoverer)

	timeout := r.config.Server.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	router.Use(middleware.Timeout(timeout))

	// CORS
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   r.config.CORS.AllowedOrigins,
		AllowedMethods:   r.config.CORS.AllowedMethods,
		AllowedHeaders:   r.config.CORS.AllowedHeaders,
		AllowCredentials: r.config.CORS.AllowCredentials,
		MaxAge:           r.config.CORS.MaxAge,
	}))

	// Probes and scrapes stay outside the rate limit
	router.Get("/health", r.handlers.Health.Check)
	router.Get("/ready", r.handlers.Health.Ready)
	router.Method(http.MethodGet, "/metrics", r.metrics)

	router.Route("/api/v1", func(api chi.Router) {
		if r.config.RateLimit.Enabled && r.limiter != nil {
			api.Use(apimiddleware.RateLimiter(r.limiter, r.config.RateLimit, r.logger))
		}

		api.Post("/analyze", r.handlers.Analysis.Analyze)
		api.Post("/analyze/local", r.handlers.Analysis.AnalyzeLocal)
		api.Post("/scan", r.handlers.Analysis.Scan)
		api.Post("/chat", r.handlers.Analysis.Chat)

		api.Route("/stats", func(stats chi.Router) {
			stats.Get("/scams", r.handlers.Insights.ScamStats)
			stats.Get("/analyzer", r.handlers.Insights.AnalyzerStats)
		})

		api.Get("/risk-locations", r.handlers.Insights.RiskLocations)

		api.Get("/knowledge-base", r.handlers.KnowledgeBase.Get)

		api.Group(func(admin chi.Router) {
			admin.Use(apimiddleware.AdminAuth(r.config.Auth.AdminToken))
			admin.Post("/knowledge-base/refresh", r.handlers.KnowledgeBase.Refresh)
			admin.Post("/knowledge-base/import", r.handlers.KnowledgeBase.Import)
			admin.Get("/scans", r.handlers.Insights.RecentScans)
		})
	})

	router.NotFound(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"not found"}`))
	})

	return router
}
