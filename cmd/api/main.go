package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"google.golang.org/grpc"

	"scamguard-lab/internal/api"
	"scamguard-lab/internal/api/handlers"
	apimiddleware "scamguard-lab/internal/api/middleware"
	"scamguard-lab/internal/config"
	"scamguard-lab/internal/domain/services"
	"scamguard-lab/internal/domain/services/ai"
	"scamguard-lab/internal/domain/services/classifier"
	grpchealth "scamguard-lab/internal/grpc/health"
	"scamguard-lab/internal/infrastructure/cache"
	"scamguard-lab/internal/infrastructure/database"
	"scamguard-lab/internal/infrastructure/database/repository"
	"scamguard-lab/internal/infrastructure/sqlitekb"
	"scamguard-lab/internal/metrics"
	"scamguard-lab/internal/streaming"
	"scamguard-lab/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.LoadDefault()
	if err != nil {
		logger.NewProduction(os.Stderr).Fatal().Err(err).Msg("failed to load config")
	}

	// Initialize logger
	log := logger.New(logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		TimeFormat: cfg.Logger.TimeFormat,
	})

	log.Info().
		Str("app", cfg.App.Name).
		Str("env", cfg.App.Environment).
		Str("version", cfg.App.Version).
		Msg("starting ScamGuard Lab")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	infra := initInfrastructure(ctx, cfg, log)
	defer infra.Close()

	// Knowledge base
	kbService := services.NewKnowledgeBaseService(infra.knowledgeStore(), infra.snapshotCache(), services.KnowledgeBaseConfig{
		RefreshInterval: cfg.KnowledgeBase.RefreshInterval,
		CacheTTL:        cfg.KnowledgeBase.CacheTTL,
		LoadTimeout:     cfg.KnowledgeBase.LoadTimeout,
	}, log)
	metrics.Init(kbService)

	kbDone := make(chan struct{})
	go func() {
		defer close(kbDone)
		if err := kbService.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("knowledge base refresher stopped with error")
		}
	}()

	// Classifier and analyzer
	scorer, err := classifier.ScorerByName(cfg.Classifier.ScoringMode)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid classifier configuration")
	}
	clf := classifier.New(classifier.Config{
		Scorer: scorer,
		OnPanic: func(recovered any) {
			log.Error().Interface("panic", recovered).Msg("classifier recovered from internal fault")
		},
	})

	var llm services.LLM
	if cfg.LLM.Enabled && cfg.LLM.APIKey != "" {
		llm = ai.NewLLMClient(ai.LLMConfig{
			BaseURL:     cfg.LLM.BaseURL,
			APIKey:      cfg.LLM.APIKey,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
			Timeout:     cfg.LLM.Timeout,
		}, log)
		log.Info().Str("model", cfg.LLM.Model).Msg("remote model enabled")
	} else {
		log.Warn().Msg("remote model disabled, analysis uses the built-in heuristic")
	}

	var analysisCache services.AnalysisCache
	if infra.redis != nil {
		analysisCache = infra.redis
	}

	analyzer := services.NewScamAnalyzer(clf, llm, analysisCache, kbService, infra.scanSink(cfg.ScanLog), services.AnalyzerConfig{
		CacheTTL:       cfg.LLM.CacheTTL,
		ScanLogTimeout: cfg.ScanLog.Timeout,
	}, log)

	// HTTP
	h := handlers.NewHandlers(handlers.Dependencies{
		Analyzer:      analyzer,
		KnowledgeBase: kbService,
		ScanHistory:   infra.scanHistory(),
		Checks:        infra.httpChecks(),
		Version:       cfg.App.Version,
		Logger:        log,
	})

	router := api.NewRouter(*cfg, h, infra.rateLimiter(), log)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.HTTPPort),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().
			Str("addr", httpServer.Addr).
			Msg("starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// gRPC health
	grpcListener, err := net.Listen("tcp", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.GRPCPort))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create gRPC listener")
	}

	grpcServer := grpc.NewServer()
	grpchealth.Register(ctx, grpcServer, 0, log, infra.grpcChecks()...)

	go func() {
		log.Info().
			Str("addr", grpcListener.Addr().String()).
			Msg("starting gRPC server")
		if err := grpcServer.Serve(grpcListener); err != nil {
			log.Fatal().Err(err).Msg("gRPC server failed")
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	grpcServer.GracefulStop()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// Stop the refresher and let in-flight scan logs finish
	cancel()
	<-kbDone
	analyzer.Wait()

	log.Info().Msg("shutdown complete")
}

// infrastructure holds the optional backing services. Any field may be nil
// when the dependency is disabled or unreachable.
type infrastructure struct {
	config *config.Config
	log    *logger.Logger

	db     *database.PostgresDB
	redis  *cache.RedisCache
	nats   *streaming.NATSPublisher
	sqlite *sqlitekb.Store
}

// initInfrastructure connects to every enabled dependency. Failures are
// logged and the service continues without the dependency.
func initInfrastructure(ctx context.Context, cfg *config.Config, log *logger.Logger) *infrastructure {
	infra := &infrastructure{config: cfg, log: log}

	if cfg.Database.Enabled {
		db, err := database.NewPostgres(ctx, cfg.Database, log)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to PostgreSQL, continuing without database")
		} else {
			infra.db = db
			if cfg.Database.AutoMigrate {
				if err := db.RunMigrations(); err != nil {
					log.Error().Err(err).Msg("failed to apply migrations")
				}
			}
		}
	}

	if cfg.Redis.Enabled {
		redisCache, err := cache.NewRedis(ctx, cfg.Redis, log)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to Redis, continuing without cache")
		} else {
			infra.redis = redisCache
		}
	}

	if cfg.NATS.Enabled {
		publisher, err := streaming.NewNATSPublisher(ctx, cfg.NATS, log)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to NATS, continuing without scan events")
		} else {
			infra.nats = publisher
		}
	}

	if cfg.KnowledgeBase.Source == "sqlite" {
		store, err := sqlitekb.Open(cfg.KnowledgeBase.SQLitePath)
		if err != nil {
			log.Warn().Err(err).Str("path", cfg.KnowledgeBase.SQLitePath).Msg("failed to open SQLite knowledge base")
		} else {
			infra.sqlite = store
		}
	}

	return infra
}

// Close releases every open connection
func (i *infrastructure) Close() {
	if i.nats != nil {
		i.nats.Close()
	}
	if i.sqlite != nil {
		_ = i.sqlite.Close()
	}
	if i.redis != nil {
		_ = i.redis.Close()
	}
	if i.db != nil {
		i.db.Close()
	}
}

// knowledgeStore returns the configured store or a nil interface
func (i *infrastructure) knowledgeStore() services.KnowledgeStore {
	switch i.config.KnowledgeBase.Source {
	case "", "postgres":
		if i.db != nil {
			return repository.NewKnowledgeStore(i.db)
		}
	case "sqlite":
		if i.sqlite != nil {
			return i.sqlite
		}
	}
	i.log.Warn().Str("source", i.config.KnowledgeBase.Source).Msg("no knowledge base store, using built-in keywords")
	return nil
}

func (i *infrastructure) snapshotCache() services.SnapshotCache {
	if i.redis == nil {
		return nil
	}
	return i.redis
}

func (i *infrastructure) rateLimiter() apimiddleware.Limiter {
	if i.redis == nil {
		return nil
	}
	return i.redis
}

// scanSink fans scan logs out to Postgres and NATS
func (i *infrastructure) scanSink(cfg config.ScanLogConfig) services.ScanSink {
	if !cfg.Enabled {
		return nil
	}

	var sinks []services.ScanSink
	if i.db != nil {
		sinks = append(sinks, repository.NewRepositories(i.db.Pool()).ScanLogs)
	}
	if i.nats != nil {
		sinks = append(sinks, i.nats)
	}
	if len(sinks) == 0 {
		i.log.Warn().Msg("scan logging enabled but no sink is available")
		return nil
	}
	return services.NewMultiSink(sinks...)
}

func (i *infrastructure) scanHistory() handlers.ScanHistory {
	if i.db == nil {
		return nil
	}
	return repository.NewRepositories(i.db.Pool()).ScanLogs
}

func (i *infrastructure) httpChecks() []handlers.DependencyCheck {
	var checks []handlers.DependencyCheck
	if i.config.Database.Enabled {
		checks = append(checks, handlers.DependencyCheck{Name: "postgres", Pinger: pingerOr(i.db, "postgres")})
	}
	if i.config.Redis.Enabled {
		checks = append(checks, handlers.DependencyCheck{Name: "redis", Pinger: pingerOr(i.redis, "redis")})
	}
	if i.config.NATS.Enabled {
		checks = append(checks, handlers.DependencyCheck{Name: "nats", Pinger: pingerOr(i.nats, "nats")})
	}
	if i.sqlite != nil {
		checks = append(checks, handlers.DependencyCheck{Name: "sqlite", Pinger: i.sqlite})
	}
	return checks
}

func (i *infrastructure) grpcChecks() []grpchealth.Check {
	var checks []grpchealth.Check
	for _, c := range i.httpChecks() {
		checks = append(checks, grpchealth.Check{Name: c.Name, Pinger: c.Pinger})
	}
	return checks
}

// disconnected stands in for an enabled dependency that failed to connect
type disconnected string

func (d disconnected) Ping(context.Context) error {
	return fmt.Errorf("%s is not connected", string(d))
}

// pingerOr keeps typed nil pointers out of the Pinger interface
func pingerOr[T interface {
	comparable
	handlers.Pinger
}](p T, name string) handlers.Pinger {
	var zero T
	if p == zero {
		return disconnected(name)
	}
	return p
}
