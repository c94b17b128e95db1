package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"scamguard-lab/internal/domain/models"
	"scamguard-lab/internal/domain/services/classifier"
	"scamguard-lab/internal/infrastructure/cache"
	"scamguard-lab/internal/metrics"
	"scamguard-lab/pkg/logger"
)

var (
	// ErrKnowledgeBaseUnavailable is returned when no store could be read
	ErrKnowledgeBaseUnavailable = errors.New("knowledge base unavailable")
	// ErrImportUnsupported is returned when the configured store is read-only
	ErrImportUnsupported = errors.New("knowledge base store does not support import")
)

// KnowledgeStore loads scam categories and historical records
type KnowledgeStore interface {
	Name() string
	ListCategories(ctx context.Context) ([]models.ScamCategory, error)
	ListRecords(ctx context.Context) ([]models.ScamRecord, error)
}

// KnowledgeImporter is implemented by stores that accept bulk seeds
type KnowledgeImporter interface {
	Import(ctx context.Context, seed *models.KnowledgeSeed) (*models.ImportStats, error)
}

// RiskLocationLister is implemented by stores that keep risk locations
type RiskLocationLister interface {
	ListRiskLocations(ctx context.Context, limit int) ([]models.RiskLocation, error)
}

// SnapshotCache keeps the last good load so a restart survives a store outage
type SnapshotCache interface {
	SaveKnowledgeSnapshot(ctx context.Context, snap *cache.KnowledgeSnapshot, ttl time.Duration) error
	LoadKnowledgeSnapshot(ctx context.Context) (*cache.KnowledgeSnapshot, error)
}

// KnowledgeBaseConfig tunes the knowledge base provider
type KnowledgeBaseConfig struct {
	RefreshInterval time.Duration
	CacheTTL        time.Duration
	LoadTimeout     time.Duration
}

type snapshot struct {
	kb       *classifier.KnowledgeBase
	source   string
	degraded bool
}

// KnowledgeBaseService publishes immutable knowledge base snapshots.
// Readers call Current and never block on a refresh.
type KnowledgeBaseService struct {
	store  KnowledgeStore
	cache  SnapshotCache
	config KnowledgeBaseConfig
	logger *logger.Logger

	current atomic.Pointer[snapshot]
	group   singleflight.Group

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
}

// NewKnowledgeBaseService creates the provider. store and snapCache may be
// nil; until the first successful Refresh the snapshot is empty and degraded.
func NewKnowledgeBaseService(store KnowledgeStore, snapCache SnapshotCache, cfg KnowledgeBaseConfig, log *logger.Logger) *KnowledgeBaseService {
	if cfg.LoadTimeout <= 0 {
		cfg.LoadTimeout = 10 * time.Second
	}
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = 10 * time.Minute
	}

	s := &KnowledgeBaseService{
		store:  store,
		cache:  snapCache,
		config: cfg,
		logger: log.WithComponent("knowledge-base"),
	}
	s.current.Store(&snapshot{kb: classifier.EmptyKnowledgeBase(), source: "none", degraded: true})
	return s
}

// Current returns the snapshot in use
func (s *KnowledgeBaseService) Current() *classifier.KnowledgeBase {
	return s.current.Load().kb
}

// Summary describes the snapshot in use
func (s *KnowledgeBaseService) Summary() models.KnowledgeBaseSummary {
	snap := s.current.Load()
	keywords := len(classifier.DefaultKeywords)
	if ks := snap.kb.KeywordSet(); ks != nil {
		keywords = ks.Len()
	}
	return models.KnowledgeBaseSummary{
		Categories: len(snap.kb.Categories()),
		Records:    len(snap.kb.Records()),
		Keywords:   keywords,
		LoadedAt:   snap.kb.LoadedAt(),
		Source:     snap.source,
		Degraded:   snap.degraded,
	}
}

// Refresh reloads the snapshot from the store. Concurrent calls share one
// load. On failure the previous snapshot stays in place; if nothing was ever
// loaded the cached snapshot is tried. The shared load is detached from the
// caller's cancellation and bounded by LoadTimeout.
func (s *KnowledgeBaseService) Refresh(ctx context.Context) error {
	ch := s.group.DoChan("refresh", func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.LoadTimeout)
		defer cancel()
		return nil, s.refresh(loadCtx)
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *KnowledgeBaseService) refresh(ctx context.Context) error {
	if s.store == nil {
		return s.fallback(ctx, ErrKnowledgeBaseUnavailable)
	}

	start := time.Now()
	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return s.fallback(ctx, fmt.Errorf("%w: failed to load categories: %v", ErrKnowledgeBaseUnavailable, err))
	}
	records, err := s.store.ListRecords(ctx)
	if err != nil {
		return s.fallback(ctx, fmt.Errorf("%w: failed to load records: %v", ErrKnowledgeBaseUnavailable, err))
	}

	loadedAt := time.Now()
	s.current.Store(&snapshot{
		kb:     classifier.NewKnowledgeBase(categories, records, loadedAt),
		source: s.store.Name(),
	})
	metrics.RecordRefresh(true)

	s.logger.Info().
		Int("categories", len(categories)).
		Int("records", len(records)).
		Dur("duration", time.Since(start)).
		Msg("knowledge base loaded")

	if s.cache != nil {
		snap := &cache.KnowledgeSnapshot{Categories: categories, Records: records, LoadedAt: loadedAt}
		if err := s.cache.SaveKnowledgeSnapshot(ctx, snap, s.config.CacheTTL); err != nil {
			s.logger.Warn().Err(err).Msg("failed to cache knowledge base snapshot")
		}
	}

	return nil
}

// fallback keeps the service answering after a failed load
func (s *KnowledgeBaseService) fallback(ctx context.Context, cause error) error {
	metrics.RecordRefresh(false)

	if !s.current.Load().degraded {
		s.logger.Warn().Err(cause).Msg("knowledge base refresh failed, keeping previous snapshot")
		return cause
	}

	if s.cache != nil {
		snap, err := s.cache.LoadKnowledgeSnapshot(ctx)
		if err == nil {
			s.current.Store(&snapshot{
				kb:       classifier.NewKnowledgeBase(snap.Categories, snap.Records, snap.LoadedAt),
				source:   "cache",
				degraded: true,
			})
			s.logger.Warn().Err(cause).
				Time("loaded_at", snap.LoadedAt).
				Msg("knowledge base store unavailable, using cached snapshot")
			return cause
		}
		if !errors.Is(err, cache.ErrMiss) {
			s.logger.Warn().Err(err).Msg("failed to read cached knowledge base snapshot")
		}
	}

	s.logger.Warn().Err(cause).Msg("knowledge base unavailable, using built-in keywords")
	return cause
}

// Start refreshes once and then on every interval until ctx is done or
// Stop is called
func (s *KnowledgeBaseService) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.mu.Unlock()

	s.logger.Info().Dur("interval", s.config.RefreshInterval).Msg("knowledge base refresher started")
	_ = s.Refresh(ctx)

	ticker := time.NewTicker(s.config.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.Stop()
			return ctx.Err()
		case <-stopCh:
			return nil
		case <-ticker.C:
			_ = s.Refresh(ctx)
		}
	}
}

// Stop stops the refresher
func (s *KnowledgeBaseService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	s.running = false
	close(s.stopCh)
	s.logger.Info().Msg("knowledge base refresher stopped")
}

// Import writes seed to the store and reloads the snapshot
func (s *KnowledgeBaseService) Import(ctx context.Context, seed *models.KnowledgeSeed) (*models.ImportStats, error) {
	importer, ok := s.store.(KnowledgeImporter)
	if !ok {
		return nil, ErrImportUnsupported
	}

	stats, err := importer.Import(ctx, seed)
	if err != nil {
		return nil, fmt.Errorf("failed to import knowledge base: %w", err)
	}

	s.logger.Info().
		Int("categories", stats.Categories).
		Int("records", stats.Records).
		Int("risk_locations", stats.RiskLocations).
		Msg("knowledge base imported")

	if err := s.Refresh(ctx); err != nil {
		return stats, err
	}
	return stats, nil
}

// RiskLocations returns up to limit locations with the most incidents first.
// Stores without location data yield an empty list.
func (s *KnowledgeBaseService) RiskLocations(ctx context.Context, limit int) ([]models.RiskLocation, error) {
	lister, ok := s.store.(RiskLocationLister)
	if !ok {
		return []models.RiskLocation{}, nil
	}
	locations, err := lister.ListRiskLocations(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list risk locations: %w", err)
	}
	return locations, nil
}

// ScamStatistics aggregates the snapshot's records by scam_type tag
func (s *KnowledgeBaseService) ScamStatistics() map[string]models.ScamTypeStats {
	return ScamStatistics(s.Current().Records())
}

// ScamStatistics aggregates records by scam_type tag
func ScamStatistics(records []models.ScamRecord) map[string]models.ScamTypeStats {
	stats := make(map[string]models.ScamTypeStats)
	for _, r := range records {
		st := stats[r.ScamType]
		st.Count++
		st.TotalVictims += r.VictimCount
		st.TotalLoss += r.FinancialLoss
		if r.RiskLevel == models.RiskLevelHigh {
			st.HighRiskCount++
		}
		stats[r.ScamType] = st
	}
	return stats
}
