package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"scamguard-lab/internal/domain/models"
	"scamguard-lab/internal/infrastructure/database"
)

// Repositories bundles the PostgreSQL repositories
type Repositories struct {
	Categories    *CategoryRepository
	Records       *RecordRepository
	ScanLogs      *ScanLogRepository
	RiskLocations *RiskLocationRepository
}

// NewRepositories creates all repositories on one pool
func NewRepositories(db database.DBTX) *Repositories {
	return &Repositories{
		Categories:    NewCategoryRepository(db),
		Records:       NewRecordRepository(db),
		ScanLogs:      NewScanLogRepository(db),
		RiskLocations: NewRiskLocationRepository(db),
	}
}

// KnowledgeStore adapts the repositories to the knowledge base loader
type KnowledgeStore struct {
	db    *database.PostgresDB
	repos *Repositories
}

// NewKnowledgeStore creates a knowledge store backed by PostgreSQL
func NewKnowledgeStore(db *database.PostgresDB) *KnowledgeStore {
	return &KnowledgeStore{db: db, repos: NewRepositories(db.Pool())}
}

// Name identifies the store
func (s *KnowledgeStore) Name() string {
	return "postgres"
}

// ListCategories returns all scam categories
func (s *KnowledgeStore) ListCategories(ctx context.Context) ([]models.ScamCategory, error) {
	return s.repos.Categories.List(ctx)
}

// ListRecords returns all historical scam records
func (s *KnowledgeStore) ListRecords(ctx context.Context) ([]models.ScamRecord, error) {
	return s.repos.Records.List(ctx)
}

// ListRiskLocations returns the top risk locations
func (s *KnowledgeStore) ListRiskLocations(ctx context.Context, limit int) ([]models.RiskLocation, error) {
	return s.repos.RiskLocations.List(ctx, limit)
}

// Import writes a seed in one transaction. Categories are matched by name;
// records and locations with an existing ID are skipped.
func (s *KnowledgeStore) Import(ctx context.Context, seed *models.KnowledgeSeed) (*models.ImportStats, error) {
	stats := &models.ImportStats{}
	err := s.db.WithTx(ctx, func(tx pgx.Tx) error {
		repos := NewRepositories(tx)
		// an upsert on name may keep the stored ID; records follow it
		remap := make(map[uuid.UUID]uuid.UUID, len(seed.Categories))
		for i := range seed.Categories {
			c := &seed.Categories[i]
			seedID := c.ID
			if err := repos.Categories.Upsert(ctx, c); err != nil {
				return err
			}
			if seedID != uuid.Nil {
				remap[seedID] = c.ID
			}
			stats.Categories++
		}
		for i := range seed.Records {
			if id := seed.Records[i].CategoryID; id != nil {
				if stored, ok := remap[*id]; ok {
					seed.Records[i].CategoryID = &stored
				}
			}
			if err := repos.Records.Create(ctx, &seed.Records[i]); err != nil {
				return err
			}
			stats.Records++
		}
		for i := range seed.RiskLocations {
			if err := repos.RiskLocations.Create(ctx, &seed.RiskLocations[i]); err != nil {
				return err
			}
			stats.RiskLocations++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}
