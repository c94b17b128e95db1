package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"scamguard-lab/internal/domain/models"
	"scamguard-lab/internal/infrastructure/database"
)

// CategoryRepository handles scam category persistence
type CategoryRepository struct {
	db database.DBTX
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(db database.DBTX) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// List returns all categories ordered by name
func (r *CategoryRepository) List(ctx context.Context) ([]models.ScamCategory, error) {
	query := `
		SELECT id, name, description, risk_level, keywords, created_at
		FROM scam_categories
		ORDER BY name`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := []models.ScamCategory{}
	for rows.Next() {
		var (
			c           models.ScamCategory
			description pgtype.Text
			riskLevel   string
		)
		if err := rows.Scan(&c.ID, &c.Name, &description, &riskLevel, &c.Keywords, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		c.Description = nullTextToString(description)
		c.RiskLevel = models.ParseRiskLevel(riskLevel)
		c.Keywords = stringsOrEmpty(c.Keywords)
		categories = append(categories, c)
	}

	return categories, rows.Err()
}

// Upsert inserts a category or updates the one with the same name
func (r *CategoryRepository) Upsert(ctx context.Context, c *models.ScamCategory) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO scam_categories (id, name, description, risk_level, keywords, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (name) DO UPDATE SET
			description = EXCLUDED.description,
			risk_level = EXCLUDED.risk_level,
			keywords = EXCLUDED.keywords
		RETURNING id, created_at`

	err := r.db.QueryRow(ctx, query,
		c.ID, c.Name, textOrNull(c.Description), riskOrDefault(c.RiskLevel),
		stringsOrEmpty(c.Keywords), c.CreatedAt,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert category %s: %w", c.Name, err)
	}

	return nil
}
