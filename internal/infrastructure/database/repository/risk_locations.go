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

// RiskLocationRepository reads and writes scam hotspots
type RiskLocationRepository struct {
	db database.DBTX
}

// NewRiskLocationRepository creates a new risk location repository
func NewRiskLocationRepository(db database.DBTX) *RiskLocationRepository {
	return &RiskLocationRepository{db: db}
}

// List returns up to limit locations with the most incidents first
func (r *RiskLocationRepository) List(ctx context.Context, limit int) ([]models.RiskLocation, error) {
	query := `
		SELECT id, name, address, latitude, longitude, risk_level,
			   crime_count, last_incident_date, location_type, created_at
		FROM risk_locations
		ORDER BY crime_count DESC, name
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list risk locations: %w", err)
	}
	defer rows.Close()

	locations := []models.RiskLocation{}
	for rows.Next() {
		var (
			l            models.RiskLocation
			address      pgtype.Text
			riskLevel    string
			lastIncident pgtype.Timestamptz
			locationType pgtype.Text
		)
		err := rows.Scan(&l.ID, &l.Name, &address, &l.Latitude, &l.Longitude, &riskLevel,
			&l.CrimeCount, &lastIncident, &locationType, &l.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan risk location: %w", err)
		}
		l.Address = nullTextToString(address)
		l.RiskLevel = models.ParseRiskLevel(riskLevel)
		l.LastIncidentDate = timestamptzToTimePtr(lastIncident)
		l.LocationType = nullTextToString(locationType)
		locations = append(locations, l)
	}

	return locations, rows.Err()
}

// Create inserts a risk location
func (r *RiskLocationRepository) Create(ctx context.Context, l *models.RiskLocation) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO risk_locations (
			id, name, address, latitude, longitude, risk_level,
			crime_count, last_incident_date, location_type, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING`

	_, err := r.db.Exec(ctx, query,
		l.ID, l.Name, textOrNull(l.Address), l.Latitude, l.Longitude, riskOrDefault(l.RiskLevel),
		l.CrimeCount, timeToTimestamptzPtr(l.LastIncidentDate), textOrNull(l.LocationType), l.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create risk location: %w", err)
	}

	return nil
}
