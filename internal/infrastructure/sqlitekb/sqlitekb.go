// Package sqlitekb keeps a scam knowledge base in a local SQLite file for
// deployments and CLI runs without PostgreSQL.
package sqlitekb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"scamguard-lab/internal/domain/models"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS scam_categories (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    description TEXT,
    risk_level TEXT NOT NULL,
    keywords TEXT NOT NULL DEFAULT '[]',
    created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS scam_records (
    id TEXT PRIMARY KEY,
    category_id TEXT,
    title TEXT NOT NULL,
    description TEXT,
    scam_type TEXT NOT NULL,
    detected_text TEXT,
    keywords_found TEXT NOT NULL DEFAULT '[]',
    risk_level TEXT NOT NULL,
    confidence_score REAL NOT NULL DEFAULT 0,
    location TEXT,
    reported_date TEXT,
    victim_count INTEGER NOT NULL DEFAULT 0,
    financial_loss REAL NOT NULL DEFAULT 0,
    source TEXT,
    created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS risk_locations (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    address TEXT,
    latitude REAL NOT NULL,
    longitude REAL NOT NULL,
    risk_level TEXT NOT NULL,
    crime_count INTEGER NOT NULL DEFAULT 0,
    last_incident_date TEXT,
    location_type TEXT,
    created_at TEXT NOT NULL
);
`

// Store is a SQLite-backed knowledge base
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// single writer keeps :memory: databases on one connection
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Name identifies the store
func (s *Store) Name() string {
	return "sqlite"
}

// Ping checks the database handle
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ListCategories returns all categories ordered by name
func (s *Store) ListCategories(ctx context.Context) ([]models.ScamCategory, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, risk_level, keywords, created_at FROM scam_categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	categories := []models.ScamCategory{}
	for rows.Next() {
		var (
			c                                models.ScamCategory
			id, riskLevel, keywords, created string
			description                      sql.NullString
		)
		if err := rows.Scan(&id, &c.Name, &description, &riskLevel, &keywords, &created); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		if c.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("category id %q: %w", id, err)
		}
		c.Description = description.String
		c.RiskLevel = models.ParseRiskLevel(riskLevel)
		if c.Keywords, err = decodeStrings(keywords); err != nil {
			return nil, fmt.Errorf("category %s keywords: %w", c.Name, err)
		}
		c.CreatedAt = parseTime(created)
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// ListRecords returns all historical records, newest report first
func (s *Store) ListRecords(ctx context.Context) ([]models.ScamRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, category_id, title, description, scam_type, detected_text,
		       keywords_found, risk_level, confidence_score, location, reported_date,
		       victim_count, financial_loss, source, created_at
		FROM scam_records
		ORDER BY reported_date IS NULL, reported_date DESC, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	records := []models.ScamRecord{}
	for rows.Next() {
		var (
			r                                     models.ScamRecord
			id, keywords, riskLevel, created      string
			categoryID, description, detectedText sql.NullString
			location, reportedDate, source        sql.NullString
		)
		err := rows.Scan(&id, &categoryID, &r.Title, &description, &r.ScamType, &detectedText,
			&keywords, &riskLevel, &r.ConfidenceScore, &location, &reportedDate,
			&r.VictimCount, &r.FinancialLoss, &source, &created)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		if r.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("record id %q: %w", id, err)
		}
		if categoryID.Valid {
			if cid, err := uuid.Parse(categoryID.String); err == nil {
				r.CategoryID = &cid
			}
		}
		r.Description = description.String
		r.DetectedText = detectedText.String
		if r.KeywordsFound, err = decodeStrings(keywords); err != nil {
			return nil, fmt.Errorf("record %s keywords: %w", id, err)
		}
		r.RiskLevel = models.ParseRiskLevel(riskLevel)
		r.Location = location.String
		if reportedDate.Valid {
			t := parseTime(reportedDate.String)
			r.ReportedDate = &t
		}
		r.Source = source.String
		r.CreatedAt = parseTime(created)
		records = append(records, r)
	}
	return records, rows.Err()
}

// ListRiskLocations returns up to limit locations with the most incidents first
func (s *Store) ListRiskLocations(ctx context.Context, limit int) ([]models.RiskLocation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, address, latitude, longitude, risk_level,
		       crime_count, last_incident_date, location_type, created_at
		FROM risk_locations
		ORDER BY crime_count DESC, name
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query risk locations: %w", err)
	}
	defer rows.Close()

	locations := []models.RiskLocation{}
	for rows.Next() {
		var (
			l                                   models.RiskLocation
			id, riskLevel, created              string
			address, lastIncident, locationType sql.NullString
		)
		err := rows.Scan(&id, &l.Name, &address, &l.Latitude, &l.Longitude, &riskLevel,
			&l.CrimeCount, &lastIncident, &locationType, &created)
		if err != nil {
			return nil, fmt.Errorf("failed to scan risk location: %w", err)
		}
		if l.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("risk location id %q: %w", id, err)
		}
		l.Address = address.String
		l.RiskLevel = models.ParseRiskLevel(riskLevel)
		if lastIncident.Valid {
			t := parseTime(lastIncident.String)
			l.LastIncidentDate = &t
		}
		l.LocationType = locationType.String
		l.CreatedAt = parseTime(created)
		locations = append(locations, l)
	}
	return locations, rows.Err()
}

// Import writes a seed in one transaction. Categories are matched by name;
// records and locations with an existing ID are left untouched.
func (s *Store) Import(ctx context.Context, seed *models.KnowledgeSeed) (*models.ImportStats, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	stats := &models.ImportStats{}
	remap := make(map[uuid.UUID]uuid.UUID, len(seed.Categories))

	for i := range seed.Categories {
		c := &seed.Categories[i]
		seedID := c.ID
		if c.ID == uuid.Nil {
			c.ID = uuid.New()
		}
		if c.CreatedAt.IsZero() {
			c.CreatedAt = now
		}
		keywords, err := encodeStrings(c.Keywords)
		if err != nil {
			return nil, err
		}

		var storedID string
		err = tx.QueryRowContext(ctx, `
			INSERT INTO scam_categories(id, name, description, risk_level, keywords, created_at)
			VALUES(?,?,?,?,?,?)
			ON CONFLICT(name) DO UPDATE SET
				description = excluded.description,
				risk_level = excluded.risk_level,
				keywords = excluded.keywords
			RETURNING id`,
			c.ID.String(), c.Name, nullString(c.Description), riskOrDefault(c.RiskLevel),
			keywords, formatTime(c.CreatedAt),
		).Scan(&storedID)
		if err != nil {
			return nil, fmt.Errorf("failed to insert category %s: %w", c.Name, err)
		}
		if c.ID, err = uuid.Parse(storedID); err != nil {
			return nil, fmt.Errorf("category id %q: %w", storedID, err)
		}
		if seedID != uuid.Nil {
			remap[seedID] = c.ID
		}
		stats.Categories++
	}

	for i := range seed.Records {
		r := &seed.Records[i]
		if r.ID == uuid.Nil {
			r.ID = uuid.New()
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = now
		}
		var categoryID any
		if r.CategoryID != nil {
			id := *r.CategoryID
			if stored, ok := remap[id]; ok {
				id = stored
			}
			categoryID = id.String()
		}
		var reported any
		if r.ReportedDate != nil {
			reported = formatTime(*r.ReportedDate)
		}
		keywords, err := encodeStrings(r.KeywordsFound)
		if err != nil {
			return nil, err
		}

		res, err := tx.ExecContext(ctx, `
			INSERT INTO scam_records(id, category_id, title, description, scam_type, detected_text,
				keywords_found, risk_level, confidence_score, location, reported_date,
				victim_count, financial_loss, source, created_at)
			VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
			ON CONFLICT(id) DO NOTHING`,
			r.ID.String(), categoryID, r.Title, nullString(r.Description), r.ScamType,
			nullString(r.DetectedText), keywords, riskOrDefault(r.RiskLevel), r.ConfidenceScore,
			nullString(r.Location), reported, r.VictimCount, r.FinancialLoss,
			nullString(r.Source), formatTime(r.CreatedAt),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert record %s: %w", r.Title, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			stats.Records++
		}
	}

	for i := range seed.RiskLocations {
		l := &seed.RiskLocations[i]
		if l.ID == uuid.Nil {
			l.ID = uuid.New()
		}
		if l.CreatedAt.IsZero() {
			l.CreatedAt = now
		}
		var lastIncident any
		if l.LastIncidentDate != nil {
			lastIncident = formatTime(*l.LastIncidentDate)
		}

		res, err := tx.ExecContext(ctx, `
			INSERT INTO risk_locations(id, name, address, latitude, longitude, risk_level,
				crime_count, last_incident_date, location_type, created_at)
			VALUES(?,?,?,?,?,?,?,?,?,?)
			ON CONFLICT(id) DO NOTHING`,
			l.ID.String(), l.Name, nullString(l.Address), l.Latitude, l.Longitude,
			riskOrDefault(l.RiskLevel), l.CrimeCount, lastIncident, nullString(l.LocationType),
			formatTime(l.CreatedAt),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert risk location %s: %w", l.Name, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			stats.RiskLocations++
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit tx: %w", err)
	}
	return stats, nil
}

func encodeStrings(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("failed to encode keywords: %w", err)
	}
	return string(data), nil
}

func decodeStrings(data string) ([]string, error) {
	values := []string{}
	if data == "" {
		return values, nil
	}
	if err := json.Unmarshal([]byte(data), &values); err != nil {
		return nil, err
	}
	return values, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func riskOrDefault(level models.RiskLevel) string {
	if !level.IsValid() {
		return string(models.RiskLevelMedium)
	}
	return string(level)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
