package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"scamguard-lab/internal/domain/models"
	"scamguard-lab/internal/infrastructure/database"
)

// RecordRepository handles historical scam record persistence
type RecordRepository struct {
	db database.DBTX
}

// NewRecordRepository creates a new record repository
func NewRecordRepository(db database.DBTX) *RecordRepository {
	return &RecordRepository{db: db}
}

const recordColumns = `
	id, category_id, title, description, scam_type, detected_text,
	keywords_found, risk_level, confidence_score, location, reported_date,
	victim_count, financial_loss, source, created_at`

// List returns all historical records, newest report first
func (r *RecordRepository) List(ctx context.Context) ([]models.ScamRecord, error) {
	query := `SELECT ` + recordColumns + `
		FROM scam_records
		ORDER BY reported_date DESC NULLS LAST, created_at DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list scam records: %w", err)
	}
	defer rows.Close()

	records := []models.ScamRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}

	return records, rows.Err()
}

// Create inserts a historical record
func (r *RecordRepository) Create(ctx context.Context, rec *models.ScamRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO scam_records (` + recordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO NOTHING`

	_, err := r.db.Exec(ctx, query,
		rec.ID, uuidToNullUUID(rec.CategoryID), rec.Title, textOrNull(rec.Description),
		rec.ScamType, textOrNull(rec.DetectedText), stringsOrEmpty(rec.KeywordsFound),
		riskOrDefault(rec.RiskLevel), rec.ConfidenceScore, textOrNull(rec.Location),
		timeToTimestamptzPtr(rec.ReportedDate), rec.VictimCount, rec.FinancialLoss,
		textOrNull(rec.Source), rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create scam record: %w", err)
	}

	return nil
}

func scanRecord(row pgx.Row) (*models.ScamRecord, error) {
	var (
		rec          models.ScamRecord
		categoryID   pgtype.UUID
		description  pgtype.Text
		detectedText pgtype.Text
		riskLevel    string
		location     pgtype.Text
		reportedDate pgtype.Timestamptz
		source       pgtype.Text
	)

	err := row.Scan(
		&rec.ID, &categoryID, &rec.Title, &description, &rec.ScamType, &detectedText,
		&rec.KeywordsFound, &riskLevel, &rec.ConfidenceScore, &location, &reportedDate,
		&rec.VictimCount, &rec.FinancialLoss, &source, &rec.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan scam record: %w", err)
	}

	rec.CategoryID = nullUUIDToPtr(categoryID)
	rec.Description = nullTextToString(description)
	rec.DetectedText = nullTextToString(detectedText)
	rec.RiskLevel = models.ParseRiskLevel(riskLevel)
	rec.Location = nullTextToString(location)
	rec.ReportedDate = timestamptzToTimePtr(reportedDate)
	rec.Source = nullTextToString(source)
	rec.KeywordsFound = stringsOrEmpty(rec.KeywordsFound)

	return &rec, nil
}
