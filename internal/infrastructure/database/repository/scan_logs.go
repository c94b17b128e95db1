package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"scamguard-lab/internal/domain/models"
	"scamguard-lab/internal/infrastructure/database"
)

// ScanLogRepository persists scan results
type ScanLogRepository struct {
	db database.DBTX
}

// NewScanLogRepository creates a new scan log repository
func NewScanLogRepository(db database.DBTX) *ScanLogRepository {
	return &ScanLogRepository{db: db}
}

// Name identifies the repository as a scan sink
func (r *ScanLogRepository) Name() string {
	return "postgres"
}

// RecordScan stores a scan log
func (r *ScanLogRepository) RecordScan(ctx context.Context, log *models.ScanLog) error {
	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now()
	}

	var result []byte
	if log.Result != nil {
		var err error
		if result, err = json.Marshal(log.Result); err != nil {
			return fmt.Errorf("failed to marshal scan result: %w", err)
		}
	}

	query := `
		INSERT INTO scan_logs (
			id, scan_type, detected_text, detected_image_url, risk_level,
			confidence_score, keywords_found, scam_matches, user_location,
			scan_result, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.db.Exec(ctx, query,
		log.ID, string(log.ScanType), log.DetectedText, textOrNull(log.DetectedImageURL),
		string(log.RiskLevel), log.ConfidenceScore, stringsOrEmpty(log.KeywordsFound),
		log.ScamMatches, textOrNull(log.UserLocation), result, log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create scan log: %w", err)
	}

	return nil
}

// ListRecent returns the most recent scan logs
func (r *ScanLogRepository) ListRecent(ctx context.Context, limit int) ([]models.ScanLog, error) {
	query := `
		SELECT id, scan_type, detected_text, detected_image_url, risk_level,
			   confidence_score, keywords_found, scam_matches, user_location,
			   scan_result, created_at
		FROM scan_logs
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list scan logs: %w", err)
	}
	defer rows.Close()

	logs := []models.ScanLog{}
	for rows.Next() {
		var (
			l            models.ScanLog
			scanType     string
			imageURL     pgtype.Text
			riskLevel    string
			userLocation pgtype.Text
			result       []byte
		)
		err := rows.Scan(&l.ID, &scanType, &l.DetectedText, &imageURL, &riskLevel,
			&l.ConfidenceScore, &l.KeywordsFound, &l.ScamMatches, &userLocation,
			&result, &l.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scan log: %w", err)
		}
		l.ScanType = models.ScanType(scanType)
		l.DetectedImageURL = nullTextToString(imageURL)
		l.RiskLevel = models.ParseRiskLevel(riskLevel)
		l.UserLocation = nullTextToString(userLocation)
		if len(result) > 0 {
			l.Result = &models.AnalysisResult{}
			if err := json.Unmarshal(result, l.Result); err != nil {
				return nil, fmt.Errorf("failed to decode scan result: %w", err)
			}
		}
		logs = append(logs, l)
	}

	return logs, rows.Err()
}
