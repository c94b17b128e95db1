package streaming

import (
	"time"

	"github.com/google/uuid"

	"scamguard-lab/internal/domain/models"
)

// ScanEvent is the message published for every finished scan. The scanned
// text itself stays out of the event stream.
type ScanEvent struct {
	ID             uuid.UUID        `json:"id"`
	ScanType       models.ScanType  `json:"scan_type"`
	RiskLevel      models.RiskLevel `json:"risk_level"`
	Confidence     int              `json:"confidence"`
	ScamType       string           `json:"scam_type,omitempty"`
	Keywords       []string         `json:"keywords"`
	MatchedRecords int              `json:"matched_records"`
	Source         string           `json:"source,omitempty"`
	HasImage       bool             `json:"has_image"`
	UserLocation   string           `json:"user_location,omitempty"`
	ScannedAt      time.Time        `json:"scanned_at"`
}

// NewScanEvent builds the event for a scan log
func NewScanEvent(log *models.ScanLog) *ScanEvent {
	event := &ScanEvent{
		ID:             log.ID,
		ScanType:       log.ScanType,
		RiskLevel:      log.RiskLevel,
		Confidence:     log.ConfidenceScore,
		Keywords:       log.KeywordsFound,
		MatchedRecords: log.ScamMatches,
		HasImage:       log.DetectedImageURL != "",
		UserLocation:   log.UserLocation,
		ScannedAt:      log.CreatedAt,
	}
	if event.Keywords == nil {
		event.Keywords = []string{}
	}
	if log.Result != nil {
		event.ScamType = log.Result.ScamType
		event.Source = string(log.Result.Source)
	}
	return event
}
