package models

import (
	"time"

	"github.com/google/uuid"
)

// ScanType describes how the text reached the service
type ScanType string

const (
	ScanTypeScreenShare  ScanType = "screen_share"
	ScanTypeMobileUpload ScanType = "mobile_upload"
	ScanTypeTextInput    ScanType = "text_input"
	ScanTypeImageUpload  ScanType = "image_upload"
)

// IsValid reports whether t is a known scan type
func (t ScanType) IsValid() bool {
	switch t {
	case ScanTypeScreenShare, ScanTypeMobileUpload, ScanTypeTextInput, ScanTypeImageUpload:
		return true
	}
	return false
}

// ScanRequest is the request body for a full scan
type ScanRequest struct {
	Text         string   `json:"text"`
	ScanType     ScanType `json:"scan_type"`
	ImageURL     string   `json:"image_url,omitempty"`
	UserLocation string   `json:"user_location,omitempty"`
	// OCR marks text that came from an OCR engine and needs cleaning
	OCR bool `json:"ocr,omitempty"`
}

// ScanFinding is one analysis that passed the reporting rule
type ScanFinding struct {
	Source AnalysisSource  `json:"source"`
	Result *AnalysisResult `json:"result"`
}

// ScanReport is the merged outcome of a scan
type ScanReport struct {
	ID           uuid.UUID       `json:"id"`
	ScanType     ScanType        `json:"scan_type"`
	Text         string          `json:"text"`
	HasText      bool            `json:"has_text"`
	ScamDetected bool            `json:"scam_detected"`
	Findings     []ScanFinding   `json:"findings"`
	Overall      *AnalysisResult `json:"overall"`
	ScannedAt    time.Time       `json:"scanned_at"`
}

// ScanLog is the persisted record of a scan
type ScanLog struct {
	ID               uuid.UUID       `json:"id"`
	ScanType         ScanType        `json:"scan_type"`
	DetectedText     string          `json:"detected_text"`
	DetectedImageURL string          `json:"detected_image_url,omitempty"`
	RiskLevel        RiskLevel       `json:"risk_level"`
	ConfidenceScore  int             `json:"confidence_score"`
	KeywordsFound    []string        `json:"keywords_found"`
	ScamMatches      int             `json:"scam_matches"`
	UserLocation     string          `json:"user_location,omitempty"`
	Result           *AnalysisResult `json:"scan_result"`
	CreatedAt        time.Time       `json:"created_at"`
}

// NewScanLog builds the log entry for a finished scan
func NewScanLog(req *ScanRequest, report *ScanReport) *ScanLog {
	log := &ScanLog{
		ID:               report.ID,
		ScanType:         report.ScanType,
		DetectedText:     report.Text,
		DetectedImageURL: req.ImageURL,
		UserLocation:     req.UserLocation,
		Result:           report.Overall,
		CreatedAt:        report.ScannedAt,
		KeywordsFound:    []string{},
		RiskLevel:        RiskLevelLow,
	}
	if report.Overall != nil {
		log.RiskLevel = report.Overall.RiskLevel
		log.ConfidenceScore = report.Overall.Confidence
		log.KeywordsFound = report.Overall.Keywords
		log.ScamMatches = report.Overall.MatchedRecords
	}
	return log
}
