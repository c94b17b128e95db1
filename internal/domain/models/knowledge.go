package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ScamCategory groups keywords under a named scam family
type ScamCategory struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	RiskLevel   RiskLevel `json:"risk_level"`
	Keywords    []string  `json:"keywords"`
	CreatedAt   time.Time `json:"created_at"`
}

// Known scam_type tags used by historical records
const (
	ScamTagCallCenter   = "call_center"
	ScamTagPhishingLink = "phishing_link"
	ScamTagSocialMedia  = "social_media"
	ScamTagSMSEmail     = "sms_email"
	ScamTagInvestment   = "investment"
)

// ScamRecord is a historical scam incident
type ScamRecord struct {
	ID              uuid.UUID  `json:"id"`
	CategoryID      *uuid.UUID `json:"category_id,omitempty"`
	Title           string     `json:"title"`
	Description     string     `json:"description,omitempty"`
	ScamType        string     `json:"scam_type"`
	DetectedText    string     `json:"detected_text,omitempty"`
	KeywordsFound   []string   `json:"keywords_found"`
	RiskLevel       RiskLevel  `json:"risk_level"`
	ConfidenceScore float64    `json:"confidence_score"`
	Location        string     `json:"location,omitempty"`
	ReportedDate    *time.Time `json:"reported_date,omitempty"`
	VictimCount     int        `json:"victim_count"`
	FinancialLoss   float64    `json:"financial_loss"`
	Source          string     `json:"source,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// HasKeyword reports whether any of keywords appears verbatim in KeywordsFound
func (r *ScamRecord) HasKeyword(keywords []string) bool {
	for _, found := range r.KeywordsFound {
		for _, k := range keywords {
			if found == k {
				return true
			}
		}
	}
	return false
}

// RiskLocation is a place with reported scam activity
type RiskLocation struct {
	ID               uuid.UUID  `json:"id"`
	Name             string     `json:"name"`
	Address          string     `json:"address,omitempty"`
	Latitude         float64    `json:"latitude"`
	Longitude        float64    `json:"longitude"`
	RiskLevel        RiskLevel  `json:"risk_level"`
	CrimeCount       int        `json:"crime_count"`
	LastIncidentDate *time.Time `json:"last_incident_date,omitempty"`
	LocationType     string     `json:"location_type,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// ScamTypeStats summarizes historical records of one scam type
type ScamTypeStats struct {
	Count         int     `json:"count"`
	TotalVictims  int     `json:"total_victims"`
	TotalLoss     float64 `json:"total_loss"`
	HighRiskCount int     `json:"high_risk_count"`
}

// KnowledgeBaseSummary describes the snapshot currently in use
type KnowledgeBaseSummary struct {
	Categories int       `json:"categories"`
	Records    int       `json:"records"`
	Keywords   int       `json:"keywords"`
	LoadedAt   time.Time `json:"loaded_at"`
	Source     string    `json:"source"`
	Degraded   bool      `json:"degraded"`
}

// KnowledgeSeed is the import format for bulk-loading a knowledge base
type KnowledgeSeed struct {
	Categories    []ScamCategory `json:"categories"`
	Records       []ScamRecord   `json:"records"`
	RiskLocations []RiskLocation `json:"risk_locations,omitempty"`
}

// ErrInvalidSeed is returned for a seed that cannot be imported
var ErrInvalidSeed = errors.New("invalid knowledge seed")

// Validate checks the fields the stores require
func (s *KnowledgeSeed) Validate() error {
	if len(s.Categories) == 0 && len(s.Records) == 0 && len(s.RiskLocations) == 0 {
		return fmt.Errorf("%w: seed is empty", ErrInvalidSeed)
	}
	for i, c := range s.Categories {
		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("%w: category %d has no name", ErrInvalidSeed, i)
		}
		if c.RiskLevel != "" && !c.RiskLevel.IsValid() {
			return fmt.Errorf("%w: category %q has risk level %q", ErrInvalidSeed, c.Name, c.RiskLevel)
		}
	}
	for i, r := range s.Records {
		if strings.TrimSpace(r.Title) == "" {
			return fmt.Errorf("%w: record %d has no title", ErrInvalidSeed, i)
		}
		if strings.TrimSpace(r.ScamType) == "" {
			return fmt.Errorf("%w: record %d has no scam_type", ErrInvalidSeed, i)
		}
		if r.RiskLevel != "" && !r.RiskLevel.IsValid() {
			return fmt.Errorf("%w: record %d has risk level %q", ErrInvalidSeed, i, r.RiskLevel)
		}
	}
	for i, l := range s.RiskLocations {
		if strings.TrimSpace(l.Name) == "" {
			return fmt.Errorf("%w: risk location %d has no name", ErrInvalidSeed, i)
		}
	}
	return nil
}

// ImportStats counts rows written by a knowledge base import
type ImportStats struct {
	Categories    int `json:"categories"`
	Records       int `json:"records"`
	RiskLocations int `json:"risk_locations"`
}
