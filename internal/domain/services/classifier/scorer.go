package classifier

import (
	"fmt"

	"scamguard-lab/internal/domain/models"
)

// Evidence is the aggregate input to risk scoring
type Evidence struct {
	Sentences  int  // suspicious sentences (S)
	Keywords   int  // distinct suspicious keywords (K)
	Records    int  // matching historical records (M)
	HasHistory bool // snapshot carried any historical records
}

// RiskScorer turns evidence into a risk level and a 0-100 confidence
type RiskScorer interface {
	Name() string
	Score(e Evidence) (models.RiskLevel, int)
}

// Scoring mode names accepted by ScorerByName
const (
	ScoringWeighted      = "weighted"
	ScoringSentenceCount = "sentence_count"
	ScoringAuto          = "auto"
)

// WeightedScorer combines keyword density, record matches and sentence count:
//
//	score = 5K + 15M + 10S            (high >= 40, medium >= 15)
//	confidence = min(10K,40) + min(8M,30) + min(10S,30)
type WeightedScorer struct{}

func (WeightedScorer) Name() string { return ScoringWeighted }

func (WeightedScorer) Score(e Evidence) (models.RiskLevel, int) {
	score := 5*e.Keywords + 15*e.Records + 10*e.Sentences

	level := models.RiskLevelLow
	switch {
	case score >= 40:
		level = models.RiskLevelHigh
	case score >= 15:
		level = models.RiskLevelMedium
	}

	confidence := min(10*e.Keywords, 40) + min(8*e.Records, 30) + min(10*e.Sentences, 30)
	return level, clampConfidence(confidence)
}

// SentenceCountScorer only looks at the number of suspicious sentences.
type SentenceCountScorer struct{}

func (SentenceCountScorer) Name() string { return ScoringSentenceCount }

func (SentenceCountScorer) Score(e Evidence) (models.RiskLevel, int) {
	level := models.RiskLevelLow
	switch {
	case e.Sentences > 1:
		level = models.RiskLevelHigh
	case e.Sentences > 0:
		level = models.RiskLevelMedium
	}
	return level, clampConfidence(min(25*e.Sentences, 80))
}

// AutoScorer uses the weighted formula when historical records are loaded and
// degrades to sentence counting otherwise.
type AutoScorer struct{}

func (AutoScorer) Name() string { return ScoringAuto }

func (AutoScorer) Score(e Evidence) (models.RiskLevel, int) {
	if e.HasHistory {
		return WeightedScorer{}.Score(e)
	}
	return SentenceCountScorer{}.Score(e)
}

// ScorerByName resolves a configured scoring mode. Empty means auto.
func ScorerByName(name string) (RiskScorer, error) {
	switch name {
	case "", ScoringAuto:
		return AutoScorer{}, nil
	case ScoringWeighted:
		return WeightedScorer{}, nil
	case ScoringSentenceCount:
		return SentenceCountScorer{}, nil
	default:
		return nil, fmt.Errorf("unknown scoring mode: %s", name)
	}
}

func clampConfidence(c int) int {
	return max(0, min(c, 100))
}
