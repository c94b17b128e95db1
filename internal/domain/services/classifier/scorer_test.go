package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scamguard-lab/internal/domain/models"
)

func TestWeightedScorer(t *testing.T) {
	tests := []struct {
		name       string
		evidence   Evidence
		level      models.RiskLevel
		confidence int
	}{
		{name: "nothing", evidence: Evidence{}, level: models.RiskLevelLow, confidence: 0},
		{name: "one keyword one sentence", evidence: Evidence{Keywords: 1, Sentences: 1}, level: models.RiskLevelMedium, confidence: 20},
		{name: "medium boundary", evidence: Evidence{Records: 1}, level: models.RiskLevelMedium, confidence: 8},
		{name: "high boundary", evidence: Evidence{Keywords: 6, Sentences: 1}, level: models.RiskLevelHigh, confidence: 50},
		{name: "caps every term", evidence: Evidence{Keywords: 50, Records: 50, Sentences: 50}, level: models.RiskLevelHigh, confidence: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, confidence := WeightedScorer{}.Score(tt.evidence)
			assert.Equal(t, tt.level, level)
			assert.Equal(t, tt.confidence, confidence)
		})
	}
}

func TestSentenceCountScorer(t *testing.T) {
	tests := []struct {
		sentences  int
		level      models.RiskLevel
		confidence int
	}{
		{0, models.RiskLevelLow, 0},
		{1, models.RiskLevelMedium, 25},
		{2, models.RiskLevelHigh, 50},
		{10, models.RiskLevelHigh, 80},
	}

	for _, tt := range tests {
		level, confidence := SentenceCountScorer{}.Score(Evidence{Sentences: tt.sentences, Keywords: 99})
		assert.Equal(t, tt.level, level, "sentences=%d", tt.sentences)
		assert.Equal(t, tt.confidence, confidence, "sentences=%d", tt.sentences)
	}
}

func TestAutoScorerDegradesWithoutHistory(t *testing.T) {
	e := Evidence{Keywords: 6, Sentences: 1}

	level, confidence := AutoScorer{}.Score(e)
	assert.Equal(t, models.RiskLevelMedium, level)
	assert.Equal(t, 25, confidence)

	e.HasHistory = true
	level, confidence = AutoScorer{}.Score(e)
	assert.Equal(t, models.RiskLevelHigh, level)
	assert.Equal(t, 50, confidence)
}

func TestScorersAreBoundedAndMonotonic(t *testing.T) {
	scorers := []RiskScorer{WeightedScorer{}, SentenceCountScorer{}, AutoScorer{}}

	for _, s := range scorers {
		t.Run(s.Name(), func(t *testing.T) {
			for k := 0; k <= 8; k++ {
				for m := 0; m <= 8; m++ {
					for n := 0; n <= 8; n++ {
						base := Evidence{Keywords: k, Records: m, Sentences: n, HasHistory: m > 0}
						level, confidence := s.Score(base)
						require.True(t, level.IsValid())
						require.GreaterOrEqual(t, confidence, 0)
						require.LessOrEqual(t, confidence, 100)

						for _, more := range []Evidence{
							{Keywords: k + 1, Records: m, Sentences: n, HasHistory: base.HasHistory},
							{Keywords: k, Records: m, Sentences: n + 1, HasHistory: base.HasHistory},
						} {
							next, _ := s.Score(more)
							require.GreaterOrEqual(t, next.Rank(), level.Rank(), "%+v -> %+v", base, more)
						}
					}
				}
			}
		})
	}
}

func TestScorerByName(t *testing.T) {
	for name, want := range map[string]string{
		"":               ScoringAuto,
		"auto":           ScoringAuto,
		"weighted":       ScoringWeighted,
		"sentence_count": ScoringSentenceCount,
	} {
		s, err := ScorerByName(name)
		require.NoError(t, err)
		assert.Equal(t, want, s.Name())
	}

	_, err := ScorerByName("bayesian")
	assert.Error(t, err)
}
