package classifier

import "scamguard-lab/internal/domain/models"

// SentenceVerdict is the outcome for one sentence
type SentenceVerdict struct {
	Sentence        string   `json:"sentence"`
	MatchedKeywords []string `json:"matched_keywords"`
	IsSuspicious    bool     `json:"is_suspicious"`
	Reason          Reason   `json:"reason"`
	Score           int      `json:"score,omitempty"`
}

// Aggregate folds sentence verdicts and the knowledge base into a result
func (c *Classifier) Aggregate(verdicts []SentenceVerdict, kb *KnowledgeBase) models.AnalysisResult {
	keywords := []string{}
	seen := make(map[string]struct{})
	var sentences []string

	for _, v := range verdicts {
		if !v.IsSuspicious {
			continue
		}
		sentences = append(sentences, v.Sentence)
		for _, k := range v.MatchedKeywords {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			keywords = append(keywords, k)
		}
	}

	records := kb.MatchingRecords(keywords)
	level, confidence := c.scorer.Score(Evidence{
		Sentences:  len(sentences),
		Keywords:   len(keywords),
		Records:    len(records),
		HasHistory: kb.HasRecords(),
	})

	scamType := inferScamType(records, keywords, c.keywordSetFor(kb).Groups())

	source := models.AnalysisSourceHeuristic
	if kb.HasRecords() || kb.KeywordSet() != nil {
		source = models.AnalysisSourceKnowledgeBase
	}

	return models.AnalysisResult{
		IsScam:          len(sentences) > 0,
		RiskLevel:       level,
		Confidence:      confidence,
		ScamType:        scamType,
		Keywords:        keywords,
		Explanation:     Explanation(sentences),
		Recommendations: Recommendations(level, scamType),
		MatchedRecords:  len(records),
		Source:          source,
	}
}

// inferScamType prefers the most common tag among matched records (ties go to
// the first seen), then the first group sharing a keyword with the result.
func inferScamType(records []models.ScamRecord, keywords []string, groups []KeywordGroup) string {
	if len(records) > 0 {
		counts := make(map[string]int)
		var order []string
		for _, r := range records {
			if _, ok := counts[r.ScamType]; !ok {
				order = append(order, r.ScamType)
			}
			counts[r.ScamType]++
		}
		best := order[0]
		for _, tag := range order[1:] {
			if counts[tag] > counts[best] {
				best = tag
			}
		}
		return DisplayScamType(best)
	}

	if len(keywords) == 0 {
		return ScamTypeUnknown
	}
	found := make(map[string]struct{}, len(keywords))
	for _, k := range keywords {
		found[k] = struct{}{}
	}
	for _, g := range groups {
		for _, k := range g.Keywords {
			if _, ok := found[k]; ok {
				return DisplayScamType(g.Name)
			}
		}
	}
	return ScamTypeUnknown
}
