// Package classifier scores Thai-language text for online-scam risk.
//
// The pipeline is: split into sentences, match configured keywords, decide
// per sentence with the context rules, then aggregate into a single
// AnalysisResult. Everything here is pure and safe for concurrent use;
// historical data is passed in per call as an immutable KnowledgeBase.
package classifier

import (
	"strings"

	"scamguard-lab/internal/domain/models"
)

// Config configures a Classifier. Zero fields take defaults.
type Config struct {
	Keywords *KeywordSet
	Rules    *ContextRules
	Scorer   RiskScorer
	// OnPanic is called with the recovered value when Classify hits an internal fault
	OnPanic func(recovered any)
}

// Classifier is the scam-text classification facade
type Classifier struct {
	keywords *KeywordSet
	rules    *ContextRules
	scorer   RiskScorer
	onPanic  func(any)
}

// New creates a Classifier
func New(cfg Config) *Classifier {
	if cfg.Keywords == nil {
		cfg.Keywords = DefaultKeywordSet()
	}
	if cfg.Rules == nil {
		cfg.Rules = DefaultContextRules()
	}
	if cfg.Scorer == nil {
		cfg.Scorer = AutoScorer{}
	}
	return &Classifier{
		keywords: cfg.Keywords,
		rules:    cfg.Rules,
		scorer:   cfg.Scorer,
		onPanic:  cfg.OnPanic,
	}
}

// Default returns a Classifier with built-in keywords, rules and auto scoring
func Default() *Classifier {
	return New(Config{})
}

// Scorer returns the configured scoring strategy
func (c *Classifier) Scorer() RiskScorer {
	return c.scorer
}

// Classify analyzes text. It never panics: internal faults yield FailedResult.
func (c *Classifier) Classify(text string, kb *KnowledgeBase) (result models.AnalysisResult) {
	defer func() {
		if r := recover(); r != nil {
			if c.onPanic != nil {
				c.onPanic(r)
			}
			result = FailedResult()
		}
	}()

	if strings.TrimSpace(text) == "" {
		return NoContentResult()
	}
	return c.Aggregate(c.Evaluate(text, kb), kb)
}

// Evaluate returns a verdict for every keyword-bearing sentence. Sentences
// without any keyword are skipped entirely.
func (c *Classifier) Evaluate(text string, kb *KnowledgeBase) []SentenceVerdict {
	set := c.keywordSetFor(kb)

	var verdicts []SentenceVerdict
	for _, sentence := range SplitSentences(text) {
		matched := set.Match(sentence)
		if len(matched) == 0 {
			continue
		}
		suspicious, reason, score := c.rules.Assess(sentence, matched)
		verdicts = append(verdicts, SentenceVerdict{
			Sentence:        sentence,
			MatchedKeywords: matched,
			IsSuspicious:    suspicious,
			Reason:          reason,
			Score:           score,
		})
	}
	return verdicts
}

func (c *Classifier) keywordSetFor(kb *KnowledgeBase) *KeywordSet {
	if set := kb.KeywordSet(); set != nil && set.Len() > 0 {
		return set
	}
	return c.keywords
}
