package models

import "strings"

// RiskLevel is the overall risk category of an analyzed text
type RiskLevel string

const (
	RiskLevelLow    RiskLevel = "low"
	RiskLevelMedium RiskLevel = "medium"
	RiskLevelHigh   RiskLevel = "high"
)

// Rank orders risk levels so that a higher level compares greater
func (r RiskLevel) Rank() int {
	switch r {
	case RiskLevelHigh:
		return 2
	case RiskLevelMedium:
		return 1
	default:
		return 0
	}
}

// IsValid reports whether r is one of the known levels
func (r RiskLevel) IsValid() bool {
	return r == RiskLevelLow || r == RiskLevelMedium || r == RiskLevelHigh
}

// ParseRiskLevel converts a string to a RiskLevel, defaulting to low
func ParseRiskLevel(s string) RiskLevel {
	switch RiskLevel(strings.ToLower(strings.TrimSpace(s))) {
	case RiskLevelHigh:
		return RiskLevelHigh
	case RiskLevelMedium:
		return RiskLevelMedium
	default:
		return RiskLevelLow
	}
}

// AnalysisSource identifies which engine produced a result
type AnalysisSource string

const (
	AnalysisSourceHeuristic     AnalysisSource = "heuristic"
	AnalysisSourceKnowledgeBase AnalysisSource = "knowledge_base"
	AnalysisSourceLLM           AnalysisSource = "llm"
)

// AnalysisResult is the verdict for one piece of text
type AnalysisResult struct {
	IsScam          bool           `json:"is_scam"`
	RiskLevel       RiskLevel      `json:"risk_level"`
	Confidence      int            `json:"confidence"`
	ScamType        string         `json:"scam_type"`
	Keywords        []string       `json:"keywords"`
	Explanation     string         `json:"explanation"`
	Recommendations []string       `json:"recommendations"`
	MatchedRecords  int            `json:"matched_records"`
	Source          AnalysisSource `json:"source,omitempty"`
}

// HasSignal reports whether the result is worth surfacing to a user:
// a non-low risk level backed by at least one keyword.
func (r *AnalysisResult) HasSignal() bool {
	return r != nil && r.RiskLevel != RiskLevelLow && len(r.Keywords) > 0
}

// AnalyzeRequest is the request body for text analysis
type AnalyzeRequest struct {
	Text string `json:"text"`
}

// ChatRequest is the request body for the chat assistant
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatReply is the assistant's formatted answer
type ChatReply struct {
	Response     string    `json:"response"`
	ScamDetected bool      `json:"scam_detected"`
	RiskLevel    RiskLevel `json:"risk_level"`
}
