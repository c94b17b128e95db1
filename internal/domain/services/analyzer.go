package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"scamguard-lab/internal/domain/models"
	"scamguard-lab/internal/domain/services/classifier"
	"scamguard-lab/internal/infrastructure/cache"
	"scamguard-lab/internal/metrics"
	"scamguard-lab/internal/textprep"
	"scamguard-lab/pkg/logger"
)

// ErrInvalidScanType is returned for an unknown scan_type
var ErrInvalidScanType = errors.New("invalid scan type")

// LLM is a remote model that can classify text
type LLM interface {
	AnalyzeText(ctx context.Context, text string) (*models.AnalysisResult, error)
	Model() string
}

// AnalysisCache stores LLM verdicts by text
type AnalysisCache interface {
	GetCachedAnalysis(ctx context.Context, model, text string) (*models.AnalysisResult, error)
	CacheAnalysis(ctx context.Context, model, text string, result *models.AnalysisResult, ttl time.Duration) error
}

// KnowledgeProvider hands out the current knowledge base snapshot
type KnowledgeProvider interface {
	Current() *classifier.KnowledgeBase
}

// AnalyzerConfig tunes the analyzer adapters
type AnalyzerConfig struct {
	CacheTTL       time.Duration
	ScanLogTimeout time.Duration
}

// AnalyzerStats counts analyzer traffic since start
type AnalyzerStats struct {
	Total         int64            `json:"total"`
	ScamsDetected int64            `json:"scams_detected"`
	ByRiskLevel   map[string]int64 `json:"by_risk_level"`
	BySource      map[string]int64 `json:"by_source"`
	LLMFailures   int64            `json:"llm_failures"`
	LLMCacheHits  int64            `json:"llm_cache_hits"`
	Scans         int64            `json:"scans"`
	ScanLogErrors int64            `json:"scan_log_errors"`
}

// ScamAnalyzer wires the shared classifier to the outside world: the remote
// model, the knowledge base snapshot, the verdict cache and scan logging.
type ScamAnalyzer struct {
	classifier *classifier.Classifier
	prep       *textprep.Preparer
	llm        LLM
	cache      AnalysisCache
	kb         KnowledgeProvider
	sink       ScanSink
	config     AnalyzerConfig
	logger     *logger.Logger

	mu    sync.Mutex
	stats AnalyzerStats

	pending sync.WaitGroup
}

// NewScamAnalyzer creates the analyzer. llm, analysisCache, kb and sink may
// each be nil; the matching feature is then skipped.
func NewScamAnalyzer(
	c *classifier.Classifier,
	llm LLM,
	analysisCache AnalysisCache,
	kb KnowledgeProvider,
	sink ScanSink,
	cfg AnalyzerConfig,
	log *logger.Logger,
) *ScamAnalyzer {
	if c == nil {
		c = classifier.Default()
	}
	if cfg.ScanLogTimeout <= 0 {
		cfg.ScanLogTimeout = 5 * time.Second
	}
	return &ScamAnalyzer{
		classifier: c,
		prep:       textprep.New(),
		llm:        llm,
		cache:      analysisCache,
		kb:         kb,
		sink:       sink,
		config:     cfg,
		logger:     log.WithComponent("scam-analyzer"),
		stats: AnalyzerStats{
			ByRiskLevel: make(map[string]int64),
			BySource:    make(map[string]int64),
		},
	}
}

// Analyze asks the remote model first and falls back to the built-in
// heuristic on any failure. It never returns an error.
func (a *ScamAnalyzer) Analyze(ctx context.Context, text string) *models.AnalysisResult {
	start := time.Now()
	text = a.prep.Sanitize(text)

	result := a.analyzeRemote(ctx, text)
	if result == nil {
		r := a.classifier.Classify(text, nil)
		result = &r
	}

	a.record("analyze", result, start)
	return result
}

// AnalyzeWithKnowledgeBase runs the heuristic against the current knowledge
// base snapshot
func (a *ScamAnalyzer) AnalyzeWithKnowledgeBase(_ context.Context, text string) *models.AnalysisResult {
	start := time.Now()
	result := a.classifyLocal(a.prep.Sanitize(text))
	a.record("analyze_local", result, start)
	return result
}

func (a *ScamAnalyzer) classifyLocal(text string) *models.AnalysisResult {
	var kb *classifier.KnowledgeBase
	if a.kb != nil {
		kb = a.kb.Current()
	}
	r := a.classifier.Classify(text, kb)
	return &r
}

// analyzeRemote returns the model's verdict, or nil when the caller should
// fall back to the heuristic
func (a *ScamAnalyzer) analyzeRemote(ctx context.Context, text string) *models.AnalysisResult {
	if a.llm == nil || strings.TrimSpace(text) == "" {
		return nil
	}

	model := a.llm.Model()
	if a.cache != nil {
		cached, err := a.cache.GetCachedAnalysis(ctx, model, text)
		if err == nil {
			metrics.RecordLLM(metrics.LLMCacheHit)
			a.mu.Lock()
			a.stats.LLMCacheHits++
			a.mu.Unlock()
			return cached
		}
		if !errors.Is(err, cache.ErrMiss) {
			a.logger.Warn().Err(err).Msg("failed to read analysis cache")
		}
	}

	result, err := a.llm.AnalyzeText(ctx, text)
	if err != nil {
		metrics.RecordLLM(metrics.LLMError)
		a.mu.Lock()
		a.stats.LLMFailures++
		a.mu.Unlock()
		a.logger.Warn().Err(err).Msg("LLM analysis failed, using heuristic")
		return nil
	}
	metrics.RecordLLM(metrics.LLMSuccess)

	if a.cache != nil && a.config.CacheTTL > 0 {
		if err := a.cache.CacheAnalysis(ctx, model, text, result, a.config.CacheTTL); err != nil {
			a.logger.Warn().Err(err).Msg("failed to cache analysis")
		}
	}
	return result
}

// Scan runs the knowledge base heuristic and the remote model side by side,
// keeps the verdicts that carry a signal and logs the outcome.
func (a *ScamAnalyzer) Scan(ctx context.Context, req *models.ScanRequest) (*models.ScanReport, error) {
	if req.ScanType == "" {
		req.ScanType = models.ScanTypeTextInput
	}
	if !req.ScanType.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidScanType, req.ScanType)
	}

	start := time.Now()
	report := &models.ScanReport{
		ID:        uuid.New(),
		ScanType:  req.ScanType,
		Findings:  []models.ScanFinding{},
		ScannedAt: start.UTC(),
	}
	log := a.logger.WithScanID(report.ID.String())

	text := a.prep.Sanitize(req.Text)
	if req.OCR {
		text = a.prep.PrepareOCR(text)
	}
	report.Text = text

	if !textprep.HasEnoughText(text) {
		report.Overall = noTextResult()
		log.Debug().Int("length", len(text)).Msg("not enough text to scan")
		a.record("scan", report.Overall, start)
		return report, nil
	}
	report.HasText = true

	var local, remote *models.AnalysisResult
	var g errgroup.Group
	g.Go(func() error {
		local = a.classifyLocal(text)
		return nil
	})
	g.Go(func() error {
		remote = a.analyzeRemote(ctx, text)
		return nil
	})
	_ = g.Wait()

	if local.HasSignal() {
		report.Findings = append(report.Findings, models.ScanFinding{Source: local.Source, Result: local})
	}
	if remote.HasSignal() {
		report.Findings = append(report.Findings, models.ScanFinding{Source: remote.Source, Result: remote})
	}

	report.ScamDetected = len(report.Findings) > 0
	report.Overall = mostSevere(report.Findings)
	if report.Overall == nil {
		report.Overall = noSignalResult()
	}

	log.Info().
		Str("scan_type", string(report.ScanType)).
		Str("risk_level", string(report.Overall.RiskLevel)).
		Int("findings", len(report.Findings)).
		Dur("duration", time.Since(start)).
		Msg("scan complete")

	a.record("scan", report.Overall, start)
	a.logScan(ctx, models.NewScanLog(req, report))

	return report, nil
}

// mostSevere picks the finding with the highest risk level; earlier
// findings win ties
func mostSevere(findings []models.ScanFinding) *models.AnalysisResult {
	var best *models.AnalysisResult
	for _, f := range findings {
		if best == nil || f.Result.RiskLevel.Rank() > best.RiskLevel.Rank() {
			best = f.Result
		}
	}
	return best
}

// logScan hands the entry to the sink in the background. The write outlives
// the request but not the configured timeout.
func (a *ScamAnalyzer) logScan(ctx context.Context, entry *models.ScanLog) {
	if a.sink == nil {
		return
	}

	a.pending.Add(1)
	go func() {
		defer a.pending.Done()

		sinkCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.config.ScanLogTimeout)
		defer cancel()

		if err := a.sink.RecordScan(sinkCtx, entry); err != nil {
			a.mu.Lock()
			a.stats.ScanLogErrors++
			a.mu.Unlock()
			a.logger.Warn().Err(err).Str("scan_id", entry.ID.String()).Msg("failed to record scan")
		}
	}()
}

// Wait blocks until background scan logging has finished
func (a *ScamAnalyzer) Wait() {
	a.pending.Wait()
}

// Chat answers a chat message with a formatted verdict
func (a *ScamAnalyzer) Chat(ctx context.Context, message string) *models.ChatReply {
	analysis := a.AnalyzeWithKnowledgeBase(ctx, message)
	return &models.ChatReply{
		Response:     FormatChatResponse(analysis),
		ScamDetected: analysis.RiskLevel != models.RiskLevelLow,
		RiskLevel:    analysis.RiskLevel,
	}
}

// FormatChatResponse renders a verdict as a chat message
func FormatChatResponse(r *models.AnalysisResult) string {
	advice := strings.Join(r.Recommendations, "\n")
	switch r.RiskLevel {
	case models.RiskLevelHigh:
		return fmt.Sprintf("⚠️ **พบสัญญาณการหลอกลวง!**\n\n%s\n\nประเภท: %s\nความมั่นใจ: %.1f%%",
			advice, r.ScamType, float64(r.Confidence))
	case models.RiskLevelMedium:
		return fmt.Sprintf("⚠️ **พบคำเสี่ยงบางคำ**\n\n%s\n\nประเภท: %s\nความมั่นใจ: %.1f%%",
			advice, r.ScamType, float64(r.Confidence))
	default:
		return "✅ **เนื้อหาดูปลอดภัย**\n\n" + advice
	}
}

// Stats returns a copy of the analyzer counters
func (a *ScamAnalyzer) Stats() AnalyzerStats {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := a.stats
	out.ByRiskLevel = make(map[string]int64, len(a.stats.ByRiskLevel))
	for k, v := range a.stats.ByRiskLevel {
		out.ByRiskLevel[k] = v
	}
	out.BySource = make(map[string]int64, len(a.stats.BySource))
	for k, v := range a.stats.BySource {
		out.BySource[k] = v
	}
	return out
}

func (a *ScamAnalyzer) record(operation string, result *models.AnalysisResult, start time.Time) {
	metrics.ObserveAnalysis(operation, result, time.Since(start))

	a.mu.Lock()
	defer a.mu.Unlock()

	a.stats.Total++
	if operation == "scan" {
		a.stats.Scans++
	}
	if result == nil {
		return
	}
	if result.RiskLevel != models.RiskLevelLow {
		a.stats.ScamsDetected++
	}
	a.stats.ByRiskLevel[string(result.RiskLevel)]++
	if result.Source != "" {
		a.stats.BySource[string(result.Source)]++
	}
}

const (
	noTextExplanation = "ไม่พบข้อความที่เพียงพอสำหรับการวิเคราะห์"
	noSignalScamType  = "No Scam Detected"
	noSignalExplain   = "ข้อความที่ตรวจพบไม่แสดงสัญญาณการหลอกลวง"
)

func noTextResult() *models.AnalysisResult {
	return &models.AnalysisResult{
		RiskLevel:       models.RiskLevelLow,
		ScamType:        classifier.ScamTypeNoContent,
		Keywords:        []string{},
		Explanation:     noTextExplanation,
		Recommendations: []string{"ตรวจสอบว่าภาพมีข้อความหรือไม่"},
	}
}

func noSignalResult() *models.AnalysisResult {
	return &models.AnalysisResult{
		RiskLevel:       models.RiskLevelLow,
		ScamType:        noSignalScamType,
		Keywords:        []string{},
		Explanation:     noSignalExplain,
		Recommendations: []string{"สามารถใช้งานได้ตามปกติ", "ตรวจสอบแหล่งที่มาของข้อมูล"},
	}
}
