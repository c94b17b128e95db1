package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scamguard-lab/internal/domain/models"
	"scamguard-lab/internal/domain/services/classifier"
	"scamguard-lab/internal/infrastructure/cache"
	"scamguard-lab/pkg/logger"
)

const (
	urgentTransferText = "กรุณาโอนเงินด่วนภายใน 1 ชั่วโมงเพื่อรับรางวัลใหญ่ คลิกลิงก์นี้เพื่อยืนยัน OTP"
	centralBankText    = "ธนาคารแห่งประเทศไทยประกาศเตือนประชาชนเรื่องมิจฉาชีพที่แอบอ้างเป็นธนาคาร"
)

type fakeLLM struct {
	result *models.AnalysisResult
	err    error
	calls  atomic.Int32
}

func (f *fakeLLM) AnalyzeText(_ context.Context, _ string) (*models.AnalysisResult, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	r := *f.result
	return &r, nil
}

func (f *fakeLLM) Model() string { return "fake-model" }

type memAnalysisCache struct {
	mu      sync.Mutex
	entries map[string]*models.AnalysisResult
}

func newMemAnalysisCache() *memAnalysisCache {
	return &memAnalysisCache{entries: make(map[string]*models.AnalysisResult)}
}

func (c *memAnalysisCache) GetCachedAnalysis(_ context.Context, model, text string) (*models.AnalysisResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.entries[cache.AnalysisKey(model, text)]
	if !ok {
		return nil, cache.ErrMiss
	}
	return r, nil
}

func (c *memAnalysisCache) CacheAnalysis(_ context.Context, model, text string, result *models.AnalysisResult, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cache.AnalysisKey(model, text)] = result
	return nil
}

type fakeSink struct {
	name string
	err  error

	mu   sync.Mutex
	logs []*models.ScanLog
}

func (s *fakeSink) Name() string { return s.name }

func (s *fakeSink) RecordScan(ctx context.Context, log *models.ScanLog) error {
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("sink called without deadline")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, log)
	return s.err
}

func (s *fakeSink) recorded() []*models.ScanLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*models.ScanLog(nil), s.logs...)
}

type staticKB struct {
	kb *classifier.KnowledgeBase
}

func (s staticKB) Current() *classifier.KnowledgeBase { return s.kb }

func newTestAnalyzer(llm LLM, c AnalysisCache, sink ScanSink) *ScamAnalyzer {
	return NewScamAnalyzer(classifier.Default(), llm, c, staticKB{}, sink,
		AnalyzerConfig{CacheTTL: time.Hour, ScanLogTimeout: time.Second}, logger.NewNop())
}

func TestAnalyzeFallsBackToHeuristic(t *testing.T) {
	tests := []struct {
		name string
		llm  LLM
	}{
		{name: "no model configured", llm: nil},
		{name: "model failure", llm: &fakeLLM{err: errors.New("connection refused")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAnalyzer(tt.llm, nil, nil)
			result := a.Analyze(context.Background(), urgentTransferText)

			assert.Equal(t, models.RiskLevelMedium, result.RiskLevel)
			assert.Equal(t, 25, result.Confidence)
			assert.Equal(t, classifier.ScamTypeCallCenter, result.ScamType)
			assert.Equal(t, models.AnalysisSourceHeuristic, result.Source)
		})
	}

	a := newTestAnalyzer(&fakeLLM{err: errors.New("boom")}, nil, nil)
	a.Analyze(context.Background(), urgentTransferText)
	assert.Equal(t, int64(1), a.Stats().LLMFailures)
}

func TestAnalyzeUsesModelAndCache(t *testing.T) {
	llm := &fakeLLM{result: &models.AnalysisResult{
		IsScam:    true,
		RiskLevel: models.RiskLevelHigh,
		ScamType:  "Phishing Link",
		Keywords:  []string{"ลิงก์"},
		Source:    models.AnalysisSourceLLM,
	}}
	a := newTestAnalyzer(llm, newMemAnalysisCache(), nil)
	ctx := context.Background()

	first := a.Analyze(ctx, urgentTransferText)
	second := a.Analyze(ctx, "  "+urgentTransferText+"  ")

	assert.Equal(t, models.AnalysisSourceLLM, first.Source)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), llm.calls.Load())

	stats := a.Stats()
	assert.Equal(t, int64(2), stats.Total)
	assert.Equal(t, int64(2), stats.ScamsDetected)
	assert.Equal(t, int64(1), stats.LLMCacheHits)
	assert.Equal(t, int64(2), stats.BySource["llm"])
}

func TestAnalyzeEmptyTextSkipsModel(t *testing.T) {
	llm := &fakeLLM{result: &models.AnalysisResult{}}
	a := newTestAnalyzer(llm, nil, nil)

	result := a.Analyze(context.Background(), "   ")
	assert.Equal(t, classifier.ScamTypeNoContent, result.ScamType)
	assert.Equal(t, int32(0), llm.calls.Load())
}

func TestAnalyzeWithKnowledgeBase(t *testing.T) {
	kb := classifier.NewKnowledgeBase(nil, []models.ScamRecord{
		{ScamType: models.ScamTagInvestment, KeywordsFound: []string{"OTP"}},
		{ScamType: models.ScamTagInvestment, KeywordsFound: []string{"คลิก"}},
	}, time.Now())
	a := NewScamAnalyzer(classifier.Default(), nil, nil, staticKB{kb: kb}, nil, AnalyzerConfig{}, logger.NewNop())

	result := a.AnalyzeWithKnowledgeBase(context.Background(), urgentTransferText)
	assert.Equal(t, models.RiskLevelHigh, result.RiskLevel)
	assert.Equal(t, 2, result.MatchedRecords)
	assert.Equal(t, "Investment Scam", result.ScamType)
	assert.Equal(t, models.AnalysisSourceKnowledgeBase, result.Source)
}

func TestScan(t *testing.T) {
	highLLM := &models.AnalysisResult{
		IsScam:    true,
		RiskLevel: models.RiskLevelHigh,
		ScamType:  "Call Center Scam",
		Keywords:  []string{"OTP"},
		Source:    models.AnalysisSourceLLM,
	}
	lowLLM := &models.AnalysisResult{RiskLevel: models.RiskLevelLow, Keywords: []string{}, Source: models.AnalysisSourceLLM}

	tests := []struct {
		name         string
		llm          LLM
		req          models.ScanRequest
		wantHasText  bool
		wantDetected bool
		wantSources  []models.AnalysisSource
		wantOverall  models.RiskLevel
		wantLogged   bool
	}{
		{
			name:         "heuristic only",
			req:          models.ScanRequest{Text: urgentTransferText},
			wantHasText:  true,
			wantDetected: true,
			wantSources:  []models.AnalysisSource{models.AnalysisSourceHeuristic},
			wantOverall:  models.RiskLevelMedium,
			wantLogged:   true,
		},
		{
			name:         "both report, most severe wins",
			llm:          &fakeLLM{result: highLLM},
			req:          models.ScanRequest{Text: urgentTransferText, ScanType: models.ScanTypeScreenShare},
			wantHasText:  true,
			wantDetected: true,
			wantSources:  []models.AnalysisSource{models.AnalysisSourceHeuristic, models.AnalysisSourceLLM},
			wantOverall:  models.RiskLevelHigh,
			wantLogged:   true,
		},
		{
			name:         "low model verdict is dropped",
			llm:          &fakeLLM{result: lowLLM},
			req:          models.ScanRequest{Text: urgentTransferText},
			wantHasText:  true,
			wantDetected: true,
			wantSources:  []models.AnalysisSource{models.AnalysisSourceHeuristic},
			wantOverall:  models.RiskLevelMedium,
			wantLogged:   true,
		},
		{
			name:        "no signal anywhere",
			llm:         &fakeLLM{result: lowLLM},
			req:         models.ScanRequest{Text: centralBankText},
			wantHasText: true,
			wantSources: []models.AnalysisSource{},
			wantOverall: models.RiskLevelLow,
			wantLogged:  true,
		},
		{
			name:        "too little text",
			req:         models.ScanRequest{Text: "OTP", ScanType: models.ScanTypeImageUpload},
			wantSources: []models.AnalysisSource{},
			wantOverall: models.RiskLevelLow,
		},
		{
			name:        "ocr noise only",
			req:         models.ScanRequest{Text: "12:30 ▮▮\n|||", OCR: true},
			wantSources: []models.AnalysisSource{},
			wantOverall: models.RiskLevelLow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &fakeSink{name: "test"}
			a := newTestAnalyzer(tt.llm, nil, sink)

			report, err := a.Scan(context.Background(), &tt.req)
			require.NoError(t, err)
			a.Wait()

			assert.Equal(t, tt.wantHasText, report.HasText)
			assert.Equal(t, tt.wantDetected, report.ScamDetected)
			assert.Equal(t, tt.wantOverall, report.Overall.RiskLevel)

			sources := []models.AnalysisSource{}
			for _, f := range report.Findings {
				sources = append(sources, f.Source)
			}
			assert.Equal(t, tt.wantSources, sources)

			logs := sink.recorded()
			if !tt.wantLogged {
				assert.Empty(t, logs)
				return
			}
			require.Len(t, logs, 1)
			assert.Equal(t, report.ID, logs[0].ID)
			assert.Equal(t, report.Overall.RiskLevel, logs[0].RiskLevel)
			assert.Equal(t, report.Text, logs[0].DetectedText)
		})
	}
}

func TestScanNoSignalResult(t *testing.T) {
	a := newTestAnalyzer(nil, nil, nil)

	report, err := a.Scan(context.Background(), &models.ScanRequest{Text: centralBankText})
	require.NoError(t, err)
	assert.Equal(t, "ข้อความที่ตรวจพบไม่แสดงสัญญาณการหลอกลวง", report.Overall.Explanation)
	assert.Equal(t, []string{"สามารถใช้งานได้ตามปกติ", "ตรวจสอบแหล่งที่มาของข้อมูล"}, report.Overall.Recommendations)
}

func TestScanRejectsUnknownType(t *testing.T) {
	a := newTestAnalyzer(nil, nil, nil)

	_, err := a.Scan(context.Background(), &models.ScanRequest{Text: urgentTransferText, ScanType: "fax"})
	assert.ErrorIs(t, err, ErrInvalidScanType)
}

func TestScanSinkFailureIsCounted(t *testing.T) {
	sink := &fakeSink{name: "broken", err: errors.New("disk full")}
	a := newTestAnalyzer(nil, nil, NewMultiSink(sink))

	_, err := a.Scan(context.Background(), &models.ScanRequest{Text: urgentTransferText})
	require.NoError(t, err)
	a.Wait()

	assert.Equal(t, int64(1), a.Stats().ScanLogErrors)
}

func TestScanLogOutlivesRequestContext(t *testing.T) {
	sink := &fakeSink{name: "test"}
	a := newTestAnalyzer(nil, nil, sink)

	ctx, cancel := context.WithCancel(context.Background())
	_, err := a.Scan(ctx, &models.ScanRequest{Text: urgentTransferText})
	require.NoError(t, err)
	cancel()
	a.Wait()

	assert.Len(t, sink.recorded(), 1)
}

func TestChat(t *testing.T) {
	a := newTestAnalyzer(nil, nil, nil)

	reply := a.Chat(context.Background(), urgentTransferText)
	assert.True(t, reply.ScamDetected)
	assert.Equal(t, models.RiskLevelMedium, reply.RiskLevel)
	assert.Contains(t, reply.Response, "⚠️ **พบคำเสี่ยงบางคำ**")
	assert.Contains(t, reply.Response, "ความมั่นใจ: 25.0%")

	reply = a.Chat(context.Background(), centralBankText)
	assert.False(t, reply.ScamDetected)
	assert.Equal(t, "✅ **เนื้อหาดูปลอดภัย**\n\n✅ เนื้อหาดูปลอดภัย แต่ควรระวังเสมอ", reply.Response)
}

func TestFormatChatResponse(t *testing.T) {
	high := &models.AnalysisResult{
		RiskLevel:       models.RiskLevelHigh,
		Confidence:      50,
		ScamType:        "Call Center Scam",
		Recommendations: []string{"a", "b"},
	}
	assert.Equal(t,
		"⚠️ **พบสัญญาณการหลอกลวง!**\n\na\nb\n\nประเภท: Call Center Scam\nความมั่นใจ: 50.0%",
		FormatChatResponse(high))
}

func TestMultiSink(t *testing.T) {
	ok := &fakeSink{name: "ok"}
	bad := &fakeSink{name: "bad", err: errors.New("down")}
	m := NewMultiSink(ok, nil, bad)
	assert.Equal(t, 2, m.Len())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := m.RecordScan(ctx, &models.ScanLog{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad: down")
	assert.Len(t, ok.recorded(), 1)
	assert.Len(t, bad.recorded(), 1)
}
