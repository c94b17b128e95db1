// Package metrics exposes Prometheus collectors for analysis traffic and the
// knowledge base snapshot.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"scamguard-lab/internal/domain/models"
)

var (
	analysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scamguard_analyses_total",
			Help: "Completed analyses by operation, engine and risk level",
		},
		[]string{"operation", "source", "risk_level"},
	)

	analysisDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scamguard_analysis_duration_seconds",
			Help:    "Analysis latency by operation",
			Buckets: []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"operation"},
	)

	llmRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scamguard_llm_requests_total",
			Help: "LLM lookups by outcome (success, error, cache_hit)",
		},
		[]string{"outcome"},
	)

	scanSinkErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scamguard_scan_sink_errors_total",
			Help: "Failed scan log writes by sink",
		},
		[]string{"sink"},
	)

	knowledgeBaseRefreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scamguard_knowledge_base_refresh_total",
			Help: "Knowledge base refresh attempts by outcome",
		},
		[]string{"outcome"},
	)
)

var (
	kbRecordsDesc = prometheus.NewDesc(
		"scamguard_knowledge_base_records",
		"Historical scam records in the active snapshot",
		nil, nil,
	)
	kbCategoriesDesc = prometheus.NewDesc(
		"scamguard_knowledge_base_categories",
		"Scam categories in the active snapshot",
		nil, nil,
	)
	kbAgeDesc = prometheus.NewDesc(
		"scamguard_knowledge_base_age_seconds",
		"Seconds since the active snapshot was loaded",
		nil, nil,
	)
	kbDegradedDesc = prometheus.NewDesc(
		"scamguard_knowledge_base_degraded",
		"1 when the service runs without a loaded knowledge base",
		nil, nil,
	)
)

// SummarySource reports the knowledge base snapshot in use
type SummarySource interface {
	Summary() models.KnowledgeBaseSummary
}

// KnowledgeBaseCollector reads the snapshot summary on each scrape
type KnowledgeBaseCollector struct {
	source SummarySource
	now    func() time.Time
}

// NewKnowledgeBaseCollector creates a collector over source
func NewKnowledgeBaseCollector(source SummarySource) *KnowledgeBaseCollector {
	return &KnowledgeBaseCollector{source: source, now: time.Now}
}

// Describe sends the metric descriptors to the channel.
func (c *KnowledgeBaseCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- kbRecordsDesc
	ch <- kbCategoriesDesc
	ch <- kbAgeDesc
	ch <- kbDegradedDesc
}

// Collect emits the current snapshot gauges.
func (c *KnowledgeBaseCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.source.Summary()

	var age, degraded float64
	if !s.LoadedAt.IsZero() {
		age = c.now().Sub(s.LoadedAt).Seconds()
	}
	if s.Degraded {
		degraded = 1
	}

	ch <- prometheus.MustNewConstMetric(kbRecordsDesc, prometheus.GaugeValue, float64(s.Records))
	ch <- prometheus.MustNewConstMetric(kbCategoriesDesc, prometheus.GaugeValue, float64(s.Categories))
	ch <- prometheus.MustNewConstMetric(kbAgeDesc, prometheus.GaugeValue, age)
	ch <- prometheus.MustNewConstMetric(kbDegradedDesc, prometheus.GaugeValue, degraded)
}

var initOnce sync.Once

// Init registers all collectors with the default registry.
// Must be called once at startup; later calls are no-ops.
func Init(kb SummarySource) {
	initOnce.Do(func() {
		Register(prometheus.DefaultRegisterer, kb)
	})
}

// Register registers all collectors with reg
func Register(reg prometheus.Registerer, kb SummarySource) {
	reg.MustRegister(
		analysesTotal,
		analysisDuration,
		llmRequestsTotal,
		scanSinkErrorsTotal,
		knowledgeBaseRefreshTotal,
	)
	if kb != nil {
		reg.MustRegister(NewKnowledgeBaseCollector(kb))
	}
}

// ObserveAnalysis records a finished analysis
func ObserveAnalysis(operation string, result *models.AnalysisResult, elapsed time.Duration) {
	analysisDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
	if result == nil {
		return
	}
	analysesTotal.WithLabelValues(operation, string(result.Source), string(result.RiskLevel)).Inc()
}

// Outcomes for RecordLLM
const (
	LLMSuccess  = "success"
	LLMError    = "error"
	LLMCacheHit = "cache_hit"
)

// RecordLLM counts one LLM lookup
func RecordLLM(outcome string) {
	llmRequestsTotal.WithLabelValues(outcome).Inc()
}

// RecordSinkError counts one failed scan log write
func RecordSinkError(sink string) {
	scanSinkErrorsTotal.WithLabelValues(sink).Inc()
}

// RecordRefresh counts one knowledge base refresh
func RecordRefresh(ok bool) {
	outcome := "success"
	if !ok {
		outcome = "error"
	}
	knowledgeBaseRefreshTotal.WithLabelValues(outcome).Inc()
}
