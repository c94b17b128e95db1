package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"scamguard-lab/internal/domain/models"
	"scamguard-lab/pkg/logger"
)

var (
	// ErrLLMDisabled is returned when no API key is configured
	ErrLLMDisabled = errors.New("llm client disabled")
	// ErrEmptyResponse is returned when the model answered with no content
	ErrEmptyResponse = errors.New("empty response from llm")
)

// LLMConfig holds LLM client configuration
type LLMConfig struct {
	BaseURL     string // OpenAI-compatible endpoint, e.g. https://api.opentyphoon.ai/v1
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// LLMClient asks an OpenAI-compatible chat model to classify Thai text
type LLMClient struct {
	httpClient *http.Client
	logger     *logger.Logger
	config     LLMConfig
}

// NewLLMClient creates a new LLM client
func NewLLMClient(cfg LLMConfig, log *logger.Logger) *LLMClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.opentyphoon.ai/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "typhoon-v2.1-12b-instruct"
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.3
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 512
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &LLMClient{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     log.WithComponent("llm-client"),
		config:     cfg,
	}
}

// Model returns the configured model name
func (c *LLMClient) Model() string {
	return c.config.Model
}

// chatMessage is a plain-text OpenAI chat message
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// AnalyzeText asks the model for a verdict on text. Any error means the
// caller should fall back to the local heuristic.
func (c *LLMClient) AnalyzeText(ctx context.Context, text string) (*models.AnalysisResult, error) {
	if c.config.APIKey == "" {
		return nil, ErrLLMDisabled
	}

	start := time.Now()
	content, err := c.complete(ctx, []chatMessage{
		{Role: "system", Content: scamDetectionSystemPrompt},
		{Role: "user", Content: fmt.Sprintf("วิเคราะห์ข้อความนี้: \"%s\"", text)},
	})
	if err != nil {
		return nil, err
	}

	result, err := parseLLMResponse(content)
	if err != nil {
		c.logger.Warn().Err(err).Str("content", truncate(content, 200)).Msg("unparsable LLM response")
		return nil, err
	}

	c.logger.Debug().
		Str("model", c.config.Model).
		Dur("duration", time.Since(start)).
		Str("risk_level", string(result.RiskLevel)).
		Msg("LLM analysis complete")

	return result, nil
}

// complete performs one chat completion call and returns the first choice
func (c *LLMClient) complete(ctx context.Context, messages []chatMessage) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       c.config.Model,
		Messages:    messages,
		MaxTokens:   c.config.MaxTokens,
		Temperature: c.config.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call LLM: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read LLM response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("LLM API error %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode LLM response: %w", err)
	}
	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		return "", ErrEmptyResponse
	}

	return parsed.Choices[0].Message.Content, nil
}

// llmVerdict mirrors the JSON shape requested in the system prompt
type llmVerdict struct {
	IsScam          bool     `json:"isScam"`
	RiskLevel       string   `json:"riskLevel"`
	Confidence      float64  `json:"confidence"`
	ScamType        string   `json:"scamType"`
	Keywords        []string `json:"keywords"`
	Explanation     string   `json:"explanation"`
	Recommendations []string `json:"recommendations"`
}

// parseLLMResponse extracts the JSON verdict, tolerating markdown fences and
// surrounding prose. Missing fields take safe defaults.
func parseLLMResponse(content string) (*models.AnalysisResult, error) {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimSuffix(content, "```")
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(content, "```")
	}
	content = strings.TrimSpace(content)

	startIdx := strings.Index(content, "{")
	endIdx := strings.LastIndex(content, "}")
	if startIdx != -1 && endIdx > startIdx {
		content = content[startIdx : endIdx+1]
	}

	var v llmVerdict
	if err := json.Unmarshal([]byte(content), &v); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	result := &models.AnalysisResult{
		IsScam:          v.IsScam,
		RiskLevel:       models.ParseRiskLevel(v.RiskLevel),
		Confidence:      int(math.Round(math.Max(0, math.Min(v.Confidence, 100)))),
		ScamType:        v.ScamType,
		Keywords:        v.Keywords,
		Explanation:     v.Explanation,
		Recommendations: v.Recommendations,
		Source:          models.AnalysisSourceLLM,
	}
	if result.ScamType == "" {
		result.ScamType = "Unknown"
	}
	if result.Keywords == nil {
		result.Keywords = []string{}
	}
	if result.Recommendations == nil {
		result.Recommendations = []string{}
	}
	return result, nil
}

// truncate cuts s to at most n bytes without splitting a rune
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
