package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scamguard-lab/internal/domain/models"
	"scamguard-lab/pkg/logger"
)

func TestParseLLMResponse(t *testing.T) {
	tests := []struct {
		name    string
		content string
		check   func(t *testing.T, r *models.AnalysisResult)
		wantErr bool
	}{
		{
			name:    "plain json",
			content: `{"isScam":true,"riskLevel":"high","confidence":87.6,"scamType":"Call Center Scam","keywords":["OTP"],"explanation":"x","recommendations":["a"]}`,
			check: func(t *testing.T, r *models.AnalysisResult) {
				assert.True(t, r.IsScam)
				assert.Equal(t, models.RiskLevelHigh, r.RiskLevel)
				assert.Equal(t, 88, r.Confidence)
				assert.Equal(t, "Call Center Scam", r.ScamType)
				assert.Equal(t, []string{"OTP"}, r.Keywords)
				assert.Equal(t, models.AnalysisSourceLLM, r.Source)
			},
		},
		{
			name:    "json fence",
			content: "```json\n{\"riskLevel\":\"medium\",\"confidence\":40}\n```",
			check: func(t *testing.T, r *models.AnalysisResult) {
				assert.Equal(t, models.RiskLevelMedium, r.RiskLevel)
				assert.Equal(t, 40, r.Confidence)
			},
		},
		{
			name:    "bare fence with prose",
			content: "```\nนี่คือผลลัพธ์ {\"isScam\":false}\n```",
			check: func(t *testing.T, r *models.AnalysisResult) {
				assert.False(t, r.IsScam)
			},
		},
		{
			name:    "missing fields take defaults",
			content: `{}`,
			check: func(t *testing.T, r *models.AnalysisResult) {
				assert.False(t, r.IsScam)
				assert.Equal(t, models.RiskLevelLow, r.RiskLevel)
				assert.Equal(t, 0, r.Confidence)
				assert.Equal(t, "Unknown", r.ScamType)
				assert.Equal(t, []string{}, r.Keywords)
				assert.Equal(t, "", r.Explanation)
				assert.Equal(t, []string{}, r.Recommendations)
			},
		},
		{
			name:    "out of range values are clamped",
			content: `{"riskLevel":"EXTREME","confidence":250}`,
			check: func(t *testing.T, r *models.AnalysisResult) {
				assert.Equal(t, models.RiskLevelLow, r.RiskLevel)
				assert.Equal(t, 100, r.Confidence)
			},
		},
		{name: "not json", content: "ขออภัย ไม่สามารถวิเคราะห์ได้", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := parseLLMResponse(tt.content)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, r)
		})
	}
}

func newTestServer(t *testing.T, status int, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "typhoon-v2.1-12b-instruct", req.Model)
		assert.Equal(t, 512, req.MaxTokens)
		if assert.Len(t, req.Messages, 2) {
			assert.Equal(t, "system", req.Messages[0].Role)
			assert.True(t, strings.HasPrefix(req.Messages[1].Content, "วิเคราะห์ข้อความนี้: \""))
		}

		w.WriteHeader(status)
		if status != http.StatusOK {
			w.Write([]byte(`{"error":"boom"}`))
			return
		}
		resp := map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"content": content}}},
		}
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestAnalyzeText(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, "```json\n{\"isScam\":true,\"riskLevel\":\"high\",\"confidence\":90,\"scamType\":\"Phishing Link\"}\n```")
	defer srv.Close()

	client := NewLLMClient(LLMConfig{BaseURL: srv.URL + "/v1/", APIKey: "test-key"}, logger.NewNop())
	result, err := client.AnalyzeText(context.Background(), "คลิกลิงก์นี้")

	require.NoError(t, err)
	assert.Equal(t, models.RiskLevelHigh, result.RiskLevel)
	assert.Equal(t, "Phishing Link", result.ScamType)
}

func TestAnalyzeTextErrors(t *testing.T) {
	t.Run("disabled without key", func(t *testing.T) {
		client := NewLLMClient(LLMConfig{}, logger.NewNop())
		_, err := client.AnalyzeText(context.Background(), "x")
		assert.ErrorIs(t, err, ErrLLMDisabled)
	})

	t.Run("non 2xx", func(t *testing.T) {
		srv := newTestServer(t, http.StatusBadGateway, "")
		defer srv.Close()

		client := NewLLMClient(LLMConfig{BaseURL: srv.URL + "/v1", APIKey: "test-key"}, logger.NewNop())
		_, err := client.AnalyzeText(context.Background(), "x")
		assert.ErrorContains(t, err, "502")
	})

	t.Run("empty content", func(t *testing.T) {
		srv := newTestServer(t, http.StatusOK, "  ")
		defer srv.Close()

		client := NewLLMClient(LLMConfig{BaseURL: srv.URL + "/v1", APIKey: "test-key"}, logger.NewNop())
		_, err := client.AnalyzeText(context.Background(), "x")
		assert.ErrorIs(t, err, ErrEmptyResponse)
	})

	t.Run("prose instead of json", func(t *testing.T) {
		srv := newTestServer(t, http.StatusOK, "ไม่แน่ใจครับ")
		defer srv.Close()

		client := NewLLMClient(LLMConfig{BaseURL: srv.URL + "/v1", APIKey: "test-key"}, logger.NewNop())
		_, err := client.AnalyzeText(context.Background(), "x")
		assert.Error(t, err)
	})
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	assert.Equal(t, "สวัสดี", truncate("สวัสดี", 100))
	// each Thai rune is three bytes
	assert.Equal(t, "ส...", truncate("สวัสดี", 4))
	assert.Equal(t, "สว...", truncate("สวัสดี", 6))
	assert.Equal(t, "...", truncate("สวัสดี", 2))
	assert.True(t, utf8.ValidString(truncate("ข้อความภาษาไทยยาวๆ", 10)))
	assert.Equal(t, "abc...", truncate("abcdef", 3))
}
