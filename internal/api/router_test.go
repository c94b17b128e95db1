package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scamguard-lab/internal/api/handlers"
	"scamguard-lab/internal/config"
	"scamguard-lab/internal/domain/services"
	"scamguard-lab/pkg/logger"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	log := logger.NewNop()

	kb := services.NewKnowledgeBaseService(nil, nil, services.KnowledgeBaseConfig{}, log)
	analyzer := services.NewScamAnalyzer(nil, nil, nil, kb, nil, services.AnalyzerConfig{}, log)
	t.Cleanup(analyzer.Wait)

	h := handlers.NewHandlers(handlers.Dependencies{
		Analyzer:      analyzer,
		KnowledgeBase: kb,
		Version:       "test",
		Logger:        log,
	})

	cfg := config.Config{
		CORS: config.CORSConfig{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		},
		Auth: config.AuthConfig{AdminToken: "s3cret"},
	}

	srv := httptest.NewServer(NewRouter(cfg, h, nil, log).Setup())
	t.Cleanup(srv.Close)
	return srv
}

func TestRoutes(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		token  string
		want   int
	}{
		{"health", http.MethodGet, "/health", "", "", http.StatusOK},
		{"ready", http.MethodGet, "/ready", "", "", http.StatusOK},
		{"metrics", http.MethodGet, "/metrics", "", "", http.StatusOK},
		{"analyze", http.MethodPost, "/api/v1/analyze", `{"text":"กรุณาโอนเงินด่วน"}`, "", http.StatusOK},
		{"analyze local", http.MethodPost, "/api/v1/analyze/local", `{"text":"ข่าวสารวันนี้"}`, "", http.StatusOK},
		{"scan", http.MethodPost, "/api/v1/scan", `{"text":"ธนาคารแจ้ง บัญชีถูกระงับ กรุณายืนยัน OTP ด่วน"}`, "", http.StatusOK},
		{"chat", http.MethodPost, "/api/v1/chat", `{"message":"มีคนขอรหัส OTP"}`, "", http.StatusOK},
		{"scam stats", http.MethodGet, "/api/v1/stats/scams", "", "", http.StatusOK},
		{"analyzer stats", http.MethodGet, "/api/v1/stats/analyzer", "", "", http.StatusOK},
		{"risk locations", http.MethodGet, "/api/v1/risk-locations", "", "", http.StatusOK},
		{"knowledge base", http.MethodGet, "/api/v1/knowledge-base", "", "", http.StatusOK},
		{"refresh without token", http.MethodPost, "/api/v1/knowledge-base/refresh", "", "", http.StatusUnauthorized},
		{"refresh with wrong token", http.MethodPost, "/api/v1/knowledge-base/refresh", "", "nope", http.StatusForbidden},
		{"refresh with no store", http.MethodPost, "/api/v1/knowledge-base/refresh", "", "s3cret", http.StatusServiceUnavailable},
		{"import into read-only", http.MethodPost, "/api/v1/knowledge-base/import", `{"categories":[{"name":"investment"}]}`, "s3cret", http.StatusNotImplemented},
		{"scans without token", http.MethodGet, "/api/v1/scans", "", "", http.StatusUnauthorized},
		{"scans not stored", http.MethodGet, "/api/v1/scans", "", "s3cret", http.StatusNotImplemented},
		{"wrong method", http.MethodGet, "/api/v1/analyze", "", "", http.StatusMethodNotAllowed},
		{"unknown route", http.MethodGet, "/api/v1/nothing", "", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, srv.URL+tt.path, strings.NewReader(tt.body))
			require.NoError(t, err)
			req.Header.Set("Content-Type", "application/json")
			if tt.token != "" {
				req.Header.Set("X-Admin-Token", tt.token)
			}

			resp, err := srv.Client().Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/v1/analyze", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://example.org")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
