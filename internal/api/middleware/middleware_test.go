package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scamguard-lab/internal/config"
	"scamguard-lab/pkg/logger"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestAdminAuth(t *testing.T) {
	tests := []struct {
		name       string
		configured string
		header     string
		want       int
	}{
		{"disabled", "", "anything", http.StatusForbidden},
		{"missing header", "s3cret", "", http.StatusUnauthorized},
		{"wrong token", "s3cret", "guess", http.StatusForbidden},
		{"valid token", "s3cret", "s3cret", http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var called bool
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				w.WriteHeader(http.StatusNoContent)
			})

			req := httptest.NewRequest(http.MethodPost, "/api/v1/knowledge-base/refresh", nil)
			if tt.header != "" {
				req.Header.Set("X-Admin-Token", tt.header)
			}
			rec := httptest.NewRecorder()
			AdminAuth(tt.configured)(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			assert.Equal(t, tt.want == http.StatusNoContent, called)
		})
	}
}

type fakeLimiter struct {
	allowed bool
	err     error
	keys    []string
}

func (l *fakeLimiter) CheckRateLimit(_ context.Context, key string, limit int64, _ time.Duration) (bool, int64, time.Time, error) {
	l.keys = append(l.keys, key)
	if l.err != nil {
		return false, 0, time.Time{}, l.err
	}
	if !l.allowed {
		return false, 0, time.Now().Add(30 * time.Second), nil
	}
	return true, limit - 1, time.Now().Add(time.Minute), nil
}

func TestRateLimiter(t *testing.T) {
	cfg := config.RateLimitConfig{Enabled: true, RequestsPerMinute: 10}

	t.Run("allowed", func(t *testing.T) {
		l := &fakeLimiter{allowed: true}
		req := httptest.NewRequest(http.MethodGet, "/api/v1/knowledge-base", nil)
		req.RemoteAddr = "203.0.113.7:51234"
		rec := httptest.NewRecorder()

		RateLimiter(l, cfg, logger.NewNop())(okHandler()).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "10", rec.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "9", rec.Header().Get("X-RateLimit-Remaining"))
		assert.Equal(t, []string{"ip:203.0.113.7"}, l.keys)
	})

	t.Run("exceeded", func(t *testing.T) {
		l := &fakeLimiter{}
		rec := httptest.NewRecorder()
		RateLimiter(l, cfg, logger.NewNop())(okHandler()).
			ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/analyze", nil))

		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.NotEmpty(t, rec.Header().Get("Retry-After"))
		assert.JSONEq(t, `{"error":"rate limit exceeded"}`, rec.Body.String())
	})

	t.Run("limiter failure lets requests through", func(t *testing.T) {
		l := &fakeLimiter{err: errors.New("redis down")}
		rec := httptest.NewRecorder()
		RateLimiter(l, cfg, logger.NewNop())(okHandler()).
			ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/analyze", nil))

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("preflight skips the limiter", func(t *testing.T) {
		l := &fakeLimiter{}
		rec := httptest.NewRecorder()
		RateLimiter(l, cfg, logger.NewNop())(okHandler()).
			ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/v1/analyze", nil))

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Empty(t, l.keys)
	})
}

func TestLoggerIncludesRequestID(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Config{Level: "debug", Format: "json", Output: &buf})

	h := chimiddleware.RequestID(Logger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})))
	req := httptest.NewRequest(http.MethodGet, "/api/v1/missing", nil)
	req.Header.Set(chimiddleware.RequestIDHeader, "req-42")
	h.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "req-42", entry["request_id"])
	assert.Equal(t, "warn", entry["level"])
	assert.EqualValues(t, http.StatusNotFound, entry["status"])
	assert.Equal(t, "/api/v1/missing", entry["path"])
}
