package middleware

import (
	"crypto/subtle"
	"net/http"
)

// AdminAuth returns middleware that requires a matching X-Admin-Token header.
// An empty token disables the protected routes entirely.
func AdminAuth(token string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			if token == "" {
				writeError(w, http.StatusForbidden, "admin endpoints are disabled")
				return
			}

			adminToken := r.Header.Get("X-Admin-Token")
			if adminToken == "" {
				writeError(w, http.StatusUnauthorized, "admin token required")
				return
			}

			if subtle.ConstantTimeCompare([]byte(adminToken), []byte(token)) != 1 {
				writeError(w, http.StatusForbidden, "invalid admin token")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + msg + `"}`))
}
