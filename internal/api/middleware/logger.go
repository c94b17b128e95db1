package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"scamguard-lab/pkg/logger"
)

// quietPaths are polled by probes and scrapers and only logged at debug
var quietPaths = map[string]bool{
	"/health":  true,
	"/ready":   true,
	"/metrics": true,
}

// Logger returns a middleware that logs requests
func Logger(log *logger.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				reqLog := log.WithRequestID(middleware.GetReqID(r.Context()))

				var event *zerolog.Event
				switch status := ww.Status(); {
				case status >= http.StatusInternalServerError:
					event = reqLog.Error()
				case status >= http.StatusBadRequest:
					event = reqLog.Warn()
				case quietPaths[r.URL.Path]:
					event = reqLog.Debug()
				default:
					event = reqLog.Info()
				}

				event.
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Str("remote_addr", r.RemoteAddr).
					Int("status", ww.Status()).
					Int("bytes", ww.BytesWritten()).
					Dur("duration", time.Since(start)).
					Msg("request completed")
			}()

			next.ServeHTTP(ww, r)
		}
		return http.HandlerFunc(fn)
	}
}
