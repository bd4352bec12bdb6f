package middleware

import (
	"net/http"
	"time"

	"github.com/shabikihub/shabiki/pkg/logger"
)

// Logging logs each request at debug level with method, path and duration.
func Logging(log *logger.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = logger.NewDefault("http")
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			log.WithField("method", r.Method).
				WithField("path", r.URL.Path).
				WithField("duration", time.Since(start).String()).
				Debug("request handled")
		})
	}
}
