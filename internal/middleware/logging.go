package middleware

import (
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/2beens/blogsvc/pkg"
)

func LogRequest() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			begin := time.Now()
			resp := &responseWriter{w, http.StatusOK}

			next.ServeHTTP(resp, r)

			clientIP, err := pkg.ReadUserIP(r)
			if err != nil {
				clientIP = "unknown"
			}
			entry := log.WithFields(log.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   resp.statusCode,
				"ip":       clientIP,
				"duration": time.Since(begin).String(),
			})
			if resp.statusCode >= http.StatusInternalServerError {
				entry.Warnln(" <==== request failed")
				return
			}
			entry.Tracef(" <==== request [UA: %s]", r.Header.Get("User-Agent"))
		})
	}
}
