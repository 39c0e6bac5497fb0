package middleware

import (
	"io"
	"net/http"
)

// DrainAndCloseRequest drains up to maxDrainBytes of what the handler left
// unread so the connection can be reused, then closes the body.
// Bigger leftovers are dropped with the connection.
func DrainAndCloseRequest(maxDrainBytes int64) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)
			if r.Body == nil {
				return
			}
			if maxDrainBytes > 0 {
				_, _ = io.Copy(io.Discard, io.LimitReader(r.Body, maxDrainBytes))
			}
			_ = r.Body.Close()
		})
	}
}
