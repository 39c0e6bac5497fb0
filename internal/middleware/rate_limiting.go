package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-redis/redis_rate/v9"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/blogsvc/internal/apperr"
	"github.com/2beens/blogsvc/internal/telemetry/metrics"
	"github.com/2beens/blogsvc/pkg"
)

type RequestRateLimiter interface {
	Allow(ctx context.Context, key string, limit redis_rate.Limit) (*redis_rate.Result, error)
}

// RateLimit allows allowedPerMin requests per client IP for the given router.
func RateLimit(
	rateLimiter RequestRateLimiter,
	routerName string,
	allowedPerMin int,
	metricsManager *metrics.Manager,
) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			ip, err := pkg.ReadUserIP(r)
			if err != nil {
				log.Warnf("rate limit [%s]: read user ip: %s", routerName, err)
				ip = "unknown"
			}

			res, err := rateLimiter.Allow(
				r.Context(),
				routerName+"||"+ip,
				redis_rate.PerMinute(allowedPerMin),
			)
			if err != nil {
				apperr.WriteError(w, r, fmt.Errorf("%w: rate limit [%s]: %w", apperr.ErrInternal, routerName, err))
				return
			}

			if res.Allowed > 0 {
				next.ServeHTTP(w, r)
				return
			}

			if metricsManager != nil {
				metricsManager.CounterRateLimitedRequests.Inc()
			}

			w.Header().Set("Retry-After", strconv.Itoa(int(res.RetryAfter.Seconds())+1))
			pkg.WriteJSON(w, apperr.ErrorResponse{
				Success: false,
				Message: fmt.Sprintf("Too many requests, retry after %.0f seconds", res.RetryAfter.Seconds()),
			}, http.StatusTooManyRequests)
		})
	}
}
