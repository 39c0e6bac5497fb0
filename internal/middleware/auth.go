package middleware

import (
	"context"
	"net/http"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/2beens/blogsvc/internal/apperr"
	"github.com/2beens/blogsvc/internal/telemetry/tracing"
	"github.com/2beens/blogsvc/internal/users"
)

//go:generate mockgen -source=$GOFILE -destination=auth_mocks_test.go -package=middleware_test

type authenticator interface {
	Authenticate(ctx context.Context, rawHeader string) (*users.User, error)
}

// AuthGate is the single place protected routes get their caller from.
// Handlers behind it read the user with users.FromContext.
type AuthGate struct {
	authenticator authenticator
}

func NewAuthGate(authenticator authenticator) *AuthGate {
	return &AuthGate{
		authenticator: authenticator,
	}
}

func (g *AuthGate) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracing.GlobalTracer.Start(r.Context(), "middleware.auth")
		defer span.End()

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			span.SetStatus(codes.Ok, "options-ok")
			return
		}

		user, err := g.authenticator.Authenticate(ctx, r.Header.Get("Authorization"))
		if err != nil {
			log.Tracef("[auth gate] rejected => %s: %s", r.URL.Path, err)
			span.SetStatus(codes.Error, "auth failed")
			span.RecordError(err)
			apperr.WriteError(w, r, err)
			return
		}

		span.SetAttributes(attribute.String("user.id", user.ID.String()))
		span.SetStatus(codes.Ok, "ok")
		next.ServeHTTP(w, r.WithContext(users.NewContext(r.Context(), user)))
	})
}
