package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/blogsvc/internal/apperr"
	"github.com/2beens/blogsvc/internal/telemetry/tracing"
	"github.com/2beens/blogsvc/internal/users"
	"github.com/2beens/blogsvc/pkg"
)

//go:generate mockgen -source=$GOFILE -destination=service_mocks_test.go -package=auth_test

type userStore interface {
	Add(ctx context.Context, user *users.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*users.User, error)
	GetByEmail(ctx context.Context, email string) (*users.User, error)
	UpdateAvatar(ctx context.Context, id uuid.UUID, avatar string) error
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r RegisterRequest) Validate() error {
	if strings.TrimSpace(r.Username) == "" || strings.TrimSpace(r.Email) == "" || r.Password == "" {
		return apperr.WithMessage(apperr.ErrValidation, "Username, email and password are required")
	}
	return nil
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResult struct {
	Identity uuid.UUID
	Token    string
	User     users.Profile
}

type Service struct {
	users      userStore
	tokens     *TokenService
	cache      *users.Cache
	bcryptCost int
	// ability to inject avatar generator (for unit and dev testing)
	AvatarFunc func() string
}

func NewService(userStore userStore, tokens *TokenService, cache *users.Cache, bcryptCost int) *Service {
	return &Service{
		users:      userStore,
		tokens:     tokens,
		cache:      cache,
		bcryptCost: bcryptCost,
		AvatarFunc: RandomAvatar,
	}
}

func (s *Service) Register(ctx context.Context, req RegisterRequest) (_ *AuthResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.auth.register")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	email := users.NormalizeEmail(req.Email)
	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return nil, fmt.Errorf("check existing user: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("register %s: %w", email, apperr.ErrConflict)
	}

	passwordHash, err := pkg.HashPasswordWithCost(req.Password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	username := strings.TrimSpace(req.Username)
	user := &users.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		Name:         username,
		PasswordHash: passwordHash,
		Avatar:       s.AvatarFunc(),
	}
	// a concurrent registration with the same email ends up as a unique violation -> conflict
	if err := s.users.Add(ctx, user); err != nil {
		return nil, fmt.Errorf("register %s: %w", email, err)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	log.Debugf("auth: new user registered: %s", user.ID)

	return &AuthResult{
		Identity: user.ID,
		Token:    token,
		User:     user.Profile(),
	}, nil
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (_ *AuthResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.auth.login")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return nil, apperr.ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			// do not leak which part was wrong
			return nil, apperr.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if !pkg.CheckPasswordHash(req.Password, user.PasswordHash) {
		return nil, apperr.ErrInvalidCredentials
	}

	if user.Avatar == "" {
		user.Avatar = s.AvatarFunc()
		if err := s.users.UpdateAvatar(ctx, user.ID, user.Avatar); err != nil {
			return nil, fmt.Errorf("backfill avatar: %w", err)
		}
		s.cache.Invalidate(user.ID)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	return &AuthResult{
		Identity: user.ID,
		Token:    token,
		User:     user.Profile(),
	}, nil
}

// Authenticate resolves the bearer token from the Authorization header value
// to an existing user. Token and unknown user failures are ErrUnauthenticated,
// store failures are returned as they are and end up as internal errors.
func (s *Service) Authenticate(ctx context.Context, rawHeader string) (_ *users.User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.auth.authenticate")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	token, found := strings.CutPrefix(rawHeader, "Bearer ")
	token = strings.TrimSpace(token)
	if !found || token == "" {
		return nil, apperr.WithMessage(apperr.ErrUnauthenticated, "Not authorized, no token provided")
	}

	identity, err := s.tokens.Verify(token)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %w", apperr.WithMessage(apperr.ErrUnauthenticated, "Token expired, please login again"), err)
		}
		return nil, fmt.Errorf("%w: %w", apperr.WithMessage(apperr.ErrUnauthenticated, "Invalid token"), err)
	}

	if user, ok := s.cache.Get(identity); ok {
		return user, nil
	}

	user, err := s.users.GetByID(ctx, identity)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.WithMessage(apperr.ErrUnauthenticated, "Not authorized, user not found")
		}
		// store failures stay internal errors, not 401
		return nil, fmt.Errorf("resolve user %s: %w", identity, err)
	}
	s.cache.Set(user)

	return user.Sanitized(), nil
}
