package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const DefaultTokenTTL = 7 * 24 * time.Hour

var (
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenMalformed = errors.New("token malformed")
)

type Claims struct {
	ID string `json:"id"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies stateless HS256 identity tokens.
// Tokens cannot be revoked before they expire.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	// ability to inject the clock (for unit and dev testing)
	NowFunc func() time.Time
}

func NewTokenService(secret []byte, ttl time.Duration) (*TokenService, error) {
	if len(secret) == 0 {
		return nil, errors.New("token secret cannot be empty")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{
		secret:  secret,
		ttl:     ttl,
		NowFunc: time.Now,
	}, nil
}

func (ts *TokenService) Issue(identity uuid.UUID) (string, error) {
	if identity == uuid.Nil {
		return "", errors.New("cannot issue token for empty identity")
	}

	now := ts.NowFunc()
	claims := &Claims{
		ID: identity.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ts.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify returns the identity the token was issued for.
// Fails with ErrTokenExpired or ErrTokenMalformed, the jwt cause is wrapped along.
func (ts *TokenService) Verify(token string) (uuid.UUID, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(
		token,
		claims,
		func(t *jwt.Token) (any, error) {
			return ts.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(ts.NowFunc),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return uuid.Nil, fmt.Errorf("%w: %w", ErrTokenExpired, err)
		}
		return uuid.Nil, fmt.Errorf("%w: %w", ErrTokenMalformed, err)
	}

	identity, err := uuid.Parse(claims.ID)
	if err != nil || identity == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: invalid identity [%s]", ErrTokenMalformed, claims.ID)
	}

	return identity, nil
}
