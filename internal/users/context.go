package users

import "context"

type ctxKey struct{}

// NewContext attaches the authenticated user to ctx.
func NewContext(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, ctxKey{}, user)
}

// FromContext returns the user attached by the auth gate.
func FromContext(ctx context.Context) (*User, bool) {
	user, ok := ctx.Value(ctxKey{}).(*User)
	return user, ok && user != nil
}
