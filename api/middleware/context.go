package middleware

import (
	"context"

	"github.com/angelmondragon/askbox-backend/pkg/enums"
	"github.com/google/uuid"
)

type principalKey struct{}

// Principal is the authenticated caller, taken from verified token claims.
type Principal struct {
	UserID   uuid.UUID
	Username string
	Role     enums.SystemRole
}

// WithPrincipal attaches p to ctx. Auth does this after verifying the token;
// tests use it to stand in for Auth.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the caller set by Auth, if any.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	if ctx == nil {
		return Principal{}, false
	}
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok && p.UserID != uuid.Nil
}
