package middleware

import (
	"context"

	"github.com/angelmondragon/aerogourmet-backend/pkg/enums"
)

type contextKey string

const (
	ctxIdentity contextKey = "identity"
)

// Identity is the authenticated caller attached by Auth or OptionalAuth.
type Identity struct {
	UserID    uint
	Name      string
	Role      enums.UserRole
	SessionID string
}

// WithIdentity attaches the caller identity to ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxIdentity, id)
}

// IdentityFromContext returns the caller identity; ok is false for anonymous
// requests.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return Identity{}, false
	}
	id, ok := ctx.Value(ctxIdentity).(Identity)
	return id, ok && id.UserID != 0
}

func UserIDFromContext(ctx context.Context) uint {
	id, _ := IdentityFromContext(ctx)
	return id.UserID
}

func RoleFromContext(ctx context.Context) enums.UserRole {
	id, _ := IdentityFromContext(ctx)
	return id.Role
}
