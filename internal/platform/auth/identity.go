package auth

import (
	"context"
)

// Identity captures the authenticated principal details extracted from a
// verified Firebase ID token or a session JWT. UserID references the
// application user document; UID is the Firebase account id.
type Identity struct {
	UID    string
	UserID string
	Email  string
	Admin  bool
	Active bool
}

// IsAdmin reports whether the identity carries the admin flag.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Admin
}

// Owns reports whether the identity is the application user with the given id.
func (i *Identity) Owns(userID string) bool {
	return i != nil && userID != "" && i.UserID == userID
}

type contextKey string

const identityContextKey contextKey = "github.com/dulceria/api/internal/platform/auth/identity"

// WithIdentity stores the identity within the context for downstream handlers.
func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// IdentityFromContext retrieves the identity previously stored in context.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	identity, ok := ctx.Value(identityContextKey).(*Identity)
	if !ok || identity == nil {
		return nil, false
	}
	return identity, true
}
