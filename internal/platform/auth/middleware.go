package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	firebaseauth "firebase.google.com/go/v4/auth"
)

const (
	defaultVerifyTimeout = 5 * time.Second
)

var (
	// ErrTokenExpired signals that the provided Firebase ID token has expired.
	ErrTokenExpired = errors.New("auth: firebase id token expired")
	// ErrTokenInvalid signals that the provided Firebase ID token is invalid for other reasons.
	ErrTokenInvalid = errors.New("auth: firebase id token invalid")
)

// TokenVerifier verifies Firebase ID tokens.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*firebaseauth.Token, error)
}

// ProfileResolver loads the application user snapshot for a Firebase UID.
// Implementations return an identity with Active=false when the user document
// is missing or deactivated.
type ProfileResolver func(ctx context.Context, firebaseUID string, email string) (Identity, error)

// Authenticator turns bearer tokens into request identities. Session JWTs are
// tried first (cheap local validation); anything else is treated as a Firebase
// ID token and resolved against the users collection.
type Authenticator struct {
	sessions *SessionManager
	verifier TokenVerifier
	resolve  ProfileResolver
	timeout  time.Duration
}

// Option customises Authenticator behaviour.
type Option func(*Authenticator)

// WithSessionManager enables session JWT validation.
func WithSessionManager(sessions *SessionManager) Option {
	return func(a *Authenticator) {
		a.sessions = sessions
	}
}

// WithProfileResolver wires the application user lookup used for Firebase tokens.
func WithProfileResolver(resolve ProfileResolver) Option {
	return func(a *Authenticator) {
		a.resolve = resolve
	}
}

// WithVerificationTimeout sets the timeout used when verifying tokens and loading users.
func WithVerificationTimeout(d time.Duration) Option {
	return func(a *Authenticator) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// NewAuthenticator constructs an Authenticator for middleware composition.
func NewAuthenticator(verifier TokenVerifier, opts ...Option) *Authenticator {
	a := &Authenticator{
		verifier: verifier,
		timeout:  defaultVerifyTimeout,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}

	return a
}

// RequireAuth verifies the Authorization bearer token and stores the resulting
// identity in the request context. Inactive users are rejected.
func (a *Authenticator) RequireAuth() func(http.Handler) http.Handler {
	return a.middleware(false)
}

// RequireAdmin behaves like RequireAuth and additionally demands the admin flag.
func (a *Authenticator) RequireAdmin() func(http.Handler) http.Handler {
	return a.middleware(true)
}

func (a *Authenticator) middleware(adminOnly bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, ok := extractBearerToken(r.Header.Get("Authorization"))
			if !ok {
				respondAuthError(w, http.StatusUnauthorized, "unauthenticated", "authorization header missing or invalid")
				return
			}

			identity, err := a.identityFromToken(r.Context(), tokenStr)
			if err != nil {
				respondVerificationError(w, err)
				return
			}
			if !identity.Active {
				respondAuthError(w, http.StatusForbidden, "inactive_user", "user account is deactivated")
				return
			}
			if adminOnly && !identity.IsAdmin() {
				respondAuthError(w, http.StatusForbidden, "admin_required", "administrator access required")
				return
			}

			ctx := WithIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (a *Authenticator) identityFromToken(ctx context.Context, tokenStr string) (*Identity, error) {
	if a == nil {
		return nil, ErrTokenInvalid
	}

	if a.sessions != nil {
		claims, err := a.sessions.Parse(tokenStr)
		if err == nil {
			return &Identity{
				UserID: claims.UserID,
				Email:  claims.Email,
				Admin:  claims.Admin,
				Active: claims.Active,
			}, nil
		}
		if errors.Is(err, ErrSessionTokenExpired) {
			return nil, err
		}
		// Not a session token; fall through to Firebase verification.
	}

	if a.verifier == nil {
		return nil, ErrTokenInvalid
	}

	verifyCtx, cancel := a.contextWithTimeout(ctx)
	if cancel != nil {
		defer cancel()
	}

	token, err := a.verifier.VerifyIDToken(verifyCtx, tokenStr)
	if err != nil {
		return nil, err
	}

	email := claimAsString(token.Claims, "email")
	if a.resolve == nil {
		return &Identity{UID: token.UID, Email: email, Active: true}, nil
	}

	resolveCtx, cancel := a.contextWithTimeout(ctx)
	if cancel != nil {
		defer cancel()
	}
	identity, err := a.resolve(resolveCtx, token.UID, email)
	if err != nil {
		return nil, err
	}
	identity.UID = token.UID
	if identity.Email == "" {
		identity.Email = email
	}
	return &identity, nil
}

func (a *Authenticator) contextWithTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a == nil || a.timeout <= 0 {
		return ctx, nil
	}
	return context.WithTimeout(ctx, a.timeout)
}

func claimAsString(claims map[string]interface{}, key string) string {
	raw, ok := claims[key]
	if !ok {
		return ""
	}
	switch v := raw.(type) {
	case string:
		return strings.TrimSpace(v)
	default:
		return ""
	}
}

func extractBearerToken(header string) (string, bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", false
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return "", false
	}

	if !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}

	return token, true
}

func respondAuthError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error":   code,
		"message": message,
		"status":  status,
	})
}

func respondVerificationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrSessionTokenExpired), errors.Is(err, ErrTokenExpired), firebaseauth.IsIDTokenExpired(err):
		respondAuthError(w, http.StatusUnauthorized, "token_expired", "bearer token expired")
	case errors.Is(err, ErrSessionTokenInvalid), errors.Is(err, ErrTokenInvalid), firebaseauth.IsIDTokenInvalid(err):
		respondAuthError(w, http.StatusUnauthorized, "invalid_token", "bearer token invalid")
	default:
		respondAuthError(w, http.StatusUnauthorized, "invalid_token", "bearer token verification failed")
	}
}
