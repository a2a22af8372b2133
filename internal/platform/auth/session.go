package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrSessionTokenExpired signals that the provided session token has expired.
	ErrSessionTokenExpired = errors.New("auth: session token expired")
	// ErrSessionTokenInvalid signals that the provided session token failed validation.
	ErrSessionTokenInvalid = errors.New("auth: session token invalid")
)

// SessionClaims carries the application user snapshot inside a session JWT.
type SessionClaims struct {
	UserID string `json:"uid"`
	Email  string `json:"email"`
	Admin  bool   `json:"admin"`
	Active bool   `json:"active"`
	jwt.RegisteredClaims
}

// SessionManager issues and validates HS256 session tokens minted after a
// successful Firebase login.
type SessionManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// SessionManagerDeps configures a SessionManager.
type SessionManagerDeps struct {
	Secret string
	Issuer string
	TTL    time.Duration
	Clock  func() time.Time
}

// NewSessionManager validates deps and constructs a SessionManager.
func NewSessionManager(deps SessionManagerDeps) (*SessionManager, error) {
	secret := strings.TrimSpace(deps.Secret)
	if secret == "" {
		return nil, errors.New("auth: session secret is required")
	}
	if deps.TTL <= 0 {
		return nil, errors.New("auth: session ttl must be positive")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &SessionManager{
		secret: []byte(secret),
		issuer: strings.TrimSpace(deps.Issuer),
		ttl:    deps.TTL,
		now:    clock,
	}, nil
}

// Issue mints a signed session token for the given user snapshot.
func (m *SessionManager) Issue(userID, email string, admin, active bool) (string, time.Time, error) {
	if m == nil {
		return "", time.Time{}, errors.New("auth: session manager not initialised")
	}
	if strings.TrimSpace(userID) == "" {
		return "", time.Time{}, errors.New("auth: user id is required")
	}

	now := m.now().UTC()
	expiresAt := now.Add(m.ttl)
	claims := SessionClaims{
		UserID: userID,
		Email:  strings.TrimSpace(email),
		Admin:  admin,
		Active: active,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth: sign session token: %w", err)
	}
	return signed, expiresAt, nil
}

// Parse validates the signed token and returns its claims.
func (m *SessionManager) Parse(tokenStr string) (SessionClaims, error) {
	if m == nil {
		return SessionClaims{}, errors.New("auth: session manager not initialised")
	}
	tokenStr = strings.TrimSpace(tokenStr)
	if tokenStr == "" {
		return SessionClaims{}, fmt.Errorf("%w: empty token", ErrSessionTokenInvalid)
	}

	claims := SessionClaims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	)
	token, err := parser.ParseWithClaims(tokenStr, &claims, func(token *jwt.Token) (any, error) {
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return SessionClaims{}, fmt.Errorf("%w: %v", ErrSessionTokenExpired, err)
		}
		return SessionClaims{}, fmt.Errorf("%w: %v", ErrSessionTokenInvalid, err)
	}
	if !token.Valid {
		return SessionClaims{}, ErrSessionTokenInvalid
	}
	if m.issuer != "" && claims.Issuer != m.issuer {
		return SessionClaims{}, fmt.Errorf("%w: unexpected issuer", ErrSessionTokenInvalid)
	}
	return claims, nil
}
