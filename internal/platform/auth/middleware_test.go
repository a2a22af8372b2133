package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	firebaseauth "firebase.google.com/go/v4/auth"
)

type stubTokenVerifier struct {
	token    *firebaseauth.Token
	err      error
	received string
}

func (s *stubTokenVerifier) VerifyIDToken(ctx context.Context, idToken string) (*firebaseauth.Token, error) {
	s.received = idToken
	if s.err != nil {
		return nil, s.err
	}
	return s.token, nil
}

func testSessionManager(t *testing.T, clock func() time.Time) *SessionManager {
	t.Helper()
	manager, err := NewSessionManager(SessionManagerDeps{
		Secret: "test-secret",
		Issuer: "dulceria-test",
		TTL:    time.Hour,
		Clock:  clock,
	})
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	return manager
}

func TestRequireAuth_AllowsSessionToken(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	sessions := testSessionManager(t, func() time.Time { return now })

	token, _, err := sessions.Issue("usr_1", "user@example.com", false, true)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	authn := NewAuthenticator(nil, WithSessionManager(sessions))

	handlerCalled := false
	handler := authn.RequireAuth()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true

		identity, ok := IdentityFromContext(r.Context())
		if !ok {
			t.Fatalf("expected identity in context")
		}
		if identity.UserID != "usr_1" {
			t.Fatalf("unexpected user id: %s", identity.UserID)
		}
		if identity.Email != "user@example.com" {
			t.Fatalf("unexpected email: %s", identity.Email)
		}
		if identity.IsAdmin() {
			t.Fatal("expected non-admin identity")
		}

		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rr.Code)
	}
	if !handlerCalled {
		t.Fatal("expected handler to be called")
	}
}

func TestRequireAuth_FirebaseTokenResolvesProfile(t *testing.T) {
	verifier := &stubTokenVerifier{
		token: &firebaseauth.Token{
			UID:    "fb-uid-123",
			Claims: map[string]interface{}{"email": "user@example.com"},
		},
	}

	resolved := false
	authn := NewAuthenticator(verifier, WithProfileResolver(func(ctx context.Context, firebaseUID string, email string) (Identity, error) {
		resolved = true
		if firebaseUID != "fb-uid-123" {
			t.Fatalf("unexpected firebase uid %s", firebaseUID)
		}
		return Identity{UserID: "usr_9", Email: email, Active: true}, nil
	}))

	handler := authn.RequireAuth()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFromContext(r.Context())
		if !ok {
			t.Fatalf("expected identity in context")
		}
		if identity.UserID != "usr_9" || identity.UID != "fb-uid-123" {
			t.Fatalf("unexpected identity %+v", identity)
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer firebase-token")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
	if !resolved {
		t.Fatal("expected profile resolver to be called")
	}
	if verifier.received != "firebase-token" {
		t.Fatalf("expected verifier to receive firebase-token, got %s", verifier.received)
	}
}

func TestRequireAuth_RejectsInactiveUser(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	sessions := testSessionManager(t, func() time.Time { return now })

	token, _, err := sessions.Issue("usr_2", "gone@example.com", false, false)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	authn := NewAuthenticator(nil, WithSessionManager(sessions))
	handler := authn.RequireAuth()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not execute for inactive user")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("expected JSON body: %v", err)
	}
	if body["error"] != "inactive_user" {
		t.Fatalf("expected inactive_user error, got %v", body["error"])
	}
}

func TestRequireAdmin_RejectsNonAdmin(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	sessions := testSessionManager(t, func() time.Time { return now })

	token, _, err := sessions.Issue("usr_3", "user@example.com", false, true)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	authn := NewAuthenticator(nil, WithSessionManager(sessions))
	handler := authn.RequireAdmin()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not execute for non-admin")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
}

func TestRequireAuth_ExpiredSessionToken(t *testing.T) {
	issuedAt := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	sessions := testSessionManager(t, func() time.Time { return issuedAt })

	token, _, err := sessions.Issue("usr_4", "late@example.com", false, true)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	// Validate with a clock past the ttl.
	sessions.now = func() time.Time { return issuedAt.Add(2 * time.Hour) }

	authn := NewAuthenticator(nil, WithSessionManager(sessions))
	handler := authn.RequireAuth()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not execute on expired token")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("expected JSON body: %v", err)
	}
	if body["error"] != "token_expired" {
		t.Fatalf("expected token_expired error, got %v", body["error"])
	}
}

func TestRequireAuth_MissingHeader(t *testing.T) {
	authn := NewAuthenticator(&stubTokenVerifier{})
	handler := authn.RequireAuth()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not execute without a token")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}
