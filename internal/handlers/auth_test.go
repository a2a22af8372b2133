package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dulceria/api/internal/services"
)

func newAuthRouter(h *AuthHandlers) chi.Router {
	r := chi.NewRouter()
	h.Routes(r)
	return r
}

func TestAuthHandlersRegisterSuccess(t *testing.T) {
	var captured services.RegisterUserCommand
	users := &stubUserService{
		registerFn: func(_ context.Context, cmd services.RegisterUserCommand) (services.UserProfile, error) {
			captured = cmd
			return services.UserProfile{
				ID:     "usr_1",
				Name:   "Maria",
				Email:  "maria@example.com",
				Active: true,
			}, nil
		},
	}

	router := newAuthRouter(NewAuthHandlers(users))

	body := strings.NewReader(`{"name":"Maria","lastname":"Lopez","email":"maria@example.com","password":"secret1"}`)
	req := httptest.NewRequest(http.MethodPost, "/register", body)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if captured.Email != "maria@example.com" || captured.Lastname != "Lopez" {
		t.Fatalf("unexpected command: %+v", captured)
	}

	var resp map[string]map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp["user"]["id"] != "usr_1" {
		t.Fatalf("expected usr_1, got %v", resp["user"]["id"])
	}
}

func TestAuthHandlersRegisterConflict(t *testing.T) {
	users := &stubUserService{
		registerFn: func(context.Context, services.RegisterUserCommand) (services.UserProfile, error) {
			return services.UserProfile{}, fmt.Errorf("%w: email taken", services.ErrUserConflict)
		},
	}

	router := newAuthRouter(NewAuthHandlers(users))

	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(`{"email":"dup@example.com"}`))
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", rr.Code)
	}
}

func TestAuthHandlersRegisterRejectsEmptyBody(t *testing.T) {
	router := newAuthRouter(NewAuthHandlers(&stubUserService{}))

	req := httptest.NewRequest(http.MethodPost, "/register", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestAuthHandlersLoginSuccess(t *testing.T) {
	users := &stubUserService{
		loginFn: func(_ context.Context, idToken string) (services.LoginResult, error) {
			if idToken != "firebase-id-token" {
				t.Fatalf("unexpected id token %q", idToken)
			}
			return services.LoginResult{
				Token:     "session-jwt",
				ExpiresAt: "2026-04-09T12:00:00Z",
				Profile:   services.UserProfile{ID: "usr_1", Email: "maria@example.com", Active: true},
			}, nil
		},
	}

	router := newAuthRouter(NewAuthHandlers(users))

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"id_token":"firebase-id-token"}`))
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp["token"] != "session-jwt" {
		t.Fatalf("expected session token, got %v", resp["token"])
	}
	if resp["expires_at"] != "2026-04-09T12:00:00Z" {
		t.Fatalf("unexpected expiry %v", resp["expires_at"])
	}
}

func TestAuthHandlersLoginInvalidCredentials(t *testing.T) {
	users := &stubUserService{
		loginFn: func(context.Context, string) (services.LoginResult, error) {
			return services.LoginResult{}, services.ErrUserInvalidCredentials
		},
	}

	router := newAuthRouter(NewAuthHandlers(users))

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"id_token":"bogus"}`))
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rr.Code)
	}
}

func TestAuthHandlersRateLimitsLogin(t *testing.T) {
	now := time.Date(2026, 4, 8, 12, 0, 0, 0, time.UTC)
	users := &stubUserService{
		loginFn: func(context.Context, string) (services.LoginResult, error) {
			return services.LoginResult{Token: "ok"}, nil
		},
	}

	router := newAuthRouter(NewAuthHandlers(users, WithAuthRateLimit(2, time.Minute, func() time.Time { return now })))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"id_token":"tok"}`))
		req.RemoteAddr = "10.0.0.1:1234"
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("attempt %d: expected status 200, got %d", i+1, rr.Code)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"id_token":"tok"}`))
	req.RemoteAddr = "10.0.0.1:1234"
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %d", rr.Code)
	}
}
