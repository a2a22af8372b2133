package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dulceria/api/internal/platform/httpx"
	"github.com/dulceria/api/internal/services"
)

const maxAuthBodySize = 16 * 1024

type registerRequest struct {
	Name     string `json:"name"`
	Lastname string `json:"lastname"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	IDToken string `json:"id_token"`
}

type loginResponse struct {
	Token     string      `json:"token"`
	ExpiresAt string      `json:"expires_at"`
	User      userPayload `json:"user"`
}

type registerResponse struct {
	User userPayload `json:"user"`
}

// AuthHandlers exposes the unauthenticated registration and login endpoints.
type AuthHandlers struct {
	users   services.UserService
	limiter rateLimiter
}

// AuthOption customises the auth handlers.
type AuthOption func(*AuthHandlers)

// WithAuthRateLimit throttles registration and login attempts per client IP.
func WithAuthRateLimit(limit int, window time.Duration, clock func() time.Time) AuthOption {
	return func(h *AuthHandlers) {
		h.limiter = newSimpleRateLimiter(limit, window, clock)
	}
}

// NewAuthHandlers constructs a new AuthHandlers instance.
func NewAuthHandlers(users services.UserService, opts ...AuthOption) *AuthHandlers {
	h := &AuthHandlers{users: users}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes registers the /auth endpoints.
func (h *AuthHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/register", h.register)
	r.Post("/login", h.login)
}

func (h *AuthHandlers) register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.users == nil {
		httpx.WriteError(ctx, w, httpx.NewError("user_service_unavailable", "user service unavailable", http.StatusServiceUnavailable))
		return
	}
	if !h.allow(w, r) {
		return
	}

	var req registerRequest
	if !decodeJSONBody(w, r, maxAuthBodySize, &req) {
		return
	}

	profile, err := h.users.Register(ctx, services.RegisterUserCommand{
		Name:     req.Name,
		Lastname: req.Lastname,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeUserError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, registerResponse{User: buildUserPayload(profile)})
}

func (h *AuthHandlers) login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.users == nil {
		httpx.WriteError(ctx, w, httpx.NewError("user_service_unavailable", "user service unavailable", http.StatusServiceUnavailable))
		return
	}
	if !h.allow(w, r) {
		return
	}

	var req loginRequest
	if !decodeJSONBody(w, r, maxAuthBodySize, &req) {
		return
	}
	if strings.TrimSpace(req.IDToken) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "id_token is required", http.StatusBadRequest))
		return
	}

	result, err := h.users.Login(ctx, req.IDToken)
	if err != nil {
		writeUserError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, loginResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		User:      buildUserPayload(result.Profile),
	})
}

func (h *AuthHandlers) allow(w http.ResponseWriter, r *http.Request) bool {
	if h.limiter == nil {
		return true
	}
	if h.limiter.Allow(r.RemoteAddr) {
		return true
	}
	httpx.WriteError(r.Context(), w, httpx.NewError("rate_limited", "too many attempts, retry later", http.StatusTooManyRequests))
	return false
}
