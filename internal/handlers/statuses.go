package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dulceria/api/internal/platform/auth"
	"github.com/dulceria/api/internal/platform/httpx"
	"github.com/dulceria/api/internal/services"
)

// StatusHandlers exposes read-only access to the order status vocabulary.
type StatusHandlers struct {
	authn    *auth.Authenticator
	statuses services.StatusService
}

// NewStatusHandlers constructs a new StatusHandlers instance.
func NewStatusHandlers(authn *auth.Authenticator, statuses services.StatusService) *StatusHandlers {
	return &StatusHandlers{
		authn:    authn,
		statuses: statuses,
	}
}

// Routes registers the /statuses endpoints.
func (h *StatusHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireAuth())
	}
	r.Get("/", h.listStatuses)
	r.Get("/{statusID}", h.getStatus)
}

func (h *StatusHandlers) listStatuses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.statuses == nil {
		httpx.WriteError(ctx, w, httpx.NewError("status_service_unavailable", "status service unavailable", http.StatusServiceUnavailable))
		return
	}

	statuses, err := h.statuses.ListStatuses(ctx)
	if err != nil {
		writeStatusError(ctx, w, err)
		return
	}

	payloads := make([]statusPayload, 0, len(statuses))
	for _, status := range statuses {
		payloads = append(payloads, buildStatusPayload(status))
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"statuses": payloads})
}

func (h *StatusHandlers) getStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.statuses == nil {
		httpx.WriteError(ctx, w, httpx.NewError("status_service_unavailable", "status service unavailable", http.StatusServiceUnavailable))
		return
	}

	statusID := strings.TrimSpace(chi.URLParam(r, "statusID"))
	if statusID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "status id is required", http.StatusBadRequest))
		return
	}

	status, err := h.statuses.GetStatus(ctx, statusID)
	if err != nil {
		writeStatusError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{"status": buildStatusPayload(status)})
}
