package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dulceria/api/internal/platform/httpx"
	"github.com/dulceria/api/internal/services"
)

type advanceStatusRequest struct {
	StatusID string `json:"status_id"`
}

func (h *OrderHandlers) currentStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.statuses == nil {
		httpx.WriteError(ctx, w, httpx.NewError("status_service_unavailable", "status service unavailable", http.StatusServiceUnavailable))
		return
	}

	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	orderID := strings.TrimSpace(chi.URLParam(r, "orderID"))
	if orderID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "order id is required", http.StatusBadRequest))
		return
	}

	status, err := h.statuses.CurrentStatus(ctx, orderID, actorFrom(identity))
	if err != nil {
		writeStatusError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{"status": buildStatusPayload(status)})
}

func (h *OrderHandlers) advanceStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.statuses == nil {
		httpx.WriteError(ctx, w, httpx.NewError("status_service_unavailable", "status service unavailable", http.StatusServiceUnavailable))
		return
	}

	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	orderID := strings.TrimSpace(chi.URLParam(r, "orderID"))
	if orderID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "order id is required", http.StatusBadRequest))
		return
	}

	// The body is optional; an empty advance targets the default `ordered`
	// status.
	var req advanceStatusRequest
	body, err := readLimitedBody(r, maxOrderBodySize)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}
	if len(body) > 0 {
		if jsonErr := decodeOptionalJSON(body, &req); jsonErr != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON body", http.StatusBadRequest))
			return
		}
	}

	record, err := h.statuses.Advance(ctx, services.AdvanceStatusCommand{
		OrderID:        orderID,
		TargetStatusID: strings.TrimSpace(req.StatusID),
		Actor:          actorFrom(identity),
	})
	if err != nil {
		writeStatusError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, map[string]any{"record": buildStatusRecordPayload(record, "")})
}

func (h *OrderHandlers) statusHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.statuses == nil {
		httpx.WriteError(ctx, w, httpx.NewError("status_service_unavailable", "status service unavailable", http.StatusServiceUnavailable))
		return
	}

	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	orderID := strings.TrimSpace(chi.URLParam(r, "orderID"))
	if orderID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "order id is required", http.StatusBadRequest))
		return
	}

	history, err := h.statuses.StatusHistory(ctx, orderID, actorFrom(identity))
	if err != nil {
		writeStatusError(ctx, w, err)
		return
	}

	records := make([]statusRecordPayload, 0, len(history))
	for _, view := range history {
		records = append(records, buildStatusRecordPayload(view.StatusRecord, view.Description))
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"history": records})
}
