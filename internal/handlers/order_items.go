package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dulceria/api/internal/platform/httpx"
	"github.com/dulceria/api/internal/services"
)

type addLineItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type updateLineItemRequest struct {
	Quantity int `json:"quantity"`
}

type lineItemMutationResponse struct {
	Item        lineItemPayload `json:"item"`
	Order       orderPayload    `json:"order"`
	TotalsStale bool            `json:"totals_stale,omitempty"`
}

func (h *OrderHandlers) listLineItems(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.lineItems == nil {
		httpx.WriteError(ctx, w, httpx.NewError("line_item_service_unavailable", "line item service unavailable", http.StatusServiceUnavailable))
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

	items, err := h.lineItems.ListLineItems(ctx, orderID, actorFrom(identity))
	if err != nil {
		writeLineItemError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{"items": buildLineItemViews(items)})
}

func (h *OrderHandlers) addLineItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.lineItems == nil {
		httpx.WriteError(ctx, w, httpx.NewError("line_item_service_unavailable", "line item service unavailable", http.StatusServiceUnavailable))
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

	var req addLineItemRequest
	if !decodeJSONBody(w, r, maxOrderBodySize, &req) {
		return
	}

	result, err := h.lineItems.AddLineItem(ctx, services.AddLineItemCommand{
		OrderID:   orderID,
		ProductID: strings.TrimSpace(req.ProductID),
		Quantity:  req.Quantity,
		Actor:     actorFrom(identity),
	})
	if err != nil {
		writeLineItemError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, buildLineItemMutationResponse(result))
}

func (h *OrderHandlers) updateLineItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.lineItems == nil {
		httpx.WriteError(ctx, w, httpx.NewError("line_item_service_unavailable", "line item service unavailable", http.StatusServiceUnavailable))
		return
	}

	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	orderID := strings.TrimSpace(chi.URLParam(r, "orderID"))
	itemID := strings.TrimSpace(chi.URLParam(r, "itemID"))
	if orderID == "" || itemID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "order id and item id are required", http.StatusBadRequest))
		return
	}

	var req updateLineItemRequest
	if !decodeJSONBody(w, r, maxOrderBodySize, &req) {
		return
	}

	result, err := h.lineItems.UpdateLineItemQuantity(ctx, services.UpdateLineItemQuantityCommand{
		OrderID:  orderID,
		ItemID:   itemID,
		Quantity: req.Quantity,
		Actor:    actorFrom(identity),
	})
	if err != nil {
		writeLineItemError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, buildLineItemMutationResponse(result))
}

func (h *OrderHandlers) removeLineItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.lineItems == nil {
		httpx.WriteError(ctx, w, httpx.NewError("line_item_service_unavailable", "line item service unavailable", http.StatusServiceUnavailable))
		return
	}

	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	orderID := strings.TrimSpace(chi.URLParam(r, "orderID"))
	itemID := strings.TrimSpace(chi.URLParam(r, "itemID"))
	if orderID == "" || itemID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "order id and item id are required", http.StatusBadRequest))
		return
	}

	result, err := h.lineItems.RemoveLineItem(ctx, services.RemoveLineItemCommand{
		OrderID: orderID,
		ItemID:  itemID,
		Actor:   actorFrom(identity),
	})
	if err != nil {
		writeLineItemError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, buildLineItemMutationResponse(result))
}

func buildLineItemMutationResponse(result services.LineItemMutationResult) lineItemMutationResponse {
	return lineItemMutationResponse{
		Item:        buildLineItemPayload(result.Item),
		Order:       buildOrderPayload(result.Order),
		TotalsStale: result.TotalsStale,
	}
}
