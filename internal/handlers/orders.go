package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dulceria/api/internal/platform/auth"
	"github.com/dulceria/api/internal/platform/httpx"
	"github.com/dulceria/api/internal/services"
)

const maxOrderBodySize = 16 * 1024

type orderSummaryPayload struct {
	orderPayload
	UserName      string `json:"user_name,omitempty"`
	CurrentStatus string `json:"current_status,omitempty"`
}

type orderListResponse struct {
	Orders []orderSummaryPayload `json:"orders"`
	Total  int64                 `json:"total"`
	Skip   int                   `json:"skip"`
	Limit  int                   `json:"limit"`
}

type orderDetailResponse struct {
	Order         orderPayload          `json:"order"`
	UserName      string                `json:"user_name,omitempty"`
	CurrentStatus string                `json:"current_status,omitempty"`
	Items         []lineItemViewPayload `json:"items"`
	History       []statusRecordPayload `json:"history"`
}

type openOrderResponse struct {
	Order   orderPayload `json:"order"`
	Created bool         `json:"created"`
}

// OrderHandlers exposes the order aggregate for authenticated users: the
// open-order entry point, reads, line item mutations, and the status state
// machine.
type OrderHandlers struct {
	authn     *auth.Authenticator
	orders    services.OrderService
	lineItems services.LineItemService
	statuses  services.StatusService
}

// NewOrderHandlers constructs a new OrderHandlers instance.
func NewOrderHandlers(authn *auth.Authenticator, orders services.OrderService, lineItems services.LineItemService, statuses services.StatusService) *OrderHandlers {
	return &OrderHandlers{
		authn:     authn,
		orders:    orders,
		lineItems: lineItems,
		statuses:  statuses,
	}
}

// Routes registers the /orders endpoints.
func (h *OrderHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireAuth())
	}
	r.Post("/open", h.openOrder)
	r.Get("/", h.listOrders)
	r.Get("/{orderID}", h.getOrder)

	r.Get("/{orderID}/items", h.listLineItems)
	r.Post("/{orderID}/items", h.addLineItem)
	r.Put("/{orderID}/items/{itemID}", h.updateLineItem)
	r.Delete("/{orderID}/items/{itemID}", h.removeLineItem)

	r.Get("/{orderID}/status", h.currentStatus)
	r.Post("/{orderID}/status", h.advanceStatus)
	r.Get("/{orderID}/history", h.statusHistory)
}

func (h *OrderHandlers) openOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	result, err := h.orders.FindOrCreateOpenOrder(ctx, identity.UserID)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	writeJSONResponse(w, status, openOrderResponse{
		Order:   buildOrderPayload(result.Order),
		Created: result.Created,
	})
}

func (h *OrderHandlers) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	page, ok := parsePageFilter(w, r)
	if !ok {
		return
	}

	filter := services.OrderListFilter{
		UserID: strings.TrimSpace(r.URL.Query().Get("user_id")),
		Page:   page,
	}

	result, err := h.orders.ListOrders(ctx, filter, actorFrom(identity))
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, buildOrderListResponse(result))
}

func (h *OrderHandlers) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
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

	detail, err := h.orders.GetOrder(ctx, orderID, actorFrom(identity))
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, buildOrderDetailResponse(detail))
}

func buildOrderListResponse(page services.OrderPage) orderListResponse {
	orders := make([]orderSummaryPayload, 0, len(page.Orders))
	for _, summary := range page.Orders {
		orders = append(orders, orderSummaryPayload{
			orderPayload:  buildOrderPayload(summary.Order),
			UserName:      summary.UserName,
			CurrentStatus: summary.CurrentStatus,
		})
	}
	return orderListResponse{
		Orders: orders,
		Total:  page.Total,
		Skip:   page.Skip,
		Limit:  page.Limit,
	}
}

func buildOrderDetailResponse(detail services.OrderDetail) orderDetailResponse {
	history := make([]statusRecordPayload, 0, len(detail.History))
	for _, record := range detail.History {
		history = append(history, buildStatusRecordPayload(record.StatusRecord, record.Description))
	}
	return orderDetailResponse{
		Order:         buildOrderPayload(detail.Order),
		UserName:      detail.UserName,
		CurrentStatus: detail.CurrentStatus,
		Items:         buildLineItemViews(detail.Items),
		History:       history,
	}
}
