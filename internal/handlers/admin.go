package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dulceria/api/internal/platform/auth"
	"github.com/dulceria/api/internal/platform/httpx"
	"github.com/dulceria/api/internal/services"
)

const maxAdminBodySize = 32 * 1024

type upsertProductRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Cost        float64 `json:"cost"`
	Discount    float64 `json:"discount"`
	CatalogType string  `json:"catalog_type"`
	Active      *bool   `json:"active"`
}

type upsertStatusRequest struct {
	Description string `json:"description"`
}

type addBundleItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// AdminHandlers exposes the administrative surface: the full order listing,
// explicit totals recalculation, and the status, catalog, and bundle
// vocabularies.
type AdminHandlers struct {
	authn    *auth.Authenticator
	orders   services.OrderService
	statuses services.StatusService
	catalog  services.CatalogService
	bundles  services.BundleService
}

// NewAdminHandlers constructs a new AdminHandlers instance.
func NewAdminHandlers(authn *auth.Authenticator, orders services.OrderService, statuses services.StatusService, catalog services.CatalogService, bundles services.BundleService) *AdminHandlers {
	return &AdminHandlers{
		authn:    authn,
		orders:   orders,
		statuses: statuses,
		catalog:  catalog,
		bundles:  bundles,
	}
}

// Routes registers the /admin endpoints.
func (h *AdminHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireAdmin())
	}
	r.Get("/orders", h.listOrders)
	r.Post("/orders/{orderID}:recalculate", h.recalculateOrder)

	r.Post("/statuses", h.createStatus)
	r.Put("/statuses/{statusID}", h.updateStatus)
	r.Delete("/statuses/{statusID}", h.deleteStatus)

	r.Post("/catalog", h.createProduct)
	r.Put("/catalog/{productID}", h.updateProduct)
	r.Delete("/catalog/{productID}", h.deleteProduct)

	r.Post("/bundles/{bundleID}/items", h.addBundleItem)
	r.Delete("/bundles/{bundleID}/items/{itemID}", h.removeBundleItem)
}

func (h *AdminHandlers) listOrders(w http.ResponseWriter, r *http.Request) {
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

func (h *AdminHandlers) recalculateOrder(w http.ResponseWriter, r *http.Request) {
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

	order, err := h.orders.RecomputeTotals(ctx, orderID, actorFrom(identity))
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{"order": buildOrderPayload(order)})
}

func (h *AdminHandlers) createStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.statuses == nil {
		httpx.WriteError(ctx, w, httpx.NewError("status_service_unavailable", "status service unavailable", http.StatusServiceUnavailable))
		return
	}

	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req upsertStatusRequest
	if !decodeJSONBody(w, r, maxAdminBodySize, &req) {
		return
	}

	status, err := h.statuses.CreateStatus(ctx, req.Description, actorFrom(identity))
	if err != nil {
		writeStatusError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, map[string]any{"status": buildStatusPayload(status)})
}

func (h *AdminHandlers) updateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.statuses == nil {
		httpx.WriteError(ctx, w, httpx.NewError("status_service_unavailable", "status service unavailable", http.StatusServiceUnavailable))
		return
	}

	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	statusID := strings.TrimSpace(chi.URLParam(r, "statusID"))
	if statusID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "status id is required", http.StatusBadRequest))
		return
	}

	var req upsertStatusRequest
	if !decodeJSONBody(w, r, maxAdminBodySize, &req) {
		return
	}

	status, err := h.statuses.UpdateStatus(ctx, statusID, req.Description, actorFrom(identity))
	if err != nil {
		writeStatusError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{"status": buildStatusPayload(status)})
}

func (h *AdminHandlers) deleteStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.statuses == nil {
		httpx.WriteError(ctx, w, httpx.NewError("status_service_unavailable", "status service unavailable", http.StatusServiceUnavailable))
		return
	}

	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	statusID := strings.TrimSpace(chi.URLParam(r, "statusID"))
	if statusID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "status id is required", http.StatusBadRequest))
		return
	}

	if err := h.statuses.DeleteStatus(ctx, statusID, actorFrom(identity)); err != nil {
		writeStatusError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusNoContent, nil)
}

func (h *AdminHandlers) createProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req upsertProductRequest
	if !decodeJSONBody(w, r, maxAdminBodySize, &req) {
		return
	}

	item, err := h.catalog.CreateProduct(ctx, buildUpsertCommand(req, actorFrom(identity)))
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, map[string]any{"product": buildProductPayload(item)})
}

func (h *AdminHandlers) updateProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	productID := strings.TrimSpace(chi.URLParam(r, "productID"))
	if productID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "product id is required", http.StatusBadRequest))
		return
	}

	var req upsertProductRequest
	if !decodeJSONBody(w, r, maxAdminBodySize, &req) {
		return
	}

	item, err := h.catalog.UpdateProduct(ctx, productID, buildUpsertCommand(req, actorFrom(identity)))
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{"product": buildProductPayload(item)})
}

func (h *AdminHandlers) deleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	productID := strings.TrimSpace(chi.URLParam(r, "productID"))
	if productID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "product id is required", http.StatusBadRequest))
		return
	}

	if err := h.catalog.DeleteProduct(ctx, productID, actorFrom(identity)); err != nil {
		writeCatalogError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusNoContent, nil)
}

func (h *AdminHandlers) addBundleItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.bundles == nil {
		httpx.WriteError(ctx, w, httpx.NewError("bundle_service_unavailable", "bundle service unavailable", http.StatusServiceUnavailable))
		return
	}

	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	bundleID := strings.TrimSpace(chi.URLParam(r, "bundleID"))
	if bundleID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "bundle id is required", http.StatusBadRequest))
		return
	}

	var req addBundleItemRequest
	if !decodeJSONBody(w, r, maxAdminBodySize, &req) {
		return
	}

	item, err := h.bundles.AddProduct(ctx, services.AddBundleItemCommand{
		BundleID:  bundleID,
		ProductID: strings.TrimSpace(req.ProductID),
		Quantity:  req.Quantity,
		Actor:     actorFrom(identity),
	})
	if err != nil {
		writeBundleError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, map[string]any{"item": buildBundleItemPayload(item)})
}

func (h *AdminHandlers) removeBundleItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.bundles == nil {
		httpx.WriteError(ctx, w, httpx.NewError("bundle_service_unavailable", "bundle service unavailable", http.StatusServiceUnavailable))
		return
	}

	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	bundleID := strings.TrimSpace(chi.URLParam(r, "bundleID"))
	itemID := strings.TrimSpace(chi.URLParam(r, "itemID"))
	if bundleID == "" || itemID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "bundle id and item id are required", http.StatusBadRequest))
		return
	}

	if err := h.bundles.RemoveProduct(ctx, bundleID, itemID, actorFrom(identity)); err != nil {
		writeBundleError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusNoContent, nil)
}

func buildUpsertCommand(req upsertProductRequest, actor services.Actor) services.UpsertProductCommand {
	return services.UpsertProductCommand{
		Name:        req.Name,
		Description: req.Description,
		Cost:        req.Cost,
		Discount:    req.Discount,
		CatalogType: req.CatalogType,
		Active:      req.Active,
		Actor:       actor,
	}
}
