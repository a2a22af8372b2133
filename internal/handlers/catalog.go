package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dulceria/api/internal/platform/httpx"
	"github.com/dulceria/api/internal/services"
)

// CatalogHandlers exposes the public, read-only catalog endpoints.
type CatalogHandlers struct {
	catalog services.CatalogService
	bundles services.BundleService
}

// NewCatalogHandlers constructs a new CatalogHandlers instance.
func NewCatalogHandlers(catalog services.CatalogService, bundles services.BundleService) *CatalogHandlers {
	return &CatalogHandlers{
		catalog: catalog,
		bundles: bundles,
	}
}

// Routes registers the /catalog endpoints.
func (h *CatalogHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.listProducts)
	r.Get("/{productID}", h.getProduct)
	r.Get("/{productID}/bundle-items", h.listBundleItems)
}

func (h *CatalogHandlers) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	page, ok := parsePageFilter(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	filter := services.CatalogListFilter{
		CatalogType: strings.TrimSpace(query.Get("type")),
		ActiveOnly:  strings.TrimSpace(query.Get("include_inactive")) == "",
		Page:        page,
	}

	items, err := h.catalog.ListProducts(ctx, filter)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}

	payloads := make([]productPayload, 0, len(items))
	for _, item := range items {
		payloads = append(payloads, buildProductPayload(item))
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"products": payloads})
}

func (h *CatalogHandlers) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	productID := strings.TrimSpace(chi.URLParam(r, "productID"))
	if productID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "product id is required", http.StatusBadRequest))
		return
	}

	item, err := h.catalog.GetProduct(ctx, productID)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{"product": buildProductPayload(item)})
}

func (h *CatalogHandlers) listBundleItems(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.bundles == nil {
		httpx.WriteError(ctx, w, httpx.NewError("bundle_service_unavailable", "bundle service unavailable", http.StatusServiceUnavailable))
		return
	}

	productID := strings.TrimSpace(chi.URLParam(r, "productID"))
	if productID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "product id is required", http.StatusBadRequest))
		return
	}

	items, err := h.bundles.ListProducts(ctx, productID)
	if err != nil {
		writeBundleError(ctx, w, err)
		return
	}

	payloads := make([]bundleItemPayload, 0, len(items))
	for _, item := range items {
		payloads = append(payloads, buildBundleItemPayload(item))
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"items": payloads})
}
