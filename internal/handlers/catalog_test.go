package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/dulceria/api/internal/services"
)

func newCatalogRouter(h *CatalogHandlers) chi.Router {
	r := chi.NewRouter()
	h.Routes(r)
	return r
}

func TestCatalogHandlersListProducts(t *testing.T) {
	var captured services.CatalogListFilter
	catalog := &stubCatalogService{
		listFn: func(_ context.Context, filter services.CatalogListFilter) ([]services.CatalogItem, error) {
			captured = filter
			return []services.CatalogItem{
				{ID: "cat_1", Name: "mazapan", Cost: 12.5, Active: true},
				{ID: "cat_2", Name: "obleas", Cost: 8, Active: true},
			}, nil
		},
	}

	router := newCatalogRouter(NewCatalogHandlers(catalog, nil))

	req := httptest.NewRequest(http.MethodGet, "/?type=sweets&limit=10", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if captured.CatalogType != "sweets" || !captured.ActiveOnly || captured.Page.Limit != 10 {
		t.Fatalf("unexpected filter: %+v", captured)
	}

	var resp map[string][]productPayload
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(resp["products"]) != 2 {
		t.Fatalf("expected 2 products, got %d", len(resp["products"]))
	}
}

func TestCatalogHandlersListIncludesInactiveOnRequest(t *testing.T) {
	var captured services.CatalogListFilter
	catalog := &stubCatalogService{
		listFn: func(_ context.Context, filter services.CatalogListFilter) ([]services.CatalogItem, error) {
			captured = filter
			return nil, nil
		},
	}

	router := newCatalogRouter(NewCatalogHandlers(catalog, nil))

	req := httptest.NewRequest(http.MethodGet, "/?include_inactive=1", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if captured.ActiveOnly {
		t.Fatalf("expected ActiveOnly=false when include_inactive is set")
	}
}

func TestCatalogHandlersGetProduct(t *testing.T) {
	catalog := &stubCatalogService{
		getFn: func(_ context.Context, productID string) (services.CatalogItem, error) {
			if productID != "cat_1" {
				t.Fatalf("expected cat_1, got %q", productID)
			}
			return services.CatalogItem{ID: "cat_1", Name: "mazapan", Cost: 12.5, Active: true}, nil
		},
	}

	router := newCatalogRouter(NewCatalogHandlers(catalog, nil))

	req := httptest.NewRequest(http.MethodGet, "/cat_1", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp map[string]productPayload
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp["product"].Name != "mazapan" {
		t.Fatalf("expected mazapan, got %q", resp["product"].Name)
	}
}

func TestCatalogHandlersGetProductNotFound(t *testing.T) {
	catalog := &stubCatalogService{
		getFn: func(context.Context, string) (services.CatalogItem, error) {
			return services.CatalogItem{}, services.ErrCatalogNotFound
		},
	}

	router := newCatalogRouter(NewCatalogHandlers(catalog, nil))

	req := httptest.NewRequest(http.MethodGet, "/cat_missing", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
}

func TestCatalogHandlersListBundleItems(t *testing.T) {
	bundles := &stubBundleService{
		listFn: func(_ context.Context, bundleID string) ([]services.BundleItem, error) {
			if bundleID != "cat_9" {
				t.Fatalf("expected cat_9, got %q", bundleID)
			}
			return []services.BundleItem{
				{ID: "bnd_1", BundleID: "cat_9", ProductID: "cat_1", Quantity: 3},
			}, nil
		},
	}

	router := newCatalogRouter(NewCatalogHandlers(&stubCatalogService{}, bundles))

	req := httptest.NewRequest(http.MethodGet, "/cat_9/bundle-items", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp map[string][]bundleItemPayload
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	items := resp["items"]
	if len(items) != 1 || items[0].ProductID != "cat_1" || items[0].Quantity != 3 {
		t.Fatalf("unexpected items: %+v", items)
	}
}
