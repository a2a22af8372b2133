package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/dulceria/api/internal/platform/httpx"
	"github.com/dulceria/api/internal/services"
)

func writeOrderError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrOrderInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrOrderUserNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("user_not_found", "user not found", http.StatusNotFound))
	case errors.Is(err, services.ErrOrderNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("order_not_found", "order not found", http.StatusNotFound))
	case errors.Is(err, services.ErrOrderForbidden):
		httpx.WriteError(ctx, w, httpx.NewError("order_forbidden", "order belongs to another user", http.StatusForbidden))
	case errors.Is(err, services.ErrOrderConflict):
		httpx.WriteError(ctx, w, httpx.NewError("order_conflict", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrOrderInvalidState):
		httpx.WriteError(ctx, w, httpx.NewError("order_invalid_state", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrOrderUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("order_store_unavailable", "order store unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("order_error", "failed to process order request", http.StatusInternalServerError))
	}
}

func writeLineItemError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrLineItemInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrLineItemNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("line_item_not_found", "line item not found", http.StatusNotFound))
	case errors.Is(err, services.ErrLineItemForbidden):
		httpx.WriteError(ctx, w, httpx.NewError("line_item_forbidden", "order belongs to another user", http.StatusForbidden))
	case errors.Is(err, services.ErrLineItemConflict):
		httpx.WriteError(ctx, w, httpx.NewError("line_item_conflict", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrLineItemInvalidState):
		httpx.WriteError(ctx, w, httpx.NewError("line_item_invalid_state", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrLineItemUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("line_item_store_unavailable", "line item store unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("line_item_error", "failed to process line item request", http.StatusInternalServerError))
	}
}

func writeStatusError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrStatusInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrStatusNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("status_not_found", "status not found", http.StatusNotFound))
	case errors.Is(err, services.ErrStatusForbidden):
		httpx.WriteError(ctx, w, httpx.NewError("status_forbidden", "operation not allowed for this user", http.StatusForbidden))
	case errors.Is(err, services.ErrStatusConflict):
		httpx.WriteError(ctx, w, httpx.NewError("status_conflict", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrStatusInvalidState):
		httpx.WriteError(ctx, w, httpx.NewError("status_invalid_state", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrStatusUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("status_store_unavailable", "status store unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("status_error", "failed to process status request", http.StatusInternalServerError))
	}
}

func writeCatalogError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrCatalogInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCatalogNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("product_not_found", "product not found", http.StatusNotFound))
	case errors.Is(err, services.ErrCatalogForbidden):
		httpx.WriteError(ctx, w, httpx.NewError("catalog_forbidden", "operation requires administrator access", http.StatusForbidden))
	case errors.Is(err, services.ErrCatalogConflict):
		httpx.WriteError(ctx, w, httpx.NewError("catalog_conflict", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrCatalogUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("catalog_store_unavailable", "catalog store unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("catalog_error", "failed to process catalog request", http.StatusInternalServerError))
	}
}

func writeUserError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrUserInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrUserInvalidCredentials):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_credentials", "invalid credentials", http.StatusUnauthorized))
	case errors.Is(err, services.ErrUserNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("user_not_found", "user not found", http.StatusNotFound))
	case errors.Is(err, services.ErrUserForbidden):
		httpx.WriteError(ctx, w, httpx.NewError("user_forbidden", "user account is deactivated", http.StatusForbidden))
	case errors.Is(err, services.ErrUserConflict):
		httpx.WriteError(ctx, w, httpx.NewError("user_conflict", "email is already registered", http.StatusConflict))
	case errors.Is(err, services.ErrUserUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("user_store_unavailable", "user store unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("user_error", "failed to process user request", http.StatusInternalServerError))
	}
}

func writeBundleError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrBundleInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrBundleNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("bundle_item_not_found", "bundle item not found", http.StatusNotFound))
	case errors.Is(err, services.ErrBundleForbidden):
		httpx.WriteError(ctx, w, httpx.NewError("bundle_forbidden", "operation requires administrator access", http.StatusForbidden))
	case errors.Is(err, services.ErrBundleConflict):
		httpx.WriteError(ctx, w, httpx.NewError("bundle_conflict", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrBundleUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("bundle_store_unavailable", "bundle store unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("bundle_error", "failed to process bundle request", http.StatusInternalServerError))
	}
}
