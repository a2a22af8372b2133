package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dulceria/api/internal/repositories"
)

// taxRate is the flat tax applied to the order subtotal.
const taxRate = 0.15

var (
	// ErrTotalsInvalidInput signals the caller provided invalid data.
	ErrTotalsInvalidInput = errors.New("totals: invalid input")
	// ErrTotalsOrderNotFound indicates the order could not be located.
	ErrTotalsOrderNotFound = errors.New("totals: order not found")
	// ErrTotalsUnavailable indicates a transient store failure.
	ErrTotalsUnavailable = errors.New("totals: store unavailable")
)

// TotalsEngineDeps bundles collaborators required to construct the totals engine.
type TotalsEngineDeps struct {
	Orders    repositories.OrderRepository
	LineItems repositories.LineItemRepository
	Catalog   repositories.CatalogRepository
	Clock     func() time.Time
	Logger    func(ctx context.Context, event string, fields map[string]any)
}

type totalsEngine struct {
	orders    repositories.OrderRepository
	lineItems repositories.LineItemRepository
	catalog   repositories.CatalogRepository
	clock     func() time.Time
	logger    func(context.Context, string, map[string]any)
}

// NewTotalsEngine wires dependencies into a concrete TotalsEngine implementation.
func NewTotalsEngine(deps TotalsEngineDeps) (TotalsEngine, error) {
	if deps.Orders == nil {
		return nil, errors.New("totals engine: order repository is required")
	}
	if deps.LineItems == nil {
		return nil, errors.New("totals engine: line item repository is required")
	}
	if deps.Catalog == nil {
		return nil, errors.New("totals engine: catalog repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &totalsEngine{
		orders:    deps.Orders,
		lineItems: deps.LineItems,
		catalog:   deps.Catalog,
		clock: func() time.Time {
			return clock().UTC()
		},
		logger: logger,
	}, nil
}

func (e *totalsEngine) Recompute(ctx context.Context, orderID string) (Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return Order{}, fmt.Errorf("%w: order id is required", ErrTotalsInvalidInput)
	}

	order, err := e.orders.FindByID(ctx, orderID)
	if err != nil {
		return Order{}, e.mapRepositoryError(err)
	}

	items, err := e.lineItems.ListActiveByOrder(ctx, orderID)
	if err != nil {
		return Order{}, e.mapRepositoryError(err)
	}

	subtotal := 0.0
	if len(items) > 0 {
		productIDs := make([]string, 0, len(items))
		for _, item := range items {
			productIDs = append(productIDs, item.ProductID)
		}
		products, err := e.catalog.FindByIDs(ctx, productIDs)
		if err != nil {
			return Order{}, e.mapRepositoryError(err)
		}
		for _, item := range items {
			product, ok := products[item.ProductID]
			if !ok {
				// Unresolved products contribute zero rather than failing the pass.
				e.logger(ctx, "totals.product.missing", map[string]any{
					"order":   orderID,
					"product": item.ProductID,
				})
				continue
			}
			subtotal += float64(item.Quantity) * product.Cost
		}
	}

	subtotal = round2(subtotal)
	taxes := round2(subtotal * taxRate)
	discount := 0.0
	total := round2(subtotal + taxes - discount)

	now := e.clock()
	update := repositories.OrderTotalsUpdate{
		Subtotal:  subtotal,
		Taxes:     taxes,
		Discount:  discount,
		Total:     total,
		UpdatedAt: now,
	}
	if err := e.orders.UpdateTotals(ctx, orderID, update); err != nil {
		return Order{}, e.mapRepositoryError(err)
	}

	order.Subtotal = subtotal
	order.Taxes = taxes
	order.Discount = discount
	order.Total = total
	order.UpdatedAt = now

	return order, nil
}

func (e *totalsEngine) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrTotalsOrderNotFound, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("%w: %v", ErrTotalsUnavailable, err)
		}
	}

	return err
}

// round2 rounds to two decimal places, matching how the totals are stored.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
