package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/dulceria/api/internal/domain"
	"github.com/dulceria/api/internal/platform/locks"
	"github.com/dulceria/api/internal/repositories"
)

const lineItemIDPrefix = "li_"

var (
	// ErrLineItemInvalidInput signals the caller provided invalid data.
	ErrLineItemInvalidInput = errors.New("line item: invalid input")
	// ErrLineItemNotFound indicates the order, product, or item is missing.
	ErrLineItemNotFound = errors.New("line item: not found")
	// ErrLineItemForbidden indicates the actor may not touch the order.
	ErrLineItemForbidden = errors.New("line item: forbidden")
	// ErrLineItemConflict indicates the product already sits on the order.
	ErrLineItemConflict = errors.New("line item: conflict")
	// ErrLineItemInvalidState indicates the order no longer accepts edits.
	ErrLineItemInvalidState = errors.New("line item: invalid state")
	// ErrLineItemUnavailable indicates a transient store failure.
	ErrLineItemUnavailable = errors.New("line item: store unavailable")
)

// LineItemServiceDeps bundles collaborators required to construct the line item service.
type LineItemServiceDeps struct {
	Orders        repositories.OrderRepository
	LineItems     repositories.LineItemRepository
	StatusRecords repositories.StatusRecordRepository
	Statuses      repositories.StatusRepository
	Catalog       repositories.CatalogRepository
	Totals        TotalsEngine
	Locks         *locks.KeyedMutex
	Clock         func() time.Time
	IDGenerator   func() string
	Logger        func(ctx context.Context, event string, fields map[string]any)
}

type lineItemService struct {
	orders        repositories.OrderRepository
	lineItems     repositories.LineItemRepository
	statusRecords repositories.StatusRecordRepository
	statuses      repositories.StatusRepository
	catalog       repositories.CatalogRepository
	totals        TotalsEngine
	locks         *locks.KeyedMutex
	clock         func() time.Time
	newID         func() string
	logger        func(context.Context, string, map[string]any)
}

// NewLineItemService wires dependencies into a concrete LineItemService implementation.
func NewLineItemService(deps LineItemServiceDeps) (LineItemService, error) {
	if deps.Orders == nil {
		return nil, errors.New("line item service: order repository is required")
	}
	if deps.LineItems == nil {
		return nil, errors.New("line item service: line item repository is required")
	}
	if deps.StatusRecords == nil {
		return nil, errors.New("line item service: status record repository is required")
	}
	if deps.Statuses == nil {
		return nil, errors.New("line item service: status repository is required")
	}
	if deps.Catalog == nil {
		return nil, errors.New("line item service: catalog repository is required")
	}
	if deps.Totals == nil {
		return nil, errors.New("line item service: totals engine is required")
	}

	keyed := deps.Locks
	if keyed == nil {
		keyed = &locks.KeyedMutex{}
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string {
			return ulid.Make().String()
		}
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &lineItemService{
		orders:        deps.Orders,
		lineItems:     deps.LineItems,
		statusRecords: deps.StatusRecords,
		statuses:      deps.Statuses,
		catalog:       deps.Catalog,
		totals:        deps.Totals,
		locks:         keyed,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID:  idGen,
		logger: logger,
	}, nil
}

func (s *lineItemService) AddLineItem(ctx context.Context, cmd AddLineItemCommand) (LineItemMutationResult, error) {
	cmd.OrderID = strings.TrimSpace(cmd.OrderID)
	cmd.ProductID = strings.TrimSpace(cmd.ProductID)
	if cmd.OrderID == "" {
		return LineItemMutationResult{}, fmt.Errorf("%w: order id is required", ErrLineItemInvalidInput)
	}
	if cmd.ProductID == "" {
		return LineItemMutationResult{}, fmt.Errorf("%w: product id is required", ErrLineItemInvalidInput)
	}
	if cmd.Quantity < 1 {
		return LineItemMutationResult{}, fmt.Errorf("%w: quantity must be at least 1", ErrLineItemInvalidInput)
	}

	unlock := s.locks.Lock(orderLockPrefix + cmd.OrderID)
	defer unlock()

	order, err := s.editableOrder(ctx, cmd.OrderID, cmd.Actor)
	if err != nil {
		return LineItemMutationResult{}, err
	}

	product, err := s.catalog.FindByID(ctx, cmd.ProductID)
	if err != nil {
		if isRepoNotFound(err) {
			return LineItemMutationResult{}, fmt.Errorf("%w: product %s", ErrLineItemNotFound, cmd.ProductID)
		}
		return LineItemMutationResult{}, s.mapRepositoryError(err)
	}
	if !product.Active {
		return LineItemMutationResult{}, fmt.Errorf("%w: product %s is not active", ErrLineItemInvalidInput, cmd.ProductID)
	}

	if _, err := s.lineItems.FindActiveByOrderAndProduct(ctx, cmd.OrderID, cmd.ProductID); err == nil {
		return LineItemMutationResult{}, fmt.Errorf("%w: product %s is already on order %s", ErrLineItemConflict, cmd.ProductID, cmd.OrderID)
	} else if !isRepoNotFound(err) {
		return LineItemMutationResult{}, s.mapRepositoryError(err)
	}

	now := s.clock()
	item := LineItem{
		ID:        lineItemIDPrefix + s.newID(),
		OrderID:   cmd.OrderID,
		ProductID: cmd.ProductID,
		Quantity:  cmd.Quantity,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.lineItems.Insert(ctx, item); err != nil {
		return LineItemMutationResult{}, s.mapRepositoryError(err)
	}

	return s.finishMutation(ctx, item, order)
}

func (s *lineItemService) UpdateLineItemQuantity(ctx context.Context, cmd UpdateLineItemQuantityCommand) (LineItemMutationResult, error) {
	cmd.OrderID = strings.TrimSpace(cmd.OrderID)
	cmd.ItemID = strings.TrimSpace(cmd.ItemID)
	if cmd.OrderID == "" {
		return LineItemMutationResult{}, fmt.Errorf("%w: order id is required", ErrLineItemInvalidInput)
	}
	if cmd.ItemID == "" {
		return LineItemMutationResult{}, fmt.Errorf("%w: item id is required", ErrLineItemInvalidInput)
	}
	if cmd.Quantity < 1 {
		return LineItemMutationResult{}, fmt.Errorf("%w: quantity must be at least 1", ErrLineItemInvalidInput)
	}

	unlock := s.locks.Lock(orderLockPrefix + cmd.OrderID)
	defer unlock()

	order, err := s.editableOrder(ctx, cmd.OrderID, cmd.Actor)
	if err != nil {
		return LineItemMutationResult{}, err
	}

	item, err := s.activeItem(ctx, cmd.OrderID, cmd.ItemID)
	if err != nil {
		return LineItemMutationResult{}, err
	}

	now := s.clock()
	if err := s.lineItems.UpdateQuantity(ctx, item.ID, cmd.Quantity, now); err != nil {
		return LineItemMutationResult{}, s.mapRepositoryError(err)
	}
	item.Quantity = cmd.Quantity
	item.UpdatedAt = now

	return s.finishMutation(ctx, item, order)
}

func (s *lineItemService) RemoveLineItem(ctx context.Context, cmd RemoveLineItemCommand) (LineItemMutationResult, error) {
	cmd.OrderID = strings.TrimSpace(cmd.OrderID)
	cmd.ItemID = strings.TrimSpace(cmd.ItemID)
	if cmd.OrderID == "" {
		return LineItemMutationResult{}, fmt.Errorf("%w: order id is required", ErrLineItemInvalidInput)
	}
	if cmd.ItemID == "" {
		return LineItemMutationResult{}, fmt.Errorf("%w: item id is required", ErrLineItemInvalidInput)
	}

	unlock := s.locks.Lock(orderLockPrefix + cmd.OrderID)
	defer unlock()

	order, err := s.editableOrder(ctx, cmd.OrderID, cmd.Actor)
	if err != nil {
		return LineItemMutationResult{}, err
	}

	item, err := s.activeItem(ctx, cmd.OrderID, cmd.ItemID)
	if err != nil {
		return LineItemMutationResult{}, err
	}

	now := s.clock()
	if err := s.lineItems.Deactivate(ctx, item.ID, now); err != nil {
		return LineItemMutationResult{}, s.mapRepositoryError(err)
	}
	item.Active = false
	item.UpdatedAt = now

	return s.finishMutation(ctx, item, order)
}

func (s *lineItemService) ListLineItems(ctx context.Context, orderID string, actor Actor) ([]LineItemView, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, fmt.Errorf("%w: order id is required", ErrLineItemInvalidInput)
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}
	if err := authorizeOrderAccess(order, actor, ErrLineItemForbidden); err != nil {
		return nil, err
	}

	items, err := s.lineItems.ListActiveByOrder(ctx, orderID)
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}
	if len(items) == 0 {
		return []LineItemView{}, nil
	}

	productIDs := make([]string, 0, len(items))
	for _, item := range items {
		productIDs = append(productIDs, item.ProductID)
	}
	products, err := s.catalog.FindByIDs(ctx, productIDs)
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}

	views := make([]LineItemView, 0, len(items))
	for _, item := range items {
		view := LineItemView{LineItem: item}
		if product, ok := products[item.ProductID]; ok {
			view.ProductName = product.Name
			view.UnitCost = product.Cost
		}
		views = append(views, view)
	}
	return views, nil
}

// editableOrder loads the order, checks access, and rejects edits once the
// order has left the in-progress state.
func (s *lineItemService) editableOrder(ctx context.Context, orderID string, actor Actor) (Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return Order{}, s.mapRepositoryError(err)
	}
	if err := authorizeOrderAccess(order, actor, ErrLineItemForbidden); err != nil {
		return Order{}, err
	}

	current, err := s.currentStatus(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	if current != domain.StatusInProgress {
		return Order{}, fmt.Errorf("%w: order %s is %s", ErrLineItemInvalidState, orderID, current)
	}
	return order, nil
}

func (s *lineItemService) currentStatus(ctx context.Context, orderID string) (string, error) {
	latest, err := s.statusRecords.LatestByOrder(ctx, orderID)
	if err != nil {
		if isRepoNotFound(err) {
			return "", nil
		}
		return "", s.mapRepositoryError(err)
	}
	status, err := s.statuses.FindByID(ctx, latest.StatusID)
	if err != nil {
		if isRepoNotFound(err) {
			return "", nil
		}
		return "", s.mapRepositoryError(err)
	}
	return status.Description, nil
}

func (s *lineItemService) activeItem(ctx context.Context, orderID, itemID string) (LineItem, error) {
	item, err := s.lineItems.FindByID(ctx, itemID)
	if err != nil {
		return LineItem{}, s.mapRepositoryError(err)
	}
	if item.OrderID != orderID {
		return LineItem{}, fmt.Errorf("%w: item %s does not belong to order %s", ErrLineItemNotFound, itemID, orderID)
	}
	if !item.Active {
		return LineItem{}, fmt.Errorf("%w: item %s has been removed", ErrLineItemNotFound, itemID)
	}
	return item, nil
}

// finishMutation recomputes totals after the write. The write itself has
// already landed, so a recompute failure is reported as stale totals rather
// than an error.
func (s *lineItemService) finishMutation(ctx context.Context, item LineItem, order Order) (LineItemMutationResult, error) {
	updated, err := s.totals.Recompute(ctx, order.ID)
	if err != nil {
		s.logger(ctx, "line_item.totals.stale", map[string]any{
			"order": order.ID,
			"item":  item.ID,
			"error": err.Error(),
		})
		return LineItemMutationResult{Item: item, Order: order, TotalsStale: true}, nil
	}
	return LineItemMutationResult{Item: item, Order: updated, TotalsStale: false}, nil
}

func (s *lineItemService) mapRepositoryError(err error) error {
	return mapRepoError(err, ErrLineItemNotFound, ErrLineItemConflict, ErrLineItemUnavailable)
}
