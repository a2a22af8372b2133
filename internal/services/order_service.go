package services

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/dulceria/api/internal/domain"
	"github.com/dulceria/api/internal/platform/locks"
	"github.com/dulceria/api/internal/repositories"
)

const (
	orderEventCreated          = "order.created"
	orderEventStatusChanged    = "order.status.changed"
	orderEventTotalsRecomputed = "order.totals.recomputed"

	orderIDPrefix        = "ord_"
	statusRecordIDPrefix = "osr_"

	userLockPrefix  = "user/"
	orderLockPrefix = "order/"

	defaultOrderPageLimit = 20
	maxOrderPageLimit     = 100
)

var (
	// ErrOrderInvalidInput signals the caller provided invalid data.
	ErrOrderInvalidInput = errors.New("order: invalid input")
	// ErrOrderNotFound indicates the order could not be located.
	ErrOrderNotFound = errors.New("order: not found")
	// ErrOrderUserNotFound indicates the referenced user does not exist.
	ErrOrderUserNotFound = errors.New("order: user not found")
	// ErrOrderForbidden indicates the actor may not access the order.
	ErrOrderForbidden = errors.New("order: forbidden")
	// ErrOrderConflict indicates duplicate writes detected by the store.
	ErrOrderConflict = errors.New("order: conflict")
	// ErrOrderInvalidState indicates the order state forbids the operation.
	ErrOrderInvalidState = errors.New("order: invalid state")
	// ErrOrderUnavailable indicates a transient store failure.
	ErrOrderUnavailable = errors.New("order: store unavailable")
)

// OrderEventPublisher publishes order domain events for downstream consumers.
type OrderEventPublisher interface {
	PublishOrderEvent(ctx context.Context, event OrderEvent) error
}

// OrderEvent captures metadata for emitted order domain events.
type OrderEvent struct {
	Type       string
	OrderID    string
	UserID     string
	StatusID   string
	Status     string
	Subtotal   float64
	Total      float64
	OccurredAt time.Time
	Metadata   map[string]any
}

// OrderServiceDeps bundles collaborators required to construct the order service.
type OrderServiceDeps struct {
	Orders        repositories.OrderRepository
	LineItems     repositories.LineItemRepository
	StatusRecords repositories.StatusRecordRepository
	Statuses      repositories.StatusRepository
	Catalog       repositories.CatalogRepository
	Users         repositories.UserRepository
	Totals        TotalsEngine
	UnitOfWork    repositories.UnitOfWork
	Locks         *locks.KeyedMutex
	Clock         func() time.Time
	IDGenerator   func() string
	Events        OrderEventPublisher
	Logger        func(ctx context.Context, event string, fields map[string]any)
}

type orderService struct {
	orders        repositories.OrderRepository
	lineItems     repositories.LineItemRepository
	statusRecords repositories.StatusRecordRepository
	statuses      repositories.StatusRepository
	catalog       repositories.CatalogRepository
	users         repositories.UserRepository
	totals        TotalsEngine
	uow           repositories.UnitOfWork
	locks         *locks.KeyedMutex
	clock         func() time.Time
	newID         func() string
	events        OrderEventPublisher
	logger        func(context.Context, string, map[string]any)
}

// NewOrderService wires dependencies into a concrete OrderService implementation.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Orders == nil {
		return nil, errors.New("order service: order repository is required")
	}
	if deps.LineItems == nil {
		return nil, errors.New("order service: line item repository is required")
	}
	if deps.StatusRecords == nil {
		return nil, errors.New("order service: status record repository is required")
	}
	if deps.Statuses == nil {
		return nil, errors.New("order service: status repository is required")
	}
	if deps.Catalog == nil {
		return nil, errors.New("order service: catalog repository is required")
	}
	if deps.Users == nil {
		return nil, errors.New("order service: user repository is required")
	}
	if deps.Totals == nil {
		return nil, errors.New("order service: totals engine is required")
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

	return &orderService{
		orders:        deps.Orders,
		lineItems:     deps.LineItems,
		statusRecords: deps.StatusRecords,
		statuses:      deps.Statuses,
		catalog:       deps.Catalog,
		users:         deps.Users,
		totals:        deps.Totals,
		uow:           deps.UnitOfWork,
		locks:         keyed,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID:  idGen,
		events: deps.Events,
		logger: logger,
	}, nil
}

func (s *orderService) FindOrCreateOpenOrder(ctx context.Context, userID string) (OpenOrderResult, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return OpenOrderResult{}, fmt.Errorf("%w: user id is required", ErrOrderInvalidInput)
	}

	if _, err := s.users.FindByID(ctx, userID); err != nil {
		if isRepoNotFound(err) {
			return OpenOrderResult{}, fmt.Errorf("%w: %s", ErrOrderUserNotFound, userID)
		}
		return OpenOrderResult{}, s.mapRepositoryError(err)
	}

	// Serialised per user so concurrent calls cannot create two open orders.
	unlock := s.locks.Lock(userLockPrefix + userID)
	defer unlock()

	descriptions, err := s.statusDescriptions(ctx)
	if err != nil {
		return OpenOrderResult{}, err
	}

	orderIDs, err := s.orders.ListIDsByUser(ctx, userID)
	if err != nil {
		return OpenOrderResult{}, s.mapRepositoryError(err)
	}

	for _, orderID := range orderIDs {
		current, err := s.currentStatusDescription(ctx, orderID, descriptions)
		if err != nil {
			return OpenOrderResult{}, err
		}
		if current != domain.StatusInProgress {
			continue
		}
		order, err := s.orders.FindByID(ctx, orderID)
		if err != nil {
			return OpenOrderResult{}, s.mapRepositoryError(err)
		}
		return OpenOrderResult{Order: order, Created: false}, nil
	}

	inProgress, err := s.statuses.FindByDescription(ctx, domain.StatusInProgress)
	if err != nil {
		if isRepoNotFound(err) {
			return OpenOrderResult{}, fmt.Errorf("%w: status vocabulary is missing %q", ErrOrderInvalidState, domain.StatusInProgress)
		}
		return OpenOrderResult{}, s.mapRepositoryError(err)
	}

	now := s.now()
	order := Order{
		ID:        orderIDPrefix + s.newID(),
		UserID:    userID,
		Subtotal:  0,
		Taxes:     0,
		Discount:  0,
		Total:     0,
		CreatedAt: now,
		UpdatedAt: now,
	}

	record := StatusRecord{
		ID:         statusRecordIDPrefix + s.newID(),
		OrderID:    order.ID,
		StatusID:   inProgress.ID,
		RecordedAt: now,
	}

	// The order document and its opening status record land together.
	err = s.runInTx(ctx, func(txCtx context.Context) error {
		if err := s.orders.Insert(txCtx, order); err != nil {
			return err
		}
		return s.statusRecords.Append(txCtx, record)
	})
	if err != nil {
		return OpenOrderResult{}, s.mapRepositoryError(err)
	}

	s.publishEvent(ctx, OrderEvent{
		Type:       orderEventCreated,
		OrderID:    order.ID,
		UserID:     userID,
		StatusID:   inProgress.ID,
		Status:     domain.StatusInProgress,
		OccurredAt: now,
	})

	return OpenOrderResult{Order: order, Created: true}, nil
}

func (s *orderService) GetOrder(ctx context.Context, orderID string, actor Actor) (OrderDetail, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return OrderDetail{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return OrderDetail{}, s.mapRepositoryError(err)
	}
	if err := authorizeOrderAccess(order, actor, ErrOrderForbidden); err != nil {
		return OrderDetail{}, err
	}

	items, err := s.activeItemViews(ctx, orderID)
	if err != nil {
		return OrderDetail{}, err
	}

	descriptions, err := s.statusDescriptions(ctx)
	if err != nil {
		return OrderDetail{}, err
	}

	history, err := s.historyViews(ctx, orderID, descriptions)
	if err != nil {
		return OrderDetail{}, err
	}

	current := ""
	if len(history) > 0 {
		current = history[len(history)-1].Description
	}

	userName := ""
	if owner, err := s.users.FindByID(ctx, order.UserID); err == nil {
		userName = owner.DisplayName()
	} else if !isRepoNotFound(err) {
		return OrderDetail{}, s.mapRepositoryError(err)
	}

	return OrderDetail{
		Order:         order,
		UserName:      userName,
		CurrentStatus: current,
		Items:         items,
		History:       history,
	}, nil
}

func (s *orderService) ListOrders(ctx context.Context, filter OrderListFilter, actor Actor) (OrderPage, error) {
	if !actor.Admin {
		// Non-admin listings are always scoped to the caller.
		filter.UserID = actor.UserID
	}
	filter.UserID = strings.TrimSpace(filter.UserID)

	if filter.Page.Skip < 0 {
		return OrderPage{}, fmt.Errorf("%w: skip must not be negative", ErrOrderInvalidInput)
	}
	if filter.Page.Limit <= 0 {
		filter.Page.Limit = defaultOrderPageLimit
	}
	if filter.Page.Limit > maxOrderPageLimit {
		filter.Page.Limit = maxOrderPageLimit
	}

	repoFilter := repositories.OrderListFilter{
		UserID: filter.UserID,
		Page:   filter.Page,
	}

	total, err := s.orders.Count(ctx, repoFilter)
	if err != nil {
		return OrderPage{}, s.mapRepositoryError(err)
	}

	orders, err := s.orders.List(ctx, repoFilter)
	if err != nil {
		return OrderPage{}, s.mapRepositoryError(err)
	}

	descriptions, err := s.statusDescriptions(ctx)
	if err != nil {
		return OrderPage{}, err
	}

	userIDs := make([]string, 0, len(orders))
	seen := make(map[string]struct{}, len(orders))
	for _, order := range orders {
		if _, ok := seen[order.UserID]; ok {
			continue
		}
		seen[order.UserID] = struct{}{}
		userIDs = append(userIDs, order.UserID)
	}

	owners := map[string]UserProfile{}
	if len(userIDs) > 0 {
		owners, err = s.users.FindByIDs(ctx, userIDs)
		if err != nil {
			return OrderPage{}, s.mapRepositoryError(err)
		}
	}

	summaries := make([]OrderSummary, 0, len(orders))
	for _, order := range orders {
		current, err := s.currentStatusDescription(ctx, order.ID, descriptions)
		if err != nil {
			return OrderPage{}, err
		}
		summary := OrderSummary{
			Order:         order,
			CurrentStatus: current,
		}
		if owner, ok := owners[order.UserID]; ok {
			summary.UserName = owner.DisplayName()
		}
		summaries = append(summaries, summary)
	}

	return OrderPage{
		Orders: summaries,
		Total:  total,
		Skip:   filter.Page.Skip,
		Limit:  filter.Page.Limit,
	}, nil
}

func (s *orderService) RecomputeTotals(ctx context.Context, orderID string, actor Actor) (Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}
	if !actor.Admin {
		return Order{}, fmt.Errorf("%w: recompute requires admin access", ErrOrderForbidden)
	}

	unlock := s.locks.Lock(orderLockPrefix + orderID)
	defer unlock()

	order, err := s.totals.Recompute(ctx, orderID)
	if err != nil {
		switch {
		case errors.Is(err, ErrTotalsOrderNotFound):
			return Order{}, fmt.Errorf("%w: %v", ErrOrderNotFound, err)
		case errors.Is(err, ErrTotalsUnavailable):
			return Order{}, fmt.Errorf("%w: %v", ErrOrderUnavailable, err)
		}
		return Order{}, err
	}

	s.publishEvent(ctx, OrderEvent{
		Type:       orderEventTotalsRecomputed,
		OrderID:    order.ID,
		UserID:     order.UserID,
		Subtotal:   order.Subtotal,
		Total:      order.Total,
		OccurredAt: s.now(),
	})

	return order, nil
}

// statusDescriptions loads the status vocabulary keyed by id.
func (s *orderService) statusDescriptions(ctx context.Context) (map[string]string, error) {
	statuses, err := s.statuses.List(ctx)
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}
	out := make(map[string]string, len(statuses))
	for _, status := range statuses {
		out[status.ID] = status.Description
	}
	return out, nil
}

func (s *orderService) currentStatusDescription(ctx context.Context, orderID string, descriptions map[string]string) (string, error) {
	latest, err := s.statusRecords.LatestByOrder(ctx, orderID)
	if err != nil {
		if isRepoNotFound(err) {
			return "", nil
		}
		return "", s.mapRepositoryError(err)
	}
	return descriptions[latest.StatusID], nil
}

func (s *orderService) activeItemViews(ctx context.Context, orderID string) ([]LineItemView, error) {
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

func (s *orderService) historyViews(ctx context.Context, orderID string, descriptions map[string]string) ([]StatusRecordView, error) {
	records, err := s.statusRecords.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}
	views := make([]StatusRecordView, 0, len(records))
	for _, record := range records {
		views = append(views, StatusRecordView{
			StatusRecord: record,
			Description:  descriptions[record.StatusID],
		})
	}
	return views, nil
}

func (s *orderService) mapRepositoryError(err error) error {
	return mapRepoError(err, ErrOrderNotFound, ErrOrderConflict, ErrOrderUnavailable)
}

func (s *orderService) now() time.Time {
	return s.clock()
}

// runInTx groups writes through the configured unit of work, falling back to
// direct execution when none was provided.
func (s *orderService) runInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.uow == nil {
		return fn(ctx)
	}
	return s.uow.RunInTx(ctx, fn)
}

func (s *orderService) publishEvent(ctx context.Context, event OrderEvent) {
	if s.events == nil {
		return
	}
	if event.Metadata != nil {
		event.Metadata = maps.Clone(event.Metadata)
	}
	if err := s.events.PublishOrderEvent(ctx, event); err != nil {
		s.logger(ctx, "order.event.publish.failed", map[string]any{
			"type":  event.Type,
			"order": event.OrderID,
			"error": err.Error(),
		})
	}
}

// authorizeOrderAccess enforces the owner-or-admin rule shared by read and
// mutation paths.
func authorizeOrderAccess(order Order, actor Actor, sentinel error) error {
	if actor.Admin {
		return nil
	}
	if actor.UserID != "" && actor.UserID == order.UserID {
		return nil
	}
	return fmt.Errorf("%w: order %s does not belong to actor", sentinel, order.ID)
}

// mapRepoError translates repository categorisation into service sentinels.
func mapRepoError(err error, notFound, conflict, unavailable error) error {
	if err == nil {
		return nil
	}

	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", notFound, err)
		case repoErr.IsConflict():
			return fmt.Errorf("%w: %v", conflict, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("%w: %v", unavailable, err)
		}
	}

	return err
}

func isRepoNotFound(err error) bool {
	var repoErr repositories.RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsNotFound()
}
