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

const statusIDPrefix = "sts_"

// reservedStatuses cannot be removed from the vocabulary: the state machine
// depends on them.
var reservedStatuses = map[string]struct{}{
	domain.StatusInProgress: {},
	domain.StatusOrdered:    {},
	domain.StatusProcessing: {},
	domain.StatusShipped:    {},
	domain.StatusDelivered:  {},
	domain.StatusCancelled:  {},
}

var (
	// ErrStatusInvalidInput signals the caller provided invalid data.
	ErrStatusInvalidInput = errors.New("status: invalid input")
	// ErrStatusNotFound indicates the status or order is missing.
	ErrStatusNotFound = errors.New("status: not found")
	// ErrStatusForbidden indicates the actor may not perform the operation.
	ErrStatusForbidden = errors.New("status: forbidden")
	// ErrStatusConflict indicates a duplicate description or record.
	ErrStatusConflict = errors.New("status: conflict")
	// ErrStatusInvalidState indicates the transition is not allowed.
	ErrStatusInvalidState = errors.New("status: invalid state")
	// ErrStatusUnavailable indicates a transient store failure.
	ErrStatusUnavailable = errors.New("status: store unavailable")
)

// StatusServiceDeps bundles collaborators required to construct the status service.
type StatusServiceDeps struct {
	Orders        repositories.OrderRepository
	LineItems     repositories.LineItemRepository
	StatusRecords repositories.StatusRecordRepository
	Statuses      repositories.StatusRepository
	Totals        TotalsEngine
	Locks         *locks.KeyedMutex
	Clock         func() time.Time
	IDGenerator   func() string
	Events        OrderEventPublisher
	Logger        func(ctx context.Context, event string, fields map[string]any)
}

type statusService struct {
	orders        repositories.OrderRepository
	lineItems     repositories.LineItemRepository
	statusRecords repositories.StatusRecordRepository
	statuses      repositories.StatusRepository
	totals        TotalsEngine
	locks         *locks.KeyedMutex
	clock         func() time.Time
	newID         func() string
	events        OrderEventPublisher
	logger        func(context.Context, string, map[string]any)
}

// NewStatusService wires dependencies into a concrete StatusService implementation.
func NewStatusService(deps StatusServiceDeps) (StatusService, error) {
	if deps.Orders == nil {
		return nil, errors.New("status service: order repository is required")
	}
	if deps.LineItems == nil {
		return nil, errors.New("status service: line item repository is required")
	}
	if deps.StatusRecords == nil {
		return nil, errors.New("status service: status record repository is required")
	}
	if deps.Statuses == nil {
		return nil, errors.New("status service: status repository is required")
	}
	if deps.Totals == nil {
		return nil, errors.New("status service: totals engine is required")
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

	return &statusService{
		orders:        deps.Orders,
		lineItems:     deps.LineItems,
		statusRecords: deps.StatusRecords,
		statuses:      deps.Statuses,
		totals:        deps.Totals,
		locks:         keyed,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID:  idGen,
		events: deps.Events,
		logger: logger,
	}, nil
}

func (s *statusService) Advance(ctx context.Context, cmd AdvanceStatusCommand) (StatusRecord, error) {
	cmd.OrderID = strings.TrimSpace(cmd.OrderID)
	cmd.TargetStatusID = strings.TrimSpace(cmd.TargetStatusID)
	if cmd.OrderID == "" {
		return StatusRecord{}, fmt.Errorf("%w: order id is required", ErrStatusInvalidInput)
	}

	unlock := s.locks.Lock(orderLockPrefix + cmd.OrderID)
	defer unlock()

	order, err := s.orders.FindByID(ctx, cmd.OrderID)
	if err != nil {
		return StatusRecord{}, s.mapRepositoryError(err)
	}
	if err := authorizeOrderAccess(order, cmd.Actor, ErrStatusForbidden); err != nil {
		return StatusRecord{}, err
	}

	current, err := s.currentDescription(ctx, cmd.OrderID)
	if err != nil {
		return StatusRecord{}, err
	}

	target, err := s.resolveTarget(ctx, cmd)
	if err != nil {
		return StatusRecord{}, err
	}

	if !cmd.Actor.Admin {
		if target.Description == current {
			return StatusRecord{}, fmt.Errorf("%w: order %s is already %s", ErrStatusConflict, cmd.OrderID, current)
		}
		// Customers only place their cart: inprogress -> ordered.
		if current != domain.StatusInProgress {
			return StatusRecord{}, fmt.Errorf("%w: order %s is %s", ErrStatusInvalidState, cmd.OrderID, current)
		}
		if target.Description != domain.StatusOrdered {
			return StatusRecord{}, fmt.Errorf("%w: transition to %s requires admin access", ErrStatusForbidden, target.Description)
		}
	}

	if _, valueBearing := domain.ValueBearingStatuses[target.Description]; valueBearing {
		items, err := s.lineItems.ListActiveByOrder(ctx, cmd.OrderID)
		if err != nil {
			return StatusRecord{}, s.mapRepositoryError(err)
		}
		if len(items) == 0 {
			return StatusRecord{}, fmt.Errorf("%w: order %s has no active items", ErrStatusInvalidState, cmd.OrderID)
		}
	}

	// Leaving the cart state freezes the items, so pin the totals now.
	if current == domain.StatusInProgress {
		pinned, err := s.totals.Recompute(ctx, cmd.OrderID)
		if err != nil {
			s.logger(ctx, "status.totals.recompute.failed", map[string]any{
				"order": cmd.OrderID,
				"error": err.Error(),
			})
		} else {
			order = pinned
		}
	}

	record := StatusRecord{
		ID:         statusRecordIDPrefix + s.newID(),
		OrderID:    cmd.OrderID,
		StatusID:   target.ID,
		RecordedAt: s.clock(),
	}
	if err := s.statusRecords.Append(ctx, record); err != nil {
		return StatusRecord{}, s.mapRepositoryError(err)
	}

	s.publishEvent(ctx, OrderEvent{
		Type:       orderEventStatusChanged,
		OrderID:    cmd.OrderID,
		UserID:     order.UserID,
		StatusID:   target.ID,
		Status:     target.Description,
		Subtotal:   order.Subtotal,
		Total:      order.Total,
		OccurredAt: record.RecordedAt,
		Metadata:   map[string]any{"previous": current},
	})

	return record, nil
}

func (s *statusService) StatusHistory(ctx context.Context, orderID string, actor Actor) ([]StatusRecordView, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, fmt.Errorf("%w: order id is required", ErrStatusInvalidInput)
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}
	if err := authorizeOrderAccess(order, actor, ErrStatusForbidden); err != nil {
		return nil, err
	}

	records, err := s.statusRecords.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}

	statuses, err := s.statuses.List(ctx)
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}
	descriptions := make(map[string]string, len(statuses))
	for _, status := range statuses {
		descriptions[status.ID] = status.Description
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

func (s *statusService) CurrentStatus(ctx context.Context, orderID string, actor Actor) (Status, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return Status{}, fmt.Errorf("%w: order id is required", ErrStatusInvalidInput)
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return Status{}, s.mapRepositoryError(err)
	}
	if err := authorizeOrderAccess(order, actor, ErrStatusForbidden); err != nil {
		return Status{}, err
	}

	latest, err := s.statusRecords.LatestByOrder(ctx, orderID)
	if err != nil {
		return Status{}, s.mapRepositoryError(err)
	}
	status, err := s.statuses.FindByID(ctx, latest.StatusID)
	if err != nil {
		return Status{}, s.mapRepositoryError(err)
	}
	return status, nil
}

func (s *statusService) CreateStatus(ctx context.Context, description string, actor Actor) (Status, error) {
	if !actor.Admin {
		return Status{}, fmt.Errorf("%w: status administration requires admin access", ErrStatusForbidden)
	}
	description, err := normalizeStatusDescription(description)
	if err != nil {
		return Status{}, err
	}

	if _, err := s.statuses.FindByDescription(ctx, description); err == nil {
		return Status{}, fmt.Errorf("%w: status %q already exists", ErrStatusConflict, description)
	} else if !isRepoNotFound(err) {
		return Status{}, s.mapRepositoryError(err)
	}

	now := s.clock()
	status := Status{
		ID:          statusIDPrefix + s.newID(),
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.statuses.Insert(ctx, status); err != nil {
		return Status{}, s.mapRepositoryError(err)
	}
	return status, nil
}

func (s *statusService) UpdateStatus(ctx context.Context, statusID string, description string, actor Actor) (Status, error) {
	if !actor.Admin {
		return Status{}, fmt.Errorf("%w: status administration requires admin access", ErrStatusForbidden)
	}
	statusID = strings.TrimSpace(statusID)
	if statusID == "" {
		return Status{}, fmt.Errorf("%w: status id is required", ErrStatusInvalidInput)
	}
	description, err := normalizeStatusDescription(description)
	if err != nil {
		return Status{}, err
	}

	status, err := s.statuses.FindByID(ctx, statusID)
	if err != nil {
		return Status{}, s.mapRepositoryError(err)
	}
	if _, reserved := reservedStatuses[status.Description]; reserved && status.Description != description {
		return Status{}, fmt.Errorf("%w: status %q is reserved", ErrStatusInvalidState, status.Description)
	}

	if existing, err := s.statuses.FindByDescription(ctx, description); err == nil {
		if existing.ID != statusID {
			return Status{}, fmt.Errorf("%w: status %q already exists", ErrStatusConflict, description)
		}
	} else if !isRepoNotFound(err) {
		return Status{}, s.mapRepositoryError(err)
	}

	status.Description = description
	status.UpdatedAt = s.clock()
	if err := s.statuses.Update(ctx, status); err != nil {
		return Status{}, s.mapRepositoryError(err)
	}
	return status, nil
}

func (s *statusService) DeleteStatus(ctx context.Context, statusID string, actor Actor) error {
	if !actor.Admin {
		return fmt.Errorf("%w: status administration requires admin access", ErrStatusForbidden)
	}
	statusID = strings.TrimSpace(statusID)
	if statusID == "" {
		return fmt.Errorf("%w: status id is required", ErrStatusInvalidInput)
	}

	status, err := s.statuses.FindByID(ctx, statusID)
	if err != nil {
		return s.mapRepositoryError(err)
	}
	if _, reserved := reservedStatuses[status.Description]; reserved {
		return fmt.Errorf("%w: status %q is reserved", ErrStatusInvalidState, status.Description)
	}

	if err := s.statuses.Delete(ctx, statusID); err != nil {
		return s.mapRepositoryError(err)
	}
	return nil
}

func (s *statusService) GetStatus(ctx context.Context, statusID string) (Status, error) {
	statusID = strings.TrimSpace(statusID)
	if statusID == "" {
		return Status{}, fmt.Errorf("%w: status id is required", ErrStatusInvalidInput)
	}
	status, err := s.statuses.FindByID(ctx, statusID)
	if err != nil {
		return Status{}, s.mapRepositoryError(err)
	}
	return status, nil
}

func (s *statusService) ListStatuses(ctx context.Context) ([]Status, error) {
	statuses, err := s.statuses.List(ctx)
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}
	return statuses, nil
}

func (s *statusService) resolveTarget(ctx context.Context, cmd AdvanceStatusCommand) (Status, error) {
	if cmd.TargetStatusID == "" {
		target, err := s.statuses.FindByDescription(ctx, domain.StatusOrdered)
		if err != nil {
			if isRepoNotFound(err) {
				return Status{}, fmt.Errorf("%w: status vocabulary is missing %q", ErrStatusInvalidState, domain.StatusOrdered)
			}
			return Status{}, s.mapRepositoryError(err)
		}
		return target, nil
	}

	target, err := s.statuses.FindByID(ctx, cmd.TargetStatusID)
	if err != nil {
		if isRepoNotFound(err) {
			return Status{}, fmt.Errorf("%w: status %s", ErrStatusNotFound, cmd.TargetStatusID)
		}
		return Status{}, s.mapRepositoryError(err)
	}
	return target, nil
}

func (s *statusService) currentDescription(ctx context.Context, orderID string) (string, error) {
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

func (s *statusService) publishEvent(ctx context.Context, event OrderEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishOrderEvent(ctx, event); err != nil {
		s.logger(ctx, "order.event.publish.failed", map[string]any{
			"type":  event.Type,
			"order": event.OrderID,
			"error": err.Error(),
		})
	}
}

func (s *statusService) mapRepositoryError(err error) error {
	return mapRepoError(err, ErrStatusNotFound, ErrStatusConflict, ErrStatusUnavailable)
}

func normalizeStatusDescription(description string) (string, error) {
	description = strings.ToLower(strings.TrimSpace(description))
	if description == "" {
		return "", fmt.Errorf("%w: description is required", ErrStatusInvalidInput)
	}
	if strings.ContainsAny(description, " \t\n") {
		return "", fmt.Errorf("%w: description must be a single word", ErrStatusInvalidInput)
	}
	return description, nil
}
