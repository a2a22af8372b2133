package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "github.com/dulceria/api/internal/domain"
	"github.com/dulceria/api/internal/repositories"
)

// repoError satisfies repositories.RepositoryError for tests.
type repoError struct {
	code string
	msg  string
}

func (e repoError) Error() string        { return e.msg }
func (e repoError) IsNotFound() bool     { return e.code == "not_found" }
func (e repoError) IsConflict() bool     { return e.code == "conflict" }
func (e repoError) IsUnavailable() bool  { return e.code == "unavailable" }

func notFoundErr(format string, args ...any) error {
	return repoError{code: "not_found", msg: fmt.Sprintf(format, args...)}
}

func unavailableErr(format string, args ...any) error {
	return repoError{code: "unavailable", msg: fmt.Sprintf(format, args...)}
}

type stubOrderRepo struct {
	insertFn       func(context.Context, domain.Order) error
	findFn         func(context.Context, string) (domain.Order, error)
	updateTotalsFn func(context.Context, string, repositories.OrderTotalsUpdate) error
	listFn         func(context.Context, repositories.OrderListFilter) ([]domain.Order, error)
	countFn        func(context.Context, repositories.OrderListFilter) (int64, error)
	listIDsFn      func(context.Context, string) ([]string, error)
}

func (s *stubOrderRepo) Insert(ctx context.Context, order domain.Order) error {
	if s.insertFn != nil {
		return s.insertFn(ctx, order)
	}
	return nil
}

func (s *stubOrderRepo) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	if s.findFn != nil {
		return s.findFn(ctx, orderID)
	}
	return domain.Order{}, errors.New("not implemented")
}

func (s *stubOrderRepo) UpdateTotals(ctx context.Context, orderID string, totals repositories.OrderTotalsUpdate) error {
	if s.updateTotalsFn != nil {
		return s.updateTotalsFn(ctx, orderID, totals)
	}
	return nil
}

func (s *stubOrderRepo) List(ctx context.Context, filter repositories.OrderListFilter) ([]domain.Order, error) {
	if s.listFn != nil {
		return s.listFn(ctx, filter)
	}
	return nil, nil
}

func (s *stubOrderRepo) Count(ctx context.Context, filter repositories.OrderListFilter) (int64, error) {
	if s.countFn != nil {
		return s.countFn(ctx, filter)
	}
	return 0, nil
}

func (s *stubOrderRepo) ListIDsByUser(ctx context.Context, userID string) ([]string, error) {
	if s.listIDsFn != nil {
		return s.listIDsFn(ctx, userID)
	}
	return nil, nil
}

type stubLineItemRepo struct {
	insertFn     func(context.Context, domain.LineItem) error
	findFn       func(context.Context, string) (domain.LineItem, error)
	findActiveFn func(context.Context, string, string) (domain.LineItem, error)
	listActiveFn func(context.Context, string) ([]domain.LineItem, error)
	updateQtyFn  func(context.Context, string, int, time.Time) error
	deactivateFn func(context.Context, string, time.Time) error
}

func (s *stubLineItemRepo) Insert(ctx context.Context, item domain.LineItem) error {
	if s.insertFn != nil {
		return s.insertFn(ctx, item)
	}
	return nil
}

func (s *stubLineItemRepo) FindByID(ctx context.Context, itemID string) (domain.LineItem, error) {
	if s.findFn != nil {
		return s.findFn(ctx, itemID)
	}
	return domain.LineItem{}, notFoundErr("line item %s", itemID)
}

func (s *stubLineItemRepo) FindActiveByOrderAndProduct(ctx context.Context, orderID, productID string) (domain.LineItem, error) {
	if s.findActiveFn != nil {
		return s.findActiveFn(ctx, orderID, productID)
	}
	return domain.LineItem{}, notFoundErr("line item for %s/%s", orderID, productID)
}

func (s *stubLineItemRepo) ListActiveByOrder(ctx context.Context, orderID string) ([]domain.LineItem, error) {
	if s.listActiveFn != nil {
		return s.listActiveFn(ctx, orderID)
	}
	return nil, nil
}

func (s *stubLineItemRepo) UpdateQuantity(ctx context.Context, itemID string, quantity int, updatedAt time.Time) error {
	if s.updateQtyFn != nil {
		return s.updateQtyFn(ctx, itemID, quantity, updatedAt)
	}
	return nil
}

func (s *stubLineItemRepo) Deactivate(ctx context.Context, itemID string, updatedAt time.Time) error {
	if s.deactivateFn != nil {
		return s.deactivateFn(ctx, itemID, updatedAt)
	}
	return nil
}

type stubStatusRecordRepo struct {
	appendFn func(context.Context, domain.StatusRecord) error
	listFn   func(context.Context, string) ([]domain.StatusRecord, error)
	latestFn func(context.Context, string) (domain.StatusRecord, error)
}

func (s *stubStatusRecordRepo) Append(ctx context.Context, record domain.StatusRecord) error {
	if s.appendFn != nil {
		return s.appendFn(ctx, record)
	}
	return nil
}

func (s *stubStatusRecordRepo) ListByOrder(ctx context.Context, orderID string) ([]domain.StatusRecord, error) {
	if s.listFn != nil {
		return s.listFn(ctx, orderID)
	}
	return nil, nil
}

func (s *stubStatusRecordRepo) LatestByOrder(ctx context.Context, orderID string) (domain.StatusRecord, error) {
	if s.latestFn != nil {
		return s.latestFn(ctx, orderID)
	}
	return domain.StatusRecord{}, notFoundErr("status record for %s", orderID)
}

type stubStatusRepo struct {
	insertFn  func(context.Context, domain.Status) error
	updateFn  func(context.Context, domain.Status) error
	deleteFn  func(context.Context, string) error
	findFn    func(context.Context, string) (domain.Status, error)
	findDescFn func(context.Context, string) (domain.Status, error)
	listFn    func(context.Context) ([]domain.Status, error)
}

func (s *stubStatusRepo) Insert(ctx context.Context, status domain.Status) error {
	if s.insertFn != nil {
		return s.insertFn(ctx, status)
	}
	return nil
}

func (s *stubStatusRepo) Update(ctx context.Context, status domain.Status) error {
	if s.updateFn != nil {
		return s.updateFn(ctx, status)
	}
	return nil
}

func (s *stubStatusRepo) Delete(ctx context.Context, statusID string) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, statusID)
	}
	return nil
}

func (s *stubStatusRepo) FindByID(ctx context.Context, statusID string) (domain.Status, error) {
	if s.findFn != nil {
		return s.findFn(ctx, statusID)
	}
	return domain.Status{}, notFoundErr("status %s", statusID)
}

func (s *stubStatusRepo) FindByDescription(ctx context.Context, description string) (domain.Status, error) {
	if s.findDescFn != nil {
		return s.findDescFn(ctx, description)
	}
	return domain.Status{}, notFoundErr("status %q", description)
}

func (s *stubStatusRepo) List(ctx context.Context) ([]domain.Status, error) {
	if s.listFn != nil {
		return s.listFn(ctx)
	}
	return nil, nil
}

// vocabStatusRepo serves a fixed status vocabulary, the common fixture for
// state machine tests.
func vocabStatusRepo() *stubStatusRepo {
	statuses := []domain.Status{
		{ID: "sts_1", Description: domain.StatusInProgress},
		{ID: "sts_2", Description: domain.StatusOrdered},
		{ID: "sts_3", Description: domain.StatusProcessing},
		{ID: "sts_4", Description: domain.StatusShipped},
		{ID: "sts_5", Description: domain.StatusDelivered},
		{ID: "sts_6", Description: domain.StatusCancelled},
	}
	return &stubStatusRepo{
		findFn: func(_ context.Context, id string) (domain.Status, error) {
			for _, status := range statuses {
				if status.ID == id {
					return status, nil
				}
			}
			return domain.Status{}, notFoundErr("status %s", id)
		},
		findDescFn: func(_ context.Context, description string) (domain.Status, error) {
			for _, status := range statuses {
				if status.Description == description {
					return status, nil
				}
			}
			return domain.Status{}, notFoundErr("status %q", description)
		},
		listFn: func(context.Context) ([]domain.Status, error) {
			return statuses, nil
		},
	}
}

type stubCatalogRepo struct {
	insertFn   func(context.Context, domain.CatalogItem) error
	updateFn   func(context.Context, domain.CatalogItem) error
	deleteFn   func(context.Context, string) error
	findFn     func(context.Context, string) (domain.CatalogItem, error)
	findByIDsFn func(context.Context, []string) (map[string]domain.CatalogItem, error)
	listFn     func(context.Context, repositories.CatalogListFilter) ([]domain.CatalogItem, error)
}

func (s *stubCatalogRepo) Insert(ctx context.Context, item domain.CatalogItem) error {
	if s.insertFn != nil {
		return s.insertFn(ctx, item)
	}
	return nil
}

func (s *stubCatalogRepo) Update(ctx context.Context, item domain.CatalogItem) error {
	if s.updateFn != nil {
		return s.updateFn(ctx, item)
	}
	return nil
}

func (s *stubCatalogRepo) Delete(ctx context.Context, productID string) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, productID)
	}
	return nil
}

func (s *stubCatalogRepo) FindByID(ctx context.Context, productID string) (domain.CatalogItem, error) {
	if s.findFn != nil {
		return s.findFn(ctx, productID)
	}
	return domain.CatalogItem{}, notFoundErr("catalog item %s", productID)
}

func (s *stubCatalogRepo) FindByIDs(ctx context.Context, productIDs []string) (map[string]domain.CatalogItem, error) {
	if s.findByIDsFn != nil {
		return s.findByIDsFn(ctx, productIDs)
	}
	return map[string]domain.CatalogItem{}, nil
}

func (s *stubCatalogRepo) List(ctx context.Context, filter repositories.CatalogListFilter) ([]domain.CatalogItem, error) {
	if s.listFn != nil {
		return s.listFn(ctx, filter)
	}
	return nil, nil
}

// fixedCatalogRepo serves the given items by id.
func fixedCatalogRepo(items ...domain.CatalogItem) *stubCatalogRepo {
	byID := make(map[string]domain.CatalogItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}
	return &stubCatalogRepo{
		findFn: func(_ context.Context, id string) (domain.CatalogItem, error) {
			if item, ok := byID[id]; ok {
				return item, nil
			}
			return domain.CatalogItem{}, notFoundErr("catalog item %s", id)
		},
		findByIDsFn: func(_ context.Context, ids []string) (map[string]domain.CatalogItem, error) {
			out := make(map[string]domain.CatalogItem, len(ids))
			for _, id := range ids {
				if item, ok := byID[id]; ok {
					out[id] = item
				}
			}
			return out, nil
		},
	}
}

type stubUserRepo struct {
	insertFn        func(context.Context, domain.UserProfile) error
	findFn          func(context.Context, string) (domain.UserProfile, error)
	findByUIDFn     func(context.Context, string) (domain.UserProfile, error)
	findByEmailFn   func(context.Context, string) (domain.UserProfile, error)
	findByIDsFn     func(context.Context, []string) (map[string]domain.UserProfile, error)
}

func (s *stubUserRepo) Insert(ctx context.Context, profile domain.UserProfile) error {
	if s.insertFn != nil {
		return s.insertFn(ctx, profile)
	}
	return nil
}

func (s *stubUserRepo) FindByID(ctx context.Context, userID string) (domain.UserProfile, error) {
	if s.findFn != nil {
		return s.findFn(ctx, userID)
	}
	return domain.UserProfile{}, notFoundErr("user %s", userID)
}

func (s *stubUserRepo) FindByFirebaseUID(ctx context.Context, firebaseUID string) (domain.UserProfile, error) {
	if s.findByUIDFn != nil {
		return s.findByUIDFn(ctx, firebaseUID)
	}
	return domain.UserProfile{}, notFoundErr("user uid %s", firebaseUID)
}

func (s *stubUserRepo) FindByEmail(ctx context.Context, email string) (domain.UserProfile, error) {
	if s.findByEmailFn != nil {
		return s.findByEmailFn(ctx, email)
	}
	return domain.UserProfile{}, notFoundErr("user email %s", email)
}

func (s *stubUserRepo) FindByIDs(ctx context.Context, userIDs []string) (map[string]domain.UserProfile, error) {
	if s.findByIDsFn != nil {
		return s.findByIDsFn(ctx, userIDs)
	}
	return map[string]domain.UserProfile{}, nil
}

type stubBundleItemRepo struct {
	insertFn     func(context.Context, domain.BundleItem) error
	deleteFn     func(context.Context, string) error
	findFn       func(context.Context, string) (domain.BundleItem, error)
	findByPairFn func(context.Context, string, string) (domain.BundleItem, error)
	listFn       func(context.Context, string) ([]domain.BundleItem, error)
}

func (s *stubBundleItemRepo) Insert(ctx context.Context, item domain.BundleItem) error {
	if s.insertFn != nil {
		return s.insertFn(ctx, item)
	}
	return nil
}

func (s *stubBundleItemRepo) Delete(ctx context.Context, itemID string) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, itemID)
	}
	return nil
}

func (s *stubBundleItemRepo) FindByID(ctx context.Context, itemID string) (domain.BundleItem, error) {
	if s.findFn != nil {
		return s.findFn(ctx, itemID)
	}
	return domain.BundleItem{}, notFoundErr("bundle item %s", itemID)
}

func (s *stubBundleItemRepo) FindByBundleAndProduct(ctx context.Context, bundleID, productID string) (domain.BundleItem, error) {
	if s.findByPairFn != nil {
		return s.findByPairFn(ctx, bundleID, productID)
	}
	return domain.BundleItem{}, notFoundErr("bundle item %s/%s", bundleID, productID)
}

func (s *stubBundleItemRepo) ListByBundle(ctx context.Context, bundleID string) ([]domain.BundleItem, error) {
	if s.listFn != nil {
		return s.listFn(ctx, bundleID)
	}
	return nil, nil
}

type stubTotalsEngine struct {
	recomputeFn func(context.Context, string) (domain.Order, error)
}

func (s *stubTotalsEngine) Recompute(ctx context.Context, orderID string) (domain.Order, error) {
	if s.recomputeFn != nil {
		return s.recomputeFn(ctx, orderID)
	}
	return domain.Order{ID: orderID}, nil
}

type stubUnitOfWork struct {
	calls int
	runFn func(context.Context, func(ctx context.Context) error) error
}

func (s *stubUnitOfWork) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.calls++
	if s.runFn != nil {
		return s.runFn(ctx, fn)
	}
	return fn(ctx)
}

type captureOrderEvents struct {
	events []OrderEvent
}

func (c *captureOrderEvents) PublishOrderEvent(_ context.Context, event OrderEvent) error {
	c.events = append(c.events, event)
	return nil
}

func sequenceIDs(ids ...string) func() string {
	i := 0
	return func() string {
		if i >= len(ids) {
			return fmt.Sprintf("overflow-%d", i)
		}
		id := ids[i]
		i++
		return id
	}
}
