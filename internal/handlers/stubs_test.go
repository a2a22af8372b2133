package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"

	"github.com/dulceria/api/internal/platform/auth"
	"github.com/dulceria/api/internal/services"
)

// authedRequest builds a request carrying a pre-resolved identity, bypassing
// the authenticator middleware.
func authedRequest(method, target string, body io.Reader, identity *auth.Identity) *http.Request {
	req := httptest.NewRequest(method, target, body)
	if identity != nil {
		req = req.WithContext(auth.WithIdentity(req.Context(), identity))
	}
	return req
}

type stubOrderService struct {
	openFn      func(context.Context, string) (services.OpenOrderResult, error)
	getFn       func(context.Context, string, services.Actor) (services.OrderDetail, error)
	listFn      func(context.Context, services.OrderListFilter, services.Actor) (services.OrderPage, error)
	recomputeFn func(context.Context, string, services.Actor) (services.Order, error)
}

func (s *stubOrderService) FindOrCreateOpenOrder(ctx context.Context, userID string) (services.OpenOrderResult, error) {
	if s.openFn != nil {
		return s.openFn(ctx, userID)
	}
	return services.OpenOrderResult{}, errors.New("not implemented")
}

func (s *stubOrderService) GetOrder(ctx context.Context, orderID string, actor services.Actor) (services.OrderDetail, error) {
	if s.getFn != nil {
		return s.getFn(ctx, orderID, actor)
	}
	return services.OrderDetail{}, errors.New("not implemented")
}

func (s *stubOrderService) ListOrders(ctx context.Context, filter services.OrderListFilter, actor services.Actor) (services.OrderPage, error) {
	if s.listFn != nil {
		return s.listFn(ctx, filter, actor)
	}
	return services.OrderPage{}, errors.New("not implemented")
}

func (s *stubOrderService) RecomputeTotals(ctx context.Context, orderID string, actor services.Actor) (services.Order, error) {
	if s.recomputeFn != nil {
		return s.recomputeFn(ctx, orderID, actor)
	}
	return services.Order{}, errors.New("not implemented")
}

type stubLineItemService struct {
	addFn    func(context.Context, services.AddLineItemCommand) (services.LineItemMutationResult, error)
	updateFn func(context.Context, services.UpdateLineItemQuantityCommand) (services.LineItemMutationResult, error)
	removeFn func(context.Context, services.RemoveLineItemCommand) (services.LineItemMutationResult, error)
	listFn   func(context.Context, string, services.Actor) ([]services.LineItemView, error)
}

func (s *stubLineItemService) AddLineItem(ctx context.Context, cmd services.AddLineItemCommand) (services.LineItemMutationResult, error) {
	if s.addFn != nil {
		return s.addFn(ctx, cmd)
	}
	return services.LineItemMutationResult{}, errors.New("not implemented")
}

func (s *stubLineItemService) UpdateLineItemQuantity(ctx context.Context, cmd services.UpdateLineItemQuantityCommand) (services.LineItemMutationResult, error) {
	if s.updateFn != nil {
		return s.updateFn(ctx, cmd)
	}
	return services.LineItemMutationResult{}, errors.New("not implemented")
}

func (s *stubLineItemService) RemoveLineItem(ctx context.Context, cmd services.RemoveLineItemCommand) (services.LineItemMutationResult, error) {
	if s.removeFn != nil {
		return s.removeFn(ctx, cmd)
	}
	return services.LineItemMutationResult{}, errors.New("not implemented")
}

func (s *stubLineItemService) ListLineItems(ctx context.Context, orderID string, actor services.Actor) ([]services.LineItemView, error) {
	if s.listFn != nil {
		return s.listFn(ctx, orderID, actor)
	}
	return nil, errors.New("not implemented")
}

type stubStatusService struct {
	advanceFn func(context.Context, services.AdvanceStatusCommand) (services.StatusRecord, error)
	historyFn func(context.Context, string, services.Actor) ([]services.StatusRecordView, error)
	currentFn func(context.Context, string, services.Actor) (services.Status, error)
	createFn  func(context.Context, string, services.Actor) (services.Status, error)
	updateFn  func(context.Context, string, string, services.Actor) (services.Status, error)
	deleteFn  func(context.Context, string, services.Actor) error
	getFn     func(context.Context, string) (services.Status, error)
	listFn    func(context.Context) ([]services.Status, error)
}

func (s *stubStatusService) Advance(ctx context.Context, cmd services.AdvanceStatusCommand) (services.StatusRecord, error) {
	if s.advanceFn != nil {
		return s.advanceFn(ctx, cmd)
	}
	return services.StatusRecord{}, errors.New("not implemented")
}

func (s *stubStatusService) StatusHistory(ctx context.Context, orderID string, actor services.Actor) ([]services.StatusRecordView, error) {
	if s.historyFn != nil {
		return s.historyFn(ctx, orderID, actor)
	}
	return nil, errors.New("not implemented")
}

func (s *stubStatusService) CurrentStatus(ctx context.Context, orderID string, actor services.Actor) (services.Status, error) {
	if s.currentFn != nil {
		return s.currentFn(ctx, orderID, actor)
	}
	return services.Status{}, errors.New("not implemented")
}

func (s *stubStatusService) CreateStatus(ctx context.Context, description string, actor services.Actor) (services.Status, error) {
	if s.createFn != nil {
		return s.createFn(ctx, description, actor)
	}
	return services.Status{}, errors.New("not implemented")
}

func (s *stubStatusService) UpdateStatus(ctx context.Context, statusID string, description string, actor services.Actor) (services.Status, error) {
	if s.updateFn != nil {
		return s.updateFn(ctx, statusID, description, actor)
	}
	return services.Status{}, errors.New("not implemented")
}

func (s *stubStatusService) DeleteStatus(ctx context.Context, statusID string, actor services.Actor) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, statusID, actor)
	}
	return errors.New("not implemented")
}

func (s *stubStatusService) GetStatus(ctx context.Context, statusID string) (services.Status, error) {
	if s.getFn != nil {
		return s.getFn(ctx, statusID)
	}
	return services.Status{}, errors.New("not implemented")
}

func (s *stubStatusService) ListStatuses(ctx context.Context) ([]services.Status, error) {
	if s.listFn != nil {
		return s.listFn(ctx)
	}
	return nil, errors.New("not implemented")
}

type stubCatalogService struct {
	getFn    func(context.Context, string) (services.CatalogItem, error)
	listFn   func(context.Context, services.CatalogListFilter) ([]services.CatalogItem, error)
	createFn func(context.Context, services.UpsertProductCommand) (services.CatalogItem, error)
	updateFn func(context.Context, string, services.UpsertProductCommand) (services.CatalogItem, error)
	deleteFn func(context.Context, string, services.Actor) error
}

func (s *stubCatalogService) GetProduct(ctx context.Context, productID string) (services.CatalogItem, error) {
	if s.getFn != nil {
		return s.getFn(ctx, productID)
	}
	return services.CatalogItem{}, errors.New("not implemented")
}

func (s *stubCatalogService) ListProducts(ctx context.Context, filter services.CatalogListFilter) ([]services.CatalogItem, error) {
	if s.listFn != nil {
		return s.listFn(ctx, filter)
	}
	return nil, errors.New("not implemented")
}

func (s *stubCatalogService) CreateProduct(ctx context.Context, cmd services.UpsertProductCommand) (services.CatalogItem, error) {
	if s.createFn != nil {
		return s.createFn(ctx, cmd)
	}
	return services.CatalogItem{}, errors.New("not implemented")
}

func (s *stubCatalogService) UpdateProduct(ctx context.Context, productID string, cmd services.UpsertProductCommand) (services.CatalogItem, error) {
	if s.updateFn != nil {
		return s.updateFn(ctx, productID, cmd)
	}
	return services.CatalogItem{}, errors.New("not implemented")
}

func (s *stubCatalogService) DeleteProduct(ctx context.Context, productID string, actor services.Actor) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, productID, actor)
	}
	return errors.New("not implemented")
}

type stubUserService struct {
	registerFn func(context.Context, services.RegisterUserCommand) (services.UserProfile, error)
	loginFn    func(context.Context, string) (services.LoginResult, error)
	profileFn  func(context.Context, string) (services.UserProfile, error)
	resolveFn  func(context.Context, string, string) (services.UserProfile, error)
}

func (s *stubUserService) Register(ctx context.Context, cmd services.RegisterUserCommand) (services.UserProfile, error) {
	if s.registerFn != nil {
		return s.registerFn(ctx, cmd)
	}
	return services.UserProfile{}, errors.New("not implemented")
}

func (s *stubUserService) Login(ctx context.Context, idToken string) (services.LoginResult, error) {
	if s.loginFn != nil {
		return s.loginFn(ctx, idToken)
	}
	return services.LoginResult{}, errors.New("not implemented")
}

func (s *stubUserService) GetProfile(ctx context.Context, userID string) (services.UserProfile, error) {
	if s.profileFn != nil {
		return s.profileFn(ctx, userID)
	}
	return services.UserProfile{}, errors.New("not implemented")
}

func (s *stubUserService) ResolveIdentity(ctx context.Context, firebaseUID string, email string) (services.UserProfile, error) {
	if s.resolveFn != nil {
		return s.resolveFn(ctx, firebaseUID, email)
	}
	return services.UserProfile{}, errors.New("not implemented")
}

type stubBundleService struct {
	addFn    func(context.Context, services.AddBundleItemCommand) (services.BundleItem, error)
	removeFn func(context.Context, string, string, services.Actor) error
	listFn   func(context.Context, string) ([]services.BundleItem, error)
}

func (s *stubBundleService) AddProduct(ctx context.Context, cmd services.AddBundleItemCommand) (services.BundleItem, error) {
	if s.addFn != nil {
		return s.addFn(ctx, cmd)
	}
	return services.BundleItem{}, errors.New("not implemented")
}

func (s *stubBundleService) RemoveProduct(ctx context.Context, bundleID string, itemID string, actor services.Actor) error {
	if s.removeFn != nil {
		return s.removeFn(ctx, bundleID, itemID, actor)
	}
	return errors.New("not implemented")
}

func (s *stubBundleService) ListProducts(ctx context.Context, bundleID string) ([]services.BundleItem, error) {
	if s.listFn != nil {
		return s.listFn(ctx, bundleID)
	}
	return nil, errors.New("not implemented")
}

type stubSystemService struct {
	report services.SystemHealthReport
	err    error
}

func (s *stubSystemService) Health(context.Context) (services.SystemHealthReport, error) {
	return s.report, s.err
}
