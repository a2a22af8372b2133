package services

import (
	"context"

	domain "github.com/dulceria/api/internal/domain"
)

// Type aliases expose domain models to the services package without reversing dependency direction.
type (
	PageFilter         = domain.PageFilter
	Order              = domain.Order
	OrderSummary       = domain.OrderSummary
	OrderDetail        = domain.OrderDetail
	OrderPage          = domain.OrderPage
	LineItem           = domain.LineItem
	LineItemView       = domain.LineItemView
	StatusRecord       = domain.StatusRecord
	StatusRecordView   = domain.StatusRecordView
	Status             = domain.Status
	CatalogItem        = domain.CatalogItem
	UserProfile        = domain.UserProfile
	BundleItem         = domain.BundleItem
	SystemHealthReport = domain.SystemHealthReport
)

// Actor identifies the authenticated principal invoking an operation.
// Authorization decisions never read transport-level state.
type Actor struct {
	UserID string
	Admin  bool
}

// OrderService owns the order lifecycle: find-or-create of the open cart,
// detail reads, and the admin listing aggregate.
type OrderService interface {
	FindOrCreateOpenOrder(ctx context.Context, userID string) (OpenOrderResult, error)
	GetOrder(ctx context.Context, orderID string, actor Actor) (OrderDetail, error)
	ListOrders(ctx context.Context, filter OrderListFilter, actor Actor) (OrderPage, error)
	RecomputeTotals(ctx context.Context, orderID string, actor Actor) (Order, error)
}

// OpenOrderResult reports the open order plus whether it was created by this call.
type OpenOrderResult struct {
	Order   Order
	Created bool
}

// OrderListFilter controls order listing. Non-admin callers are always scoped
// to their own user id by the service.
type OrderListFilter struct {
	UserID string
	Page   PageFilter
}

// LineItemService manages order line items with soft-delete semantics and
// per-(order, product) active uniqueness. Every mutation triggers a totals
// recompute; recompute failures after a successful write surface as
// TotalsStale on the result rather than rolling back.
type LineItemService interface {
	AddLineItem(ctx context.Context, cmd AddLineItemCommand) (LineItemMutationResult, error)
	UpdateLineItemQuantity(ctx context.Context, cmd UpdateLineItemQuantityCommand) (LineItemMutationResult, error)
	RemoveLineItem(ctx context.Context, cmd RemoveLineItemCommand) (LineItemMutationResult, error)
	ListLineItems(ctx context.Context, orderID string, actor Actor) ([]LineItemView, error)
}

// AddLineItemCommand inserts a new active line item into an order.
type AddLineItemCommand struct {
	OrderID   string
	ProductID string
	Quantity  int
	Actor     Actor
}

// UpdateLineItemQuantityCommand replaces the quantity of an active line item.
type UpdateLineItemQuantityCommand struct {
	OrderID  string
	ItemID   string
	Quantity int
	Actor    Actor
}

// RemoveLineItemCommand soft-deletes a line item.
type RemoveLineItemCommand struct {
	OrderID string
	ItemID  string
	Actor   Actor
}

// LineItemMutationResult reports the written item and the refreshed order
// totals. TotalsStale is true when the line-item write succeeded but the
// subsequent recompute failed; the stored totals then lag the items until the
// next mutation or an explicit recompute repairs them.
type LineItemMutationResult struct {
	Item        LineItem
	Order       Order
	TotalsStale bool
}

// TotalsEngine recomputes the denormalized monetary fields of an order from
// its active line items. Recompute is idempotent and never mutates line items.
type TotalsEngine interface {
	Recompute(ctx context.Context, orderID string) (Order, error)
}

// StatusService implements the append-only status state machine and the
// status vocabulary administration.
type StatusService interface {
	Advance(ctx context.Context, cmd AdvanceStatusCommand) (StatusRecord, error)
	StatusHistory(ctx context.Context, orderID string, actor Actor) ([]StatusRecordView, error)
	CurrentStatus(ctx context.Context, orderID string, actor Actor) (Status, error)

	CreateStatus(ctx context.Context, description string, actor Actor) (Status, error)
	UpdateStatus(ctx context.Context, statusID string, description string, actor Actor) (Status, error)
	DeleteStatus(ctx context.Context, statusID string, actor Actor) error
	GetStatus(ctx context.Context, statusID string) (Status, error)
	ListStatuses(ctx context.Context) ([]Status, error)
}

// AdvanceStatusCommand appends a status record to an order's history.
// TargetStatusID is optional for non-admin actors; it defaults to the
// `ordered` status.
type AdvanceStatusCommand struct {
	OrderID        string
	TargetStatusID string
	Actor          Actor
}

// CatalogService manages purchasable products and serves the price lookups
// the line-item and totals flows depend on.
type CatalogService interface {
	GetProduct(ctx context.Context, productID string) (CatalogItem, error)
	ListProducts(ctx context.Context, filter CatalogListFilter) ([]CatalogItem, error)
	CreateProduct(ctx context.Context, cmd UpsertProductCommand) (CatalogItem, error)
	UpdateProduct(ctx context.Context, productID string, cmd UpsertProductCommand) (CatalogItem, error)
	DeleteProduct(ctx context.Context, productID string, actor Actor) error
}

// CatalogListFilter restricts catalog listings.
type CatalogListFilter struct {
	CatalogType string
	ActiveOnly  bool
	Page        PageFilter
}

// UpsertProductCommand carries catalog item fields for create/update.
type UpsertProductCommand struct {
	Name        string
	Description string
	Cost        float64
	Discount    float64
	CatalogType string
	Active      *bool
	Actor       Actor
}

// UserService manages registration, login, and profile reads.
type UserService interface {
	Register(ctx context.Context, cmd RegisterUserCommand) (UserProfile, error)
	Login(ctx context.Context, idToken string) (LoginResult, error)
	GetProfile(ctx context.Context, userID string) (UserProfile, error)
	ResolveIdentity(ctx context.Context, firebaseUID string, email string) (UserProfile, error)
}

// RegisterUserCommand creates a Firebase account plus the application user document.
type RegisterUserCommand struct {
	Name     string
	Lastname string
	Email    string
	Password string
}

// LoginResult carries the minted session token and the authenticated profile.
type LoginResult struct {
	Token     string
	ExpiresAt string
	Profile   UserProfile
}

// BundleService manages fixed bundle memberships: no totals, no lifecycle,
// hard deletes.
type BundleService interface {
	AddProduct(ctx context.Context, cmd AddBundleItemCommand) (BundleItem, error)
	RemoveProduct(ctx context.Context, bundleID string, itemID string, actor Actor) error
	ListProducts(ctx context.Context, bundleID string) ([]BundleItem, error)
}

// AddBundleItemCommand inserts a product into a bundle.
type AddBundleItemCommand struct {
	BundleID  string
	ProductID string
	Quantity  int
	Actor     Actor
}

// SystemService aggregates utility endpoints (health checks).
type SystemService interface {
	Health(ctx context.Context) (SystemHealthReport, error)
}
