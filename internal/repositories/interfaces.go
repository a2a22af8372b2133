package repositories

import (
	"context"
	"time"

	domain "github.com/dulceria/api/internal/domain"
)

// Registry exposes typed repository accessors and lifecycle hooks for dependency injection.
type Registry interface {
	Close(ctx context.Context) error

	Orders() OrderRepository
	LineItems() LineItemRepository
	StatusRecords() StatusRecordRepository
	Statuses() StatusRepository
	Catalog() CatalogRepository
	Users() UserRepository
	BundleItems() BundleItemRepository
	Health() HealthRepository
	UnitOfWork
}

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// UnitOfWork allows grouping repository operations in a transactional boundary when supported.
type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// OrderRepository persists order headers and provides query helpers for users and admins.
// Orders are never deleted; totals updates replace only the derived fields.
type OrderRepository interface {
	Insert(ctx context.Context, order domain.Order) error
	FindByID(ctx context.Context, orderID string) (domain.Order, error)
	UpdateTotals(ctx context.Context, orderID string, totals OrderTotalsUpdate) error
	List(ctx context.Context, filter OrderListFilter) ([]domain.Order, error)
	Count(ctx context.Context, filter OrderListFilter) (int64, error)
	ListIDsByUser(ctx context.Context, userID string) ([]string, error)
}

// OrderTotalsUpdate carries the derived monetary fields written by the totals engine.
type OrderTotalsUpdate struct {
	Subtotal  float64
	Taxes     float64
	Discount  float64
	Total     float64
	UpdatedAt time.Time
}

// OrderListFilter controls the admin/user order listing. Skip/Limit paginate;
// a zero Limit falls back to the repository default.
type OrderListFilter struct {
	UserID string
	Page   domain.PageFilter
}

// LineItemRepository persists order line items. Removal is always a soft
// delete; FindActive helpers never surface inactive rows.
type LineItemRepository interface {
	Insert(ctx context.Context, item domain.LineItem) error
	FindByID(ctx context.Context, itemID string) (domain.LineItem, error)
	FindActiveByOrderAndProduct(ctx context.Context, orderID string, productID string) (domain.LineItem, error)
	ListActiveByOrder(ctx context.Context, orderID string) ([]domain.LineItem, error)
	UpdateQuantity(ctx context.Context, itemID string, quantity int, updatedAt time.Time) error
	Deactivate(ctx context.Context, itemID string, updatedAt time.Time) error
}

// StatusRecordRepository appends and reads the immutable status history of an order.
type StatusRecordRepository interface {
	Append(ctx context.Context, record domain.StatusRecord) error
	ListByOrder(ctx context.Context, orderID string) ([]domain.StatusRecord, error)
	LatestByOrder(ctx context.Context, orderID string) (domain.StatusRecord, error)
}

// StatusRepository stores the status vocabulary. Descriptions are unique.
type StatusRepository interface {
	Insert(ctx context.Context, status domain.Status) error
	Update(ctx context.Context, status domain.Status) error
	Delete(ctx context.Context, statusID string) error
	FindByID(ctx context.Context, statusID string) (domain.Status, error)
	FindByDescription(ctx context.Context, description string) (domain.Status, error)
	List(ctx context.Context) ([]domain.Status, error)
}

// CatalogRepository stores purchasable catalog items.
type CatalogRepository interface {
	Insert(ctx context.Context, item domain.CatalogItem) error
	Update(ctx context.Context, item domain.CatalogItem) error
	Delete(ctx context.Context, productID string) error
	FindByID(ctx context.Context, productID string) (domain.CatalogItem, error)
	FindByIDs(ctx context.Context, productIDs []string) (map[string]domain.CatalogItem, error)
	List(ctx context.Context, filter CatalogListFilter) ([]domain.CatalogItem, error)
}

// CatalogListFilter restricts catalog listings by type and active flag.
type CatalogListFilter struct {
	CatalogType string
	ActiveOnly  bool
	Page        domain.PageFilter
}

// UserRepository stores user profile documents keyed by application id.
type UserRepository interface {
	Insert(ctx context.Context, profile domain.UserProfile) error
	FindByID(ctx context.Context, userID string) (domain.UserProfile, error)
	FindByFirebaseUID(ctx context.Context, firebaseUID string) (domain.UserProfile, error)
	FindByEmail(ctx context.Context, email string) (domain.UserProfile, error)
	FindByIDs(ctx context.Context, userIDs []string) (map[string]domain.UserProfile, error)
}

// BundleItemRepository stores fixed bundle memberships. Unlike line items,
// bundle rows are hard-deleted.
type BundleItemRepository interface {
	Insert(ctx context.Context, item domain.BundleItem) error
	Delete(ctx context.Context, itemID string) error
	FindByID(ctx context.Context, itemID string) (domain.BundleItem, error)
	FindByBundleAndProduct(ctx context.Context, bundleID string, productID string) (domain.BundleItem, error)
	ListByBundle(ctx context.Context, bundleID string) ([]domain.BundleItem, error)
}

// HealthRepository exposes status of downstream dependencies for health checks.
type HealthRepository interface {
	Collect(ctx context.Context) (domain.SystemHealthReport, error)
}
