package domain

import (
	"time"
)

// PageFilter defines standard offset/limit paging inputs for list operations.
type PageFilter struct {
	Skip  int
	Limit int
}

// SortOrder indicates ascending or descending ordering for list queries.
type SortOrder string

const (
	// SortAsc sorts results in ascending order.
	SortAsc SortOrder = "asc"
	// SortDesc sorts results in descending order.
	SortDesc SortOrder = "desc"
)

// Order aggregates a customer's cart-turned-order with its derived totals.
// Totals are denormalized from the active line items and refreshed by the
// totals engine after every line-item mutation.
type Order struct {
	ID        string
	UserID    string
	Subtotal  float64
	Taxes     float64
	Discount  float64
	Total     float64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// LineItem stores a single product entry within an order. Removed items keep
// their document with Active=false; they never count toward totals.
type LineItem struct {
	ID        string
	OrderID   string
	ProductID string
	Quantity  int
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// LineItemView is a line item enriched with the current catalog snapshot for
// read surfaces. Cost reflects the catalog price at read time, not at the time
// the item was added.
type LineItemView struct {
	LineItem
	ProductName string
	UnitCost    float64
}

// StatusRecord is an append-only entry in an order's status history. The
// current status of an order is the record with the latest RecordedAt.
type StatusRecord struct {
	ID         string
	OrderID    string
	StatusID   string
	RecordedAt time.Time
}

// StatusRecordView resolves the status description for history read surfaces.
type StatusRecordView struct {
	StatusRecord
	Description string
}

// Status is an entry in the order status vocabulary. Description is stored
// normalized (trimmed, lower-case) and unique.
type Status struct {
	ID          string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Canonical status descriptions. The vocabulary lives in Firestore; these
// constants name the descriptions the state machine reasons about.
const (
	StatusInProgress = "inprogress"
	StatusOrdered    = "ordered"
	StatusProcessing = "processing"
	StatusShipped    = "shipped"
	StatusDelivered  = "delivered"
	StatusCancelled  = "cancelled"
)

// ValueBearingStatuses lists the descriptions that represent a committed
// purchase and therefore require at least one active line item.
var ValueBearingStatuses = map[string]struct{}{
	StatusOrdered:    {},
	StatusProcessing: {},
	StatusShipped:    {},
	StatusDelivered:  {},
}

// CatalogItem is the product record line items reference by id.
type CatalogItem struct {
	ID          string
	Name        string
	Description string
	Cost        float64
	Discount    float64
	CatalogType string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// UserProfile is the application-side user document keyed by the Firebase UID
// of the authenticated principal.
type UserProfile struct {
	ID          string
	FirebaseUID string
	Name        string
	Lastname    string
	Email       string
	Active      bool
	Admin       bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DisplayName renders the user's full name for order read surfaces.
func (u UserProfile) DisplayName() string {
	switch {
	case u.Name != "" && u.Lastname != "":
		return u.Name + " " + u.Lastname
	case u.Name != "":
		return u.Name
	default:
		return u.Lastname
	}
}

// BundleItem is a fixed-membership product entry within a bundle. Bundles have
// no totals and no lifecycle; membership rows are hard-deleted.
type BundleItem struct {
	ID        string
	BundleID  string
	ProductID string
	Quantity  int
	CreatedAt time.Time
}

// OrderSummary is the list-view projection of an order: totals plus the owning
// user's display name and the resolved current status.
type OrderSummary struct {
	Order
	UserName      string
	CurrentStatus string
}

// OrderDetail is the full read-side aggregate for a single order.
type OrderDetail struct {
	Order
	UserName      string
	CurrentStatus string
	Items         []LineItemView
	History       []StatusRecordView
}

// OrderPage is a page of order summaries plus the total match count.
type OrderPage struct {
	Orders []OrderSummary
	Total  int64
	Skip   int
	Limit  int
}
