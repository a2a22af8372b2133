package handlers

import (
	"github.com/dulceria/api/internal/services"
)

type orderPayload struct {
	ID        string  `json:"id"`
	UserID    string  `json:"user_id"`
	Subtotal  float64 `json:"subtotal"`
	Taxes     float64 `json:"taxes"`
	Discount  float64 `json:"discount"`
	Total     float64 `json:"total"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at,omitempty"`
}

type lineItemPayload struct {
	ID        string `json:"id"`
	OrderID   string `json:"order_id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Active    bool   `json:"active"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

type lineItemViewPayload struct {
	lineItemPayload
	ProductName string  `json:"product_name,omitempty"`
	UnitCost    float64 `json:"unit_cost"`
}

type statusPayload struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

type statusRecordPayload struct {
	ID         string `json:"id"`
	OrderID    string `json:"order_id"`
	StatusID   string `json:"status_id"`
	Status     string `json:"status,omitempty"`
	RecordedAt string `json:"recorded_at"`
}

type productPayload struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Cost        float64 `json:"cost"`
	Discount    float64 `json:"discount"`
	CatalogType string  `json:"catalog_type,omitempty"`
	Active      bool    `json:"active"`
	CreatedAt   string  `json:"created_at,omitempty"`
	UpdatedAt   string  `json:"updated_at,omitempty"`
}

type userPayload struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Lastname  string `json:"lastname,omitempty"`
	Email     string `json:"email"`
	Active    bool   `json:"active"`
	Admin     bool   `json:"admin"`
	CreatedAt string `json:"created_at,omitempty"`
}

type bundleItemPayload struct {
	ID        string `json:"id"`
	BundleID  string `json:"bundle_id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	CreatedAt string `json:"created_at,omitempty"`
}

func buildOrderPayload(order services.Order) orderPayload {
	return orderPayload{
		ID:        order.ID,
		UserID:    order.UserID,
		Subtotal:  order.Subtotal,
		Taxes:     order.Taxes,
		Discount:  order.Discount,
		Total:     order.Total,
		CreatedAt: formatTime(order.CreatedAt),
		UpdatedAt: formatTime(order.UpdatedAt),
	}
}

func buildLineItemPayload(item services.LineItem) lineItemPayload {
	return lineItemPayload{
		ID:        item.ID,
		OrderID:   item.OrderID,
		ProductID: item.ProductID,
		Quantity:  item.Quantity,
		Active:    item.Active,
		CreatedAt: formatTime(item.CreatedAt),
		UpdatedAt: formatTime(item.UpdatedAt),
	}
}

func buildLineItemViews(items []services.LineItemView) []lineItemViewPayload {
	views := make([]lineItemViewPayload, 0, len(items))
	for _, item := range items {
		views = append(views, lineItemViewPayload{
			lineItemPayload: buildLineItemPayload(item.LineItem),
			ProductName:     item.ProductName,
			UnitCost:        item.UnitCost,
		})
	}
	return views
}

func buildStatusPayload(status services.Status) statusPayload {
	return statusPayload{
		ID:          status.ID,
		Description: status.Description,
		CreatedAt:   formatTime(status.CreatedAt),
		UpdatedAt:   formatTime(status.UpdatedAt),
	}
}

func buildStatusRecordPayload(record services.StatusRecord, description string) statusRecordPayload {
	return statusRecordPayload{
		ID:         record.ID,
		OrderID:    record.OrderID,
		StatusID:   record.StatusID,
		Status:     description,
		RecordedAt: formatTime(record.RecordedAt),
	}
}

func buildProductPayload(item services.CatalogItem) productPayload {
	return productPayload{
		ID:          item.ID,
		Name:        item.Name,
		Description: item.Description,
		Cost:        item.Cost,
		Discount:    item.Discount,
		CatalogType: item.CatalogType,
		Active:      item.Active,
		CreatedAt:   formatTime(item.CreatedAt),
		UpdatedAt:   formatTime(item.UpdatedAt),
	}
}

func buildUserPayload(profile services.UserProfile) userPayload {
	return userPayload{
		ID:        profile.ID,
		Name:      profile.Name,
		Lastname:  profile.Lastname,
		Email:     profile.Email,
		Active:    profile.Active,
		Admin:     profile.Admin,
		CreatedAt: formatTime(profile.CreatedAt),
	}
}

func buildBundleItemPayload(item services.BundleItem) bundleItemPayload {
	return bundleItemPayload{
		ID:        item.ID,
		BundleID:  item.BundleID,
		ProductID: item.ProductID,
		Quantity:  item.Quantity,
		CreatedAt: formatTime(item.CreatedAt),
	}
}
