package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/dulceria/api/internal/domain"
	pfirestore "github.com/dulceria/api/internal/platform/firestore"
	"github.com/dulceria/api/internal/repositories"
)

const lineItemCollection = "order_line_items"

type lineItemDocument struct {
	OrderID   string    `firestore:"orderId"`
	ProductID string    `firestore:"productId"`
	Quantity  int       `firestore:"quantity"`
	Active    bool      `firestore:"active"`
	CreatedAt time.Time `firestore:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

// LineItemRepository persists order line items within Firestore. Removal is a
// soft delete: the document stays with active=false.
type LineItemRepository struct {
	base *pfirestore.BaseRepository[lineItemDocument]
}

var _ repositories.LineItemRepository = (*LineItemRepository)(nil)

// NewLineItemRepository constructs a Firestore-backed line item repository.
func NewLineItemRepository(provider *pfirestore.Provider) (*LineItemRepository, error) {
	if provider == nil {
		return nil, errors.New("line item repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[lineItemDocument](provider, lineItemCollection, nil, nil)
	return &LineItemRepository{base: base}, nil
}

func (r *LineItemRepository) Insert(ctx context.Context, item domain.LineItem) error {
	if r == nil || r.base == nil {
		return errors.New("line item repository not initialised")
	}
	if strings.TrimSpace(item.ID) == "" {
		return errors.New("line item repository: item id is required")
	}

	_, err := r.base.Set(ctx, item.ID, lineItemDocument{
		OrderID:   strings.TrimSpace(item.OrderID),
		ProductID: strings.TrimSpace(item.ProductID),
		Quantity:  item.Quantity,
		Active:    item.Active,
		CreatedAt: item.CreatedAt.UTC(),
		UpdatedAt: item.UpdatedAt.UTC(),
	})
	return err
}

func (r *LineItemRepository) FindByID(ctx context.Context, itemID string) (domain.LineItem, error) {
	if r == nil || r.base == nil {
		return domain.LineItem{}, errors.New("line item repository not initialised")
	}
	if strings.TrimSpace(itemID) == "" {
		return domain.LineItem{}, errors.New("line item repository: item id is required")
	}

	doc, err := r.base.Get(ctx, itemID)
	if err != nil {
		return domain.LineItem{}, err
	}
	return toDomainLineItem(doc), nil
}

func (r *LineItemRepository) FindActiveByOrderAndProduct(ctx context.Context, orderID, productID string) (domain.LineItem, error) {
	if r == nil || r.base == nil {
		return domain.LineItem{}, errors.New("line item repository not initialised")
	}
	orderID = strings.TrimSpace(orderID)
	productID = strings.TrimSpace(productID)
	if orderID == "" || productID == "" {
		return domain.LineItem{}, errors.New("line item repository: order and product ids are required")
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("orderId", "==", orderID).
			Where("productId", "==", productID).
			Where("active", "==", true).
			Limit(1)
	})
	if err != nil {
		return domain.LineItem{}, err
	}
	if len(docs) == 0 {
		return domain.LineItem{}, queryNotFound("firestore: line_items.find_active", "no active line item for order and product")
	}
	return toDomainLineItem(docs[0]), nil
}

func (r *LineItemRepository) ListActiveByOrder(ctx context.Context, orderID string) ([]domain.LineItem, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("line item repository not initialised")
	}
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, errors.New("line item repository: order id is required")
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("orderId", "==", orderID).
			Where("active", "==", true).
			OrderBy("createdAt", firestore.Asc).
			OrderBy(firestore.DocumentID, firestore.Asc)
	})
	if err != nil {
		return nil, err
	}

	items := make([]domain.LineItem, 0, len(docs))
	for _, doc := range docs {
		items = append(items, toDomainLineItem(doc))
	}
	return items, nil
}

func (r *LineItemRepository) UpdateQuantity(ctx context.Context, itemID string, quantity int, updatedAt time.Time) error {
	if r == nil || r.base == nil {
		return errors.New("line item repository not initialised")
	}
	if strings.TrimSpace(itemID) == "" {
		return errors.New("line item repository: item id is required")
	}

	_, err := r.base.Update(ctx, itemID, []firestore.Update{
		{Path: "quantity", Value: quantity},
		{Path: "updatedAt", Value: updatedAt.UTC()},
	})
	return err
}

func (r *LineItemRepository) Deactivate(ctx context.Context, itemID string, updatedAt time.Time) error {
	if r == nil || r.base == nil {
		return errors.New("line item repository not initialised")
	}
	if strings.TrimSpace(itemID) == "" {
		return errors.New("line item repository: item id is required")
	}

	_, err := r.base.Update(ctx, itemID, []firestore.Update{
		{Path: "active", Value: false},
		{Path: "updatedAt", Value: updatedAt.UTC()},
	})
	return err
}

func toDomainLineItem(doc pfirestore.Document[lineItemDocument]) domain.LineItem {
	item := domain.LineItem{
		ID:        doc.ID,
		OrderID:   doc.Data.OrderID,
		ProductID: doc.Data.ProductID,
		Quantity:  doc.Data.Quantity,
		Active:    doc.Data.Active,
		CreatedAt: doc.Data.CreatedAt,
		UpdatedAt: doc.Data.UpdatedAt,
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = doc.CreateTime
	}
	if item.UpdatedAt.IsZero() {
		item.UpdatedAt = doc.UpdateTime
	}
	return item
}
