package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	domain "github.com/dulceria/api/internal/domain"
	pfirestore "github.com/dulceria/api/internal/platform/firestore"
	"github.com/dulceria/api/internal/repositories"
)

const orderCollection = "orders"

type orderDocument struct {
	UserID    string    `firestore:"userId"`
	Subtotal  float64   `firestore:"subtotal"`
	Taxes     float64   `firestore:"taxes"`
	Discount  float64   `firestore:"discount"`
	Total     float64   `firestore:"total"`
	CreatedAt time.Time `firestore:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

// OrderRepository persists order headers within Firestore.
type OrderRepository struct {
	base *pfirestore.BaseRepository[orderDocument]
}

var _ repositories.OrderRepository = (*OrderRepository)(nil)

// NewOrderRepository constructs a Firestore-backed order repository.
func NewOrderRepository(provider *pfirestore.Provider) (*OrderRepository, error) {
	if provider == nil {
		return nil, errors.New("order repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[orderDocument](provider, orderCollection, nil, nil)
	return &OrderRepository{base: base}, nil
}

func (r *OrderRepository) Insert(ctx context.Context, order domain.Order) error {
	if r == nil || r.base == nil {
		return errors.New("order repository not initialised")
	}
	if strings.TrimSpace(order.ID) == "" {
		return errors.New("order repository: order id is required")
	}

	_, err := r.base.Set(ctx, order.ID, fromDomainOrder(order))
	return err
}

func (r *OrderRepository) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	if r == nil || r.base == nil {
		return domain.Order{}, errors.New("order repository not initialised")
	}
	if strings.TrimSpace(orderID) == "" {
		return domain.Order{}, errors.New("order repository: order id is required")
	}

	doc, err := r.base.Get(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	return toDomainOrder(doc), nil
}

func (r *OrderRepository) UpdateTotals(ctx context.Context, orderID string, totals repositories.OrderTotalsUpdate) error {
	if r == nil || r.base == nil {
		return errors.New("order repository not initialised")
	}
	if strings.TrimSpace(orderID) == "" {
		return errors.New("order repository: order id is required")
	}

	updatedAt := totals.UpdatedAt.UTC()
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	_, err := r.base.Update(ctx, orderID, []firestore.Update{
		{Path: "subtotal", Value: totals.Subtotal},
		{Path: "taxes", Value: totals.Taxes},
		{Path: "discount", Value: totals.Discount},
		{Path: "total", Value: totals.Total},
		{Path: "updatedAt", Value: updatedAt},
	})
	return err
}

func (r *OrderRepository) List(ctx context.Context, filter repositories.OrderListFilter) ([]domain.Order, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("order repository not initialised")
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		q = applyOrderFilter(q, filter)
		q = q.OrderBy("createdAt", firestore.Desc).OrderBy(firestore.DocumentID, firestore.Desc)
		if filter.Page.Skip > 0 {
			q = q.Offset(filter.Page.Skip)
		}
		if filter.Page.Limit > 0 {
			q = q.Limit(filter.Page.Limit)
		}
		return q
	})
	if err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(docs))
	for _, doc := range docs {
		orders = append(orders, toDomainOrder(doc))
	}
	return orders, nil
}

func (r *OrderRepository) Count(ctx context.Context, filter repositories.OrderListFilter) (int64, error) {
	if r == nil || r.base == nil {
		return 0, errors.New("order repository not initialised")
	}
	return r.base.Count(ctx, func(q firestore.Query) firestore.Query {
		return applyOrderFilter(q, filter)
	})
}

func (r *OrderRepository) ListIDsByUser(ctx context.Context, userID string) ([]string, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("order repository not initialised")
	}
	if strings.TrimSpace(userID) == "" {
		return nil, errors.New("order repository: user id is required")
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("userId", "==", userID).
			OrderBy("createdAt", firestore.Desc).
			OrderBy(firestore.DocumentID, firestore.Desc)
	})
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, doc.ID)
	}
	return ids, nil
}

func applyOrderFilter(q firestore.Query, filter repositories.OrderListFilter) firestore.Query {
	if userID := strings.TrimSpace(filter.UserID); userID != "" {
		q = q.Where("userId", "==", userID)
	}
	return q
}

func fromDomainOrder(order domain.Order) orderDocument {
	return orderDocument{
		UserID:    strings.TrimSpace(order.UserID),
		Subtotal:  order.Subtotal,
		Taxes:     order.Taxes,
		Discount:  order.Discount,
		Total:     order.Total,
		CreatedAt: order.CreatedAt.UTC(),
		UpdatedAt: order.UpdatedAt.UTC(),
	}
}

func toDomainOrder(doc pfirestore.Document[orderDocument]) domain.Order {
	order := domain.Order{
		ID:        doc.ID,
		UserID:    doc.Data.UserID,
		Subtotal:  doc.Data.Subtotal,
		Taxes:     doc.Data.Taxes,
		Discount:  doc.Data.Discount,
		Total:     doc.Data.Total,
		CreatedAt: doc.Data.CreatedAt,
		UpdatedAt: doc.Data.UpdatedAt,
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = doc.CreateTime
	}
	if order.UpdatedAt.IsZero() {
		order.UpdatedAt = doc.UpdateTime
	}
	return order
}

// queryNotFound builds a repository not-found error for empty query results.
func queryNotFound(op, msg string) error {
	return pfirestore.WrapError(op, status.Error(codes.NotFound, msg))
}
