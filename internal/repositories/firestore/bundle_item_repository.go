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

const bundleItemCollection = "bundle_items"

type bundleItemDocument struct {
	BundleID  string    `firestore:"bundleId"`
	ProductID string    `firestore:"productId"`
	Quantity  int       `firestore:"quantity"`
	CreatedAt time.Time `firestore:"createdAt"`
}

// BundleItemRepository persists bundle memberships within Firestore. Rows are
// hard-deleted on removal.
type BundleItemRepository struct {
	base *pfirestore.BaseRepository[bundleItemDocument]
}

var _ repositories.BundleItemRepository = (*BundleItemRepository)(nil)

// NewBundleItemRepository constructs a Firestore-backed bundle item repository.
func NewBundleItemRepository(provider *pfirestore.Provider) (*BundleItemRepository, error) {
	if provider == nil {
		return nil, errors.New("bundle item repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[bundleItemDocument](provider, bundleItemCollection, nil, nil)
	return &BundleItemRepository{base: base}, nil
}

func (r *BundleItemRepository) Insert(ctx context.Context, item domain.BundleItem) error {
	if r == nil || r.base == nil {
		return errors.New("bundle item repository not initialised")
	}
	if strings.TrimSpace(item.ID) == "" {
		return errors.New("bundle item repository: item id is required")
	}

	_, err := r.base.Set(ctx, item.ID, bundleItemDocument{
		BundleID:  strings.TrimSpace(item.BundleID),
		ProductID: strings.TrimSpace(item.ProductID),
		Quantity:  item.Quantity,
		CreatedAt: item.CreatedAt.UTC(),
	})
	return err
}

func (r *BundleItemRepository) Delete(ctx context.Context, itemID string) error {
	if r == nil || r.base == nil {
		return errors.New("bundle item repository not initialised")
	}
	if strings.TrimSpace(itemID) == "" {
		return errors.New("bundle item repository: item id is required")
	}

	_, err := r.base.Delete(ctx, itemID)
	return err
}

func (r *BundleItemRepository) FindByID(ctx context.Context, itemID string) (domain.BundleItem, error) {
	if r == nil || r.base == nil {
		return domain.BundleItem{}, errors.New("bundle item repository not initialised")
	}
	if strings.TrimSpace(itemID) == "" {
		return domain.BundleItem{}, errors.New("bundle item repository: item id is required")
	}

	doc, err := r.base.Get(ctx, itemID)
	if err != nil {
		return domain.BundleItem{}, err
	}
	return toDomainBundleItem(doc), nil
}

func (r *BundleItemRepository) FindByBundleAndProduct(ctx context.Context, bundleID, productID string) (domain.BundleItem, error) {
	if r == nil || r.base == nil {
		return domain.BundleItem{}, errors.New("bundle item repository not initialised")
	}
	bundleID = strings.TrimSpace(bundleID)
	productID = strings.TrimSpace(productID)
	if bundleID == "" || productID == "" {
		return domain.BundleItem{}, errors.New("bundle item repository: bundle and product ids are required")
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("bundleId", "==", bundleID).
			Where("productId", "==", productID).
			Limit(1)
	})
	if err != nil {
		return domain.BundleItem{}, err
	}
	if len(docs) == 0 {
		return domain.BundleItem{}, queryNotFound("firestore: bundle_items.find", "no bundle item for bundle and product")
	}
	return toDomainBundleItem(docs[0]), nil
}

func (r *BundleItemRepository) ListByBundle(ctx context.Context, bundleID string) ([]domain.BundleItem, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("bundle item repository not initialised")
	}
	bundleID = strings.TrimSpace(bundleID)
	if bundleID == "" {
		return nil, errors.New("bundle item repository: bundle id is required")
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("bundleId", "==", bundleID).
			OrderBy("createdAt", firestore.Asc).
			OrderBy(firestore.DocumentID, firestore.Asc)
	})
	if err != nil {
		return nil, err
	}

	items := make([]domain.BundleItem, 0, len(docs))
	for _, doc := range docs {
		items = append(items, toDomainBundleItem(doc))
	}
	return items, nil
}

func toDomainBundleItem(doc pfirestore.Document[bundleItemDocument]) domain.BundleItem {
	item := domain.BundleItem{
		ID:        doc.ID,
		BundleID:  doc.Data.BundleID,
		ProductID: doc.Data.ProductID,
		Quantity:  doc.Data.Quantity,
		CreatedAt: doc.Data.CreatedAt,
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = doc.CreateTime
	}
	return item
}
