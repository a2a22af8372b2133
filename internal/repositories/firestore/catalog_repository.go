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

const catalogCollection = "catalog_items"

type catalogDocument struct {
	Name        string    `firestore:"name"`
	Description string    `firestore:"description"`
	Cost        float64   `firestore:"cost"`
	Discount    float64   `firestore:"discount"`
	CatalogType string    `firestore:"catalogType"`
	Active      bool      `firestore:"active"`
	CreatedAt   time.Time `firestore:"createdAt"`
	UpdatedAt   time.Time `firestore:"updatedAt"`
}

// CatalogRepository persists purchasable catalog items within Firestore.
type CatalogRepository struct {
	base *pfirestore.BaseRepository[catalogDocument]
}

var _ repositories.CatalogRepository = (*CatalogRepository)(nil)

// NewCatalogRepository constructs a Firestore-backed catalog repository.
func NewCatalogRepository(provider *pfirestore.Provider) (*CatalogRepository, error) {
	if provider == nil {
		return nil, errors.New("catalog repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[catalogDocument](provider, catalogCollection, nil, nil)
	return &CatalogRepository{base: base}, nil
}

func (r *CatalogRepository) Insert(ctx context.Context, item domain.CatalogItem) error {
	return r.write(ctx, item)
}

func (r *CatalogRepository) Update(ctx context.Context, item domain.CatalogItem) error {
	return r.write(ctx, item)
}

func (r *CatalogRepository) write(ctx context.Context, item domain.CatalogItem) error {
	if r == nil || r.base == nil {
		return errors.New("catalog repository not initialised")
	}
	if strings.TrimSpace(item.ID) == "" {
		return errors.New("catalog repository: item id is required")
	}

	_, err := r.base.Set(ctx, item.ID, catalogDocument{
		Name:        strings.TrimSpace(item.Name),
		Description: strings.TrimSpace(item.Description),
		Cost:        item.Cost,
		Discount:    item.Discount,
		CatalogType: strings.TrimSpace(item.CatalogType),
		Active:      item.Active,
		CreatedAt:   item.CreatedAt.UTC(),
		UpdatedAt:   item.UpdatedAt.UTC(),
	})
	return err
}

func (r *CatalogRepository) Delete(ctx context.Context, productID string) error {
	if r == nil || r.base == nil {
		return errors.New("catalog repository not initialised")
	}
	if strings.TrimSpace(productID) == "" {
		return errors.New("catalog repository: product id is required")
	}

	_, err := r.base.Delete(ctx, productID)
	return err
}

func (r *CatalogRepository) FindByID(ctx context.Context, productID string) (domain.CatalogItem, error) {
	if r == nil || r.base == nil {
		return domain.CatalogItem{}, errors.New("catalog repository not initialised")
	}
	if strings.TrimSpace(productID) == "" {
		return domain.CatalogItem{}, errors.New("catalog repository: product id is required")
	}

	doc, err := r.base.Get(ctx, productID)
	if err != nil {
		return domain.CatalogItem{}, err
	}
	return toDomainCatalogItem(doc), nil
}

// FindByIDs loads the given products, silently skipping ids that no longer
// exist. Callers treat missing products as zero-cost.
func (r *CatalogRepository) FindByIDs(ctx context.Context, productIDs []string) (map[string]domain.CatalogItem, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("catalog repository not initialised")
	}

	out := make(map[string]domain.CatalogItem, len(productIDs))
	seen := make(map[string]struct{}, len(productIDs))
	for _, productID := range productIDs {
		productID = strings.TrimSpace(productID)
		if productID == "" {
			continue
		}
		if _, ok := seen[productID]; ok {
			continue
		}
		seen[productID] = struct{}{}

		doc, err := r.base.Get(ctx, productID)
		if err != nil {
			var repoErr repositories.RepositoryError
			if errors.As(err, &repoErr) && repoErr.IsNotFound() {
				continue
			}
			return nil, err
		}
		out[productID] = toDomainCatalogItem(doc)
	}
	return out, nil
}

func (r *CatalogRepository) List(ctx context.Context, filter repositories.CatalogListFilter) ([]domain.CatalogItem, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("catalog repository not initialised")
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		if catalogType := strings.TrimSpace(filter.CatalogType); catalogType != "" {
			q = q.Where("catalogType", "==", catalogType)
		}
		if filter.ActiveOnly {
			q = q.Where("active", "==", true)
		}
		q = q.OrderBy("name", firestore.Asc).OrderBy(firestore.DocumentID, firestore.Asc)
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

	items := make([]domain.CatalogItem, 0, len(docs))
	for _, doc := range docs {
		items = append(items, toDomainCatalogItem(doc))
	}
	return items, nil
}

func toDomainCatalogItem(doc pfirestore.Document[catalogDocument]) domain.CatalogItem {
	item := domain.CatalogItem{
		ID:          doc.ID,
		Name:        doc.Data.Name,
		Description: doc.Data.Description,
		Cost:        doc.Data.Cost,
		Discount:    doc.Data.Discount,
		CatalogType: doc.Data.CatalogType,
		Active:      doc.Data.Active,
		CreatedAt:   doc.Data.CreatedAt,
		UpdatedAt:   doc.Data.UpdatedAt,
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = doc.CreateTime
	}
	if item.UpdatedAt.IsZero() {
		item.UpdatedAt = doc.UpdateTime
	}
	return item
}
