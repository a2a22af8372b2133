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

const statusCollection = "order_statuses"

type statusDocument struct {
	Description string    `firestore:"description"`
	CreatedAt   time.Time `firestore:"createdAt"`
	UpdatedAt   time.Time `firestore:"updatedAt"`
}

// StatusRepository persists the status vocabulary within Firestore.
type StatusRepository struct {
	base *pfirestore.BaseRepository[statusDocument]
}

var _ repositories.StatusRepository = (*StatusRepository)(nil)

// NewStatusRepository constructs a Firestore-backed status repository.
func NewStatusRepository(provider *pfirestore.Provider) (*StatusRepository, error) {
	if provider == nil {
		return nil, errors.New("status repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[statusDocument](provider, statusCollection, nil, nil)
	return &StatusRepository{base: base}, nil
}

func (r *StatusRepository) Insert(ctx context.Context, status domain.Status) error {
	return r.write(ctx, status)
}

func (r *StatusRepository) Update(ctx context.Context, status domain.Status) error {
	return r.write(ctx, status)
}

func (r *StatusRepository) write(ctx context.Context, status domain.Status) error {
	if r == nil || r.base == nil {
		return errors.New("status repository not initialised")
	}
	if strings.TrimSpace(status.ID) == "" {
		return errors.New("status repository: status id is required")
	}

	_, err := r.base.Set(ctx, status.ID, statusDocument{
		Description: strings.TrimSpace(status.Description),
		CreatedAt:   status.CreatedAt.UTC(),
		UpdatedAt:   status.UpdatedAt.UTC(),
	})
	return err
}

func (r *StatusRepository) Delete(ctx context.Context, statusID string) error {
	if r == nil || r.base == nil {
		return errors.New("status repository not initialised")
	}
	if strings.TrimSpace(statusID) == "" {
		return errors.New("status repository: status id is required")
	}

	_, err := r.base.Delete(ctx, statusID)
	return err
}

func (r *StatusRepository) FindByID(ctx context.Context, statusID string) (domain.Status, error) {
	if r == nil || r.base == nil {
		return domain.Status{}, errors.New("status repository not initialised")
	}
	if strings.TrimSpace(statusID) == "" {
		return domain.Status{}, errors.New("status repository: status id is required")
	}

	doc, err := r.base.Get(ctx, statusID)
	if err != nil {
		return domain.Status{}, err
	}
	return toDomainStatus(doc), nil
}

func (r *StatusRepository) FindByDescription(ctx context.Context, description string) (domain.Status, error) {
	if r == nil || r.base == nil {
		return domain.Status{}, errors.New("status repository not initialised")
	}
	description = strings.ToLower(strings.TrimSpace(description))
	if description == "" {
		return domain.Status{}, errors.New("status repository: description is required")
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("description", "==", description).Limit(1)
	})
	if err != nil {
		return domain.Status{}, err
	}
	if len(docs) == 0 {
		return domain.Status{}, queryNotFound("firestore: statuses.find_by_description", "no status with description")
	}
	return toDomainStatus(docs[0]), nil
}

func (r *StatusRepository) List(ctx context.Context) ([]domain.Status, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("status repository not initialised")
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.OrderBy("description", firestore.Asc)
	})
	if err != nil {
		return nil, err
	}

	statuses := make([]domain.Status, 0, len(docs))
	for _, doc := range docs {
		statuses = append(statuses, toDomainStatus(doc))
	}
	return statuses, nil
}

func toDomainStatus(doc pfirestore.Document[statusDocument]) domain.Status {
	status := domain.Status{
		ID:          doc.ID,
		Description: doc.Data.Description,
		CreatedAt:   doc.Data.CreatedAt,
		UpdatedAt:   doc.Data.UpdatedAt,
	}
	if status.CreatedAt.IsZero() {
		status.CreatedAt = doc.CreateTime
	}
	if status.UpdatedAt.IsZero() {
		status.UpdatedAt = doc.UpdateTime
	}
	return status
}
