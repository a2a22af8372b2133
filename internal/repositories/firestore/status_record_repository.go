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

const statusRecordCollection = "order_status_records"

type statusRecordDocument struct {
	OrderID    string    `firestore:"orderId"`
	StatusID   string    `firestore:"statusId"`
	RecordedAt time.Time `firestore:"recordedAt"`
}

// StatusRecordRepository persists the append-only status history of orders.
// Records are never updated or deleted.
type StatusRecordRepository struct {
	base *pfirestore.BaseRepository[statusRecordDocument]
}

var _ repositories.StatusRecordRepository = (*StatusRecordRepository)(nil)

// NewStatusRecordRepository constructs a Firestore-backed status record repository.
func NewStatusRecordRepository(provider *pfirestore.Provider) (*StatusRecordRepository, error) {
	if provider == nil {
		return nil, errors.New("status record repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[statusRecordDocument](provider, statusRecordCollection, nil, nil)
	return &StatusRecordRepository{base: base}, nil
}

func (r *StatusRecordRepository) Append(ctx context.Context, record domain.StatusRecord) error {
	if r == nil || r.base == nil {
		return errors.New("status record repository not initialised")
	}
	if strings.TrimSpace(record.ID) == "" {
		return errors.New("status record repository: record id is required")
	}

	_, err := r.base.Set(ctx, record.ID, statusRecordDocument{
		OrderID:    strings.TrimSpace(record.OrderID),
		StatusID:   strings.TrimSpace(record.StatusID),
		RecordedAt: record.RecordedAt.UTC(),
	})
	return err
}

func (r *StatusRecordRepository) ListByOrder(ctx context.Context, orderID string) ([]domain.StatusRecord, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("status record repository not initialised")
	}
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, errors.New("status record repository: order id is required")
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("orderId", "==", orderID).
			OrderBy("recordedAt", firestore.Asc).
			OrderBy(firestore.DocumentID, firestore.Asc)
	})
	if err != nil {
		return nil, err
	}

	records := make([]domain.StatusRecord, 0, len(docs))
	for _, doc := range docs {
		records = append(records, toDomainStatusRecord(doc))
	}
	return records, nil
}

func (r *StatusRecordRepository) LatestByOrder(ctx context.Context, orderID string) (domain.StatusRecord, error) {
	if r == nil || r.base == nil {
		return domain.StatusRecord{}, errors.New("status record repository not initialised")
	}
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return domain.StatusRecord{}, errors.New("status record repository: order id is required")
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("orderId", "==", orderID).
			OrderBy("recordedAt", firestore.Desc).
			OrderBy(firestore.DocumentID, firestore.Desc).
			Limit(1)
	})
	if err != nil {
		return domain.StatusRecord{}, err
	}
	if len(docs) == 0 {
		return domain.StatusRecord{}, queryNotFound("firestore: status_records.latest", "order has no status records")
	}
	return toDomainStatusRecord(docs[0]), nil
}

func toDomainStatusRecord(doc pfirestore.Document[statusRecordDocument]) domain.StatusRecord {
	record := domain.StatusRecord{
		ID:         doc.ID,
		OrderID:    doc.Data.OrderID,
		StatusID:   doc.Data.StatusID,
		RecordedAt: doc.Data.RecordedAt,
	}
	if record.RecordedAt.IsZero() {
		record.RecordedAt = doc.CreateTime
	}
	return record
}
