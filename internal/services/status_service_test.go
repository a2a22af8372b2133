package services

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/dulceria/api/internal/domain"
)

func newStatusServiceForTest(t *testing.T, deps StatusServiceDeps) StatusService {
	t.Helper()
	if deps.Orders == nil {
		deps.Orders = &stubOrderRepo{
			findFn: func(_ context.Context, id string) (domain.Order, error) {
				return domain.Order{ID: id, UserID: "usr_1", Subtotal: 100, Taxes: 15, Total: 115}, nil
			},
		}
	}
	if deps.LineItems == nil {
		deps.LineItems = &stubLineItemRepo{
			listActiveFn: func(context.Context, string) ([]domain.LineItem, error) {
				return []domain.LineItem{{ID: "li_1", ProductID: "cat_1", Quantity: 1, Active: true}}, nil
			},
		}
	}
	if deps.StatusRecords == nil {
		deps.StatusRecords = &stubStatusRecordRepo{
			latestFn: func(_ context.Context, orderID string) (domain.StatusRecord, error) {
				return domain.StatusRecord{OrderID: orderID, StatusID: "sts_1"}, nil
			},
		}
	}
	if deps.Statuses == nil {
		deps.Statuses = vocabStatusRepo()
	}
	if deps.Totals == nil {
		deps.Totals = &stubTotalsEngine{
			recomputeFn: func(_ context.Context, orderID string) (domain.Order, error) {
				return domain.Order{ID: orderID, UserID: "usr_1", Subtotal: 100, Taxes: 15, Total: 115}, nil
			},
		}
	}
	svc, err := NewStatusService(deps)
	if err != nil {
		t.Fatalf("new status service: %v", err)
	}
	return svc
}

func TestStatusServiceAdvanceDefaultsToOrdered(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 4, 5, 16, 0, 0, 0, time.UTC)

	var appended domain.StatusRecord
	records := &stubStatusRecordRepo{
		latestFn: func(_ context.Context, orderID string) (domain.StatusRecord, error) {
			return domain.StatusRecord{OrderID: orderID, StatusID: "sts_1"}, nil
		},
		appendFn: func(_ context.Context, record domain.StatusRecord) error {
			appended = record
			return nil
		},
	}
	events := &captureOrderEvents{}

	svc := newStatusServiceForTest(t, StatusServiceDeps{
		StatusRecords: records,
		Clock:         func() time.Time { return now },
		IDGenerator:   sequenceIDs("REC"),
		Events:        events,
	})

	record, err := svc.Advance(ctx, AdvanceStatusCommand{
		OrderID: "ord_1",
		Actor:   Actor{UserID: "usr_1"},
	})
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if record.ID != "osr_REC" {
		t.Fatalf("unexpected record id %s", record.ID)
	}
	if record.StatusID != "sts_2" {
		t.Fatalf("expected target ordered (sts_2) got %s", record.StatusID)
	}
	if !record.RecordedAt.Equal(now) {
		t.Fatalf("expected recordedAt %v got %v", now, record.RecordedAt)
	}
	if appended.ID != record.ID {
		t.Fatalf("expected append of %s got %s", record.ID, appended.ID)
	}
	if len(events.events) != 1 || events.events[0].Type != "order.status.changed" {
		t.Fatalf("expected status event got %+v", events.events)
	}
	if prev := events.events[0].Metadata["previous"]; prev != domain.StatusInProgress {
		t.Fatalf("expected previous inprogress got %v", prev)
	}
}

func TestStatusServiceAdvanceRejectsEmptyOrder(t *testing.T) {
	ctx := context.Background()

	items := &stubLineItemRepo{
		listActiveFn: func(context.Context, string) ([]domain.LineItem, error) {
			return nil, nil
		},
	}

	svc := newStatusServiceForTest(t, StatusServiceDeps{LineItems: items})

	_, err := svc.Advance(ctx, AdvanceStatusCommand{
		OrderID: "ord_1",
		Actor:   Actor{UserID: "usr_1"},
	})
	if !errors.Is(err, ErrStatusInvalidState) {
		t.Fatalf("expected ErrStatusInvalidState got %v", err)
	}
}

func TestStatusServiceAdvanceNonAdminFromOrdered(t *testing.T) {
	ctx := context.Background()

	records := &stubStatusRecordRepo{
		latestFn: func(_ context.Context, orderID string) (domain.StatusRecord, error) {
			return domain.StatusRecord{OrderID: orderID, StatusID: "sts_2"}, nil
		},
	}

	svc := newStatusServiceForTest(t, StatusServiceDeps{StatusRecords: records})

	_, err := svc.Advance(ctx, AdvanceStatusCommand{
		OrderID:        "ord_1",
		TargetStatusID: "sts_3",
		Actor:          Actor{UserID: "usr_1"},
	})
	if !errors.Is(err, ErrStatusInvalidState) {
		t.Fatalf("expected ErrStatusInvalidState got %v", err)
	}
}

func TestStatusServiceAdvanceNonAdminTargetRestricted(t *testing.T) {
	ctx := context.Background()

	svc := newStatusServiceForTest(t, StatusServiceDeps{})

	_, err := svc.Advance(ctx, AdvanceStatusCommand{
		OrderID:        "ord_1",
		TargetStatusID: "sts_4",
		Actor:          Actor{UserID: "usr_1"},
	})
	if !errors.Is(err, ErrStatusForbidden) {
		t.Fatalf("expected ErrStatusForbidden got %v", err)
	}
}

func TestStatusServiceAdvanceAdminTransition(t *testing.T) {
	ctx := context.Background()

	records := &stubStatusRecordRepo{
		latestFn: func(_ context.Context, orderID string) (domain.StatusRecord, error) {
			return domain.StatusRecord{OrderID: orderID, StatusID: "sts_2"}, nil
		},
	}

	svc := newStatusServiceForTest(t, StatusServiceDeps{StatusRecords: records})

	record, err := svc.Advance(ctx, AdvanceStatusCommand{
		OrderID:        "ord_1",
		TargetStatusID: "sts_3",
		Actor:          Actor{UserID: "usr_staff", Admin: true},
	})
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if record.StatusID != "sts_3" {
		t.Fatalf("expected sts_3 got %s", record.StatusID)
	}
}

func TestStatusServiceAdvanceSameStatusConflictsForCustomer(t *testing.T) {
	ctx := context.Background()

	records := &stubStatusRecordRepo{
		latestFn: func(_ context.Context, orderID string) (domain.StatusRecord, error) {
			return domain.StatusRecord{OrderID: orderID, StatusID: "sts_2"}, nil
		},
	}

	svc := newStatusServiceForTest(t, StatusServiceDeps{StatusRecords: records})

	_, err := svc.Advance(ctx, AdvanceStatusCommand{
		OrderID: "ord_1",
		Actor:   Actor{UserID: "usr_1"},
	})
	if !errors.Is(err, ErrStatusConflict) {
		t.Fatalf("expected ErrStatusConflict got %v", err)
	}
}

func TestStatusServiceAdminReassertsCurrentStatus(t *testing.T) {
	ctx := context.Background()

	var appended domain.StatusRecord
	records := &stubStatusRecordRepo{
		latestFn: func(_ context.Context, orderID string) (domain.StatusRecord, error) {
			return domain.StatusRecord{OrderID: orderID, StatusID: "sts_2"}, nil
		},
		appendFn: func(_ context.Context, record domain.StatusRecord) error {
			appended = record
			return nil
		},
	}

	svc := newStatusServiceForTest(t, StatusServiceDeps{StatusRecords: records})

	record, err := svc.Advance(ctx, AdvanceStatusCommand{
		OrderID:        "ord_1",
		TargetStatusID: "sts_2",
		Actor:          Actor{UserID: "usr_staff", Admin: true},
	})
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if record.StatusID != "sts_2" || appended.StatusID != "sts_2" {
		t.Fatalf("expected duplicate ordered record appended, got %+v", appended)
	}
}

func TestStatusServiceAdvanceKeepsOrderSnapshotWhenPinFails(t *testing.T) {
	ctx := context.Background()

	events := &captureOrderEvents{}
	totals := &stubTotalsEngine{
		recomputeFn: func(context.Context, string) (domain.Order, error) {
			return domain.Order{}, errors.New("store unavailable")
		},
	}

	svc := newStatusServiceForTest(t, StatusServiceDeps{
		Totals: totals,
		Events: events,
	})

	if _, err := svc.Advance(ctx, AdvanceStatusCommand{
		OrderID: "ord_1",
		Actor:   Actor{UserID: "usr_1"},
	}); err != nil {
		t.Fatalf("advance: %v", err)
	}

	if len(events.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events.events))
	}
	event := events.events[0]
	if event.UserID != "usr_1" || event.Subtotal != 100 || event.Total != 115 {
		t.Fatalf("expected order snapshot on event, got %+v", event)
	}
}

func TestStatusServiceHistoryOwnership(t *testing.T) {
	ctx := context.Background()

	records := &stubStatusRecordRepo{
		listFn: func(_ context.Context, orderID string) ([]domain.StatusRecord, error) {
			return []domain.StatusRecord{
				{ID: "osr_1", OrderID: orderID, StatusID: "sts_1"},
				{ID: "osr_2", OrderID: orderID, StatusID: "sts_2"},
			}, nil
		},
		latestFn: func(_ context.Context, orderID string) (domain.StatusRecord, error) {
			return domain.StatusRecord{OrderID: orderID, StatusID: "sts_2"}, nil
		},
	}

	svc := newStatusServiceForTest(t, StatusServiceDeps{StatusRecords: records})

	views, err := svc.StatusHistory(ctx, "ord_1", Actor{UserID: "usr_1"})
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("expected 2 records got %d", len(views))
	}
	if views[1].Description != domain.StatusOrdered {
		t.Fatalf("expected ordered got %s", views[1].Description)
	}

	if _, err := svc.StatusHistory(ctx, "ord_1", Actor{UserID: "usr_other"}); !errors.Is(err, ErrStatusForbidden) {
		t.Fatalf("expected ErrStatusForbidden got %v", err)
	}
}

func TestStatusServiceCreateStatusNormalizes(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 4, 5, 16, 0, 0, 0, time.UTC)

	var inserted domain.Status
	statuses := vocabStatusRepo()
	statuses.insertFn = func(_ context.Context, status domain.Status) error {
		inserted = status
		return nil
	}

	svc := newStatusServiceForTest(t, StatusServiceDeps{
		Statuses:    statuses,
		Clock:       func() time.Time { return now },
		IDGenerator: sequenceIDs("NEW"),
	})

	status, err := svc.CreateStatus(ctx, "  Refunded  ", Actor{UserID: "usr_staff", Admin: true})
	if err != nil {
		t.Fatalf("create status: %v", err)
	}
	if status.ID != "sts_NEW" {
		t.Fatalf("unexpected id %s", status.ID)
	}
	if status.Description != "refunded" {
		t.Fatalf("expected lowercased description got %q", status.Description)
	}
	if inserted.Description != "refunded" {
		t.Fatalf("expected normalized insert got %q", inserted.Description)
	}
}

func TestStatusServiceCreateStatusDuplicate(t *testing.T) {
	ctx := context.Background()

	svc := newStatusServiceForTest(t, StatusServiceDeps{})

	if _, err := svc.CreateStatus(ctx, "ordered", Actor{Admin: true}); !errors.Is(err, ErrStatusConflict) {
		t.Fatalf("expected ErrStatusConflict got %v", err)
	}
}

func TestStatusServiceVocabularyRequiresAdmin(t *testing.T) {
	ctx := context.Background()
	svc := newStatusServiceForTest(t, StatusServiceDeps{})
	actor := Actor{UserID: "usr_1"}

	if _, err := svc.CreateStatus(ctx, "refunded", actor); !errors.Is(err, ErrStatusForbidden) {
		t.Fatalf("create: expected ErrStatusForbidden got %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, "sts_9", "refunded", actor); !errors.Is(err, ErrStatusForbidden) {
		t.Fatalf("update: expected ErrStatusForbidden got %v", err)
	}
	if err := svc.DeleteStatus(ctx, "sts_9", actor); !errors.Is(err, ErrStatusForbidden) {
		t.Fatalf("delete: expected ErrStatusForbidden got %v", err)
	}
}

func TestStatusServiceDeleteReservedStatus(t *testing.T) {
	ctx := context.Background()
	svc := newStatusServiceForTest(t, StatusServiceDeps{})

	if err := svc.DeleteStatus(ctx, "sts_1", Actor{Admin: true}); !errors.Is(err, ErrStatusInvalidState) {
		t.Fatalf("expected ErrStatusInvalidState got %v", err)
	}
}

func TestStatusServiceCurrentStatus(t *testing.T) {
	ctx := context.Background()

	records := &stubStatusRecordRepo{
		latestFn: func(_ context.Context, orderID string) (domain.StatusRecord, error) {
			return domain.StatusRecord{OrderID: orderID, StatusID: "sts_4"}, nil
		},
	}

	svc := newStatusServiceForTest(t, StatusServiceDeps{StatusRecords: records})

	status, err := svc.CurrentStatus(ctx, "ord_1", Actor{UserID: "usr_1"})
	if err != nil {
		t.Fatalf("current status: %v", err)
	}
	if status.Description != domain.StatusShipped {
		t.Fatalf("expected shipped got %s", status.Description)
	}
}

func TestStatusServiceCurrentStatusForbiddenForNonOwner(t *testing.T) {
	ctx := context.Background()
	svc := newStatusServiceForTest(t, StatusServiceDeps{})

	if _, err := svc.CurrentStatus(ctx, "ord_1", Actor{UserID: "usr_2"}); !errors.Is(err, ErrStatusForbidden) {
		t.Fatalf("expected ErrStatusForbidden got %v", err)
	}

	if _, err := svc.CurrentStatus(ctx, "ord_1", Actor{UserID: "usr_9", Admin: true}); err != nil {
		t.Fatalf("admin read: %v", err)
	}
}
