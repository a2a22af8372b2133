package firestore

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"

	pfirestore "github.com/dulceria/api/internal/platform/firestore"
	"github.com/dulceria/api/internal/repositories"
)

// Registry assembles the Firestore-backed repositories behind the
// repositories.Registry contract.
type Registry struct {
	provider *pfirestore.Provider

	orders        *OrderRepository
	lineItems     *LineItemRepository
	statusRecords *StatusRecordRepository
	statuses      *StatusRepository
	catalog       *CatalogRepository
	users         *UserRepository
	bundleItems   *BundleItemRepository
	health        repositories.HealthRepository
}

var _ repositories.Registry = (*Registry)(nil)

// NewRegistry wires every repository against the shared Firestore provider.
func NewRegistry(provider *pfirestore.Provider) (*Registry, error) {
	if provider == nil {
		return nil, errors.New("registry requires firestore provider")
	}

	reg := &Registry{provider: provider}

	var err error
	if reg.orders, err = NewOrderRepository(provider); err != nil {
		return nil, fmt.Errorf("build order repository: %w", err)
	}
	if reg.lineItems, err = NewLineItemRepository(provider); err != nil {
		return nil, fmt.Errorf("build line item repository: %w", err)
	}
	if reg.statusRecords, err = NewStatusRecordRepository(provider); err != nil {
		return nil, fmt.Errorf("build status record repository: %w", err)
	}
	if reg.statuses, err = NewStatusRepository(provider); err != nil {
		return nil, fmt.Errorf("build status repository: %w", err)
	}
	if reg.catalog, err = NewCatalogRepository(provider); err != nil {
		return nil, fmt.Errorf("build catalog repository: %w", err)
	}
	if reg.users, err = NewUserRepository(provider); err != nil {
		return nil, fmt.Errorf("build user repository: %w", err)
	}
	if reg.bundleItems, err = NewBundleItemRepository(provider); err != nil {
		return nil, fmt.Errorf("build bundle item repository: %w", err)
	}

	health, err := repositories.NewDependencyHealthRepository([]repositories.DependencyCheck{
		{
			Name: "firestore",
			Check: func(ctx context.Context) error {
				_, err := provider.Client(ctx)
				return err
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("build health repository: %w", err)
	}
	reg.health = health

	return reg, nil
}

func (r *Registry) Close(ctx context.Context) error {
	if r == nil || r.provider == nil {
		return nil
	}
	return r.provider.Close(ctx)
}

func (r *Registry) Orders() repositories.OrderRepository               { return r.orders }
func (r *Registry) LineItems() repositories.LineItemRepository         { return r.lineItems }
func (r *Registry) StatusRecords() repositories.StatusRecordRepository { return r.statusRecords }
func (r *Registry) Statuses() repositories.StatusRepository            { return r.statuses }
func (r *Registry) Catalog() repositories.CatalogRepository            { return r.catalog }
func (r *Registry) Users() repositories.UserRepository                 { return r.users }
func (r *Registry) BundleItems() repositories.BundleItemRepository     { return r.bundleItems }
func (r *Registry) Health() repositories.HealthRepository              { return r.health }

// RunInTx runs fn inside a Firestore transaction. The transaction is carried
// on the context, so repository calls made within fn read and write through it.
func (r *Registry) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if fn == nil {
		return nil
	}
	return r.provider.RunTransaction(ctx, func(txCtx context.Context, _ *firestore.Transaction) error {
		return fn(txCtx)
	})
}
