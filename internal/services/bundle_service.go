package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/dulceria/api/internal/repositories"
)

const bundleItemIDPrefix = "bnd_"

var (
	// ErrBundleInvalidInput signals the caller provided invalid data.
	ErrBundleInvalidInput = errors.New("bundle: invalid input")
	// ErrBundleNotFound indicates the bundle, product, or membership is missing.
	ErrBundleNotFound = errors.New("bundle: not found")
	// ErrBundleForbidden indicates the actor may not administer bundles.
	ErrBundleForbidden = errors.New("bundle: forbidden")
	// ErrBundleConflict indicates the product is already part of the bundle.
	ErrBundleConflict = errors.New("bundle: conflict")
	// ErrBundleUnavailable indicates a transient store failure.
	ErrBundleUnavailable = errors.New("bundle: store unavailable")
)

// BundleServiceDeps bundles collaborators required to construct the bundle service.
type BundleServiceDeps struct {
	BundleItems repositories.BundleItemRepository
	Catalog     repositories.CatalogRepository
	Clock       func() time.Time
	IDGenerator func() string
	Logger      func(ctx context.Context, event string, fields map[string]any)
}

type bundleService struct {
	bundleItems repositories.BundleItemRepository
	catalog     repositories.CatalogRepository
	clock       func() time.Time
	newID       func() string
	logger      func(context.Context, string, map[string]any)
}

// NewBundleService wires dependencies into a concrete BundleService implementation.
func NewBundleService(deps BundleServiceDeps) (BundleService, error) {
	if deps.BundleItems == nil {
		return nil, errors.New("bundle service: bundle item repository is required")
	}
	if deps.Catalog == nil {
		return nil, errors.New("bundle service: catalog repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string {
			return ulid.Make().String()
		}
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &bundleService{
		bundleItems: deps.BundleItems,
		catalog:     deps.Catalog,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID:  idGen,
		logger: logger,
	}, nil
}

func (s *bundleService) AddProduct(ctx context.Context, cmd AddBundleItemCommand) (BundleItem, error) {
	if !cmd.Actor.Admin {
		return BundleItem{}, fmt.Errorf("%w: bundle administration requires admin access", ErrBundleForbidden)
	}
	cmd.BundleID = strings.TrimSpace(cmd.BundleID)
	cmd.ProductID = strings.TrimSpace(cmd.ProductID)
	if cmd.BundleID == "" {
		return BundleItem{}, fmt.Errorf("%w: bundle id is required", ErrBundleInvalidInput)
	}
	if cmd.ProductID == "" {
		return BundleItem{}, fmt.Errorf("%w: product id is required", ErrBundleInvalidInput)
	}
	if cmd.Quantity < 1 {
		return BundleItem{}, fmt.Errorf("%w: quantity must be at least 1", ErrBundleInvalidInput)
	}
	if cmd.BundleID == cmd.ProductID {
		return BundleItem{}, fmt.Errorf("%w: a bundle cannot contain itself", ErrBundleInvalidInput)
	}

	if _, err := s.catalog.FindByID(ctx, cmd.BundleID); err != nil {
		if isRepoNotFound(err) {
			return BundleItem{}, fmt.Errorf("%w: bundle %s", ErrBundleNotFound, cmd.BundleID)
		}
		return BundleItem{}, s.mapRepositoryError(err)
	}
	if _, err := s.catalog.FindByID(ctx, cmd.ProductID); err != nil {
		if isRepoNotFound(err) {
			return BundleItem{}, fmt.Errorf("%w: product %s", ErrBundleNotFound, cmd.ProductID)
		}
		return BundleItem{}, s.mapRepositoryError(err)
	}

	if _, err := s.bundleItems.FindByBundleAndProduct(ctx, cmd.BundleID, cmd.ProductID); err == nil {
		return BundleItem{}, fmt.Errorf("%w: product %s is already in bundle %s", ErrBundleConflict, cmd.ProductID, cmd.BundleID)
	} else if !isRepoNotFound(err) {
		return BundleItem{}, s.mapRepositoryError(err)
	}

	item := BundleItem{
		ID:        bundleItemIDPrefix + s.newID(),
		BundleID:  cmd.BundleID,
		ProductID: cmd.ProductID,
		Quantity:  cmd.Quantity,
		CreatedAt: s.clock(),
	}
	if err := s.bundleItems.Insert(ctx, item); err != nil {
		return BundleItem{}, s.mapRepositoryError(err)
	}
	return item, nil
}

func (s *bundleService) RemoveProduct(ctx context.Context, bundleID string, itemID string, actor Actor) error {
	if !actor.Admin {
		return fmt.Errorf("%w: bundle administration requires admin access", ErrBundleForbidden)
	}
	bundleID = strings.TrimSpace(bundleID)
	itemID = strings.TrimSpace(itemID)
	if bundleID == "" {
		return fmt.Errorf("%w: bundle id is required", ErrBundleInvalidInput)
	}
	if itemID == "" {
		return fmt.Errorf("%w: item id is required", ErrBundleInvalidInput)
	}

	item, err := s.bundleItems.FindByID(ctx, itemID)
	if err != nil {
		return s.mapRepositoryError(err)
	}
	if item.BundleID != bundleID {
		return fmt.Errorf("%w: item %s does not belong to bundle %s", ErrBundleNotFound, itemID, bundleID)
	}

	// Memberships carry no totals, so removal is a hard delete.
	if err := s.bundleItems.Delete(ctx, itemID); err != nil {
		return s.mapRepositoryError(err)
	}
	return nil
}

func (s *bundleService) ListProducts(ctx context.Context, bundleID string) ([]BundleItem, error) {
	bundleID = strings.TrimSpace(bundleID)
	if bundleID == "" {
		return nil, fmt.Errorf("%w: bundle id is required", ErrBundleInvalidInput)
	}
	items, err := s.bundleItems.ListByBundle(ctx, bundleID)
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}
	return items, nil
}

func (s *bundleService) mapRepositoryError(err error) error {
	return mapRepoError(err, ErrBundleNotFound, ErrBundleConflict, ErrBundleUnavailable)
}
