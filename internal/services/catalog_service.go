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

const catalogItemIDPrefix = "cat_"

var (
	// ErrCatalogInvalidInput signals the caller provided invalid data.
	ErrCatalogInvalidInput = errors.New("catalog: invalid input")
	// ErrCatalogNotFound indicates the product could not be located.
	ErrCatalogNotFound = errors.New("catalog: not found")
	// ErrCatalogForbidden indicates the actor may not administer the catalog.
	ErrCatalogForbidden = errors.New("catalog: forbidden")
	// ErrCatalogConflict indicates duplicate writes detected by the store.
	ErrCatalogConflict = errors.New("catalog: conflict")
	// ErrCatalogUnavailable indicates a transient store failure.
	ErrCatalogUnavailable = errors.New("catalog: store unavailable")
)

// CatalogServiceDeps bundles collaborators required to construct the catalog service.
type CatalogServiceDeps struct {
	Catalog     repositories.CatalogRepository
	Clock       func() time.Time
	IDGenerator func() string
	Logger      func(ctx context.Context, event string, fields map[string]any)
}

type catalogService struct {
	catalog repositories.CatalogRepository
	clock   func() time.Time
	newID   func() string
	logger  func(context.Context, string, map[string]any)
}

// NewCatalogService wires dependencies into a concrete CatalogService implementation.
func NewCatalogService(deps CatalogServiceDeps) (CatalogService, error) {
	if deps.Catalog == nil {
		return nil, errors.New("catalog service: catalog repository is required")
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

	return &catalogService{
		catalog: deps.Catalog,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID:  idGen,
		logger: logger,
	}, nil
}

func (s *catalogService) GetProduct(ctx context.Context, productID string) (CatalogItem, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return CatalogItem{}, fmt.Errorf("%w: product id is required", ErrCatalogInvalidInput)
	}
	item, err := s.catalog.FindByID(ctx, productID)
	if err != nil {
		return CatalogItem{}, s.mapRepositoryError(err)
	}
	return item, nil
}

func (s *catalogService) ListProducts(ctx context.Context, filter CatalogListFilter) ([]CatalogItem, error) {
	filter.CatalogType = strings.TrimSpace(filter.CatalogType)
	if filter.Page.Skip < 0 {
		return nil, fmt.Errorf("%w: skip must not be negative", ErrCatalogInvalidInput)
	}
	if filter.Page.Limit <= 0 {
		filter.Page.Limit = defaultOrderPageLimit
	}
	if filter.Page.Limit > maxOrderPageLimit {
		filter.Page.Limit = maxOrderPageLimit
	}

	items, err := s.catalog.List(ctx, repositories.CatalogListFilter{
		CatalogType: filter.CatalogType,
		ActiveOnly:  filter.ActiveOnly,
		Page:        filter.Page,
	})
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}
	return items, nil
}

func (s *catalogService) CreateProduct(ctx context.Context, cmd UpsertProductCommand) (CatalogItem, error) {
	if !cmd.Actor.Admin {
		return CatalogItem{}, fmt.Errorf("%w: catalog administration requires admin access", ErrCatalogForbidden)
	}
	if err := validateProductFields(cmd); err != nil {
		return CatalogItem{}, err
	}

	now := s.clock()
	item := CatalogItem{
		ID:          catalogItemIDPrefix + s.newID(),
		Name:        strings.TrimSpace(cmd.Name),
		Description: strings.TrimSpace(cmd.Description),
		Cost:        cmd.Cost,
		Discount:    cmd.Discount,
		CatalogType: strings.TrimSpace(cmd.CatalogType),
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if cmd.Active != nil {
		item.Active = *cmd.Active
	}

	if err := s.catalog.Insert(ctx, item); err != nil {
		return CatalogItem{}, s.mapRepositoryError(err)
	}
	return item, nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, productID string, cmd UpsertProductCommand) (CatalogItem, error) {
	if !cmd.Actor.Admin {
		return CatalogItem{}, fmt.Errorf("%w: catalog administration requires admin access", ErrCatalogForbidden)
	}
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return CatalogItem{}, fmt.Errorf("%w: product id is required", ErrCatalogInvalidInput)
	}
	if err := validateProductFields(cmd); err != nil {
		return CatalogItem{}, err
	}

	item, err := s.catalog.FindByID(ctx, productID)
	if err != nil {
		return CatalogItem{}, s.mapRepositoryError(err)
	}

	item.Name = strings.TrimSpace(cmd.Name)
	item.Description = strings.TrimSpace(cmd.Description)
	item.Cost = cmd.Cost
	item.Discount = cmd.Discount
	item.CatalogType = strings.TrimSpace(cmd.CatalogType)
	if cmd.Active != nil {
		item.Active = *cmd.Active
	}
	item.UpdatedAt = s.clock()

	if err := s.catalog.Update(ctx, item); err != nil {
		return CatalogItem{}, s.mapRepositoryError(err)
	}
	return item, nil
}

func (s *catalogService) DeleteProduct(ctx context.Context, productID string, actor Actor) error {
	if !actor.Admin {
		return fmt.Errorf("%w: catalog administration requires admin access", ErrCatalogForbidden)
	}
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return fmt.Errorf("%w: product id is required", ErrCatalogInvalidInput)
	}

	if _, err := s.catalog.FindByID(ctx, productID); err != nil {
		return s.mapRepositoryError(err)
	}
	if err := s.catalog.Delete(ctx, productID); err != nil {
		return s.mapRepositoryError(err)
	}

	s.logger(ctx, "catalog.product.deleted", map[string]any{"product": productID})
	return nil
}

func (s *catalogService) mapRepositoryError(err error) error {
	return mapRepoError(err, ErrCatalogNotFound, ErrCatalogConflict, ErrCatalogUnavailable)
}

func validateProductFields(cmd UpsertProductCommand) error {
	if strings.TrimSpace(cmd.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrCatalogInvalidInput)
	}
	if cmd.Cost < 0 {
		return fmt.Errorf("%w: cost must not be negative", ErrCatalogInvalidInput)
	}
	if cmd.Discount < 0 {
		return fmt.Errorf("%w: discount must not be negative", ErrCatalogInvalidInput)
	}
	return nil
}
