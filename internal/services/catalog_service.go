package services

import (
	"context"
	"errors"
	"strings"

	"github.com/minashop/api/internal/domain"
	"github.com/minashop/api/internal/platform/textutil"
	"github.com/minashop/api/internal/repositories"
)

// ProductInput is the admin-facing product payload. Price fields are
// any-typed and run through the lenient numeric coercion.
type ProductInput struct {
	ID          string
	Name        string
	Slug        string
	Description string
	Images      []string
	Price       any
	OldPrice    any
	Category    string
	Variants    []string
	Stock       int
	IsActive    bool
}

// CatalogService owns the product catalog.
type CatalogService interface {
	Get(ctx context.Context, id string) (*domain.Product, error)
	// GetPublic hides inactive products behind NotFound.
	GetPublic(ctx context.Context, id string) (*domain.Product, error)
	List(ctx context.Context, filter repositories.ProductListFilter) (domain.CursorPage[domain.Product], error)
	Create(ctx context.Context, input ProductInput) (*domain.Product, error)
	Update(ctx context.Context, input ProductInput) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
}

// CatalogServiceDeps wires the catalog service dependencies.
type CatalogServiceDeps struct {
	Products repositories.ProductRepository
	Clock    Clock
	IDGen    IDGenerator
}

type catalogService struct {
	products repositories.ProductRepository
	clock    Clock
	idgen    IDGenerator
}

// NewCatalogService validates dependencies and returns the service.
func NewCatalogService(deps CatalogServiceDeps) (CatalogService, error) {
	if deps.Products == nil {
		return nil, errors.New("catalog service requires product repository")
	}
	svc := &catalogService{
		products: deps.Products,
		clock:    deps.Clock,
		idgen:    deps.IDGen,
	}
	if svc.clock == nil {
		svc.clock = defaultClock
	}
	if svc.idgen == nil {
		svc.idgen = NewULIDGenerator()
	}
	return svc, nil
}

func (s *catalogService) Get(ctx context.Context, id string) (*domain.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, classifyRepoError(err, ErrProductNotFound, nil)
	}
	return product, nil
}

func (s *catalogService) GetPublic(ctx context.Context, id string) (*domain.Product, error) {
	product, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, ErrProductNotFound
	}
	return product, nil
}

func (s *catalogService) List(ctx context.Context, filter repositories.ProductListFilter) (domain.CursorPage[domain.Product], error) {
	// Search runs over folded keywords; fold the query the same way.
	filter.Search = textutil.Fold(filter.Search)
	return s.products.List(ctx, filter)
}

func (s *catalogService) Create(ctx context.Context, input ProductInput) (*domain.Product, error) {
	product, err := productFromInput(input)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	product.ID = "prd_" + strings.ToLower(s.idgen())
	product.CreatedAt = now
	product.UpdatedAt = now

	if err := s.products.Insert(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *catalogService) Update(ctx context.Context, input ProductInput) (*domain.Product, error) {
	if strings.TrimSpace(input.ID) == "" {
		return nil, NewValidationError(map[string]string{"id": "product id is required"})
	}
	existing, err := s.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	product, err := productFromInput(input)
	if err != nil {
		return nil, err
	}
	product.ID = existing.ID
	product.CreatedAt = existing.CreatedAt
	product.UpdatedAt = s.clock()

	if err := s.products.Update(ctx, product); err != nil {
		return nil, classifyRepoError(err, ErrProductNotFound, nil)
	}
	return product, nil
}

func (s *catalogService) Delete(ctx context.Context, id string) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return classifyRepoError(err, ErrProductNotFound, nil)
	}
	return nil
}

func productFromInput(input ProductInput) (*domain.Product, error) {
	fields := map[string]string{}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		fields["name"] = "name is required"
	}

	price := domain.CoerceAmount(input.Price)
	if price < 0 {
		fields["price"] = "price must be non-negative"
	}
	if input.Stock < 0 {
		fields["stock"] = "stock must be non-negative"
	}

	slug := strings.TrimSpace(input.Slug)
	if slug == "" {
		slug = Slugify(name)
	}
	if len(fields) > 0 {
		return nil, NewValidationError(fields)
	}

	return &domain.Product{
		Name:           name,
		Slug:           slug,
		Description:    strings.TrimSpace(input.Description),
		Images:         input.Images,
		Price:          price,
		OldPrice:       domain.CoerceAmount(input.OldPrice),
		Category:       strings.TrimSpace(input.Category),
		Variants:       input.Variants,
		Stock:          input.Stock,
		IsActive:       input.IsActive,
		SearchKeywords: textutil.Keywords(name),
	}, nil
}

// Slugify folds the name and joins its tokens with hyphens.
func Slugify(name string) string {
	return strings.Join(strings.Fields(textutil.Fold(name)), "-")
}
