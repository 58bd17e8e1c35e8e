package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/minashop/api/internal/domain"
	"github.com/minashop/api/internal/repositories"
)

type stubCatalog struct {
	getPublicFn func(ctx context.Context, id string) (*domain.Product, error)
}

func (s *stubCatalog) Get(ctx context.Context, id string) (*domain.Product, error) {
	return s.GetPublic(ctx, id)
}

func (s *stubCatalog) GetPublic(ctx context.Context, id string) (*domain.Product, error) {
	if s.getPublicFn == nil {
		return &domain.Product{ID: id, IsActive: true}, nil
	}
	return s.getPublicFn(ctx, id)
}

func (s *stubCatalog) List(context.Context, repositories.ProductListFilter) (domain.CursorPage[domain.Product], error) {
	return domain.CursorPage[domain.Product]{}, errors.New("not implemented")
}

func (s *stubCatalog) Create(context.Context, ProductInput) (*domain.Product, error) {
	return nil, errors.New("not implemented")
}

func (s *stubCatalog) Update(context.Context, ProductInput) (*domain.Product, error) {
	return nil, errors.New("not implemented")
}

func (s *stubCatalog) Delete(context.Context, string) error {
	return errors.New("not implemented")
}

type memoryCartRepository struct {
	carts map[string]*domain.Cart
}

func newMemoryCartRepository() *memoryCartRepository {
	return &memoryCartRepository{carts: map[string]*domain.Cart{}}
}

func (r *memoryCartRepository) Get(_ context.Context, userID string) (*domain.Cart, error) {
	if cart, ok := r.carts[userID]; ok {
		clone := *cart
		clone.Items = append([]domain.CartItem(nil), cart.Items...)
		return &clone, nil
	}
	return &domain.Cart{UserID: userID}, nil
}

func (r *memoryCartRepository) Save(_ context.Context, cart *domain.Cart) error {
	r.carts[cart.UserID] = cart
	return nil
}

func (r *memoryCartRepository) Clear(_ context.Context, userID string) error {
	delete(r.carts, userID)
	return nil
}

func newCartServiceForTest(t *testing.T, catalog CatalogService) (CartService, *memoryCartRepository) {
	t.Helper()
	if catalog == nil {
		catalog = &stubCatalog{}
	}
	repo := newMemoryCartRepository()
	svc, err := NewCartService(CartServiceDeps{
		Carts:   repo,
		Catalog: catalog,
		Clock:   fixedClock(time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)),
	})
	if err != nil {
		t.Fatalf("NewCartService returned error: %v", err)
	}
	return svc, repo
}

func TestCartAddItemMergesByProductAndVariant(t *testing.T) {
	svc, _ := newCartServiceForTest(t, nil)
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, "user-1", "prod-1", "M", 1); err != nil {
		t.Fatalf("AddItem returned error: %v", err)
	}
	if _, err := svc.AddItem(ctx, "user-1", "prod-1", "L", 1); err != nil {
		t.Fatalf("AddItem returned error: %v", err)
	}
	cart, err := svc.AddItem(ctx, "user-1", "prod-1", "M", 2)
	if err != nil {
		t.Fatalf("AddItem returned error: %v", err)
	}

	if len(cart.Items) != 2 {
		t.Fatalf("items = %+v, want 2 lines", cart.Items)
	}
	for _, item := range cart.Items {
		if item.Variant == "M" && item.Quantity != 3 {
			t.Fatalf("variant M quantity = %d, want 3", item.Quantity)
		}
	}
}

func TestCartSetQuantityZeroRemovesLine(t *testing.T) {
	svc, _ := newCartServiceForTest(t, nil)
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, "user-1", "prod-1", "", 2); err != nil {
		t.Fatalf("AddItem returned error: %v", err)
	}
	cart, err := svc.SetItemQuantity(ctx, "user-1", "prod-1", "", 0)
	if err != nil {
		t.Fatalf("SetItemQuantity returned error: %v", err)
	}
	if len(cart.Items) != 0 {
		t.Fatalf("items = %+v, want empty", cart.Items)
	}
}

func TestCartAddRejectsUnknownProduct(t *testing.T) {
	catalog := &stubCatalog{getPublicFn: func(context.Context, string) (*domain.Product, error) {
		return nil, ErrProductNotFound
	}}
	svc, _ := newCartServiceForTest(t, catalog)

	if _, err := svc.AddItem(context.Background(), "user-1", "gone", "", 1); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestCartRemoveStaleLineWithoutCatalogCheck(t *testing.T) {
	calls := 0
	catalog := &stubCatalog{getPublicFn: func(_ context.Context, id string) (*domain.Product, error) {
		calls++
		return &domain.Product{ID: id, IsActive: true}, nil
	}}
	svc, repo := newCartServiceForTest(t, catalog)
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, "user-1", "prod-1", "", 1); err != nil {
		t.Fatalf("AddItem returned error: %v", err)
	}
	checksAfterAdd := calls

	cart, err := svc.RemoveItem(ctx, "user-1", "prod-1", "")
	if err != nil {
		t.Fatalf("RemoveItem returned error: %v", err)
	}
	if len(cart.Items) != 0 {
		t.Fatalf("items = %+v, want empty", cart.Items)
	}
	if calls != checksAfterAdd {
		t.Fatal("removal must not re-check the catalog")
	}
	if stored := repo.carts["user-1"]; len(stored.Items) != 0 {
		t.Fatalf("persisted items = %+v, want empty", stored.Items)
	}
}

func TestCartValidation(t *testing.T) {
	svc, _ := newCartServiceForTest(t, nil)
	ctx := context.Background()

	var validationErr *ValidationError
	if _, err := svc.AddItem(ctx, "user-1", "prod-1", "", 0); !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError for zero quantity, got %v", err)
	}
	if _, err := svc.AddItem(ctx, "user-1", "  ", "", 1); !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError for blank product, got %v", err)
	}
}
