package services

import (
	"context"
	"errors"
	"strings"

	"github.com/minashop/api/internal/domain"
	"github.com/minashop/api/internal/repositories"
)

// CartService owns the per-user cart document. Quantities are absolute:
// setting an item replaces its quantity, setting zero removes it.
type CartService interface {
	Get(ctx context.Context, userID string) (*domain.Cart, error)
	AddItem(ctx context.Context, userID, productID, variant string, quantity int) (*domain.Cart, error)
	SetItemQuantity(ctx context.Context, userID, productID, variant string, quantity int) (*domain.Cart, error)
	RemoveItem(ctx context.Context, userID, productID, variant string) (*domain.Cart, error)
	Clear(ctx context.Context, userID string) error
}

// CartServiceDeps wires the cart service dependencies.
type CartServiceDeps struct {
	Carts   repositories.CartRepository
	Catalog CatalogService
	Clock   Clock
}

type cartService struct {
	carts   repositories.CartRepository
	catalog CatalogService
	clock   Clock
}

// NewCartService validates dependencies and returns the service.
func NewCartService(deps CartServiceDeps) (CartService, error) {
	if deps.Carts == nil {
		return nil, errors.New("cart service requires cart repository")
	}
	if deps.Catalog == nil {
		return nil, errors.New("cart service requires catalog service")
	}
	svc := &cartService{
		carts:   deps.Carts,
		catalog: deps.Catalog,
		clock:   deps.Clock,
	}
	if svc.clock == nil {
		svc.clock = defaultClock
	}
	return svc, nil
}

func (s *cartService) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	return s.carts.Get(ctx, userID)
}

func (s *cartService) AddItem(ctx context.Context, userID, productID, variant string, quantity int) (*domain.Cart, error) {
	if quantity < 1 {
		return nil, NewValidationError(map[string]string{"quantity": "quantity must be at least 1"})
	}
	return s.mutate(ctx, userID, productID, variant, quantity, true)
}

func (s *cartService) SetItemQuantity(ctx context.Context, userID, productID, variant string, quantity int) (*domain.Cart, error) {
	if quantity < 0 {
		return nil, NewValidationError(map[string]string{"quantity": "quantity must be non-negative"})
	}
	return s.mutate(ctx, userID, productID, variant, quantity, false)
}

func (s *cartService) RemoveItem(ctx context.Context, userID, productID, variant string) (*domain.Cart, error) {
	return s.mutate(ctx, userID, productID, variant, 0, false)
}

func (s *cartService) Clear(ctx context.Context, userID string) error {
	return s.carts.Clear(ctx, userID)
}

// mutate loads the cart, applies one line change, and saves. Additions
// check the product still exists and is purchasable; removals do not, so
// stale lines can always be dropped.
func (s *cartService) mutate(ctx context.Context, userID, productID, variant string, quantity int, additive bool) (*domain.Cart, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return nil, NewValidationError(map[string]string{"productId": "product id is required"})
	}
	if quantity > 0 {
		if _, err := s.catalog.GetPublic(ctx, productID); err != nil {
			return nil, err
		}
	}

	cart, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i, item := range cart.Items {
		if item.ProductID == productID && item.Variant == variant {
			idx = i
			break
		}
	}

	switch {
	case idx < 0 && quantity > 0:
		cart.Items = append(cart.Items, domain.CartItem{ProductID: productID, Quantity: quantity, Variant: variant})
	case idx >= 0 && additive:
		cart.Items[idx].Quantity += quantity
	case idx >= 0 && quantity > 0:
		cart.Items[idx].Quantity = quantity
	case idx >= 0:
		cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
	}

	cart.UserID = userID
	cart.UpdatedAt = s.clock()
	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}
