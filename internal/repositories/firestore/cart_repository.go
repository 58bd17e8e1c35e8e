package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/minashop/api/internal/domain"
	pfirestore "github.com/minashop/api/internal/platform/firestore"
)

const cartsCollection = "carts"

type cartItemDocument struct {
	ProductID string `firestore:"productId"`
	Quantity  int    `firestore:"quantity"`
	Variant   string `firestore:"variant,omitempty"`
}

type cartDocument struct {
	Items     []cartItemDocument `firestore:"items"`
	UpdatedAt time.Time          `firestore:"updatedAt"`
}

// CartRepository persists per-user carts keyed by Firebase UID.
type CartRepository struct {
	provider *pfirestore.Provider
}

// NewCartRepository constructs a Firestore-backed cart repository.
func NewCartRepository(provider *pfirestore.Provider) (*CartRepository, error) {
	if provider == nil {
		return nil, errors.New("cart repository requires firestore provider")
	}
	return &CartRepository{provider: provider}, nil
}

// Get loads the user's cart. A missing document yields an empty cart
// rather than a not-found error, matching the storefront's expectations.
func (r *CartRepository) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, errors.New("user id is required")
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, err
	}

	snapshot, err := client.Collection(cartsCollection).Doc(userID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return &domain.Cart{UserID: userID}, nil
	}
	if err != nil {
		return nil, pfirestore.WrapError("carts.get", err)
	}

	var doc cartDocument
	if err := snapshot.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("decode cart %s: %w", userID, err)
	}

	cart := &domain.Cart{UserID: userID, UpdatedAt: doc.UpdatedAt}
	cart.Items = make([]domain.CartItem, 0, len(doc.Items))
	for _, item := range doc.Items {
		cart.Items = append(cart.Items, domain.CartItem(item))
	}
	return cart, nil
}

// Save rewrites the cart document.
func (r *CartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	if cart == nil || cart.UserID == "" {
		return errors.New("cart user id is required")
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return err
	}

	doc := cartDocument{UpdatedAt: cart.UpdatedAt}
	doc.Items = make([]cartItemDocument, 0, len(cart.Items))
	for _, item := range cart.Items {
		doc.Items = append(doc.Items, cartItemDocument(item))
	}

	_, err = client.Collection(cartsCollection).Doc(cart.UserID).Set(ctx, doc)
	if err != nil {
		return pfirestore.WrapError("carts.save", err)
	}
	return nil
}

// Clear deletes the cart document; clearing an absent cart is a no-op.
func (r *CartRepository) Clear(ctx context.Context, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return errors.New("user id is required")
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return err
	}
	_, err = client.Collection(cartsCollection).Doc(userID).Delete(ctx)
	if err != nil {
		return pfirestore.WrapError("carts.clear", err)
	}
	return nil
}
