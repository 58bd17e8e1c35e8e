// Package repositories declares the persistence contracts the services
// depend on. Implementations live in the firestore subpackage.
package repositories

import (
	"context"

	"github.com/minashop/api/internal/domain"
)

// RepositoryError lets callers classify persistence failures without
// depending on the storage driver.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// CounterRepository issues monotonically increasing sequence values keyed
// by counter name. Next must be atomic at the storage layer: no two
// concurrent callers may observe the same returned value.
type CounterRepository interface {
	Next(ctx context.Context, name string, step int64) (int64, error)
}

// OrderListFilter narrows order listings.
type OrderListFilter struct {
	UserID string
	Status domain.OrderStatus
	Limit  int
	Cursor string
}

// OrderRepository persists order aggregates. Insert writes the order and
// its code-uniqueness marker in one transaction and reports a conflict
// when the code is already taken.
type OrderRepository interface {
	Insert(ctx context.Context, order *domain.Order) error
	Update(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	FindByCode(ctx context.Context, code string) (*domain.Order, error)
	List(ctx context.Context, filter OrderListFilter) (domain.CursorPage[domain.Order], error)
}

// CouponRepository persists coupons keyed by their uppercase code.
// IncrementUsage applies the usage-cap check and the increment atomically.
type CouponRepository interface {
	Insert(ctx context.Context, coupon *domain.Coupon) error
	Update(ctx context.Context, coupon *domain.Coupon) error
	Delete(ctx context.Context, code string) error
	FindByCode(ctx context.Context, code string) (*domain.Coupon, error)
	List(ctx context.Context) ([]domain.Coupon, error)
	IncrementUsage(ctx context.Context, code string) error
}

// ProductListFilter narrows catalog listings.
type ProductListFilter struct {
	Category        string
	Search          string
	IncludeInactive bool
	Limit           int
	Cursor          string
}

// ProductRepository persists catalog entries.
type ProductRepository interface {
	Insert(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*domain.Product, error)
	List(ctx context.Context, filter ProductListFilter) (domain.CursorPage[domain.Product], error)
}

// ReviewListFilter narrows review listings.
type ReviewListFilter struct {
	ProductID string
	Status    domain.ReviewStatus
	Limit     int
	Cursor    string
}

// ReviewRepository persists product reviews.
type ReviewRepository interface {
	Insert(ctx context.Context, review *domain.Review) error
	Update(ctx context.Context, review *domain.Review) error
	FindByID(ctx context.Context, id string) (*domain.Review, error)
	List(ctx context.Context, filter ReviewListFilter) (domain.CursorPage[domain.Review], error)
}

// ContentRepository persists news posts and banners.
type ContentRepository interface {
	InsertNews(ctx context.Context, post *domain.NewsPost) error
	UpdateNews(ctx context.Context, post *domain.NewsPost) error
	DeleteNews(ctx context.Context, id string) error
	FindNewsBySlug(ctx context.Context, slug string) (*domain.NewsPost, error)
	ListNews(ctx context.Context, publishedOnly bool, limit int, cursor string) (domain.CursorPage[domain.NewsPost], error)

	InsertBanner(ctx context.Context, banner *domain.Banner) error
	UpdateBanner(ctx context.Context, banner *domain.Banner) error
	DeleteBanner(ctx context.Context, id string) error
	ListBanners(ctx context.Context, activeOnly bool) ([]domain.Banner, error)
}

// CartRepository persists the per-user cart document.
type CartRepository interface {
	Get(ctx context.Context, userID string) (*domain.Cart, error)
	Save(ctx context.Context, cart *domain.Cart) error
	Clear(ctx context.Context, userID string) error
}

// UserRepository persists storefront user profiles keyed by Firebase UID.
type UserRepository interface {
	Get(ctx context.Context, uid string) (*domain.UserProfile, error)
	Upsert(ctx context.Context, profile *domain.UserProfile) error
}
