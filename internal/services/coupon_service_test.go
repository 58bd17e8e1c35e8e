package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/minashop/api/internal/domain"
)

type fakeRepoError struct {
	notFound    bool
	conflict    bool
	unavailable bool
}

func (e *fakeRepoError) Error() string       { return "repository error" }
func (e *fakeRepoError) IsNotFound() bool    { return e.notFound }
func (e *fakeRepoError) IsConflict() bool    { return e.conflict }
func (e *fakeRepoError) IsUnavailable() bool { return e.unavailable }

type stubCouponRepository struct {
	insertFn         func(ctx context.Context, coupon *domain.Coupon) error
	updateFn         func(ctx context.Context, coupon *domain.Coupon) error
	deleteFn         func(ctx context.Context, code string) error
	findByCodeFn     func(ctx context.Context, code string) (*domain.Coupon, error)
	listFn           func(ctx context.Context) ([]domain.Coupon, error)
	incrementUsageFn func(ctx context.Context, code string) error
}

func (s *stubCouponRepository) Insert(ctx context.Context, coupon *domain.Coupon) error {
	return s.insertFn(ctx, coupon)
}

func (s *stubCouponRepository) Update(ctx context.Context, coupon *domain.Coupon) error {
	return s.updateFn(ctx, coupon)
}

func (s *stubCouponRepository) Delete(ctx context.Context, code string) error {
	return s.deleteFn(ctx, code)
}

func (s *stubCouponRepository) FindByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	return s.findByCodeFn(ctx, code)
}

func (s *stubCouponRepository) List(ctx context.Context) ([]domain.Coupon, error) {
	return s.listFn(ctx)
}

func (s *stubCouponRepository) IncrementUsage(ctx context.Context, code string) error {
	return s.incrementUsageFn(ctx, code)
}

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

func newCouponService(t *testing.T, repo *stubCouponRepository, now time.Time) CouponService {
	t.Helper()
	svc, err := NewCouponService(CouponServiceDeps{Coupons: repo, Clock: fixedClock(now)})
	if err != nil {
		t.Fatalf("NewCouponService returned error: %v", err)
	}
	return svc
}

func activeCoupon() *domain.Coupon {
	return &domain.Coupon{
		Code:          "SALE10",
		Type:          domain.CouponTypePercent,
		Value:         10,
		ValidFrom:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		ValidTo:       time.Date(2025, 12, 31, 23, 59, 59, 0, time.UTC),
		MinOrderValue: 100000,
		IsActive:      true,
	}
}

func TestQuotePercentDiscount(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	repo := &stubCouponRepository{findByCodeFn: func(_ context.Context, code string) (*domain.Coupon, error) {
		if code != "SALE10" {
			t.Fatalf("lookup code = %q, want SALE10", code)
		}
		return activeCoupon(), nil
	}}
	svc := newCouponService(t, repo, now)

	quote, err := svc.Quote(context.Background(), " sale10 ", 500000)
	if err != nil {
		t.Fatalf("Quote returned error: %v", err)
	}
	if !quote.Valid {
		t.Fatalf("quote invalid, reason %q", quote.Reason)
	}
	if quote.Discount != 50000 {
		t.Fatalf("discount = %v, want 50000", quote.Discount)
	}
}

func TestQuoteFixedBelowMinOrderValue(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	coupon := &domain.Coupon{
		Code:          "FLAT50K",
		Type:          domain.CouponTypeFixed,
		Value:         50000,
		ValidFrom:     now.Add(-time.Hour),
		ValidTo:       now.Add(time.Hour),
		MinOrderValue: 100000,
		IsActive:      true,
	}
	repo := &stubCouponRepository{findByCodeFn: func(context.Context, string) (*domain.Coupon, error) {
		return coupon, nil
	}}
	svc := newCouponService(t, repo, now)

	quote, err := svc.Quote(context.Background(), "FLAT50K", 40000)
	if err != nil {
		t.Fatalf("Quote returned error: %v", err)
	}
	if quote.Valid || quote.Discount != 0 {
		t.Fatalf("quote = %+v, want invalid with zero discount", quote)
	}
	if quote.Reason != CouponReasonMinOrderValue {
		t.Fatalf("reason = %q, want %q", quote.Reason, CouponReasonMinOrderValue)
	}
}

func TestQuoteFixedDiscountCappedAtTotal(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	coupon := &domain.Coupon{
		Code:      "FLAT50K",
		Type:      domain.CouponTypeFixed,
		Value:     50000,
		ValidFrom: now.Add(-time.Hour),
		ValidTo:   now.Add(time.Hour),
		IsActive:  true,
	}
	repo := &stubCouponRepository{findByCodeFn: func(context.Context, string) (*domain.Coupon, error) {
		return coupon, nil
	}}
	svc := newCouponService(t, repo, now)

	quote, err := svc.Quote(context.Background(), "FLAT50K", 30000)
	if err != nil {
		t.Fatalf("Quote returned error: %v", err)
	}
	if quote.Discount != 30000 {
		t.Fatalf("discount = %v, want capped 30000", quote.Discount)
	}
}

func TestQuoteIneligibleReasons(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	limit := 3

	cases := []struct {
		name   string
		mutate func(c *domain.Coupon)
		want   string
	}{
		{name: "inactive", mutate: func(c *domain.Coupon) { c.IsActive = false }, want: CouponReasonInactive},
		{name: "not started", mutate: func(c *domain.Coupon) { c.ValidFrom = now.Add(time.Hour) }, want: CouponReasonNotStarted},
		{name: "expired", mutate: func(c *domain.Coupon) { c.ValidTo = now.Add(-time.Hour) }, want: CouponReasonExpired},
		{name: "exhausted", mutate: func(c *domain.Coupon) {
			c.MaxUses = &limit
			c.UsedCount = 3
		}, want: CouponReasonExhausted},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			coupon := activeCoupon()
			tc.mutate(coupon)
			repo := &stubCouponRepository{findByCodeFn: func(context.Context, string) (*domain.Coupon, error) {
				return coupon, nil
			}}
			svc := newCouponService(t, repo, now)

			quote, err := svc.Quote(context.Background(), coupon.Code, 500000)
			if err != nil {
				t.Fatalf("Quote returned error: %v", err)
			}
			if quote.Valid || quote.Discount != 0 {
				t.Fatalf("quote = %+v, want invalid with zero discount", quote)
			}
			if quote.Reason != tc.want {
				t.Fatalf("reason = %q, want %q", quote.Reason, tc.want)
			}
		})
	}
}

func TestQuoteBoundaryInstantsInclusive(t *testing.T) {
	coupon := activeCoupon()

	for _, instant := range []time.Time{coupon.ValidFrom, coupon.ValidTo} {
		repo := &stubCouponRepository{findByCodeFn: func(context.Context, string) (*domain.Coupon, error) {
			return coupon, nil
		}}
		svc := newCouponService(t, repo, instant)

		quote, err := svc.Quote(context.Background(), coupon.Code, 500000)
		if err != nil {
			t.Fatalf("Quote returned error: %v", err)
		}
		if !quote.Valid {
			t.Fatalf("quote at %v invalid, reason %q", instant, quote.Reason)
		}
	}
}

func TestQuoteUnknownCoupon(t *testing.T) {
	repo := &stubCouponRepository{findByCodeFn: func(context.Context, string) (*domain.Coupon, error) {
		return nil, &fakeRepoError{notFound: true}
	}}
	svc := newCouponService(t, repo, time.Now())

	quote, err := svc.Quote(context.Background(), "NOPE", 500000)
	if err != nil {
		t.Fatalf("Quote returned error: %v", err)
	}
	if quote.Valid || quote.Reason != CouponReasonNotFound {
		t.Fatalf("quote = %+v, want not_found", quote)
	}
}

func TestRegisterUseMapsCapConflict(t *testing.T) {
	repo := &stubCouponRepository{incrementUsageFn: func(_ context.Context, code string) error {
		if code != "SALE10" {
			t.Fatalf("increment code = %q, want SALE10", code)
		}
		return &fakeRepoError{conflict: true}
	}}
	svc := newCouponService(t, repo, time.Now())

	err := svc.RegisterUse(context.Background(), "sale10")
	if !errors.Is(err, ErrCouponExhausted) {
		t.Fatalf("expected ErrCouponExhausted, got %v", err)
	}
}

func TestCreateConflictOnDuplicateCode(t *testing.T) {
	repo := &stubCouponRepository{insertFn: func(context.Context, *domain.Coupon) error {
		return &fakeRepoError{conflict: true}
	}}
	svc := newCouponService(t, repo, time.Now())

	_, err := svc.Create(context.Background(), CouponInput{
		Code:     "dup",
		Type:     domain.CouponTypeFixed,
		Value:    10000,
		IsActive: true,
	})
	if !errors.Is(err, ErrCouponConflict) {
		t.Fatalf("expected ErrCouponConflict, got %v", err)
	}
}

func TestCreateValidation(t *testing.T) {
	svc := newCouponService(t, &stubCouponRepository{}, time.Now())

	zero := 0
	_, err := svc.Create(context.Background(), CouponInput{
		Code:    "",
		Type:    "weird",
		Value:   -1,
		MaxUses: &zero,
	})
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	for _, field := range []string{"code", "type", "value", "maxUses"} {
		if _, ok := validationErr.Fields[field]; !ok {
			t.Fatalf("missing validation field %q: %v", field, validationErr.Fields)
		}
	}
}

func TestUpdatePreservesUsedCount(t *testing.T) {
	existing := activeCoupon()
	existing.UsedCount = 7
	existing.CreatedAt = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	var saved *domain.Coupon
	repo := &stubCouponRepository{
		findByCodeFn: func(context.Context, string) (*domain.Coupon, error) { return existing, nil },
		updateFn: func(_ context.Context, coupon *domain.Coupon) error {
			saved = coupon
			return nil
		},
	}
	svc := newCouponService(t, repo, time.Now())

	_, err := svc.Update(context.Background(), CouponInput{
		Code:          "SALE10",
		Type:          domain.CouponTypePercent,
		Value:         15,
		ValidFrom:     existing.ValidFrom,
		ValidTo:       existing.ValidTo,
		MinOrderValue: 50000,
		IsActive:      true,
	})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if saved.UsedCount != 7 {
		t.Fatalf("usedCount = %d, want preserved 7", saved.UsedCount)
	}
	if !saved.CreatedAt.Equal(existing.CreatedAt) {
		t.Fatalf("createdAt = %v, want preserved %v", saved.CreatedAt, existing.CreatedAt)
	}
}
