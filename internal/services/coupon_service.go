package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/minashop/api/internal/domain"
	"github.com/minashop/api/internal/repositories"
)

// Quote rejection reasons returned to the storefront.
const (
	CouponReasonNotFound      = "not_found"
	CouponReasonInactive      = "inactive"
	CouponReasonNotStarted    = "not_started"
	CouponReasonExpired       = "expired"
	CouponReasonExhausted     = "exhausted"
	CouponReasonMinOrderValue = "min_order_value"
)

// CouponQuote is the discriminated outcome of evaluating a coupon against
// an order total. Discount is zero whenever Valid is false.
type CouponQuote struct {
	Code     string
	Valid    bool
	Reason   string
	Discount float64
}

// CouponInput carries the admin-editable coupon fields.
type CouponInput struct {
	Code          string
	Type          domain.CouponType
	Value         float64
	MaxUses       *int
	ValidFrom     time.Time
	ValidTo       time.Time
	MinOrderValue float64
	IsActive      bool
}

// CouponService evaluates coupons for checkout and manages them for the
// back-office. UsedCount is only ever mutated through RegisterUse.
type CouponService interface {
	Quote(ctx context.Context, code string, orderTotal float64) (CouponQuote, error)
	RegisterUse(ctx context.Context, code string) error
	Create(ctx context.Context, input CouponInput) (*domain.Coupon, error)
	Update(ctx context.Context, input CouponInput) (*domain.Coupon, error)
	Delete(ctx context.Context, code string) error
	Get(ctx context.Context, code string) (*domain.Coupon, error)
	List(ctx context.Context) ([]domain.Coupon, error)
}

// CouponServiceDeps wires the coupon service dependencies.
type CouponServiceDeps struct {
	Coupons repositories.CouponRepository
	Clock   Clock
	Logger  *zap.Logger
}

type couponService struct {
	coupons repositories.CouponRepository
	clock   Clock
	logger  *zap.Logger
}

// NewCouponService validates dependencies and returns the service.
func NewCouponService(deps CouponServiceDeps) (CouponService, error) {
	if deps.Coupons == nil {
		return nil, errors.New("coupon service requires coupon repository")
	}
	clock := deps.Clock
	if clock == nil {
		clock = defaultClock
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &couponService{coupons: deps.Coupons, clock: clock, logger: logger}, nil
}

// NormalizeCouponCode uppercases and trims a wire-format coupon code.
func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Quote evaluates the coupon against the order total. A missing coupon is
// an invalid quote, not an error, so checkout degrades to zero discount.
func (s *couponService) Quote(ctx context.Context, code string, orderTotal float64) (CouponQuote, error) {
	normalized := NormalizeCouponCode(code)
	if normalized == "" {
		return CouponQuote{}, NewValidationError(map[string]string{"code": "coupon code is required"})
	}

	coupon, err := s.coupons.FindByCode(ctx, normalized)
	if err != nil {
		mapped := classifyRepoError(err, ErrCouponNotFound, nil)
		if errors.Is(mapped, ErrCouponNotFound) {
			return CouponQuote{Code: normalized, Reason: CouponReasonNotFound}, nil
		}
		return CouponQuote{}, mapped
	}

	now := s.clock()
	if reason := ineligibleReason(*coupon, now); reason != "" {
		return CouponQuote{Code: normalized, Reason: reason}, nil
	}
	if orderTotal < coupon.MinOrderValue {
		return CouponQuote{Code: normalized, Reason: CouponReasonMinOrderValue}, nil
	}

	return CouponQuote{
		Code:     normalized,
		Valid:    true,
		Discount: discountFor(*coupon, orderTotal),
	}, nil
}

// RegisterUse increments usedCount exactly once. It is called only after
// the order document has been persisted, and never reversed: a cancelled
// order does not return its coupon use.
func (s *couponService) RegisterUse(ctx context.Context, code string) error {
	normalized := NormalizeCouponCode(code)
	if normalized == "" {
		return NewValidationError(map[string]string{"code": "coupon code is required"})
	}
	if err := s.coupons.IncrementUsage(ctx, normalized); err != nil {
		return classifyRepoError(err, ErrCouponNotFound, ErrCouponExhausted)
	}
	return nil
}

func (s *couponService) Create(ctx context.Context, input CouponInput) (*domain.Coupon, error) {
	coupon, err := couponFromInput(input, s.clock())
	if err != nil {
		return nil, err
	}
	coupon.CreatedAt = coupon.UpdatedAt

	if err := s.coupons.Insert(ctx, coupon); err != nil {
		return nil, classifyRepoError(err, nil, ErrCouponConflict)
	}
	return coupon, nil
}

func (s *couponService) Update(ctx context.Context, input CouponInput) (*domain.Coupon, error) {
	updated, err := couponFromInput(input, s.clock())
	if err != nil {
		return nil, err
	}

	existing, err := s.coupons.FindByCode(ctx, updated.Code)
	if err != nil {
		return nil, classifyRepoError(err, ErrCouponNotFound, nil)
	}

	updated.UsedCount = existing.UsedCount
	updated.CreatedAt = existing.CreatedAt
	if err := s.coupons.Update(ctx, updated); err != nil {
		return nil, classifyRepoError(err, ErrCouponNotFound, nil)
	}
	return updated, nil
}

func (s *couponService) Delete(ctx context.Context, code string) error {
	normalized := NormalizeCouponCode(code)
	if normalized == "" {
		return NewValidationError(map[string]string{"code": "coupon code is required"})
	}
	if err := s.coupons.Delete(ctx, normalized); err != nil {
		return classifyRepoError(err, ErrCouponNotFound, nil)
	}
	return nil
}

func (s *couponService) Get(ctx context.Context, code string) (*domain.Coupon, error) {
	normalized := NormalizeCouponCode(code)
	if normalized == "" {
		return nil, NewValidationError(map[string]string{"code": "coupon code is required"})
	}
	coupon, err := s.coupons.FindByCode(ctx, normalized)
	if err != nil {
		return nil, classifyRepoError(err, ErrCouponNotFound, nil)
	}
	return coupon, nil
}

func (s *couponService) List(ctx context.Context) ([]domain.Coupon, error) {
	return s.coupons.List(ctx)
}

// ineligibleReason returns the first failed validity check, or empty when
// the coupon is usable right now. The validity window is inclusive at
// both ends.
func ineligibleReason(coupon domain.Coupon, now time.Time) string {
	switch {
	case !coupon.IsActive:
		return CouponReasonInactive
	case now.Before(coupon.ValidFrom):
		return CouponReasonNotStarted
	case now.After(coupon.ValidTo):
		return CouponReasonExpired
	case coupon.MaxUses != nil && coupon.UsedCount >= *coupon.MaxUses:
		return CouponReasonExhausted
	default:
		return ""
	}
}

// discountFor computes the discount for an eligible coupon, never
// exceeding the order total.
func discountFor(coupon domain.Coupon, orderTotal float64) float64 {
	var discount float64
	switch coupon.Type {
	case domain.CouponTypePercent:
		discount = orderTotal * coupon.Value / 100
	default:
		discount = coupon.Value
	}
	if discount > orderTotal {
		discount = orderTotal
	}
	if discount < 0 {
		discount = 0
	}
	return discount
}

func couponFromInput(input CouponInput, now time.Time) (*domain.Coupon, error) {
	fields := map[string]string{}

	code := NormalizeCouponCode(input.Code)
	if code == "" {
		fields["code"] = "coupon code is required"
	}
	switch input.Type {
	case domain.CouponTypeFixed, domain.CouponTypePercent:
	default:
		fields["type"] = "type must be fixed or percent"
	}
	if input.Value < 0 {
		fields["value"] = "value must be non-negative"
	}
	if input.MaxUses != nil && *input.MaxUses <= 0 {
		fields["maxUses"] = "maxUses must be positive when set"
	}
	if input.MinOrderValue < 0 {
		fields["minOrderValue"] = "minOrderValue must be non-negative"
	}
	if !input.ValidTo.IsZero() && input.ValidTo.Before(input.ValidFrom) {
		fields["validTo"] = "validTo must not precede validFrom"
	}
	if len(fields) > 0 {
		return nil, NewValidationError(fields)
	}

	return &domain.Coupon{
		Code:          code,
		Type:          input.Type,
		Value:         input.Value,
		MaxUses:       input.MaxUses,
		ValidFrom:     input.ValidFrom,
		ValidTo:       input.ValidTo,
		MinOrderValue: input.MinOrderValue,
		IsActive:      input.IsActive,
		UpdatedAt:     now,
	}, nil
}
