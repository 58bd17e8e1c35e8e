package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/minashop/api/internal/domain"
	pfirestore "github.com/minashop/api/internal/platform/firestore"
)

const couponsCollection = "coupons"

type couponDocument struct {
	Type          string    `firestore:"type"`
	Value         float64   `firestore:"value"`
	MaxUses       *int      `firestore:"maxUses,omitempty"`
	UsedCount     int       `firestore:"usedCount"`
	ValidFrom     time.Time `firestore:"validFrom"`
	ValidTo       time.Time `firestore:"validTo"`
	MinOrderValue float64   `firestore:"minOrderValue"`
	IsActive      bool      `firestore:"isActive"`
	CreatedAt     time.Time `firestore:"createdAt"`
	UpdatedAt     time.Time `firestore:"updatedAt"`
}

// CouponRepository persists coupons keyed by their uppercase code, which
// makes the code-uniqueness constraint a document-ID constraint.
type CouponRepository struct {
	provider *pfirestore.Provider
}

// NewCouponRepository constructs a Firestore-backed coupon repository.
func NewCouponRepository(provider *pfirestore.Provider) (*CouponRepository, error) {
	if provider == nil {
		return nil, errors.New("coupon repository requires firestore provider")
	}
	return &CouponRepository{provider: provider}, nil
}

// Insert creates the coupon, reporting a conflict when the code exists.
func (r *CouponRepository) Insert(ctx context.Context, coupon *domain.Coupon) error {
	if coupon == nil || coupon.Code == "" {
		return errors.New("coupon code is required")
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return err
	}
	_, err = client.Collection(couponsCollection).Doc(coupon.Code).Create(ctx, encodeCoupon(coupon))
	if err != nil {
		return pfirestore.WrapError("coupons.insert", err)
	}
	return nil
}

// Update rewrites the coupon document. UsedCount is deliberately left
// untouched here; only IncrementUsage may change it.
func (r *CouponRepository) Update(ctx context.Context, coupon *domain.Coupon) error {
	if coupon == nil || coupon.Code == "" {
		return errors.New("coupon code is required")
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return err
	}

	ref := client.Collection(couponsCollection).Doc(coupon.Code)
	_, err = ref.Update(ctx, []firestore.Update{
		{Path: "type", Value: string(coupon.Type)},
		{Path: "value", Value: coupon.Value},
		{Path: "maxUses", Value: coupon.MaxUses},
		{Path: "validFrom", Value: coupon.ValidFrom},
		{Path: "validTo", Value: coupon.ValidTo},
		{Path: "minOrderValue", Value: coupon.MinOrderValue},
		{Path: "isActive", Value: coupon.IsActive},
		{Path: "updatedAt", Value: coupon.UpdatedAt},
	})
	if err != nil {
		return pfirestore.WrapError("coupons.update", err)
	}
	return nil
}

// Delete removes the coupon document.
func (r *CouponRepository) Delete(ctx context.Context, code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return pfirestore.NotFoundError("coupons.delete")
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return err
	}
	_, err = client.Collection(couponsCollection).Doc(code).Delete(ctx, firestore.Exists)
	if err != nil {
		return pfirestore.WrapError("coupons.delete", err)
	}
	return nil
}

// FindByCode loads one coupon by its uppercase code.
func (r *CouponRepository) FindByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, pfirestore.NotFoundError("coupons.findByCode")
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, err
	}
	snapshot, err := client.Collection(couponsCollection).Doc(code).Get(ctx)
	if err != nil {
		return nil, pfirestore.WrapError("coupons.findByCode", err)
	}
	return decodeCoupon(snapshot)
}

// List returns all coupons ordered by creation time, newest first.
func (r *CouponRepository) List(ctx context.Context) ([]domain.Coupon, error) {
	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, err
	}

	iter := client.Collection(couponsCollection).OrderBy("createdAt", firestore.Desc).Documents(ctx)
	defer iter.Stop()

	var coupons []domain.Coupon
	for {
		snapshot, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, pfirestore.WrapError("coupons.list", err)
		}
		coupon, err := decodeCoupon(snapshot)
		if err != nil {
			return nil, err
		}
		coupons = append(coupons, *coupon)
	}
	return coupons, nil
}

// IncrementUsage bumps usedCount by one inside a transaction, re-checking
// the usage cap against the current stored value so concurrent orders
// cannot push a capped coupon past its limit.
func (r *CouponRepository) IncrementUsage(ctx context.Context, code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return pfirestore.NotFoundError("coupons.incrementUsage")
	}

	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		client, err := r.provider.Client(ctx)
		if err != nil {
			return err
		}
		ref := client.Collection(couponsCollection).Doc(code)

		snapshot, err := tx.Get(ref)
		if err != nil {
			return err
		}

		var doc couponDocument
		if err := snapshot.DataTo(&doc); err != nil {
			return fmt.Errorf("decode coupon %s: %w", code, err)
		}
		if doc.MaxUses != nil && doc.UsedCount >= *doc.MaxUses {
			return pfirestore.ConflictError("coupons.incrementUsage", fmt.Errorf("coupon %s usage cap reached", code))
		}

		return tx.Update(ref, []firestore.Update{
			{Path: "usedCount", Value: firestore.Increment(1)},
			{Path: "updatedAt", Value: time.Now().UTC()},
		})
	})
	if err != nil {
		var repoErr *pfirestore.Error
		if errors.As(err, &repoErr) {
			return repoErr
		}
		return pfirestore.WrapError("coupons.incrementUsage", err)
	}
	return nil
}

func encodeCoupon(coupon *domain.Coupon) couponDocument {
	return couponDocument{
		Type:          string(coupon.Type),
		Value:         coupon.Value,
		MaxUses:       coupon.MaxUses,
		UsedCount:     coupon.UsedCount,
		ValidFrom:     coupon.ValidFrom,
		ValidTo:       coupon.ValidTo,
		MinOrderValue: coupon.MinOrderValue,
		IsActive:      coupon.IsActive,
		CreatedAt:     coupon.CreatedAt,
		UpdatedAt:     coupon.UpdatedAt,
	}
}

func decodeCoupon(snapshot *firestore.DocumentSnapshot) (*domain.Coupon, error) {
	var doc couponDocument
	if err := snapshot.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("decode coupon %s: %w", snapshot.Ref.ID, err)
	}
	return &domain.Coupon{
		Code:          snapshot.Ref.ID,
		Type:          domain.CouponType(doc.Type),
		Value:         doc.Value,
		MaxUses:       doc.MaxUses,
		UsedCount:     doc.UsedCount,
		ValidFrom:     doc.ValidFrom,
		ValidTo:       doc.ValidTo,
		MinOrderValue: doc.MinOrderValue,
		IsActive:      doc.IsActive,
		CreatedAt:     doc.CreatedAt,
		UpdatedAt:     doc.UpdatedAt,
	}, nil
}
