package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/minashop/api/internal/repositories"
)

// Sentinel errors surfaced to the HTTP boundary.
var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrOrderConflict     = errors.New("order code conflict")
	ErrInvalidTransition = errors.New("status transition not permitted")
	ErrCouponNotFound    = errors.New("coupon not found")
	ErrCouponConflict    = errors.New("coupon code already exists")
	ErrCouponExhausted   = errors.New("coupon usage cap reached")
	ErrProductNotFound   = errors.New("product not found")
	ErrReviewNotFound    = errors.New("review not found")
	ErrNewsNotFound      = errors.New("news post not found")
	ErrNewsConflict      = errors.New("news slug already exists")
	ErrBannerNotFound    = errors.New("banner not found")
	ErrUserNotFound      = errors.New("user profile not found")

	// ErrPaymentUnauthorized marks gateway callbacks whose signature does
	// not verify. Nothing is mutated when it is returned.
	ErrPaymentUnauthorized = errors.New("payment callback not authorized")
	// ErrPaymentUnavailable marks payment methods with no configured
	// gateway adapter.
	ErrPaymentUnavailable = errors.New("payment method not available")
)

// ValidationError reports user-correctable input problems keyed by field.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError builds a ValidationError from field/message pairs.
func NewValidationError(fields map[string]string) *ValidationError {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return "validation failed"
	}
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("validation failed: %s", strings.Join(names, ", "))
}

// classifyRepoError maps a repository failure onto the domain sentinels,
// keeping the original error wrapped for logs.
func classifyRepoError(err error, notFound, conflict error) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound() && notFound != nil:
			return fmt.Errorf("%w: %v", notFound, err)
		case repoErr.IsConflict() && conflict != nil:
			return fmt.Errorf("%w: %v", conflict, err)
		}
	}
	return err
}
