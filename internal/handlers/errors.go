package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/minashop/api/internal/payments"
	"github.com/minashop/api/internal/platform/auth"
	"github.com/minashop/api/internal/platform/httpx"
	"github.com/minashop/api/internal/platform/pagination"
	"github.com/minashop/api/internal/services"
)

// writeServiceError maps a service failure onto the shared error envelope.
func writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}

	var validationErr *services.ValidationError
	if errors.As(err, &validationErr) {
		details := make(map[string]any, len(validationErr.Fields))
		for field, message := range validationErr.Fields {
			details[field] = message
		}
		httpx.WriteError(ctx, w, httpx.NewError("validation_failed", "request validation failed", http.StatusBadRequest).WithDetails(details))
		return
	}

	var gatewayErr *payments.GatewayError
	switch {
	case errors.Is(err, services.ErrOrderNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("order_not_found", "order not found", http.StatusNotFound))
	case errors.Is(err, services.ErrProductNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("product_not_found", "product not found", http.StatusNotFound))
	case errors.Is(err, services.ErrCouponNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("coupon_not_found", "coupon not found", http.StatusNotFound))
	case errors.Is(err, services.ErrReviewNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("review_not_found", "review not found", http.StatusNotFound))
	case errors.Is(err, services.ErrNewsNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("news_not_found", "news post not found", http.StatusNotFound))
	case errors.Is(err, services.ErrBannerNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("banner_not_found", "banner not found", http.StatusNotFound))
	case errors.Is(err, services.ErrUserNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("user_not_found", "user profile not found", http.StatusNotFound))
	case errors.Is(err, services.ErrInvalidTransition):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_transition", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrOrderConflict):
		httpx.WriteError(ctx, w, httpx.NewError("order_conflict", "order could not be stored; retry", http.StatusConflict))
	case errors.Is(err, services.ErrCouponConflict):
		httpx.WriteError(ctx, w, httpx.NewError("coupon_conflict", "coupon code already exists", http.StatusConflict))
	case errors.Is(err, services.ErrCouponExhausted):
		httpx.WriteError(ctx, w, httpx.NewError("coupon_exhausted", "coupon usage cap reached", http.StatusConflict))
	case errors.Is(err, services.ErrNewsConflict):
		httpx.WriteError(ctx, w, httpx.NewError("news_conflict", "news slug already exists", http.StatusConflict))
	case errors.Is(err, services.ErrPaymentUnauthorized):
		httpx.WriteError(ctx, w, httpx.NewError("unauthorized_callback", "payment callback signature rejected", http.StatusUnauthorized))
	case errors.Is(err, services.ErrPaymentUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("payment_unavailable", "payment method is not available", http.StatusBadRequest))
	case errors.Is(err, payments.ErrUnsupportedProvider):
		httpx.WriteError(ctx, w, httpx.NewError("payment_unavailable", "payment provider not recognised", http.StatusNotFound))
	case errors.As(err, &gatewayErr):
		httpx.WriteError(ctx, w, httpx.NewError("payment_gateway_error", "payment gateway request failed", http.StatusBadGateway))
	case errors.Is(err, pagination.ErrInvalidCursor):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_cursor", "cursor token is not valid", http.StatusBadRequest))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "request could not be processed", http.StatusInternalServerError))
	}
}

// requireIdentity pulls the verified identity off the context; the auth
// middleware puts it there, so a miss means the route is miswired.
func requireIdentity(ctx context.Context, w http.ResponseWriter) (*auth.Identity, bool) {
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok || identity == nil || identity.UID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return nil, false
	}
	return identity, true
}

func writeInvalidBody(ctx context.Context, w http.ResponseWriter, err error) {
	message := "request body is not valid JSON"
	if err != nil {
		message = err.Error()
	}
	httpx.WriteError(ctx, w, httpx.NewError("invalid_request", message, http.StatusBadRequest))
}
