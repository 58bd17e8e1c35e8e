package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"

	"go.uber.org/zap"

	"github.com/minashop/api/internal/domain"
	"github.com/minashop/api/internal/payments"
)

// ReturnResult carries the advisory outcome of a browser redirect back
// from a gateway. The order reflects stored state, not the redirect
// parameters.
type ReturnResult struct {
	Order         *domain.Order
	GatewaySaysOK bool
}

// PaymentService bridges orders and gateway adapters: it opens payments
// for online methods and reconciles gateway callbacks.
type PaymentService interface {
	// CreatePayment opens a gateway payment for the order and returns the
	// redirect URL. COD and bank transfer orders need no gateway and yield
	// an empty URL.
	CreatePayment(ctx context.Context, order *domain.Order) (string, error)
	// HandleReturn resolves the order a browser redirect refers to. It
	// never changes payment state; the async notification is authoritative.
	HandleReturn(ctx context.Context, provider string, params url.Values) (ReturnResult, error)
	// HandleNotification verifies the callback signature and marks the
	// order paid. Replayed notifications are accepted without effect.
	HandleNotification(ctx context.Context, provider string, params url.Values) (*domain.Order, error)
}

// PaymentServiceDeps wires the payment service dependencies.
type PaymentServiceDeps struct {
	Orders  OrderService
	Manager *payments.Manager
	Logger  *zap.Logger
}

type paymentService struct {
	orders  OrderService
	manager *payments.Manager
	logger  *zap.Logger
}

// NewPaymentService validates dependencies and returns the service. A nil
// manager is accepted: every online method then reports unavailable.
func NewPaymentService(deps PaymentServiceDeps) (PaymentService, error) {
	if deps.Orders == nil {
		return nil, errors.New("payment service requires order service")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &paymentService{
		orders:  deps.Orders,
		manager: deps.Manager,
		logger:  logger,
	}, nil
}

func (s *paymentService) CreatePayment(ctx context.Context, order *domain.Order) (string, error) {
	switch order.PaymentMethod {
	case domain.PaymentMethodCOD, domain.PaymentMethodBankTransfer:
		return "", nil
	}

	method := string(order.PaymentMethod)
	if s.manager == nil || !s.manager.Has(method) {
		return "", fmt.Errorf("%w: %s", ErrPaymentUnavailable, method)
	}

	redirect, err := s.manager.CreatePayment(ctx, method, payments.CreatePaymentRequest{
		OrderCode:   order.Code,
		OrderID:     order.ID,
		Amount:      int64(math.Round(order.Totals.GrandTotal)),
		Description: "MinaShop order " + order.Code,
		CustomerID:  order.UserID,
	})
	if err != nil {
		return "", err
	}

	s.logger.Info("payment opened",
		zap.String("order_code", order.Code),
		zap.String("provider", redirect.Provider),
	)
	return redirect.RedirectURL, nil
}

func (s *paymentService) HandleReturn(ctx context.Context, provider string, params url.Values) (ReturnResult, error) {
	if s.manager == nil {
		return ReturnResult{}, fmt.Errorf("%w: %s", ErrPaymentUnavailable, provider)
	}
	note, err := s.manager.ParseReturn(provider, params)
	if err != nil {
		return ReturnResult{}, err
	}

	order, err := s.orders.FindByMerchantRef(ctx, note.MerchantRef)
	if err != nil {
		return ReturnResult{}, err
	}
	return ReturnResult{Order: order, GatewaySaysOK: note.Success}, nil
}

func (s *paymentService) HandleNotification(ctx context.Context, provider string, params url.Values) (*domain.Order, error) {
	if s.manager == nil {
		return nil, fmt.Errorf("%w: %s", ErrPaymentUnavailable, provider)
	}

	note, err := s.manager.VerifyNotification(provider, params)
	if err != nil {
		if errors.Is(err, payments.ErrSignatureMismatch) {
			s.logger.Warn("payment notification rejected",
				zap.String("provider", provider),
				zap.String("merchant_ref", params.Get("orderId")),
			)
			return nil, fmt.Errorf("%w: %v", ErrPaymentUnauthorized, err)
		}
		return nil, err
	}

	if !note.Success {
		// A verified failure leaves the order unpaid; the customer can
		// retry or fall back to COD.
		s.logger.Info("payment notification reported failure",
			zap.String("provider", provider),
			zap.String("merchant_ref", note.MerchantRef),
			zap.String("result_code", note.ResultCode),
		)
		return s.orders.FindByMerchantRef(ctx, note.MerchantRef)
	}

	return s.orders.MarkPaid(ctx, note.MerchantRef, fmt.Sprintf("%s payment %s confirmed", provider, note.TransactionID))
}
