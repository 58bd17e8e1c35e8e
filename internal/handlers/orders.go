package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/minashop/api/internal/domain"
	"github.com/minashop/api/internal/platform/auth"
	"github.com/minashop/api/internal/platform/httpx"
	"github.com/minashop/api/internal/platform/pagination"
	"github.com/minashop/api/internal/platform/requestctx"
	"github.com/minashop/api/internal/repositories"
	"github.com/minashop/api/internal/services"
)

// OrderHandlers exposes the authenticated order endpoints: checkout,
// listing, and the customer-side status changes.
type OrderHandlers struct {
	authn    *auth.Authenticator
	orders   services.OrderService
	payments services.PaymentService
	carts    services.CartService
}

// NewOrderHandlers constructs handlers enforcing authentication before
// invoking the order services.
func NewOrderHandlers(authn *auth.Authenticator, orders services.OrderService, payments services.PaymentService, carts services.CartService) *OrderHandlers {
	return &OrderHandlers{
		authn:    authn,
		orders:   orders,
		payments: payments,
		carts:    carts,
	}
}

// Routes wires the /orders endpoints onto the provided router.
func (h *OrderHandlers) Routes(r chi.Router) {
	if h.authn != nil {
		r.Use(h.authn.Require())
	}
	r.Post("/", h.checkout)
	r.Get("/", h.listOrders)
	r.Get("/{orderID}", h.getOrder)
	r.Post("/{orderID}/cancel", h.cancelOrder)
	r.Post("/{orderID}/received", h.confirmReceived)
	r.Post("/{orderID}/payment", h.createPayment)
}

type checkoutItemRequest struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Image     string `json:"image"`
	Price     any    `json:"price"`
	OldPrice  any    `json:"old_price"`
	Quantity  int    `json:"quantity"`
	Variant   string `json:"variant"`
}

type checkoutRequest struct {
	Items         []checkoutItemRequest `json:"items"`
	ShippingInfo  shippingInfoPayload   `json:"shipping_info"`
	PaymentMethod string                `json:"payment_method"`
	CouponCode    string                `json:"coupon_code"`
}

type checkoutResponse struct {
	Order      orderPayload `json:"order"`
	PaymentURL string       `json:"payment_url,omitempty"`
}

// checkout creates the order and, for online payment methods, opens the
// gateway payment. The cart is cleared once the order exists; a failed
// clear is logged but never fails the checkout.
func (h *OrderHandlers) checkout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}

	var req checkoutRequest
	if err := decodeBody(r, &req); err != nil {
		writeInvalidBody(ctx, w, err)
		return
	}

	draft := services.OrderDraft{
		UserID: identity.UID,
		ShippingInfo: domain.ShippingInfo{
			Name:     req.ShippingInfo.Name,
			Phone:    req.ShippingInfo.Phone,
			Email:    req.ShippingInfo.Email,
			Address:  req.ShippingInfo.Address,
			City:     req.ShippingInfo.City,
			District: req.ShippingInfo.District,
			Ward:     req.ShippingInfo.Ward,
			Note:     req.ShippingInfo.Note,
		},
		PaymentMethod: domain.PaymentMethod(strings.ToLower(strings.TrimSpace(req.PaymentMethod))),
		CouponCode:    req.CouponCode,
	}
	for _, item := range req.Items {
		draft.Items = append(draft.Items, services.DraftItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Image:     item.Image,
			Price:     item.Price,
			OldPrice:  item.OldPrice,
			Quantity:  item.Quantity,
			Variant:   item.Variant,
		})
	}

	order, err := h.orders.Create(ctx, draft)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	var paymentURL string
	if h.payments != nil {
		paymentURL, err = h.payments.CreatePayment(ctx, order)
		if err != nil {
			// The order exists; surface it with the gateway failure so the
			// client can retry payment or fall back to COD.
			requestctx.Logger(ctx).Warn("payment creation failed after checkout",
				zap.String("order_code", order.Code),
				zap.Error(err),
			)
		}
	}

	if h.carts != nil {
		if err := h.carts.Clear(ctx, identity.UID); err != nil {
			requestctx.Logger(ctx).Warn("cart clear failed after checkout",
				zap.String("order_code", order.Code),
				zap.Error(err),
			)
		}
	}

	httpx.WriteJSON(ctx, w, http.StatusCreated, checkoutResponse{
		Order:      buildOrderPayload(*order),
		PaymentURL: paymentURL,
	})
}

func (h *OrderHandlers) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}

	params, err := pagination.FromQuery(r.URL.Query())
	if err != nil {
		writeInvalidBody(ctx, w, err)
		return
	}

	page, err := h.orders.List(ctx, repositories.OrderListFilter{
		UserID: identity.UID,
		Status: domain.OrderStatus(strings.TrimSpace(r.URL.Query().Get("status"))),
		Limit:  params.Limit,
		Cursor: params.Cursor,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(ctx, w, http.StatusOK, buildPage(page, buildOrderPayload))
}

func (h *OrderHandlers) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}

	order, err := h.orders.GetForUser(ctx, chi.URLParam(r, "orderID"), identity.UID)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(ctx, w, http.StatusOK, buildOrderPayload(*order))
}

type transitionNoteRequest struct {
	Note string `json:"note"`
}

func (h *OrderHandlers) cancelOrder(w http.ResponseWriter, r *http.Request) {
	h.customerTransition(w, r, domain.OrderStatusCancelled)
}

func (h *OrderHandlers) confirmReceived(w http.ResponseWriter, r *http.Request) {
	h.customerTransition(w, r, domain.OrderStatusReceived)
}

// createPayment reopens the gateway payment for an order whose earlier
// redirect expired or was abandoned. Already-paid orders are rejected.
func (h *OrderHandlers) createPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}

	order, err := h.orders.GetForUser(ctx, chi.URLParam(r, "orderID"), identity.UID)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	if order.PaymentStatus == domain.PaymentStatusPaid {
		httpx.WriteError(ctx, w, httpx.NewError("already_paid", "order is already paid", http.StatusConflict))
		return
	}

	paymentURL, err := h.payments.CreatePayment(ctx, order)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(ctx, w, http.StatusOK, map[string]string{"payment_url": paymentURL})
}

func (h *OrderHandlers) customerTransition(w http.ResponseWriter, r *http.Request, status domain.OrderStatus) {
	ctx := r.Context()
	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}

	var req transitionNoteRequest
	if err := decodeBody(r, &req); err != nil && err != errEmptyBody {
		writeInvalidBody(ctx, w, err)
		return
	}

	order, err := h.orders.Transition(ctx, services.TransitionRequest{
		OrderID:   chi.URLParam(r, "orderID"),
		NewStatus: status,
		Note:      req.Note,
		ActorID:   identity.UID,
		ActorRole: services.ActorRoleCustomer,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(ctx, w, http.StatusOK, buildOrderPayload(*order))
}
