package handlers

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/minashop/api/internal/platform/httpx"
	"github.com/minashop/api/internal/services"
)

// PaymentHandlers receives the gateway callbacks. The return endpoint is
// the browser redirect and is advisory only; the notify endpoint carries
// the signed server-to-server confirmation and is the single place an
// order becomes paid.
type PaymentHandlers struct {
	payments services.PaymentService
}

func NewPaymentHandlers(payments services.PaymentService) *PaymentHandlers {
	return &PaymentHandlers{payments: payments}
}

// Routes wires the gateway callback endpoints onto the provided router.
// They are unauthenticated; the notify endpoint authenticates via the
// gateway signature instead.
func (h *PaymentHandlers) Routes(r chi.Router) {
	r.Get("/{provider}/return", h.handleReturn)
	r.Post("/{provider}/notify", h.handleNotification)
}

type returnResponse struct {
	Order         orderPayload `json:"order"`
	GatewaySaysOK bool         `json:"gateway_says_ok"`
}

func (h *PaymentHandlers) handleReturn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	result, err := h.payments.HandleReturn(ctx, chi.URLParam(r, "provider"), r.URL.Query())
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(ctx, w, http.StatusOK, returnResponse{
		Order:         buildOrderPayload(*result.Order),
		GatewaySaysOK: result.GatewaySaysOK,
	})
}

func (h *PaymentHandlers) handleNotification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	params, err := notificationParams(r)
	if err != nil {
		writeInvalidBody(ctx, w, err)
		return
	}

	order, err := h.payments.HandleNotification(ctx, chi.URLParam(r, "provider"), params)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(ctx, w, http.StatusOK, map[string]any{
		"status": "ok",
		"order":  buildOrderPayload(*order),
	})
}

// notificationParams flattens the callback into url.Values regardless of
// whether the gateway posts a form body or query parameters.
func notificationParams(r *http.Request) (url.Values, error) {
	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	params := url.Values{}
	for key, values := range r.Form {
		params[key] = values
	}
	return params, nil
}
