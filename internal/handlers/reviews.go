package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/minashop/api/internal/platform/auth"
	"github.com/minashop/api/internal/platform/httpx"
	"github.com/minashop/api/internal/services"
)

// ReviewHandlers accepts review submissions from signed-in customers.
// Reviews start in pending and surface publicly only after moderation.
type ReviewHandlers struct {
	authn   *auth.Authenticator
	reviews services.ReviewService
}

func NewReviewHandlers(authn *auth.Authenticator, reviews services.ReviewService) *ReviewHandlers {
	return &ReviewHandlers{authn: authn, reviews: reviews}
}

// Routes wires the /reviews endpoints onto the provided router.
func (h *ReviewHandlers) Routes(r chi.Router) {
	if h.authn != nil {
		r.Use(h.authn.Require())
	}
	r.Post("/", h.submitReview)
}

type reviewSubmitRequest struct {
	ProductID string `json:"product_id"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
}

func (h *ReviewHandlers) submitReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}

	var req reviewSubmitRequest
	if err := decodeBody(r, &req); err != nil {
		writeInvalidBody(ctx, w, err)
		return
	}

	review, err := h.reviews.Submit(ctx, services.ReviewInput{
		ProductID: req.ProductID,
		UserID:    identity.UID,
		UserName:  identity.Name,
		Rating:    req.Rating,
		Comment:   req.Comment,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(ctx, w, http.StatusCreated, buildReviewPayload(*review))
}
