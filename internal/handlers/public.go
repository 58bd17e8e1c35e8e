package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/minashop/api/internal/domain"
	"github.com/minashop/api/internal/platform/httpx"
	"github.com/minashop/api/internal/platform/pagination"
	"github.com/minashop/api/internal/repositories"
	"github.com/minashop/api/internal/services"
)

// PublicHandlers serves the unauthenticated storefront surface: catalog,
// reviews, coupon validation, news, and banners.
type PublicHandlers struct {
	catalog services.CatalogService
	reviews services.ReviewService
	coupons services.CouponService
	content services.ContentService
}

// NewPublicHandlers wires the storefront read services.
func NewPublicHandlers(catalog services.CatalogService, reviews services.ReviewService, coupons services.CouponService, content services.ContentService) *PublicHandlers {
	return &PublicHandlers{
		catalog: catalog,
		reviews: reviews,
		coupons: coupons,
		content: content,
	}
}

// Routes wires the /public endpoints onto the provided router.
func (h *PublicHandlers) Routes(r chi.Router) {
	r.Get("/products", h.listProducts)
	r.Get("/products/{productID}", h.getProduct)
	r.Get("/reviews/product/{productID}", h.listReviews)
	r.Post("/coupons/validate", h.validateCoupon)
	r.Get("/news", h.listNews)
	r.Get("/news/{slug}", h.getNews)
	r.Get("/banners", h.listBanners)
}

func (h *PublicHandlers) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	params, err := pagination.FromQuery(r.URL.Query())
	if err != nil {
		writeInvalidBody(ctx, w, err)
		return
	}

	page, err := h.catalog.List(ctx, repositories.ProductListFilter{
		Category: strings.TrimSpace(r.URL.Query().Get("category")),
		Search:   strings.TrimSpace(r.URL.Query().Get("q")),
		Limit:    params.Limit,
		Cursor:   params.Cursor,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(ctx, w, http.StatusOK, buildPage(page, buildProductPayload))
}

func (h *PublicHandlers) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	product, err := h.catalog.GetPublic(ctx, chi.URLParam(r, "productID"))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(ctx, w, http.StatusOK, buildProductPayload(*product))
}

func (h *PublicHandlers) listReviews(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	params, err := pagination.FromQuery(r.URL.Query())
	if err != nil {
		writeInvalidBody(ctx, w, err)
		return
	}

	page, err := h.reviews.ListPublic(ctx, chi.URLParam(r, "productID"), params.Limit, params.Cursor)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(ctx, w, http.StatusOK, buildPage(page, buildReviewPayload))
}

type couponValidateRequest struct {
	Code       string `json:"code"`
	OrderTotal any    `json:"order_total"`
}

type couponQuotePayload struct {
	Code     string  `json:"code"`
	Valid    bool    `json:"valid"`
	Reason   string  `json:"reason,omitempty"`
	Discount float64 `json:"discount"`
}

// validateCoupon quotes a coupon against an order total without consuming
// a use.
func (h *PublicHandlers) validateCoupon(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req couponValidateRequest
	if err := decodeBody(r, &req); err != nil {
		writeInvalidBody(ctx, w, err)
		return
	}

	quote, err := h.coupons.Quote(ctx, req.Code, domain.CoerceAmount(req.OrderTotal))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(ctx, w, http.StatusOK, couponQuotePayload{
		Code:     quote.Code,
		Valid:    quote.Valid,
		Reason:   quote.Reason,
		Discount: quote.Discount,
	})
}

func (h *PublicHandlers) listNews(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	params, err := pagination.FromQuery(r.URL.Query())
	if err != nil {
		writeInvalidBody(ctx, w, err)
		return
	}

	page, err := h.content.ListNews(ctx, true, params.Limit, params.Cursor)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(ctx, w, http.StatusOK, buildPage(page, func(post domain.NewsPost) newsPayload {
		return buildNewsPayload(post, false)
	}))
}

func (h *PublicHandlers) getNews(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	post, err := h.content.GetNewsBySlug(ctx, chi.URLParam(r, "slug"), false)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(ctx, w, http.StatusOK, buildNewsPayload(*post, true))
}

func (h *PublicHandlers) listBanners(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	banners, err := h.content.ListBanners(ctx, true)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	payload := make([]bannerPayload, 0, len(banners))
	for _, banner := range banners {
		payload = append(payload, buildBannerPayload(banner))
	}
	httpx.WriteJSON(ctx, w, http.StatusOK, map[string]any{"banners": payload})
}
