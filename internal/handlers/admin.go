package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/minashop/api/internal/domain"
	"github.com/minashop/api/internal/platform/auth"
	"github.com/minashop/api/internal/platform/httpx"
	"github.com/minashop/api/internal/platform/pagination"
	"github.com/minashop/api/internal/repositories"
	"github.com/minashop/api/internal/services"
)

// AdminHandlers serves the back-office surface. Every route requires the
// admin role.
type AdminHandlers struct {
	authn   *auth.Authenticator
	orders  services.OrderService
	catalog services.CatalogService
	coupons services.CouponService
	reviews services.ReviewService
	content services.ContentService
}

// AdminHandlerDeps wires the services the back-office operates on.
type AdminHandlerDeps struct {
	Authn   *auth.Authenticator
	Orders  services.OrderService
	Catalog services.CatalogService
	Coupons services.CouponService
	Reviews services.ReviewService
	Content services.ContentService
}

func NewAdminHandlers(deps AdminHandlerDeps) *AdminHandlers {
	return &AdminHandlers{
		authn:   deps.Authn,
		orders:  deps.Orders,
		catalog: deps.Catalog,
		coupons: deps.Coupons,
		reviews: deps.Reviews,
		content: deps.Content,
	}
}

// Routes wires the /admin endpoints onto the provided router.
func (h *AdminHandlers) Routes(r chi.Router) {
	if h.authn != nil {
		r.Use(h.authn.Require(auth.RoleAdmin))
	}

	r.Get("/orders", h.listOrders)
	r.Get("/orders/{orderID}", h.getOrder)
	r.Post("/orders/{orderID}/status", h.updateOrderStatus)

	r.Get("/products", h.listProducts)
	r.Post("/products", h.createProduct)
	r.Put("/products/{productID}", h.updateProduct)
	r.Delete("/products/{productID}", h.deleteProduct)

	r.Get("/coupons", h.listCoupons)
	r.Post("/coupons", h.createCoupon)
	r.Put("/coupons/{code}", h.updateCoupon)
	r.Delete("/coupons/{code}", h.deleteCoupon)

	r.Get("/reviews", h.listReviews)
	r.Post("/reviews/{reviewID}/moderate", h.moderateReview)

	r.Get("/news", h.listNews)
	r.Post("/news", h.createNews)
	r.Put("/news/{slug}", h.updateNews)
	r.Delete("/news/{newsID}", h.deleteNews)

	r.Get("/banners", h.listBanners)
	r.Post("/banners", h.createBanner)
	r.Put("/banners/{bannerID}", h.updateBanner)
	r.Delete("/banners/{bannerID}", h.deleteBanner)
}

func (h *AdminHandlers) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	params, err := pagination.FromQuery(r.URL.Query())
	if err != nil {
		writeInvalidBody(ctx, w, err)
		return
	}

	page, err := h.orders.List(ctx, repositories.OrderListFilter{
		UserID: strings.TrimSpace(r.URL.Query().Get("user_id")),
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

func (h *AdminHandlers) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	order, err := h.orders.Get(ctx, chi.URLParam(r, "orderID"))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(ctx, w, http.StatusOK, buildOrderPayload(*order))
}

type orderStatusRequest struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}

func (h *AdminHandlers) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}

	var req orderStatusRequest
	if err := decodeBody(r, &req); err != nil {
		writeInvalidBody(ctx, w, err)
		return
	}

	order, err := h.orders.Transition(ctx, services.TransitionRequest{
		OrderID:   chi.URLParam(r, "orderID"),
		NewStatus: domain.OrderStatus(strings.TrimSpace(req.Status)),
		Note:      req.Note,
		ActorID:   identity.UID,
		ActorRole: services.ActorRoleAdmin,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(ctx, w, http.StatusOK, buildOrderPayload(*order))
}

func (h *AdminHandlers) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	params, err := pagination.FromQuery(r.URL.Query())
	if err != nil {
		writeInvalidBody(ctx, w, err)
		return
	}

	page, err := h.catalog.List(ctx, repositories.ProductListFilter{
		Category:        strings.TrimSpace(r.URL.Query().Get("category")),
		Search:          strings.TrimSpace(r.URL.Query().Get("q")),
		IncludeInactive: true,
		Limit:           params.Limit,
		Cursor:          params.Cursor,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(ctx, w, http.StatusOK, buildPage(page, buildProductPayload))
}

type productRequest struct {
	Name        string   `json:"name"`
	Slug        string   `json:"slug"`
	Description string   `json:"description"`
	Images      []string `json:"images"`
	Price       any      `json:"price"`
	OldPrice    any      `json:"old_price"`
	Category    string   `json:"category"`
	Variants    []string `json:"variants"`
	Stock       int      `json:"stock"`
	IsActive    bool     `json:"is_active"`
}

func (req productRequest) toInput(id string) services.ProductInput {
	return services.ProductInput{
		ID:          id,
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		Images:      req.Images,
		Price:       req.Price,
		OldPrice:    req.OldPrice,
		Category:    req.Category,
		Variants:    req.Variants,
		Stock:       req.Stock,
		IsActive:    req.IsActive,
	}
}

func (h *AdminHandlers) createProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req productRequest
	if err := decodeBody(r, &req); err != nil {
		writeInvalidBody(ctx, w, err)
		return
	}

	product, err := h.catalog.Create(ctx, req.toInput(""))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(ctx, w, http.StatusCreated, buildProductPayload(*product))
}

func (h *AdminHandlers) updateProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req productRequest
	if err := decodeBody(r, &req); err != nil {
		writeInvalidBody(ctx, w, err)
		return
	}

	product, err := h.catalog.Update(ctx, req.toInput(chi.URLParam(r, "productID")))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(ctx, w, http.StatusOK, buildProductPayload(*product))
}

func (h *AdminHandlers) deleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.catalog.Delete(ctx, chi.URLParam(r, "productID")); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandlers) listCoupons(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	coupons, err := h.coupons.List(ctx)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	payload := make([]couponPayload, 0, len(coupons))
	for _, coupon := range coupons {
		payload = append(payload, buildCouponPayload(coupon))
	}
	httpx.WriteJSON(ctx, w, http.StatusOK, map[string]any{"coupons": payload})
}

type couponRequest struct {
	Code          string  `json:"code"`
	Type          string  `json:"type"`
	Value         float64 `json:"value"`
	MaxUses       *int    `json:"max_uses"`
	ValidFrom     string  `json:"valid_from"`
	ValidTo       string  `json:"valid_to"`
	MinOrderValue float64 `json:"min_order_value"`
	IsActive      bool    `json:"is_active"`
}

func (req couponRequest) toInput(code string) (services.CouponInput, error) {
	input := services.CouponInput{
		Code:          code,
		Type:          domain.CouponType(strings.ToLower(strings.TrimSpace(req.Type))),
		Value:         req.Value,
		MaxUses:       req.MaxUses,
		MinOrderValue: req.MinOrderValue,
		IsActive:      req.IsActive,
	}
	if input.Code == "" {
		input.Code = req.Code
	}
	var err error
	if req.ValidFrom != "" {
		if input.ValidFrom, err = time.Parse(time.RFC3339, req.ValidFrom); err != nil {
			return input, err
		}
	}
	if req.ValidTo != "" {
		if input.ValidTo, err = time.Parse(time.RFC3339, req.ValidTo); err != nil {
			return input, err
		}
	}
	return input, nil
}

func (h *AdminHandlers) createCoupon(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req couponRequest
	if err := decodeBody(r, &req); err != nil {
		writeInvalidBody(ctx, w, err)
		return
	}

	input, err := req.toInput("")
	if err != nil {
		writeInvalidBody(ctx, w, err)
		return
	}
	coupon, err := h.coupons.Create(ctx, input)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(ctx, w, http.StatusCreated, buildCouponPayload(*coupon))
}

func (h *AdminHandlers) updateCoupon(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req couponRequest
	if err := decodeBody(r, &req); err != nil {
		writeInvalidBody(ctx, w, err)
		return
	}

	input, err := req.toInput(chi.URLParam(r, "code"))
	if err != nil {
		writeInvalidBody(ctx, w, err)
		return
	}
	coupon, err := h.coupons.Update(ctx, input)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(ctx, w, http.StatusOK, buildCouponPayload(*coupon))
}

func (h *AdminHandlers) deleteCoupon(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.coupons.Delete(ctx, chi.URLParam(r, "code")); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandlers) listReviews(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	params, err := pagination.FromQuery(r.URL.Query())
	if err != nil {
		writeInvalidBody(ctx, w, err)
		return
	}

	page, err := h.reviews.List(ctx, repositories.ReviewListFilter{
		ProductID: strings.TrimSpace(r.URL.Query().Get("product_id")),
		Status:    domain.ReviewStatus(strings.TrimSpace(r.URL.Query().Get("status"))),
		Limit:     params.Limit,
		Cursor:    params.Cursor,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(ctx, w, http.StatusOK, buildPage(page, buildReviewPayload))
}

type moderateReviewRequest struct {
	Status string `json:"status"`
}

func (h *AdminHandlers) moderateReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req moderateReviewRequest
	if err := decodeBody(r, &req); err != nil {
		writeInvalidBody(ctx, w, err)
		return
	}

	review, err := h.reviews.Moderate(ctx, chi.URLParam(r, "reviewID"), domain.ReviewStatus(strings.TrimSpace(req.Status)))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(ctx, w, http.StatusOK, buildReviewPayload(*review))
}

func (h *AdminHandlers) listNews(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	params, err := pagination.FromQuery(r.URL.Query())
	if err != nil {
		writeInvalidBody(ctx, w, err)
		return
	}

	page, err := h.content.ListNews(ctx, false, params.Limit, params.Cursor)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(ctx, w, http.StatusOK, buildPage(page, func(post domain.NewsPost) newsPayload {
		return buildNewsPayload(post, false)
	}))
}

type newsRequest struct {
	Slug      string `json:"slug"`
	Title     string `json:"title"`
	Summary   string `json:"summary"`
	Body      string `json:"body"`
	ImagePath string `json:"image_path"`
	Published bool   `json:"published"`
}

func (req newsRequest) toInput(slug string) services.NewsInput {
	input := services.NewsInput{
		Slug:      req.Slug,
		Title:     req.Title,
		Summary:   req.Summary,
		Body:      req.Body,
		ImagePath: req.ImagePath,
		Published: req.Published,
	}
	if slug != "" {
		input.Slug = slug
	}
	return input
}

func (h *AdminHandlers) createNews(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req newsRequest
	if err := decodeBody(r, &req); err != nil {
		writeInvalidBody(ctx, w, err)
		return
	}

	post, err := h.content.CreateNews(ctx, req.toInput(""))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(ctx, w, http.StatusCreated, buildNewsPayload(*post, true))
}

func (h *AdminHandlers) updateNews(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req newsRequest
	if err := decodeBody(r, &req); err != nil {
		writeInvalidBody(ctx, w, err)
		return
	}

	post, err := h.content.UpdateNews(ctx, req.toInput(chi.URLParam(r, "slug")))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(ctx, w, http.StatusOK, buildNewsPayload(*post, true))
}

func (h *AdminHandlers) deleteNews(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.content.DeleteNews(ctx, chi.URLParam(r, "newsID")); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandlers) listBanners(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	banners, err := h.content.ListBanners(ctx, false)
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

type bannerRequest struct {
	Title     string `json:"title"`
	ImagePath string `json:"image_path"`
	LinkURL   string `json:"link_url"`
	Position  int    `json:"position"`
	IsActive  bool   `json:"is_active"`
}

func (req bannerRequest) toInput(id string) services.BannerInput {
	return services.BannerInput{
		ID:        id,
		Title:     req.Title,
		ImagePath: req.ImagePath,
		LinkURL:   req.LinkURL,
		Position:  req.Position,
		IsActive:  req.IsActive,
	}
}

func (h *AdminHandlers) createBanner(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req bannerRequest
	if err := decodeBody(r, &req); err != nil {
		writeInvalidBody(ctx, w, err)
		return
	}

	banner, err := h.content.CreateBanner(ctx, req.toInput(""))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(ctx, w, http.StatusCreated, buildBannerPayload(*banner))
}

func (h *AdminHandlers) updateBanner(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req bannerRequest
	if err := decodeBody(r, &req); err != nil {
		writeInvalidBody(ctx, w, err)
		return
	}

	banner, err := h.content.UpdateBanner(ctx, req.toInput(chi.URLParam(r, "bannerID")))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(ctx, w, http.StatusOK, buildBannerPayload(*banner))
}

func (h *AdminHandlers) deleteBanner(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.content.DeleteBanner(ctx, chi.URLParam(r, "bannerID")); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
