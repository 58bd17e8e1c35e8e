package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/minashop/api/internal/domain"
	"github.com/minashop/api/internal/platform/pagination"
)

const maxBodySize = 64 * 1024

var errEmptyBody = errors.New("request body is empty")

// decodeBody parses a bounded JSON request body into dst.
func decodeBody(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize+1))
	if err != nil {
		return errors.New("unable to read request body")
	}
	if len(body) == 0 {
		return errEmptyBody
	}
	if len(body) > maxBodySize {
		return errors.New("request body exceeds allowed size")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return errors.New("request body is not valid JSON")
	}
	return nil
}

func formatTime(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return ts.UTC().Format(time.RFC3339)
}

type pagePayload[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
}

func buildPage[S any, T any](page domain.CursorPage[S], build func(S) T) pagePayload[T] {
	items := make([]T, 0, len(page.Items))
	for _, item := range page.Items {
		items = append(items, build(item))
	}
	payload := pagePayload[T]{Items: items}
	if page.NextCursor != "" {
		payload.NextCursor = pagination.EncodeToken(page.NextCursor)
	}
	return payload
}

type productPayload struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Slug        string   `json:"slug"`
	Description string   `json:"description,omitempty"`
	Images      []string `json:"images,omitempty"`
	Price       float64  `json:"price"`
	OldPrice    float64  `json:"old_price,omitempty"`
	Category    string   `json:"category,omitempty"`
	Variants    []string `json:"variants,omitempty"`
	Stock       int      `json:"stock"`
	IsActive    bool     `json:"is_active"`
	CreatedAt   string   `json:"created_at,omitempty"`
	UpdatedAt   string   `json:"updated_at,omitempty"`
}

func buildProductPayload(product domain.Product) productPayload {
	return productPayload{
		ID:          product.ID,
		Name:        product.Name,
		Slug:        product.Slug,
		Description: product.Description,
		Images:      product.Images,
		Price:       product.Price,
		OldPrice:    product.OldPrice,
		Category:    product.Category,
		Variants:    product.Variants,
		Stock:       product.Stock,
		IsActive:    product.IsActive,
		CreatedAt:   formatTime(product.CreatedAt),
		UpdatedAt:   formatTime(product.UpdatedAt),
	}
}

type orderItemPayload struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Image     string  `json:"image,omitempty"`
	Price     float64 `json:"price"`
	OldPrice  float64 `json:"old_price,omitempty"`
	Quantity  int     `json:"quantity"`
	Variant   string  `json:"variant,omitempty"`
}

type shippingInfoPayload struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Email    string `json:"email,omitempty"`
	Address  string `json:"address"`
	City     string `json:"city"`
	District string `json:"district"`
	Ward     string `json:"ward"`
	Note     string `json:"note,omitempty"`
}

type totalsPayload struct {
	SubTotal    float64 `json:"sub_total"`
	Total       float64 `json:"total"`
	Savings     float64 `json:"savings"`
	ShippingFee float64 `json:"shipping_fee"`
	Discount    float64 `json:"discount"`
	GrandTotal  float64 `json:"grand_total"`
}

type historyEntryPayload struct {
	Status    string `json:"status"`
	Note      string `json:"note,omitempty"`
	UpdatedBy string `json:"updated_by,omitempty"`
	At        string `json:"at"`
}

type orderPayload struct {
	ID            string                `json:"id"`
	Code          string                `json:"code"`
	UserID        string                `json:"user_id"`
	Items         []orderItemPayload    `json:"items"`
	ShippingInfo  shippingInfoPayload   `json:"shipping_info"`
	PaymentMethod string                `json:"payment_method"`
	PaymentStatus string                `json:"payment_status"`
	Status        string                `json:"status"`
	CouponCode    string                `json:"coupon_code,omitempty"`
	Totals        totalsPayload         `json:"totals"`
	StatusHistory []historyEntryPayload `json:"status_history"`
	CreatedAt     string                `json:"created_at"`
	UpdatedAt     string                `json:"updated_at"`
}

func buildOrderPayload(order domain.Order) orderPayload {
	items := make([]orderItemPayload, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemPayload{
			ProductID: item.ProductID,
			Name:      item.Name,
			Image:     item.Image,
			Price:     item.Price,
			OldPrice:  item.OldPrice,
			Quantity:  item.Quantity,
			Variant:   item.Variant,
		})
	}
	history := make([]historyEntryPayload, 0, len(order.StatusHistory))
	for _, entry := range order.StatusHistory {
		history = append(history, historyEntryPayload{
			Status:    string(entry.Status),
			Note:      entry.Note,
			UpdatedBy: entry.UpdatedBy,
			At:        formatTime(entry.At),
		})
	}

	return orderPayload{
		ID:     order.ID,
		Code:   order.Code,
		UserID: order.UserID,
		Items:  items,
		ShippingInfo: shippingInfoPayload{
			Name:     order.ShippingInfo.Name,
			Phone:    order.ShippingInfo.Phone,
			Email:    order.ShippingInfo.Email,
			Address:  order.ShippingInfo.Address,
			City:     order.ShippingInfo.City,
			District: order.ShippingInfo.District,
			Ward:     order.ShippingInfo.Ward,
			Note:     order.ShippingInfo.Note,
		},
		PaymentMethod: string(order.PaymentMethod),
		PaymentStatus: string(order.PaymentStatus),
		Status:        string(order.Status),
		CouponCode:    order.CouponCode,
		Totals: totalsPayload{
			SubTotal:    order.Totals.SubTotal,
			Total:       order.Totals.Total,
			Savings:     order.Totals.Savings,
			ShippingFee: order.Totals.ShippingFee,
			Discount:    order.Totals.Discount,
			GrandTotal:  order.Totals.GrandTotal,
		},
		StatusHistory: history,
		CreatedAt:     formatTime(order.CreatedAt),
		UpdatedAt:     formatTime(order.UpdatedAt),
	}
}

type reviewPayload struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	UserName  string `json:"user_name,omitempty"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

func buildReviewPayload(review domain.Review) reviewPayload {
	return reviewPayload{
		ID:        review.ID,
		ProductID: review.ProductID,
		UserName:  review.UserName,
		Rating:    review.Rating,
		Comment:   review.Comment,
		Status:    string(review.Status),
		CreatedAt: formatTime(review.CreatedAt),
	}
}

type newsPayload struct {
	ID          string `json:"id"`
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Summary     string `json:"summary,omitempty"`
	Body        string `json:"body,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	Published   bool   `json:"published"`
	PublishedAt string `json:"published_at,omitempty"`
}

func buildNewsPayload(post domain.NewsPost, includeBody bool) newsPayload {
	payload := newsPayload{
		ID:          post.ID,
		Slug:        post.Slug,
		Title:       post.Title,
		Summary:     post.Summary,
		ImageURL:    post.ImageURL,
		Published:   post.Published,
		PublishedAt: formatTime(post.PublishedAt),
	}
	if includeBody {
		payload.Body = post.Body
	}
	return payload
}

type bannerPayload struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	ImageURL string `json:"image_url"`
	LinkURL  string `json:"link_url,omitempty"`
	Position int    `json:"position"`
	IsActive bool   `json:"is_active"`
}

func buildBannerPayload(banner domain.Banner) bannerPayload {
	return bannerPayload{
		ID:       banner.ID,
		Title:    banner.Title,
		ImageURL: banner.ImageURL,
		LinkURL:  banner.LinkURL,
		Position: banner.Position,
		IsActive: banner.IsActive,
	}
}

type couponPayload struct {
	Code          string  `json:"code"`
	Type          string  `json:"type"`
	Value         float64 `json:"value"`
	MaxUses       *int    `json:"max_uses,omitempty"`
	UsedCount     int     `json:"used_count"`
	ValidFrom     string  `json:"valid_from"`
	ValidTo       string  `json:"valid_to"`
	MinOrderValue float64 `json:"min_order_value"`
	IsActive      bool    `json:"is_active"`
}

func buildCouponPayload(coupon domain.Coupon) couponPayload {
	return couponPayload{
		Code:          coupon.Code,
		Type:          string(coupon.Type),
		Value:         coupon.Value,
		MaxUses:       coupon.MaxUses,
		UsedCount:     coupon.UsedCount,
		ValidFrom:     formatTime(coupon.ValidFrom),
		ValidTo:       formatTime(coupon.ValidTo),
		MinOrderValue: coupon.MinOrderValue,
		IsActive:      coupon.IsActive,
	}
}

type cartItemPayload struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Variant   string `json:"variant,omitempty"`
}

type cartPayload struct {
	UserID    string            `json:"user_id"`
	Items     []cartItemPayload `json:"items"`
	UpdatedAt string            `json:"updated_at,omitempty"`
}

func buildCartPayload(cart domain.Cart) cartPayload {
	items := make([]cartItemPayload, 0, len(cart.Items))
	for _, item := range cart.Items {
		items = append(items, cartItemPayload{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Variant:   item.Variant,
		})
	}
	return cartPayload{
		UserID:    cart.UserID,
		Items:     items,
		UpdatedAt: formatTime(cart.UpdatedAt),
	}
}

type profilePayload struct {
	UID         string `json:"uid"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Address     string `json:"address,omitempty"`
	Role        string `json:"role"`
}

func buildProfilePayload(profile domain.UserProfile) profilePayload {
	return profilePayload{
		UID:         profile.UID,
		Email:       profile.Email,
		DisplayName: profile.DisplayName,
		Phone:       profile.Phone,
		Address:     profile.Address,
		Role:        profile.Role,
	}
}
