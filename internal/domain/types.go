package domain

import "time"

// OrderStatus enumerates the lifecycle states an order moves through.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusHandover   OrderStatus = "handover_to_carrier"
	OrderStatusShipping   OrderStatus = "shipping"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusReceived   OrderStatus = "received"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// PaymentMethod identifies how the customer chose to pay.
type PaymentMethod string

const (
	PaymentMethodCOD          PaymentMethod = "cod"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodPayoo        PaymentMethod = "payoo"
	PaymentMethodMomo         PaymentMethod = "momo"
	PaymentMethodZaloPay      PaymentMethod = "zalopay"
)

// PaymentStatus tracks reconciliation with the payment provider.
type PaymentStatus string

const (
	PaymentStatusUnpaid   PaymentStatus = "unpaid"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// OrderItem is a line item snapshotted at order-creation time. It stays
// immutable even if the source product changes afterwards.
type OrderItem struct {
	ProductID string
	Name      string
	Image     string
	Price     float64
	OldPrice  float64
	Quantity  int
	Variant   string
}

// ShippingInfo carries the recipient details collected at checkout.
type ShippingInfo struct {
	Name     string
	Phone    string
	Email    string
	Address  string
	City     string
	District string
	Ward     string
	Note     string
}

// OrderTotals aggregates the monetary results of pricing an order.
// GrandTotal always equals max(0, Total + ShippingFee - Discount).
type OrderTotals struct {
	SubTotal    float64
	Total       float64
	Savings     float64
	ShippingFee float64
	Discount    float64
	GrandTotal  float64
}

// StatusHistoryEntry records one lifecycle transition. History is
// append-only; entries are never rewritten or reordered.
type StatusHistoryEntry struct {
	Status    OrderStatus
	Note      string
	UpdatedBy string
	At        time.Time
}

// Order is the persisted order aggregate. Code is the human-readable
// identifier shown to customers and carriers; ID is the storage identity.
type Order struct {
	ID            string
	Code          string
	UserID        string
	Items         []OrderItem
	ShippingInfo  ShippingInfo
	PaymentMethod PaymentMethod
	PaymentStatus PaymentStatus
	Status        OrderStatus
	CouponCode    string
	Totals        OrderTotals
	StatusHistory []StatusHistoryEntry
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CouponType distinguishes fixed-amount from percentage coupons.
type CouponType string

const (
	CouponTypeFixed   CouponType = "fixed"
	CouponTypePercent CouponType = "percent"
)

// Coupon is identified by its uppercase code. MaxUses nil means unlimited.
type Coupon struct {
	Code          string
	Type          CouponType
	Value         float64
	MaxUses       *int
	UsedCount     int
	ValidFrom     time.Time
	ValidTo       time.Time
	MinOrderValue float64
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Product is a catalog entry. SearchKeywords holds diacritics-stripped
// lowercase tokens derived from the name for prefix search.
type Product struct {
	ID             string
	Name           string
	Slug           string
	Description    string
	Images         []string
	Price          float64
	OldPrice       float64
	Category       string
	Variants       []string
	Stock          int
	IsActive       bool
	SearchKeywords []string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CartItem references a product plus the chosen quantity and variant.
type CartItem struct {
	ProductID string
	Quantity  int
	Variant   string
}

// Cart is the per-user cart document, keyed by the Firebase UID.
type Cart struct {
	UserID    string
	Items     []CartItem
	UpdatedAt time.Time
}

// ReviewStatus gates whether a review is publicly visible.
type ReviewStatus string

const (
	ReviewStatusPending  ReviewStatus = "pending"
	ReviewStatusApproved ReviewStatus = "approved"
	ReviewStatusHidden   ReviewStatus = "hidden"
)

// Review is a customer product review. Comment is stored sanitized.
type Review struct {
	ID        string
	ProductID string
	UserID    string
	UserName  string
	Rating    int
	Comment   string
	Status    ReviewStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewsPost is an editorial article. Body holds sanitized HTML.
type NewsPost struct {
	ID          string
	Slug        string
	Title       string
	Summary     string
	Body        string
	ImagePath   string
	ImageURL    string
	Published   bool
	PublishedAt time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Banner is a promotional slot rendered by the storefront carousel.
type Banner struct {
	ID        string
	Title     string
	ImagePath string
	ImageURL  string
	LinkURL   string
	Position  int
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserProfile mirrors the Firebase identity with storefront-specific fields.
type UserProfile struct {
	UID         string
	Email       string
	DisplayName string
	Phone       string
	Address     string
	Role        string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CursorPage is a generic page of results with an opaque continuation token.
type CursorPage[T any] struct {
	Items      []T
	NextCursor string
}
