package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/minashop/api/internal/domain"
	pfirestore "github.com/minashop/api/internal/platform/firestore"
	"github.com/minashop/api/internal/repositories"
)

const (
	ordersCollection     = "orders"
	orderCodesCollection = "orderCodes"
)

type orderItemDocument struct {
	ProductID string  `firestore:"productId"`
	Name      string  `firestore:"name"`
	Image     string  `firestore:"image"`
	Price     float64 `firestore:"price"`
	OldPrice  float64 `firestore:"oldPrice"`
	Quantity  int     `firestore:"quantity"`
	Variant   string  `firestore:"variant,omitempty"`
}

type shippingInfoDocument struct {
	Name     string `firestore:"name"`
	Phone    string `firestore:"phone"`
	Email    string `firestore:"email,omitempty"`
	Address  string `firestore:"address"`
	City     string `firestore:"city"`
	District string `firestore:"district"`
	Ward     string `firestore:"ward"`
	Note     string `firestore:"note,omitempty"`
}

type orderTotalsDocument struct {
	SubTotal    float64 `firestore:"subTotal"`
	Total       float64 `firestore:"total"`
	Savings     float64 `firestore:"savings"`
	ShippingFee float64 `firestore:"shippingFee"`
	Discount    float64 `firestore:"discount"`
	GrandTotal  float64 `firestore:"grandTotal"`
}

type statusHistoryDocument struct {
	Status    string    `firestore:"status"`
	Note      string    `firestore:"note,omitempty"`
	UpdatedBy string    `firestore:"updatedBy,omitempty"`
	At        time.Time `firestore:"at"`
}

type orderDocument struct {
	Code          string                  `firestore:"code"`
	UserID        string                  `firestore:"userId"`
	Items         []orderItemDocument     `firestore:"items"`
	ShippingInfo  shippingInfoDocument    `firestore:"shippingInfo"`
	PaymentMethod string                  `firestore:"paymentMethod"`
	PaymentStatus string                  `firestore:"paymentStatus"`
	Status        string                  `firestore:"status"`
	CouponCode    string                  `firestore:"couponCode,omitempty"`
	Totals        orderTotalsDocument     `firestore:"totals"`
	StatusHistory []statusHistoryDocument `firestore:"statusHistory"`
	CreatedAt     time.Time               `firestore:"createdAt"`
	UpdatedAt     time.Time               `firestore:"updatedAt"`
}

// OrderRepository persists orders and the code-uniqueness markers.
type OrderRepository struct {
	provider *pfirestore.Provider
}

// NewOrderRepository constructs a Firestore-backed order repository.
func NewOrderRepository(provider *pfirestore.Provider) (*OrderRepository, error) {
	if provider == nil {
		return nil, errors.New("order repository requires firestore provider")
	}
	return &OrderRepository{provider: provider}, nil
}

// Insert writes the order document and claims its code inside one
// transaction. A taken code fails the marker create with AlreadyExists,
// which surfaces as a conflict so the caller can retry with a new code.
func (r *OrderRepository) Insert(ctx context.Context, order *domain.Order) error {
	if order == nil || order.ID == "" || order.Code == "" {
		return errors.New("order id and code are required")
	}

	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		client, err := r.provider.Client(ctx)
		if err != nil {
			return err
		}

		codeRef := client.Collection(orderCodesCollection).Doc(order.Code)
		if err := tx.Create(codeRef, map[string]any{
			"orderId":   order.ID,
			"createdAt": order.CreatedAt,
		}); err != nil {
			return err
		}

		orderRef := client.Collection(ordersCollection).Doc(order.ID)
		return tx.Create(orderRef, encodeOrder(order))
	})
	if err != nil {
		return pfirestore.WrapError("orders.insert", err)
	}
	return nil
}

// Update rewrites the full order document. Code and ID never change.
func (r *OrderRepository) Update(ctx context.Context, order *domain.Order) error {
	if order == nil || order.ID == "" {
		return errors.New("order id is required")
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return err
	}
	_, err = client.Collection(ordersCollection).Doc(order.ID).Set(ctx, encodeOrder(order))
	if err != nil {
		return pfirestore.WrapError("orders.update", err)
	}
	return nil
}

// FindByID loads one order by its storage identifier.
func (r *OrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, pfirestore.NotFoundError("orders.findByID")
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, err
	}
	snapshot, err := client.Collection(ordersCollection).Doc(id).Get(ctx)
	if err != nil {
		return nil, pfirestore.WrapError("orders.findByID", err)
	}
	return decodeOrder(snapshot)
}

// FindByCode loads one order by its human-readable code.
func (r *OrderRepository) FindByCode(ctx context.Context, code string) (*domain.Order, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, pfirestore.NotFoundError("orders.findByCode")
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, err
	}

	iter := client.Collection(ordersCollection).Where("code", "==", code).Limit(1).Documents(ctx)
	defer iter.Stop()

	snapshot, err := iter.Next()
	if errors.Is(err, iterator.Done) {
		return nil, pfirestore.NotFoundError("orders.findByCode")
	}
	if err != nil {
		return nil, pfirestore.WrapError("orders.findByCode", err)
	}
	return decodeOrder(snapshot)
}

// List returns orders newest first, optionally filtered by owner and
// status, with cursor-based continuation.
func (r *OrderRepository) List(ctx context.Context, filter repositories.OrderListFilter) (domain.CursorPage[domain.Order], error) {
	var page domain.CursorPage[domain.Order]

	client, err := r.provider.Client(ctx)
	if err != nil {
		return page, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}

	query := client.Collection(ordersCollection).Query
	if filter.UserID != "" {
		query = query.Where("userId", "==", filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status", "==", string(filter.Status))
	}
	query = query.OrderBy("createdAt", firestore.Desc)

	if filter.Cursor != "" {
		cursorSnap, err := client.Collection(ordersCollection).Doc(filter.Cursor).Get(ctx)
		if err != nil {
			if status.Code(err) != codes.NotFound {
				return page, pfirestore.WrapError("orders.list", err)
			}
		} else {
			query = query.StartAfter(cursorSnap.Data()["createdAt"])
		}
	}

	iter := query.Limit(limit + 1).Documents(ctx)
	defer iter.Stop()

	for {
		snapshot, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return page, pfirestore.WrapError("orders.list", err)
		}
		if len(page.Items) == limit {
			page.NextCursor = page.Items[len(page.Items)-1].ID
			break
		}
		order, err := decodeOrder(snapshot)
		if err != nil {
			return page, err
		}
		page.Items = append(page.Items, *order)
	}
	return page, nil
}

func encodeOrder(order *domain.Order) orderDocument {
	doc := orderDocument{
		Code:          order.Code,
		UserID:        order.UserID,
		PaymentMethod: string(order.PaymentMethod),
		PaymentStatus: string(order.PaymentStatus),
		Status:        string(order.Status),
		CouponCode:    order.CouponCode,
		ShippingInfo:  shippingInfoDocument(order.ShippingInfo),
		Totals:        orderTotalsDocument(order.Totals),
		CreatedAt:     order.CreatedAt,
		UpdatedAt:     order.UpdatedAt,
	}
	doc.Items = make([]orderItemDocument, 0, len(order.Items))
	for _, item := range order.Items {
		doc.Items = append(doc.Items, orderItemDocument(item))
	}
	doc.StatusHistory = make([]statusHistoryDocument, 0, len(order.StatusHistory))
	for _, entry := range order.StatusHistory {
		doc.StatusHistory = append(doc.StatusHistory, statusHistoryDocument{
			Status:    string(entry.Status),
			Note:      entry.Note,
			UpdatedBy: entry.UpdatedBy,
			At:        entry.At,
		})
	}
	return doc
}

func decodeOrder(snapshot *firestore.DocumentSnapshot) (*domain.Order, error) {
	var doc orderDocument
	if err := snapshot.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("decode order %s: %w", snapshot.Ref.ID, err)
	}

	order := &domain.Order{
		ID:            snapshot.Ref.ID,
		Code:          doc.Code,
		UserID:        doc.UserID,
		ShippingInfo:  domain.ShippingInfo(doc.ShippingInfo),
		PaymentMethod: domain.PaymentMethod(doc.PaymentMethod),
		PaymentStatus: domain.PaymentStatus(doc.PaymentStatus),
		Status:        domain.OrderStatus(doc.Status),
		CouponCode:    doc.CouponCode,
		Totals:        domain.OrderTotals(doc.Totals),
		CreatedAt:     doc.CreatedAt,
		UpdatedAt:     doc.UpdatedAt,
	}
	order.Items = make([]domain.OrderItem, 0, len(doc.Items))
	for _, item := range doc.Items {
		order.Items = append(order.Items, domain.OrderItem(item))
	}
	order.StatusHistory = make([]domain.StatusHistoryEntry, 0, len(doc.StatusHistory))
	for _, entry := range doc.StatusHistory {
		order.StatusHistory = append(order.StatusHistory, domain.StatusHistoryEntry{
			Status:    domain.OrderStatus(entry.Status),
			Note:      entry.Note,
			UpdatedBy: entry.UpdatedBy,
			At:        entry.At,
		})
	}
	return order, nil
}
