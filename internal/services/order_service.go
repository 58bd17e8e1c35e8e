package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/minashop/api/internal/domain"
	"github.com/minashop/api/internal/platform/config"
	"github.com/minashop/api/internal/platform/events"
	"github.com/minashop/api/internal/repositories"
)

// Actor roles recognised by the transition table.
const (
	ActorRoleCustomer = "customer"
	ActorRoleAdmin    = "admin"
)

const (
	codeRetryAttempts = 10
	codeRetryDelay    = 50 * time.Millisecond
	orderIDPrefix     = "ord_"
)

// statusRank orders the forward lifecycle. Cancelled sits outside the
// sequence and is reachable as a jump.
var statusRank = map[domain.OrderStatus]int{
	domain.OrderStatusPending:    0,
	domain.OrderStatusProcessing: 1,
	domain.OrderStatusHandover:   2,
	domain.OrderStatusShipping:   3,
	domain.OrderStatusDelivered:  4,
	domain.OrderStatusReceived:   5,
}

// customerTransitions is the explicit (currentStatus -> allowedNext) table
// for customer-initiated changes: cancel early, confirm receipt late.
var customerTransitions = map[domain.OrderStatus][]domain.OrderStatus{
	domain.OrderStatusPending:    {domain.OrderStatusCancelled},
	domain.OrderStatusProcessing: {domain.OrderStatusCancelled},
	domain.OrderStatusDelivered:  {domain.OrderStatusReceived},
}

// DraftItem is a checkout line item before numeric coercion. Price fields
// are any-typed because upstream encodings vary (number, string, tagged
// decimal object); they are normalised through domain.CoerceAmount.
type DraftItem struct {
	ProductID string
	Name      string
	Image     string
	Price     any
	OldPrice  any
	Quantity  int
	Variant   string
}

// OrderDraft is the validated-and-priced input to order creation.
type OrderDraft struct {
	UserID        string
	Items         []DraftItem
	ShippingInfo  domain.ShippingInfo
	PaymentMethod domain.PaymentMethod
	CouponCode    string
}

// TransitionRequest asks for one status change on behalf of an actor.
type TransitionRequest struct {
	OrderID   string
	NewStatus domain.OrderStatus
	Note      string
	ActorID   string
	ActorRole string
}

// OrderService owns order creation, status progression, and payment
// reconciliation.
type OrderService interface {
	Create(ctx context.Context, draft OrderDraft) (*domain.Order, error)
	Get(ctx context.Context, id string) (*domain.Order, error)
	GetForUser(ctx context.Context, id, userID string) (*domain.Order, error)
	List(ctx context.Context, filter repositories.OrderListFilter) (domain.CursorPage[domain.Order], error)
	Transition(ctx context.Context, req TransitionRequest) (*domain.Order, error)
	FindByMerchantRef(ctx context.Context, ref string) (*domain.Order, error)
	MarkPaid(ctx context.Context, ref, note string) (*domain.Order, error)
}

// OrderServiceDeps wires the order service dependencies.
type OrderServiceDeps struct {
	Orders   repositories.OrderRepository
	Counters CounterService
	Coupons  CouponService
	Events   OrderEventPublisher
	Shipping config.ShippingConfig
	Clock    Clock
	IDGen    IDGenerator
	Sleep    Sleeper
	Random   RandomDigits
	Logger   *zap.Logger
}

type orderService struct {
	orders   repositories.OrderRepository
	counters CounterService
	coupons  CouponService
	events   OrderEventPublisher
	shipping config.ShippingConfig
	clock    Clock
	idgen    IDGenerator
	sleep    Sleeper
	random   RandomDigits
	logger   *zap.Logger
}

// NewOrderService validates dependencies and returns the service.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Orders == nil {
		return nil, errors.New("order service requires order repository")
	}
	if deps.Counters == nil {
		return nil, errors.New("order service requires counter service")
	}
	if deps.Coupons == nil {
		return nil, errors.New("order service requires coupon service")
	}

	svc := &orderService{
		orders:   deps.Orders,
		counters: deps.Counters,
		coupons:  deps.Coupons,
		events:   deps.Events,
		shipping: deps.Shipping,
		clock:    deps.Clock,
		idgen:    deps.IDGen,
		sleep:    deps.Sleep,
		random:   deps.Random,
		logger:   deps.Logger,
	}
	if svc.clock == nil {
		svc.clock = defaultClock
	}
	if svc.idgen == nil {
		svc.idgen = NewULIDGenerator()
	}
	if svc.sleep == nil {
		svc.sleep = time.Sleep
	}
	if svc.random == nil {
		svc.random = defaultRandom
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	return svc, nil
}

// Create validates the draft, prices it, mints a unique order code, and
// persists the order as one document. The code assignment is a two-tier
// strategy: sequential codes with bounded retry on collision, then a
// timestamp+random fallback that trades readability for forward progress.
func (s *orderService) Create(ctx context.Context, draft OrderDraft) (*domain.Order, error) {
	items, shipping, err := validateDraft(draft)
	if err != nil {
		return nil, err
	}

	var subTotal float64
	for _, item := range items {
		subTotal += item.Price * float64(item.Quantity)
	}

	var quote CouponQuote
	if strings.TrimSpace(draft.CouponCode) != "" {
		quote, err = s.coupons.Quote(ctx, draft.CouponCode, subTotal)
		if err != nil {
			return nil, err
		}
	}

	now := s.clock()
	totals := domain.ComputeTotals(items, quote.Discount, s.shippingFee(subTotal))

	order := &domain.Order{
		ID:            orderIDPrefix + strings.ToLower(s.idgen()),
		UserID:        draft.UserID,
		Items:         items,
		ShippingInfo:  shipping,
		PaymentMethod: draft.PaymentMethod,
		PaymentStatus: domain.PaymentStatusUnpaid,
		Status:        domain.OrderStatusPending,
		Totals:        totals,
		StatusHistory: []domain.StatusHistoryEntry{{
			Status: domain.OrderStatusPending,
			Note:   "order created",
			At:     now,
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if quote.Valid {
		order.CouponCode = quote.Code
	}

	if err := s.persistWithCode(ctx, order, now); err != nil {
		return nil, err
	}

	// Apply-after-commit: usage is only consumed once the order document
	// exists. A failed increment is logged, not rolled into the order.
	if order.CouponCode != "" {
		if err := s.coupons.RegisterUse(ctx, order.CouponCode); err != nil {
			s.logger.Warn("coupon usage increment failed",
				zap.String("order_id", order.ID),
				zap.String("coupon", order.CouponCode),
				zap.Error(err),
			)
		}
	}

	s.publish(ctx, events.EventOrderCreated, order, "", "")
	return order, nil
}

func (s *orderService) persistWithCode(ctx context.Context, order *domain.Order, now time.Time) error {
	for attempt := 0; attempt < codeRetryAttempts; attempt++ {
		code, err := s.counters.NextOrderCode(ctx)
		if err != nil {
			return err
		}
		order.Code = code

		err = s.orders.Insert(ctx, order)
		if err == nil {
			return nil
		}
		if mapped := classifyRepoError(err, nil, ErrOrderConflict); !errors.Is(mapped, ErrOrderConflict) {
			return err
		}

		s.logger.Warn("order code collision, retrying",
			zap.String("code", code),
			zap.Int("attempt", attempt+1),
		)
		s.sleep(codeRetryDelay)
	}

	order.Code = s.fallbackCode(now)
	if err := s.orders.Insert(ctx, order); err != nil {
		return classifyRepoError(err, nil, ErrOrderConflict)
	}
	return nil
}

// fallbackCode derives a collision-resistant code from the last 8 digits
// of the millisecond timestamp plus a 3-digit random suffix.
func (s *orderService) fallbackCode(now time.Time) string {
	return fmt.Sprintf("MS%08d%03d", now.UnixMilli()%100000000, s.random(1000))
}

func (s *orderService) shippingFee(subTotal float64) float64 {
	if s.shipping.FreeThreshold > 0 && subTotal >= s.shipping.FreeThreshold {
		return 0
	}
	return s.shipping.DefaultFee
}

func (s *orderService) Get(ctx context.Context, id string) (*domain.Order, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, classifyRepoError(err, ErrOrderNotFound, nil)
	}
	return order, nil
}

// GetForUser loads an order and hides it behind NotFound when it belongs
// to someone else.
func (s *orderService) GetForUser(ctx context.Context, id, userID string) (*domain.Order, error) {
	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *orderService) List(ctx context.Context, filter repositories.OrderListFilter) (domain.CursorPage[domain.Order], error) {
	return s.orders.List(ctx, filter)
}

// Transition applies one status change after consulting the role-keyed
// transition table. Rejected transitions mutate nothing.
func (s *orderService) Transition(ctx context.Context, req TransitionRequest) (*domain.Order, error) {
	if _, known := statusRank[req.NewStatus]; !known && req.NewStatus != domain.OrderStatusCancelled {
		return nil, NewValidationError(map[string]string{"status": fmt.Sprintf("unknown status %q", req.NewStatus)})
	}

	order, err := s.Get(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if req.ActorRole == ActorRoleCustomer && order.UserID != req.ActorID {
		return nil, ErrOrderNotFound
	}

	if !canTransition(order.Status, req.NewStatus, req.ActorRole) {
		return nil, fmt.Errorf("%w: %s -> %s as %s", ErrInvalidTransition, order.Status, req.NewStatus, req.ActorRole)
	}

	now := s.clock()
	refundIntent := req.NewStatus == domain.OrderStatusCancelled && order.PaymentStatus == domain.PaymentStatusPaid

	note := strings.TrimSpace(req.Note)
	if note == "" && refundIntent {
		note = "refund requested"
	}

	entry := domain.StatusHistoryEntry{
		Status: req.NewStatus,
		Note:   note,
		At:     now,
	}
	if req.ActorRole == ActorRoleAdmin {
		entry.UpdatedBy = req.ActorID
	}

	order.Status = req.NewStatus
	order.StatusHistory = append(order.StatusHistory, entry)
	order.UpdatedAt = now

	if err := s.orders.Update(ctx, order); err != nil {
		return nil, classifyRepoError(err, ErrOrderNotFound, ErrOrderConflict)
	}

	eventNote := note
	if refundIntent {
		eventNote = "refund_requested"
	}
	s.publish(ctx, events.EventOrderStatusChanged, order, req.ActorID, eventNote)
	return order, nil
}

// FindByMerchantRef resolves the identifier a payment gateway echoes back:
// an exact code match first, then the internal id when the value is
// syntactically one.
func (s *orderService) FindByMerchantRef(ctx context.Context, ref string) (*domain.Order, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, ErrOrderNotFound
	}

	order, err := s.orders.FindByCode(ctx, ref)
	if err == nil {
		return order, nil
	}
	if mapped := classifyRepoError(err, ErrOrderNotFound, nil); !errors.Is(mapped, ErrOrderNotFound) {
		return nil, mapped
	}

	if strings.HasPrefix(ref, orderIDPrefix) {
		return s.Get(ctx, ref)
	}
	return nil, ErrOrderNotFound
}

// MarkPaid sets paymentStatus to paid and appends a history note. Repeat
// notifications for an already-paid order are accepted as no-ops.
func (s *orderService) MarkPaid(ctx context.Context, ref, note string) (*domain.Order, error) {
	order, err := s.FindByMerchantRef(ctx, ref)
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus == domain.PaymentStatusPaid {
		return order, nil
	}

	now := s.clock()
	note = strings.TrimSpace(note)
	if note == "" {
		note = "payment confirmed"
	}

	order.PaymentStatus = domain.PaymentStatusPaid
	order.StatusHistory = append(order.StatusHistory, domain.StatusHistoryEntry{
		Status: order.Status,
		Note:   note,
		At:     now,
	})
	order.UpdatedAt = now

	if err := s.orders.Update(ctx, order); err != nil {
		return nil, classifyRepoError(err, ErrOrderNotFound, ErrOrderConflict)
	}

	s.publish(ctx, events.EventOrderPaid, order, "", note)
	return order, nil
}

// canTransition consults the role-keyed transition table. Admins may move
// forward through the lifecycle or jump to cancelled from any non-terminal
// status; customers are limited to the explicit table above.
func canTransition(current, next domain.OrderStatus, role string) bool {
	if current == next {
		return false
	}
	switch role {
	case ActorRoleAdmin:
		if current == domain.OrderStatusCancelled || current == domain.OrderStatusReceived {
			return false
		}
		if next == domain.OrderStatusCancelled {
			return true
		}
		currentRank, ok := statusRank[current]
		if !ok {
			return false
		}
		nextRank, ok := statusRank[next]
		if !ok {
			return false
		}
		return nextRank > currentRank
	case ActorRoleCustomer:
		for _, allowed := range customerTransitions[current] {
			if allowed == next {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func validateDraft(draft OrderDraft) ([]domain.OrderItem, domain.ShippingInfo, error) {
	fields := map[string]string{}

	if strings.TrimSpace(draft.UserID) == "" {
		fields["userId"] = "user id is required"
	}
	if len(draft.Items) == 0 {
		fields["items"] = "order requires at least one item"
	}

	items := make([]domain.OrderItem, 0, len(draft.Items))
	for i, raw := range draft.Items {
		item := domain.OrderItem{
			ProductID: strings.TrimSpace(raw.ProductID),
			Name:      strings.TrimSpace(raw.Name),
			Image:     strings.TrimSpace(raw.Image),
			Price:     domain.CoerceAmount(raw.Price),
			OldPrice:  domain.CoerceAmount(raw.OldPrice),
			Quantity:  raw.Quantity,
			Variant:   strings.TrimSpace(raw.Variant),
		}
		if item.ProductID == "" {
			fields[fmt.Sprintf("items[%d].productId", i)] = "product id is required"
		}
		if item.Name == "" {
			fields[fmt.Sprintf("items[%d].name", i)] = "name is required"
		}
		if item.Quantity < 1 {
			fields[fmt.Sprintf("items[%d].quantity", i)] = "quantity must be at least 1"
		}
		if item.Price < 0 {
			fields[fmt.Sprintf("items[%d].price", i)] = "price must be non-negative"
		}
		items = append(items, item)
	}

	shipping := domain.ShippingInfo{
		Name:     strings.TrimSpace(draft.ShippingInfo.Name),
		Phone:    strings.TrimSpace(draft.ShippingInfo.Phone),
		Email:    strings.TrimSpace(draft.ShippingInfo.Email),
		Address:  strings.TrimSpace(draft.ShippingInfo.Address),
		City:     strings.TrimSpace(draft.ShippingInfo.City),
		District: strings.TrimSpace(draft.ShippingInfo.District),
		Ward:     strings.TrimSpace(draft.ShippingInfo.Ward),
		Note:     strings.TrimSpace(draft.ShippingInfo.Note),
	}
	required := map[string]string{
		"shippingInfo.name":     shipping.Name,
		"shippingInfo.phone":    shipping.Phone,
		"shippingInfo.address":  shipping.Address,
		"shippingInfo.city":     shipping.City,
		"shippingInfo.district": shipping.District,
		"shippingInfo.ward":     shipping.Ward,
	}
	for field, value := range required {
		if value == "" {
			fields[field] = "field is required"
		}
	}

	switch draft.PaymentMethod {
	case domain.PaymentMethodCOD, domain.PaymentMethodBankTransfer,
		domain.PaymentMethodPayoo, domain.PaymentMethodMomo, domain.PaymentMethodZaloPay:
	default:
		fields["paymentMethod"] = fmt.Sprintf("unknown payment method %q", draft.PaymentMethod)
	}

	if len(fields) > 0 {
		return nil, domain.ShippingInfo{}, NewValidationError(fields)
	}
	return items, shipping, nil
}

func (s *orderService) publish(ctx context.Context, name string, order *domain.Order, actor, note string) {
	if s.events == nil {
		return
	}
	event := events.OrderEvent{
		Event:         name,
		OrderID:       order.ID,
		OrderCode:     order.Code,
		UserID:        order.UserID,
		Status:        string(order.Status),
		PaymentStatus: string(order.PaymentStatus),
		Actor:         actor,
		Note:          note,
		OccurredAt:    order.UpdatedAt,
	}
	if _, err := s.events.PublishOrderEvent(ctx, event); err != nil {
		s.logger.Warn("order event publish failed",
			zap.String("event", name),
			zap.String("order_id", order.ID),
			zap.Error(err),
		)
	}
}
