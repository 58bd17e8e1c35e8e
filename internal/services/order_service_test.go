package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/minashop/api/internal/domain"
	"github.com/minashop/api/internal/platform/config"
	"github.com/minashop/api/internal/platform/events"
	"github.com/minashop/api/internal/repositories"
)

type stubOrderRepository struct {
	insertFn     func(ctx context.Context, order *domain.Order) error
	updateFn     func(ctx context.Context, order *domain.Order) error
	findByIDFn   func(ctx context.Context, id string) (*domain.Order, error)
	findByCodeFn func(ctx context.Context, code string) (*domain.Order, error)
	listFn       func(ctx context.Context, filter repositories.OrderListFilter) (domain.CursorPage[domain.Order], error)
}

func (s *stubOrderRepository) Insert(ctx context.Context, order *domain.Order) error {
	return s.insertFn(ctx, order)
}

func (s *stubOrderRepository) Update(ctx context.Context, order *domain.Order) error {
	return s.updateFn(ctx, order)
}

func (s *stubOrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	return s.findByIDFn(ctx, id)
}

func (s *stubOrderRepository) FindByCode(ctx context.Context, code string) (*domain.Order, error) {
	return s.findByCodeFn(ctx, code)
}

func (s *stubOrderRepository) List(ctx context.Context, filter repositories.OrderListFilter) (domain.CursorPage[domain.Order], error) {
	return s.listFn(ctx, filter)
}

type stubCouponService struct {
	quoteFn       func(ctx context.Context, code string, orderTotal float64) (CouponQuote, error)
	registerUseFn func(ctx context.Context, code string) error
	registerCalls int
}

func (s *stubCouponService) Quote(ctx context.Context, code string, orderTotal float64) (CouponQuote, error) {
	if s.quoteFn == nil {
		return CouponQuote{}, nil
	}
	return s.quoteFn(ctx, code, orderTotal)
}

func (s *stubCouponService) RegisterUse(ctx context.Context, code string) error {
	s.registerCalls++
	if s.registerUseFn == nil {
		return nil
	}
	return s.registerUseFn(ctx, code)
}

func (s *stubCouponService) Create(context.Context, CouponInput) (*domain.Coupon, error) {
	return nil, errors.New("not implemented")
}

func (s *stubCouponService) Update(context.Context, CouponInput) (*domain.Coupon, error) {
	return nil, errors.New("not implemented")
}

func (s *stubCouponService) Delete(context.Context, string) error {
	return errors.New("not implemented")
}

func (s *stubCouponService) Get(context.Context, string) (*domain.Coupon, error) {
	return nil, errors.New("not implemented")
}

func (s *stubCouponService) List(context.Context) ([]domain.Coupon, error) {
	return nil, errors.New("not implemented")
}

type sequenceCounter struct {
	value int64
}

func (s *sequenceCounter) Next(_ context.Context, _ string, step int64) (int64, error) {
	s.value += step
	return s.value, nil
}

func (s *sequenceCounter) NextOrderCode(ctx context.Context) (string, error) {
	seq, err := s.Next(ctx, "order", 1)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("MS%06d", seq), nil
}

type eventRecorder struct {
	published []events.OrderEvent
}

func (r *eventRecorder) PublishOrderEvent(_ context.Context, event events.OrderEvent) (string, error) {
	r.published = append(r.published, event)
	return "msg-1", nil
}

func validDraft() OrderDraft {
	return OrderDraft{
		UserID: "user-1",
		Items: []DraftItem{
			{ProductID: "prod-1", Name: "Áo sơ mi", Price: 200000.0, OldPrice: 250000.0, Quantity: 2},
			{ProductID: "prod-2", Name: "Quần tây", Price: 100000.0, OldPrice: 100000.0, Quantity: 1},
		},
		ShippingInfo: domain.ShippingInfo{
			Name:     "Nguyễn Văn A",
			Phone:    "0901234567",
			Address:  "12 Lê Lợi",
			City:     "Hồ Chí Minh",
			District: "Quận 1",
			Ward:     "Bến Nghé",
		},
		PaymentMethod: domain.PaymentMethodCOD,
	}
}

type orderServiceFixture struct {
	orders  *stubOrderRepository
	counter *sequenceCounter
	coupons *stubCouponService
	events  *eventRecorder
	now     time.Time
	slept   []time.Duration
}

func newOrderService(t *testing.T, fx *orderServiceFixture) OrderService {
	t.Helper()
	if fx.counter == nil {
		fx.counter = &sequenceCounter{}
	}
	if fx.coupons == nil {
		fx.coupons = &stubCouponService{}
	}
	if fx.events == nil {
		fx.events = &eventRecorder{}
	}
	if fx.now.IsZero() {
		fx.now = time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)
	}

	ids := 0
	svc, err := NewOrderService(OrderServiceDeps{
		Orders:   fx.orders,
		Counters: fx.counter,
		Coupons:  fx.coupons,
		Events:   fx.events,
		Shipping: config.ShippingConfig{DefaultFee: 30000, FreeThreshold: 1000000},
		Clock:    fixedClock(fx.now),
		IDGen: func() string {
			ids++
			return fmt.Sprintf("TESTULID%04d", ids)
		},
		Sleep:  func(d time.Duration) { fx.slept = append(fx.slept, d) },
		Random: func(int) int { return 7 },
	})
	if err != nil {
		t.Fatalf("NewOrderService returned error: %v", err)
	}
	return svc
}

func TestCreateMintsSequentialCode(t *testing.T) {
	var inserted *domain.Order
	fx := &orderServiceFixture{
		orders: &stubOrderRepository{insertFn: func(_ context.Context, order *domain.Order) error {
			inserted = order
			return nil
		}},
		counter: &sequenceCounter{value: 41},
	}
	svc := newOrderService(t, fx)

	order, err := svc.Create(context.Background(), validDraft())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if order.Code != "MS000042" {
		t.Fatalf("code = %q, want MS000042", order.Code)
	}
	if inserted == nil || inserted.Code != order.Code {
		t.Fatalf("persisted order code = %v, want %q", inserted, order.Code)
	}
	if order.Status != domain.OrderStatusPending {
		t.Fatalf("status = %q, want pending", order.Status)
	}
	if order.PaymentStatus != domain.PaymentStatusUnpaid {
		t.Fatalf("payment status = %q, want unpaid", order.PaymentStatus)
	}
	if len(order.StatusHistory) != 1 || order.StatusHistory[0].Status != domain.OrderStatusPending {
		t.Fatalf("history = %+v, want single pending entry", order.StatusHistory)
	}
	if !strings.HasPrefix(order.ID, "ord_") {
		t.Fatalf("id = %q, want ord_ prefix", order.ID)
	}
	if order.Totals.SubTotal != 500000 || order.Totals.ShippingFee != 30000 || order.Totals.GrandTotal != 530000 {
		t.Fatalf("totals = %+v", order.Totals)
	}
	if len(fx.events.published) != 1 || fx.events.published[0].Event != events.EventOrderCreated {
		t.Fatalf("events = %+v, want order.created", fx.events.published)
	}
}

func TestCreateAppliesCouponAfterPersist(t *testing.T) {
	insertDone := false
	fx := &orderServiceFixture{
		orders: &stubOrderRepository{insertFn: func(context.Context, *domain.Order) error {
			insertDone = true
			return nil
		}},
		coupons: &stubCouponService{
			quoteFn: func(_ context.Context, code string, orderTotal float64) (CouponQuote, error) {
				if orderTotal != 500000 {
					t.Fatalf("quote total = %v, want 500000", orderTotal)
				}
				return CouponQuote{Code: "SALE10", Valid: true, Discount: 50000}, nil
			},
			registerUseFn: func(_ context.Context, code string) error {
				if !insertDone {
					t.Fatal("RegisterUse called before order persisted")
				}
				if code != "SALE10" {
					t.Fatalf("RegisterUse code = %q, want SALE10", code)
				}
				return nil
			},
		},
	}
	svc := newOrderService(t, fx)

	draft := validDraft()
	draft.CouponCode = "sale10"
	order, err := svc.Create(context.Background(), draft)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if fx.coupons.registerCalls != 1 {
		t.Fatalf("RegisterUse calls = %d, want exactly 1", fx.coupons.registerCalls)
	}
	if order.CouponCode != "SALE10" {
		t.Fatalf("coupon code = %q, want SALE10", order.CouponCode)
	}
	if order.Totals.Discount != 50000 || order.Totals.GrandTotal != 480000 {
		t.Fatalf("totals = %+v, want discount 50000 grand 480000", order.Totals)
	}
}

func TestCreateIneligibleCouponYieldsZeroDiscount(t *testing.T) {
	fx := &orderServiceFixture{
		orders: &stubOrderRepository{insertFn: func(context.Context, *domain.Order) error { return nil }},
		coupons: &stubCouponService{
			quoteFn: func(context.Context, string, float64) (CouponQuote, error) {
				return CouponQuote{Code: "FLAT50K", Reason: CouponReasonMinOrderValue}, nil
			},
		},
	}
	svc := newOrderService(t, fx)

	draft := validDraft()
	draft.CouponCode = "FLAT50K"
	order, err := svc.Create(context.Background(), draft)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if order.CouponCode != "" {
		t.Fatalf("coupon code = %q, want empty for ineligible coupon", order.CouponCode)
	}
	if order.Totals.Discount != 0 {
		t.Fatalf("discount = %v, want 0", order.Totals.Discount)
	}
	if fx.coupons.registerCalls != 0 {
		t.Fatalf("RegisterUse calls = %d, want 0", fx.coupons.registerCalls)
	}
}

func TestCreateRetriesOnCodeCollision(t *testing.T) {
	attempts := 0
	fx := &orderServiceFixture{
		orders: &stubOrderRepository{insertFn: func(_ context.Context, order *domain.Order) error {
			attempts++
			if attempts <= 2 {
				return &fakeRepoError{conflict: true}
			}
			return nil
		}},
		counter: &sequenceCounter{value: 41},
	}
	svc := newOrderService(t, fx)

	order, err := svc.Create(context.Background(), validDraft())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	// Each retry re-mints the next sequence value.
	if order.Code != "MS000044" {
		t.Fatalf("code = %q, want MS000044 after two collisions", order.Code)
	}
	if len(fx.slept) != 2 {
		t.Fatalf("sleeps = %d, want 2", len(fx.slept))
	}
}

func TestCreateFallsBackToTimestampCode(t *testing.T) {
	attempts := 0
	var persisted *domain.Order
	fx := &orderServiceFixture{
		orders: &stubOrderRepository{insertFn: func(_ context.Context, order *domain.Order) error {
			attempts++
			if attempts <= 10 {
				return &fakeRepoError{conflict: true}
			}
			persisted = order
			return nil
		}},
	}
	svc := newOrderService(t, fx)

	order, err := svc.Create(context.Background(), validDraft())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	want := fmt.Sprintf("MS%08d%03d", fx.now.UnixMilli()%100000000, 7)
	if order.Code != want {
		t.Fatalf("fallback code = %q, want %q", order.Code, want)
	}
	if attempts != 11 {
		t.Fatalf("insert attempts = %d, want 10 sequential + 1 fallback", attempts)
	}
	if persisted == nil {
		t.Fatal("fallback order was not persisted")
	}
}

func TestCreatePropagatesNonConflictInsertError(t *testing.T) {
	fx := &orderServiceFixture{
		orders: &stubOrderRepository{insertFn: func(context.Context, *domain.Order) error {
			return &fakeRepoError{unavailable: true}
		}},
	}
	svc := newOrderService(t, fx)

	if _, err := svc.Create(context.Background(), validDraft()); err == nil {
		t.Fatal("expected error for unavailable repository")
	}
	if len(fx.slept) != 0 {
		t.Fatalf("sleeps = %d, want 0 (no retry on infrastructure error)", len(fx.slept))
	}
}

func TestCreateRejectsInvalidDraft(t *testing.T) {
	svc := newOrderService(t, &orderServiceFixture{orders: &stubOrderRepository{}})

	draft := OrderDraft{
		UserID:        "user-1",
		PaymentMethod: "paypal",
		Items: []DraftItem{
			{ProductID: "prod-1", Name: "Áo", Price: -5.0, Quantity: 0},
		},
	}
	_, err := svc.Create(context.Background(), draft)

	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	for _, field := range []string{"items[0].quantity", "paymentMethod", "shippingInfo.name", "shippingInfo.ward"} {
		if _, ok := validationErr.Fields[field]; !ok {
			t.Fatalf("missing validation field %q: %v", field, validationErr.Fields)
		}
	}
}

func TestCreateCoercesLenientAmounts(t *testing.T) {
	var inserted *domain.Order
	fx := &orderServiceFixture{
		orders: &stubOrderRepository{insertFn: func(_ context.Context, order *domain.Order) error {
			inserted = order
			return nil
		}},
	}
	svc := newOrderService(t, fx)

	draft := validDraft()
	draft.Items = []DraftItem{
		{ProductID: "prod-1", Name: "Áo", Price: "250000", OldPrice: map[string]any{"$numberDecimal": "300000"}, Quantity: 1},
		{ProductID: "prod-2", Name: "Nón", Price: "not-a-number", OldPrice: nil, Quantity: 2},
	}

	if _, err := svc.Create(context.Background(), draft); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if inserted.Items[0].Price != 250000 || inserted.Items[0].OldPrice != 300000 {
		t.Fatalf("item 0 = %+v, want coerced 250000/300000", inserted.Items[0])
	}
	if inserted.Items[1].Price != 0 {
		t.Fatalf("item 1 price = %v, want fallback 0", inserted.Items[1].Price)
	}
	if inserted.Totals.SubTotal != 250000 {
		t.Fatalf("subtotal = %v, want 250000", inserted.Totals.SubTotal)
	}
}

func storedOrder(status domain.OrderStatus) *domain.Order {
	return &domain.Order{
		ID:            "ord_existing",
		Code:          "MS000042",
		UserID:        "user-1",
		Status:        status,
		PaymentStatus: domain.PaymentStatusUnpaid,
		StatusHistory: []domain.StatusHistoryEntry{
			{Status: domain.OrderStatusPending, At: time.Date(2025, 6, 14, 9, 0, 0, 0, time.UTC)},
		},
	}
}

func transitionFixture(t *testing.T, current domain.OrderStatus) (OrderService, *orderServiceFixture, **domain.Order) {
	t.Helper()
	var updated *domain.Order
	fx := &orderServiceFixture{
		orders: &stubOrderRepository{
			findByIDFn: func(_ context.Context, id string) (*domain.Order, error) {
				if id != "ord_existing" {
					return nil, &fakeRepoError{notFound: true}
				}
				return storedOrder(current), nil
			},
			updateFn: func(_ context.Context, order *domain.Order) error {
				updated = order
				return nil
			},
		},
	}
	return newOrderService(t, fx), fx, &updated
}

func TestCustomerCancelFromPending(t *testing.T) {
	svc, fx, updated := transitionFixture(t, domain.OrderStatusPending)

	order, err := svc.Transition(context.Background(), TransitionRequest{
		OrderID:   "ord_existing",
		NewStatus: domain.OrderStatusCancelled,
		ActorID:   "user-1",
		ActorRole: ActorRoleCustomer,
	})
	if err != nil {
		t.Fatalf("Transition returned error: %v", err)
	}

	if order.Status != domain.OrderStatusCancelled {
		t.Fatalf("status = %q, want cancelled", order.Status)
	}
	if len(order.StatusHistory) != 2 {
		t.Fatalf("history length = %d, want 2", len(order.StatusHistory))
	}
	if order.StatusHistory[0].Status != domain.OrderStatusPending {
		t.Fatalf("existing history entry mutated: %+v", order.StatusHistory[0])
	}
	if *updated == nil {
		t.Fatal("order was not persisted")
	}
	if len(fx.events.published) != 1 || fx.events.published[0].Event != events.EventOrderStatusChanged {
		t.Fatalf("events = %+v", fx.events.published)
	}
}

func TestCustomerCancelFromShippingRejected(t *testing.T) {
	svc, _, updated := transitionFixture(t, domain.OrderStatusShipping)

	_, err := svc.Transition(context.Background(), TransitionRequest{
		OrderID:   "ord_existing",
		NewStatus: domain.OrderStatusCancelled,
		ActorID:   "user-1",
		ActorRole: ActorRoleCustomer,
	})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if *updated != nil {
		t.Fatal("rejected transition must not persist anything")
	}
}

func TestCustomerConfirmReceivedOnlyFromDelivered(t *testing.T) {
	svc, _, _ := transitionFixture(t, domain.OrderStatusDelivered)
	order, err := svc.Transition(context.Background(), TransitionRequest{
		OrderID:   "ord_existing",
		NewStatus: domain.OrderStatusReceived,
		ActorID:   "user-1",
		ActorRole: ActorRoleCustomer,
	})
	if err != nil {
		t.Fatalf("Transition returned error: %v", err)
	}
	if order.Status != domain.OrderStatusReceived {
		t.Fatalf("status = %q, want received", order.Status)
	}

	svc, _, _ = transitionFixture(t, domain.OrderStatusShipping)
	_, err = svc.Transition(context.Background(), TransitionRequest{
		OrderID:   "ord_existing",
		NewStatus: domain.OrderStatusReceived,
		ActorID:   "user-1",
		ActorRole: ActorRoleCustomer,
	})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestCustomerCannotTouchForeignOrder(t *testing.T) {
	svc, _, _ := transitionFixture(t, domain.OrderStatusPending)

	_, err := svc.Transition(context.Background(), TransitionRequest{
		OrderID:   "ord_existing",
		NewStatus: domain.OrderStatusCancelled,
		ActorID:   "someone-else",
		ActorRole: ActorRoleCustomer,
	})
	if !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestAdminForwardTransitionRecordsActor(t *testing.T) {
	svc, _, _ := transitionFixture(t, domain.OrderStatusProcessing)

	order, err := svc.Transition(context.Background(), TransitionRequest{
		OrderID:   "ord_existing",
		NewStatus: domain.OrderStatusShipping,
		Note:      "handed to GHN",
		ActorID:   "admin-9",
		ActorRole: ActorRoleAdmin,
	})
	if err != nil {
		t.Fatalf("Transition returned error: %v", err)
	}

	last := order.StatusHistory[len(order.StatusHistory)-1]
	if last.UpdatedBy != "admin-9" {
		t.Fatalf("updatedBy = %q, want admin-9", last.UpdatedBy)
	}
	if last.Note != "handed to GHN" {
		t.Fatalf("note = %q", last.Note)
	}
}

func TestAdminCannotMoveBackward(t *testing.T) {
	svc, _, updated := transitionFixture(t, domain.OrderStatusDelivered)

	_, err := svc.Transition(context.Background(), TransitionRequest{
		OrderID:   "ord_existing",
		NewStatus: domain.OrderStatusProcessing,
		ActorID:   "admin-9",
		ActorRole: ActorRoleAdmin,
	})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if *updated != nil {
		t.Fatal("rejected transition must not persist anything")
	}
}

func TestAdminCancelOfPaidOrderMarksRefundIntent(t *testing.T) {
	var updated *domain.Order
	fx := &orderServiceFixture{
		orders: &stubOrderRepository{
			findByIDFn: func(context.Context, string) (*domain.Order, error) {
				order := storedOrder(domain.OrderStatusProcessing)
				order.PaymentStatus = domain.PaymentStatusPaid
				order.CouponCode = "SALE10"
				return order, nil
			},
			updateFn: func(_ context.Context, order *domain.Order) error {
				updated = order
				return nil
			},
		},
	}
	svc := newOrderService(t, fx)

	order, err := svc.Transition(context.Background(), TransitionRequest{
		OrderID:   "ord_existing",
		NewStatus: domain.OrderStatusCancelled,
		ActorID:   "admin-9",
		ActorRole: ActorRoleAdmin,
	})
	if err != nil {
		t.Fatalf("Transition returned error: %v", err)
	}

	last := order.StatusHistory[len(order.StatusHistory)-1]
	if last.Note != "refund requested" {
		t.Fatalf("note = %q, want refund requested", last.Note)
	}
	if fx.events.published[0].Note != "refund_requested" {
		t.Fatalf("event note = %q, want refund_requested", fx.events.published[0].Note)
	}
	// Cancellation never returns the coupon use: usedCount stays consumed.
	if fx.coupons.registerCalls != 0 {
		t.Fatalf("coupon accounting touched on cancellation: %d calls", fx.coupons.registerCalls)
	}
	if updated.PaymentStatus != domain.PaymentStatusPaid {
		t.Fatalf("payment status = %q, refund is intent only", updated.PaymentStatus)
	}
}

func TestHistoryGrowsByExactlyOnePerTransition(t *testing.T) {
	current := storedOrder(domain.OrderStatusPending)
	var updates int
	fx := &orderServiceFixture{
		orders: &stubOrderRepository{
			findByIDFn: func(context.Context, string) (*domain.Order, error) {
				clone := *current
				clone.StatusHistory = append([]domain.StatusHistoryEntry(nil), current.StatusHistory...)
				return &clone, nil
			},
			updateFn: func(_ context.Context, order *domain.Order) error {
				updates++
				current = order
				return nil
			},
		},
	}
	svc := newOrderService(t, fx)

	steps := []domain.OrderStatus{
		domain.OrderStatusProcessing,
		domain.OrderStatusHandover,
		domain.OrderStatusShipping,
		domain.OrderStatusDelivered,
	}
	for i, next := range steps {
		order, err := svc.Transition(context.Background(), TransitionRequest{
			OrderID:   "ord_existing",
			NewStatus: next,
			ActorID:   "admin-9",
			ActorRole: ActorRoleAdmin,
		})
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if len(order.StatusHistory) != i+2 {
			t.Fatalf("step %d history length = %d, want %d", i, len(order.StatusHistory), i+2)
		}
	}
	if updates != len(steps) {
		t.Fatalf("updates = %d, want %d", updates, len(steps))
	}
}

func TestMarkPaidIsIdempotent(t *testing.T) {
	stored := storedOrder(domain.OrderStatusPending)
	var updates int
	fx := &orderServiceFixture{
		orders: &stubOrderRepository{
			findByCodeFn: func(_ context.Context, code string) (*domain.Order, error) {
				if code != "MS000042" {
					return nil, &fakeRepoError{notFound: true}
				}
				return stored, nil
			},
			updateFn: func(_ context.Context, order *domain.Order) error {
				updates++
				stored = order
				return nil
			},
		},
	}
	svc := newOrderService(t, fx)

	order, err := svc.MarkPaid(context.Background(), "MS000042", "momo notification")
	if err != nil {
		t.Fatalf("MarkPaid returned error: %v", err)
	}
	if order.PaymentStatus != domain.PaymentStatusPaid {
		t.Fatalf("payment status = %q, want paid", order.PaymentStatus)
	}
	if len(order.StatusHistory) != 2 {
		t.Fatalf("history length = %d, want note appended", len(order.StatusHistory))
	}

	again, err := svc.MarkPaid(context.Background(), "MS000042", "momo notification")
	if err != nil {
		t.Fatalf("second MarkPaid returned error: %v", err)
	}
	if updates != 1 {
		t.Fatalf("updates = %d, want 1 (second notification is a no-op)", updates)
	}
	if len(again.StatusHistory) != 2 {
		t.Fatalf("history length after replay = %d, want unchanged 2", len(again.StatusHistory))
	}
}

func TestFindByMerchantRefCodeThenID(t *testing.T) {
	fx := &orderServiceFixture{
		orders: &stubOrderRepository{
			findByCodeFn: func(context.Context, string) (*domain.Order, error) {
				return nil, &fakeRepoError{notFound: true}
			},
			findByIDFn: func(_ context.Context, id string) (*domain.Order, error) {
				if id == "ord_existing" {
					return storedOrder(domain.OrderStatusPending), nil
				}
				return nil, &fakeRepoError{notFound: true}
			},
		},
	}
	svc := newOrderService(t, fx)

	order, err := svc.FindByMerchantRef(context.Background(), "ord_existing")
	if err != nil {
		t.Fatalf("FindByMerchantRef returned error: %v", err)
	}
	if order.ID != "ord_existing" {
		t.Fatalf("order id = %q", order.ID)
	}

	if _, err := svc.FindByMerchantRef(context.Background(), "garbage-ref"); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}
