package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/minashop/api/internal/domain"
	"github.com/minashop/api/internal/platform/auth"
	"github.com/minashop/api/internal/repositories"
	"github.com/minashop/api/internal/services"
)

type stubReviewsService struct {
	submitFn   func(ctx context.Context, input services.ReviewInput) (*domain.Review, error)
	listFn     func(ctx context.Context, filter repositories.ReviewListFilter) (domain.CursorPage[domain.Review], error)
	moderateFn func(ctx context.Context, id string, status domain.ReviewStatus) (*domain.Review, error)
}

func (s *stubReviewsService) Submit(ctx context.Context, input services.ReviewInput) (*domain.Review, error) {
	return s.submitFn(ctx, input)
}

func (s *stubReviewsService) ListPublic(ctx context.Context, productID string, limit int, cursor string) (domain.CursorPage[domain.Review], error) {
	return s.listFn(ctx, repositories.ReviewListFilter{ProductID: productID, Status: domain.ReviewStatusApproved, Limit: limit, Cursor: cursor})
}

func (s *stubReviewsService) List(ctx context.Context, filter repositories.ReviewListFilter) (domain.CursorPage[domain.Review], error) {
	return s.listFn(ctx, filter)
}

func (s *stubReviewsService) Moderate(ctx context.Context, id string, status domain.ReviewStatus) (*domain.Review, error) {
	return s.moderateFn(ctx, id, status)
}

type stubCatalogService struct {
	getFn    func(ctx context.Context, id string) (*domain.Product, error)
	listFn   func(ctx context.Context, filter repositories.ProductListFilter) (domain.CursorPage[domain.Product], error)
	createFn func(ctx context.Context, input services.ProductInput) (*domain.Product, error)
	updateFn func(ctx context.Context, input services.ProductInput) (*domain.Product, error)
	deleteFn func(ctx context.Context, id string) error
}

func (s *stubCatalogService) Get(ctx context.Context, id string) (*domain.Product, error) {
	return s.getFn(ctx, id)
}

func (s *stubCatalogService) GetPublic(ctx context.Context, id string) (*domain.Product, error) {
	return s.getFn(ctx, id)
}

func (s *stubCatalogService) List(ctx context.Context, filter repositories.ProductListFilter) (domain.CursorPage[domain.Product], error) {
	return s.listFn(ctx, filter)
}

func (s *stubCatalogService) Create(ctx context.Context, input services.ProductInput) (*domain.Product, error) {
	return s.createFn(ctx, input)
}

func (s *stubCatalogService) Update(ctx context.Context, input services.ProductInput) (*domain.Product, error) {
	return s.updateFn(ctx, input)
}

func (s *stubCatalogService) Delete(ctx context.Context, id string) error {
	return s.deleteFn(ctx, id)
}

func adminRequest(method, target string, body *bytes.Buffer) *http.Request {
	var req *http.Request
	if body == nil {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, body)
	}
	identity := &auth.Identity{UID: "admin-1", Roles: []string{auth.RoleAdmin}}
	return req.WithContext(auth.WithIdentity(req.Context(), identity))
}

func TestAdminHandlersOrderStatusTransition(t *testing.T) {
	router := chi.NewRouter()
	orders := &stubOrdersService{
		transitionFn: func(ctx context.Context, req services.TransitionRequest) (*domain.Order, error) {
			if req.OrderID != "TESTULID0001" {
				t.Fatalf("unexpected order id %s", req.OrderID)
			}
			if req.NewStatus != domain.OrderStatusProcessing {
				t.Fatalf("expected processing, got %s", req.NewStatus)
			}
			if req.ActorRole != services.ActorRoleAdmin {
				t.Fatalf("expected admin actor, got %s", req.ActorRole)
			}
			if req.ActorID != "admin-1" {
				t.Fatalf("expected actor admin-1, got %s", req.ActorID)
			}
			order := sampleOrder()
			order.Status = domain.OrderStatusProcessing
			order.StatusHistory = append(order.StatusHistory, domain.StatusHistoryEntry{
				Status:    domain.OrderStatusProcessing,
				Note:      req.Note,
				UpdatedBy: req.ActorID,
				At:        time.Date(2025, 6, 15, 11, 0, 0, 0, time.UTC),
			})
			return order, nil
		},
	}
	NewAdminHandlers(AdminHandlerDeps{Orders: orders}).Routes(router)

	body := bytes.NewBufferString(`{"status":"processing","note":"đã gọi xác nhận"}`)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, adminRequest(http.MethodPost, "/orders/TESTULID0001/status", body))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp orderPayload
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "processing" {
		t.Fatalf("expected processing, got %s", resp.Status)
	}
	if len(resp.StatusHistory) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(resp.StatusHistory))
	}
	if resp.StatusHistory[1].UpdatedBy != "admin-1" {
		t.Fatalf("expected history stamped with admin uid, got %q", resp.StatusHistory[1].UpdatedBy)
	}
}

func TestAdminHandlersListProductsIncludesInactive(t *testing.T) {
	router := chi.NewRouter()
	var captured repositories.ProductListFilter
	catalog := &stubCatalogService{
		listFn: func(ctx context.Context, filter repositories.ProductListFilter) (domain.CursorPage[domain.Product], error) {
			captured = filter
			return domain.CursorPage[domain.Product]{}, nil
		},
	}
	NewAdminHandlers(AdminHandlerDeps{Catalog: catalog}).Routes(router)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, adminRequest(http.MethodGet, "/products?category=ao-so-mi", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if !captured.IncludeInactive {
		t.Fatalf("expected admin listing to include inactive products")
	}
	if captured.Category != "ao-so-mi" {
		t.Fatalf("expected category filter, got %q", captured.Category)
	}
}

func TestAdminHandlersModerateReview(t *testing.T) {
	router := chi.NewRouter()
	reviews := &stubReviewsService{
		moderateFn: func(ctx context.Context, id string, status domain.ReviewStatus) (*domain.Review, error) {
			if id != "rev_1" {
				t.Fatalf("unexpected review id %s", id)
			}
			if status != domain.ReviewStatusApproved {
				t.Fatalf("expected approved, got %s", status)
			}
			return &domain.Review{ID: "rev_1", ProductID: "prd_1", Status: domain.ReviewStatusApproved, Rating: 5}, nil
		},
	}
	NewAdminHandlers(AdminHandlerDeps{Reviews: reviews}).Routes(router)

	body := bytes.NewBufferString(`{"status":"approved"}`)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, adminRequest(http.MethodPost, "/reviews/rev_1/moderate", body))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp reviewPayload
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "approved" {
		t.Fatalf("expected approved, got %s", resp.Status)
	}
}

func TestAdminHandlersCouponCreateRejectsBadTimestamp(t *testing.T) {
	router := chi.NewRouter()
	NewAdminHandlers(AdminHandlerDeps{}).Routes(router)

	body := bytes.NewBufferString(`{"code":"SALE10","type":"percent","value":10,"valid_from":"not-a-time"}`)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, adminRequest(http.MethodPost, "/coupons", body))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}
