package services

import (
	"context"
	"errors"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/minashop/api/internal/domain"
	"github.com/minashop/api/internal/repositories"
)

// ReviewInput is a customer review submission.
type ReviewInput struct {
	ProductID string
	UserID    string
	UserName  string
	Rating    int
	Comment   string
}

// ReviewService owns product reviews and their moderation queue. New
// reviews start pending and become visible only once approved.
type ReviewService interface {
	Submit(ctx context.Context, input ReviewInput) (*domain.Review, error)
	// ListPublic returns approved reviews for a product.
	ListPublic(ctx context.Context, productID string, limit int, cursor string) (domain.CursorPage[domain.Review], error)
	List(ctx context.Context, filter repositories.ReviewListFilter) (domain.CursorPage[domain.Review], error)
	Moderate(ctx context.Context, id string, status domain.ReviewStatus) (*domain.Review, error)
}

// ReviewServiceDeps wires the review service dependencies.
type ReviewServiceDeps struct {
	Reviews repositories.ReviewRepository
	Catalog CatalogService
	Clock   Clock
	IDGen   IDGenerator
}

type reviewService struct {
	reviews   repositories.ReviewRepository
	catalog   CatalogService
	sanitizer *bluemonday.Policy
	clock     Clock
	idgen     IDGenerator
}

// NewReviewService validates dependencies and returns the service.
func NewReviewService(deps ReviewServiceDeps) (ReviewService, error) {
	if deps.Reviews == nil {
		return nil, errors.New("review service requires review repository")
	}
	if deps.Catalog == nil {
		return nil, errors.New("review service requires catalog service")
	}
	svc := &reviewService{
		reviews: deps.Reviews,
		catalog: deps.Catalog,
		// Comments are plain text; strip every tag.
		sanitizer: bluemonday.StrictPolicy(),
		clock:     deps.Clock,
		idgen:     deps.IDGen,
	}
	if svc.clock == nil {
		svc.clock = defaultClock
	}
	if svc.idgen == nil {
		svc.idgen = NewULIDGenerator()
	}
	return svc, nil
}

func (s *reviewService) Submit(ctx context.Context, input ReviewInput) (*domain.Review, error) {
	fields := map[string]string{}
	if strings.TrimSpace(input.ProductID) == "" {
		fields["productId"] = "product id is required"
	}
	if strings.TrimSpace(input.UserID) == "" {
		fields["userId"] = "user id is required"
	}
	if input.Rating < 1 || input.Rating > 5 {
		fields["rating"] = "rating must be between 1 and 5"
	}
	comment := strings.TrimSpace(s.sanitizer.Sanitize(input.Comment))
	if comment == "" {
		fields["comment"] = "comment is required"
	}
	if len(fields) > 0 {
		return nil, NewValidationError(fields)
	}

	if _, err := s.catalog.GetPublic(ctx, input.ProductID); err != nil {
		return nil, err
	}

	now := s.clock()
	review := &domain.Review{
		ID:        "rev_" + strings.ToLower(s.idgen()),
		ProductID: input.ProductID,
		UserID:    input.UserID,
		UserName:  strings.TrimSpace(input.UserName),
		Rating:    input.Rating,
		Comment:   comment,
		Status:    domain.ReviewStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.reviews.Insert(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

func (s *reviewService) ListPublic(ctx context.Context, productID string, limit int, cursor string) (domain.CursorPage[domain.Review], error) {
	return s.reviews.List(ctx, repositories.ReviewListFilter{
		ProductID: productID,
		Status:    domain.ReviewStatusApproved,
		Limit:     limit,
		Cursor:    cursor,
	})
}

func (s *reviewService) List(ctx context.Context, filter repositories.ReviewListFilter) (domain.CursorPage[domain.Review], error) {
	return s.reviews.List(ctx, filter)
}

func (s *reviewService) Moderate(ctx context.Context, id string, status domain.ReviewStatus) (*domain.Review, error) {
	switch status {
	case domain.ReviewStatusApproved, domain.ReviewStatusHidden, domain.ReviewStatusPending:
	default:
		return nil, NewValidationError(map[string]string{"status": "unknown review status"})
	}

	review, err := s.reviews.FindByID(ctx, id)
	if err != nil {
		return nil, classifyRepoError(err, ErrReviewNotFound, nil)
	}

	review.Status = status
	review.UpdatedAt = s.clock()
	if err := s.reviews.Update(ctx, review); err != nil {
		return nil, classifyRepoError(err, ErrReviewNotFound, nil)
	}
	return review, nil
}
