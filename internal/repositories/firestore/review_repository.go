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

const reviewsCollection = "reviews"

type reviewDocument struct {
	ProductID string    `firestore:"productId"`
	UserID    string    `firestore:"userId"`
	UserName  string    `firestore:"userName"`
	Rating    int       `firestore:"rating"`
	Comment   string    `firestore:"comment"`
	Status    string    `firestore:"status"`
	CreatedAt time.Time `firestore:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

// ReviewRepository persists product reviews.
type ReviewRepository struct {
	provider *pfirestore.Provider
}

// NewReviewRepository constructs a Firestore-backed review repository.
func NewReviewRepository(provider *pfirestore.Provider) (*ReviewRepository, error) {
	if provider == nil {
		return nil, errors.New("review repository requires firestore provider")
	}
	return &ReviewRepository{provider: provider}, nil
}

// Insert creates the review document.
func (r *ReviewRepository) Insert(ctx context.Context, review *domain.Review) error {
	if review == nil || review.ID == "" {
		return errors.New("review id is required")
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return err
	}
	_, err = client.Collection(reviewsCollection).Doc(review.ID).Create(ctx, encodeReview(review))
	if err != nil {
		return pfirestore.WrapError("reviews.insert", err)
	}
	return nil
}

// Update rewrites the review document (moderation status changes).
func (r *ReviewRepository) Update(ctx context.Context, review *domain.Review) error {
	if review == nil || review.ID == "" {
		return errors.New("review id is required")
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return err
	}
	_, err = client.Collection(reviewsCollection).Doc(review.ID).Set(ctx, encodeReview(review))
	if err != nil {
		return pfirestore.WrapError("reviews.update", err)
	}
	return nil
}

// FindByID loads one review.
func (r *ReviewRepository) FindByID(ctx context.Context, id string) (*domain.Review, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, pfirestore.NotFoundError("reviews.findByID")
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, err
	}
	snapshot, err := client.Collection(reviewsCollection).Doc(id).Get(ctx)
	if err != nil {
		return nil, pfirestore.WrapError("reviews.findByID", err)
	}
	return decodeReview(snapshot)
}

// List returns reviews newest first, filtered by product and status.
func (r *ReviewRepository) List(ctx context.Context, filter repositories.ReviewListFilter) (domain.CursorPage[domain.Review], error) {
	var page domain.CursorPage[domain.Review]

	client, err := r.provider.Client(ctx)
	if err != nil {
		return page, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}

	query := client.Collection(reviewsCollection).Query
	if filter.ProductID != "" {
		query = query.Where("productId", "==", filter.ProductID)
	}
	if filter.Status != "" {
		query = query.Where("status", "==", string(filter.Status))
	}
	query = query.OrderBy("createdAt", firestore.Desc)

	if filter.Cursor != "" {
		cursorSnap, err := client.Collection(reviewsCollection).Doc(filter.Cursor).Get(ctx)
		if err != nil {
			if status.Code(err) != codes.NotFound {
				return page, pfirestore.WrapError("reviews.list", err)
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
			return page, pfirestore.WrapError("reviews.list", err)
		}
		if len(page.Items) == limit {
			page.NextCursor = page.Items[len(page.Items)-1].ID
			break
		}
		review, err := decodeReview(snapshot)
		if err != nil {
			return page, err
		}
		page.Items = append(page.Items, *review)
	}
	return page, nil
}

func encodeReview(review *domain.Review) reviewDocument {
	return reviewDocument{
		ProductID: review.ProductID,
		UserID:    review.UserID,
		UserName:  review.UserName,
		Rating:    review.Rating,
		Comment:   review.Comment,
		Status:    string(review.Status),
		CreatedAt: review.CreatedAt,
		UpdatedAt: review.UpdatedAt,
	}
}

func decodeReview(snapshot *firestore.DocumentSnapshot) (*domain.Review, error) {
	var doc reviewDocument
	if err := snapshot.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("decode review %s: %w", snapshot.Ref.ID, err)
	}
	return &domain.Review{
		ID:        snapshot.Ref.ID,
		ProductID: doc.ProductID,
		UserID:    doc.UserID,
		UserName:  doc.UserName,
		Rating:    doc.Rating,
		Comment:   doc.Comment,
		Status:    domain.ReviewStatus(doc.Status),
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}, nil
}
