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
)

const (
	newsCollection    = "news"
	bannersCollection = "banners"
)

type newsDocument struct {
	Slug        string    `firestore:"slug"`
	Title       string    `firestore:"title"`
	Summary     string    `firestore:"summary,omitempty"`
	Body        string    `firestore:"body"`
	ImagePath   string    `firestore:"imagePath,omitempty"`
	Published   bool      `firestore:"published"`
	PublishedAt time.Time `firestore:"publishedAt"`
	CreatedAt   time.Time `firestore:"createdAt"`
	UpdatedAt   time.Time `firestore:"updatedAt"`
}

type bannerDocument struct {
	Title     string    `firestore:"title"`
	ImagePath string    `firestore:"imagePath"`
	LinkURL   string    `firestore:"linkUrl,omitempty"`
	Position  int       `firestore:"position"`
	IsActive  bool      `firestore:"isActive"`
	CreatedAt time.Time `firestore:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

// ContentRepository persists news posts and banners.
type ContentRepository struct {
	provider *pfirestore.Provider
}

// NewContentRepository constructs a Firestore-backed content repository.
func NewContentRepository(provider *pfirestore.Provider) (*ContentRepository, error) {
	if provider == nil {
		return nil, errors.New("content repository requires firestore provider")
	}
	return &ContentRepository{provider: provider}, nil
}

// InsertNews creates a news document.
func (r *ContentRepository) InsertNews(ctx context.Context, post *domain.NewsPost) error {
	if post == nil || post.ID == "" {
		return errors.New("news id is required")
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return err
	}
	_, err = client.Collection(newsCollection).Doc(post.ID).Create(ctx, encodeNews(post))
	if err != nil {
		return pfirestore.WrapError("news.insert", err)
	}
	return nil
}

// UpdateNews rewrites a news document.
func (r *ContentRepository) UpdateNews(ctx context.Context, post *domain.NewsPost) error {
	if post == nil || post.ID == "" {
		return errors.New("news id is required")
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return err
	}
	_, err = client.Collection(newsCollection).Doc(post.ID).Set(ctx, encodeNews(post))
	if err != nil {
		return pfirestore.WrapError("news.update", err)
	}
	return nil
}

// DeleteNews removes a news document.
func (r *ContentRepository) DeleteNews(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return pfirestore.NotFoundError("news.delete")
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return err
	}
	_, err = client.Collection(newsCollection).Doc(id).Delete(ctx, firestore.Exists)
	if err != nil {
		return pfirestore.WrapError("news.delete", err)
	}
	return nil
}

// FindNewsBySlug loads one news post by its slug.
func (r *ContentRepository) FindNewsBySlug(ctx context.Context, slug string) (*domain.NewsPost, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, pfirestore.NotFoundError("news.findBySlug")
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, err
	}

	iter := client.Collection(newsCollection).Where("slug", "==", slug).Limit(1).Documents(ctx)
	defer iter.Stop()

	snapshot, err := iter.Next()
	if errors.Is(err, iterator.Done) {
		return nil, pfirestore.NotFoundError("news.findBySlug")
	}
	if err != nil {
		return nil, pfirestore.WrapError("news.findBySlug", err)
	}
	return decodeNews(snapshot)
}

// ListNews returns news posts newest first.
func (r *ContentRepository) ListNews(ctx context.Context, publishedOnly bool, limit int, cursor string) (domain.CursorPage[domain.NewsPost], error) {
	var page domain.CursorPage[domain.NewsPost]

	client, err := r.provider.Client(ctx)
	if err != nil {
		return page, err
	}
	if limit <= 0 {
		limit = 20
	}

	query := client.Collection(newsCollection).Query
	if publishedOnly {
		query = query.Where("published", "==", true)
	}
	query = query.OrderBy("publishedAt", firestore.Desc)

	if cursor != "" {
		cursorSnap, err := client.Collection(newsCollection).Doc(cursor).Get(ctx)
		if err != nil {
			if status.Code(err) != codes.NotFound {
				return page, pfirestore.WrapError("news.list", err)
			}
		} else {
			query = query.StartAfter(cursorSnap.Data()["publishedAt"])
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
			return page, pfirestore.WrapError("news.list", err)
		}
		if len(page.Items) == limit {
			page.NextCursor = page.Items[len(page.Items)-1].ID
			break
		}
		post, err := decodeNews(snapshot)
		if err != nil {
			return page, err
		}
		page.Items = append(page.Items, *post)
	}
	return page, nil
}

// InsertBanner creates a banner document.
func (r *ContentRepository) InsertBanner(ctx context.Context, banner *domain.Banner) error {
	if banner == nil || banner.ID == "" {
		return errors.New("banner id is required")
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return err
	}
	_, err = client.Collection(bannersCollection).Doc(banner.ID).Create(ctx, encodeBanner(banner))
	if err != nil {
		return pfirestore.WrapError("banners.insert", err)
	}
	return nil
}

// UpdateBanner rewrites a banner document.
func (r *ContentRepository) UpdateBanner(ctx context.Context, banner *domain.Banner) error {
	if banner == nil || banner.ID == "" {
		return errors.New("banner id is required")
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return err
	}
	_, err = client.Collection(bannersCollection).Doc(banner.ID).Set(ctx, encodeBanner(banner))
	if err != nil {
		return pfirestore.WrapError("banners.update", err)
	}
	return nil
}

// DeleteBanner removes a banner document.
func (r *ContentRepository) DeleteBanner(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return pfirestore.NotFoundError("banners.delete")
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return err
	}
	_, err = client.Collection(bannersCollection).Doc(id).Delete(ctx, firestore.Exists)
	if err != nil {
		return pfirestore.WrapError("banners.delete", err)
	}
	return nil
}

// ListBanners returns banners ordered by position.
func (r *ContentRepository) ListBanners(ctx context.Context, activeOnly bool) ([]domain.Banner, error) {
	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, err
	}

	query := client.Collection(bannersCollection).Query
	if activeOnly {
		query = query.Where("isActive", "==", true)
	}
	query = query.OrderBy("position", firestore.Asc)

	iter := query.Documents(ctx)
	defer iter.Stop()

	var banners []domain.Banner
	for {
		snapshot, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, pfirestore.WrapError("banners.list", err)
		}
		banner, err := decodeBanner(snapshot)
		if err != nil {
			return nil, err
		}
		banners = append(banners, *banner)
	}
	return banners, nil
}

func encodeNews(post *domain.NewsPost) newsDocument {
	return newsDocument{
		Slug:        post.Slug,
		Title:       post.Title,
		Summary:     post.Summary,
		Body:        post.Body,
		ImagePath:   post.ImagePath,
		Published:   post.Published,
		PublishedAt: post.PublishedAt,
		CreatedAt:   post.CreatedAt,
		UpdatedAt:   post.UpdatedAt,
	}
}

func decodeNews(snapshot *firestore.DocumentSnapshot) (*domain.NewsPost, error) {
	var doc newsDocument
	if err := snapshot.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("decode news %s: %w", snapshot.Ref.ID, err)
	}
	return &domain.NewsPost{
		ID:          snapshot.Ref.ID,
		Slug:        doc.Slug,
		Title:       doc.Title,
		Summary:     doc.Summary,
		Body:        doc.Body,
		ImagePath:   doc.ImagePath,
		Published:   doc.Published,
		PublishedAt: doc.PublishedAt,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}, nil
}

func encodeBanner(banner *domain.Banner) bannerDocument {
	return bannerDocument{
		Title:     banner.Title,
		ImagePath: banner.ImagePath,
		LinkURL:   banner.LinkURL,
		Position:  banner.Position,
		IsActive:  banner.IsActive,
		CreatedAt: banner.CreatedAt,
		UpdatedAt: banner.UpdatedAt,
	}
}

func decodeBanner(snapshot *firestore.DocumentSnapshot) (*domain.Banner, error) {
	var doc bannerDocument
	if err := snapshot.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("decode banner %s: %w", snapshot.Ref.ID, err)
	}
	return &domain.Banner{
		ID:        snapshot.Ref.ID,
		Title:     doc.Title,
		ImagePath: doc.ImagePath,
		LinkURL:   doc.LinkURL,
		Position:  doc.Position,
		IsActive:  doc.IsActive,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}, nil
}
