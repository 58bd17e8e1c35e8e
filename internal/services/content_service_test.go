package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/minashop/api/internal/domain"
)

type stubContentRepository struct {
	insertNewsFn     func(ctx context.Context, post *domain.NewsPost) error
	updateNewsFn     func(ctx context.Context, post *domain.NewsPost) error
	deleteNewsFn     func(ctx context.Context, id string) error
	findNewsBySlugFn func(ctx context.Context, slug string) (*domain.NewsPost, error)
	listNewsFn       func(ctx context.Context, publishedOnly bool, limit int, cursor string) (domain.CursorPage[domain.NewsPost], error)
	insertBannerFn   func(ctx context.Context, banner *domain.Banner) error
	updateBannerFn   func(ctx context.Context, banner *domain.Banner) error
	deleteBannerFn   func(ctx context.Context, id string) error
	listBannersFn    func(ctx context.Context, activeOnly bool) ([]domain.Banner, error)
}

func (s *stubContentRepository) InsertNews(ctx context.Context, post *domain.NewsPost) error {
	return s.insertNewsFn(ctx, post)
}

func (s *stubContentRepository) UpdateNews(ctx context.Context, post *domain.NewsPost) error {
	return s.updateNewsFn(ctx, post)
}

func (s *stubContentRepository) DeleteNews(ctx context.Context, id string) error {
	return s.deleteNewsFn(ctx, id)
}

func (s *stubContentRepository) FindNewsBySlug(ctx context.Context, slug string) (*domain.NewsPost, error) {
	return s.findNewsBySlugFn(ctx, slug)
}

func (s *stubContentRepository) ListNews(ctx context.Context, publishedOnly bool, limit int, cursor string) (domain.CursorPage[domain.NewsPost], error) {
	return s.listNewsFn(ctx, publishedOnly, limit, cursor)
}

func (s *stubContentRepository) InsertBanner(ctx context.Context, banner *domain.Banner) error {
	return s.insertBannerFn(ctx, banner)
}

func (s *stubContentRepository) UpdateBanner(ctx context.Context, banner *domain.Banner) error {
	return s.updateBannerFn(ctx, banner)
}

func (s *stubContentRepository) DeleteBanner(ctx context.Context, id string) error {
	return s.deleteBannerFn(ctx, id)
}

func (s *stubContentRepository) ListBanners(ctx context.Context, activeOnly bool) ([]domain.Banner, error) {
	return s.listBannersFn(ctx, activeOnly)
}

type stubSigner struct {
	err error
}

func (s *stubSigner) SignedReadURL(objectPath string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "https://signed.example/" + objectPath, nil
}

func newContentServiceForTest(t *testing.T, repo *stubContentRepository, signer ImageSigner) ContentService {
	t.Helper()
	svc, err := NewContentService(ContentServiceDeps{
		Content: repo,
		Signer:  signer,
		Clock:   fixedClock(time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)),
	})
	if err != nil {
		t.Fatalf("NewContentService returned error: %v", err)
	}
	return svc
}

func TestCreateNewsSanitizesBodyAndDerivesSlug(t *testing.T) {
	var inserted *domain.NewsPost
	repo := &stubContentRepository{insertNewsFn: func(_ context.Context, post *domain.NewsPost) error {
		inserted = post
		return nil
	}}
	svc := newContentServiceForTest(t, repo, &stubSigner{})

	post, err := svc.CreateNews(context.Background(), NewsInput{
		Title:     "Bộ sưu tập Thu Đông",
		Body:      `<p>Ra mắt</p><script>alert(1)</script><a href="https://x.example">xem</a>`,
		ImagePath: "news/thudong.jpg",
		Published: true,
	})
	if err != nil {
		t.Fatalf("CreateNews returned error: %v", err)
	}

	if post.Slug != "bo-suu-tap-thu-dong" {
		t.Fatalf("slug = %q", post.Slug)
	}
	if strings.Contains(post.Body, "script") {
		t.Fatalf("body = %q, script must be stripped", post.Body)
	}
	if !strings.Contains(post.Body, "<p>Ra mắt</p>") {
		t.Fatalf("body = %q, paragraph markup must survive", post.Body)
	}
	if post.ImageURL != "https://signed.example/news/thudong.jpg" {
		t.Fatalf("image url = %q", post.ImageURL)
	}
	if post.PublishedAt.IsZero() {
		t.Fatal("published post must carry a publish time")
	}
	if inserted == nil {
		t.Fatal("post was not persisted")
	}
}

func TestGetNewsBySlugHidesDrafts(t *testing.T) {
	repo := &stubContentRepository{findNewsBySlugFn: func(_ context.Context, slug string) (*domain.NewsPost, error) {
		return &domain.NewsPost{ID: "news-1", Slug: slug, Published: false}, nil
	}}
	svc := newContentServiceForTest(t, repo, nil)

	if _, err := svc.GetNewsBySlug(context.Background(), "draft-post", false); !errors.Is(err, ErrNewsNotFound) {
		t.Fatalf("expected ErrNewsNotFound for draft, got %v", err)
	}

	post, err := svc.GetNewsBySlug(context.Background(), "draft-post", true)
	if err != nil {
		t.Fatalf("GetNewsBySlug returned error: %v", err)
	}
	if post.ID != "news-1" {
		t.Fatalf("post = %+v", post)
	}
}

func TestSigningFailureFallsBackToStoredPath(t *testing.T) {
	repo := &stubContentRepository{listBannersFn: func(context.Context, bool) ([]domain.Banner, error) {
		return []domain.Banner{{ID: "bnr-1", ImagePath: "banners/sale.jpg"}}, nil
	}}
	svc := newContentServiceForTest(t, repo, &stubSigner{err: errors.New("kms offline")})

	banners, err := svc.ListBanners(context.Background(), true)
	if err != nil {
		t.Fatalf("ListBanners returned error: %v", err)
	}
	if banners[0].ImageURL != "banners/sale.jpg" {
		t.Fatalf("image url = %q, want stored path fallback", banners[0].ImageURL)
	}
}

func TestCreateBannerValidation(t *testing.T) {
	svc := newContentServiceForTest(t, &stubContentRepository{}, nil)

	_, err := svc.CreateBanner(context.Background(), BannerInput{Title: " ", ImagePath: ""})
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}
