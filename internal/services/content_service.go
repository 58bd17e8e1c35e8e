package services

import (
	"context"
	"errors"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/minashop/api/internal/domain"
	"github.com/minashop/api/internal/repositories"
)

// ImageSigner issues read URLs for stored media objects.
type ImageSigner interface {
	SignedReadURL(objectPath string) (string, error)
}

// NewsInput is the admin payload for an editorial article. Body accepts
// limited HTML; everything outside the UGC policy is stripped on write.
type NewsInput struct {
	Slug      string
	Title     string
	Summary   string
	Body      string
	ImagePath string
	Published bool
}

// BannerInput is the admin payload for a carousel slot.
type BannerInput struct {
	ID        string
	Title     string
	ImagePath string
	LinkURL   string
	Position  int
	IsActive  bool
}

// ContentService owns news posts and banners.
type ContentService interface {
	CreateNews(ctx context.Context, input NewsInput) (*domain.NewsPost, error)
	UpdateNews(ctx context.Context, input NewsInput) (*domain.NewsPost, error)
	DeleteNews(ctx context.Context, id string) error
	// GetNewsBySlug hides unpublished posts behind NotFound unless
	// includeDrafts is set.
	GetNewsBySlug(ctx context.Context, slug string, includeDrafts bool) (*domain.NewsPost, error)
	ListNews(ctx context.Context, publishedOnly bool, limit int, cursor string) (domain.CursorPage[domain.NewsPost], error)

	CreateBanner(ctx context.Context, input BannerInput) (*domain.Banner, error)
	UpdateBanner(ctx context.Context, input BannerInput) (*domain.Banner, error)
	DeleteBanner(ctx context.Context, id string) error
	ListBanners(ctx context.Context, activeOnly bool) ([]domain.Banner, error)
}

// ContentServiceDeps wires the content service dependencies. Signer is
// optional: without one, image paths are returned as stored.
type ContentServiceDeps struct {
	Content repositories.ContentRepository
	Signer  ImageSigner
	Clock   Clock
	IDGen   IDGenerator
	Logger  *zap.Logger
}

type contentService struct {
	content   repositories.ContentRepository
	signer    ImageSigner
	sanitizer *bluemonday.Policy
	clock     Clock
	idgen     IDGenerator
	logger    *zap.Logger
}

// NewContentService validates dependencies and returns the service.
func NewContentService(deps ContentServiceDeps) (ContentService, error) {
	if deps.Content == nil {
		return nil, errors.New("content service requires content repository")
	}
	svc := &contentService{
		content:   deps.Content,
		signer:    deps.Signer,
		sanitizer: newArticleBodyPolicy(),
		clock:     deps.Clock,
		idgen:     deps.IDGen,
		logger:    deps.Logger,
	}
	if svc.clock == nil {
		svc.clock = defaultClock
	}
	if svc.idgen == nil {
		svc.idgen = NewULIDGenerator()
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	return svc, nil
}

func newArticleBodyPolicy() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.AllowElements("figure", "figcaption")
	policy.AllowAttrs("loading").OnElements("img")
	policy.RequireNoFollowOnLinks(true)
	return policy
}

func (s *contentService) CreateNews(ctx context.Context, input NewsInput) (*domain.NewsPost, error) {
	post, err := s.newsFromInput(input)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	post.ID = "news_" + strings.ToLower(s.idgen())
	post.CreatedAt = now
	post.UpdatedAt = now
	if post.Published {
		post.PublishedAt = now
	}

	if err := s.content.InsertNews(ctx, post); err != nil {
		return nil, classifyRepoError(err, nil, ErrNewsConflict)
	}
	s.decorateNews(post)
	return post, nil
}

func (s *contentService) UpdateNews(ctx context.Context, input NewsInput) (*domain.NewsPost, error) {
	existing, err := s.GetNewsBySlug(ctx, input.Slug, true)
	if err != nil {
		return nil, err
	}

	post, err := s.newsFromInput(input)
	if err != nil {
		return nil, err
	}
	post.ID = existing.ID
	post.CreatedAt = existing.CreatedAt
	post.PublishedAt = existing.PublishedAt
	post.UpdatedAt = s.clock()
	if post.Published && existing.PublishedAt.IsZero() {
		post.PublishedAt = post.UpdatedAt
	}

	if err := s.content.UpdateNews(ctx, post); err != nil {
		return nil, classifyRepoError(err, ErrNewsNotFound, nil)
	}
	s.decorateNews(post)
	return post, nil
}

func (s *contentService) DeleteNews(ctx context.Context, id string) error {
	if err := s.content.DeleteNews(ctx, id); err != nil {
		return classifyRepoError(err, ErrNewsNotFound, nil)
	}
	return nil
}

func (s *contentService) GetNewsBySlug(ctx context.Context, slug string, includeDrafts bool) (*domain.NewsPost, error) {
	post, err := s.content.FindNewsBySlug(ctx, strings.TrimSpace(slug))
	if err != nil {
		return nil, classifyRepoError(err, ErrNewsNotFound, nil)
	}
	if !post.Published && !includeDrafts {
		return nil, ErrNewsNotFound
	}
	s.decorateNews(post)
	return post, nil
}

func (s *contentService) ListNews(ctx context.Context, publishedOnly bool, limit int, cursor string) (domain.CursorPage[domain.NewsPost], error) {
	page, err := s.content.ListNews(ctx, publishedOnly, limit, cursor)
	if err != nil {
		return domain.CursorPage[domain.NewsPost]{}, err
	}
	for i := range page.Items {
		s.decorateNews(&page.Items[i])
	}
	return page, nil
}

func (s *contentService) newsFromInput(input NewsInput) (*domain.NewsPost, error) {
	fields := map[string]string{}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		fields["title"] = "title is required"
	}
	body := strings.TrimSpace(s.sanitizer.Sanitize(input.Body))
	if body == "" {
		fields["body"] = "body is required"
	}
	if len(fields) > 0 {
		return nil, NewValidationError(fields)
	}

	slug := strings.TrimSpace(input.Slug)
	if slug == "" {
		slug = Slugify(title)
	}
	return &domain.NewsPost{
		Slug:      slug,
		Title:     title,
		Summary:   strings.TrimSpace(input.Summary),
		Body:      body,
		ImagePath: strings.TrimSpace(input.ImagePath),
		Published: input.Published,
	}, nil
}

func (s *contentService) CreateBanner(ctx context.Context, input BannerInput) (*domain.Banner, error) {
	banner, err := bannerFromInput(input)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	banner.ID = "bnr_" + strings.ToLower(s.idgen())
	banner.CreatedAt = now
	banner.UpdatedAt = now

	if err := s.content.InsertBanner(ctx, banner); err != nil {
		return nil, err
	}
	s.decorateBanner(banner)
	return banner, nil
}

func (s *contentService) UpdateBanner(ctx context.Context, input BannerInput) (*domain.Banner, error) {
	if strings.TrimSpace(input.ID) == "" {
		return nil, NewValidationError(map[string]string{"id": "banner id is required"})
	}
	banner, err := bannerFromInput(input)
	if err != nil {
		return nil, err
	}
	banner.ID = input.ID
	banner.UpdatedAt = s.clock()

	if err := s.content.UpdateBanner(ctx, banner); err != nil {
		return nil, classifyRepoError(err, ErrBannerNotFound, nil)
	}
	s.decorateBanner(banner)
	return banner, nil
}

func (s *contentService) DeleteBanner(ctx context.Context, id string) error {
	if err := s.content.DeleteBanner(ctx, id); err != nil {
		return classifyRepoError(err, ErrBannerNotFound, nil)
	}
	return nil
}

func (s *contentService) ListBanners(ctx context.Context, activeOnly bool) ([]domain.Banner, error) {
	banners, err := s.content.ListBanners(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	for i := range banners {
		s.decorateBanner(&banners[i])
	}
	return banners, nil
}

func bannerFromInput(input BannerInput) (*domain.Banner, error) {
	fields := map[string]string{}
	if strings.TrimSpace(input.Title) == "" {
		fields["title"] = "title is required"
	}
	if strings.TrimSpace(input.ImagePath) == "" {
		fields["imagePath"] = "image path is required"
	}
	if len(fields) > 0 {
		return nil, NewValidationError(fields)
	}
	return &domain.Banner{
		Title:     strings.TrimSpace(input.Title),
		ImagePath: strings.TrimSpace(input.ImagePath),
		LinkURL:   strings.TrimSpace(input.LinkURL),
		Position:  input.Position,
		IsActive:  input.IsActive,
	}, nil
}

// decorateNews attaches a signed read URL for the stored image. Signing
// failures degrade to the raw path so a broken signer never hides content.
func (s *contentService) decorateNews(post *domain.NewsPost) {
	post.ImageURL = s.signedURL(post.ImagePath)
}

func (s *contentService) decorateBanner(banner *domain.Banner) {
	banner.ImageURL = s.signedURL(banner.ImagePath)
}

func (s *contentService) signedURL(path string) string {
	if path == "" {
		return ""
	}
	if s.signer == nil {
		return path
	}
	signed, err := s.signer.SignedReadURL(path)
	if err != nil {
		s.logger.Warn("image url signing failed", zap.String("path", path), zap.Error(err))
		return path
	}
	return signed
}
