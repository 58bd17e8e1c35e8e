package services

import (
	"context"
	"errors"
	"strings"

	"github.com/minashop/api/internal/domain"
	"github.com/minashop/api/internal/platform/auth"
	"github.com/minashop/api/internal/repositories"
)

// ProfileInput is the customer-editable slice of the profile.
type ProfileInput struct {
	DisplayName string
	Phone       string
	Address     string
}

// UserService owns storefront user profiles keyed by the Firebase UID.
type UserService interface {
	// GetProfile returns the stored profile, provisioning one from the
	// verified identity on first sight.
	GetProfile(ctx context.Context, identity auth.Identity) (*domain.UserProfile, error)
	UpdateProfile(ctx context.Context, identity auth.Identity, input ProfileInput) (*domain.UserProfile, error)
}

// UserServiceDeps wires the user service dependencies.
type UserServiceDeps struct {
	Users repositories.UserRepository
	Clock Clock
}

type userService struct {
	users repositories.UserRepository
	clock Clock
}

// NewUserService validates dependencies and returns the service.
func NewUserService(deps UserServiceDeps) (UserService, error) {
	if deps.Users == nil {
		return nil, errors.New("user service requires user repository")
	}
	svc := &userService{users: deps.Users, clock: deps.Clock}
	if svc.clock == nil {
		svc.clock = defaultClock
	}
	return svc, nil
}

func (s *userService) GetProfile(ctx context.Context, identity auth.Identity) (*domain.UserProfile, error) {
	profile, err := s.users.Get(ctx, identity.UID)
	if err == nil {
		return profile, nil
	}
	if mapped := classifyRepoError(err, ErrUserNotFound, nil); !errors.Is(mapped, ErrUserNotFound) {
		return nil, mapped
	}

	now := s.clock()
	profile = &domain.UserProfile{
		UID:         identity.UID,
		Email:       identity.Email,
		DisplayName: identity.Name,
		Role:        primaryRole(identity),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.users.Upsert(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *userService) UpdateProfile(ctx context.Context, identity auth.Identity, input ProfileInput) (*domain.UserProfile, error) {
	profile, err := s.GetProfile(ctx, identity)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(input.DisplayName); name != "" {
		profile.DisplayName = name
	}
	profile.Phone = strings.TrimSpace(input.Phone)
	profile.Address = strings.TrimSpace(input.Address)
	profile.UpdatedAt = s.clock()

	if err := s.users.Upsert(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

func primaryRole(identity auth.Identity) string {
	if identity.IsAdmin() {
		return auth.RoleAdmin
	}
	return auth.RoleUser
}
