package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/minashop/api/internal/domain"
	pfirestore "github.com/minashop/api/internal/platform/firestore"
)

const usersCollection = "users"

type userDocument struct {
	Email       string    `firestore:"email,omitempty"`
	DisplayName string    `firestore:"displayName,omitempty"`
	Phone       string    `firestore:"phone,omitempty"`
	Address     string    `firestore:"address,omitempty"`
	Role        string    `firestore:"role,omitempty"`
	CreatedAt   time.Time `firestore:"createdAt"`
	UpdatedAt   time.Time `firestore:"updatedAt"`
}

// UserRepository persists storefront profiles keyed by Firebase UID.
type UserRepository struct {
	provider *pfirestore.Provider
}

// NewUserRepository constructs a Firestore-backed user repository.
func NewUserRepository(provider *pfirestore.Provider) (*UserRepository, error) {
	if provider == nil {
		return nil, errors.New("user repository requires firestore provider")
	}
	return &UserRepository{provider: provider}, nil
}

// Get loads one profile by UID.
func (r *UserRepository) Get(ctx context.Context, uid string) (*domain.UserProfile, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return nil, pfirestore.NotFoundError("users.get")
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, err
	}
	snapshot, err := client.Collection(usersCollection).Doc(uid).Get(ctx)
	if err != nil {
		return nil, pfirestore.WrapError("users.get", err)
	}

	var doc userDocument
	if err := snapshot.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("decode user %s: %w", uid, err)
	}
	return &domain.UserProfile{
		UID:         uid,
		Email:       doc.Email,
		DisplayName: doc.DisplayName,
		Phone:       doc.Phone,
		Address:     doc.Address,
		Role:        doc.Role,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}, nil
}

// Upsert writes the profile, creating it on first login.
func (r *UserRepository) Upsert(ctx context.Context, profile *domain.UserProfile) error {
	if profile == nil || profile.UID == "" {
		return errors.New("user uid is required")
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return err
	}
	_, err = client.Collection(usersCollection).Doc(profile.UID).Set(ctx, userDocument{
		Email:       profile.Email,
		DisplayName: profile.DisplayName,
		Phone:       profile.Phone,
		Address:     profile.Address,
		Role:        profile.Role,
		CreatedAt:   profile.CreatedAt,
		UpdatedAt:   profile.UpdatedAt,
	})
	if err != nil {
		return pfirestore.WrapError("users.upsert", err)
	}
	return nil
}
