package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/moaaz-s/7awel-auth-core/internal/user/domain"
)

// Sentinel errors for the profile service; the flow layer maps them to error codes.
var (
	ErrNameRequired = errors.New("first and last name are required")
	ErrUserNotFound = errors.New("user not found")
)

// UserRepo is the minimal user repository needed by the profile service.
type UserRepo interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByPhone(ctx context.Context, phone string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	Update(ctx context.Context, u *domain.User) error
}

// ProfileService reads and updates wallet user profiles.
type ProfileService struct {
	repo UserRepo
	nowF func() time.Time
}

// NewProfileService returns a ProfileService backed by the given repository.
func NewProfileService(repo UserRepo) *ProfileService {
	return &ProfileService{repo: repo, nowF: func() time.Time { return time.Now().UTC() }}
}

// Get returns the profile for userID, or ErrUserNotFound.
func (s *ProfileService) Get(ctx context.Context, userID string) (*domain.User, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// GetByContact returns the user owning the given verified phone or email, or
// nil when neither matches. Phone wins when both are set.
func (s *ProfileService) GetByContact(ctx context.Context, phone, email string) (*domain.User, error) {
	if phone != "" {
		u, err := s.repo.GetByPhone(ctx, phone)
		if err != nil || u != nil {
			return u, err
		}
	}
	if email != "" {
		return s.repo.GetByEmail(ctx, email)
	}
	return nil, nil
}

// EnsureUser returns the existing user for the given verified contacts, or
// creates a new active user carrying them. Used when a token pair is first
// acquired during signup.
func (s *ProfileService) EnsureUser(ctx context.Context, phone, email string) (*domain.User, error) {
	u, err := s.GetByContact(ctx, phone, email)
	if err != nil {
		return nil, err
	}
	if u != nil {
		return u, nil
	}
	now := s.nowF()
	u = &domain.User{
		ID:            uuid.NewString(),
		Phone:         phone,
		Email:         email,
		PhoneVerified: phone != "",
		EmailVerified: email != "",
		Status:        domain.UserStatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// UpdateProfile sets the user's first and last name and returns the stored
// profile. Both names are required.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID, firstName, lastName string) (*domain.User, error) {
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	if firstName == "" || lastName == "" {
		return nil, ErrNameRequired
	}
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	u.FirstName = firstName
	u.LastName = lastName
	u.UpdatedAt = s.nowF()
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}
