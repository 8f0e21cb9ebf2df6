package repository

import (
	"context"

	"github.com/moaaz-s/7awel-auth-core/internal/user/domain"
)

// Repository defines persistence for users.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByPhone(ctx context.Context, phone string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	Update(ctx context.Context, u *domain.User) error
	// SetWalletAddress records the user's wallet address only when none is set
	// yet. No-op if the user already has one.
	SetWalletAddress(ctx context.Context, userID, address string) error
}
