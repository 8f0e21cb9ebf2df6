package repository

import (
	"context"

	"github.com/moaaz-s/7awel-auth-core/internal/wallet/domain"
)

// Repository defines persistence for wallets.
type Repository interface {
	// GetByUser returns the user's wallet, or nil if none exists.
	GetByUser(ctx context.Context, userID string) (*domain.Wallet, error)
	Create(ctx context.Context, w *domain.Wallet) error
}
