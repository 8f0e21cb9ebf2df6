package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"

	"github.com/moaaz-s/7awel-auth-core/internal/wallet/domain"
)

// WalletRepo is the minimal wallet repository needed by the wallet service.
type WalletRepo interface {
	GetByUser(ctx context.Context, userID string) (*domain.Wallet, error)
	Create(ctx context.Context, w *domain.Wallet) error
}

// UserStamper records the wallet address on the user profile.
type UserStamper interface {
	SetWalletAddress(ctx context.Context, userID, address string) error
}

// Service creates wallets for users. Create is idempotent per user.
type Service struct {
	wallets WalletRepo
	users   UserStamper
	nowF    func() time.Time
}

// NewService returns a wallet service.
func NewService(wallets WalletRepo, users UserStamper) *Service {
	return &Service{wallets: wallets, users: users, nowF: func() time.Time { return time.Now().UTC() }}
}

// Create returns the user's wallet, creating it on first call. The address is
// derived from a fresh uuid, stamped onto the user profile.
func (s *Service) Create(ctx context.Context, userID string) (*domain.Wallet, error) {
	existing, err := s.wallets.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	w := &domain.Wallet{
		ID:        uuid.NewString(),
		UserID:    userID,
		Address:   deriveAddress(),
		CreatedAt: s.nowF(),
	}
	if err := s.wallets.Create(ctx, w); err != nil {
		return nil, err
	}
	if err := s.users.SetWalletAddress(ctx, userID, w.Address); err != nil {
		return nil, err
	}
	return w, nil
}

// deriveAddress returns a 0x-prefixed 20-byte hex address seeded by a fresh uuid.
func deriveAddress() string {
	sum := sha256.Sum256([]byte(uuid.NewString()))
	return "0x" + hex.EncodeToString(sum[:20])
}
