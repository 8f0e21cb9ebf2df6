package repository

import (
	"context"
	"sync"
	"time"

	"github.com/moaaz-s/7awel-auth-core/internal/user/domain"
)

// MemoryRepository is an in-memory Repository, used in tests and by the dev
// flow harness.
type MemoryRepository struct {
	mu sync.Mutex
	m  map[string]*domain.User // keyed by ID
}

var _ Repository = (*MemoryRepository)(nil)

// NewMemoryRepository returns an empty in-memory user repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{m: make(map[string]*domain.User)}
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.m[id]
	if !ok {
		return nil, nil
	}
	u2 := *u
	return &u2, nil
}

func (r *MemoryRepository) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.m {
		if u.Phone == phone && phone != "" {
			u2 := *u
			return &u2, nil
		}
	}
	return nil, nil
}

func (r *MemoryRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.m {
		if u.Email == email && email != "" {
			u2 := *u
			return &u2, nil
		}
	}
	return nil, nil
}

func (r *MemoryRepository) Create(ctx context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u2 := *u
	r.m[u.ID] = &u2
	return nil
}

func (r *MemoryRepository) Update(ctx context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.m[u.ID]
	if !ok {
		return nil
	}
	u2 := *u
	if current.PhoneVerified {
		u2.Phone = current.Phone
		u2.PhoneVerified = true
	}
	u2.EmailVerified = u2.EmailVerified || current.EmailVerified
	u2.WalletAddress = current.WalletAddress
	r.m[u.ID] = &u2
	return nil
}

func (r *MemoryRepository) SetWalletAddress(ctx context.Context, userID, address string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.m[userID]
	if !ok || u.WalletAddress != "" {
		return nil
	}
	u.WalletAddress = address
	u.UpdatedAt = time.Now().UTC()
	return nil
}
