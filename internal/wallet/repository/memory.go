package repository

import (
	"context"
	"sync"

	"github.com/moaaz-s/7awel-auth-core/internal/wallet/domain"
)

// MemoryRepository is an in-memory Repository, used in tests and by the dev
// flow harness.
type MemoryRepository struct {
	mu sync.Mutex
	m  map[string]*domain.Wallet // keyed by user ID
}

var _ Repository = (*MemoryRepository)(nil)

// NewMemoryRepository returns an empty in-memory wallet repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{m: make(map[string]*domain.Wallet)}
}

func (r *MemoryRepository) GetByUser(ctx context.Context, userID string) (*domain.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.m[userID]
	if !ok {
		return nil, nil
	}
	w2 := *w
	return &w2, nil
}

func (r *MemoryRepository) Create(ctx context.Context, w *domain.Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w2 := *w
	r.m[w.UserID] = &w2
	return nil
}
