package repository

import (
	"context"
	"sync"

	"github.com/moaaz-s/7awel-auth-core/internal/otp/domain"
)

// MemoryRepository is an in-memory Repository, used in tests and by the dev
// flow harness.
type MemoryRepository struct {
	mu sync.Mutex
	m  map[string]*domain.Challenge // keyed by medium:target
}

var _ Repository = (*MemoryRepository)(nil)

// NewMemoryRepository returns an empty in-memory challenge repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{m: make(map[string]*domain.Challenge)}
}

func key(medium domain.Medium, target string) string {
	return string(medium) + ":" + target
}

func (r *MemoryRepository) GetByTarget(ctx context.Context, medium domain.Medium, target string) (*domain.Challenge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.m[key(medium, target)]
	if !ok {
		return nil, nil
	}
	c2 := *c
	return &c2, nil
}

func (r *MemoryRepository) Upsert(ctx context.Context, c *domain.Challenge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c2 := *c
	r.m[key(c.Medium, c.Target)] = &c2
	return nil
}

func (r *MemoryRepository) IncrementAttempts(ctx context.Context, id string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.m {
		if c.ID == id {
			c.Attempts++
			return c.Attempts, nil
		}
	}
	return 0, nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, c := range r.m {
		if c.ID == id {
			delete(r.m, k)
		}
	}
	return nil
}
