package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/moaaz-s/7awel-auth-core/internal/audit/domain"
)

// MemoryRepository is an in-memory Repository, used in tests and by the dev
// flow harness.
type MemoryRepository struct {
	mu      sync.Mutex
	entries []*domain.AuditLog
}

var _ Repository = (*MemoryRepository)(nil)

// NewMemoryRepository returns an empty in-memory audit log repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*domain.AuditLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.entries {
		if a.ID == id {
			a2 := *a
			return &a2, nil
		}
	}
	return nil, nil
}

func (r *MemoryRepository) ListByActor(ctx context.Context, actorID string, limit, offset int32) ([]*domain.AuditLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []*domain.AuditLog
	for _, a := range r.entries {
		if a.ActorID == actorID {
			a2 := *a
			matched = append(matched, &a2)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	if int(offset) >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if int(limit) < len(matched) {
		matched = matched[:limit]
	}
	return matched, nil
}

func (r *MemoryRepository) Create(ctx context.Context, a *domain.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a2 := *a
	r.entries = append(r.entries, &a2)
	return nil
}

// All returns every entry, used by tests.
func (r *MemoryRepository) All() []*domain.AuditLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.AuditLog, len(r.entries))
	copy(out, r.entries)
	return out
}
