// Package devotp provides an in-memory store for plain OTPs keyed by delivery
// target, used only when dev OTP mode is enabled so local builds can read the
// code without a real SMS/mail gateway. Not used in production.
package devotp

import (
	"context"
	"sync"
	"time"
)

// Store holds plain OTPs for dev-only retrieval.
type Store interface {
	// Put stores otp for (medium, target) until expiresAt.
	Put(ctx context.Context, medium, target, otp string, expiresAt time.Time)
	// Get returns the otp for (medium, target) if present and not expired.
	Get(ctx context.Context, medium, target string) (otp string, ok bool)
}

type entry struct {
	otp       string
	expiresAt time.Time
}

// MemoryStore is an in-memory Store implementation.
type MemoryStore struct {
	mu   sync.RWMutex
	m    map[string]entry
	nowF func() time.Time
}

// NewMemoryStore returns a new in-memory dev OTP store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		m:    make(map[string]entry),
		nowF: func() time.Time { return time.Now().UTC() },
	}
}

func key(medium, target string) string {
	return medium + ":" + target
}

// Put stores otp for (medium, target) until expiresAt.
func (s *MemoryStore) Put(ctx context.Context, medium, target, otp string, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key(medium, target)] = entry{otp: otp, expiresAt: expiresAt}
}

// Get returns the otp for (medium, target) if present and not expired.
func (s *MemoryStore) Get(ctx context.Context, medium, target string) (string, bool) {
	k := key(medium, target)
	s.mu.RLock()
	e, ok := s.m[k]
	s.mu.RUnlock()
	if !ok {
		return "", false
	}
	if !e.expiresAt.After(s.nowF()) {
		s.mu.Lock()
		delete(s.m, k)
		s.mu.Unlock()
		return "", false
	}
	return e.otp, true
}
