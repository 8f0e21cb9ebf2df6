package devicestate

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store implementation, used in tests and by the
// dev flow harness.
type MemoryStore struct {
	mu      sync.Mutex
	session *Session
	token   *TokenRecord
	pin     *PinCredential
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty in-memory device store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Session(ctx context.Context) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil, nil
	}
	s := *m.session
	return &s, nil
}

func (m *MemoryStore) SaveSession(ctx context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s2 := *s
	m.session = &s2
	return nil
}

func (m *MemoryStore) ClearSession(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = nil
	return nil
}

func (m *MemoryStore) Token(ctx context.Context) (*TokenRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == nil {
		return nil, nil
	}
	t := *m.token
	return &t, nil
}

func (m *MemoryStore) SaveToken(ctx context.Context, t *TokenRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t2 := *t
	m.token = &t2
	return nil
}

func (m *MemoryStore) ClearToken(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = nil
	return nil
}

func (m *MemoryStore) Pin(ctx context.Context) (*PinCredential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pin == nil {
		return nil, nil
	}
	p := *m.pin
	return &p, nil
}

func (m *MemoryStore) SavePin(ctx context.Context, p *PinCredential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p2 := *p
	m.pin = &p2
	return nil
}

func (m *MemoryStore) ClearPin(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pin = nil
	return nil
}
