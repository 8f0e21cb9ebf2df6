// Package contacts resolves which of the device's address-book contacts are
// registered wallet users. The resolver cache is constructed explicitly by the
// composition root and refreshed on demand; there is no package-level state.
package contacts

import (
	"context"
	"errors"
	"sync"
	"time"

	userdomain "github.com/moaaz-s/7awel-auth-core/internal/user/domain"
)

// ErrNotInitialized is returned by lookups before Init has completed.
var ErrNotInitialized = errors.New("contacts: resolver not initialized")

// Directory is the minimal user lookup needed by the resolver.
type Directory interface {
	GetByPhone(ctx context.Context, phone string) (*userdomain.User, error)
}

// Contact is one address-book entry as provided by the device.
type Contact struct {
	DisplayName string
	Phone       string // full international form
}

// Resolved is a contact annotated with its wallet registration state.
type Resolved struct {
	Contact
	Registered    bool
	WalletAddress string
}

// Resolver caches the registration state of the device's contacts.
type Resolver struct {
	dir Directory

	mu          sync.RWMutex
	resolved    map[string]Resolved // keyed by phone
	refreshedAt time.Time
}

// NewResolver returns an uninitialized resolver over the given directory.
func NewResolver(dir Directory) *Resolver {
	return &Resolver{dir: dir}
}

// Init resolves the initial contact list. It must be called once before
// lookups; later calls behave like Refresh.
func (r *Resolver) Init(ctx context.Context, list []Contact) error {
	return r.Refresh(ctx, list)
}

// Refresh re-resolves the given contact list against the user directory,
// replacing the cached result.
func (r *Resolver) Refresh(ctx context.Context, list []Contact) error {
	resolved := make(map[string]Resolved, len(list))
	for _, c := range list {
		if c.Phone == "" {
			continue
		}
		entry := Resolved{Contact: c}
		u, err := r.dir.GetByPhone(ctx, c.Phone)
		if err != nil {
			return err
		}
		if u != nil {
			entry.Registered = true
			entry.WalletAddress = u.WalletAddress
		}
		resolved[c.Phone] = entry
	}
	r.mu.Lock()
	r.resolved = resolved
	r.refreshedAt = time.Now().UTC()
	r.mu.Unlock()
	return nil
}

// Lookup returns the resolved entry for the given phone number.
func (r *Resolver) Lookup(phone string) (Resolved, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.resolved == nil {
		return Resolved{}, ErrNotInitialized
	}
	return r.resolved[phone], nil
}

// Registered returns the cached contacts that are registered wallet users.
func (r *Resolver) Registered() ([]Resolved, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.resolved == nil {
		return nil, ErrNotInitialized
	}
	var out []Resolved
	for _, e := range r.resolved {
		if e.Registered {
			out = append(out, e)
		}
	}
	return out, nil
}

// RefreshedAt returns when the cache was last refreshed, zero before Init.
func (r *Resolver) RefreshedAt() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.refreshedAt
}
