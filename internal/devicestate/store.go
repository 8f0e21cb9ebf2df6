// Package devicestate is the device-local secure store: the auth token
// record, the PIN credential, and the session mirror for this device. It is a
// shared resource — session expiry timers and external logout mutate it
// concurrently — so flow code must always re-read it instead of caching.
package devicestate

import (
	"context"
	"time"
)

// Session is the locally mirrored session record.
type Session struct {
	ID        string
	UserID    string
	Active    bool
	ExpiresAt time.Time
	CreatedAt time.Time
}

// TokenRecord holds the acquired auth token pair and its expiry.
type TokenRecord struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	CreatedAt    time.Time
}

// TokenStatus is the reconciled view of the token record.
type TokenStatus struct {
	Exists  bool
	Expired bool
}

// Status derives the token status at the given instant. A nil record reports
// Exists false.
func (t *TokenRecord) Status(now time.Time) TokenStatus {
	if t == nil || t.AccessToken == "" {
		return TokenStatus{}
	}
	return TokenStatus{Exists: true, Expired: !t.ExpiresAt.After(now)}
}

// PinCredential holds the bcrypt hash of the device PIN and its lockout state.
type PinCredential struct {
	Hash           string
	FailedAttempts int
	LockedUntil    time.Time // zero when not locked
	UpdatedAt      time.Time
}

// Locked reports whether the credential is locked out at the given instant.
func (p *PinCredential) Locked(now time.Time) bool {
	return p != nil && !p.LockedUntil.IsZero() && p.LockedUntil.After(now)
}

// Store reads and writes the device security state. Read methods return nil
// (not an error) when a record is absent, matching the repository convention
// used elsewhere in this codebase.
type Store interface {
	Session(ctx context.Context) (*Session, error)
	SaveSession(ctx context.Context, s *Session) error
	ClearSession(ctx context.Context) error

	Token(ctx context.Context) (*TokenRecord, error)
	SaveToken(ctx context.Context, t *TokenRecord) error
	ClearToken(ctx context.Context) error

	Pin(ctx context.Context) (*PinCredential, error)
	SavePin(ctx context.Context, p *PinCredential) error
	ClearPin(ctx context.Context) error
}
