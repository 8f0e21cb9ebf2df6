// Package token acquires and clears the device's auth token pair.
package token

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/moaaz-s/7awel-auth-core/internal/devicestate"
	"github.com/moaaz-s/7awel-auth-core/internal/security"
	sessiondomain "github.com/moaaz-s/7awel-auth-core/internal/session/domain"
	userdomain "github.com/moaaz-s/7awel-auth-core/internal/user/domain"
)

// Sentinel errors for the token service; the flow layer maps them to error codes.
var (
	ErrContactNotVerified = errors.New("contact must be OTP-verified before token acquisition")
	ErrNoUser             = errors.New("no user for the verified contacts")
)

// DefaultRefreshTTL bounds the server-side session lifetime.
const DefaultRefreshTTL = 30 * 24 * time.Hour

// UserDirectory is the minimal profile access needed by the token service.
type UserDirectory interface {
	// EnsureUser returns the user owning the verified contacts, creating one
	// during signup when none exists.
	EnsureUser(ctx context.Context, phone, email string) (*userdomain.User, error)
	// GetByContact returns the user owning the contacts, or nil.
	GetByContact(ctx context.Context, phone, email string) (*userdomain.User, error)
}

// SessionWriter is the minimal session repository needed by the token service.
type SessionWriter interface {
	Create(ctx context.Context, s *sessiondomain.Session) error
	Revoke(ctx context.Context, id string) error
}

// AcquireResult holds the outcome of a successful token acquisition.
type AcquireResult struct {
	UserID       string
	SessionID    string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Service issues the device's token pair once both contacts are verified, and
// mirrors the result into the device-local store.
type Service struct {
	users    UserDirectory
	sessions SessionWriter
	device   devicestate.Store
	tokens   *security.TokenProvider
	deviceID string
	nowF     func() time.Time
}

// NewService returns a token service bound to the given device ID.
func NewService(users UserDirectory, sessions SessionWriter, device devicestate.Store, tokens *security.TokenProvider, deviceID string) *Service {
	return &Service{
		users:    users,
		sessions: sessions,
		device:   device,
		tokens:   tokens,
		deviceID: deviceID,
		nowF:     func() time.Time { return time.Now().UTC() },
	}
}

// Acquire issues an access/refresh pair for the user owning the verified
// contacts, persists a server-side session, and writes the token record and
// session mirror to the device store. signup controls whether a missing user
// is created.
func (s *Service) Acquire(ctx context.Context, phone, email string, phoneVerified, emailVerified bool, signup bool) (*AcquireResult, error) {
	if !phoneVerified && !emailVerified {
		return nil, ErrContactNotVerified
	}
	var u *userdomain.User
	var err error
	if signup {
		u, err = s.users.EnsureUser(ctx, phone, email)
	} else {
		u, err = s.users.GetByContact(ctx, phone, email)
	}
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrNoUser
	}

	now := s.nowF()
	sessionID := uuid.NewString()
	access, _, accessExp, err := s.tokens.IssueAccess(sessionID, u.ID, s.deviceID)
	if err != nil {
		return nil, err
	}
	refresh, refreshJti, refreshExp, err := s.tokens.IssueRefresh(sessionID, u.ID, s.deviceID)
	if err != nil {
		return nil, err
	}

	sess := &sessiondomain.Session{
		ID:               sessionID,
		UserID:           u.ID,
		DeviceID:         s.deviceID,
		ExpiresAt:        refreshExp,
		RefreshJti:       refreshJti,
		RefreshTokenHash: security.HashRefreshToken(refresh),
		CreatedAt:        now,
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, err
	}

	if err := s.device.SaveToken(ctx, &devicestate.TokenRecord{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    accessExp,
		CreatedAt:    now,
	}); err != nil {
		return nil, err
	}
	if err := s.device.SaveSession(ctx, &devicestate.Session{
		ID:        sessionID,
		UserID:    u.ID,
		Active:    true,
		ExpiresAt: refreshExp,
		CreatedAt: now,
	}); err != nil {
		return nil, err
	}

	return &AcquireResult{
		UserID:       u.ID,
		SessionID:    sessionID,
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    accessExp,
	}, nil
}

// Clear revokes the server-side session mirrored on the device and wipes the
// device token record and session. Used on logout.
func (s *Service) Clear(ctx context.Context) error {
	sess, err := s.device.Session(ctx)
	if err != nil {
		return err
	}
	if sess != nil {
		if err := s.sessions.Revoke(ctx, sess.ID); err != nil {
			return err
		}
	}
	if err := s.device.ClearToken(ctx); err != nil {
		return err
	}
	return s.device.ClearSession(ctx)
}
