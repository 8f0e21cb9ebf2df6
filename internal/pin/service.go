// Package pin manages the device PIN credential: setting, validation with an
// attempt budget, and lockout.
package pin

import (
	"context"
	"errors"
	"time"

	"github.com/moaaz-s/7awel-auth-core/internal/devicestate"
	"github.com/moaaz-s/7awel-auth-core/internal/security"
)

// Sentinel errors for the PIN service; the flow layer maps them to error codes.
var (
	ErrPinFormat  = errors.New("pin must be exactly 6 digits")
	ErrPinInvalid = errors.New("pin does not match")
	ErrPinLocked  = errors.New("pin locked after too many failed attempts")
	ErrNoPinSet   = errors.New("no pin configured on this device")
)

const (
	// DefaultMaxAttempts is the failed-validation budget before lockout.
	DefaultMaxAttempts = 5
	// DefaultLockout is how long validation stays locked after the budget is spent.
	DefaultLockout = 15 * time.Minute

	pinLength = 6
)

// Service stores and validates the device PIN against the device-local store.
type Service struct {
	device      devicestate.Store
	hasher      *security.Hasher
	maxAttempts int
	lockout     time.Duration
	nowF        func() time.Time
}

// NewService returns a PIN service over the given device store and hasher.
func NewService(device devicestate.Store, hasher *security.Hasher, maxAttempts int, lockout time.Duration) *Service {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if lockout <= 0 {
		lockout = DefaultLockout
	}
	return &Service{
		device:      device,
		hasher:      hasher,
		maxAttempts: maxAttempts,
		lockout:     lockout,
		nowF:        func() time.Time { return time.Now().UTC() },
	}
}

func validPin(pin string) bool {
	if len(pin) != pinLength {
		return false
	}
	for i := 0; i < len(pin); i++ {
		if pin[i] < '0' || pin[i] > '9' {
			return false
		}
	}
	return true
}

// Set hashes the PIN and persists it, replacing any existing credential and
// resetting the attempt counter.
func (s *Service) Set(ctx context.Context, pin string) error {
	if !validPin(pin) {
		return ErrPinFormat
	}
	hash, err := s.hasher.Hash([]byte(pin))
	if err != nil {
		return err
	}
	return s.device.SavePin(ctx, &devicestate.PinCredential{
		Hash:      hash,
		UpdatedAt: s.nowF(),
	})
}

// Validate compares pin against the stored credential. Failed attempts are
// counted; once the budget is spent validation is locked for the cooldown
// window. A successful validation resets the counter.
func (s *Service) Validate(ctx context.Context, pin string) error {
	cred, err := s.device.Pin(ctx)
	if err != nil {
		return err
	}
	if cred == nil {
		return ErrNoPinSet
	}
	now := s.nowF()
	if cred.Locked(now) {
		return ErrPinLocked
	}
	if err := s.hasher.Compare(cred.Hash, []byte(pin)); err != nil {
		cred.FailedAttempts++
		if cred.FailedAttempts >= s.maxAttempts {
			cred.LockedUntil = now.Add(s.lockout)
		}
		if serr := s.device.SavePin(ctx, cred); serr != nil {
			return serr
		}
		if !cred.LockedUntil.IsZero() {
			return ErrPinLocked
		}
		return ErrPinInvalid
	}
	if cred.FailedAttempts != 0 || !cred.LockedUntil.IsZero() {
		cred.FailedAttempts = 0
		cred.LockedUntil = time.Time{}
		if serr := s.device.SavePin(ctx, cred); serr != nil {
			return serr
		}
	}
	return nil
}

// Configured reports whether a PIN credential exists on the device.
func (s *Service) Configured(ctx context.Context) (bool, error) {
	cred, err := s.device.Pin(ctx)
	if err != nil {
		return false, err
	}
	return cred != nil, nil
}

// RemainingAttempts returns how many failed validations remain before lockout.
func (s *Service) RemainingAttempts(ctx context.Context) (int, error) {
	cred, err := s.device.Pin(ctx)
	if err != nil {
		return 0, err
	}
	if cred == nil {
		return s.maxAttempts, nil
	}
	left := s.maxAttempts - cred.FailedAttempts
	if left < 0 {
		left = 0
	}
	return left, nil
}

// Clear removes the PIN credential from the device.
func (s *Service) Clear(ctx context.Context) error {
	return s.device.ClearPin(ctx)
}
