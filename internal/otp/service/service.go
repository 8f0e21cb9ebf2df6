package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/moaaz-s/7awel-auth-core/internal/devotp"
	"github.com/moaaz-s/7awel-auth-core/internal/otp"
	"github.com/moaaz-s/7awel-auth-core/internal/otp/domain"
	userdomain "github.com/moaaz-s/7awel-auth-core/internal/user/domain"
)

// Sentinel errors for the OTP service; the flow layer maps them to error codes.
var (
	ErrOTPInvalid      = errors.New("otp does not match")
	ErrOTPExpired      = errors.New("otp expired")
	ErrOTPLocked       = errors.New("too many failed otp attempts")
	ErrPhoneRegistered = errors.New("phone already registered")
	ErrEmailRegistered = errors.New("email already registered")
)

// DefaultMaxAttempts is the failed-verification budget per challenge.
const DefaultMaxAttempts = 5

// ChallengeRepo is the minimal challenge repository needed by the OTP service.
type ChallengeRepo interface {
	GetByTarget(ctx context.Context, medium domain.Medium, target string) (*domain.Challenge, error)
	Upsert(ctx context.Context, c *domain.Challenge) error
	IncrementAttempts(ctx context.Context, id string) (int, error)
	Delete(ctx context.Context, id string) error
}

// UserLookup is the minimal user repository needed for availability checks.
type UserLookup interface {
	GetByPhone(ctx context.Context, phone string) (*userdomain.User, error)
	GetByEmail(ctx context.Context, email string) (*userdomain.User, error)
}

// SMSSender delivers an OTP over SMS.
type SMSSender interface {
	SendOTP(phone, otp string) error
}

// MailSender delivers an OTP over email.
type MailSender interface {
	SendOTP(email, otp string) error
}

// Service issues and verifies OTP challenges for phone and email targets.
// One outstanding challenge per (medium, target); Send replaces it.
type Service struct {
	repo        ChallengeRepo
	users       UserLookup
	sms         SMSSender
	mail        MailSender
	devStore    devotp.Store
	devMode     bool
	ttl         time.Duration
	maxAttempts int
	nowF        func() time.Time
}

// NewService returns an OTP service. devStore may be nil unless devMode is set.
func NewService(repo ChallengeRepo, users UserLookup, sms SMSSender, mail MailSender, devStore devotp.Store, devMode bool, ttl time.Duration, maxAttempts int) *Service {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Service{
		repo:        repo,
		users:       users,
		sms:         sms,
		mail:        mail,
		devStore:    devStore,
		devMode:     devMode,
		ttl:         ttl,
		maxAttempts: maxAttempts,
		nowF:        func() time.Time { return time.Now().UTC() },
	}
}

// Send generates a fresh OTP for (medium, target), stores its hash with a new
// expiry, and delivers it. A resend replaces the outstanding challenge, so the
// previous code stops working and the expiry window restarts.
func (s *Service) Send(ctx context.Context, medium domain.Medium, target string) error {
	if !medium.Valid() {
		return fmt.Errorf("otp: unknown medium %q", medium)
	}
	if target == "" {
		return fmt.Errorf("otp: empty target")
	}
	code, err := otp.GenerateOTP()
	if err != nil {
		return err
	}
	now := s.nowF()
	c := &domain.Challenge{
		ID:        uuid.NewString(),
		Medium:    medium,
		Target:    target,
		CodeHash:  otp.HashOTP(code),
		Attempts:  0,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	if err := s.repo.Upsert(ctx, c); err != nil {
		return err
	}
	if s.devMode && s.devStore != nil {
		s.devStore.Put(ctx, string(medium), target, code, c.ExpiresAt)
		return nil
	}
	switch medium {
	case domain.MediumPhone:
		return s.sms.SendOTP(target, code)
	case domain.MediumEmail:
		return s.mail.SendOTP(target, code)
	}
	return nil
}

// Verify checks code against the outstanding challenge for (medium, target).
// On success the challenge is consumed. Failed attempts are counted; once the
// budget is exhausted the challenge is locked until replaced by a resend.
func (s *Service) Verify(ctx context.Context, medium domain.Medium, target, code string) error {
	c, err := s.repo.GetByTarget(ctx, medium, target)
	if err != nil {
		return err
	}
	if c == nil {
		return ErrOTPInvalid
	}
	if c.Attempts >= s.maxAttempts {
		return ErrOTPLocked
	}
	if c.Expired(s.nowF()) {
		return ErrOTPExpired
	}
	if !otp.OTPEqual(code, c.CodeHash) {
		attempts, ierr := s.repo.IncrementAttempts(ctx, c.ID)
		if ierr != nil {
			log.Printf("otp: increment attempts for %s failed: %v", c.ID, ierr)
		}
		if attempts >= s.maxAttempts {
			return ErrOTPLocked
		}
		return ErrOTPInvalid
	}
	if err := s.repo.Delete(ctx, c.ID); err != nil {
		return err
	}
	return nil
}

// Expiry returns the expiry time of the outstanding challenge for
// (medium, target), or the zero time when none exists.
func (s *Service) Expiry(ctx context.Context, medium domain.Medium, target string) (time.Time, error) {
	c, err := s.repo.GetByTarget(ctx, medium, target)
	if err != nil {
		return time.Time{}, err
	}
	if c == nil {
		return time.Time{}, nil
	}
	return c.ExpiresAt, nil
}

// CheckAvailability rejects targets that already belong to a registered user.
// Used by signup before dispatching an OTP.
func (s *Service) CheckAvailability(ctx context.Context, medium domain.Medium, target string) error {
	switch medium {
	case domain.MediumPhone:
		u, err := s.users.GetByPhone(ctx, target)
		if err != nil {
			return err
		}
		if u != nil {
			return ErrPhoneRegistered
		}
	case domain.MediumEmail:
		u, err := s.users.GetByEmail(ctx, target)
		if err != nil {
			return err
		}
		if u != nil {
			return ErrEmailRegistered
		}
	}
	return nil
}
