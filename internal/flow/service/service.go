// Package service implements the authentication flow orchestrator: per-flow
// step tables of condition + pure handler + side effect, state reconciliation
// against the device store, and the initiate/advance protocol.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/moaaz-s/7awel-auth-core/internal/audit"
	"github.com/moaaz-s/7awel-auth-core/internal/devicestate"
	otpdomain "github.com/moaaz-s/7awel-auth-core/internal/otp/domain"
	"github.com/moaaz-s/7awel-auth-core/internal/telemetry"
	"github.com/moaaz-s/7awel-auth-core/internal/token"
	userdomain "github.com/moaaz-s/7awel-auth-core/internal/user/domain"
	walletdomain "github.com/moaaz-s/7awel-auth-core/internal/wallet/domain"
)

// Orchestration errors. These indicate a programming or configuration defect,
// not an expected step failure; callers should restart the flow.
var (
	ErrUnknownFlowType = errors.New("flow: unknown flow type")
	ErrEmptyFlow       = errors.New("flow: empty step table")
	ErrStepNotFound    = errors.New("flow: current step not in step table")
	ErrNoNextStep      = errors.New("flow: no next step resolvable")
)

// OTPService issues and verifies OTP challenges for a contact target.
type OTPService interface {
	Send(ctx context.Context, medium otpdomain.Medium, target string) error
	Verify(ctx context.Context, medium otpdomain.Medium, target, code string) error
	Expiry(ctx context.Context, medium otpdomain.Medium, target string) (time.Time, error)
	CheckAvailability(ctx context.Context, medium otpdomain.Medium, target string) error
}

// ProfileService reads and updates the wallet user profile.
type ProfileService interface {
	Get(ctx context.Context, userID string) (*userdomain.User, error)
	GetByContact(ctx context.Context, phone, email string) (*userdomain.User, error)
	UpdateProfile(ctx context.Context, userID, firstName, lastName string) (*userdomain.User, error)
}

// TokenService acquires the device's auth token pair.
type TokenService interface {
	Acquire(ctx context.Context, phone, email string, phoneVerified, emailVerified, signup bool) (*token.AcquireResult, error)
}

// PinService stores and validates the device PIN.
type PinService interface {
	Set(ctx context.Context, pin string) error
	Validate(ctx context.Context, pin string) error
	Configured(ctx context.Context) (bool, error)
}

// WalletService creates the user's wallet.
type WalletService interface {
	Create(ctx context.Context, userID string) (*walletdomain.Wallet, error)
}

// SecurityState reads the device's token and session records. Implemented by
// devicestate.Store. External logout and session-expiry timers mutate the
// store concurrently, so it is re-read on every state build, never cached.
type SecurityState interface {
	Session(ctx context.Context) (*devicestate.Session, error)
	Token(ctx context.Context) (*devicestate.TokenRecord, error)
}

// Service drives authentication flows. It owns the step tables and the state
// builder; all external work goes through the narrow collaborator interfaces
// above.
type Service struct {
	otps     OTPService
	profiles ProfileService
	tokens   TokenService
	pins     PinService
	wallets  WalletService
	device   SecurityState
	auditor  audit.AuditLogger
	emitter  telemetry.EventEmitter
	deviceID string
	nowF     func() time.Time
}

// NewService returns a flow service bound to the given device ID. auditor and
// emitter may be nil; auditing and telemetry are then disabled.
func NewService(otps OTPService, profiles ProfileService, tokens TokenService, pins PinService, wallets WalletService, device SecurityState, auditor audit.AuditLogger, emitter telemetry.EventEmitter, deviceID string) *Service {
	if auditor == nil {
		auditor = audit.NopLogger{}
	}
	return &Service{
		otps:     otps,
		profiles: profiles,
		tokens:   tokens,
		pins:     pins,
		wallets:  wallets,
		device:   device,
		auditor:  auditor,
		emitter:  emitter,
		deviceID: deviceID,
		nowF:     func() time.Time { return time.Now().UTC() },
	}
}
