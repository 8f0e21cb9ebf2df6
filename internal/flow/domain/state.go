package domain

import (
	"time"

	userdomain "github.com/moaaz-s/7awel-auth-core/internal/user/domain"
)

// FlowState is the single record threaded through a flow run. Contact fields
// are set once validated and not changed again within a run; the computed
// truths (TokenExists, TokenValid, SessionActive, PinSet) are overwritten by
// the state builder from the device store on every rebuild and must never be
// trusted from caller-supplied seed data.
type FlowState struct {
	FlowType FlowType

	// Identity / contact.
	Phone       string // full identifier, dial code + national number
	CountryCode string
	PhoneNumber string
	Email       string

	// Verification flags. PhoneValidated means "contact accepted and OTP
	// dispatched"; PhoneVerified means "OTP confirmed". Same split for email.
	// All are set forward only; a flow restart is the only reset.
	PhoneValidated       bool
	PhoneVerified        bool
	EmailValidated       bool
	EmailVerified        bool
	PinSet               bool
	PinVerified          bool
	RegistrationComplete bool

	// Computed truth, owned by the state builder.
	TokenExists   bool
	TokenValid    bool
	SessionActive bool

	// OTP timers. Zero means no OTP outstanding.
	PhoneOTPExpires time.Time
	EmailOTPExpires time.Time

	// Derived profile.
	User          *userdomain.User
	WalletCreated bool
	WalletAddress string
}

// Delta is a partial FlowState update returned by side effects and handlers.
// Nil fields leave the state untouched; Apply merges with later layers winning.
type Delta struct {
	Phone       *string
	CountryCode *string
	PhoneNumber *string
	Email       *string

	PhoneValidated       *bool
	PhoneVerified        *bool
	EmailValidated       *bool
	EmailVerified        *bool
	PinSet               *bool
	PinVerified          *bool
	RegistrationComplete *bool

	TokenExists   *bool
	TokenValid    *bool
	SessionActive *bool

	// Timers may be cleared by setting the zero time.
	PhoneOTPExpires *time.Time
	EmailOTPExpires *time.Time

	User          *userdomain.User
	WalletCreated *bool
	WalletAddress *string
}

// Apply returns a copy of s with every non-nil field of d merged in.
func (d Delta) Apply(s FlowState) FlowState {
	if d.Phone != nil {
		s.Phone = *d.Phone
	}
	if d.CountryCode != nil {
		s.CountryCode = *d.CountryCode
	}
	if d.PhoneNumber != nil {
		s.PhoneNumber = *d.PhoneNumber
	}
	if d.Email != nil {
		s.Email = *d.Email
	}
	if d.PhoneValidated != nil {
		s.PhoneValidated = *d.PhoneValidated
	}
	if d.PhoneVerified != nil {
		s.PhoneVerified = *d.PhoneVerified
	}
	if d.EmailValidated != nil {
		s.EmailValidated = *d.EmailValidated
	}
	if d.EmailVerified != nil {
		s.EmailVerified = *d.EmailVerified
	}
	if d.PinSet != nil {
		s.PinSet = *d.PinSet
	}
	if d.PinVerified != nil {
		s.PinVerified = *d.PinVerified
	}
	if d.RegistrationComplete != nil {
		s.RegistrationComplete = *d.RegistrationComplete
	}
	if d.TokenExists != nil {
		s.TokenExists = *d.TokenExists
	}
	if d.TokenValid != nil {
		s.TokenValid = *d.TokenValid
	}
	if d.SessionActive != nil {
		s.SessionActive = *d.SessionActive
	}
	if d.PhoneOTPExpires != nil {
		s.PhoneOTPExpires = *d.PhoneOTPExpires
	}
	if d.EmailOTPExpires != nil {
		s.EmailOTPExpires = *d.EmailOTPExpires
	}
	if d.User != nil {
		s.User = d.User
	}
	if d.WalletCreated != nil {
		s.WalletCreated = *d.WalletCreated
	}
	if d.WalletAddress != nil {
		s.WalletAddress = *d.WalletAddress
	}
	return s
}

// IsZero reports whether the delta carries no update at all.
func (d Delta) IsZero() bool {
	return d == Delta{}
}

// Pointer helpers for building deltas.

func Bool(v bool) *bool { return &v }

func String(v string) *string { return &v }

func Time(v time.Time) *time.Time { return &v }
