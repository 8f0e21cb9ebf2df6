package service

import (
	"time"

	"github.com/moaaz-s/7awel-auth-core/internal/flow/domain"
)

// Step conditions. Each is pure over FlowState apart from the clock, and
// monotonic with respect to the flags its step sets: once a step has done its
// work, its own condition can never become true again within the run.

// otpOutstanding reports whether a dispatched OTP is still inside its expiry
// window. The zero time means no OTP was dispatched.
func otpOutstanding(expires, now time.Time) bool {
	return !expires.IsZero() && expires.After(now)
}

// condPhoneEntry: no valid token, phone not yet OTP-confirmed, and either the
// phone was never accepted or its OTP has expired (re-send via re-entry).
func (s *Service) condPhoneEntry(st domain.FlowState) bool {
	return !st.TokenValid && !st.PhoneVerified &&
		(!st.PhoneValidated || !otpOutstanding(st.PhoneOTPExpires, s.nowF()))
}

// condPhoneOTP: phone accepted, OTP dispatched and still pending.
func (s *Service) condPhoneOTP(st domain.FlowState) bool {
	return !st.TokenValid && !st.PhoneVerified &&
		st.PhoneValidated && otpOutstanding(st.PhoneOTPExpires, s.nowF())
}

func (s *Service) condEmailEntry(st domain.FlowState) bool {
	return !st.TokenValid && st.PhoneVerified && !st.EmailVerified &&
		(!st.EmailValidated || !otpOutstanding(st.EmailOTPExpires, s.nowF()))
}

func (s *Service) condEmailOTP(st domain.FlowState) bool {
	return !st.TokenValid && st.PhoneVerified && !st.EmailVerified &&
		st.EmailValidated && otpOutstanding(st.EmailOTPExpires, s.nowF())
}

func (s *Service) condTokenAcquisition(st domain.FlowState) bool {
	return !st.TokenValid && st.PhoneVerified && st.EmailVerified
}

func (s *Service) condUserProfile(st domain.FlowState) bool {
	return st.TokenValid && !st.User.ProfileComplete()
}

// condWalletCreation also consults the fetched profile: a user already
// carrying a wallet address never re-enters the step, even before the state
// builder has derived the WalletCreated flag.
func (s *Service) condWalletCreation(st domain.FlowState) bool {
	return st.TokenValid && st.User.ProfileComplete() && !st.WalletCreated && !st.User.HasWallet()
}

func (s *Service) condPinSetup(st domain.FlowState) bool {
	return st.TokenValid && !st.PinSet
}

func (s *Service) condPinEntry(st domain.FlowState) bool {
	return st.TokenValid && st.PinSet && !st.PinVerified
}

// condPinReset ignores PinSet: during a forgot-PIN run the old credential is
// replaced regardless of whether one exists.
func (s *Service) condPinReset(st domain.FlowState) bool {
	return st.TokenValid && !st.PinVerified
}

func (s *Service) condAuthenticated(st domain.FlowState) bool {
	return st.TokenValid && st.PinSet && st.PinVerified
}
