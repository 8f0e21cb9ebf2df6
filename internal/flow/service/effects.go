package service

import (
	"context"
	"errors"
	"log"

	"github.com/moaaz-s/7awel-auth-core/internal/audit"
	"github.com/moaaz-s/7awel-auth-core/internal/flow/domain"
	otpdomain "github.com/moaaz-s/7awel-auth-core/internal/otp/domain"
	otpservice "github.com/moaaz-s/7awel-auth-core/internal/otp/service"
	"github.com/moaaz-s/7awel-auth-core/internal/pin"
	"github.com/moaaz-s/7awel-auth-core/internal/token"
	usersvc "github.com/moaaz-s/7awel-auth-core/internal/user/service"
)

// Side-effect executors. Each performs the one external call of its step and
// reports the outcome as an EffectResult: expected failures come back as
// Fail(code), fetched data as OK(delta). The error return is reserved for
// unexpected defects; the orchestrator downgrades those to an unknown-error
// result.

// otpFailure translates OTP service sentinels into step error codes.
func otpFailure(err error) (domain.EffectResult, error) {
	switch {
	case errors.Is(err, otpservice.ErrOTPInvalid):
		return domain.Fail(domain.CodeOTPInvalid), nil
	case errors.Is(err, otpservice.ErrOTPExpired):
		return domain.Fail(domain.CodeOTPExpired), nil
	case errors.Is(err, otpservice.ErrOTPLocked):
		return domain.Fail(domain.CodeOTPLocked), nil
	case errors.Is(err, otpservice.ErrPhoneRegistered):
		return domain.Fail(domain.CodePhoneRegistered), nil
	case errors.Is(err, otpservice.ErrEmailRegistered):
		return domain.Fail(domain.CodeEmailRegistered), nil
	}
	return domain.EffectResult{}, err
}

// effectPhoneEntry dispatches a phone OTP. Safe to call repeatedly: a resend
// replaces the outstanding challenge with a fresh code and expiry.
func (s *Service) effectPhoneEntry(ctx context.Context, st domain.FlowState, p domain.Payload) (domain.EffectResult, error) {
	if p.CountryCode == "" || p.PhoneNumber == "" {
		return domain.Fail(domain.CodeValidation), nil
	}
	phone := p.CountryCode + p.PhoneNumber
	if st.FlowType == domain.FlowSignUp {
		if err := s.otps.CheckAvailability(ctx, otpdomain.MediumPhone, phone); err != nil {
			return otpFailure(err)
		}
	}
	if err := s.otps.Send(ctx, otpdomain.MediumPhone, phone); err != nil {
		return otpFailure(err)
	}
	expires, err := s.otps.Expiry(ctx, otpdomain.MediumPhone, phone)
	if err != nil {
		return domain.EffectResult{}, err
	}
	s.auditor.LogEvent(ctx, userID(st), audit.ActionOTPSent, "otp", "phone:"+phone, "")
	return domain.OK(&domain.Delta{PhoneOTPExpires: domain.Time(expires)}), nil
}

func (s *Service) effectPhoneOTP(ctx context.Context, st domain.FlowState, p domain.Payload) (domain.EffectResult, error) {
	if p.OTP == "" {
		return domain.Fail(domain.CodeValidation), nil
	}
	if err := s.otps.Verify(ctx, otpdomain.MediumPhone, st.Phone, p.OTP); err != nil {
		return otpFailure(err)
	}
	s.auditor.LogEvent(ctx, userID(st), audit.ActionOTPVerified, "otp", "phone:"+st.Phone, "")
	return domain.OK(nil), nil
}

func (s *Service) effectEmailEntry(ctx context.Context, st domain.FlowState, p domain.Payload) (domain.EffectResult, error) {
	if p.Email == "" {
		return domain.Fail(domain.CodeValidation), nil
	}
	if st.FlowType == domain.FlowSignUp {
		if err := s.otps.CheckAvailability(ctx, otpdomain.MediumEmail, p.Email); err != nil {
			return otpFailure(err)
		}
	}
	if err := s.otps.Send(ctx, otpdomain.MediumEmail, p.Email); err != nil {
		return otpFailure(err)
	}
	expires, err := s.otps.Expiry(ctx, otpdomain.MediumEmail, p.Email)
	if err != nil {
		return domain.EffectResult{}, err
	}
	s.auditor.LogEvent(ctx, userID(st), audit.ActionOTPSent, "otp", "email:"+p.Email, "")
	return domain.OK(&domain.Delta{EmailOTPExpires: domain.Time(expires)}), nil
}

func (s *Service) effectEmailOTP(ctx context.Context, st domain.FlowState, p domain.Payload) (domain.EffectResult, error) {
	if p.OTP == "" {
		return domain.Fail(domain.CodeValidation), nil
	}
	if err := s.otps.Verify(ctx, otpdomain.MediumEmail, st.Email, p.OTP); err != nil {
		return otpFailure(err)
	}
	s.auditor.LogEvent(ctx, userID(st), audit.ActionOTPVerified, "otp", "email:"+st.Email, "")
	return domain.OK(nil), nil
}

// effectTokenAcquisition acquires the token pair and fetches the owning user
// profile so later steps have it. The profile fetch failing is not fatal; the
// state builder retries it on the next rebuild.
func (s *Service) effectTokenAcquisition(ctx context.Context, st domain.FlowState, p domain.Payload) (domain.EffectResult, error) {
	res, err := s.tokens.Acquire(ctx, st.Phone, st.Email, st.PhoneVerified, st.EmailVerified, st.FlowType == domain.FlowSignUp)
	if err != nil {
		if errors.Is(err, token.ErrContactNotVerified) {
			return domain.Fail(domain.CodeValidation), nil
		}
		log.Printf("flow: token acquisition failed: %v", err)
		return domain.Fail(domain.CodeTokenFailed), nil
	}
	s.auditor.LogEvent(ctx, res.UserID, audit.ActionTokenIssued, "token", res.SessionID, "")
	s.auditor.LogEvent(ctx, res.UserID, audit.ActionSessionCreated, "session", res.SessionID, "")

	data := &domain.Delta{}
	u, err := s.profiles.Get(ctx, res.UserID)
	if err != nil {
		log.Printf("flow: profile fetch after token acquisition failed: %v", err)
	} else {
		data.User = u
	}
	return domain.OK(data), nil
}

func (s *Service) effectUserProfile(ctx context.Context, st domain.FlowState, p domain.Payload) (domain.EffectResult, error) {
	if p.FirstName == "" || p.LastName == "" {
		return domain.Fail(domain.CodeValidation), nil
	}
	id := userID(st)
	if id == "" {
		u, err := s.profiles.GetByContact(ctx, st.Phone, st.Email)
		if err != nil || u == nil {
			return domain.Fail(domain.CodeProfileFailed), nil
		}
		id = u.ID
	}
	u, err := s.profiles.UpdateProfile(ctx, id, p.FirstName, p.LastName)
	if err != nil {
		if errors.Is(err, usersvc.ErrNameRequired) {
			return domain.Fail(domain.CodeValidation), nil
		}
		log.Printf("flow: profile update failed: %v", err)
		return domain.Fail(domain.CodeProfileFailed), nil
	}
	return domain.OK(&domain.Delta{User: u}), nil
}

func (s *Service) effectWalletCreation(ctx context.Context, st domain.FlowState, p domain.Payload) (domain.EffectResult, error) {
	if st.User == nil {
		return domain.EffectResult{}, errors.New("flow: wallet creation without a user profile")
	}
	w, err := s.wallets.Create(ctx, st.User.ID)
	if err != nil {
		return domain.EffectResult{}, err
	}
	s.auditor.LogEvent(ctx, st.User.ID, audit.ActionWalletCreated, "wallet", w.ID, "address="+w.Address)
	return domain.OK(&domain.Delta{WalletAddress: domain.String(w.Address)}), nil
}

// effectPinSetup persists the new PIN credential. Shared by the pin-setup and
// pin-reset steps.
func (s *Service) effectPinSetup(ctx context.Context, st domain.FlowState, p domain.Payload) (domain.EffectResult, error) {
	if p.Pin == "" {
		return domain.Fail(domain.CodeValidation), nil
	}
	if err := s.pins.Set(ctx, p.Pin); err != nil {
		if errors.Is(err, pin.ErrPinFormat) {
			return domain.Fail(domain.CodeValidation), nil
		}
		return domain.EffectResult{}, err
	}
	s.auditor.LogEvent(ctx, userID(st), audit.ActionPinSet, "pin", s.deviceID, "")
	return domain.OK(nil), nil
}

func (s *Service) effectPinEntry(ctx context.Context, st domain.FlowState, p domain.Payload) (domain.EffectResult, error) {
	if p.Pin == "" {
		return domain.Fail(domain.CodeValidation), nil
	}
	if err := s.pins.Validate(ctx, p.Pin); err != nil {
		switch {
		case errors.Is(err, pin.ErrPinInvalid):
			s.auditor.LogEvent(ctx, userID(st), audit.ActionPinFailed, "pin", s.deviceID, "")
			return domain.Fail(domain.CodePinInvalid), nil
		case errors.Is(err, pin.ErrPinLocked):
			return domain.Fail(domain.CodePinLocked), nil
		case errors.Is(err, pin.ErrNoPinSet):
			return domain.Fail(domain.CodeValidation), nil
		}
		return domain.EffectResult{}, err
	}
	s.auditor.LogEvent(ctx, userID(st), audit.ActionPinVerified, "pin", s.deviceID, "")
	return domain.OK(nil), nil
}

func userID(st domain.FlowState) string {
	if st.User != nil {
		return st.User.ID
	}
	return ""
}
