package service

import (
	"errors"
	"time"

	"github.com/moaaz-s/7awel-auth-core/internal/flow/domain"
)

// Pure step handlers. A handler validates its payload and returns the partial
// state update plus an optional explicit next step. Handlers never perform
// I/O; anything they need beyond state and payload was merged in by the
// step's side effect.

// errMissingField marks a handler failure caused by absent payload input; the
// orchestrator surfaces it as a validation error code.
var errMissingField = errors.New("flow: required payload field missing")

func handlePhoneEntry(st domain.FlowState, p domain.Payload) (domain.HandlerResult, error) {
	if p.CountryCode == "" || p.PhoneNumber == "" {
		return domain.HandlerResult{}, errMissingField
	}
	return domain.HandlerResult{Data: domain.Delta{
		Phone:          domain.String(p.CountryCode + p.PhoneNumber),
		CountryCode:    domain.String(p.CountryCode),
		PhoneNumber:    domain.String(p.PhoneNumber),
		PhoneValidated: domain.Bool(true),
	}}, nil
}

func handlePhoneOTP(st domain.FlowState, p domain.Payload) (domain.HandlerResult, error) {
	if p.OTP == "" {
		return domain.HandlerResult{}, errMissingField
	}
	return domain.HandlerResult{Data: domain.Delta{
		PhoneVerified:   domain.Bool(true),
		PhoneOTPExpires: domain.Time(time.Time{}),
	}}, nil
}

func handleEmailEntry(st domain.FlowState, p domain.Payload) (domain.HandlerResult, error) {
	if p.Email == "" {
		return domain.HandlerResult{}, errMissingField
	}
	return domain.HandlerResult{Data: domain.Delta{
		Email:          domain.String(p.Email),
		EmailValidated: domain.Bool(true),
	}}, nil
}

func handleEmailOTP(st domain.FlowState, p domain.Payload) (domain.HandlerResult, error) {
	if p.OTP == "" {
		return domain.HandlerResult{}, errMissingField
	}
	return domain.HandlerResult{Data: domain.Delta{
		EmailVerified:   domain.Bool(true),
		EmailOTPExpires: domain.Time(time.Time{}),
	}}, nil
}

// handleTokenAcquisition marks the token truth flags; the actual acquisition
// already happened in the side effect and the state builder re-derives these
// from the device store afterwards anyway.
func handleTokenAcquisition(st domain.FlowState, p domain.Payload) (domain.HandlerResult, error) {
	return domain.HandlerResult{Data: domain.Delta{
		TokenExists:   domain.Bool(true),
		TokenValid:    domain.Bool(true),
		SessionActive: domain.Bool(true),
	}}, nil
}

func handleUserProfile(st domain.FlowState, p domain.Payload) (domain.HandlerResult, error) {
	if p.FirstName == "" || p.LastName == "" {
		return domain.HandlerResult{}, errMissingField
	}
	return domain.HandlerResult{Data: domain.Delta{
		RegistrationComplete: domain.Bool(true),
	}}, nil
}

// handleWalletCreation expects the wallet address to have been merged in by
// the side effect.
func handleWalletCreation(st domain.FlowState, p domain.Payload) (domain.HandlerResult, error) {
	if st.WalletAddress == "" {
		return domain.HandlerResult{}, errors.New("flow: wallet address missing after creation")
	}
	return domain.HandlerResult{Data: domain.Delta{
		WalletCreated: domain.Bool(true),
	}}, nil
}

// handlePinSetup concludes the flow: PIN completion always jumps straight to
// the terminal step, bypassing condition scanning once. Shared by the
// pin-setup and pin-reset steps.
func handlePinSetup(st domain.FlowState, p domain.Payload) (domain.HandlerResult, error) {
	if p.Pin == "" {
		return domain.HandlerResult{}, errMissingField
	}
	return domain.HandlerResult{
		NextStep: domain.StepAuthenticated,
		Data: domain.Delta{
			PinSet:      domain.Bool(true),
			PinVerified: domain.Bool(true),
		},
	}, nil
}

func handlePinEntry(st domain.FlowState, p domain.Payload) (domain.HandlerResult, error) {
	if p.Pin == "" {
		return domain.HandlerResult{}, errMissingField
	}
	return domain.HandlerResult{
		NextStep: domain.StepAuthenticated,
		Data: domain.Delta{
			PinVerified: domain.Bool(true),
		},
	}, nil
}
