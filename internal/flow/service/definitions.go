package service

import "github.com/moaaz-s/7awel-auth-core/internal/flow/domain"

// Steps returns the ordered step table for flowType. Steps are pooled: the
// same condition/handler/effect triple backs every flow that includes the
// step, so identical business rules are not duplicated. Order is only the
// forward-scan order; conditions decide whether a step is entered.
func (s *Service) Steps(flowType domain.FlowType) (domain.Steps, error) {
	phoneEntry := domain.Step{ID: domain.StepPhoneEntry, Condition: s.condPhoneEntry, Handler: handlePhoneEntry, Effect: s.effectPhoneEntry}
	phoneOTP := domain.Step{ID: domain.StepPhoneOTP, Condition: s.condPhoneOTP, Handler: handlePhoneOTP, Effect: s.effectPhoneOTP}
	emailEntry := domain.Step{ID: domain.StepEmailEntry, Condition: s.condEmailEntry, Handler: handleEmailEntry, Effect: s.effectEmailEntry}
	emailOTP := domain.Step{ID: domain.StepEmailOTP, Condition: s.condEmailOTP, Handler: handleEmailOTP, Effect: s.effectEmailOTP}
	tokenAcq := domain.Step{ID: domain.StepTokenAcquisition, Condition: s.condTokenAcquisition, Handler: handleTokenAcquisition, Effect: s.effectTokenAcquisition}
	userProfile := domain.Step{ID: domain.StepUserProfile, Condition: s.condUserProfile, Handler: handleUserProfile, Effect: s.effectUserProfile}
	walletCreation := domain.Step{ID: domain.StepWalletCreation, Condition: s.condWalletCreation, Handler: handleWalletCreation, Effect: s.effectWalletCreation}
	pinSetup := domain.Step{ID: domain.StepPinSetup, Condition: s.condPinSetup, Handler: handlePinSetup, Effect: s.effectPinSetup}
	pinReset := domain.Step{ID: domain.StepPinReset, Condition: s.condPinReset, Handler: handlePinSetup, Effect: s.effectPinSetup}
	pinEntry := domain.Step{ID: domain.StepPinEntry, Condition: s.condPinEntry, Handler: handlePinEntry, Effect: s.effectPinEntry}
	authenticated := domain.Step{ID: domain.StepAuthenticated, Condition: s.condAuthenticated}

	switch flowType {
	case domain.FlowSignUp:
		return domain.Steps{phoneEntry, phoneOTP, emailEntry, emailOTP, tokenAcq, userProfile, walletCreation, pinSetup, authenticated}, nil
	case domain.FlowSignIn:
		return domain.Steps{phoneEntry, phoneOTP, emailEntry, emailOTP, tokenAcq, userProfile, walletCreation, pinEntry, pinSetup, authenticated}, nil
	case domain.FlowForgotPIN:
		return domain.Steps{phoneEntry, phoneOTP, emailEntry, emailOTP, tokenAcq, pinReset, authenticated}, nil
	}
	return nil, ErrUnknownFlowType
}
