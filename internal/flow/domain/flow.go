// Package domain holds the flow-step model: flow types, step identifiers,
// the FlowState record threaded through a flow run, and the tagged step
// variant (condition + pure handler + side effect) the orchestrator executes.
package domain

import "context"

// FlowType names one authentication journey.
type FlowType string

const (
	FlowSignUp    FlowType = "signup"
	FlowSignIn    FlowType = "signin"
	FlowForgotPIN FlowType = "forgot-pin"
)

// StepID names one stage within a flow.
type StepID string

const (
	StepPhoneEntry       StepID = "phone-entry"
	StepPhoneOTP         StepID = "phone-otp"
	StepEmailEntry       StepID = "email-entry"
	StepEmailOTP         StepID = "email-otp"
	StepTokenAcquisition StepID = "token-acquisition"
	StepUserProfile      StepID = "user-profile"
	StepWalletCreation   StepID = "wallet-creation"
	StepPinSetup         StepID = "pin-setup"
	StepPinReset         StepID = "pin-reset"
	StepPinEntry         StepID = "pin-entry"
	StepAuthenticated    StepID = "authenticated"
)

// ConditionFunc decides whether a step should currently be visited. It must be
// pure and monotonic with respect to the flags its step sets, so a completed
// step can never re-enable itself.
type ConditionFunc func(s FlowState) bool

// HandlerFunc is the pure transition function of a step. It validates the
// payload and returns the partial state update plus an optional explicit next
// step. It must not perform I/O; anything it needs beyond state and payload
// has been merged in by the step's side effect already.
type HandlerFunc func(s FlowState, p Payload) (HandlerResult, error)

// EffectFunc performs the single external call of a step and reports the
// outcome as an EffectResult. Expected failures (invalid OTP, contact already
// registered, ...) are returned inside the result; the error return is
// reserved for unexpected defects.
type EffectFunc func(ctx context.Context, s FlowState, p Payload) (EffectResult, error)

// Step is one tagged variant in a flow definition.
type Step struct {
	ID        StepID
	Condition ConditionFunc
	Handler   HandlerFunc
	Effect    EffectFunc
}

// Steps is the ordered step table of one flow type. Order is only the scan
// order for "next visitable step"; conditions decide whether a step is entered.
type Steps []Step

// Index returns the position of id in the table, or -1 when absent.
func (ss Steps) Index(id StepID) int {
	for i, s := range ss {
		if s.ID == id {
			return i
		}
	}
	return -1
}
