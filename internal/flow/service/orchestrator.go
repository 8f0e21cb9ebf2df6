package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/moaaz-s/7awel-auth-core/internal/audit"
	"github.com/moaaz-s/7awel-auth-core/internal/flow/domain"
	"github.com/moaaz-s/7awel-auth-core/internal/telemetry"
	telemetrydomain "github.com/moaaz-s/7awel-auth-core/internal/telemetry/domain"
)

// Initiate starts a flow run: build the initial state (seed merged in, truths
// reconciled), then scan the step table from the start for the first step
// whose condition holds. A "back"/resend action is a re-initiation with
// adjusted seed data (e.g. an OTP expiry forced into the past), not a
// cancellation of an in-flight call.
func (s *Service) Initiate(ctx context.Context, flowType domain.FlowType, seed *domain.Delta) (*domain.Init, error) {
	steps, err := s.Steps(flowType)
	if err != nil {
		return nil, err
	}
	if len(steps) == 0 {
		return nil, ErrEmptyFlow
	}

	state, err := s.BuildFlowState(ctx, domain.FlowState{FlowType: flowType}, seed)
	if err != nil {
		return nil, err
	}

	// During a PIN reset the user must not change contact info; token
	// possession stands in for re-proving ownership of the cached contacts.
	if flowType == domain.FlowForgotPIN && state.User != nil {
		state = preseedContacts(state)
	}

	idx := scanSteps(steps, 0, state)
	if idx < 0 {
		return nil, ErrNoNextStep
	}

	s.emit(state, telemetrydomain.EventFlowInitiated, string(steps[idx].ID), true, "")
	s.auditor.LogEvent(ctx, userID(state), audit.ActionFlowInitiated, "flow", string(flowType), "step="+string(steps[idx].ID))

	return &domain.Init{
		FlowType:         flowType,
		Steps:            steps,
		CurrentStep:      steps[idx].ID,
		CurrentStepIndex: idx,
		State:            state,
	}, nil
}

// Advance drives one step transition: side effect, merge, pure handler,
// merge, next-step resolution, state rebuild. Expected failures come back as
// an unsuccessful AdvanceResult carrying the caller's input state unchanged;
// the error return is reserved for orchestration and reconciliation defects,
// which are fatal for the flow instance.
func (s *Service) Advance(ctx context.Context, currentStep domain.StepID, state domain.FlowState, p domain.Payload, steps domain.Steps) (*domain.AdvanceResult, error) {
	if len(steps) == 0 {
		return nil, ErrEmptyFlow
	}
	idx := steps.Index(currentStep)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrStepNotFound, currentStep)
	}

	// Terminal step re-entry is idempotent while the session holds.
	if currentStep == domain.StepAuthenticated {
		final, err := s.BuildFlowState(ctx, state, nil)
		if err != nil {
			return nil, err
		}
		if !final.SessionActive {
			return failResult(state, domain.CodeValidation), nil
		}
		return &domain.AdvanceResult{Success: true, NextStep: domain.StepAuthenticated, NextStepIndex: idx, State: final}, nil
	}

	step := steps[idx]

	res, err := s.runEffect(ctx, step, state, p)
	if err != nil {
		log.Printf("flow: %s side effect failed: %v", step.ID, err)
		s.emit(state, telemetrydomain.EventFlowAdvanced, string(step.ID), false, string(domain.CodeUnknown))
		return failResult(state, domain.CodeUnknown), nil
	}
	if !res.Success {
		code := res.Code
		if code == "" {
			code = domain.CodeUnknown
		}
		s.emit(state, telemetrydomain.EventFlowAdvanced, string(step.ID), false, string(code))
		return failResult(state, code), nil
	}

	working := state
	if res.Data != nil {
		working = res.Data.Apply(working)
	}

	hr, err := s.runHandler(step, working, p)
	if err != nil {
		code := domain.CodeUnknown
		if errors.Is(err, errMissingField) {
			code = domain.CodeValidation
		} else {
			log.Printf("flow: %s handler failed: %v", step.ID, err)
		}
		s.emit(state, telemetrydomain.EventFlowAdvanced, string(step.ID), false, string(code))
		return failResult(state, code), nil
	}
	working = hr.Data.Apply(working)

	// Explicit handler directives may name steps outside the table (index -1);
	// otherwise scan forward using conditions against the working state.
	var next domain.StepID
	nextIdx := -1
	if hr.NextStep != "" {
		next = hr.NextStep
		nextIdx = steps.Index(next)
	} else {
		nextIdx = scanSteps(steps, idx+1, working)
		if nextIdx < 0 {
			return nil, fmt.Errorf("%w: after %s", ErrNoNextStep, step.ID)
		}
		next = steps[nextIdx].ID
	}

	final, err := s.BuildFlowState(ctx, working, nil)
	if err != nil {
		return nil, err
	}

	s.emit(final, telemetrydomain.EventFlowAdvanced, string(step.ID), true, "")
	if next == domain.StepAuthenticated {
		s.emit(final, telemetrydomain.EventFlowCompleted, string(next), true, "")
		s.auditor.LogEvent(ctx, userID(final), audit.ActionFlowCompleted, "flow", string(final.FlowType), "")
	}

	return &domain.AdvanceResult{Success: true, NextStep: next, NextStepIndex: nextIdx, State: final}, nil
}

// preseedContacts marks the profile's contacts as already validated and
// verified.
func preseedContacts(st domain.FlowState) domain.FlowState {
	if st.User.Phone != "" {
		st.Phone = st.User.Phone
		st.PhoneValidated = true
		st.PhoneVerified = true
	}
	if st.User.Email != "" {
		st.Email = st.User.Email
		st.EmailValidated = true
		st.EmailVerified = true
	}
	return st
}

// scanSteps returns the index of the first step at or after from whose
// condition holds, or -1.
func scanSteps(steps domain.Steps, from int, st domain.FlowState) int {
	for i := from; i < len(steps); i++ {
		if steps[i].Condition(st) {
			return i
		}
	}
	return -1
}

func failResult(st domain.FlowState, code domain.ErrorCode) *domain.AdvanceResult {
	return &domain.AdvanceResult{Success: false, Code: code, NextStepIndex: -1, State: st}
}

// runEffect executes the step side effect; a nil effect succeeds with no
// data. A panic is downgraded to an error so a defective effect cannot crash
// the flow.
func (s *Service) runEffect(ctx context.Context, step domain.Step, st domain.FlowState, p domain.Payload) (res domain.EffectResult, err error) {
	if step.Effect == nil {
		return domain.OK(nil), nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("flow: %s side effect panic: %v", step.ID, r)
		}
	}()
	return step.Effect(ctx, st, p)
}

// runHandler executes the pure handler with the same panic downgrade.
func (s *Service) runHandler(step domain.Step, st domain.FlowState, p domain.Payload) (hr domain.HandlerResult, err error) {
	if step.Handler == nil {
		return domain.HandlerResult{}, nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("flow: %s handler panic: %v", step.ID, r)
		}
	}()
	return step.Handler(st, p)
}

func (s *Service) emit(st domain.FlowState, eventType, step string, success bool, code string) {
	telemetry.EmitAsync(s.emitter, &telemetrydomain.Event{
		UserID:    userID(st),
		DeviceID:  s.deviceID,
		FlowType:  string(st.FlowType),
		Step:      step,
		EventType: eventType,
		Success:   success,
		Code:      code,
		CreatedAt: s.nowF(),
	})
}
