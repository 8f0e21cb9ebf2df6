package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"reflect"
	"testing"
	"time"

	"github.com/moaaz-s/7awel-auth-core/internal/flow/domain"
)

func TestSignUp_HappyPath(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	init, err := env.svc.Initiate(ctx, domain.FlowSignUp, nil)
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if init.CurrentStep != domain.StepPhoneEntry {
		t.Fatalf("initial step = %s, want %s", init.CurrentStep, domain.StepPhoneEntry)
	}
	steps := init.Steps

	res := env.advance(t, domain.StepPhoneEntry, init.State, domain.Payload{CountryCode: "+1", PhoneNumber: "5551234567"}, steps)
	if res.NextStep != domain.StepPhoneOTP {
		t.Fatalf("after phone-entry next = %s, want %s", res.NextStep, domain.StepPhoneOTP)
	}
	if res.State.Phone != "+15551234567" {
		t.Errorf("phone = %q, want +15551234567", res.State.Phone)
	}
	if !res.State.PhoneValidated || res.State.PhoneVerified {
		t.Errorf("flags after entry: validated=%v verified=%v", res.State.PhoneValidated, res.State.PhoneVerified)
	}
	if !res.State.PhoneOTPExpires.After(time.Now()) {
		t.Errorf("phone otp expiry %v not in the future", res.State.PhoneOTPExpires)
	}

	code := env.otpFor(t, "phone", "+15551234567")
	res = env.advance(t, domain.StepPhoneOTP, res.State, domain.Payload{OTP: code}, steps)
	if res.NextStep != domain.StepEmailEntry {
		t.Fatalf("after phone-otp next = %s, want %s", res.NextStep, domain.StepEmailEntry)
	}
	if !res.State.PhoneVerified {
		t.Error("phone not verified after otp step")
	}
	if !res.State.PhoneOTPExpires.IsZero() {
		t.Error("phone otp timer not cleared after verification")
	}

	res = env.advance(t, domain.StepEmailEntry, res.State, domain.Payload{Email: "ada@example.com"}, steps)
	if res.NextStep != domain.StepEmailOTP {
		t.Fatalf("after email-entry next = %s, want %s", res.NextStep, domain.StepEmailOTP)
	}

	code = env.otpFor(t, "email", "ada@example.com")
	res = env.advance(t, domain.StepEmailOTP, res.State, domain.Payload{OTP: code}, steps)
	if res.NextStep != domain.StepTokenAcquisition {
		t.Fatalf("after email-otp next = %s, want %s", res.NextStep, domain.StepTokenAcquisition)
	}

	// Token acquisition auto-advances without payload.
	res = env.advance(t, domain.StepTokenAcquisition, res.State, domain.Payload{}, steps)
	if res.NextStep != domain.StepUserProfile {
		t.Fatalf("after token next = %s, want %s", res.NextStep, domain.StepUserProfile)
	}
	if !res.State.TokenValid || !res.State.SessionActive {
		t.Errorf("token state: valid=%v session=%v", res.State.TokenValid, res.State.SessionActive)
	}
	if res.State.User == nil {
		t.Fatal("no user after token acquisition")
	}

	res = env.advance(t, domain.StepUserProfile, res.State, domain.Payload{FirstName: "Ada", LastName: "Lovelace"}, steps)
	if res.NextStep != domain.StepWalletCreation {
		t.Fatalf("after profile next = %s, want %s", res.NextStep, domain.StepWalletCreation)
	}
	if !res.State.RegistrationComplete {
		t.Error("registration not marked complete")
	}

	res = env.advance(t, domain.StepWalletCreation, res.State, domain.Payload{}, steps)
	if res.NextStep != domain.StepPinSetup {
		t.Fatalf("after wallet next = %s, want %s", res.NextStep, domain.StepPinSetup)
	}
	if !res.State.WalletCreated || res.State.WalletAddress == "" {
		t.Errorf("wallet state: created=%v address=%q", res.State.WalletCreated, res.State.WalletAddress)
	}

	res = env.advance(t, domain.StepPinSetup, res.State, domain.Payload{Pin: "135790"}, steps)
	if res.NextStep != domain.StepAuthenticated {
		t.Fatalf("after pin-setup next = %s, want %s", res.NextStep, domain.StepAuthenticated)
	}
	if !res.State.PinSet || !res.State.PinVerified {
		t.Errorf("pin state: set=%v verified=%v", res.State.PinSet, res.State.PinVerified)
	}
	if err := env.pins.Validate(ctx, "135790"); err != nil {
		t.Errorf("stored pin does not validate: %v", err)
	}
}

func TestSignUp_InvalidOTPStaysOnStep(t *testing.T) {
	env := newTestEnv(t)
	init, err := env.svc.Initiate(context.Background(), domain.FlowSignUp, nil)
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	res := env.advance(t, domain.StepPhoneEntry, init.State, domain.Payload{CountryCode: "+1", PhoneNumber: "5550001111"}, init.Steps)
	before := res.State

	fail, err := env.svc.Advance(context.Background(), domain.StepPhoneOTP, before, domain.Payload{OTP: "000000"}, init.Steps)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if fail.Success {
		t.Fatal("expected failure for wrong otp")
	}
	if fail.Code != domain.CodeOTPInvalid {
		t.Errorf("code = %s, want %s", fail.Code, domain.CodeOTPInvalid)
	}
	if fail.NextStep != "" {
		t.Errorf("next step = %s, want absent", fail.NextStep)
	}
	if !reflect.DeepEqual(fail.State, before) {
		t.Error("state changed on a failed side effect")
	}

	// The correct code still works afterwards.
	code := env.otpFor(t, "phone", "+15550001111")
	ok := env.advance(t, domain.StepPhoneOTP, before, domain.Payload{OTP: code}, init.Steps)
	if ok.NextStep != domain.StepEmailEntry {
		t.Errorf("next = %s, want %s", ok.NextStep, domain.StepEmailEntry)
	}
}

func TestSignUp_OTPLockoutAfterBudget(t *testing.T) {
	env := newTestEnv(t)
	init, err := env.svc.Initiate(context.Background(), domain.FlowSignUp, nil)
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	res := env.advance(t, domain.StepPhoneEntry, init.State, domain.Payload{CountryCode: "+1", PhoneNumber: "5550002222"}, init.Steps)

	var code domain.ErrorCode
	for i := 0; i < 3; i++ {
		fail, err := env.svc.Advance(context.Background(), domain.StepPhoneOTP, res.State, domain.Payload{OTP: "000000"}, init.Steps)
		if err != nil {
			t.Fatalf("advance: %v", err)
		}
		code = fail.Code
	}
	if code != domain.CodeOTPLocked {
		t.Fatalf("code after exhausting attempts = %s, want %s", code, domain.CodeOTPLocked)
	}
}

func TestSignUp_RegisteredPhoneRejected(t *testing.T) {
	env := newTestEnv(t)
	env.registerUser(t, "+15553334444", "taken@example.com")

	init, err := env.svc.Initiate(context.Background(), domain.FlowSignUp, nil)
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	fail, err := env.svc.Advance(context.Background(), domain.StepPhoneEntry, init.State, domain.Payload{CountryCode: "+1", PhoneNumber: "5553334444"}, init.Steps)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if fail.Success || fail.Code != domain.CodePhoneRegistered {
		t.Fatalf("got success=%v code=%s, want %s", fail.Success, fail.Code, domain.CodePhoneRegistered)
	}
}

func TestSignUp_MissingPayloadIsValidationError(t *testing.T) {
	env := newTestEnv(t)
	init, err := env.svc.Initiate(context.Background(), domain.FlowSignUp, nil)
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	fail, err := env.svc.Advance(context.Background(), domain.StepPhoneEntry, init.State, domain.Payload{CountryCode: "+1"}, init.Steps)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if fail.Success || fail.Code != domain.CodeValidation {
		t.Fatalf("got success=%v code=%s, want %s", fail.Success, fail.Code, domain.CodeValidation)
	}
}

func TestSignUp_ResendReplacesOTP(t *testing.T) {
	env := newTestEnv(t)
	init, err := env.svc.Initiate(context.Background(), domain.FlowSignUp, nil)
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	p := domain.Payload{CountryCode: "+1", PhoneNumber: "5550003333"}

	first := env.advance(t, domain.StepPhoneEntry, init.State, p, init.Steps)
	time.Sleep(5 * time.Millisecond)
	second := env.advance(t, domain.StepPhoneEntry, init.State, p, init.Steps)

	if second.State.PhoneOTPExpires.Before(first.State.PhoneOTPExpires) {
		t.Errorf("resend expiry %v earlier than first %v", second.State.PhoneOTPExpires, first.State.PhoneOTPExpires)
	}

	// Only the fresh code is accepted.
	code := env.otpFor(t, "phone", "+15550003333")
	ok := env.advance(t, domain.StepPhoneOTP, second.State, domain.Payload{OTP: code}, init.Steps)
	if ok.NextStep != domain.StepEmailEntry {
		t.Errorf("next = %s, want %s", ok.NextStep, domain.StepEmailEntry)
	}
}

func TestInitiate_ExpiredOTPRoutesBackToEntry(t *testing.T) {
	env := newTestEnv(t)
	past := time.Now().Add(-time.Minute)
	seed := &domain.Delta{
		Phone:           domain.String("+15550004444"),
		PhoneValidated:  domain.Bool(true),
		PhoneOTPExpires: domain.Time(past),
	}
	init, err := env.svc.Initiate(context.Background(), domain.FlowSignUp, seed)
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if init.CurrentStep != domain.StepPhoneEntry {
		t.Fatalf("step = %s, want %s (expired otp re-enters entry)", init.CurrentStep, domain.StepPhoneEntry)
	}
}

func TestInitiate_OTPExpiryElapsesInRealTime(t *testing.T) {
	env := newTestEnv(t)
	// The expiry lies in the future when the service is built and elapses on
	// the wall clock before Initiate runs.
	seed := &domain.Delta{
		Phone:           domain.String("+15550006666"),
		PhoneValidated:  domain.Bool(true),
		PhoneOTPExpires: domain.Time(time.Now().UTC().Add(100 * time.Millisecond)),
	}
	time.Sleep(250 * time.Millisecond)

	init, err := env.svc.Initiate(context.Background(), domain.FlowSignUp, seed)
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if init.CurrentStep != domain.StepPhoneEntry {
		t.Fatalf("step = %s, want %s (otp expired while the service was running)", init.CurrentStep, domain.StepPhoneEntry)
	}
}

func TestInitiate_PendingOTPResumesAtOTPStep(t *testing.T) {
	env := newTestEnv(t)
	seed := &domain.Delta{
		Phone:           domain.String("+15550005555"),
		PhoneValidated:  domain.Bool(true),
		PhoneOTPExpires: domain.Time(time.Now().Add(3 * time.Minute)),
	}
	init, err := env.svc.Initiate(context.Background(), domain.FlowSignUp, seed)
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if init.CurrentStep != domain.StepPhoneOTP {
		t.Fatalf("step = %s, want %s", init.CurrentStep, domain.StepPhoneOTP)
	}
}

func TestSignIn_ExistingUserSkipsProfileAndWallet(t *testing.T) {
	env := newTestEnv(t)
	u := env.registerUser(t, "+15556667777", "ada@example.com")
	ctx := context.Background()

	init, err := env.svc.Initiate(ctx, domain.FlowSignIn, nil)
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if init.CurrentStep != domain.StepPhoneEntry {
		t.Fatalf("initial step = %s, want %s", init.CurrentStep, domain.StepPhoneEntry)
	}
	steps := init.Steps

	res := env.advance(t, domain.StepPhoneEntry, init.State, domain.Payload{CountryCode: "+1", PhoneNumber: "5556667777"}, steps)
	code := env.otpFor(t, "phone", u.Phone)
	res = env.advance(t, domain.StepPhoneOTP, res.State, domain.Payload{OTP: code}, steps)
	res = env.advance(t, domain.StepEmailEntry, res.State, domain.Payload{Email: u.Email}, steps)
	code = env.otpFor(t, "email", u.Email)
	res = env.advance(t, domain.StepEmailOTP, res.State, domain.Payload{OTP: code}, steps)
	if res.NextStep != domain.StepTokenAcquisition {
		t.Fatalf("next = %s, want %s", res.NextStep, domain.StepTokenAcquisition)
	}

	// Complete profile and existing wallet: straight to pin-setup (fresh device).
	res = env.advance(t, domain.StepTokenAcquisition, res.State, domain.Payload{}, steps)
	if res.NextStep != domain.StepPinSetup {
		t.Fatalf("next = %s, want %s", res.NextStep, domain.StepPinSetup)
	}
	if !res.State.WalletCreated {
		t.Error("existing wallet not reflected in state")
	}

	res = env.advance(t, domain.StepPinSetup, res.State, domain.Payload{Pin: "246802"}, steps)
	if res.NextStep != domain.StepAuthenticated {
		t.Fatalf("next = %s, want %s", res.NextStep, domain.StepAuthenticated)
	}
}

func TestSignIn_DeviceWithPinGoesToPinEntry(t *testing.T) {
	env := newTestEnv(t)
	u := env.registerUser(t, "+15558889999", "pin@example.com")
	ctx := context.Background()
	if err := env.pins.Set(ctx, "112233"); err != nil {
		t.Fatalf("set pin: %v", err)
	}

	init, err := env.svc.Initiate(ctx, domain.FlowSignIn, nil)
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	steps := init.Steps
	if !init.State.PinSet {
		t.Fatal("existing pin not reflected in initial state")
	}

	res := env.advance(t, domain.StepPhoneEntry, init.State, domain.Payload{CountryCode: "+1", PhoneNumber: "5558889999"}, steps)
	res = env.advance(t, domain.StepPhoneOTP, res.State, domain.Payload{OTP: env.otpFor(t, "phone", u.Phone)}, steps)
	res = env.advance(t, domain.StepEmailEntry, res.State, domain.Payload{Email: u.Email}, steps)
	res = env.advance(t, domain.StepEmailOTP, res.State, domain.Payload{OTP: env.otpFor(t, "email", u.Email)}, steps)
	res = env.advance(t, domain.StepTokenAcquisition, res.State, domain.Payload{}, steps)
	if res.NextStep != domain.StepPinEntry {
		t.Fatalf("next = %s, want %s", res.NextStep, domain.StepPinEntry)
	}

	// Wrong PIN stays on the step with a typed code.
	fail, err := env.svc.Advance(ctx, domain.StepPinEntry, res.State, domain.Payload{Pin: "998877"}, steps)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if fail.Success || fail.Code != domain.CodePinInvalid {
		t.Fatalf("got success=%v code=%s, want %s", fail.Success, fail.Code, domain.CodePinInvalid)
	}

	res = env.advance(t, domain.StepPinEntry, res.State, domain.Payload{Pin: "112233"}, steps)
	if res.NextStep != domain.StepAuthenticated {
		t.Fatalf("next = %s, want %s", res.NextStep, domain.StepAuthenticated)
	}
}

func TestForgotPIN_ValidTokenGoesStraightToReset(t *testing.T) {
	env := newTestEnv(t)
	u := env.registerUser(t, "+15551230000", "reset@example.com")
	ctx := context.Background()

	// Authenticated device: token, session mirror, pin.
	if err := env.pins.Set(ctx, "112233"); err != nil {
		t.Fatalf("set pin: %v", err)
	}
	now := time.Now().UTC()
	if err := env.device.SaveToken(ctx, deviceToken(now)); err != nil {
		t.Fatalf("save token: %v", err)
	}
	if err := env.device.SaveSession(ctx, deviceSession(u.ID, now)); err != nil {
		t.Fatalf("save session: %v", err)
	}

	init, err := env.svc.Initiate(ctx, domain.FlowForgotPIN, nil)
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if init.CurrentStep != domain.StepPinReset {
		t.Fatalf("initial step = %s, want %s", init.CurrentStep, domain.StepPinReset)
	}
	if init.State.Phone != u.Phone || !init.State.PhoneVerified {
		t.Errorf("contacts not pre-seeded: phone=%q verified=%v", init.State.Phone, init.State.PhoneVerified)
	}

	res := env.advance(t, domain.StepPinReset, init.State, domain.Payload{Pin: "445566"}, init.Steps)
	if res.NextStep != domain.StepAuthenticated {
		t.Fatalf("next = %s, want %s", res.NextStep, domain.StepAuthenticated)
	}
	if err := env.pins.Validate(ctx, "445566"); err != nil {
		t.Errorf("new pin does not validate: %v", err)
	}
	if err := env.pins.Validate(ctx, "112233"); err == nil {
		t.Error("old pin still validates after reset")
	}
}

func TestForgotPIN_NoTokenReverifiesContacts(t *testing.T) {
	env := newTestEnv(t)
	env.registerUser(t, "+15551231111", "reverify@example.com")

	init, err := env.svc.Initiate(context.Background(), domain.FlowForgotPIN, nil)
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if init.CurrentStep != domain.StepPhoneEntry {
		t.Fatalf("initial step = %s, want %s", init.CurrentStep, domain.StepPhoneEntry)
	}
}

func TestAdvance_TerminalStepIdempotent(t *testing.T) {
	env := newTestEnv(t)
	u := env.registerUser(t, "+15551232222", "done@example.com")
	ctx := context.Background()
	if err := env.pins.Set(ctx, "112233"); err != nil {
		t.Fatalf("set pin: %v", err)
	}
	now := time.Now().UTC()
	if err := env.device.SaveToken(ctx, deviceToken(now)); err != nil {
		t.Fatalf("save token: %v", err)
	}
	if err := env.device.SaveSession(ctx, deviceSession(u.ID, now)); err != nil {
		t.Fatalf("save session: %v", err)
	}

	steps, err := env.svc.Steps(domain.FlowSignIn)
	if err != nil {
		t.Fatalf("steps: %v", err)
	}
	state, err := env.svc.BuildFlowState(ctx, domain.FlowState{FlowType: domain.FlowSignIn, PinVerified: true}, nil)
	if err != nil {
		t.Fatalf("build state: %v", err)
	}

	first, err := env.svc.Advance(ctx, domain.StepAuthenticated, state, domain.Payload{}, steps)
	if err != nil {
		t.Fatalf("first advance: %v", err)
	}
	second, err := env.svc.Advance(ctx, domain.StepAuthenticated, first.State, domain.Payload{}, steps)
	if err != nil {
		t.Fatalf("second advance: %v", err)
	}
	for i, res := range []*domain.AdvanceResult{first, second} {
		if !res.Success || res.NextStep != domain.StepAuthenticated {
			t.Errorf("advance %d: success=%v next=%s", i, res.Success, res.NextStep)
		}
	}
	if !reflect.DeepEqual(first.State, second.State) {
		t.Error("terminal re-entry mutated state")
	}
}

func TestAdvance_EmptyStepTable(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.Advance(context.Background(), domain.StepPhoneEntry, domain.FlowState{}, domain.Payload{}, nil)
	if !errors.Is(err, ErrEmptyFlow) {
		t.Fatalf("err = %v, want ErrEmptyFlow", err)
	}
}

// TestAdvance_RandomizedRunsProgressMonotonically drives each flow type with
// randomized valid payloads and checks that every successful advance moves
// strictly forward in the step table and that the flow terminates within one
// pass over it.
func TestAdvance_RandomizedRunsProgressMonotonically(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	firstNames := []string{"Ada", "Grace", "Alan", "Edsger"}
	lastNames := []string{"Lovelace", "Hopper", "Turing", "Dijkstra"}

	for _, ft := range []domain.FlowType{domain.FlowSignUp, domain.FlowSignIn, domain.FlowForgotPIN} {
		for run := 0; run < 4; run++ {
			digits := fmt.Sprintf("%07d", rng.Intn(10000000))
			phone := "+1555" + digits
			email := "u" + digits + "@example.com"
			pin := fmt.Sprintf("%06d", rng.Intn(1000000))
			first := firstNames[rng.Intn(len(firstNames))]
			last := lastNames[rng.Intn(len(lastNames))]

			t.Run(fmt.Sprintf("%s/%s", ft, digits), func(t *testing.T) {
				env := newTestEnv(t)
				ctx := context.Background()
				if ft != domain.FlowSignUp {
					env.registerUser(t, phone, email)
				}

				init, err := env.svc.Initiate(ctx, ft, nil)
				if err != nil {
					t.Fatalf("initiate: %v", err)
				}

				step := init.CurrentStep
				state := init.State
				for i := 0; step != domain.StepAuthenticated; i++ {
					if i >= len(init.Steps) {
						t.Fatalf("flow not terminated after %d advances, stuck at %s", i, step)
					}

					var p domain.Payload
					switch step {
					case domain.StepPhoneEntry:
						p = domain.Payload{CountryCode: "+1", PhoneNumber: "555" + digits}
					case domain.StepPhoneOTP:
						p = domain.Payload{OTP: env.otpFor(t, "phone", phone)}
					case domain.StepEmailEntry:
						p = domain.Payload{Email: email}
					case domain.StepEmailOTP:
						p = domain.Payload{OTP: env.otpFor(t, "email", email)}
					case domain.StepUserProfile:
						p = domain.Payload{FirstName: first, LastName: last}
					case domain.StepPinSetup, domain.StepPinReset, domain.StepPinEntry:
						p = domain.Payload{Pin: pin}
					}

					res := env.advance(t, step, state, p, init.Steps)
					if init.Steps.Index(res.NextStep) <= init.Steps.Index(step) {
						t.Fatalf("advance %s -> %s moved backwards in the table", step, res.NextStep)
					}
					step = res.NextStep
					state = res.State
				}

				if err := env.pins.Validate(ctx, pin); err != nil {
					t.Errorf("pin set during the run should validate: %v", err)
				}
			})
		}
	}
}
