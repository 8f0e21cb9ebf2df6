// flowdemo drives a full authentication flow interactively against in-memory
// collaborators, with dev OTP mode on so dispatched codes are printed instead
// of sent. Useful for exercising the step tables without any backing services:
//
//	go run ./cmd/flowdemo -flow signup
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/moaaz-s/7awel-auth-core/internal/audit"
	auditrepo "github.com/moaaz-s/7awel-auth-core/internal/audit/repository"
	"github.com/moaaz-s/7awel-auth-core/internal/config"
	"github.com/moaaz-s/7awel-auth-core/internal/contacts"
	"github.com/moaaz-s/7awel-auth-core/internal/devicestate"
	"github.com/moaaz-s/7awel-auth-core/internal/devotp"
	"github.com/moaaz-s/7awel-auth-core/internal/flow/domain"
	flowsvc "github.com/moaaz-s/7awel-auth-core/internal/flow/service"
	otprepo "github.com/moaaz-s/7awel-auth-core/internal/otp/repository"
	otpservice "github.com/moaaz-s/7awel-auth-core/internal/otp/service"
	"github.com/moaaz-s/7awel-auth-core/internal/pin"
	"github.com/moaaz-s/7awel-auth-core/internal/security"
	sessionrepo "github.com/moaaz-s/7awel-auth-core/internal/session/repository"
	"github.com/moaaz-s/7awel-auth-core/internal/telemetry"
	otelsetup "github.com/moaaz-s/7awel-auth-core/internal/telemetry/otel"
	"github.com/moaaz-s/7awel-auth-core/internal/telemetry/producer"
	"github.com/moaaz-s/7awel-auth-core/internal/token"
	userrepo "github.com/moaaz-s/7awel-auth-core/internal/user/repository"
	usersvc "github.com/moaaz-s/7awel-auth-core/internal/user/service"
	walletrepo "github.com/moaaz-s/7awel-auth-core/internal/wallet/repository"
	walletsvc "github.com/moaaz-s/7awel-auth-core/internal/wallet/service"
)

const deviceID = "flowdemo-device"

func main() {
	flowName := flag.String("flow", "signup", "flow type: signup, signin, forgot-pin")
	flag.Parse()

	flowType := domain.FlowType(*flowName)
	ctx := context.Background()

	emitter, shutdown := buildEmitter(ctx)
	defer shutdown()

	devOTP := devotp.NewMemoryStore()
	svc, users := buildService(devOTP, emitter)
	in := bufio.NewScanner(os.Stdin)

	init, err := svc.Initiate(ctx, flowType, nil)
	if err != nil {
		log.Fatalf("initiate: %v", err)
	}
	fmt.Printf("flow %s starts at %s\n", flowType, init.CurrentStep)

	step := init.CurrentStep
	state := init.State
	for step != domain.StepAuthenticated {
		payload := promptPayload(in, step, devOTP, state)
		res, err := svc.Advance(ctx, step, state, payload, init.Steps)
		if err != nil {
			log.Fatalf("advance %s: %v", step, err)
		}
		if !res.Success {
			fmt.Printf("  %s failed: %s (stay on this step)\n", step, res.Code)
			continue
		}
		fmt.Printf("  %s -> %s\n", step, res.NextStep)
		step = res.NextStep
		state = res.State
	}

	fmt.Println("authenticated.")
	if state.User != nil {
		fmt.Printf("user:   %s %s (%s)\n", state.User.FirstName, state.User.LastName, state.User.ID)
	}
	if state.WalletAddress != "" {
		fmt.Printf("wallet: %s\n", state.WalletAddress)
	}
	printContacts(ctx, users, state)
}

// printContacts resolves a small demo address book against the user directory,
// the way the app resolves the device's contacts after sign-in.
func printContacts(ctx context.Context, users contacts.Directory, st domain.FlowState) {
	book := []contacts.Contact{
		{DisplayName: "Me", Phone: st.Phone},
		{DisplayName: "Nobody", Phone: "+15550009999"},
	}
	resolver := contacts.NewResolver(users)
	if err := resolver.Init(ctx, book); err != nil {
		log.Printf("flowdemo: resolve contacts: %v", err)
		return
	}
	registered, err := resolver.Registered()
	if err != nil {
		log.Printf("flowdemo: list contacts: %v", err)
		return
	}
	for _, c := range registered {
		fmt.Printf("contact: %s (%s) wallet %s\n", c.DisplayName, c.Phone, c.WalletAddress)
	}
}

// buildEmitter wires telemetry from the environment when configured: a Kafka
// producer for TELEMETRY_KAFKA_BROKERS, an OTLP log exporter for
// OTLP_ENDPOINT. Without either the demo runs with telemetry off.
func buildEmitter(ctx context.Context) (telemetry.EventEmitter, func()) {
	cfg, err := config.Load()
	if err != nil {
		log.Printf("flowdemo: config not loaded, telemetry off: %v", err)
		return nil, func() {}
	}

	var emitters telemetry.MultiEmitter

	kp, err := producer.NewKafkaProducer(cfg.TelemetryKafkaBrokersList(), cfg.TelemetryKafkaTopic)
	if err != nil {
		log.Printf("flowdemo: kafka producer: %v", err)
	} else if kp != nil {
		emitters = append(emitters, kp)
	}

	var providers *otelsetup.Providers
	if cfg.OTLPEndpoint != "" {
		providers, err = otelsetup.NewProviders(ctx, cfg.OTLPEndpoint, "flowdemo", false)
		if err != nil {
			log.Printf("flowdemo: otel providers: %v", err)
			providers = nil
		} else {
			emitters = append(emitters, otelsetup.NewEventEmitter(providers.LoggerProvider))
		}
	}

	shutdown := func() {
		if len(emitters) == 0 {
			return
		}
		time.Sleep(telemetry.ShutdownDrainDuration)
		_ = kp.Close()
		if providers != nil {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := providers.Shutdown(sctx); err != nil {
				log.Printf("flowdemo: otel shutdown: %v", err)
			}
		}
	}

	if len(emitters) == 0 {
		return nil, shutdown
	}
	return emitters, shutdown
}

// buildService wires the flow service to in-memory collaborators with dev OTP
// mode enabled. The user repository is returned so the demo can resolve
// contacts against it after sign-in.
func buildService(devOTP devotp.Store, emitter telemetry.EventEmitter) (*flowsvc.Service, *userrepo.MemoryRepository) {
	users := userrepo.NewMemoryRepository()
	device := devicestate.NewMemoryStore()
	profiles := usersvc.NewProfileService(users)
	otps := otpservice.NewService(otprepo.NewMemoryRepository(), users, nil, nil, devOTP, true, 5*time.Minute, otpservice.DefaultMaxAttempts)

	tp, err := security.NewTestTokenProvider()
	if err != nil {
		log.Fatalf("token provider: %v", err)
	}
	tokens := token.NewService(profiles, sessionrepo.NewMemoryRepository(), device, tp, deviceID)
	pins := pin.NewService(device, security.NewHasher(bcrypt.MinCost), pin.DefaultMaxAttempts, pin.DefaultLockout)
	wallets := walletsvc.NewService(walletrepo.NewMemoryRepository(), users)
	auditor := audit.NewLogger(auditrepo.NewMemoryRepository(), deviceID)

	return flowsvc.NewService(otps, profiles, tokens, pins, wallets, device, auditor, emitter, deviceID), users
}

// promptPayload collects the input the given step needs. For OTP steps the
// dev-mode code is printed so the demo is self-contained.
func promptPayload(in *bufio.Scanner, step domain.StepID, devOTP devotp.Store, st domain.FlowState) domain.Payload {
	switch step {
	case domain.StepPhoneEntry:
		return domain.Payload{
			CountryCode: ask(in, "country code (e.g. +1)"),
			PhoneNumber: ask(in, "phone number"),
		}
	case domain.StepPhoneOTP:
		if code, ok := devOTP.Get(context.Background(), "phone", st.Phone); ok {
			fmt.Printf("  (dev otp for %s: %s)\n", st.Phone, code)
		}
		return domain.Payload{OTP: ask(in, "phone otp")}
	case domain.StepEmailEntry:
		return domain.Payload{Email: ask(in, "email")}
	case domain.StepEmailOTP:
		if code, ok := devOTP.Get(context.Background(), "email", st.Email); ok {
			fmt.Printf("  (dev otp for %s: %s)\n", st.Email, code)
		}
		return domain.Payload{OTP: ask(in, "email otp")}
	case domain.StepUserProfile:
		return domain.Payload{
			FirstName: ask(in, "first name"),
			LastName:  ask(in, "last name"),
		}
	case domain.StepPinSetup, domain.StepPinReset, domain.StepPinEntry:
		return domain.Payload{Pin: ask(in, "pin (6 digits)")}
	}
	// token-acquisition and wallet-creation auto-advance.
	return domain.Payload{}
}

func ask(in *bufio.Scanner, prompt string) string {
	fmt.Printf("  %s: ", prompt)
	if !in.Scan() {
		os.Exit(0)
	}
	return strings.TrimSpace(in.Text())
}
