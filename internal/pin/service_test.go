package pin

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/moaaz-s/7awel-auth-core/internal/devicestate"
	"github.com/moaaz-s/7awel-auth-core/internal/security"
)

func newTestService(t *testing.T) (*Service, *devicestate.MemoryStore) {
	t.Helper()
	device := devicestate.NewMemoryStore()
	hasher := security.NewHasher(bcrypt.MinCost)
	return NewService(device, hasher, 3, 15*time.Minute), device
}

func TestSetAndValidate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if err := svc.Set(ctx, "123456"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := svc.Validate(ctx, "123456"); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if err := svc.Validate(ctx, "654321"); !errors.Is(err, ErrPinInvalid) {
		t.Errorf("Validate(wrong) = %v, want ErrPinInvalid", err)
	}
}

func TestSet_Format(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for _, pin := range []string{"", "12345", "1234567", "12345a", "12 456"} {
		if err := svc.Set(ctx, pin); !errors.Is(err, ErrPinFormat) {
			t.Errorf("Set(%q) = %v, want ErrPinFormat", pin, err)
		}
	}
}

func TestValidate_NoPinSet(t *testing.T) {
	svc, _ := newTestService(t)
	if err := svc.Validate(context.Background(), "123456"); !errors.Is(err, ErrNoPinSet) {
		t.Errorf("Validate = %v, want ErrNoPinSet", err)
	}
}

func TestValidate_LockoutAndReset(t *testing.T) {
	svc, device := newTestService(t)
	ctx := context.Background()

	if err := svc.Set(ctx, "123456"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	// maxAttempts is 3: two invalid leave one remaining, third locks.
	for i := 0; i < 2; i++ {
		if err := svc.Validate(ctx, "000000"); !errors.Is(err, ErrPinInvalid) {
			t.Fatalf("attempt %d: Validate = %v, want ErrPinInvalid", i+1, err)
		}
	}
	left, err := svc.RemainingAttempts(ctx)
	if err != nil {
		t.Fatalf("RemainingAttempts: %v", err)
	}
	if left != 1 {
		t.Errorf("RemainingAttempts = %d, want 1", left)
	}

	if err := svc.Validate(ctx, "000000"); !errors.Is(err, ErrPinLocked) {
		t.Fatalf("locking attempt: Validate = %v, want ErrPinLocked", err)
	}
	// Even the correct PIN is rejected while locked.
	if err := svc.Validate(ctx, "123456"); !errors.Is(err, ErrPinLocked) {
		t.Errorf("Validate(correct while locked) = %v, want ErrPinLocked", err)
	}

	// After the cooldown window the correct PIN unlocks and resets the counter.
	svc.nowF = func() time.Time { return time.Now().UTC().Add(16 * time.Minute) }
	if err := svc.Validate(ctx, "123456"); err != nil {
		t.Fatalf("Validate(after cooldown) = %v, want nil", err)
	}
	cred, _ := device.Pin(ctx)
	if cred.FailedAttempts != 0 || !cred.LockedUntil.IsZero() {
		t.Errorf("credential = %+v, want counter and lock reset", cred)
	}
}

func TestValidate_LockoutElapsesOnWallClock(t *testing.T) {
	// Short cooldown with the service's own clock: the lock must release as
	// real time passes after construction.
	device := devicestate.NewMemoryStore()
	svc := NewService(device, security.NewHasher(bcrypt.MinCost), 3, 50*time.Millisecond)
	ctx := context.Background()

	if err := svc.Set(ctx, "123456"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := svc.Validate(ctx, "000000"); !errors.Is(err, ErrPinInvalid) {
			t.Fatalf("attempt %d: Validate = %v, want ErrPinInvalid", i+1, err)
		}
	}
	if err := svc.Validate(ctx, "000000"); !errors.Is(err, ErrPinLocked) {
		t.Fatalf("locking attempt: Validate = %v, want ErrPinLocked", err)
	}

	time.Sleep(150 * time.Millisecond)
	if err := svc.Validate(ctx, "123456"); err != nil {
		t.Errorf("Validate after cooldown elapsed = %v, want nil", err)
	}
}

func TestSet_ReplacesAndResetsAttempts(t *testing.T) {
	svc, device := newTestService(t)
	ctx := context.Background()

	if err := svc.Set(ctx, "123456"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := svc.Validate(ctx, "000000"); !errors.Is(err, ErrPinInvalid) {
		t.Fatalf("Validate = %v, want ErrPinInvalid", err)
	}
	if err := svc.Set(ctx, "999999"); err != nil {
		t.Fatalf("second Set: %v", err)
	}
	cred, _ := device.Pin(ctx)
	if cred.FailedAttempts != 0 {
		t.Errorf("FailedAttempts = %d, want 0 after Set", cred.FailedAttempts)
	}
	if err := svc.Validate(ctx, "123456"); !errors.Is(err, ErrPinInvalid) {
		t.Errorf("old pin should no longer validate: %v", err)
	}
	if err := svc.Validate(ctx, "999999"); err != nil {
		t.Errorf("Validate(new pin) = %v, want nil", err)
	}
}

func TestConfiguredAndClear(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	ok, err := svc.Configured(ctx)
	if err != nil || ok {
		t.Fatalf("Configured = %v %v, want false", ok, err)
	}
	if err := svc.Set(ctx, "123456"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	ok, _ = svc.Configured(ctx)
	if !ok {
		t.Fatal("Configured = false, want true after Set")
	}
	if err := svc.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	ok, _ = svc.Configured(ctx)
	if ok {
		t.Error("Configured = true, want false after Clear")
	}
}
