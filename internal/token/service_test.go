package token

import (
	"context"
	"errors"
	"testing"

	"github.com/moaaz-s/7awel-auth-core/internal/devicestate"
	"github.com/moaaz-s/7awel-auth-core/internal/security"
	sessionrepo "github.com/moaaz-s/7awel-auth-core/internal/session/repository"
	userrepo "github.com/moaaz-s/7awel-auth-core/internal/user/repository"
	userservice "github.com/moaaz-s/7awel-auth-core/internal/user/service"
)

func newTestService(t *testing.T) (*Service, *sessionrepo.MemoryRepository, *devicestate.MemoryStore) {
	t.Helper()
	users := userservice.NewProfileService(userrepo.NewMemoryRepository())
	sessions := sessionrepo.NewMemoryRepository()
	device := devicestate.NewMemoryStore()
	tokens, err := security.NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	return NewService(users, sessions, device, tokens, "device-1"), sessions, device
}

func TestAcquire_SignupIssuesTokensAndSession(t *testing.T) {
	svc, sessions, device := newTestService(t)
	ctx := context.Background()

	res, err := svc.Acquire(ctx, "9711234567", "a@b.com", true, true, true)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if res.UserID == "" || res.SessionID == "" {
		t.Fatal("expected user and session IDs")
	}
	if res.AccessToken == "" || res.RefreshToken == "" {
		t.Fatal("expected a token pair")
	}

	sess, err := sessions.GetByID(ctx, res.SessionID)
	if err != nil || sess == nil {
		t.Fatalf("server session not created: %v %v", sess, err)
	}
	if sess.RefreshTokenHash != security.HashRefreshToken(res.RefreshToken) {
		t.Error("session should bind the refresh token hash")
	}

	rec, err := device.Token(ctx)
	if err != nil || rec == nil {
		t.Fatalf("device token record not written: %v %v", rec, err)
	}
	if rec.AccessToken != res.AccessToken {
		t.Error("device token record should carry the access token")
	}
	mirror, err := device.Session(ctx)
	if err != nil || mirror == nil {
		t.Fatalf("device session mirror not written: %v %v", mirror, err)
	}
	if !mirror.Active || mirror.UserID != res.UserID {
		t.Errorf("session mirror = %+v, want active for %s", mirror, res.UserID)
	}
}

func TestAcquire_RequiresVerifiedContact(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Acquire(context.Background(), "9711234567", "", false, false, true)
	if !errors.Is(err, ErrContactNotVerified) {
		t.Errorf("Acquire = %v, want ErrContactNotVerified", err)
	}
}

func TestAcquire_SigninUnknownUser(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Acquire(context.Background(), "9711234567", "", true, false, false)
	if !errors.Is(err, ErrNoUser) {
		t.Errorf("Acquire = %v, want ErrNoUser", err)
	}
}

func TestAcquire_SigninReusesExistingUser(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Acquire(ctx, "9711234567", "a@b.com", true, true, true)
	if err != nil {
		t.Fatalf("signup Acquire: %v", err)
	}
	second, err := svc.Acquire(ctx, "9711234567", "", true, false, false)
	if err != nil {
		t.Fatalf("signin Acquire: %v", err)
	}
	if second.UserID != first.UserID {
		t.Errorf("signin user = %q, want %q", second.UserID, first.UserID)
	}
	if second.SessionID == first.SessionID {
		t.Error("each acquisition should create a fresh session")
	}
}

func TestClear_RevokesAndWipes(t *testing.T) {
	svc, sessions, device := newTestService(t)
	ctx := context.Background()

	res, err := svc.Acquire(ctx, "9711234567", "", true, false, true)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if err := svc.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	sess, _ := sessions.GetByID(ctx, res.SessionID)
	if sess == nil || sess.RevokedAt == nil {
		t.Error("server session should be revoked")
	}
	if rec, _ := device.Token(ctx); rec != nil {
		t.Error("device token record should be wiped")
	}
	if mirror, _ := device.Session(ctx); mirror != nil {
		t.Error("device session mirror should be wiped")
	}
}

func TestClear_NoSessionIsNoop(t *testing.T) {
	svc, _, _ := newTestService(t)
	if err := svc.Clear(context.Background()); err != nil {
		t.Fatalf("Clear on empty device: %v", err)
	}
}
