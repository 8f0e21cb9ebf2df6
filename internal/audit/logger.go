package audit

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/moaaz-s/7awel-auth-core/internal/audit/domain"
	auditrepo "github.com/moaaz-s/7awel-auth-core/internal/audit/repository"
)

// Actions recorded by the auth flow.
const (
	ActionFlowInitiated  = "flow_initiated"
	ActionFlowCompleted  = "flow_completed"
	ActionOTPSent        = "otp_sent"
	ActionOTPVerified    = "otp_verified"
	ActionOTPFailed      = "otp_failed"
	ActionTokenIssued    = "token_issued"
	ActionTokenCleared   = "token_cleared"
	ActionPinSet         = "pin_set"
	ActionPinVerified    = "pin_verified"
	ActionPinFailed      = "pin_failed"
	ActionWalletCreated  = "wallet_created"
	ActionSessionCreated = "session_created"
	ActionSessionRevoked = "session_revoked"
)

// AuditLogger writes a single audit event with explicit action and target.
// LogEvent is best-effort: failures are logged and do not affect the caller.
type AuditLogger interface {
	LogEvent(ctx context.Context, actorID, action, targetType, targetID, detail string)
}

// Logger implements AuditLogger using the audit repository. The device ID is
// bound at construction since every event on this install originates from the
// same device.
type Logger struct {
	repo     auditrepo.Repository
	deviceID string
}

// NewLogger returns an AuditLogger that persists to repo, stamping every
// entry with deviceID.
func NewLogger(repo auditrepo.Repository, deviceID string) *Logger {
	return &Logger{repo: repo, deviceID: deviceID}
}

// LogEvent writes one audit log entry. Best-effort: errors are logged and not returned.
func (l *Logger) LogEvent(ctx context.Context, actorID, action, targetType, targetID, detail string) {
	if l.repo == nil {
		return
	}
	entry := &domain.AuditLog{
		ID:         uuid.New().String(),
		ActorID:    actorID,
		DeviceID:   l.deviceID,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Detail:     detail,
		CreatedAt:  time.Now().UTC(),
	}
	if err := l.repo.Create(ctx, entry); err != nil {
		log.Printf("audit: failed to log event %s/%s: %v", action, targetType, err)
	}
}

// NopLogger discards all events. Used when auditing is disabled.
type NopLogger struct{}

func (NopLogger) LogEvent(ctx context.Context, actorID, action, targetType, targetID, detail string) {
}
