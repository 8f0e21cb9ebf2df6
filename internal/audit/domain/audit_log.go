package domain

import "time"

// AuditLog represents one audited auth action.
type AuditLog struct {
	ID         string
	ActorID    string // user ID; empty before a user exists (e.g. OTP sent during signup)
	DeviceID   string
	Action     string
	TargetType string
	TargetID   string
	Detail     string
	CreatedAt  time.Time
}
