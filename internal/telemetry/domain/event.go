// Package domain defines the telemetry event emitted by the auth flow core.
package domain

import "time"

// Event types emitted by the flow core.
const (
	EventFlowInitiated  = "flow_initiated"
	EventFlowAdvanced   = "flow_advanced"
	EventFlowCompleted  = "flow_completed"
	EventOTPSent        = "otp_sent"
	EventOTPVerified    = "otp_verified"
	EventPinSet         = "pin_set"
	EventSessionCreated = "session_created"
)

// Event is one telemetry event, serialized as JSON on the wire.
type Event struct {
	UserID    string            `json:"user_id,omitempty"`
	DeviceID  string            `json:"device_id,omitempty"`
	SessionID string            `json:"session_id,omitempty"`
	FlowType  string            `json:"flow_type,omitempty"`
	Step      string            `json:"step,omitempty"`
	EventType string            `json:"event_type"`
	Success   bool              `json:"success"`
	Code      string            `json:"code,omitempty"` // error code on failure
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}
