package domain

import "time"

// Medium identifies the contact channel an OTP is delivered over.
type Medium string

const (
	MediumPhone Medium = "phone"
	MediumEmail Medium = "email"
)

// Valid reports whether m is a known medium.
func (m Medium) Valid() bool {
	return m == MediumPhone || m == MediumEmail
}

// Challenge is one outstanding OTP for a contact target. At most one
// challenge exists per (medium, target); a resend replaces it.
type Challenge struct {
	ID        string
	Medium    Medium
	Target    string // full phone number or email address
	CodeHash  string
	Attempts  int
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the challenge has expired at the given instant.
func (c *Challenge) Expired(now time.Time) bool {
	return c == nil || !c.ExpiresAt.After(now)
}
