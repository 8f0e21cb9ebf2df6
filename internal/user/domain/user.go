package domain

import (
	"errors"
	"time"
)

// User is the core wallet user entity.
type User struct {
	ID            string
	FirstName     string
	LastName      string
	Email         string
	Phone         string // full international form (dial code + national number); immutable after PhoneVerified
	PhoneVerified bool
	EmailVerified bool
	WalletAddress string // empty until a wallet has been created for the user
	Status        UserStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusDisabled UserStatus = "disabled"
)

// Validate validates the user for persistence. Returns an error describing the first validation failure.
func (u *User) Validate() error {
	if u.Phone == "" && u.Email == "" {
		return errors.New("phone or email is required")
	}
	if u.Status == "" {
		u.Status = UserStatusActive
	}
	return nil
}

// ProfileComplete reports whether the user has the minimum profile fields
// required to proceed past the profile step.
func (u *User) ProfileComplete() bool {
	return u != nil && u.FirstName != "" && u.LastName != ""
}

// HasWallet reports whether a wallet has been created for the user.
func (u *User) HasWallet() bool {
	return u != nil && u.WalletAddress != ""
}
