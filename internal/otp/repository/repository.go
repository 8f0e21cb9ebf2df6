package repository

import (
	"context"
	"time"

	"github.com/moaaz-s/7awel-auth-core/internal/otp/domain"
)

// Repository defines persistence for OTP challenges.
type Repository interface {
	// GetByTarget returns the outstanding challenge for (medium, target), or nil.
	GetByTarget(ctx context.Context, medium domain.Medium, target string) (*domain.Challenge, error)
	// Upsert stores the challenge, replacing any outstanding one for the same
	// (medium, target). Resend semantics depend on this being a replace.
	Upsert(ctx context.Context, c *domain.Challenge) error
	// IncrementAttempts bumps the failed-attempt counter and returns the new count.
	IncrementAttempts(ctx context.Context, id string) (int, error)
	Delete(ctx context.Context, id string) error
}

// DefaultChallengeTTL is the default OTP expiry.
const DefaultChallengeTTL = 5 * time.Minute
