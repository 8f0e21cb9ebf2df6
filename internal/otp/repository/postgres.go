package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/moaaz-s/7awel-auth-core/internal/otp/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an OTP challenge repository that uses the given db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByTarget returns the outstanding challenge for (medium, target), or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByTarget(ctx context.Context, medium domain.Medium, target string) (*domain.Challenge, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, medium, target, code_hash, attempts, expires_at, created_at
		FROM otp_challenges WHERE medium = $1 AND target = $2`,
		string(medium), target)
	var c domain.Challenge
	var m string
	if err := row.Scan(&c.ID, &m, &c.Target, &c.CodeHash, &c.Attempts, &c.ExpiresAt, &c.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	c.Medium = domain.Medium(m)
	return &c, nil
}

// Upsert stores the challenge, replacing any outstanding one for the same (medium, target).
func (r *PostgresRepository) Upsert(ctx context.Context, c *domain.Challenge) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO otp_challenges (id, medium, target, code_hash, attempts, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (medium, target) DO UPDATE SET
			id = EXCLUDED.id,
			code_hash = EXCLUDED.code_hash,
			attempts = EXCLUDED.attempts,
			expires_at = EXCLUDED.expires_at,
			created_at = EXCLUDED.created_at`,
		c.ID, string(c.Medium), c.Target, c.CodeHash, c.Attempts, c.ExpiresAt, c.CreatedAt)
	return err
}

// IncrementAttempts bumps the failed-attempt counter and returns the new count.
func (r *PostgresRepository) IncrementAttempts(ctx context.Context, id string) (int, error) {
	row := r.db.QueryRowContext(ctx,
		`UPDATE otp_challenges SET attempts = attempts + 1 WHERE id = $1 RETURNING attempts`, id)
	var attempts int
	if err := row.Scan(&attempts); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return attempts, nil
}

// Delete removes the challenge by id.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM otp_challenges WHERE id = $1`, id)
	return err
}
