package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/moaaz-s/7awel-auth-core/internal/user/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a user repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = `id, first_name, last_name, email, phone, phone_verified, email_verified, wallet_address, status, created_at, updated_at`

func scanUser(row *sql.Row) (*domain.User, error) {
	var u domain.User
	var status string
	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Phone,
		&u.PhoneVerified, &u.EmailVerified, &u.WalletAddress, &status,
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	u.Status = domain.UserStatus(status)
	return &u, nil
}

// GetByID returns the user for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// GetByPhone returns the user with the given phone number, or nil if not found.
func (r *PostgresRepository) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE phone = $1`, phone)
	return scanUser(row)
}

// GetByEmail returns the user with the given email, or nil if not found.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// Create persists the user. The user must have ID set; it is not assigned by this method.
func (r *PostgresRepository) Create(ctx context.Context, u *domain.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, first_name, last_name, email, phone, phone_verified, email_verified, wallet_address, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		u.ID, u.FirstName, u.LastName, u.Email, u.Phone,
		u.PhoneVerified, u.EmailVerified, u.WalletAddress, string(u.Status),
		u.CreatedAt, u.UpdatedAt)
	return err
}

// Update updates the existing user record. A verified phone is preserved and
// not overwritten; verified flags never go back to false.
func (r *PostgresRepository) Update(ctx context.Context, u *domain.User) error {
	current, err := r.GetByID(ctx, u.ID)
	if err != nil {
		return err
	}
	if current == nil {
		return nil
	}
	phone := u.Phone
	if current.PhoneVerified {
		phone = current.Phone
	}
	_, err = r.db.ExecContext(ctx, `
		UPDATE users SET
			first_name = $2, last_name = $3, email = $4, phone = $5,
			phone_verified = phone_verified OR $6,
			email_verified = email_verified OR $7,
			status = $8, updated_at = $9
		WHERE id = $1`,
		u.ID, u.FirstName, u.LastName, u.Email, phone,
		u.PhoneVerified, u.EmailVerified, string(u.Status), u.UpdatedAt)
	return err
}

// SetWalletAddress records the wallet address only when the user has none yet.
func (r *PostgresRepository) SetWalletAddress(ctx context.Context, userID, address string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET wallet_address = $2, updated_at = $3
		WHERE id = $1 AND wallet_address = ''`,
		userID, address, time.Now().UTC())
	return err
}
