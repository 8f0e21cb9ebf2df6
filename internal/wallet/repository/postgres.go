package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/moaaz-s/7awel-auth-core/internal/wallet/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a wallet repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByUser returns the user's wallet, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByUser(ctx context.Context, userID string) (*domain.Wallet, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, address, created_at FROM wallets WHERE user_id = $1`, userID)
	var w domain.Wallet
	if err := row.Scan(&w.ID, &w.UserID, &w.Address, &w.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &w, nil
}

// Create persists the wallet. The one-wallet-per-user constraint is enforced
// by a unique index on user_id.
func (r *PostgresRepository) Create(ctx context.Context, w *domain.Wallet) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO wallets (id, user_id, address, created_at) VALUES ($1, $2, $3, $4)`,
		w.ID, w.UserID, w.Address, w.CreatedAt)
	return err
}
