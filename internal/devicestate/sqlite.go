package devicestate

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// SQLiteStore is a Store backed by a device-local SQLite database.
//
// It expects an *sql.DB opened with a SQLite driver (for example
// "modernc.org/sqlite"). The caller is responsible for importing the driver:
//
//	import _ "modernc.org/sqlite"
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// Each table holds at most one row for this device, keyed by id=1.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS device_session (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	session_id TEXT NOT NULL,
	user_id TEXT NOT NULL,
	active INTEGER NOT NULL,
	expires_at INTEGER NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS device_token (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	access_token TEXT NOT NULL,
	refresh_token TEXT NOT NULL,
	expires_at INTEGER NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS device_pin (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	hash TEXT NOT NULL,
	failed_attempts INTEGER NOT NULL,
	locked_until INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);`

// NewSQLiteStore initializes the device-state schema in the given database
// and returns a store using it.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}
	if _, err := db.Exec(sqliteSchema); err != nil {
		return nil, err
	}
	return s, nil
}

// Session returns the mirrored session record, or nil when none is stored.
func (s *SQLiteStore) Session(ctx context.Context) (*Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT session_id, user_id, active, expires_at, created_at FROM device_session WHERE id = 1`)
	var sess Session
	var active int
	var expires, created int64
	if err := row.Scan(&sess.ID, &sess.UserID, &active, &expires, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	sess.Active = active != 0
	sess.ExpiresAt = time.UnixMilli(expires).UTC()
	sess.CreatedAt = time.UnixMilli(created).UTC()
	return &sess, nil
}

// SaveSession stores the session record, replacing any previous one.
func (s *SQLiteStore) SaveSession(ctx context.Context, sess *Session) error {
	active := 0
	if sess.Active {
		active = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO device_session (id, session_id, user_id, active, expires_at, created_at)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			session_id = excluded.session_id,
			user_id = excluded.user_id,
			active = excluded.active,
			expires_at = excluded.expires_at,
			created_at = excluded.created_at`,
		sess.ID, sess.UserID, active, sess.ExpiresAt.UnixMilli(), sess.CreatedAt.UnixMilli())
	return err
}

// ClearSession removes the session record.
func (s *SQLiteStore) ClearSession(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM device_session WHERE id = 1`)
	return err
}

// Token returns the stored token record, or nil when none is stored.
func (s *SQLiteStore) Token(ctx context.Context) (*TokenRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT access_token, refresh_token, expires_at, created_at FROM device_token WHERE id = 1`)
	var t TokenRecord
	var expires, created int64
	if err := row.Scan(&t.AccessToken, &t.RefreshToken, &expires, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	t.ExpiresAt = time.UnixMilli(expires).UTC()
	t.CreatedAt = time.UnixMilli(created).UTC()
	return &t, nil
}

// SaveToken stores the token record, replacing any previous one.
func (s *SQLiteStore) SaveToken(ctx context.Context, t *TokenRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO device_token (id, access_token, refresh_token, expires_at, created_at)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			expires_at = excluded.expires_at,
			created_at = excluded.created_at`,
		t.AccessToken, t.RefreshToken, t.ExpiresAt.UnixMilli(), t.CreatedAt.UnixMilli())
	return err
}

// ClearToken removes the token record.
func (s *SQLiteStore) ClearToken(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM device_token WHERE id = 1`)
	return err
}

// Pin returns the stored PIN credential, or nil when no PIN has been set.
func (s *SQLiteStore) Pin(ctx context.Context) (*PinCredential, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT hash, failed_attempts, locked_until, updated_at FROM device_pin WHERE id = 1`)
	var p PinCredential
	var locked, updated int64
	if err := row.Scan(&p.Hash, &p.FailedAttempts, &locked, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if locked > 0 {
		p.LockedUntil = time.UnixMilli(locked).UTC()
	}
	p.UpdatedAt = time.UnixMilli(updated).UTC()
	return &p, nil
}

// SavePin stores the PIN credential, replacing any previous one.
func (s *SQLiteStore) SavePin(ctx context.Context, p *PinCredential) error {
	locked := int64(0)
	if !p.LockedUntil.IsZero() {
		locked = p.LockedUntil.UnixMilli()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO device_pin (id, hash, failed_attempts, locked_until, updated_at)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			hash = excluded.hash,
			failed_attempts = excluded.failed_attempts,
			locked_until = excluded.locked_until,
			updated_at = excluded.updated_at`,
		p.Hash, p.FailedAttempts, locked, p.UpdatedAt.UnixMilli())
	return err
}

// ClearPin removes the PIN credential.
func (s *SQLiteStore) ClearPin(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM device_pin WHERE id = 1`)
	return err
}
