// internal/storage/postgres.go
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq" // also registers the postgres driver
)

// ErrConflict marks a storage-level race: a serialization failure or
// deadlock that the caller should retry rather than treat as a hard error.
var ErrConflict = errors.New("storage conflict, retry the operation")

// Connect opens and pings a Postgres connection pool.
func Connect(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	return db, nil
}

// schema holds the relational shape of the circulation core. Availability is
// additionally guarded by CHECK constraints so that no code path, present or
// future, can push a count outside 0..total_copies.
const schema = `
CREATE TABLE IF NOT EXISTS items (
	id UUID PRIMARY KEY,
	isbn TEXT NOT NULL,
	title TEXT NOT NULL,
	author TEXT NOT NULL,
	total_copies INT NOT NULL CHECK (total_copies >= 0),
	available INT NOT NULL,
	status TEXT NOT NULL DEFAULT 'active',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CHECK (available >= 0 AND available <= total_copies)
);

CREATE TABLE IF NOT EXISTS members (
	id UUID PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'active',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS borrow_records (
	id UUID PRIMARY KEY,
	user_id UUID NOT NULL,
	item_id UUID NOT NULL REFERENCES items (id),
	status TEXT NOT NULL,
	borrow_date TIMESTAMPTZ NOT NULL,
	due_date TIMESTAMPTZ,
	return_date TIMESTAMPTZ,
	fine_amount NUMERIC(10, 2) NOT NULL DEFAULT 0.00,
	renewal_count INT NOT NULL DEFAULT 0,
	last_reminder_sent TIMESTAMPTZ,
	borrowed_by UUID,
	returned_by UUID,
	CHECK (status IN ('PENDING', 'BORROWED', 'RETURNED')),
	CHECK ((status = 'PENDING') = (due_date IS NULL)),
	CHECK ((status = 'RETURNED') = (return_date IS NOT NULL))
);

CREATE INDEX IF NOT EXISTS idx_borrow_records_status_due
	ON borrow_records (status, due_date);

CREATE TABLE IF NOT EXISTS settings (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// EnsureSchema creates the tables this service needs if they do not exist.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// MapConflict translates Postgres serialization failures and deadlocks into
// ErrConflict so callers can retry, and passes every other error through.
func MapConflict(err error) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "40001", "40P01": // serialization_failure, deadlock_detected
			return fmt.Errorf("%w: %s", ErrConflict, pqErr.Message)
		}
	}

	return err
}
