// internal/inventory/postgres.go
package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// PostgresLedger mutates the items table through single-statement
// conditional updates, so the read-then-write on available copies cannot
// lose a race between concurrent callers. It binds to any sqlx execution
// context, which lets a borrow transition run it inside its own transaction.
type PostgresLedger struct {
	db sqlx.ExtContext
}

// NewPostgresLedger creates a ledger over db, which may be a *sqlx.DB or a
// transaction.
func NewPostgresLedger(db sqlx.ExtContext) *PostgresLedger {
	return &PostgresLedger{db: db}
}

var _ Ledger = (*PostgresLedger)(nil)

func (l *PostgresLedger) Reserve(ctx context.Context, itemID uuid.UUID) error {
	query, _, err := goqu.Dialect("postgres").
		Update("items").
		Set(goqu.Record{"available": goqu.L("available - 1"), "updated_at": goqu.L("NOW()")}).
		Where(goqu.C("id").Eq(itemID.String()), goqu.C("available").Gt(0)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build reserve query: %w", err)
	}

	return l.applyGuarded(ctx, itemID, query, ErrUnavailable)
}

func (l *PostgresLedger) Release(ctx context.Context, itemID uuid.UUID) error {
	query, _, err := goqu.Dialect("postgres").
		Update("items").
		Set(goqu.Record{"available": goqu.L("available + 1"), "updated_at": goqu.L("NOW()")}).
		Where(goqu.C("id").Eq(itemID.String()), goqu.L("available < total_copies")).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build release query: %w", err)
	}

	return l.applyGuarded(ctx, itemID, query, ErrOverCapacity)
}

// applyGuarded runs a conditional update and maps a zero-row result to
// either guardErr or ErrItemNotFound, depending on whether the item exists.
func (l *PostgresLedger) applyGuarded(ctx context.Context, itemID uuid.UUID, query string, guardErr error) error {
	res, err := l.db.ExecContext(ctx, query)
	if err != nil {
		return fmt.Errorf("update item copies: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("read affected rows: %w", err)
	}
	if affected == 1 {
		return nil
	}

	var exists bool
	existsQuery, _, err := goqu.Dialect("postgres").
		From("items").
		Select(goqu.L("TRUE")).
		Where(goqu.C("id").Eq(itemID.String())).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build existence query: %w", err)
	}

	if err := sqlx.GetContext(ctx, l.db, &exists, existsQuery); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrItemNotFound
		}
		return fmt.Errorf("check item existence: %w", err)
	}

	return guardErr
}
