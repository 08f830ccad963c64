// internal/borrowing/postgres.go
package borrowing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"athenaeum/internal/inventory"
	"athenaeum/internal/storage"
)

const recordsTable = "borrow_records"

var dialect = goqu.Dialect("postgres")

// PostgresStore persists borrow records and keeps the availability counter
// in lockstep with lifecycle transitions. MarkBorrowed and MarkReturned run
// the record update and the inventory adjustment inside one transaction, and
// every write that depends on the current status carries that status in its
// WHERE clause so a lost race surfaces as zero affected rows instead of a
// silent overwrite.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore creates a borrow record store over db.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

var _ Store = (*PostgresStore)(nil)

func (s *PostgresStore) ItemExists(ctx context.Context, itemID uuid.UUID) (bool, error) {
	query, args, err := dialect.
		From("items").
		Select(goqu.COUNT("*")).
		Where(goqu.C("id").Eq(itemID.String())).
		Prepared(true).ToSQL()
	if err != nil {
		return false, fmt.Errorf("build item existence query: %w", err)
	}

	var count int
	if err := s.db.GetContext(ctx, &count, query, args...); err != nil {
		return false, fmt.Errorf("check item existence: %w", err)
	}

	return count > 0, nil
}

func (s *PostgresStore) Insert(ctx context.Context, rec *BorrowRecord) error {
	query, args, err := dialect.
		Insert(recordsTable).
		Rows(goqu.Record{
			"id":            rec.ID.String(),
			"user_id":       rec.UserID.String(),
			"item_id":       rec.ItemID.String(),
			"status":        string(rec.Status),
			"borrow_date":   rec.BorrowDate,
			"fine_amount":   rec.FineAmount.StringFixed(2),
			"renewal_count": rec.RenewalCount,
		}).
		Prepared(true).ToSQL()
	if err != nil {
		return fmt.Errorf("build insert query: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert borrow record: %w", err)
	}

	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (*BorrowRecord, error) {
	query, args, err := dialect.
		From(recordsTable).
		Where(goqu.C("id").Eq(id.String())).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build get query: %w", err)
	}

	rec := &BorrowRecord{}
	if err := s.db.GetContext(ctx, rec, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("get borrow record: %w", err)
	}

	return rec, nil
}

func (s *PostgresStore) DeletePending(ctx context.Context, id uuid.UUID) error {
	query, args, err := dialect.
		Delete(recordsTable).
		Where(goqu.C("id").Eq(id.String()), goqu.C("status").Eq(string(StatusPending))).
		Prepared(true).ToSQL()
	if err != nil {
		return fmt.Errorf("build delete query: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete borrow record: %w", err)
	}

	return s.requireTransition(ctx, id, res)
}

func (s *PostgresStore) MarkBorrowed(ctx context.Context, rec *BorrowRecord) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	ledger := inventory.NewPostgresLedger(tx)
	if err := ledger.Reserve(ctx, rec.ItemID); err != nil {
		return storage.MapConflict(err)
	}

	query, args, err := dialect.
		Update(recordsTable).
		Set(goqu.Record{
			"status":      string(StatusBorrowed),
			"due_date":    rec.DueDate,
			"borrowed_by": uuidString(rec.BorrowedBy),
		}).
		Where(goqu.C("id").Eq(rec.ID.String()), goqu.C("status").Eq(string(StatusPending))).
		Prepared(true).ToSQL()
	if err != nil {
		return fmt.Errorf("build approve query: %w", err)
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return storage.MapConflict(fmt.Errorf("mark record borrowed: %w", err))
	}
	if err := s.requireTransition(ctx, rec.ID, res); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return storage.MapConflict(fmt.Errorf("commit approve: %w", err))
	}

	return nil
}

func (s *PostgresStore) MarkReturned(ctx context.Context, rec *BorrowRecord) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	query, args, err := dialect.
		Update(recordsTable).
		Set(goqu.Record{
			"status":      string(StatusReturned),
			"return_date": rec.ReturnDate,
			"fine_amount": rec.FineAmount.StringFixed(2),
			"returned_by": uuidString(rec.ReturnedBy),
		}).
		Where(goqu.C("id").Eq(rec.ID.String()), goqu.C("status").Eq(string(StatusBorrowed))).
		Prepared(true).ToSQL()
	if err != nil {
		return fmt.Errorf("build return query: %w", err)
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return storage.MapConflict(fmt.Errorf("mark record returned: %w", err))
	}
	if err := s.requireTransition(ctx, rec.ID, res); err != nil {
		return err
	}

	ledger := inventory.NewPostgresLedger(tx)
	if err := ledger.Release(ctx, rec.ItemID); err != nil {
		return storage.MapConflict(err)
	}

	if err := tx.Commit(); err != nil {
		return storage.MapConflict(fmt.Errorf("commit return: %w", err))
	}

	return nil
}

func (s *PostgresStore) ListBorrowedDueBetween(ctx context.Context, from, to time.Time) ([]BorrowRecord, error) {
	query, args, err := dialect.
		From(recordsTable).
		Where(
			goqu.C("status").Eq(string(StatusBorrowed)),
			goqu.C("due_date").Between(goqu.Range(from, to)),
		).
		Order(goqu.C("due_date").Asc()).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build due-soon query: %w", err)
	}

	var recs []BorrowRecord
	if err := s.db.SelectContext(ctx, &recs, query, args...); err != nil {
		return nil, fmt.Errorf("list due-soon records: %w", err)
	}

	return recs, nil
}

func (s *PostgresStore) ListOverdueWithoutFine(ctx context.Context, before time.Time) ([]BorrowRecord, error) {
	query, args, err := dialect.
		From(recordsTable).
		Where(
			goqu.C("status").Eq(string(StatusBorrowed)),
			goqu.C("due_date").Lt(before),
			goqu.C("fine_amount").Eq(0),
		).
		Order(goqu.C("due_date").Asc()).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build overdue query: %w", err)
	}

	var recs []BorrowRecord
	if err := s.db.SelectContext(ctx, &recs, query, args...); err != nil {
		return nil, fmt.Errorf("list overdue records: %w", err)
	}

	return recs, nil
}

func (s *PostgresStore) StampReminder(ctx context.Context, id uuid.UUID, at time.Time) error {
	query, args, err := dialect.
		Update(recordsTable).
		Set(goqu.Record{"last_reminder_sent": at}).
		Where(goqu.C("id").Eq(id.String())).
		Prepared(true).ToSQL()
	if err != nil {
		return fmt.Errorf("build reminder stamp query: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("stamp reminder: %w", err)
	}

	return nil
}

func (s *PostgresStore) ApplyFineIfUnset(ctx context.Context, id uuid.UUID, fine decimal.Decimal) (bool, error) {
	// The fine_amount = 0 guard makes the sweep idempotent and keeps a
	// concurrent Return from being overwritten.
	query, args, err := dialect.
		Update(recordsTable).
		Set(goqu.Record{"fine_amount": fine.StringFixed(2)}).
		Where(
			goqu.C("id").Eq(id.String()),
			goqu.C("status").Eq(string(StatusBorrowed)),
			goqu.C("fine_amount").Eq(0),
		).
		Prepared(true).ToSQL()
	if err != nil {
		return false, fmt.Errorf("build fine query: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("apply fine: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("read affected rows: %w", err)
	}

	return affected == 1, nil
}

func (s *PostgresStore) HasActiveForItem(ctx context.Context, itemID uuid.UUID) (bool, error) {
	query, args, err := dialect.
		From(recordsTable).
		Select(goqu.COUNT("*")).
		Where(
			goqu.C("item_id").Eq(itemID.String()),
			goqu.C("status").In(string(StatusPending), string(StatusBorrowed)),
		).
		Prepared(true).ToSQL()
	if err != nil {
		return false, fmt.Errorf("build active borrow query: %w", err)
	}

	var count int
	if err := s.db.GetContext(ctx, &count, query, args...); err != nil {
		return false, fmt.Errorf("count active borrows: %w", err)
	}

	return count > 0, nil
}

// requireTransition maps a zero-row guarded write to the right error: the
// record either disappeared or is no longer in the expected state.
func (s *PostgresStore) requireTransition(ctx context.Context, id uuid.UUID, res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("read affected rows: %w", err)
	}
	if affected == 1 {
		return nil
	}

	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	return ErrInvalidTransition
}

func uuidString(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return id.String()
}
