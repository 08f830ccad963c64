// internal/borrowing/store.go
package borrowing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Store is the persistence contract the state machine and the batch scanner
// run against. Implementations must make each method atomic per record and
// per item: MarkBorrowed and MarkReturned apply the status change and the
// inventory adjustment as one unit, and ApplyFineIfUnset must
// read-check-write the fine field atomically.
type Store interface {
	// ItemExists reports whether the catalog item is known.
	ItemExists(ctx context.Context, itemID uuid.UUID) (bool, error)

	Insert(ctx context.Context, rec *BorrowRecord) error
	Get(ctx context.Context, id uuid.UUID) (*BorrowRecord, error)

	// DeletePending removes the record only while it is still PENDING.
	// Returns ErrRecordNotFound if it is gone, ErrInvalidTransition if it
	// has moved on.
	DeletePending(ctx context.Context, id uuid.UUID) error

	// MarkBorrowed persists the PENDING to BORROWED transition together
	// with the reservation of one copy. Returns inventory errors unmapped.
	MarkBorrowed(ctx context.Context, rec *BorrowRecord) error

	// MarkReturned persists the BORROWED to RETURNED transition together
	// with the release of one copy.
	MarkReturned(ctx context.Context, rec *BorrowRecord) error

	// ListBorrowedDueBetween returns BORROWED records whose due date falls
	// in [from, to].
	ListBorrowedDueBetween(ctx context.Context, from, to time.Time) ([]BorrowRecord, error)

	// ListOverdueWithoutFine returns BORROWED records due strictly before
	// the cutoff whose fine is still at its zero default.
	ListOverdueWithoutFine(ctx context.Context, before time.Time) ([]BorrowRecord, error)

	// StampReminder records that a reminder went out for the record.
	StampReminder(ctx context.Context, id uuid.UUID, at time.Time) error

	// ApplyFineIfUnset writes the fine only when the stored amount is still
	// zero and the record is still BORROWED. Reports whether it applied.
	ApplyFineIfUnset(ctx context.Context, id uuid.UUID, fine decimal.Decimal) (bool, error)

	// HasActiveForItem reports whether any PENDING or BORROWED record
	// references the item. The catalog's delete path consults this before
	// removing an item.
	HasActiveForItem(ctx context.Context, itemID uuid.UUID) (bool, error)
}
