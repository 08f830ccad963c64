// internal/borrowing/service.go
package borrowing

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Service defines the interface for the borrow lifecycle state machine.
// Every operation resolves to either a success value or one of the named
// errors in domain.go; nothing panics across this boundary.
type Service interface {
	// Create files a borrow request in PENDING state. Availability is not
	// checked here; a request may be filed even when zero copies are free.
	Create(ctx context.Context, userID, itemID uuid.UUID) (*BorrowRecord, error)
	// Approve moves a PENDING record to BORROWED, assigns the due date and
	// decrements the item's available copies as one atomic unit.
	Approve(ctx context.Context, recordID uuid.UUID) (*BorrowRecord, error)
	// Reject removes a PENDING record entirely. Inventory is untouched: a
	// pending request was never counted against availability.
	Reject(ctx context.Context, recordID uuid.UUID) error
	// Return moves a BORROWED record to RETURNED as of the given date,
	// assesses any overdue fine and puts the copy back. A zero asOf means
	// now.
	Return(ctx context.Context, recordID uuid.UUID, asOf time.Time) (*ReturnReceipt, error)
	// Get fetches a single record.
	Get(ctx context.Context, recordID uuid.UUID) (*BorrowRecord, error)
}
