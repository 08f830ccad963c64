// internal/borrowing/domain.go
package borrowing

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"athenaeum/internal/storage"
)

// Status is the lifecycle state of a borrow record. Records move exactly
// once forward through PENDING to BORROWED to RETURNED; rejection removes a
// PENDING record instead of storing a terminal state.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusBorrowed Status = "BORROWED"
	StatusReturned Status = "RETURNED"
)

// BorrowRecord is the aggregate owned by this package.
//
// DueDate is null exactly while the record is PENDING; it is set once, at
// approval. ReturnDate is null exactly until the record is RETURNED.
// FineAmount is written at most once by the return path, and separately by
// the overdue sweep for records still out, never for settled ones.
type BorrowRecord struct {
	ID               uuid.UUID       `json:"id" db:"id"`
	UserID           uuid.UUID       `json:"user_id" db:"user_id"`
	ItemID           uuid.UUID       `json:"item_id" db:"item_id"`
	Status           Status          `json:"status" db:"status"`
	BorrowDate       time.Time       `json:"borrow_date" db:"borrow_date"`
	DueDate          *time.Time      `json:"due_date,omitempty" db:"due_date"`
	ReturnDate       *time.Time      `json:"return_date,omitempty" db:"return_date"`
	FineAmount       decimal.Decimal `json:"fine_amount" db:"fine_amount"`
	RenewalCount     int             `json:"renewal_count" db:"renewal_count"`
	LastReminderSent *time.Time      `json:"last_reminder_sent,omitempty" db:"last_reminder_sent"`
	BorrowedBy       *uuid.UUID      `json:"borrowed_by,omitempty" db:"borrowed_by"`
	ReturnedBy       *uuid.UUID      `json:"returned_by,omitempty" db:"returned_by"`
}

// ReturnReceipt summarizes the outcome of a return so the caller can render
// fine-with-return messaging.
type ReturnReceipt struct {
	FineAmount  decimal.Decimal `json:"fine_amount"`
	DaysOverdue int             `json:"days_overdue"`
	IsOverdue   bool            `json:"is_overdue"`
}

var (
	// ErrRecordNotFound is returned when the borrow record does not exist.
	ErrRecordNotFound = errors.New("borrow record not found")
	// ErrItemNotFound is returned when the referenced catalog item does not exist.
	ErrItemNotFound = errors.New("catalog item not found")
	// ErrItemUnavailable is returned by Approve when the item has no free
	// copies at approval time.
	ErrItemUnavailable = errors.New("item is no longer available")
	// ErrInvalidTransition is returned when an operation is attempted from a
	// state that does not permit it, such as returning a PENDING record.
	ErrInvalidTransition = errors.New("invalid lifecycle transition")
	// ErrConcurrencyConflict is returned when an atomic inventory update lost
	// a race; the caller may retry.
	ErrConcurrencyConflict = storage.ErrConflict
)
