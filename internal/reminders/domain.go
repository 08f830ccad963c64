// internal/reminders/domain.go
package reminders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"athenaeum/internal/borrowing"
)

// DueSoonLookaheadDays is how far ahead of the due date reminders go out.
const DueSoonLookaheadDays = 2

// Action describes what a sweep did for one record.
type Action string

const (
	ActionReminded Action = "reminded"
	ActionFined    Action = "fined"
	ActionSkipped  Action = "skipped"
	ActionFailed   Action = "failed"
)

// Outcome is the per-record result of a sweep. The sweep never aborts on a
// single record; a failure is reported here and the sweep moves on.
type Outcome struct {
	RecordID    uuid.UUID       `json:"record_id"`
	Action      Action          `json:"action"`
	DaysOverdue int             `json:"days_overdue,omitempty"`
	Fine        decimal.Decimal `json:"fine,omitempty"`
	Error       string          `json:"error,omitempty"`
}

// Notifier is the outbound notification collaborator.
type Notifier interface {
	Send(ctx context.Context, recipient, subject, body string) error
}

// Directory resolves a member to a notification address.
type Directory interface {
	MemberEmail(ctx context.Context, memberID uuid.UUID) (string, error)
}

// RecordSource is the slice of the borrow record store the scanner reads
// and writes. borrowing.Store satisfies it.
type RecordSource interface {
	ListBorrowedDueBetween(ctx context.Context, from, to time.Time) ([]borrowing.BorrowRecord, error)
	ListOverdueWithoutFine(ctx context.Context, before time.Time) ([]borrowing.BorrowRecord, error)
	StampReminder(ctx context.Context, id uuid.UUID, at time.Time) error
	ApplyFineIfUnset(ctx context.Context, id uuid.UUID, fine decimal.Decimal) (bool, error)
}

var _ RecordSource = (borrowing.Store)(nil)
