// internal/reminders/service.go
package reminders

import (
	"context"

	"github.com/shopspring/decimal"
)

// Service defines the interface for the batch overdue scanner. Both sweeps
// are idempotent and safe to run concurrently with user-driven transitions:
// the due-soon pass skips records already reminded today, and the fine pass
// only ever writes to records whose fine is still at its zero default.
type Service interface {
	// RunDueSoonSweep notifies borrowers whose due date falls within the
	// next DueSoonLookaheadDays and stamps each record so reruns on the
	// same day do not send twice.
	RunDueSoonSweep(ctx context.Context) ([]Outcome, error)
	// RunOverdueFineSweep assesses fines for overdue records that have not
	// been charged yet. A nil customRate uses the configured daily rate.
	RunOverdueFineSweep(ctx context.Context, customRate *decimal.Decimal) ([]Outcome, error)
}
