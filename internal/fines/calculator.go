// internal/fines/calculator.go
package fines

import (
	"time"

	"github.com/shopspring/decimal"
)

// Assessment is the result of computing an overdue fine for a single record.
type Assessment struct {
	DaysOverdue int             `json:"days_overdue"`
	Fine        decimal.Decimal `json:"fine"`
}

// IsOverdue reports whether the assessed record was past due.
func (a Assessment) IsOverdue() bool {
	return a.DaysOverdue > 0
}

// DateOf truncates t to the start of its calendar day in UTC.
// All overdue comparisons go through this so that a due date stored as an
// end-of-day instant and a return processed mid-morning land on plain dates
// before being subtracted.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns the last representable millisecond of t's calendar day in
// UTC. Due dates are normalized with this so the borrower keeps the full
// final day.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), time.UTC)
}

// SameDay reports whether a and b fall on the same UTC calendar day.
func SameDay(a, b time.Time) bool {
	return DateOf(a).Equal(DateOf(b))
}

// Compute calculates the overdue days and owed fine for a record due at
// dueDate, assessed as of asOf, at dailyRate per day. Both instants are
// compared at calendar-day granularity: a record due "today" is not overdue.
// The result is never negative and the fine is rounded to two decimal places.
func Compute(dueDate, asOf time.Time, dailyRate decimal.Decimal) Assessment {
	days := int(DateOf(asOf).Sub(DateOf(dueDate)).Hours() / 24)
	if days <= 0 {
		return Assessment{DaysOverdue: 0, Fine: decimal.Zero}
	}

	fine := dailyRate.Mul(decimal.NewFromInt(int64(days))).Round(2)

	return Assessment{DaysOverdue: days, Fine: fine}
}
