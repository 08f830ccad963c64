// internal/fines/calculator_test.go
package fines_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"athenaeum/internal/fines"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func Test_Compute_DueToday_IsNotOverdue(t *testing.T) {
	due := fines.EndOfDay(date(2025, time.March, 10))
	asOf := date(2025, time.March, 10).Add(9 * time.Hour)

	got := fines.Compute(due, asOf, decimal.NewFromFloat(1.00))

	assert.Equal(t, 0, got.DaysOverdue)
	assert.True(t, got.Fine.IsZero())
	assert.False(t, got.IsOverdue())
}

func Test_Compute_ReturnedExactlyAtDueInstant_IsNotOverdue(t *testing.T) {
	due := fines.EndOfDay(date(2025, time.March, 10))

	got := fines.Compute(due, due, decimal.NewFromFloat(1.00))

	assert.Equal(t, 0, got.DaysOverdue)
	assert.True(t, got.Fine.IsZero())
}

func Test_Compute_ThreeDaysLate_AtOneDollarPerDay(t *testing.T) {
	due := fines.EndOfDay(date(2025, time.March, 10))
	asOf := date(2025, time.March, 13)

	got := fines.Compute(due, asOf, decimal.NewFromFloat(1.00))

	assert.Equal(t, 3, got.DaysOverdue)
	assert.Equal(t, "3.00", got.Fine.StringFixed(2))
	assert.True(t, got.IsOverdue())
}

func Test_Compute_OneCalendarDayLate_ChargesOneDailyRate(t *testing.T) {
	due := fines.EndOfDay(date(2025, time.June, 1))
	// Early morning the next day still counts as one full day late.
	asOf := date(2025, time.June, 2).Add(15 * time.Minute)

	got := fines.Compute(due, asOf, decimal.NewFromFloat(0.50))

	assert.Equal(t, 1, got.DaysOverdue)
	assert.Equal(t, "0.50", got.Fine.StringFixed(2))
}

func Test_Compute_AsOfBeforeDueDate_IsZero(t *testing.T) {
	due := fines.EndOfDay(date(2025, time.March, 10))
	asOf := date(2025, time.March, 1)

	got := fines.Compute(due, asOf, decimal.NewFromFloat(2.50))

	assert.Equal(t, 0, got.DaysOverdue)
	assert.True(t, got.Fine.IsZero())
}

func Test_Compute_RoundsToTwoDecimalPlaces(t *testing.T) {
	due := fines.EndOfDay(date(2025, time.March, 10))
	asOf := date(2025, time.March, 13)

	got := fines.Compute(due, asOf, decimal.NewFromFloat(0.333))

	assert.Equal(t, "1.00", got.Fine.StringFixed(2))
}

func Test_Compute_TimezoneOffsetsDoNotShiftTheDay(t *testing.T) {
	// 2025-03-10 23:59:59.999 UTC expressed in a +05:00 zone is already
	// 2025-03-11 there; the calendar-day comparison must stay in UTC.
	plusFive := time.FixedZone("UTC+5", 5*3600)
	due := fines.EndOfDay(date(2025, time.March, 10))
	asOf := time.Date(2025, time.March, 11, 3, 0, 0, 0, plusFive) // 2025-03-10 22:00 UTC

	got := fines.Compute(due, asOf, decimal.NewFromFloat(1.00))

	assert.Equal(t, 0, got.DaysOverdue)
}

func Test_Compute_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		dueDay := rapid.Int64Range(0, 20000).Draw(t, "dueDay")
		lateDays := rapid.Int64Range(-30, 365).Draw(t, "lateDays")
		rateCents := rapid.Int64Range(1, 10_000).Draw(t, "rateCents")

		epoch := date(1970, time.January, 1)
		due := fines.EndOfDay(epoch.AddDate(0, 0, int(dueDay)))
		asOf := epoch.AddDate(0, 0, int(dueDay+lateDays))
		rate := decimal.New(rateCents, -2)

		got := fines.Compute(due, asOf, rate)

		if got.DaysOverdue < 0 {
			t.Fatalf("days overdue went negative: %d", got.DaysOverdue)
		}
		if got.Fine.IsNegative() {
			t.Fatalf("fine went negative: %s", got.Fine)
		}
		if lateDays <= 0 && got.DaysOverdue != 0 {
			t.Fatalf("not yet due but counted %d days overdue", got.DaysOverdue)
		}
		if lateDays > 0 {
			if got.DaysOverdue != int(lateDays) {
				t.Fatalf("expected %d days overdue, got %d", lateDays, got.DaysOverdue)
			}
			want := rate.Mul(decimal.NewFromInt(lateDays)).Round(2)
			if !got.Fine.Equal(want) {
				t.Fatalf("expected fine %s, got %s", want, got.Fine)
			}
		}
	})
}

func Test_EndOfDay_GivesBorrowerTheFullFinalDay(t *testing.T) {
	due := fines.EndOfDay(time.Date(2025, time.March, 10, 9, 30, 0, 0, time.UTC))

	assert.Equal(t, time.Date(2025, time.March, 10, 23, 59, 59, int(999*time.Millisecond), time.UTC), due)
}

func Test_SameDay(t *testing.T) {
	morning := time.Date(2025, time.March, 10, 1, 0, 0, 0, time.UTC)
	night := time.Date(2025, time.March, 10, 23, 0, 0, 0, time.UTC)
	nextDay := time.Date(2025, time.March, 11, 0, 0, 1, 0, time.UTC)

	assert.True(t, fines.SameDay(morning, night))
	assert.False(t, fines.SameDay(night, nextDay))
}
