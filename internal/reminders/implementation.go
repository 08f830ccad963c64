// internal/reminders/implementation.go
package reminders

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"athenaeum/internal/borrowing"
	"athenaeum/internal/fines"
)

// service implements the Service interface.
type service struct {
	records   RecordSource
	rates     fines.RateProvider
	directory Directory
	notifier  Notifier
	now       func() time.Time
	logger    *slog.Logger
	tracer    trace.Tracer
}

// Option configures the scanner.
type Option func(*service)

// WithClock overrides the time source, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) { s.logger = logger }
}

// NewService creates the batch scanner. It is externally triggered; nothing
// here schedules itself.
func NewService(records RecordSource, rates fines.RateProvider, directory Directory, notifier Notifier, opts ...Option) Service {
	s := &service{
		records:   records,
		rates:     rates,
		directory: directory,
		notifier:  notifier,
		now:       time.Now,
		logger:    slog.Default(),
		tracer:    otel.Tracer("athenaeum/reminders"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) RunDueSoonSweep(ctx context.Context) ([]Outcome, error) {
	ctx, span := s.tracer.Start(ctx, "reminders.due_soon_sweep")
	defer span.End()

	now := s.now().UTC()
	from := fines.DateOf(now)
	to := fines.EndOfDay(now.AddDate(0, 0, DueSoonLookaheadDays))

	recs, err := s.records.ListBorrowedDueBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("query due-soon records: %w", err)
	}

	outcomes := make([]Outcome, 0, len(recs))
	for _, rec := range recs {
		outcomes = append(outcomes, s.remind(ctx, rec, now))
	}

	span.SetAttributes(attribute.Int("sweep.records", len(outcomes)))
	s.logger.InfoContext(ctx, "due-soon sweep finished", "records", len(outcomes))

	return outcomes, nil
}

// remind handles one record of the due-soon pass. Any failure is isolated
// into the outcome.
func (s *service) remind(ctx context.Context, rec borrowing.BorrowRecord, now time.Time) Outcome {
	if rec.LastReminderSent != nil && fines.SameDay(*rec.LastReminderSent, now) {
		return Outcome{RecordID: rec.ID, Action: ActionSkipped}
	}

	email, err := s.directory.MemberEmail(ctx, rec.UserID)
	if err != nil {
		s.logger.WarnContext(ctx, "could not resolve reminder recipient",
			"record_id", rec.ID, "user_id", rec.UserID, "error", err)
		return Outcome{RecordID: rec.ID, Action: ActionFailed, Error: err.Error()}
	}

	subject := "Your library book is due soon"
	body := fmt.Sprintf("The book you borrowed is due on %s. Please return or renew it in time.",
		rec.DueDate.Format("Monday, 2 January 2006"))

	if err := s.notifier.Send(ctx, email, subject, body); err != nil {
		s.logger.WarnContext(ctx, "reminder send failed", "record_id", rec.ID, "error", err)
		return Outcome{RecordID: rec.ID, Action: ActionFailed, Error: err.Error()}
	}

	if err := s.records.StampReminder(ctx, rec.ID, now); err != nil {
		s.logger.WarnContext(ctx, "reminder stamp failed", "record_id", rec.ID, "error", err)
		return Outcome{RecordID: rec.ID, Action: ActionFailed, Error: err.Error()}
	}

	return Outcome{RecordID: rec.ID, Action: ActionReminded}
}

func (s *service) RunOverdueFineSweep(ctx context.Context, customRate *decimal.Decimal) ([]Outcome, error) {
	ctx, span := s.tracer.Start(ctx, "reminders.overdue_fine_sweep")
	defer span.End()

	now := s.now().UTC()

	rate := decimal.Zero
	if customRate != nil {
		rate = *customRate
	} else {
		var err error
		if rate, err = s.rates.DailyRate(ctx); err != nil {
			return nil, fmt.Errorf("read daily fine rate: %w", err)
		}
	}
	if !rate.IsPositive() {
		return nil, fines.ErrInvalidRate
	}

	recs, err := s.records.ListOverdueWithoutFine(ctx, fines.DateOf(now))
	if err != nil {
		return nil, fmt.Errorf("query overdue records: %w", err)
	}

	outcomes := make([]Outcome, 0, len(recs))
	for _, rec := range recs {
		outcomes = append(outcomes, s.assess(ctx, rec, now, rate))
	}

	span.SetAttributes(attribute.Int("sweep.records", len(outcomes)))
	s.logger.InfoContext(ctx, "overdue fine sweep finished", "records", len(outcomes))

	return outcomes, nil
}

// assess handles one record of the overdue-fine pass.
func (s *service) assess(ctx context.Context, rec borrowing.BorrowRecord, now time.Time, rate decimal.Decimal) Outcome {
	if rec.DueDate == nil {
		s.logger.WarnContext(ctx, "overdue record has no due date", "record_id", rec.ID)
		return Outcome{RecordID: rec.ID, Action: ActionFailed, Error: "record has no due date"}
	}

	assessment := fines.Compute(*rec.DueDate, now, rate)
	if !assessment.IsOverdue() {
		return Outcome{RecordID: rec.ID, Action: ActionSkipped}
	}

	applied, err := s.records.ApplyFineIfUnset(ctx, rec.ID, assessment.Fine)
	if err != nil {
		s.logger.WarnContext(ctx, "fine write failed", "record_id", rec.ID, "error", err)
		return Outcome{RecordID: rec.ID, Action: ActionFailed, Error: err.Error()}
	}
	if !applied {
		// Returned or already charged between the query and the write.
		return Outcome{RecordID: rec.ID, Action: ActionSkipped}
	}

	return Outcome{
		RecordID:    rec.ID,
		Action:      ActionFined,
		DaysOverdue: assessment.DaysOverdue,
		Fine:        assessment.Fine,
	}
}
