// internal/borrowing/implementation.go
package borrowing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"athenaeum/internal/fines"
	"athenaeum/internal/inventory"
)

// DefaultLoanPeriodDays is how long a borrower keeps a copy unless
// configured otherwise.
const DefaultLoanPeriodDays = 7

// service implements the Service interface.
type service struct {
	store          Store
	rates          fines.RateProvider
	loanPeriodDays int
	now            func() time.Time
	logger         *slog.Logger
	tracer         trace.Tracer
}

// Option configures the borrowing service.
type Option func(*service)

// WithLoanPeriod overrides the default loan period in days.
func WithLoanPeriod(days int) Option {
	return func(s *service) { s.loanPeriodDays = days }
}

// WithClock overrides the time source, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) { s.logger = logger }
}

// NewService creates the borrow lifecycle state machine over store, reading
// the daily fine rate from rates at return time.
func NewService(store Store, rates fines.RateProvider, opts ...Option) Service {
	s := &service{
		store:          store,
		rates:          rates,
		loanPeriodDays: DefaultLoanPeriodDays,
		now:            time.Now,
		logger:         slog.Default(),
		tracer:         otel.Tracer("athenaeum/borrowing"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Create(ctx context.Context, userID, itemID uuid.UUID) (*BorrowRecord, error) {
	ctx, span := s.tracer.Start(ctx, "borrowing.create",
		trace.WithAttributes(
			attribute.String("user.id", userID.String()),
			attribute.String("item.id", itemID.String()),
		),
	)
	defer span.End()

	exists, err := s.store.ItemExists(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("check item: %w", err)
	}
	if !exists {
		return nil, ErrItemNotFound
	}

	rec := &BorrowRecord{
		ID:         uuid.New(),
		UserID:     userID,
		ItemID:     itemID,
		Status:     StatusPending,
		BorrowDate: s.now().UTC(),
		FineAmount: decimal.Zero,
	}

	if err := s.store.Insert(ctx, rec); err != nil {
		return nil, fmt.Errorf("insert borrow request: %w", err)
	}

	s.logger.InfoContext(ctx, "borrow request filed",
		"record_id", rec.ID, "user_id", userID, "item_id", itemID)

	return rec, nil
}

func (s *service) Approve(ctx context.Context, recordID uuid.UUID) (*BorrowRecord, error) {
	ctx, span := s.tracer.Start(ctx, "borrowing.approve",
		trace.WithAttributes(attribute.String("record.id", recordID.String())),
	)
	defer span.End()

	rec, err := s.store.Get(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if rec.Status != StatusPending {
		return nil, fmt.Errorf("%w: cannot approve a %s record", ErrInvalidTransition, rec.Status)
	}

	due := fines.EndOfDay(s.now().AddDate(0, 0, s.loanPeriodDays))
	borrowedBy := rec.UserID

	rec.Status = StatusBorrowed
	rec.DueDate = &due
	rec.BorrowedBy = &borrowedBy

	if err := s.store.MarkBorrowed(ctx, rec); err != nil {
		span.SetAttributes(attribute.Bool("approve.failed", true))
		switch {
		case errors.Is(err, inventory.ErrUnavailable):
			return nil, ErrItemUnavailable
		case errors.Is(err, inventory.ErrItemNotFound):
			return nil, ErrItemNotFound
		default:
			return nil, err
		}
	}

	s.logger.InfoContext(ctx, "borrow request approved",
		"record_id", rec.ID, "item_id", rec.ItemID, "due_date", due)

	return rec, nil
}

func (s *service) Reject(ctx context.Context, recordID uuid.UUID) error {
	ctx, span := s.tracer.Start(ctx, "borrowing.reject",
		trace.WithAttributes(attribute.String("record.id", recordID.String())),
	)
	defer span.End()

	rec, err := s.store.Get(ctx, recordID)
	if err != nil {
		return err
	}
	if rec.Status != StatusPending {
		return fmt.Errorf("%w: cannot reject a %s record", ErrInvalidTransition, rec.Status)
	}

	if err := s.store.DeletePending(ctx, recordID); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "borrow request rejected", "record_id", recordID)

	return nil
}

func (s *service) Return(ctx context.Context, recordID uuid.UUID, asOf time.Time) (*ReturnReceipt, error) {
	ctx, span := s.tracer.Start(ctx, "borrowing.return",
		trace.WithAttributes(attribute.String("record.id", recordID.String())),
	)
	defer span.End()

	rec, err := s.store.Get(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if rec.Status != StatusBorrowed {
		return nil, fmt.Errorf("%w: cannot return a %s record", ErrInvalidTransition, rec.Status)
	}

	if asOf.IsZero() {
		asOf = s.now()
	}
	asOf = asOf.UTC()

	rate, err := s.rates.DailyRate(ctx)
	if err != nil {
		return nil, fmt.Errorf("read daily fine rate: %w", err)
	}

	// A BORROWED record without a due date violates the lifecycle invariant;
	// treat it as zero overdue rather than failing the return.
	var assessment fines.Assessment
	if rec.DueDate != nil {
		assessment = fines.Compute(*rec.DueDate, asOf, rate)
	} else {
		assessment = fines.Assessment{Fine: decimal.Zero}
		s.logger.WarnContext(ctx, "borrowed record has no due date", "record_id", rec.ID)
	}

	returnedBy := rec.UserID
	returnDate := asOf

	rec.Status = StatusReturned
	rec.ReturnDate = &returnDate
	rec.FineAmount = assessment.Fine
	rec.ReturnedBy = &returnedBy

	if err := s.store.MarkReturned(ctx, rec); err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("fine.days_overdue", assessment.DaysOverdue),
		attribute.String("fine.amount", assessment.Fine.StringFixed(2)),
	)
	s.logger.InfoContext(ctx, "book returned",
		"record_id", rec.ID, "days_overdue", assessment.DaysOverdue, "fine", assessment.Fine)

	return &ReturnReceipt{
		FineAmount:  assessment.Fine,
		DaysOverdue: assessment.DaysOverdue,
		IsOverdue:   assessment.IsOverdue(),
	}, nil
}

func (s *service) Get(ctx context.Context, recordID uuid.UUID) (*BorrowRecord, error) {
	return s.store.Get(ctx, recordID)
}
