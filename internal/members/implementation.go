// internal/members/implementation.go
package members

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
	"golang.org/x/time/rate"
)

var dialect = goqu.Dialect("postgres")

// service implements the Service interface.
type service struct {
	db          *sqlx.DB
	rateLimiter *rate.Limiter
}

// NewService creates a new member directory instance.
func NewService(db *sqlx.DB) Service {
	return &service{
		db:          db,
		rateLimiter: rate.NewLimiter(rate.Every(1*time.Minute), 5), // 5 registrations per minute
	}
}

// Register creates a new member.
func (s *service) Register(ctx context.Context, email, name string) (*Member, error) {
	if !s.rateLimiter.Allow() {
		return nil, ErrRateLimited
	}

	member := &Member{
		ID:     uuid.New(),
		Email:  email,
		Name:   name,
		Status: "active",
	}

	query, args, err := dialect.
		Insert("members").
		Rows(goqu.Record{
			"id":     member.ID.String(),
			"email":  member.Email,
			"name":   member.Name,
			"status": member.Status,
		}).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build insert query: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("insert member: %w", err)
	}

	return member, nil
}

// Get retrieves a member by ID.
func (s *service) Get(ctx context.Context, id uuid.UUID) (*Member, error) {
	query, args, err := dialect.
		From("members").
		Where(goqu.C("id").Eq(id.String())).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build get query: %w", err)
	}

	member := &Member{}
	if err := s.db.GetContext(ctx, member, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("get member: %w", err)
	}

	return member, nil
}

// MemberEmail resolves a member to their notification address.
func (s *service) MemberEmail(ctx context.Context, id uuid.UUID) (string, error) {
	member, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return member.Email, nil
}
