// internal/catalog/implementation.go
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var dialect = goqu.Dialect("postgres")

// service implements the Service interface.
type service struct {
	db      *sqlx.DB
	borrows ActiveBorrowChecker
}

// NewService creates a new catalog service instance.
func NewService(db *sqlx.DB, borrows ActiveBorrowChecker) Service {
	return &service{db: db, borrows: borrows}
}

// AddItem creates a new item in the catalog with all copies available.
func (s *service) AddItem(ctx context.Context, isbn, title, author string, totalCopies int) (*Item, error) {
	if totalCopies < 0 {
		return nil, ErrInvalidCopies
	}

	item := &Item{
		ID:          uuid.New(),
		ISBN:        isbn,
		Title:       title,
		Author:      author,
		TotalCopies: totalCopies,
		Available:   totalCopies,
		Status:      "active",
	}

	query, args, err := dialect.
		Insert("items").
		Rows(goqu.Record{
			"id":           item.ID.String(),
			"isbn":         item.ISBN,
			"title":        item.Title,
			"author":       item.Author,
			"total_copies": item.TotalCopies,
			"available":    item.Available,
			"status":       item.Status,
		}).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build insert query: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}

	return item, nil
}

// GetItem retrieves an item from the catalog by its ID.
func (s *service) GetItem(ctx context.Context, id uuid.UUID) (*Item, error) {
	query, args, err := dialect.
		From("items").
		Where(goqu.C("id").Eq(id.String())).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build get query: %w", err)
	}

	item := &Item{}
	if err := s.db.GetContext(ctx, item, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("get item: %w", err)
	}

	return item, nil
}

// ListItems returns all catalog items.
func (s *service) ListItems(ctx context.Context) ([]Item, error) {
	query, _, err := dialect.
		From("items").
		Order(goqu.C("title").Asc()).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	var items []Item
	if err := s.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}

	return items, nil
}

// RemoveItem deletes an item unless an active borrow still references it.
func (s *service) RemoveItem(ctx context.Context, id uuid.UUID) error {
	active, err := s.borrows.HasActiveForItem(ctx, id)
	if err != nil {
		return fmt.Errorf("check active borrows: %w", err)
	}
	if active {
		return ErrItemInUse
	}

	query, args, err := dialect.
		Delete("items").
		Where(goqu.C("id").Eq(id.String())).
		Prepared(true).ToSQL()
	if err != nil {
		return fmt.Errorf("build delete query: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrItemNotFound
	}

	return nil
}
