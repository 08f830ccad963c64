// internal/catalog/domain.go
package catalog

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Item represents a book in the catalog. Available is mutated only by the
// inventory ledger, in lockstep with borrow record transitions, and always
// satisfies 0 <= Available <= TotalCopies.
type Item struct {
	ID          uuid.UUID `json:"id" db:"id"`
	ISBN        string    `json:"isbn" db:"isbn"`
	Title       string    `json:"title" db:"title"`
	Author      string    `json:"author" db:"author"`
	TotalCopies int       `json:"total_copies" db:"total_copies"`
	Available   int       `json:"available" db:"available"`
	Status      string    `json:"status" db:"status"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

var (
	// ErrItemNotFound is returned when the item does not exist.
	ErrItemNotFound = errors.New("item not found")
	// ErrItemInUse is returned when an item cannot be removed because a
	// PENDING or BORROWED record still references it.
	ErrItemInUse = errors.New("item is referenced by an active borrow")
	// ErrInvalidCopies is returned when an item is added with a negative
	// number of copies.
	ErrInvalidCopies = errors.New("total copies must not be negative")
)
