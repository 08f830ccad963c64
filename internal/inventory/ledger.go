// internal/inventory/ledger.go
package inventory

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrUnavailable is returned by Reserve when the item has no free copies.
	ErrUnavailable = errors.New("no copies available")
	// ErrOverCapacity is returned by Release when the increment would push
	// available copies past the item's total. With reserve/release paired
	// one-to-one by the borrow lifecycle this should never fire; it exists
	// so a bug surfaces as an error instead of a corrupted count.
	ErrOverCapacity = errors.New("release would exceed total copies")
	// ErrItemNotFound is returned when the item does not exist at all.
	ErrItemNotFound = errors.New("item not found")
)

// Ledger tracks available copies per catalog item. Both operations are
// atomic with respect to concurrent callers: two simultaneous Reserve calls
// on an item with one free copy must not both succeed.
type Ledger interface {
	// Reserve takes one copy, failing with ErrUnavailable if none are free.
	Reserve(ctx context.Context, itemID uuid.UUID) error
	// Release puts one copy back, failing with ErrOverCapacity if the item
	// would end up with more available than total copies.
	Release(ctx context.Context, itemID uuid.UUID) error
}
