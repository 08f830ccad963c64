// internal/catalog/service.go
package catalog

import (
	"context"

	"github.com/google/uuid"
)

// ActiveBorrowChecker answers whether an item is still referenced by an
// active borrow record. The borrowing store provides this.
type ActiveBorrowChecker interface {
	HasActiveForItem(ctx context.Context, itemID uuid.UUID) (bool, error)
}

// Service defines the interface for the catalog service.
type Service interface {
	AddItem(ctx context.Context, isbn, title, author string, totalCopies int) (*Item, error)
	GetItem(ctx context.Context, id uuid.UUID) (*Item, error)
	ListItems(ctx context.Context) ([]Item, error)
	// RemoveItem deletes an item, refusing with ErrItemInUse while any
	// PENDING or BORROWED record references it.
	RemoveItem(ctx context.Context, id uuid.UUID) error
}
