// internal/members/service.go
package members

import (
	"context"

	"github.com/google/uuid"
)

// Service defines the interface for the member directory.
type Service interface {
	Register(ctx context.Context, email, name string) (*Member, error)
	Get(ctx context.Context, id uuid.UUID) (*Member, error)
	// MemberEmail resolves a member to their notification address.
	MemberEmail(ctx context.Context, id uuid.UUID) (string, error)
}
