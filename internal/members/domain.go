// internal/members/domain.go
package members

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Member is a directory entry for a library user. Authentication happens
// upstream; this directory exists to resolve reminder recipients and to
// label borrow records.
type Member struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	Name      string    `json:"name" db:"name"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

var (
	// ErrMemberNotFound is returned when the member does not exist.
	ErrMemberNotFound = errors.New("member not found")
	// ErrRateLimited is returned when registrations come in too fast.
	ErrRateLimited = errors.New("rate limit exceeded")
)
