package user

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the persistence contract for accounts. Users are never
// hard-deleted.
type Repository interface {
	// Create inserts u. A taken email yields ErrCodeDuplicateEmail.
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	// GetByEmail looks up by normalized email. Unknown yields ErrCodeUserNotFound.
	GetByEmail(ctx context.Context, email string) (*User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	UpdatePlan(ctx context.Context, id uuid.UUID, plan Plan) error
}
