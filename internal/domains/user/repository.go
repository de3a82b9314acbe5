package user

import (
	"context"

	"github.com/google/uuid"
)

// Repository định nghĩa data access contract của user domain
type Repository interface {
	// Create inserts user và trả về id. Email trùng -> ErrEmailAlreadyExists
	Create(ctx context.Context, u *User) (uuid.UUID, error)

	// FindByID dùng cache-aside (không cache password hash)
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}
