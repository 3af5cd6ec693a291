package user

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Create inserts a new user. Returns ierr.ErrEmailTaken when the email
	// is already registered.
	Create(ctx context.Context, u *User) (*User, error)

	// FindByEmail returns ierr.ErrUserNotFound when no user matches.
	FindByEmail(ctx context.Context, email string) (*User, error)

	// FindByID returns ierr.ErrUserNotFound when no user matches.
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)

	// UpdatePassword replaces the stored password hash.
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
}
