package users

import (
	"context"
)

type Repository interface {
	// Create persists a new user. Fails with common.ErrorDuplicateUsername
	// when the username is already taken.
	Create(ctx context.Context, user *User) (*User, error)

	// GetByID returns the user or common.ErrorNotFound.
	GetByID(ctx context.Context, id string) (*User, error)

	// GetByUsername returns the user or common.ErrorNotFound.
	GetByUsername(ctx context.Context, username string) (*User, error)

	// List returns all users.
	List(ctx context.Context) ([]*User, error)

	// Update overwrites the stored record matched by user.ID.
	Update(ctx context.Context, user *User) error

	// Delete removes the user. Deleting an absent user is not an error.
	Delete(ctx context.Context, id string) error

	// Count returns the number of stored users.
	Count(ctx context.Context) (int, error)
}
