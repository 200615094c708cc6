package apikeys

import (
	"context"
)

type Repository interface {
	// Create persists a new secret record.
	Create(ctx context.Context, key *APIKey) (*APIKey, error)

	// Get returns the record or common.ErrorNotFound.
	Get(ctx context.Context, id string) (*APIKey, error)

	// Update overwrites the stored record matched by key.ID.
	Update(ctx context.Context, key *APIKey) error

	// List returns all records ordered by creation time.
	List(ctx context.Context) ([]*APIKey, error)

	// Delete removes the record. Deleting an absent record is not an error.
	Delete(ctx context.Context, id string) error
}
