package sessions

import (
	"context"
	"time"
)

type Repository interface {
	// Create persists a new session.
	Create(ctx context.Context, session *Session) (*Session, error)

	// Get returns the session or common.ErrorNotFound.
	Get(ctx context.Context, id string) (*Session, error)

	// Update overwrites the stored record matched by session.ID.
	Update(ctx context.Context, session *Session) error

	// Delete removes the session. Deleting an absent session is not an error.
	Delete(ctx context.Context, id string) error

	// DeleteForUser removes every session owned by the user.
	DeleteForUser(ctx context.Context, userID string) error

	// ListForUser returns the user's sessions ordered by creation time.
	ListForUser(ctx context.Context, userID string) ([]*Session, error)

	// SweepExpired deletes all sessions expired at instant now and returns
	// how many were removed.
	SweepExpired(ctx context.Context, now time.Time) (int, error)
}
