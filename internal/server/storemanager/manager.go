// Package storemanager bundles the per-domain repositories behind one
// handle so the service layer does not care whether state lives in local
// JSON files or in Postgres.
package storemanager

import (
	"context"

	"github.com/dmitrijs2005/authkeeper/internal/server/apikeys"
	"github.com/dmitrijs2005/authkeeper/internal/server/sessions"
	"github.com/dmitrijs2005/authkeeper/internal/server/users"
)

type Manager interface {
	Users() users.Repository
	Sessions() sessions.Repository
	APIKeys() apikeys.Repository

	// InTx runs fn against a manager whose mutations are atomic as a group:
	// a transaction on SQL backends, an exclusive section on the file
	// backend. Used for multi-repo mutations such as password rotation.
	InTx(ctx context.Context, fn func(m Manager) error) error

	Close() error
}
