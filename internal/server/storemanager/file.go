package storemanager

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/authkeeper/internal/filex"
	"github.com/dmitrijs2005/authkeeper/internal/server/apikeys"
	"github.com/dmitrijs2005/authkeeper/internal/server/sessions"
	"github.com/dmitrijs2005/authkeeper/internal/server/users"
)

// FileManager wires the JSON-file repositories over a single data
// directory. This is the default backend.
type FileManager struct {
	mu       sync.Mutex
	users    *users.FileRepository
	sessions *sessions.FileRepository
	apiKeys  *apikeys.FileRepository
}

func NewFileManager(dir string) (*FileManager, error) {
	if err := filex.EnsureDir(dir); err != nil {
		return nil, err
	}

	ur, err := users.NewFileRepository(dir)
	if err != nil {
		return nil, err
	}
	sr, err := sessions.NewFileRepository(dir)
	if err != nil {
		return nil, err
	}
	kr, err := apikeys.NewFileRepository(dir)
	if err != nil {
		return nil, err
	}

	return &FileManager{users: ur, sessions: sr, apiKeys: kr}, nil
}

func (m *FileManager) Users() users.Repository       { return m.users }
func (m *FileManager) Sessions() sessions.Repository { return m.sessions }
func (m *FileManager) APIKeys() apikeys.Repository   { return m.apiKeys }

// InTx serializes InTx blocks against each other with a manager-level
// mutex. Repository calls made outside InTx are not ordered against it;
// higher-level sequencing (per-session, per-user) is the service layer's
// job. The individual repositories stay crash-consistent through their
// atomic file rewrites.
func (m *FileManager) InTx(ctx context.Context, fn func(Manager) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(m)
}

func (m *FileManager) Close() error { return nil }
