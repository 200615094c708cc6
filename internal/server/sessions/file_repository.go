package sessions

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/filex"
)

const fileName = "sessions.json"

// FileRepository mirrors users.FileRepository: in-memory map, full-file
// rewrite on mutation, mutex-serialized writers.
type FileRepository struct {
	mu       sync.Mutex
	path     string
	sessions map[string]*Session
}

func NewFileRepository(dir string) (*FileRepository, error) {
	r := &FileRepository{
		path:     filepath.Join(dir, fileName),
		sessions: make(map[string]*Session),
	}

	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return r, nil
		}
		return nil, fmt.Errorf("read %s: %w", r.path, err)
	}

	var list []*Session
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse %s: %w", r.path, err)
	}
	for _, s := range list {
		r.sessions[s.ID] = s
	}

	return r, nil
}

func (r *FileRepository) persist() error {
	list := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		list = append(list, s)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })

	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal sessions: %w", err)
	}
	if err := filex.WriteOwnerOnly(r.path, data); err != nil {
		return fmt.Errorf("persist sessions: %w: %w", common.ErrorIO, err)
	}
	return nil
}

func clone(s *Session) *Session {
	c := *s
	return &c
}

func (r *FileRepository) Create(ctx context.Context, session *Session) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[session.ID] = clone(session)
	if err := r.persist(); err != nil {
		delete(r.sessions, session.ID)
		return nil, err
	}
	return clone(session), nil
}

func (r *FileRepository) Get(ctx context.Context, id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return clone(s), nil
}

func (r *FileRepository) Update(ctx context.Context, session *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	old, ok := r.sessions[session.ID]
	if !ok {
		return common.ErrorNotFound
	}

	r.sessions[session.ID] = clone(session)
	if err := r.persist(); err != nil {
		r.sessions[session.ID] = old
		return err
	}
	return nil
}

func (r *FileRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	old, ok := r.sessions[id]
	if !ok {
		return nil
	}

	delete(r.sessions, id)
	if err := r.persist(); err != nil {
		r.sessions[id] = old
		return err
	}
	return nil
}

func (r *FileRepository) DeleteForUser(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := make(map[string]*Session)
	for id, s := range r.sessions {
		if s.UserID == userID {
			removed[id] = s
			delete(r.sessions, id)
		}
	}
	if len(removed) == 0 {
		return nil
	}

	if err := r.persist(); err != nil {
		for id, s := range removed {
			r.sessions[id] = s
		}
		return err
	}
	return nil
}

func (r *FileRepository) ListForUser(ctx context.Context, userID string) ([]*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var list []*Session
	for _, s := range r.sessions {
		if s.UserID == userID {
			list = append(list, clone(s))
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	return list, nil
}

func (r *FileRepository) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := make(map[string]*Session)
	for id, s := range r.sessions {
		if s.ExpiredAt(now) {
			removed[id] = s
			delete(r.sessions, id)
		}
	}
	if len(removed) == 0 {
		return 0, nil
	}

	if err := r.persist(); err != nil {
		for id, s := range removed {
			r.sessions[id] = s
		}
		return 0, err
	}
	return len(removed), nil
}
