package users

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/filex"
)

const fileName = "users.json"

// FileRepository keeps the user set in memory and rewrites users.json in
// full on every mutation. A mutex serializes writers so two racing requests
// cannot lose updates.
type FileRepository struct {
	mu    sync.Mutex
	path  string
	users map[string]*User
}

func NewFileRepository(dir string) (*FileRepository, error) {
	r := &FileRepository{
		path:  filepath.Join(dir, fileName),
		users: make(map[string]*User),
	}

	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return r, nil
		}
		return nil, fmt.Errorf("read %s: %w", r.path, err)
	}

	var list []*User
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse %s: %w", r.path, err)
	}
	for _, u := range list {
		r.users[u.ID] = u
	}

	return r, nil
}

// persist rewrites the whole file. Callers must hold the mutex.
func (r *FileRepository) persist() error {
	list := make([]*User, 0, len(r.users))
	for _, u := range r.users {
		list = append(list, u)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })

	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal users: %w", err)
	}
	if err := filex.WriteOwnerOnly(r.path, data); err != nil {
		return fmt.Errorf("persist users: %w: %w", common.ErrorIO, err)
	}
	return nil
}

func clone(u *User) *User {
	c := *u
	return &c
}

func (r *FileRepository) Create(ctx context.Context, user *User) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Username == user.Username {
			return nil, common.ErrorDuplicateUsername
		}
	}

	r.users[user.ID] = clone(user)
	if err := r.persist(); err != nil {
		delete(r.users, user.ID)
		return nil, err
	}

	return clone(user), nil
}

func (r *FileRepository) GetByID(ctx context.Context, id string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return clone(u), nil
}

func (r *FileRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Username == username {
			return clone(u), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *FileRepository) List(ctx context.Context) ([]*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	list := make([]*User, 0, len(r.users))
	for _, u := range r.users {
		list = append(list, clone(u))
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	return list, nil
}

func (r *FileRepository) Update(ctx context.Context, user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	old, ok := r.users[user.ID]
	if !ok {
		return common.ErrorNotFound
	}

	r.users[user.ID] = clone(user)
	if err := r.persist(); err != nil {
		r.users[user.ID] = old
		return err
	}
	return nil
}

func (r *FileRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	old, ok := r.users[id]
	if !ok {
		return nil
	}

	delete(r.users, id)
	if err := r.persist(); err != nil {
		r.users[id] = old
		return err
	}
	return nil
}

func (r *FileRepository) Count(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users), nil
}
