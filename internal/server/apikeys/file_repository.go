package apikeys

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

const fileName = "api-keys.json"

type FileRepository struct {
	mu   sync.Mutex
	path string
	keys map[string]*APIKey
}

func NewFileRepository(dir string) (*FileRepository, error) {
	r := &FileRepository{
		path: filepath.Join(dir, fileName),
		keys: make(map[string]*APIKey),
	}

	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return r, nil
		}
		return nil, fmt.Errorf("read %s: %w", r.path, err)
	}

	var list []*APIKey
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse %s: %w", r.path, err)
	}
	for _, k := range list {
		r.keys[k.ID] = k
	}

	return r, nil
}

func (r *FileRepository) persist() error {
	list := make([]*APIKey, 0, len(r.keys))
	for _, k := range r.keys {
		list = append(list, k)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })

	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal api keys: %w", err)
	}
	if err := filex.WriteOwnerOnly(r.path, data); err != nil {
		return fmt.Errorf("persist api keys: %w: %w", common.ErrorIO, err)
	}
	return nil
}

func clone(k *APIKey) *APIKey {
	c := *k
	return &c
}

func (r *FileRepository) Create(ctx context.Context, key *APIKey) (*APIKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.keys[key.ID] = clone(key)
	if err := r.persist(); err != nil {
		delete(r.keys, key.ID)
		return nil, err
	}
	return clone(key), nil
}

func (r *FileRepository) Get(ctx context.Context, id string) (*APIKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	k, ok := r.keys[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return clone(k), nil
}

func (r *FileRepository) Update(ctx context.Context, key *APIKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	old, ok := r.keys[key.ID]
	if !ok {
		return common.ErrorNotFound
	}

	r.keys[key.ID] = clone(key)
	if err := r.persist(); err != nil {
		r.keys[key.ID] = old
		return err
	}
	return nil
}

func (r *FileRepository) List(ctx context.Context) ([]*APIKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	list := make([]*APIKey, 0, len(r.keys))
	for _, k := range r.keys {
		list = append(list, clone(k))
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	return list, nil
}

func (r *FileRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	old, ok := r.keys[id]
	if !ok {
		return nil
	}

	delete(r.keys, id)
	if err := r.persist(); err != nil {
		r.keys[id] = old
		return err
	}
	return nil
}
