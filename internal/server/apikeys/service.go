package apikeys

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/cryptox"
	"github.com/dmitrijs2005/authkeeper/internal/filex"
	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/google/uuid"
)

const keyFileName = ".key"

// Service encrypts and decrypts named secrets with a symmetric key that is
// generated once and persisted hex-encoded with owner-only permissions.
// InitKey must run before any other call.
type Service struct {
	repo    Repository
	logger  logging.Logger
	keyPath string
	key     []byte
}

func NewService(repo Repository, dataDir string, logger logging.Logger) *Service {
	return &Service{
		repo:    repo,
		logger:  logger.With("module", "apikeys"),
		keyPath: filepath.Join(dataDir, keyFileName),
	}
}

// InitKey loads the symmetric key from disk, generating and persisting a
// fresh one on first use.
func (s *Service) InitKey(ctx context.Context) error {
	data, err := os.ReadFile(s.keyPath)
	if err == nil {
		key, decErr := hex.DecodeString(strings.TrimSpace(string(data)))
		if decErr != nil || len(key) != cryptox.KeySize {
			return fmt.Errorf("malformed key file %s", s.keyPath)
		}
		s.key = key
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("read key file: %w", err)
	}

	key := common.GenerateRandByteArray(cryptox.KeySize)
	if err := filex.WriteOwnerOnly(s.keyPath, []byte(hex.EncodeToString(key))); err != nil {
		return fmt.Errorf("persist key file: %w", err)
	}

	s.key = key
	s.logger.Info(ctx, "generated new encryption key", "path", s.keyPath)
	return nil
}

// Store encrypts plaintext under a fresh nonce and persists the record.
// Returns the new record's id.
func (s *Service) Store(ctx context.Context, name, plaintext string) (string, error) {
	if s.key == nil {
		return "", common.ErrKeyNotInitialized
	}

	ciphertext, nonce, err := cryptox.Encrypt([]byte(plaintext), s.key)
	if err != nil {
		return "", fmt.Errorf("encrypt secret: %w", err)
	}

	key := &APIKey{
		ID:         uuid.NewString(),
		Name:       name,
		Ciphertext: ciphertext,
		Nonce:      nonce,
		CreatedAt:  time.Now().UTC(),
	}

	if _, err := s.repo.Create(ctx, key); err != nil {
		return "", err
	}
	return key.ID, nil
}

// Reveal decrypts the stored secret and bumps its last-used timestamp.
func (s *Service) Reveal(ctx context.Context, id string) (string, error) {
	if s.key == nil {
		return "", common.ErrKeyNotInitialized
	}

	key, err := s.repo.Get(ctx, id)
	if err != nil {
		return "", err
	}

	plaintext, err := cryptox.Decrypt(key.Ciphertext, key.Nonce, s.key)
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	key.LastUsed = &now
	if err := s.repo.Update(ctx, key); err != nil {
		return "", err
	}

	return string(plaintext), nil
}

// List returns metadata for every stored secret; never cipher material.
func (s *Service) List(ctx context.Context) ([]*Info, error) {
	keys, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	infos := make([]*Info, 0, len(keys))
	for _, k := range keys {
		infos = append(infos, k.Info())
	}
	return infos, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
