package users

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
)

func newTestUser(id, username string) *User {
	return &User{
		ID:        id,
		Username:  username,
		Hash:      []byte("hash"),
		Salt:      []byte("salt"),
		Role:      RoleUser,
		CreatedAt: time.Now().UTC(),
	}
}

func TestFileRepository_CreateAndGet(t *testing.T) {
	t.Parallel()

	repo, err := NewFileRepository(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileRepository error: %v", err)
	}
	ctx := context.Background()

	created, err := repo.Create(ctx, newTestUser("u1", "alice"))
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if created.ID != "u1" {
		t.Fatalf("unexpected id %q", created.ID)
	}

	byID, err := repo.GetByID(ctx, "u1")
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	if byID.Username != "alice" {
		t.Fatalf("unexpected username %q", byID.Username)
	}

	byName, err := repo.GetByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("GetByUsername error: %v", err)
	}
	if byName.ID != "u1" {
		t.Fatalf("unexpected id %q", byName.ID)
	}
}

func TestFileRepository_DuplicateUsername(t *testing.T) {
	t.Parallel()

	repo, err := NewFileRepository(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileRepository error: %v", err)
	}
	ctx := context.Background()

	if _, err := repo.Create(ctx, newTestUser("u1", "alice")); err != nil {
		t.Fatalf("Create error: %v", err)
	}

	_, err = repo.Create(ctx, newTestUser("u2", "alice"))
	if !errors.Is(err, common.ErrorDuplicateUsername) {
		t.Fatalf("expected ErrorDuplicateUsername, got %v", err)
	}
}

func TestFileRepository_PersistsAcrossReopen(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ctx := context.Background()

	repo, err := NewFileRepository(dir)
	if err != nil {
		t.Fatalf("NewFileRepository error: %v", err)
	}
	if _, err := repo.Create(ctx, newTestUser("u1", "alice")); err != nil {
		t.Fatalf("Create error: %v", err)
	}

	reopened, err := NewFileRepository(dir)
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	got, err := reopened.GetByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("GetByUsername after reopen error: %v", err)
	}
	if got.ID != "u1" {
		t.Fatalf("unexpected id %q", got.ID)
	}
}

func TestFileRepository_FilePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file modes are not meaningful on windows")
	}
	t.Parallel()

	dir := t.TempDir()
	repo, err := NewFileRepository(dir)
	if err != nil {
		t.Fatalf("NewFileRepository error: %v", err)
	}
	if _, err := repo.Create(context.Background(), newTestUser("u1", "alice")); err != nil {
		t.Fatalf("Create error: %v", err)
	}

	fi, err := os.Stat(filepath.Join(dir, "users.json"))
	if err != nil {
		t.Fatalf("stat error: %v", err)
	}
	if fi.Mode().Perm() != 0o600 {
		t.Fatalf("expected 0600 permissions, got %v", fi.Mode().Perm())
	}
}

func TestFileRepository_UpdateAndDelete(t *testing.T) {
	t.Parallel()

	repo, err := NewFileRepository(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileRepository error: %v", err)
	}
	ctx := context.Background()

	u, err := repo.Create(ctx, newTestUser("u1", "alice"))
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	u.Email = "alice@example.com"
	if err := repo.Update(ctx, u); err != nil {
		t.Fatalf("Update error: %v", err)
	}

	got, err := repo.GetByID(ctx, "u1")
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	if got.Email != "alice@example.com" {
		t.Fatalf("update not applied: %q", got.Email)
	}

	if err := repo.Delete(ctx, "u1"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, err := repo.GetByID(ctx, "u1"); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound after delete, got %v", err)
	}

	// deleting an absent user is not an error
	if err := repo.Delete(ctx, "u1"); err != nil {
		t.Fatalf("second Delete should be a no-op, got %v", err)
	}
}

func TestFileRepository_UpdateMissing(t *testing.T) {
	t.Parallel()

	repo, err := NewFileRepository(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileRepository error: %v", err)
	}

	err = repo.Update(context.Background(), newTestUser("ghost", "ghost"))
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound, got %v", err)
	}
}

func TestFileRepository_CorruptFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "users.json"), []byte("{not json"), 0o600); err != nil {
		t.Fatalf("seed corrupt file: %v", err)
	}

	if _, err := NewFileRepository(dir); err == nil {
		t.Fatalf("expected error for corrupt store file, got nil")
	}
}

func TestSafeUser_StripsCredentialMaterial(t *testing.T) {
	t.Parallel()

	u := newTestUser("u1", "alice")
	safe := u.Safe()

	b, err := json.Marshal(safe)
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}
	for _, forbidden := range []string{"hash", "salt"} {
		if jsonHasKey(b, forbidden) {
			t.Fatalf("safe view leaks %q: %s", forbidden, b)
		}
	}
}

func jsonHasKey(data []byte, key string) bool {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return false
	}
	_, ok := m[key]
	return ok
}
