package sessions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
)

func newTestSession(id, userID string, expiresAt time.Time) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:           id,
		UserID:       userID,
		AccessToken:  "access-" + id,
		RefreshToken: "refresh-" + id,
		Generation:   1,
		CreatedAt:    now,
		ExpiresAt:    expiresAt,
		LastActivity: now,
	}
}

func TestFileRepository_CreateGetDelete(t *testing.T) {
	t.Parallel()

	repo, err := NewFileRepository(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileRepository error: %v", err)
	}
	ctx := context.Background()

	s := newTestSession("s1", "u1", time.Now().Add(time.Hour))
	if _, err := repo.Create(ctx, s); err != nil {
		t.Fatalf("Create error: %v", err)
	}

	got, err := repo.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got.UserID != "u1" || got.AccessToken != "access-s1" {
		t.Fatalf("unexpected session: %+v", got)
	}

	if err := repo.Delete(ctx, "s1"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, err := repo.Get(ctx, "s1"); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound after delete, got %v", err)
	}

	// idempotent delete
	if err := repo.Delete(ctx, "s1"); err != nil {
		t.Fatalf("second Delete should be a no-op, got %v", err)
	}
}

func TestFileRepository_DeleteForUser(t *testing.T) {
	t.Parallel()

	repo, err := NewFileRepository(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileRepository error: %v", err)
	}
	ctx := context.Background()
	exp := time.Now().Add(time.Hour)

	for _, s := range []*Session{
		newTestSession("s1", "u1", exp),
		newTestSession("s2", "u1", exp),
		newTestSession("s3", "u2", exp),
	} {
		if _, err := repo.Create(ctx, s); err != nil {
			t.Fatalf("Create error: %v", err)
		}
	}

	if err := repo.DeleteForUser(ctx, "u1"); err != nil {
		t.Fatalf("DeleteForUser error: %v", err)
	}

	if _, err := repo.Get(ctx, "s1"); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("s1 should be gone, got %v", err)
	}
	if _, err := repo.Get(ctx, "s3"); err != nil {
		t.Fatalf("s3 should survive, got %v", err)
	}
}

func TestFileRepository_ListForUser(t *testing.T) {
	t.Parallel()

	repo, err := NewFileRepository(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileRepository error: %v", err)
	}
	ctx := context.Background()
	exp := time.Now().Add(time.Hour)

	for _, s := range []*Session{
		newTestSession("s1", "u1", exp),
		newTestSession("s2", "u2", exp),
		newTestSession("s3", "u1", exp),
	} {
		if _, err := repo.Create(ctx, s); err != nil {
			t.Fatalf("Create error: %v", err)
		}
	}

	list, err := repo.ListForUser(ctx, "u1")
	if err != nil {
		t.Fatalf("ListForUser error: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(list))
	}
}

func TestFileRepository_SweepExpired(t *testing.T) {
	t.Parallel()

	repo, err := NewFileRepository(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileRepository error: %v", err)
	}
	ctx := context.Background()
	now := time.Now()

	for _, s := range []*Session{
		newTestSession("dead1", "u1", now.Add(-time.Hour)),
		newTestSession("dead2", "u1", now.Add(-time.Minute)),
		newTestSession("live1", "u1", now.Add(time.Hour)),
		newTestSession("live2", "u2", now.Add(time.Hour)),
	} {
		if _, err := repo.Create(ctx, s); err != nil {
			t.Fatalf("Create error: %v", err)
		}
	}

	n, err := repo.SweepExpired(ctx, now)
	if err != nil {
		t.Fatalf("SweepExpired error: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 swept, got %d", n)
	}

	if _, err := repo.Get(ctx, "dead1"); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("dead1 should be swept, got %v", err)
	}
	if _, err := repo.Get(ctx, "live1"); err != nil {
		t.Fatalf("live1 should survive, got %v", err)
	}

	// second sweep removes nothing
	n, err = repo.SweepExpired(ctx, now)
	if err != nil {
		t.Fatalf("second SweepExpired error: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected 0 swept, got %d", n)
	}
}

func TestSession_ExpiredAt_InclusiveBoundary(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s := newTestSession("s1", "u1", at)

	if !s.ExpiredAt(at) {
		t.Fatalf("expiry equal to now must count as expired")
	}
	if s.ExpiredAt(at.Add(-time.Nanosecond)) {
		t.Fatalf("session before its expiry must be live")
	}
	if !s.ExpiredAt(at.Add(time.Nanosecond)) {
		t.Fatalf("session past its expiry must be expired")
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
	if _, err := repo.Create(ctx, newTestSession("s1", "u1", time.Now().Add(time.Hour))); err != nil {
		t.Fatalf("Create error: %v", err)
	}

	reopened, err := NewFileRepository(dir)
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	if _, err := reopened.Get(ctx, "s1"); err != nil {
		t.Fatalf("Get after reopen error: %v", err)
	}
}
