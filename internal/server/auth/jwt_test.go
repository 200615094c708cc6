package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

func TestGenerateAndParse_Success(t *testing.T) {
	t.Parallel()

	secret := []byte("super-secret")

	tok, err := GenerateToken("user-123", "session-456", KindAccess, 3, secret)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	claims, err := ParseToken(tok, secret)
	if err != nil {
		t.Fatalf("ParseToken error: %v", err)
	}
	if claims.UserID != "user-123" {
		t.Fatalf("userID mismatch: got %q", claims.UserID)
	}
	if claims.SessionID != "session-456" {
		t.Fatalf("sessionID mismatch: got %q", claims.SessionID)
	}
	if claims.Kind != KindAccess {
		t.Fatalf("kind mismatch: got %q", claims.Kind)
	}
	if claims.Generation != 3 {
		t.Fatalf("generation mismatch: got %d", claims.Generation)
	}
}

func TestParseToken_Expired(t *testing.T) {
	t.Parallel()

	secret := []byte("secret")

	// signed directly so the test controls the expiry
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
		UserID:    "u1",
		SessionID: "s1",
		Kind:      KindAccess,
	})
	tok, err := token.SignedString(secret)
	if err != nil {
		t.Fatalf("SignedString error: %v", err)
	}

	_, err = ParseToken(tok, secret)
	if !errors.Is(err, common.ErrTokenExpired) {
		t.Fatalf("expected common.ErrTokenExpired, got %v", err)
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := GenerateToken("u2", "s2", KindAccess, 1, []byte("right-secret"))
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	_, err = ParseToken(tok, []byte("wrong-secret"))
	if !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected common.ErrInvalidToken, got %v", err)
	}
}

func TestParseToken_MalformedString(t *testing.T) {
	t.Parallel()

	_, err := ParseToken("not.a.jwt", []byte("k"))
	if !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected common.ErrInvalidToken, got %v", err)
	}
}

func TestParseToken_TamperedPayload(t *testing.T) {
	t.Parallel()

	secret := []byte("k")
	tok, err := GenerateToken("u3", "s3", KindRefresh, 1, secret)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	parts := strings.Split(tok, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape")
	}
	parts[1] = parts[1][:len(parts[1])-2] + "xx"

	_, err = ParseToken(strings.Join(parts, "."), secret)
	if err == nil {
		t.Fatalf("expected error for tampered payload, got nil")
	}
}

func TestGenerateToken_KindsDiffer(t *testing.T) {
	t.Parallel()

	secret := []byte("k")

	access, err := GenerateToken("u", "s", KindAccess, 1, secret)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}
	refresh, err := GenerateToken("u", "s", KindRefresh, 1, secret)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	ac, err := ParseToken(access, secret)
	if err != nil {
		t.Fatalf("ParseToken error: %v", err)
	}
	rc, err := ParseToken(refresh, secret)
	if err != nil {
		t.Fatalf("ParseToken error: %v", err)
	}

	if ac.Kind != KindAccess || rc.Kind != KindRefresh {
		t.Fatalf("kinds not preserved: %q / %q", ac.Kind, rc.Kind)
	}
	if !rc.ExpiresAt.After(ac.ExpiresAt.Time) {
		t.Fatalf("refresh token should outlive access token")
	}
}
