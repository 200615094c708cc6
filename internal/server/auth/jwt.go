// Package auth issues and verifies the signed token pairs used by the
// session subsystem. It is stateless: verification here is purely
// cryptographic, and callers must still cross-check the referenced session
// against the session store.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Token lifetimes are fixed policy, not configuration.
const (
	AccessTokenTTL  = 1 * time.Hour
	RefreshTokenTTL = 7 * 24 * time.Hour
)

// Kind discriminates the two token flavours in a pair.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Claims is the signed claim set: owning user, session, token kind, and the
// session's token generation at issue time. A session bump on refresh makes
// every previously issued pair stale even inside its cryptographic window.
type Claims struct {
	jwt.RegisteredClaims
	UserID     string `json:"uid"`
	SessionID  string `json:"sid"`
	Kind       Kind   `json:"knd"`
	Generation int64  `json:"gen"`
}

// GenerateToken signs a token of the given kind with HS256.
func GenerateToken(userID, sessionID string, kind Kind, generation int64, secretKey []byte) (string, error) {
	ttl := AccessTokenTTL
	if kind == KindRefresh {
		ttl = RefreshTokenTTL
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		UserID:     userID,
		SessionID:  sessionID,
		Kind:       kind,
		Generation: generation,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken verifies the signature and embedded expiry and returns the
// claims. Expired tokens fail with common.ErrTokenExpired, everything else
// with common.ErrInvalidToken.
func ParseToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
