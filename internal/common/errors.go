// Package common defines shared constants and sentinel errors used across
// the authkeeper components. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound          = errors.New("not found")
	ErrorDuplicateUsername = errors.New("username already exists")

	// Input validation.
	ErrorValidation = errors.New("validation error")

	// ErrorIO marks a durable-storage write or read failure.
	ErrorIO = errors.New("storage io error")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// ErrorUnauthorized is the single answer to every credential failure:
	// unknown user, wrong password, bad signature, missing session. Keeping
	// one sentinel for all of them avoids an existence oracle.
	ErrorUnauthorized = errors.New("unauthorized")

	// Token lifecycle errors.
	ErrInvalidToken        = errors.New("invalid token")
	ErrTokenExpired        = errors.New("token expired")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")

	// Secret store errors.
	ErrKeyNotInitialized = errors.New("encryption key not initialized")
	ErrDecryptionFailed  = errors.New("decryption failed")

	// Access control.
	ErrorForbidden = errors.New("forbidden")
)
