// Package cryptox wraps the cryptographic primitives used by the credential
// subsystem: argon2id password derivation, AES-GCM for secrets at rest, and
// constant-time comparison.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/subtle"
	"fmt"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"golang.org/x/crypto/argon2"
)

// KeySize is the AES-256 key length used for secrets at rest.
const KeySize = 32

// NonceSize is the AES-GCM nonce length. A fresh nonce is generated per
// encryption and must never be reused with the same key.
const NonceSize = 12

// DerivePasswordHash derives a 32-byte key from password and salt using
// argon2id. Deliberately slow; deterministic for the same inputs.
func DerivePasswordHash(password, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, 32)
}

// ConstantTimeEqual compares two byte slices in time independent of the
// position of the first differing byte.
func ConstantTimeEqual(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}

// Encrypt seals plaintext with AES-GCM under key, generating a fresh random
// nonce per call. Ciphertext and nonce are returned separately.
func Encrypt(plaintext, key []byte) (ciphertext, nonce []byte, err error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, fmt.Errorf("new cipher: %w", err)
	}

	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, fmt.Errorf("new gcm: %w", err)
	}

	nonce = common.GenerateRandByteArray(aesgcm.NonceSize())
	ciphertext = aesgcm.Seal(nil, nonce, plaintext, nil)

	return ciphertext, nonce, nil
}

// Decrypt opens ciphertext produced by Encrypt. Tampered ciphertext or a
// foreign nonce fails with common.ErrDecryptionFailed, never garbage output.
func Decrypt(ciphertext, nonce, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("new cipher: %w", err)
	}

	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("new gcm: %w", err)
	}

	plaintext, err := aesgcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, common.ErrDecryptionFailed
	}

	return plaintext, nil
}
