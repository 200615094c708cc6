// Package apikeys is the secret store: named opaque secrets encrypted at
// rest under a process-local symmetric key.
package apikeys

import "time"

// APIKey is a stored secret. Only ciphertext and the per-encryption nonce
// are persisted; the plaintext exists in memory only while being handled.
type APIKey struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Ciphertext []byte     `json:"ciphertext"`
	Nonce      []byte     `json:"nonce"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsed   *time.Time `json:"last_used,omitempty"`
}

// Info is the listing projection: metadata only, no cipher material.
type Info struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	CreatedAt time.Time  `json:"created_at"`
	LastUsed  *time.Time `json:"last_used,omitempty"`
}

func (k *APIKey) Info() *Info {
	return &Info{
		ID:        k.ID,
		Name:      k.Name,
		CreatedAt: k.CreatedAt,
		LastUsed:  k.LastUsed,
	}
}
