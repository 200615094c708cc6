// Package sessions stores live authentication contexts: one record per
// login, holding the current token pair and its own expiry.
package sessions

import "time"

// Session binds a user to a live access/refresh token pair. Token fields are
// mutated in place on refresh; Generation increases with every rotation and
// is embedded in issued claims, so tokens from an older generation are dead
// even before their cryptographic expiry.
type Session struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	Generation   int64     `json:"generation"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
	LastActivity time.Time `json:"last_activity"`
	IP           string    `json:"ip,omitempty"`
	UserAgent    string    `json:"user_agent,omitempty"`
}

// SafeSession is the projection of Session without the token strings.
type SafeSession struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
	LastActivity time.Time `json:"last_activity"`
	IP           string    `json:"ip,omitempty"`
	UserAgent    string    `json:"user_agent,omitempty"`
}

// Safe returns the session without token strings.
func (s *Session) Safe() *SafeSession {
	return &SafeSession{
		ID:           s.ID,
		UserID:       s.UserID,
		CreatedAt:    s.CreatedAt,
		ExpiresAt:    s.ExpiresAt,
		LastActivity: s.LastActivity,
		IP:           s.IP,
		UserAgent:    s.UserAgent,
	}
}

// ExpiredAt reports whether the session is expired at instant t. The
// boundary is inclusive: a session whose expiry equals t is expired.
func (s *Session) ExpiredAt(t time.Time) bool {
	return !t.Before(s.ExpiresAt)
}
