// Package services contains the server-side business logic. This file
// implements AuthService, the externally facing session manager: login,
// token verification, refresh rotation, logout, expiry sweeping, and the
// user lifecycle operations that interact with session invalidation.
package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/cryptox"
	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"github.com/dmitrijs2005/authkeeper/internal/server/sessions"
	"github.com/dmitrijs2005/authkeeper/internal/server/storemanager"
	"github.com/dmitrijs2005/authkeeper/internal/server/users"
	"github.com/dmitrijs2005/authkeeper/internal/syncx"
	"github.com/google/uuid"
)

const (
	saltSize          = 32
	minPasswordLength = 8

	// BootstrapAdminUsername is the account created on an empty store.
	BootstrapAdminUsername = "admin"

	// DefaultAdminPassword is the fallback bootstrap password. Deployments
	// must change it after the first login.
	DefaultAdminPassword = "admin"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// LoginResult is what a successful login hands back to the caller.
type LoginResult struct {
	User         *users.SafeUser
	AccessToken  string
	RefreshToken string
}

// TokenInfo is the resolved identity behind a verified access token.
type TokenInfo struct {
	UserID    string
	SessionID string
}

// ClientMeta carries optional request origin details stored on the session.
type ClientMeta struct {
	IP        string
	UserAgent string
}

// UserUpdate is a partial update; nil fields are left unchanged.
type UserUpdate struct {
	Email    *string
	Role     *users.Role
	Settings map[string]string
}

// AuthService orchestrates the credential store and the token service.
// Internal failure detail is collapsed into the coarse sentinel set from
// internal/common before it leaves this layer, so callers cannot
// distinguish "user missing" from "wrong password" or "session expired"
// from "session revoked".
type AuthService struct {
	store  storemanager.Manager
	secret []byte
	logger logging.Logger

	// sessionLocks serializes the get-check-update sequences that verify,
	// refresh, and logout run against one session, so a verification in
	// flight cannot write a pre-rotation snapshot back over a refreshed
	// row. userLocks does the same for login racing a password change.
	sessionLocks syncx.KeyedMutex
	userLocks    syncx.KeyedMutex
}

func NewAuthService(store storemanager.Manager, secretKey string, logger logging.Logger) *AuthService {
	return &AuthService{
		store:  store,
		secret: []byte(secretKey),
		logger: logger.With("module", "auth_service"),
	}
}

// HashPassword derives a storable hash for the password with a fresh
// random salt. Exposed for the operator CLI, which rewrites credentials
// on disk directly.
func HashPassword(password string) (hash, salt []byte) {
	salt = common.GenerateRandByteArray(saltSize)
	hash = cryptox.DerivePasswordHash([]byte(password), salt)
	return hash, salt
}

func verifyPassword(candidate string, hash, salt []byte) bool {
	derived := cryptox.DerivePasswordHash([]byte(candidate), salt)
	return cryptox.ConstantTimeEqual(derived, hash)
}

// Register creates a new user. The password is derived into a salted hash
// and never stored in plaintext.
func (s *AuthService) Register(ctx context.Context, username, password, email string, role users.Role) (*users.SafeUser, error) {
	if username == "" {
		return nil, fmt.Errorf("%w: username must not be empty", common.ErrorValidation)
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", common.ErrorValidation, minPasswordLength)
	}
	if role == "" {
		role = users.RoleUser
	}

	hash, salt := HashPassword(password)

	user := &users.User{
		ID:        uuid.NewString(),
		Username:  username,
		Email:     email,
		Hash:      hash,
		Salt:      salt,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}

	created, err := s.store.Users().Create(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "user registered", "username", username, "role", string(role))
	return created.Safe(), nil
}

// Bootstrap creates the initial admin account when the user store is empty.
func (s *AuthService) Bootstrap(ctx context.Context, adminPassword string) error {
	count, err := s.store.Users().Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if adminPassword == "" {
		adminPassword = DefaultAdminPassword
		s.logger.Warn(ctx, "bootstrapping admin with the default password, change it after first login")
	}

	_, err = s.Register(ctx, BootstrapAdminUsername, adminPassword, "", users.RoleAdmin)
	return err
}

func (s *AuthService) issuePair(userID, sessionID string, generation int64) (*TokenPair, error) {
	access, err := auth.GenerateToken(userID, sessionID, auth.KindAccess, generation, s.secret)
	if err != nil {
		return nil, common.ErrorInternal
	}
	refresh, err := auth.GenerateToken(userID, sessionID, auth.KindRefresh, generation, s.secret)
	if err != nil {
		return nil, common.ErrorInternal
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Login verifies the credentials and opens a new session with a fresh token
// pair. Unknown user and wrong password produce the identical error.
func (s *AuthService) Login(ctx context.Context, username, password string, meta ClientMeta) (*LoginResult, error) {
	user, err := s.store.Users().GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// burn the same KDF cost as the success path
			verifyPassword(password, nil, []byte("enumeration-resistant"))
			return nil, common.ErrorUnauthorized
		}
		return nil, err
	}

	if !verifyPassword(password, user.Hash, user.Salt) {
		return nil, common.ErrorUnauthorized
	}

	// The KDF ran outside the lock. Re-read the user under the lock and
	// make sure the credentials just verified are still the stored ones,
	// so a login racing a password change cannot leave a session behind
	// after that change purged them all.
	verifiedHash, verifiedSalt := user.Hash, user.Salt

	s.userLocks.Lock(user.ID)
	defer s.userLocks.Unlock(user.ID)

	user, err = s.store.Users().GetByID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, err
	}
	if !bytes.Equal(user.Hash, verifiedHash) || !bytes.Equal(user.Salt, verifiedSalt) {
		return nil, common.ErrorUnauthorized
	}

	now := time.Now().UTC()
	user.LastLogin = &now
	if err := s.store.Users().Update(ctx, user); err != nil {
		return nil, err
	}

	session := &sessions.Session{
		ID:           uuid.NewString(),
		UserID:       user.ID,
		Generation:   1,
		CreatedAt:    now,
		ExpiresAt:    now.Add(auth.RefreshTokenTTL),
		LastActivity: now,
		IP:           meta.IP,
		UserAgent:    meta.UserAgent,
	}

	pair, err := s.issuePair(user.ID, session.ID, session.Generation)
	if err != nil {
		return nil, err
	}
	session.AccessToken = pair.AccessToken
	session.RefreshToken = pair.RefreshToken

	// the session row is persisted before the pair is handed out, so any
	// later verification can observe it
	if _, err := s.store.Sessions().Create(ctx, session); err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "login", "username", username, "session_id", session.ID)

	return &LoginResult{
		User:         user.Safe(),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}

// VerifyAccessToken checks the signature, the token kind, the referenced
// session's liveness, and the token generation. Every failure collapses to
// common.ErrorUnauthorized. An expired session found on the way is deleted
// lazily. On success the session's last-activity timestamp is bumped.
func (s *AuthService) VerifyAccessToken(ctx context.Context, tokenString string) (*TokenInfo, error) {
	claims, err := auth.ParseToken(tokenString, s.secret)
	if err != nil {
		return nil, common.ErrorUnauthorized
	}
	if claims.Kind != auth.KindAccess {
		return nil, common.ErrorUnauthorized
	}

	s.sessionLocks.Lock(claims.SessionID)
	defer s.sessionLocks.Unlock(claims.SessionID)

	session, err := s.store.Sessions().Get(ctx, claims.SessionID)
	if err != nil {
		return nil, common.ErrorUnauthorized
	}

	now := time.Now().UTC()
	if session.ExpiredAt(now) {
		if err := s.store.Sessions().Delete(ctx, session.ID); err != nil {
			s.logger.Error(ctx, "failed to delete expired session", "session_id", session.ID, "error", err.Error())
		}
		return nil, common.ErrorUnauthorized
	}

	if claims.Generation != session.Generation {
		return nil, common.ErrorUnauthorized
	}

	session.LastActivity = now
	if err := s.store.Sessions().Update(ctx, session); err != nil {
		return nil, err
	}

	return &TokenInfo{UserID: claims.UserID, SessionID: claims.SessionID}, nil
}

// Refresh rotates the session's token pair in place: the generation counter
// increases and both token fields are overwritten, so the previous pair is
// rejected by verification from this point on. All failures surface as
// common.ErrInvalidRefreshToken.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := auth.ParseToken(refreshToken, s.secret)
	if err != nil {
		return nil, common.ErrInvalidRefreshToken
	}
	if claims.Kind != auth.KindRefresh {
		return nil, common.ErrInvalidRefreshToken
	}

	s.sessionLocks.Lock(claims.SessionID)
	defer s.sessionLocks.Unlock(claims.SessionID)

	session, err := s.store.Sessions().Get(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidRefreshToken
		}
		return nil, err
	}

	now := time.Now().UTC()
	if session.ExpiredAt(now) {
		if err := s.store.Sessions().Delete(ctx, session.ID); err != nil {
			s.logger.Error(ctx, "failed to delete expired session", "session_id", session.ID, "error", err.Error())
		}
		return nil, common.ErrInvalidRefreshToken
	}

	if claims.Generation != session.Generation {
		return nil, common.ErrInvalidRefreshToken
	}

	session.Generation++
	pair, err := s.issuePair(session.UserID, session.ID, session.Generation)
	if err != nil {
		return nil, err
	}
	session.AccessToken = pair.AccessToken
	session.RefreshToken = pair.RefreshToken
	session.LastActivity = now

	if err := s.store.Sessions().Update(ctx, session); err != nil {
		return nil, err
	}

	return pair, nil
}

// Logout deletes the session. Deleting an absent session is not an error.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	s.sessionLocks.Lock(sessionID)
	defer s.sessionLocks.Unlock(sessionID)
	return s.store.Sessions().Delete(ctx, sessionID)
}

// LogoutAll deletes every session of the user.
func (s *AuthService) LogoutAll(ctx context.Context, userID string) error {
	return s.store.Sessions().DeleteForUser(ctx, userID)
}

// CleanupExpiredSessions sweeps all expired sessions and returns the count.
func (s *AuthService) CleanupExpiredSessions(ctx context.Context) (int, error) {
	n, err := s.store.Sessions().SweepExpired(ctx, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info(ctx, "swept expired sessions", "count", n)
	}
	return n, nil
}

// ChangePassword rotates the user's hash and salt after verifying the
// current password, and invalidates every session of that user so all
// devices must log in again. A wrong current password leaves sessions
// untouched.
func (s *AuthService) ChangePassword(ctx context.Context, userID, current, newPassword string) error {
	s.userLocks.Lock(userID)
	defer s.userLocks.Unlock(userID)

	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if !verifyPassword(current, user.Hash, user.Salt) {
		return common.ErrorUnauthorized
	}
	if len(newPassword) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", common.ErrorValidation, minPasswordLength)
	}

	user.Hash, user.Salt = HashPassword(newPassword)

	err = s.store.InTx(ctx, func(m storemanager.Manager) error {
		if err := m.Users().Update(ctx, user); err != nil {
			return err
		}
		return m.Sessions().DeleteForUser(ctx, userID)
	})
	if err != nil {
		return err
	}

	s.logger.Info(ctx, "password changed, sessions invalidated", "user_id", userID)
	return nil
}

// GetUser returns the safe view of a user.
func (s *AuthService) GetUser(ctx context.Context, id string) (*users.SafeUser, error) {
	user, err := s.store.Users().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return user.Safe(), nil
}

// ListUsers returns safe views of all users.
func (s *AuthService) ListUsers(ctx context.Context) ([]*users.SafeUser, error) {
	list, err := s.store.Users().List(ctx)
	if err != nil {
		return nil, err
	}

	safe := make([]*users.SafeUser, 0, len(list))
	for _, u := range list {
		safe = append(safe, u.Safe())
	}
	return safe, nil
}

// UpdateUser applies a partial update to the user's profile fields.
func (s *AuthService) UpdateUser(ctx context.Context, id string, update UserUpdate) (*users.SafeUser, error) {
	user, err := s.store.Users().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.Email != nil {
		user.Email = *update.Email
	}
	if update.Role != nil {
		user.Role = *update.Role
	}
	if update.Settings != nil {
		user.Settings = update.Settings
	}

	if err := s.store.Users().Update(ctx, user); err != nil {
		return nil, err
	}
	return user.Safe(), nil
}

// DeleteUser removes the user and cascades session deletion.
func (s *AuthService) DeleteUser(ctx context.Context, id string) error {
	return s.store.InTx(ctx, func(m storemanager.Manager) error {
		if err := m.Sessions().DeleteForUser(ctx, id); err != nil {
			return err
		}
		return m.Users().Delete(ctx, id)
	})
}

// ListSessions returns safe views of the user's sessions, token strings
// stripped.
func (s *AuthService) ListSessions(ctx context.Context, userID string) ([]*sessions.SafeSession, error) {
	list, err := s.store.Sessions().ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	safe := make([]*sessions.SafeSession, 0, len(list))
	for _, sess := range list {
		safe = append(safe, sess.Safe())
	}
	return safe, nil
}
