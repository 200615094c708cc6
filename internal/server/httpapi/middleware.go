package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/authkeeper/internal/server/users"
)

type ctxKey string

const (
	userKey      ctxKey = "user"
	sessionIDKey ctxKey = "session_id"
)

// CurrentUser returns the authenticated user attached to the request
// context, or nil for anonymous requests.
func CurrentUser(ctx context.Context) *users.SafeUser {
	u, _ := ctx.Value(userKey).(*users.SafeUser)
	return u
}

// SessionID returns the verified session id attached to the request
// context, or an empty string.
func SessionID(ctx context.Context) string {
	id, _ := ctx.Value(sessionIDKey).(string)
	return id
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}

// Authenticate gates a request on a bearer access token. With required set,
// a missing or invalid token rejects with 401; otherwise the request passes
// through anonymously. On success the resolved safe user and session id are
// attached to the request context.
func (s *Server) Authenticate(required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				if required {
					writeError(w, http.StatusUnauthorized, "unauthorized")
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			info, err := s.auth.VerifyAccessToken(r.Context(), token)
			if err != nil {
				if required {
					writeError(w, http.StatusUnauthorized, "unauthorized")
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			user, err := s.auth.GetUser(r.Context(), info.UserID)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			ctx = context.WithValue(ctx, sessionIDKey, info.SessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects requests whose attached user does not hold the exact
// role: 401 when nobody is attached, 403 on a role mismatch.
func (s *Server) RequireRole(role users.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := CurrentUser(r.Context())
			if user == nil {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if user.Role != role {
				writeError(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
