// Package httpapi exposes the auth subsystem over HTTP: the login/refresh
// endpoints, user and API-key administration, and the request-gating
// middleware external hosts mount in front of their own handlers.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/apikeys"
	"github.com/dmitrijs2005/authkeeper/internal/server/services"
	"github.com/dmitrijs2005/authkeeper/internal/server/users"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

type Server struct {
	addr          string
	allowedOrigin string
	auth          *services.AuthService
	apiKeys       *apikeys.Service
	logger        logging.Logger
}

func NewServer(addr, allowedOrigin string, auth *services.AuthService, keys *apikeys.Service, l logging.Logger) *Server {
	return &Server{
		addr:          addr,
		allowedOrigin: allowedOrigin,
		auth:          auth,
		apiKeys:       keys,
		logger:        l.With("module", "http_server"),
	}
}

// Handler builds the router. Exposed separately from Run so tests can drive
// it through httptest.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{s.allowedOrigin},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/login", s.handleLogin)
		r.Post("/refresh", s.handleRefresh)

		r.Group(func(r chi.Router) {
			r.Use(s.Authenticate(true))
			r.Post("/logout", s.handleLogout)
			r.Post("/logout-all", s.handleLogoutAll)
			r.Get("/me", s.handleMe)
			r.Get("/sessions", s.handleSessions)
			r.Post("/password", s.handleChangePassword)
		})
	})

	r.Route("/api/users", func(r chi.Router) {
		r.Use(s.Authenticate(true))
		r.Use(s.RequireRole(users.RoleAdmin))
		r.Get("/", s.handleListUsers)
		r.Post("/", s.handleCreateUser)
		r.Get("/{id}", s.handleGetUser)
		r.Patch("/{id}", s.handleUpdateUser)
		r.Delete("/{id}", s.handleDeleteUser)
	})

	r.Route("/api/keys", func(r chi.Router) {
		r.Use(s.Authenticate(true))
		r.Use(s.RequireRole(users.RoleAdmin))
		r.Get("/", s.handleListKeys)
		r.Post("/", s.handleCreateKey)
		r.Get("/{id}", s.handleRevealKey)
		r.Delete("/{id}", s.handleDeleteKey)
	})

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown error", "error", err.Error())
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.addr)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
