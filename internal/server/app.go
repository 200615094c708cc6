// Package server initializes and runs the auth server. It resolves the data
// directory and signing secret, selects the storage backend, bootstraps the
// admin account, and drives the HTTP endpoint and the session sweeper until
// shutdown.
package server

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/filex"
	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/apikeys"
	"github.com/dmitrijs2005/authkeeper/internal/server/config"
	"github.com/dmitrijs2005/authkeeper/internal/server/httpapi"
	"github.com/dmitrijs2005/authkeeper/internal/server/services"
	"github.com/dmitrijs2005/authkeeper/internal/server/storemanager"
)

const (
	appName        = "authkeeper"
	secretFileName = ".secret"
	secretByteSize = 32
)

type App struct {
	config     *config.Config
	logger     logging.Logger
	store      storemanager.Manager
	auth       *services.AuthService
	keys       *apikeys.Service
	httpServer *httpapi.Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	dataDir := cfg.DataDir
	if dataDir == "" {
		d, err := filex.DefaultDataDir(appName)
		if err != nil {
			return nil, fmt.Errorf("resolving data dir: %w", err)
		}
		dataDir = d
	}
	if err := filex.EnsureDir(dataDir); err != nil {
		return nil, fmt.Errorf("preparing data dir: %w", err)
	}

	var store storemanager.Manager
	var err error
	if cfg.DatabaseDSN != "" {
		store, err = storemanager.NewPostgresManager(ctx, cfg.DatabaseDSN)
	} else {
		store, err = storemanager.NewFileManager(dataDir)
	}
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	secret := cfg.SecretKey
	if secret == "" {
		secret, err = loadOrCreateSecret(filepath.Join(dataDir, secretFileName))
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("signing secret init error: %w", err)
		}
	}

	auth := services.NewAuthService(store, secret, logger)
	if err := auth.Bootstrap(ctx, cfg.AdminPassword); err != nil {
		store.Close()
		return nil, fmt.Errorf("bootstrap error: %w", err)
	}

	keys := apikeys.NewService(store.APIKeys(), dataDir, logger)
	if err := keys.InitKey(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("encryption key init error: %w", err)
	}

	httpServer := httpapi.NewServer(cfg.EndpointAddrHTTP, cfg.AllowedOrigin, auth, keys, logger)

	return &App{
		config:     cfg,
		logger:     logger,
		store:      store,
		auth:       auth,
		keys:       keys,
		httpServer: httpServer,
	}, nil
}

// loadOrCreateSecret reads the persisted signing secret, generating and
// saving one on first run so tokens survive restarts.
func loadOrCreateSecret(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		secret := strings.TrimSpace(string(data))
		if _, err := hex.DecodeString(secret); err != nil || secret == "" {
			return "", fmt.Errorf("malformed secret file %s", path)
		}
		return secret, nil
	}
	if !os.IsNotExist(err) {
		return "", err
	}

	secret, err := common.MakeRandHexString(secretByteSize)
	if err != nil {
		return "", err
	}
	if err := filex.WriteOwnerOnly(path, []byte(secret)); err != nil {
		return "", err
	}
	return secret, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.httpServer.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// runSessionSweeper deletes expired sessions once at startup and then on
// every tick until the context is cancelled.
func (app *App) runSessionSweeper(ctx context.Context) {
	interval := app.config.SweepInterval
	if interval <= 0 {
		interval = 15 * time.Minute
	}

	sweep := func() {
		// CleanupExpiredSessions logs the swept count itself.
		if _, err := app.auth.CleanupExpiredSessions(ctx); err != nil {
			app.logger.Error(ctx, "session sweep failed", "error", err.Error())
		}
	}

	sweep()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweep()
		}
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting app", "addr", app.config.EndpointAddrHTTP)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.runSessionSweeper(ctx)
	}()

	wg.Wait()

	if err := app.store.Close(); err != nil {
		app.logger.Error(ctx, "closing storage", "error", err.Error())
	}

	app.logger.Info(ctx, "app stopped")
}
